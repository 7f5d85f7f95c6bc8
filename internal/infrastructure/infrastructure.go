// Package infrastructure assembles the shared systems the service starts with:
// lifecycle coordination, logging, the report database, recording storage,
// and the literature cache.
package infrastructure

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/one2ten/stetho-agent/internal/config"
	"github.com/one2ten/stetho-agent/pkg/cache"
	"github.com/one2ten/stetho-agent/pkg/database"
	"github.com/one2ten/stetho-agent/pkg/lifecycle"
	"github.com/one2ten/stetho-agent/pkg/storage"
)

// Infrastructure holds the systems every domain module draws on.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Database  database.System
	Storage   storage.System
	Cache     cache.System
}

// New builds the systems from cfg without starting them.
// The cache is optional and falls back to a no-op when no address is set.
func New(cfg *config.Config) (*Infrastructure, error) {
	lc := lifecycle.New()
	logger := NewLogger()

	db, err := database.New(&cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}

	store, err := storage.New(&cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("storage init failed: %w", err)
	}

	return &Infrastructure{
		Lifecycle: lc,
		Logger:    logger,
		Database:  db,
		Storage:   store,
		Cache:     cache.New(&cfg.Cache, logger),
	}, nil
}

// NewLogger returns the process logger. STETHO_LOG_LEVEL=debug enables
// per-node timing output from triage runs and STETHO_LOG_FORMAT=json
// switches from text to JSON lines.
func NewLogger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if v := os.Getenv("STETHO_LOG_LEVEL"); v != "" {
		var level slog.Level
		if err := level.UnmarshalText([]byte(v)); err == nil {
			opts.Level = level
		}
	}

	if strings.EqualFold(os.Getenv("STETHO_LOG_FORMAT"), "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// Start registers startup and shutdown hooks for each system.
func (i *Infrastructure) Start() error {
	if err := i.Database.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("database start failed: %w", err)
	}
	if err := i.Storage.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("storage start failed: %w", err)
	}
	if err := i.Cache.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("cache start failed: %w", err)
	}
	return nil
}
