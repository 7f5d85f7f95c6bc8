// Package config loads the service configuration. A base config.toml is
// optional; an overlay named by STETHO_ENV is merged over it, and each section
// then applies its defaults, STETHO_* environment overrides, and validation.
package config

import (
	"fmt"
	"os"
	"time"

	gaconfig "github.com/JaimeStill/go-agents/pkg/config"
	"github.com/pelletier/go-toml/v2"

	"github.com/one2ten/stetho-agent/internal/classifier"
	"github.com/one2ten/stetho-agent/internal/literature"
	"github.com/one2ten/stetho-agent/internal/narrative"
	"github.com/one2ten/stetho-agent/pkg/cache"
	"github.com/one2ten/stetho-agent/pkg/database"
	"github.com/one2ten/stetho-agent/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvStethoEnv             = "STETHO_ENV"
	EnvStethoShutdownTimeout = "STETHO_SHUTDOWN_TIMEOUT"
	EnvStethoVersion         = "STETHO_VERSION"
)

var databaseEnv = &database.Env{
	URL:             "STETHO_DATABASE_URL",
	Host:            "STETHO_DB_HOST",
	Port:            "STETHO_DB_PORT",
	Name:            "STETHO_DB_NAME",
	User:            "STETHO_DB_USER",
	Password:        "STETHO_DB_PASSWORD",
	SSLMode:         "STETHO_DB_SSL_MODE",
	MaxOpenConns:    "STETHO_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "STETHO_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "STETHO_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "STETHO_DB_CONN_TIMEOUT",
}

var storageEnv = &storage.Env{
	ContainerName:    "STETHO_STORAGE_CONTAINER_NAME",
	ConnectionString: "STETHO_STORAGE_CONNECTION_STRING",
}

var cacheEnv = &cache.Env{
	Addr:        "STETHO_CACHE_ADDR",
	Password:    "STETHO_CACHE_PASSWORD",
	DB:          "STETHO_CACHE_DB",
	Prefix:      "STETHO_CACHE_PREFIX",
	PoolSize:    "STETHO_CACHE_POOL_SIZE",
	ConnTimeout: "STETHO_CACHE_CONN_TIMEOUT",
}

var narrativeEnv = &narrative.Env{
	Timeout:    "STETHO_NARRATIVE_TIMEOUT",
	MaxRetries: "STETHO_NARRATIVE_MAX_RETRIES",
}

var literatureEnv = &literature.Env{
	Sources:    "STETHO_LITERATURE_SOURCES",
	BaseURL:    "STETHO_LITERATURE_BASE_URL",
	APIKey:     "NCBI_API_KEY",
	MinYear:    "STETHO_LITERATURE_MIN_YEAR",
	MaxResults: "STETHO_LITERATURE_MAX_RESULTS",
	Timeout:    "STETHO_LITERATURE_TIMEOUT",
	MaxRetries: "STETHO_LITERATURE_MAX_RETRIES",
	CacheTTL:   "STETHO_LITERATURE_CACHE_TTL",
}

var classifierEnv = &classifier.Env{
	BaseURL:    "STETHO_CLASSIFIER_BASE_URL",
	Timeout:    "STETHO_CLASSIFIER_TIMEOUT",
	MaxRetries: "STETHO_CLASSIFIER_MAX_RETRIES",
}

// Config is the root configuration for the stetho service.
type Config struct {
	Server          ServerConfig         `toml:"server"`
	Database        database.Config      `toml:"database"`
	Storage         storage.Config       `toml:"storage"`
	Cache           cache.Config         `toml:"cache"`
	API             APIConfig            `toml:"api"`
	Agent           gaconfig.AgentConfig `toml:"agent"`
	Narrative       narrative.Config     `toml:"narrative"`
	Literature      literature.Config    `toml:"literature"`
	Classifier      classifier.Config    `toml:"classifier"`
	Triage          TriageConfig         `toml:"triage"`
	ShutdownTimeout string               `toml:"shutdown_timeout"`
	Version         string               `toml:"version"`
}

// Env returns the STETHO_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvStethoEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. If no config.toml exists, defaults and environment
// variables provide all configuration.
func Load() (*Config, error) {
	return LoadFile(BaseConfigFile)
}

// LoadFile is Load with an explicit base file path. The overlay is looked up
// in the working directory as config.<env>.toml.
func LoadFile(path string) (*Config, error) {
	cfg, err := LoadPartial(path)
	if err != nil {
		return nil, err
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.Cache.Merge(&overlay.Cache)
	c.API.Merge(&overlay.API)
	c.Agent.Merge(&overlay.Agent)
	c.Narrative.Merge(&overlay.Narrative)
	c.Literature.Merge(&overlay.Literature)
	c.Classifier.Merge(&overlay.Classifier)
	c.Triage.Merge(&overlay.Triage)
}

// FinalizeCore finalizes only the sections a standalone triage run needs:
// the agent and other collaborators, the cache, and the triage section. The CLI uses it so a
// run does not require database or storage settings.
func (c *Config) FinalizeCore() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Cache.Finalize(cacheEnv); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	if err := FinalizeAgent(&c.Agent); err != nil {
		return fmt.Errorf("agent: %w", err)
	}
	if err := c.Narrative.Finalize(narrativeEnv); err != nil {
		return fmt.Errorf("narrative: %w", err)
	}
	if err := c.Literature.Finalize(literatureEnv); err != nil {
		return fmt.Errorf("literature: %w", err)
	}
	if err := c.Classifier.Finalize(classifierEnv); err != nil {
		return fmt.Errorf("classifier: %w", err)
	}
	if err := c.Triage.Finalize(); err != nil {
		return fmt.Errorf("triage: %w", err)
	}
	return nil
}

// FinalizeDatabase finalizes only the database section, for tools such as
// the migrator that open nothing else.
func (c *Config) FinalizeDatabase() error {
	if err := c.Database.Finalize(databaseEnv); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	return nil
}

func (c *Config) finalize() error {
	if err := c.FinalizeCore(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Database.Finalize(databaseEnv); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Storage.Finalize(storageEnv); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvStethoShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvStethoVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

// LoadPartial reads the base file and overlay without finalizing, for
// callers that finalize a subset of sections.
func LoadPartial(path string) (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(path); err == nil {
		loaded, err := load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if overlay := overlayPath(); overlay != "" {
		o, err := load(overlay)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", overlay, err)
		}
		cfg.Merge(o)
	}

	return cfg, nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvStethoEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
