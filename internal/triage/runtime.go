package triage

import (
	"context"
	"log/slog"
	"time"

	"github.com/one2ten/stetho-agent/internal/literature"
	"github.com/one2ten/stetho-agent/internal/prompts"
	"github.com/one2ten/stetho-agent/internal/reference"
)

// Generator produces narrative text. Retries and timeouts are the
// generator's concern; a returned error is final for that call.
type Generator interface {
	Generate(ctx context.Context, prompt, system string) (string, error)
}

// Searcher looks up medical literature for a query.
type Searcher interface {
	Search(ctx context.Context, query string) (*literature.Result, error)
}

// Runtime bundles the collaborators that triage nodes require.
// It is constructed by higher-level composition code from infrastructure
// and domain systems.
type Runtime struct {
	Generator Generator
	// Searcher may be nil, in which case synthesis records a failed search.
	Searcher  Searcher
	Prompts   prompts.Source
	Reference *reference.Data
	Logger    *slog.Logger
	// Timeout bounds a whole Run when positive.
	Timeout   time.Duration
}

func (rt *Runtime) ref() *reference.Data {
	if rt.Reference == nil {
		return reference.Default()
	}
	return rt.Reference
}

func (rt *Runtime) source() prompts.Source {
	if rt.Prompts == nil {
		return prompts.Defaults()
	}
	return rt.Prompts
}

func (rt *Runtime) log() *slog.Logger {
	if rt.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return rt.Logger
}
