package api

import (
	"time"

	"github.com/one2ten/stetho-agent/internal/prompts"
	"github.com/one2ten/stetho-agent/internal/reports"
	"github.com/one2ten/stetho-agent/internal/triage"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Prompts prompts.System
	Reports reports.System
}

// NewDomain creates all domain systems from the API runtime. Triage runs
// resolve stage instructions through the prompts system so stored overrides
// take effect without a restart.
func NewDomain(runtime *Runtime, runTimeout time.Duration) *Domain {
	promptsSystem := prompts.New(
		runtime.Database.Connection(),
		runtime.Logger,
		runtime.Pagination,
	)

	triageRuntime := &triage.Runtime{
		Generator: runtime.Narrative,
		Searcher:  runtime.Literature,
		Prompts:   promptsSystem,
		Reference: runtime.Reference,
		Logger:    runtime.Logger,
		Timeout:   runTimeout,
	}

	var classify reports.Classifier
	if runtime.Classifier.Enabled() {
		classify = runtime.Classifier
	}

	reportsSystem := reports.New(
		runtime.Database.Connection(),
		runtime.Storage,
		triageRuntime,
		classify,
		runtime.Logger,
		runtime.Pagination,
	)

	return &Domain{
		Prompts: promptsSystem,
		Reports: reportsSystem,
	}
}
