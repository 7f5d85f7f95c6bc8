package api

import (
	"fmt"

	"github.com/one2ten/stetho-agent/internal/classifier"
	"github.com/one2ten/stetho-agent/internal/config"
	"github.com/one2ten/stetho-agent/internal/infrastructure"
	"github.com/one2ten/stetho-agent/internal/literature"
	"github.com/one2ten/stetho-agent/internal/narrative"
	"github.com/one2ten/stetho-agent/internal/reference"
	"github.com/one2ten/stetho-agent/pkg/pagination"
)

// Runtime extends Infrastructure with the collaborators triage runs call out to.
type Runtime struct {
	*infrastructure.Infrastructure
	Narrative  *narrative.Client
	Literature *literature.Client
	Classifier *classifier.Client
	Reference  *reference.Data
	Pagination pagination.Config
}

// NewRuntime creates an API runtime with a module-scoped logger.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) (*Runtime, error) {
	ref, err := cfg.Triage.Reference()
	if err != nil {
		return nil, fmt.Errorf("reference data: %w", err)
	}

	logger := infra.Logger.With("module", "api")

	return &Runtime{
		Infrastructure: &infrastructure.Infrastructure{
			Lifecycle: infra.Lifecycle,
			Logger:    logger,
			Database:  infra.Database,
			Storage:   infra.Storage,
			Cache:     infra.Cache,
		},
		Narrative:  narrative.New(&cfg.Agent, &cfg.Narrative, logger),
		Literature: literature.New(&cfg.Literature, infra.Cache, logger),
		Classifier: classifier.New(&cfg.Classifier, logger),
		Reference:  ref,
		Pagination: cfg.API.Pagination,
	}, nil
}
