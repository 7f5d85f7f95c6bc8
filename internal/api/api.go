// Package api assembles the API module: the report and prompt domains,
// their routes, and the OpenAPI document describing them.
package api

import (
	"net/http"

	"github.com/one2ten/stetho-agent/internal/config"
	"github.com/one2ten/stetho-agent/internal/infrastructure"
	"github.com/one2ten/stetho-agent/pkg/middleware"
	"github.com/one2ten/stetho-agent/pkg/module"
)

// NewModule creates the API module with all domain handlers and middleware.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	runtime, err := NewRuntime(cfg, infra)
	if err != nil {
		return nil, err
	}
	domain := NewDomain(runtime, cfg.Triage.RunTimeoutDuration())

	mux := http.NewServeMux()
	if err := registerRoutes(mux, domain, cfg); err != nil {
		return nil, err
	}

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.Logger(runtime.Logger))

	return m, nil
}
