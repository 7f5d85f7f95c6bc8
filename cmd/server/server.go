package main

import (
	"log/slog"
	"time"

	"github.com/one2ten/stetho-agent/internal/config"
	"github.com/one2ten/stetho-agent/internal/infrastructure"
	"github.com/one2ten/stetho-agent/pkg/middleware"
)

// Server wires the infrastructure, the API module and the HTTP listener.
type Server struct {
	infra *infrastructure.Infrastructure
	http  *httpServer
}

func NewServer(cfg *config.Config) (*Server, error) {
	infra, err := infrastructure.New(cfg)
	if err != nil {
		return nil, err
	}

	modules, err := NewModules(infra, cfg)
	if err != nil {
		return nil, err
	}

	router := buildRouter(infra)
	router.Use(middleware.RequestID())
	modules.Mount(router)

	infra.Logger.Info("stetho initialized",
		"version", cfg.Version,
		"env", cfg.Env(),
		slog.Group("server", "addr", cfg.Server.Addr(), "write_timeout", cfg.Server.WriteTimeout),
		slog.Group("collaborators",
			"agent", cfg.Agent.Provider.Name,
			"model", cfg.Agent.Model.Name,
			"literature", cfg.Literature.Sources,
			"classifier", cfg.Classifier.BaseURL != "",
			"cache", cfg.Cache.Enabled(),
		),
	)

	return &Server{
		infra: infra,
		http:  newHTTPServer(&cfg.Server, router, infra.Logger),
	}, nil
}

// Start registers every subsystem with the lifecycle and begins serving.
// Requests are accepted before startup hooks finish; /readyz reports when
// they have.
func (s *Server) Start() error {
	if err := s.infra.Start(); err != nil {
		return err
	}
	if err := s.http.Start(s.infra.Lifecycle); err != nil {
		return err
	}

	go s.reportStartup()
	return nil
}

func (s *Server) reportStartup() {
	lc := s.infra.Lifecycle
	lc.WaitForStartup()

	if failed := lc.Status().Failed; len(failed) > 0 {
		s.infra.Logger.Error("startup finished with failures", "failed", failed)
		return
	}
	s.infra.Logger.Info("all subsystems ready")
}

func (s *Server) Shutdown(timeout time.Duration) error {
	s.infra.Logger.Info("shutting down", "timeout", timeout)
	return s.infra.Lifecycle.Shutdown(timeout)
}
