package main

import (
	"encoding/json"
	"net/http"

	"github.com/one2ten/stetho-agent/internal/api"
	"github.com/one2ten/stetho-agent/internal/config"
	"github.com/one2ten/stetho-agent/internal/infrastructure"
	"github.com/one2ten/stetho-agent/pkg/lifecycle"
	"github.com/one2ten/stetho-agent/pkg/module"
)

type Modules struct {
	API *module.Module
}

func NewModules(infra *infrastructure.Infrastructure, cfg *config.Config) (*Modules, error) {
	apiModule, err := api.NewModule(cfg, infra)
	if err != nil {
		return nil, err
	}

	return &Modules{API: apiModule}, nil
}

func (m *Modules) Mount(router *module.Router) {
	router.Mount(m.API)
}

func buildRouter(infra *infrastructure.Infrastructure) *module.Router {
	router := module.NewRouter()

	router.HandleNative("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "ok")
	})

	router.HandleNative("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		if !infra.Lifecycle.Ready() {
			writeJSON(w, http.StatusServiceUnavailable, readiness{
				State:  "not ready",
				Status: infra.Lifecycle.Status(),
			})
			return
		}
		writeStatus(w, http.StatusOK, "ready")
	})

	return router
}

type readiness struct {
	State string `json:"status"`
	lifecycle.Status
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	writeJSON(w, code, map[string]string{"status": status})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
