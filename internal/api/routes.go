package api

import (
	"fmt"
	"net/http"

	"github.com/one2ten/stetho-agent/internal/config"
	"github.com/one2ten/stetho-agent/pkg/openapi"
	"github.com/one2ten/stetho-agent/pkg/routes"
)

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	cfg *config.Config,
) error {
	groups := []routes.Group{
		domain.Reports.Handler(cfg.API.MaxUploadSizeBytes()).Routes(),
		domain.Prompts.Handler().Routes(),
	}

	routes.Register(mux, groups...)

	spec := buildSpec(cfg, groups)

	jsonSpec, err := openapi.MarshalJSON(spec)
	if err != nil {
		return fmt.Errorf("openapi json: %w", err)
	}
	yamlSpec, err := openapi.MarshalYAML(spec)
	if err != nil {
		return fmt.Errorf("openapi yaml: %w", err)
	}

	mux.HandleFunc("GET /openapi.json", openapi.ServeSpec(jsonSpec, openapi.ContentTypeJSON))
	mux.HandleFunc("GET /openapi.yaml", openapi.ServeSpec(yamlSpec, openapi.ContentTypeYAML))

	return nil
}

// buildSpec documents the registered groups. Paths are relative to the
// advertised server, which defaults to the API base path.
func buildSpec(cfg *config.Config, groups []routes.Group) *openapi.Spec {
	spec := openapi.NewSpec(cfg.API.OpenAPI.Title, cfg.Version)
	spec.SetDescription(cfg.API.OpenAPI.Description)

	server := cfg.API.OpenAPI.ServerURL
	if server == "" {
		server = cfg.API.BasePath
	}
	spec.AddServer(server)

	spec.AddTag("Reports", "Triage runs and their stored reports")
	spec.AddTag("Prompts", "Per-stage instruction overrides")

	routes.Describe(spec, "", groups...)

	return spec
}
