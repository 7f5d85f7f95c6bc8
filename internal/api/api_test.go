package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/one2ten/stetho-agent/internal/api"
	"github.com/one2ten/stetho-agent/internal/config"
	"github.com/one2ten/stetho-agent/internal/infrastructure"
	"github.com/one2ten/stetho-agent/pkg/database"
	"github.com/one2ten/stetho-agent/pkg/middleware"
	"github.com/one2ten/stetho-agent/pkg/pagination"
	"github.com/one2ten/stetho-agent/pkg/storage"
)

const azuriteConnString = "DefaultEndpointsProtocol=http;AccountName=devstoreaccount1;AccountKey=Eby8vdM02xNOcqFlqUwJPLlmEtlCDXJ1OUzFT50uSRZ6IFsuFq2UVErCz4I6tq/K1SZFPTOtr/KBHBeksoGMGw==;BlobEndpoint=http://127.0.0.1:10000/devstoreaccount1;"

func validConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{
		Server: config.ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     "1m",
			WriteTimeout:    "15m",
			ShutdownTimeout: "30s",
		},
		Database: database.Config{
			Host:            "localhost",
			Port:            5432,
			Name:            "stetho",
			User:            "stetho",
			Password:        "stetho",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: "15m",
			ConnTimeout:     "5s",
		},
		Storage: storage.Config{
			ContainerName:    "recordings",
			ConnectionString: azuriteConnString,
		},
		API: config.APIConfig{
			BasePath: "/api",
			CORS: middleware.CORSConfig{
				Enabled: false,
			},
			Pagination: pagination.Config{
				DefaultPageSize: 20,
				MaxPageSize:     100,
			},
		},
		ShutdownTimeout: "30s",
		Version:         "0.1.0",
	}
	if err := cfg.FinalizeCore(); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if err := cfg.API.Finalize(); err != nil {
		t.Fatalf("finalize api: %v", err)
	}
	return cfg
}

func setupInfra(t *testing.T, cfg *config.Config) *infrastructure.Infrastructure {
	t.Helper()
	infra, err := infrastructure.New(cfg)
	if err != nil {
		t.Fatalf("infrastructure.New() error = %v", err)
	}
	t.Cleanup(func() { infra.Database.Connection().Close() })
	return infra
}

func TestNewModule(t *testing.T) {
	cfg := validConfig(t)

	m, err := api.NewModule(cfg, setupInfra(t, cfg))
	if err != nil {
		t.Fatalf("NewModule() error = %v", err)
	}

	if m.Prefix() != "/api" {
		t.Errorf("prefix: got %s, want /api", m.Prefix())
	}
}

func TestNewModuleBadReference(t *testing.T) {
	cfg := validConfig(t)
	cfg.Triage.ReferencePath = filepath.Join(t.TempDir(), "missing.yaml")

	if _, err := api.NewModule(cfg, setupInfra(t, cfg)); err == nil {
		t.Fatal("expected error for unreadable reference data")
	}
}

func TestNewRuntime(t *testing.T) {
	cfg := validConfig(t)

	runtime, err := api.NewRuntime(cfg, setupInfra(t, cfg))
	if err != nil {
		t.Fatalf("NewRuntime() error = %v", err)
	}

	if runtime.Pagination.DefaultPageSize != 20 {
		t.Errorf("pagination default page size: got %d, want 20", runtime.Pagination.DefaultPageSize)
	}
	if runtime.Logger == nil {
		t.Error("runtime logger is nil")
	}
	if runtime.Narrative == nil || runtime.Literature == nil || runtime.Classifier == nil {
		t.Error("collaborator clients not constructed")
	}
	if runtime.Classifier.Enabled() {
		t.Error("classifier without a base url should be disabled")
	}
	if runtime.Reference == nil {
		t.Error("reference data not loaded")
	}
	if runtime.Cache == nil {
		t.Error("runtime cache is nil")
	}
}

func TestNewDomain(t *testing.T) {
	cfg := validConfig(t)
	runtime, err := api.NewRuntime(cfg, setupInfra(t, cfg))
	if err != nil {
		t.Fatalf("NewRuntime() error = %v", err)
	}

	domain := api.NewDomain(runtime, time.Minute)
	if domain.Prompts == nil || domain.Reports == nil {
		t.Fatal("domain systems not constructed")
	}
	if len(domain.Reports.Options().Severities) != 4 {
		t.Errorf("severities: got %v", domain.Reports.Options().Severities)
	}
}

func TestOpenAPIDocument(t *testing.T) {
	cfg := validConfig(t)

	m, err := api.NewModule(cfg, setupInfra(t, cfg))
	if err != nil {
		t.Fatalf("NewModule() error = %v", err)
	}

	rec := httptest.NewRecorder()
	m.Serve(rec, httptest.NewRequest(http.MethodGet, "/api/openapi.json", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}

	var doc struct {
		Info struct {
			Title   string `json:"title"`
			Version string `json:"version"`
		} `json:"info"`
		Servers []struct {
			URL string `json:"url"`
		} `json:"servers"`
		Paths      map[string]map[string]json.RawMessage `json:"paths"`
		Components struct {
			Schemas map[string]json.RawMessage `json:"schemas"`
		} `json:"components"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if doc.Info.Title != "Stetho API" || doc.Info.Version != "0.1.0" {
		t.Errorf("info: got %+v", doc.Info)
	}
	if len(doc.Servers) != 1 || doc.Servers[0].URL != "/api" {
		t.Errorf("servers: got %+v", doc.Servers)
	}

	wantPaths := map[string][]string{
		"/reports":                      {"get", "post"},
		"/reports/audio":                {"post"},
		"/reports/{id}":                 {"get", "delete"},
		"/reports/{id}/export":          {"get"},
		"/prompts":                      {"get", "post"},
		"/prompts/{id}/activate":        {"post"},
		"/prompts/{stage}/instructions": {"get"},
	}
	for path, methods := range wantPaths {
		item, ok := doc.Paths[path]
		if !ok {
			t.Errorf("path %s missing", path)
			continue
		}
		for _, method := range methods {
			if _, ok := item[method]; !ok {
				t.Errorf("%s %s missing", method, path)
			}
		}
	}

	for _, schema := range []string{"Report", "TriageInput", "PageRequest", "Error"} {
		if _, ok := doc.Components.Schemas[schema]; !ok {
			t.Errorf("schema %s missing", schema)
		}
	}

	yamlRec := httptest.NewRecorder()
	m.Serve(yamlRec, httptest.NewRequest(http.MethodGet, "/api/openapi.yaml", nil))
	if yamlRec.Code != http.StatusOK {
		t.Fatalf("yaml status: got %d, want 200", yamlRec.Code)
	}
	if ct := yamlRec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/yaml") {
		t.Errorf("yaml content type: got %s", ct)
	}
}
