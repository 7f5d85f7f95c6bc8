package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/one2ten/stetho-agent/internal/config"
)

const baseConfig = `
shutdown_timeout = "30s"
version = "0.1.0"

[server]
host = "0.0.0.0"
port = 8080
read_timeout = "1m"
write_timeout = "15m"
shutdown_timeout = "30s"

[database]
host = "localhost"
port = 5432
name = "stetho"
user = "stetho"
password = "stetho"
ssl_mode = "disable"

[storage]
container_name = "recordings"
connection_string = "DefaultEndpointsProtocol=http;AccountName=devstoreaccount1;AccountKey=key;BlobEndpoint=http://127.0.0.1:10000/devstoreaccount1;"

[cache]
addr = "localhost:6379"

[api]
base_path = "/api"

[api.pagination]
default_page_size = 25
max_page_size = 50

[agent]
name = "test-agent"

[agent.provider]
name = "ollama"

[agent.model]
name = "llama3.1:8b"

[narrative]
max_retries = 2

[triage]
run_timeout = "5m"
`

const overlayConfig = `
[server]
port = 9090

[database]
host = "prodhost"

[agent.model]
name = "mistral:7b"
`

const minimalConfig = `
[database]
name = "stetho"
user = "stetho"

[storage]
connection_string = "conn"
`

func writeConfig(t *testing.T, dir, filename, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, filename), []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", filename, err)
	}
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	orig, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { os.Chdir(orig) })
}

func load(t *testing.T, content string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	writeConfig(t, dir, config.BaseConfigFile, content)
	chdir(t, dir)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	return cfg
}

func TestLoad(t *testing.T) {
	cfg := load(t, baseConfig)

	if cfg.Server.Port != 8080 {
		t.Errorf("server port: got %d, want 8080", cfg.Server.Port)
	}
	if cfg.Database.Host != "localhost" {
		t.Errorf("db host: got %s, want localhost", cfg.Database.Host)
	}
	if cfg.Storage.ContainerName != "recordings" {
		t.Errorf("storage container: got %s, want recordings", cfg.Storage.ContainerName)
	}
	if cfg.Cache.Addr != "localhost:6379" {
		t.Errorf("cache addr: got %s", cfg.Cache.Addr)
	}
	if cfg.API.Pagination.DefaultPageSize != 25 || cfg.API.Pagination.MaxPageSize != 50 {
		t.Errorf("pagination: got %+v", cfg.API.Pagination)
	}
	if cfg.Agent.Name != "test-agent" || cfg.Agent.Provider.Name != "ollama" {
		t.Errorf("agent: got name=%s provider=%s", cfg.Agent.Name, cfg.Agent.Provider.Name)
	}
	if cfg.Agent.Model.Name != "llama3.1:8b" {
		t.Errorf("agent model: got %s", cfg.Agent.Model.Name)
	}
	if cfg.Narrative.MaxRetries != 2 {
		t.Errorf("narrative retries: got %d", cfg.Narrative.MaxRetries)
	}
	if d := cfg.Triage.RunTimeoutDuration(); d != 5*time.Minute {
		t.Errorf("run timeout: got %v, want 5m", d)
	}
}

func TestLoadWithOverlay(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", baseConfig)
	writeConfig(t, dir, "config.staging.toml", overlayConfig)
	chdir(t, dir)

	t.Setenv(config.EnvStethoEnv, "staging")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("server port: got %d, want 9090 (from overlay)", cfg.Server.Port)
	}
	if cfg.Database.Host != "prodhost" {
		t.Errorf("db host: got %s, want prodhost (from overlay)", cfg.Database.Host)
	}
	if cfg.Database.Port != 5432 {
		t.Errorf("db port: got %d, want 5432 (from base)", cfg.Database.Port)
	}
	if cfg.Agent.Model.Name != "mistral:7b" {
		t.Errorf("agent model: got %s, want mistral:7b (from overlay)", cfg.Agent.Model.Name)
	}
	if cfg.Agent.Name != "test-agent" {
		t.Errorf("agent name: got %s, want test-agent (from base)", cfg.Agent.Name)
	}
}

func TestLoadEnvVarOverrides(t *testing.T) {
	t.Setenv("STETHO_VERSION", "2.0.0")
	t.Setenv("STETHO_SERVER_PORT", "3000")
	t.Setenv("STETHO_AGENT_MODEL_NAME", "qwen2.5:7b")
	t.Setenv("STETHO_TRIAGE_RUN_TIMEOUT", "90s")
	t.Setenv("STETHO_OPENAPI_TITLE", "Triage")

	cfg := load(t, baseConfig)

	if cfg.Version != "2.0.0" {
		t.Errorf("version: got %s, want 2.0.0", cfg.Version)
	}
	if cfg.Server.Port != 3000 {
		t.Errorf("server port: got %d, want 3000", cfg.Server.Port)
	}
	if cfg.Agent.Model.Name != "qwen2.5:7b" {
		t.Errorf("agent model: got %s", cfg.Agent.Model.Name)
	}
	if d := cfg.Triage.RunTimeoutDuration(); d != 90*time.Second {
		t.Errorf("run timeout: got %v, want 90s", d)
	}
	if cfg.API.OpenAPI.Title != "Triage" {
		t.Errorf("openapi title: got %s", cfg.API.OpenAPI.Title)
	}
}

func TestLoadNoConfigFile(t *testing.T) {
	chdir(t, t.TempDir())

	t.Setenv("STETHO_DB_NAME", "testdb")
	t.Setenv("STETHO_DB_USER", "testuser")
	t.Setenv("STETHO_STORAGE_CONNECTION_STRING", "conn")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load without config.toml failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("server port default: got %d, want 8080", cfg.Server.Port)
	}
	if cfg.Database.Name != "testdb" {
		t.Errorf("db name from env: got %s, want testdb", cfg.Database.Name)
	}
	if cfg.Storage.ConnectionString != "conn" {
		t.Errorf("storage conn from env: got %s, want conn", cfg.Storage.ConnectionString)
	}
	if cfg.Storage.ContainerName != "stetho" {
		t.Errorf("storage container default: got %s, want stetho", cfg.Storage.ContainerName)
	}
}

func TestLoadInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", `[server`)
	chdir(t, dir)

	if _, err := config.Load(); err == nil {
		t.Fatal("expected error for invalid TOML")
	}
}

func TestEnv(t *testing.T) {
	cfg := load(t, baseConfig)
	if cfg.Env() != "local" {
		t.Errorf("env: got %s, want local", cfg.Env())
	}

	t.Setenv(config.EnvStethoEnv, "production")
	if cfg.Env() != "production" {
		t.Errorf("env: got %s, want production", cfg.Env())
	}
}

func TestDefaults(t *testing.T) {
	cfg := load(t, minimalConfig)

	if d := cfg.ShutdownTimeoutDuration(); d != 30*time.Second {
		t.Errorf("shutdown timeout: got %v, want 30s", d)
	}
	if addr := cfg.Server.Addr(); addr != "0.0.0.0:8080" {
		t.Errorf("addr: got %s, want 0.0.0.0:8080", addr)
	}
	if cfg.API.Pagination.DefaultPageSize != 20 || cfg.API.Pagination.MaxPageSize != 100 {
		t.Errorf("pagination: got %+v", cfg.API.Pagination)
	}
	if got := cfg.API.MaxUploadSizeBytes(); got != 25*1024*1024 {
		t.Errorf("max upload size: got %d", got)
	}
	if cfg.API.OpenAPI.Title != "Stetho API" {
		t.Errorf("openapi title: got %s", cfg.API.OpenAPI.Title)
	}
	if d := cfg.Triage.RunTimeoutDuration(); d != 10*time.Minute {
		t.Errorf("run timeout: got %v, want 10m", d)
	}
	if cfg.Cache.Enabled() {
		t.Error("cache should be disabled without an address")
	}
	if cfg.Classifier.BaseURL != "" {
		t.Errorf("classifier should be unconfigured, got %s", cfg.Classifier.BaseURL)
	}
}

func TestLiteratureAPIKeyFromNCBIVariable(t *testing.T) {
	t.Setenv("NCBI_API_KEY", "secret")

	cfg := load(t, minimalConfig)
	if cfg.Literature.APIKey != "secret" {
		t.Errorf("api key: got %q, want secret", cfg.Literature.APIKey)
	}
}

func TestMaxUploadSizeBytes(t *testing.T) {
	tests := []struct {
		name string
		size string
		want int64
	}{
		{"valid 25MB", "25MB", 25 * 1024 * 1024},
		{"valid 10MB", "10MB", 10 * 1024 * 1024},
		{"invalid falls back to 25MB", "bad", 25 * 1024 * 1024},
		{"empty falls back to 25MB", "", 25 * 1024 * 1024},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.APIConfig{MaxUploadSize: tt.size}
			if got := cfg.MaxUploadSizeBytes(); got != tt.want {
				t.Errorf("MaxUploadSizeBytes() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name    string
		config  string
		wantErr string
	}{
		{
			name:    "invalid port",
			config:  minimalConfig + "\n[server]\nport = 99999\n",
			wantErr: "invalid port",
		},
		{
			name:    "invalid read_timeout",
			config:  minimalConfig + "\n[server]\nread_timeout = \"bad\"\n",
			wantErr: "invalid read_timeout",
		},
		{
			name:    "zero idle_timeout",
			config:  minimalConfig + "\n[server]\nidle_timeout = \"0s\"\n",
			wantErr: "idle_timeout must be positive",
		},
		{
			name:    "invalid run_timeout",
			config:  minimalConfig + "\n[triage]\nrun_timeout = \"soon\"\n",
			wantErr: "invalid run_timeout",
		},
		{
			name:    "negative run_timeout",
			config:  minimalConfig + "\n[triage]\nrun_timeout = \"-1m\"\n",
			wantErr: "run_timeout must be positive",
		},
		{
			name:    "unparseable upload size",
			config:  minimalConfig + "\n[api]\nmax_upload_size = \"lots\"\n",
			wantErr: "max_upload_size",
		},
		{
			name:    "missing storage connection string",
			config:  "[database]\nname = \"stetho\"\n",
			wantErr: "connection_string required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeConfig(t, dir, "config.toml", tt.config)
			chdir(t, dir)

			_, err := config.Load()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error: got %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestFinalizeCoreSkipsServiceSections(t *testing.T) {
	cfg := &config.Config{}
	if err := cfg.FinalizeCore(); err != nil {
		t.Fatalf("finalize core: %v", err)
	}
	if cfg.Database.Name != "" {
		t.Errorf("database should be untouched, got %q", cfg.Database.Name)
	}
	if cfg.Agent.Model == nil || cfg.Agent.Model.Name == "" {
		t.Error("agent model default not applied")
	}
	if cfg.Narrative.MaxRetries == 0 {
		t.Error("narrative defaults not applied")
	}
}

func TestTriageReference(t *testing.T) {
	cfg := config.TriageConfig{}
	ref, err := cfg.Reference()
	if err != nil {
		t.Fatalf("reference: %v", err)
	}
	if ref == nil {
		t.Fatal("expected embedded reference data")
	}

	cfg.ReferencePath = filepath.Join(t.TempDir(), "missing.yaml")
	if _, err := cfg.Reference(); err == nil {
		t.Error("expected error for missing reference file")
	}
}

func TestAgentDefaults(t *testing.T) {
	var cfg config.Config
	if err := cfg.FinalizeCore(); err != nil {
		t.Fatalf("finalize core: %v", err)
	}

	if cfg.Agent.Name != "stetho" {
		t.Errorf("agent name: got %s, want stetho", cfg.Agent.Name)
	}
	if cfg.Agent.Provider.Name != "ollama" || cfg.Agent.Provider.BaseURL != "http://localhost:11434" {
		t.Errorf("provider: got %s @ %s", cfg.Agent.Provider.Name, cfg.Agent.Provider.BaseURL)
	}
	if cfg.Agent.Model.Name != "qwen3:8b" {
		t.Errorf("model: got %s, want qwen3:8b", cfg.Agent.Model.Name)
	}
	if _, ok := cfg.Agent.Provider.Options["token"]; ok {
		t.Error("token should not be set without STETHO_AGENT_TOKEN")
	}
}

func TestAgentEnvOverrides(t *testing.T) {
	t.Setenv(config.EnvAgentProviderName, "azure")
	t.Setenv(config.EnvAgentBaseURL, "https://triage.openai.azure.com")
	t.Setenv(config.EnvAgentModelName, "gpt-5-mini")
	t.Setenv(config.EnvAgentToken, "test-token")
	t.Setenv(config.EnvAgentDeployment, "gpt-5-mini")
	t.Setenv(config.EnvAgentAPIVersion, "2024-12-01-preview")
	t.Setenv(config.EnvAgentAuthType, "api_key")

	var cfg config.Config
	if err := cfg.FinalizeCore(); err != nil {
		t.Fatalf("finalize core: %v", err)
	}

	if cfg.Agent.Provider.Name != "azure" {
		t.Errorf("provider: got %s", cfg.Agent.Provider.Name)
	}
	if cfg.Agent.Provider.BaseURL != "https://triage.openai.azure.com" {
		t.Errorf("base url: got %s", cfg.Agent.Provider.BaseURL)
	}
	if cfg.Agent.Model.Name != "gpt-5-mini" {
		t.Errorf("model: got %s", cfg.Agent.Model.Name)
	}

	want := map[string]string{
		"token":       "test-token",
		"deployment":  "gpt-5-mini",
		"api_version": "2024-12-01-preview",
		"auth_type":   "api_key",
	}
	for key, v := range want {
		if got := cfg.Agent.Provider.Options[key]; got != v {
			t.Errorf("option %s: got %v, want %s", key, got, v)
		}
	}
}
