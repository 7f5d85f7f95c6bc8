package config

import (
	"fmt"
	"os"

	gaconfig "github.com/JaimeStill/go-agents/pkg/config"
)

const (
	EnvAgentName         = "STETHO_AGENT_NAME"
	EnvAgentProviderName = "STETHO_AGENT_PROVIDER_NAME"
	EnvAgentBaseURL      = "STETHO_AGENT_BASE_URL"
	EnvAgentToken        = "STETHO_AGENT_TOKEN"
	EnvAgentDeployment   = "STETHO_AGENT_DEPLOYMENT"
	EnvAgentAPIVersion   = "STETHO_AGENT_API_VERSION"
	EnvAgentAuthType     = "STETHO_AGENT_AUTH_TYPE"
	EnvAgentModelName    = "STETHO_AGENT_MODEL_NAME"
)

const (
	defaultAgentName     = "stetho"
	defaultAgentProvider = "ollama"
	defaultAgentBaseURL  = "http://localhost:11434"
	defaultAgentModel    = "qwen3:8b"
)

// FinalizeAgent layers the library defaults, the stetho defaults and c, then
// applies STETHO_AGENT_* overrides and validates the result.
func FinalizeAgent(c *gaconfig.AgentConfig) error {
	loadAgentDefaults(c)
	loadAgentEnv(c)
	return validateAgent(c)
}

func loadAgentDefaults(c *gaconfig.AgentConfig) {
	defaults := gaconfig.DefaultAgentConfig()
	defaults.Merge(&gaconfig.AgentConfig{
		Name: defaultAgentName,
		Provider: &gaconfig.ProviderConfig{
			Name:    defaultAgentProvider,
			BaseURL: defaultAgentBaseURL,
		},
		Model: &gaconfig.ModelConfig{Name: defaultAgentModel},
	})
	defaults.Merge(c)
	*c = defaults
}

func loadAgentEnv(c *gaconfig.AgentConfig) {
	if c.Provider == nil {
		c.Provider = &gaconfig.ProviderConfig{}
	}
	if c.Provider.Options == nil {
		c.Provider.Options = make(map[string]any)
	}
	if c.Model == nil {
		c.Model = &gaconfig.ModelConfig{}
	}

	for dst, name := range map[*string]string{
		&c.Name:             EnvAgentName,
		&c.Provider.Name:    EnvAgentProviderName,
		&c.Provider.BaseURL: EnvAgentBaseURL,
		&c.Model.Name:       EnvAgentModelName,
	} {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}

	for name, key := range map[string]string{
		EnvAgentToken:      "token",
		EnvAgentDeployment: "deployment",
		EnvAgentAPIVersion: "api_version",
		EnvAgentAuthType:   "auth_type",
	} {
		if v := os.Getenv(name); v != "" {
			c.Provider.Options[key] = v
		}
	}
}

func validateAgent(c *gaconfig.AgentConfig) error {
	switch {
	case c.Name == "":
		return fmt.Errorf("name required")
	case c.Provider == nil || c.Provider.Name == "":
		return fmt.Errorf("provider name required")
	case c.Model == nil || c.Model.Name == "":
		return fmt.Errorf("model name required")
	}
	return nil
}
