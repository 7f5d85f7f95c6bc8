package config

import (
	"fmt"
	"os"
	"time"

	"github.com/one2ten/stetho-agent/internal/reference"
)

const (
	EnvTriageReferencePath = "STETHO_TRIAGE_REFERENCE_PATH"
	EnvTriageRunTimeout    = "STETHO_TRIAGE_RUN_TIMEOUT"
)

// TriageConfig holds settings for the assessment run itself.
// An empty ReferencePath selects the embedded reference data.
type TriageConfig struct {
	ReferencePath string `toml:"reference_path"`
	RunTimeout    string `toml:"run_timeout"`
}

// RunTimeoutDuration returns RunTimeout as a time.Duration.
func (c *TriageConfig) RunTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.RunTimeout)
	return d
}

// Reference loads the configured reference data.
func (c *TriageConfig) Reference() (*reference.Data, error) {
	return reference.Load(c.ReferencePath)
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *TriageConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *TriageConfig) Merge(overlay *TriageConfig) {
	if overlay.ReferencePath != "" {
		c.ReferencePath = overlay.ReferencePath
	}
	if overlay.RunTimeout != "" {
		c.RunTimeout = overlay.RunTimeout
	}
}

func (c *TriageConfig) loadDefaults() {
	if c.RunTimeout == "" {
		c.RunTimeout = "10m"
	}
}

func (c *TriageConfig) loadEnv() {
	if v := os.Getenv(EnvTriageReferencePath); v != "" {
		c.ReferencePath = v
	}
	if v := os.Getenv(EnvTriageRunTimeout); v != "" {
		c.RunTimeout = v
	}
}

func (c *TriageConfig) validate() error {
	d, err := time.ParseDuration(c.RunTimeout)
	if err != nil {
		return fmt.Errorf("invalid run_timeout: %w", err)
	}
	if d <= 0 {
		return fmt.Errorf("run_timeout must be positive")
	}
	return nil
}
