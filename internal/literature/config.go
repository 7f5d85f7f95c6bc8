package literature

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds literature search parameters.
type Config struct {
	Sources           []string `toml:"sources"`
	BaseURL           string   `toml:"base_url"`
	APIKey            string   `toml:"api_key"`
	MinYear           int      `toml:"min_year"`
	Sort              string   `toml:"sort"`
	URLTemplate       string   `toml:"url_template"`
	MaxResults        int      `toml:"max_results"`
	Timeout           string   `toml:"timeout"`
	MaxRetries        int      `toml:"max_retries"`
	RequestsPerSecond float64  `toml:"requests_per_second"`
	CacheTTL          string   `toml:"cache_ttl"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Sources    string
	BaseURL    string
	APIKey     string
	MinYear    string
	MaxResults string
	Timeout    string
	MaxRetries string
	CacheTTL   string
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *Config) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// CacheTTLDuration returns CacheTTL as a time.Duration.
func (c *Config) CacheTTLDuration() time.Duration {
	d, _ := time.ParseDuration(c.CacheTTL)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	if env != nil {
		c.loadEnv(env)
	}
	c.loadDefaults()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Sources != nil {
		c.Sources = overlay.Sources
	}
	if overlay.BaseURL != "" {
		c.BaseURL = overlay.BaseURL
	}
	if overlay.APIKey != "" {
		c.APIKey = overlay.APIKey
	}
	if overlay.MinYear != 0 {
		c.MinYear = overlay.MinYear
	}
	if overlay.Sort != "" {
		c.Sort = overlay.Sort
	}
	if overlay.URLTemplate != "" {
		c.URLTemplate = overlay.URLTemplate
	}
	if overlay.MaxResults != 0 {
		c.MaxResults = overlay.MaxResults
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
	if overlay.MaxRetries != 0 {
		c.MaxRetries = overlay.MaxRetries
	}
	if overlay.RequestsPerSecond != 0 {
		c.RequestsPerSecond = overlay.RequestsPerSecond
	}
	if overlay.CacheTTL != "" {
		c.CacheTTL = overlay.CacheTTL
	}
}

// loadDefaults runs after loadEnv so the request rate can follow the API key.
func (c *Config) loadDefaults() {
	if c.Sources == nil {
		c.Sources = []string{SourcePubMed}
	}
	if c.BaseURL == "" {
		c.BaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"
	}
	if c.MinYear == 0 {
		c.MinYear = 2019
	}
	if c.Sort == "" {
		c.Sort = "relevance"
	}
	if c.URLTemplate == "" {
		c.URLTemplate = "https://pubmed.ncbi.nlm.nih.gov/{id}/"
	}
	if c.MaxResults == 0 {
		c.MaxResults = 5
	}
	if c.Timeout == "" {
		c.Timeout = "15s"
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 2
	}
	if c.RequestsPerSecond == 0 {
		// NCBI allows 3 requests per second without a key and 10 with one.
		if c.APIKey != "" {
			c.RequestsPerSecond = 10
		} else {
			c.RequestsPerSecond = 3
		}
	}
	if c.CacheTTL == "" {
		c.CacheTTL = "24h"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Sources != "" {
		if v := os.Getenv(env.Sources); v != "" {
			c.Sources = splitList(v)
		}
	}
	if env.BaseURL != "" {
		if v := os.Getenv(env.BaseURL); v != "" {
			c.BaseURL = v
		}
	}
	if env.APIKey != "" {
		if v := os.Getenv(env.APIKey); v != "" {
			c.APIKey = v
		}
	}
	if env.MinYear != "" {
		if v := os.Getenv(env.MinYear); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.MinYear = n
			}
		}
	}
	if env.MaxResults != "" {
		if v := os.Getenv(env.MaxResults); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.MaxResults = n
			}
		}
	}
	if env.Timeout != "" {
		if v := os.Getenv(env.Timeout); v != "" {
			c.Timeout = v
		}
	}
	if env.MaxRetries != "" {
		if v := os.Getenv(env.MaxRetries); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.MaxRetries = n
			}
		}
	}
	if env.CacheTTL != "" {
		if v := os.Getenv(env.CacheTTL); v != "" {
			c.CacheTTL = v
		}
	}
}

func (c *Config) validate() error {
	if c.MaxResults < 1 {
		return fmt.Errorf("max_results must be positive")
	}
	if c.MaxRetries < 1 {
		return fmt.Errorf("max_retries must be positive")
	}
	if c.RequestsPerSecond <= 0 {
		return fmt.Errorf("requests_per_second must be positive")
	}
	if !strings.Contains(c.URLTemplate, "{id}") {
		return fmt.Errorf("url_template must contain {id}")
	}
	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	if _, err := time.ParseDuration(c.CacheTTL); err != nil {
		return fmt.Errorf("invalid cache_ttl: %w", err)
	}
	for _, s := range c.Sources {
		if _, ok := registry[s]; !ok {
			return fmt.Errorf("unknown source %q", s)
		}
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for part := range strings.SplitSeq(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
