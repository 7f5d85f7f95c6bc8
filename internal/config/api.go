package config

import (
	"fmt"
	"os"

	"github.com/one2ten/stetho-agent/pkg/formatting"
	"github.com/one2ten/stetho-agent/pkg/middleware"
	"github.com/one2ten/stetho-agent/pkg/openapi"
	"github.com/one2ten/stetho-agent/pkg/pagination"
)

var corsEnv = &middleware.CORSEnv{
	Enabled:          "STETHO_CORS_ENABLED",
	Origins:          "STETHO_CORS_ORIGINS",
	AllowedMethods:   "STETHO_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "STETHO_CORS_ALLOWED_HEADERS",
	AllowCredentials: "STETHO_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "STETHO_CORS_MAX_AGE",
}

var openAPIEnv = &openapi.ConfigEnv{
	Title:       "STETHO_OPENAPI_TITLE",
	Description: "STETHO_OPENAPI_DESCRIPTION",
	ServerURL:   "STETHO_OPENAPI_SERVER_URL",
}

var paginationEnv = &pagination.ConfigEnv{
	DefaultPageSize: "STETHO_PAGINATION_DEFAULT_PAGE_SIZE",
	MaxPageSize:     "STETHO_PAGINATION_MAX_PAGE_SIZE",
}

// APIConfig holds API routing, CORS, OpenAPI, and pagination settings.
type APIConfig struct {
	BasePath      string                `toml:"base_path"`
	MaxUploadSize string                `toml:"max_upload_size"`
	CORS          middleware.CORSConfig `toml:"cors"`
	OpenAPI       openapi.Config        `toml:"openapi"`
	Pagination    pagination.Config     `toml:"pagination"`
}

const defaultMaxUploadSize = "25MB"

// MaxUploadSizeBytes bounds recording uploads. An unparseable value falls
// back to the default; Finalize rejects one before it gets here.
func (c *APIConfig) MaxUploadSizeBytes() int64 {
	size, err := formatting.ParseBytes(c.MaxUploadSize)
	if err != nil || size == 0 {
		size, _ = formatting.ParseBytes(defaultMaxUploadSize)
	}
	return size
}

// Finalize applies defaults, environment variable overrides, and validation
// for the API config and its nested configs.
func (c *APIConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if size, err := formatting.ParseBytes(c.MaxUploadSize); err != nil {
		return fmt.Errorf("max_upload_size: %w", err)
	} else if size == 0 {
		return fmt.Errorf("max_upload_size must be positive")
	}

	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	if err := c.OpenAPI.Finalize(openAPIEnv); err != nil {
		return fmt.Errorf("openapi: %w", err)
	}
	if err := c.Pagination.Finalize(paginationEnv); err != nil {
		return fmt.Errorf("pagination: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay across nested configs.
func (c *APIConfig) Merge(overlay *APIConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	if overlay.MaxUploadSize != "" {
		c.MaxUploadSize = overlay.MaxUploadSize
	}

	c.CORS.Merge(&overlay.CORS)
	c.OpenAPI.Merge(&overlay.OpenAPI)
	c.Pagination.Merge(&overlay.Pagination)
}

func (c *APIConfig) loadDefaults() {
	if c.BasePath == "" {
		c.BasePath = "/api"
	}
	if c.MaxUploadSize == "" {
		c.MaxUploadSize = defaultMaxUploadSize
	}
}

func (c *APIConfig) loadEnv() {
	if v := os.Getenv("STETHO_API_BASE_PATH"); v != "" {
		c.BasePath = v
	}
	if v := os.Getenv("STETHO_API_MAX_UPLOAD_SIZE"); v != "" {
		c.MaxUploadSize = v
	}
}
