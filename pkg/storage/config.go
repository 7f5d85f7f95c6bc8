package storage

import (
	"fmt"
	"os"
	"regexp"
)

const defaultContainer = "stetho"

// Azure container names: 3-63 chars of lowercase letters, digits, and
// single hyphens, starting and ending with a letter or digit.
var containerPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// Config holds the blob container and the account connection string.
type Config struct {
	ContainerName    string `toml:"container_name"`
	ConnectionString string `toml:"connection_string"`
}

// Env names the environment variables that override Config.
type Env struct {
	ContainerName    string
	ConnectionString string
}

// Finalize applies defaults then environment overrides, and validates.
func (c *Config) Finalize(env *Env) error {
	if c.ContainerName == "" {
		c.ContainerName = defaultContainer
	}
	if env != nil {
		override(&c.ContainerName, env.ContainerName)
		override(&c.ConnectionString, env.ConnectionString)
	}

	if n := len(c.ContainerName); n < 3 || n > 63 || !containerPattern.MatchString(c.ContainerName) {
		return fmt.Errorf("container_name %q is not a valid container name", c.ContainerName)
	}
	if c.ConnectionString == "" {
		return fmt.Errorf("connection_string required")
	}
	return nil
}

// Merge overwrites fields that are set in overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.ContainerName != "" {
		c.ContainerName = overlay.ContainerName
	}
	if overlay.ConnectionString != "" {
		c.ConnectionString = overlay.ConnectionString
	}
}

func override(dst *string, name string) {
	if name == "" {
		return
	}
	if v := os.Getenv(name); v != "" {
		*dst = v
	}
}
