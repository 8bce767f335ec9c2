// Package config holds server configuration with optional YAML overrides.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ServerConfig holds configuration for the capsched server.
type ServerConfig struct {
	Addr      string `yaml:"addr"`       // Listen address (default ":8080")
	LogLevel  string `yaml:"log_level"`  // Log level: debug, info, warn, error
	LogFormat string `yaml:"log_format"` // Log format: text, json
	DBPath    string `yaml:"db_path"`    // SQLite database path (default ~/.capsched/capsched.db, ":memory:" for testing)

	WorkWeekHours         float64 `yaml:"work_week_hours"`         // Full-time week (default 40)
	MaxConcurrentSessions int     `yaml:"max_concurrent_sessions"` // Per-agent session cap (default 3)
	WriteBuffer           int     `yaml:"write_buffer"`            // Async store write queue depth

	DirectoryURL string `yaml:"directory_url"` // Employment directory base URL; empty uses the static seed
	ActivityURL  string `yaml:"activity_url"`  // Activity registry base URL; empty disables recording

	// Seed for the static directory used when no DirectoryURL is set.
	Directory DirectorySeed `yaml:"directory"`
}

// DirectorySeed maps agents to allocation percentages and employments to
// tiers for standalone deployments.
type DirectorySeed struct {
	Allocations map[string]float64 `yaml:"allocations"`
	Employments map[string]string  `yaml:"employments"`
}

// DefaultServerConfig returns sensible defaults.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:                  ":8080",
		LogLevel:              "info",
		LogFormat:             "text",
		WorkWeekHours:         40,
		MaxConcurrentSessions: 3,
		WriteBuffer:           256,
	}
}

// Load reads a YAML config file over the defaults. A missing path returns
// the defaults unchanged.
func Load(path string) (ServerConfig, error) {
	cfg := DefaultServerConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}
