// Package config provides configuration structures and loading for the fuel log service.
package config

import (
	"os"
	"strconv"
	"strings"
)

// Config holds all configuration for the fuel log service.
type Config struct {
	// PostgreSQL connection string
	PostgresDSN string
	// Log level (debug, info, warn, error)
	LogLevel string
	// Log format (json, console)
	LogFormat string
	// HTTP server address
	HTTPAddr string
	// Snapshot hour (0-23)
	SnapshotHour int
	// Number of fill-ups in the recent summary
	RecentWindow int
	// Number of points in the rolling efficiency average
	RollingWindow int
	// Import the sample log when the store is empty
	SeedOnEmpty bool
	// CSV files re-imported before every snapshot
	ImportFiles []string
	// Optional YAML column mapping for ImportFiles
	MappingFile string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		PostgresDSN:   "",
		LogLevel:      "info",
		LogFormat:     "json",
		HTTPAddr:      ":8080",
		SnapshotHour:  6,
		RecentWindow:  5,
		RollingWindow: 3,
		SeedOnEmpty:   false,
	}
}

// LoadFromEnv loads configuration from environment variables.
func (c *Config) LoadFromEnv() {
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		c.PostgresDSN = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		c.LogFormat = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		c.HTTPAddr = v
	}
	if v := os.Getenv("SNAPSHOT_HOUR"); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i >= 0 && i <= 23 {
			c.SnapshotHour = i
		}
	}
	if v := os.Getenv("RECENT_WINDOW"); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i > 0 {
			c.RecentWindow = i
		}
	}
	if v := os.Getenv("ROLLING_WINDOW"); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i > 0 {
			c.RollingWindow = i
		}
	}
	if v := os.Getenv("SEED_ON_EMPTY"); v != "" {
		c.SeedOnEmpty = strings.ToLower(v) == "true"
	}
	if v := os.Getenv("IMPORT_FILES"); v != "" {
		c.ImportFiles = splitList(v)
	}
	if v := os.Getenv("MAPPING_FILE"); v != "" {
		c.MappingFile = v
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
