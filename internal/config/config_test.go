package config_test

import (
	"slices"
	"testing"

	"github.com/ustunfatih/oktan/internal/config"
)

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "postgres://oktan@localhost/oktan")
	t.Setenv("LOG_FORMAT", "console")
	t.Setenv("SNAPSHOT_HOUR", "22")
	t.Setenv("RECENT_WINDOW", "8")
	t.Setenv("SEED_ON_EMPTY", "TRUE")
	t.Setenv("IMPORT_FILES", " a.csv, ,b.csv ")

	c := config.DefaultConfig()
	c.LoadFromEnv()

	if c.PostgresDSN != "postgres://oktan@localhost/oktan" {
		t.Errorf("PostgresDSN = %q", c.PostgresDSN)
	}
	if c.LogFormat != "console" || c.LogLevel != "info" {
		t.Errorf("LogFormat, LogLevel = %q, %q", c.LogFormat, c.LogLevel)
	}
	if c.SnapshotHour != 22 || c.RecentWindow != 8 || c.RollingWindow != 3 {
		t.Errorf("SnapshotHour, RecentWindow, RollingWindow = %d, %d, %d", c.SnapshotHour, c.RecentWindow, c.RollingWindow)
	}
	if !c.SeedOnEmpty {
		t.Error("SeedOnEmpty = false")
	}
	if want := []string{"a.csv", "b.csv"}; !slices.Equal(c.ImportFiles, want) {
		t.Errorf("ImportFiles = %v, want %v", c.ImportFiles, want)
	}
}

func TestLoadFromEnv_IgnoresInvalidNumbers(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"SNAPSHOT_HOUR", "24"},
		{"SNAPSHOT_HOUR", "six"},
		{"RECENT_WINDOW", "0"},
		{"ROLLING_WINDOW", "-2"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			c := config.DefaultConfig()
			c.LoadFromEnv()

			d := config.DefaultConfig()
			if c.SnapshotHour != d.SnapshotHour || c.RecentWindow != d.RecentWindow || c.RollingWindow != d.RollingWindow {
				t.Errorf("invalid %s changed the defaults: %+v", tt.key, c)
			}
		})
	}
}
