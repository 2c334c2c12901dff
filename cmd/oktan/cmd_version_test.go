package main

import (
	"bytes"
	"encoding/json"
	"slices"
	"strings"
	"testing"

	"github.com/ustunfatih/oktan/internal/config"
)

func TestVersionCmd(t *testing.T) {
	cfg = config.DefaultConfig()
	cfg.RecentWindow = 7

	tests := []struct {
		name  string
		args  []string
		check func(t *testing.T, out string)
	}{
		{
			name: "text",
			check: func(t *testing.T, out string) {
				for _, want := range []string{"Version:        dev", "Recent window:  7 fill-ups", "dd/MM/yyyy"} {
					if !strings.Contains(out, want) {
						t.Errorf("output misses %q:\n%s", want, out)
					}
				}
			},
		},
		{
			name: "json",
			args: []string{"--json"},
			check: func(t *testing.T, out string) {
				var info buildInfo
				if err := json.Unmarshal([]byte(out), &info); err != nil {
					t.Fatalf("decoding %q: %v", out, err)
				}
				if info.Version != Version || info.RecentWindow != 7 || info.RollingWindow != 3 {
					t.Errorf("info = %+v", info)
				}
				if !slices.Contains(info.DateFormats, "yyyy-MM-dd") {
					t.Errorf("DateFormats = %v, want yyyy-MM-dd", info.DateFormats)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			cmd := versionCmd()
			cmd.SetOut(&buf)
			cmd.SetArgs(tt.args)
			if err := cmd.Execute(); err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			tt.check(t, buf.String())
		})
	}
}
