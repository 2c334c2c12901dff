package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ustunfatih/oktan/internal/importer"
)

// buildInfo describes the binary and the report defaults it runs with.
type buildInfo struct {
	Version       string   `json:"version"`
	Commit        string   `json:"commit"`
	BuildDate     string   `json:"build_date"`
	RecentWindow  int      `json:"recent_window"`
	RollingWindow int      `json:"rolling_window"`
	DateFormats   []string `json:"import_date_formats"`
}

func currentBuildInfo() buildInfo {
	info := buildInfo{
		Version:       Version,
		Commit:        Commit,
		BuildDate:     BuildDate,
		RecentWindow:  cfg.RecentWindow,
		RollingWindow: cfg.RollingWindow,
	}
	for _, f := range importer.DateFormats {
		info.DateFormats = append(info.DateFormats, f.Pattern)
	}
	return info
}

func versionCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information and report defaults",
		RunE: func(cmd *cobra.Command, args []string) error {
			info := currentBuildInfo()
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			}
			writeBuildInfo(cmd.OutOrStdout(), info)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	return cmd
}

func writeBuildInfo(w io.Writer, info buildInfo) {
	fmt.Fprintf(w, "Oktan\n")
	fmt.Fprintf(w, "  Version:        %s\n", info.Version)
	fmt.Fprintf(w, "  Commit:         %s\n", info.Commit)
	fmt.Fprintf(w, "  Build Date:     %s\n", info.BuildDate)
	fmt.Fprintf(w, "  Recent window:  %d fill-ups\n", info.RecentWindow)
	fmt.Fprintf(w, "  Rolling window: %d points\n", info.RollingWindow)
	fmt.Fprintf(w, "  Date formats:   %v\n", info.DateFormats)
}
