package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ustunfatih/oktan/internal/export"
)

func exportCmd() *cobra.Command {
	var format, out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the fill-up log as CSV or Excel",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := setupLogger()

			if format != "csv" && format != "xlsx" {
				return fmt.Errorf("unknown format: %s", format)
			}
			if out == "" {
				out = export.FileName(time.Now())
				if format == "xlsx" {
					out = export.XLSXFileName(time.Now())
				}
			}

			// Connect to database
			db, err := openDatabase(cmd, logger)
			if err != nil {
				return err
			}
			defer db.Close()

			records, err := db.ListRecords(cmd.Context())
			if err != nil {
				return fmt.Errorf("listing records: %w", err)
			}

			var w io.Writer = os.Stdout
			if out != "-" {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("creating %s: %w", out, err)
				}
				defer f.Close()
				w = f
			}

			switch format {
			case "csv":
				err = export.WriteCSV(w, records)
			case "xlsx":
				err = export.WriteXLSX(w, records, cfg.RecentWindow)
			}
			if err != nil {
				return fmt.Errorf("exporting: %w", err)
			}

			logger.Info().
				Str("format", format).
				Str("file", out).
				Int("records", len(records)).
				Msg("export completed")
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "csv", "Export format (csv, xlsx)")
	cmd.Flags().StringVar(&out, "out", "", "Output file, - for stdout (defaults to a dated file name)")

	return cmd
}
