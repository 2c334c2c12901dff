package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ustunfatih/oktan/internal/importer"
	"github.com/ustunfatih/oktan/internal/source"
	"github.com/ustunfatih/oktan/internal/source/csvfile"
	"github.com/ustunfatih/oktan/internal/source/seed"
	"github.com/ustunfatih/oktan/internal/tracker"
)

func importCmd() *cobra.Command {
	var file, mappingFile, dateFormat, sourceName string
	var commaDecimal, skipDuplicates bool

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import fill-ups from a CSV file or the sample log",
		Long:  "Imports fill-ups into the store. Duplicates (same day, liters and price) are skipped unless --skip-duplicates=false.",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := setupLogger()

			var src source.Source
			switch sourceName {
			case seed.SourceName:
				src = seed.New()
			case csvfile.SourceName:
				if file == "" {
					return fmt.Errorf("--file is required")
				}
				opts := csvfile.Options{DateFormat: dateFormat, CommaDecimal: commaDecimal}
				if mappingFile != "" {
					profile, err := importer.LoadMapping(mappingFile)
					if err != nil {
						return err
					}
					opts.Profile = profile
				}
				src = csvfile.New(file, opts, logger)
			default:
				return fmt.Errorf("unknown source: %s", sourceName)
			}

			// Connect to database
			db, err := openDatabase(cmd, logger)
			if err != nil {
				return err
			}
			defer db.Close()

			t := tracker.New(db, cfg.RecentWindow, nil, logger)
			result, err := t.Import(cmd.Context(), src, skipDuplicates)
			if err != nil {
				return fmt.Errorf("importing: %w", err)
			}

			fmt.Printf("Imported %d, skipped %d duplicates, %d failed\n", result.SuccessCount, result.DuplicateCount, result.FailedCount)
			for _, msg := range result.Errors {
				fmt.Printf("  %s\n", msg)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&sourceName, "source", csvfile.SourceName, "Source to import from (csv, seed)")
	cmd.Flags().StringVar(&file, "file", "", "CSV file to import")
	cmd.Flags().StringVar(&mappingFile, "mapping", "", "YAML column mapping (overrides header detection)")
	cmd.Flags().StringVar(&dateFormat, "date-format", "", "Date format, e.g. dd/MM/yyyy (detected when empty)")
	cmd.Flags().BoolVar(&commaDecimal, "comma-decimal", false, "Numbers use a decimal comma")
	cmd.Flags().BoolVar(&skipDuplicates, "skip-duplicates", true, "Skip fill-ups that are already stored")

	return cmd
}
