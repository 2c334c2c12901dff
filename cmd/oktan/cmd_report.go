package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ustunfatih/oktan/internal/models"
	"github.com/ustunfatih/oktan/internal/report"
	"github.com/ustunfatih/oktan/internal/source/csvfile"
)

type reportOutput struct {
	report.Report
	Monthly  []report.MonthlyRollup `json:"monthly"`
	Insights []string               `json:"insights"`
}

func reportCmd() *cobra.Command {
	var file, dateFormat string
	var commaDecimal, asJSON bool

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the efficiency report",
		Long:  "Prints the summary, monthly rollups and insights, either for the stored log or directly for a CSV file.",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := setupLogger()

			var records []models.FuelRecord
			if file != "" {
				src := csvfile.New(file, csvfile.Options{DateFormat: dateFormat, CommaDecimal: commaDecimal}, logger)
				batch, err := src.Fetch(cmd.Context())
				if err != nil {
					return err
				}
				for _, msg := range batch.Rejected {
					logger.Warn().Str("file", file).Msg(msg)
				}
				records = batch.Records
			} else {
				db, err := openDatabase(cmd, logger)
				if err != nil {
					return err
				}
				defer db.Close()

				if records, err = db.ListRecords(cmd.Context()); err != nil {
					return fmt.Errorf("listing records: %w", err)
				}
			}

			out := reportOutput{
				Report:   report.Summarize(records, cfg.RecentWindow),
				Monthly:  report.MonthlyRollups(records),
				Insights: report.GenerateInsights(records),
			}
			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}
			printReport(os.Stdout, out)
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Report on a CSV file instead of the store")
	cmd.Flags().StringVar(&dateFormat, "date-format", "", "Date format of --file (detected when empty)")
	cmd.Flags().BoolVar(&commaDecimal, "comma-decimal", false, "Numbers in --file use a decimal comma")
	cmd.Flags().IntVar(&cfg.RecentWindow, "window", cfg.RecentWindow, "Number of fill-ups in the recent summary")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of text")

	return cmd
}

func printReport(w io.Writer, out reportOutput) {
	s := out.Summary
	fmt.Fprintf(w, "Distance:    %.0f km\n", s.TotalDistance)
	fmt.Fprintf(w, "Fuel:        %.2f L\n", s.TotalLiters)
	fmt.Fprintf(w, "Cost:        %.2f\n", s.TotalCost)
	fmt.Fprintf(w, "Efficiency:  %s L/100km\n", formatOptional(s.AverageEfficiency, 2))
	fmt.Fprintf(w, "Cost per km: %s\n", formatOptional(s.AverageCostPerKm, 3))

	fmt.Fprintf(w, "\nLast %d fill-ups (%d with distance)\n", out.Recent.WindowSize, out.Recent.RecordCount)
	fmt.Fprintf(w, "Efficiency:  %s L/100km\n", formatOptional(out.Recent.AverageEfficiency, 2))
	fmt.Fprintf(w, "Cost per km: %s\n", formatOptional(out.Recent.AverageCostPerKm, 3))

	if len(s.DriveModes) > 0 {
		fmt.Fprintf(w, "\nDrive modes\n")
		for _, mode := range models.AllDriveModes() {
			b, ok := s.DriveModes[mode]
			if !ok {
				continue
			}
			fmt.Fprintf(w, "  %-7s %6.0f km  %s L/100km  %s per km\n", mode, b.Distance, formatOptional(b.Efficiency, 2), formatOptional(b.CostPerKm, 3))
		}
	}

	if len(out.Monthly) > 0 {
		fmt.Fprintf(w, "\nMonthly\n")
		for _, m := range out.Monthly {
			fmt.Fprintf(w, "  %-8s %2d fill-ups %6.0f km %8.2f  %s L/100km\n", m.Label, m.FillUpCount, m.TotalDistance, m.TotalCost, formatOptional(m.AverageEfficiency, 2))
		}
	}

	if len(out.Insights) > 0 {
		fmt.Fprintf(w, "\nInsights\n")
		for _, insight := range out.Insights {
			fmt.Fprintf(w, "  - %s\n", insight)
		}
	}
}

func formatOptional(v *float64, precision int) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.*f", precision, *v)
}
