package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/ustunfatih/oktan/internal/http"
	"github.com/ustunfatih/oktan/internal/importer"
	"github.com/ustunfatih/oktan/internal/scheduler"
	"github.com/ustunfatih/oktan/internal/source/csvfile"
	"github.com/ustunfatih/oktan/internal/source/seed"
	"github.com/ustunfatih/oktan/internal/tracker"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server and the daily snapshot",
		Long: `Starts the HTTP API together with an internal scheduler that re-imports the
configured CSV files and computes a report snapshot daily at the specified hour.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := setupLogger()

			logger.Info().
				Str("version", Version).
				Str("commit", Commit).
				Str("buildDate", BuildDate).
				Str("httpAddr", cfg.HTTPAddr).
				Int("snapshotHour", cfg.SnapshotHour).
				Strs("importFiles", cfg.ImportFiles).
				Msg("starting oktan")

			// Connect to database
			db, err := openDatabase(cmd, logger)
			if err != nil {
				return err
			}
			defer db.Close()

			metrics := http.NewMetrics(prometheus.DefaultRegisterer)

			// Create tracker
			t := tracker.New(db, cfg.RecentWindow, metrics, logger)

			if cfg.SeedOnEmpty {
				seeded, err := t.SeedIfEmpty(cmd.Context(), seed.New())
				if err != nil {
					return fmt.Errorf("seeding empty store: %w", err)
				}
				if seeded {
					logger.Info().Msg("store was empty, imported sample log")
				}
			}

			// Register sources
			var profile *importer.MappingProfile
			if cfg.MappingFile != "" {
				if profile, err = importer.LoadMapping(cfg.MappingFile); err != nil {
					return err
				}
			}
			for _, path := range cfg.ImportFiles {
				t.RegisterSource(csvfile.SourceName+":"+path, csvfile.New(path, csvfile.Options{Profile: profile}, logger))
			}

			// Create scheduler
			sched := scheduler.New(t, cfg.SnapshotHour, logger)

			// Create HTTP server
			opts := http.Options{
				RecentWindow:  cfg.RecentWindow,
				RollingWindow: cfg.RollingWindow,
				Gatherer:      prometheus.DefaultGatherer,
			}
			httpServer := http.NewServer(cfg.HTTPAddr, db, t, sched, metrics, opts, logger)

			// Setup signal handling
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

			// Start HTTP server in goroutine
			go func() {
				if err := httpServer.Start(); err != nil {
					logger.Error().Err(err).Msg("HTTP server error")
					cancel()
				}
			}()

			// Start scheduler in goroutine
			go func() {
				if err := sched.Start(ctx); err != nil && err != context.Canceled {
					logger.Error().Err(err).Msg("scheduler error")
					cancel()
				}
			}()

			// Wait for signal
			select {
			case sig := <-sigCh:
				logger.Info().Str("signal", sig.String()).Msg("received signal, shutting down")
			case <-ctx.Done():
			}

			// Graceful shutdown
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer shutdownCancel()

			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				logger.Error().Err(err).Msg("HTTP server shutdown error")
			}

			logger.Info().Msg("shutdown complete")
			return nil
		},
	}

	cmd.Flags().IntVar(&cfg.SnapshotHour, "snapshot-hour", cfg.SnapshotHour, "Hour of day (0-23) to import and snapshot")
	cmd.Flags().BoolVar(&cfg.SeedOnEmpty, "seed", cfg.SeedOnEmpty, "Import the sample log when the store is empty")
	cmd.Flags().StringSliceVar(&cfg.ImportFiles, "import-file", cfg.ImportFiles, "CSV file to re-import daily (repeatable)")
	cmd.Flags().StringVar(&cfg.MappingFile, "mapping", cfg.MappingFile, "YAML column mapping for the import files")

	return cmd
}
