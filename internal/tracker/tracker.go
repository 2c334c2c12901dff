// Package tracker imports fill-ups from record sources into the store and
// computes report snapshots over the stored log.
package tracker

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ustunfatih/oktan/internal/importer"
	"github.com/ustunfatih/oktan/internal/models"
	"github.com/ustunfatih/oktan/internal/report"
	"github.com/ustunfatih/oktan/internal/source"
)

// Store is the record storage used by the tracker.
type Store interface {
	InsertRecord(ctx context.Context, r models.FuelRecord) error
	ExistsDuplicate(ctx context.Context, date time.Time, liters, pricePerLiter float64) (bool, error)
	ListRecords(ctx context.Context) ([]models.FuelRecord, error)
	CountRecords(ctx context.Context) (int64, error)
}

// Recorder receives import and snapshot measurements.
type Recorder interface {
	RecordImport(source string, success bool, duration time.Duration, result importer.ImportResult)
	RecordSnapshot(rep report.Report, recordCount int, at time.Time)
}

type nopRecorder struct{}

func (nopRecorder) RecordImport(string, bool, time.Duration, importer.ImportResult) {}
func (nopRecorder) RecordSnapshot(report.Report, int, time.Time)                     {}

// Metrics holds import metrics for a source.
type Metrics struct {
	mu                sync.RWMutex
	TotalImports      int64
	TotalErrors       int64
	LastImportAt      *time.Time
	LastImportSuccess bool
	LastDuration      time.Duration
	LastError         *string
	RecordsImported   int64
	RecordsSkipped    int64
}

// GetSnapshot returns a thread-safe snapshot of the metrics.
func (m *Metrics) GetSnapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return MetricsSnapshot{
		TotalImports:      m.TotalImports,
		TotalErrors:       m.TotalErrors,
		LastImportAt:      m.LastImportAt,
		LastImportSuccess: m.LastImportSuccess,
		LastDuration:      m.LastDuration,
		LastError:         m.LastError,
		RecordsImported:   m.RecordsImported,
		RecordsSkipped:    m.RecordsSkipped,
	}
}

// MetricsSnapshot is a thread-safe copy of Metrics data.
type MetricsSnapshot struct {
	TotalImports      int64
	TotalErrors       int64
	LastImportAt      *time.Time
	LastImportSuccess bool
	LastDuration      time.Duration
	LastError         *string
	RecordsImported   int64
	RecordsSkipped    int64
}

// Tracker orchestrates imports from record sources and report snapshots.
type Tracker struct {
	store         Store
	recentWindow  int
	recorder      Recorder
	sources       map[string]source.Source
	sourceMetrics map[string]*Metrics
	logger        zerolog.Logger
	mu            sync.RWMutex
}

// New creates a new Tracker. A nil recorder discards measurements.
func New(store Store, recentWindow int, recorder Recorder, logger zerolog.Logger) *Tracker {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Tracker{
		store:         store,
		recentWindow:  recentWindow,
		recorder:      recorder,
		sources:       make(map[string]source.Source),
		sourceMetrics: make(map[string]*Metrics),
		logger:        logger.With().Str("component", "tracker").Logger(),
	}
}

// RegisterSource registers a source for ImportAll under the given key.
func (t *Tracker) RegisterSource(key string, src source.Source) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sources[key] = src
	if _, ok := t.sourceMetrics[key]; !ok {
		t.sourceMetrics[key] = &Metrics{}
	}
}

// SourceKeys returns the keys of all registered sources and of every source
// imported through Import, sorted.
func (t *Tracker) SourceKeys() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	keys := make([]string, 0, len(t.sourceMetrics))
	for k := range t.sourceMetrics {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// GetMetrics returns the metrics for a source key, or nil.
func (t *Tracker) GetMetrics(key string) *Metrics {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.sourceMetrics[key]
}

func (t *Tracker) metricsFor(key string) *Metrics {
	t.mu.Lock()
	defer t.mu.Unlock()
	m, ok := t.sourceMetrics[key]
	if !ok {
		m = &Metrics{}
		t.sourceMetrics[key] = m
	}
	return m
}

// ImportAll imports every registered source, skipping duplicates. Failures
// are logged and do not stop the remaining sources.
func (t *Tracker) ImportAll(ctx context.Context) {
	t.mu.RLock()
	keys := make([]string, 0, len(t.sources))
	for k := range t.sources {
		keys = append(keys, k)
	}
	t.mu.RUnlock()
	slices.Sort(keys)

	for _, key := range keys {
		t.mu.RLock()
		src := t.sources[key]
		t.mu.RUnlock()

		if _, err := t.importSource(ctx, key, src, true); err != nil {
			t.logger.Error().
				Err(err).
				Str("source", key).
				Msg("failed to import source")
		}
	}
}

// Import fetches all records from src and stores them. Rows the source
// rejected and records that fail validation or insertion are counted as
// failed; with skipDuplicates, records matching a stored fill-up by day,
// liters and price are counted as duplicates instead of inserted.
func (t *Tracker) Import(ctx context.Context, src source.Source, skipDuplicates bool) (importer.ImportResult, error) {
	return t.importSource(ctx, src.Name(), src, skipDuplicates)
}

func (t *Tracker) importSource(ctx context.Context, key string, src source.Source, skipDuplicates bool) (importer.ImportResult, error) {
	metrics := t.metricsFor(key)
	t.logger.Info().Str("source", key).Msg("importing source")

	start := time.Now()
	metrics.mu.Lock()
	metrics.TotalImports++
	metrics.mu.Unlock()

	batch, err := src.Fetch(ctx)

	var result importer.ImportResult
	if err == nil {
		for _, msg := range batch.Rejected {
			result.AddError(msg)
		}
		err = t.insertAll(ctx, batch.Records, skipDuplicates, &result)
	}
	duration := time.Since(start)

	now := time.Now()
	metrics.mu.Lock()
	metrics.LastImportAt = &now
	metrics.LastDuration = duration
	if err != nil {
		metrics.TotalErrors++
		metrics.LastImportSuccess = false
		errStr := err.Error()
		metrics.LastError = &errStr
	} else {
		metrics.LastImportSuccess = true
		metrics.LastError = nil
	}
	metrics.RecordsImported += int64(result.SuccessCount)
	metrics.RecordsSkipped += int64(result.DuplicateCount)
	metrics.mu.Unlock()

	t.recorder.RecordImport(key, err == nil, duration, result)

	if err != nil {
		t.logger.Error().
			Err(err).
			Str("source", key).
			Dur("duration", duration).
			Msg("import failed")
		return result, err
	}

	t.logger.Info().
		Str("source", key).
		Int("inserted", result.SuccessCount).
		Int("duplicates", result.DuplicateCount).
		Int("failed", result.FailedCount).
		Dur("duration", duration).
		Msg("import completed")

	return result, nil
}

// insertAll inserts records one by one. Per-record failures are counted in the
// result; only a cancelled context aborts the loop.
func (t *Tracker) insertAll(ctx context.Context, records []models.FuelRecord, skipDuplicates bool, result *importer.ImportResult) error {
	for _, r := range records {
		if err := ctx.Err(); err != nil {
			return err
		}

		if skipDuplicates {
			exists, err := t.store.ExistsDuplicate(ctx, r.Date, r.TotalLiters, r.PricePerLiter)
			if err != nil {
				t.logger.Error().
					Err(err).
					Str("date", r.Date.Format("2006-01-02")).
					Msg("failed to check duplicate")
				result.AddError(r.Date.Format("2006-01-02") + ": " + err.Error())
				continue
			}
			if exists {
				t.logger.Debug().
					Str("date", r.Date.Format("2006-01-02")).
					Float64("liters", r.TotalLiters).
					Msg("record already exists, skipping")
				result.DuplicateCount++
				continue
			}
		}

		if err := t.store.InsertRecord(ctx, r); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			t.logger.Error().
				Err(err).
				Str("date", r.Date.Format("2006-01-02")).
				Msg("failed to insert record")
			result.AddError(r.Date.Format("2006-01-02") + ": " + err.Error())
			continue
		}
		result.SuccessCount++
	}
	return nil
}

// Snapshot loads every stored record and computes the report over them.
func (t *Tracker) Snapshot(ctx context.Context) (report.Report, error) {
	records, err := t.store.ListRecords(ctx)
	if err != nil {
		return report.Report{}, err
	}

	rep := report.Summarize(records, t.recentWindow)
	t.recorder.RecordSnapshot(rep, len(records), time.Now())

	ev := t.logger.Info().
		Int("records", len(records)).
		Float64("total_distance", rep.Summary.TotalDistance)
	if rep.Summary.AverageEfficiency != nil {
		ev = ev.Float64("average_efficiency", *rep.Summary.AverageEfficiency)
	}
	ev.Msg("computed snapshot")

	return rep, nil
}

// SeedIfEmpty imports src when the store holds no records yet.
func (t *Tracker) SeedIfEmpty(ctx context.Context, src source.Source) (bool, error) {
	count, err := t.store.CountRecords(ctx)
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}
	if _, err := t.Import(ctx, src, false); err != nil {
		return false, err
	}
	return true, nil
}
