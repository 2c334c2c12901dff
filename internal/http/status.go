package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/ustunfatih/oktan/internal/models"
	"github.com/ustunfatih/oktan/internal/scheduler"
	"github.com/ustunfatih/oktan/internal/tracker"
)

// StatusHandler handles the /status endpoint.
type StatusHandler struct {
	tracker   *tracker.Tracker
	scheduler *scheduler.Scheduler
	store     RecordStore
	startTime time.Time
}

// NewStatusHandler creates a new StatusHandler. The scheduler may be nil.
func NewStatusHandler(t *tracker.Tracker, sched *scheduler.Scheduler, store RecordStore) *StatusHandler {
	return &StatusHandler{
		tracker:   t,
		scheduler: sched,
		store:     store,
		startTime: time.Now(),
	}
}

// ServeHTTP implements the http.Handler interface.
func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	response := models.StatusResponse{
		Status:        "healthy",
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		Sources:       make(map[string]models.SourceStatus),
	}

	if h.scheduler != nil {
		response.SchedulerRunning = h.scheduler.IsRunning()
		response.LastSnapshotAt = h.scheduler.LastSnapshotAt()
		next := h.scheduler.NextSnapshotAt()
		if !next.IsZero() {
			response.NextSnapshotAt = &next
		}
	}

	if h.tracker != nil {
		for _, key := range h.tracker.SourceKeys() {
			metrics := h.tracker.GetMetrics(key)
			if metrics == nil {
				continue
			}

			snapshot := metrics.GetSnapshot()
			response.Sources[key] = models.SourceStatus{
				LastImportAt:      snapshot.LastImportAt,
				LastImportSuccess: snapshot.LastImportSuccess,
				LastDurationMs:    snapshot.LastDuration.Milliseconds(),
				LastError:         snapshot.LastError,
				TotalImports:      snapshot.TotalImports,
				TotalErrors:       snapshot.TotalErrors,
				RecordsImported:   snapshot.RecordsImported,
				RecordsSkipped:    snapshot.RecordsSkipped,
			}
		}
	}

	response.Database = h.getDatabaseStatus(ctx)
	if !response.Database.Connected {
		response.Status = "degraded"
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
}

func (h *StatusHandler) getDatabaseStatus(ctx context.Context) models.DatabaseStatus {
	status := models.DatabaseStatus{
		Connected: false,
	}

	if h.store == nil {
		return status
	}

	if err := h.store.Ping(); err != nil {
		return status
	}
	status.Connected = true

	count, err := h.store.CountRecords(ctx)
	if err == nil {
		status.TotalRecordsStored = count
	}

	return status
}
