package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ustunfatih/oktan/internal/database"
	"github.com/ustunfatih/oktan/internal/models"
	"github.com/ustunfatih/oktan/internal/tracker"
)

// API serves the JSON endpoints under /api.
type API struct {
	store   RecordStore
	tracker *tracker.Tracker
	metrics *Metrics
	opts    Options
	logger  zerolog.Logger
}

// RegisterRoutes mounts the API endpoints on r.
func (a *API) RegisterRoutes(r chi.Router) {
	r.Get("/records", a.ListRecords)
	r.Post("/records", a.CreateRecord)
	r.Get("/records/{id}", a.GetRecord)
	r.Put("/records/{id}", a.UpdateRecord)
	r.Delete("/records/{id}", a.DeleteRecord)

	r.Post("/import", a.Import)

	r.Route("/reports", func(r chi.Router) {
		r.Get("/summary", a.Summary)
		r.Get("/efficiency", a.EfficiencyTrend)
		r.Get("/cost-per-km", a.CostPerKmTrend)
		r.Get("/rolling", a.RollingAverage)
		r.Get("/monthly", a.MonthlyRollups)
		r.Get("/monthly-cost", a.MonthlyCostTrend)
		r.Get("/weekly-spending", a.WeeklySpending)
		r.Get("/month-over-month", a.MonthOverMonth)
		r.Get("/drive-modes", a.DriveModeComparison)
		r.Get("/weekdays", a.FillupsByDayOfWeek)
		r.Get("/frequency", a.Frequency)
		r.Get("/year-over-year", a.YearOverYear)
		r.Get("/insights", a.Insights)
	})

	r.Get("/export.csv", a.ExportCSV)
	r.Get("/export.xlsx", a.ExportXLSX)
}

// recordRequest is the body of create and update requests.
type recordRequest struct {
	Date          string   `json:"date"`
	OdometerStart *float64 `json:"odometer_start"`
	OdometerEnd   *float64 `json:"odometer_end"`
	TotalLiters   float64  `json:"total_liters"`
	PricePerLiter float64  `json:"price_per_liter"`
	GasStation    string   `json:"gas_station"`
	DriveMode     string   `json:"drive_mode"`
	IsFullRefill  *bool    `json:"is_full_refill"`
	Notes         *string  `json:"notes"`
}

func (req recordRequest) toRecord() (models.FuelRecord, error) {
	date, err := parseRequestDate(req.Date)
	if err != nil {
		return models.FuelRecord{}, err
	}

	mode := models.DriveModeNormal
	if req.DriveMode != "" {
		var ok bool
		if mode, ok = models.ParseDriveMode(req.DriveMode); !ok {
			return models.FuelRecord{}, fmt.Errorf("unknown drive mode %q", req.DriveMode)
		}
	}

	full := true
	if req.IsFullRefill != nil {
		full = *req.IsFullRefill
	}

	notes := req.Notes
	if notes != nil && strings.TrimSpace(*notes) == "" {
		notes = nil
	}

	return models.NewFuelRecord(date, req.OdometerStart, req.OdometerEnd, req.TotalLiters, req.PricePerLiter, req.GasStation, mode, full, notes), nil
}

func parseRequestDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, errors.New("date is required")
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q, use YYYY-MM-DD or RFC 3339", s)
}

// ListRecords returns all records, oldest first.
func (a *API) ListRecords(w http.ResponseWriter, r *http.Request) {
	records, ok := a.loadRecords(w, r)
	if !ok {
		return
	}
	a.writeJSON(w, http.StatusOK, orEmpty(records))
}

// CreateRecord stores a new record.
func (a *API) CreateRecord(w http.ResponseWriter, r *http.Request) {
	rec, ok := a.decodeRecord(w, r)
	if !ok {
		return
	}

	err := a.store.InsertRecord(r.Context(), rec)
	a.recordDB("insert", err)
	if err != nil {
		a.writeStoreError(w, err)
		return
	}
	a.writeJSON(w, http.StatusCreated, rec)
}

// GetRecord returns one record.
func (a *API) GetRecord(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	rec, err := a.store.GetRecord(r.Context(), id)
	a.recordDB("get", err)
	if err != nil {
		a.writeStoreError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, rec)
}

// UpdateRecord replaces a record. The ID in the path wins over the body.
func (a *API) UpdateRecord(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	rec, ok := a.decodeRecord(w, r)
	if !ok {
		return
	}
	rec.ID = id

	err := a.store.UpdateRecord(r.Context(), rec)
	a.recordDB("update", err)
	if err != nil {
		a.writeStoreError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, rec)
}

// DeleteRecord removes a record.
func (a *API) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	err := a.store.DeleteRecord(r.Context(), id)
	a.recordDB("delete", err)
	if err != nil {
		a.writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) decodeRecord(w http.ResponseWriter, r *http.Request) (models.FuelRecord, bool) {
	var req recordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return models.FuelRecord{}, false
	}
	rec, err := req.toRecord()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return models.FuelRecord{}, false
	}
	if err := rec.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return models.FuelRecord{}, false
	}
	return rec, true
}

func (a *API) loadRecords(w http.ResponseWriter, r *http.Request) ([]models.FuelRecord, bool) {
	records, err := a.store.ListRecords(r.Context())
	a.recordDB("list", err)
	if err != nil {
		a.writeStoreError(w, err)
		return nil, false
	}
	return records, true
}

func (a *API) recordDB(operation string, err error) {
	if a.metrics != nil {
		a.metrics.RecordDBOperation(operation, err)
	}
}

func (a *API) writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, database.ErrNotFound):
		writeError(w, http.StatusNotFound, "record not found")
	case errors.Is(err, models.ErrInvalidLiters), errors.Is(err, models.ErrInvalidPrice), errors.Is(err, models.ErrInvertedOdometer), errors.Is(err, models.ErrInvalidOdometer):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		a.logger.Error().Err(err).Msg("store operation failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid record id")
		return uuid.Nil, false
	}
	return id, true
}

// writeJSON encodes data before writing the header, so a value that cannot
// be encoded yields a 500 instead of a truncated 200.
func (a *API) writeJSON(w http.ResponseWriter, status int, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		a.logger.Error().Err(err).Msg("failed to encode response")
		writeError(w, http.StatusInternalServerError, "failed to encode response")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// orEmpty makes nil slices encode as [] instead of null.
func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
