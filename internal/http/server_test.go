package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/ustunfatih/oktan/internal/database"
	oktanhttp "github.com/ustunfatih/oktan/internal/http"
	"github.com/ustunfatih/oktan/internal/export"
	"github.com/ustunfatih/oktan/internal/models"
	"github.com/ustunfatih/oktan/internal/report"
	"github.com/ustunfatih/oktan/internal/source/seed"
	"github.com/ustunfatih/oktan/internal/tracker"
)

type memStore struct {
	mu      sync.Mutex
	records []models.FuelRecord
	pingErr error
}

func (s *memStore) ListRecords(context.Context) ([]models.FuelRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.FuelRecord(nil), s.records...), nil
}

func (s *memStore) GetRecord(_ context.Context, id uuid.UUID) (models.FuelRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.records {
		if r.ID == id {
			return r, nil
		}
	}
	return models.FuelRecord{}, database.ErrNotFound
}

func (s *memStore) InsertRecord(_ context.Context, r models.FuelRecord) error {
	if err := r.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, r)
	return nil
}

func (s *memStore) UpdateRecord(_ context.Context, r models.FuelRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.records {
		if s.records[i].ID == r.ID {
			s.records[i] = r
			return nil
		}
	}
	return database.ErrNotFound
}

func (s *memStore) DeleteRecord(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.records {
		if s.records[i].ID == id {
			s.records = append(s.records[:i], s.records[i+1:]...)
			return nil
		}
	}
	return database.ErrNotFound
}

func (s *memStore) ExistsDuplicate(_ context.Context, date time.Time, liters, price float64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.records {
		sameDay := r.Date.Year() == date.Year() && r.Date.YearDay() == date.YearDay()
		if sameDay && math.Abs(r.TotalLiters-liters) < 0.001 && math.Abs(r.PricePerLiter-price) < 0.001 {
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) CountRecords(context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.records)), nil
}

func (s *memStore) Ping() error {
	return s.pingErr
}

type fixture struct {
	store   *memStore
	metrics *oktanhttp.Metrics
	handler http.Handler
}

func newFixture(t *testing.T, records []models.FuelRecord) fixture {
	t.Helper()
	store := &memStore{records: records}
	reg := prometheus.NewRegistry()
	metrics := oktanhttp.NewMetrics(reg)
	tr := tracker.New(store, 5, metrics, zerolog.Nop())
	opts := oktanhttp.Options{RecentWindow: 5, RollingWindow: 3, Gatherer: reg}
	return fixture{
		store:   store,
		metrics: metrics,
		handler: oktanhttp.NewRouter(store, tr, nil, metrics, opts, zerolog.Nop()),
	}
}

func (f fixture) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decoding %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestHealth(t *testing.T) {
	f := newFixture(t, nil)
	rec := f.do(t, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Errorf("GET /health = %d %q", rec.Code, rec.Body.String())
	}
}

func TestStatus(t *testing.T) {
	f := newFixture(t, seed.Records())

	rec := f.do(t, http.MethodGet, "/status", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /status = %d", rec.Code)
	}
	status := decode[models.StatusResponse](t, rec)
	if status.Status != "healthy" {
		t.Errorf("Status = %q, want healthy", status.Status)
	}
	if !status.Database.Connected || status.Database.TotalRecordsStored != 11 {
		t.Errorf("Database = %+v", status.Database)
	}

	f.store.pingErr = errors.New("connection refused")
	status = decode[models.StatusResponse](t, f.do(t, http.MethodGet, "/status", ""))
	if status.Status != "degraded" || status.Database.Connected {
		t.Errorf("with ping failure: Status = %q, Database = %+v", status.Status, status.Database)
	}
}

func TestRecordLifecycle(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(t, http.MethodPost, "/api/records", `{"date":"2025-05-12","odometer_start":584,"odometer_end":963,"total_liters":41.03,"price_per_liter":1.95,"gas_station":"Pearl"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST /api/records = %d %s", rec.Code, rec.Body.String())
	}
	created := decode[models.FuelRecord](t, rec)
	if created.DriveMode != models.DriveModeNormal || !created.IsFullRefill {
		t.Errorf("defaults: mode = %s, full = %v", created.DriveMode, created.IsFullRefill)
	}

	rec = f.do(t, http.MethodGet, "/api/records/"+created.ID.String(), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET record = %d", rec.Code)
	}
	if got := decode[models.FuelRecord](t, rec); got.GasStation != "Pearl" {
		t.Errorf("GasStation = %q", got.GasStation)
	}

	rec = f.do(t, http.MethodPut, "/api/records/"+created.ID.String(), `{"date":"2025-05-12","odometer_start":584,"odometer_end":963,"total_liters":41.03,"price_per_liter":1.95,"drive_mode":"eco"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT record = %d %s", rec.Code, rec.Body.String())
	}
	updated := decode[models.FuelRecord](t, rec)
	if updated.ID != created.ID || updated.DriveMode != models.DriveModeEco || updated.GasStation != models.DefaultGasStation {
		t.Errorf("updated = %+v", updated)
	}

	rec = f.do(t, http.MethodDelete, "/api/records/"+created.ID.String(), "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("DELETE record = %d", rec.Code)
	}
	rec = f.do(t, http.MethodGet, "/api/records/"+created.ID.String(), "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("GET deleted record = %d, want 404", rec.Code)
	}
}

func TestCreateRecord_BadRequest(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"date":`},
		{"missing date", `{"total_liters":40,"price_per_liter":2}`},
		{"bad date", `{"date":"12.05.2025","total_liters":40,"price_per_liter":2}`},
		{"zero liters", `{"date":"2025-05-12","total_liters":0,"price_per_liter":2}`},
		{"negative price", `{"date":"2025-05-12","total_liters":40,"price_per_liter":-1}`},
		{"inverted odometer", `{"date":"2025-05-12","odometer_start":900,"odometer_end":100,"total_liters":40,"price_per_liter":2}`},
		{"negative odometer", `{"date":"2025-05-12","odometer_start":-50,"odometer_end":100,"total_liters":40,"price_per_liter":2}`},
		{"unknown mode", `{"date":"2025-05-12","total_liters":40,"price_per_liter":2,"drive_mode":"turbo"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			rec := f.do(t, http.MethodPost, "/api/records", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("POST = %d, want 400", rec.Code)
			}
			if body := decode[map[string]string](t, rec); body["error"] == "" {
				t.Error("missing error message")
			}
			if len(f.store.records) != 0 {
				t.Error("invalid record was stored")
			}
		})
	}
}

func TestRecordByID_Errors(t *testing.T) {
	f := newFixture(t, nil)
	if rec := f.do(t, http.MethodGet, "/api/records/not-a-uuid", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("GET invalid id = %d, want 400", rec.Code)
	}
	if rec := f.do(t, http.MethodDelete, "/api/records/"+uuid.NewString(), ""); rec.Code != http.StatusNotFound {
		t.Errorf("DELETE unknown id = %d, want 404", rec.Code)
	}
}

func TestListRecords_EmptyIsArray(t *testing.T) {
	f := newFixture(t, nil)
	for _, target := range []string{"/api/records", "/api/reports/efficiency", "/api/reports/monthly", "/api/reports/year-over-year"} {
		rec := f.do(t, http.MethodGet, target, "")
		if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
			t.Errorf("GET %s = %q, want []", target, got)
		}
	}
}

func TestReports(t *testing.T) {
	f := newFixture(t, seed.Records())

	rep := decode[report.Report](t, f.do(t, http.MethodGet, "/api/reports/summary", ""))
	if rep.Summary.TotalDistance != 3749 {
		t.Errorf("TotalDistance = %v, want 3749", rep.Summary.TotalDistance)
	}
	if rep.Recent.WindowSize != 5 {
		t.Errorf("Recent.WindowSize = %d, want 5", rep.Recent.WindowSize)
	}

	rep = decode[report.Report](t, f.do(t, http.MethodGet, "/api/reports/summary?window=2", ""))
	if rep.Recent.WindowSize != 2 || rep.Recent.RecordCount != 2 {
		t.Errorf("Recent = %+v, want window 2", rep.Recent)
	}

	if rec := f.do(t, http.MethodGet, "/api/reports/summary?window=0", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("window=0 = %d, want 400", rec.Code)
	}

	trend := decode[[]report.TimeSeriesPoint](t, f.do(t, http.MethodGet, "/api/reports/efficiency", ""))
	if len(trend) != 10 {
		t.Errorf("efficiency points = %d, want 10", len(trend))
	}
	rolling := decode[[]report.TimeSeriesPoint](t, f.do(t, http.MethodGet, "/api/reports/rolling", ""))
	if len(rolling) != 8 {
		t.Errorf("rolling points = %d, want 8", len(rolling))
	}

	weekdays := decode[[]report.ComparisonPoint](t, f.do(t, http.MethodGet, "/api/reports/weekdays", ""))
	if len(weekdays) != 7 {
		t.Errorf("weekday points = %d, want 7", len(weekdays))
	}

	modes := decode[[]report.ComparisonPoint](t, f.do(t, http.MethodGet, "/api/reports/drive-modes", ""))
	if len(modes) != 3 {
		t.Errorf("drive mode points = %d, want 3", len(modes))
	}

	mom := decode[map[string]any](t, f.do(t, http.MethodGet, "/api/reports/month-over-month", ""))
	if _, ok := mom["cost_change_percent"]; !ok {
		t.Errorf("month-over-month misses cost_change_percent: %v", mom)
	}

	insights := decode[map[string][]string](t, f.do(t, http.MethodGet, "/api/reports/insights", ""))
	if len(insights["insights"]) == 0 {
		t.Error("no insights for the sample log")
	}

	freq := decode[map[string]*float64](t, f.do(t, http.MethodGet, "/api/reports/frequency", ""))
	if freq["average_days_between_fillups"] == nil {
		t.Error("frequency is null for the sample log")
	}
}

func TestImport(t *testing.T) {
	f := newFixture(t, nil)
	csv := "Date,Odometer_Start,Odometer_End,Total_Liters,Price_per_Liter\n" +
		"2025-04-28,170,584,41.46,2.05\n" +
		"2025-05-12,584,963,41.03,1.95\n" +
		"2025-05-31,963,1364,abc,1.95\n"

	rec := f.do(t, http.MethodPost, "/api/import", csv)
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /api/import = %d %s", rec.Code, rec.Body.String())
	}
	result := decode[map[string]any](t, rec)
	if result["success_count"] != 2.0 || result["failed_count"] != 1.0 {
		t.Errorf("result = %v", result)
	}

	rec = f.do(t, http.MethodPost, "/api/import", csv)
	result = decode[map[string]any](t, rec)
	if result["duplicate_count"] != 2.0 || result["success_count"] != 0.0 {
		t.Errorf("second import = %v", result)
	}
	if len(f.store.records) != 2 {
		t.Errorf("stored = %d, want 2", len(f.store.records))
	}

	if rec := f.do(t, http.MethodPost, "/api/import", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("empty import = %d, want 400", rec.Code)
	}
}

func TestExport(t *testing.T) {
	f := newFixture(t, seed.Records())

	rec := f.do(t, http.MethodGet, "/api/export.csv", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/export.csv = %d", rec.Code)
	}
	var want bytes.Buffer
	if err := export.WriteCSV(&want, f.store.records); err != nil {
		t.Fatal(err)
	}
	if rec.Body.String() != want.String() {
		t.Error("CSV body differs from WriteCSV output")
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "oktan-fuel-log-") {
		t.Errorf("Content-Disposition = %q", cd)
	}

	rec = f.do(t, http.MethodGet, "/api/export.xlsx", "")
	if rec.Code != http.StatusOK || !bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")) {
		t.Errorf("GET /api/export.xlsx = %d, not a zip archive", rec.Code)
	}
}

func TestMetricsRecorded(t *testing.T) {
	f := newFixture(t, seed.Records())
	f.do(t, http.MethodGet, "/api/records", "")
	f.do(t, http.MethodGet, "/api/records/"+uuid.NewString(), "")

	if got := testutil.ToFloat64(f.metrics.HTTPRequestsTotal.WithLabelValues("/api/records", "200")); got != 1 {
		t.Errorf("requests{/api/records,200} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(f.metrics.HTTPRequestsTotal.WithLabelValues("/api/records/{id}", "404")); got != 1 {
		t.Errorf("requests{/api/records/{id},404} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(f.metrics.DBOperationsTotal.WithLabelValues("get", "error")); got != 1 {
		t.Errorf("db_operations{get,error} = %v, want 1", got)
	}
}

func TestMetricsEndpointServesRegistry(t *testing.T) {
	f := newFixture(t, seed.Records())
	f.do(t, http.MethodGet, "/api/records", "")

	rec := f.do(t, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /metrics = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	for _, name := range []string{"oktan_http_requests_total", "oktan_db_operations_total"} {
		if !strings.Contains(body, name) {
			t.Errorf("/metrics misses %s", name)
		}
	}
}

func TestReports_MalformedStoredOdometer(t *testing.T) {
	records := append(seed.Records(),
		models.NewFuelRecord(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), models.Float(5000), models.Float(math.NaN()), 30, 2, "Pearl", models.DriveModeEco, true, nil),
		models.NewFuelRecord(time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC), models.Float(math.Inf(-1)), models.Float(5000), 30, 2, "Pearl", models.DriveModeEco, true, nil),
	)
	f := newFixture(t, records)

	for _, target := range []string{"/api/reports/summary", "/api/reports/efficiency", "/api/reports/monthly", "/api/reports/rolling"} {
		if rec := f.do(t, http.MethodGet, target, ""); rec.Code != http.StatusOK {
			t.Errorf("GET %s = %d, want 200: %s", target, rec.Code, rec.Body.String())
		}
	}

	rep := decode[report.Report](t, f.do(t, http.MethodGet, "/api/reports/summary", ""))
	if rep.Summary.TotalDistance != 3749 {
		t.Errorf("TotalDistance = %v, want 3749", rep.Summary.TotalDistance)
	}
}
