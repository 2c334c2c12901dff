// Package models provides shared data types for the fuel log.
package models

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultGasStation is the station label used when none was entered.
const DefaultGasStation = "Unknown"

// DriveMode describes the driving style for a fill-up interval.
type DriveMode string

const (
	// DriveModeEco is economical driving.
	DriveModeEco DriveMode = "Eco"
	// DriveModeNormal is everyday driving.
	DriveModeNormal DriveMode = "Normal"
	// DriveModeSport is sporty driving.
	DriveModeSport DriveMode = "Sport"
)

// AllDriveModes returns every drive mode in display order.
func AllDriveModes() []DriveMode {
	return []DriveMode{DriveModeEco, DriveModeNormal, DriveModeSport}
}

// ParseDriveMode parses a drive mode case-insensitively.
// Unknown or empty input yields DriveModeNormal and ok=false.
func ParseDriveMode(s string) (DriveMode, bool) {
	for _, m := range AllDriveModes() {
		if strings.EqualFold(strings.TrimSpace(s), string(m)) {
			return m, true
		}
	}
	return DriveModeNormal, false
}

// Validation errors returned by FuelRecord.Validate.
var (
	ErrInvalidLiters    = errors.New("total liters must be positive")
	ErrInvalidPrice     = errors.New("price per liter must be positive")
	ErrInvertedOdometer = errors.New("odometer end is before odometer start")
	ErrInvalidOdometer  = errors.New("odometer readings must be finite and not negative")
)

// FuelRecord is a snapshot of one fill-up.
type FuelRecord struct {
	// ID is stable across edits.
	ID uuid.UUID `json:"id"`
	// Date is when the fuel was bought.
	Date time.Time `json:"date"`
	// OdometerStart is the reading at the previous fill-up, if known.
	OdometerStart *float64 `json:"odometer_start,omitempty"`
	// OdometerEnd is the reading at this fill-up, if known.
	OdometerEnd *float64 `json:"odometer_end,omitempty"`
	// TotalLiters is the volume purchased.
	TotalLiters float64 `json:"total_liters"`
	// PricePerLiter is the unit price.
	PricePerLiter float64 `json:"price_per_liter"`
	// GasStation is a free-text station label.
	GasStation string `json:"gas_station"`
	// DriveMode is the driving style since the previous fill-up.
	DriveMode DriveMode `json:"drive_mode"`
	// IsFullRefill reports whether the tank was filled to capacity.
	IsFullRefill bool `json:"is_full_refill"`
	// Notes is optional free text.
	Notes *string `json:"notes,omitempty"`
}

// NewFuelRecord creates a record with a fresh ID. An empty station becomes DefaultGasStation.
func NewFuelRecord(date time.Time, odometerStart, odometerEnd *float64, liters, pricePerLiter float64, station string, mode DriveMode, fullRefill bool, notes *string) FuelRecord {
	station = strings.TrimSpace(station)
	if station == "" {
		station = DefaultGasStation
	}
	return FuelRecord{
		ID:            uuid.New(),
		Date:          date,
		OdometerStart: odometerStart,
		OdometerEnd:   odometerEnd,
		TotalLiters:   liters,
		PricePerLiter: pricePerLiter,
		GasStation:    station,
		DriveMode:     mode,
		IsFullRefill:  fullRefill,
		Notes:         notes,
	}
}

// Distance returns the distance driven, or nil when the odometer pair is
// incomplete, malformed, inverted or zero-length.
func (r FuelRecord) Distance() *float64 {
	if !validReading(r.OdometerStart) || !validReading(r.OdometerEnd) {
		return nil
	}
	d := *r.OdometerEnd - *r.OdometerStart
	if !(d > 0) || math.IsInf(d, 0) {
		return nil
	}
	return &d
}

// validReading reports whether v is a present, finite, non-negative reading.
func validReading(v *float64) bool {
	return v != nil && isFinite(*v) && *v >= 0
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// TotalCost returns liters times unit price.
func (r FuelRecord) TotalCost() float64 {
	return r.TotalLiters * r.PricePerLiter
}

// LitersPer100Km returns the efficiency of this interval, or nil without a distance.
func (r FuelRecord) LitersPer100Km() *float64 {
	d := r.Distance()
	if d == nil {
		return nil
	}
	v := r.TotalLiters / *d * 100
	return &v
}

// CostPerKm returns the cost per distance unit, or nil without a distance.
func (r FuelRecord) CostPerKm() *float64 {
	d := r.Distance()
	if d == nil {
		return nil
	}
	v := r.TotalCost() / *d
	return &v
}

// Validate checks the record before it is stored.
func (r FuelRecord) Validate() error {
	if !(r.TotalLiters > 0) || math.IsInf(r.TotalLiters, 0) {
		return fmt.Errorf("validating record %s: %w", r.ID, ErrInvalidLiters)
	}
	if !(r.PricePerLiter > 0) || math.IsInf(r.PricePerLiter, 0) {
		return fmt.Errorf("validating record %s: %w", r.ID, ErrInvalidPrice)
	}
	for _, v := range []*float64{r.OdometerStart, r.OdometerEnd} {
		if v != nil && !validReading(v) {
			return fmt.Errorf("validating record %s: %w", r.ID, ErrInvalidOdometer)
		}
	}
	if r.OdometerStart != nil && r.OdometerEnd != nil && *r.OdometerEnd < *r.OdometerStart {
		return fmt.Errorf("validating record %s: %w", r.ID, ErrInvertedOdometer)
	}
	return nil
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}

// StatusResponse is the response for the /status endpoint.
type StatusResponse struct {
	Status           string                  `json:"status"`
	UptimeSeconds    int64                   `json:"uptime_seconds"`
	SchedulerRunning bool                    `json:"scheduler_running"`
	NextSnapshotAt   *time.Time              `json:"next_snapshot_at,omitempty"`
	LastSnapshotAt   *time.Time              `json:"last_snapshot_at,omitempty"`
	Sources          map[string]SourceStatus `json:"sources"`
	Database         DatabaseStatus          `json:"database"`
}

// SourceStatus holds the import history of a record source.
type SourceStatus struct {
	LastImportAt      *time.Time `json:"last_import_at"`
	LastImportSuccess bool       `json:"last_import_success"`
	LastDurationMs    int64      `json:"last_duration_ms"`
	LastError         *string    `json:"last_error"`
	TotalImports      int64      `json:"total_imports"`
	TotalErrors       int64      `json:"total_errors"`
	RecordsImported   int64      `json:"records_imported"`
	RecordsSkipped    int64      `json:"records_skipped"`
}

// DatabaseStatus holds the database connection status.
type DatabaseStatus struct {
	Connected          bool  `json:"connected"`
	TotalRecordsStored int64 `json:"total_records_stored"`
}
