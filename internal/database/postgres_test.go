package database

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ustunfatih/oktan/internal/models"
)

func TestDayBounds(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	tests := []struct {
		name     string
		in       time.Time
		from, to time.Time
	}{
		{"midday", time.Date(2025, 5, 12, 14, 30, 0, 0, time.UTC), time.Date(2025, 5, 12, 0, 0, 0, 0, time.UTC), time.Date(2025, 5, 13, 0, 0, 0, 0, time.UTC)},
		{"midnight", time.Date(2025, 5, 12, 0, 0, 0, 0, time.UTC), time.Date(2025, 5, 12, 0, 0, 0, 0, time.UTC), time.Date(2025, 5, 13, 0, 0, 0, 0, time.UTC)},
		{"year end", time.Date(2025, 12, 31, 23, 59, 0, 0, loc), time.Date(2025, 12, 31, 0, 0, 0, 0, loc), time.Date(2026, 1, 1, 0, 0, 0, 0, loc)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from, to := DayBounds(tt.in)
			if !from.Equal(tt.from) || !to.Equal(tt.to) {
				t.Errorf("DayBounds() = %s, %s, want %s, %s", from, to, tt.from, tt.to)
			}
		})
	}
}

type rowFunc func(dest ...any) error

func (f rowFunc) Scan(dest ...any) error { return f(dest...) }

func TestScanRecord(t *testing.T) {
	id := uuid.New()
	date := time.Date(2025, 5, 12, 0, 0, 0, 0, time.UTC)

	row := rowFunc(func(dest ...any) error {
		*dest[0].(*uuid.UUID) = id
		*dest[1].(*time.Time) = date
		*dest[2].(*sql.NullFloat64) = sql.NullFloat64{Float64: 584, Valid: true}
		*dest[3].(*sql.NullFloat64) = sql.NullFloat64{}
		*dest[4].(*float64) = 41.03
		*dest[5].(*float64) = 1.95
		*dest[6].(*string) = "Pearl"
		*dest[7].(*string) = "Sport"
		*dest[8].(*bool) = true
		*dest[9].(*sql.NullString) = sql.NullString{String: "highway", Valid: true}
		return nil
	})

	r, err := scanRecord(row)
	if err != nil {
		t.Fatalf("scanRecord() error = %v", err)
	}
	if r.ID != id || !r.Date.Equal(date) || r.GasStation != "Pearl" {
		t.Errorf("scanRecord() = %+v", r)
	}
	if r.OdometerStart == nil || *r.OdometerStart != 584 || r.OdometerEnd != nil {
		t.Errorf("odometer = %v, %v", r.OdometerStart, r.OdometerEnd)
	}
	if r.DriveMode != models.DriveModeSport {
		t.Errorf("DriveMode = %s, want Sport", r.DriveMode)
	}
	if r.Notes == nil || *r.Notes != "highway" {
		t.Errorf("Notes = %v", r.Notes)
	}

	wantErr := errors.New("scan failed")
	if _, err := scanRecord(rowFunc(func(...any) error { return wantErr })); !errors.Is(err, wantErr) {
		t.Errorf("scanRecord() error = %v, want %v", err, wantErr)
	}
}

func TestScanRecord_DateIsUTC(t *testing.T) {
	stored := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	zones := []*time.Location{
		time.FixedZone("EST", -5*3600),
		time.FixedZone("PST", -8*3600),
		time.FixedZone("AEST", 10*3600),
	}

	for _, loc := range zones {
		t.Run(loc.String(), func(t *testing.T) {
			row := rowFunc(func(dest ...any) error {
				*dest[0].(*uuid.UUID) = uuid.New()
				*dest[1].(*time.Time) = stored.In(loc)
				*dest[7].(*string) = "Normal"
				return nil
			})

			r, err := scanRecord(row)
			if err != nil {
				t.Fatalf("scanRecord() error = %v", err)
			}
			if r.Date.Location() != time.UTC || r.Date.Day() != 1 || r.Date.Month() != time.February {
				t.Errorf("Date = %v, want 2025-02-01 UTC", r.Date)
			}
			if !r.Date.Equal(stored) {
				t.Errorf("Date = %v, want %v", r.Date, stored)
			}
		})
	}
}
