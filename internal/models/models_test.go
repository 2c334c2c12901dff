package models_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/ustunfatih/oktan/internal/models"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestFuelRecord_DerivedFields(t *testing.T) {
	r := models.FuelRecord{
		Date:          time.Date(2025, 4, 16, 0, 0, 0, 0, time.UTC),
		OdometerStart: models.Float(1000),
		OdometerEnd:   models.Float(1500),
		TotalLiters:   45,
		PricePerLiter: 1.50,
	}

	if d := r.Distance(); d == nil || !approx(*d, 500) {
		t.Errorf("Distance() = %v, want 500", d)
	}
	if c := r.TotalCost(); !approx(c, 67.5) {
		t.Errorf("TotalCost() = %f, want 67.5", c)
	}
	if e := r.LitersPer100Km(); e == nil || !approx(*e, 9.0) {
		t.Errorf("LitersPer100Km() = %v, want 9.0", e)
	}
	if c := r.CostPerKm(); c == nil || !approx(*c, 0.135) {
		t.Errorf("CostPerKm() = %v, want 0.135", c)
	}
}

func TestFuelRecord_DistanceUndefined(t *testing.T) {
	tests := []struct {
		name       string
		start, end *float64
	}{
		{"both missing", nil, nil},
		{"start missing", nil, models.Float(100)},
		{"end missing", models.Float(100), nil},
		{"equal readings", models.Float(100), models.Float(100)},
		{"inverted", models.Float(200), models.Float(100)},
		{"NaN end", models.Float(0), models.Float(math.NaN())},
		{"NaN start", models.Float(math.NaN()), models.Float(100)},
		{"infinite end", models.Float(100), models.Float(math.Inf(1))},
		{"infinite start", models.Float(math.Inf(-1)), models.Float(100)},
		{"negative start", models.Float(-50), models.Float(100)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := models.FuelRecord{OdometerStart: tt.start, OdometerEnd: tt.end, TotalLiters: 40, PricePerLiter: 2}
			if d := r.Distance(); d != nil {
				t.Errorf("Distance() = %f, want nil", *d)
			}
			if e := r.LitersPer100Km(); e != nil {
				t.Errorf("LitersPer100Km() = %f, want nil", *e)
			}
			if c := r.CostPerKm(); c != nil {
				t.Errorf("CostPerKm() = %f, want nil", *c)
			}
			if c := r.TotalCost(); !approx(c, 80) {
				t.Errorf("TotalCost() = %f, want 80", c)
			}
		})
	}
}

func TestFuelRecord_DerivedFieldsFollowEdits(t *testing.T) {
	r := models.FuelRecord{OdometerStart: models.Float(0), OdometerEnd: models.Float(100), TotalLiters: 10, PricePerLiter: 1}
	if e := r.LitersPer100Km(); e == nil || !approx(*e, 10) {
		t.Fatalf("LitersPer100Km() = %v, want 10", e)
	}

	r.OdometerEnd = models.Float(200)
	if e := r.LitersPer100Km(); e == nil || !approx(*e, 5) {
		t.Errorf("LitersPer100Km() after edit = %v, want 5", e)
	}
}

func TestFuelRecord_Validate(t *testing.T) {
	tests := []struct {
		name    string
		record  models.FuelRecord
		wantErr error
	}{
		{"valid", models.FuelRecord{TotalLiters: 40, PricePerLiter: 2}, nil},
		{"valid with odometer", models.FuelRecord{TotalLiters: 40, PricePerLiter: 2, OdometerStart: models.Float(1), OdometerEnd: models.Float(1)}, nil},
		{"zero liters", models.FuelRecord{TotalLiters: 0, PricePerLiter: 2}, models.ErrInvalidLiters},
		{"negative price", models.FuelRecord{TotalLiters: 40, PricePerLiter: -1}, models.ErrInvalidPrice},
		{"NaN liters", models.FuelRecord{TotalLiters: math.NaN(), PricePerLiter: 2}, models.ErrInvalidLiters},
		{"inverted odometer", models.FuelRecord{TotalLiters: 40, PricePerLiter: 2, OdometerStart: models.Float(10), OdometerEnd: models.Float(5)}, models.ErrInvertedOdometer},
		{"infinite liters", models.FuelRecord{TotalLiters: math.Inf(1), PricePerLiter: 2}, models.ErrInvalidLiters},
		{"NaN odometer end", models.FuelRecord{TotalLiters: 40, PricePerLiter: 2, OdometerStart: models.Float(0), OdometerEnd: models.Float(math.NaN())}, models.ErrInvalidOdometer},
		{"infinite odometer end", models.FuelRecord{TotalLiters: 40, PricePerLiter: 2, OdometerStart: models.Float(100), OdometerEnd: models.Float(math.Inf(1))}, models.ErrInvalidOdometer},
		{"negative odometer start", models.FuelRecord{TotalLiters: 40, PricePerLiter: 2, OdometerStart: models.Float(-1), OdometerEnd: models.Float(100)}, models.ErrInvalidOdometer},
		{"NaN odometer alone", models.FuelRecord{TotalLiters: 40, PricePerLiter: 2, OdometerEnd: models.Float(math.NaN())}, models.ErrInvalidOdometer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.record.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewFuelRecord_DefaultStation(t *testing.T) {
	r := models.NewFuelRecord(time.Now(), nil, nil, 30, 1.9, "  ", models.DriveModeEco, true, nil)

	if r.GasStation != models.DefaultGasStation {
		t.Errorf("GasStation = %q, want %q", r.GasStation, models.DefaultGasStation)
	}
	if r.ID.String() == "00000000-0000-0000-0000-000000000000" {
		t.Error("ID was not generated")
	}
}

func TestParseDriveMode(t *testing.T) {
	tests := []struct {
		input  string
		want   models.DriveMode
		wantOK bool
	}{
		{"Eco", models.DriveModeEco, true},
		{"sport", models.DriveModeSport, true},
		{" NORMAL ", models.DriveModeNormal, true},
		{"", models.DriveModeNormal, false},
		{"turbo", models.DriveModeNormal, false},
	}

	for _, tt := range tests {
		got, ok := models.ParseDriveMode(tt.input)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseDriveMode(%q) = (%q, %v), want (%q, %v)", tt.input, got, ok, tt.want, tt.wantOK)
		}
	}
}
