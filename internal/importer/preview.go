package importer

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/ustunfatih/oktan/internal/models"
)

// PreviewEntry is one parsed data row. Errors lists every problem found in
// the row; an entry without errors can be turned into a record.
type PreviewEntry struct {
	// Row is the 1-based data row number, not counting the header.
	Row           int
	Date          time.Time
	Liters        float64
	PricePerLiter float64
	OdometerStart *float64
	OdometerEnd   *float64
	GasStation    string
	DriveMode     models.DriveMode
	IsFullRefill  bool
	Notes         *string
	Errors        []string
}

// IsValid reports whether the row parsed without errors.
func (e PreviewEntry) IsValid() bool {
	return len(e.Errors) == 0
}

// Record builds a new fuel record with a fresh ID from the entry.
func (e PreviewEntry) Record() models.FuelRecord {
	return models.NewFuelRecord(e.Date, e.OdometerStart, e.OdometerEnd, e.Liters, e.PricePerLiter, e.GasStation, e.DriveMode, e.IsFullRefill, e.Notes)
}

// Preview parses every data row with the given mapping.
func Preview(result *ParseResult, mapping FieldMapping) []PreviewEntry {
	entries := make([]PreviewEntry, 0, len(result.Rows))
	for i, row := range result.Rows {
		entries = append(entries, previewRow(i+1, row, mapping))
	}
	return entries
}

func previewRow(n int, row []string, m FieldMapping) PreviewEntry {
	e := PreviewEntry{Row: n, DriveMode: models.DriveModeNormal, IsFullRefill: true}
	fail := func(format string, args ...any) {
		e.Errors = append(e.Errors, fmt.Sprintf(format, args...))
	}

	if v := cell(row, m.Date); v == "" {
		fail("missing date")
	} else if d, err := parseDate(v, m.DateFormat); err != nil {
		fail("invalid date %q", v)
	} else {
		e.Date = d
	}

	if v := cell(row, m.Liters); v == "" {
		fail("missing liters")
	} else if f, err := parseNumber(v, m.CommaDecimal); err != nil {
		fail("invalid liters %q", v)
	} else if !(f > 0) {
		fail("liters must be positive")
	} else {
		e.Liters = f
	}

	if v := cell(row, m.PricePerLiter); v == "" {
		fail("missing price per liter")
	} else if f, err := parseNumber(v, m.CommaDecimal); err != nil {
		fail("invalid price per liter %q", v)
	} else if !(f > 0) {
		fail("price per liter must be positive")
	} else {
		e.PricePerLiter = f
	}

	optionalNumber := func(idx *int, name string) *float64 {
		v := cell(row, idx)
		if v == "" {
			return nil
		}
		f, err := parseNumber(v, m.CommaDecimal)
		if err != nil {
			fail("invalid %s %q", name, v)
			return nil
		}
		if f < 0 {
			fail("%s must not be negative", name)
			return nil
		}
		return &f
	}
	e.OdometerStart = optionalNumber(m.OdometerStart, "odometer start")
	e.OdometerEnd = optionalNumber(m.OdometerEnd, "odometer end")
	if e.OdometerStart != nil && e.OdometerEnd != nil && *e.OdometerEnd < *e.OdometerStart {
		fail("odometer end %.0f is before start %.0f", *e.OdometerEnd, *e.OdometerStart)
	}

	e.GasStation = cell(row, m.GasStation)
	if e.GasStation == "" {
		e.GasStation = models.DefaultGasStation
	}
	if v := cell(row, m.DriveMode); v != "" {
		e.DriveMode, _ = models.ParseDriveMode(v)
	}
	if v := cell(row, m.FullRefill); v != "" {
		full, ok := parseBool(v)
		if !ok {
			fail("invalid full refill value %q", v)
		}
		e.IsFullRefill = full
	}
	if v := cell(row, m.Notes); v != "" {
		e.Notes = &v
	}

	return e
}

func cell(row []string, idx *int) string {
	if idx == nil || *idx < 0 || *idx >= len(row) {
		return ""
	}
	return row[*idx]
}

func parseDate(s, layout string) (time.Time, error) {
	if layout != "" {
		return time.ParseInLocation(layout, s, time.UTC)
	}
	for _, f := range DateFormats {
		if t, err := time.ParseInLocation(f.Layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("no date format matches %q", s)
}

var errNotFinite = errors.New("number is not finite")

// parseNumber parses a decimal number. NaN and infinities are rejected.
func parseNumber(s string, commaDecimal bool) (float64, error) {
	s = strings.ReplaceAll(s, " ", "")
	if commaDecimal {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errNotFinite
	}
	return f, nil
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "true", "yes", "y", "1":
		return true, true
	case "false", "no", "n", "0":
		return false, true
	}
	return false, false
}

// ImportResult counts the outcome of an import run.
type ImportResult struct {
	SuccessCount   int      `json:"success_count"`
	DuplicateCount int      `json:"duplicate_count"`
	FailedCount    int      `json:"failed_count"`
	Errors         []string `json:"errors,omitempty"`
}

// IsFullSuccess reports whether nothing failed.
func (r ImportResult) IsFullSuccess() bool {
	return r.FailedCount == 0
}

// AddError records a failed row.
func (r *ImportResult) AddError(msg string) {
	r.FailedCount++
	r.Errors = append(r.Errors, msg)
}

// RowError formats the errors of an invalid entry for an ImportResult.
func RowError(e PreviewEntry) string {
	return fmt.Sprintf("row %d: %s", e.Row, strings.Join(e.Errors, "; "))
}
