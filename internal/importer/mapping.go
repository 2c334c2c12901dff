package importer

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DateFormat pairs a user-facing date pattern with its Go layout.
type DateFormat struct {
	Pattern string
	Layout  string
}

// DateFormats lists the supported date formats. When a mapping has no
// explicit format they are tried in this order, so ambiguous values such as
// 03/04/2025 are read day first.
var DateFormats = []DateFormat{
	{Pattern: "yyyy-MM-dd", Layout: "2006-01-02"},
	{Pattern: "dd/MM/yyyy", Layout: "02/01/2006"},
	{Pattern: "MM/dd/yyyy", Layout: "01/02/2006"},
	{Pattern: "dd.MM.yyyy", Layout: "02.01.2006"},
}

// ResolveDateFormat accepts a pattern such as "dd/MM/yyyy" or a Go layout and
// returns the Go layout. The empty string resolves to "" (auto-detect).
func ResolveDateFormat(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	for _, f := range DateFormats {
		if s == f.Pattern || s == f.Layout {
			return f.Layout, nil
		}
	}
	return "", fmt.Errorf("unsupported date format %q", s)
}

// FieldMapping assigns CSV column indexes to record fields. A nil index
// means the column is not present.
type FieldMapping struct {
	Date          *int
	Liters        *int
	PricePerLiter *int
	OdometerStart *int
	OdometerEnd   *int
	GasStation    *int
	DriveMode     *int
	FullRefill    *int
	Notes         *int

	// DateFormat is a Go layout. Empty tries every entry of DateFormats.
	DateFormat string
	// CommaDecimal reads "1.234,5" style numbers.
	CommaDecimal bool
}

// IsValid reports whether the required columns are mapped.
func (m FieldMapping) IsValid() bool {
	return m.Date != nil && m.Liters != nil && m.PricePerLiter != nil
}

func column(i int) *int {
	return &i
}

func normalizeHeader(h string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '_', '-', '/', '.', '(', ')':
			return -1
		}
		return r
	}, strings.ToLower(strings.TrimSpace(h)))
}

// SuggestMapping guesses a mapping from header names. It recognizes the
// headers written by the CSV exporter and common variations of them.
func SuggestMapping(headers []string) FieldMapping {
	var m FieldMapping
	assign := func(target **int, i int) {
		if *target == nil {
			*target = column(i)
		}
	}

	for i, h := range headers {
		n := normalizeHeader(h)
		switch {
		case strings.Contains(n, "price"):
			assign(&m.PricePerLiter, i)
		case strings.Contains(n, "date"):
			assign(&m.Date, i)
		case strings.Contains(n, "odo") || strings.Contains(n, "mileage"):
			if strings.Contains(n, "start") || strings.Contains(n, "begin") || strings.Contains(n, "from") {
				assign(&m.OdometerStart, i)
			} else {
				assign(&m.OdometerEnd, i)
			}
		case strings.Contains(n, "liter") || strings.Contains(n, "litre") || n == "volume" || n == "fuel":
			assign(&m.Liters, i)
		case strings.Contains(n, "station"):
			assign(&m.GasStation, i)
		case strings.Contains(n, "mode"):
			assign(&m.DriveMode, i)
		case strings.Contains(n, "full"):
			assign(&m.FullRefill, i)
		case strings.Contains(n, "note") || strings.Contains(n, "comment"):
			assign(&m.Notes, i)
		}
	}
	return m
}

// MappingProfile is a reusable mapping stored as YAML. Columns are referenced
// by header name so the profile survives column reordering.
//
//	date_format: dd/MM/yyyy
//	comma_decimal: true
//	columns:
//	  date: Datum
//	  liters: Liter
//	  price_per_liter: Preis
type MappingProfile struct {
	DateFormat   string         `yaml:"date_format"`
	CommaDecimal bool           `yaml:"comma_decimal"`
	Columns      ProfileColumns `yaml:"columns"`
}

// ProfileColumns names the header of each mapped column.
type ProfileColumns struct {
	Date          string `yaml:"date"`
	Liters        string `yaml:"liters"`
	PricePerLiter string `yaml:"price_per_liter"`
	OdometerStart string `yaml:"odometer_start"`
	OdometerEnd   string `yaml:"odometer_end"`
	GasStation    string `yaml:"gas_station"`
	DriveMode     string `yaml:"drive_mode"`
	FullRefill    string `yaml:"full_refill"`
	Notes         string `yaml:"notes"`
}

// LoadMapping reads a mapping profile from a YAML file.
func LoadMapping(path string) (*MappingProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading mapping profile: %w", err)
	}
	return ParseMapping(data)
}

// ParseMapping decodes a YAML mapping profile.
func ParseMapping(data []byte) (*MappingProfile, error) {
	var p MappingProfile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing mapping profile: %w", err)
	}
	return &p, nil
}

// Resolve turns the profile into a FieldMapping for the given headers.
// Header names match case-insensitively; a named header that is missing is
// an error.
func (p *MappingProfile) Resolve(headers []string) (FieldMapping, error) {
	layout, err := ResolveDateFormat(p.DateFormat)
	if err != nil {
		return FieldMapping{}, err
	}
	m := FieldMapping{DateFormat: layout, CommaDecimal: p.CommaDecimal}

	fields := []struct {
		header string
		target **int
	}{
		{p.Columns.Date, &m.Date},
		{p.Columns.Liters, &m.Liters},
		{p.Columns.PricePerLiter, &m.PricePerLiter},
		{p.Columns.OdometerStart, &m.OdometerStart},
		{p.Columns.OdometerEnd, &m.OdometerEnd},
		{p.Columns.GasStation, &m.GasStation},
		{p.Columns.DriveMode, &m.DriveMode},
		{p.Columns.FullRefill, &m.FullRefill},
		{p.Columns.Notes, &m.Notes},
	}
	for _, f := range fields {
		if f.header == "" {
			continue
		}
		i := indexOf(headers, f.header)
		if i < 0 {
			return FieldMapping{}, fmt.Errorf("column %q not found in csv header", f.header)
		}
		*f.target = column(i)
	}

	if !m.IsValid() {
		return FieldMapping{}, fmt.Errorf("mapping profile must name date, liters and price_per_liter columns")
	}
	return m, nil
}

func indexOf(headers []string, name string) int {
	for i, h := range headers {
		if strings.EqualFold(strings.TrimSpace(h), strings.TrimSpace(name)) {
			return i
		}
	}
	return -1
}
