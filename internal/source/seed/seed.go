// Package seed provides a built-in sample fill-up log, used to bootstrap an
// empty store and for demos.
package seed

import (
	"context"
	"time"

	"github.com/ustunfatih/oktan/internal/models"
	"github.com/ustunfatih/oktan/internal/source"
)

// SourceName is the identifier for the seed source.
const SourceName = "seed"

type entry struct {
	date          string
	odometerStart float64
	odometerEnd   *float64
	liters        float64
	price         float64
	station       string
	mode          models.DriveMode
	fullRefill    bool
}

var entries = []entry{
	{"16/04/2025", 13, models.Float(170), 19.58, 2.05, "Unknown", models.DriveModeNormal, false},
	{"28/04/2025", 170, models.Float(584), 41.46, 2.05, "Pearl", models.DriveModeEco, true},
	{"12/05/2025", 584, models.Float(963), 41.03, 1.95, "Pearl", models.DriveModeNormal, true},
	{"31/05/2025", 963, models.Float(1364), 41.04, 1.95, "Pearl", models.DriveModeNormal, true},
	{"06/07/2025", 1364, models.Float(1773), 40.86, 2.0, "Onaiza", models.DriveModeNormal, true},
	{"20/07/2025", 1773, models.Float(2130), 42.57, 2.0, "Pearl", models.DriveModeSport, true},
	{"10/09/2025", 2130, models.Float(2503), 41.01, 2.0, "Pearl", models.DriveModeSport, true},
	{"11/10/2025", 2503, models.Float(2922), 42.94, 2.05, "Pearl", models.DriveModeNormal, true},
	{"27/10/2025", 2922, models.Float(3334), 41.95, 2.05, "Pearl", models.DriveModeNormal, true},
	{"19/11/2025", 3334, models.Float(3762), 44.5, 2.0, "Pearl", models.DriveModeEco, true},
	{"06/12/2025", 3762, nil, 42.93, 2.05, "Wadi Al Banat", models.DriveModeEco, true},
}

// Source serves the sample log.
type Source struct{}

// New creates a seed source.
func New() *Source {
	return &Source{}
}

// Name returns the source identifier.
func (s *Source) Name() string {
	return SourceName
}

// Fetch returns the sample records with fresh IDs.
func (s *Source) Fetch(_ context.Context) (source.Batch, error) {
	return source.Batch{Records: Records()}, nil
}

// Records returns the sample log, oldest first.
func Records() []models.FuelRecord {
	records := make([]models.FuelRecord, 0, len(entries))
	for _, e := range entries {
		date, err := time.Parse("02/01/2006", e.date)
		if err != nil {
			panic("seed: bad date " + e.date)
		}
		var end *float64
		if e.odometerEnd != nil {
			end = models.Float(*e.odometerEnd)
		}
		records = append(records, models.NewFuelRecord(date, models.Float(e.odometerStart), end, e.liters, e.price, e.station, e.mode, e.fullRefill, nil))
	}
	return records
}
