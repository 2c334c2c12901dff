package report

import "github.com/ustunfatih/oktan/internal/models"

// ModeBreakdown holds the distance-weighted statistics of one drive mode.
type ModeBreakdown struct {
	Distance   float64  `json:"distance"`
	Efficiency *float64 `json:"efficiency"`
	CostPerKm  *float64 `json:"cost_per_km"`
}

// Summary aggregates every record that has a defined distance.
type Summary struct {
	TotalDistance     float64                            `json:"total_distance"`
	TotalLiters       float64                            `json:"total_liters"`
	TotalCost         float64                            `json:"total_cost"`
	AverageEfficiency *float64                           `json:"average_efficiency"`
	AverageCostPerKm  *float64                           `json:"average_cost_per_km"`
	DriveModes        map[models.DriveMode]ModeBreakdown `json:"drive_modes"`
}

// RecentSummary averages the per-record ratios of the most recent records.
type RecentSummary struct {
	WindowSize        int      `json:"window_size"`
	RecordCount       int      `json:"record_count"`
	AverageEfficiency *float64 `json:"average_efficiency"`
	AverageCostPerKm  *float64 `json:"average_cost_per_km"`
}

// Report bundles the whole-history and recent summaries.
type Report struct {
	Summary Summary       `json:"summary"`
	Recent  RecentSummary `json:"recent"`
}

type totals struct {
	distance, liters, cost float64
}

func (t *totals) add(r models.FuelRecord, distance float64) {
	t.distance += distance
	t.liters += r.TotalLiters
	t.cost += r.TotalCost()
}

// WholeHistorySummary aggregates all records with a defined distance.
// Records without usable odometer readings are left out of every total,
// liters and cost included. Averages are distance-weighted.
func WholeHistorySummary(records []models.FuelRecord) Summary {
	var all totals
	byMode := make(map[models.DriveMode]*totals)

	for _, r := range records {
		d := r.Distance()
		if d == nil {
			continue
		}
		all.add(r, *d)

		t, ok := byMode[r.DriveMode]
		if !ok {
			t = &totals{}
			byMode[r.DriveMode] = t
		}
		t.add(r, *d)
	}

	modes := make(map[models.DriveMode]ModeBreakdown, len(byMode))
	for mode, t := range byMode {
		modes[mode] = ModeBreakdown{
			Distance:   t.distance,
			Efficiency: ratio(t.liters, t.distance, 100),
			CostPerKm:  ratio(t.cost, t.distance, 1),
		}
	}

	return Summary{
		TotalDistance:     all.distance,
		TotalLiters:       all.liters,
		TotalCost:         all.cost,
		AverageEfficiency: ratio(all.liters, all.distance, 100),
		AverageCostPerKm:  ratio(all.cost, all.distance, 1),
		DriveModes:        modes,
	}
}

// RecentWindowSummary takes the windowSize chronologically last records with
// a defined distance and returns the plain mean of their per-record L/100km
// and cost/km. This is not distance-weighted.
func RecentWindowSummary(records []models.FuelRecord, windowSize int) RecentSummary {
	out := RecentSummary{WindowSize: windowSize}
	if windowSize <= 0 {
		return out
	}

	recent := qualifying(sortedByDate(records))
	if len(recent) > windowSize {
		recent = recent[len(recent)-windowSize:]
	}

	efficiencies := make([]float64, 0, len(recent))
	costs := make([]float64, 0, len(recent))
	for _, r := range recent {
		if v := r.LitersPer100Km(); v != nil {
			efficiencies = append(efficiencies, *v)
		}
		if v := r.CostPerKm(); v != nil {
			costs = append(costs, *v)
		}
	}

	out.RecordCount = len(recent)
	out.AverageEfficiency = mean(efficiencies)
	out.AverageCostPerKm = mean(costs)
	return out
}

// Summarize computes both summaries.
func Summarize(records []models.FuelRecord, windowSize int) Report {
	return Report{
		Summary: WholeHistorySummary(records),
		Recent:  RecentWindowSummary(records, windowSize),
	}
}
