// Package report turns a snapshot of fill-up records into summaries, time
// series, monthly rollups and insights.
//
// Every function is a pure function of its input: records are never mutated
// or retained, and missing data is reported as a nil pointer or an empty
// slice rather than as an error.
package report

import (
	"slices"
	"time"

	"github.com/ustunfatih/oktan/internal/models"
)

const (
	// DefaultRecentWindow is the number of most recent records in the recent summary.
	DefaultRecentWindow = 5
	// DefaultRollingWindow is the window size of the rolling efficiency average.
	DefaultRollingWindow = 3

	monthLabelLayout = "Jan 2006"
	dayLabelLayout   = "Jan 2, 2006"
)

// TimeSeriesPoint is one point of a time-based chart.
type TimeSeriesPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
	Label *string   `json:"label,omitempty"`
}

// ComparisonPoint is one bar of a category chart.
type ComparisonPoint struct {
	Category string  `json:"category"`
	Value    float64 `json:"value"`
	Color    string  `json:"color"`
}

// MonthlyRollup aggregates all fill-ups of one calendar month.
type MonthlyRollup struct {
	Month             time.Time `json:"month"`
	Label             string    `json:"label"`
	TotalDistance     float64   `json:"total_distance"`
	TotalLiters       float64   `json:"total_liters"`
	TotalCost         float64   `json:"total_cost"`
	FillUpCount       int       `json:"fill_up_count"`
	AverageEfficiency *float64  `json:"average_efficiency"`
	AverageCostPerKm  *float64  `json:"average_cost_per_km"`
}

// PeriodComparison holds the latest month and the month before it.
type PeriodComparison struct {
	Current  *MonthlyRollup `json:"current"`
	Previous *MonthlyRollup `json:"previous"`
}

// EfficiencyChangePercent returns the signed change in L/100km from the
// previous to the current month. Negative means the car got more efficient.
func (p PeriodComparison) EfficiencyChangePercent() *float64 {
	if p.Current == nil || p.Previous == nil {
		return nil
	}
	return percentChange(p.Current.AverageEfficiency, p.Previous.AverageEfficiency)
}

// CostChangePercent returns the signed change in cost per km.
func (p PeriodComparison) CostChangePercent() *float64 {
	if p.Current == nil || p.Previous == nil {
		return nil
	}
	return percentChange(p.Current.AverageCostPerKm, p.Previous.AverageCostPerKm)
}

// YearSeries holds the monthly efficiency points of one calendar year.
type YearSeries struct {
	Year   int               `json:"year"`
	Months []TimeSeriesPoint `json:"months"`
}

func percentChange(current, previous *float64) *float64 {
	if current == nil || previous == nil || !(*previous > 0) {
		return nil
	}
	v := (*current - *previous) / *previous * 100
	return &v
}

// sortedByDate returns a date-ascending copy. Equal dates keep input order.
func sortedByDate(records []models.FuelRecord) []models.FuelRecord {
	sorted := slices.Clone(records)
	slices.SortStableFunc(sorted, func(a, b models.FuelRecord) int {
		return a.Date.Compare(b.Date)
	})
	return sorted
}

// qualifying returns the records that have a defined distance, in input order.
func qualifying(records []models.FuelRecord) []models.FuelRecord {
	var out []models.FuelRecord
	for _, r := range records {
		if r.Distance() != nil {
			out = append(out, r)
		}
	}
	return out
}

func mean(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	avg := sum / float64(len(values))
	return &avg
}

// ratio returns numerator/denominator*scale, or nil when denominator is not positive.
func ratio(numerator, denominator, scale float64) *float64 {
	if !(denominator > 0) {
		return nil
	}
	v := numerator / denominator * scale
	return &v
}

func stringPtr(s string) *string {
	return &s
}
