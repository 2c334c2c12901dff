package report

import (
	"cmp"
	"slices"
	"time"

	"github.com/ustunfatih/oktan/internal/models"
)

type monthKey struct {
	year  int
	month time.Month
}

func (k monthKey) ordinal() int {
	return k.year*12 + int(k.month) - 1
}

// monthGroup collects records of one calendar month in date order.
type monthGroup struct {
	key     monthKey
	start   time.Time
	records []models.FuelRecord
}

// groupByMonth buckets records by the calendar month of their date, in the
// date's own location. Groups are returned oldest first.
func groupByMonth(records []models.FuelRecord) []*monthGroup {
	byKey := make(map[monthKey]*monthGroup)
	var groups []*monthGroup
	for _, r := range sortedByDate(records) {
		k := monthKey{year: r.Date.Year(), month: r.Date.Month()}
		g, ok := byKey[k]
		if !ok {
			g = &monthGroup{key: k, start: time.Date(k.year, k.month, 1, 0, 0, 0, 0, r.Date.Location())}
			byKey[k] = g
			groups = append(groups, g)
		}
		g.records = append(g.records, r)
	}
	slices.SortFunc(groups, func(a, b *monthGroup) int {
		return cmp.Compare(a.key.ordinal(), b.key.ordinal())
	})
	return groups
}

func rollup(g *monthGroup) MonthlyRollup {
	out := MonthlyRollup{
		Month:       g.start,
		Label:       g.start.Format(monthLabelLayout),
		FillUpCount: len(g.records),
	}

	for _, r := range g.records {
		out.TotalLiters += r.TotalLiters
		out.TotalCost += r.TotalCost()
		if d := r.Distance(); d != nil {
			out.TotalDistance += *d
		}
	}
	out.AverageEfficiency = ratio(out.TotalLiters, out.TotalDistance, 100)
	out.AverageCostPerKm = ratio(out.TotalCost, out.TotalDistance, 1)
	return out
}

// MonthlyRollups groups records by calendar month, oldest month first.
// Liters, cost and fill-up count include every record of the month while
// distance only counts defined distances, so the averages of a month with
// incomplete records divide all of its fuel by the known distance. Months
// without records are not emitted.
func MonthlyRollups(records []models.FuelRecord) []MonthlyRollup {
	groups := groupByMonth(records)
	out := make([]MonthlyRollup, 0, len(groups))
	for _, g := range groups {
		out = append(out, rollup(g))
	}
	return out
}

// MonthlyCostTrend returns the total spend of each month.
func MonthlyCostTrend(records []models.FuelRecord) []TimeSeriesPoint {
	rollups := MonthlyRollups(records)
	points := make([]TimeSeriesPoint, 0, len(rollups))
	for _, m := range rollups {
		points = append(points, TimeSeriesPoint{Date: m.Month, Value: m.TotalCost, Label: stringPtr(m.Label)})
	}
	return points
}

// MonthOverMonth compares the two most recent months that have records.
// With a single month Previous is nil; with none both are nil.
func MonthOverMonth(records []models.FuelRecord) PeriodComparison {
	rollups := MonthlyRollups(records)
	var out PeriodComparison
	if n := len(rollups); n > 0 {
		out.Current = &rollups[n-1]
		if n > 1 {
			out.Previous = &rollups[n-2]
		}
	}
	return out
}

// YearOverYearEfficiency returns the monthly average efficiency per calendar
// year, oldest year first. Months without efficiency are left out.
func YearOverYearEfficiency(records []models.FuelRecord) []YearSeries {
	var out []YearSeries
	for _, m := range MonthlyRollups(records) {
		if m.AverageEfficiency == nil {
			continue
		}
		year := m.Month.Year()
		if len(out) == 0 || out[len(out)-1].Year != year {
			out = append(out, YearSeries{Year: year})
		}
		series := &out[len(out)-1]
		series.Months = append(series.Months, TimeSeriesPoint{
			Date:  m.Month,
			Value: *m.AverageEfficiency,
			Label: stringPtr(m.Label),
		})
	}
	return out
}
