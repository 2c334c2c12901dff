package report

import (
	"cmp"
	"slices"
	"time"

	"github.com/ustunfatih/oktan/internal/models"
)

// civilDate returns midnight UTC of t's calendar date in t's location.
func civilDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// AverageDaysBetweenFillups returns the mean calendar-day gap between
// consecutive records, or nil with fewer than two records.
func AverageDaysBetweenFillups(records []models.FuelRecord) *float64 {
	sorted := sortedByDate(records)
	if len(sorted) < 2 {
		return nil
	}

	gaps := make([]float64, 0, len(sorted)-1)
	for i := 1; i < len(sorted); i++ {
		days := civilDate(sorted[i].Date).Sub(civilDate(sorted[i-1].Date)).Hours() / 24
		gaps = append(gaps, days)
	}
	return mean(gaps)
}

var weekdayLabels = [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// FillupsByDayOfWeek counts records per weekday. It always returns seven
// points, Sunday first, including zero counts.
func FillupsByDayOfWeek(records []models.FuelRecord) []ComparisonPoint {
	var counts [7]int
	for _, r := range records {
		counts[r.Date.Weekday()]++
	}

	points := make([]ComparisonPoint, 0, len(counts))
	for i, n := range counts {
		points = append(points, ComparisonPoint{Category: weekdayLabels[i], Value: float64(n), Color: "blue"})
	}
	return points
}

// WeeklySpending returns the total spend per week, weeks starting on Sunday.
// Weeks without records are not emitted.
func WeeklySpending(records []models.FuelRecord) []TimeSeriesPoint {
	type week struct {
		start time.Time
		cost  float64
	}
	byDay := make(map[time.Time]*week)
	var weeks []*week

	for _, r := range sortedByDate(records) {
		d := r.Date
		start := time.Date(d.Year(), d.Month(), d.Day()-int(d.Weekday()), 0, 0, 0, 0, d.Location())
		key := civilDate(start)
		w, ok := byDay[key]
		if !ok {
			w = &week{start: start}
			byDay[key] = w
			weeks = append(weeks, w)
		}
		w.cost += r.TotalCost()
	}

	slices.SortStableFunc(weeks, func(a, b *week) int {
		return cmp.Compare(civilDate(a.start).Unix(), civilDate(b.start).Unix())
	})

	points := make([]TimeSeriesPoint, 0, len(weeks))
	for _, w := range weeks {
		points = append(points, TimeSeriesPoint{Date: w.start, Value: w.cost})
	}
	return points
}
