package report

import (
	"fmt"
	"math"

	"github.com/ustunfatih/oktan/internal/models"
)

const (
	modeSavingsThreshold   = 5.0
	spendChangeThreshold   = 10.0
	minModesForComparison  = 2
	minMonthsForSpendTrend = 2
)

// insightRule produces at most one insight string.
type insightRule func(records []models.FuelRecord) (string, bool)

// insightRules are evaluated in order; their output order is stable.
var insightRules = []insightRule{
	efficiencyExtremesInsight,
	driveModeInsight,
	fillupFrequencyInsight,
	monthlySpendingInsight,
}

// GenerateInsights returns short human-readable observations about the records.
func GenerateInsights(records []models.FuelRecord) []string {
	var out []string
	for _, rule := range insightRules {
		if s, ok := rule(records); ok {
			out = append(out, s)
		}
	}
	return out
}

func efficiencyExtremesInsight(records []models.FuelRecord) (string, bool) {
	var best, worst *models.FuelRecord
	var bestValue, worstValue float64

	sorted := sortedByDate(records)
	for i := range sorted {
		v := sorted[i].LitersPer100Km()
		if v == nil {
			continue
		}
		if best == nil || *v < bestValue {
			best, bestValue = &sorted[i], *v
		}
		if worst == nil || *v > worstValue {
			worst, worstValue = &sorted[i], *v
		}
	}
	if best == nil {
		return "", false
	}

	return fmt.Sprintf("Best efficiency: %.1f L/100km on %s; worst: %.1f L/100km on %s",
		bestValue, best.Date.Format(dayLabelLayout),
		worstValue, worst.Date.Format(dayLabelLayout)), true
}

func driveModeInsight(records []models.FuelRecord) (string, bool) {
	points := DriveModeComparison(records)
	if len(points) < minModesForComparison {
		return "", false
	}

	best, worst := points[0], points[0]
	for _, p := range points[1:] {
		if p.Value < best.Value {
			best = p
		}
		if p.Value > worst.Value {
			worst = p
		}
	}
	if !(worst.Value > 0) {
		return "", false
	}

	savings := (worst.Value - best.Value) / worst.Value * 100
	if savings <= modeSavingsThreshold {
		return "", false
	}
	return fmt.Sprintf("%s mode is %.0f%% more efficient than %s", best.Category, savings, worst.Category), true
}

func fillupFrequencyInsight(records []models.FuelRecord) (string, bool) {
	days := AverageDaysBetweenFillups(records)
	if days == nil {
		return "", false
	}
	return fmt.Sprintf("You fill up every %.0f days on average", *days), true
}

func monthlySpendingInsight(records []models.FuelRecord) (string, bool) {
	rollups := MonthlyRollups(records)
	if len(rollups) < minMonthsForSpendTrend {
		return "", false
	}

	current, previous := rollups[len(rollups)-1], rollups[len(rollups)-2]
	if !(previous.TotalCost > 0) {
		return "", false
	}

	change := (current.TotalCost - previous.TotalCost) / previous.TotalCost * 100
	if math.Abs(change) <= spendChangeThreshold {
		return "", false
	}

	direction := "increased"
	if change < 0 {
		direction = "decreased"
	}
	return fmt.Sprintf("This month's spending %s by %.0f%%", direction, math.Abs(change)), true
}
