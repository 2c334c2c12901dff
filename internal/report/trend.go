package report

import "github.com/ustunfatih/oktan/internal/models"

// EfficiencyTrend returns L/100km per record, oldest first, labelled with the station.
func EfficiencyTrend(records []models.FuelRecord) []TimeSeriesPoint {
	var points []TimeSeriesPoint
	for _, r := range sortedByDate(records) {
		v := r.LitersPer100Km()
		if v == nil {
			continue
		}
		points = append(points, TimeSeriesPoint{Date: r.Date, Value: *v, Label: stringPtr(r.GasStation)})
	}
	return points
}

// CostPerKmTrend returns cost per km per record, oldest first.
func CostPerKmTrend(records []models.FuelRecord) []TimeSeriesPoint {
	var points []TimeSeriesPoint
	for _, r := range sortedByDate(records) {
		v := r.CostPerKm()
		if v == nil {
			continue
		}
		points = append(points, TimeSeriesPoint{Date: r.Date, Value: *v})
	}
	return points
}

// RollingAverage smooths the efficiency trend with a simple moving average.
// It returns max(0, n-windowSize+1) points for n records with efficiency,
// each dated at the last record of its window.
func RollingAverage(records []models.FuelRecord, windowSize int) []TimeSeriesPoint {
	trend := EfficiencyTrend(records)
	if windowSize <= 0 || len(trend) < windowSize {
		return nil
	}

	points := make([]TimeSeriesPoint, 0, len(trend)-windowSize+1)
	for i := windowSize - 1; i < len(trend); i++ {
		var sum float64
		for _, p := range trend[i-windowSize+1 : i+1] {
			sum += p.Value
		}
		points = append(points, TimeSeriesPoint{Date: trend[i].Date, Value: sum / float64(windowSize)})
	}
	return points
}

var driveModeColors = map[models.DriveMode]string{
	models.DriveModeEco:    "green",
	models.DriveModeNormal: "blue",
	models.DriveModeSport:  "orange",
}

// DriveModeComparison returns the plain mean L/100km of each drive mode that
// has at least one record with efficiency, in Eco, Normal, Sport order.
// Unlike the breakdown in WholeHistorySummary this is not distance-weighted.
func DriveModeComparison(records []models.FuelRecord) []ComparisonPoint {
	byMode := make(map[models.DriveMode][]float64)
	for _, r := range records {
		if v := r.LitersPer100Km(); v != nil {
			byMode[r.DriveMode] = append(byMode[r.DriveMode], *v)
		}
	}

	var points []ComparisonPoint
	for _, mode := range models.AllDriveModes() {
		avg := mean(byMode[mode])
		if avg == nil {
			continue
		}
		points = append(points, ComparisonPoint{Category: string(mode), Value: *avg, Color: driveModeColors[mode]})
	}
	return points
}
