package http

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ustunfatih/oktan/internal/export"
	"github.com/ustunfatih/oktan/internal/models"
	"github.com/ustunfatih/oktan/internal/report"
	"github.com/ustunfatih/oktan/internal/source/csvfile"
)

// windowParam reads a positive integer query parameter, falling back to def.
func windowParam(w http.ResponseWriter, r *http.Request, def int) (int, bool) {
	s := r.URL.Query().Get("window")
	if s == "" {
		return def, true
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		writeError(w, http.StatusBadRequest, "window must be a positive integer")
		return 0, false
	}
	return n, true
}

// serveReport loads the records and writes the result of fn as JSON.
func (a *API) serveReport(w http.ResponseWriter, r *http.Request, fn func([]models.FuelRecord) any) {
	records, ok := a.loadRecords(w, r)
	if !ok {
		return
	}
	a.writeJSON(w, http.StatusOK, fn(records))
}

// Summary returns the whole-history and recent summaries.
func (a *API) Summary(w http.ResponseWriter, r *http.Request) {
	window, ok := windowParam(w, r, a.opts.RecentWindow)
	if !ok {
		return
	}
	a.serveReport(w, r, func(records []models.FuelRecord) any {
		return report.Summarize(records, window)
	})
}

// EfficiencyTrend returns L/100km per fill-up.
func (a *API) EfficiencyTrend(w http.ResponseWriter, r *http.Request) {
	a.serveReport(w, r, func(records []models.FuelRecord) any {
		return orEmpty(report.EfficiencyTrend(records))
	})
}

// CostPerKmTrend returns the cost per km per fill-up.
func (a *API) CostPerKmTrend(w http.ResponseWriter, r *http.Request) {
	a.serveReport(w, r, func(records []models.FuelRecord) any {
		return orEmpty(report.CostPerKmTrend(records))
	})
}

// RollingAverage returns the moving average of the efficiency trend.
func (a *API) RollingAverage(w http.ResponseWriter, r *http.Request) {
	window, ok := windowParam(w, r, a.opts.RollingWindow)
	if !ok {
		return
	}
	a.serveReport(w, r, func(records []models.FuelRecord) any {
		return orEmpty(report.RollingAverage(records, window))
	})
}

// MonthlyRollups returns the per-month aggregates.
func (a *API) MonthlyRollups(w http.ResponseWriter, r *http.Request) {
	a.serveReport(w, r, func(records []models.FuelRecord) any {
		return orEmpty(report.MonthlyRollups(records))
	})
}

// MonthlyCostTrend returns the total spend per month.
func (a *API) MonthlyCostTrend(w http.ResponseWriter, r *http.Request) {
	a.serveReport(w, r, func(records []models.FuelRecord) any {
		return orEmpty(report.MonthlyCostTrend(records))
	})
}

// WeeklySpending returns the total spend per week.
func (a *API) WeeklySpending(w http.ResponseWriter, r *http.Request) {
	a.serveReport(w, r, func(records []models.FuelRecord) any {
		return orEmpty(report.WeeklySpending(records))
	})
}

type monthOverMonthResponse struct {
	report.PeriodComparison
	EfficiencyChangePercent *float64 `json:"efficiency_change_percent"`
	CostChangePercent       *float64 `json:"cost_change_percent"`
}

// MonthOverMonth compares the latest month with the one before.
func (a *API) MonthOverMonth(w http.ResponseWriter, r *http.Request) {
	a.serveReport(w, r, func(records []models.FuelRecord) any {
		c := report.MonthOverMonth(records)
		return monthOverMonthResponse{
			PeriodComparison:        c,
			EfficiencyChangePercent: c.EfficiencyChangePercent(),
			CostChangePercent:       c.CostChangePercent(),
		}
	})
}

// DriveModeComparison returns the mean efficiency per drive mode.
func (a *API) DriveModeComparison(w http.ResponseWriter, r *http.Request) {
	a.serveReport(w, r, func(records []models.FuelRecord) any {
		return orEmpty(report.DriveModeComparison(records))
	})
}

// FillupsByDayOfWeek returns the number of fill-ups per weekday.
func (a *API) FillupsByDayOfWeek(w http.ResponseWriter, r *http.Request) {
	a.serveReport(w, r, func(records []models.FuelRecord) any {
		return report.FillupsByDayOfWeek(records)
	})
}

// Frequency returns the average number of days between fill-ups.
func (a *API) Frequency(w http.ResponseWriter, r *http.Request) {
	a.serveReport(w, r, func(records []models.FuelRecord) any {
		return map[string]*float64{"average_days_between_fillups": report.AverageDaysBetweenFillups(records)}
	})
}

// YearOverYear returns the monthly efficiency grouped by year.
func (a *API) YearOverYear(w http.ResponseWriter, r *http.Request) {
	a.serveReport(w, r, func(records []models.FuelRecord) any {
		return orEmpty(report.YearOverYearEfficiency(records))
	})
}

// Insights returns the generated observations.
func (a *API) Insights(w http.ResponseWriter, r *http.Request) {
	a.serveReport(w, r, func(records []models.FuelRecord) any {
		return map[string][]string{"insights": orEmpty(report.GenerateInsights(records))}
	})
}

// Import stores the fill-ups of a CSV request body.
//
// Query parameters: skip_duplicates (default true), date_format, comma_decimal.
func (a *API) Import(w http.ResponseWriter, r *http.Request) {
	if a.tracker == nil {
		writeError(w, http.StatusServiceUnavailable, "import is not available")
		return
	}

	q := r.URL.Query()
	skip := q.Get("skip_duplicates") != "false"
	opts := csvfile.Options{
		DateFormat:   q.Get("date_format"),
		CommaDecimal: q.Get("comma_decimal") == "true",
	}

	src := csvfile.FromReader("request body", r.Body, opts, a.logger)
	result, err := a.tracker.Import(r.Context(), src, skip)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	a.writeJSON(w, http.StatusOK, result)
}

// ExportCSV downloads the log as CSV.
func (a *API) ExportCSV(w http.ResponseWriter, r *http.Request) {
	records, ok := a.loadRecords(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, records); err != nil {
		a.logger.Error().Err(err).Msg("failed to write csv export")
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName(time.Now())))
	_, _ = w.Write(buf.Bytes())
}

// ExportXLSX downloads the log as an Excel workbook.
func (a *API) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	records, ok := a.loadRecords(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, records, a.opts.RecentWindow); err != nil {
		a.logger.Error().Err(err).Msg("failed to write xlsx export")
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}

	name := export.XLSXFileName(time.Now())
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	_, _ = w.Write(buf.Bytes())
}
