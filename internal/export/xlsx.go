package export

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ustunfatih/oktan/internal/models"
	"github.com/ustunfatih/oktan/internal/report"
)

// Sheet names of the workbook written by WriteXLSX.
const (
	RecordsSheet = "Fill-ups"
	MonthlySheet = "Monthly"
	SummarySheet = "Summary"
)

var monthlyHeader = []any{"Month", "Fill-ups", "Distance_KM", "Total_Liters", "Total_Cost", "L_per_100KM", "Cost_per_KM"}

// sheetWriter appends rows to one sheet and keeps the first error.
type sheetWriter struct {
	f     *excelize.File
	sheet string
	next  int
	err   error
}

func (s *sheetWriter) row(values ...any) {
	if s.err != nil {
		return
	}
	s.next++
	cell, err := excelize.CoordinatesToCellName(1, s.next)
	if err != nil {
		s.err = err
		return
	}
	s.err = s.f.SetSheetRow(s.sheet, cell, &values)
}

func (s *sheetWriter) style(hCell, vCell string, styleID int) {
	if s.err != nil {
		return
	}
	s.err = s.f.SetCellStyle(s.sheet, hCell, vCell, styleID)
}

func (s *sheetWriter) width(startCol, endCol string, width float64) {
	if s.err != nil {
		return
	}
	s.err = s.f.SetColWidth(s.sheet, startCol, endCol, width)
}

// XLSXFileName returns the download name of a workbook created at now.
func XLSXFileName(now time.Time) string {
	return strings.TrimSuffix(FileName(now), ".csv") + ".xlsx"
}

// WriteXLSX writes a workbook with the fill-ups, their monthly rollups and
// a summary sheet.
func WriteXLSX(w io.Writer, records []models.FuelRecord, recentWindow int) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", RecordsSheet); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}
	for _, name := range []string{MonthlySheet, SummarySheet} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("creating sheet %s: %w", name, err)
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}
	dateFmt := "yyyy-mm-dd"
	dateStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &dateFmt})
	if err != nil {
		return fmt.Errorf("creating date style: %w", err)
	}

	sorted := sortedByDate(records)
	if err := writeRecordsSheet(f, sorted, bold, dateStyle); err != nil {
		return fmt.Errorf("writing %s sheet: %w", RecordsSheet, err)
	}
	if err := writeMonthlySheet(f, sorted, bold); err != nil {
		return fmt.Errorf("writing %s sheet: %w", MonthlySheet, err)
	}
	if err := writeSummarySheet(f, sorted, recentWindow, bold); err != nil {
		return fmt.Errorf("writing %s sheet: %w", SummarySheet, err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func writeRecordsSheet(f *excelize.File, records []models.FuelRecord, bold, dateStyle int) error {
	s := &sheetWriter{f: f, sheet: RecordsSheet}

	var header []any
	for _, h := range strings.Split(Header, ",") {
		header = append(header, h)
	}
	s.row(header...)
	s.style("A1", "M1", bold)

	for _, r := range records {
		notes := ""
		if r.Notes != nil {
			notes = *r.Notes
		}
		s.row(
			r.Date,
			cellValue(r.OdometerStart),
			cellValue(r.OdometerEnd),
			r.TotalLiters,
			r.PricePerLiter,
			r.TotalCost(),
			r.IsFullRefill,
			string(r.DriveMode),
			r.GasStation,
			cellValue(r.Distance()),
			cellValue(r.LitersPer100Km()),
			cellValue(r.CostPerKm()),
			notes,
		)
	}
	if len(records) > 0 {
		s.style("A2", fmt.Sprintf("A%d", len(records)+1), dateStyle)
	}

	s.width("A", "A", 12)
	s.width("B", "L", 14)
	s.width("M", "M", 40)
	return s.err
}

func writeMonthlySheet(f *excelize.File, records []models.FuelRecord, bold int) error {
	s := &sheetWriter{f: f, sheet: MonthlySheet}
	s.row(monthlyHeader...)
	s.style("A1", "G1", bold)

	for _, m := range report.MonthlyRollups(records) {
		s.row(
			m.Label,
			m.FillUpCount,
			m.TotalDistance,
			m.TotalLiters,
			m.TotalCost,
			cellValue(m.AverageEfficiency),
			cellValue(m.AverageCostPerKm),
		)
	}

	s.width("A", "A", 12)
	s.width("B", "G", 14)
	return s.err
}

func writeSummarySheet(f *excelize.File, records []models.FuelRecord, recentWindow int, bold int) error {
	rep := report.Summarize(records, recentWindow)
	s := &sheetWriter{f: f, sheet: SummarySheet}

	s.row("Metric", "Value")
	s.style("A1", "B1", bold)
	s.row("Fill-ups", len(records))
	s.row("Total distance (km)", rep.Summary.TotalDistance)
	s.row("Total liters", rep.Summary.TotalLiters)
	s.row("Total cost", rep.Summary.TotalCost)
	s.row("Average L/100km", cellValue(rep.Summary.AverageEfficiency))
	s.row("Average cost/km", cellValue(rep.Summary.AverageCostPerKm))
	s.row(fmt.Sprintf("Last %d fill-ups L/100km", rep.Recent.WindowSize), cellValue(rep.Recent.AverageEfficiency))
	s.row(fmt.Sprintf("Last %d fill-ups cost/km", rep.Recent.WindowSize), cellValue(rep.Recent.AverageCostPerKm))
	for _, mode := range models.AllDriveModes() {
		if b, ok := rep.Summary.DriveModes[mode]; ok {
			s.row(string(mode)+" L/100km", cellValue(b.Efficiency))
		}
	}
	for _, insight := range report.GenerateInsights(records) {
		s.row("Insight", insight)
	}

	s.width("A", "A", 28)
	s.width("B", "B", 70)
	return s.err
}

// cellValue returns the number or an empty cell for an absent value.
func cellValue(v *float64) any {
	if v == nil {
		return ""
	}
	return *v
}

func sortedByDate(records []models.FuelRecord) []models.FuelRecord {
	sorted := slices.Clone(records)
	slices.SortStableFunc(sorted, func(a, b models.FuelRecord) int {
		return a.Date.Compare(b.Date)
	})
	return sorted
}
