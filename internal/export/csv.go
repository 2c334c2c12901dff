// Package export writes the fill-up log as CSV or as an Excel workbook.
package export

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ustunfatih/oktan/internal/models"
)

// Header is the first line of every CSV export.
const Header = "Date,Odometer_Start,Odometer_End,Total_Liters,Price_per_Liter,Total_Cost,Full_Refill,Drive_Mode,Gas_Station,Distance_KM,L_per_100KM,Cost_per_KM,Notes"

// FileName returns the download name of a CSV export created at now.
func FileName(now time.Time) string {
	return "oktan-fuel-log-" + now.Format("2006-01-02") + ".csv"
}

// WriteCSV writes records oldest first. Fields are not quoted: commas in the
// station and notes are replaced by semicolons and line breaks by spaces.
func WriteCSV(w io.Writer, records []models.FuelRecord) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(Header + "\n"); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for _, r := range sortedByDate(records) {
		if _, err := bw.WriteString(csvLine(r) + "\n"); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("writing csv: %w", err)
	}
	return nil
}

func csvLine(r models.FuelRecord) string {
	notes := ""
	if r.Notes != nil {
		notes = *r.Notes
	}
	fields := []string{
		r.Date.Format("2006-01-02"),
		optional("%.0f", r.OdometerStart),
		optional("%.0f", r.OdometerEnd),
		fmt.Sprintf("%.2f", r.TotalLiters),
		fmt.Sprintf("%.2f", r.PricePerLiter),
		fmt.Sprintf("%.2f", r.TotalCost()),
		fmt.Sprintf("%t", r.IsFullRefill),
		string(r.DriveMode),
		sanitize(r.GasStation),
		optional("%.0f", r.Distance()),
		optional("%.2f", r.LitersPer100Km()),
		optional("%.3f", r.CostPerKm()),
		sanitize(notes),
	}
	return strings.Join(fields, ",")
}

func optional(format string, v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf(format, *v)
}

var fieldReplacer = strings.NewReplacer(",", ";", "\r\n", " ", "\n", " ", "\r", " ")

func sanitize(s string) string {
	return fieldReplacer.Replace(s)
}
