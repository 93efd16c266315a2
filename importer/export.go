// ABOUTME: CSV and XLSX offer export with derived reporting columns
// ABOUTME: Output re-imports cleanly through the same header aliases
package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/harperreed/offertrack/metrics"
	"github.com/harperreed/offertrack/models"
	"github.com/xuri/excelize/v2"
)

// ExportColumns is the export header row.
var ExportColumns = []string{
	"ID", "Date", "Day of Week", "Offer Type", "Channel", "Case Number", "Notes",
	"Converted", "Conversion Date", "Days to Conversion", "CSAT", "CSAT Comment",
	"Followups", "Completed Followups", "Next Followup",
}

const sheetName = "Offers"

func exportRow(o models.Offer) []string {
	converted, conversionDate, days := "", "", ""
	if o.Converted != nil {
		converted = "No"
		if *o.Converted {
			converted = "Yes"
		}
	}
	if o.ConversionDate != nil {
		conversionDate = o.ConversionDate.Format("2006-01-02")
		days = strconv.Itoa(metrics.DaysBetween(o.Date, *o.ConversionDate))
	}

	dates := make([]string, 0, len(o.Followups))
	for _, f := range o.Followups {
		dates = append(dates, f.Date.Format("2006-01-02"))
	}
	next := ""
	if d := o.LegacyFollowupDate(); d != nil {
		next = d.Format("2006-01-02")
	}

	return []string{
		o.ID.String(),
		o.Date.Format(time.RFC3339),
		o.Date.Weekday().String(),
		o.OfferType,
		o.Channel,
		o.CaseNumber,
		o.Notes,
		converted,
		conversionDate,
		days,
		o.CSAT,
		o.CSATComment,
		strings.Join(dates, "; "),
		strconv.Itoa(o.CompletedFollowups()),
		next,
	}
}

func WriteCSV(w io.Writer, offers []models.Offer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(ExportColumns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, o := range offers {
		if err := writer.Write(exportRow(o)); err != nil {
			return fmt.Errorf("failed to write offer %s: %w", o.ID, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

func WriteXLSX(w io.Writer, offers []models.Offer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]interface{}, len(ExportColumns))
	for i, c := range ExportColumns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	if err := f.SetRowStyle(sheetName, 1, 1, bold); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for i, o := range offers {
		cells := exportRow(o)
		row := make([]interface{}, len(cells))
		for j, c := range cells {
			row[j] = c
		}
		addr, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetName, addr, &row); err != nil {
			return fmt.Errorf("failed to write offer %s: %w", o.ID, err)
		}
	}

	if err := f.SetPanes(sheetName, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return fmt.Errorf("failed to freeze header: %w", err)
	}
	return f.Write(w)
}
