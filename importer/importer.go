// ABOUTME: CSV and XLSX offer import with per-row error isolation
// ABOUTME: Invalid rows are skipped and reported; a missing required column rejects the file
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/offertrack/models"
	"github.com/xuri/excelize/v2"
)

var (
	ErrMissingColumns    = errors.New("missing required columns")
	ErrEmptyFile         = errors.New("file has no header row")
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

// RowError describes one skipped row. Row is the 1-based row number in the
// source file, counting the header as row 1.
type RowError struct {
	Row int
	Err error
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

func (e RowError) Unwrap() error { return e.Err }

type Result struct {
	Offers []models.Offer
	Errors []RowError
}

// ReadFile dispatches on the file extension.
func ReadFile(path string, loc *time.Location) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("failed to open import file: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ReadCSV(f, loc)
	case ".xlsx":
		return ReadXLSX(f, loc)
	}
	return Result{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
}

func ReadCSV(r io.Reader, loc *time.Location) (Result, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return Result{}, fmt.Errorf("failed to parse CSV: %w", err)
	}
	return parseRows(records, loc)
}

// ReadXLSX reads the first sheet of a workbook.
func ReadXLSX(r io.Reader, loc *time.Location) (Result, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Result{}, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Result{}, ErrEmptyFile
	}
	// Raw values keep date cells as serial numbers instead of display text.
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return Result{}, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	return parseRows(rows, loc)
}

func parseRows(rows [][]string, loc *time.Location) (Result, error) {
	if loc == nil {
		loc = time.Local
	}
	if len(rows) == 0 {
		return Result{}, ErrEmptyFile
	}
	columns, err := MapHeaders(rows[0])
	if err != nil {
		return Result{}, err
	}

	var result Result
	for i, row := range rows[1:] {
		if blank(row) {
			continue
		}
		o, err := parseOffer(row, columns, loc)
		if err != nil {
			result.Errors = append(result.Errors, RowError{Row: i + 2, Err: err})
			continue
		}
		result.Offers = append(result.Offers, o)
	}
	return result, nil
}

func parseOffer(row []string, columns map[string]int, loc *time.Location) (models.Offer, error) {
	cell := func(field string) string {
		i, ok := columns[field]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var o models.Offer
	var err error

	if o.Date, err = ParseDate(cell(FieldDate), loc); err != nil {
		return o, err
	}
	if o.OfferType = cell(FieldOfferType); o.OfferType == "" {
		return o, fmt.Errorf("offer type is empty")
	}
	if o.Channel = cell(FieldChannel); o.Channel == "" {
		return o, fmt.Errorf("channel is empty")
	}

	if raw := cell(FieldID); raw != "" {
		if o.ID, err = uuid.Parse(raw); err != nil {
			return o, fmt.Errorf("invalid id %q", raw)
		}
	}

	o.Notes = cell(FieldNotes)
	o.CaseNumber = cell(FieldCaseNumber)
	o.CSATComment = cell(FieldCSATComment)
	if o.CSAT, err = parseCSAT(cell(FieldCSAT)); err != nil {
		return o, err
	}

	if o.Converted, err = parseConverted(cell(FieldConverted)); err != nil {
		return o, err
	}
	if raw := cell(FieldConversionDate); raw != "" && o.Converted != nil && *o.Converted {
		d, err := ParseDate(raw, loc)
		if err != nil {
			return o, fmt.Errorf("conversion date: %w", err)
		}
		o.ConversionDate = &d
	}

	if raw := cell(FieldFollowupDate); raw != "" {
		d, err := ParseDate(raw, loc)
		if err != nil {
			return o, fmt.Errorf("follow-up date: %w", err)
		}
		o.Followups = []models.FollowupItem{{ID: models.NewFollowupID(), Date: models.StartOfDay(d)}}
	}
	return o, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
