// ABOUTME: Column names, header aliases, and cell parsers for offer import
// ABOUTME: Headers match case-insensitively with spaces, underscores, and dashes ignored
package importer

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/harperreed/offertrack/models"
	"github.com/xuri/excelize/v2"
)

// Canonical import fields.
const (
	FieldID             = "id"
	FieldDate           = "date"
	FieldOfferType      = "offerType"
	FieldChannel        = "channel"
	FieldNotes          = "notes"
	FieldConverted      = "converted"
	FieldConversionDate = "conversionDate"
	FieldCSAT           = "csat"
	FieldCSATComment    = "csatComment"
	FieldCaseNumber     = "caseNumber"
	FieldFollowupDate   = "followupDate"
)

// RequiredFields must all be present in the header row.
var RequiredFields = []string{FieldDate, FieldOfferType, FieldChannel}

var aliases = map[string][]string{
	FieldID:             {"id", "offerid"},
	FieldDate:           {"date", "offerdate", "created", "createdat", "timestamp"},
	FieldOfferType:      {"offertype", "type", "offer"},
	FieldChannel:        {"channel", "source", "medium"},
	FieldNotes:          {"notes", "note", "comments", "comment"},
	FieldConverted:      {"converted", "conversion", "sold", "outcome"},
	FieldConversionDate: {"conversiondate", "converteddate", "convertedon"},
	FieldCSAT:           {"csat", "satisfaction", "rating"},
	FieldCSATComment:    {"csatcomment", "satisfactioncomment", "feedback"},
	FieldCaseNumber:     {"casenumber", "case", "caseid", "ticket", "ticketnumber"},
	FieldFollowupDate:   {"followupdate", "followup", "nextfollowup"},
}

var aliasIndex = func() map[string]string {
	index := make(map[string]string)
	for field, names := range aliases {
		for _, n := range names {
			index[n] = field
		}
	}
	return index
}()

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.NewReplacer(" ", "", "_", "", "-", "").Replace(h)
}

// MapHeaders resolves a header row to canonical field positions. Unknown
// columns are ignored; the first column wins when two map to the same field.
func MapHeaders(header []string) (map[string]int, error) {
	columns := make(map[string]int)
	for i, h := range header {
		field, ok := aliasIndex[normalizeHeader(h)]
		if !ok {
			continue
		}
		if _, dup := columns[field]; !dup {
			columns[field] = i
		}
	}

	var missing []string
	for _, f := range RequiredFields {
		if _, ok := columns[f]; !ok {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}
	return columns, nil
}

// Month-first layouts are tried before day-first ones.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"1/2/06",
	"02/01/2006",
	"2/1/2006",
}

// ParseDate accepts the supported text layouts and spreadsheet serial dates.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("date is empty")
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 0 {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// parseConverted returns nil for undecided values.
func parseConverted(s string) (*bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "pending", "undecided", "unknown":
		return nil, nil
	case "yes", "y", "true", "1", "converted", "won":
		v := true
		return &v, nil
	case "no", "n", "false", "0", "not converted", "lost":
		v := false
		return &v, nil
	}
	return nil, fmt.Errorf("unrecognized converted value %q", s)
}

func parseCSAT(s string) (string, error) {
	switch v := strings.ToLower(strings.TrimSpace(s)); v {
	case "":
		return "", nil
	case models.CSATPositive, models.CSATNeutral, models.CSATNegative:
		return v, nil
	case "good", "happy", "+":
		return models.CSATPositive, nil
	case "bad", "unhappy", "-":
		return models.CSATNegative, nil
	}
	return "", fmt.Errorf("unrecognized csat value %q", s)
}
