// ABOUTME: Tests for offer import, export, and directory watching
// ABOUTME: Exercises header aliases, row isolation, and CSV/XLSX round trips
package importer

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/harperreed/offertrack/models"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestMapHeadersAliases(t *testing.T) {
	columns, err := MapHeaders([]string{"Offer Date", "TYPE", "source", "Case_Number", "next-followup", "Unused"})
	require.NoError(t, err)
	assert.Equal(t, 0, columns[FieldDate])
	assert.Equal(t, 1, columns[FieldOfferType])
	assert.Equal(t, 2, columns[FieldChannel])
	assert.Equal(t, 3, columns[FieldCaseNumber])
	assert.Equal(t, 4, columns[FieldFollowupDate])
	assert.Len(t, columns, 5)
}

func TestMapHeadersMissingRequired(t *testing.T) {
	_, err := MapHeaders([]string{"date", "notes"})
	assert.ErrorIs(t, err, ErrMissingColumns)
	assert.Contains(t, err.Error(), "offerType")
	assert.Contains(t, err.Error(), "channel")
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2026-03-16T14:30:00Z", time.Date(2026, 3, 16, 14, 30, 0, 0, time.UTC)},
		{"2026-03-16T14:30:00", time.Date(2026, 3, 16, 14, 30, 0, 0, time.UTC)},
		{"2026-03-16", time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC)},
		{"03/04/2026", time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)},
		{"16/03/2026", time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC)},
		{"3/16/26", time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC)},
		{"46097", time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDate(tt.in, time.UTC)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
		})
	}

	_, err := ParseDate("next tuesday", time.UTC)
	assert.Error(t, err)
	_, err = ParseDate("  ", time.UTC)
	assert.Error(t, err)
}

func TestReadCSVSkipsBadRows(t *testing.T) {
	input := strings.Join([]string{
		"Date,Offer Type,Channel,Converted,CSAT,Follow Up,Notes",
		"2026-03-02,upgrade,email,yes,positive,2026-03-20,first",
		"not a date,upgrade,email,,,,",
		",,,,,,",
		"2026-03-03,,phone,,,,",
		"2026-03-04,renewal,chat,maybe,,,",
		"2026-03-05,add-on,phone,no,Happy,,last",
	}, "\n")

	result, err := ReadCSV(strings.NewReader(input), time.UTC)
	require.NoError(t, err)
	require.Len(t, result.Offers, 2)
	require.Len(t, result.Errors, 3)

	assert.Equal(t, 3, result.Errors[0].Row)
	assert.Equal(t, 5, result.Errors[1].Row)
	assert.Equal(t, 6, result.Errors[2].Row)
	assert.Contains(t, result.Errors[2].Error(), "row 6")

	first := result.Offers[0]
	assert.Equal(t, "upgrade", first.OfferType)
	require.NotNil(t, first.Converted)
	assert.True(t, *first.Converted)
	assert.Equal(t, models.CSATPositive, first.CSAT)
	require.Len(t, first.Followups, 1)
	assert.Equal(t, 20, first.Followups[0].Date.Day())
	assert.NotEmpty(t, first.Followups[0].ID)

	last := result.Offers[1]
	require.NotNil(t, last.Converted)
	assert.False(t, *last.Converted)
	assert.Equal(t, models.CSATPositive, last.CSAT)
	assert.Equal(t, "last", last.Notes)
}

func TestReadCSVRejectsMissingColumns(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("date,notes\n2026-03-02,hi\n"), time.UTC)
	assert.ErrorIs(t, err, ErrMissingColumns)

	_, err = ReadCSV(strings.NewReader(""), time.UTC)
	assert.ErrorIs(t, err, ErrEmptyFile)
}

func sampleOffers() []models.Offer {
	converted := true
	conversion := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	return []models.Offer{
		{
			ID:             uuid.New(),
			Date:           time.Date(2026, 3, 2, 10, 15, 0, 0, time.UTC),
			Channel:        "email",
			OfferType:      "upgrade",
			CaseNumber:     "CS-1001",
			Notes:          "asked about, \"annual\" pricing",
			CSAT:           models.CSATNeutral,
			Converted:      &converted,
			ConversionDate: &conversion,
			Followups: []models.FollowupItem{
				{ID: models.NewFollowupID(), Date: time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC), Completed: true},
				{ID: models.NewFollowupID(), Date: time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC)},
			},
		},
		{
			ID:        uuid.New(),
			Date:      time.Date(2026, 3, 3, 16, 0, 0, 0, time.UTC),
			Channel:   "phone",
			OfferType: "renewal",
		},
	}
}

func assertRoundTrip(t *testing.T, want, got []models.Offer) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].ID, got[i].ID)
		assert.True(t, models.SameDay(want[i].Date, got[i].Date))
		assert.Equal(t, want[i].OfferType, got[i].OfferType)
		assert.Equal(t, want[i].Channel, got[i].Channel)
		assert.Equal(t, want[i].Notes, got[i].Notes)
		assert.Equal(t, want[i].Converted, got[i].Converted)
	}
}

func TestCSVRoundTrip(t *testing.T) {
	offers := sampleOffers()

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, offers))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "ID,Date,Day of Week,Offer Type"))
	assert.Contains(t, lines[1], "Monday")
	assert.Contains(t, lines[1], ",Yes,2026-03-09,7,")
	assert.Contains(t, lines[1], "2026-03-05; 2026-03-12,1,2026-03-12")

	result, err := ReadCSV(&buf, time.UTC)
	require.NoError(t, err)
	assert.Empty(t, result.Errors)
	assertRoundTrip(t, offers, result.Offers)

	require.Len(t, result.Offers[0].Followups, 1)
	assert.Equal(t, 12, result.Offers[0].Followups[0].Date.Day())
	require.NotNil(t, result.Offers[0].ConversionDate)
	assert.Equal(t, 9, result.Offers[0].ConversionDate.Day())
}

func TestXLSXRoundTrip(t *testing.T) {
	offers := sampleOffers()

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, offers))

	result, err := ReadXLSX(bytes.NewReader(buf.Bytes()), time.UTC)
	require.NoError(t, err)
	assert.Empty(t, result.Errors)
	assertRoundTrip(t, offers, result.Offers)
}

func TestReadXLSXTypedDateCells(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"Date", "Offer Type", "Channel"}))
	require.NoError(t, f.SetCellValue(sheet, "A2", time.Date(2026, 3, 16, 9, 30, 0, 0, time.UTC)))
	require.NoError(t, f.SetCellValue(sheet, "B2", "upgrade"))
	require.NoError(t, f.SetCellValue(sheet, "C2", "phone"))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	result, err := ReadXLSX(bytes.NewReader(buf.Bytes()), time.UTC)
	require.NoError(t, err)
	assert.Empty(t, result.Errors)
	require.Len(t, result.Offers, 1)
	got := result.Offers[0].Date
	assert.Equal(t, 2026, got.Year())
	assert.Equal(t, time.March, got.Month())
	assert.Equal(t, 16, got.Day())
	assert.Equal(t, "upgrade", result.Offers[0].OfferType)
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "offers.csv")
	require.NoError(t, os.WriteFile(path, []byte("date,type,channel\n2026-03-02,upgrade,email\n"), 0o644))
	result, err := ReadFile(path, time.UTC)
	require.NoError(t, err)
	assert.Len(t, result.Offers, 1)

	txt := filepath.Join(dir, "offers.txt")
	require.NoError(t, os.WriteFile(txt, []byte("x"), 0o644))
	_, err = ReadFile(txt, time.UTC)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestWatchDir(t *testing.T) {
	dir := t.TempDir()
	logger, _ := test.NewNullLogger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	found := make(chan string, 4)
	done := make(chan error, 1)
	go func() {
		done <- WatchDir(ctx, dir, logger, func(path string) { found <- path })
	}()

	// Give the watcher time to register.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte("x"), 0o644))
	target := filepath.Join(dir, "drop.csv")
	require.NoError(t, os.WriteFile(target, []byte("date,type,channel\n"), 0o644))

	select {
	case got := <-found:
		assert.Equal(t, target, got)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not report the new file")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatchEventsReturnsWhenEventsClose(t *testing.T) {
	logger, _ := test.NewNullLogger()
	events := make(chan fsnotify.Event)
	errs := make(chan error)

	done := make(chan error, 1)
	go func() {
		done <- watchEvents(context.Background(), events, errs, logger, func(string) {})
	}()

	close(events)
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch loop did not return after its event channel closed")
	}
}
