package streak

import (
	"testing"
	"time"

	"github.com/harperreed/offertrack/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsWorkday(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	all := weekdaySettings()
	all.CountWorkdaysOnly = false

	custom := weekdaySettings()
	custom.Workdays = []int{0, 3}

	for i := 0; i < 14; i++ {
		d := start.AddDate(0, 0, i)
		assert.True(t, IsWorkday(d, all), "%s should count when all days count", d.Weekday())

		weekday := d.Weekday() != time.Saturday && d.Weekday() != time.Sunday
		assert.Equal(t, weekday, IsWorkday(d, weekdaySettings()), "%s", d.Weekday())

		assert.Equal(t, d.Weekday() == time.Sunday || d.Weekday() == time.Wednesday,
			IsWorkday(d, custom), "%s", d.Weekday())
	}
}

func TestIsInVacation(t *testing.T) {
	start := time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 13, 0, 0, 0, 0, time.UTC)

	closed := models.VacationMode{Active: true, StartDate: &start, EndDate: &end}
	open := models.VacationMode{Active: true, StartDate: &start}
	inactive := models.VacationMode{Active: false, StartDate: &start, EndDate: &end}

	tests := []struct {
		name     string
		date     time.Time
		vacation models.VacationMode
		want     bool
	}{
		{"day before start", start.AddDate(0, 0, -1), closed, false},
		{"start day", start.Add(15 * time.Hour), closed, true},
		{"end day late evening", end.Add(23 * time.Hour), closed, true},
		{"day after end", end.AddDate(0, 0, 1), closed, false},
		{"open ended far future", start.AddDate(1, 0, 0), open, true},
		{"inactive window", start, inactive, false},
		{"missing start", start, models.VacationMode{Active: true}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsInVacation(tt.date, tt.vacation))
		})
	}
}

func TestVacationStatusAt(t *testing.T) {
	start := time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 18, 0, 0, 0, 0, time.UTC)
	vacation := models.VacationMode{Active: true, StartDate: &start, EndDate: &end}

	status := VacationStatusAt(time.Date(2026, 3, 16, 12, 0, 0, 0, time.UTC), vacation)
	assert.True(t, status.Active)
	require.NotNil(t, status.DaysRemaining)
	assert.Equal(t, 2, *status.DaysRemaining)

	lastDay := VacationStatusAt(time.Date(2026, 3, 18, 8, 0, 0, 0, time.UTC), vacation)
	assert.True(t, lastDay.Active)
	require.NotNil(t, lastDay.DaysRemaining)
	assert.Equal(t, 0, *lastDay.DaysRemaining)

	over := VacationStatusAt(time.Date(2026, 3, 19, 8, 0, 0, 0, time.UTC), vacation)
	assert.False(t, over.Active)
	assert.Nil(t, over.DaysRemaining)
}

func TestParseWeekdays(t *testing.T) {
	days, err := ParseWeekdays([]string{"Mon", "tuesday", " 3 ", "", "THURS", "0"})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 0}, days)

	_, err = ParseWeekdays([]string{"funday"})
	assert.Error(t, err)
	_, err = ParseWeekdays([]string{"7"})
	assert.Error(t, err)
}
