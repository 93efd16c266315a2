// ABOUTME: Tests for goal pacing and forecasting
// ABOUTME: Covers workday-aware goals, weekday averages, and outlier trimming
package goals

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/offertrack/models"
	"github.com/stretchr/testify/assert"
)

// Monday 2026-03-16, a 31-day month with 22 weekdays.
var now = time.Date(2026, 3, 16, 9, 0, 0, 0, time.UTC)

func workdaysOnly() *models.StreakSettings {
	return &models.StreakSettings{CountWorkdaysOnly: true, Workdays: []int{1, 2, 3, 4, 5}}
}

func offersPerDay(from, to time.Time, perDay int, weekdaysOnly bool) []models.Offer {
	var offers []models.Offer
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if weekdaysOnly && (d.Weekday() == time.Saturday || d.Weekday() == time.Sunday) {
			continue
		}
		for i := 0; i < perDay; i++ {
			offers = append(offers, models.Offer{
				ID:        uuid.New(),
				Date:      d.Add(time.Duration(9+i) * time.Hour),
				Channel:   "email",
				OfferType: "upgrade",
			})
		}
	}
	return offers
}

func TestComputePacingWorkdayGoals(t *testing.T) {
	offers := offersPerDay(time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC), 3, true)

	p := ComputePacing(offers, 5, workdaysOnly(), now)
	assert.Equal(t, 22, p.EffectiveDaysInMonth)
	assert.Equal(t, 110, p.MonthlyGoal)
	assert.Equal(t, 11, p.DaysPassed)
	assert.Equal(t, 11, p.RemainingDays)
	assert.Equal(t, 55, p.CurrentExpectedGoal)
	assert.Equal(t, 33, p.OffersThisMonth)
	assert.Equal(t, 60, p.GoalProgress)
	assert.Equal(t, 7, p.DailyNeeded)

	all := ComputePacing(offers, 5, nil, now)
	assert.Equal(t, 31, all.EffectiveDaysInMonth)
	assert.Equal(t, 155, all.MonthlyGoal)
	assert.Equal(t, 80, all.CurrentExpectedGoal)
}

func TestComputePacingZeroGoalIsSafe(t *testing.T) {
	p := ComputePacing(nil, 0, workdaysOnly(), now)
	assert.Equal(t, 0, p.GoalProgress)
	assert.Equal(t, 0, p.MonthlyGoal)
	assert.False(t, math.IsNaN(p.Forecast))
	assert.Equal(t, 0, p.DailyNeeded)

	// Sunday the 1st: no workday has passed yet.
	sunday := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	p = ComputePacing(nil, 5, workdaysOnly(), sunday)
	assert.Equal(t, 0, p.CurrentExpectedGoal)
	assert.Equal(t, 0, p.GoalProgress)
}

func TestComputePacingProgressIsUncapped(t *testing.T) {
	offers := offersPerDay(time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC), 10, true)
	p := ComputePacing(offers, 5, workdaysOnly(), now)
	assert.Equal(t, 200, p.GoalProgress)
}

func TestForecastUsesWeekdayHistory(t *testing.T) {
	// Eight weeks of two offers per weekday, nothing on weekends.
	offers := offersPerDay(time.Date(2026, 1, 19, 0, 0, 0, 0, time.UTC), time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC), 2, true)

	p := ComputePacing(offers, 2, workdaysOnly(), now)
	assert.Equal(t, 22, p.OffersThisMonth)
	assert.InDelta(t, 22.0, p.Forecast, 0.001)
	assert.Equal(t, 44, p.ForecastTotal)
	assert.Equal(t, 44, p.MonthlyGoal)
	assert.Equal(t, StatusOnTrack, p.Status)

	behind := ComputePacing(offers, 3, workdaysOnly(), now)
	assert.Equal(t, StatusBehind, behind.Status)

	met := ComputePacing(offers, 1, workdaysOnly(), now)
	assert.Equal(t, StatusGoalMet, met.Status)
}

func TestForecastFallsBackToTrimmedMonthAverage(t *testing.T) {
	// Only two weeks of history: every weekday has two samples, below the minimum.
	offers := offersPerDay(time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), 5, false)

	averages := DayOfWeekAverages(offers, now)
	for wd, avg := range averages {
		assert.Equal(t, 2, avg.Samples, "weekday %d", wd)
	}

	p := ComputePacing(offers, 5, workdaysOnly(), now)
	// March 1st (zero offers) is an outlier; the month average is 5.
	// Remaining: eleven weekdays at 5, four weekend days capped at 1.
	assert.InDelta(t, 59.0, p.Forecast, 0.001)
	assert.Equal(t, 70, p.OffersThisMonth)
	assert.Equal(t, 129, p.ForecastTotal)
}

func TestTrimmedDailyAverage(t *testing.T) {
	tests := []struct {
		name  string
		daily []int
		want  float64
	}{
		{"empty", nil, 0},
		{"flat", []int{3, 3, 3}, 3},
		{"drops spike", []int{2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 50}, 2},
		{"keeps normal spread", []int{1, 2, 3}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, TrimmedDailyAverage(tt.daily), 0.0001)
		})
	}
}

func TestDayOfWeekAveragesEmpty(t *testing.T) {
	averages := DayOfWeekAverages(nil, now)
	for _, avg := range averages {
		assert.Equal(t, 0, avg.Samples)
	}
}
