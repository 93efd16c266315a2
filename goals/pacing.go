// ABOUTME: Monthly goal pacing and month-end forecasting
// ABOUTME: Compares expected vs actual offers and projects the month-end total
package goals

import (
	"math"
	"time"

	"github.com/harperreed/offertrack/models"
	"github.com/harperreed/offertrack/streak"
)

const (
	// ForecastLookbackDays bounds the history used for weekday averages.
	ForecastLookbackDays = 90

	// MinWeekdaySamples is how many dates of a weekday are needed before its
	// own average is trusted over the month average.
	MinWeekdaySamples = 3

	// NonWorkdayFactor scales forecasts for days outside the workday set.
	NonWorkdayFactor = 0.4

	// OutlierStdDevs is the cutoff for dropping freak days from averages.
	OutlierStdDevs = 2.0
)

type Status string

const (
	StatusGoalMet Status = "goal_met"
	StatusOnTrack Status = "on_track"
	StatusBehind  Status = "behind"
)

type Pacing struct {
	DailyGoal            int     `json:"dailyGoal"`
	MonthlyGoal          int     `json:"monthlyGoal"`
	EffectiveDaysInMonth int     `json:"effectiveDaysInMonth"`
	DaysPassed           int     `json:"daysPassed"`
	RemainingDays        int     `json:"remainingDays"`
	CurrentExpectedGoal  int     `json:"currentExpectedGoal"`
	OffersThisMonth      int     `json:"offersThisMonth"`
	GoalProgress         int     `json:"goalProgress"`
	Forecast             float64 `json:"forecast"`
	ForecastTotal        int     `json:"forecastTotal"`
	DailyNeeded          int     `json:"dailyNeeded"`
	Status               Status  `json:"status"`
}

// ComputePacing measures this month's progress against dailyGoal. When
// settings asks for workdays only, goal days skip non-workdays.
func ComputePacing(offers []models.Offer, dailyGoal int, settings *models.StreakSettings, now time.Time) Pacing {
	today := models.StartOfDay(now)
	monthStart := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
	monthEnd := monthStart.AddDate(0, 1, -1)

	counts := DailyCounts(offers, now.Location())
	countsDay := func(d time.Time) bool {
		return settings == nil || streak.IsWorkday(d, *settings)
	}

	p := Pacing{DailyGoal: dailyGoal}
	for d := monthStart; !d.After(monthEnd); d = d.AddDate(0, 0, 1) {
		if countsDay(d) {
			p.EffectiveDaysInMonth++
			if d.After(today) {
				p.RemainingDays++
			} else {
				p.DaysPassed++
			}
		}
		p.OffersThisMonth += counts[d]
	}

	p.MonthlyGoal = dailyGoal * p.EffectiveDaysInMonth
	p.CurrentExpectedGoal = dailyGoal * p.DaysPassed
	if p.CurrentExpectedGoal > 0 {
		p.GoalProgress = int(math.Round(100 * float64(p.OffersThisMonth) / float64(p.CurrentExpectedGoal)))
	}

	p.Forecast = forecastRemaining(counts, offers, settings, today, monthStart, monthEnd)
	p.ForecastTotal = p.OffersThisMonth + int(math.Round(p.Forecast))

	if remaining := p.MonthlyGoal - p.OffersThisMonth; remaining > 0 {
		if p.RemainingDays == 0 {
			p.DailyNeeded = remaining
		} else {
			p.DailyNeeded = int(math.Ceil(float64(remaining) / float64(p.RemainingDays)))
		}
	}

	switch {
	case p.MonthlyGoal > 0 && p.OffersThisMonth >= p.MonthlyGoal:
		p.Status = StatusGoalMet
	case p.ForecastTotal >= p.MonthlyGoal:
		p.Status = StatusOnTrack
	default:
		p.Status = StatusBehind
	}
	return p
}

func forecastRemaining(counts map[time.Time]int, offers []models.Offer, settings *models.StreakSettings, today, monthStart, monthEnd time.Time) float64 {
	weekdays := DayOfWeekAverages(offers, today)

	var past []int
	for d := monthStart; d.Before(today); d = d.AddDate(0, 0, 1) {
		past = append(past, counts[d])
	}
	fallback := TrimmedDailyAverage(past)

	total := 0.0
	for d := today.AddDate(0, 0, 1); !d.After(monthEnd); d = d.AddDate(0, 0, 1) {
		estimate := fallback
		if avg := weekdays[d.Weekday()]; avg.Samples >= MinWeekdaySamples {
			estimate = avg.Average
		}
		if settings != nil && !streak.IsWorkday(d, *settings) {
			estimate = math.Min(estimate*NonWorkdayFactor, 1)
		}
		total += estimate
	}
	return total
}

type WeekdayAverage struct {
	Average float64
	Samples int
}

// DayOfWeekAverages averages offers per weekday over the trailing lookback
// window ending yesterday. The window never starts before the first offer.
func DayOfWeekAverages(offers []models.Offer, now time.Time) [7]WeekdayAverage {
	var result [7]WeekdayAverage
	if len(offers) == 0 {
		return result
	}

	today := models.StartOfDay(now)
	start := today.AddDate(0, 0, -ForecastLookbackDays)
	first := today
	for _, o := range offers {
		if d := models.StartOfDay(o.Date.In(now.Location())); d.Before(first) {
			first = d
		}
	}
	if first.After(start) {
		start = first
	}

	counts := DailyCounts(offers, now.Location())
	var totals [7]int
	for d := start; d.Before(today); d = d.AddDate(0, 0, 1) {
		wd := d.Weekday()
		result[wd].Samples++
		totals[wd] += counts[d]
	}
	for i := range result {
		if result[i].Samples > 0 {
			result[i].Average = float64(totals[i]) / float64(result[i].Samples)
		}
	}
	return result
}

// TrimmedDailyAverage averages daily counts after dropping days more than
// OutlierStdDevs standard deviations from the mean.
func TrimmedDailyAverage(daily []int) float64 {
	if len(daily) == 0 {
		return 0
	}

	sum := 0.0
	for _, c := range daily {
		sum += float64(c)
	}
	mean := sum / float64(len(daily))

	variance := 0.0
	for _, c := range daily {
		variance += (float64(c) - mean) * (float64(c) - mean)
	}
	stddev := math.Sqrt(variance / float64(len(daily)))
	if stddev == 0 {
		return mean
	}

	kept, keptSum := 0, 0.0
	for _, c := range daily {
		if math.Abs(float64(c)-mean) <= OutlierStdDevs*stddev {
			kept++
			keptSum += float64(c)
		}
	}
	if kept == 0 {
		return mean
	}
	return keptSum / float64(kept)
}

// DailyCounts buckets offers by local midnight.
func DailyCounts(offers []models.Offer, loc *time.Location) map[time.Time]int {
	counts := make(map[time.Time]int)
	for _, o := range offers {
		counts[models.StartOfDay(o.Date.In(loc))]++
	}
	return counts
}
