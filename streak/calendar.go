// ABOUTME: Workday and vacation classification for streak accounting
// ABOUTME: Decides which dates count toward a streak and which are free passes
package streak

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/harperreed/offertrack/models"
)

// IsWorkday reports whether date counts toward the streak. Every day counts
// unless CountWorkdaysOnly is set. Callers must never store an empty workday set.
func IsWorkday(date time.Time, settings models.StreakSettings) bool {
	if !settings.CountWorkdaysOnly {
		return true
	}
	return settings.HasWorkday(date.Weekday())
}

// IsInVacation reports whether date falls inside the active vacation window.
// An open-ended window has no EndDate. Comparison is by calendar date.
func IsInVacation(date time.Time, vacation models.VacationMode) bool {
	if !vacation.Active || vacation.StartDate == nil {
		return false
	}
	day := models.StartOfDay(date)
	start := models.StartOfDay(vacation.StartDate.In(date.Location()))
	if day.Before(start) {
		return false
	}
	if vacation.EndDate == nil {
		return true
	}
	end := models.StartOfDay(vacation.EndDate.In(date.Location()))
	return !day.After(end)
}

type VacationStatus struct {
	Active        bool
	DaysRemaining *int
}

// VacationStatusAt reports whether vacation covers now and, when the window
// has an end date, how many days remain (ceiling, never negative).
func VacationStatusAt(now time.Time, vacation models.VacationMode) VacationStatus {
	if !IsInVacation(now, vacation) {
		return VacationStatus{}
	}
	status := VacationStatus{Active: true}
	if vacation.EndDate != nil {
		end := models.StartOfDay(vacation.EndDate.In(now.Location()))
		days := int(math.Ceil(end.Sub(now).Hours() / 24))
		if days < 0 {
			days = 0
		}
		status.DaysRemaining = &days
	}
	return status
}

var weekdayNames = map[string]int{
	"sun": 0, "sunday": 0,
	"mon": 1, "monday": 1,
	"tue": 2, "tues": 2, "tuesday": 2,
	"wed": 3, "wednesday": 3,
	"thu": 4, "thur": 4, "thurs": 4, "thursday": 4,
	"fri": 5, "friday": 5,
	"sat": 6, "saturday": 6,
}

// ParseWeekdays accepts weekday names, abbreviations, or numbers 0-6.
func ParseWeekdays(values []string) ([]int, error) {
	days := make([]int, 0, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		if d, ok := weekdayNames[v]; ok {
			days = append(days, d)
			continue
		}
		if len(v) == 1 && v[0] >= '0' && v[0] <= '6' {
			days = append(days, int(v[0]-'0'))
			continue
		}
		return nil, fmt.Errorf("invalid weekday: %q", v)
	}
	return days, nil
}
