// ABOUTME: Streak walker computing the current offer streak, tokens, and badges
// ABOUTME: Walks backward day by day from today applying missed-day allowances
package streak

import (
	"time"

	"github.com/harperreed/offertrack/models"
)

const (
	// LookbackDays caps how far back a streak can be proven.
	LookbackDays = 90

	// CutoffHour is when an offer-less workday counts as missed.
	CutoffHour = 20

	perfectWeekLength   = 5
	offDayHustlerOffers = 5
	perfectMonthWeeks   = 4
	sevenDayWindow      = 7
)

var streakBadges = []struct {
	threshold int
	name      string
}{
	{5, models.BadgeConsistent},
	{10, models.BadgeDedicated},
	{20, models.BadgeProfessional},
	{30, models.BadgeMaster},
	{50, models.BadgeLegend},
}

type dayKey struct {
	year  int
	month time.Month
	day   int
}

func keyOf(t time.Time) dayKey {
	y, m, d := t.Date()
	return dayKey{y, m, d}
}

// offerDays counts offers per calendar date in loc.
func offerDays(offers []models.Offer, loc *time.Location) map[dayKey]int {
	days := make(map[dayKey]int, len(offers))
	for _, o := range offers {
		days[keyOf(o.Date.In(loc))]++
	}
	return days
}

// Compute derives the streak as of now. now supplies both today's date and the
// wall-clock hour used by the evening cutoff.
func Compute(offers []models.Offer, settings models.StreakSettings, now time.Time) models.StreakInfo {
	vacation := VacationStatusAt(now, settings.VacationMode)
	if len(offers) == 0 {
		return models.StreakInfo{
			Badges:                []string{},
			HasActiveVacation:     vacation.Active,
			VacationDaysRemaining: vacation.DaysRemaining,
		}
	}

	days := offerDays(offers, now.Location())
	today := models.StartOfDay(now)

	todayIsWorkday := IsWorkday(today, settings)
	hasOfferToday := days[keyOf(today)] > 0

	if todayIsWorkday && !hasOfferToday && now.Hour() >= CutoffHour && !vacation.Active {
		return models.StreakInfo{Badges: []string{}}
	}

	current := 0
	nonWorkdayOffers := 0
	if todayIsWorkday && hasOfferToday {
		current = 1
	} else if !todayIsWorkday {
		nonWorkdayOffers += days[keyOf(today)]
	}

	tokens := 0
	perfectWeeks := 0
	missed := 0
	missedDuringWalk := false

	for i := 1; i <= LookbackDays; i++ {
		day := today.AddDate(0, 0, -i)
		count := days[keyOf(day)]

		if !IsWorkday(day, settings) {
			nonWorkdayOffers += count
			continue
		}

		if count > 0 {
			current++
			missed = 0
			if settings.EnablePreservationTokens && settings.DaysPerPreservationToken > 0 &&
				current%settings.DaysPerPreservationToken == 0 {
				tokens++
			}
			if current%perfectWeekLength == 0 && !missedDuringWalk {
				perfectWeeks++
			}
			continue
		}

		if IsInVacation(day, settings.VacationMode) {
			continue
		}

		missed++
		missedDuringWalk = true
		if !withinAllowance(current, missed) {
			break
		}
	}

	var badges []string
	for _, b := range streakBadges {
		if current >= b.threshold {
			badges = append(badges, b.name)
		}
	}
	if nonWorkdayOffers >= offDayHustlerOffers {
		badges = append(badges, models.BadgeOffDayHustler)
	}
	if perfectWeeks >= perfectMonthWeeks {
		badges = append(badges, models.BadgePerfectMonth)
	}
	if coversLastSevenDays(days, today) {
		badges = append(badges, models.BadgeSevenDayStreak)
	}
	if badges == nil {
		badges = []string{}
	}

	return models.StreakInfo{
		Current:               current,
		PreservationTokens:    tokens,
		Badges:                badges,
		HasActiveVacation:     vacation.Active,
		VacationDaysRemaining: vacation.DaysRemaining,
	}
}

// withinAllowance checks the higher tier first, then the lower one.
func withinAllowance(current, missed int) bool {
	tiers := models.MissedDaysAllowances
	for i := len(tiers) - 1; i >= 0; i-- {
		if current >= tiers[i].RequiredStreak && missed <= tiers[i].AllowedMissedDays {
			return true
		}
	}
	return false
}

func coversLastSevenDays(days map[dayKey]int, today time.Time) bool {
	for i := 0; i < sevenDayWindow; i++ {
		if days[keyOf(today.AddDate(0, 0, -i))] == 0 {
			return false
		}
	}
	return true
}

// TokenResult is the outcome of spending a preservation token.
type TokenResult struct {
	Success         bool `json:"success"`
	RemainingTokens int  `json:"remainingTokens"`
	NewStreakValue  int  `json:"newStreakValue"`
}

// UsePreservationToken spends one token against a broken streak. The streak
// value is reported unchanged; restoring history is left to the caller.
func UsePreservationToken(tokens, brokenStreak int) TokenResult {
	if tokens <= 0 || brokenStreak == 0 {
		return TokenResult{RemainingTokens: max(tokens, 0), NewStreakValue: brokenStreak}
	}
	return TokenResult{
		Success:         true,
		RemainingTokens: tokens - 1,
		NewStreakValue:  brokenStreak,
	}
}
