// ABOUTME: Terminal dashboard statistics and rendering
// ABOUTME: ASCII overview of streak, goal pacing, conversion, and follow-ups
package viz

import (
	"fmt"
	"strings"
	"time"

	"github.com/harperreed/offertrack/goals"
	"github.com/harperreed/offertrack/metrics"
	"github.com/harperreed/offertrack/models"
	"github.com/harperreed/offertrack/tracker"
)

type DashboardStats struct {
	Now          time.Time
	Streak       models.StreakInfo
	TokenBalance int
	Pacing       goals.Pacing
	Metrics      metrics.Summary

	// Offers per day, oldest first, ending today.
	LastSevenDays []DayCount

	Overdue  []tracker.DueFollowup
	DueToday []tracker.DueFollowup
}

type DayCount struct {
	Date  time.Time
	Count int
}

func GenerateDashboardStats(tr *tracker.Tracker) *DashboardStats {
	now := tr.Now()
	stats := &DashboardStats{
		Now:          now,
		Streak:       tr.Streak(),
		TokenBalance: tr.Settings().PreservationTokenBalance,
		Pacing:       tr.Pacing(),
		Metrics:      tr.Metrics(),
	}

	counts := goals.DailyCounts(tr.Offers(), now.Location())
	today := models.StartOfDay(now)
	for i := 6; i >= 0; i-- {
		d := today.AddDate(0, 0, -i)
		stats.LastSevenDays = append(stats.LastSevenDays, DayCount{Date: d, Count: counts[d]})
	}

	for _, due := range tr.DueFollowups(0) {
		if due.Overdue {
			stats.Overdue = append(stats.Overdue, due)
		} else {
			stats.DueToday = append(stats.DueToday, due)
		}
	}
	return stats
}

func RenderDashboard(stats *DashboardStats) string {
	var out strings.Builder

	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	out.WriteString("  OFFERTRACK DASHBOARD\n")
	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")

	renderStreak(&out, stats)
	renderPacing(&out, stats.Pacing)
	renderWeek(&out, stats.LastSevenDays)

	out.WriteString("CONVERSION BY CHANNEL\n")
	renderBreakdown(&out, stats.Metrics.ByChannel)
	out.WriteString("\n")

	c := stats.Metrics.Conversion
	s := stats.Metrics.CSAT
	out.WriteString("STATS\n")
	out.WriteString(fmt.Sprintf("  📨 %d offers  ✅ %d converted  ❌ %d not  ⏳ %d pending  (%.0f%%)\n",
		stats.Metrics.TotalOffers, c.Converted, c.NotConverted, c.Pending, c.Rate))
	if s.Total > 0 {
		out.WriteString(fmt.Sprintf("  😊 %.0f%%  😐 %.0f%%  😞 %.0f%%  of %d rated\n",
			s.PositiveRate, s.NeutralRate, s.NegativeRate, s.Total))
	}
	out.WriteString("\n")

	if len(stats.Overdue) > 0 || len(stats.DueToday) > 0 {
		out.WriteString("NEEDS ATTENTION\n")
		if len(stats.Overdue) > 0 {
			out.WriteString(fmt.Sprintf("  ⚠️  %d follow-ups overdue\n", len(stats.Overdue)))
		}
		if len(stats.DueToday) > 0 {
			out.WriteString(fmt.Sprintf("  📅 %d follow-ups due today\n", len(stats.DueToday)))
		}
	}

	return out.String()
}

func renderStreak(out *strings.Builder, stats *DashboardStats) {
	st := stats.Streak
	out.WriteString("STREAK\n")
	out.WriteString(fmt.Sprintf("  🔥 %d day(s)  🛡  %d token(s) earned, %d banked\n",
		st.Current, st.PreservationTokens, stats.TokenBalance))
	if st.HasActiveVacation {
		if st.VacationDaysRemaining != nil {
			out.WriteString(fmt.Sprintf("  🏖  On vacation, %d day(s) left\n", *st.VacationDaysRemaining))
		} else {
			out.WriteString("  🏖  On vacation\n")
		}
	}
	if len(st.Badges) > 0 {
		out.WriteString(fmt.Sprintf("  🏅 %s\n", strings.Join(st.Badges, ", ")))
	}
	out.WriteString("\n")
}

func renderPacing(out *strings.Builder, p goals.Pacing) {
	out.WriteString("MONTHLY GOAL\n")
	out.WriteString(fmt.Sprintf("  %s %d/%d  (%d%% of expected to date)\n",
		bar(p.OffersThisMonth, p.MonthlyGoal, 20), p.OffersThisMonth, p.MonthlyGoal, p.GoalProgress))
	out.WriteString(fmt.Sprintf("  Forecast: %d by month end  Status: %s\n", p.ForecastTotal, statusLabel(p.Status)))
	if p.DailyNeeded > 0 {
		out.WriteString(fmt.Sprintf("  Need %d/day over %d remaining day(s)\n", p.DailyNeeded, p.RemainingDays))
	}
	out.WriteString("\n")
}

func renderWeek(out *strings.Builder, days []DayCount) {
	maxCount := 1
	for _, d := range days {
		if d.Count > maxCount {
			maxCount = d.Count
		}
	}
	out.WriteString("LAST 7 DAYS\n")
	for _, d := range days {
		out.WriteString(fmt.Sprintf("  %s %s  %d\n", d.Date.Format("Mon 01/02"), bar(d.Count, maxCount, 10), d.Count))
	}
	out.WriteString("\n")
}

func renderBreakdown(out *strings.Builder, rows []metrics.Breakdown) {
	if len(rows) == 0 {
		out.WriteString("  (no offers yet)\n")
		return
	}
	maxCount := 1
	for _, r := range rows {
		if r.Offers > maxCount {
			maxCount = r.Offers
		}
	}
	for _, r := range rows {
		out.WriteString(fmt.Sprintf("  %-13s %s  %2d (%.0f%% converted)\n",
			r.Name, bar(r.Offers, maxCount, 10), r.Offers, r.ConversionRate))
	}
}

// bar renders value/max as a fixed-width block bar, clamped to full.
func bar(value, max, width int) string {
	filled := 0
	if max > 0 {
		filled = value * width / max
	}
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func statusLabel(s goals.Status) string {
	switch s {
	case goals.StatusGoalMet:
		return "goal met 🎉"
	case goals.StatusOnTrack:
		return "on track"
	default:
		return "behind"
	}
}
