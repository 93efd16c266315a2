// ABOUTME: Streak, pacing, metrics, and dashboard CLI commands
// ABOUTME: Read-only views derived from the current offers and settings
package cli

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/harperreed/offertrack/goals"
	"github.com/harperreed/offertrack/metrics"
	"github.com/harperreed/offertrack/tracker"
	"github.com/harperreed/offertrack/viz"
)

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// StreakCommand prints the current streak and badges
func StreakCommand(tr *tracker.Tracker, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("streak", flag.ContinueOnError)
	asJSON := fs.Bool("json", false, "Print JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	info := tr.Streak()
	if *asJSON {
		return writeJSON(out, info)
	}

	fmt.Fprintf(out, "🔥 Streak: %d day(s)\n", info.Current)
	if len(info.Badges) > 0 {
		fmt.Fprintf(out, "   Badges: %s\n", strings.Join(info.Badges, ", "))
	}
	s := tr.Settings()
	if s.Streak.EnablePreservationTokens {
		fmt.Fprintf(out, "   Tokens: %d earned, %d banked\n", info.PreservationTokens, s.PreservationTokenBalance)
	}
	if info.HasActiveVacation {
		if info.VacationDaysRemaining != nil {
			fmt.Fprintf(out, "   On vacation: %d day(s) left\n", *info.VacationDaysRemaining)
		} else {
			fmt.Fprintln(out, "   On vacation")
		}
	}
	fmt.Fprintf(out, "   Today: %d/%d\n", countOn(tr.Offers(), tr.Now()), s.DailyGoal)
	return nil
}

// PacingCommand prints monthly goal progress and the forecast
func PacingCommand(tr *tracker.Tracker, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("pacing", flag.ContinueOnError)
	asJSON := fs.Bool("json", false, "Print JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	p := tr.Pacing()
	if *asJSON {
		return writeJSON(out, p)
	}

	fmt.Fprintf(out, "Monthly goal:   %d (%d/day over %d days)\n", p.MonthlyGoal, p.DailyGoal, p.EffectiveDaysInMonth)
	fmt.Fprintf(out, "Progress:       %d (%d%%)\n", p.OffersThisMonth, p.GoalProgress)
	fmt.Fprintf(out, "Expected by now: %d after %d day(s)\n", p.CurrentExpectedGoal, p.DaysPassed)
	fmt.Fprintf(out, "Forecast:       %d by month end (+%.1f)\n", p.ForecastTotal, p.Forecast)
	fmt.Fprintf(out, "Needed per day: %d over %d remaining day(s)\n", p.DailyNeeded, p.RemainingDays)
	fmt.Fprintf(out, "Status:         %s\n", pacingLabel(p.Status))

	averages := goals.DayOfWeekAverages(tr.Offers(), tr.Now())
	fmt.Fprintln(out, "\nAverage by weekday:")
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for i, a := range averages {
		if a.Samples == 0 {
			continue
		}
		_, _ = fmt.Fprintf(w, "  %s\t%.1f\t(%d days)\n", time.Weekday(i).String()[:3], a.Average, a.Samples)
	}
	return w.Flush()
}

func pacingLabel(s goals.Status) string {
	switch s {
	case goals.StatusGoalMet:
		return "✓ goal met"
	case goals.StatusOnTrack:
		return "on track"
	}
	return "behind"
}

// MetricsCommand prints conversion, CSAT, and follow-up statistics
func MetricsCommand(tr *tracker.Tracker, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("metrics", flag.ContinueOnError)
	asJSON := fs.Bool("json", false, "Print JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	m := tr.Metrics()
	if *asJSON {
		return writeJSON(out, m)
	}

	fmt.Fprintf(out, "Offers:      %d\n", m.TotalOffers)
	fmt.Fprintf(out, "Conversion:  %.1f%% (%d converted, %d not, %d pending)\n",
		m.Conversion.Rate, m.Conversion.Converted, m.Conversion.NotConverted, m.Conversion.Pending)
	if m.Conversion.Converted > 0 {
		fmt.Fprintf(out, "Avg days to convert: %.1f\n", m.Conversion.AverageDaysToConvert)
	}
	fmt.Fprintf(out, "CSAT:        %d rated (%.0f%% positive, %.0f%% neutral, %.0f%% negative)\n",
		m.CSAT.Total, m.CSAT.PositiveRate, m.CSAT.NeutralRate, m.CSAT.NegativeRate)
	fmt.Fprintf(out, "Follow-ups:  %d total, %d done (%.0f%%), %d overdue, %d due today\n",
		m.Followups.Total, m.Followups.Completed, m.Followups.CompletionRate, m.Followups.Overdue, m.Followups.DueToday)

	writeBreakdown(out, "CHANNEL", m.ByChannel)
	writeBreakdown(out, "OFFER TYPE", m.ByOfferType)
	return nil
}

func writeBreakdown(out io.Writer, title string, rows []metrics.Breakdown) {
	if len(rows) == 0 {
		return
	}
	fmt.Fprintln(out)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "%s\tOFFERS\tCONVERTED\tRATE\n", title)
	for _, b := range rows {
		_, _ = fmt.Fprintf(w, "%s\t%d\t%d\t%.1f%%\n", b.Name, b.Offers, b.Converted, b.ConversionRate)
	}
	_ = w.Flush()
}

// DashboardCommand prints the text dashboard
func DashboardCommand(tr *tracker.Tracker, out io.Writer, args []string) error {
	stats := viz.GenerateDashboardStats(tr)
	fmt.Fprint(out, viz.RenderDashboard(stats))
	return nil
}
