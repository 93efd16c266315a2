// ABOUTME: Settings CLI commands
// ABOUTME: Daily goal, workdays, preservation tokens, vacation mode, and vocabularies
package cli

import (
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/harperreed/offertrack/importer"
	"github.com/harperreed/offertrack/streak"
	"github.com/harperreed/offertrack/tracker"
)

// SettingsCommand prints the current settings
func SettingsCommand(tr *tracker.Tracker, out io.Writer, args []string) error {
	s := tr.Settings()

	days := make([]string, 0, len(s.Streak.Workdays))
	for _, d := range s.Streak.Workdays {
		days = append(days, time.Weekday(d).String()[:3])
	}

	fmt.Fprintln(out, "Settings")
	fmt.Fprintln(out, "────────")
	fmt.Fprintf(out, "Daily goal:          %d\n", s.DailyGoal)
	fmt.Fprintf(out, "Workdays:            %s\n", strings.Join(days, ", "))
	fmt.Fprintf(out, "Count workdays only: %v\n", s.Streak.CountWorkdaysOnly)
	fmt.Fprintf(out, "Tokens:              %v (every %d days, balance %d)\n",
		s.Streak.EnablePreservationTokens, s.Streak.DaysPerPreservationToken, s.PreservationTokenBalance)

	v := s.Streak.VacationMode
	switch {
	case !v.Active:
		fmt.Fprintln(out, "Vacation:            off")
	case v.EndDate != nil && v.StartDate != nil:
		fmt.Fprintf(out, "Vacation:            %s to %s\n", v.StartDate.Format("2006-01-02"), v.EndDate.Format("2006-01-02"))
	case v.StartDate != nil:
		fmt.Fprintf(out, "Vacation:            from %s\n", v.StartDate.Format("2006-01-02"))
	}

	fmt.Fprintf(out, "Channels:            %s\n", strings.Join(s.Channels, ", "))
	fmt.Fprintf(out, "Offer types:         %s\n", strings.Join(s.OfferTypes, ", "))
	return nil
}

// GoalCommand shows or sets the daily goal
func GoalCommand(tr *tracker.Tracker, out io.Writer, args []string) error {
	if len(args) == 0 {
		fmt.Fprintf(out, "Daily goal: %d\n", tr.Settings().DailyGoal)
		return nil
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid goal %q: %w", args[0], err)
	}
	if err := tr.SetDailyGoal(n); err != nil {
		return fmt.Errorf("failed to set goal: %w", err)
	}
	fmt.Fprintf(out, "✓ Daily goal set to %d\n", n)
	return nil
}

// WorkdaysCommand sets the working days and whether only they count
func WorkdaysCommand(tr *tracker.Tracker, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("workdays", flag.ContinueOnError)
	only := fs.Bool("only", true, "Only workdays count toward the streak")
	if err := fs.Parse(args); err != nil {
		return err
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if fs.NArg() > 0 {
		var names []string
		for _, a := range fs.Args() {
			names = append(names, strings.Split(a, ",")...)
		}
		days, err := streak.ParseWeekdays(names)
		if err != nil {
			return err
		}
		if err := tr.SetWorkdays(days); err != nil {
			return fmt.Errorf("failed to set workdays: %w", err)
		}
	}
	if set["only"] {
		if err := tr.SetCountWorkdaysOnly(*only); err != nil {
			return fmt.Errorf("failed to update streak settings: %w", err)
		}
	}
	if fs.NArg() == 0 && !set["only"] {
		return fmt.Errorf("usage: offertrack workdays mon,tue,wed,thu,fri [--only=true|false]")
	}

	fmt.Fprintln(out, "✓ Workdays updated")
	return SettingsCommand(tr, out, nil)
}

// TokensCommand shows, configures, claims, or spends preservation tokens
func TokensCommand(tr *tracker.Tracker, out io.Writer, args []string) error {
	sub := "status"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		sub, args = args[0], args[1:]
	}

	switch sub {
	case "status":
		info := tr.Streak()
		s := tr.Settings()
		unclaimed := info.PreservationTokens - s.ClaimedTokens
		if unclaimed < 0 {
			unclaimed = 0
		}
		fmt.Fprintf(out, "Balance:   %d\n", s.PreservationTokenBalance)
		fmt.Fprintf(out, "Earned:    %d (this streak)\n", info.PreservationTokens)
		fmt.Fprintf(out, "Unclaimed: %d\n", unclaimed)
		return nil

	case "claim":
		claimed, err := tr.ClaimTokens()
		if err != nil {
			return fmt.Errorf("failed to claim tokens: %w", err)
		}
		fmt.Fprintf(out, "✓ Claimed %d token(s); balance %d\n", claimed, tr.Settings().PreservationTokenBalance)
		return nil

	case "use":
		fs := flag.NewFlagSet("tokens use", flag.ContinueOnError)
		broken := fs.Int("streak", 0, "Length of the broken streak to restore (required)")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if *broken <= 0 {
			return fmt.Errorf("--streak is required")
		}
		result, err := tr.UsePreservationToken(*broken)
		if err != nil {
			return fmt.Errorf("failed to use token: %w", err)
		}
		if !result.Success {
			return fmt.Errorf("no preservation tokens available")
		}
		fmt.Fprintf(out, "✓ Streak restored to %d; %d token(s) left\n", result.NewStreakValue, result.RemainingTokens)
		return nil

	case "config":
		current := tr.Settings().Streak
		fs := flag.NewFlagSet("tokens config", flag.ContinueOnError)
		enable := fs.Bool("enable", current.EnablePreservationTokens, "Enable preservation tokens")
		days := fs.Int("days", current.DaysPerPreservationToken, "Streak days per token")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if err := tr.SetPreservationTokens(*enable, *days); err != nil {
			return err
		}
		fmt.Fprintf(out, "✓ Tokens %v, one every %d streak days\n", *enable, *days)
		return nil
	}

	return fmt.Errorf("unknown tokens command: %s", sub)
}

// VacationCommand starts, ends, or shows vacation mode
func VacationCommand(tr *tracker.Tracker, out io.Writer, args []string) error {
	sub := "status"
	if len(args) > 0 {
		sub, args = args[0], args[1:]
	}

	switch sub {
	case "status":
		info := tr.Streak()
		if !info.HasActiveVacation {
			fmt.Fprintln(out, "Not on vacation")
			return nil
		}
		if info.VacationDaysRemaining != nil {
			fmt.Fprintf(out, "On vacation, %d day(s) remaining\n", *info.VacationDaysRemaining)
		} else {
			fmt.Fprintln(out, "On vacation, open-ended")
		}
		return nil

	case "start":
		fs := flag.NewFlagSet("vacation start", flag.ContinueOnError)
		from := fs.String("from", "", "First vacation day (default: today)")
		until := fs.String("until", "", "Last vacation day (default: open-ended)")
		if err := fs.Parse(args); err != nil {
			return err
		}

		loc := tr.Now().Location()
		start := tr.Now()
		if *from != "" {
			d, err := importer.ParseDate(*from, loc)
			if err != nil {
				return fmt.Errorf("invalid --from: %w", err)
			}
			start = d
		}
		var end *time.Time
		if *until != "" {
			d, err := importer.ParseDate(*until, loc)
			if err != nil {
				return fmt.Errorf("invalid --until: %w", err)
			}
			end = &d
		}
		if err := tr.SetVacation(start, end); err != nil {
			return fmt.Errorf("failed to start vacation: %w", err)
		}
		fmt.Fprintln(out, "✓ Vacation mode on. Your streak is paused.")
		return nil

	case "end":
		if err := tr.EndVacation(); err != nil {
			return fmt.Errorf("failed to end vacation: %w", err)
		}
		fmt.Fprintln(out, "✓ Vacation mode off")
		return nil
	}

	return fmt.Errorf("unknown vacation command: %s", sub)
}

// VocabCommand lists, adds, or removes channels or offer types
func VocabCommand(tr *tracker.Tracker, kind string, out io.Writer, args []string) error {
	var add, remove func(string) error
	var list func() []string
	switch kind {
	case "channels":
		add, remove = tr.AddChannel, tr.RemoveChannel
		list = func() []string { return tr.Settings().Channels }
	case "types":
		add, remove = tr.AddOfferType, tr.RemoveOfferType
		list = func() []string { return tr.Settings().OfferTypes }
	default:
		return fmt.Errorf("unknown vocabulary: %s", kind)
	}

	if len(args) == 0 || args[0] == "list" {
		for _, v := range list() {
			fmt.Fprintln(out, v)
		}
		return nil
	}
	if len(args) < 2 {
		return fmt.Errorf("usage: offertrack %s add|remove <name>", kind)
	}

	name := strings.Join(args[1:], " ")
	switch args[0] {
	case "add":
		if err := add(name); err != nil {
			return err
		}
		fmt.Fprintf(out, "✓ Added %q\n", name)
	case "remove":
		if err := remove(name); err != nil {
			return err
		}
		fmt.Fprintf(out, "✓ Removed %q\n", name)
	default:
		return fmt.Errorf("unknown %s command: %s", kind, args[0])
	}
	return nil
}
