// ABOUTME: Follow-up tracking CLI commands
// ABOUTME: Commands for scheduling, completing, and listing offer follow-ups
package cli

import (
	"flag"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/harperreed/offertrack/importer"
	"github.com/harperreed/offertrack/models"
	"github.com/harperreed/offertrack/tracker"
)

// FollowupAddCommand schedules a follow-up for an offer
func FollowupAddCommand(tr *tracker.Tracker, out io.Writer, args []string) error {
	ref, rest := splitID(args)

	fs := flag.NewFlagSet("followup add", flag.ContinueOnError)
	date := fs.String("date", "", "Follow-up date (default: --in days from today)")
	in := fs.Int("in", 7, "Days from today when --date is not given")
	notes := fs.String("notes", "", "What to follow up on")
	if err := fs.Parse(rest); err != nil {
		return err
	}

	id, err := resolveArg(tr, ref, "offertrack followup add <offer-id> [--date D | --in N] [--notes N]")
	if err != nil {
		return err
	}

	when := tr.Now().AddDate(0, 0, *in)
	if *date != "" {
		when, err = importer.ParseDate(*date, tr.Now().Location())
		if err != nil {
			return fmt.Errorf("invalid --date: %w", err)
		}
	}

	f, err := tr.AddFollowup(id, when, *notes)
	if err != nil {
		return fmt.Errorf("failed to add follow-up: %w", err)
	}
	fmt.Fprintf(out, "✓ Follow-up %s scheduled for %s\n", f.ID, f.Date.Format("Mon 2006-01-02"))
	return nil
}

// FollowupDoneCommand completes an offer's follow-up
func FollowupDoneCommand(tr *tracker.Tracker, out io.Writer, args []string) error {
	ref, rest := splitID(args)

	fs := flag.NewFlagSet("followup done", flag.ContinueOnError)
	followupID := fs.String("followup", "", "Follow-up ID (default: the next open one)")
	if err := fs.Parse(rest); err != nil {
		return err
	}

	id, err := resolveArg(tr, ref, "offertrack followup done <offer-id> [--followup ID]")
	if err != nil {
		return err
	}

	f, err := tr.CompleteFollowup(id, *followupID)
	if err != nil {
		return fmt.Errorf("failed to complete follow-up: %w", err)
	}
	fmt.Fprintf(out, "✓ Completed follow-up due %s\n", f.Date.Format("2006-01-02"))

	o, err := tr.GetOffer(id)
	if err == nil {
		if next := o.CurrentFollowup(); next != nil {
			fmt.Fprintf(out, "  Next follow-up: %s\n", next.Date.Format("2006-01-02"))
		}
	}
	return nil
}

// FollowupListCommand lists overdue and upcoming follow-ups
func FollowupListCommand(tr *tracker.Tracker, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("followup list", flag.ContinueOnError)
	within := fs.Int("within", 7, "Include follow-ups due within this many days")
	overdueOnly := fs.Bool("overdue-only", false, "Show only overdue follow-ups")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *within < 0 {
		return fmt.Errorf("--within must not be negative")
	}

	due := tr.DueFollowups(*within)
	today := models.StartOfDay(tr.Now())

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "DUE\tOFFER\tTYPE\tCHANNEL\tNOTES")
	_, _ = fmt.Fprintln(w, "---\t-----\t----\t-------\t-----")

	shown := 0
	for _, d := range due {
		if *overdueOnly && !d.Overdue {
			continue
		}
		_, _ = fmt.Fprintf(w, "%s %s\t%s\t%s\t%s\t%s\n",
			indicator(d, today),
			d.Followup.Date.Format("2006-01-02"),
			d.Offer.ID.String()[:8],
			d.Offer.OfferType,
			d.Offer.Channel,
			d.Followup.Notes,
		)
		shown++
	}

	_ = w.Flush()
	if shown == 0 {
		fmt.Fprintln(out, "No follow-ups due")
	}
	return nil
}

func indicator(d tracker.DueFollowup, today time.Time) string {
	switch {
	case d.Overdue:
		return "🔴"
	case models.SameDay(d.Followup.Date, today):
		return "🟡"
	}
	return "🟢"
}
