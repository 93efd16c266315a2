// ABOUTME: Offer CLI commands
// ABOUTME: Log, list, show, update, convert, and delete offers
package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/offertrack/importer"
	"github.com/harperreed/offertrack/metrics"
	"github.com/harperreed/offertrack/models"
	"github.com/harperreed/offertrack/tracker"
)

// splitID peels a leading offer ID off args so flags may follow it.
func splitID(args []string) (string, []string) {
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		return args[0], args[1:]
	}
	return "", args
}

func resolveArg(tr *tracker.Tracker, ref, usage string) (uuid.UUID, error) {
	if ref == "" {
		return uuid.Nil, fmt.Errorf("usage: %s", usage)
	}
	id, err := tr.ResolveID(ref)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid offer ID %q: %w", ref, err)
	}
	return id, nil
}

// parseYesNo reads yes/no/true/false; empty means unset.
func parseYesNo(s string) (*bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return nil, nil
	case "y", "yes", "true", "1":
		v := true
		return &v, nil
	case "n", "no", "false", "0":
		v := false
		return &v, nil
	}
	return nil, fmt.Errorf("expected yes or no, got %q", s)
}

// AddOfferCommand logs a new offer
func AddOfferCommand(tr *tracker.Tracker, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	offerType := fs.String("type", "", "Offer type (required)")
	channel := fs.String("channel", "", "Channel the offer was made through (required)")
	date := fs.String("date", "", "When the offer was made (default: now)")
	caseNumber := fs.String("case", "", "Case or ticket number")
	notes := fs.String("notes", "", "Notes")
	csat := fs.String("csat", "", "Customer satisfaction: positive, neutral, negative")
	csatComment := fs.String("csat-comment", "", "Customer satisfaction comment")
	converted := fs.String("converted", "", "Outcome: yes or no")
	followup := fs.String("followup", "", "Schedule a follow-up on this date")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *offerType == "" || *channel == "" {
		return fmt.Errorf("--type and --channel are required")
	}

	loc := tr.Now().Location()
	offer := models.Offer{
		OfferType:   *offerType,
		Channel:     *channel,
		CaseNumber:  *caseNumber,
		Notes:       *notes,
		CSAT:        *csat,
		CSATComment: *csatComment,
	}
	if *date != "" {
		d, err := importer.ParseDate(*date, loc)
		if err != nil {
			return fmt.Errorf("invalid --date: %w", err)
		}
		offer.Date = d
	}
	outcome, err := parseYesNo(*converted)
	if err != nil {
		return fmt.Errorf("invalid --converted: %w", err)
	}
	offer.Converted = outcome

	var followupDate time.Time
	if *followup != "" {
		followupDate, err = importer.ParseDate(*followup, loc)
		if err != nil {
			return fmt.Errorf("invalid --followup: %w", err)
		}
	}

	created, err := tr.AddOffer(offer)
	if err != nil {
		return fmt.Errorf("failed to log offer: %w", err)
	}
	fmt.Fprintf(out, "✓ Logged %s offer via %s (ID: %s)\n", created.OfferType, created.Channel, created.ID.String()[:8])

	if !followupDate.IsZero() {
		if _, err := tr.AddFollowup(created.ID, followupDate, ""); err != nil {
			return fmt.Errorf("failed to schedule follow-up: %w", err)
		}
		fmt.Fprintf(out, "  Follow-up scheduled for %s\n", followupDate.Format("2006-01-02"))
	}

	info := tr.Streak()
	today := countOn(tr.Offers(), tr.Now())
	fmt.Fprintf(out, "  Today: %d/%d • Streak: %d\n", today, tr.Settings().DailyGoal, info.Current)
	return nil
}

// ListOffersCommand lists offers newest first
func ListOffersCommand(tr *tracker.Tracker, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	channel := fs.String("channel", "", "Filter by channel")
	offerType := fs.String("type", "", "Filter by offer type")
	status := fs.String("status", "", "Filter by status: pending, converted, not_converted")
	since := fs.String("since", "", "Only offers on or after this date")
	limit := fs.Int("limit", 20, "Maximum number of offers")
	if err := fs.Parse(args); err != nil {
		return err
	}

	now := tr.Now()
	var sinceDay time.Time
	if *since != "" {
		d, err := importer.ParseDate(*since, now.Location())
		if err != nil {
			return fmt.Errorf("invalid --since: %w", err)
		}
		sinceDay = models.StartOfDay(d)
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tDATE\tTYPE\tCHANNEL\tSTATUS\tCSAT\tNEXT FOLLOW-UP")
	_, _ = fmt.Fprintln(w, "--\t----\t----\t-------\t------\t----\t--------------")

	shown := 0
	for _, o := range tr.Offers() {
		if shown >= *limit {
			break
		}
		if *channel != "" && !strings.EqualFold(o.Channel, *channel) {
			continue
		}
		if *offerType != "" && !strings.EqualFold(o.OfferType, *offerType) {
			continue
		}
		if *status != "" && statusName(o, now) != *status {
			continue
		}
		if !sinceDay.IsZero() && o.Date.Before(sinceDay) {
			continue
		}

		next := ""
		if d := o.LegacyFollowupDate(); d != nil {
			next = d.Format("2006-01-02")
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			o.ID.String()[:8],
			o.Date.Format("2006-01-02 15:04"),
			o.OfferType,
			o.Channel,
			statusName(o, now),
			o.CSAT,
			next,
		)
		shown++
	}

	_ = w.Flush()
	if shown == 0 {
		fmt.Fprintln(out, "No offers found")
	}
	return nil
}

// ShowOfferCommand prints one offer with its follow-ups
func ShowOfferCommand(tr *tracker.Tracker, out io.Writer, args []string) error {
	ref, _ := splitID(args)
	id, err := resolveArg(tr, ref, "offertrack show <id>")
	if err != nil {
		return err
	}
	o, err := tr.GetOffer(id)
	if err != nil {
		return err
	}

	now := tr.Now()
	fmt.Fprintf(out, "Offer %s\n", o.ID)
	fmt.Fprintf(out, "  Date:       %s\n", o.Date.Format("Mon 2006-01-02 15:04"))
	fmt.Fprintf(out, "  Type:       %s\n", o.OfferType)
	fmt.Fprintf(out, "  Channel:    %s\n", o.Channel)
	if o.CaseNumber != "" {
		fmt.Fprintf(out, "  Case:       %s\n", o.CaseNumber)
	}
	fmt.Fprintf(out, "  Status:     %s\n", statusName(o, now))
	if o.ConversionDate != nil {
		fmt.Fprintf(out, "  Converted:  %s (%d days)\n", o.ConversionDate.Format("2006-01-02"), metrics.DaysBetween(o.Date, *o.ConversionDate))
	}
	if o.CSAT != "" {
		fmt.Fprintf(out, "  CSAT:       %s %s\n", o.CSAT, o.CSATComment)
	}
	if o.Notes != "" {
		fmt.Fprintf(out, "  Notes:      %s\n", o.Notes)
	}

	if len(o.Followups) > 0 {
		fmt.Fprintln(out, "\nFollow-ups:")
		for _, f := range o.Followups {
			mark := "[ ]"
			if f.Completed {
				mark = "[x]"
			}
			fmt.Fprintf(out, "  %s %s  %s  %s\n", mark, f.Date.Format("2006-01-02"), f.ID, f.Notes)
		}
	}
	return nil
}

// UpdateOfferCommand patches fields on an existing offer
func UpdateOfferCommand(tr *tracker.Tracker, out io.Writer, args []string) error {
	ref, rest := splitID(args)

	fs := flag.NewFlagSet("update", flag.ContinueOnError)
	offerType := fs.String("type", "", "New offer type")
	channel := fs.String("channel", "", "New channel")
	caseNumber := fs.String("case", "", "New case number")
	notes := fs.String("notes", "", "New notes")
	csat := fs.String("csat", "", "Customer satisfaction: positive, neutral, negative")
	csatComment := fs.String("csat-comment", "", "Customer satisfaction comment")
	converted := fs.String("converted", "", "Outcome: yes or no")
	if err := fs.Parse(rest); err != nil {
		return err
	}

	id, err := resolveArg(tr, ref, "offertrack update <id> [flags]")
	if err != nil {
		return err
	}

	var patch models.OfferPatch
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if set["type"] {
		patch.OfferType = offerType
	}
	if set["channel"] {
		patch.Channel = channel
	}
	if set["case"] {
		patch.CaseNumber = caseNumber
	}
	if set["notes"] {
		patch.Notes = notes
	}
	if set["csat"] {
		patch.CSAT = csat
	}
	if set["csat-comment"] {
		patch.CSATComment = csatComment
	}
	if set["converted"] {
		patch.Converted, err = parseYesNo(*converted)
		if err != nil {
			return fmt.Errorf("invalid --converted: %w", err)
		}
	}
	if len(set) == 0 {
		return fmt.Errorf("nothing to update")
	}

	updated, err := tr.UpdateOffer(id, patch)
	if err != nil {
		return fmt.Errorf("failed to update offer: %w", err)
	}
	fmt.Fprintf(out, "✓ Updated offer %s\n", updated.ID.String()[:8])
	return nil
}

// ConvertCommand records an offer's outcome
func ConvertCommand(tr *tracker.Tracker, out io.Writer, args []string) error {
	ref, rest := splitID(args)

	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	no := fs.Bool("no", false, "Record that the offer did not convert")
	if err := fs.Parse(rest); err != nil {
		return err
	}

	id, err := resolveArg(tr, ref, "offertrack convert <id> [--no]")
	if err != nil {
		return err
	}

	converted := !*no
	o, err := tr.UpdateOffer(id, models.OfferPatch{Converted: &converted})
	if err != nil {
		return fmt.Errorf("failed to record outcome: %w", err)
	}
	if converted {
		fmt.Fprintf(out, "✓ Offer %s converted\n", o.ID.String()[:8])
	} else {
		fmt.Fprintf(out, "✓ Offer %s marked not converted\n", o.ID.String()[:8])
	}
	return nil
}

// DeleteOfferCommand removes an offer
func DeleteOfferCommand(tr *tracker.Tracker, out io.Writer, args []string) error {
	ref, _ := splitID(args)
	id, err := resolveArg(tr, ref, "offertrack delete <id>")
	if err != nil {
		return err
	}
	if err := tr.DeleteOffer(id); err != nil {
		return fmt.Errorf("failed to delete offer: %w", err)
	}
	fmt.Fprintf(out, "✓ Deleted offer %s\n", id.String()[:8])
	return nil
}

func statusName(o models.Offer, now time.Time) string {
	switch metrics.ConversionStatusAt(o, now) {
	case metrics.ConversionConverted:
		return "converted"
	case metrics.ConversionNotConverted:
		return "not_converted"
	}
	return "pending"
}

func countOn(offers []models.Offer, day time.Time) int {
	n := 0
	for _, o := range offers {
		if models.SameDay(o.Date.In(day.Location()), day) {
			n++
		}
	}
	return n
}
