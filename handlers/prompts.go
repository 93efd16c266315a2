// ABOUTME: MCP prompt handlers for offer coaching conversations
// ABOUTME: Builds daily briefing, follow-up plan, and offer review prompts from live data
package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/harperreed/offertrack/models"
	"github.com/harperreed/offertrack/tracker"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type PromptHandlers struct {
	tr *tracker.Tracker
}

func NewPromptHandlers(tr *tracker.Tracker) *PromptHandlers {
	return &PromptHandlers{tr: tr}
}

// Prompts lists the prompt definitions served by GetPrompt.
func (h *PromptHandlers) Prompts() []*mcp.Prompt {
	return []*mcp.Prompt{
		{
			Name:        "daily-briefing",
			Description: "Today's streak, goal pacing, and overdue follow-ups with suggested focus",
		},
		{
			Name:        "followup-plan",
			Description: "Prioritized plan for upcoming follow-ups",
			Arguments: []*mcp.PromptArgument{
				{Name: "within_days", Description: "Look-ahead window in days (default 7)"},
			},
		},
		{
			Name:        "offer-review",
			Description: "Review a single offer and suggest next steps",
			Arguments: []*mcp.PromptArgument{
				{Name: "offer_id", Description: "Offer ID or unique prefix", Required: true},
			},
		},
	}
}

// GetPrompt generates the prompt message based on the template
func (h *PromptHandlers) GetPrompt(ctx context.Context, request *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	name := request.Params.Name
	arguments := request.Params.Arguments
	switch name {
	case "daily-briefing":
		return h.getDailyBriefingPrompt()
	case "followup-plan":
		return h.getFollowupPlanPrompt(arguments)
	case "offer-review":
		return h.getOfferReviewPrompt(arguments)
	default:
		return nil, fmt.Errorf("unknown prompt: %s", name)
	}
}

func userPrompt(description, text string) *mcp.GetPromptResult {
	return &mcp.GetPromptResult{
		Description: description,
		Messages: []*mcp.PromptMessage{
			{
				Role:    "user",
				Content: &mcp.TextContent{Text: text},
			},
		},
	}
}

func (h *PromptHandlers) getDailyBriefingPrompt() (*mcp.GetPromptResult, error) {
	now := h.tr.Now()
	info := h.tr.Streak()
	pacing := h.tr.Pacing()
	due := h.tr.DueFollowups(0)

	var promptText strings.Builder
	promptText.WriteString(fmt.Sprintf("Offer tracking briefing for %s:\n\n", now.Format("Monday, January 2")))
	promptText.WriteString(fmt.Sprintf("Current streak: %d day(s)\n", info.Current))
	if len(info.Badges) > 0 {
		promptText.WriteString(fmt.Sprintf("Badges: %s\n", strings.Join(info.Badges, ", ")))
	}
	if info.HasActiveVacation {
		promptText.WriteString("Vacation mode is active.\n")
	}
	promptText.WriteString(fmt.Sprintf("Offers today: %d of %d\n", countOn(h.tr.Offers(), now), pacing.DailyGoal))
	promptText.WriteString(fmt.Sprintf("Month: %d of %d offers, expected %d by now (%s)\n",
		pacing.OffersThisMonth, pacing.MonthlyGoal, pacing.CurrentExpectedGoal, pacing.Status))
	promptText.WriteString(fmt.Sprintf("Forecast: %d by month end; %d per remaining day needed\n",
		pacing.ForecastTotal, pacing.DailyNeeded))

	promptText.WriteString("\nFollow-ups due:\n")
	if len(due) == 0 {
		promptText.WriteString("None.\n")
	}
	for _, d := range due {
		state := "due today"
		if d.Overdue {
			state = "overdue since " + d.Followup.Date.Format("Jan 2")
		}
		promptText.WriteString(fmt.Sprintf("- %s via %s (%s) %s\n", d.Offer.OfferType, d.Offer.Channel, d.Offer.ID.String()[:8], state))
	}

	promptText.WriteString("\nPlease:")
	promptText.WriteString("\n1. Summarize where I stand against my goal")
	promptText.WriteString("\n2. Tell me how many offers I should aim for today")
	promptText.WriteString("\n3. Order the follow-ups by urgency")

	return userPrompt("Daily offer briefing", promptText.String()), nil
}

func (h *PromptHandlers) getFollowupPlanPrompt(args map[string]string) (*mcp.GetPromptResult, error) {
	within := 7
	if v, ok := args["within_days"]; ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid within_days: %q", v)
		}
		within = n
	}

	due := h.tr.DueFollowups(within)

	var promptText strings.Builder
	promptText.WriteString(fmt.Sprintf("Follow-ups due in the next %d day(s):\n\n", within))
	if len(due) == 0 {
		promptText.WriteString("Nothing is scheduled.\n")
	}
	for _, d := range due {
		promptText.WriteString(fmt.Sprintf("- %s: %s via %s, offered %s",
			d.Followup.Date.Format("2006-01-02"), d.Offer.OfferType, d.Offer.Channel, d.Offer.Date.Format("2006-01-02")))
		if d.Overdue {
			promptText.WriteString(" [OVERDUE]")
		}
		if d.Followup.Notes != "" {
			promptText.WriteString(" - " + d.Followup.Notes)
		}
		promptText.WriteString("\n")
	}

	promptText.WriteString("\nPlease:")
	promptText.WriteString("\n1. Group these into a day-by-day plan")
	promptText.WriteString("\n2. Suggest what to say for each follow-up")
	promptText.WriteString("\n3. Flag any that are unlikely to convert")

	return userPrompt("Follow-up plan", promptText.String()), nil
}

func (h *PromptHandlers) getOfferReviewPrompt(args map[string]string) (*mcp.GetPromptResult, error) {
	ref, ok := args["offer_id"]
	if !ok {
		return nil, fmt.Errorf("offer_id is required")
	}
	id, err := h.tr.ResolveID(ref)
	if err != nil {
		return nil, fmt.Errorf("invalid offer_id: %w", err)
	}
	o, err := h.tr.GetOffer(id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch offer: %w", err)
	}

	now := h.tr.Now()
	var promptText strings.Builder
	promptText.WriteString(fmt.Sprintf("Offer: %s via %s on %s\n", o.OfferType, o.Channel, o.Date.Format("2006-01-02")))
	if o.CaseNumber != "" {
		promptText.WriteString(fmt.Sprintf("Case: %s\n", o.CaseNumber))
	}
	promptText.WriteString(fmt.Sprintf("Status: %s\n", statusName(o, now)))
	if o.CSAT != "" {
		promptText.WriteString(fmt.Sprintf("CSAT: %s", o.CSAT))
		if o.CSATComment != "" {
			promptText.WriteString(fmt.Sprintf(" (%s)", o.CSATComment))
		}
		promptText.WriteString("\n")
	}
	if o.Notes != "" {
		promptText.WriteString(fmt.Sprintf("Notes: %s\n", o.Notes))
	}
	promptText.WriteString(fmt.Sprintf("Follow-ups: %d of %d completed\n", o.CompletedFollowups(), len(o.Followups)))
	if next := o.CurrentFollowup(); next != nil {
		promptText.WriteString(fmt.Sprintf("Next follow-up: %s\n", next.Date.Format("2006-01-02")))
	}

	promptText.WriteString("\nPlease:")
	promptText.WriteString("\n1. Assess how likely this offer is to convert")
	promptText.WriteString("\n2. Recommend the next action and when to take it")

	return userPrompt(fmt.Sprintf("Review of offer %s", shortID(o)), promptText.String()), nil
}

func shortID(o models.Offer) string {
	return o.ID.String()[:8]
}
