// ABOUTME: Follow-up MCP tool handlers
// ABOUTME: Implements add_followup, complete_followup, and list_due_followups tools
package handlers

import (
	"context"
	"fmt"

	"github.com/harperreed/offertrack/importer"
	"github.com/harperreed/offertrack/tracker"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type FollowupHandlers struct {
	tr *tracker.Tracker
}

func NewFollowupHandlers(tr *tracker.Tracker) *FollowupHandlers {
	return &FollowupHandlers{tr: tr}
}

type AddFollowupInput struct {
	OfferID string `json:"offer_id" jsonschema:"Offer ID or unique ID prefix (required)"`
	Date    string `json:"date" jsonschema:"Follow-up date, YYYY-MM-DD (required)"`
	Notes   string `json:"notes,omitempty" jsonschema:"What to follow up on"`
}

func (h *FollowupHandlers) AddFollowup(_ context.Context, request *mcp.CallToolRequest, input AddFollowupInput) (*mcp.CallToolResult, FollowupOutput, error) {
	if input.Date == "" {
		return nil, FollowupOutput{}, fmt.Errorf("date is required")
	}
	id, err := h.tr.ResolveID(input.OfferID)
	if err != nil {
		return nil, FollowupOutput{}, fmt.Errorf("invalid offer_id: %w", err)
	}
	date, err := importer.ParseDate(input.Date, h.tr.Now().Location())
	if err != nil {
		return nil, FollowupOutput{}, fmt.Errorf("invalid date: %w", err)
	}

	f, err := h.tr.AddFollowup(id, date, input.Notes)
	if err != nil {
		return nil, FollowupOutput{}, fmt.Errorf("failed to add follow-up: %w", err)
	}
	return nil, followupToOutput(f), nil
}

type CompleteFollowupInput struct {
	OfferID    string `json:"offer_id" jsonschema:"Offer ID or unique ID prefix (required)"`
	FollowupID string `json:"followup_id,omitempty" jsonschema:"Follow-up ID (default: the offer's next open follow-up)"`
}

func (h *FollowupHandlers) CompleteFollowup(_ context.Context, request *mcp.CallToolRequest, input CompleteFollowupInput) (*mcp.CallToolResult, FollowupOutput, error) {
	id, err := h.tr.ResolveID(input.OfferID)
	if err != nil {
		return nil, FollowupOutput{}, fmt.Errorf("invalid offer_id: %w", err)
	}
	f, err := h.tr.CompleteFollowup(id, input.FollowupID)
	if err != nil {
		return nil, FollowupOutput{}, fmt.Errorf("failed to complete follow-up: %w", err)
	}
	return nil, followupToOutput(f), nil
}

type ListDueFollowupsInput struct {
	WithinDays int `json:"within_days,omitempty" jsonschema:"Include follow-ups due within this many days (default 0: overdue and today)"`
}

type DueFollowupOutput struct {
	OfferID   string         `json:"offer_id"`
	OfferType string         `json:"offer_type"`
	Channel   string         `json:"channel"`
	Followup  FollowupOutput `json:"followup"`
	Overdue   bool           `json:"overdue"`
}

type ListDueFollowupsOutput struct {
	Followups []DueFollowupOutput `json:"followups"`
	Overdue   int                 `json:"overdue"`
}

func (h *FollowupHandlers) ListDueFollowups(_ context.Context, request *mcp.CallToolRequest, input ListDueFollowupsInput) (*mcp.CallToolResult, ListDueFollowupsOutput, error) {
	if input.WithinDays < 0 {
		return nil, ListDueFollowupsOutput{}, fmt.Errorf("within_days must not be negative")
	}

	out := ListDueFollowupsOutput{Followups: []DueFollowupOutput{}}
	for _, d := range h.tr.DueFollowups(input.WithinDays) {
		out.Followups = append(out.Followups, DueFollowupOutput{
			OfferID:   d.Offer.ID.String(),
			OfferType: d.Offer.OfferType,
			Channel:   d.Offer.Channel,
			Followup:  followupToOutput(d.Followup),
			Overdue:   d.Overdue,
		})
		if d.Overdue {
			out.Overdue++
		}
	}
	return nil, out, nil
}
