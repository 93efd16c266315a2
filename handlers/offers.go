// ABOUTME: Offer MCP tool handlers
// ABOUTME: Implements log_offer, update_offer, list_offers, and delete_offer tools
package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/harperreed/offertrack/importer"
	"github.com/harperreed/offertrack/metrics"
	"github.com/harperreed/offertrack/models"
	"github.com/harperreed/offertrack/tracker"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type OfferHandlers struct {
	tr *tracker.Tracker
}

func NewOfferHandlers(tr *tracker.Tracker) *OfferHandlers {
	return &OfferHandlers{tr: tr}
}

type LogOfferInput struct {
	OfferType    string `json:"offer_type" jsonschema:"Kind of offer made, e.g. upgrade or renewal (required)"`
	Channel      string `json:"channel" jsonschema:"Channel the offer was made through, e.g. phone, chat, email (required)"`
	Date         string `json:"date,omitempty" jsonschema:"When the offer was made (ISO 8601 or YYYY-MM-DD, default now)"`
	CaseNumber   string `json:"case_number,omitempty" jsonschema:"Support case or ticket number"`
	Notes        string `json:"notes,omitempty" jsonschema:"Free-form notes"`
	CSAT         string `json:"csat,omitempty" jsonschema:"Customer satisfaction: positive, neutral, or negative"`
	CSATComment  string `json:"csat_comment,omitempty" jsonschema:"Customer satisfaction comment"`
	Converted    *bool  `json:"converted,omitempty" jsonschema:"Whether the customer accepted the offer"`
	FollowupDate string `json:"followup_date,omitempty" jsonschema:"Schedule a follow-up on this date"`
}

type FollowupOutput struct {
	ID          string  `json:"id"`
	Date        string  `json:"date"`
	Notes       string  `json:"notes,omitempty"`
	Completed   bool    `json:"completed"`
	CompletedAt *string `json:"completed_at,omitempty"`
}

type OfferOutput struct {
	ID             string           `json:"id"`
	Date           string           `json:"date"`
	OfferType      string           `json:"offer_type"`
	Channel        string           `json:"channel"`
	CaseNumber     string           `json:"case_number,omitempty"`
	Notes          string           `json:"notes,omitempty"`
	CSAT           string           `json:"csat,omitempty"`
	CSATComment    string           `json:"csat_comment,omitempty"`
	Converted      *bool            `json:"converted,omitempty"`
	ConversionDate *string          `json:"conversion_date,omitempty"`
	Status         string           `json:"status"`
	NextFollowup   *string          `json:"next_followup,omitempty"`
	Followups      []FollowupOutput `json:"followups"`
}

func (h *OfferHandlers) LogOffer(_ context.Context, request *mcp.CallToolRequest, input LogOfferInput) (*mcp.CallToolResult, OfferOutput, error) {
	if input.OfferType == "" {
		return nil, OfferOutput{}, fmt.Errorf("offer_type is required")
	}
	if input.Channel == "" {
		return nil, OfferOutput{}, fmt.Errorf("channel is required")
	}

	now := h.tr.Now()
	offer := models.Offer{
		Date:        now,
		OfferType:   input.OfferType,
		Channel:     input.Channel,
		CaseNumber:  input.CaseNumber,
		Notes:       input.Notes,
		CSAT:        input.CSAT,
		CSATComment: input.CSATComment,
		Converted:   input.Converted,
	}
	if input.Date != "" {
		date, err := importer.ParseDate(input.Date, now.Location())
		if err != nil {
			return nil, OfferOutput{}, fmt.Errorf("invalid date: %w", err)
		}
		offer.Date = date
	}

	created, err := h.tr.AddOffer(offer)
	if err != nil {
		return nil, OfferOutput{}, fmt.Errorf("failed to log offer: %w", err)
	}

	if input.FollowupDate != "" {
		date, err := importer.ParseDate(input.FollowupDate, now.Location())
		if err != nil {
			return nil, OfferOutput{}, fmt.Errorf("offer logged but followup_date is invalid: %w", err)
		}
		if _, err := h.tr.AddFollowup(created.ID, date, ""); err != nil {
			return nil, OfferOutput{}, fmt.Errorf("failed to schedule follow-up: %w", err)
		}
		created, _ = h.tr.GetOffer(created.ID)
	}

	return nil, offerToOutput(created, now), nil
}

type UpdateOfferInput struct {
	ID          string  `json:"id" jsonschema:"Offer ID or unique ID prefix (required)"`
	OfferType   *string `json:"offer_type,omitempty" jsonschema:"New offer type"`
	Channel     *string `json:"channel,omitempty" jsonschema:"New channel"`
	CaseNumber  *string `json:"case_number,omitempty" jsonschema:"New case number"`
	Notes       *string `json:"notes,omitempty" jsonschema:"New notes"`
	CSAT        *string `json:"csat,omitempty" jsonschema:"Customer satisfaction: positive, neutral, or negative"`
	CSATComment *string `json:"csat_comment,omitempty" jsonschema:"Customer satisfaction comment"`
	Converted   *bool   `json:"converted,omitempty" jsonschema:"Record the conversion outcome"`
}

func (h *OfferHandlers) UpdateOffer(_ context.Context, request *mcp.CallToolRequest, input UpdateOfferInput) (*mcp.CallToolResult, OfferOutput, error) {
	id, err := h.tr.ResolveID(input.ID)
	if err != nil {
		return nil, OfferOutput{}, fmt.Errorf("invalid id: %w", err)
	}

	updated, err := h.tr.UpdateOffer(id, models.OfferPatch{
		OfferType:   input.OfferType,
		Channel:     input.Channel,
		CaseNumber:  input.CaseNumber,
		Notes:       input.Notes,
		CSAT:        input.CSAT,
		CSATComment: input.CSATComment,
		Converted:   input.Converted,
	})
	if err != nil {
		return nil, OfferOutput{}, fmt.Errorf("failed to update offer: %w", err)
	}

	return nil, offerToOutput(updated, h.tr.Now()), nil
}

type ListOffersInput struct {
	Channel   string `json:"channel,omitempty" jsonschema:"Only offers made through this channel"`
	OfferType string `json:"offer_type,omitempty" jsonschema:"Only offers of this type"`
	Status    string `json:"status,omitempty" jsonschema:"Only offers with this status: pending, converted, or not_converted"`
	Since     string `json:"since,omitempty" jsonschema:"Only offers made on or after this date"`
	Limit     int    `json:"limit,omitempty" jsonschema:"Maximum results (default 50)"`
}

type ListOffersOutput struct {
	Offers []OfferOutput `json:"offers"`
	Total  int           `json:"total"`
}

func (h *OfferHandlers) ListOffers(_ context.Context, request *mcp.CallToolRequest, input ListOffersInput) (*mcp.CallToolResult, ListOffersOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = 50
	}

	now := h.tr.Now()
	var since *time.Time
	if input.Since != "" {
		d, err := importer.ParseDate(input.Since, now.Location())
		if err != nil {
			return nil, ListOffersOutput{}, fmt.Errorf("invalid since: %w", err)
		}
		d = models.StartOfDay(d)
		since = &d
	}

	if input.Status != "" && !validStatus(input.Status) {
		return nil, ListOffersOutput{}, fmt.Errorf("invalid status: %s (valid: pending, converted, not_converted)", input.Status)
	}

	out := ListOffersOutput{Offers: []OfferOutput{}}
	for _, o := range h.tr.Offers() {
		if input.Channel != "" && !strings.EqualFold(o.Channel, input.Channel) {
			continue
		}
		if input.OfferType != "" && !strings.EqualFold(o.OfferType, input.OfferType) {
			continue
		}
		if input.Status != "" && statusName(o, now) != input.Status {
			continue
		}
		if since != nil && o.Date.Before(*since) {
			continue
		}
		out.Total++
		if len(out.Offers) < limit {
			out.Offers = append(out.Offers, offerToOutput(o, now))
		}
	}

	return nil, out, nil
}

type DeleteOfferInput struct {
	ID string `json:"id" jsonschema:"Offer ID or unique ID prefix (required)"`
}

type DeleteOfferOutput struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

func (h *OfferHandlers) DeleteOffer(_ context.Context, request *mcp.CallToolRequest, input DeleteOfferInput) (*mcp.CallToolResult, DeleteOfferOutput, error) {
	id, err := h.tr.ResolveID(input.ID)
	if err != nil {
		return nil, DeleteOfferOutput{}, fmt.Errorf("invalid id: %w", err)
	}
	if err := h.tr.DeleteOffer(id); err != nil {
		return nil, DeleteOfferOutput{}, fmt.Errorf("failed to delete offer: %w", err)
	}
	return nil, DeleteOfferOutput{ID: id.String(), Deleted: true}, nil
}

func validStatus(s string) bool {
	return s == "pending" || s == "converted" || s == "not_converted"
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

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}

func followupToOutput(f models.FollowupItem) FollowupOutput {
	return FollowupOutput{
		ID:          f.ID,
		Date:        f.Date.Format("2006-01-02"),
		Notes:       f.Notes,
		Completed:   f.Completed,
		CompletedAt: formatTime(f.CompletedAt),
	}
}

func offerToOutput(o models.Offer, now time.Time) OfferOutput {
	out := OfferOutput{
		ID:             o.ID.String(),
		Date:           o.Date.Format(time.RFC3339),
		OfferType:      o.OfferType,
		Channel:        o.Channel,
		CaseNumber:     o.CaseNumber,
		Notes:          o.Notes,
		CSAT:           o.CSAT,
		CSATComment:    o.CSATComment,
		Converted:      o.Converted,
		ConversionDate: formatTime(o.ConversionDate),
		Status:         statusName(o, now),
		Followups:      make([]FollowupOutput, 0, len(o.Followups)),
	}
	if d := o.LegacyFollowupDate(); d != nil {
		s := d.Format("2006-01-02")
		out.NextFollowup = &s
	}
	for _, f := range o.Followups {
		out.Followups = append(out.Followups, followupToOutput(f))
	}
	return out
}
