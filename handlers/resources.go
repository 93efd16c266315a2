// ABOUTME: MCP resource handlers for exposing offer data
// ABOUTME: Provides read-only JSON views of offers, settings, and the summary via URI
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/harperreed/offertrack/metrics"
	"github.com/harperreed/offertrack/tracker"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// URIScheme prefixes every resource URI.
const URIScheme = "offertrack://"

type ResourceHandlers struct {
	tr *tracker.Tracker
}

func NewResourceHandlers(tr *tracker.Tracker) *ResourceHandlers {
	return &ResourceHandlers{tr: tr}
}

// SummaryResource is the body of offertrack://summary.
type SummaryResource struct {
	Streak   StreakOutput        `json:"streak"`
	Pacing   PacingOutput        `json:"pacing"`
	Metrics  metrics.Summary     `json:"metrics"`
	Overdue  []DueFollowupOutput `json:"overdue"`
	Settings SettingsOutput      `json:"settings"`
}

// ReadResource handles resource read requests
func (h *ResourceHandlers) ReadResource(ctx context.Context, request *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := request.Params.URI
	if !strings.HasPrefix(uri, URIScheme) {
		return nil, fmt.Errorf("invalid URI scheme: expected %s", URIScheme)
	}

	path := strings.TrimPrefix(uri, URIScheme)
	parts := strings.Split(path, "/")

	switch parts[0] {
	case "offers":
		if len(parts) == 1 || parts[1] == "" {
			return h.readAllOffers(uri)
		}
		return h.readOffer(uri, parts[1])
	case "settings":
		return jsonResource(uri, settingsToOutput(h.tr.Settings()))
	case "summary":
		return h.readSummary(ctx, uri)
	default:
		return nil, fmt.Errorf("unknown resource: %s", parts[0])
	}
}

func (h *ResourceHandlers) readAllOffers(uri string) (*mcp.ReadResourceResult, error) {
	now := h.tr.Now()
	offers := h.tr.Offers()
	out := make([]OfferOutput, 0, len(offers))
	for _, o := range offers {
		out = append(out, offerToOutput(o, now))
	}
	return jsonResource(uri, out)
}

func (h *ResourceHandlers) readOffer(uri, ref string) (*mcp.ReadResourceResult, error) {
	id, err := h.tr.ResolveID(ref)
	if err != nil {
		return nil, fmt.Errorf("invalid offer ID: %w", err)
	}
	o, err := h.tr.GetOffer(id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch offer: %w", err)
	}
	return jsonResource(uri, offerToOutput(o, h.tr.Now()))
}

func (h *ResourceHandlers) readSummary(ctx context.Context, uri string) (*mcp.ReadResourceResult, error) {
	stats := NewStatsHandlers(h.tr)
	_, streakOut, err := stats.GetStreak(ctx, nil, EmptyInput{})
	if err != nil {
		return nil, err
	}
	_, pacing, err := stats.GetGoalPacing(ctx, nil, EmptyInput{})
	if err != nil {
		return nil, err
	}
	_, due, err := NewFollowupHandlers(h.tr).ListDueFollowups(ctx, nil, ListDueFollowupsInput{})
	if err != nil {
		return nil, err
	}

	overdue := []DueFollowupOutput{}
	for _, d := range due.Followups {
		if d.Overdue {
			overdue = append(overdue, d)
		}
	}

	return jsonResource(uri, SummaryResource{
		Streak:   streakOut,
		Pacing:   pacing,
		Metrics:  h.tr.Metrics(),
		Overdue:  overdue,
		Settings: settingsToOutput(h.tr.Settings()),
	})
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", uri, err)
	}

	return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
		{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}}, nil
}
