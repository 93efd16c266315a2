// ABOUTME: Visualization MCP handlers
// ABOUTME: Provides the conversion funnel graph and text dashboard for agents
package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/harperreed/offertrack/tracker"
	"github.com/harperreed/offertrack/viz"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type VizHandlers struct {
	tr *tracker.Tracker
}

func NewVizHandlers(tr *tracker.Tracker) *VizHandlers {
	return &VizHandlers{tr: tr}
}

type GenerateFunnelOutput struct {
	DOTSource string `json:"dot_source"`
	Offers    int    `json:"offers"`
	EdgeCount int    `json:"edge_count"`
}

func (h *VizHandlers) GenerateFunnel(ctx context.Context, request *mcp.CallToolRequest, input EmptyInput) (*mcp.CallToolResult, GenerateFunnelOutput, error) {
	offers := h.tr.Offers()
	dot, err := viz.GenerateFunnelGraph(ctx, offers, h.tr.Now())
	if err != nil {
		return nil, GenerateFunnelOutput{}, fmt.Errorf("failed to generate funnel: %w", err)
	}

	return nil, GenerateFunnelOutput{
		DOTSource: dot,
		Offers:    len(offers),
		EdgeCount: strings.Count(dot, "->"),
	}, nil
}

type DashboardOutput struct {
	Text string `json:"text"`
}

func (h *VizHandlers) GetDashboard(_ context.Context, request *mcp.CallToolRequest, input EmptyInput) (*mcp.CallToolResult, DashboardOutput, error) {
	stats := viz.GenerateDashboardStats(h.tr)
	return nil, DashboardOutput{Text: viz.RenderDashboard(stats)}, nil
}
