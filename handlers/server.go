// ABOUTME: MCP server assembly
// ABOUTME: Registers every offertrack tool, resource, and prompt on one server
package handlers

import (
	"github.com/harperreed/offertrack/tracker"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// NewServer builds an MCP server exposing the tracker.
func NewServer(tr *tracker.Tracker, version string) *mcp.Server {
	offerHandlers := NewOfferHandlers(tr)
	followupHandlers := NewFollowupHandlers(tr)
	statsHandlers := NewStatsHandlers(tr)
	settingsHandlers := NewSettingsHandlers(tr)
	vizHandlers := NewVizHandlers(tr)
	resourceHandlers := NewResourceHandlers(tr)
	promptHandlers := NewPromptHandlers(tr)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "offertrack",
		Version: version,
	}, nil)

	// Offers
	mcp.AddTool(server, &mcp.Tool{
		Name:        "log_offer",
		Description: "Log an offer made to a customer, optionally with outcome and a follow-up date",
	}, offerHandlers.LogOffer)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_offer",
		Description: "Update an offer's details or record whether it converted",
	}, offerHandlers.UpdateOffer)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_offers",
		Description: "List offers newest first, filtered by channel, type, status, or date",
	}, offerHandlers.ListOffers)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "delete_offer",
		Description: "Delete an offer and its follow-ups",
	}, offerHandlers.DeleteOffer)

	// Follow-ups
	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_followup",
		Description: "Schedule a follow-up for an offer",
	}, followupHandlers.AddFollowup)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "complete_followup",
		Description: "Mark an offer's follow-up as done",
	}, followupHandlers.CompleteFollowup)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_due_followups",
		Description: "List overdue follow-ups and those due within a window",
	}, followupHandlers.ListDueFollowups)

	// Streak, goals, and metrics
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_streak",
		Description: "Current offer streak, badges, and preservation tokens",
	}, statsHandlers.GetStreak)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_goal_pacing",
		Description: "Monthly goal progress, forecast, and daily pace needed",
	}, statsHandlers.GetGoalPacing)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_metrics",
		Description: "Conversion, CSAT, and follow-up statistics with channel and type breakdowns",
	}, statsHandlers.GetMetrics)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "claim_tokens",
		Description: "Credit preservation tokens earned by the current streak",
	}, statsHandlers.ClaimTokens)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "use_preservation_token",
		Description: "Spend a preservation token to restore a broken streak",
	}, statsHandlers.UsePreservationToken)

	// Settings
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_settings",
		Description: "Show daily goal, workdays, vocabularies, tokens, and vacation settings",
	}, settingsHandlers.GetSettings)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_settings",
		Description: "Change daily goal, workdays, token rules, vacation mode, or vocabularies",
	}, settingsHandlers.UpdateSettings)

	// Visualization
	mcp.AddTool(server, &mcp.Tool{
		Name:        "generate_funnel",
		Description: "GraphViz DOT source of the channel to offer type to outcome funnel",
	}, vizHandlers.GenerateFunnel)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_dashboard",
		Description: "Plain-text dashboard of streak, pacing, conversion, and follow-ups",
	}, vizHandlers.GetDashboard)

	// Resources
	for _, r := range []*mcp.Resource{
		{URI: URIScheme + "offers", Name: "offers", Description: "All offers, newest first", MIMEType: "application/json"},
		{URI: URIScheme + "settings", Name: "settings", Description: "User settings", MIMEType: "application/json"},
		{URI: URIScheme + "summary", Name: "summary", Description: "Streak, pacing, metrics, and overdue follow-ups", MIMEType: "application/json"},
	} {
		server.AddResource(r, resourceHandlers.ReadResource)
	}
	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: URIScheme + "offers/{id}",
		Name:        "offer",
		Description: "A single offer by ID or unique prefix",
		MIMEType:    "application/json",
	}, resourceHandlers.ReadResource)

	// Prompts
	for _, p := range promptHandlers.Prompts() {
		server.AddPrompt(p, promptHandlers.GetPrompt)
	}

	return server
}
