// ABOUTME: Streak, goal pacing, metrics, and preservation token MCP handlers
// ABOUTME: All figures are derived from the current offer snapshot on each call
package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/harperreed/offertrack/goals"
	"github.com/harperreed/offertrack/metrics"
	"github.com/harperreed/offertrack/models"
	"github.com/harperreed/offertrack/streak"
	"github.com/harperreed/offertrack/tracker"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type StatsHandlers struct {
	tr *tracker.Tracker
}

func NewStatsHandlers(tr *tracker.Tracker) *StatsHandlers {
	return &StatsHandlers{tr: tr}
}

// EmptyInput is used by tools that take no arguments.
type EmptyInput struct{}

type StreakOutput struct {
	Current               int      `json:"current"`
	Badges                []string `json:"badges"`
	EarnedTokens          int      `json:"earned_tokens"`
	UnclaimedTokens       int      `json:"unclaimed_tokens"`
	TokenBalance          int      `json:"token_balance"`
	TokensEnabled         bool     `json:"tokens_enabled"`
	OnVacation            bool     `json:"on_vacation"`
	VacationDaysRemaining *int     `json:"vacation_days_remaining,omitempty"`
	OffersToday           int      `json:"offers_today"`
}

func (h *StatsHandlers) GetStreak(_ context.Context, request *mcp.CallToolRequest, input EmptyInput) (*mcp.CallToolResult, StreakOutput, error) {
	info := h.tr.Streak()
	settings := h.tr.Settings()

	unclaimed := info.PreservationTokens - settings.ClaimedTokens
	if unclaimed < 0 {
		unclaimed = 0
	}

	badges := info.Badges
	if badges == nil {
		badges = []string{}
	}

	return nil, StreakOutput{
		Current:               info.Current,
		Badges:                badges,
		EarnedTokens:          info.PreservationTokens,
		UnclaimedTokens:       unclaimed,
		TokenBalance:          settings.PreservationTokenBalance,
		TokensEnabled:         settings.Streak.EnablePreservationTokens,
		OnVacation:            info.HasActiveVacation,
		VacationDaysRemaining: info.VacationDaysRemaining,
		OffersToday:           countOn(h.tr.Offers(), h.tr.Now()),
	}, nil
}

type WeekdayForecast struct {
	Day     string  `json:"day"`
	Average float64 `json:"average"`
	Samples int     `json:"samples"`
}

type PacingOutput struct {
	Pacing   goals.Pacing      `json:"pacing"`
	Weekdays []WeekdayForecast `json:"weekdays"`
}

func (h *StatsHandlers) GetGoalPacing(_ context.Context, request *mcp.CallToolRequest, input EmptyInput) (*mcp.CallToolResult, PacingOutput, error) {
	out := PacingOutput{Pacing: h.tr.Pacing()}

	averages := goals.DayOfWeekAverages(h.tr.Offers(), h.tr.Now())
	for i, a := range averages {
		out.Weekdays = append(out.Weekdays, WeekdayForecast{
			Day:     time.Weekday(i).String(),
			Average: a.Average,
			Samples: a.Samples,
		})
	}
	return nil, out, nil
}

func (h *StatsHandlers) GetMetrics(_ context.Context, request *mcp.CallToolRequest, input EmptyInput) (*mcp.CallToolResult, metrics.Summary, error) {
	return nil, h.tr.Metrics(), nil
}

type ClaimTokensOutput struct {
	Claimed int `json:"claimed"`
	Balance int `json:"balance"`
}

func (h *StatsHandlers) ClaimTokens(_ context.Context, request *mcp.CallToolRequest, input EmptyInput) (*mcp.CallToolResult, ClaimTokensOutput, error) {
	if !h.tr.Settings().Streak.EnablePreservationTokens {
		return nil, ClaimTokensOutput{}, fmt.Errorf("preservation tokens are disabled")
	}
	claimed, err := h.tr.ClaimTokens()
	if err != nil {
		return nil, ClaimTokensOutput{}, fmt.Errorf("failed to claim tokens: %w", err)
	}
	return nil, ClaimTokensOutput{
		Claimed: claimed,
		Balance: h.tr.Settings().PreservationTokenBalance,
	}, nil
}

type UsePreservationTokenInput struct {
	BrokenStreak int `json:"broken_streak" jsonschema:"Length of the streak that was lost (required)"`
}

func (h *StatsHandlers) UsePreservationToken(_ context.Context, request *mcp.CallToolRequest, input UsePreservationTokenInput) (*mcp.CallToolResult, streak.TokenResult, error) {
	if input.BrokenStreak < 0 {
		return nil, streak.TokenResult{}, fmt.Errorf("broken_streak must not be negative")
	}
	result, err := h.tr.UsePreservationToken(input.BrokenStreak)
	if err != nil {
		return nil, streak.TokenResult{}, fmt.Errorf("failed to use token: %w", err)
	}
	return nil, result, nil
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
