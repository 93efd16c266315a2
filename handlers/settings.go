// ABOUTME: Settings MCP tool handlers
// ABOUTME: Implements get_settings and update_settings for goals, workdays, tokens, and vacation
package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/harperreed/offertrack/importer"
	"github.com/harperreed/offertrack/models"
	"github.com/harperreed/offertrack/streak"
	"github.com/harperreed/offertrack/tracker"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type SettingsHandlers struct {
	tr *tracker.Tracker
}

func NewSettingsHandlers(tr *tracker.Tracker) *SettingsHandlers {
	return &SettingsHandlers{tr: tr}
}

type SettingsOutput struct {
	DailyGoal         int      `json:"daily_goal"`
	Channels          []string `json:"channels"`
	OfferTypes        []string `json:"offer_types"`
	Workdays          []string `json:"workdays"`
	CountWorkdaysOnly bool     `json:"count_workdays_only"`
	TokensEnabled     bool     `json:"tokens_enabled"`
	DaysPerToken      int      `json:"days_per_token"`
	TokenBalance      int      `json:"token_balance"`
	VacationActive    bool     `json:"vacation_active"`
	VacationStart     *string  `json:"vacation_start,omitempty"`
	VacationEnd       *string  `json:"vacation_end,omitempty"`
}

func settingsToOutput(s models.UserSettings) SettingsOutput {
	out := SettingsOutput{
		DailyGoal:         s.DailyGoal,
		Channels:          append([]string{}, s.Channels...),
		OfferTypes:        append([]string{}, s.OfferTypes...),
		Workdays:          make([]string, 0, len(s.Streak.Workdays)),
		CountWorkdaysOnly: s.Streak.CountWorkdaysOnly,
		TokensEnabled:     s.Streak.EnablePreservationTokens,
		DaysPerToken:      s.Streak.DaysPerPreservationToken,
		TokenBalance:      s.PreservationTokenBalance,
		VacationActive:    s.Streak.VacationMode.Active,
	}
	for _, d := range s.Streak.Workdays {
		out.Workdays = append(out.Workdays, time.Weekday(d).String())
	}
	if v := s.Streak.VacationMode; v.Active {
		out.VacationStart = formatDay(v.StartDate)
		out.VacationEnd = formatDay(v.EndDate)
	}
	return out
}

func formatDay(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format("2006-01-02")
	return &s
}

func (h *SettingsHandlers) GetSettings(_ context.Context, request *mcp.CallToolRequest, input EmptyInput) (*mcp.CallToolResult, SettingsOutput, error) {
	return nil, settingsToOutput(h.tr.Settings()), nil
}

type UpdateSettingsInput struct {
	DailyGoal         *int     `json:"daily_goal,omitempty" jsonschema:"Offers per day target"`
	Workdays          []string `json:"workdays,omitempty" jsonschema:"Working days by name or number (0=Sunday), e.g. [\"mon\",\"tue\"]"`
	CountWorkdaysOnly *bool    `json:"count_workdays_only,omitempty" jsonschema:"Only workdays count toward the streak"`
	TokensEnabled     *bool    `json:"tokens_enabled,omitempty" jsonschema:"Enable streak preservation tokens"`
	DaysPerToken      *int     `json:"days_per_token,omitempty" jsonschema:"Streak days needed to earn one token"`
	VacationStart     string   `json:"vacation_start,omitempty" jsonschema:"Start vacation mode on this date"`
	VacationEnd       string   `json:"vacation_end,omitempty" jsonschema:"Last day of vacation (optional)"`
	EndVacation       bool     `json:"end_vacation,omitempty" jsonschema:"Turn vacation mode off"`
	AddChannels       []string `json:"add_channels,omitempty" jsonschema:"Channels to add to the vocabulary"`
	RemoveChannels    []string `json:"remove_channels,omitempty" jsonschema:"Channels to remove from the vocabulary"`
	AddOfferTypes     []string `json:"add_offer_types,omitempty" jsonschema:"Offer types to add to the vocabulary"`
	RemoveOfferTypes  []string `json:"remove_offer_types,omitempty" jsonschema:"Offer types to remove from the vocabulary"`
}

func (h *SettingsHandlers) UpdateSettings(_ context.Context, request *mcp.CallToolRequest, input UpdateSettingsInput) (*mcp.CallToolResult, SettingsOutput, error) {
	if input.DailyGoal != nil {
		if err := h.tr.SetDailyGoal(*input.DailyGoal); err != nil {
			return nil, SettingsOutput{}, fmt.Errorf("failed to set daily goal: %w", err)
		}
	}

	if len(input.Workdays) > 0 {
		days, err := streak.ParseWeekdays(input.Workdays)
		if err != nil {
			return nil, SettingsOutput{}, err
		}
		if err := h.tr.SetWorkdays(days); err != nil {
			return nil, SettingsOutput{}, fmt.Errorf("failed to set workdays: %w", err)
		}
	}

	if input.CountWorkdaysOnly != nil {
		if err := h.tr.SetCountWorkdaysOnly(*input.CountWorkdaysOnly); err != nil {
			return nil, SettingsOutput{}, fmt.Errorf("failed to update streak settings: %w", err)
		}
	}

	if input.TokensEnabled != nil || input.DaysPerToken != nil {
		current := h.tr.Settings().Streak
		enabled, days := current.EnablePreservationTokens, current.DaysPerPreservationToken
		if input.TokensEnabled != nil {
			enabled = *input.TokensEnabled
		}
		if input.DaysPerToken != nil {
			days = *input.DaysPerToken
		}
		if err := h.tr.SetPreservationTokens(enabled, days); err != nil {
			return nil, SettingsOutput{}, fmt.Errorf("failed to update token settings: %w", err)
		}
	}

	loc := h.tr.Now().Location()
	switch {
	case input.EndVacation:
		if err := h.tr.EndVacation(); err != nil {
			return nil, SettingsOutput{}, fmt.Errorf("failed to end vacation: %w", err)
		}
	case input.VacationStart != "":
		start, err := importer.ParseDate(input.VacationStart, loc)
		if err != nil {
			return nil, SettingsOutput{}, fmt.Errorf("invalid vacation_start: %w", err)
		}
		var end *time.Time
		if input.VacationEnd != "" {
			e, err := importer.ParseDate(input.VacationEnd, loc)
			if err != nil {
				return nil, SettingsOutput{}, fmt.Errorf("invalid vacation_end: %w", err)
			}
			end = &e
		}
		if err := h.tr.SetVacation(start, end); err != nil {
			return nil, SettingsOutput{}, fmt.Errorf("failed to start vacation: %w", err)
		}
	}

	for _, c := range input.AddChannels {
		if err := h.tr.AddChannel(c); err != nil {
			return nil, SettingsOutput{}, err
		}
	}
	for _, c := range input.RemoveChannels {
		if err := h.tr.RemoveChannel(c); err != nil {
			return nil, SettingsOutput{}, err
		}
	}
	for _, t := range input.AddOfferTypes {
		if err := h.tr.AddOfferType(t); err != nil {
			return nil, SettingsOutput{}, err
		}
	}
	for _, t := range input.RemoveOfferTypes {
		if err := h.tr.RemoveOfferType(t); err != nil {
			return nil, SettingsOutput{}, err
		}
	}

	return nil, settingsToOutput(h.tr.Settings()), nil
}
