// ABOUTME: Data models for offer tracking entities
// ABOUTME: Defines Offer, FollowupItem, settings, and computed streak info
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// CSAT rating constants.
const (
	CSATPositive = "positive"
	CSATNeutral  = "neutral"
	CSATNegative = "negative"
)

type Offer struct {
	ID             uuid.UUID      `json:"id"`
	Date           time.Time      `json:"date" validate:"required"`
	Channel        string         `json:"channel" validate:"required"`
	OfferType      string         `json:"offerType" validate:"required"`
	CaseNumber     string         `json:"caseNumber,omitempty"`
	Notes          string         `json:"notes,omitempty"`
	CSAT           string         `json:"csat,omitempty" validate:"omitempty,oneof=positive neutral negative"`
	CSATComment    string         `json:"csatComment,omitempty"`
	Converted      *bool          `json:"converted,omitempty"`
	ConversionDate *time.Time     `json:"conversionDate,omitempty"`
	Followups      []FollowupItem `json:"followups,omitempty" validate:"dive"`
}

type FollowupItem struct {
	ID          string     `json:"id"`
	Date        time.Time  `json:"date" validate:"required"`
	Notes       string     `json:"notes,omitempty"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// CurrentFollowup returns the earliest incomplete follow-up, or nil.
func (o *Offer) CurrentFollowup() *FollowupItem {
	var current *FollowupItem
	for i := range o.Followups {
		f := &o.Followups[i]
		if f.Completed {
			continue
		}
		if current == nil || f.Date.Before(current.Date) {
			current = f
		}
	}
	return current
}

// LegacyFollowupDate derives the old single-date follow-up field for
// consumers that still expect it.
func (o *Offer) LegacyFollowupDate() *time.Time {
	if f := o.CurrentFollowup(); f != nil {
		d := f.Date
		return &d
	}
	return nil
}

// CompletedFollowups counts completed follow-up items.
func (o *Offer) CompletedFollowups() int {
	n := 0
	for _, f := range o.Followups {
		if f.Completed {
			n++
		}
	}
	return n
}

// OfferPatch carries a partial update. Nil fields are left untouched.
type OfferPatch struct {
	Channel     *string `json:"channel,omitempty"`
	OfferType   *string `json:"offerType,omitempty"`
	CaseNumber  *string `json:"caseNumber,omitempty"`
	Notes       *string `json:"notes,omitempty"`
	CSAT        *string `json:"csat,omitempty"`
	CSATComment *string `json:"csatComment,omitempty"`
	Converted   *bool   `json:"converted,omitempty"`
}

// Apply merges the patch into a copy of the offer. The first transition of
// Converted to true stamps ConversionDate with today; setting it false clears it.
func (p OfferPatch) Apply(o Offer, today time.Time) Offer {
	if p.Channel != nil {
		o.Channel = *p.Channel
	}
	if p.OfferType != nil {
		o.OfferType = *p.OfferType
	}
	if p.CaseNumber != nil {
		o.CaseNumber = *p.CaseNumber
	}
	if p.Notes != nil {
		o.Notes = *p.Notes
	}
	if p.CSAT != nil {
		o.CSAT = *p.CSAT
	}
	if p.CSATComment != nil {
		o.CSATComment = *p.CSATComment
	}
	if p.Converted != nil {
		converted := *p.Converted
		wasConverted := o.Converted != nil && *o.Converted
		o.Converted = &converted
		switch {
		case converted && !wasConverted:
			d := today
			o.ConversionDate = &d
		case !converted:
			o.ConversionDate = nil
		}
	}
	return o
}

// AllowanceTier lets a long streak survive a run of missed workdays.
type AllowanceTier struct {
	RequiredStreak    int `json:"requiredStreak"`
	AllowedMissedDays int `json:"allowedMissedDays"`
}

// MissedDaysAllowances are fixed; they are not user configurable.
var MissedDaysAllowances = []AllowanceTier{
	{RequiredStreak: 10, AllowedMissedDays: 5},
	{RequiredStreak: 20, AllowedMissedDays: 10},
}

type VacationMode struct {
	Active    bool       `json:"active"`
	StartDate *time.Time `json:"startDate,omitempty"`
	EndDate   *time.Time `json:"endDate,omitempty"`
}

type StreakSettings struct {
	CountWorkdaysOnly        bool         `json:"countWorkdaysOnly"`
	Workdays                 []int        `json:"workdays"`
	EnablePreservationTokens bool         `json:"enablePreservationTokens"`
	DaysPerPreservationToken int          `json:"daysPerPreservationToken"`
	VacationMode             VacationMode `json:"vacationMode"`
}

// HasWorkday reports whether the weekday (0 = Sunday) is configured.
func (s StreakSettings) HasWorkday(day time.Weekday) bool {
	for _, d := range s.Workdays {
		if d == int(day) {
			return true
		}
	}
	return false
}

type UserSettings struct {
	DailyGoal                int            `json:"dailyGoal"`
	Channels                 []string       `json:"channels"`
	OfferTypes               []string       `json:"offerTypes"`
	Streak                   StreakSettings `json:"streakSettings"`
	PreservationTokenBalance int            `json:"preservationTokenBalance"`
	ClaimedTokens            int            `json:"claimedTokens"`
}

// DefaultUserSettings returns settings for a fresh install.
func DefaultUserSettings() UserSettings {
	return UserSettings{
		DailyGoal:  5,
		Channels:   []string{"email", "phone", "chat"},
		OfferTypes: []string{"upgrade", "renewal", "add-on"},
		Streak: StreakSettings{
			CountWorkdaysOnly:        true,
			Workdays:                 []int{1, 2, 3, 4, 5},
			EnablePreservationTokens: true,
			DaysPerPreservationToken: 10,
		},
	}
}

// Badge names.
const (
	BadgeConsistent     = "Consistent"
	BadgeDedicated      = "Dedicated"
	BadgeProfessional   = "Professional"
	BadgeMaster         = "Master"
	BadgeLegend         = "Legend"
	BadgeOffDayHustler  = "Off-Day Hustler"
	BadgePerfectMonth   = "Perfect Month"
	BadgeSevenDayStreak = "Seven Day Streak"
)

// StreakInfo is derived on every read and never persisted.
type StreakInfo struct {
	Current               int      `json:"current"`
	PreservationTokens    int      `json:"preservationTokens"`
	Badges                []string `json:"badges"`
	HasActiveVacation     bool     `json:"hasActiveVacation"`
	VacationDaysRemaining *int     `json:"vacationDaysRemaining,omitempty"`
}

// HasBadge reports whether the badge was earned.
func (s StreakInfo) HasBadge(name string) bool {
	for _, b := range s.Badges {
		if b == name {
			return true
		}
	}
	return false
}

// SameDay reports whether a and b fall on the same calendar date in a's location.
func SameDay(a, b time.Time) bool {
	b = b.In(a.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// NewFollowupID returns a sortable identifier for a follow-up item.
func NewFollowupID() string {
	return ulid.Make().String()
}
