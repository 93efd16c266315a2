// ABOUTME: Tests for offer data models
// ABOUTME: Validates current follow-up selection and patch semantics
package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func boolPtr(b bool) *bool { return &b }

func TestCurrentFollowupPicksEarliestIncomplete(t *testing.T) {
	base := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	offer := &Offer{
		ID: uuid.New(),
		Followups: []FollowupItem{
			{ID: "a", Date: base.AddDate(0, 0, 5)},
			{ID: "b", Date: base.AddDate(0, 0, 1), Completed: true},
			{ID: "c", Date: base.AddDate(0, 0, 3)},
		},
	}

	current := offer.CurrentFollowup()
	if current == nil || current.ID != "c" {
		t.Fatalf("expected follow-up c, got %+v", current)
	}

	legacy := offer.LegacyFollowupDate()
	if legacy == nil || !legacy.Equal(base.AddDate(0, 0, 3)) {
		t.Errorf("expected legacy date to mirror current follow-up, got %v", legacy)
	}
	if offer.CompletedFollowups() != 1 {
		t.Errorf("expected 1 completed follow-up, got %d", offer.CompletedFollowups())
	}
}

func TestCurrentFollowupNoneWhenAllCompleted(t *testing.T) {
	offer := &Offer{Followups: []FollowupItem{{ID: "a", Completed: true}}}
	if offer.CurrentFollowup() != nil {
		t.Error("expected no current follow-up")
	}
	if offer.LegacyFollowupDate() != nil {
		t.Error("expected no legacy follow-up date")
	}
}

func TestOfferPatchConversionDate(t *testing.T) {
	today := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	offer := Offer{ID: uuid.New(), Channel: "email", OfferType: "upgrade"}

	converted := OfferPatch{Converted: boolPtr(true)}.Apply(offer, today)
	if converted.ConversionDate == nil || !converted.ConversionDate.Equal(today) {
		t.Fatalf("expected conversion date %v, got %v", today, converted.ConversionDate)
	}

	// A second true does not move the date.
	again := OfferPatch{Converted: boolPtr(true)}.Apply(converted, today.AddDate(0, 0, 3))
	if !again.ConversionDate.Equal(today) {
		t.Errorf("expected conversion date to stay %v, got %v", today, again.ConversionDate)
	}

	reverted := OfferPatch{Converted: boolPtr(false)}.Apply(again, today)
	if reverted.ConversionDate != nil {
		t.Errorf("expected conversion date cleared, got %v", reverted.ConversionDate)
	}
	if reverted.Converted == nil || *reverted.Converted {
		t.Error("expected converted=false")
	}
}

func TestOfferPatchLeavesUnsetFields(t *testing.T) {
	offer := Offer{Channel: "email", OfferType: "upgrade", Notes: "keep"}
	channel := "phone"

	patched := OfferPatch{Channel: &channel}.Apply(offer, time.Now())
	if patched.Channel != "phone" {
		t.Errorf("expected channel phone, got %s", patched.Channel)
	}
	if patched.Notes != "keep" || patched.OfferType != "upgrade" {
		t.Errorf("unexpected changes to untouched fields: %+v", patched)
	}
	if offer.Channel != "email" {
		t.Error("patch must not mutate the original offer")
	}
}

func TestHasWorkday(t *testing.T) {
	s := DefaultUserSettings().Streak
	if !s.HasWorkday(time.Monday) {
		t.Error("expected Monday to be a default workday")
	}
	if s.HasWorkday(time.Sunday) {
		t.Error("expected Sunday to not be a default workday")
	}
}

func TestSameDayIgnoresTime(t *testing.T) {
	a := time.Date(2026, 3, 10, 1, 0, 0, 0, time.UTC)
	b := time.Date(2026, 3, 10, 23, 59, 0, 0, time.UTC)
	if !SameDay(a, b) {
		t.Error("expected same day")
	}
	if SameDay(a, b.AddDate(0, 0, 1)) {
		t.Error("expected different days")
	}
}
