// ABOUTME: Tests for dashboard roll-ups
// ABOUTME: Covers zero-denominator safety and the implicit non-conversion rule
package metrics

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/offertrack/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 16, 9, 0, 0, 0, time.UTC)

func boolPtr(b bool) *bool { return &b }

func offer(daysAgo int, channel string) models.Offer {
	return models.Offer{
		ID:        uuid.New(),
		Date:      now.AddDate(0, 0, -daysAgo),
		Channel:   channel,
		OfferType: "upgrade",
	}
}

func TestSummarizeEmptyHasZeroRates(t *testing.T) {
	s := Summarize(nil, now)
	assert.Equal(t, 0, s.TotalOffers)
	assert.Zero(t, s.CSAT.PositiveRate)
	assert.Zero(t, s.CSAT.NeutralRate)
	assert.Zero(t, s.CSAT.NegativeRate)
	assert.Zero(t, s.Conversion.Rate)
	assert.Zero(t, s.Conversion.AverageDaysToConvert)
	assert.Zero(t, s.Followups.CompletionRate)
	assert.Empty(t, s.ByChannel)
}

func TestImplicitNonConversion(t *testing.T) {
	old := offer(31, "email")
	recent := offer(10, "email")

	assert.Equal(t, ConversionNotConverted, ConversionStatusAt(old, now))
	assert.Equal(t, ConversionPending, ConversionStatusAt(recent, now))

	s := Conversion([]models.Offer{old, recent}, now)
	assert.Equal(t, 0, s.Converted)
	assert.Equal(t, 1, s.NotConverted)
	assert.Equal(t, 1, s.Pending)
	assert.Zero(t, s.Rate)

	t.Run("exactly thirty days is still pending", func(t *testing.T) {
		assert.Equal(t, ConversionPending, ConversionStatusAt(offer(30, "email"), now))
	})
}

func TestConversionRateAndDaysToConvert(t *testing.T) {
	converted := offer(20, "email")
	converted.Converted = boolPtr(true)
	convertedAt := converted.Date.AddDate(0, 0, 4)
	converted.ConversionDate = &convertedAt

	lost := offer(5, "phone")
	lost.Converted = boolPtr(false)

	s := Conversion([]models.Offer{converted, lost, offer(2, "chat")}, now)
	assert.Equal(t, 1, s.Converted)
	assert.Equal(t, 1, s.NotConverted)
	assert.Equal(t, 1, s.Pending)
	assert.InDelta(t, 50.0, s.Rate, 0.001)
	assert.InDelta(t, 4.0, s.AverageDaysToConvert, 0.001)
}

func TestCSAT(t *testing.T) {
	offers := []models.Offer{offer(1, "email"), offer(1, "email"), offer(1, "email"), offer(1, "email")}
	offers[0].CSAT = models.CSATPositive
	offers[1].CSAT = models.CSATPositive
	offers[2].CSAT = models.CSATNegative

	s := CSAT(offers)
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 2, s.Positive)
	assert.InDelta(t, 66.666, s.PositiveRate, 0.01)
	assert.InDelta(t, 33.333, s.NegativeRate, 0.01)
	assert.Zero(t, s.NeutralRate)
}

func TestFollowups(t *testing.T) {
	o := offer(3, "email")
	done := now.AddDate(0, 0, -1)
	o.Followups = []models.FollowupItem{
		{ID: "overdue", Date: now.AddDate(0, 0, -2)},
		{ID: "today", Date: models.StartOfDay(now)},
		{ID: "future", Date: now.AddDate(0, 0, 2)},
		{ID: "done", Date: now.AddDate(0, 0, -1), Completed: true, CompletedAt: &done},
	}

	s := Followups([]models.Offer{o}, now)
	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 1, s.Completed)
	assert.Equal(t, 1, s.Overdue)
	assert.Equal(t, 1, s.DueToday)
	assert.InDelta(t, 25.0, s.CompletionRate, 0.001)
}

func TestBreakdownOrdering(t *testing.T) {
	a := offer(1, "phone")
	a.Converted = boolPtr(true)
	offers := []models.Offer{offer(1, "email"), offer(1, "email"), a, offer(1, "chat")}

	s := Summarize(offers, now)
	require.Len(t, s.ByChannel, 3)
	assert.Equal(t, "email", s.ByChannel[0].Name)
	assert.Equal(t, 2, s.ByChannel[0].Offers)
	assert.Equal(t, "chat", s.ByChannel[1].Name)
	assert.Equal(t, "phone", s.ByChannel[2].Name)
	assert.InDelta(t, 100.0, s.ByChannel[2].ConversionRate, 0.001)

	require.Len(t, s.ByOfferType, 1)
	assert.Equal(t, 4, s.ByOfferType[0].Offers)
}
