// ABOUTME: Tests for the tracker service
// ABOUTME: Uses an in-memory KV and a fixed clock
package tracker

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/offertrack/models"
	"github.com/harperreed/offertrack/store"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var monday = time.Date(2026, 3, 16, 9, 0, 0, 0, time.UTC)

func newTracker(t *testing.T, kv store.KV) (*Tracker, *test.Hook) {
	t.Helper()
	logger, hook := test.NewNullLogger()
	tr, err := New(
		store.NewOfferStore(kv, logger),
		store.NewSettingsStore(kv),
		WithClock(func() time.Time { return monday }),
		WithLogger(logger),
	)
	require.NoError(t, err)
	return tr, hook
}

func boolPtr(b bool) *bool { return &b }

func strPtr(s string) *string { return &s }

func date(m time.Month, d int) time.Time {
	return time.Date(2026, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAddOfferAssignsDefaults(t *testing.T) {
	tr, hook := newTracker(t, store.NewMemoryKV())

	o, err := tr.AddOffer(models.Offer{Channel: " email ", OfferType: "upgrade"})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, o.ID)
	assert.Equal(t, monday, o.Date)
	assert.Equal(t, "email", o.Channel)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "offer logged", entry.Message)
	assert.Equal(t, o.ID, entry.Data["offer_id"])
}

func TestAddOfferValidation(t *testing.T) {
	tr, _ := newTracker(t, store.NewMemoryKV())

	_, err := tr.AddOffer(models.Offer{OfferType: "upgrade"})
	assert.ErrorIs(t, err, ErrInvalidOffer)
	assert.Contains(t, err.Error(), "channel is required")

	_, err = tr.AddOffer(models.Offer{Channel: "email", OfferType: "upgrade", CSAT: "ecstatic"})
	assert.ErrorIs(t, err, ErrInvalidOffer)
	assert.Contains(t, err.Error(), "csat must be one of")

	assert.Empty(t, tr.Offers())
}

func TestAddOfferLearnsVocabulary(t *testing.T) {
	tr, _ := newTracker(t, store.NewMemoryKV())

	_, err := tr.AddOffer(models.Offer{Channel: "sms", OfferType: "Upgrade"})
	require.NoError(t, err)

	s := tr.Settings()
	assert.Contains(t, s.Channels, "sms")
	// Case-insensitive match against the default "upgrade".
	assert.Equal(t, models.DefaultUserSettings().OfferTypes, s.OfferTypes)
}

func TestOffersPersistAcrossInstances(t *testing.T) {
	kv := store.NewMemoryKV()
	tr, _ := newTracker(t, kv)

	o, err := tr.AddOffer(models.Offer{Channel: "email", OfferType: "upgrade"})
	require.NoError(t, err)
	require.NoError(t, tr.SetDailyGoal(8))

	reopened, _ := newTracker(t, kv)
	got, err := reopened.GetOffer(o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.Channel, got.Channel)
	assert.Equal(t, 8, reopened.Settings().DailyGoal)
}

func TestOffersNewestFirst(t *testing.T) {
	tr, _ := newTracker(t, store.NewMemoryKV())
	for _, d := range []int{10, 14, 12} {
		_, err := tr.AddOffer(models.Offer{Date: date(time.March, d), Channel: "email", OfferType: "upgrade"})
		require.NoError(t, err)
	}

	offers := tr.Offers()
	require.Len(t, offers, 3)
	assert.Equal(t, 14, offers[0].Date.Day())
	assert.Equal(t, 12, offers[1].Date.Day())
	assert.Equal(t, 10, offers[2].Date.Day())
}

func TestUpdateOfferConversion(t *testing.T) {
	tr, _ := newTracker(t, store.NewMemoryKV())
	o, err := tr.AddOffer(models.Offer{Date: date(time.March, 2), Channel: "email", OfferType: "upgrade"})
	require.NoError(t, err)

	updated, err := tr.UpdateOffer(o.ID, models.OfferPatch{Converted: boolPtr(true), Notes: strPtr("signed")})
	require.NoError(t, err)
	require.NotNil(t, updated.ConversionDate)
	assert.Equal(t, date(time.March, 16), *updated.ConversionDate)
	assert.Equal(t, "signed", updated.Notes)
	assert.Equal(t, o.Date, updated.Date)
	assert.Equal(t, o.ID, updated.ID)

	reverted, err := tr.UpdateOffer(o.ID, models.OfferPatch{Converted: boolPtr(false)})
	require.NoError(t, err)
	assert.Nil(t, reverted.ConversionDate)

	_, err = tr.UpdateOffer(o.ID, models.OfferPatch{CSAT: strPtr("meh")})
	assert.ErrorIs(t, err, ErrInvalidOffer)
	got, _ := tr.GetOffer(o.ID)
	assert.Empty(t, got.CSAT)

	_, err = tr.UpdateOffer(uuid.New(), models.OfferPatch{})
	assert.ErrorIs(t, err, ErrOfferNotFound)
}

func TestDeleteOffer(t *testing.T) {
	tr, _ := newTracker(t, store.NewMemoryKV())
	o, err := tr.AddOffer(models.Offer{Channel: "email", OfferType: "upgrade"})
	require.NoError(t, err)

	before := tr.Offers()
	require.NoError(t, tr.DeleteOffer(o.ID))
	assert.Empty(t, tr.Offers())
	assert.Len(t, before, 1, "earlier snapshots are unaffected")

	assert.ErrorIs(t, tr.DeleteOffer(o.ID), ErrOfferNotFound)
}

func TestResolveID(t *testing.T) {
	tr, _ := newTracker(t, store.NewMemoryKV())
	o, err := tr.AddOffer(models.Offer{Channel: "email", OfferType: "upgrade"})
	require.NoError(t, err)

	id, err := tr.ResolveID(o.ID.String()[:8])
	require.NoError(t, err)
	assert.Equal(t, o.ID, id)

	_, err = tr.ResolveID("zzzz")
	assert.ErrorIs(t, err, ErrOfferNotFound)
	_, err = tr.ResolveID("")
	assert.ErrorIs(t, err, ErrOfferNotFound)
}

func TestFollowupLifecycle(t *testing.T) {
	tr, _ := newTracker(t, store.NewMemoryKV())
	o, err := tr.AddOffer(models.Offer{Channel: "email", OfferType: "upgrade"})
	require.NoError(t, err)

	later, err := tr.AddFollowup(o.ID, time.Date(2026, 3, 20, 15, 30, 0, 0, time.UTC), "check in")
	require.NoError(t, err)
	assert.Equal(t, date(time.March, 20), later.Date)

	sooner, err := tr.AddFollowup(o.ID, date(time.March, 13), "")
	require.NoError(t, err)

	got, _ := tr.GetOffer(o.ID)
	require.Len(t, got.Followups, 2)
	assert.Equal(t, sooner.ID, got.CurrentFollowup().ID)

	due := tr.DueFollowups(0)
	require.Len(t, due, 1)
	assert.True(t, due[0].Overdue)
	assert.Equal(t, sooner.ID, due[0].Followup.ID)

	done, err := tr.CompleteFollowup(o.ID, "")
	require.NoError(t, err)
	assert.Equal(t, sooner.ID, done.ID)
	assert.True(t, done.Completed)
	require.NotNil(t, done.CompletedAt)

	assert.Empty(t, tr.DueFollowups(0))
	upcoming := tr.DueFollowups(7)
	require.Len(t, upcoming, 1)
	assert.False(t, upcoming[0].Overdue)

	_, err = tr.CompleteFollowup(o.ID, "missing")
	assert.ErrorIs(t, err, ErrFollowupNotFound)
	_, err = tr.AddFollowup(uuid.New(), monday, "")
	assert.ErrorIs(t, err, ErrOfferNotFound)
	_, err = tr.AddFollowup(o.ID, time.Time{}, "")
	assert.ErrorIs(t, err, ErrInvalidOffer)
}

func TestSettingsGuards(t *testing.T) {
	tr, _ := newTracker(t, store.NewMemoryKV())

	assert.ErrorIs(t, tr.SetDailyGoal(-1), ErrInvalidGoal)
	assert.Equal(t, 5, tr.Settings().DailyGoal)

	assert.ErrorIs(t, tr.SetWorkdays(nil), ErrNoWorkdays)
	assert.ErrorIs(t, tr.SetWorkdays([]int{1, 9}), ErrInvalidWorkday)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, tr.Settings().Streak.Workdays)

	require.NoError(t, tr.SetWorkdays([]int{3, 1, 3}))
	assert.Equal(t, []int{1, 3}, tr.Settings().Streak.Workdays)

	require.NoError(t, tr.SetCountWorkdaysOnly(false))
	assert.False(t, tr.Settings().Streak.CountWorkdaysOnly)

	assert.Error(t, tr.SetPreservationTokens(true, 0))
	require.NoError(t, tr.SetPreservationTokens(false, 7))
	assert.Equal(t, 7, tr.Settings().Streak.DaysPerPreservationToken)
}

func TestSettingsAreCopies(t *testing.T) {
	tr, _ := newTracker(t, store.NewMemoryKV())
	s := tr.Settings()
	s.Channels[0] = "mutated"
	assert.Equal(t, "email", tr.Settings().Channels[0])
}

func TestVocabulary(t *testing.T) {
	tr, _ := newTracker(t, store.NewMemoryKV())

	require.NoError(t, tr.AddChannel("Social"))
	require.NoError(t, tr.AddChannel("social"))
	require.NoError(t, tr.RemoveChannel("PHONE"))
	assert.Equal(t, []string{"email", "chat", "Social"}, tr.Settings().Channels)

	require.NoError(t, tr.AddOfferType("downgrade"))
	require.NoError(t, tr.RemoveOfferType("renewal"))
	assert.Equal(t, []string{"upgrade", "add-on", "downgrade"}, tr.Settings().OfferTypes)
}

func TestVacation(t *testing.T) {
	tr, _ := newTracker(t, store.NewMemoryKV())

	end := date(time.March, 10)
	assert.ErrorIs(t, tr.SetVacation(date(time.March, 12), &end), ErrInvalidVacation)

	end = date(time.March, 18)
	require.NoError(t, tr.SetVacation(time.Date(2026, 3, 12, 14, 0, 0, 0, time.UTC), &end))
	v := tr.Settings().Streak.VacationMode
	assert.True(t, v.Active)
	assert.Equal(t, date(time.March, 12), *v.StartDate)

	info := tr.Streak()
	assert.True(t, info.HasActiveVacation)
	require.NotNil(t, info.VacationDaysRemaining)
	assert.Equal(t, 2, *info.VacationDaysRemaining)

	require.NoError(t, tr.EndVacation())
	assert.False(t, tr.Streak().HasActiveVacation)
}

func TestDerivedViews(t *testing.T) {
	tr, _ := newTracker(t, store.NewMemoryKV())

	// Ten straight weekdays ending today.
	d := date(time.March, 16)
	for n := 0; n < 10; {
		if d.Weekday() != time.Saturday && d.Weekday() != time.Sunday {
			_, err := tr.AddOffer(models.Offer{Date: d.Add(8 * time.Hour), Channel: "email", OfferType: "upgrade"})
			require.NoError(t, err)
			n++
		}
		d = d.AddDate(0, 0, -1)
	}

	info := tr.Streak()
	assert.Equal(t, 10, info.Current)
	assert.Equal(t, 1, info.PreservationTokens)
	assert.True(t, info.HasBadge(models.BadgeDedicated))

	p := tr.Pacing()
	assert.Equal(t, 110, p.MonthlyGoal)
	assert.Equal(t, 10, p.OffersThisMonth)

	m := tr.Metrics()
	assert.Equal(t, 10, m.TotalOffers)
	assert.Equal(t, 10, m.Conversion.Pending)
}

func TestPreservationTokens(t *testing.T) {
	tr, _ := newTracker(t, store.NewMemoryKV())

	result, err := tr.UsePreservationToken(4)
	require.NoError(t, err)
	assert.False(t, result.Success)

	d := date(time.March, 16)
	for n := 0; n < 10; {
		if d.Weekday() != time.Saturday && d.Weekday() != time.Sunday {
			_, err := tr.AddOffer(models.Offer{Date: d.Add(8 * time.Hour), Channel: "email", OfferType: "upgrade"})
			require.NoError(t, err)
			n++
		}
		d = d.AddDate(0, 0, -1)
	}

	credited, err := tr.ClaimTokens()
	require.NoError(t, err)
	assert.Equal(t, 1, credited)

	again, err := tr.ClaimTokens()
	require.NoError(t, err)
	assert.Equal(t, 0, again, "tokens are only credited once")
	assert.Equal(t, 1, tr.Settings().PreservationTokenBalance)

	result, err = tr.UsePreservationToken(0)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, 1, tr.Settings().PreservationTokenBalance)

	result, err = tr.UsePreservationToken(7)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 7, result.NewStreakValue)
	assert.Equal(t, 0, result.RemainingTokens)
	assert.Equal(t, 0, tr.Settings().PreservationTokenBalance)
}

func TestImportOffersSkipsInvalid(t *testing.T) {
	tr, _ := newTracker(t, store.NewMemoryKV())
	existing, err := tr.AddOffer(models.Offer{Channel: "email", OfferType: "upgrade"})
	require.NoError(t, err)

	added, skipped, err := tr.ImportOffers([]models.Offer{
		{Date: date(time.March, 2), Channel: "phone", OfferType: "renewal", Converted: boolPtr(true)},
		{Date: date(time.March, 3), OfferType: "renewal"},
		{ID: existing.ID, Date: date(time.March, 4), Channel: "email", OfferType: "upgrade"},
		{Date: date(time.March, 5), Channel: "chat", OfferType: "add-on",
			Followups: []models.FollowupItem{{Date: date(time.March, 20)}}},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, added)
	require.Len(t, skipped, 2)
	assert.ErrorIs(t, skipped[1], ErrInvalidOffer)
	assert.ErrorIs(t, skipped[2], ErrInvalidOffer)
	assert.Len(t, tr.Offers(), 3)

	for _, o := range tr.Offers() {
		for _, f := range o.Followups {
			assert.NotEmpty(t, f.ID)
		}
		if o.Converted != nil && *o.Converted {
			assert.NotNil(t, o.ConversionDate)
		}
	}
}

type failingKV struct{ store.KV }

func (failingKV) Set(key, value []byte) error { return errors.New("disk full") }

func TestFailedWriteKeepsSnapshot(t *testing.T) {
	mem := store.NewMemoryKV()
	logger, _ := test.NewNullLogger()
	tr, err := New(store.NewOfferStore(failingKV{mem}, logger), store.NewSettingsStore(failingKV{mem}),
		WithClock(func() time.Time { return monday }), WithLogger(logger))
	require.NoError(t, err)

	_, err = tr.AddOffer(models.Offer{Channel: "email", OfferType: "upgrade"})
	assert.Error(t, err)
	assert.Empty(t, tr.Offers())

	assert.Error(t, tr.SetDailyGoal(9))
	assert.Equal(t, 5, tr.Settings().DailyGoal)
}

func TestDefaultLogger(t *testing.T) {
	tr, err := New(store.NewOfferStore(store.NewMemoryKV(), nil), store.NewSettingsStore(store.NewMemoryKV()))
	require.NoError(t, err)
	assert.Equal(t, logrus.StandardLogger(), tr.log)
	assert.WithinDuration(t, time.Now(), tr.Now(), time.Minute)
}
