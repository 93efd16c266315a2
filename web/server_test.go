// ABOUTME: Tests for the web UI server
// ABOUTME: Exercises pages, HTMX actions, and the JSON summary with httptest
package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/offertrack/models"
	"github.com/harperreed/offertrack/store"
	"github.com/harperreed/offertrack/tracker"
)

var monday = time.Date(2026, 3, 16, 9, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T) (*Server, *tracker.Tracker) {
	t.Helper()
	logger, _ := test.NewNullLogger()
	kv := store.NewMemoryKV()
	tr, err := tracker.New(
		store.NewOfferStore(kv, logger),
		store.NewSettingsStore(kv),
		tracker.WithClock(func() time.Time { return monday }),
		tracker.WithLogger(logger),
	)
	require.NoError(t, err)

	srv, err := NewServer(tr, logger)
	require.NoError(t, err)
	return srv, tr
}

func addOffer(t *testing.T, tr *tracker.Tracker, channel string, date time.Time) models.Offer {
	t.Helper()
	o, err := tr.AddOffer(models.Offer{Date: date, Channel: channel, OfferType: "upgrade"})
	require.NoError(t, err)
	return o
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestDashboardPage(t *testing.T) {
	srv, tr := newTestServer(t)
	addOffer(t, tr, "chat", monday)

	rec := get(t, srv.Handler(), "/")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<title>Dashboard · offertrack</title>")
	assert.Contains(t, body, "🔥 1")
	assert.Contains(t, body, "Last 7 days")

	assert.Equal(t, http.StatusNotFound, get(t, srv.Handler(), "/nope").Code)
}

func TestOffersPageFilters(t *testing.T) {
	srv, tr := newTestServer(t)
	chat := addOffer(t, tr, "chat", monday)
	phone := addOffer(t, tr, "phone", monday)

	rec := get(t, srv.Handler(), "/offers?channel=phone")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), phone.ID.String()[:8])
	assert.NotContains(t, rec.Body.String(), chat.ID.String()[:8])

	rec = get(t, srv.Handler(), "/offers?status=converted")
	assert.Contains(t, rec.Body.String(), "No offers found.")
}

func TestOfferDetailAndConvert(t *testing.T) {
	srv, tr := newTestServer(t)
	o := addOffer(t, tr, "chat", monday)
	h := srv.Handler()

	rec := get(t, h, "/partials/offer-detail?id="+o.ID.String()[:8])
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "upgrade via chat")
	assert.Contains(t, rec.Body.String(), "pending")

	assert.Equal(t, http.StatusBadRequest, get(t, h, "/partials/offer-detail?id=zzz").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, get(t, h, "/offers/convert/"+o.ID.String()).Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/offers/convert/"+o.ID.String(), nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Converted")

	got, err := tr.GetOffer(o.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Converted)
	assert.True(t, *got.Converted)
}

func TestFollowupQueue(t *testing.T) {
	srv, tr := newTestServer(t)
	o := addOffer(t, tr, "chat", monday.AddDate(0, 0, -3))
	f, err := tr.AddFollowup(o.ID, monday.AddDate(0, 0, -1), "call back")
	require.NoError(t, err)
	h := srv.Handler()

	rec := get(t, h, "/followups")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "call back")
	assert.Contains(t, rec.Body.String(), "🔴")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/followups/complete/"+o.ID.String()+"?followup="+f.ID, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Follow-up completed")
	assert.Empty(t, tr.DueFollowups(14))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/followups/complete/"+o.ID.String(), nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFunnelPartial(t *testing.T) {
	srv, tr := newTestServer(t)
	addOffer(t, tr, "chat", monday)

	rec := get(t, srv.Handler(), "/partials/graph")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "digraph")

	rec = get(t, srv.Handler(), "/graphs")
	assert.Contains(t, rec.Body.String(), `hx-get="/partials/graph"`)
}

func TestExportCSV(t *testing.T) {
	srv, tr := newTestServer(t)
	addOffer(t, tr, "chat", monday)

	rec := get(t, srv.Handler(), "/export.csv")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	assert.Len(t, lines, 2)
}

func TestSummaryAPI(t *testing.T) {
	srv, tr := newTestServer(t)
	addOffer(t, tr, "chat", monday)
	addOffer(t, tr, "chat", monday)

	rec := get(t, srv.Handler(), "/api/summary")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var summary Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, 1, summary.Streak.Current)
	assert.Equal(t, 2, summary.Metrics.TotalOffers)
	assert.Equal(t, 2, summary.Pacing.OffersThisMonth)
}
