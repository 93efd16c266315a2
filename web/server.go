// ABOUTME: Web UI server with embedded templates
// ABOUTME: Dashboard, offer list, follow-up queue, funnel graph, and JSON summary
package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/offertrack/goals"
	"github.com/harperreed/offertrack/importer"
	"github.com/harperreed/offertrack/metrics"
	"github.com/harperreed/offertrack/models"
	"github.com/harperreed/offertrack/tracker"
	"github.com/harperreed/offertrack/viz"
	"github.com/sirupsen/logrus"
)

//go:embed templates/*.html templates/partials/*.html
var templatesFS embed.FS

type Server struct {
	tr        *tracker.Tracker
	templates *template.Template
	log       logrus.FieldLogger
}

func NewServer(tr *tracker.Tracker, log logrus.FieldLogger) (*Server, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}

	// Helper functions for templates
	funcMap := template.FuncMap{
		"date": func(t time.Time) string {
			return t.Format("Mon Jan 2")
		},
		"pct": func(v float64) string {
			return fmt.Sprintf("%.0f%%", v)
		},
		"short": func(id uuid.UUID) string {
			return id.String()[:8]
		},
		"barWidth": func(value, max int) int {
			if max <= 0 {
				return 0
			}
			if value > max {
				return 100
			}
			return value * 100 / max
		},
		"status": func(o models.Offer) string {
			return statusName(o, tr.Now())
		},
	}

	tmpl, err := template.New("").Funcs(funcMap).ParseFS(templatesFS, "templates/*.html", "templates/partials/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	return &Server{tr: tr, templates: tmpl, log: log}, nil
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleDashboard)
	mux.HandleFunc("/offers", s.handleOffers)
	mux.HandleFunc("/followups", s.handleFollowups)
	mux.HandleFunc("/graphs", s.handleGraphs)
	mux.HandleFunc("/export.csv", s.handleExport)
	mux.HandleFunc("/api/summary", s.handleSummary)

	// Partials for HTMX
	mux.HandleFunc("/partials/offer-detail", s.handleOfferDetail)
	mux.HandleFunc("/partials/graph", s.handleGraphPartial)
	mux.HandleFunc("/offers/convert/", s.handleConvert)
	mux.HandleFunc("/followups/complete/", s.handleFollowupComplete)
	return s.logRequests(mux)
}

// Start serves on addr until ctx is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.log.WithField("addr", addr).Infof("Starting web server at http://%s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"duration": time.Since(start),
		}).Debug("request")
	})
}

func (s *Server) renderTemplate(w http.ResponseWriter, name string, data interface{}) {
	// Execute the specified template (usually layout.html)
	// The data map includes ContentTemplate to specify which content block to render
	err := s.templates.ExecuteTemplate(w, name, data)
	if err != nil {
		s.log.WithError(err).WithField("template", name).Error("template error")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	stats := viz.GenerateDashboardStats(s.tr)
	maxDay := stats.Pacing.DailyGoal
	for _, d := range stats.LastSevenDays {
		if d.Count > maxDay {
			maxDay = d.Count
		}
	}

	data := map[string]interface{}{
		"Stats":           stats,
		"MaxDay":          maxDay,
		"Title":           "Dashboard",
		"ContentTemplate": "dashboard-content",
	}

	s.renderTemplate(w, "layout.html", data)
}

func (s *Server) handleOffers(w http.ResponseWriter, r *http.Request) {
	channel := r.URL.Query().Get("channel")
	status := r.URL.Query().Get("status")

	now := s.tr.Now()
	var offers []models.Offer
	for _, o := range s.tr.Offers() {
		if channel != "" && !strings.EqualFold(o.Channel, channel) {
			continue
		}
		if status != "" && statusName(o, now) != status {
			continue
		}
		offers = append(offers, o)
	}

	data := map[string]interface{}{
		"Offers":          offers,
		"Channels":        s.tr.Settings().Channels,
		"Channel":         channel,
		"Status":          status,
		"Title":           "Offers",
		"ContentTemplate": "offers-content",
	}

	s.renderTemplate(w, "layout.html", data)
}

func (s *Server) handleOfferDetail(w http.ResponseWriter, r *http.Request) {
	id, err := s.tr.ResolveID(r.URL.Query().Get("id"))
	if err != nil {
		http.Error(w, "Invalid offer ID", http.StatusBadRequest)
		return
	}
	offer, err := s.tr.GetOffer(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	data := map[string]interface{}{
		"Offer":  offer,
		"Status": statusName(offer, s.tr.Now()),
	}

	s.renderTemplate(w, "offer-detail.html", data)
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id, err := uuid.Parse(strings.TrimPrefix(r.URL.Path, "/offers/convert/"))
	if err != nil {
		http.Error(w, "Invalid offer ID", http.StatusBadRequest)
		return
	}

	converted := r.URL.Query().Get("converted") != "no"
	if _, err := s.tr.UpdateOffer(id, models.OfferPatch{Converted: &converted}); err != nil {
		s.writeError(w, err)
		return
	}

	label := "✓ Converted"
	if !converted {
		label = "✗ Not converted"
	}
	s.writeSnippet(w, `<span class="text-green-600">`+label+`</span>`)
}

func (s *Server) handleFollowups(w http.ResponseWriter, r *http.Request) {
	data := map[string]interface{}{
		"Followups":       s.tr.DueFollowups(14),
		"Title":           "Follow-ups",
		"ContentTemplate": "followups-content",
	}

	s.renderTemplate(w, "layout.html", data)
}

func (s *Server) handleFollowupComplete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id, err := uuid.Parse(strings.TrimPrefix(r.URL.Path, "/followups/complete/"))
	if err != nil {
		http.Error(w, "Invalid offer ID", http.StatusBadRequest)
		return
	}

	if _, err := s.tr.CompleteFollowup(id, r.URL.Query().Get("followup")); err != nil {
		s.writeError(w, err)
		return
	}

	s.writeSnippet(w, `<td colspan="5" class="px-4 py-3 text-green-600">✓ Follow-up completed</td>`)
}

func (s *Server) handleGraphs(w http.ResponseWriter, r *http.Request) {
	data := map[string]interface{}{
		"Title":           "Funnel",
		"ContentTemplate": "graphs-content",
	}

	s.renderTemplate(w, "layout.html", data)
}

func (s *Server) handleGraphPartial(w http.ResponseWriter, r *http.Request) {
	dot, err := viz.GenerateFunnelGraph(r.Context(), s.tr.Offers(), s.tr.Now())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	data := map[string]interface{}{
		"DOT": dot,
	}

	s.renderTemplate(w, "graph.html", data)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="offers.csv"`)
	if err := importer.WriteCSV(w, s.tr.Offers()); err != nil {
		s.log.WithError(err).Error("export failed")
	}
}

// Summary is the body of /api/summary.
type Summary struct {
	Streak    models.StreakInfo `json:"streak"`
	Pacing    goals.Pacing      `json:"pacing"`
	Metrics   metrics.Summary   `json:"metrics"`
	DueToday  int               `json:"dueToday"`
	Overdue   int               `json:"overdue"`
	Generated time.Time         `json:"generated"`
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	stats := viz.GenerateDashboardStats(s.tr)
	summary := Summary{
		Streak:    stats.Streak,
		Pacing:    stats.Pacing,
		Metrics:   stats.Metrics,
		DueToday:  len(stats.DueToday),
		Overdue:   len(stats.Overdue),
		Generated: stats.Now,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(summary); err != nil {
		s.log.WithError(err).Error("failed to encode summary")
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, tracker.ErrOfferNotFound), errors.Is(err, tracker.ErrFollowupNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		s.log.WithError(err).Error("request failed")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) writeSnippet(w http.ResponseWriter, html string) {
	if _, err := w.Write([]byte(html)); err != nil {
		s.log.WithError(err).Warn("error writing response")
	}
}

func statusName(o models.Offer, now time.Time) string {
	switch metrics.ConversionStatusAt(o, now) {
	case metrics.ConversionConverted:
		return "converted"
	case metrics.ConversionNotConverted:
		return "not_converted"
	}
	return "pending"
}
