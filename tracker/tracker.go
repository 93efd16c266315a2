// ABOUTME: Offer tracker service owning CRUD, follow-ups, and settings
// ABOUTME: Serializes writes and swaps whole snapshots so readers never see partial state
package tracker

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/harperreed/offertrack/goals"
	"github.com/harperreed/offertrack/metrics"
	"github.com/harperreed/offertrack/models"
	"github.com/harperreed/offertrack/store"
	"github.com/harperreed/offertrack/streak"
	"github.com/sirupsen/logrus"
)

var (
	ErrOfferNotFound    = errors.New("offer not found")
	ErrFollowupNotFound = errors.New("follow-up not found")
	ErrNoWorkdays       = errors.New("at least one workday is required")
	ErrInvalidGoal      = errors.New("daily goal must not be negative")
	ErrInvalidOffer     = errors.New("invalid offer")
	ErrInvalidWorkday   = errors.New("workdays must be between 0 (Sunday) and 6 (Saturday)")
	ErrInvalidVacation  = errors.New("vacation end date is before its start date")
	ErrAmbiguousID      = errors.New("offer id prefix matches more than one offer")
)

type Option func(*Tracker)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(t *Tracker) { t.log = log }
}

type Tracker struct {
	mu       sync.Mutex
	offers   *store.OfferStore
	settings *store.SettingsStore

	snapshot []models.Offer
	current  models.UserSettings

	now      func() time.Time
	log      logrus.FieldLogger
	validate *validator.Validate
}

// New loads offers and settings from the stores.
func New(offers *store.OfferStore, settings *store.SettingsStore, opts ...Option) (*Tracker, error) {
	t := &Tracker{
		offers:   offers,
		settings: settings,
		now:      time.Now,
		log:      logrus.StandardLogger(),
		validate: validator.New(),
	}
	for _, opt := range opts {
		opt(t)
	}

	loaded, err := offers.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load offers: %w", err)
	}
	s, err := settings.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	t.snapshot = loaded
	t.current = s
	return t, nil
}

// Now returns the tracker's notion of the current time.
func (t *Tracker) Now() time.Time {
	return t.now()
}

// Offers returns the current snapshot, newest first.
func (t *Tracker) Offers() []models.Offer {
	t.mu.Lock()
	offers := slices.Clone(t.snapshot)
	t.mu.Unlock()

	sort.SliceStable(offers, func(i, j int) bool {
		return offers[i].Date.After(offers[j].Date)
	})
	return offers
}

func (t *Tracker) GetOffer(id uuid.UUID) (models.Offer, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	i := t.indexOf(id)
	if i < 0 {
		return models.Offer{}, ErrOfferNotFound
	}
	return t.snapshot[i], nil
}

// ResolveID accepts a full offer ID or a unique prefix of one.
func (t *Tracker) ResolveID(ref string) (uuid.UUID, error) {
	ref = strings.ToLower(strings.TrimSpace(ref))
	if id, err := uuid.Parse(ref); err == nil {
		return id, nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	var match uuid.UUID
	found := 0
	for _, o := range t.snapshot {
		if ref != "" && strings.HasPrefix(o.ID.String(), ref) {
			match = o.ID
			found++
		}
	}
	switch {
	case found == 0:
		return uuid.Nil, ErrOfferNotFound
	case found > 1:
		return uuid.Nil, ErrAmbiguousID
	}
	return match, nil
}

// AddOffer assigns an ID and creation time when missing, validates, and
// records the offer's channel and type in the vocabularies.
func (t *Tracker) AddOffer(o models.Offer) (models.Offer, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	o = t.normalize(o)
	if err := t.validateOffer(o); err != nil {
		return models.Offer{}, err
	}
	if t.indexOf(o.ID) >= 0 {
		return models.Offer{}, fmt.Errorf("%w: duplicate id %s", ErrInvalidOffer, o.ID)
	}

	next := append(slices.Clone(t.snapshot), o)
	if err := t.commit(next); err != nil {
		return models.Offer{}, err
	}
	t.learnVocabulary(o)

	t.log.WithFields(logrus.Fields{
		"offer_id": o.ID,
		"channel":  o.Channel,
		"type":     o.OfferType,
	}).Info("offer logged")
	return o, nil
}

// UpdateOffer applies a partial update. ID and creation date never change.
func (t *Tracker) UpdateOffer(id uuid.UUID, patch models.OfferPatch) (models.Offer, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	i := t.indexOf(id)
	if i < 0 {
		return models.Offer{}, ErrOfferNotFound
	}

	updated := patch.Apply(t.snapshot[i], models.StartOfDay(t.now()))
	updated.Channel = strings.TrimSpace(updated.Channel)
	updated.OfferType = strings.TrimSpace(updated.OfferType)
	if err := t.validateOffer(updated); err != nil {
		return models.Offer{}, err
	}

	next := slices.Clone(t.snapshot)
	next[i] = updated
	if err := t.commit(next); err != nil {
		return models.Offer{}, err
	}
	t.learnVocabulary(updated)

	t.log.WithField("offer_id", id).Info("offer updated")
	return updated, nil
}

func (t *Tracker) DeleteOffer(id uuid.UUID) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	i := t.indexOf(id)
	if i < 0 {
		return ErrOfferNotFound
	}

	next := slices.Delete(slices.Clone(t.snapshot), i, i+1)
	if err := t.commit(next); err != nil {
		return err
	}
	t.log.WithField("offer_id", id).Info("offer deleted")
	return nil
}

// AddFollowup schedules a follow-up on the offer. Only the calendar date is kept.
func (t *Tracker) AddFollowup(offerID uuid.UUID, date time.Time, notes string) (models.FollowupItem, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	i := t.indexOf(offerID)
	if i < 0 {
		return models.FollowupItem{}, ErrOfferNotFound
	}
	if date.IsZero() {
		return models.FollowupItem{}, fmt.Errorf("%w: follow-up date is required", ErrInvalidOffer)
	}

	item := models.FollowupItem{
		ID:    models.NewFollowupID(),
		Date:  models.StartOfDay(date),
		Notes: strings.TrimSpace(notes),
	}

	next := slices.Clone(t.snapshot)
	o := next[i]
	o.Followups = append(slices.Clone(o.Followups), item)
	next[i] = o
	if err := t.commit(next); err != nil {
		return models.FollowupItem{}, err
	}

	t.log.WithFields(logrus.Fields{
		"offer_id":    offerID,
		"followup_id": item.ID,
		"date":        item.Date.Format("2006-01-02"),
	}).Info("follow-up scheduled")
	return item, nil
}

// CompleteFollowup marks one follow-up done. An empty followupID completes
// the offer's current follow-up.
func (t *Tracker) CompleteFollowup(offerID uuid.UUID, followupID string) (models.FollowupItem, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	i := t.indexOf(offerID)
	if i < 0 {
		return models.FollowupItem{}, ErrOfferNotFound
	}

	o := t.snapshot[i]
	o.Followups = slices.Clone(o.Followups)

	j := -1
	if followupID == "" {
		if cur := o.CurrentFollowup(); cur != nil {
			followupID = cur.ID
		}
	}
	for k := range o.Followups {
		if o.Followups[k].ID == followupID {
			j = k
			break
		}
	}
	if j < 0 || followupID == "" {
		return models.FollowupItem{}, ErrFollowupNotFound
	}

	completedAt := t.now()
	o.Followups[j].Completed = true
	o.Followups[j].CompletedAt = &completedAt

	next := slices.Clone(t.snapshot)
	next[i] = o
	if err := t.commit(next); err != nil {
		return models.FollowupItem{}, err
	}

	t.log.WithFields(logrus.Fields{
		"offer_id":    offerID,
		"followup_id": followupID,
	}).Info("follow-up completed")
	return o.Followups[j], nil
}

// DueFollowup pairs an offer with its current follow-up.
type DueFollowup struct {
	Offer    models.Offer        `json:"offer"`
	Followup models.FollowupItem `json:"followup"`
	Overdue  bool                `json:"overdue"`
}

// DueFollowups lists current follow-ups due on or before today plus
// withinDays, earliest first.
func (t *Tracker) DueFollowups(withinDays int) []DueFollowup {
	now := t.now()
	today := models.StartOfDay(now)
	horizon := today.AddDate(0, 0, withinDays)

	t.mu.Lock()
	snapshot := t.snapshot
	t.mu.Unlock()

	var due []DueFollowup
	for _, o := range snapshot {
		f := o.CurrentFollowup()
		if f == nil {
			continue
		}
		day := models.StartOfDay(f.Date.In(now.Location()))
		if day.After(horizon) {
			continue
		}
		due = append(due, DueFollowup{Offer: o, Followup: *f, Overdue: day.Before(today)})
	}
	sort.SliceStable(due, func(i, j int) bool {
		return due[i].Followup.Date.Before(due[j].Followup.Date)
	})
	return due
}

func (t *Tracker) Settings() models.UserSettings {
	t.mu.Lock()
	defer t.mu.Unlock()
	return cloneSettings(t.current)
}

func (t *Tracker) SetDailyGoal(goal int) error {
	if goal < 0 {
		return ErrInvalidGoal
	}
	return t.updateSettings(func(s *models.UserSettings) error {
		s.DailyGoal = goal
		return nil
	})
}

// SetWorkdays replaces the workday set. An empty set is rejected and the
// previous set is kept.
func (t *Tracker) SetWorkdays(days []int) error {
	if len(days) == 0 {
		return ErrNoWorkdays
	}
	set := make([]int, 0, len(days))
	for _, d := range days {
		if d < 0 || d > 6 {
			return fmt.Errorf("%w: %d", ErrInvalidWorkday, d)
		}
		if !slices.Contains(set, d) {
			set = append(set, d)
		}
	}
	sort.Ints(set)
	return t.updateSettings(func(s *models.UserSettings) error {
		s.Streak.Workdays = set
		return nil
	})
}

func (t *Tracker) SetCountWorkdaysOnly(on bool) error {
	return t.updateSettings(func(s *models.UserSettings) error {
		s.Streak.CountWorkdaysOnly = on
		return nil
	})
}

func (t *Tracker) SetPreservationTokens(enabled bool, daysPerToken int) error {
	if daysPerToken <= 0 {
		return fmt.Errorf("days per preservation token must be positive, got %d", daysPerToken)
	}
	return t.updateSettings(func(s *models.UserSettings) error {
		s.Streak.EnablePreservationTokens = enabled
		s.Streak.DaysPerPreservationToken = daysPerToken
		return nil
	})
}

// SetVacation activates vacation mode from start through end. A nil end
// leaves the vacation open-ended.
func (t *Tracker) SetVacation(start time.Time, end *time.Time) error {
	start = models.StartOfDay(start)
	var endDay *time.Time
	if end != nil {
		e := models.StartOfDay(*end)
		if e.Before(start) {
			return ErrInvalidVacation
		}
		endDay = &e
	}
	return t.updateSettings(func(s *models.UserSettings) error {
		s.Streak.VacationMode = models.VacationMode{Active: true, StartDate: &start, EndDate: endDay}
		return nil
	})
}

func (t *Tracker) EndVacation() error {
	return t.updateSettings(func(s *models.UserSettings) error {
		s.Streak.VacationMode.Active = false
		return nil
	})
}

func (t *Tracker) AddChannel(name string) error {
	return t.updateSettings(func(s *models.UserSettings) error {
		s.Channels = addTerm(s.Channels, name)
		return nil
	})
}

func (t *Tracker) RemoveChannel(name string) error {
	return t.updateSettings(func(s *models.UserSettings) error {
		s.Channels = removeTerm(s.Channels, name)
		return nil
	})
}

func (t *Tracker) AddOfferType(name string) error {
	return t.updateSettings(func(s *models.UserSettings) error {
		s.OfferTypes = addTerm(s.OfferTypes, name)
		return nil
	})
}

func (t *Tracker) RemoveOfferType(name string) error {
	return t.updateSettings(func(s *models.UserSettings) error {
		s.OfferTypes = removeTerm(s.OfferTypes, name)
		return nil
	})
}

// Streak recomputes the streak from the current snapshot.
func (t *Tracker) Streak() models.StreakInfo {
	t.mu.Lock()
	offers, settings := t.snapshot, t.current.Streak
	t.mu.Unlock()
	return streak.Compute(offers, settings, t.now())
}

func (t *Tracker) Pacing() goals.Pacing {
	t.mu.Lock()
	offers, s := t.snapshot, t.current
	t.mu.Unlock()
	return goals.ComputePacing(offers, s.DailyGoal, &s.Streak, t.now())
}

func (t *Tracker) Metrics() metrics.Summary {
	t.mu.Lock()
	offers := t.snapshot
	t.mu.Unlock()
	return metrics.Summarize(offers, t.now())
}

// ClaimTokens credits the balance with tokens earned by the current streak
// that have not been claimed yet. It returns the number newly credited.
func (t *Tracker) ClaimTokens() (int, error) {
	info := t.Streak()

	credited := 0
	err := t.updateSettings(func(s *models.UserSettings) error {
		if info.PreservationTokens < s.ClaimedTokens {
			// The streak reset since the last claim.
			s.ClaimedTokens = info.PreservationTokens
			return nil
		}
		credited = info.PreservationTokens - s.ClaimedTokens
		s.PreservationTokenBalance += credited
		s.ClaimedTokens = info.PreservationTokens
		return nil
	})
	if err != nil {
		return 0, err
	}
	if credited > 0 {
		t.log.WithField("tokens", credited).Info("preservation tokens claimed")
	}
	return credited, nil
}

// UsePreservationToken spends one token from the balance against a broken
// streak. Nothing is persisted when the attempt fails.
func (t *Tracker) UsePreservationToken(brokenStreak int) (streak.TokenResult, error) {
	var result streak.TokenResult
	err := t.updateSettings(func(s *models.UserSettings) error {
		result = streak.UsePreservationToken(s.PreservationTokenBalance, brokenStreak)
		if !result.Success {
			return errNoChange
		}
		s.PreservationTokenBalance = result.RemainingTokens
		return nil
	})
	if err != nil && !errors.Is(err, errNoChange) {
		return streak.TokenResult{}, err
	}
	if result.Success {
		t.log.WithFields(logrus.Fields{
			"streak":    result.NewStreakValue,
			"remaining": result.RemainingTokens,
		}).Info("preservation token used")
	}
	return result, nil
}

// ImportOffers adds every valid offer in one write. Offers failing
// validation or reusing an existing ID are skipped and reported by index.
func (t *Tracker) ImportOffers(offers []models.Offer) (int, map[int]error, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	skipped := make(map[int]error)
	next := slices.Clone(t.snapshot)
	seen := make(map[uuid.UUID]bool, len(next))
	for _, o := range next {
		seen[o.ID] = true
	}

	var added []models.Offer
	for i, o := range offers {
		o = t.normalize(o)
		if err := t.validateOffer(o); err != nil {
			skipped[i] = err
			continue
		}
		if seen[o.ID] {
			skipped[i] = fmt.Errorf("%w: duplicate id %s", ErrInvalidOffer, o.ID)
			continue
		}
		seen[o.ID] = true
		added = append(added, o)
	}

	if len(added) > 0 {
		if err := t.commit(append(next, added...)); err != nil {
			return 0, skipped, err
		}
		for _, o := range added {
			t.learnVocabulary(o)
		}
	}

	t.log.WithFields(logrus.Fields{
		"imported": len(added),
		"skipped":  len(skipped),
	}).Info("offers imported")
	return len(added), skipped, nil
}

var errNoChange = errors.New("no change")

func (t *Tracker) indexOf(id uuid.UUID) int {
	for i, o := range t.snapshot {
		if o.ID == id {
			return i
		}
	}
	return -1
}

func (t *Tracker) normalize(o models.Offer) models.Offer {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if o.Date.IsZero() {
		o.Date = t.now()
	}
	o.Channel = strings.TrimSpace(o.Channel)
	o.OfferType = strings.TrimSpace(o.OfferType)
	o.CSAT = strings.ToLower(strings.TrimSpace(o.CSAT))

	o.Followups = slices.Clone(o.Followups)
	for i := range o.Followups {
		if o.Followups[i].ID == "" {
			o.Followups[i].ID = models.NewFollowupID()
		}
	}
	if o.Converted != nil && *o.Converted && o.ConversionDate == nil {
		d := models.StartOfDay(t.now())
		o.ConversionDate = &d
	}
	return o
}

func (t *Tracker) validateOffer(o models.Offer) error {
	if err := t.validate.Struct(o); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("%w: %v", ErrInvalidOffer, err)
		}
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			field := strings.ToLower(fe.Field())
			switch fe.Tag() {
			case "required":
				msgs = append(msgs, field+" is required")
			case "oneof":
				msgs = append(msgs, field+" must be one of: "+fe.Param())
			default:
				msgs = append(msgs, field+" is invalid")
			}
		}
		return fmt.Errorf("%w: %s", ErrInvalidOffer, strings.Join(msgs, ", "))
	}
	return nil
}

// commit persists next and swaps it in. Caller holds mu.
func (t *Tracker) commit(next []models.Offer) error {
	if err := t.offers.Save(next); err != nil {
		return err
	}
	t.snapshot = next
	return nil
}

// updateSettings applies fn to a copy and persists it. Caller must not hold mu.
func (t *Tracker) updateSettings(fn func(*models.UserSettings) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.updateSettingsLocked(fn)
}

func (t *Tracker) updateSettingsLocked(fn func(*models.UserSettings) error) error {
	next := cloneSettings(t.current)
	if err := fn(&next); err != nil {
		return err
	}
	if err := t.settings.Save(next); err != nil {
		return err
	}
	t.current = next
	return nil
}

// learnVocabulary adds unseen channels and offer types. Caller holds mu.
func (t *Tracker) learnVocabulary(o models.Offer) {
	if containsFold(t.current.Channels, o.Channel) && containsFold(t.current.OfferTypes, o.OfferType) {
		return
	}
	err := t.updateSettingsLocked(func(s *models.UserSettings) error {
		s.Channels = addTerm(s.Channels, o.Channel)
		s.OfferTypes = addTerm(s.OfferTypes, o.OfferType)
		return nil
	})
	if err != nil {
		t.log.WithError(err).Warn("failed to save vocabulary")
	}
}

func cloneSettings(s models.UserSettings) models.UserSettings {
	s.Channels = slices.Clone(s.Channels)
	s.OfferTypes = slices.Clone(s.OfferTypes)
	s.Streak.Workdays = slices.Clone(s.Streak.Workdays)
	return s
}

func containsFold(terms []string, name string) bool {
	for _, t := range terms {
		if strings.EqualFold(t, name) {
			return true
		}
	}
	return false
}

func addTerm(terms []string, name string) []string {
	name = strings.TrimSpace(name)
	if name == "" || containsFold(terms, name) {
		return terms
	}
	return append(terms, name)
}

func removeTerm(terms []string, name string) []string {
	return slices.DeleteFunc(terms, func(t string) bool {
		return strings.EqualFold(t, strings.TrimSpace(name))
	})
}
