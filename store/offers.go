// ABOUTME: Offer collection persistence with load-time migration
// ABOUTME: Rewrites legacy followupDate records into the followups list
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/offertrack/models"
	"github.com/sirupsen/logrus"
)

// legacyOffer accepts records written before follow-ups became a list.
type legacyOffer struct {
	models.Offer
	FollowupDate *string `json:"followupDate,omitempty"`
}

type OfferStore struct {
	kv  KV
	log logrus.FieldLogger
}

func NewOfferStore(kv KV, log logrus.FieldLogger) *OfferStore {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &OfferStore{kv: kv, log: log}
}

// Load returns the stored offers. Records needing migration are rewritten
// and saved back before returning.
func (s *OfferStore) Load() ([]models.Offer, error) {
	data, err := s.kv.Get([]byte(OffersKey))
	if errors.Is(err, ErrNotFound) {
		return []models.Offer{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read offers: %w", err)
	}

	var records []legacyOffer
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to decode offers: %w", err)
	}

	offers := make([]models.Offer, 0, len(records))
	migrated := 0
	for _, r := range records {
		o, changed := s.migrateOffer(r)
		if changed {
			migrated++
		}
		offers = append(offers, o)
	}

	if migrated > 0 {
		s.log.WithField("count", migrated).Info("migrated legacy offer records")
		if err := s.Save(offers); err != nil {
			return nil, err
		}
	}
	return offers, nil
}

// Save replaces the whole collection.
func (s *OfferStore) Save(offers []models.Offer) error {
	if offers == nil {
		offers = []models.Offer{}
	}
	data, err := json.Marshal(offers)
	if err != nil {
		return fmt.Errorf("failed to encode offers: %w", err)
	}
	if err := s.kv.Set([]byte(OffersKey), data); err != nil {
		return fmt.Errorf("failed to write offers: %w", err)
	}
	return nil
}

func (s *OfferStore) migrateOffer(r legacyOffer) (models.Offer, bool) {
	o := r.Offer
	changed := false

	if o.ID == uuid.Nil {
		o.ID = uuid.New()
		changed = true
	}

	if r.FollowupDate != nil {
		changed = true
		if len(o.Followups) == 0 {
			if d, ok := parseLegacyDate(*r.FollowupDate); ok {
				o.Followups = []models.FollowupItem{{ID: models.NewFollowupID(), Date: d}}
			} else {
				s.log.WithFields(logrus.Fields{
					"offer_id":      o.ID,
					"followup_date": *r.FollowupDate,
				}).Warn("dropping unparseable legacy follow-up date")
			}
		}
	}

	for i := range o.Followups {
		if o.Followups[i].ID == "" {
			o.Followups[i].ID = models.NewFollowupID()
			changed = true
		}
	}
	return o, changed
}

func parseLegacyDate(s string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
