// ABOUTME: Offer deduplication and matching logic
// ABOUTME: Finds existing offers by case number, day, and type to prevent duplicate imports
package importer

import (
	"strings"

	"github.com/harperreed/offertrack/models"
)

type OfferMatcher struct {
	byKey map[string]*models.Offer
}

// NewOfferMatcher creates a matcher from existing offers.
func NewOfferMatcher(offers []models.Offer) *OfferMatcher {
	m := &OfferMatcher{
		byKey: make(map[string]*models.Offer),
	}

	for i := range offers {
		if key := matchKey(offers[i]); key != "" {
			m.byKey[key] = &offers[i]
		}
	}

	return m
}

// FindMatch looks for an existing offer with the same case number, day, and
// offer type. Offers without a case number never match.
func (m *OfferMatcher) FindMatch(o models.Offer) (*models.Offer, bool) {
	key := matchKey(o)
	if key == "" {
		return nil, false
	}

	match, found := m.byKey[key]
	return match, found
}

// Add registers an offer so later rows in the same file match it.
func (m *OfferMatcher) Add(o *models.Offer) {
	if key := matchKey(*o); key != "" {
		m.byKey[key] = o
	}
}

// Dedupe splits offers into those with no existing match and the indexes
// of those that duplicate an existing or earlier offer.
func (m *OfferMatcher) Dedupe(offers []models.Offer) ([]models.Offer, []int) {
	var fresh []models.Offer
	var dupes []int
	for i := range offers {
		if _, found := m.FindMatch(offers[i]); found {
			dupes = append(dupes, i)
			continue
		}
		m.Add(&offers[i])
		fresh = append(fresh, offers[i])
	}
	return fresh, dupes
}

func matchKey(o models.Offer) string {
	caseNumber := normalizeCase(o.CaseNumber)
	if caseNumber == "" {
		return ""
	}
	return caseNumber + "|" + o.Date.Format("2006-01-02") + "|" + strings.ToLower(strings.TrimSpace(o.OfferType))
}

// normalizeCase lowercases and drops a leading '#'.
func normalizeCase(s string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "#")
}
