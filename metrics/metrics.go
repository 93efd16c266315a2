// ABOUTME: Dashboard roll-ups for CSAT, conversion, and follow-up completion
// ABOUTME: Every rate is a percentage and is zero when its denominator is zero
package metrics

import (
	"math"
	"sort"
	"time"

	"github.com/harperreed/offertrack/models"
)

// ImplicitDecisionDays is the age after which an undecided offer is
// reported as not converted.
const ImplicitDecisionDays = 30

type ConversionState int

const (
	ConversionPending ConversionState = iota
	ConversionConverted
	ConversionNotConverted
)

type CSATStats struct {
	Positive     int     `json:"positive"`
	Neutral      int     `json:"neutral"`
	Negative     int     `json:"negative"`
	Total        int     `json:"total"`
	PositiveRate float64 `json:"positiveRate"`
	NeutralRate  float64 `json:"neutralRate"`
	NegativeRate float64 `json:"negativeRate"`
}

type ConversionStats struct {
	Converted            int     `json:"converted"`
	NotConverted         int     `json:"notConverted"`
	Pending              int     `json:"pending"`
	Rate                 float64 `json:"rate"`
	AverageDaysToConvert float64 `json:"averageDaysToConvert"`
}

type FollowupStats struct {
	Total          int     `json:"total"`
	Completed      int     `json:"completed"`
	Overdue        int     `json:"overdue"`
	DueToday       int     `json:"dueToday"`
	CompletionRate float64 `json:"completionRate"`
}

type Breakdown struct {
	Name           string  `json:"name"`
	Offers         int     `json:"offers"`
	Converted      int     `json:"converted"`
	ConversionRate float64 `json:"conversionRate"`
}

type Summary struct {
	TotalOffers int             `json:"totalOffers"`
	CSAT        CSATStats       `json:"csat"`
	Conversion  ConversionStats `json:"conversion"`
	Followups   FollowupStats   `json:"followups"`
	ByChannel   []Breakdown     `json:"byChannel"`
	ByOfferType []Breakdown     `json:"byOfferType"`
}

func rate(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return 100 * float64(part) / float64(whole)
}

// DaysBetween counts whole calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	a = models.StartOfDay(a.In(b.Location()))
	b = models.StartOfDay(b)
	return int(math.Round(b.Sub(a).Hours() / 24))
}

// ConversionStatusAt classifies an offer. Undecided offers older than
// ImplicitDecisionDays count as not converted.
func ConversionStatusAt(o models.Offer, now time.Time) ConversionState {
	switch {
	case o.Converted != nil && *o.Converted:
		return ConversionConverted
	case o.Converted != nil:
		return ConversionNotConverted
	case DaysBetween(o.Date, now) > ImplicitDecisionDays:
		return ConversionNotConverted
	default:
		return ConversionPending
	}
}

func CSAT(offers []models.Offer) CSATStats {
	var s CSATStats
	for _, o := range offers {
		switch o.CSAT {
		case models.CSATPositive:
			s.Positive++
		case models.CSATNeutral:
			s.Neutral++
		case models.CSATNegative:
			s.Negative++
		}
	}
	s.Total = s.Positive + s.Neutral + s.Negative
	s.PositiveRate = rate(s.Positive, s.Total)
	s.NeutralRate = rate(s.Neutral, s.Total)
	s.NegativeRate = rate(s.Negative, s.Total)
	return s
}

// Conversion rate is converted over decided offers; pending ones are excluded.
func Conversion(offers []models.Offer, now time.Time) ConversionStats {
	var s ConversionStats
	daysSum, samples := 0, 0
	for _, o := range offers {
		switch ConversionStatusAt(o, now) {
		case ConversionConverted:
			s.Converted++
			if o.ConversionDate != nil {
				daysSum += DaysBetween(o.Date, *o.ConversionDate)
				samples++
			}
		case ConversionNotConverted:
			s.NotConverted++
		default:
			s.Pending++
		}
	}
	s.Rate = rate(s.Converted, s.Converted+s.NotConverted)
	if samples > 0 {
		s.AverageDaysToConvert = float64(daysSum) / float64(samples)
	}
	return s
}

func Followups(offers []models.Offer, now time.Time) FollowupStats {
	var s FollowupStats
	today := models.StartOfDay(now)
	for _, o := range offers {
		for _, f := range o.Followups {
			s.Total++
			if f.Completed {
				s.Completed++
				continue
			}
			due := models.StartOfDay(f.Date.In(now.Location()))
			switch {
			case due.Before(today):
				s.Overdue++
			case due.Equal(today):
				s.DueToday++
			}
		}
	}
	s.CompletionRate = rate(s.Completed, s.Total)
	return s
}

func breakdown(offers []models.Offer, now time.Time, key func(models.Offer) string) []Breakdown {
	index := make(map[string]*Breakdown)
	for _, o := range offers {
		name := key(o)
		b, ok := index[name]
		if !ok {
			b = &Breakdown{Name: name}
			index[name] = b
		}
		b.Offers++
		if ConversionStatusAt(o, now) == ConversionConverted {
			b.Converted++
		}
	}

	result := make([]Breakdown, 0, len(index))
	for _, b := range index {
		b.ConversionRate = rate(b.Converted, b.Offers)
		result = append(result, *b)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Offers != result[j].Offers {
			return result[i].Offers > result[j].Offers
		}
		return result[i].Name < result[j].Name
	})
	return result
}

// Summarize builds every dashboard roll-up from one snapshot.
func Summarize(offers []models.Offer, now time.Time) Summary {
	return Summary{
		TotalOffers: len(offers),
		CSAT:        CSAT(offers),
		Conversion:  Conversion(offers, now),
		Followups:   Followups(offers, now),
		ByChannel:   breakdown(offers, now, func(o models.Offer) string { return o.Channel }),
		ByOfferType: breakdown(offers, now, func(o models.Offer) string { return o.OfferType }),
	}
}
