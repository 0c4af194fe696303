package domain

import "time"

// ZoneFilters narrows recommendation candidates. Zero values mean no filter.
type ZoneFilters struct {
	ZoneType      string `json:"zone_type,omitempty"`
	Accessible    *bool  `json:"accessible,omitempty"`
	MaxPriceCents int64  `json:"max_price_cents,omitempty"`
}

func (f ZoneFilters) Match(m ZoneMetrics) bool {
	if f.ZoneType != "" && f.ZoneType != m.ZoneType {
		return false
	}
	if f.Accessible != nil && *f.Accessible != m.Accessible {
		return false
	}
	if f.MaxPriceCents > 0 && m.PriceCents > f.MaxPriceCents {
		return false
	}
	return true
}

const (
	ReasonVeryPopular       = "very popular"
	ReasonGreatAvailability = "great availability"
	ReasonGoodPosition      = "good position"
)

type ZoneSuggestion struct {
	Zone   ZoneMetrics
	Rank   int
	Reason string
}

// RecommendationRecord is the stored trace of one recommendation query.
type RecommendationRecord struct {
	ID        string
	EventID   string
	SessionID string
	PartySize int
	Filters   ZoneFilters
	ZoneIDs   []string
	CreatedAt time.Time
}
