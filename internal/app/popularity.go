package app

import (
	"time"

	"github.com/cimillas/seatlease/internal/domain"
)

// PopularityStrategy scores a zone for ranking. Implementations must not
// decrease when recent activity increases.
type PopularityStrategy interface {
	Score(activity domain.ZoneActivity, counters domain.ZoneCounters, now time.Time) float64
}

// DecayedActivity weighs exponentially decayed hold and sale activity.
type DecayedActivity struct {
	HalfLife   time.Duration
	HoldWeight float64
	SaleWeight float64
}

const defaultPopularityHalfLife = 15 * time.Minute

// DefaultPopularity counts a sale twice as much as a hold.
func DefaultPopularity(halfLife time.Duration) DecayedActivity {
	if halfLife <= 0 {
		halfLife = defaultPopularityHalfLife
	}
	return DecayedActivity{HalfLife: halfLife, HoldWeight: 1, SaleWeight: 2}
}

func (d DecayedActivity) Score(activity domain.ZoneActivity, _ domain.ZoneCounters, now time.Time) float64 {
	a := activity.DecayTo(now, d.HalfLife)
	return d.HoldWeight*a.Holds + d.SaleWeight*a.Sales
}

func zoneMetrics(strategy PopularityStrategy, state domain.ZoneState, now time.Time) domain.ZoneMetrics {
	m := domain.NewZoneMetrics(state.Zone, state.Counters)
	if strategy != nil {
		m.PopularityScore = strategy.Score(state.Activity, state.Counters, now)
	}
	return m
}
