package domain

import (
	"math"
	"time"
)

// InventoryState is the state of a unit of inventory: a seat, or one unit of
// zone capacity.
type InventoryState string

const (
	InventoryAvailable InventoryState = "available"
	InventoryHeld      InventoryState = "held"
	InventorySold      InventoryState = "sold"
	InventoryBlocked   InventoryState = "blocked"
)

func (s InventoryState) Valid() bool {
	switch s {
	case InventoryAvailable, InventoryHeld, InventorySold, InventoryBlocked:
		return true
	}
	return false
}

type Seat struct {
	ID      string
	EventID string
	ZoneID  string
	Label   string
}

// SeatStatus is the live state of a seat. HoldID is set only while held.
type SeatStatus struct {
	SeatID    string
	EventID   string
	ZoneID    string
	Label     string
	Status    InventoryState
	HoldID    string
	Version   int64
	UpdatedAt time.Time
}

// CapacityShift moves Quantity units of a zone from one counter to another.
type CapacityShift struct {
	From     InventoryState
	To       InventoryState
	Quantity int
}

// ZoneCounters are the capacity counters kept on the zone row.
type ZoneCounters struct {
	Total     int
	Available int
	Held      int
	Sold      int
	Blocked   int
	Version   int64
}

// Balanced reports whether the four counters add up to the zone total.
func (c ZoneCounters) Balanced() bool {
	return c.Available+c.Held+c.Sold+c.Blocked == c.Total
}

// Count returns the counter for state.
func (c ZoneCounters) Count(state InventoryState) int {
	switch state {
	case InventoryAvailable:
		return c.Available
	case InventoryHeld:
		return c.Held
	case InventorySold:
		return c.Sold
	case InventoryBlocked:
		return c.Blocked
	}
	return 0
}

// Apply returns the counters after shift, and false when the source counter
// cannot cover the quantity.
func (c ZoneCounters) Apply(shift CapacityShift) (ZoneCounters, bool) {
	if shift.Quantity <= 0 || c.Count(shift.From) < shift.Quantity {
		return c, false
	}
	next := c
	next.add(shift.From, -shift.Quantity)
	next.add(shift.To, shift.Quantity)
	next.Version++
	return next, true
}

func (c *ZoneCounters) add(state InventoryState, n int) {
	switch state {
	case InventoryAvailable:
		c.Available += n
	case InventoryHeld:
		c.Held += n
	case InventorySold:
		c.Sold += n
	case InventoryBlocked:
		c.Blocked += n
	}
}

// OccupancyPercent is held+sold over sellable (non-blocked) capacity. A zone
// with no sellable capacity left counts as full.
func (c ZoneCounters) OccupancyPercent() float64 {
	if c.Total <= 0 {
		return 0
	}
	sellable := c.Total - c.Blocked
	if sellable <= 0 {
		return 100
	}
	return float64(c.Held+c.Sold) * 100 / float64(sellable)
}

// ZoneActivity is the decayed hold/sale activity stored per zone. Values are
// already decayed to At.
type ZoneActivity struct {
	Holds float64
	Sales float64
	At    time.Time
}

// Zone is a pool of capacity. Seated zones are addressed seat by seat and
// their capacity equals the number of seats.
type Zone struct {
	ID         string
	EventID    string
	Name       string
	ZoneType   string
	Accessible bool
	PriceCents int64
	Seated     bool
	Capacity   int
}

// ZoneMetrics is the read model for one zone.
type ZoneMetrics struct {
	ZoneID           string        `json:"zone_id"`
	EventID          string        `json:"event_id"`
	Name             string        `json:"name"`
	ZoneType         string        `json:"zone_type,omitempty"`
	Accessible       bool          `json:"accessible"`
	PriceCents       int64         `json:"price_cents"`
	Seated           bool          `json:"seated"`
	TotalCapacity    int           `json:"total_capacity"`
	AvailableCount   int           `json:"available_count"`
	HeldCount        int           `json:"held_count"`
	SoldCount        int           `json:"sold_count"`
	BlockedCount     int           `json:"blocked_count"`
	OccupancyPercent float64       `json:"occupancy_percent"`
	Heatmap          HeatmapBucket `json:"heatmap"`
	PopularityScore  float64       `json:"popularity_score"`
	Version          int64         `json:"version"`
}

// NewZoneMetrics derives occupancy and heatmap from the counters. Popularity
// is filled in by the caller.
func NewZoneMetrics(zone Zone, c ZoneCounters) ZoneMetrics {
	occupancy := c.OccupancyPercent()
	return ZoneMetrics{
		ZoneID:           zone.ID,
		EventID:          zone.EventID,
		Name:             zone.Name,
		ZoneType:         zone.ZoneType,
		Accessible:       zone.Accessible,
		PriceCents:       zone.PriceCents,
		Seated:           zone.Seated,
		TotalCapacity:    c.Total,
		AvailableCount:   c.Available,
		HeldCount:        c.Held,
		SoldCount:        c.Sold,
		BlockedCount:     c.Blocked,
		OccupancyPercent: occupancy,
		Heatmap:          HeatmapFor(occupancy),
		Version:          c.Version,
	}
}

type HeatmapBucket string

const (
	HeatmapCritical  HeatmapBucket = "critical"
	HeatmapHigh      HeatmapBucket = "high"
	HeatmapMedium    HeatmapBucket = "medium"
	HeatmapLowMedium HeatmapBucket = "low-medium"
	HeatmapLow       HeatmapBucket = "low"
)

func HeatmapFor(occupancyPercent float64) HeatmapBucket {
	switch {
	case occupancyPercent >= 90:
		return HeatmapCritical
	case occupancyPercent >= 70:
		return HeatmapHigh
	case occupancyPercent >= 50:
		return HeatmapMedium
	case occupancyPercent >= 30:
		return HeatmapLowMedium
	default:
		return HeatmapLow
	}
}

// DecayTo returns the activity decayed from a.At to t with the given half-life.
func (a ZoneActivity) DecayTo(t time.Time, halfLife time.Duration) ZoneActivity {
	if a.At.IsZero() || !t.After(a.At) || halfLife <= 0 {
		if t.After(a.At) {
			a.At = t
		}
		return a
	}
	factor := math.Pow(0.5, t.Sub(a.At).Seconds()/halfLife.Seconds())
	return ZoneActivity{Holds: a.Holds * factor, Sales: a.Sales * factor, At: t}
}

// ActivityBump is recorded on the zone together with a capacity shift.
type ActivityBump struct {
	Holds    float64
	Sales    float64
	At       time.Time
	HalfLife time.Duration
}

// Apply decays a to bump.At and adds the bump.
func (b ActivityBump) Apply(a ZoneActivity) ZoneActivity {
	next := a.DecayTo(b.At, b.HalfLife)
	next.Holds += b.Holds
	next.Sales += b.Sales
	next.At = b.At
	return next
}

// ZoneState is a zone row: definition, counters and activity.
type ZoneState struct {
	Zone     Zone
	Counters ZoneCounters
	Activity ZoneActivity
}

// SeatTransition is a conditional seat update: it applies only when the seat
// is in From and, if ExpectHoldID is set, held by that hold.
type SeatTransition struct {
	EventID      string
	SeatID       string
	From         InventoryState
	To           InventoryState
	ExpectHoldID string
	HoldID       string
	At           time.Time
}
