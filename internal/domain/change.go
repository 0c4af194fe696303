package domain

import "time"

// Zone-level status values carried in AvailabilityChange.Status.
const (
	ZoneStatusAvailable = "available"
	ZoneStatusSoldOut   = "sold_out"
)

// AvailabilityChange is published after a committed transition that changes
// a seat status or a zone's counters. Exactly one of SeatID or ZoneID is set.
type AvailabilityChange struct {
	EventID     string       `json:"event_id"`
	SeatID      string       `json:"seat_id,omitempty"`
	ZoneID      string       `json:"zone_id,omitempty"`
	Status      string       `json:"status"`
	HoldID      string       `json:"hold_id,omitempty"`
	Metrics     *ZoneMetrics `json:"metrics,omitempty"`
	Version     int64        `json:"version"`
	CommittedAt time.Time    `json:"committed_at"`
}

// Key identifies the inventory unit the change applies to. Ordering is only
// guaranteed between changes with the same key.
func (c AvailabilityChange) Key() string {
	if c.SeatID != "" {
		return "seat:" + c.SeatID
	}
	return "zone:" + c.ZoneID
}

func SeatChange(s SeatStatus, at time.Time) AvailabilityChange {
	return AvailabilityChange{
		EventID:     s.EventID,
		SeatID:      s.SeatID,
		Status:      string(s.Status),
		HoldID:      s.HoldID,
		Version:     s.Version,
		CommittedAt: at,
	}
}

func ZoneChange(m ZoneMetrics, at time.Time) AvailabilityChange {
	status := ZoneStatusAvailable
	if m.AvailableCount == 0 {
		status = ZoneStatusSoldOut
	}
	snapshot := m
	return AvailabilityChange{
		EventID:     m.EventID,
		ZoneID:      m.ZoneID,
		Status:      status,
		Metrics:     &snapshot,
		Version:     m.Version,
		CommittedAt: at,
	}
}
