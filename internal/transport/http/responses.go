package http

import (
	"time"

	"github.com/cimillas/seatlease/internal/app"
	"github.com/cimillas/seatlease/internal/domain"
)

type holdResponse struct {
	ID             string    `json:"id"`
	EventID        string    `json:"event_id"`
	SeatID         string    `json:"seat_id,omitempty"`
	ZoneID         string    `json:"zone_id,omitempty"`
	Quantity       int       `json:"quantity"`
	Kind           string    `json:"kind"`
	PriceCents     int64     `json:"price_cents"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	ExpiresAt      time.Time `json:"expires_at"`
	LastExtendedAt time.Time `json:"last_extended_at"`
}

func newHoldResponse(h domain.Hold) holdResponse {
	return holdResponse{
		ID:             h.ID,
		EventID:        h.EventID,
		SeatID:         h.SeatID,
		ZoneID:         h.ZoneID,
		Quantity:       h.Quantity,
		Kind:           string(h.Kind),
		PriceCents:     h.PriceCents,
		Status:         string(h.Status),
		CreatedAt:      h.CreatedAt,
		ExpiresAt:      h.ExpiresAt,
		LastExtendedAt: h.LastExtendedAt,
	}
}

type orderResponse struct {
	ID        string    `json:"id"`
	HoldID    string    `json:"hold_id"`
	EventID   string    `json:"event_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type seatStatusResponse struct {
	SeatID    string    `json:"seat_id"`
	ZoneID    string    `json:"zone_id"`
	Label     string    `json:"label"`
	Status    string    `json:"status"`
	Version   int64     `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newSeatStatusResponses(seats []domain.SeatStatus) []seatStatusResponse {
	out := make([]seatStatusResponse, 0, len(seats))
	for _, s := range seats {
		out = append(out, seatStatusResponse{
			SeatID:    s.SeatID,
			ZoneID:    s.ZoneID,
			Label:     s.Label,
			Status:    string(s.Status),
			Version:   s.Version,
			UpdatedAt: s.UpdatedAt,
		})
	}
	return out
}

func zoneMetricsOrEmpty(zones []domain.ZoneMetrics) []domain.ZoneMetrics {
	if zones == nil {
		return []domain.ZoneMetrics{}
	}
	return zones
}

type snapshotResponse struct {
	EventID string               `json:"event_id"`
	Seats   []seatStatusResponse `json:"seats"`
	Zones   []domain.ZoneMetrics `json:"zones"`
	TakenAt time.Time            `json:"taken_at"`
}

func newSnapshotResponse(s app.Snapshot) snapshotResponse {
	return snapshotResponse{
		EventID: s.EventID,
		Seats:   newSeatStatusResponses(s.Seats),
		Zones:   zoneMetricsOrEmpty(s.Zones),
		TakenAt: s.TakenAt,
	}
}

type suggestionResponse struct {
	Rank   int                `json:"rank"`
	Reason string             `json:"reason"`
	Zone   domain.ZoneMetrics `json:"zone"`
}

type eventResponse struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	StartsAt     time.Time  `json:"starts_at"`
	Status       string     `json:"status"`
	SalesOpenAt  *time.Time `json:"sales_open_at,omitempty"`
	SalesCloseAt *time.Time `json:"sales_close_at,omitempty"`
}

func newEventResponse(e domain.Event) eventResponse {
	return eventResponse{
		ID:           e.ID,
		Name:         e.Name,
		StartsAt:     e.StartsAt,
		Status:       string(e.Status),
		SalesOpenAt:  e.SalesOpenAt,
		SalesCloseAt: e.SalesCloseAt,
	}
}

type zoneResponse struct {
	ID         string `json:"id"`
	EventID    string `json:"event_id"`
	Name       string `json:"name"`
	ZoneType   string `json:"zone_type,omitempty"`
	Accessible bool   `json:"accessible"`
	PriceCents int64  `json:"price_cents"`
	Seated     bool   `json:"seated"`
	Capacity   int    `json:"capacity"`
}

func newZoneResponse(z domain.Zone) zoneResponse {
	return zoneResponse{
		ID:         z.ID,
		EventID:    z.EventID,
		Name:       z.Name,
		ZoneType:   z.ZoneType,
		Accessible: z.Accessible,
		PriceCents: z.PriceCents,
		Seated:     z.Seated,
		Capacity:   z.Capacity,
	}
}
