package domain

import "time"

type EventStatus string

const (
	EventStatusDraft  EventStatus = "draft"
	EventStatusOnSale EventStatus = "on_sale"
	EventStatusClosed EventStatus = "closed"
)

func (s EventStatus) Valid() bool {
	switch s {
	case EventStatusDraft, EventStatusOnSale, EventStatusClosed:
		return true
	}
	return false
}

// Event represents a ticketed event and its sale window.
type Event struct {
	ID           string
	Name         string
	StartsAt     time.Time
	Status       EventStatus
	SalesOpenAt  *time.Time
	SalesCloseAt *time.Time
}

// Sellable reports whether holds may be created for the event at now.
func (e Event) Sellable(now time.Time) bool {
	if e.Status != EventStatusOnSale {
		return false
	}
	if e.SalesOpenAt != nil && now.Before(*e.SalesOpenAt) {
		return false
	}
	if e.SalesCloseAt != nil && !now.Before(*e.SalesCloseAt) {
		return false
	}
	return true
}
