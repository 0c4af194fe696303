package domain

import (
	"strings"
	"time"
)

type HoldStatus string

const (
	HoldStatusActive    HoldStatus = "active"
	HoldStatusReleased  HoldStatus = "released"
	HoldStatusExpired   HoldStatus = "expired"
	HoldStatusConverted HoldStatus = "converted"
)

// Terminal reports whether no further transition is possible.
func (s HoldStatus) Terminal() bool {
	return s != HoldStatusActive
}

type HoldKind string

const (
	HoldKindCart         HoldKind = "cart"
	HoldKindCheckout     HoldKind = "checkout"
	HoldKindStaffReserve HoldKind = "staff_reserve"
)

func (k HoldKind) Valid() bool {
	switch k {
	case HoldKindCart, HoldKindCheckout, HoldKindStaffReserve:
		return true
	}
	return false
}

// Owner identifies the shopper session that controls a hold. UserID and
// CustomerID are recorded for audit only; ownership checks use SessionID.
type Owner struct {
	SessionID  string
	UserID     string
	CustomerID string
}

// Target names the inventory a hold reserves: exactly one of SeatID or ZoneID.
type Target struct {
	SeatID string
	ZoneID string
}

func (t Target) IsSeat() bool {
	return t.SeatID != ""
}

func (t Target) Validate() error {
	seat := strings.TrimSpace(t.SeatID) != ""
	zone := strings.TrimSpace(t.ZoneID) != ""
	switch {
	case seat && zone:
		return ValidationError{Field: "target", Msg: "seat_id and zone_id are mutually exclusive"}
	case !seat && !zone:
		return ValidationError{Field: "target", Msg: "one of seat_id or zone_id is required"}
	}
	return nil
}

// Hold represents reserved inventory for a limited time. Holds are never
// deleted; they move to a terminal status.
type Hold struct {
	ID             string
	EventID        string
	Owner          Owner
	SeatID         string
	ZoneID         string
	Quantity       int
	Kind           HoldKind
	PriceCents     int64
	Status         HoldStatus
	CreatedAt      time.Time
	ExpiresAt      time.Time
	LastExtendedAt time.Time
}

func (h Hold) Target() Target {
	return Target{SeatID: h.SeatID, ZoneID: h.ZoneID}
}

// ExpiredAt reports whether the TTL has passed at now.
func (h Hold) ExpiredAt(now time.Time) bool {
	return h.ExpiresAt.Before(now)
}

// OwnedBy reports whether sessionID controls the hold.
func (h Hold) OwnedBy(sessionID string) bool {
	return sessionID != "" && h.Owner.SessionID == sessionID
}

// HoldPatch is the mutable part of an active hold.
type HoldPatch struct {
	Kind           HoldKind
	Status         HoldStatus
	ExpiresAt      time.Time
	LastExtendedAt time.Time
}
