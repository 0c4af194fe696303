package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrIdempotencyKeyRequired = errors.New("idempotency key required")
	ErrIdempotencyConflict    = errors.New("idempotency conflict")
)

// NotFoundError reports a missing event, zone, seat or hold.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// SeatUnavailableError is returned when a seat is not in the available state.
type SeatUnavailableError struct {
	SeatID string
	Status InventoryState
}

func (e SeatUnavailableError) Error() string {
	if e.Status == "" {
		return fmt.Sprintf("seat %s is not available", e.SeatID)
	}
	return fmt.Sprintf("seat %s is not available (%s)", e.SeatID, e.Status)
}

// InsufficientCapacityError is returned when a zone cannot cover the requested quantity.
type InsufficientCapacityError struct {
	ZoneID    string
	Requested int
	Available int
}

func (e InsufficientCapacityError) Error() string {
	return fmt.Sprintf("zone %s has %d available, %d requested", e.ZoneID, e.Available, e.Requested)
}

type OwnershipError struct {
	HoldID string
}

func (e OwnershipError) Error() string {
	return fmt.Sprintf("hold %s is owned by another session", e.HoldID)
}

// NotActiveError is returned for any operation on a hold in a terminal status.
type NotActiveError struct {
	HoldID string
	Status HoldStatus
}

func (e NotActiveError) Error() string {
	return fmt.Sprintf("hold %s is %s", e.HoldID, e.Status)
}

// ExpiredError is returned when a hold's TTL has passed but the sweeper has
// not reclaimed it yet.
type ExpiredError struct {
	HoldID    string
	ExpiresAt time.Time
}

func (e ExpiredError) Error() string {
	return fmt.Sprintf("hold %s expired at %s", e.HoldID, e.ExpiresAt.Format(time.RFC3339))
}

type InvalidStateError struct {
	Msg string
}

func (e InvalidStateError) Error() string {
	if e.Msg == "" {
		return "invalid state"
	}
	return e.Msg
}

type ValidationError struct {
	Field string
	Msg   string
}

func (e ValidationError) Error() string {
	switch {
	case e.Field != "" && e.Msg != "":
		return fmt.Sprintf("%s: %s", e.Field, e.Msg)
	case e.Msg != "":
		return e.Msg
	case e.Field != "":
		return fmt.Sprintf("invalid %s", e.Field)
	default:
		return "validation error"
	}
}

func IsNotFound(err error) bool {
	var target NotFoundError
	return errors.As(err, &target)
}

func IsSeatUnavailable(err error) bool {
	var target SeatUnavailableError
	return errors.As(err, &target)
}

func IsInsufficientCapacity(err error) bool {
	var target InsufficientCapacityError
	return errors.As(err, &target)
}

func IsOwnership(err error) bool {
	var target OwnershipError
	return errors.As(err, &target)
}

func IsNotActive(err error) bool {
	var target NotActiveError
	return errors.As(err, &target)
}

func IsExpired(err error) bool {
	var target ExpiredError
	return errors.As(err, &target)
}

func IsInvalidState(err error) bool {
	var target InvalidStateError
	return errors.As(err, &target)
}

func IsValidation(err error) bool {
	var target ValidationError
	return errors.As(err, &target)
}
