package app

import (
	"context"
	"fmt"
	"time"

	"github.com/cimillas/seatlease/internal/domain"
)

// InventoryStore holds the conditional writes shared by every lifecycle
// operation. Each write applies only when the row still matches the expected
// prior state and reports false otherwise.
type InventoryStore interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetEvent(ctx context.Context, eventID string) (domain.Event, error)
	GetZone(ctx context.Context, eventID, zoneID string) (domain.Zone, error)
	GetSeat(ctx context.Context, eventID, seatID string) (domain.SeatStatus, error)
	TransitionSeat(ctx context.Context, t domain.SeatTransition) (domain.SeatStatus, bool, error)
	// ShiftZone returns the updated zone on success and the current zone when
	// the source counter cannot cover the shift.
	ShiftZone(ctx context.Context, zoneID string, shift domain.CapacityShift, bump domain.ActivityBump) (domain.ZoneState, bool, error)
	// PublishChanges queues changes for delivery once the surrounding
	// transaction commits.
	PublishChanges(ctx context.Context, changes []domain.AvailabilityChange) error
}

// inventoryMover applies seat and zone transitions for a hold and collects
// the resulting availability changes.
type inventoryMover struct {
	store      InventoryStore
	popularity PopularityStrategy
	halfLife   time.Duration
	changes    []domain.AvailabilityChange
}

func newInventoryMover(store InventoryStore, popularity PopularityStrategy, halfLife time.Duration) *inventoryMover {
	return &inventoryMover{store: store, popularity: popularity, halfLife: halfLife}
}

func (m *inventoryMover) bump(now time.Time, holds, sales float64) domain.ActivityBump {
	return domain.ActivityBump{Holds: holds, Sales: sales, At: now, HalfLife: m.halfLife}
}

// moveSeat moves a seat from `from` to `to` and moves one unit of its zone
// the same way.
func (m *inventoryMover) moveSeat(ctx context.Context, t domain.SeatTransition, bump domain.ActivityBump) (domain.SeatStatus, error) {
	seat, ok, err := m.store.TransitionSeat(ctx, t)
	if err != nil {
		return domain.SeatStatus{}, err
	}
	if !ok {
		current, err := m.store.GetSeat(ctx, t.EventID, t.SeatID)
		if err != nil {
			return domain.SeatStatus{}, err
		}
		return current, domain.SeatUnavailableError{SeatID: t.SeatID, Status: current.Status}
	}
	m.changes = append(m.changes, domain.SeatChange(seat, t.At))

	if _, err := m.moveZone(ctx, seat.ZoneID, domain.CapacityShift{From: t.From, To: t.To, Quantity: 1}, bump); err != nil {
		if domain.IsInsufficientCapacity(err) {
			return seat, fmt.Errorf("zone %s counters disagree with seat %s: %w", seat.ZoneID, seat.SeatID, err)
		}
		return seat, err
	}
	return seat, nil
}

func (m *inventoryMover) moveZone(ctx context.Context, zoneID string, shift domain.CapacityShift, bump domain.ActivityBump) (domain.ZoneState, error) {
	state, ok, err := m.store.ShiftZone(ctx, zoneID, shift, bump)
	if err != nil {
		return domain.ZoneState{}, err
	}
	if !ok {
		return state, domain.InsufficientCapacityError{
			ZoneID:    zoneID,
			Requested: shift.Quantity,
			Available: state.Counters.Count(shift.From),
		}
	}
	m.changes = append(m.changes, domain.ZoneChange(zoneMetrics(m.popularity, state, bump.At), bump.At))
	return state, nil
}

// settle returns a hold's reserved inventory to `to`: available on release
// and expiry, sold on conversion.
func (m *inventoryMover) settle(ctx context.Context, hold domain.Hold, to domain.InventoryState, now time.Time) error {
	var sales float64
	if to == domain.InventorySold {
		sales = float64(hold.Quantity)
	}
	bump := m.bump(now, 0, sales)

	if hold.SeatID != "" {
		_, err := m.moveSeat(ctx, domain.SeatTransition{
			EventID:      hold.EventID,
			SeatID:       hold.SeatID,
			From:         domain.InventoryHeld,
			To:           to,
			ExpectHoldID: hold.ID,
			At:           now,
		}, bump)
		if err != nil {
			return fmt.Errorf("settle seat for hold %s: %w", hold.ID, err)
		}
		return nil
	}

	shift := domain.CapacityShift{From: domain.InventoryHeld, To: to, Quantity: hold.Quantity}
	if _, err := m.moveZone(ctx, hold.ZoneID, shift, bump); err != nil {
		return fmt.Errorf("settle zone for hold %s: %w", hold.ID, err)
	}
	return nil
}

func (m *inventoryMover) publish(ctx context.Context) error {
	if len(m.changes) == 0 {
		return nil
	}
	return m.store.PublishChanges(ctx, m.changes)
}
