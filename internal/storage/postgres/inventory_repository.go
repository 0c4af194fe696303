package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cimillas/seatlease/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultChannel is the NOTIFY channel availability changes are sent on.
const DefaultChannel = "availability_changes"

// InventoryRepository owns events, zones and seats. Every write is a single
// conditional UPDATE so that concurrent transactions cannot oversell.
type InventoryRepository struct {
	db
	channel string
}

func NewInventoryRepository(pool *pgxpool.Pool, channel string) *InventoryRepository {
	if channel == "" {
		channel = DefaultChannel
	}
	return &InventoryRepository{db: db{pool: pool}, channel: channel}
}

const eventColumns = `id, name, starts_at, status, sales_open_at, sales_close_at`

func scanEvent(row pgx.Row) (domain.Event, error) {
	var e domain.Event
	var status string
	if err := row.Scan(&e.ID, &e.Name, &e.StartsAt, &status, &e.SalesOpenAt, &e.SalesCloseAt); err != nil {
		return domain.Event{}, err
	}
	e.Status = domain.EventStatus(status)
	return e, nil
}

func (r *InventoryRepository) GetEvent(ctx context.Context, eventID string) (domain.Event, error) {
	e, err := scanEvent(r.queryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, eventID))
	if err != nil {
		return domain.Event{}, notFoundOr(err, "event", eventID, "get event")
	}
	return e, nil
}

const zoneColumns = `id, event_id, name, zone_type, accessible, price_cents, seated, total_capacity,
	available_count, held_count, sold_count, blocked_count, version,
	hold_activity, sale_activity, activity_at`

func scanZone(row pgx.Row) (domain.ZoneState, error) {
	var s domain.ZoneState
	var activityAt *time.Time
	err := row.Scan(
		&s.Zone.ID, &s.Zone.EventID, &s.Zone.Name, &s.Zone.ZoneType, &s.Zone.Accessible,
		&s.Zone.PriceCents, &s.Zone.Seated, &s.Zone.Capacity,
		&s.Counters.Available, &s.Counters.Held, &s.Counters.Sold, &s.Counters.Blocked, &s.Counters.Version,
		&s.Activity.Holds, &s.Activity.Sales, &activityAt,
	)
	if err != nil {
		return domain.ZoneState{}, err
	}
	s.Counters.Total = s.Zone.Capacity
	if activityAt != nil {
		s.Activity.At = *activityAt
	}
	return s, nil
}

func (r *InventoryRepository) GetZone(ctx context.Context, eventID, zoneID string) (domain.Zone, error) {
	s, err := scanZone(r.queryRow(ctx, `SELECT `+zoneColumns+` FROM zones WHERE id = $1 AND event_id = $2`, zoneID, eventID))
	if err != nil {
		return domain.Zone{}, notFoundOr(err, "zone", zoneID, "get zone")
	}
	return s.Zone, nil
}

func (r *InventoryRepository) getZoneState(ctx context.Context, zoneID string) (domain.ZoneState, error) {
	s, err := scanZone(r.queryRow(ctx, `SELECT `+zoneColumns+` FROM zones WHERE id = $1`, zoneID))
	if err != nil {
		return domain.ZoneState{}, notFoundOr(err, "zone", zoneID, "get zone")
	}
	return s, nil
}

func (r *InventoryRepository) ListZoneStates(ctx context.Context, eventID string) ([]domain.ZoneState, error) {
	rows, err := r.query(ctx, `SELECT `+zoneColumns+` FROM zones WHERE event_id = $1 ORDER BY name`, eventID)
	if err != nil {
		return nil, fmt.Errorf("list zones: %w", err)
	}
	defer rows.Close()

	var out []domain.ZoneState
	for rows.Next() {
		s, err := scanZone(rows)
		if err != nil {
			return nil, fmt.Errorf("scan zone: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list zones: %w", err)
	}
	return out, nil
}

// counterColumn whitelists the zone column for an inventory state.
func counterColumn(state domain.InventoryState) (string, error) {
	switch state {
	case domain.InventoryAvailable:
		return "available_count", nil
	case domain.InventoryHeld:
		return "held_count", nil
	case domain.InventorySold:
		return "sold_count", nil
	case domain.InventoryBlocked:
		return "blocked_count", nil
	}
	return "", fmt.Errorf("unknown inventory state %q", state)
}

// decayFactor is the exponential decay of stored activity from activity_at to
// $9 with half-life $10 seconds. It mirrors domain.ZoneActivity.DecayTo.
const decayFactor = `(CASE WHEN activity_at IS NULL OR activity_at >= $9::timestamptz OR $10::float8 <= 0 THEN 1
	ELSE power(0.5::float8, EXTRACT(EPOCH FROM ($9::timestamptz - activity_at))::float8 / $10::float8) END)`

// ShiftZone moves shift.Quantity units between two counters, guarded by the
// source counter, and folds bump into the zone's decayed activity.
func (r *InventoryRepository) ShiftZone(ctx context.Context, zoneID string, shift domain.CapacityShift, bump domain.ActivityBump) (domain.ZoneState, bool, error) {
	from, err := counterColumn(shift.From)
	if err != nil {
		return domain.ZoneState{}, false, err
	}
	if _, err := counterColumn(shift.To); err != nil {
		return domain.ZoneState{}, false, err
	}

	var delta [4]int
	for i, state := range []domain.InventoryState{domain.InventoryAvailable, domain.InventoryHeld, domain.InventorySold, domain.InventoryBlocked} {
		if state == shift.From {
			delta[i] -= shift.Quantity
		}
		if state == shift.To {
			delta[i] += shift.Quantity
		}
	}

	stmt := fmt.Sprintf(`
UPDATE zones SET
	available_count = available_count + $3,
	held_count = held_count + $4,
	sold_count = sold_count + $5,
	blocked_count = blocked_count + $6,
	hold_activity = hold_activity * %[2]s + $7,
	sale_activity = sale_activity * %[2]s + $8,
	activity_at = GREATEST(COALESCE(activity_at, $9::timestamptz), $9::timestamptz),
	version = version + 1
WHERE id = $1 AND %[1]s >= $2 AND $2 > 0
RETURNING %[3]s`, from, decayFactor, zoneColumns)

	state, err := scanZone(r.queryRow(ctx, stmt,
		zoneID, shift.Quantity,
		delta[0], delta[1], delta[2], delta[3],
		bump.Holds, bump.Sales, bump.At, bump.HalfLife.Seconds(),
	))
	if err == nil {
		return state, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		if isCheckViolation(err) {
			return domain.ZoneState{}, false, fmt.Errorf("shift zone %s: counters would leave balance: %w", zoneID, err)
		}
		return domain.ZoneState{}, false, notFoundOr(err, "zone", zoneID, "shift zone")
	}

	current, err := r.getZoneState(ctx, zoneID)
	if err != nil {
		return domain.ZoneState{}, false, err
	}
	return current, false, nil
}

const seatColumns = `id, event_id, zone_id, label, status, hold_id, version, updated_at`

func scanSeat(row pgx.Row) (domain.SeatStatus, error) {
	var s domain.SeatStatus
	var status string
	var holdID *string
	if err := row.Scan(&s.SeatID, &s.EventID, &s.ZoneID, &s.Label, &status, &holdID, &s.Version, &s.UpdatedAt); err != nil {
		return domain.SeatStatus{}, err
	}
	s.Status = domain.InventoryState(status)
	s.HoldID = deref(holdID)
	return s, nil
}

func (r *InventoryRepository) GetSeat(ctx context.Context, eventID, seatID string) (domain.SeatStatus, error) {
	s, err := scanSeat(r.queryRow(ctx, `SELECT `+seatColumns+` FROM seats WHERE id = $1 AND event_id = $2`, seatID, eventID))
	if err != nil {
		return domain.SeatStatus{}, notFoundOr(err, "seat", seatID, "get seat")
	}
	return s, nil
}

// TransitionSeat applies only when the seat is in t.From and, when
// t.ExpectHoldID is set, still held by that hold.
func (r *InventoryRepository) TransitionSeat(ctx context.Context, t domain.SeatTransition) (domain.SeatStatus, bool, error) {
	const stmt = `
UPDATE seats SET
	status = $4,
	hold_id = $5,
	version = version + 1,
	updated_at = $6
WHERE id = $1 AND event_id = $2 AND status = $3
	AND ($7::text = '' OR hold_id::text = $7::text)
RETURNING ` + seatColumns

	var holdID any
	if t.To == domain.InventoryHeld {
		holdID = nullable(t.HoldID)
	}
	s, err := scanSeat(r.queryRow(ctx, stmt,
		t.SeatID, t.EventID, string(t.From), string(t.To), holdID, t.At, t.ExpectHoldID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.SeatStatus{}, false, nil
		}
		if isInvalidUUID(err) {
			return domain.SeatStatus{}, false, domain.ValidationError{Field: "seat_id", Msg: "must be a UUID"}
		}
		return domain.SeatStatus{}, false, fmt.Errorf("transition seat: %w", err)
	}
	return s, true, nil
}

func (r *InventoryRepository) ListSeatStatuses(ctx context.Context, eventID string) ([]domain.SeatStatus, error) {
	rows, err := r.query(ctx, `SELECT `+seatColumns+` FROM seats WHERE event_id = $1 ORDER BY zone_id, label`, eventID)
	if err != nil {
		return nil, fmt.Errorf("list seats: %w", err)
	}
	defer rows.Close()

	var out []domain.SeatStatus
	for rows.Next() {
		s, err := scanSeat(rows)
		if err != nil {
			return nil, fmt.Errorf("scan seat: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list seats: %w", err)
	}
	return out, nil
}

// PublishChanges sends each change with pg_notify. Inside a transaction
// Postgres delivers them only on commit, in commit order.
func (r *InventoryRepository) PublishChanges(ctx context.Context, changes []domain.AvailabilityChange) error {
	for _, c := range changes {
		payload, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("encode change: %w", err)
		}
		if _, err := r.exec(ctx, `SELECT pg_notify($1, $2)`, r.channel, string(payload)); err != nil {
			return fmt.Errorf("notify change: %w", err)
		}
	}
	return nil
}

func notFoundOr(err error, resource, id, op string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.NotFoundError{Resource: resource, ID: id}
	}
	if isInvalidUUID(err) {
		return domain.ValidationError{Field: resource + "_id", Msg: "must be a UUID"}
	}
	return fmt.Errorf("%s: %w", op, err)
}
