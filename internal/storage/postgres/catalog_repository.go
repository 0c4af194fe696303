package postgres

import (
	"context"
	"fmt"

	"github.com/cimillas/seatlease/internal/domain"
	"github.com/jackc/pgx/v5"
)

type CatalogRepository struct {
	*InventoryRepository
}

func NewCatalogRepository(inv *InventoryRepository) *CatalogRepository {
	return &CatalogRepository{InventoryRepository: inv}
}

func (r *CatalogRepository) CreateEvent(ctx context.Context, event domain.Event) error {
	const stmt = `
INSERT INTO events (` + eventColumns + `)
VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.exec(ctx, stmt, event.ID, event.Name, event.StartsAt, string(event.Status), event.SalesOpenAt, event.SalesCloseAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ValidationError{Field: "event_id", Msg: "must be a UUID"}
		}
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

func (r *CatalogRepository) ListEvents(ctx context.Context) ([]domain.Event, error) {
	rows, err := r.query(ctx, `SELECT `+eventColumns+` FROM events ORDER BY starts_at, created_at`)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, event)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate events: %w", rows.Err())
	}
	return events, nil
}

func (r *CatalogRepository) SetEventStatus(ctx context.Context, eventID string, status domain.EventStatus) (domain.Event, error) {
	const stmt = `UPDATE events SET status = $2 WHERE id = $1 RETURNING ` + eventColumns
	event, err := scanEvent(r.queryRow(ctx, stmt, eventID, string(status)))
	if err != nil {
		return domain.Event{}, notFoundOr(err, "event", eventID, "set event status")
	}
	return event, nil
}

// CreateZone inserts the zone with all capacity available. Seats are bulk
// loaded with COPY.
func (r *CatalogRepository) CreateZone(ctx context.Context, zone domain.Zone, seats []domain.Seat) error {
	const stmt = `
INSERT INTO zones (id, event_id, name, zone_type, accessible, price_cents, seated, total_capacity, available_count)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)`
	_, err := r.exec(ctx, stmt, zone.ID, zone.EventID, zone.Name, zone.ZoneType, zone.Accessible, zone.PriceCents, zone.Seated, zone.Capacity)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ValidationError{Field: "event_id", Msg: "must be a UUID"}
		}
		if isUniqueViolation(err) {
			return domain.ValidationError{Field: "name", Msg: "zone " + zone.Name + " already exists"}
		}
		if isForeignKeyViolation(err) {
			return domain.NotFoundError{Resource: "event", ID: zone.EventID}
		}
		return fmt.Errorf("create zone: %w", err)
	}
	if len(seats) == 0 {
		return nil
	}

	_, err = r.copyFrom(ctx,
		pgx.Identifier{"seats"},
		[]string{"id", "event_id", "zone_id", "label"},
		pgx.CopyFromSlice(len(seats), func(i int) ([]any, error) {
			s := seats[i]
			return []any{s.ID, s.EventID, s.ZoneID, s.Label}, nil
		}),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ValidationError{Field: "seats", Msg: "duplicate seat label"}
		}
		return fmt.Errorf("create seats: %w", err)
	}
	return nil
}

func (r *CatalogRepository) ListZonesByEvent(ctx context.Context, eventID string) ([]domain.Zone, error) {
	if _, err := r.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}
	states, err := r.ListZoneStates(ctx, eventID)
	if err != nil {
		return nil, err
	}
	zones := make([]domain.Zone, 0, len(states))
	for _, s := range states {
		zones = append(zones, s.Zone)
	}
	return zones, nil
}
