package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cimillas/seatlease/internal/domain"
	"github.com/jackc/pgx/v5"
)

type HoldRepository struct {
	*InventoryRepository
}

func NewHoldRepository(inv *InventoryRepository) *HoldRepository {
	return &HoldRepository{InventoryRepository: inv}
}

const holdColumns = `id, event_id, session_id, user_id, customer_id, seat_id, zone_id, quantity,
	kind, price_cents, status, created_at, expires_at, last_extended_at`

func scanHold(row pgx.Row) (domain.Hold, error) {
	var h domain.Hold
	var seatID, zoneID *string
	var kind, status string
	err := row.Scan(
		&h.ID, &h.EventID, &h.Owner.SessionID, &h.Owner.UserID, &h.Owner.CustomerID,
		&seatID, &zoneID, &h.Quantity, &kind, &h.PriceCents, &status,
		&h.CreatedAt, &h.ExpiresAt, &h.LastExtendedAt,
	)
	if err != nil {
		return domain.Hold{}, err
	}
	h.SeatID = deref(seatID)
	h.ZoneID = deref(zoneID)
	h.Kind = domain.HoldKind(kind)
	h.Status = domain.HoldStatus(status)
	return h, nil
}

func (r *HoldRepository) InsertHold(ctx context.Context, hold domain.Hold) error {
	const stmt = `
INSERT INTO holds (` + holdColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := r.exec(ctx, stmt,
		hold.ID,
		hold.EventID,
		hold.Owner.SessionID,
		hold.Owner.UserID,
		hold.Owner.CustomerID,
		nullable(hold.SeatID),
		nullable(hold.ZoneID),
		hold.Quantity,
		string(hold.Kind),
		hold.PriceCents,
		string(hold.Status),
		hold.CreatedAt,
		hold.ExpiresAt,
		hold.LastExtendedAt,
	)
	if err != nil {
		if isUniqueViolation(err) && hold.SeatID != "" {
			return domain.SeatUnavailableError{SeatID: hold.SeatID, Status: domain.InventoryHeld}
		}
		if isInvalidUUID(err) {
			return domain.ValidationError{Field: "id", Msg: "must be a UUID"}
		}
		return fmt.Errorf("insert hold: %w", err)
	}
	return nil
}

// GetHoldForUpdate locks the hold row until the transaction ends.
func (r *HoldRepository) GetHoldForUpdate(ctx context.Context, holdID string) (domain.Hold, error) {
	h, err := scanHold(r.queryRow(ctx, `SELECT `+holdColumns+` FROM holds WHERE id = $1 FOR UPDATE`, holdID))
	if err != nil {
		return domain.Hold{}, notFoundOr(err, "hold", holdID, "get hold")
	}
	return h, nil
}

func (r *HoldRepository) UpdateHold(ctx context.Context, holdID string, patch domain.HoldPatch) (domain.Hold, error) {
	const stmt = `
UPDATE holds SET kind = $2, status = $3, expires_at = $4, last_extended_at = $5
WHERE id = $1
RETURNING ` + holdColumns

	h, err := scanHold(r.queryRow(ctx, stmt, holdID, string(patch.Kind), string(patch.Status), patch.ExpiresAt, patch.LastExtendedAt))
	if err != nil {
		return domain.Hold{}, notFoundOr(err, "hold", holdID, "update hold")
	}
	return h, nil
}

func (r *HoldRepository) ExpireHold(ctx context.Context, holdID string, now time.Time) (domain.Hold, bool, error) {
	const stmt = `
UPDATE holds SET status = 'expired'
WHERE id = $1 AND status = 'active' AND expires_at < $2
RETURNING ` + holdColumns

	h, err := scanHold(r.queryRow(ctx, stmt, holdID, now))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Hold{}, false, nil
		}
		return domain.Hold{}, false, fmt.Errorf("expire hold: %w", err)
	}
	return h, true, nil
}

func (r *HoldRepository) ListExpiredHoldIDs(ctx context.Context, now time.Time, limit int) ([]string, error) {
	const query = `
SELECT id FROM holds
WHERE status = 'active' AND expires_at < $1
ORDER BY expires_at
LIMIT $2`

	rows, err := r.query(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("list expired holds: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("list expired holds: %w", err)
	}
	return ids, nil
}

func (r *HoldRepository) ListActiveHolds(ctx context.Context, eventID, sessionID string, now time.Time) ([]domain.Hold, error) {
	const query = `
SELECT ` + holdColumns + `
FROM holds
WHERE event_id = $1 AND session_id = $2 AND status = 'active' AND expires_at >= $3
ORDER BY created_at`

	rows, err := r.query(ctx, query, eventID, sessionID, now)
	if err != nil {
		return nil, fmt.Errorf("list active holds: %w", err)
	}
	defer rows.Close()

	var holds []domain.Hold
	for rows.Next() {
		h, err := scanHold(rows)
		if err != nil {
			return nil, fmt.Errorf("scan hold: %w", err)
		}
		holds = append(holds, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list active holds: %w", err)
	}
	return holds, nil
}
