package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/cimillas/seatlease/internal/domain"
	"github.com/jackc/pgx/v5"
)

type OrderRepository struct {
	*HoldRepository
}

func NewOrderRepository(holds *HoldRepository) *OrderRepository {
	return &OrderRepository{HoldRepository: holds}
}

func (r *OrderRepository) GetOrderByHoldID(ctx context.Context, holdID string) (*domain.Order, error) {
	const query = `SELECT id, hold_id, event_id, idempotency_key, created_at FROM orders WHERE hold_id = $1`

	var o domain.Order
	err := r.queryRow(ctx, query, holdID).
		Scan(&o.ID, &o.HoldID, &o.EventID, &o.IdempotencyKey, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	return &o, nil
}

func (r *OrderRepository) CreateOrder(ctx context.Context, order domain.Order) error {
	const stmt = `
INSERT INTO orders (id, hold_id, event_id, idempotency_key, created_at)
VALUES ($1, $2, $3, $4, $5)`

	_, err := r.exec(ctx, stmt, order.ID, order.HoldID, order.EventID, order.IdempotencyKey, order.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrIdempotencyConflict
		}
		return fmt.Errorf("create order: %w", err)
	}
	return nil
}
