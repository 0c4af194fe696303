package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/cimillas/seatlease/internal/domain"
	"go.opentelemetry.io/otel/attribute"
)

// CleanupResult summarizes one sweep pass.
type CleanupResult struct {
	Cleaned int `json:"cleaned"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// CleanupExpiredHolds expires active holds whose TTL has passed and returns
// their inventory. Each hold is expired in its own transaction, conditioned on
// it still being active, so overlapping sweeps never credit capacity twice.
// A failing hold is logged and left for the next pass.
func (s *HoldService) CleanupExpiredHolds(ctx context.Context) (result CleanupResult, err error) {
	ctx, span := tracer.Start(ctx, "HoldService.CleanupExpiredHolds")
	defer func() {
		span.SetAttributes(
			attribute.Int("sweep.cleaned", result.Cleaned),
			attribute.Int("sweep.skipped", result.Skipped),
			attribute.Int("sweep.failed", result.Failed),
		)
		endSpan(span, err)
	}()

	now := s.clock.Now()
	ids, err := s.repo.ListExpiredHoldIDs(ctx, now, s.batchSize)
	if err != nil {
		return CleanupResult{}, err
	}

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		expired, err := s.expireHold(ctx, id, now)
		switch {
		case err != nil:
			result.Failed++
			s.logger.WarnContext(ctx, "expire hold failed", slog.String("hold_id", id), slog.Any("error", err))
		case expired:
			result.Cleaned++
		default:
			result.Skipped++
		}
	}
	return result, nil
}

func (s *HoldService) expireHold(ctx context.Context, holdID string, now time.Time) (bool, error) {
	var expired bool
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		hold, ok, err := s.repo.ExpireHold(txCtx, holdID, now)
		if err != nil || !ok {
			return err
		}
		mover := newInventoryMover(s.repo, s.popularity, s.halfLife)
		if err := mover.settle(txCtx, hold, domain.InventoryAvailable, now); err != nil {
			return err
		}
		if err := mover.publish(txCtx); err != nil {
			return err
		}
		expired = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return expired, nil
}
