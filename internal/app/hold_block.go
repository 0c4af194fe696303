package app

import (
	"context"
	"fmt"

	"github.com/cimillas/seatlease/internal/domain"
	"go.opentelemetry.io/otel/attribute"
)

// BlockInput takes a seat or a quantity of zone capacity out of sale, or puts
// it back.
type BlockInput struct {
	EventID  string
	Target   domain.Target
	Quantity int
}

func (in *BlockInput) normalize() error {
	if err := validateID("event_id", in.EventID); err != nil {
		return err
	}
	if err := in.Target.Validate(); err != nil {
		return err
	}
	if in.Target.IsSeat() {
		in.Quantity = 1
		return validateID("seat_id", in.Target.SeatID)
	}
	if err := validateID("zone_id", in.Target.ZoneID); err != nil {
		return err
	}
	if in.Quantity < 1 {
		return domain.ValidationError{Field: "quantity", Msg: "must be at least 1"}
	}
	return nil
}

// BlockInventory marks available inventory as blocked.
func (s *HoldService) BlockInventory(ctx context.Context, in BlockInput) (err error) {
	ctx, span := tracer.Start(ctx, "HoldService.BlockInventory")
	span.SetAttributes(attribute.String("event.id", in.EventID))
	defer func() { endSpan(span, err) }()
	return s.moveBlocked(ctx, in, domain.InventoryAvailable, domain.InventoryBlocked)
}

// UnblockInventory returns blocked inventory to sale.
func (s *HoldService) UnblockInventory(ctx context.Context, in BlockInput) (err error) {
	ctx, span := tracer.Start(ctx, "HoldService.UnblockInventory")
	span.SetAttributes(attribute.String("event.id", in.EventID))
	defer func() { endSpan(span, err) }()
	return s.moveBlocked(ctx, in, domain.InventoryBlocked, domain.InventoryAvailable)
}

func (s *HoldService) moveBlocked(ctx context.Context, in BlockInput, from, to domain.InventoryState) error {
	if err := in.normalize(); err != nil {
		return err
	}
	now := s.clock.Now()
	return s.repo.WithTx(ctx, func(txCtx context.Context) error {
		if _, err := s.repo.GetEvent(txCtx, in.EventID); err != nil {
			return err
		}
		mover := newInventoryMover(s.repo, s.popularity, s.halfLife)
		bump := mover.bump(now, 0, 0)

		if in.Target.IsSeat() {
			_, err := mover.moveSeat(txCtx, domain.SeatTransition{
				EventID: in.EventID,
				SeatID:  in.Target.SeatID,
				From:    from,
				To:      to,
				At:      now,
			}, bump)
			if err != nil {
				if from == domain.InventoryBlocked && domain.IsSeatUnavailable(err) {
					return domain.InvalidStateError{Msg: fmt.Sprintf("seat %s is not blocked", in.Target.SeatID)}
				}
				return err
			}
			return mover.publish(txCtx)
		}

		zone, err := s.repo.GetZone(txCtx, in.EventID, in.Target.ZoneID)
		if err != nil {
			return err
		}
		if zone.Seated {
			return domain.ValidationError{Field: "zone_id", Msg: "seated zone is blocked seat by seat"}
		}
		if _, err := mover.moveZone(txCtx, zone.ID, domain.CapacityShift{From: from, To: to, Quantity: in.Quantity}, bump); err != nil {
			if from == domain.InventoryBlocked && domain.IsInsufficientCapacity(err) {
				return domain.InvalidStateError{Msg: fmt.Sprintf("zone %s has fewer than %d blocked", zone.ID, in.Quantity)}
			}
			return err
		}
		return mover.publish(txCtx)
	})
}
