package app

import (
	"context"
	"errors"
	"time"

	"github.com/cimillas/seatlease/internal/clock"
	"github.com/cimillas/seatlease/internal/domain"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

type OrderRepository interface {
	InventoryStore
	GetHoldForUpdate(ctx context.Context, holdID string) (domain.Hold, error)
	UpdateHold(ctx context.Context, holdID string, patch domain.HoldPatch) (domain.Hold, error)
	GetOrderByHoldID(ctx context.Context, holdID string) (*domain.Order, error)
	CreateOrder(ctx context.Context, order domain.Order) error
}

// OrderService performs the conversion a checkout flow triggers once payment
// succeeds: the checkout hold becomes converted and its inventory sold.
type OrderService struct {
	repo       OrderRepository
	clock      clock.Clock
	popularity PopularityStrategy
	halfLife   time.Duration
}

func NewOrderService(repo OrderRepository, clk clock.Clock, popularity PopularityStrategy, halfLife time.Duration) *OrderService {
	if popularity == nil {
		popularity = DefaultPopularity(halfLife)
	}
	if halfLife <= 0 {
		halfLife = defaultPopularityHalfLife
	}
	return &OrderService{
		repo:       repo,
		clock:      clk,
		popularity: popularity,
		halfLife:   halfLife,
	}
}

type ConvertHoldInput struct {
	HoldID         string
	SessionID      string
	IdempotencyKey string
}

type ConvertHoldResult struct {
	Order   domain.Order
	Created bool
}

// ConvertHold is idempotent on IdempotencyKey: a retry with the same key
// returns the order created by the first call.
func (s *OrderService) ConvertHold(ctx context.Context, in ConvertHoldInput) (result ConvertHoldResult, err error) {
	ctx, span := tracer.Start(ctx, "OrderService.ConvertHold")
	span.SetAttributes(attribute.String("hold.id", in.HoldID))
	defer func() { endSpan(span, err) }()

	if in.IdempotencyKey == "" {
		return ConvertHoldResult{}, domain.ErrIdempotencyKeyRequired
	}
	if err := validateID("hold_id", in.HoldID); err != nil {
		return ConvertHoldResult{}, err
	}
	if err := validateSession(in.SessionID); err != nil {
		return ConvertHoldResult{}, err
	}

	now := s.clock.Now()
	err = s.repo.WithTx(ctx, func(txCtx context.Context) error {
		hold, err := s.repo.GetHoldForUpdate(txCtx, in.HoldID)
		if err != nil {
			return err
		}

		existing, err := s.repo.GetOrderByHoldID(txCtx, in.HoldID)
		if err != nil {
			return err
		}
		if existing != nil {
			if !hold.OwnedBy(in.SessionID) {
				return domain.OwnershipError{HoldID: hold.ID}
			}
			if existing.IdempotencyKey == in.IdempotencyKey {
				result = ConvertHoldResult{Order: *existing, Created: false}
				return nil
			}
			return domain.NotActiveError{HoldID: hold.ID, Status: hold.Status}
		}

		if err := checkOwnedActive(hold, in.SessionID, now); err != nil {
			return err
		}
		if hold.Kind != domain.HoldKindCheckout {
			return domain.InvalidStateError{Msg: "only checkout holds can be converted, hold is " + string(hold.Kind)}
		}

		mover := newInventoryMover(s.repo, s.popularity, s.halfLife)
		if err := mover.settle(txCtx, hold, domain.InventorySold, now); err != nil {
			return err
		}
		if _, err := s.repo.UpdateHold(txCtx, hold.ID, domain.HoldPatch{
			Kind:           hold.Kind,
			Status:         domain.HoldStatusConverted,
			ExpiresAt:      hold.ExpiresAt,
			LastExtendedAt: hold.LastExtendedAt,
		}); err != nil {
			return err
		}

		order := domain.Order{
			ID:             uuid.NewString(),
			HoldID:         hold.ID,
			EventID:        hold.EventID,
			IdempotencyKey: in.IdempotencyKey,
			CreatedAt:      now,
		}
		if err := s.repo.CreateOrder(txCtx, order); err != nil {
			return err
		}
		if err := mover.publish(txCtx); err != nil {
			return err
		}
		result = ConvertHoldResult{Order: order, Created: true}
		return nil
	})
	if err != nil {
		// A concurrent conversion of the same hold with the same key won the
		// unique constraint; return its order.
		if errors.Is(err, domain.ErrIdempotencyConflict) {
			if existing, lookupErr := s.repo.GetOrderByHoldID(ctx, in.HoldID); lookupErr == nil && existing != nil && existing.IdempotencyKey == in.IdempotencyKey {
				return ConvertHoldResult{Order: *existing, Created: false}, nil
			}
		}
		return ConvertHoldResult{}, err
	}
	return result, nil
}
