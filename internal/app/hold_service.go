package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/cimillas/seatlease/internal/clock"
	"github.com/cimillas/seatlease/internal/domain"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

type HoldRepository interface {
	InventoryStore
	InsertHold(ctx context.Context, hold domain.Hold) error
	GetHoldForUpdate(ctx context.Context, holdID string) (domain.Hold, error)
	UpdateHold(ctx context.Context, holdID string, patch domain.HoldPatch) (domain.Hold, error)
	// ExpireHold moves an active hold past its TTL to expired and reports
	// false when the hold is no longer active or not yet due.
	ExpireHold(ctx context.Context, holdID string, now time.Time) (domain.Hold, bool, error)
	ListExpiredHoldIDs(ctx context.Context, now time.Time, limit int) ([]string, error)
	ListActiveHolds(ctx context.Context, eventID, sessionID string, now time.Time) ([]domain.Hold, error)
}

// HoldService owns every hold lifecycle transition and the seat and zone
// state that follows from it.
type HoldService struct {
	repo       HoldRepository
	clock      clock.Clock
	ttl        HoldTTLs
	popularity PopularityStrategy
	halfLife   time.Duration
	batchSize  int
	logger     *slog.Logger
}

// HoldTTLs is the lease length per hold kind.
type HoldTTLs struct {
	Cart         time.Duration
	Checkout     time.Duration
	StaffReserve time.Duration
}

var defaultHoldTTLs = HoldTTLs{
	Cart:         10 * time.Minute,
	Checkout:     15 * time.Minute,
	StaffReserve: 2 * time.Hour,
}

func (t HoldTTLs) For(kind domain.HoldKind) time.Duration {
	switch kind {
	case domain.HoldKindCheckout:
		return t.Checkout
	case domain.HoldKindStaffReserve:
		return t.StaffReserve
	default:
		return t.Cart
	}
}

const defaultSweepBatchSize = 500

func NewHoldService(repo HoldRepository, clk clock.Clock, opts ...HoldServiceOption) *HoldService {
	svc := &HoldService{
		repo:       repo,
		clock:      clk,
		ttl:        defaultHoldTTLs,
		popularity: DefaultPopularity(defaultPopularityHalfLife),
		halfLife:   defaultPopularityHalfLife,
		batchSize:  defaultSweepBatchSize,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type HoldServiceOption func(*HoldService)

// WithHoldTTLs overrides the lease length of each kind; zero values keep the default.
func WithHoldTTLs(ttl HoldTTLs) HoldServiceOption {
	return func(s *HoldService) {
		if ttl.Cart > 0 {
			s.ttl.Cart = ttl.Cart
		}
		if ttl.Checkout > 0 {
			s.ttl.Checkout = ttl.Checkout
		}
		if ttl.StaffReserve > 0 {
			s.ttl.StaffReserve = ttl.StaffReserve
		}
	}
}

// WithPopularity sets the ranking strategy used for metrics snapshots and the
// half-life used to decay stored zone activity.
func WithPopularity(strategy PopularityStrategy, halfLife time.Duration) HoldServiceOption {
	return func(s *HoldService) {
		if strategy != nil {
			s.popularity = strategy
		}
		if halfLife > 0 {
			s.halfLife = halfLife
		}
	}
}

func WithSweepBatchSize(n int) HoldServiceOption {
	return func(s *HoldService) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

func WithHoldLogger(logger *slog.Logger) HoldServiceOption {
	return func(s *HoldService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

type CreateHoldInput struct {
	EventID    string
	Owner      domain.Owner
	Target     domain.Target
	Kind       domain.HoldKind
	Quantity   int
	PriceCents int64
}

func (in *CreateHoldInput) normalize() error {
	if err := validateID("event_id", in.EventID); err != nil {
		return err
	}
	if err := validateSession(in.Owner.SessionID); err != nil {
		return err
	}
	if err := in.Target.Validate(); err != nil {
		return err
	}
	if in.Target.IsSeat() {
		if err := validateID("seat_id", in.Target.SeatID); err != nil {
			return err
		}
		if in.Quantity == 0 {
			in.Quantity = 1
		}
		if in.Quantity != 1 {
			return domain.ValidationError{Field: "quantity", Msg: "must be 1 for a seat"}
		}
	} else {
		if err := validateID("zone_id", in.Target.ZoneID); err != nil {
			return err
		}
		if in.Quantity < 1 {
			return domain.ValidationError{Field: "quantity", Msg: "must be at least 1"}
		}
	}
	if in.Kind == "" {
		in.Kind = domain.HoldKindCart
	}
	if !in.Kind.Valid() {
		return domain.ValidationError{Field: "kind", Msg: "must be cart, checkout or staff_reserve"}
	}
	if in.PriceCents < 0 {
		return domain.ValidationError{Field: "price_cents", Msg: "must not be negative"}
	}
	return nil
}

// CreateHold reserves a seat or a quantity of zone capacity for the owner's
// session.
func (s *HoldService) CreateHold(ctx context.Context, in CreateHoldInput) (hold domain.Hold, err error) {
	ctx, span := tracer.Start(ctx, "HoldService.CreateHold")
	defer func() { endSpan(span, err) }()

	if err := in.normalize(); err != nil {
		return domain.Hold{}, err
	}
	span.SetAttributes(
		attribute.String("event.id", in.EventID),
		attribute.String("hold.kind", string(in.Kind)),
		attribute.Int("hold.quantity", in.Quantity),
	)

	now := s.clock.Now()
	hold = domain.Hold{
		ID:             uuid.NewString(),
		EventID:        in.EventID,
		Owner:          in.Owner,
		SeatID:         in.Target.SeatID,
		ZoneID:         in.Target.ZoneID,
		Quantity:       in.Quantity,
		Kind:           in.Kind,
		PriceCents:     in.PriceCents,
		Status:         domain.HoldStatusActive,
		CreatedAt:      now,
		ExpiresAt:      now.Add(s.ttl.For(in.Kind)),
		LastExtendedAt: now,
	}

	err = s.repo.WithTx(ctx, func(txCtx context.Context) error {
		event, err := s.repo.GetEvent(txCtx, in.EventID)
		if err != nil {
			return err
		}
		if !event.Sellable(now) {
			return domain.InvalidStateError{Msg: "event is not on sale"}
		}

		mover := newInventoryMover(s.repo, s.popularity, s.halfLife)
		bump := mover.bump(now, float64(in.Quantity), 0)
		if in.Target.IsSeat() {
			_, err := mover.moveSeat(txCtx, domain.SeatTransition{
				EventID: in.EventID,
				SeatID:  in.Target.SeatID,
				From:    domain.InventoryAvailable,
				To:      domain.InventoryHeld,
				HoldID:  hold.ID,
				At:      now,
			}, bump)
			if err != nil {
				return err
			}
		} else {
			zone, err := s.repo.GetZone(txCtx, in.EventID, in.Target.ZoneID)
			if err != nil {
				return err
			}
			if zone.Seated {
				return domain.ValidationError{Field: "zone_id", Msg: "seated zone requires a seat_id"}
			}
			shift := domain.CapacityShift{From: domain.InventoryAvailable, To: domain.InventoryHeld, Quantity: in.Quantity}
			if _, err := mover.moveZone(txCtx, zone.ID, shift, bump); err != nil {
				return err
			}
		}

		if err := s.repo.InsertHold(txCtx, hold); err != nil {
			return err
		}
		return mover.publish(txCtx)
	})
	if err != nil {
		return domain.Hold{}, err
	}
	span.SetAttributes(attribute.String("hold.id", hold.ID))
	return hold, nil
}

// ExtendHold restarts the hold's TTL from now.
func (s *HoldService) ExtendHold(ctx context.Context, holdID, sessionID string) (hold domain.Hold, err error) {
	ctx, span := tracer.Start(ctx, "HoldService.ExtendHold")
	span.SetAttributes(attribute.String("hold.id", holdID))
	defer func() { endSpan(span, err) }()

	err = s.withOwnedHold(ctx, holdID, sessionID, func(txCtx context.Context, current domain.Hold, now time.Time) error {
		updated, err := s.repo.UpdateHold(txCtx, current.ID, domain.HoldPatch{
			Kind:           current.Kind,
			Status:         domain.HoldStatusActive,
			ExpiresAt:      now.Add(s.ttl.For(current.Kind)),
			LastExtendedAt: now,
		})
		if err != nil {
			return err
		}
		hold = updated
		return nil
	})
	if err != nil {
		return domain.Hold{}, err
	}
	return hold, nil
}

// ReleaseHold gives the hold's inventory back. Releasing a hold that is no
// longer active fails with NotActiveError.
func (s *HoldService) ReleaseHold(ctx context.Context, holdID, sessionID string) (err error) {
	ctx, span := tracer.Start(ctx, "HoldService.ReleaseHold")
	span.SetAttributes(attribute.String("hold.id", holdID))
	defer func() { endSpan(span, err) }()

	return s.withOwnedHold(ctx, holdID, sessionID, func(txCtx context.Context, current domain.Hold, now time.Time) error {
		mover := newInventoryMover(s.repo, s.popularity, s.halfLife)
		if err := mover.settle(txCtx, current, domain.InventoryAvailable, now); err != nil {
			return err
		}
		if _, err := s.repo.UpdateHold(txCtx, current.ID, domain.HoldPatch{
			Kind:           current.Kind,
			Status:         domain.HoldStatusReleased,
			ExpiresAt:      current.ExpiresAt,
			LastExtendedAt: current.LastExtendedAt,
		}); err != nil {
			return err
		}
		return mover.publish(txCtx)
	})
}

// UpgradeHoldToCheckout turns a cart hold into a checkout hold with a fresh
// checkout TTL. Capacity was reserved at creation and is not touched.
func (s *HoldService) UpgradeHoldToCheckout(ctx context.Context, holdID, sessionID string) (hold domain.Hold, err error) {
	ctx, span := tracer.Start(ctx, "HoldService.UpgradeHoldToCheckout")
	span.SetAttributes(attribute.String("hold.id", holdID))
	defer func() { endSpan(span, err) }()

	err = s.withOwnedHold(ctx, holdID, sessionID, func(txCtx context.Context, current domain.Hold, now time.Time) error {
		if current.Kind != domain.HoldKindCart {
			return domain.InvalidStateError{Msg: "only cart holds can be upgraded to checkout, hold is " + string(current.Kind)}
		}
		updated, err := s.repo.UpdateHold(txCtx, current.ID, domain.HoldPatch{
			Kind:           domain.HoldKindCheckout,
			Status:         domain.HoldStatusActive,
			ExpiresAt:      now.Add(s.ttl.For(domain.HoldKindCheckout)),
			LastExtendedAt: now,
		})
		if err != nil {
			return err
		}
		hold = updated
		return nil
	})
	if err != nil {
		return domain.Hold{}, err
	}
	return hold, nil
}

// GetActiveHolds lists the session's active, unexpired holds for an event.
func (s *HoldService) GetActiveHolds(ctx context.Context, eventID, sessionID string) ([]domain.Hold, error) {
	if err := validateID("event_id", eventID); err != nil {
		return nil, err
	}
	if err := validateSession(sessionID); err != nil {
		return nil, err
	}
	return s.repo.ListActiveHolds(ctx, eventID, sessionID, s.clock.Now())
}

// withOwnedHold locks the hold and runs fn when it is active, unexpired and
// owned by sessionID.
func (s *HoldService) withOwnedHold(ctx context.Context, holdID, sessionID string, fn func(txCtx context.Context, hold domain.Hold, now time.Time) error) error {
	if err := validateID("hold_id", holdID); err != nil {
		return err
	}
	if err := validateSession(sessionID); err != nil {
		return err
	}
	now := s.clock.Now()
	return s.repo.WithTx(ctx, func(txCtx context.Context) error {
		hold, err := s.repo.GetHoldForUpdate(txCtx, holdID)
		if err != nil {
			return err
		}
		if err := checkOwnedActive(hold, sessionID, now); err != nil {
			return err
		}
		return fn(txCtx, hold, now)
	})
}

func checkOwnedActive(hold domain.Hold, sessionID string, now time.Time) error {
	if hold.Status.Terminal() {
		return domain.NotActiveError{HoldID: hold.ID, Status: hold.Status}
	}
	if hold.ExpiredAt(now) {
		return domain.ExpiredError{HoldID: hold.ID, ExpiresAt: hold.ExpiresAt}
	}
	if !hold.OwnedBy(sessionID) {
		return domain.OwnershipError{HoldID: hold.ID}
	}
	return nil
}
