package app

import (
	"context"
	"strings"
	"time"

	"github.com/cimillas/seatlease/internal/catalog"
	"github.com/cimillas/seatlease/internal/clock"
	"github.com/cimillas/seatlease/internal/domain"
	"github.com/google/uuid"
)

type CatalogRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	CreateEvent(ctx context.Context, event domain.Event) error
	GetEvent(ctx context.Context, eventID string) (domain.Event, error)
	ListEvents(ctx context.Context) ([]domain.Event, error)
	SetEventStatus(ctx context.Context, eventID string, status domain.EventStatus) (domain.Event, error)
	// CreateZone inserts the zone with all capacity available, and its seats
	// when the zone is seated.
	CreateZone(ctx context.Context, zone domain.Zone, seats []domain.Seat) error
	ListZonesByEvent(ctx context.Context, eventID string) ([]domain.Zone, error)
}

// CatalogService manages events, zones and seats. Inventory state is owned by
// HoldService; the catalog only creates it.
type CatalogService struct {
	repo  CatalogRepository
	clock clock.Clock
}

func NewCatalogService(repo CatalogRepository, clk clock.Clock) *CatalogService {
	return &CatalogService{
		repo:  repo,
		clock: clk,
	}
}

type CreateEventInput struct {
	Name         string
	StartsAt     *time.Time
	Status       domain.EventStatus
	SalesOpenAt  *time.Time
	SalesCloseAt *time.Time
}

func (s *CatalogService) CreateEvent(ctx context.Context, in CreateEventInput) (domain.Event, error) {
	event, err := s.newEvent(in)
	if err != nil {
		return domain.Event{}, err
	}
	if err := s.repo.CreateEvent(ctx, event); err != nil {
		return domain.Event{}, err
	}
	return event, nil
}

func (s *CatalogService) newEvent(in CreateEventInput) (domain.Event, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return domain.Event{}, domain.ValidationError{Field: "name", Msg: "is required"}
	}
	status := in.Status
	if status == "" {
		status = domain.EventStatusDraft
	}
	if !status.Valid() {
		return domain.Event{}, domain.ValidationError{Field: "status", Msg: "must be draft, on_sale or closed"}
	}
	if in.SalesOpenAt != nil && in.SalesCloseAt != nil && !in.SalesOpenAt.Before(*in.SalesCloseAt) {
		return domain.Event{}, domain.ValidationError{Field: "sales_close_at", Msg: "must be after sales_open_at"}
	}
	startsAt := s.clock.Now()
	if in.StartsAt != nil {
		startsAt = *in.StartsAt
	}
	return domain.Event{
		ID:           uuid.NewString(),
		Name:         name,
		StartsAt:     startsAt,
		Status:       status,
		SalesOpenAt:  in.SalesOpenAt,
		SalesCloseAt: in.SalesCloseAt,
	}, nil
}

func (s *CatalogService) ListEvents(ctx context.Context) ([]domain.Event, error) {
	return s.repo.ListEvents(ctx)
}

func (s *CatalogService) SetEventStatus(ctx context.Context, eventID string, status domain.EventStatus) (domain.Event, error) {
	if err := validateID("event_id", eventID); err != nil {
		return domain.Event{}, err
	}
	if !status.Valid() {
		return domain.Event{}, domain.ValidationError{Field: "status", Msg: "must be draft, on_sale or closed"}
	}
	return s.repo.SetEventStatus(ctx, eventID, status)
}

// CreateZoneInput describes a general admission zone (Capacity) or a seated
// zone (SeatLabels), never both.
type CreateZoneInput struct {
	EventID    string
	Name       string
	ZoneType   string
	Accessible bool
	PriceCents int64
	Capacity   int
	SeatLabels []string
}

func (s *CatalogService) CreateZone(ctx context.Context, in CreateZoneInput) (domain.Zone, []domain.Seat, error) {
	if err := validateID("event_id", in.EventID); err != nil {
		return domain.Zone{}, nil, err
	}
	var (
		zone  domain.Zone
		seats []domain.Seat
	)
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		if _, err := s.repo.GetEvent(txCtx, in.EventID); err != nil {
			return err
		}
		var err error
		zone, seats, err = s.createZone(txCtx, in)
		return err
	})
	if err != nil {
		return domain.Zone{}, nil, err
	}
	return zone, seats, nil
}

func (s *CatalogService) createZone(ctx context.Context, in CreateZoneInput) (domain.Zone, []domain.Seat, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return domain.Zone{}, nil, domain.ValidationError{Field: "name", Msg: "is required"}
	}
	if in.PriceCents < 0 {
		return domain.Zone{}, nil, domain.ValidationError{Field: "price_cents", Msg: "must not be negative"}
	}
	seated := len(in.SeatLabels) > 0
	if seated && in.Capacity != 0 {
		return domain.Zone{}, nil, domain.ValidationError{Field: "capacity", Msg: "is derived from seats for a seated zone"}
	}
	if !seated && in.Capacity <= 0 {
		return domain.Zone{}, nil, domain.ValidationError{Field: "capacity", Msg: "must be positive"}
	}

	zone := domain.Zone{
		ID:         uuid.NewString(),
		EventID:    in.EventID,
		Name:       name,
		ZoneType:   strings.TrimSpace(in.ZoneType),
		Accessible: in.Accessible,
		PriceCents: in.PriceCents,
		Seated:     seated,
		Capacity:   in.Capacity,
	}

	var seats []domain.Seat
	if seated {
		seen := make(map[string]struct{}, len(in.SeatLabels))
		seats = make([]domain.Seat, 0, len(in.SeatLabels))
		for _, label := range in.SeatLabels {
			label = strings.TrimSpace(label)
			if label == "" {
				return domain.Zone{}, nil, domain.ValidationError{Field: "seats", Msg: "labels must not be empty"}
			}
			if _, dup := seen[label]; dup {
				return domain.Zone{}, nil, domain.ValidationError{Field: "seats", Msg: "duplicate label " + label}
			}
			seen[label] = struct{}{}
			seats = append(seats, domain.Seat{
				ID:      uuid.NewString(),
				EventID: in.EventID,
				ZoneID:  zone.ID,
				Label:   label,
			})
		}
		zone.Capacity = len(seats)
	}

	if err := s.repo.CreateZone(ctx, zone, seats); err != nil {
		return domain.Zone{}, nil, err
	}
	return zone, seats, nil
}

func (s *CatalogService) ListZones(ctx context.Context, eventID string) ([]domain.Zone, error) {
	if err := validateID("event_id", eventID); err != nil {
		return nil, err
	}
	return s.repo.ListZonesByEvent(ctx, eventID)
}

type ImportResult struct {
	Event domain.Event
	Zones []domain.Zone
	Seats int
}

// ImportFloorPlan creates the plan's event, zones and seats in one
// transaction.
func (s *CatalogService) ImportFloorPlan(ctx context.Context, plan catalog.FloorPlan) (result ImportResult, err error) {
	ctx, span := tracer.Start(ctx, "CatalogService.ImportFloorPlan")
	defer func() { endSpan(span, err) }()

	if err := plan.Validate(); err != nil {
		return ImportResult{}, domain.ValidationError{Field: "floor_plan", Msg: err.Error()}
	}
	startsAt := plan.Event.StartsAt
	event, err := s.newEvent(CreateEventInput{
		Name:         plan.Event.Name,
		StartsAt:     &startsAt,
		Status:       domain.EventStatus(plan.Event.Status),
		SalesOpenAt:  plan.Event.SalesOpenAt,
		SalesCloseAt: plan.Event.SalesCloseAt,
	})
	if err != nil {
		return ImportResult{}, err
	}
	if startsAt.IsZero() {
		event.StartsAt = s.clock.Now()
	}

	err = s.repo.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.CreateEvent(txCtx, event); err != nil {
			return err
		}
		result = ImportResult{Event: event}
		for _, zs := range plan.Zones {
			zone, seats, err := s.createZone(txCtx, CreateZoneInput{
				EventID:    event.ID,
				Name:       zs.Name,
				ZoneType:   zs.Type,
				Accessible: zs.Accessible,
				PriceCents: zs.PriceCents,
				Capacity:   zs.Capacity,
				SeatLabels: zs.SeatLabels(),
			})
			if err != nil {
				return err
			}
			result.Zones = append(result.Zones, zone)
			result.Seats += len(seats)
		}
		return nil
	})
	if err != nil {
		return ImportResult{}, err
	}
	return result, nil
}
