package app

import (
	"context"
	"time"

	"github.com/cimillas/seatlease/internal/clock"
	"github.com/cimillas/seatlease/internal/domain"
)

// AvailabilityReader reads the seat and zone state kept current by the
// lifecycle operations. It never aggregates holds.
type AvailabilityReader interface {
	GetEvent(ctx context.Context, eventID string) (domain.Event, error)
	ListSeatStatuses(ctx context.Context, eventID string) ([]domain.SeatStatus, error)
	ListZoneStates(ctx context.Context, eventID string) ([]domain.ZoneState, error)
}

type AvailabilityService struct {
	repo       AvailabilityReader
	clock      clock.Clock
	popularity PopularityStrategy
}

func NewAvailabilityService(repo AvailabilityReader, clk clock.Clock, popularity PopularityStrategy) *AvailabilityService {
	if popularity == nil {
		popularity = DefaultPopularity(defaultPopularityHalfLife)
	}
	return &AvailabilityService{repo: repo, clock: clk, popularity: popularity}
}

func (s *AvailabilityService) GetEventSeatStatuses(ctx context.Context, eventID string) ([]domain.SeatStatus, error) {
	if err := s.checkEvent(ctx, eventID); err != nil {
		return nil, err
	}
	return s.repo.ListSeatStatuses(ctx, eventID)
}

func (s *AvailabilityService) GetZoneMetrics(ctx context.Context, eventID string) ([]domain.ZoneMetrics, error) {
	if err := s.checkEvent(ctx, eventID); err != nil {
		return nil, err
	}
	return s.zoneMetrics(ctx, eventID)
}

// Snapshot is the full availability view of an event. Live viewers load it
// on connect and again after any gap in their change stream.
type Snapshot struct {
	EventID string
	Seats   []domain.SeatStatus
	Zones   []domain.ZoneMetrics
	TakenAt time.Time
}

func (s *AvailabilityService) Snapshot(ctx context.Context, eventID string) (Snapshot, error) {
	if err := s.checkEvent(ctx, eventID); err != nil {
		return Snapshot{}, err
	}
	seats, err := s.repo.ListSeatStatuses(ctx, eventID)
	if err != nil {
		return Snapshot{}, err
	}
	zones, err := s.zoneMetrics(ctx, eventID)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{EventID: eventID, Seats: seats, Zones: zones, TakenAt: s.clock.Now()}, nil
}

func (s *AvailabilityService) zoneMetrics(ctx context.Context, eventID string) ([]domain.ZoneMetrics, error) {
	states, err := s.repo.ListZoneStates(ctx, eventID)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	out := make([]domain.ZoneMetrics, 0, len(states))
	for _, state := range states {
		out = append(out, zoneMetrics(s.popularity, state, now))
	}
	return out, nil
}

func (s *AvailabilityService) checkEvent(ctx context.Context, eventID string) error {
	if err := validateID("event_id", eventID); err != nil {
		return err
	}
	_, err := s.repo.GetEvent(ctx, eventID)
	return err
}
