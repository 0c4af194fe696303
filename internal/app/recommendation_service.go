package app

import (
	"context"
	"log/slog"
	"sort"

	"github.com/cimillas/seatlease/internal/clock"
	"github.com/cimillas/seatlease/internal/domain"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

type RecommendationRepository interface {
	GetEvent(ctx context.Context, eventID string) (domain.Event, error)
	ListZoneStates(ctx context.Context, eventID string) ([]domain.ZoneState, error)
	RecordRecommendation(ctx context.Context, rec domain.RecommendationRecord) error
}

const (
	defaultRecommendLimit = 5
	maxRecommendLimit     = 50

	veryPopularOccupancy = 70.0
	veryPopularScore     = 10.0
	greatAvailability    = 0.5
)

// RecommendationService suggests zones for a party. It only reads inventory.
type RecommendationService struct {
	repo         RecommendationRepository
	clock        clock.Clock
	popularity   PopularityStrategy
	defaultLimit int
	logger       *slog.Logger
}

func NewRecommendationService(repo RecommendationRepository, clk clock.Clock, popularity PopularityStrategy, defaultLimit int, logger *slog.Logger) *RecommendationService {
	if popularity == nil {
		popularity = DefaultPopularity(defaultPopularityHalfLife)
	}
	if defaultLimit <= 0 {
		defaultLimit = defaultRecommendLimit
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RecommendationService{
		repo:         repo,
		clock:        clk,
		popularity:   popularity,
		defaultLimit: defaultLimit,
		logger:       logger,
	}
}

type RecommendInput struct {
	EventID   string
	SessionID string
	PartySize int
	Filters   domain.ZoneFilters
	Limit     int
}

// Recommend ranks zones that can seat the whole party by popularity, then by
// available count, then by name.
func (s *RecommendationService) Recommend(ctx context.Context, in RecommendInput) (suggestions []domain.ZoneSuggestion, err error) {
	ctx, span := tracer.Start(ctx, "RecommendationService.Recommend")
	defer func() { endSpan(span, err) }()

	if err := validateID("event_id", in.EventID); err != nil {
		return nil, err
	}
	if in.PartySize < 1 {
		return nil, domain.ValidationError{Field: "party_size", Msg: "must be at least 1"}
	}
	if in.Limit < 0 {
		return nil, domain.ValidationError{Field: "limit", Msg: "must not be negative"}
	}
	limit := in.Limit
	if limit == 0 {
		limit = s.defaultLimit
	}
	if limit > maxRecommendLimit {
		limit = maxRecommendLimit
	}
	span.SetAttributes(
		attribute.String("event.id", in.EventID),
		attribute.Int("party.size", in.PartySize),
	)

	if _, err := s.repo.GetEvent(ctx, in.EventID); err != nil {
		return nil, err
	}
	states, err := s.repo.ListZoneStates(ctx, in.EventID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	candidates := make([]domain.ZoneMetrics, 0, len(states))
	for _, state := range states {
		m := zoneMetrics(s.popularity, state, now)
		if m.AvailableCount < in.PartySize || !in.Filters.Match(m) {
			continue
		}
		candidates = append(candidates, m)
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.PopularityScore != b.PopularityScore {
			return a.PopularityScore > b.PopularityScore
		}
		if a.AvailableCount != b.AvailableCount {
			return a.AvailableCount > b.AvailableCount
		}
		return a.Name < b.Name
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	suggestions = make([]domain.ZoneSuggestion, 0, len(candidates))
	zoneIDs := make([]string, 0, len(candidates))
	for i, m := range candidates {
		suggestions = append(suggestions, domain.ZoneSuggestion{
			Zone:   m,
			Rank:   i + 1,
			Reason: reasonFor(m),
		})
		zoneIDs = append(zoneIDs, m.ZoneID)
	}

	rec := domain.RecommendationRecord{
		ID:        uuid.NewString(),
		EventID:   in.EventID,
		SessionID: in.SessionID,
		PartySize: in.PartySize,
		Filters:   in.Filters,
		ZoneIDs:   zoneIDs,
		CreatedAt: now,
	}
	if err := s.repo.RecordRecommendation(ctx, rec); err != nil {
		s.logger.WarnContext(ctx, "record recommendation failed",
			slog.String("event_id", in.EventID),
			slog.Any("error", err),
		)
	}
	return suggestions, nil
}

func reasonFor(m domain.ZoneMetrics) string {
	if m.OccupancyPercent >= veryPopularOccupancy || m.PopularityScore >= veryPopularScore {
		return domain.ReasonVeryPopular
	}
	sellable := m.TotalCapacity - m.BlockedCount
	if sellable > 0 && float64(m.AvailableCount)/float64(sellable) >= greatAvailability {
		return domain.ReasonGreatAvailability
	}
	return domain.ReasonGoodPosition
}
