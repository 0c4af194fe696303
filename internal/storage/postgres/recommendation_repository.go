package postgres

import (
	"context"
	"fmt"

	"github.com/cimillas/seatlease/internal/domain"
)

type RecommendationRepository struct {
	*InventoryRepository
}

func NewRecommendationRepository(inv *InventoryRepository) *RecommendationRepository {
	return &RecommendationRepository{InventoryRepository: inv}
}

func (r *RecommendationRepository) RecordRecommendation(ctx context.Context, rec domain.RecommendationRecord) error {
	const stmt = `
INSERT INTO recommendation_log (id, event_id, session_id, party_size, filters, zone_ids, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

	zoneIDs := rec.ZoneIDs
	if zoneIDs == nil {
		zoneIDs = []string{}
	}
	_, err := r.exec(ctx, stmt, rec.ID, rec.EventID, rec.SessionID, rec.PartySize, rec.Filters, zoneIDs, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("record recommendation: %w", err)
	}
	return nil
}
