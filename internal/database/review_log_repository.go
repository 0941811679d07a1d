package database

import (
	"context"
	"fmt"

	"github.com/example/srscore/pkg/models"
)

// ReviewLogRepository appends and reads processed reviews
type ReviewLogRepository struct {
	db *DB
}

// NewReviewLogRepository creates a new repository instance
func NewReviewLogRepository(db *DB) *ReviewLogRepository {
	return &ReviewLogRepository{db: db}
}

// Append stores one review
func (r *ReviewLogRepository) Append(ctx context.Context, entry models.ReviewLog) error {
	entry.ReviewedAt = entry.ReviewedAt.UTC()
	_, err := r.db.NamedExecContext(ctx, `INSERT INTO review_log (
			id, card_id, user_id, concept_id, quality, response_time_ms,
			elapsed_hours, interval_days, ease_factor, mastery_level, reviewed_at
		) VALUES (
			:id, :card_id, :user_id, :concept_id, :quality, :response_time_ms,
			:elapsed_hours, :interval_days, :ease_factor, :mastery_level, :reviewed_at
		)`, entry)
	if err != nil {
		return fmt.Errorf("failed to append review log: %w", err)
	}
	return nil
}

// ListByCard returns the reviews of a card, oldest first
func (r *ReviewLogRepository) ListByCard(ctx context.Context, cardID string) ([]models.ReviewLog, error) {
	var entries []models.ReviewLog
	err := r.db.SelectContext(ctx, &entries, r.db.Rebind(`SELECT id, card_id, user_id, concept_id,
			quality, response_time_ms, elapsed_hours, interval_days, ease_factor, mastery_level, reviewed_at
		FROM review_log WHERE card_id = ? ORDER BY reviewed_at, id`), cardID)
	if err != nil {
		return nil, fmt.Errorf("failed to list review log: %w", err)
	}
	for i := range entries {
		entries[i].ReviewedAt = entries[i].ReviewedAt.UTC()
	}
	return entries, nil
}

// CountByUser returns how many reviews a user has logged
func (r *ReviewLogRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, r.db.Rebind(`SELECT COUNT(*) FROM review_log WHERE user_id = ?`), userID); err != nil {
		return 0, fmt.Errorf("failed to count reviews: %w", err)
	}
	return n, nil
}
