package database

import (
	"context"
	"fmt"
)

// initializeSchema creates necessary tables if they don't exist
func (db *DB) initializeSchema(ctx context.Context) error {
	d := db.Dialect
	key, text, float, ts := d.KeyType(), d.TextType(), d.FloatType(), d.TimeType()

	tables := []struct{ name, ddl string }{
		{"cards", fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS cards (
				id %[1]s PRIMARY KEY,
				user_id %[1]s NOT NULL,
				concept_id %[1]s NOT NULL,
				question %[2]s NOT NULL,
				answer %[2]s NOT NULL,
				explanation %[2]s NOT NULL,
				difficulty VARCHAR(32) NOT NULL,
				estimated_seconds INTEGER NOT NULL DEFAULT 0,
				mastery_level VARCHAR(32) NOT NULL,
				interval_days INTEGER NOT NULL DEFAULT 1,
				ease_factor %[3]s NOT NULL,
				repetitions INTEGER NOT NULL DEFAULT 0,
				last_quality INTEGER NOT NULL DEFAULT 0,
				next_review %[4]s NOT NULL,
				last_reviewed %[4]s NULL,
				priority_score %[3]s NOT NULL,
				algorithm VARCHAR(32) NOT NULL,
				total_reviews INTEGER NOT NULL DEFAULT 0,
				correct_reviews INTEGER NOT NULL DEFAULT 0,
				current_streak INTEGER NOT NULL DEFAULT 0,
				max_streak INTEGER NOT NULL DEFAULT 0,
				average_response_ms %[3]s NOT NULL DEFAULT 0,
				last_accuracy %[3]s NOT NULL DEFAULT 0,
				retention_rate %[3]s NOT NULL DEFAULT 0,
				trend VARCHAR(32) NOT NULL,
				prerequisites %[2]s NOT NULL,
				created_at %[4]s NOT NULL,
				updated_at %[4]s NOT NULL
			)`, key, text, float, ts)},
		{"curves", fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS curves (
				user_id %[1]s NOT NULL,
				concept_id %[1]s NOT NULL,
				model VARCHAR(32) NOT NULL,
				initial_retention %[3]s NOT NULL,
				decay_rate %[3]s NOT NULL,
				stability_factor %[3]s NOT NULL,
				retrievability_threshold %[3]s NOT NULL,
				confidence %[3]s NOT NULL,
				data_points %[2]s NOT NULL,
				last_updated %[4]s NOT NULL,
				PRIMARY KEY (user_id, concept_id)
			)`, key, text, float, ts)},
		{"review_log", fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS review_log (
				id %[1]s PRIMARY KEY,
				card_id %[1]s NOT NULL,
				user_id %[1]s NOT NULL,
				concept_id %[1]s NOT NULL,
				quality INTEGER NOT NULL,
				response_time_ms INTEGER NOT NULL,
				elapsed_hours %[2]s NOT NULL,
				interval_days INTEGER NOT NULL,
				ease_factor %[2]s NOT NULL,
				mastery_level VARCHAR(32) NOT NULL,
				reviewed_at %[3]s NOT NULL,
				FOREIGN KEY (card_id) REFERENCES cards(id)
			)`, key, float, ts)},
	}
	for _, t := range tables {
		if _, err := db.ExecContext(ctx, t.ddl); err != nil {
			return fmt.Errorf("failed to create %s table: %w", t.name, err)
		}
	}

	if !d.SupportsIndexIfNotExists() {
		return nil
	}
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_cards_user_next_review ON cards(user_id, next_review)`,
		`CREATE INDEX IF NOT EXISTS idx_review_log_card ON review_log(card_id, reviewed_at)`,
	}
	for _, ddl := range indexes {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}
