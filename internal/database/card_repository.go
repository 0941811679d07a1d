package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/srscore/pkg/models"
)

// PrerequisiteSeparator joins prerequisite concept ids in storage and in imported sheets
const PrerequisiteSeparator = ";"

// cardRow is the flattened storage form of models.Card
type cardRow struct {
	ID                string     `db:"id"`
	UserID            string     `db:"user_id"`
	ConceptID         string     `db:"concept_id"`
	Question          string     `db:"question"`
	Answer            string     `db:"answer"`
	Explanation       string     `db:"explanation"`
	Difficulty        string     `db:"difficulty"`
	EstimatedSeconds  int        `db:"estimated_seconds"`
	MasteryLevel      string     `db:"mastery_level"`
	Interval          int        `db:"interval_days"`
	EaseFactor        float64    `db:"ease_factor"`
	Repetitions       int        `db:"repetitions"`
	LastQuality       int        `db:"last_quality"`
	NextReview        time.Time  `db:"next_review"`
	LastReviewed      *time.Time `db:"last_reviewed"`
	PriorityScore     float64    `db:"priority_score"`
	Algorithm         string     `db:"algorithm"`
	TotalReviews      int        `db:"total_reviews"`
	CorrectReviews    int        `db:"correct_reviews"`
	CurrentStreak     int        `db:"current_streak"`
	MaxStreak         int        `db:"max_streak"`
	AverageResponseMs float64    `db:"average_response_ms"`
	LastAccuracy      float64    `db:"last_accuracy"`
	RetentionRate     float64    `db:"retention_rate"`
	Trend             string     `db:"trend"`
	Prerequisites     string     `db:"prerequisites"`
	CreatedAt         time.Time  `db:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at"`
}

func toCardRow(c models.Card) cardRow {
	return cardRow{
		ID:                c.ID,
		UserID:            c.UserID,
		ConceptID:         c.ConceptID,
		Question:          c.Content.Question,
		Answer:            c.Content.Answer,
		Explanation:       c.Content.Explanation,
		Difficulty:        string(c.Content.Difficulty),
		EstimatedSeconds:  c.Content.EstimatedSeconds,
		MasteryLevel:      string(c.MasteryLevel),
		Interval:          c.Interval,
		EaseFactor:        c.EaseFactor,
		Repetitions:       c.Repetitions,
		LastQuality:       c.LastQuality,
		NextReview:        c.NextReview.UTC(),
		LastReviewed:      utcPtr(c.LastReviewed),
		PriorityScore:     c.PriorityScore,
		Algorithm:         c.Algorithm,
		TotalReviews:      c.Stats.TotalReviews,
		CorrectReviews:    c.Stats.CorrectReviews,
		CurrentStreak:     c.Stats.CurrentStreak,
		MaxStreak:         c.Stats.MaxStreak,
		AverageResponseMs: c.Stats.AverageResponseMs,
		LastAccuracy:      c.Stats.LastAccuracy,
		RetentionRate:     c.Stats.RetentionRate,
		Trend:             string(c.Stats.Trend),
		Prerequisites:     strings.Join(c.Prerequisites, PrerequisiteSeparator),
		CreatedAt:         c.CreatedAt.UTC(),
		UpdatedAt:         c.UpdatedAt.UTC(),
	}
}

func (r cardRow) card() models.Card {
	var prereqs []string
	if r.Prerequisites != "" {
		prereqs = strings.Split(r.Prerequisites, PrerequisiteSeparator)
	}
	return models.Card{
		ID:        r.ID,
		ConceptID: r.ConceptID,
		UserID:    r.UserID,
		Content: models.Content{
			Question:         r.Question,
			Answer:           r.Answer,
			Explanation:      r.Explanation,
			Difficulty:       models.Difficulty(r.Difficulty),
			EstimatedSeconds: r.EstimatedSeconds,
		},
		MasteryLevel:  models.MasteryLevel(r.MasteryLevel),
		Interval:      r.Interval,
		EaseFactor:    r.EaseFactor,
		Repetitions:   r.Repetitions,
		LastQuality:   r.LastQuality,
		NextReview:    r.NextReview.UTC(),
		LastReviewed:  utcPtr(r.LastReviewed),
		PriorityScore: r.PriorityScore,
		Algorithm:     r.Algorithm,
		Stats: models.CardStats{
			TotalReviews:      r.TotalReviews,
			CorrectReviews:    r.CorrectReviews,
			CurrentStreak:     r.CurrentStreak,
			MaxStreak:         r.MaxStreak,
			AverageResponseMs: r.AverageResponseMs,
			LastAccuracy:      r.LastAccuracy,
			RetentionRate:     r.RetentionRate,
			Trend:             models.Trend(r.Trend),
		},
		Prerequisites: prereqs,
		CreatedAt:     r.CreatedAt.UTC(),
		UpdatedAt:     r.UpdatedAt.UTC(),
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

const cardColumns = `id, user_id, concept_id, question, answer, explanation, difficulty,
	estimated_seconds, mastery_level, interval_days, ease_factor, repetitions, last_quality,
	next_review, last_reviewed, priority_score, algorithm, total_reviews, correct_reviews,
	current_streak, max_streak, average_response_ms, last_accuracy, retention_rate, trend,
	prerequisites, created_at, updated_at`

const insertCardQuery = `INSERT INTO cards (` + cardColumns + `) VALUES (
	:id, :user_id, :concept_id, :question, :answer, :explanation, :difficulty,
	:estimated_seconds, :mastery_level, :interval_days, :ease_factor, :repetitions, :last_quality,
	:next_review, :last_reviewed, :priority_score, :algorithm, :total_reviews, :correct_reviews,
	:current_streak, :max_streak, :average_response_ms, :last_accuracy, :retention_rate, :trend,
	:prerequisites, :created_at, :updated_at)`

const updateCardQuery = `UPDATE cards SET
	user_id = :user_id, concept_id = :concept_id, question = :question, answer = :answer,
	explanation = :explanation, difficulty = :difficulty, estimated_seconds = :estimated_seconds,
	mastery_level = :mastery_level, interval_days = :interval_days, ease_factor = :ease_factor,
	repetitions = :repetitions, last_quality = :last_quality, next_review = :next_review,
	last_reviewed = :last_reviewed, priority_score = :priority_score, algorithm = :algorithm,
	total_reviews = :total_reviews, correct_reviews = :correct_reviews,
	current_streak = :current_streak, max_streak = :max_streak,
	average_response_ms = :average_response_ms, last_accuracy = :last_accuracy,
	retention_rate = :retention_rate, trend = :trend, prerequisites = :prerequisites,
	updated_at = :updated_at
	WHERE id = :id`

// CardRepository handles database operations for cards
type CardRepository struct {
	db *DB
}

// NewCardRepository creates a new repository instance
func NewCardRepository(db *DB) *CardRepository {
	return &CardRepository{db: db}
}

// Save inserts or updates a card
func (r *CardRepository) Save(ctx context.Context, card models.Card) error {
	return r.SaveAll(ctx, []models.Card{card})
}

// SaveAll inserts or updates cards in one transaction
func (r *CardRepository) SaveAll(ctx context.Context, cards []models.Card) error {
	if len(cards) == 0 {
		return nil
	}
	return r.db.withTx(ctx, func(tx *sqlx.Tx) error {
		for _, c := range cards {
			if err := saveCard(ctx, tx, toCardRow(c)); err != nil {
				return fmt.Errorf("failed to save card %s: %w", c.ID, err)
			}
		}
		return nil
	})
}

// saveCard checks existence first; MySQL reports zero affected rows for no-op updates
func saveCard(ctx context.Context, tx *sqlx.Tx, row cardRow) error {
	var n int
	if err := tx.GetContext(ctx, &n, tx.Rebind(`SELECT COUNT(*) FROM cards WHERE id = ?`), row.ID); err != nil {
		return err
	}
	query := insertCardQuery
	if n > 0 {
		query = updateCardQuery
	}
	_, err := tx.NamedExecContext(ctx, query, row)
	return err
}

// Get returns the card with the given id
func (r *CardRepository) Get(ctx context.Context, id string) (models.Card, error) {
	var row cardRow
	err := r.db.GetContext(ctx, &row, r.db.Rebind(`SELECT `+cardColumns+` FROM cards WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Card{}, fmt.Errorf("%w: %s", ErrCardNotFound, id)
	}
	if err != nil {
		return models.Card{}, fmt.Errorf("failed to get card: %w", err)
	}
	return row.card(), nil
}

// ListByUser returns every card of a user in creation order
func (r *CardRepository) ListByUser(ctx context.Context, userID string) ([]models.Card, error) {
	return r.list(ctx, `SELECT `+cardColumns+` FROM cards WHERE user_id = ? ORDER BY created_at, id`, userID)
}

// ListDue returns the user's non-suspended cards due at now, earliest first
func (r *CardRepository) ListDue(ctx context.Context, userID string, now time.Time) ([]models.Card, error) {
	return r.list(ctx, `SELECT `+cardColumns+` FROM cards
		WHERE user_id = ? AND next_review <= ? AND mastery_level <> ?
		ORDER BY next_review, id`, userID, now.UTC(), string(models.MasterySuspended))
}

// ListAll returns every stored card
func (r *CardRepository) ListAll(ctx context.Context) ([]models.Card, error) {
	return r.list(ctx, `SELECT `+cardColumns+` FROM cards ORDER BY user_id, created_at, id`)
}

// Users returns the distinct user ids owning cards
func (r *CardRepository) Users(ctx context.Context) ([]string, error) {
	var users []string
	if err := r.db.SelectContext(ctx, &users, `SELECT DISTINCT user_id FROM cards ORDER BY user_id`); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (r *CardRepository) list(ctx context.Context, query string, args ...interface{}) ([]models.Card, error) {
	var rows []cardRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	cards := make([]models.Card, len(rows))
	for i, row := range rows {
		cards[i] = row.card()
	}
	return cards, nil
}
