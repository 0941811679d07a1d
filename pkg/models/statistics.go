package models

import "time"

// RetentionPrediction is a retention estimate with the model's confidence in it
type RetentionPrediction struct {
	Retention  float64 `json:"retention"`
	Confidence float64 `json:"confidence"`
}

// OptimalReviewTime is the recommended delay before the next review
type OptimalReviewTime struct {
	TimeHours  float64 `json:"time_hours"`
	Confidence float64 `json:"confidence"`
}

// ForgettingAnalysis aggregates all curves of a user
type ForgettingAnalysis struct {
	UserID              string   `json:"user_id"`
	ConceptCount        int      `json:"concept_count"`
	ModelAccuracy       float64  `json:"model_accuracy"`
	AverageOptimalHours float64  `json:"average_optimal_hours"`
	AverageDecayRate    float64  `json:"average_decay_rate"`
	FastForgetter       bool     `json:"fast_forgetter"`
	Recommendations     []string `json:"recommendations"`
}

// CurveStatistics summarises a curve store
type CurveStatistics struct {
	TotalCurves       int                `json:"total_curves"`
	TotalDataPoints   int                `json:"total_data_points"`
	AverageConfidence float64            `json:"average_confidence"`
	AverageDecayRate  float64            `json:"average_decay_rate"`
	ByModel           map[CurveModel]int `json:"by_model"`
}

// SystemStatistics is the aggregate view over a set of cards
type SystemStatistics struct {
	TotalCards       int                  `json:"total_cards"`
	ByMastery        map[MasteryLevel]int `json:"by_mastery"`
	AverageRetention float64              `json:"average_retention"`
	AverageEase      float64              `json:"average_ease"`
	DueCards         int                  `json:"due_cards"`
	OverdueCards     int                  `json:"overdue_cards"`
	Curves           CurveStatistics      `json:"curves"`
}

// SessionResult is what the session runtime reports after a study session
type SessionResult struct {
	CardsReviewed     int     `json:"cards_reviewed"`
	Accuracy          float64 `json:"accuracy"` // 0..1
	AverageResponseMs float64 `json:"average_response_ms"`
	Satisfaction      float64 `json:"satisfaction"` // 1..5 self-reported
	DurationMinutes   float64 `json:"duration_minutes"`
}

// SessionSettings are the tunable session knobs
type SessionSettings struct {
	SessionMinutes       int                  `json:"session_minutes"`
	MaxNewCards          int                  `json:"max_new_cards"`
	DifficultyPreference DifficultyPreference `json:"difficulty_preference"`
}

// SettingsRecommendation is a proposed, not applied, change to session settings
type SettingsRecommendation struct {
	Current            SessionSettings `json:"current"`
	Proposed           SessionSettings `json:"proposed"`
	IntervalMultiplier float64         `json:"interval_multiplier"`
	Changed            bool            `json:"changed"`
	Reasons            []string        `json:"reasons"`
}

// ReviewLog records one processed review
type ReviewLog struct {
	ID             string    `json:"id" db:"id"`
	CardID         string    `json:"card_id" db:"card_id"`
	UserID         string    `json:"user_id" db:"user_id"`
	ConceptID      string    `json:"concept_id" db:"concept_id"`
	Quality        int       `json:"quality" db:"quality"`
	ResponseTimeMs int       `json:"response_time_ms" db:"response_time_ms"`
	ElapsedHours   float64   `json:"elapsed_hours" db:"elapsed_hours"`
	Interval       int       `json:"interval" db:"interval_days"`
	EaseFactor     float64   `json:"ease_factor" db:"ease_factor"`
	MasteryLevel   string    `json:"mastery_level" db:"mastery_level"`
	ReviewedAt     time.Time `json:"reviewed_at" db:"reviewed_at"`
}
