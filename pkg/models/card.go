package models

import "time"

// MasteryLevel is a coarse bucket summarising a card's learning progress
type MasteryLevel string

const (
	MasteryLearning  MasteryLevel = "learning"
	MasteryYoung     MasteryLevel = "young"
	MasteryMature    MasteryLevel = "mature"
	MasteryMaster    MasteryLevel = "master"
	MasterySuspended MasteryLevel = "suspended"
)

// MasteryLevels lists every level in progression order, suspended last
var MasteryLevels = []MasteryLevel{MasteryLearning, MasteryYoung, MasteryMature, MasteryMaster, MasterySuspended}

// Trend describes how a card's recent accuracy is moving
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendStable    Trend = "stable"
	TrendDeclining Trend = "declining"
)

// Difficulty is the content-declared difficulty tag
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// AlgorithmSM2 tags cards scheduled by the SM-2 variant
const AlgorithmSM2 = "sm2"

// Content is the opaque payload supplied by the content store
type Content struct {
	Question         string     `json:"question"`
	Answer           string     `json:"answer"`
	Explanation      string     `json:"explanation,omitempty"`
	Difficulty       Difficulty `json:"difficulty,omitempty"`
	EstimatedSeconds int        `json:"estimated_seconds,omitempty"` // 0 means use the default
}

// CardStats holds per-card review statistics
type CardStats struct {
	TotalReviews      int     `json:"total_reviews"`
	CorrectReviews    int     `json:"correct_reviews"`
	CurrentStreak     int     `json:"current_streak"`
	MaxStreak         int     `json:"max_streak"`
	AverageResponseMs float64 `json:"average_response_ms"`
	LastAccuracy      float64 `json:"last_accuracy"` // smoothed, 0..1
	RetentionRate     float64 `json:"retention_rate"`
	Trend             Trend   `json:"trend"`
}

// Card is a learnable unit bound to one user and one concept
type Card struct {
	ID        string  `json:"id"`
	ConceptID string  `json:"concept_id"`
	UserID    string  `json:"user_id"`
	Content   Content `json:"content"`

	MasteryLevel  MasteryLevel `json:"mastery_level"`
	Interval      int          `json:"interval"` // days
	EaseFactor    float64      `json:"ease_factor"`
	Repetitions   int          `json:"repetitions"`
	LastQuality   int          `json:"last_quality"` // meaningful only when Stats.TotalReviews > 0
	NextReview    time.Time    `json:"next_review"`
	LastReviewed  *time.Time   `json:"last_reviewed,omitempty"`
	PriorityScore float64      `json:"priority_score"`
	Algorithm     string       `json:"algorithm"`

	Stats         CardStats `json:"stats"`
	Prerequisites []string  `json:"prerequisites,omitempty"` // concept ids

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsNew reports whether the card has never been reviewed
func (c Card) IsNew() bool {
	return c.Stats.TotalReviews == 0
}

// Clone returns a deep copy so callers can mutate without touching the original
func (c Card) Clone() Card {
	if c.LastReviewed != nil {
		t := *c.LastReviewed
		c.LastReviewed = &t
	}
	if c.Prerequisites != nil {
		c.Prerequisites = append([]string(nil), c.Prerequisites...)
	}
	return c
}
