package models

import "time"

// ReviewType classifies a queued card
type ReviewType string

const (
	ReviewTypeNew     ReviewType = "new"
	ReviewTypeReview  ReviewType = "review"
	ReviewTypeRelearn ReviewType = "relearn"
)

// QueueType selects which cards a session draws from
type QueueType string

const (
	QueueDaily  QueueType = "daily"  // new and due review cards
	QueueNew    QueueType = "new"    // new cards only
	QueueReview QueueType = "review" // due review cards only
	QueueWeak   QueueType = "weak"   // due cards still in learning or below 60% accuracy
)

// DifficultyPreference controls pre-sorting of the pools before assembly
type DifficultyPreference string

const (
	PreferEasyFirst DifficultyPreference = "easy-first"
	PreferMixed     DifficultyPreference = "mixed"
	PreferHardFirst DifficultyPreference = "hard-first"
)

// UrgencyFactors is the per-factor breakdown behind a priority score
type UrgencyFactors struct {
	Overdue    float64 `json:"overdue"`
	Mastery    float64 `json:"mastery"`
	Difficulty float64 `json:"difficulty"`
	Retention  float64 `json:"retention"`
	Dependency float64 `json:"dependency"`
}

// QueuedCard is a session-scoped wrapper around a card
type QueuedCard struct {
	Card             Card           `json:"card"`
	Priority         float64        `json:"priority"`
	Urgency          UrgencyFactors `json:"urgency"`
	EstimatedSeconds float64        `json:"estimated_seconds"`
	ReviewType       ReviewType     `json:"review_type"`
}

// QueueMetadata describes the constraints a queue was built under
type QueueMetadata struct {
	UserID               string    `json:"user_id"`
	QueueType            QueueType `json:"queue_type"`
	TargetSessionMinutes int       `json:"target_session_minutes"`
	MaxNewCards          int       `json:"max_new_cards"`
	MaxReviewCards       int       `json:"max_review_cards"`
	BalanceRatio         float64   `json:"balance_ratio"`
	EstimatedMinutes     int       `json:"estimated_minutes"`
	GeneratedAt          time.Time `json:"generated_at"`
}

// QueueStatistics summarises an assembled queue
type QueueStatistics struct {
	TotalCards      int                `json:"total_cards"`
	NewCards        int                `json:"new_cards"`
	ReviewCards     int                `json:"review_cards"`
	RelearnCards    int                `json:"relearn_cards"`
	ByDifficulty    map[Difficulty]int `json:"by_difficulty"`
	AveragePriority float64            `json:"average_priority"`
	OverdueCards    int                `json:"overdue_cards"`
	TotalSeconds    float64            `json:"total_seconds"`
}

// ReviewQueue is the ordered, time-budgeted set of cards for one session
type ReviewQueue struct {
	Cards      []QueuedCard    `json:"cards"`
	Metadata   QueueMetadata   `json:"metadata"`
	Statistics QueueStatistics `json:"statistics"`
}
