package queue

import "github.com/example/srscore/pkg/models"

// BurnoutConfig controls the anti-burnout sequencing guard
type BurnoutConfig struct {
	Enabled                 bool    `mapstructure:"enabled"`
	MaxConsecutiveDifficult int     `mapstructure:"max_consecutive_difficult"`
	LookAhead               int     `mapstructure:"look_ahead"`
	DifficultPriority       float64 `mapstructure:"difficult_priority"`
	DifficultFactor         float64 `mapstructure:"difficult_factor"`
}

// Config holds the session-level constraints
type Config struct {
	MaxNewCards          int                         `mapstructure:"max_new_cards"`
	MaxReviewCards       int                         `mapstructure:"max_review_cards"`
	SessionMinutes       int                         `mapstructure:"session_minutes"`
	NewCardRatio         float64                     `mapstructure:"new_card_ratio"`
	DefaultCardSeconds   float64                     `mapstructure:"default_card_seconds"`
	DifficultyPreference models.DifficultyPreference `mapstructure:"difficulty_preference"`
	EnforcePrerequisites bool                        `mapstructure:"enforce_prerequisites"`
	PrerequisiteWeight   float64                     `mapstructure:"prerequisite_weight"` // share of a concept's cards that must be mature
	Burnout              BurnoutConfig               `mapstructure:"burnout"`
}

// DefaultConfig returns the stock session settings
func DefaultConfig() Config {
	return Config{
		MaxNewCards:          20,
		MaxReviewCards:       200,
		SessionMinutes:       60,
		NewCardRatio:         0.3,
		DefaultCardSeconds:   30,
		DifficultyPreference: models.PreferMixed,
		PrerequisiteWeight:   0.8,
		Burnout: BurnoutConfig{
			Enabled:                 true,
			MaxConsecutiveDifficult: 5,
			LookAhead:               10,
			DifficultPriority:       70,
			DifficultFactor:         25,
		},
	}
}

// Settings extracts the tunable subset
func (c Config) Settings() models.SessionSettings {
	return models.SessionSettings{
		SessionMinutes:       c.SessionMinutes,
		MaxNewCards:          c.MaxNewCards,
		DifficultyPreference: c.DifficultyPreference,
	}
}
