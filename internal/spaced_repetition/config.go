package spaced_repetition

import "fmt"

// Config holds the tunables of the SM-2 variant
type Config struct {
	MinimumEaseFactor float64 `mapstructure:"minimum_ease_factor"`
	MaximumEaseFactor float64 `mapstructure:"maximum_ease_factor"`
	// EaseFactorChange is the step used when nudging ease outside the review
	// formula (reactivation after suspension)
	EaseFactorChange   float64 `mapstructure:"ease_factor_change"`
	IntervalMultiplier float64 `mapstructure:"interval_multiplier"`
	GraduatingInterval int     `mapstructure:"graduating_interval"` // days
	EasyInterval       int     `mapstructure:"easy_interval"`       // days
	EasyBonus          float64 `mapstructure:"easy_bonus"`
	LapsePenalty       float64 `mapstructure:"lapse_penalty"`
	MaxInterval        int     `mapstructure:"max_interval"` // days, 0 disables the cap

	// Mastery thresholds, in days of interval
	YoungInterval  int `mapstructure:"young_interval"`
	MatureInterval int `mapstructure:"mature_interval"`
	MasterInterval int `mapstructure:"master_interval"`
}

// DefaultConfig returns the stock SM-2 variant settings
func DefaultConfig() Config {
	return Config{
		MinimumEaseFactor:  1.3,
		MaximumEaseFactor:  2.5,
		EaseFactorChange:   0.15,
		IntervalMultiplier: 1.0,
		GraduatingInterval: 1,
		EasyInterval:       4,
		EasyBonus:          1.3,
		LapsePenalty:       0.2,
		YoungInterval:      7,
		MatureInterval:     21,
		MasterInterval:     100,
	}
}

// Validate rejects settings the algorithm cannot work with
func (c Config) Validate() error {
	switch {
	case c.MinimumEaseFactor <= 0:
		return fmt.Errorf("%w: minimum ease factor must be positive", ErrInvalidConfig)
	case c.MaximumEaseFactor < c.MinimumEaseFactor:
		return fmt.Errorf("%w: maximum ease factor below minimum", ErrInvalidConfig)
	case c.IntervalMultiplier <= 0:
		return fmt.Errorf("%w: interval multiplier must be positive", ErrInvalidConfig)
	case c.GraduatingInterval < 1 || c.EasyInterval < 1:
		return fmt.Errorf("%w: graduating and easy intervals must be at least one day", ErrInvalidConfig)
	case c.EasyBonus < 1:
		return fmt.Errorf("%w: easy bonus must be at least 1", ErrInvalidConfig)
	case c.LapsePenalty < 0:
		return fmt.Errorf("%w: lapse penalty must not be negative", ErrInvalidConfig)
	case c.MaxInterval < 0:
		return fmt.Errorf("%w: max interval must not be negative", ErrInvalidConfig)
	case c.YoungInterval > c.MatureInterval || c.MatureInterval > c.MasterInterval:
		return fmt.Errorf("%w: mastery thresholds must be ascending", ErrInvalidConfig)
	}
	return nil
}
