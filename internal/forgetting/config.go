package forgetting

import "time"

// Config bounds the curve store
type Config struct {
	BufferSize             int           `mapstructure:"buffer_size"`    // data points kept per curve
	FitWindow              int           `mapstructure:"fit_window"`     // most recent points used for fitting
	MinPointsForFit        int           `mapstructure:"min_points_for_fit"`
	DefaultDecayRate       float64       `mapstructure:"default_decay_rate"`
	DefaultTargetRetention float64       `mapstructure:"default_target_retention"`
	StaleAfter             time.Duration `mapstructure:"stale_after"`
	MinPointsToKeep        int           `mapstructure:"min_points_to_keep"` // stale curves below this are dropped
	FastForgetterDecay     float64       `mapstructure:"fast_forgetter_decay"`
}

// DefaultConfig returns the standard curve store settings
func DefaultConfig() Config {
	return Config{
		BufferSize:             100,
		FitWindow:              50,
		MinPointsForFit:        3,
		DefaultDecayRate:       0.1,
		DefaultTargetRetention: 0.9,
		StaleAfter:             30 * 24 * time.Hour,
		MinPointsToKeep:        5,
		FastForgetterDecay:     0.15,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.BufferSize <= 0 {
		c.BufferSize = d.BufferSize
	}
	if c.FitWindow <= 0 {
		c.FitWindow = d.FitWindow
	}
	if c.MinPointsForFit <= 0 {
		c.MinPointsForFit = d.MinPointsForFit
	}
	if c.DefaultDecayRate <= 0 {
		c.DefaultDecayRate = d.DefaultDecayRate
	}
	if c.DefaultTargetRetention <= 0 || c.DefaultTargetRetention >= 1 {
		c.DefaultTargetRetention = d.DefaultTargetRetention
	}
	if c.StaleAfter <= 0 {
		c.StaleAfter = d.StaleAfter
	}
	if c.MinPointsToKeep <= 0 {
		c.MinPointsToKeep = d.MinPointsToKeep
	}
	if c.FastForgetterDecay <= 0 {
		c.FastForgetterDecay = d.FastForgetterDecay
	}
	return c
}
