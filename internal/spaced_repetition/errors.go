package spaced_repetition

import "errors"

var (
	// ErrInvalidQuality is returned for a quality outside 0..5 or not a whole number
	ErrInvalidQuality = errors.New("spaced_repetition: quality must be an integer between 0 and 5")
	// ErrInvalidConfig is returned by Config.Validate
	ErrInvalidConfig = errors.New("spaced_repetition: invalid configuration")
)
