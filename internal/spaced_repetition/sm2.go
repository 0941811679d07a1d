package spaced_repetition

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/example/srscore/pkg/models"
)

// SM2 implements the SuperMemo-2 variant used for card scheduling
type SM2 struct {
	cfg Config
}

// NewSM2 creates a new SM2 instance; use DefaultConfig for stock settings
func NewSM2(cfg Config) *SM2 {
	return &SM2{cfg: cfg}
}

// Config returns the settings the instance was built with
func (sm *SM2) Config() Config {
	return sm.cfg
}

// QualityResponse grades one recall attempt on the 0..5 scale.
// Grades below QualityCorrectDifficult count as a lapse.
type QualityResponse int

const (
	QualityBlackout          QualityResponse = iota // nothing recalled
	QualityIncorrect                                // wrong, answer recognised once shown
	QualityIncorrectFamiliar                        // wrong, but close
	QualityCorrectDifficult                         // right after real effort
	QualityCorrectHesitation                        // right after a pause
	QualityPerfect                                  // immediate and right
)

// PassThreshold is the lowest quality counted as a successful recall
const PassThreshold = int(QualityCorrectDifficult)

// suspendedFor is how far ahead a suspended card's next review is pushed
const suspendedFor = 100 * 365 * 24 * time.Hour

// State is the scheduling state consumed by ProcessReview
type State struct {
	EaseFactor  float64
	Interval    int
	Repetitions int
}

// Result is the scheduling state produced by ProcessReview
type Result struct {
	EaseFactor            float64   `json:"ease_factor"`
	Interval              int       `json:"interval"`
	Repetitions           int       `json:"repetitions"`
	NextReviewDate        time.Time `json:"next_review_date"`
	IntervalChangePercent float64   `json:"interval_change_percent"`
	Passed                bool      `json:"passed"`
}

// ValidateQuality checks that quality is within 0..5
func ValidateQuality(quality int) error {
	if quality < int(QualityBlackout) || quality > int(QualityPerfect) {
		return ErrInvalidQuality
	}
	return nil
}

// ParseQuality parses user input such as "4"; fractional or out of range values are rejected
func ParseQuality(s string) (int, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || v != math.Trunc(v) {
		return 0, ErrInvalidQuality
	}
	q := int(v)
	if err := ValidateQuality(q); err != nil {
		return 0, err
	}
	return q, nil
}

// easeDelta is the classic SM-2 ease adjustment for a quality score
func easeDelta(quality int) float64 {
	d := 5.0 - float64(quality)
	return 0.1 - d*(0.08+d*0.02)
}

func (sm *SM2) clampEase(ef float64) float64 {
	return math.Max(sm.cfg.MinimumEaseFactor, math.Min(sm.cfg.MaximumEaseFactor, ef))
}

// ProcessReview computes the next scheduling state. The input state is never modified.
// A failed review resets repetitions and interval and applies the lapse penalty on top
// of the quality-based ease change.
func (sm *SM2) ProcessReview(state State, quality int, now time.Time) (Result, error) {
	if err := ValidateQuality(quality); err != nil {
		return Result{}, err
	}

	ease := state.EaseFactor
	if ease == 0 {
		ease = sm.cfg.MaximumEaseFactor
	}
	newEF := sm.clampEase(ease + easeDelta(quality))

	var newInterval, newReps int
	passed := quality >= PassThreshold

	if passed {
		switch state.Repetitions {
		case 0:
			newInterval = sm.cfg.GraduatingInterval
		case 1:
			newInterval = 6
		default:
			grow := float64(state.Interval) * newEF * sm.cfg.IntervalMultiplier
			if quality == int(QualityPerfect) {
				grow *= sm.cfg.EasyBonus
			}
			newInterval = int(math.Round(grow))
		}
		if quality == int(QualityPerfect) && newInterval < sm.cfg.EasyInterval {
			newInterval = sm.cfg.EasyInterval
		}
		newReps = state.Repetitions + 1
	} else {
		newReps = 0
		newInterval = 1
		newEF = math.Max(sm.cfg.MinimumEaseFactor, newEF-sm.cfg.LapsePenalty)
	}

	if sm.cfg.MaxInterval > 0 && newInterval > sm.cfg.MaxInterval {
		newInterval = sm.cfg.MaxInterval
	}
	if newInterval < 1 {
		newInterval = 1
	}

	prev := state.Interval
	if prev < 1 {
		prev = 1
	}

	return Result{
		EaseFactor:            newEF,
		Interval:              newInterval,
		Repetitions:           newReps,
		NextReviewDate:        now.AddDate(0, 0, newInterval),
		IntervalChangePercent: float64(newInterval-prev) / float64(prev) * 100,
		Passed:                passed,
	}, nil
}

// CalculateMasteryLevel buckets a card by its progress. A failed last review always
// yields learning.
func (sm *SM2) CalculateMasteryLevel(repetitions, interval, lastQuality int, accuracy float64) models.MasteryLevel {
	switch {
	case lastQuality < PassThreshold || repetitions == 0 || accuracy < 0.6:
		return models.MasteryLearning
	case repetitions < 3 || interval < sm.cfg.YoungInterval || accuracy < 0.8:
		return models.MasteryYoung
	case repetitions < 8 || interval < sm.cfg.MatureInterval || accuracy < 0.85:
		return models.MasteryMature
	case repetitions >= 15 && interval >= sm.cfg.MasterInterval && accuracy >= 0.9:
		return models.MasteryMaster
	default:
		return models.MasteryMature
	}
}

// MasteryWeight is the urgency contribution of a mastery level
func MasteryWeight(level models.MasteryLevel) float64 {
	switch level {
	case models.MasteryLearning:
		return 30
	case models.MasteryYoung:
		return 20
	case models.MasteryMature:
		return 10
	case models.MasteryMaster:
		return 5
	default:
		return 0
	}
}

// DaysOverdue is the fractional number of days since the card fell due (negative when not yet due)
func DaysOverdue(card models.Card, now time.Time) float64 {
	return now.Sub(card.NextReview).Hours() / 24
}

// CalculatePriority scores a card on 0..100 for review ordering
func (sm *SM2) CalculatePriority(card models.Card, now time.Time) float64 {
	if card.MasteryLevel == models.MasterySuspended {
		return 0
	}
	priority := 50.0
	priority += math.Max(0, DaysOverdue(card, now)) * 10
	priority += MasteryWeight(card.MasteryLevel)

	if !card.IsNew() {
		if card.LastQuality < PassThreshold {
			priority += 25
		} else if card.LastQuality == int(QualityPerfect) {
			priority -= 10
		}
	}
	priority += math.Max(0, float64(20-card.Interval))

	return clamp(priority, 0, 100)
}

// PredictRetention estimates the probability the card is still recalled at now
func (sm *SM2) PredictRetention(card models.Card, now time.Time) models.RetentionPrediction {
	elapsed := 0.0
	if card.LastReviewed != nil {
		elapsed = math.Max(0, now.Sub(*card.LastReviewed).Hours()/24)
	}
	interval := math.Max(1, float64(card.Interval))
	stability := interval * math.Min(2.5, card.EaseFactor)
	if stability <= 0 {
		stability = interval
	}

	retention := math.Pow(0.5, elapsed/stability)
	confidence := (math.Min(0.9, float64(card.Repetitions)*0.1) + card.Stats.LastAccuracy) / 2

	return models.RetentionPrediction{
		Retention:  clamp(retention, 0, 1),
		Confidence: clamp(confidence, 0, 1),
	}
}

// Suspend takes a card out of rotation
func (sm *SM2) Suspend(card models.Card, now time.Time) models.Card {
	c := card.Clone()
	c.MasteryLevel = models.MasterySuspended
	c.PriorityScore = 0
	c.NextReview = now.Add(suspendedFor)
	c.UpdatedAt = now
	return c
}

// Reactivate returns a suspended card to rotation, due immediately
func (sm *SM2) Reactivate(card models.Card, now time.Time) models.Card {
	c := card.Clone()
	if c.Stats.CorrectReviews > 0 {
		c.MasteryLevel = models.MasteryYoung
	} else {
		c.MasteryLevel = models.MasteryLearning
	}
	c.Interval = 1
	c.NextReview = now
	if c.EaseFactor > 0 {
		c.EaseFactor = sm.clampEase(c.EaseFactor - sm.cfg.EaseFactorChange)
	}
	c.PriorityScore = sm.CalculatePriority(c, now)
	c.UpdatedAt = now
	return c
}

// CalculateQuality maps an answer outcome to a 0..5 quality. Correct answers are graded by
// speed relative to expected time; wrong answers by how close the learner came.
func (sm *SM2) CalculateQuality(correct bool, responseTime, expected time.Duration) int {
	if !correct {
		if expected > 0 && responseTime > 0 && responseTime <= expected {
			return int(QualityIncorrectFamiliar)
		}
		return int(QualityIncorrect)
	}
	if expected <= 0 || responseTime <= 0 {
		return int(QualityCorrectHesitation)
	}
	ratio := float64(responseTime) / float64(expected)
	switch {
	case ratio <= 0.5:
		return int(QualityPerfect)
	case ratio <= 1.5:
		return int(QualityCorrectHesitation)
	default:
		return int(QualityCorrectDifficult)
	}
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
