package engine

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/srscore/internal/spaced_repetition"
	"github.com/example/srscore/pkg/models"
)

const (
	accuracySmoothing = 0.3
	trendThreshold    = 0.1
	slowResponseMs    = 60000
	minObsConfidence  = 0.1
)

// Review is the outcome of one processed review
type Review struct {
	Card       models.Card              `json:"card"`
	Scheduling spaced_repetition.Result `json:"scheduling"`
	Log        models.ReviewLog         `json:"log"`
}

// ProcessReview applies a quality score to a card. The input card is not
// modified, and nothing changes when the quality is invalid.
func (e *Engine) ProcessReview(card models.Card, quality int, responseTimeMs int) (Review, error) {
	if err := spaced_repetition.ValidateQuality(quality); err != nil {
		return Review{}, fmt.Errorf("review card %s: %w", card.ID, err)
	}
	if card.MasteryLevel == models.MasterySuspended {
		return Review{}, fmt.Errorf("review card %s: %w", card.ID, ErrCardSuspended)
	}
	if responseTimeMs < 0 {
		responseTimeMs = 0
	}

	now := e.now()
	res, err := e.sm2.ProcessReview(spaced_repetition.State{
		EaseFactor:  card.EaseFactor,
		Interval:    card.Interval,
		Repetitions: card.Repetitions,
	}, quality, now)
	if err != nil {
		return Review{}, fmt.Errorf("review card %s: %w", card.ID, err)
	}

	elapsed := elapsedHours(card, now)

	c := card.Clone()
	c.EaseFactor = res.EaseFactor
	c.Interval = res.Interval
	c.Repetitions = res.Repetitions
	c.NextReview = res.NextReviewDate
	c.LastQuality = quality
	c.LastReviewed = &now
	c.UpdatedAt = now
	if c.Algorithm == "" {
		c.Algorithm = models.AlgorithmSM2
	}
	c.Stats = updateStats(c.Stats, res.Passed, responseTimeMs)
	c.MasteryLevel = e.sm2.CalculateMasteryLevel(c.Repetitions, c.Interval, quality, c.Stats.LastAccuracy)
	c.PriorityScore = e.sm2.CalculatePriority(c, now)

	e.curves.UpdateCurve(c.UserID, c.ConceptID, models.DataPoint{
		TimeElapsedHours: elapsed,
		Retention:        float64(quality) / float64(spaced_repetition.QualityPerfect),
		WasCorrect:       res.Passed,
		ResponseTimeMs:   responseTimeMs,
		Confidence:       responseConfidence(responseTimeMs),
		RecordedAt:       now,
	})

	e.logger.Debug("review processed",
		zap.String("card", c.ID),
		zap.String("user", c.UserID),
		zap.Int("quality", quality),
		zap.Int("interval", c.Interval),
		zap.Float64("ease", c.EaseFactor),
		zap.String("mastery", string(c.MasteryLevel)))

	return Review{
		Card:       c,
		Scheduling: res,
		Log: models.ReviewLog{
			ID:             uuid.New().String(),
			CardID:         c.ID,
			UserID:         c.UserID,
			ConceptID:      c.ConceptID,
			Quality:        quality,
			ResponseTimeMs: responseTimeMs,
			ElapsedHours:   elapsed,
			Interval:       c.Interval,
			EaseFactor:     c.EaseFactor,
			MasteryLevel:   string(c.MasteryLevel),
			ReviewedAt:     now,
		},
	}, nil
}

// ProcessAnswer grades a right/wrong answer by speed and processes it as a review
func (e *Engine) ProcessAnswer(card models.Card, correct bool, responseTimeMs int) (Review, error) {
	expected := card.Content.EstimatedSeconds
	if expected <= 0 {
		expected = int(e.cfg.Queue.DefaultCardSeconds)
	}
	quality := e.sm2.CalculateQuality(correct,
		time.Duration(responseTimeMs)*time.Millisecond,
		time.Duration(expected)*time.Second)
	return e.ProcessReview(card, quality, responseTimeMs)
}

// elapsedHours is the time since the last review, or since creation for a first review
func elapsedHours(card models.Card, now time.Time) float64 {
	since := card.CreatedAt
	if card.LastReviewed != nil {
		since = *card.LastReviewed
	}
	if since.IsZero() {
		return 0
	}
	return math.Max(0, now.Sub(since).Hours())
}

// responseConfidence is high for quick answers and decays toward the floor for slow ones
func responseConfidence(responseTimeMs int) float64 {
	if responseTimeMs <= 0 {
		return 1
	}
	return math.Max(minObsConfidence, 1-float64(responseTimeMs)/slowResponseMs)
}

func updateStats(s models.CardStats, passed bool, responseTimeMs int) models.CardStats {
	outcome := 0.0
	if passed {
		outcome = 1
	}

	prior := s.LastAccuracy
	switch {
	case outcome > prior+trendThreshold:
		s.Trend = models.TrendImproving
	case outcome < prior-trendThreshold:
		s.Trend = models.TrendDeclining
	default:
		s.Trend = models.TrendStable
	}

	s.AverageResponseMs = (s.AverageResponseMs*float64(s.TotalReviews) + float64(responseTimeMs)) / float64(s.TotalReviews+1)
	s.TotalReviews++
	if passed {
		s.CorrectReviews++
		s.CurrentStreak++
		s.MaxStreak = max(s.MaxStreak, s.CurrentStreak)
	} else {
		s.CurrentStreak = 0
	}
	s.LastAccuracy = (1-accuracySmoothing)*prior + accuracySmoothing*outcome
	s.RetentionRate = float64(s.CorrectReviews) / float64(s.TotalReviews)
	return s
}
