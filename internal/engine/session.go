package engine

import (
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/example/srscore/pkg/models"
)

// SessionOptions narrows a study session
type SessionOptions struct {
	ConceptIDs    []string         // empty means every concept
	QueueType     models.QueueType // empty means daily
	TargetMinutes int              // <= 0 uses the configured session length
}

// GenerateStudySession filters cards to the requested concepts and assembles a queue
func (e *Engine) GenerateStudySession(userID string, cards []models.Card, opts SessionOptions) models.ReviewQueue {
	if len(opts.ConceptIDs) > 0 {
		focus := lo.SliceToMap(opts.ConceptIDs, func(id string) (string, struct{}) { return id, struct{}{} })
		cards = lo.Filter(cards, func(c models.Card, _ int) bool {
			_, ok := focus[c.ConceptID]
			return ok
		})
	}

	q := e.queue.GenerateReviewQueue(userID, cards, opts.QueueType, opts.TargetMinutes)
	e.logger.Info("study session generated",
		zap.String("user", userID),
		zap.String("type", string(q.Metadata.QueueType)),
		zap.Int("cards", q.Statistics.TotalCards),
		zap.Int("new", q.Statistics.NewCards),
		zap.Int("estimated_minutes", q.Metadata.EstimatedMinutes))
	return q
}

const (
	fastForgetterMultiplier = 0.9
	slowForgetterMultiplier = 1.1
	slowForgetterDecay      = 0.05
	confidentModel          = 0.5
)

// OptimizeSettings averages recent session results into a settings proposal.
// Without sessions it falls back to the review history of the user's cards.
// The interval multiplier follows the user's forgetting profile.
func (e *Engine) OptimizeSettings(userID string, cards []models.Card, recent []models.SessionResult) models.SettingsRecommendation {
	result, ok := averageSessions(recent)
	if !ok {
		result, ok = historyAsSession(lo.Filter(cards, func(c models.Card, _ int) bool {
			return c.UserID == userID
		}))
	}

	current := e.cfg.Queue.Settings()
	var rec models.SettingsRecommendation
	if ok {
		rec = e.queue.RecommendAdjustments(current, result)
	} else {
		rec = models.SettingsRecommendation{
			Current:            current,
			Proposed:           current,
			IntervalMultiplier: 1.0,
			Reasons:            []string{"No review history yet; keep the default settings"},
		}
	}

	analysis := e.curves.AnalyzeForgettingPatterns(userID)
	switch {
	case analysis.ConceptCount == 0:
	case analysis.FastForgetter:
		rec.IntervalMultiplier = fastForgetterMultiplier
		rec.Reasons = append(rec.Reasons, "Retention decays quickly: shorten intervals")
	case analysis.AverageDecayRate < slowForgetterDecay && analysis.ModelAccuracy >= confidentModel:
		rec.IntervalMultiplier = slowForgetterMultiplier
		rec.Reasons = append(rec.Reasons, "Retention holds well: lengthen intervals")
	}
	if rec.IntervalMultiplier != 1.0 {
		rec.Changed = true
	}

	e.logger.Info("settings optimized",
		zap.String("user", userID),
		zap.Bool("changed", rec.Changed),
		zap.Float64("interval_multiplier", rec.IntervalMultiplier))
	return rec
}

func averageSessions(sessions []models.SessionResult) (models.SessionResult, bool) {
	if len(sessions) == 0 {
		return models.SessionResult{}, false
	}
	n := float64(len(sessions))
	return models.SessionResult{
		CardsReviewed:     lo.SumBy(sessions, func(s models.SessionResult) int { return s.CardsReviewed }),
		Accuracy:          lo.SumBy(sessions, func(s models.SessionResult) float64 { return s.Accuracy }) / n,
		AverageResponseMs: lo.SumBy(sessions, func(s models.SessionResult) float64 { return s.AverageResponseMs }) / n,
		Satisfaction:      lo.SumBy(sessions, func(s models.SessionResult) float64 { return s.Satisfaction }) / n,
		DurationMinutes:   lo.SumBy(sessions, func(s models.SessionResult) float64 { return s.DurationMinutes }) / n,
	}, true
}

// historyAsSession summarises card statistics as if they were one session; satisfaction is unknown
func historyAsSession(cards []models.Card) (models.SessionResult, bool) {
	reviewed := lo.Filter(cards, func(c models.Card, _ int) bool { return !c.IsNew() })
	if len(reviewed) == 0 {
		return models.SessionResult{}, false
	}
	total := lo.SumBy(reviewed, func(c models.Card) int { return c.Stats.TotalReviews })
	correct := lo.SumBy(reviewed, func(c models.Card) int { return c.Stats.CorrectReviews })
	weightedMs := lo.SumBy(reviewed, func(c models.Card) float64 {
		return c.Stats.AverageResponseMs * float64(c.Stats.TotalReviews)
	})
	return models.SessionResult{
		CardsReviewed:     total,
		Accuracy:          float64(correct) / float64(total),
		AverageResponseMs: weightedMs / float64(total),
	}, true
}
