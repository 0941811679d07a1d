package engine

import (
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/example/srscore/internal/spaced_repetition"
	"github.com/example/srscore/pkg/models"
)

// AnalyzeRetention summarises the forgetting profile of a user
func (e *Engine) AnalyzeRetention(userID string) models.ForgettingAnalysis {
	return e.curves.AnalyzeForgettingPatterns(userID)
}

// PredictRetention estimates retention for a concept after timeElapsedHours
func (e *Engine) PredictRetention(userID, conceptID string, timeElapsedHours float64) models.RetentionPrediction {
	return e.curves.PredictRetention(userID, conceptID, timeElapsedHours)
}

// FindOptimalReviewTime returns the delay at which retention reaches targetRetention
func (e *Engine) FindOptimalReviewTime(userID, conceptID string, targetRetention float64) models.OptimalReviewTime {
	return e.curves.FindOptimalReviewTime(userID, conceptID, targetRetention)
}

// OptimizeCurveModel picks the best-fitting model family for a concept
func (e *Engine) OptimizeCurveModel(userID, conceptID string) (models.ForgettingCurve, bool) {
	c, ok := e.curves.OptimizeModel(userID, conceptID)
	if ok {
		e.logger.Debug("curve model optimized",
			zap.String("user", userID),
			zap.String("concept", conceptID),
			zap.String("model", string(c.Model)),
			zap.Float64("confidence", c.Confidence))
	}
	return c, ok
}

// CleanupCurves drops stale curves and returns the removed ones
func (e *Engine) CleanupCurves() []models.ForgettingCurve {
	removed := e.curves.Cleanup(e.now())
	if len(removed) > 0 {
		e.logger.Info("stale curves removed", zap.Int("count", len(removed)))
	}
	return removed
}

// GetSystemStatistics aggregates cards and the matching forgetting curves.
// Curve statistics cover the single user owning the cards, or every user when mixed.
func (e *Engine) GetSystemStatistics(cards []models.Card) models.SystemStatistics {
	now := e.now()
	stats := models.SystemStatistics{
		TotalCards: len(cards),
		ByMastery:  make(map[models.MasteryLevel]int, len(models.MasteryLevels)),
	}
	for _, level := range models.MasteryLevels {
		stats.ByMastery[level] = 0
	}
	for level, n := range lo.CountValuesBy(cards, func(c models.Card) models.MasteryLevel { return c.MasteryLevel }) {
		stats.ByMastery[level] = n
	}

	active := lo.Filter(cards, func(c models.Card, _ int) bool {
		return c.MasteryLevel != models.MasterySuspended
	})
	if len(active) > 0 {
		stats.AverageRetention = lo.SumBy(active, func(c models.Card) float64 {
			return e.sm2.PredictRetention(c, now).Retention
		}) / float64(len(active))
		stats.AverageEase = lo.SumBy(active, func(c models.Card) float64 { return c.EaseFactor }) / float64(len(active))
	}
	stats.DueCards = lo.CountBy(active, func(c models.Card) bool { return !c.NextReview.After(now) })
	stats.OverdueCards = lo.CountBy(active, func(c models.Card) bool {
		return spaced_repetition.DaysOverdue(c, now) >= 1
	})

	userID := ""
	if users := lo.Uniq(lo.Map(cards, func(c models.Card, _ int) string { return c.UserID })); len(users) == 1 {
		userID = users[0]
	}
	stats.Curves = e.curves.Statistics(userID)
	return stats
}
