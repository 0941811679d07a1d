package queue

import (
	"math"

	"github.com/example/srscore/pkg/models"
)

const (
	maxSessionMinutes = 120
	minSessionMinutes = 10
	maxNewCardsCap    = 50
	minNewCardsCap    = 5
	newCardStep       = 5
	slowResponseMs    = 30000
)

// RecommendAdjustments proposes session settings from a post-session result.
// The proposal is never applied by the manager.
func (m *Manager) RecommendAdjustments(current models.SessionSettings, result models.SessionResult) models.SettingsRecommendation {
	if current.DifficultyPreference == "" {
		current.DifficultyPreference = models.PreferMixed
	}
	proposed := current
	var reasons []string

	strong := result.Accuracy >= 0.85 && result.Satisfaction >= 4
	weak := result.Accuracy < 0.6 || (result.Satisfaction > 0 && result.Satisfaction <= 2)

	switch {
	case strong:
		proposed.SessionMinutes = min(maxSessionMinutes, int(math.Round(float64(current.SessionMinutes)*1.1)))
		proposed.MaxNewCards = min(maxNewCardsCap, current.MaxNewCards+newCardStep)
		reasons = append(reasons, "High accuracy and satisfaction: allow longer sessions and more new cards")
	case weak:
		proposed.SessionMinutes = max(minSessionMinutes, int(math.Round(float64(current.SessionMinutes)*0.9)))
		proposed.MaxNewCards = max(minNewCardsCap, current.MaxNewCards-newCardStep)
		reasons = append(reasons, "Low accuracy or satisfaction: shorten sessions and introduce fewer new cards")
	}

	if result.AverageResponseMs > slowResponseMs && !weak {
		proposed.MaxNewCards = max(minNewCardsCap, proposed.MaxNewCards-newCardStep)
		reasons = append(reasons, "Slow responses: introduce fewer new cards")
	}

	if result.Satisfaction > 0 && result.Satisfaction <= 2 && current.DifficultyPreference != models.PreferEasyFirst {
		proposed.DifficultyPreference = models.PreferEasyFirst
		reasons = append(reasons, "Low satisfaction: start sessions with easier cards")
	}

	if len(reasons) == 0 {
		reasons = append(reasons, "Current settings fit recent performance")
	}

	return models.SettingsRecommendation{
		Current:            current,
		Proposed:           proposed,
		IntervalMultiplier: 1.0,
		Changed:            proposed != current,
		Reasons:            reasons,
	}
}
