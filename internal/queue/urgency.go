package queue

import (
	"math"
	"time"

	"github.com/example/srscore/internal/spaced_repetition"
	"github.com/example/srscore/pkg/models"
)

const (
	maxOverdueFloor   = -7
	dependencyPerItem = 5
	dependencyCap     = 20
	reviewBonus       = 10
)

type weights struct {
	overdue, mastery, difficulty, retention, dependency float64
}

var (
	newCardWeights    = weights{overdue: 0.1, mastery: 0.25, difficulty: 0.15, retention: 0.15, dependency: 0.05}
	reviewCardWeights = weights{overdue: 0.4, mastery: 0.25, difficulty: 0.15, retention: 0.15, dependency: 0.05}
)

func difficultyWeight(d models.Difficulty) float64 {
	switch d {
	case models.DifficultyBeginner:
		return 10
	case models.DifficultyAdvanced:
		return 30
	default:
		return 20
	}
}

func difficultyMultiplier(d models.Difficulty) float64 {
	switch d {
	case models.DifficultyBeginner:
		return 0.8
	case models.DifficultyAdvanced:
		return 1.3
	default:
		return 1.0
	}
}

func masteryTimeMultiplier(level models.MasteryLevel) float64 {
	switch level {
	case models.MasteryLearning:
		return 1.5
	case models.MasteryYoung:
		return 1.2
	case models.MasteryMature:
		return 1.0
	case models.MasteryMaster:
		return 0.8
	default:
		return 0
	}
}

func reviewType(c models.Card) models.ReviewType {
	switch {
	case c.IsNew():
		return models.ReviewTypeNew
	case c.LastQuality < spaced_repetition.PassThreshold:
		return models.ReviewTypeRelearn
	default:
		return models.ReviewTypeReview
	}
}

// dependents counts, per concept, how many other concepts list it as a prerequisite
func dependents(cards []models.Card) map[string]int {
	seen := make(map[[2]string]bool)
	out := make(map[string]int)
	for _, c := range cards {
		for _, pre := range c.Prerequisites {
			edge := [2]string{pre, c.ConceptID}
			if pre == c.ConceptID || seen[edge] {
				continue
			}
			seen[edge] = true
			out[pre]++
		}
	}
	return out
}

func urgencyFactors(c models.Card, downstream int, now time.Time) models.UrgencyFactors {
	return models.UrgencyFactors{
		Overdue:    math.Max(maxOverdueFloor, spaced_repetition.DaysOverdue(c, now)),
		Mastery:    spaced_repetition.MasteryWeight(c.MasteryLevel),
		Difficulty: difficultyWeight(c.Content.Difficulty),
		Retention:  (1 - clamp(c.Stats.LastAccuracy, 0, 1)) * 40,
		Dependency: math.Min(dependencyCap, float64(downstream*dependencyPerItem)),
	}
}

func priority(f models.UrgencyFactors, rt models.ReviewType) float64 {
	w := reviewCardWeights
	if rt == models.ReviewTypeNew {
		w = newCardWeights
	}
	p := f.Overdue*w.overdue +
		f.Mastery*w.mastery +
		f.Difficulty*w.difficulty +
		f.Retention*w.retention +
		f.Dependency*w.dependency
	if rt != models.ReviewTypeNew {
		p += reviewBonus
	}
	return clamp(p, 0, 100)
}

func (m *Manager) estimateSeconds(c models.Card) float64 {
	base := float64(c.Content.EstimatedSeconds)
	if base <= 0 {
		base = m.cfg.DefaultCardSeconds
	}
	adj := 1.0
	if c.Stats.AverageResponseMs > 0 {
		adj = clamp(c.Stats.AverageResponseMs/1000/base, 0.5, 2.0)
	}
	return base * masteryTimeMultiplier(c.MasteryLevel) * difficultyMultiplier(c.Content.Difficulty) * adj
}

func (m *Manager) queued(c models.Card, downstream int, now time.Time) models.QueuedCard {
	rt := reviewType(c)
	f := urgencyFactors(c, downstream, now)
	return models.QueuedCard{
		Card:             c,
		Priority:         priority(f, rt),
		Urgency:          f,
		EstimatedSeconds: m.estimateSeconds(c),
		ReviewType:       rt,
	}
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
