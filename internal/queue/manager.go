package queue

import (
	"math"
	"sort"
	"time"

	"github.com/samber/lo"

	"github.com/example/srscore/pkg/models"
)

// Manager builds balanced, time-budgeted review sessions
type Manager struct {
	cfg Config
	// Now is the clock used for due checks; defaults to time.Now
	Now func() time.Time
}

// NewManager creates a queue manager
func NewManager(cfg Config) *Manager {
	return &Manager{cfg: cfg, Now: time.Now}
}

// Config returns the manager settings
func (m *Manager) Config() Config {
	return m.cfg
}

// GenerateReviewQueue scores the user's cards and assembles an ordered session.
// targetSessionMinutes <= 0 uses the configured session length. The result is
// deterministic for identical input.
func (m *Manager) GenerateReviewQueue(userID string, availableCards []models.Card, queueType models.QueueType, targetSessionMinutes int) models.ReviewQueue {
	now := m.Now()
	if targetSessionMinutes <= 0 {
		targetSessionMinutes = m.cfg.SessionMinutes
	}
	if queueType == "" {
		queueType = models.QueueDaily
	}

	userCards := lo.Filter(availableCards, func(c models.Card, _ int) bool {
		return c.UserID == userID
	})
	downstream := dependents(userCards)

	var newPool, reviewPool []models.QueuedCard
	for _, c := range userCards {
		if c.MasteryLevel == models.MasterySuspended {
			continue
		}
		isNew := c.IsNew()
		isDue := !isNew && !c.NextReview.After(now)
		switch {
		case isNew && includesNew(queueType):
			newPool = append(newPool, m.queued(c, downstream[c.ConceptID], now))
		case isDue && includesDue(queueType, c):
			reviewPool = append(reviewPool, m.queued(c, downstream[c.ConceptID], now))
		}
	}

	m.presort(newPool)
	m.presort(reviewPool)

	a := &assembler{
		cfg:        m.cfg,
		budget:     float64(targetSessionMinutes) * 60,
		newPool:    newPool,
		reviewPool: reviewPool,
	}
	cards := a.run()

	if m.cfg.EnforcePrerequisites {
		cards = filterPrerequisites(cards, masteredConcepts(userCards, m.cfg.PrerequisiteWeight))
	}

	stats := statistics(cards)
	return models.ReviewQueue{
		Cards: cards,
		Metadata: models.QueueMetadata{
			UserID:               userID,
			QueueType:            queueType,
			TargetSessionMinutes: targetSessionMinutes,
			MaxNewCards:          m.cfg.MaxNewCards,
			MaxReviewCards:       m.cfg.MaxReviewCards,
			BalanceRatio:         m.cfg.NewCardRatio,
			EstimatedMinutes:     int(math.Ceil(stats.TotalSeconds / 60)),
			GeneratedAt:          now,
		},
		Statistics: stats,
	}
}

func includesNew(qt models.QueueType) bool {
	return qt == models.QueueDaily || qt == models.QueueNew
}

func includesDue(qt models.QueueType, c models.Card) bool {
	switch qt {
	case models.QueueDaily, models.QueueReview:
		return true
	case models.QueueWeak:
		return c.MasteryLevel == models.MasteryLearning || c.Stats.LastAccuracy < 0.6
	default:
		return false
	}
}

// presort orders a pool by priority and then, unless mixed, by difficulty.
// Both sorts are stable so ties keep input order.
func (m *Manager) presort(pool []models.QueuedCard) {
	sort.SliceStable(pool, func(i, j int) bool {
		return pool[i].Priority > pool[j].Priority
	})
	switch m.cfg.DifficultyPreference {
	case models.PreferEasyFirst:
		sort.SliceStable(pool, func(i, j int) bool {
			return pool[i].Urgency.Difficulty < pool[j].Urgency.Difficulty
		})
	case models.PreferHardFirst:
		sort.SliceStable(pool, func(i, j int) bool {
			return pool[i].Urgency.Difficulty > pool[j].Urgency.Difficulty
		})
	}
}

// masteredConcepts reports, per concept, whether enough of its cards are mature or better
func masteredConcepts(cards []models.Card, weight float64) map[string]bool {
	total := lo.CountValuesBy(cards, func(c models.Card) string { return c.ConceptID })
	strong := lo.CountValuesBy(lo.Filter(cards, func(c models.Card, _ int) bool {
		return c.MasteryLevel == models.MasteryMature || c.MasteryLevel == models.MasteryMaster
	}), func(c models.Card) string { return c.ConceptID })

	out := make(map[string]bool, len(total))
	for concept, n := range total {
		out[concept] = float64(strong[concept]) >= weight*float64(n)
	}
	return out
}

// filterPrerequisites drops cards with an unmastered prerequisite. Concepts
// absent from the pool cannot be judged and do not gate.
func filterPrerequisites(cards []models.QueuedCard, mastered map[string]bool) []models.QueuedCard {
	return lo.Filter(cards, func(q models.QueuedCard, _ int) bool {
		for _, pre := range q.Card.Prerequisites {
			if ok, known := mastered[pre]; known && !ok {
				return false
			}
		}
		return true
	})
}

func statistics(cards []models.QueuedCard) models.QueueStatistics {
	byType := lo.CountValuesBy(cards, func(q models.QueuedCard) models.ReviewType { return q.ReviewType })
	byDifficulty := lo.CountValuesBy(cards, func(q models.QueuedCard) models.Difficulty {
		if q.Card.Content.Difficulty == "" {
			return models.DifficultyIntermediate
		}
		return q.Card.Content.Difficulty
	})

	stats := models.QueueStatistics{
		TotalCards:   len(cards),
		NewCards:     byType[models.ReviewTypeNew],
		ReviewCards:  byType[models.ReviewTypeReview],
		RelearnCards: byType[models.ReviewTypeRelearn],
		ByDifficulty: byDifficulty,
		OverdueCards: lo.CountBy(cards, func(q models.QueuedCard) bool { return q.Urgency.Overdue > 0 }),
		TotalSeconds: lo.SumBy(cards, func(q models.QueuedCard) float64 { return q.EstimatedSeconds }),
	}
	if len(cards) > 0 {
		stats.AveragePriority = lo.SumBy(cards, func(q models.QueuedCard) float64 { return q.Priority }) / float64(len(cards))
	}
	return stats
}
