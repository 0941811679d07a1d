package engine

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/example/srscore/pkg/models"
)

const defaultPriority = 50

// CreateCard builds a card in its initial scheduling state, due immediately
func (e *Engine) CreateCard(userID, conceptID string, content models.Content, prerequisites []string) (models.Card, error) {
	userID, conceptID = strings.TrimSpace(userID), strings.TrimSpace(conceptID)
	switch {
	case userID == "":
		return models.Card{}, fmt.Errorf("%w: user id is required", ErrInvalidCard)
	case conceptID == "":
		return models.Card{}, fmt.Errorf("%w: concept id is required", ErrInvalidCard)
	case strings.TrimSpace(content.Question) == "":
		return models.Card{}, fmt.Errorf("%w: question is required", ErrInvalidCard)
	}
	if content.EstimatedSeconds < 0 {
		content.EstimatedSeconds = 0
	}

	prereqs := normalizePrerequisites(conceptID, prerequisites)

	now := e.now()
	card := models.Card{
		ID:            uuid.New().String(),
		ConceptID:     conceptID,
		UserID:        userID,
		Content:       content,
		MasteryLevel:  models.MasteryLearning,
		Interval:      1,
		EaseFactor:    e.cfg.Scheduling.MaximumEaseFactor,
		Repetitions:   0,
		NextReview:    now,
		PriorityScore: defaultPriority,
		Algorithm:     models.AlgorithmSM2,
		Stats:         models.CardStats{Trend: models.TrendStable},
		Prerequisites: prereqs,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	e.logger.Debug("card created",
		zap.String("card", card.ID),
		zap.String("user", userID),
		zap.String("concept", conceptID))
	return card, nil
}

// UpdateCardContent replaces the content and prerequisites of an existing card,
// leaving its scheduling state alone.
func (e *Engine) UpdateCardContent(card models.Card, content models.Content, prerequisites []string) (models.Card, error) {
	if strings.TrimSpace(content.Question) == "" {
		return card, fmt.Errorf("%w: question is required", ErrInvalidCard)
	}
	if content.EstimatedSeconds < 0 {
		content.EstimatedSeconds = 0
	}
	c := card.Clone()
	c.Content = content
	c.Prerequisites = normalizePrerequisites(c.ConceptID, prerequisites)
	c.UpdatedAt = e.now()
	return c, nil
}

// normalizePrerequisites drops blanks, duplicates and self-references
func normalizePrerequisites(conceptID string, prerequisites []string) []string {
	return lo.Uniq(lo.Filter(prerequisites, func(p string, _ int) bool {
		return p != "" && p != conceptID
	}))
}

// SuspendCard takes a card out of rotation
func (e *Engine) SuspendCard(card models.Card) models.Card {
	e.logger.Info("card suspended", zap.String("card", card.ID))
	return e.sm2.Suspend(card, e.now())
}

// ReactivateCard returns a suspended card to rotation; other cards are returned unchanged
func (e *Engine) ReactivateCard(card models.Card) models.Card {
	if card.MasteryLevel != models.MasterySuspended {
		return card
	}
	e.logger.Info("card reactivated", zap.String("card", card.ID))
	return e.sm2.Reactivate(card, e.now())
}

// RefreshPriorities recomputes the stored priority score of every card
func (e *Engine) RefreshPriorities(cards []models.Card) []models.Card {
	now := e.now()
	return lo.Map(cards, func(c models.Card, _ int) models.Card {
		c = c.Clone()
		c.PriorityScore = e.sm2.CalculatePriority(c, now)
		return c
	})
}
