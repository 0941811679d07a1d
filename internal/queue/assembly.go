package queue

import "github.com/example/srscore/pkg/models"

// assembler greedily interleaves the new and review pools toward the target
// ratio under count caps and a time budget in seconds.
type assembler struct {
	cfg        Config
	budget     float64
	newPool    []models.QueuedCard
	reviewPool []models.QueuedCard

	out         []models.QueuedCard
	used        float64
	newCount    int
	reviewCount int
	difficult   int
}

func (a *assembler) canTakeNew() bool {
	return len(a.newPool) > 0 && a.newCount < a.cfg.MaxNewCards
}

func (a *assembler) canTakeReview() bool {
	return len(a.reviewPool) > 0 && a.reviewCount < a.cfg.MaxReviewCards
}

// wantNew reports whether the next slot should hold a new card to keep the ratio
func (a *assembler) wantNew() bool {
	return float64(a.newCount+1) <= a.cfg.NewCardRatio*float64(len(a.out)+1)+1e-9
}

func (a *assembler) run() []models.QueuedCard {
	for {
		takeNew, takeReview := a.canTakeNew(), a.canTakeReview()
		if !takeNew && !takeReview {
			break
		}
		pool := &a.reviewPool
		if takeNew && (!takeReview || a.wantNew()) {
			pool = &a.newPool
		}
		card := (*pool)[0]
		if a.used+card.EstimatedSeconds > a.budget {
			break
		}
		*pool = (*pool)[1:]
		a.push(card)

		if a.cfg.Burnout.Enabled && a.cfg.Burnout.MaxConsecutiveDifficult > 0 &&
			a.difficult >= a.cfg.Burnout.MaxConsecutiveDifficult {
			a.insertEasy()
		}
	}
	return a.out
}

func (a *assembler) push(card models.QueuedCard) {
	a.out = append(a.out, card)
	a.used += card.EstimatedSeconds
	if card.ReviewType == models.ReviewTypeNew {
		a.newCount++
	} else {
		a.reviewCount++
	}
	if a.isDifficult(card) {
		a.difficult++
	} else {
		a.difficult = 0
	}
}

func (a *assembler) isDifficult(card models.QueuedCard) bool {
	return card.Priority > a.cfg.Burnout.DifficultPriority || card.Urgency.Difficulty > a.cfg.Burnout.DifficultFactor
}

// insertEasy pulls the first easy card within the look-ahead window of either
// pool. The time budget is re-checked before insertion; nothing is inserted
// when no easy card fits.
func (a *assembler) insertEasy() {
	pools := []*[]models.QueuedCard{}
	if a.canTakeNew() {
		pools = append(pools, &a.newPool)
	}
	if a.canTakeReview() {
		pools = append(pools, &a.reviewPool)
	}
	for _, pool := range pools {
		limit := min(a.cfg.Burnout.LookAhead, len(*pool))
		for i := 0; i < limit; i++ {
			card := (*pool)[i]
			if a.isDifficult(card) || a.used+card.EstimatedSeconds > a.budget {
				continue
			}
			*pool = append((*pool)[:i:i], (*pool)[i+1:]...)
			a.push(card)
			return
		}
	}
}
