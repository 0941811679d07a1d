package forgetting

import "github.com/example/srscore/pkg/models"

// AnalyzeForgettingPatterns summarises every curve of a user. Without curves it
// returns a fixed default analysis.
func (s *Store) AnalyzeForgettingPatterns(userID string) models.ForgettingAnalysis {
	keys := s.sortedKeys(userID)
	if len(keys) == 0 {
		return models.ForgettingAnalysis{
			UserID:              userID,
			ModelAccuracy:       minConfidence,
			AverageOptimalHours: 24,
			AverageDecayRate:    s.cfg.DefaultDecayRate,
			Recommendations: []string{
				"Not enough review history yet; keep reviewing to build a forgetting profile",
			},
		}
	}

	var conf, decay, optimal float64
	for _, key := range keys {
		c := s.curves[key]
		conf += c.Confidence
		decay += c.DecayRate
		optimal += searchTime(c, s.cfg.DefaultTargetRetention)
	}
	n := float64(len(keys))

	a := models.ForgettingAnalysis{
		UserID:              userID,
		ConceptCount:        len(keys),
		ModelAccuracy:       conf / n,
		AverageOptimalHours: optimal / n,
		AverageDecayRate:    decay / n,
	}
	a.FastForgetter = a.AverageDecayRate > s.cfg.FastForgetterDecay
	a.Recommendations = recommendations(a)
	return a
}

func recommendations(a models.ForgettingAnalysis) []string {
	var recs []string
	if a.FastForgetter {
		recs = append(recs, "Use shorter review intervals; retention drops quickly between reviews")
	} else if a.AverageDecayRate < 0.05 {
		recs = append(recs, "Intervals can be lengthened; retention holds well between reviews")
	}
	if a.ModelAccuracy < 0.5 {
		recs = append(recs, "Predictions are still uncertain; review consistently to sharpen timing estimates")
	}
	switch {
	case a.AverageOptimalHours < 24:
		recs = append(recs, "Revisit new material again within the same day")
	case a.AverageOptimalHours > 168:
		recs = append(recs, "Weekly reviews are enough for most concepts")
	}
	if len(recs) == 0 {
		recs = append(recs, "Current review timing matches the retention profile")
	}
	return recs
}
