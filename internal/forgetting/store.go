package forgetting

import (
	"sort"
	"time"

	"github.com/example/srscore/pkg/models"
)

const (
	searchMinHours   = 0.1
	searchMaxHours   = 8760
	searchIterations = 20
)

// Key identifies the curve of one concept for one user
type Key struct {
	UserID    string
	ConceptID string
}

// Store owns every forgetting curve. It is not safe for concurrent mutation;
// callers that share a Store across goroutines must serialise access.
type Store struct {
	cfg    Config
	curves map[Key]*models.ForgettingCurve
}

// NewStore creates an empty curve store
func NewStore(cfg Config) *Store {
	return &Store{
		cfg:    cfg.withDefaults(),
		curves: make(map[Key]*models.ForgettingCurve),
	}
}

// Config returns the effective settings
func (s *Store) Config() Config {
	return s.cfg
}

// Len returns the number of curves held
func (s *Store) Len() int {
	return len(s.curves)
}

func (s *Store) newCurve(userID, conceptID string) *models.ForgettingCurve {
	return &models.ForgettingCurve{
		UserID:                  userID,
		ConceptID:               conceptID,
		Model:                   models.CurveExponential,
		InitialRetention:        1.0,
		DecayRate:               s.cfg.DefaultDecayRate,
		StabilityFactor:         1 / s.cfg.DefaultDecayRate,
		RetrievabilityThreshold: s.cfg.DefaultTargetRetention,
		Confidence:              minConfidence,
	}
}

// UpdateCurve records an observation and refits the curve over the most recent window
func (s *Store) UpdateCurve(userID, conceptID string, obs models.DataPoint) models.ForgettingCurve {
	key := Key{UserID: userID, ConceptID: conceptID}
	c, ok := s.curves[key]
	if !ok {
		c = s.newCurve(userID, conceptID)
		s.curves[key] = c
	}

	if obs.RecordedAt.IsZero() {
		obs.RecordedAt = time.Now()
	}
	obs.TimeElapsedHours = maxFloat(0, obs.TimeElapsedHours)
	obs.Retention = clamp(obs.Retention, 0, 1)

	c.DataPoints = append(c.DataPoints, obs)
	if over := len(c.DataPoints) - s.cfg.BufferSize; over > 0 {
		c.DataPoints = append([]models.DataPoint(nil), c.DataPoints[over:]...)
	}
	c.LastUpdated = obs.RecordedAt

	s.refit(c, c.Model)
	return c.Clone()
}

func (s *Store) window(c *models.ForgettingCurve) []models.DataPoint {
	pts := c.DataPoints
	if len(pts) > s.cfg.FitWindow {
		pts = pts[len(pts)-s.cfg.FitWindow:]
	}
	return pts
}

func (s *Store) refit(c *models.ForgettingCurve, m models.CurveModel) {
	if len(c.DataPoints) < s.cfg.MinPointsForFit {
		c.Confidence = minConfidence
		return
	}
	r := fit(m, s.window(c))
	c.Model = m
	c.InitialRetention = r.initialRetention
	c.DecayRate = r.decayRate
	c.StabilityFactor = 1 / r.decayRate
	c.Confidence = r.confidence
}

// Curve returns a copy of the curve for the pair
func (s *Store) Curve(userID, conceptID string) (models.ForgettingCurve, bool) {
	c, ok := s.curves[Key{UserID: userID, ConceptID: conceptID}]
	if !ok {
		return models.ForgettingCurve{}, false
	}
	return c.Clone(), true
}

// PredictRetention estimates retention after timeElapsedHours. With too little
// data it returns a neutral 0.5 at minimum confidence.
func (s *Store) PredictRetention(userID, conceptID string, timeElapsedHours float64) models.RetentionPrediction {
	c, ok := s.curves[Key{UserID: userID, ConceptID: conceptID}]
	if !ok || len(c.DataPoints) < s.cfg.MinPointsForFit {
		return models.RetentionPrediction{Retention: 0.5, Confidence: minConfidence}
	}
	return models.RetentionPrediction{
		Retention:  predict(c, timeElapsedHours),
		Confidence: c.Confidence,
	}
}

// FindOptimalReviewTime searches for the delay at which predicted retention
// falls to targetRetention. A target outside (0, 1) uses the configured default.
func (s *Store) FindOptimalReviewTime(userID, conceptID string, targetRetention float64) models.OptimalReviewTime {
	if targetRetention <= 0 || targetRetention >= 1 {
		targetRetention = s.cfg.DefaultTargetRetention
	}
	c, ok := s.curves[Key{UserID: userID, ConceptID: conceptID}]
	if !ok {
		c = s.newCurve(userID, conceptID)
	}
	confidence := c.Confidence
	if len(c.DataPoints) < s.cfg.MinPointsForFit {
		confidence = minConfidence
	}
	return models.OptimalReviewTime{
		TimeHours:  searchTime(c, targetRetention),
		Confidence: confidence,
	}
}

// searchTime bisects [0.1h, 1y] relying on every family being non-increasing in t
func searchTime(c *models.ForgettingCurve, target float64) float64 {
	lo, hi := searchMinHours, float64(searchMaxHours)
	if predict(c, lo) <= target {
		return lo
	}
	if predict(c, hi) >= target {
		return hi
	}
	for i := 0; i < searchIterations; i++ {
		mid := (lo + hi) / 2
		if predict(c, mid) > target {
			lo = mid
		} else {
			hi = mid
		}
	}
	return (lo + hi) / 2
}

// OptimizeModel refits the pair under every model family and keeps the one
// with the best confidence. It reports false when there is no curve.
func (s *Store) OptimizeModel(userID, conceptID string) (models.ForgettingCurve, bool) {
	c, ok := s.curves[Key{UserID: userID, ConceptID: conceptID}]
	if !ok {
		return models.ForgettingCurve{}, false
	}
	if len(c.DataPoints) < s.cfg.MinPointsForFit {
		return c.Clone(), true
	}

	pts := s.window(c)
	best := c.Model
	bestConf := fit(best, pts).confidence
	for _, m := range models.CurveModels {
		if m == best {
			continue
		}
		if conf := fit(m, pts).confidence; conf > bestConf {
			best, bestConf = m, conf
		}
	}
	s.refit(c, best)
	return c.Clone(), true
}

// Cleanup drops curves that have not been updated within the stale window and
// hold fewer than the minimum points. It returns the removed curves ordered by
// user then concept, so persisted copies can be deleted by key.
func (s *Store) Cleanup(now time.Time) []models.ForgettingCurve {
	cutoff := now.Add(-s.cfg.StaleAfter)
	var removed []models.ForgettingCurve
	for _, key := range s.sortedKeys("") {
		c := s.curves[key]
		if c.LastUpdated.Before(cutoff) && len(c.DataPoints) < s.cfg.MinPointsToKeep {
			removed = append(removed, c.Clone())
			delete(s.curves, key)
		}
	}
	return removed
}

// Snapshot returns copies of the curves of userID, or of every user when
// userID is empty, ordered by user then concept.
func (s *Store) Snapshot(userID string) []models.ForgettingCurve {
	out := make([]models.ForgettingCurve, 0, len(s.curves))
	for _, key := range s.sortedKeys(userID) {
		out = append(out, s.curves[key].Clone())
	}
	return out
}

// Restore loads a previously snapshotted curve, replacing any existing one
func (s *Store) Restore(curve models.ForgettingCurve) {
	c := curve.Clone()
	if c.Model == "" {
		c.Model = models.CurveExponential
	}
	if len(c.DataPoints) > s.cfg.BufferSize {
		c.DataPoints = c.DataPoints[len(c.DataPoints)-s.cfg.BufferSize:]
	}
	if c.DecayRate <= 0 {
		c.DecayRate = s.cfg.DefaultDecayRate
	}
	if c.InitialRetention <= 0 {
		c.InitialRetention = 1.0
	}
	if c.RetrievabilityThreshold <= 0 {
		c.RetrievabilityThreshold = s.cfg.DefaultTargetRetention
	}
	c.StabilityFactor = 1 / c.DecayRate
	s.curves[Key{UserID: c.UserID, ConceptID: c.ConceptID}] = &c
}

// Statistics aggregates the curves of userID, or all curves when empty
func (s *Store) Statistics(userID string) models.CurveStatistics {
	stats := models.CurveStatistics{ByModel: make(map[models.CurveModel]int)}
	for _, key := range s.sortedKeys(userID) {
		c := s.curves[key]
		stats.TotalCurves++
		stats.TotalDataPoints += len(c.DataPoints)
		stats.AverageConfidence += c.Confidence
		stats.AverageDecayRate += c.DecayRate
		stats.ByModel[c.Model]++
	}
	if stats.TotalCurves > 0 {
		stats.AverageConfidence /= float64(stats.TotalCurves)
		stats.AverageDecayRate /= float64(stats.TotalCurves)
	}
	return stats
}

func (s *Store) sortedKeys(userID string) []Key {
	keys := make([]Key, 0, len(s.curves))
	for k := range s.curves {
		if userID == "" || k.UserID == userID {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].UserID != keys[j].UserID {
			return keys[i].UserID < keys[j].UserID
		}
		return keys[i].ConceptID < keys[j].ConceptID
	})
	return keys
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
