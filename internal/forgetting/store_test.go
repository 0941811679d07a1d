package forgetting

import (
	"math"
	"testing"
	"time"

	"github.com/example/srscore/pkg/models"
)

var t0 = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

func obs(hours, retention float64, at time.Time) models.DataPoint {
	return models.DataPoint{
		TimeElapsedHours: hours,
		Retention:        retention,
		WasCorrect:       retention >= 0.6,
		ResponseTimeMs:   4000,
		Confidence:       0.8,
		RecordedAt:       at,
	}
}

func feedExponential(s *Store, user, concept string, alpha float64, n int) {
	for i := 1; i <= n; i++ {
		t := float64(i)
		s.UpdateCurve(user, concept, obs(t, math.Exp(-alpha*t), t0.Add(time.Duration(i)*time.Hour)))
	}
}

func TestFirstObservationInitialisesDefaults(t *testing.T) {
	s := NewStore(DefaultConfig())
	c := s.UpdateCurve("u1", "c1", obs(5, 0.8, t0))

	if c.Model != models.CurveExponential {
		t.Errorf("Model = %s, want exponential", c.Model)
	}
	if c.InitialRetention != 1.0 || c.DecayRate != 0.1 || c.Confidence != 0.1 {
		t.Errorf("defaults = %+v", c)
	}
	if len(c.DataPoints) != 1 || !c.LastUpdated.Equal(t0) {
		t.Errorf("points=%d lastUpdated=%v", len(c.DataPoints), c.LastUpdated)
	}
}

func TestConfidenceFloorWithTwoObservations(t *testing.T) {
	s := NewStore(DefaultConfig())
	s.UpdateCurve("u1", "c1", obs(1, 0.9, t0))
	s.UpdateCurve("u1", "c1", obs(2, 0.8, t0))

	p := s.PredictRetention("u1", "c1", 10)
	if p.Confidence != 0.1 {
		t.Errorf("Confidence = %v, want 0.1", p.Confidence)
	}
	if p.Retention != 0.5 {
		t.Errorf("Retention = %v, want neutral 0.5", p.Retention)
	}
}

func TestPredictRetentionUnknownPair(t *testing.T) {
	s := NewStore(DefaultConfig())
	p := s.PredictRetention("nobody", "nothing", 3)
	if p.Retention != 0.5 || p.Confidence != 0.1 {
		t.Errorf("got %+v", p)
	}
}

func TestExponentialFitRecoversParameters(t *testing.T) {
	s := NewStore(DefaultConfig())
	feedExponential(s, "u1", "c1", 0.1, 10)

	c, ok := s.Curve("u1", "c1")
	if !ok {
		t.Fatal("curve missing")
	}
	if math.Abs(c.DecayRate-0.1) > 1e-6 || math.Abs(c.InitialRetention-1) > 1e-6 {
		t.Errorf("fit = R0 %v, decay %v", c.InitialRetention, c.DecayRate)
	}
	if c.Confidence < 0.99 {
		t.Errorf("Confidence = %v, want ~1", c.Confidence)
	}
	if math.Abs(c.StabilityFactor-10) > 1e-4 {
		t.Errorf("StabilityFactor = %v, want 10", c.StabilityFactor)
	}

	p := s.PredictRetention("u1", "c1", 5)
	if math.Abs(p.Retention-math.Exp(-0.5)) > 1e-6 {
		t.Errorf("Retention(5h) = %v", p.Retention)
	}
}

func TestOptimalTimeConvergence(t *testing.T) {
	s := NewStore(DefaultConfig())
	feedExponential(s, "u1", "c1", 0.1, 12)

	got := s.FindOptimalReviewTime("u1", "c1", 0.9)
	want := -math.Log(0.9) / 0.1
	if math.Abs(got.TimeHours-want)/want > 0.1 {
		t.Errorf("TimeHours = %v, want within 10%% of %v", got.TimeHours, want)
	}
	if got.Confidence < 0.99 {
		t.Errorf("Confidence = %v", got.Confidence)
	}
}

func TestOptimalTimeWithoutCurveUsesDefaults(t *testing.T) {
	s := NewStore(DefaultConfig())
	got := s.FindOptimalReviewTime("u1", "c1", 0)
	want := -math.Log(0.9) / 0.1
	if math.Abs(got.TimeHours-want) > 0.05 {
		t.Errorf("TimeHours = %v, want ~%v", got.TimeHours, want)
	}
	if got.Confidence != 0.1 {
		t.Errorf("Confidence = %v, want 0.1", got.Confidence)
	}
}

func TestBufferIsCapped(t *testing.T) {
	s := NewStore(DefaultConfig())
	for i := 0; i < 130; i++ {
		s.UpdateCurve("u1", "c1", obs(float64(i%24), 0.7, t0))
	}
	c, _ := s.Curve("u1", "c1")
	if len(c.DataPoints) != 100 {
		t.Errorf("points = %d, want 100", len(c.DataPoints))
	}
}

func TestObservationsAreSanitised(t *testing.T) {
	s := NewStore(DefaultConfig())
	for i := 0; i < 4; i++ {
		s.UpdateCurve("u1", "c1", obs(-5, 1.7, t0))
	}
	c, _ := s.Curve("u1", "c1")
	for _, p := range c.DataPoints {
		if p.TimeElapsedHours != 0 || p.Retention != 1 {
			t.Fatalf("unsanitised point %+v", p)
		}
	}
	for _, v := range []float64{c.InitialRetention, c.DecayRate, c.Confidence} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("non-finite curve parameter in %+v", c)
		}
	}
}

func TestFittedParametersAreClamped(t *testing.T) {
	s := NewStore(DefaultConfig())
	// retention collapses almost instantly, steeper than the exponential bound
	for i := 1; i <= 6; i++ {
		s.UpdateCurve("u1", "c1", obs(float64(i), 0.01, t0))
	}
	c, _ := s.Curve("u1", "c1")
	if c.InitialRetention < 0.5 || c.InitialRetention > 1 {
		t.Errorf("InitialRetention %v outside [0.5, 1]", c.InitialRetention)
	}
	if c.DecayRate < 0.01 || c.DecayRate > 0.5 {
		t.Errorf("DecayRate %v outside [0.01, 0.5]", c.DecayRate)
	}
	if c.Confidence < 0.1 || c.Confidence > 1 {
		t.Errorf("Confidence %v outside [0.1, 1]", c.Confidence)
	}
}

func TestOptimizeModelPicksBestFamily(t *testing.T) {
	s := NewStore(DefaultConfig())
	// logarithmic ground truth: R = 0.95 - 0.1 ln(t+1)
	for i := 1; i <= 20; i++ {
		tm := float64(i * 3)
		s.UpdateCurve("u1", "c1", obs(tm, 0.95-0.1*math.Log(tm+1), t0))
	}
	before, _ := s.Curve("u1", "c1")

	after, ok := s.OptimizeModel("u1", "c1")
	if !ok {
		t.Fatal("OptimizeModel reported missing curve")
	}
	if after.Model != models.CurveLogarithmic {
		t.Errorf("Model = %s, want logarithmic", after.Model)
	}
	if after.Confidence < before.Confidence {
		t.Errorf("confidence dropped from %v to %v", before.Confidence, after.Confidence)
	}

	if _, ok := s.OptimizeModel("u1", "missing"); ok {
		t.Error("OptimizeModel on missing curve should report false")
	}
}

func TestPowerFamilyGuardsZeroTime(t *testing.T) {
	c := &models.ForgettingCurve{Model: models.CurvePower, InitialRetention: 0.9, DecayRate: 0.5}
	for _, tm := range []float64{-3, 0, 0.05} {
		v := predict(c, tm)
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 || v > 1 {
			t.Errorf("predict(%v) = %v", tm, v)
		}
	}
}

func TestCleanupRemovesStaleSparseCurves(t *testing.T) {
	s := NewStore(DefaultConfig())
	old := t0.AddDate(0, 0, -45)
	s.UpdateCurve("u1", "stale", obs(1, 0.9, old))
	for i := 0; i < 6; i++ {
		s.UpdateCurve("u1", "stale-rich", obs(float64(i+1), 0.9, old))
	}
	s.UpdateCurve("u1", "fresh", obs(1, 0.9, t0))

	removed := s.Cleanup(t0)
	if len(removed) != 1 || removed[0].ConceptID != "stale" || !removed[0].LastUpdated.Equal(old) {
		t.Errorf("removed = %+v, want the stale curve", removed)
	}
	if _, ok := s.Curve("u1", "stale"); ok {
		t.Error("stale sparse curve survived")
	}
	if s.Len() != 2 {
		t.Errorf("Len = %d, want 2", s.Len())
	}
}

func TestSnapshotRestore(t *testing.T) {
	s := NewStore(DefaultConfig())
	feedExponential(s, "u2", "b", 0.2, 5)
	feedExponential(s, "u1", "a", 0.1, 5)

	snap := s.Snapshot("")
	if len(snap) != 2 || snap[0].UserID != "u1" || snap[1].UserID != "u2" {
		t.Fatalf("snapshot order = %+v", snap)
	}
	if got := s.Snapshot("u2"); len(got) != 1 {
		t.Fatalf("user snapshot = %d curves", len(got))
	}

	other := NewStore(DefaultConfig())
	for _, c := range snap {
		other.Restore(c)
	}
	want := s.PredictRetention("u2", "b", 7)
	got := other.PredictRetention("u2", "b", 7)
	if want != got {
		t.Errorf("restored prediction %+v, want %+v", got, want)
	}
}

func TestStatistics(t *testing.T) {
	s := NewStore(DefaultConfig())
	feedExponential(s, "u1", "a", 0.1, 5)
	feedExponential(s, "u1", "b", 0.3, 5)
	s.UpdateCurve("u2", "c", obs(1, 0.9, t0))

	st := s.Statistics("u1")
	if st.TotalCurves != 2 || st.TotalDataPoints != 10 || st.ByModel[models.CurveExponential] != 2 {
		t.Errorf("stats = %+v", st)
	}
	if math.Abs(st.AverageDecayRate-0.2) > 1e-6 {
		t.Errorf("AverageDecayRate = %v", st.AverageDecayRate)
	}
	if all := s.Statistics(""); all.TotalCurves != 3 {
		t.Errorf("all curves = %d", all.TotalCurves)
	}
}

func TestAnalyzeForgettingPatterns(t *testing.T) {
	s := NewStore(DefaultConfig())

	empty := s.AnalyzeForgettingPatterns("u1")
	if empty.ConceptCount != 0 || empty.ModelAccuracy != 0.1 || empty.AverageOptimalHours != 24 || len(empty.Recommendations) == 0 {
		t.Errorf("default analysis = %+v", empty)
	}

	feedExponential(s, "u1", "a", 0.3, 8)
	feedExponential(s, "u1", "b", 0.2, 8)
	a := s.AnalyzeForgettingPatterns("u1")
	if a.ConceptCount != 2 || !a.FastForgetter {
		t.Errorf("analysis = %+v", a)
	}
	if a.ModelAccuracy < 0.99 {
		t.Errorf("ModelAccuracy = %v", a.ModelAccuracy)
	}
	if a.AverageOptimalHours <= 0 || a.AverageOptimalHours > 1 {
		t.Errorf("AverageOptimalHours = %v", a.AverageOptimalHours)
	}

	slow := NewStore(DefaultConfig())
	feedExponential(slow, "u1", "a", 0.02, 8)
	if slow.AnalyzeForgettingPatterns("u1").FastForgetter {
		t.Error("slow forgetter flagged as fast")
	}
}
