package forgetting

import (
	"math"

	"github.com/example/srscore/pkg/models"
)

const (
	minRetentionForLog = 0.01
	minPowerTime       = 0.1
	minConfidence      = 0.1
)

// family is one forgetting-curve model: how observations are linearised for
// least squares and how a fitted curve predicts retention.
type family interface {
	linearize(p models.DataPoint) (x, y float64)
	params(intercept, slope float64) (r0, alpha float64)
	predict(r0, alpha, t float64) float64
	decayBounds() (lo, hi float64)
}

func familyFor(m models.CurveModel) family {
	switch m {
	case models.CurvePower:
		return powerFamily{}
	case models.CurveLogarithmic:
		return logarithmicFamily{}
	default:
		return exponentialFamily{}
	}
}

// R(t) = R0 * e^(-a t), fitted as ln R against t
type exponentialFamily struct{}

func (exponentialFamily) linearize(p models.DataPoint) (float64, float64) {
	return math.Max(0, p.TimeElapsedHours), math.Log(math.Max(minRetentionForLog, p.Retention))
}

func (exponentialFamily) params(intercept, slope float64) (float64, float64) {
	return math.Exp(intercept), -slope
}

func (exponentialFamily) predict(r0, alpha, t float64) float64 {
	return r0 * math.Exp(-alpha*math.Max(0, t))
}

func (exponentialFamily) decayBounds() (float64, float64) { return 0.01, 0.5 }

// R(t) = R0 * t^(-a), fitted as ln R against ln t
type powerFamily struct{}

func (powerFamily) linearize(p models.DataPoint) (float64, float64) {
	return math.Log(math.Max(minPowerTime, p.TimeElapsedHours)), math.Log(math.Max(minRetentionForLog, p.Retention))
}

func (powerFamily) params(intercept, slope float64) (float64, float64) {
	return math.Exp(intercept), -slope
}

func (powerFamily) predict(r0, alpha, t float64) float64 {
	return r0 * math.Pow(math.Max(minPowerTime, t), -alpha)
}

func (powerFamily) decayBounds() (float64, float64) { return 0.1, 2.0 }

// R(t) = R0 - a ln(t+1), fitted as R against ln(t+1)
type logarithmicFamily struct{}

func (logarithmicFamily) linearize(p models.DataPoint) (float64, float64) {
	return math.Log(math.Max(0, p.TimeElapsedHours) + 1), p.Retention
}

func (logarithmicFamily) params(intercept, slope float64) (float64, float64) {
	return intercept, -slope
}

func (logarithmicFamily) predict(r0, alpha, t float64) float64 {
	return r0 - alpha*math.Log(math.Max(0, t)+1)
}

func (logarithmicFamily) decayBounds() (float64, float64) { return 0.01, 0.5 }

type fitResult struct {
	initialRetention float64
	decayRate        float64
	confidence       float64
}

// fit runs ordinary least squares on the linearised points and scores the
// clamped curve by R² against the observed retention.
func fit(m models.CurveModel, points []models.DataPoint) fitResult {
	f := familyFor(m)
	n := float64(len(points))

	var sx, sy, sxx, sxy float64
	for _, p := range points {
		x, y := f.linearize(p)
		sx += x
		sy += y
		sxx += x * x
		sxy += x * y
	}

	slope := 0.0
	if denom := n*sxx - sx*sx; math.Abs(denom) > 1e-12 {
		slope = (n*sxy - sx*sy) / denom
	}
	intercept := (sy - slope*sx) / n

	r0, alpha := f.params(intercept, slope)
	lo, hi := f.decayBounds()
	r0 = clamp(r0, 0.5, 1.0)
	alpha = clamp(alpha, lo, hi)

	return fitResult{
		initialRetention: r0,
		decayRate:        alpha,
		confidence:       goodnessOfFit(f, r0, alpha, points),
	}
}

func goodnessOfFit(f family, r0, alpha float64, points []models.DataPoint) float64 {
	var mean float64
	for _, p := range points {
		mean += p.Retention
	}
	mean /= float64(len(points))

	var ssRes, ssTot float64
	for _, p := range points {
		pred := clamp(f.predict(r0, alpha, p.TimeElapsedHours), 0, 1)
		ssRes += (p.Retention - pred) * (p.Retention - pred)
		ssTot += (p.Retention - mean) * (p.Retention - mean)
	}

	var r2 float64
	if ssTot < 1e-12 {
		// flat observations: score by root mean squared error instead
		r2 = 1 - math.Sqrt(ssRes/float64(len(points)))
	} else {
		r2 = 1 - ssRes/ssTot
	}
	return clamp(r2, minConfidence, 1)
}

// predict evaluates a curve at t hours, clamped to [0, 1]
func predict(c *models.ForgettingCurve, t float64) float64 {
	return clamp(familyFor(c.Model).predict(c.InitialRetention, c.DecayRate, t), 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
