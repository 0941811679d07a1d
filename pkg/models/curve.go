package models

import "time"

// CurveModel is the functional family of a forgetting curve
type CurveModel string

const (
	CurveExponential CurveModel = "exponential"
	CurvePower       CurveModel = "power"
	CurveLogarithmic CurveModel = "logarithmic"
)

// CurveModels lists every supported family
var CurveModels = []CurveModel{CurveExponential, CurvePower, CurveLogarithmic}

// DataPoint is a single retention observation
type DataPoint struct {
	TimeElapsedHours float64   `json:"time_elapsed_hours"`
	Retention        float64   `json:"retention"`
	WasCorrect       bool      `json:"was_correct"`
	ResponseTimeMs   int       `json:"response_time_ms"`
	Confidence       float64   `json:"confidence"`
	RecordedAt       time.Time `json:"recorded_at"`
}

// ForgettingCurve models retention decay for one (user, concept) pair
type ForgettingCurve struct {
	UserID    string     `json:"user_id"`
	ConceptID string     `json:"concept_id"`
	Model     CurveModel `json:"model"`

	InitialRetention        float64 `json:"initial_retention"`
	DecayRate               float64 `json:"decay_rate"`
	StabilityFactor         float64 `json:"stability_factor"` // 1 / decay rate
	RetrievabilityThreshold float64 `json:"retrievability_threshold"`
	Confidence              float64 `json:"confidence"`

	DataPoints  []DataPoint `json:"data_points"`
	LastUpdated time.Time   `json:"last_updated"`
}

// Clone returns a deep copy of the curve
func (c ForgettingCurve) Clone() ForgettingCurve {
	if c.DataPoints != nil {
		c.DataPoints = append([]DataPoint(nil), c.DataPoints...)
	}
	return c
}
