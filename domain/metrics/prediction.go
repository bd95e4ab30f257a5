package metrics

import "leavingrate/domain/core"

// DefaultExactMatchTolerance is the deviation below which observed and
// predicted proportions are reported as matching exactly.
const DefaultExactMatchTolerance = 1e-3

// Prediction pairs an observed proportion with the model prediction
type Prediction struct {
	Observed   float64 `json:"observed"`
	Predicted  float64 `json:"predicted"`
	Deviation  float64 `json:"deviation"`
	Defined    bool    `json:"defined"`     // both proportions computable
	ExactMatch bool    `json:"exact_match"` // Deviation < tolerance
}

// NewPrediction compares observed and predicted at the given tolerance
func NewPrediction(observed, predicted, tolerance float64) Prediction {
	dev := Deviation(observed, predicted)
	defined := core.IsDefined(dev)
	return Prediction{
		Observed:   observed,
		Predicted:  predicted,
		Deviation:  dev,
		Defined:    defined,
		ExactMatch: defined && dev < tolerance,
	}
}
