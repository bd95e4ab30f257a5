package metrics

import (
	"math"

	"leavingrate/domain/core"
)

// MeanRunLength is d = N / runs, Undefined when there are no runs
func MeanRunLength(choices, runs int) float64 {
	if runs <= 0 {
		return core.Undefined()
	}
	return float64(choices) / float64(runs)
}

// LeavingRate is lambda = 1 / d, Undefined when d is undefined or not positive
func LeavingRate(meanRunLength float64) float64 {
	if !core.IsDefined(meanRunLength) || meanRunLength <= 0 {
		return core.Undefined()
	}
	return 1.0 / meanRunLength
}

// PredictedProportion is the leaving-rate matching prediction for side A:
// lambda_B / (lambda_A + lambda_B).
func PredictedProportion(lambdaA, lambdaB float64) float64 {
	if !core.IsDefined(lambdaA) || !core.IsDefined(lambdaB) {
		return core.Undefined()
	}
	sum := lambdaA + lambdaB
	if sum <= 0 {
		return core.Undefined()
	}
	return lambdaB / sum
}

// Deviation is |observed - predicted|, Undefined if either is undefined
func Deviation(observed, predicted float64) float64 {
	if !core.IsDefined(observed) || !core.IsDefined(predicted) {
		return core.Undefined()
	}
	return math.Abs(observed - predicted)
}
