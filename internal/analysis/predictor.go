package analysis

import (
	"leavingrate/domain/core"
	"leavingrate/domain/metrics"
)

// PredictProportion is the matching prediction for side A:
// lambda_B / (lambda_A + lambda_B), NaN unless both rates are defined.
func PredictProportion(lambdaA, lambdaB float64) float64 {
	return metrics.PredictedProportion(lambdaA, lambdaB)
}

// PredictProportionB is lambda_A / (lambda_A + lambda_B)
func PredictProportionB(lambdaA, lambdaB float64) float64 {
	if !core.IsDefined(lambdaA) || !core.IsDefined(lambdaB) || lambdaA+lambdaB <= 0 {
		return core.Undefined()
	}
	return lambdaA / (lambdaA + lambdaB)
}

// Compare pairs an observed proportion with its prediction. A deviation
// below tolerance is flagged as an exact match.
func Compare(observed, predicted, tolerance float64) metrics.Prediction {
	if tolerance <= 0 {
		tolerance = metrics.DefaultExactMatchTolerance
	}
	return metrics.NewPrediction(observed, predicted, tolerance)
}
