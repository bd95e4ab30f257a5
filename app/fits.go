package app

import (
	"leavingrate/domain/metrics"
	"leavingrate/internal/fitting"
	"leavingrate/internal/report"
)

func linearFit(name, x, y string, xs, ys []float64) report.NamedFit {
	fit, err := fitting.Linear(xs, ys)
	return report.NamedFit{Name: name, X: x, Y: y, Fit: fit, Err: err}
}

// replicationFits are the population regressions over the aggregates
func replicationFits(aggregates []metrics.AggregateMetrics) []report.NamedFit {
	n := len(aggregates)
	observed := make([]float64, n)
	predicted := make([]float64, n)
	logPref := make([]float64, n)
	logLambda := make([]float64, n)
	sumLambdas := make([]float64, n)
	for i, a := range aggregates {
		observed[i] = a.ObservedPropA
		predicted[i] = a.PredictedPropA
		logPref[i] = a.LogPreference
		logLambda[i] = a.LogLambdaRatio
		sumLambdas[i] = a.SumLambdas
	}

	return []report.NamedFit{
		linearFit("Leaving-rate matching", "predicted proportion", "observed proportion", predicted, observed),
		linearFit("Generalized matching", "log λ2/λ1", "log N1/N2", logLambda, logPref),
		linearFit("Sum of leaving rates", "log N1/N2", "λ1 + λ2", logPref, sumLambdas),
	}
}

// changeoverCurve fits changeover rate against relative reinforcement
func changeoverCurve(aggregates []metrics.AggregateMetrics) (fitting.CurveFit, error) {
	xs := make([]float64, len(aggregates))
	ys := make([]float64, len(aggregates))
	for i, a := range aggregates {
		xs[i] = a.RelativeReinforcement
		ys[i] = a.ChangeoverRate
	}
	xs, ys = fitting.DefinedPairs(xs, ys)
	return fitting.FitCurve(xs, ys)
}

func describeAggregates(aggregates []metrics.AggregateMetrics) []fitting.Summary {
	columns := []struct {
		name string
		get  func(metrics.AggregateMetrics) float64
	}{
		{"d_a", func(a metrics.AggregateMetrics) float64 { return a.MeanRunLengthA }},
		{"d_b", func(a metrics.AggregateMetrics) float64 { return a.MeanRunLengthB }},
		{"lambda_a", func(a metrics.AggregateMetrics) float64 { return a.LeavingRateA }},
		{"lambda_b", func(a metrics.AggregateMetrics) float64 { return a.LeavingRateB }},
		{"changeover_rate", func(a metrics.AggregateMetrics) float64 { return a.ChangeoverRate }},
		{"observed_prop_a", func(a metrics.AggregateMetrics) float64 { return a.ObservedPropA }},
		{"predicted_prop_a", func(a metrics.AggregateMetrics) float64 { return a.PredictedPropA }},
		{"sum_lambdas", func(a metrics.AggregateMetrics) float64 { return a.SumLambdas }},
	}

	out := make([]fitting.Summary, len(columns))
	for i, c := range columns {
		values := make([]float64, len(aggregates))
		for j, a := range aggregates {
			values[j] = c.get(a)
		}
		out[i] = fitting.Describe(c.name, values)
	}
	return out
}

// matchingFits regresses observed on predicted per scenario
func matchingFits(sessions []metrics.SessionMetrics, visits []metrics.VisitMetrics) []report.NamedFit {
	var sx, sy, vx, vy []float64
	for _, s := range sessions {
		sx = append(sx, s.PredictedPropA)
		sy = append(sy, s.ObservedPropA)
	}
	for _, v := range visits {
		vx = append(vx, v.PredictedPropA)
		vy = append(vy, v.ObservedPropA)
	}
	return []report.NamedFit{
		linearFit(metrics.RecordSaccade.Label(), "predicted proportion", "observed proportion", sx, sy),
		linearFit(metrics.RecordFixation.Label(), "predicted proportion", "observed proportion", vx, vy),
	}
}

// describeScenarios summarizes the per-session rates of both scenarios
func describeScenarios(sessions []metrics.SessionMetrics, visits []metrics.VisitMetrics) []fitting.Summary {
	var lambdaA, lambdaB, observed, predicted []float64
	for _, s := range sessions {
		lambdaA = append(lambdaA, s.LeavingRateA)
		lambdaB = append(lambdaB, s.LeavingRateB)
		observed = append(observed, s.ObservedPropA)
		predicted = append(predicted, s.PredictedPropA)
	}
	var vLambdaA, vLambdaB, vObserved, vPredicted []float64
	for _, v := range visits {
		vLambdaA = append(vLambdaA, v.LeavingRateA)
		vLambdaB = append(vLambdaB, v.LeavingRateB)
		vObserved = append(vObserved, v.ObservedPropA)
		vPredicted = append(vPredicted, v.PredictedPropA)
	}

	s, f := metrics.RecordSaccade.Label(), metrics.RecordFixation.Label()
	return []fitting.Summary{
		fitting.Describe(s+" lambda_a", lambdaA),
		fitting.Describe(s+" lambda_b", lambdaB),
		fitting.Describe(s+" observed_prop_a", observed),
		fitting.Describe(s+" predicted_prop_a", predicted),
		fitting.Describe(f+" lambda_a", vLambdaA),
		fitting.Describe(f+" lambda_b", vLambdaB),
		fitting.Describe(f+" observed_prop_a", vObserved),
		fitting.Describe(f+" predicted_prop_a", vPredicted),
	}
}
