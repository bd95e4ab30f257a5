package app

import (
	"leavingrate/adapters/excel"
	"leavingrate/domain/choice"
	"leavingrate/domain/metrics"
	"leavingrate/internal/analysis"
	"leavingrate/internal/fitting"
	"leavingrate/internal/report"
)

var countHeaders = []string{"total_trials", "n_a", "n_b", "r_a", "r_b", "runs_a", "runs_b", "num_changeovers"}

func countCells(c metrics.Counts) []interface{} {
	return []interface{}{c.TotalTrials, c.ChoicesA, c.ChoicesB, c.ReinforcementsA, c.ReinforcementsB, c.RunsA, c.RunsB, c.Changeovers}
}

func keyCells(k metrics.SessionKey) []interface{} {
	return []interface{}{string(k.RecordType), k.Participant.String(), k.Condition.String(), k.Session.String(), k.Option}
}

var keyHeaders = []string{"record_type", "participant", "condition", "session", "option"}

func concat(parts ...[]string) []string {
	var out []string
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// sessionTable has one row per session with every count and derived field
func sessionTable(name string, sessions []metrics.SessionMetrics, tolerance float64) excel.Table {
	t := excel.Table{Name: name, Headers: concat(keyHeaders, countHeaders, []string{
		"d_a", "d_b", "lambda_a", "lambda_b", "changeover_rate",
		"observed_prop_a", "predicted_prop_a", "difference", "exact_match",
	})}
	for _, m := range sessions {
		row := append(keyCells(m.Key), countCells(m.Counts)...)
		row = append(row, m.MeanRunLengthA, m.MeanRunLengthB, m.LeavingRateA, m.LeavingRateB, m.ChangeoverRate,
			m.ObservedPropA, m.PredictedPropA, m.Difference(),
			metrics.NewPrediction(m.ObservedPropA, m.PredictedPropA, tolerance).ExactMatch)
		t.AddRow(row...)
	}
	return t
}

func aggregateTable(aggregates []metrics.AggregateMetrics) excel.Table {
	t := excel.Table{Name: "aggregates", Headers: concat([]string{"participant", "condition", "sessions"}, countHeaders, []string{
		"d_a", "d_b", "lambda_a", "lambda_b", "changeover_rate", "relative_reinforcement",
		"observed_prop_a", "predicted_prop_a", "difference", "log_preference", "log_lambda_ratio", "sum_lambdas",
	})}
	for _, a := range aggregates {
		row := []interface{}{a.Key.Participant.String(), a.Key.Condition.String(), a.Sessions}
		row = append(row, countCells(a.Counts)...)
		row = append(row, a.MeanRunLengthA, a.MeanRunLengthB, a.LeavingRateA, a.LeavingRateB, a.ChangeoverRate,
			a.RelativeReinforcement, a.ObservedPropA, a.PredictedPropA, a.Difference(),
			a.LogPreference, a.LogLambdaRatio, a.SumLambdas)
		t.AddRow(row...)
	}
	return t
}

var visitHeaders = []string{
	"fixations", "visits_a", "visits_b", "seconds_a", "seconds_b",
	"mean_visit_a", "mean_visit_b", "lambda_a", "lambda_b", "observed_prop_a", "predicted_prop_a", "difference",
}

func visitCells(c metrics.VisitCounts, r metrics.VisitRates) []interface{} {
	return []interface{}{
		c.Fixations, c.VisitsA, c.VisitsB, c.SecondsA, c.SecondsB,
		r.MeanVisitA, r.MeanVisitB, r.LeavingRateA, r.LeavingRateB, r.ObservedPropA, r.PredictedPropA, r.Difference(),
	}
}

func visitTable(visits []metrics.VisitMetrics) excel.Table {
	t := excel.Table{Name: "fixation_visits", Headers: concat(keyHeaders, visitHeaders)}
	for _, v := range visits {
		t.AddRow(append(keyCells(v.Key), visitCells(v.Counts, v.VisitRates)...)...)
	}
	return t
}

func visitAggregateTable(aggregates []metrics.AggregateVisitMetrics) excel.Table {
	t := excel.Table{Name: "fixation_aggregates", Headers: concat([]string{"participant", "condition", "sessions"}, visitHeaders)}
	for _, a := range aggregates {
		row := []interface{}{a.Key.Participant.String(), a.Key.Condition.String(), a.Sessions}
		t.AddRow(append(row, visitCells(a.Counts, a.VisitRates)...)...)
	}
	return t
}

func pairsTable(pairs []analysis.ScenarioPair) excel.Table {
	t := excel.Table{Name: "scenario_comparison", Headers: []string{
		"participant", "condition", "session",
		"relative_trials", "relative_fixation", "log_ratio_trials", "log_ratio_fixation", "plottable",
	}}
	for _, p := range pairs {
		t.AddRow(p.Participant.String(), p.Condition.String(), p.Session.String(),
			p.RelativeTrials, p.RelativeFixation, p.LogRatioTrials, p.LogRatioFixation, p.Plottable())
	}
	return t
}

func fitsTable(fits []report.NamedFit) excel.Table {
	t := excel.Table{Name: "fits", Headers: []string{
		"name", "x", "y", "slope", "intercept", "r", "r_squared", "p_value", "slope_std_err", "n", "error",
	}}
	for _, f := range fits {
		msg := ""
		if f.Err != nil {
			msg = f.Err.Error()
			t.AddRow(f.Name, f.X, f.Y, nil, nil, nil, nil, nil, nil, f.Fit.N, msg)
			continue
		}
		t.AddRow(f.Name, f.X, f.Y, f.Fit.Slope, f.Fit.Intercept, f.Fit.R, f.Fit.RSquared,
			f.Fit.PValue, f.Fit.SlopeStdErr, f.Fit.N, msg)
	}
	return t
}

func curveTable(c fitting.CurveFit) excel.Table {
	t := excel.Table{Name: "changeover_curve", Headers: []string{"method", "x", "y"}}
	switch {
	case c.Quadratic != nil:
		t.AddRow("quadratic_a", nil, c.Quadratic.A)
		t.AddRow("quadratic_vertex", c.Quadratic.B, c.Quadratic.C)
		t.AddRow("quadratic_r_squared", nil, c.Quadratic.RSquared)
	default:
		for _, p := range c.Lowess {
			t.AddRow(c.Method(), p.X, p.Y)
		}
	}
	return t
}

func describeTable(rows []fitting.Summary) excel.Table {
	t := excel.Table{Name: "describe", Headers: []string{
		"variable", "count", "mean", "std", "min", "25%", "50%", "75%", "max", "mean_ci95_low", "mean_ci95_high",
	}}
	for _, r := range rows {
		t.AddRow(r.Name, r.Count, r.Mean, r.StdDev, r.Min, r.Q25, r.Median, r.Q75, r.Max, r.MeanLow, r.MeanHigh)
	}
	return t
}

func exitTable(sessions []SessionResult) excel.Table {
	t := excel.Table{Name: "exit_probability", Headers: []string{
		"participant", "condition", "session", "side",
		"position", "exit_probability", "n_survived", "n_exited", "n_total", "low_support",
	}}
	for _, s := range sessions {
		if s.Err != nil {
			continue
		}
		k := s.Analysis.Key
		for _, side := range choice.Sides {
			for _, pt := range s.Analysis.ExitProfile(side).Points {
				t.AddRow(k.Participant.String(), k.Condition.String(), k.Session.String(), side.String(),
					pt.Position, pt.ExitProbability, pt.NSurvived, pt.NExited, pt.NTotal, pt.LowSupport)
			}
		}
	}
	return t
}
