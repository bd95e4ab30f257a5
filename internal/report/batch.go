package report

import (
	"fmt"
	"strings"

	"leavingrate/domain/core"
	"leavingrate/domain/metrics"
	"leavingrate/domain/run"
	"leavingrate/internal/analysis"
	"leavingrate/internal/fitting"
)

// NamedFit is one regression line of the batch report. Err is set when
// the fit could not be computed.
type NamedFit struct {
	Name string
	X    string
	Y    string
	Fit  fitting.LinearFit
	Err  error
}

// Failure is one session excluded from the batch
type Failure struct {
	Path    string
	Code    string
	Message string
}

// BatchSummary is everything the batch report prints
type BatchSummary struct {
	Title      string
	Manifest   *run.AnalysisManifest
	Sessions   []metrics.SessionMetrics
	Visits     []metrics.VisitMetrics
	Aggregates []metrics.AggregateMetrics
	Pairs      []analysis.ScenarioPair
	Fits       []NamedFit
	Curve      *fitting.CurveFit
	Describe   []fitting.Summary
	Failures   []Failure
}

// BatchReport renders the Markdown summary of one run
func BatchReport(s BatchSummary, opts Options) string {
	opts = opts.normalized()
	var b strings.Builder

	b.WriteString("# " + s.Title + "\n\n")
	if m := s.Manifest; m != nil {
		b.WriteString(fmt.Sprintf("- Run: `%s` (%s)\n", m.RunID, m.Scenario))
		b.WriteString(fmt.Sprintf("- Input: `%s`\n", m.InputDir))
		if !m.CreatedAt.IsZero() {
			b.WriteString(fmt.Sprintf("- Created: %s\n", m.CreatedAt.Format()))
		}
		b.WriteString(fmt.Sprintf("- Sessions: %d found, %d processed, %d failed\n",
			m.SessionsFound, m.SessionsProcessed, m.SessionsFailed))
		b.WriteString(fmt.Sprintf("- Fingerprint: `%s`\n\n", m.Fingerprint.Fingerprint.Short()))
	}

	if len(s.Failures) > 0 {
		b.WriteString("## Failed sessions\n\n")
		for _, f := range s.Failures {
			b.WriteString(fmt.Sprintf("- `%s` [%s]: %s\n", f.Path, f.Code, f.Message))
		}
		b.WriteString("\n")
	}

	if len(s.Sessions) > 0 {
		writeSessionTable(&b, s.Sessions, opts)
	}
	if len(s.Visits) > 0 {
		writeVisitTable(&b, s.Visits, opts)
	}
	if len(s.Aggregates) > 0 {
		writeAggregateTable(&b, s.Aggregates, opts)
	}
	if len(s.Pairs) > 0 {
		writePairs(&b, s.Pairs)
	}
	if len(s.Fits) > 0 {
		writeFits(&b, s.Fits)
	}
	if s.Curve != nil {
		writeCurve(&b, *s.Curve)
	}
	if len(s.Describe) > 0 {
		writeDescribe(&b, s.Describe)
	}
	return b.String()
}

func matchMark(observed, predicted float64, tolerance float64) string {
	if metrics.NewPrediction(observed, predicted, tolerance).ExactMatch {
		return "exact"
	}
	return ""
}

func writeSessionTable(b *strings.Builder, sessions []metrics.SessionMetrics, opts Options) {
	b.WriteString("## Sessions\n\n")
	b.WriteString("| Session | Trials | λ1 | λ2 | Observed | Predicted | Difference | |\n")
	b.WriteString("|---|---:|---:|---:|---:|---:|---:|---|\n")
	for _, m := range sessions {
		b.WriteString(fmt.Sprintf("| %s | %d | %s | %s | %s | %s | %s | %s |\n",
			m.Key, m.Counts.TotalTrials, cell(m.LeavingRateA), cell(m.LeavingRateB),
			cell(m.ObservedPropA), cell(m.PredictedPropA), cell(m.Difference()),
			matchMark(m.ObservedPropA, m.PredictedPropA, opts.Tolerance)))
	}
	b.WriteString("\n")
}

func writeVisitTable(b *strings.Builder, visits []metrics.VisitMetrics, opts Options) {
	b.WriteString("## Fixation visits\n\n")
	b.WriteString("| Session | Visits 1 | Visits 2 | Mean visit 1 (s) | Mean visit 2 (s) | Observed | Predicted | |\n")
	b.WriteString("|---|---:|---:|---:|---:|---:|---:|---|\n")
	for _, v := range visits {
		b.WriteString(fmt.Sprintf("| %s | %d | %d | %s | %s | %s | %s | %s |\n",
			v.Key, v.Counts.VisitsA, v.Counts.VisitsB, cell(v.MeanVisitA), cell(v.MeanVisitB),
			cell(v.ObservedPropA), cell(v.PredictedPropA),
			matchMark(v.ObservedPropA, v.PredictedPropA, opts.Tolerance)))
	}
	b.WriteString("\n")
}

func writeAggregateTable(b *strings.Builder, aggregates []metrics.AggregateMetrics, opts Options) {
	b.WriteString("## Participant and condition\n\n")
	b.WriteString("| Group | Sessions | Trials | d1 | d2 | λ1 | λ2 | Changeover rate | Observed | Predicted | |\n")
	b.WriteString("|---|---:|---:|---:|---:|---:|---:|---:|---:|---:|---|\n")
	for _, a := range aggregates {
		b.WriteString(fmt.Sprintf("| %s | %d | %d | %s | %s | %s | %s | %s | %s | %s | %s |\n",
			a.Key, a.Sessions, a.Counts.TotalTrials,
			cell(a.MeanRunLengthA), cell(a.MeanRunLengthB), cell(a.LeavingRateA), cell(a.LeavingRateB),
			cell(a.ChangeoverRate), cell(a.ObservedPropA), cell(a.PredictedPropA),
			matchMark(a.ObservedPropA, a.PredictedPropA, opts.Tolerance)))
	}
	b.WriteString("\n")
}

func writePairs(b *strings.Builder, pairs []analysis.ScenarioPair) {
	plottable := 0
	for _, p := range pairs {
		if p.Plottable() {
			plottable++
		}
	}
	b.WriteString("## Saccades vs fixations\n\n")
	b.WriteString(fmt.Sprintf("%d sessions present in both scenarios, %d with both relative values inside ±%.3f.\n\n",
		len(pairs), plottable, analysis.RelativeLimit))
	b.WriteString("| Session | Relative (trials) | Relative (fixation) | Log ratio (trials) | Log ratio (fixation) |\n")
	b.WriteString("|---|---:|---:|---:|---:|\n")
	for _, p := range pairs {
		b.WriteString(fmt.Sprintf("| P%s C%s S%s | %s | %s | %s | %s |\n",
			p.Participant, p.Condition, p.Session,
			cell(p.RelativeTrials), cell(p.RelativeFixation), cell(p.LogRatioTrials), cell(p.LogRatioFixation)))
	}
	b.WriteString("\n")
}

func writeFits(b *strings.Builder, fits []NamedFit) {
	b.WriteString("## Fit statistics\n\n")
	for _, f := range fits {
		if f.Err != nil {
			b.WriteString(fmt.Sprintf("- **%s** (%s on %s): %s\n", f.Name, f.Y, f.X, insufficient))
			continue
		}
		b.WriteString(fmt.Sprintf("- **%s** (%s on %s): slope %s, intercept %s, R² %s, p %s, N %d\n",
			f.Name, f.Y, f.X, num(f.Fit.Slope), num(f.Fit.Intercept), num(f.Fit.RSquared), pvalue(f.Fit.PValue), f.Fit.N))
	}
	b.WriteString("\n")
}

func pvalue(p float64) string {
	if !core.IsDefined(p) {
		return insufficient
	}
	if p < 1e-4 {
		return "< 0.0001"
	}
	return fmt.Sprintf("%.4f", p)
}

func writeCurve(b *strings.Builder, c fitting.CurveFit) {
	b.WriteString("## Changeover curve\n\n")
	switch {
	case c.Quadratic != nil:
		q := c.Quadratic
		b.WriteString(fmt.Sprintf("Quadratic fit: y = %.3f(x - %.3f)² + %.3f, R² %s, N %d\n\n", q.A, q.B, q.C, num(q.RSquared), q.N))
	case len(c.Lowess) > 0:
		b.WriteString(fmt.Sprintf("LOWESS smooth over %d points (quadratic fit unavailable).\n\n", len(c.Lowess)))
	default:
		b.WriteString(insufficient + "\n\n")
	}
}

func writeDescribe(b *strings.Builder, rows []fitting.Summary) {
	b.WriteString("## Descriptive statistics\n\n")
	b.WriteString("| Variable | Count | Mean | 95% CI | Std | Min | 25% | 50% | 75% | Max |\n")
	b.WriteString("|---|---:|---:|---|---:|---:|---:|---:|---:|---:|\n")
	for _, r := range rows {
		ci := "n/a"
		if core.IsDefined(r.MeanLow) {
			ci = fmt.Sprintf("[%.3f, %.3f]", r.MeanLow, r.MeanHigh)
		}
		b.WriteString(fmt.Sprintf("| %s | %d | %s | %s | %s | %s | %s | %s | %s | %s |\n",
			r.Name, r.Count, cell(r.Mean), ci, cell(r.StdDev), cell(r.Min), cell(r.Q25), cell(r.Median), cell(r.Q75), cell(r.Max)))
	}
	b.WriteString("\n")
}
