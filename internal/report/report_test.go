package report

import (
	"errors"
	"strings"
	"testing"

	"leavingrate/domain/core"
	"leavingrate/domain/metrics"
	"leavingrate/domain/run"
	"leavingrate/internal/analysis"
	"leavingrate/internal/fitting"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var exampleKey = metrics.SessionKey{RecordType: metrics.RecordFixation, Participant: "3", Condition: "2", Session: "1", Option: 1}

func TestSessionReport_ExactMatch(t *testing.T) {
	labels := []string{"1", "1", "1", "2", "2", "1", "1", "1", "1", "2"}
	a := analysis.AnalyzeSides(exampleKey, labels, analysis.DefaultOptions())

	out := SessionReport(a, DefaultOptions())

	assert.True(t, strings.HasPrefix(out, "# Leaving-rate analysis: participant 3, condition 2, session 1\n"))
	assert.Contains(t, out, "Total trials: 10")
	assert.Contains(t, out, "Changeovers: 3 (rate 0.300)")
	assert.Contains(t, out, "- Mean trials per run: 3.500")
	assert.Contains(t, out, "- Leaving rate λ1: 0.286 (persists)")
	assert.Contains(t, out, "- Leaving rate λ2: 0.667 (leaves quickly)")
	assert.Contains(t, out, "Observed proportion (side 1): 7 / 10 = 0.700")
	assert.Contains(t, out, "λ2/(λ1 + λ2) = 0.667/(0.286 + 0.667) = 0.700")
	assert.Contains(t, out, "**The result matched exactly** (0.700 vs 0.700)")
	assert.NotContains(t, out, "Difference:")
	// side 1 runs are 3 and 4 long: one of two runs exits at position 3
	assert.Contains(t, out, "| 3 | 50.0% (low support) | 1 | 1 | 2 |")
}

func TestSessionReport_Difference(t *testing.T) {
	// dA = 1.5, dB = 1: predicted 0.6 against observed 0.75
	labels := []string{"1", "1", "2", "1"}
	a := analysis.AnalyzeSides(exampleKey, labels, analysis.DefaultOptions())

	out := SessionReport(a, DefaultOptions())

	assert.NotContains(t, out, "matched exactly")
	assert.Contains(t, out, "Difference: 0.150")
}

func TestSessionReport_UndefinedSide(t *testing.T) {
	a := analysis.AnalyzeSides(exampleKey, []string{"1", "1", "1", "1"}, analysis.DefaultOptions())

	out := SessionReport(a, DefaultOptions())

	assert.Contains(t, out, "- Leaving rate λ2: insufficient data\n")
	assert.Contains(t, out, "Prediction: insufficient data")
	assert.Contains(t, out, "No runs on this side: insufficient data.")
}

func TestSessionReport_TruncatesPositions(t *testing.T) {
	labels := make([]string, 0, 13)
	for i := 0; i < 12; i++ {
		labels = append(labels, "1")
	}
	labels = append(labels, "2")
	a := analysis.AnalyzeSides(exampleKey, labels, analysis.DefaultOptions())

	out := SessionReport(a, Options{MaxPositions: 4})

	assert.Contains(t, out, "| 4 | 0.0% (low support) | 1 | 0 | 1 |")
	assert.NotContains(t, out, "| 5 |")
	assert.Contains(t, out, "8 further positions omitted.")
}

func TestBatchReport(t *testing.T) {
	counts := metrics.Counts{TotalTrials: 10, ChoicesA: 7, ChoicesB: 3, RunsA: 2, RunsB: 2, Changeovers: 3}
	session := metrics.NewSessionMetrics(exampleKey, counts)
	agg := metrics.NewAggregateMetrics(exampleKey.Group(), counts, 1)
	manifest := run.NewAnalysisManifest(core.RunID("run-1"), run.ScenarioTrials, "/data", []string{"a.txt"}, nil, "dev")

	out := BatchReport(BatchSummary{
		Title:      "Leaving-rate replication",
		Manifest:   manifest,
		Sessions:   []metrics.SessionMetrics{session},
		Aggregates: []metrics.AggregateMetrics{agg},
		Fits: []NamedFit{
			{Name: "Matching", X: "predicted", Y: "observed", Fit: fitting.LinearFit{Slope: 1, Intercept: 0, RSquared: 1, PValue: 0, N: 5}},
			{Name: "Sum of lambdas", X: "log preference", Y: "sum of lambdas", Err: errors.New("too few points")},
		},
		Describe: []fitting.Summary{fitting.Describe("lambda_a", []float64{0.25, 0.5})},
		Failures: []Failure{{Path: "F__P1_C1_S2_O1.txt", Code: "MISSING_COLUMNS", Message: "missing LADO"}},
	}, DefaultOptions())

	assert.Contains(t, out, "# Leaving-rate replication")
	assert.Contains(t, out, "- Sessions: 1 found, 0 processed, 0 failed")
	assert.Contains(t, out, "- Created: "+manifest.CreatedAt.Format())

	manifest.CreatedAt = core.Timestamp{}
	assert.NotContains(t, BatchReport(BatchSummary{Title: "t", Manifest: manifest}, DefaultOptions()), "- Created:")
	assert.Contains(t, out, "`F__P1_C1_S2_O1.txt` [MISSING_COLUMNS]: missing LADO")
	assert.Contains(t, out, "| P3 C2 S1 | 10 | 0.286 | 0.667 | 0.700 | 0.700 | 0.000 | exact |")
	assert.Contains(t, out, "| P3 C2 | 1 | 10 |")
	assert.Contains(t, out, "slope 1.000, intercept 0.000, R² 1.000, p < 0.0001, N 5")
	assert.Contains(t, out, "**Sum of lambdas** (sum of lambdas on log preference): insufficient data")
	assert.Contains(t, out, "| lambda_a | 2 | 0.375 | [-1.213, 1.963] |")
}

func TestToHTML(t *testing.T) {
	page := string(ToHTML("P1 C1 S1", "# Title\n\n| a | b |\n|---|---|\n| 1 | 2 |\n"))

	require.Contains(t, page, "<title>P1 C1 S1</title>")
	assert.Contains(t, page, "<table>")
	assert.Contains(t, page, "<td>1</td>")
}
