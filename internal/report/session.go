package report

import (
	"fmt"
	"strings"

	"leavingrate/domain/choice"
	"leavingrate/internal/analysis"
)

// SessionTitle is the heading of a session report
func SessionTitle(a analysis.SessionAnalysis) string {
	return fmt.Sprintf("Leaving-rate analysis: participant %s, condition %s, session %s",
		a.Key.Participant, a.Key.Condition, a.Key.Session)
}

// SessionReport renders the detailed Markdown report of one session
func SessionReport(a analysis.SessionAnalysis, opts Options) string {
	opts = opts.normalized()
	m := a.Metrics
	var b strings.Builder

	b.WriteString("# " + SessionTitle(a) + "\n\n")

	b.WriteString("## 1. Method\n\n")
	b.WriteString("Instead of measuring how long the gaze stayed on a side, the analysis counts how many ")
	b.WriteString("consecutive trials kept the same choice.\n\n")
	b.WriteString("- **Run:** a maximal block of consecutive choices of the same side.\n")
	b.WriteString("- **Changeover:** a trial whose choice differs from the previous trial.\n")
	b.WriteString("- **Leaving rate (λ):** 1 / mean trials per run.\n\n")

	b.WriteString("## 2. Results\n\n")
	b.WriteString(fmt.Sprintf("Total trials: %d  \n", m.Counts.TotalTrials))
	b.WriteString(fmt.Sprintf("Changeovers: %d (rate %s)\n\n", m.Counts.Changeovers, num(m.ChangeoverRate)))
	if dropped := a.Normalize.Dropped(); dropped > 0 {
		b.WriteString(fmt.Sprintf("%d of %d input rows were discarded during normalization.\n\n", dropped, a.Normalize.RowsRead))
	}

	for _, side := range choice.Sides {
		b.WriteString(fmt.Sprintf("### %s\n\n", side.Name()))
		b.WriteString(fmt.Sprintf("- Choices: %d\n", m.Counts.Choices(side)))
		b.WriteString(fmt.Sprintf("- Reinforced trials: %d\n", m.Counts.Reinforcements(side)))
		b.WriteString(fmt.Sprintf("- Runs: %d\n", m.Counts.Runs(side)))
		b.WriteString(fmt.Sprintf("- Mean trials per run: %s\n", num(m.MeanRunLength(side))))
		lambda := m.LeavingRate(side)
		b.WriteString(fmt.Sprintf("- Leaving rate λ%s: %s", side, num(lambda)))
		if c := classify(lambda); c != "" {
			b.WriteString(" (" + c + ")")
		}
		b.WriteString("\n\n")
	}

	b.WriteString("## 3. Leaving-rate matching\n\n")
	b.WriteString("The model predicts that the share of choices on one side equals the relative ")
	b.WriteString("leaving rate of the other side.\n\n")
	writePrediction(&b, a, opts)

	b.WriteString("## 4. Exit probability by position\n\n")
	b.WriteString("A constant leaving rate implies the same exit probability at every position ")
	b.WriteString("of a run (a geometric distribution of run lengths).\n\n")
	for _, side := range choice.Sides {
		writeExitTable(&b, side, a, opts)
	}

	b.WriteString("## 5. Interpretation\n\n")
	for _, side := range choice.Sides {
		trend := analysis.Trend(a.ExitProfile(side), opts.MinSupport)
		if trend.Positions < 2 {
			b.WriteString(fmt.Sprintf("- %s: too few well-supported positions to judge the exit probability.\n", side.Name()))
			continue
		}
		b.WriteString(fmt.Sprintf("- %s: exit probability changes by %+.3f per position over %d positions.\n",
			side.Name(), trend.Slope, trend.Positions))
	}
	b.WriteString("\nIf the exit probability varies across consecutive positions, the constant-rate ")
	b.WriteString("model may not apply exactly.\n")

	return b.String()
}

func writePrediction(b *strings.Builder, a analysis.SessionAnalysis, opts Options) {
	m := a.Metrics
	if !a.Prediction.Defined {
		b.WriteString("Prediction: " + insufficient + " (a side without runs leaves λ undefined).\n\n")
		return
	}

	b.WriteString(fmt.Sprintf("Observed proportion (side 1): %d / %d = %.3f  \n",
		m.Counts.ChoicesA, m.Counts.TotalTrials, m.ObservedPropA))
	b.WriteString(fmt.Sprintf("Model prediction: λ2/(λ1 + λ2) = %.3f/(%.3f + %.3f) = %.3f\n\n",
		m.LeavingRateB, m.LeavingRateA, m.LeavingRateB, m.PredictedPropA))

	if a.Prediction.Deviation < opts.Tolerance {
		b.WriteString(fmt.Sprintf("**The result matched exactly** (%.3f vs %.3f).\n\n", m.ObservedPropA, m.PredictedPropA))
		return
	}
	b.WriteString(fmt.Sprintf("Difference: %.3f\n\n", a.Prediction.Deviation))
}

func writeExitTable(b *strings.Builder, side choice.Side, a analysis.SessionAnalysis, opts Options) {
	profile := a.ExitProfile(side)
	b.WriteString(fmt.Sprintf("### %s\n\n", side.Name()))
	if profile.IsEmpty() {
		b.WriteString("No runs on this side: " + insufficient + ".\n\n")
		return
	}

	b.WriteString("| Position | Exit probability | Continued | Exited | Total |\n")
	b.WriteString("|---:|---:|---:|---:|---:|\n")
	for _, pt := range profile.Head(opts.MaxPositions) {
		prob := fmt.Sprintf("%.1f%%", pt.ExitProbability*100)
		if pt.LowSupport {
			prob += " (low support)"
		}
		b.WriteString(fmt.Sprintf("| %d | %s | %d | %d | %d |\n", pt.Position, prob, pt.NSurvived, pt.NExited, pt.NTotal))
	}
	if profile.MaxPosition() > opts.MaxPositions {
		b.WriteString(fmt.Sprintf("\n%d further positions omitted.\n", profile.MaxPosition()-opts.MaxPositions))
	}
	b.WriteString("\n")
}
