package app

import (
	"context"
	"fmt"

	"leavingrate/domain/choice"
	"leavingrate/domain/core"
	"leavingrate/internal/analysis"
	"leavingrate/internal/dataset"
	"leavingrate/internal/errors"
	"leavingrate/ports"
)

// SessionLoader turns session files into analyses through a reader port
type SessionLoader struct {
	reader  ports.SessionReaderPort
	options analysis.Options
}

// NewSessionLoader creates a loader applying opts to every session
func NewSessionLoader(reader ports.SessionReaderPort, opts analysis.Options) *SessionLoader {
	return &SessionLoader{reader: reader, options: opts}
}

// LoadTrials analyzes a session grouped by TRIAL_INDEX
func (l *SessionLoader) LoadTrials(ctx context.Context, file dataset.SessionFile) (analysis.SessionAnalysis, error) {
	table, err := l.reader.ReadSession(ctx, file.Path, dataset.TrialColumns)
	if err != nil {
		return analysis.SessionAnalysis{}, errors.InputError(file.Path, err)
	}

	trials, hasTrial := table.Column(dataset.ColumnTrialIndex)
	sides, hasSide := table.Column(dataset.ColumnSide)
	accuracy, hasAccuracy := table.Column(dataset.ColumnAccuracy)

	raw := make([]choice.RawRecord, len(table.Rows))
	for i := range raw {
		raw[i] = choice.RawRecord{
			TrialIndex:       trials[i],
			Side:             sides[i],
			Reinforcement:    accuracy[i],
			HasTrialIndex:    hasTrial[i],
			HasSide:          hasSide[i],
			HasReinforcement: hasAccuracy[i],
		}
	}

	a := analysis.AnalyzeRecords(file.Key, raw, l.options)
	if a.Sequence.IsEmpty() {
		return a, errors.InputError(file.Path, noValidRows(a.Normalize.RowsRead))
	}
	return a, nil
}

// LoadSaccades analyzes a session row by row over LADO
func (l *SessionLoader) LoadSaccades(ctx context.Context, file dataset.SessionFile) (analysis.SessionAnalysis, error) {
	table, err := l.reader.ReadSession(ctx, file.Path, dataset.SaccadeColumns)
	if err != nil {
		return analysis.SessionAnalysis{}, errors.InputError(file.Path, err)
	}

	labels, _ := table.Column(dataset.ColumnSide)
	a := analysis.AnalyzeSides(file.Key, labels, l.options)
	if a.Sequence.IsEmpty() {
		return a, errors.InputError(file.Path, noValidRows(a.Normalize.RowsRead))
	}
	return a, nil
}

// LoadFixations analyzes the visit durations of a fixation session
func (l *SessionLoader) LoadFixations(ctx context.Context, file dataset.SessionFile) (analysis.VisitAnalysis, error) {
	table, err := l.reader.ReadSession(ctx, file.Path, dataset.FixationColumns)
	if err != nil {
		return analysis.VisitAnalysis{}, errors.InputError(file.Path, err)
	}

	labels, _ := table.Column(dataset.ColumnAreaLabel)
	durations, _ := table.Column(dataset.ColumnDuration)
	raw := make([]analysis.RawFixation, len(table.Rows))
	for i := range raw {
		raw[i] = analysis.RawFixation{AreaLabel: labels[i], Duration: durations[i]}
	}

	a := analysis.AnalyzeFixations(file.Key, raw, l.options)
	if a.Normalize.Fixations == 0 {
		return a, errors.InputError(file.Path, noValidRows(a.Normalize.RowsRead))
	}
	return a, nil
}

func noValidRows(rowsRead int) error {
	return fmt.Errorf("%w (%d rows read)", core.ErrNoValidRows, rowsRead)
}
