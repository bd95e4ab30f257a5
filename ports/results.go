package ports

import (
	"context"

	"leavingrate/domain/core"
	"leavingrate/domain/metrics"
	"leavingrate/domain/run"
)

// ResultsBatch is everything one analysis run exports
type ResultsBatch struct {
	Manifest   *run.AnalysisManifest
	Sessions   []metrics.SessionMetrics
	Aggregates []metrics.AggregateMetrics
}

// ResultsSinkPort persists the outcome of one analysis batch. A batch is
// stored whole or not at all: a failure leaves no run row behind.
type ResultsSinkPort interface {
	SaveBatch(ctx context.Context, batch ResultsBatch) error
}

// ResultsReaderPort reads back stored batches
type ResultsReaderPort interface {
	GetRun(ctx context.Context, runID core.RunID) (*run.AnalysisManifest, error)
	ListAggregates(ctx context.Context, runID core.RunID) ([]metrics.AggregateMetrics, error)
}
