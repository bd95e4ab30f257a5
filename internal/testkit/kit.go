package testkit

import (
	"context"
	"fmt"
	"sync"

	"leavingrate/domain/core"
	"leavingrate/domain/metrics"
	"leavingrate/domain/run"
	"leavingrate/internal/errors"
	"leavingrate/ports"
)

// TestKit provides testing utilities and fixtures
type TestKit struct {
	sink   *InMemoryResultsSink
	config SessionGeneratorConfig
}

// NewTestKit creates a new test kit with the default generator config
func NewTestKit() *TestKit {
	return &TestKit{sink: NewInMemoryResultsSink(), config: DefaultSessionConfig()}
}

// WithConfig replaces the generator config
func (t *TestKit) WithConfig(config SessionGeneratorConfig) *TestKit {
	t.config = config
	return t
}

// ResultsSink returns the shared in-memory sink
func (t *TestKit) ResultsSink() *InMemoryResultsSink {
	return t.sink
}

// WriteDataset writes synthetic session files into dir
func (t *TestKit) WriteDataset(dir string, participants, conditions, sessions int) ([]string, error) {
	return WriteDataset(dir, t.config, participants, conditions, sessions)
}

// InMemoryResultsSink implements the results ports with in-memory storage
type InMemoryResultsSink struct {
	runs       map[core.RunID]*run.AnalysisManifest
	sessions   map[core.RunID][]metrics.SessionMetrics
	aggregates map[core.RunID][]metrics.AggregateMetrics
	mu         sync.RWMutex
}

var (
	_ ports.ResultsSinkPort   = (*InMemoryResultsSink)(nil)
	_ ports.ResultsReaderPort = (*InMemoryResultsSink)(nil)
)

func NewInMemoryResultsSink() *InMemoryResultsSink {
	return &InMemoryResultsSink{
		runs:       make(map[core.RunID]*run.AnalysisManifest),
		sessions:   make(map[core.RunID][]metrics.SessionMetrics),
		aggregates: make(map[core.RunID][]metrics.AggregateMetrics),
	}
}

// SaveBatch stores a run with its rows, or nothing when the run is invalid
// or already stored
func (s *InMemoryResultsSink) SaveBatch(ctx context.Context, batch ports.ResultsBatch) error {
	if batch.Manifest == nil {
		return errors.ValidationError("results batch has no manifest")
	}
	if err := batch.Manifest.Validate(); err != nil {
		return errors.WithCode(errors.CodeValidationError, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	runID := batch.Manifest.RunID
	if _, exists := s.runs[runID]; exists {
		return errors.WithCode(errors.CodeDatabaseError, fmt.Errorf("run already stored: %s", runID))
	}
	copied := *batch.Manifest
	s.runs[runID] = &copied
	s.sessions[runID] = append([]metrics.SessionMetrics(nil), batch.Sessions...)
	s.aggregates[runID] = append([]metrics.AggregateMetrics(nil), batch.Aggregates...)
	return nil
}

func (s *InMemoryResultsSink) GetRun(ctx context.Context, runID core.RunID) (*run.AnalysisManifest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, exists := s.runs[runID]
	if !exists {
		return nil, errors.NotFound("analysis run " + runID.String())
	}
	copied := *m
	return &copied, nil
}

func (s *InMemoryResultsSink) ListAggregates(ctx context.Context, runID core.RunID) ([]metrics.AggregateMetrics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]metrics.AggregateMetrics(nil), s.aggregates[runID]...), nil
}

// Sessions returns the stored session rows of a run
func (s *InMemoryResultsSink) Sessions(runID core.RunID) []metrics.SessionMetrics {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]metrics.SessionMetrics(nil), s.sessions[runID]...)
}

// RunCount returns the number of stored runs
func (s *InMemoryResultsSink) RunCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.runs)
}
