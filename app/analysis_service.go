package app

import (
	"context"
	"fmt"

	"leavingrate/domain/core"
	"leavingrate/domain/metrics"
	"leavingrate/domain/run"
	"leavingrate/internal"
	"leavingrate/internal/analysis"
	"leavingrate/internal/dataset"
	"leavingrate/internal/errors"
	"leavingrate/internal/fitting"
	"leavingrate/internal/report"
	"leavingrate/ports"

	"golang.org/x/sync/errgroup"
)

// ServiceConfig holds the tunables of a batch
type ServiceConfig struct {
	Workers     int
	Analysis    analysis.Options
	Report      report.Options
	Storage     *dataset.StorageConfig
	CodeVersion string
}

// DefaultServiceConfig returns the configuration used when nothing is set
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		Workers:     4,
		Analysis:    analysis.DefaultOptions(),
		Report:      report.DefaultOptions(),
		Storage:     dataset.DefaultStorageConfig(),
		CodeVersion: "dev",
	}
}

// SessionResult is the outcome of one trial or saccade session. Err is
// set when the session was excluded.
type SessionResult struct {
	File     dataset.SessionFile
	Analysis analysis.SessionAnalysis
	Err      error
}

// VisitResult is the outcome of one fixation session
type VisitResult struct {
	File     dataset.SessionFile
	Analysis analysis.VisitAnalysis
	Err      error
}

// RunResult is everything a batch produced
type RunResult struct {
	Manifest        *run.AnalysisManifest
	Sessions        []SessionResult
	Visits          []VisitResult
	Aggregates      []metrics.AggregateMetrics
	VisitAggregates []metrics.AggregateVisitMetrics
	Pairs           []analysis.ScenarioPair
	Fits            []report.NamedFit
	Curve           *fitting.CurveFit
	Describe        []fitting.Summary
	Outputs         []string // files written
}

// Empty reports whether no session file was found
func (r *RunResult) Empty() bool {
	return r.Manifest == nil || r.Manifest.SessionsFound == 0
}

// SessionMetrics returns the metrics of the successful sessions in order
func (r *RunResult) SessionMetrics() []metrics.SessionMetrics {
	var out []metrics.SessionMetrics
	for _, s := range r.Sessions {
		if s.Err == nil {
			out = append(out, s.Analysis.Metrics)
		}
	}
	return out
}

// VisitMetrics returns the metrics of the successful fixation sessions
func (r *RunResult) VisitMetrics() []metrics.VisitMetrics {
	var out []metrics.VisitMetrics
	for _, v := range r.Visits {
		if v.Err == nil {
			out = append(out, v.Analysis.Metrics)
		}
	}
	return out
}

// Failures lists the excluded sessions
func (r *RunResult) Failures() []report.Failure {
	var out []report.Failure
	for _, s := range r.Sessions {
		if s.Err != nil {
			out = append(out, failure(s.File, s.Err))
		}
	}
	for _, v := range r.Visits {
		if v.Err != nil {
			out = append(out, failure(v.File, v.Err))
		}
	}
	return out
}

func failure(file dataset.SessionFile, err error) report.Failure {
	return report.Failure{Path: file.Path, Code: errors.GetCode(err), Message: err.Error()}
}

// AnalysisService runs the leaving-rate scenarios over a directory of
// session files
type AnalysisService struct {
	loader *SessionLoader
	sink   ports.ResultsSinkPort
	config ServiceConfig
	logger *internal.Logger
}

// NewAnalysisService wires a service; sink may be nil
func NewAnalysisService(reader ports.SessionReaderPort, sink ports.ResultsSinkPort, config ServiceConfig, logger *internal.Logger) *AnalysisService {
	if config.Workers < 1 {
		config.Workers = 1
	}
	if config.Storage == nil {
		config.Storage = dataset.DefaultStorageConfig()
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &AnalysisService{
		loader: NewSessionLoader(reader, config.Analysis),
		sink:   sink,
		config: config,
		logger: logger.WithComponent("AnalysisService"),
	}
}

// Replicate runs the trial scenario over every fixation file, aggregates
// per (participant, condition) and fits the population statistics
func (s *AnalysisService) Replicate(ctx context.Context, inputDir string) (*RunResult, error) {
	files, err := s.discover(inputDir, metrics.RecordFixation)
	if err != nil {
		return nil, err
	}
	result := &RunResult{Manifest: s.newManifest(run.ScenarioTrials, inputDir, files)}
	if len(files) == 0 {
		s.logger.Warn("no fixation files found in %s", inputDir)
		return result, nil
	}

	result.Sessions = s.processSessions(ctx, files, s.loader.LoadTrials, result.Manifest)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sessions := result.SessionMetrics()
	result.Aggregates = analysis.Aggregate(sessions)
	result.Fits = replicationFits(result.Aggregates)
	if curve, err := changeoverCurve(result.Aggregates); err == nil {
		result.Curve = &curve
	} else {
		s.logger.Debug("changeover curve unavailable: %v", err)
	}
	result.Describe = describeAggregates(result.Aggregates)

	if err := s.writeOutputs(ctx, result, replicationOutputs(result, s.config.Report)); err != nil {
		return nil, err
	}
	if err := s.export(ctx, result, sessions); err != nil {
		return nil, err
	}
	s.logSummary(result)
	return result, nil
}

// Sessions runs the trial scenario and writes a detailed report per session
func (s *AnalysisService) Sessions(ctx context.Context, inputDir string) (*RunResult, error) {
	files, err := s.discover(inputDir, metrics.RecordFixation)
	if err != nil {
		return nil, err
	}
	result := &RunResult{Manifest: s.newManifest(run.ScenarioSessions, inputDir, files)}
	if len(files) == 0 {
		s.logger.Warn("no fixation files found in %s", inputDir)
		return result, nil
	}

	result.Sessions = s.processSessions(ctx, files, s.loader.LoadTrials, result.Manifest)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	result.Aggregates = analysis.Aggregate(result.SessionMetrics())

	if err := s.writeOutputs(ctx, result, sessionOutputs(result, s.config.Report)); err != nil {
		return nil, err
	}
	s.logSummary(result)
	return result, nil
}

// Matching runs the saccade and visit-duration scenarios per session and
// compares them
func (s *AnalysisService) Matching(ctx context.Context, inputDir string) (*RunResult, error) {
	all, err := dataset.Discover(inputDir)
	if err != nil {
		return nil, errors.InvalidInput(err.Error())
	}
	saccades := dataset.Filter(all, metrics.RecordSaccade)
	fixations := dataset.Filter(all, metrics.RecordFixation)
	files := append(append([]dataset.SessionFile{}, saccades...), fixations...)

	result := &RunResult{Manifest: s.newManifest(run.ScenarioMatching, inputDir, files)}
	if len(files) == 0 {
		s.logger.Warn("no session files found in %s", inputDir)
		return result, nil
	}

	result.Sessions = s.processSessions(ctx, saccades, s.loader.LoadSaccades, result.Manifest)
	result.Visits = s.processVisits(ctx, fixations, result.Manifest)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sessions := result.SessionMetrics()
	visits := result.VisitMetrics()
	result.Aggregates = analysis.Aggregate(sessions)
	result.VisitAggregates = analysis.AggregateVisits(visits)
	result.Pairs = analysis.CompareScenarios(sessions, visits)
	result.Fits = matchingFits(sessions, visits)
	result.Describe = describeScenarios(sessions, visits)

	if err := s.writeOutputs(ctx, result, matchingOutputs(result, s.config.Report)); err != nil {
		return nil, err
	}
	if err := s.export(ctx, result, sessions); err != nil {
		return nil, err
	}
	s.logSummary(result)
	return result, nil
}

func (s *AnalysisService) discover(inputDir string, recordType metrics.RecordType) ([]dataset.SessionFile, error) {
	files, err := dataset.Discover(inputDir)
	if err != nil {
		return nil, errors.InvalidInput(err.Error())
	}
	return dataset.Filter(files, recordType), nil
}

func (s *AnalysisService) newManifest(scenario run.Scenario, inputDir string, files []dataset.SessionFile) *run.AnalysisManifest {
	params := map[string]interface{}{
		"min_position_support":  s.config.Analysis.MinPositionSupport,
		"exact_match_tolerance": s.config.Analysis.ExactMatchTolerance,
	}
	return run.NewAnalysisManifest(core.NewRunID(), scenario, inputDir, dataset.Paths(files), params, s.config.CodeVersion)
}

// fanOut runs fn for every index on at most Workers goroutines. fn records
// its own outcome; a failing session never cancels the others.
func (s *AnalysisService) fanOut(ctx context.Context, n int, fn func(ctx context.Context, i int)) {
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.Workers)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			if gCtx.Err() != nil {
				return nil
			}
			fn(gCtx, i)
			return nil
		})
	}
	_ = g.Wait()
}

type sessionLoadFunc func(ctx context.Context, file dataset.SessionFile) (analysis.SessionAnalysis, error)

func (s *AnalysisService) processSessions(ctx context.Context, files []dataset.SessionFile, load sessionLoadFunc, manifest *run.AnalysisManifest) []SessionResult {
	results := make([]SessionResult, len(files))
	s.fanOut(ctx, len(files), func(ctx context.Context, i int) {
		a, err := load(ctx, files[i])
		results[i] = SessionResult{File: files[i], Analysis: a, Err: err}
	})
	for i := range results {
		if results[i].Err == nil && results[i].File.Path == "" {
			results[i] = SessionResult{File: files[i], Err: ctx.Err()}
		}
		s.recordOutcome(manifest, results[i].File, results[i].Err)
	}
	return results
}

func (s *AnalysisService) processVisits(ctx context.Context, files []dataset.SessionFile, manifest *run.AnalysisManifest) []VisitResult {
	results := make([]VisitResult, len(files))
	s.fanOut(ctx, len(files), func(ctx context.Context, i int) {
		a, err := s.loader.LoadFixations(ctx, files[i])
		results[i] = VisitResult{File: files[i], Analysis: a, Err: err}
	})
	for i := range results {
		if results[i].Err == nil && results[i].File.Path == "" {
			results[i] = VisitResult{File: files[i], Err: ctx.Err()}
		}
		s.recordOutcome(manifest, results[i].File, results[i].Err)
	}
	return results
}

func (s *AnalysisService) recordOutcome(manifest *run.AnalysisManifest, file dataset.SessionFile, err error) {
	manifest.RecordOutcome(err)
	if err != nil {
		s.logger.Warn("skipped %s [%s]: %v", file.Path, errors.GetCode(err), err)
		return
	}
	s.logger.Debug("processed %s", file.Path)
}

func (s *AnalysisService) export(ctx context.Context, result *RunResult, sessions []metrics.SessionMetrics) error {
	if s.sink == nil {
		return nil
	}
	batch := ports.ResultsBatch{
		Manifest:   result.Manifest,
		Sessions:   sessions,
		Aggregates: result.Aggregates,
	}
	if err := s.sink.SaveBatch(ctx, batch); err != nil {
		return errors.Wrap(err, "failed to export run")
	}
	s.logger.Info("exported run %s", result.Manifest.RunID)
	return nil
}

func (s *AnalysisService) logSummary(result *RunResult) {
	m := result.Manifest
	s.logger.Info("%s run %s: %d sessions found, %d processed, %d failed, %d files written",
		m.Scenario, m.Fingerprint.Fingerprint.Short(), m.SessionsFound, m.SessionsProcessed, m.SessionsFailed, len(result.Outputs))
}

// String summarizes a result for the CLI
func (r *RunResult) String() string {
	if r.Empty() {
		return "no session files found"
	}
	m := r.Manifest
	return fmt.Sprintf("%d sessions found, %d processed, %d failed", m.SessionsFound, m.SessionsProcessed, m.SessionsFailed)
}
