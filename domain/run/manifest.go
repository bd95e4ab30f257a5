package run

import (
	"leavingrate/domain/core"
)

// AnalysisManifest describes one batch: what went in, with which
// parameters, and how many sessions made it through.
type AnalysisManifest struct {
	RunID             core.RunID          `json:"run_id"`
	Scenario          Scenario            `json:"scenario"`
	InputDir          string              `json:"input_dir"`
	InputSetHash      core.InputSetHash   `json:"input_set_hash"`
	ParametersHash    core.ParametersHash `json:"parameters_hash"`
	CodeVersion       string              `json:"code_version"`
	Fingerprint       RunFingerprint      `json:"fingerprint"`
	SessionsFound     int                 `json:"sessions_found"`
	SessionsProcessed int                 `json:"sessions_processed"`
	SessionsFailed    int                 `json:"sessions_failed"`
	CreatedAt         core.Timestamp      `json:"created_at"`
}

// NewAnalysisManifest creates a manifest for a batch over paths
func NewAnalysisManifest(
	runID core.RunID,
	scenario Scenario,
	inputDir string,
	paths []string,
	params map[string]interface{},
	codeVersion string,
) *AnalysisManifest {
	inputs := core.ComputeInputSetHash(paths)
	paramsHash := core.ComputeParametersHash(params)

	return &AnalysisManifest{
		RunID:          runID,
		Scenario:       scenario,
		InputDir:       inputDir,
		InputSetHash:   inputs,
		ParametersHash: paramsHash,
		CodeVersion:    codeVersion,
		Fingerprint:    NewRunFingerprint(scenario, inputs, paramsHash, codeVersion),
		SessionsFound:  len(paths),
		CreatedAt:      core.Now(),
	}
}

// RecordOutcome counts one session as processed or failed
func (m *AnalysisManifest) RecordOutcome(err error) {
	if err != nil {
		m.SessionsFailed++
		return
	}
	m.SessionsProcessed++
}

// Validate checks if the manifest is complete
func (m *AnalysisManifest) Validate() error {
	if core.ID(m.RunID).IsEmpty() {
		return core.NewValidationError("analysis_manifest", "run_id cannot be empty")
	}
	if m.Scenario == "" {
		return core.NewValidationError("analysis_manifest", "scenario cannot be empty")
	}
	if m.InputSetHash == "" {
		return core.NewValidationError("analysis_manifest", "input_set_hash cannot be empty")
	}
	if m.CodeVersion == "" {
		return core.NewValidationError("analysis_manifest", "code_version cannot be empty")
	}
	if m.SessionsProcessed+m.SessionsFailed > m.SessionsFound {
		return core.NewValidationError("analysis_manifest", "more outcomes recorded than sessions found")
	}
	return nil
}
