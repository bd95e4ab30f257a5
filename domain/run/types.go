package run

import (
	"crypto/sha256"
	"fmt"

	"leavingrate/domain/core"
)

// Scenario names which reading of the leaving-rate model a run applies
type Scenario string

const (
	ScenarioTrials   Scenario = "trials"   // trial-grouped runs over TRIAL_INDEX / LADO / ACCURACY
	ScenarioSessions Scenario = "sessions" // per-session detailed reports
	ScenarioMatching Scenario = "matching" // saccade runs and fixation visit durations
)

// RunFingerprint ensures an identical input set and parameters can be
// recognized across runs
type RunFingerprint struct {
	Scenario       Scenario            `json:"scenario"`
	InputSetHash   core.InputSetHash   `json:"input_set_hash"`
	ParametersHash core.ParametersHash `json:"parameters_hash"`
	CodeVersion    string              `json:"code_version"`
	Fingerprint    core.Hash           `json:"fingerprint"` // Hash of all above
}

// NewRunFingerprint creates a fingerprint from determinism parameters
func NewRunFingerprint(scenario Scenario, inputs core.InputSetHash,
	params core.ParametersHash, codeVersion string) RunFingerprint {

	return RunFingerprint{
		Scenario:       scenario,
		InputSetHash:   inputs,
		ParametersHash: params,
		CodeVersion:    codeVersion,
		Fingerprint:    computeRunFingerprint(scenario, inputs, params, codeVersion),
	}
}

func computeRunFingerprint(scenario Scenario, inputs core.InputSetHash,
	params core.ParametersHash, codeVersion string) core.Hash {

	data := fmt.Sprintf("scenario:%s|inputs:%s|params:%s|code:%s",
		scenario, inputs, params, codeVersion)

	hash := sha256.Sum256([]byte(data))
	return core.Hash(fmt.Sprintf("%x", hash))
}
