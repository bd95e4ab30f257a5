package testkit

import (
	"bufio"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"

	"leavingrate/domain/choice"
	"leavingrate/domain/core"
	"leavingrate/domain/metrics"
	"leavingrate/internal/dataset"
)

// SessionGeneratorConfig configures the synthetic session generator
type SessionGeneratorConfig struct {
	Trials               int     `json:"trials"`
	LeavingRateA         float64 `json:"leaving_rate_a"` // per-trial probability of leaving side A, (0, 1]
	LeavingRateB         float64 `json:"leaving_rate_b"`
	ReinforceProbA       float64 `json:"reinforce_prob_a"`
	ReinforceProbB       float64 `json:"reinforce_prob_b"`
	MaxFixationsPerTrial int     `json:"max_fixations_per_trial"` // rows per trial, >= 1
	MeanFixationMs       float64 `json:"mean_fixation_ms"`
	Seed                 int64   `json:"seed"`
}

// DefaultSessionConfig returns sensible defaults for session generation
func DefaultSessionConfig() SessionGeneratorConfig {
	return SessionGeneratorConfig{
		Trials:               200,
		LeavingRateA:         0.25,
		LeavingRateB:         0.5,
		ReinforceProbA:       0.3,
		ReinforceProbB:       0.15,
		MaxFixationsPerTrial: 3,
		MeanFixationMs:       250,
		Seed:                 42,
	}
}

// GeneratedRow is one row of a synthetic fixation export
type GeneratedRow struct {
	TrialIndex int64
	Side       choice.Side
	Accuracy   int
	AreaLabel  string
	DurationMs float64
}

// SessionGenerator produces choice sequences whose run lengths are
// geometric with the configured leaving rates
type SessionGenerator struct {
	config SessionGeneratorConfig
	rng    *rand.Rand
}

// NewSessionGenerator creates a new session generator
func NewSessionGenerator(config SessionGeneratorConfig) *SessionGenerator {
	return &SessionGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// GenerateSides returns Trials sides made of alternating runs. The first
// side is drawn at random.
func (g *SessionGenerator) GenerateSides() []choice.Side {
	sides := make([]choice.Side, 0, g.config.Trials)
	side := choice.SideA
	if g.rng.Intn(2) == 1 {
		side = choice.SideB
	}
	for len(sides) < g.config.Trials {
		length := g.runLength(g.leavingRate(side))
		for i := 0; i < length && len(sides) < g.config.Trials; i++ {
			sides = append(sides, side)
		}
		side = side.Other()
	}
	return sides
}

// GenerateRows expands each trial into 1..MaxFixationsPerTrial fixation
// rows on the chosen side. Only the first row of a trial carries the
// accuracy flag, the way eye-tracker exports repeat trial columns.
func (g *SessionGenerator) GenerateRows() []GeneratedRow {
	sides := g.GenerateSides()
	maxFix := g.config.MaxFixationsPerTrial
	if maxFix < 1 {
		maxFix = 1
	}

	var rows []GeneratedRow
	for i, side := range sides {
		accuracy := 0
		if g.rng.Float64() < g.reinforceProb(side) {
			accuracy = 1
		}
		fixations := 1 + g.rng.Intn(maxFix)
		for f := 0; f < fixations; f++ {
			row := GeneratedRow{
				TrialIndex: int64(i + 1),
				Side:       side,
				AreaLabel:  areaLabel(side),
				DurationMs: g.fixationDuration(),
			}
			if f == 0 {
				row.Accuracy = accuracy
			}
			rows = append(rows, row)
		}
	}
	return rows
}

// WriteSessionFile writes a tab-separated session file named after key
// into dir and returns its path. Saccade keys get a LADO-only file.
func (g *SessionGenerator) WriteSessionFile(dir string, key metrics.SessionKey) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}
	path := filepath.Join(dir, dataset.FileName(key))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create session file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if key.RecordType == metrics.RecordSaccade {
		fmt.Fprintln(w, dataset.ColumnSide)
		for _, side := range g.GenerateSides() {
			fmt.Fprintln(w, side.String())
		}
	} else {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", dataset.ColumnTrialIndex, dataset.ColumnSide, dataset.ColumnAccuracy, dataset.ColumnAreaLabel, dataset.ColumnDuration)
		for _, r := range g.GenerateRows() {
			fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%.0f\n", r.TrialIndex, r.Side.String(), r.Accuracy, r.AreaLabel, r.DurationMs)
		}
	}
	if err := w.Flush(); err != nil {
		return "", fmt.Errorf("failed to write session file: %w", err)
	}
	return path, nil
}

// WriteDataset writes one fixation and one saccade file per
// (participant, condition, session) into dir, reseeding per file.
func WriteDataset(dir string, config SessionGeneratorConfig, participants, conditions, sessions int) ([]string, error) {
	var paths []string
	seed := config.Seed
	for p := 1; p <= participants; p++ {
		for c := 1; c <= conditions; c++ {
			for s := 1; s <= sessions; s++ {
				for _, rt := range []metrics.RecordType{metrics.RecordFixation, metrics.RecordSaccade} {
					cfg := config
					cfg.Seed = seed
					seed++
					key := metrics.SessionKey{
						RecordType:  rt,
						Participant: core.ParticipantID(strconv.Itoa(p)),
						Condition:   core.ConditionID(strconv.Itoa(c)),
						Session:     core.SessionID(strconv.Itoa(s)),
						Option:      1,
					}
					path, err := NewSessionGenerator(cfg).WriteSessionFile(dir, key)
					if err != nil {
						return nil, err
					}
					paths = append(paths, path)
				}
			}
		}
	}
	return paths, nil
}

func (g *SessionGenerator) runLength(leavingRate float64) int {
	if leavingRate <= 0 || leavingRate > 1 {
		leavingRate = 1
	}
	length := 1
	for g.rng.Float64() >= leavingRate {
		length++
	}
	return length
}

func (g *SessionGenerator) leavingRate(side choice.Side) float64 {
	if side == choice.SideB {
		return g.config.LeavingRateB
	}
	return g.config.LeavingRateA
}

func (g *SessionGenerator) reinforceProb(side choice.Side) float64 {
	if side == choice.SideB {
		return g.config.ReinforceProbB
	}
	return g.config.ReinforceProbA
}

func (g *SessionGenerator) fixationDuration() float64 {
	mean := g.config.MeanFixationMs
	if mean <= 50 {
		mean = 250
	}
	return 50 + g.rng.ExpFloat64()*(mean-50)
}

func areaLabel(side choice.Side) string {
	if side == choice.SideB {
		return choice.AreaRightSample
	}
	return choice.AreaLeftSample
}
