// Package report renders analysis results as Markdown, optionally
// converted to HTML.
package report

import (
	"fmt"

	"leavingrate/domain/core"
	"leavingrate/domain/metrics"
	"leavingrate/internal/analysis"
)

// QuickLeavingThreshold separates sides the subject leaves quickly from
// sides it persists on
const QuickLeavingThreshold = 0.3

// Options controls report formatting
type Options struct {
	MaxPositions int     // exit-probability positions listed per side
	MinSupport   int     // runs a position needs to enter the hazard trend
	Tolerance    float64 // deviation reported as an exact match
	HTML         bool
}

// DefaultOptions returns the formatting used when nothing is configured
func DefaultOptions() Options {
	return Options{
		MaxPositions: 10,
		MinSupport:   analysis.DefaultMinPositionSupport,
		Tolerance:    metrics.DefaultExactMatchTolerance,
	}
}

func (o Options) normalized() Options {
	if o.MaxPositions <= 0 {
		o.MaxPositions = DefaultOptions().MaxPositions
	}
	if o.MinSupport <= 0 {
		o.MinSupport = analysis.DefaultMinPositionSupport
	}
	if o.Tolerance <= 0 {
		o.Tolerance = metrics.DefaultExactMatchTolerance
	}
	return o
}

const insufficient = "insufficient data"

// num formats a value with three decimals, or says it is undefined
func num(v float64) string {
	if !core.IsDefined(v) {
		return insufficient
	}
	return fmt.Sprintf("%.3f", v)
}

// cell is num for table cells
func cell(v float64) string {
	if !core.IsDefined(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.3f", v)
}

// classify describes how readily a side is left
func classify(lambda float64) string {
	if !core.IsDefined(lambda) {
		return ""
	}
	if lambda > QuickLeavingThreshold {
		return "leaves quickly"
	}
	return "persists"
}
