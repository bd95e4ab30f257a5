// Package fitting wraps the statistics calls the reports need: linear
// regressions with p-values, a vertex-form quadratic with LOWESS fallback,
// and descriptive summaries. Undefined points (NaN) are skipped pairwise.
package fitting

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"

	"leavingrate/domain/core"
)

// LinearFit is the ordinary least squares line y = Intercept + Slope*x
type LinearFit struct {
	Slope       float64 `json:"slope"`
	Intercept   float64 `json:"intercept"`
	R           float64 `json:"r"`
	RSquared    float64 `json:"r_squared"`
	PValue      float64 `json:"p_value"`
	SlopeStdErr float64 `json:"slope_std_err"`
	N           int     `json:"n"`
}

// Predict evaluates the line at x
func (f LinearFit) Predict(x float64) float64 {
	return f.Intercept + f.Slope*x
}

// String renders the fit the way reports print it
func (f LinearFit) String() string {
	return fmt.Sprintf("y = %.3fx + %.3f (R² = %.3f, p = %.4f, N = %d)", f.Slope, f.Intercept, f.RSquared, f.PValue, f.N)
}

// DefinedPairs drops every index where x or y is undefined
func DefinedPairs(xs, ys []float64) ([]float64, []float64) {
	n := len(xs)
	if len(ys) < n {
		n = len(ys)
	}
	outX := make([]float64, 0, n)
	outY := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		if core.IsDefined(xs[i]) && core.IsDefined(ys[i]) {
			outX = append(outX, xs[i])
			outY = append(outY, ys[i])
		}
	}
	return outX, outY
}

// Linear fits y on x over the defined pairs. At least two points with
// distinct x are required.
func Linear(xs, ys []float64) (LinearFit, error) {
	x, y := DefinedPairs(xs, ys)
	n := len(x)
	if n < 2 {
		return LinearFit{N: n}, fmt.Errorf("%w: %d defined points", core.ErrInsufficientData, n)
	}
	if variance(x) == 0 {
		return LinearFit{N: n}, fmt.Errorf("%w: x has no variance", core.ErrInsufficientData)
	}

	intercept, slope := stat.LinearRegression(x, y, nil, false)
	r2 := stat.RSquared(x, y, nil, intercept, slope)

	fit := LinearFit{
		Slope:       slope,
		Intercept:   intercept,
		RSquared:    r2,
		R:           math.Copysign(math.Sqrt(math.Max(r2, 0)), slope),
		PValue:      core.Undefined(),
		SlopeStdErr: core.Undefined(),
		N:           n,
	}
	if variance(y) == 0 {
		fit.R, fit.RSquared = core.Undefined(), core.Undefined()
		return fit, nil
	}
	if n > 2 {
		// the correlation test is the slope test in simple regression
		if r, p, err := Pearson(x, y); err == nil {
			fit.R, fit.PValue = r, p
		}
		fit.SlopeStdErr = slopeStdErr(x, y, intercept, slope)
	}
	return fit, nil
}

// Pearson returns the correlation coefficient and its p-value
func Pearson(xs, ys []float64) (r, p float64, err error) {
	x, y := DefinedPairs(xs, ys)
	if len(x) < 3 {
		return core.Undefined(), core.Undefined(), fmt.Errorf("%w: %d defined points", core.ErrInsufficientData, len(x))
	}
	r, err = stats.Pearson(x, y)
	if err != nil || math.IsNaN(r) {
		return core.Undefined(), core.Undefined(), fmt.Errorf("%w: %v", core.ErrInsufficientData, err)
	}
	return r, CorrelationPValue(r, len(x)), nil
}

func variance(xs []float64) float64 {
	v, err := stats.PopulationVariance(xs)
	if err != nil {
		return 0
	}
	return v
}

func slopeStdErr(x, y []float64, intercept, slope float64) float64 {
	n := float64(len(x))
	mean, _ := stats.Mean(x)
	var sse, sxx float64
	for i := range x {
		res := y[i] - (intercept + slope*x[i])
		sse += res * res
		sxx += (x[i] - mean) * (x[i] - mean)
	}
	if sxx == 0 {
		return core.Undefined()
	}
	return math.Sqrt(sse / (n - 2) / sxx)
}
