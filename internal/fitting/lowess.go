package fitting

import (
	"fmt"
	"math"
	"sort"

	"github.com/montanaflynn/stats"

	"leavingrate/domain/core"
)

// LowessPoint is one smoothed value
type LowessPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// LowessOptions controls the smoother
type LowessOptions struct {
	Frac       float64 // share of points in each local window, (0, 1]
	Iterations int     // robustifying passes after the first fit
}

// DefaultLowessOptions matches the fallback used when the quadratic fails
func DefaultLowessOptions() LowessOptions {
	return LowessOptions{Frac: 0.5, Iterations: 3}
}

// Lowess smooths y on x with locally weighted linear regression and
// tricube weights, then reweights by bisquare of the residuals for each
// robustifying pass. Output is sorted by x.
func Lowess(xs, ys []float64, opts LowessOptions) ([]LowessPoint, error) {
	x, y := DefinedPairs(xs, ys)
	n := len(x)
	if n < 2 {
		return nil, fmt.Errorf("%w: lowess needs 2 points", core.ErrInsufficientData)
	}
	if opts.Frac <= 0 || opts.Frac > 1 {
		opts.Frac = DefaultLowessOptions().Frac
	}
	if opts.Iterations < 0 {
		opts.Iterations = 0
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return x[order[a]] < x[order[b]] })
	sx := make([]float64, n)
	sy := make([]float64, n)
	for i, idx := range order {
		sx[i], sy[i] = x[idx], y[idx]
	}

	k := int(math.Ceil(opts.Frac * float64(n)))
	if k < 2 {
		k = 2
	}
	if k > n {
		k = n
	}

	robust := make([]float64, n)
	for i := range robust {
		robust[i] = 1
	}
	fitted := make([]float64, n)

	for iter := 0; iter <= opts.Iterations; iter++ {
		for i := 0; i < n; i++ {
			fitted[i] = localFit(sx, sy, robust, i, k)
		}
		if iter == opts.Iterations {
			break
		}

		residuals := make([]float64, n)
		for i := range residuals {
			residuals[i] = math.Abs(sy[i] - fitted[i])
		}
		scale, err := stats.Median(residuals)
		if err != nil {
			break
		}
		if scale <= 1e-12 {
			// more than half the points sit on the curve
			scale, _ = stats.Mean(residuals)
			if scale <= 1e-12 {
				break
			}
		}
		for i, r := range residuals {
			u := r / (6 * scale)
			if u < 1 {
				robust[i] = (1 - u*u) * (1 - u*u)
			} else {
				robust[i] = 0
			}
		}
	}

	out := make([]LowessPoint, n)
	for i := range out {
		out[i] = LowessPoint{X: sx[i], Y: fitted[i]}
	}
	return out, nil
}

// localFit is the weighted linear fit at sx[i] over its k nearest neighbours
func localFit(sx, sy, robust []float64, i, k int) float64 {
	n := len(sx)
	lo, hi := i, i
	for hi-lo+1 < k {
		switch {
		case lo == 0:
			hi++
		case hi == n-1:
			lo--
		case sx[i]-sx[lo-1] <= sx[hi+1]-sx[i]:
			lo--
		default:
			hi++
		}
	}
	h := math.Max(sx[i]-sx[lo], sx[hi]-sx[i])

	var sw, swx, swy, swxx, swxy float64
	for j := lo; j <= hi; j++ {
		w := robust[j]
		if h > 0 {
			d := math.Abs(sx[j]-sx[i]) / h
			if d >= 1 {
				w = 0
			} else {
				t := 1 - d*d*d
				w *= t * t * t
			}
		}
		sw += w
		swx += w * sx[j]
		swy += w * sy[j]
		swxx += w * sx[j] * sx[j]
		swxy += w * sx[j] * sy[j]
	}
	if sw == 0 {
		return sy[i]
	}
	meanX, meanY := swx/sw, swy/sw
	varX := swxx/sw - meanX*meanX
	if varX <= 1e-12 {
		return meanY
	}
	slope := (swxy/sw - meanX*meanY) / varX
	return meanY + slope*(sx[i]-meanX)
}

// CurveFit is the changeover curve: a quadratic when it can be fitted,
// otherwise a LOWESS smooth of the same points
type CurveFit struct {
	Quadratic *QuadraticFit `json:"quadratic,omitempty"`
	Lowess    []LowessPoint `json:"lowess,omitempty"`
}

// Method names the fit that was used
func (c CurveFit) Method() string {
	switch {
	case c.Quadratic != nil:
		return "quadratic"
	case len(c.Lowess) > 0:
		return "lowess"
	default:
		return "none"
	}
}

// FitCurve tries the quadratic and falls back to LOWESS
func FitCurve(xs, ys []float64) (CurveFit, error) {
	if q, err := Quadratic(xs, ys); err == nil {
		return CurveFit{Quadratic: &q}, nil
	}
	points, err := Lowess(xs, ys, DefaultLowessOptions())
	if err != nil {
		return CurveFit{}, err
	}
	return CurveFit{Lowess: points}, nil
}
