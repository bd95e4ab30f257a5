package fitting

import (
	"errors"
	"math"
	"testing"

	"leavingrate/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinear_ExactLine(t *testing.T) {
	xs := []float64{0, 1, 2, 3, 4}
	ys := []float64{1, 3, 5, 7, 9}

	fit, err := Linear(xs, ys)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, fit.Slope, 1e-12)
	assert.InDelta(t, 1.0, fit.Intercept, 1e-12)
	assert.InDelta(t, 1.0, fit.RSquared, 1e-12)
	assert.InDelta(t, 1.0, fit.R, 1e-12)
	assert.InDelta(t, 0.0, fit.PValue, 1e-12)
	assert.Equal(t, 5, fit.N)
	assert.InDelta(t, 11.0, fit.Predict(5), 1e-12)
}

func TestLinear_NoisyLine(t *testing.T) {
	xs := []float64{1, 2, 3, 4, 5, 6}
	ys := []float64{1.1, 1.9, 3.2, 3.8, 5.1, 6.0}

	fit, err := Linear(xs, ys)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, fit.Slope, 0.05)
	assert.Greater(t, fit.RSquared, 0.98)
	assert.Less(t, fit.PValue, 0.001)
	assert.Greater(t, fit.SlopeStdErr, 0.0)

	r, p, err := Pearson(xs, ys)
	require.NoError(t, err)
	assert.InDelta(t, r, fit.R, 1e-12)
	assert.InDelta(t, math.Sqrt(fit.RSquared), fit.R, 1e-9)
	assert.InDelta(t, p, fit.PValue, 1e-15)
}

func TestLinear_SkipsUndefined(t *testing.T) {
	nan := math.NaN()
	fit, err := Linear([]float64{0, 1, nan, 2, 3}, []float64{0, 2, 5, nan, 6})
	require.NoError(t, err)
	assert.Equal(t, 3, fit.N)
	assert.InDelta(t, 2.0, fit.Slope, 1e-12)
}

func TestLinear_InsufficientData(t *testing.T) {
	_, err := Linear([]float64{1}, []float64{2})
	assert.True(t, errors.Is(err, core.ErrInsufficientData))

	_, err = Linear([]float64{1, 1, 1}, []float64{1, 2, 3})
	assert.True(t, errors.Is(err, core.ErrInsufficientData))

	// two points give a line but no p-value
	fit, err := Linear([]float64{0, 1}, []float64{0, 1})
	require.NoError(t, err)
	assert.True(t, math.IsNaN(fit.PValue))
}

func TestPearson(t *testing.T) {
	r, p, err := Pearson([]float64{1, 2, 3, 4}, []float64{4, 3, 2, 1})
	require.NoError(t, err)
	assert.InDelta(t, -1.0, r, 1e-12)
	assert.InDelta(t, 0.0, p, 1e-12)

	_, _, err = Pearson([]float64{1, 2}, []float64{1, 2})
	assert.Error(t, err)
}

func TestCorrelationPValue(t *testing.T) {
	// r = 0 gives t = 0 and p = 1
	assert.InDelta(t, 1.0, CorrelationPValue(0, 10), 1e-12)
	assert.True(t, math.IsNaN(CorrelationPValue(0.5, 2)))

	p := CorrelationPValue(0.6, 20)
	assert.Greater(t, p, 0.001)
	assert.Less(t, p, 0.01)
}

func TestQuadratic_VertexForm(t *testing.T) {
	// y = 2(x - 0.5)² + 0.1
	xs := []float64{0, 0.2, 0.4, 0.6, 0.8, 1.0}
	ys := make([]float64, len(xs))
	for i, x := range xs {
		ys[i] = 2*(x-0.5)*(x-0.5) + 0.1
	}

	q, err := Quadratic(xs, ys)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, q.A, 1e-9)
	assert.InDelta(t, 0.5, q.B, 1e-9)
	assert.InDelta(t, 0.1, q.C, 1e-9)
	assert.InDelta(t, 1.0, q.RSquared, 1e-9)
	assert.InDelta(t, 0.1, q.Predict(0.5), 1e-9)
}

func TestQuadratic_Fails(t *testing.T) {
	_, err := Quadratic([]float64{0, 0, 1, 1}, []float64{1, 2, 3, 4})
	assert.True(t, errors.Is(err, core.ErrInsufficientData))

	// collinear points have no curvature
	_, err = Quadratic([]float64{0, 1, 2, 3}, []float64{0, 1, 2, 3})
	assert.True(t, errors.Is(err, core.ErrInsufficientData))
}

func TestLowess_LinearDataIsPreserved(t *testing.T) {
	xs := []float64{5, 1, 3, 2, 4, 6, 8, 7}
	ys := make([]float64, len(xs))
	for i, x := range xs {
		ys[i] = 0.5*x + 1
	}

	points, err := Lowess(xs, ys, DefaultLowessOptions())
	require.NoError(t, err)
	require.Len(t, points, len(xs))
	for i, p := range points {
		if i > 0 {
			assert.LessOrEqual(t, points[i-1].X, p.X)
		}
		assert.InDelta(t, 0.5*p.X+1, p.Y, 1e-9)
	}
}

func TestLowess_RobustToOutlier(t *testing.T) {
	xs := make([]float64, 21)
	ys := make([]float64, 21)
	for i := range xs {
		xs[i] = float64(i)
		ys[i] = float64(i)
	}
	ys[10] = 50

	points, err := Lowess(xs, ys, DefaultLowessOptions())
	require.NoError(t, err)
	assert.InDelta(t, 10.0, points[10].Y, 1e-6)

	plain, err := Lowess(xs, ys, LowessOptions{Frac: 0.5, Iterations: 0})
	require.NoError(t, err)
	assert.Greater(t, plain[10].Y, 11.0)

	_, err = Lowess([]float64{1}, []float64{1}, DefaultLowessOptions())
	assert.Error(t, err)
}

func TestFitCurve_FallsBackToLowess(t *testing.T) {
	curve, err := FitCurve([]float64{0, 0, 1, 1}, []float64{0.1, 0.2, 0.3, 0.4})
	require.NoError(t, err)
	assert.Equal(t, "lowess", curve.Method())
	assert.Nil(t, curve.Quadratic)

	curve, err = FitCurve([]float64{0, 1, 2, 3}, []float64{0, 1, 4, 9})
	require.NoError(t, err)
	assert.Equal(t, "quadratic", curve.Method())
}

func TestDescribe(t *testing.T) {
	s := Describe("lambda", []float64{1, 2, 3, 4, math.NaN()})
	assert.Equal(t, 4, s.Count)
	assert.InDelta(t, 2.5, s.Mean, 1e-12)
	assert.InDelta(t, 1.0, s.Min, 1e-12)
	assert.InDelta(t, 4.0, s.Max, 1e-12)
	assert.InDelta(t, 2.5, s.Median, 1e-12)
	assert.InDelta(t, math.Sqrt(5.0/3.0), s.StdDev, 1e-12)
	assert.LessOrEqual(t, s.Q25, s.Median)
	assert.GreaterOrEqual(t, s.Q75, s.Median)
	// t(0.975, 3) = 3.182
	margin := 3.182446 * s.StdDev / 2
	assert.InDelta(t, 2.5-margin, s.MeanLow, 1e-4)
	assert.InDelta(t, 2.5+margin, s.MeanHigh, 1e-4)

	empty := Describe("none", []float64{math.NaN()})
	assert.Equal(t, 0, empty.Count)
	assert.True(t, math.IsNaN(empty.Mean))

	one := Describe("one", []float64{3})
	assert.InDelta(t, 3.0, one.Q25, 1e-12)
	assert.True(t, math.IsNaN(one.StdDev))
	assert.True(t, math.IsNaN(one.MeanLow))
}

func TestConfidenceIntervalMean(t *testing.T) {
	lo, hi := ConfidenceIntervalMean(10, 2, 25, 0.95)
	assert.Less(t, lo, 10.0)
	assert.Greater(t, hi, 10.0)
	assert.InDelta(t, 10-lo, hi-10, 1e-12)

	lo, hi = ConfidenceIntervalMean(10, 2, 1, 0.95)
	assert.Equal(t, 10.0, lo)
	assert.Equal(t, 10.0, hi)
}
