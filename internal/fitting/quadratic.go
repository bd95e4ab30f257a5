package fitting

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"leavingrate/domain/core"
)

// QuadraticFit is y = A(x - B)² + C, fitted by least squares
type QuadraticFit struct {
	A        float64 `json:"a"`
	B        float64 `json:"b"` // vertex x
	C        float64 `json:"c"` // vertex y
	RSquared float64 `json:"r_squared"`
	N        int     `json:"n"`
}

// Predict evaluates the parabola at x
func (q QuadraticFit) Predict(x float64) float64 {
	return q.A*(x-q.B)*(x-q.B) + q.C
}

// String renders the fit the way reports print it
func (q QuadraticFit) String() string {
	return fmt.Sprintf("y = %.3f(x - %.3f)² + %.3f (R² = %.3f, N = %d)", q.A, q.B, q.C, q.RSquared, q.N)
}

// Quadratic fits a parabola over the defined pairs. It needs three distinct
// x values and a non-zero curvature to express the vertex form.
func Quadratic(xs, ys []float64) (QuadraticFit, error) {
	x, y := DefinedPairs(xs, ys)
	n := len(x)
	if distinct(x) < 3 {
		return QuadraticFit{N: n}, fmt.Errorf("%w: quadratic needs 3 distinct x values", core.ErrInsufficientData)
	}

	design := mat.NewDense(n, 3, nil)
	for i, xi := range x {
		design.Set(i, 0, 1)
		design.Set(i, 1, xi)
		design.Set(i, 2, xi*xi)
	}
	var coef mat.VecDense
	if err := coef.SolveVec(design, mat.NewVecDense(n, y)); err != nil {
		return QuadraticFit{N: n}, fmt.Errorf("least squares failed: %w", err)
	}

	c0, c1, c2 := coef.AtVec(0), coef.AtVec(1), coef.AtVec(2)
	if math.Abs(c2) < 1e-12 {
		return QuadraticFit{N: n}, fmt.Errorf("%w: no curvature", core.ErrInsufficientData)
	}
	fit := QuadraticFit{
		A: c2,
		B: -c1 / (2 * c2),
		C: c0 - c1*c1/(4*c2),
		N: n,
	}
	fit.RSquared = rSquared(x, y, fit.Predict)
	return fit, nil
}

func distinct(xs []float64) int {
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	n := 0
	for i, v := range sorted {
		if i == 0 || v != sorted[i-1] {
			n++
		}
	}
	return n
}

func rSquared(x, y []float64, predict func(float64) float64) float64 {
	mean := 0.0
	for _, v := range y {
		mean += v
	}
	mean /= float64(len(y))

	var ssRes, ssTot float64
	for i := range x {
		res := y[i] - predict(x[i])
		ssRes += res * res
		ssTot += (y[i] - mean) * (y[i] - mean)
	}
	if ssTot == 0 {
		return core.Undefined()
	}
	return 1 - ssRes/ssTot
}
