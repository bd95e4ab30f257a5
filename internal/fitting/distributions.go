package fitting

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// TTestPValue is the two-tailed p-value of a t statistic
func TTestPValue(tStatistic float64, degreesOfFreedom int) float64 {
	if degreesOfFreedom <= 0 || math.IsNaN(tStatistic) {
		return math.NaN()
	}
	if math.IsInf(tStatistic, 0) {
		return 0
	}
	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(degreesOfFreedom)}
	return 2 * (1 - tDist.CDF(math.Abs(tStatistic)))
}

// CorrelationPValue tests r against zero with n-2 degrees of freedom
func CorrelationPValue(r float64, n int) float64 {
	if n < 3 || math.IsNaN(r) {
		return math.NaN()
	}
	if math.Abs(r) >= 1 {
		return 0
	}
	df := float64(n - 2)
	return TTestPValue(r*math.Sqrt(df/(1-r*r)), n-2)
}

// ConfidenceIntervalMean computes a t-based confidence interval for a mean
func ConfidenceIntervalMean(mean, std float64, n int, level float64) (lower, upper float64) {
	if n < 2 {
		return mean, mean
	}
	alpha := 1.0 - level
	tCritical := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(n - 1)}.Quantile(1.0 - alpha/2.0)
	margin := tCritical * std / math.Sqrt(float64(n))
	return mean - margin, mean + margin
}
