package fitting

import (
	"github.com/montanaflynn/stats"

	"leavingrate/domain/core"
)

// Summary is the descriptive statistics row of one variable
type Summary struct {
	Name   string  `json:"name"`
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"` // sample standard deviation
	Min    float64 `json:"min"`
	Q25    float64 `json:"q25"`
	Median float64 `json:"median"`
	Q75    float64 `json:"q75"`
	Max    float64 `json:"max"`
	// 95% t interval of the mean, defined from two values on
	MeanLow  float64 `json:"mean_ci95_low"`
	MeanHigh float64 `json:"mean_ci95_high"`
}

// MeanLevel is the confidence level of Summary.MeanLow and MeanHigh
const MeanLevel = 0.95

// Describe summarizes the defined values of data. Every statistic is NaN
// when no value is defined; StdDev needs at least two.
func Describe(name string, data []float64) Summary {
	values := make([]float64, 0, len(data))
	for _, v := range data {
		if core.IsDefined(v) {
			values = append(values, v)
		}
	}

	s := Summary{
		Name:   name,
		Count:  len(values),
		Mean:   core.Undefined(),
		StdDev: core.Undefined(),
		Min:    core.Undefined(),
		Q25:    core.Undefined(),
		Median: core.Undefined(),
		Q75:    core.Undefined(),
		Max:    core.Undefined(),
	}
	s.MeanLow, s.MeanHigh = core.Undefined(), core.Undefined()
	if len(values) == 0 {
		return s
	}

	s.Mean, _ = stats.Mean(values)
	s.Min, _ = stats.Min(values)
	s.Max, _ = stats.Max(values)
	s.Median, _ = stats.Median(values)
	if q, err := stats.Quartile(values); err == nil && len(values) > 1 {
		s.Q25, s.Q75 = q.Q1, q.Q3
	} else {
		s.Q25, s.Q75 = s.Median, s.Median
	}
	if len(values) > 1 {
		s.StdDev, _ = stats.StandardDeviationSample(values)
		s.MeanLow, s.MeanHigh = ConfidenceIntervalMean(s.Mean, s.StdDev, len(values), MeanLevel)
	}
	return s
}
