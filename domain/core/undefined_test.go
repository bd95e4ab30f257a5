package core

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRatio(t *testing.T) {
	assert.Equal(t, 0.5, Ratio(1, 2))
	assert.True(t, math.IsNaN(Ratio(1, 0)))
	assert.True(t, math.IsNaN(Ratio(Undefined(), 2)))
	assert.True(t, math.IsNaN(Ratio(1, Undefined())))
}

func TestCountRatio(t *testing.T) {
	assert.InDelta(t, 0.8, CountRatio(8, 10), 1e-12)
	assert.True(t, math.IsNaN(CountRatio(0, 0)))
}

func TestLog10Ratio(t *testing.T) {
	assert.InDelta(t, 1.0, Log10Ratio(10, 1), 1e-12)
	assert.InDelta(t, 0.0, Log10Ratio(3, 3), 1e-12)
	assert.True(t, math.IsNaN(Log10Ratio(0, 1)))
	assert.True(t, math.IsNaN(Log10Ratio(1, 0)))
	assert.True(t, math.IsNaN(Log10Ratio(-1, 2)))
}

func TestIsDefined(t *testing.T) {
	assert.True(t, IsDefined(0))
	assert.False(t, IsDefined(math.NaN()))
	assert.False(t, IsDefined(math.Inf(1)))
	assert.True(t, math.IsNaN(Sum(1, Undefined())))
	assert.Equal(t, 3.0, Sum(1, 2))
}
