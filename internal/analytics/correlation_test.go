package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCorrelationSelf(t *testing.T) {
	x := []float64{1, 2, 3, 5, 8, 13}
	assert.InDelta(t, 1.0, Correlation(x, x), 1e-9)
}

func TestCorrelationIdenticalSeries(t *testing.T) {
	assert.Equal(t, 1.0, Correlation([]float64{1, 2, 3}, []float64{1, 2, 3}))
}

func TestCorrelationMismatchedLengths(t *testing.T) {
	assert.Equal(t, 0.0, Correlation([]float64{1, 2, 3}, []float64{1, 2}))
	assert.Equal(t, 0.0, Correlation(nil, nil))
}

func TestCorrelationConstantSeries(t *testing.T) {
	// Correlation against a constant series is undefined; it reports 0.
	assert.Equal(t, 0.0, Correlation([]float64{5, 5, 5}, []float64{1, 2, 3}))
}

func TestCorrelationInverseSeries(t *testing.T) {
	// Perfectly anti-correlated series score 1 in absolute terms.
	assert.InDelta(t, 1.0, Correlation([]float64{1, 2, 3}, []float64{3, 2, 1}), 1e-9)
}

func TestReturns(t *testing.T) {
	got := Returns([]float64{100, 110, 99})
	assert.InDeltaSlice(t, []float64{0.1, -0.1}, got, 1e-9)
}

func TestReturnsShortInput(t *testing.T) {
	assert.Nil(t, Returns([]float64{42}))
	assert.Nil(t, Returns(nil))
}
