// Package analytics holds the pure numeric functions consumed at the
// market-data boundary: Pearson correlation and per-interval returns.
package analytics

import "math"

// Correlation computes the absolute Pearson correlation coefficient between
// two equal-length series. Mismatched lengths, empty input or a constant
// series (undefined correlation) all yield 0.
func Correlation(x, y []float64) float64 {
	if len(x) != len(y) || len(x) == 0 {
		return 0
	}

	var xMean, yMean float64
	for i := range x {
		xMean += x[i]
		yMean += y[i]
	}
	xMean /= float64(len(x))
	yMean /= float64(len(y))

	var numerator, xDenominator, yDenominator float64
	for i := range x {
		xDiff := x[i] - xMean
		yDiff := y[i] - yMean
		numerator += xDiff * yDiff
		xDenominator += xDiff * xDiff
		yDenominator += yDiff * yDiff
	}

	correlation := numerator / math.Sqrt(xDenominator*yDenominator)
	if math.IsNaN(correlation) {
		return 0
	}
	return math.Abs(correlation)
}

// Returns computes the fractional change between consecutive prices. The
// result has one fewer element than the input.
func Returns(prices []float64) []float64 {
	if len(prices) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		returns = append(returns, (prices[i]-prices[i-1])/prices[i-1])
	}
	return returns
}
