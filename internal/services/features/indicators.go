package features

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// NeutralRSI is reported for windows without any price movement.
const NeutralRSI = 50.0

// undefined marks a cell that has no value yet (warm-up rows).
var undefined = math.NaN()

func isUndefined(v float64) bool { return math.IsNaN(v) }

func newColumn(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = undefined
	}
	return out
}

// RollingMean returns the trailing simple moving average over window values.
// The first window-1 positions are undefined.
func RollingMean(xs []float64, window int) []float64 {
	out := newColumn(len(xs))
	if window <= 0 {
		return out
	}
	for i := window - 1; i < len(xs); i++ {
		out[i] = stat.Mean(xs[i-window+1:i+1], nil)
	}
	return out
}

// RollingStd returns the trailing sample standard deviation (n-1 denominator).
func RollingStd(xs []float64, window int) []float64 {
	out := newColumn(len(xs))
	if window <= 1 {
		return out
	}
	for i := window - 1; i < len(xs); i++ {
		out[i] = stat.StdDev(xs[i-window+1:i+1], nil)
	}
	return out
}

// PctChange returns (x[i] - x[i-lag]) / x[i-lag]; undefined for the first lag positions.
func PctChange(xs []float64, lag int) []float64 {
	out := newColumn(len(xs))
	for i := lag; i < len(xs); i++ {
		prev := xs[i-lag]
		if prev == 0 {
			continue
		}
		out[i] = (xs[i] - prev) / prev
	}
	return out
}

// Momentum returns x[i] - x[i-lag]; undefined for the first lag positions.
func Momentum(xs []float64, lag int) []float64 {
	out := newColumn(len(xs))
	for i := lag; i < len(xs); i++ {
		out[i] = xs[i] - xs[i-lag]
	}
	return out
}

// RSI computes the relative strength index from rolling means of gains and
// losses over period deltas. The delta at position 0 counts as no movement,
// so the first value lands at period-1.
func RSI(xs []float64, period int) []float64 {
	out := newColumn(len(xs))
	if period <= 0 || len(xs) < period {
		return out
	}
	gains := make([]float64, len(xs))
	losses := make([]float64, len(xs))
	for i := 1; i < len(xs); i++ {
		d := xs[i] - xs[i-1]
		switch {
		case d > 0:
			gains[i] = d
		case d < 0:
			losses[i] = -d
		}
	}
	for i := period - 1; i < len(xs); i++ {
		avgGain := stat.Mean(gains[i-period+1:i+1], nil)
		avgLoss := stat.Mean(losses[i-period+1:i+1], nil)
		out[i] = rsiValue(avgGain, avgLoss)
	}
	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain == 0 {
			return NeutralRSI
		}
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// BackwardFill replaces every undefined cell with the next defined value at or
// after its position. Trailing undefined cells stay undefined. It reports
// whether the column is fully defined afterwards.
func BackwardFill(col []float64) bool {
	next := undefined
	for i := len(col) - 1; i >= 0; i-- {
		if isUndefined(col[i]) {
			col[i] = next
			continue
		}
		next = col[i]
	}
	for _, v := range col {
		if isUndefined(v) {
			return false
		}
	}
	return true
}
