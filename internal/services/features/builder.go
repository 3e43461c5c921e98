package features

import (
	"errors"
	"fmt"
	"math"
)

// Column positions of a feature row. Close stays first: the predictor reads
// and writes the close by index.
const (
	ColClose = iota
	ColSMA5
	ColSMA20
	ColRSI
	ColPriceChange
	ColPriceChange5
	ColMomentum
	ColVolatility

	NumColumns
)

// Indicator windows.
const (
	ShortSMAPeriod   = 5
	LongSMAPeriod    = 20
	RSIPeriod        = 14
	ChangeLag        = 5
	MomentumLag      = 5
	VolatilityWindow = 5
)

// ColumnNames lists the feature names in row order.
var ColumnNames = [NumColumns]string{
	"close",
	"SMA_5",
	"SMA_20",
	"RSI",
	"price_change",
	"price_change_5",
	"momentum",
	"volatility",
}

var (
	ErrEmptySeries      = errors.New("features: empty price series")
	ErrInvalidPrice     = errors.New("features: price must be positive and finite")
	ErrUndefinedFeature = errors.New("features: column has no defined value")
)

// Row is one engineered feature vector.
type Row [NumColumns]float64

// Table holds one row per input price, in chronological order.
type Table struct {
	Rows []Row
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Rows) }

// Matrix returns the table as row slices backed by fresh memory.
func (t *Table) Matrix() [][]float64 {
	out := make([][]float64, len(t.Rows))
	for i := range t.Rows {
		row := make([]float64, NumColumns)
		copy(row, t.Rows[i][:])
		out[i] = row
	}
	return out
}

// Build turns closing prices into the feature table. Warm-up gaps are
// backward filled; a column left without any value (series shorter than the
// widest indicator window) is an error.
func Build(prices []float64) (*Table, error) {
	if len(prices) == 0 {
		return nil, ErrEmptySeries
	}
	for i, p := range prices {
		if p <= 0 || math.IsNaN(p) || math.IsInf(p, 0) {
			return nil, fmt.Errorf("%w: index %d value %v", ErrInvalidPrice, i, p)
		}
	}

	closes := make([]float64, len(prices))
	copy(closes, prices)

	cols := [NumColumns][]float64{
		ColClose:        closes,
		ColSMA5:         RollingMean(prices, ShortSMAPeriod),
		ColSMA20:        RollingMean(prices, LongSMAPeriod),
		ColRSI:          RSI(prices, RSIPeriod),
		ColPriceChange:  PctChange(prices, 1),
		ColPriceChange5: PctChange(prices, ChangeLag),
		ColMomentum:     Momentum(prices, MomentumLag),
		ColVolatility:   RollingStd(prices, VolatilityWindow),
	}

	for c := range cols {
		if !BackwardFill(cols[c]) {
			return nil, fmt.Errorf("%w: %s over %d prices", ErrUndefinedFeature, ColumnNames[c], len(prices))
		}
	}

	t := &Table{Rows: make([]Row, len(prices))}
	for i := range t.Rows {
		for c := range cols {
			t.Rows[i][c] = cols[c][i]
		}
	}
	return t, nil
}
