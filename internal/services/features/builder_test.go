package features

import (
	"errors"
	"math"
	"testing"
)

func assertClose(t *testing.T, label string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s: got %.6f, want %.6f (tol=%.6f)", label, got, want, tol)
	}
}

func linear(n int, from, to float64) []float64 {
	out := make([]float64, n)
	step := (to - from) / float64(n-1)
	for i := range out {
		out[i] = from + float64(i)*step
	}
	return out
}

func constant(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestRollingMean_HandCalculated(t *testing.T) {
	// SMA(3) of 100, 102, 104, 103, 105 -> _, _, 102, 103, 104
	got := RollingMean([]float64{100, 102, 104, 103, 105}, 3)
	if !math.IsNaN(got[0]) || !math.IsNaN(got[1]) {
		t.Fatalf("expected warm-up positions undefined, got %v", got[:2])
	}
	for i, want := range []float64{102, 103, 104} {
		assertClose(t, "SMA(3)", got[i+2], want, 1e-9)
	}
}

func TestRollingStd_SampleDeviation(t *testing.T) {
	// sample std of 2, 4, 4, 4, 5, 5, 7, 9 over window 8 = 2.138090
	got := RollingStd([]float64{2, 4, 4, 4, 5, 5, 7, 9}, 8)
	assertClose(t, "std", got[7], 2.1380899, 1e-6)
}

func TestPctChangeAndMomentum(t *testing.T) {
	xs := []float64{10, 11, 12, 13, 14, 15, 16}
	pc := PctChange(xs, 1)
	if !math.IsNaN(pc[0]) {
		t.Fatalf("price_change[0] should be undefined")
	}
	assertClose(t, "pct[1]", pc[1], 0.1, 1e-12)

	pc5 := PctChange(xs, 5)
	for i := 0; i < 5; i++ {
		if !math.IsNaN(pc5[i]) {
			t.Fatalf("price_change_5[%d] should be undefined", i)
		}
	}
	assertClose(t, "pct5[5]", pc5[5], 0.5, 1e-12)

	mom := Momentum(xs, 5)
	assertClose(t, "momentum[6]", mom[6], 5, 1e-12)
}

func TestRSI_Values(t *testing.T) {
	up := linear(20, 1, 20)
	rsi := RSI(up, RSIPeriod)
	if !math.IsNaN(rsi[RSIPeriod-2]) {
		t.Fatalf("rsi should be undefined before index %d", RSIPeriod-1)
	}
	assertClose(t, "rsi no losses", rsi[RSIPeriod-1], 100, 1e-12)

	flat := RSI(constant(20, 42), RSIPeriod)
	assertClose(t, "rsi flat", flat[19], NeutralRSI, 1e-12)

	// alternate +1/-1: equal average gain and loss once the window is full of moves
	alt := make([]float64, 30)
	for i := range alt {
		alt[i] = 10 + float64(i%2)
	}
	altRSI := RSI(alt, RSIPeriod)
	assertClose(t, "rsi balanced", altRSI[29], 50, 1e-9)
}

func TestBackwardFill(t *testing.T) {
	nan := math.NaN()
	col := []float64{nan, nan, 3, nan, 5}
	if !BackwardFill(col) {
		t.Fatalf("expected fully defined column")
	}
	want := []float64{3, 3, 3, 5, 5}
	for i := range want {
		if col[i] != want[i] {
			t.Fatalf("col[%d]=%v want %v", i, col[i], want[i])
		}
	}

	trailing := []float64{1, nan}
	if BackwardFill(trailing) {
		t.Fatalf("trailing undefined cell must stay undefined")
	}
}

func TestBuild_IncreasingSeriesTrendsBelowClose(t *testing.T) {
	prices := linear(25, 10, 34)
	tbl, err := Build(prices)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	last := tbl.Rows[tbl.Len()-1]
	if last[ColSMA5] > last[ColClose] || last[ColSMA20] > last[ColClose] {
		t.Fatalf("moving averages above close: sma5=%v sma20=%v close=%v", last[ColSMA5], last[ColSMA20], last[ColClose])
	}
}

func TestBuild_NoUndefinedCells(t *testing.T) {
	series := map[string][]float64{
		"min length": linear(20, 5, 7),
		"flat":       constant(50, 42),
		"zigzag": func() []float64 {
			out := make([]float64, 60)
			for i := range out {
				out[i] = 100 + 5*math.Sin(float64(i)/3)
			}
			return out
		}(),
	}
	for name, prices := range series {
		tbl, err := Build(prices)
		if err != nil {
			t.Fatalf("%s: build: %v", name, err)
		}
		if tbl.Len() != len(prices) {
			t.Fatalf("%s: rows=%d want %d", name, tbl.Len(), len(prices))
		}
		for i, row := range tbl.Rows {
			for c, v := range row {
				if math.IsNaN(v) || math.IsInf(v, 0) {
					t.Fatalf("%s: row %d column %s undefined", name, i, ColumnNames[c])
				}
			}
			if row[ColRSI] < 0 || row[ColRSI] > 100 {
				t.Fatalf("%s: rsi out of range at %d: %v", name, i, row[ColRSI])
			}
		}
	}
}

func TestBuild_BackfillsWarmup(t *testing.T) {
	prices := linear(30, 10, 39)
	tbl, err := Build(prices)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	// first defined SMA_20 is at index 19 and is copied backwards
	if tbl.Rows[0][ColSMA20] != tbl.Rows[LongSMAPeriod-1][ColSMA20] {
		t.Fatalf("sma20 warm-up not backfilled: %v vs %v", tbl.Rows[0][ColSMA20], tbl.Rows[LongSMAPeriod-1][ColSMA20])
	}
	if tbl.Rows[0][ColClose] != prices[0] {
		t.Fatalf("close column altered")
	}
}

func TestBuild_Errors(t *testing.T) {
	if _, err := Build(nil); !errors.Is(err, ErrEmptySeries) {
		t.Fatalf("expected ErrEmptySeries, got %v", err)
	}
	if _, err := Build([]float64{1, 2, -3}); !errors.Is(err, ErrInvalidPrice) {
		t.Fatalf("expected ErrInvalidPrice, got %v", err)
	}
	if _, err := Build([]float64{1, math.NaN()}); !errors.Is(err, ErrInvalidPrice) {
		t.Fatalf("expected ErrInvalidPrice for NaN, got %v", err)
	}
	if _, err := Build(linear(10, 1, 2)); !errors.Is(err, ErrUndefinedFeature) {
		t.Fatalf("expected ErrUndefinedFeature for short series, got %v", err)
	}
}

func TestDisplaySeries(t *testing.T) {
	prices := []float64{100, 110, 99}
	ret := DailyReturns(prices)
	assertClose(t, "ret[0]", ret[0], 0, 0)
	assertClose(t, "ret[1]", ret[1], 10, 1e-9)
	assertClose(t, "ret[2]", ret[2], -10, 1e-9)

	rsi := DisplayRSI(prices)
	for i, v := range rsi {
		if v != 0 {
			t.Fatalf("short series display rsi[%d]=%v, want 0", i, v)
		}
	}

	pct, ok := LastChangePercent(prices)
	if !ok {
		t.Fatalf("expected change")
	}
	assertClose(t, "last change", pct, -10, 1e-9)
	if _, ok := LastChangePercent(prices[:1]); ok {
		t.Fatalf("single price has no change")
	}
}
