package forecast

import (
	"context"
	"errors"
	"math"
	"testing"

	"StockCast/internal/services/forest"
)

func linear(n int, from, to float64) []float64 {
	out := make([]float64, n)
	step := (to - from) / float64(n-1)
	for i := range out {
		out[i] = from + float64(i)*step
	}
	return out
}

func wave(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		x := float64(i)
		out[i] = 100 + 8*math.Sin(x/5) + 3*math.Cos(x/2) + x/10
	}
	return out
}

func TestPredict_ShortSeriesFails(t *testing.T) {
	p := New()
	got, err := p.Predict(context.Background(), []float64{10, 11, 12, 13, 14})
	if !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got value=%v err=%v", got, err)
	}
}

func TestPredict_BelowMinPricesFails(t *testing.T) {
	p := New()
	for _, n := range []int{p.WindowSize() + 1, 15, p.MinPrices() - 1} {
		_, err := p.Predict(context.Background(), linear(n, 10, 12))
		if !errors.Is(err, ErrInsufficientData) {
			t.Fatalf("n=%d: expected ErrInsufficientData, got %v", n, err)
		}
	}
	if _, err := p.Predict(context.Background(), linear(p.MinPrices(), 10, 12)); err != nil {
		t.Fatalf("n=%d: %v", p.MinPrices(), err)
	}
}

func TestPredict_Deterministic(t *testing.T) {
	prices := wave(120)
	a, err := New().Predict(context.Background(), prices)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	b, err := New().Predict(context.Background(), prices)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	cfg := forest.DefaultConfig()
	cfg.Parallel = false
	c, err := New(WithForest(cfg)).Predict(context.Background(), prices)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if a != b || a != c {
		t.Fatalf("non-deterministic forecast: %v, %v, %v", a, b, c)
	}
}

func TestPredict_LinearTrend(t *testing.T) {
	prices := linear(100, 10, 20)
	f, err := New().Forecast(context.Background(), prices)
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}
	if f.Price < 19 || f.Price > 21 {
		t.Fatalf("forecast %v outside [19, 21]", f.Price)
	}
	if f.Window != 10 || f.TrainExamples != 72 || f.TestExamples != 18 {
		t.Fatalf("unexpected split: window=%d train=%d test=%d", f.Window, f.TrainExamples, f.TestExamples)
	}
	if f.HoldoutRMSE > 0.5 {
		t.Fatalf("hold-out rmse too large: %v", f.HoldoutRMSE)
	}
	if f.Target != "delta" {
		t.Fatalf("target=%q", f.Target)
	}
}

func TestPredict_LinearTrendTrainOnlyScaling(t *testing.T) {
	got, err := New(WithScaleMode(ScaleTrainOnly)).Predict(context.Background(), linear(100, 10, 20))
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if got < 19 || got > 21 {
		t.Fatalf("forecast %v outside [19, 21]", got)
	}
}

func TestPredict_LevelTargetCannotExceedTrainingCloses(t *testing.T) {
	prices := linear(100, 10, 20)
	got, err := New(WithTargetMode(TargetLevel)).Predict(context.Background(), prices)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	// last training target is row 81
	if ceiling := prices[81]; got > ceiling+1e-9 {
		t.Fatalf("level forecast %v above highest training close %v", got, ceiling)
	}
}

func TestPredict_ConstantSeries(t *testing.T) {
	prices := make([]float64, 50)
	for i := range prices {
		prices[i] = 42.0
	}
	got, err := New().Predict(context.Background(), prices)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if math.Abs(got-42.0) > 1e-9 {
		t.Fatalf("forecast=%v want 42", got)
	}
}

func TestPredict_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New().Predict(ctx, wave(60)); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestPredict_BadOptions(t *testing.T) {
	if _, err := New(WithWindowSize(0)).Predict(context.Background(), wave(40)); err == nil {
		t.Fatalf("expected error for zero window")
	}
	if _, err := New(WithTestFraction(1.5)).Predict(context.Background(), wave(40)); err == nil {
		t.Fatalf("expected error for bad test fraction")
	}
}

func TestMinMaxScaler(t *testing.T) {
	rows := [][]float64{{1, 5}, {3, 5}, {2, 5}}
	s := &MinMaxScaler{}
	if _, err := s.Transform(rows); !errors.Is(err, ErrScalerNotFitted) {
		t.Fatalf("expected ErrScalerNotFitted, got %v", err)
	}
	scaled, err := s.FitTransform(rows)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	want := [][]float64{{0, 0}, {1, 0}, {0.5, 0}}
	for i := range want {
		for j := range want[i] {
			if scaled[i][j] != want[i][j] {
				t.Fatalf("scaled[%d][%d]=%v want %v", i, j, scaled[i][j], want[i][j])
			}
		}
	}
	back, err := s.InverseTransform([]float64{0.5, 0})
	if err != nil {
		t.Fatalf("inverse: %v", err)
	}
	if back[0] != 2 || back[1] != 5 {
		t.Fatalf("inverse=%v want [2 5]", back)
	}
	if err := s.Fit([][]float64{{math.NaN()}}); !errors.Is(err, ErrDegenerateScaler) {
		t.Fatalf("expected ErrDegenerateScaler, got %v", err)
	}
}

func TestBuildWindows(t *testing.T) {
	rows := [][]float64{{0, 9}, {1, 9}, {3, 9}, {6, 9}}
	ds, err := BuildWindows(rows, 2, 0, TargetLevel)
	if err != nil {
		t.Fatalf("windows: %v", err)
	}
	if ds.Len() != 2 {
		t.Fatalf("len=%d want 2", ds.Len())
	}
	wantX := []float64{1, 9, 3, 9}
	for i, v := range wantX {
		if ds.X[1][i] != v {
			t.Fatalf("X[1]=%v want %v", ds.X[1], wantX)
		}
	}
	if ds.Y[0] != 3 || ds.Y[1] != 6 {
		t.Fatalf("level targets=%v", ds.Y)
	}

	delta, err := BuildWindows(rows, 2, 0, TargetDelta)
	if err != nil {
		t.Fatalf("windows: %v", err)
	}
	if delta.Y[0] != 2 || delta.Y[1] != 3 {
		t.Fatalf("delta targets=%v", delta.Y)
	}
	if delta.Level(1, delta.Y[1]) != 6 {
		t.Fatalf("level reconstruction=%v want 6", delta.Level(1, delta.Y[1]))
	}

	if _, err := BuildWindows(rows, 4, 0, TargetLevel); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}

func TestSplitSizes(t *testing.T) {
	for _, tc := range []struct{ n, train, test int }{{90, 72, 18}, {10, 8, 2}, {11, 8, 3}, {2, 1, 1}} {
		train, test, err := SplitSizes(tc.n, DefaultTestFraction)
		if err != nil {
			t.Fatalf("n=%d: %v", tc.n, err)
		}
		if train != tc.train || test != tc.test {
			t.Fatalf("n=%d: got %d/%d want %d/%d", tc.n, train, test, tc.train, tc.test)
		}
	}
	if _, _, err := SplitSizes(1, DefaultTestFraction); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}

func TestParseModes(t *testing.T) {
	if m, err := ParseTargetMode("level"); err != nil || m != TargetLevel {
		t.Fatalf("level: %v %v", m, err)
	}
	if _, err := ParseTargetMode("bogus"); err == nil {
		t.Fatalf("expected error")
	}
	if m, err := ParseScaleMode("train_only"); err != nil || m != ScaleTrainOnly {
		t.Fatalf("train_only: %v %v", m, err)
	}
}
