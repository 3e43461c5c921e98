// Package forecast trains a windowed random-forest regressor on engineered
// price features and returns a one-step-ahead close.
//
// A run goes: features.Build, min-max scaling, sliding windows, positional
// train/test split, forest fit, prediction on the hold-out windows. The last
// hold-out prediction is the forecast; it is mapped back to price units by
// inverse-scaling a row that is zero except for the close column.
package forecast

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"StockCast/internal/domain/models"
	"StockCast/internal/services/features"
	"StockCast/internal/services/forest"
	"StockCast/pkg/logger"
)

const (
	DefaultWindowSize   = 10
	DefaultTestFraction = 0.2
)

// ErrInsufficientData means the series cannot produce both a training and a
// hold-out window.
var ErrInsufficientData = errors.New("forecast: insufficient data")

// ScaleMode selects which rows the scaler is fitted on.
type ScaleMode int

const (
	// ScaleGlobal fits on every row, hold-out rows included.
	ScaleGlobal ScaleMode = iota
	// ScaleTrainOnly fits on the rows that feed training examples.
	ScaleTrainOnly
)

// ParseScaleMode accepts "global" or "train_only".
func ParseScaleMode(s string) (ScaleMode, error) {
	switch s {
	case "global", "":
		return ScaleGlobal, nil
	case "train_only":
		return ScaleTrainOnly, nil
	}
	return 0, fmt.Errorf("forecast: unknown scale mode %q", s)
}

// Predictor holds immutable options; every call builds its own scaler and
// model, so one Predictor is safe for concurrent use.
type Predictor struct {
	window       int
	testFraction float64
	target       TargetMode
	scaling      ScaleMode
	forest       forest.Config
	log          *logger.Logger
}

type Option func(*Predictor)

func WithWindowSize(n int) Option {
	return func(p *Predictor) { p.window = n }
}

func WithTestFraction(f float64) Option {
	return func(p *Predictor) { p.testFraction = f }
}

func WithTargetMode(m TargetMode) Option {
	return func(p *Predictor) { p.target = m }
}

func WithScaleMode(m ScaleMode) Option {
	return func(p *Predictor) { p.scaling = m }
}

func WithForest(cfg forest.Config) Option {
	return func(p *Predictor) { p.forest = cfg }
}

func WithLogger(l *logger.Logger) Option {
	return func(p *Predictor) {
		if l != nil {
			p.log = l
		}
	}
}

// New returns a predictor with a window of 10, a 20% hold-out, delta targets,
// global scaling and a 200-tree forest seeded with 42.
func New(opts ...Option) *Predictor {
	p := &Predictor{
		window:       DefaultWindowSize,
		testFraction: DefaultTestFraction,
		target:       TargetDelta,
		scaling:      ScaleGlobal,
		forest:       forest.DefaultConfig(),
		log:          logger.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// WindowSize returns the configured window.
func (p *Predictor) WindowSize() int { return p.window }

// MinPrices is the shortest series that can yield a forecast.
func (p *Predictor) MinPrices() int {
	return max(p.window+2, features.LongSMAPeriod)
}

// Predict returns the forecast close for prices.
func (p *Predictor) Predict(ctx context.Context, prices []float64) (float64, error) {
	f, err := p.Forecast(ctx, prices)
	if err != nil {
		return 0, err
	}
	return f.Price, nil
}

// Forecast runs the full pipeline and reports training diagnostics with the price.
func (p *Predictor) Forecast(ctx context.Context, prices []float64) (models.Forecast, error) {
	start := time.Now()
	if p.window <= 0 {
		return models.Forecast{}, fmt.Errorf("forecast: window must be positive, got %d", p.window)
	}
	if need := p.MinPrices(); len(prices) < need {
		return models.Forecast{}, fmt.Errorf("%w: %d prices, need %d", ErrInsufficientData, len(prices), need)
	}

	table, err := features.Build(prices)
	if err != nil {
		return models.Forecast{}, fmt.Errorf("build features: %w", err)
	}
	rows := table.Matrix()
	examples := len(rows) - p.window
	nTrain, nTest, err := SplitSizes(examples, p.testFraction)
	if err != nil {
		return models.Forecast{}, err
	}
	if err := ctx.Err(); err != nil {
		return models.Forecast{}, fmt.Errorf("forecast: %w", err)
	}

	scaler := &MinMaxScaler{}
	fitRows := rows
	if p.scaling == ScaleTrainOnly {
		fitRows = rows[:nTrain+p.window]
	}
	if err := scaler.Fit(fitRows); err != nil {
		return models.Forecast{}, fmt.Errorf("fit scaler: %w", err)
	}
	scaled, err := scaler.Transform(rows)
	if err != nil {
		return models.Forecast{}, fmt.Errorf("scale features: %w", err)
	}

	ds, err := BuildWindows(scaled, p.window, features.ColClose, p.target)
	if err != nil {
		return models.Forecast{}, err
	}
	train, test := ds.Slice(0, nTrain), ds.Slice(nTrain, examples)

	model := forest.NewRegressor(p.forest)
	if err := model.Fit(ctx, train.X, train.Y); err != nil {
		return models.Forecast{}, err
	}
	if err := ctx.Err(); err != nil {
		return models.Forecast{}, fmt.Errorf("forecast: %w", err)
	}
	outputs, err := model.PredictBatch(test.X)
	if err != nil {
		return models.Forecast{}, fmt.Errorf("predict hold-out: %w", err)
	}

	var sq, last float64
	for i, y := range outputs {
		price, err := unscaleClose(scaler, test.Level(i, y))
		if err != nil {
			return models.Forecast{}, err
		}
		actual := prices[nTrain+i+p.window]
		sq += (price - actual) * (price - actual)
		last = price
	}

	out := models.Forecast{
		Price:         last,
		Window:        p.window,
		TrainExamples: nTrain,
		TestExamples:  nTest,
		HoldoutRMSE:   math.Sqrt(sq / float64(nTest)),
		Target:        p.target.String(),
		Duration:      time.Since(start),
	}
	p.log.Debug("forecast trained",
		logger.Int("prices", len(prices)),
		logger.Int("train", nTrain),
		logger.Int("test", nTest),
		logger.Float64("price", out.Price),
		logger.Float64("rmse", out.HoldoutRMSE),
		logger.Duration("duration_ms", out.Duration),
	)
	return out, nil
}

func unscaleClose(s *MinMaxScaler, scaledClose float64) (float64, error) {
	dummy := make([]float64, s.Width())
	dummy[features.ColClose] = scaledClose
	row, err := s.InverseTransform(dummy)
	if err != nil {
		return 0, fmt.Errorf("inverse scale: %w", err)
	}
	return row[features.ColClose], nil
}
