package models

import "time"

// Forecast is a one-step-ahead close prediction with training diagnostics.
type Forecast struct {
	Price         float64       `json:"price"`
	Window        int           `json:"window"`
	TrainExamples int           `json:"train_examples"`
	TestExamples  int           `json:"test_examples"`
	HoldoutRMSE   float64       `json:"holdout_rmse"`
	Target        string        `json:"target"`
	Duration      time.Duration `json:"-"`
}

// ForecastEvent is published and journaled after every successful forecast.
type ForecastEvent struct {
	ID             string    `json:"id"`
	Symbol         string    `json:"symbol"`
	Provider       string    `json:"provider"`
	From           time.Time `json:"from"`
	To             time.Time `json:"to"`
	Bars           int       `json:"bars"`
	CurrentPrice   float64   `json:"current_price"`
	PredictedPrice float64   `json:"predicted_price"`
	HoldoutRMSE    float64   `json:"holdout_rmse"`
	TrainMillis    int64     `json:"train_ms"`
	CreatedAt      time.Time `json:"created_at"`
}

// ReportMetrics are the headline numbers of a stock report. Nil pointers mark
// values that could not be computed.
type ReportMetrics struct {
	CurrentPrice   float64
	PredictedPrice *float64
	PriceChange    *float64
	RSI            *float64
}

// StockReport is everything the dashboard shows for one symbol.
type StockReport struct {
	Symbol   string
	Dates    []string
	Prices   []float64
	Volume   []float64
	RSI      []float64
	Returns  []float64
	Metrics  ReportMetrics
	Info     StockInfo
	Forecast *Forecast
}

// QuickStats is the header ticker of the dashboard.
type QuickStats struct {
	SP500Value float64
	Timestamp  time.Time
}
