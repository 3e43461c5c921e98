package repository

import (
	"context"
	"time"

	"StockCast/internal/domain/models"
)

// PriceProvider fetches daily history and company profiles from a market
// data source.
type PriceProvider interface {
	Name() string
	History(ctx context.Context, symbol string, from, to time.Time) (*models.PriceHistory, error)
	Profile(ctx context.Context, symbol string) (models.StockInfo, error)
}

// Publisher emits forecast events to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, ev *models.ForecastEvent) error
	Close() error
}

// Journal records fetched bars and issued forecasts.
type Journal interface {
	Init(ctx context.Context) error // ensure tables
	StoreBars(ctx context.Context, h *models.PriceHistory) error
	StoreForecast(ctx context.Context, ev *models.ForecastEvent) error
	RecentForecasts(ctx context.Context, symbol string, limit int) ([]*models.ForecastEvent, error)
	Health(ctx context.Context) error // ping
	Close() error
}

type Metrics interface {
	RecordForecast(symbol string, price float64)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
	RecordCacheLookup(hit bool)
	RecordEvent(backend string)
}
