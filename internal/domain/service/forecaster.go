package service

import (
	"context"

	"StockCast/internal/domain/models"
)

// Forecaster trains on a close series and predicts the next close.
type Forecaster interface {
	Forecast(ctx context.Context, prices []float64) (models.Forecast, error)
}
