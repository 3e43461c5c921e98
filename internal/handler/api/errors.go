package api

import (
	"context"
	"errors"

	"StockCast/internal/domain/models"
	"StockCast/internal/services/forecast"
	xhttp "StockCast/pkg/http"
)

// toAppError maps use case errors onto response errors.
func toAppError(symbol string, err error) *xhttp.AppError {
	var appErr *xhttp.AppError
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, models.ErrNoData):
		return xhttp.NotFoundErrorf("No data found for symbol %s", symbol).WithError(err)
	case errors.Is(err, forecast.ErrInsufficientData):
		return xhttp.UnprocessableError("ERR_INSUFFICIENT_DATA", "Not enough price history to train a forecast").
			WithParam("symbol", symbol).WithError(err)
	case errors.Is(err, context.DeadlineExceeded):
		return xhttp.GatewayTimeoutError("Forecast timed out").WithError(err)
	case errors.Is(err, models.ErrProviderFailed):
		return xhttp.BadGatewayError("Market data provider unavailable").WithError(err)
	default:
		return xhttp.InternalError("Something went wrong").WithError(err)
	}
}
