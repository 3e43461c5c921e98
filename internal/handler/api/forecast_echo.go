package api

import (
	"context"
	"net/http"

	"StockCast/internal/domain/models"
	"StockCast/internal/service/ratelimit"
	"StockCast/internal/usecase"
	xhttp "StockCast/pkg/http"
	xlogger "StockCast/pkg/logger"
	"StockCast/pkg/util"

	"github.com/labstack/echo/v4"
)

const (
	defaultRecentLimit = 20
	maxRecentLimit     = 200
)

// Reporter builds stock reports.
type Reporter interface {
	Report(ctx context.Context, symbol string, months int) (*models.StockReport, error)
	RecentForecasts(ctx context.Context, symbol string, limit int) ([]*models.ForecastEvent, error)
}

// QuickStatser returns the dashboard header values.
type QuickStatser interface {
	Get(ctx context.Context) (*models.QuickStats, error)
}

// ForecastEchoHandler serves the forecast JSON endpoints.
type ForecastEchoHandler struct {
	logger  *xlogger.Logger
	reports Reporter
	quick   QuickStatser
	limiter *ratelimit.Limiter
}

func NewForecastEchoHandler(logger *xlogger.Logger, reports Reporter, quick QuickStatser, limiter *ratelimit.Limiter) *ForecastEchoHandler {
	if logger == nil {
		logger = xlogger.NewNop()
	}
	return &ForecastEchoHandler{logger: logger.With("forecast_handler"), reports: reports, quick: quick, limiter: limiter}
}

func (h *ForecastEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/predict", h.Predict, RateLimit(h.limiter, h.logger))
	e.GET("/quick_stats", h.QuickStats)
	e.GET("/forecasts/:symbol", h.Recent)
}

func (h *ForecastEchoHandler) Predict(c echo.Context) error {
	req := &models.PredictRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	symbol := usecase.NormalizeSymbol(req.Symbol)

	report, err := h.reports.Report(c.Request().Context(), symbol, req.Months)
	if err != nil {
		appErr := toAppError(symbol, err)
		if appErr.Status >= http.StatusInternalServerError {
			h.logger.Error("predict failed", xlogger.String("symbol", symbol), xlogger.Error(err))
		} else {
			h.logger.Warn("predict rejected", xlogger.String("symbol", symbol), xlogger.Error(err))
		}
		return xhttp.AppErrorResponse(c, appErr)
	}
	return xhttp.SuccessResponse(c, toPredictResponse(report))
}

func (h *ForecastEchoHandler) QuickStats(c echo.Context) error {
	s, err := h.quick.Get(c.Request().Context())
	if err != nil {
		h.logger.Error("quick stats failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, toAppError("^GSPC", err))
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=60")
	return xhttp.SuccessResponse(c, QuickStatsResponse{
		SP500Value: util.Float(s.SP500Value),
		Timestamp:  util.FormatTimestamp(s.Timestamp),
	})
}

// Recent lists journaled forecasts; limit is clamped to [1, 200].
func (h *ForecastEchoHandler) Recent(c echo.Context) error {
	symbol := usecase.NormalizeSymbol(c.Param("symbol"))
	limit := util.ClampInt(util.ParseIntDefault(c.QueryParam("limit"), defaultRecentLimit), 1, maxRecentLimit)

	events, err := h.reports.RecentForecasts(c.Request().Context(), symbol, limit)
	if err != nil {
		h.logger.Error("recent forecasts failed", xlogger.String("symbol", symbol), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, toAppError(symbol, err))
	}
	return xhttp.SuccessResponse(c, toForecastEvents(events))
}
