package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"StockCast/internal/domain/models"
	domrepo "StockCast/internal/domain/repository"
	"StockCast/internal/domain/service"
	"StockCast/internal/services/features"
	applogger "StockCast/pkg/logger"
	"StockCast/pkg/util"

	"github.com/google/uuid"
)

// DaysPerMonth converts a months lookback into a calendar-day range.
const DaysPerMonth = 30

// ForecastConfig bounds a report request.
type ForecastConfig struct {
	DefaultMonths int
	MaxMonths     int
	Timeout       time.Duration
	ProfileWait   time.Duration
}

// ForecastUseCase builds the stock report: history, display series, profile
// and a freshly trained forecast.
type ForecastUseCase struct {
	provider   domrepo.PriceProvider
	forecaster service.Forecaster
	journal    domrepo.Journal
	publisher  domrepo.Publisher
	metrics    domrepo.Metrics
	log        *applogger.Logger
	cfg        ForecastConfig
	now        func() time.Time
}

func NewForecastUseCase(
	provider domrepo.PriceProvider,
	forecaster service.Forecaster,
	journal domrepo.Journal,
	publisher domrepo.Publisher,
	metrics domrepo.Metrics,
	log *applogger.Logger,
	cfg ForecastConfig,
) *ForecastUseCase {
	if cfg.DefaultMonths <= 0 {
		cfg.DefaultMonths = 6
	}
	if cfg.MaxMonths < cfg.DefaultMonths {
		cfg.MaxMonths = cfg.DefaultMonths
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.ProfileWait <= 0 {
		cfg.ProfileWait = 5 * time.Second
	}
	if log == nil {
		log = applogger.NewNop()
	}
	return &ForecastUseCase{
		provider:   provider,
		forecaster: forecaster,
		journal:    journal,
		publisher:  publisher,
		metrics:    metrics,
		log:        log.With("forecast_usecase"),
		cfg:        cfg,
		now:        time.Now,
	}
}

// NormalizeSymbol trims and upper-cases a ticker. GSPC is accepted as the
// S&P 500 index.
func NormalizeSymbol(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "GSPC" {
		return "^GSPC"
	}
	return s
}

// Report fetches months of daily history for symbol and returns the full
// dashboard report. Empty history yields models.ErrNoData; forecast errors
// fail the report, profile errors only degrade it.
func (uc *ForecastUseCase) Report(ctx context.Context, symbol string, months int) (*models.StockReport, error) {
	symbol = NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}
	if months <= 0 {
		months = uc.cfg.DefaultMonths
	}
	months = min(months, uc.cfg.MaxMonths)

	from, to := util.LookbackRange(uc.now(), months*DaysPerMonth)

	start := time.Now()
	hist, err := uc.provider.History(ctx, symbol, from, to)
	uc.metrics.RecordLatency("history", time.Since(start).Seconds())
	if err != nil {
		uc.metrics.RecordError("history")
		return nil, err
	}
	if hist.Len() == 0 {
		return nil, fmt.Errorf("%s: %w", symbol, models.ErrNoData)
	}
	if err := uc.journal.StoreBars(ctx, hist); err != nil {
		uc.log.Warn("journal bars failed", applogger.String("symbol", symbol), applogger.Error(err))
	}

	prices := hist.Closes()

	var (
		wg       sync.WaitGroup
		forecast models.Forecast
		fErr     error
		info     models.StockInfo
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		fctx, cancel := context.WithTimeout(ctx, uc.cfg.Timeout)
		defer cancel()
		forecast, fErr = uc.forecaster.Forecast(fctx, prices)
	}()
	go func() {
		defer wg.Done()
		pctx, cancel := context.WithTimeout(ctx, uc.cfg.ProfileWait)
		defer cancel()
		p, err := uc.provider.Profile(pctx, symbol)
		if err != nil {
			uc.metrics.RecordError("profile")
			uc.log.Warn("profile lookup failed", applogger.String("symbol", symbol), applogger.Error(err))
		}
		info = p.WithFallbacks(symbol)
	}()
	wg.Wait()

	if fErr != nil {
		uc.metrics.RecordError("forecast")
		return nil, fmt.Errorf("forecast %s: %w", symbol, fErr)
	}
	uc.metrics.RecordLatency("forecast", forecast.Duration.Seconds())
	uc.metrics.RecordForecast(symbol, forecast.Price)

	rsi := features.DisplayRSI(prices)
	last, _ := hist.Last()
	report := &models.StockReport{
		Symbol:  symbol,
		Dates:   hist.Dates(),
		Prices:  prices,
		Volume:  hist.Volumes(),
		RSI:     rsi,
		Returns: features.DailyReturns(prices),
		Metrics: models.ReportMetrics{
			CurrentPrice:   last.Close,
			PredictedPrice: &forecast.Price,
			RSI:            &rsi[len(rsi)-1],
		},
		Info:     info,
		Forecast: &forecast,
	}
	if pct, ok := features.LastChangePercent(prices); ok {
		report.Metrics.PriceChange = &pct
	}

	uc.emit(ctx, hist, from, to, last.Close, forecast)

	uc.log.Info("forecast issued",
		applogger.String("symbol", symbol),
		applogger.Int("bars", hist.Len()),
		applogger.Float64("current", last.Close),
		applogger.Float64("predicted", forecast.Price),
		applogger.Duration("train", forecast.Duration),
	)
	return report, nil
}

// emit journals and publishes the forecast. Both sinks are best effort.
func (uc *ForecastUseCase) emit(ctx context.Context, hist *models.PriceHistory, from, to time.Time, current float64, f models.Forecast) {
	ev := &models.ForecastEvent{
		ID:             uuid.NewString(),
		Symbol:         hist.Symbol,
		Provider:       hist.Provider,
		From:           from,
		To:             to,
		Bars:           hist.Len(),
		CurrentPrice:   current,
		PredictedPrice: f.Price,
		HoldoutRMSE:    f.HoldoutRMSE,
		TrainMillis:    f.Duration.Milliseconds(),
		CreatedAt:      uc.now(),
	}
	if err := uc.journal.StoreForecast(ctx, ev); err != nil {
		uc.metrics.RecordError("journal")
		uc.log.Warn("journal forecast failed", applogger.String("symbol", ev.Symbol), applogger.Error(err))
	} else {
		uc.metrics.RecordEvent("journal")
	}
	if err := uc.publisher.Publish(ctx, ev); err != nil {
		uc.metrics.RecordError("publish")
		uc.log.Warn("publish forecast failed", applogger.String("symbol", ev.Symbol), applogger.Error(err))
	} else {
		uc.metrics.RecordEvent("publish")
	}
}

// RecentForecasts lists journaled forecasts for symbol, newest first.
func (uc *ForecastUseCase) RecentForecasts(ctx context.Context, symbol string, limit int) ([]*models.ForecastEvent, error) {
	symbol = NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}
	events, err := uc.journal.RecentForecasts(ctx, symbol, limit)
	if err != nil {
		uc.metrics.RecordError("journal")
		return nil, err
	}
	return events, nil
}

