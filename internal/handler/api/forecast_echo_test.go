package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"StockCast/internal/domain/models"
	"StockCast/internal/service/ratelimit"
	"StockCast/internal/services/forecast"

	"github.com/labstack/echo/v4"
)

type fakeReporter struct {
	report    *models.StockReport
	err       error
	gotSymbol string
	gotMonths int
	gotLimit  int
	recent    []*models.ForecastEvent
	recentErr error
}

func (f *fakeReporter) Report(_ context.Context, symbol string, months int) (*models.StockReport, error) {
	f.gotSymbol, f.gotMonths = symbol, months
	return f.report, f.err
}

func (f *fakeReporter) RecentForecasts(_ context.Context, symbol string, limit int) ([]*models.ForecastEvent, error) {
	f.gotSymbol, f.gotLimit = symbol, limit
	return f.recent, f.recentErr
}

type fakeQuick struct {
	stats *models.QuickStats
	err   error
}

func (f fakeQuick) Get(context.Context) (*models.QuickStats, error) { return f.stats, f.err }

func sampleReport() *models.StockReport {
	pred, change, rsi := 187.25, 1.5, 62.0
	mcap := 2.9e12
	return &models.StockReport{
		Symbol:  "AAPL",
		Dates:   []string{"2024-06-27", "2024-06-28"},
		Prices:  []float64{184.5, 187.2},
		Volume:  []float64{1000, 0},
		RSI:     []float64{0, 62},
		Returns: []float64{0, math.NaN()},
		Metrics: models.ReportMetrics{
			CurrentPrice:   187.2,
			PredictedPrice: &pred,
			PriceChange:    &change,
			RSI:            &rsi,
		},
		Info: models.StockInfo{Name: "Apple Inc.", MarketCap: &mcap}.WithFallbacks("AAPL"),
		Forecast: &models.Forecast{
			Price: pred, Window: 10, TrainExamples: 72, TestExamples: 18, HoldoutRMSE: 1.2,
			Target: "delta", Duration: 250 * time.Millisecond,
		},
	}
}

func newEcho(h *ForecastEchoHandler) *echo.Echo {
	e := echo.New()
	h.RegisterRoutes(e)
	return e
}

func do(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Status int             `json:"status"`
	Data   json.RawMessage `json:"data"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %s: %v", rec.Body.String(), err)
	}
	return env
}

func TestPredict_Success(t *testing.T) {
	rep := &fakeReporter{report: sampleReport()}
	e := newEcho(NewForecastEchoHandler(nil, rep, fakeQuick{}, nil))

	rec := do(e, http.MethodPost, "/predict", `{"symbol":" aapl "}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	if rep.gotSymbol != "AAPL" || rep.gotMonths != 6 {
		t.Fatalf("symbol=%q months=%d", rep.gotSymbol, rep.gotMonths)
	}

	var data struct {
		Dates     []string           `json:"dates"`
		Returns   []*float64         `json:"returns"`
		Metrics   map[string]float64 `json:"metrics"`
		StockInfo map[string]any     `json:"stock_info"`
		Forecast  map[string]any     `json:"forecast"`
	}
	if err := json.Unmarshal(decode(t, rec).Data, &data); err != nil {
		t.Fatalf("data: %v", err)
	}
	if len(data.Dates) != 2 || data.Returns[1] != nil {
		t.Fatalf("dates=%v returns=%v", data.Dates, data.Returns)
	}
	if data.Metrics["predicted_price"] != 187.25 || data.Metrics["current_price"] != 187.2 {
		t.Fatalf("metrics=%v", data.Metrics)
	}
	if data.StockInfo["pe_ratio"] != "N/A" || data.StockInfo["market_cap"] != 2.9e12 || data.StockInfo["sector"] != "N/A" {
		t.Fatalf("stock_info=%v", data.StockInfo)
	}
	if data.Forecast["train_ms"] != float64(250) || data.Forecast["target"] != "delta" {
		t.Fatalf("forecast=%v", data.Forecast)
	}
}

func TestPredict_ValidationErrors(t *testing.T) {
	e := newEcho(NewForecastEchoHandler(nil, &fakeReporter{}, fakeQuick{}, nil))

	rec := do(e, http.MethodPost, "/predict", `{"symbol":"AAPL","months":61}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", rec.Code)
	}
	rec = do(e, http.MethodPost, "/predict", `{"months":3}`)
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "ERR_REQUIRED") {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
}

func TestPredict_ErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		want   string
	}{
		{fmt.Errorf("ZZZZ: %w", models.ErrNoData), http.StatusNotFound, "No data found for symbol ZZZZ"},
		{fmt.Errorf("forecast: %w", forecast.ErrInsufficientData), http.StatusUnprocessableEntity, "ERR_INSUFFICIENT_DATA"},
		{fmt.Errorf("forecast: %w", context.DeadlineExceeded), http.StatusGatewayTimeout, "ERR_TIMEOUT"},
		{fmt.Errorf("yahoo: %w", models.ErrProviderFailed), http.StatusBadGateway, "ERR_UPSTREAM"},
		{errors.New("boom"), http.StatusInternalServerError, "ERR_INTERNAL"},
	}
	for _, tc := range cases {
		e := newEcho(NewForecastEchoHandler(nil, &fakeReporter{err: tc.err}, fakeQuick{}, nil))
		rec := do(e, http.MethodPost, "/predict", `{"symbol":"zzzz","months":6}`)
		if rec.Code != tc.status || !strings.Contains(rec.Body.String(), tc.want) {
			t.Errorf("%v: status=%d body=%s", tc.err, rec.Code, rec.Body.String())
		}
	}
}

func TestPredict_ShortHistoryIs422(t *testing.T) {
	prices := make([]float64, 15)
	for i := range prices {
		prices[i] = 20 + float64(i)/4
	}
	_, err := forecast.New().Predict(context.Background(), prices)
	if err == nil {
		t.Fatalf("expected error for %d prices", len(prices))
	}

	e := newEcho(NewForecastEchoHandler(nil, &fakeReporter{err: err}, fakeQuick{}, nil))
	rec := do(e, http.MethodPost, "/predict", `{"symbol":"newipo","months":1}`)
	if rec.Code != http.StatusUnprocessableEntity || !strings.Contains(rec.Body.String(), "ERR_INSUFFICIENT_DATA") {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
}

func TestPredict_RateLimited(t *testing.T) {
	rep := &fakeReporter{report: sampleReport()}
	e := newEcho(NewForecastEchoHandler(nil, rep, fakeQuick{}, ratelimit.New(0.001, 2, time.Minute)))

	for i := 0; i < 2; i++ {
		if rec := do(e, http.MethodPost, "/predict", `{"symbol":"AAPL"}`); rec.Code != http.StatusOK {
			t.Fatalf("request %d status=%d", i, rec.Code)
		}
	}
	rec := do(e, http.MethodPost, "/predict", `{"symbol":"AAPL"}`)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status=%d want 429", rec.Code)
	}
}

func TestQuickStats(t *testing.T) {
	ts := time.Date(2024, 7, 1, 15, 4, 5, 0, time.UTC)
	e := newEcho(NewForecastEchoHandler(nil, &fakeReporter{}, fakeQuick{stats: &models.QuickStats{SP500Value: 5475.09, Timestamp: ts}}, nil))

	rec := do(e, http.MethodGet, "/quick_stats", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	var raw map[string]any
	if err := json.Unmarshal(decode(t, rec).Data, &raw); err != nil {
		t.Fatalf("data: %v", err)
	}
	if raw["sp500_value"] != 5475.09 || raw["timestamp"] != "2024-07-01 15:04:05" {
		t.Fatalf("data=%v", raw)
	}

	e = newEcho(NewForecastEchoHandler(nil, &fakeReporter{}, fakeQuick{err: models.ErrProviderFailed}, nil))
	if rec := do(e, http.MethodGet, "/quick_stats", ""); rec.Code != http.StatusBadGateway {
		t.Fatalf("status=%d", rec.Code)
	}
}

func TestRecentForecasts_ClampsLimit(t *testing.T) {
	rep := &fakeReporter{recent: []*models.ForecastEvent{{ID: "a", Symbol: "AAPL", PredictedPrice: 190}}}
	e := newEcho(NewForecastEchoHandler(nil, rep, fakeQuick{}, nil))

	rec := do(e, http.MethodGet, "/forecasts/aapl?limit=5000", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	if rep.gotSymbol != "AAPL" || rep.gotLimit != maxRecentLimit {
		t.Fatalf("symbol=%q limit=%d", rep.gotSymbol, rep.gotLimit)
	}
	var events []ForecastEventResponse
	if err := json.Unmarshal(decode(t, rec).Data, &events); err != nil || len(events) != 1 || events[0].ID != "a" {
		t.Fatalf("events=%v err=%v", events, err)
	}
}

func TestRecentForecasts_EmptyJournalIsEmptyList(t *testing.T) {
	e := newEcho(NewForecastEchoHandler(nil, &fakeReporter{}, fakeQuick{}, nil))

	rec := do(e, http.MethodGet, "/forecasts/aapl", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	if got := string(decode(t, rec).Data); got != "[]" {
		t.Fatalf("data=%s want []", got)
	}
}

type failingCheck struct{}

func (failingCheck) Health(context.Context) error { return errors.New("connection refused") }

func TestHealth(t *testing.T) {
	e := echo.New()
	NewHealthHandler(nil).RegisterRoutes(e)
	if rec := do(e, http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}

	e = echo.New()
	NewHealthHandler(map[string]HealthChecker{"clickhouse": failingCheck{}}).RegisterRoutes(e)
	rec := do(e, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusServiceUnavailable || !strings.Contains(rec.Body.String(), "connection refused") {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
}
