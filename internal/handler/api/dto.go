package api

import (
	"encoding/json"
	"time"

	"StockCast/internal/domain/models"
	"StockCast/pkg/util"

	"github.com/samber/lo"
)

// PredictResponse is the JSON body of a stock report.
type PredictResponse struct {
	Symbol    string            `json:"symbol"`
	Dates     []string          `json:"dates"`
	Prices    []util.Float      `json:"prices"`
	Volume    []util.Float      `json:"volume"`
	RSI       []util.Float      `json:"rsi"`
	Returns   []util.Float      `json:"returns"`
	Metrics   MetricsResponse   `json:"metrics"`
	StockInfo StockInfoResponse `json:"stock_info"`
	Forecast  *ForecastResponse `json:"forecast,omitempty"`
}

type MetricsResponse struct {
	CurrentPrice   util.Float  `json:"current_price"`
	PredictedPrice *util.Float `json:"predicted_price"`
	PriceChange    *util.Float `json:"price_change"`
	RSI            *util.Float `json:"rsi"`
}

type StockInfoResponse struct {
	Name        string `json:"name"`
	Sector      string `json:"sector"`
	Industry    string `json:"industry"`
	MarketCap   OrNA   `json:"market_cap"`
	PERatio     OrNA   `json:"pe_ratio"`
	Description string `json:"description"`
}

type ForecastResponse struct {
	Price         util.Float `json:"price"`
	Window        int        `json:"window"`
	TrainExamples int        `json:"train_examples"`
	TestExamples  int        `json:"test_examples"`
	HoldoutRMSE   util.Float `json:"holdout_rmse"`
	Target        string     `json:"target"`
	TrainMillis   int64      `json:"train_ms"`
}

type QuickStatsResponse struct {
	SP500Value util.Float `json:"sp500_value"`
	Timestamp  string     `json:"timestamp"`
}

type ForecastEventResponse struct {
	ID             string     `json:"id"`
	Symbol         string     `json:"symbol"`
	Provider       string     `json:"provider"`
	Bars           int        `json:"bars"`
	CurrentPrice   util.Float `json:"current_price"`
	PredictedPrice util.Float `json:"predicted_price"`
	HoldoutRMSE    util.Float `json:"holdout_rmse"`
	TrainMillis    int64      `json:"train_ms"`
	CreatedAt      time.Time  `json:"created_at"`
}

// OrNA is an optional number rendered as "N/A" when missing.
type OrNA struct {
	v *float64
}

func (o OrNA) MarshalJSON() ([]byte, error) {
	if o.v == nil {
		return json.Marshal(models.NotAvailable)
	}
	return json.Marshal(util.Float(*o.v))
}

func toPredictResponse(r *models.StockReport) PredictResponse {
	resp := PredictResponse{
		Symbol:  r.Symbol,
		Dates:   r.Dates,
		Prices:  util.Floats(r.Prices),
		Volume:  util.Floats(r.Volume),
		RSI:     util.Floats(r.RSI),
		Returns: util.Floats(r.Returns),
		Metrics: MetricsResponse{
			CurrentPrice:   util.Float(r.Metrics.CurrentPrice),
			PredictedPrice: util.FloatPtr(r.Metrics.PredictedPrice),
			PriceChange:    util.FloatPtr(r.Metrics.PriceChange),
			RSI:            util.FloatPtr(r.Metrics.RSI),
		},
		StockInfo: StockInfoResponse{
			Name:        r.Info.Name,
			Sector:      r.Info.Sector,
			Industry:    r.Info.Industry,
			MarketCap:   OrNA{r.Info.MarketCap},
			PERatio:     OrNA{r.Info.PERatio},
			Description: r.Info.Description,
		},
	}
	if f := r.Forecast; f != nil {
		resp.Forecast = &ForecastResponse{
			Price:         util.Float(f.Price),
			Window:        f.Window,
			TrainExamples: f.TrainExamples,
			TestExamples:  f.TestExamples,
			HoldoutRMSE:   util.Float(f.HoldoutRMSE),
			Target:        f.Target,
			TrainMillis:   f.Duration.Milliseconds(),
		}
	}
	return resp
}

func toForecastEvents(events []*models.ForecastEvent) []ForecastEventResponse {
	return lo.Map(events, func(ev *models.ForecastEvent, _ int) ForecastEventResponse {
		return ForecastEventResponse{
			ID:             ev.ID,
			Symbol:         ev.Symbol,
			Provider:       ev.Provider,
			Bars:           ev.Bars,
			CurrentPrice:   util.Float(ev.CurrentPrice),
			PredictedPrice: util.Float(ev.PredictedPrice),
			HoldoutRMSE:    util.Float(ev.HoldoutRMSE),
			TrainMillis:    ev.TrainMillis,
			CreatedAt:      ev.CreatedAt,
		}
	})
}
