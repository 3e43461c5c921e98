package twelvedata

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"StockCast/internal/domain/models"
	drepo "StockCast/internal/domain/repository"
	xhttp "StockCast/pkg/http"
	applogger "StockCast/pkg/logger"
)

const (
	DefaultBaseURL = "https://api.twelvedata.com"
	ProviderName   = "twelvedata"

	dailyInterval = "1day"
	maxOutputSize = "5000"
)

// Client is the Twelve Data PriceProvider.
type Client struct {
	http    *xhttp.Client
	baseURL string
	apiKey  string
	log     *applogger.Logger
}

// New creates a Twelve Data PriceProvider.
func New(hc *xhttp.Client, baseURL, apiKey string, log *applogger.Logger) drepo.PriceProvider {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if log == nil {
		log = applogger.NewNop()
	}
	return &Client{
		http:    hc,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		log:     log.With("twelvedata"),
	}
}

func (c *Client) Name() string { return ProviderName }

// status is embedded in every response; errors come back as 200 with
// status "error" on some plans.
type status struct {
	Status  string `json:"status"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (s status) err(op, symbol string) error {
	if s.Status != "error" {
		return nil
	}
	if s.Code == http.StatusNotFound || s.Code == http.StatusBadRequest {
		return fmt.Errorf("twelvedata %s %s: %s: %w", op, symbol, s.Message, models.ErrNoData)
	}
	return fmt.Errorf("twelvedata %s %s: %s: %w", op, symbol, s.Message, models.ErrProviderFailed)
}

type timeSeriesResponse struct {
	status
	Meta struct {
		Symbol   string `json:"symbol"`
		Interval string `json:"interval"`
	} `json:"meta"`
	Values []struct {
		Datetime string  `json:"datetime"`
		Open     float64 `json:"open,string"`
		High     float64 `json:"high,string"`
		Low      float64 `json:"low,string"`
		Close    float64 `json:"close,string"`
		Volume   float64 `json:"volume,string,omitempty"`
	} `json:"values"`
}

func (c *Client) get(ctx context.Context, path string, params map[string][]string, dest interface{}) error {
	params["apikey"] = []string{c.apiKey}
	return c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         c.baseURL + path,
		QueryParams: params,
	}, dest)
}

// History returns daily bars in [from, to], oldest first.
func (c *Client) History(ctx context.Context, symbol string, from, to time.Time) (*models.PriceHistory, error) {
	var resp timeSeriesResponse
	err := c.get(ctx, "/time_series", map[string][]string{
		"symbol":     {symbol},
		"interval":   {dailyInterval},
		"start_date": {from.Format(time.DateOnly)},
		"end_date":   {to.Format(time.DateOnly)},
		"outputsize": {maxOutputSize},
		"order":      {"ASC"},
	}, &resp)
	if err != nil {
		if xhttp.IsStatus(err, http.StatusNotFound) {
			return nil, fmt.Errorf("twelvedata time_series %s: %w", symbol, models.ErrNoData)
		}
		return nil, fmt.Errorf("twelvedata time_series %s: %w: %w", symbol, models.ErrProviderFailed, err)
	}
	if err := resp.err("time_series", symbol); err != nil {
		return nil, err
	}

	sort.Slice(resp.Values, func(i, j int) bool {
		return resp.Values[i].Datetime < resp.Values[j].Datetime
	})

	h := &models.PriceHistory{
		Symbol:   symbol,
		Provider: ProviderName,
		Bars:     make([]models.PriceBar, 0, len(resp.Values)),
	}
	for _, v := range resp.Values {
		day, err := time.Parse(time.DateOnly, v.Datetime[:min(len(v.Datetime), len(time.DateOnly))])
		if err != nil {
			c.log.Warn("skipping bar with bad datetime",
				applogger.String("symbol", symbol),
				applogger.String("datetime", v.Datetime),
			)
			continue
		}
		h.Bars = append(h.Bars, models.PriceBar{
			Symbol: symbol,
			Date:   day,
			Open:   v.Open,
			High:   v.High,
			Low:    v.Low,
			Close:  v.Close,
			Volume: v.Volume,
		})
	}

	c.log.Debug("fetched history",
		applogger.String("symbol", symbol),
		applogger.Int("bars", len(h.Bars)),
	)
	return h, nil
}

type profileResponse struct {
	status
	Name        string `json:"name"`
	Sector      string `json:"sector"`
	Industry    string `json:"industry"`
	Description string `json:"description"`
}

type statisticsResponse struct {
	status
	Statistics struct {
		ValuationsMetrics struct {
			MarketCapitalization *float64 `json:"market_capitalization"`
			ForwardPE            *float64 `json:"forward_pe"`
		} `json:"valuations_metrics"`
	} `json:"statistics"`
}

// Profile combines /profile with /statistics. Statistics are not available
// on every plan, so their failure only leaves the numbers empty.
func (c *Client) Profile(ctx context.Context, symbol string) (models.StockInfo, error) {
	var p profileResponse
	if err := c.get(ctx, "/profile", map[string][]string{"symbol": {symbol}}, &p); err != nil {
		return models.StockInfo{}, fmt.Errorf("twelvedata profile %s: %w: %w", symbol, models.ErrProviderFailed, err)
	}
	if err := p.err("profile", symbol); err != nil {
		return models.StockInfo{}, err
	}

	info := models.StockInfo{
		Name:        p.Name,
		Sector:      p.Sector,
		Industry:    p.Industry,
		Description: p.Description,
	}

	var s statisticsResponse
	err := c.get(ctx, "/statistics", map[string][]string{"symbol": {symbol}}, &s)
	if err == nil {
		err = s.err("statistics", symbol)
	}
	if err != nil {
		c.log.Debug("statistics unavailable", applogger.String("symbol", symbol), applogger.Error(err))
		return info, nil
	}
	info.MarketCap = s.Statistics.ValuationsMetrics.MarketCapitalization
	info.PERatio = s.Statistics.ValuationsMetrics.ForwardPE
	return info, nil
}
