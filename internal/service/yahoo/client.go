package yahoo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"StockCast/internal/domain/models"
	drepo "StockCast/internal/domain/repository"
	xhttp "StockCast/pkg/http"
	applogger "StockCast/pkg/logger"
)

const (
	DefaultBaseURL = "https://query1.finance.yahoo.com"
	ProviderName   = "yahoo"

	profileModules = "price,summaryProfile,summaryDetail"
)

// Client implements PriceProvider on top of the Yahoo Finance chart and
// quoteSummary endpoints.
type Client struct {
	http    *xhttp.Client
	baseURL string
	log     *applogger.Logger
}

// New creates a Yahoo Finance PriceProvider. An empty baseURL selects the
// public endpoint.
func New(hc *xhttp.Client, baseURL string, log *applogger.Logger) drepo.PriceProvider {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if log == nil {
		log = applogger.NewNop()
	}
	return &Client{
		http:    hc,
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     log.With("yahoo"),
	}
}

func (c *Client) Name() string { return ProviderName }

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol    string `json:"symbol"`
				GMTOffset int64  `json:"gmtoffset"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *apiError `json:"error"`
	} `json:"chart"`
}

type apiError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// History returns daily bars in [from, to]. Rows without a close are dropped.
func (c *Client) History(ctx context.Context, symbol string, from, to time.Time) (*models.PriceHistory, error) {
	var resp chartResponse
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    fmt.Sprintf("%s/v8/finance/chart/%s", c.baseURL, url.PathEscape(symbol)),
		QueryParams: map[string][]string{
			"period1":        {strconv.FormatInt(from.Unix(), 10)},
			"period2":        {strconv.FormatInt(to.Unix(), 10)},
			"interval":       {"1d"},
			"includePrePost": {"false"},
			"events":         {"div,splits"},
		},
	}, &resp)
	if err != nil {
		if xhttp.IsStatus(err, http.StatusNotFound) {
			return nil, fmt.Errorf("yahoo chart %s: %w", symbol, models.ErrNoData)
		}
		return nil, fmt.Errorf("yahoo chart %s: %w: %w", symbol, models.ErrProviderFailed, err)
	}
	if e := resp.Chart.Error; e != nil {
		if e.Code == "Not Found" {
			return nil, fmt.Errorf("yahoo chart %s: %s: %w", symbol, e.Description, models.ErrNoData)
		}
		return nil, fmt.Errorf("yahoo chart %s: %s: %w", symbol, e.Description, models.ErrProviderFailed)
	}

	h := &models.PriceHistory{Symbol: symbol, Provider: ProviderName}
	if len(resp.Chart.Result) == 0 {
		return h, nil
	}
	r := resp.Chart.Result[0]
	if len(r.Indicators.Quote) == 0 {
		return h, nil
	}
	q := r.Indicators.Quote[0]
	offset := time.Duration(r.Meta.GMTOffset) * time.Second

	h.Bars = make([]models.PriceBar, 0, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		cl := at(q.Close, i)
		if cl == nil {
			continue
		}
		day := time.Unix(ts, 0).UTC().Add(offset).Truncate(24 * time.Hour)
		h.Bars = append(h.Bars, models.PriceBar{
			Symbol: symbol,
			Date:   day,
			Open:   value(at(q.Open, i)),
			High:   value(at(q.High, i)),
			Low:    value(at(q.Low, i)),
			Close:  *cl,
			Volume: value(at(q.Volume, i)),
		})
	}

	c.log.Debug("fetched history",
		applogger.String("symbol", symbol),
		applogger.Int("bars", len(h.Bars)),
	)
	return h, nil
}

type rawValue struct {
	Raw *float64 `json:"raw"`
}

type quoteSummaryResponse struct {
	QuoteSummary struct {
		Result []struct {
			Price struct {
				LongName  string   `json:"longName"`
				ShortName string   `json:"shortName"`
				MarketCap rawValue `json:"marketCap"`
			} `json:"price"`
			SummaryProfile struct {
				Sector              string `json:"sector"`
				Industry            string `json:"industry"`
				LongBusinessSummary string `json:"longBusinessSummary"`
			} `json:"summaryProfile"`
			SummaryDetail struct {
				ForwardPE rawValue `json:"forwardPE"`
				MarketCap rawValue `json:"marketCap"`
			} `json:"summaryDetail"`
		} `json:"result"`
		Error *apiError `json:"error"`
	} `json:"quoteSummary"`
}

// Profile returns the company profile. Missing fields stay empty; callers
// apply display fallbacks.
func (c *Client) Profile(ctx context.Context, symbol string) (models.StockInfo, error) {
	var resp quoteSummaryResponse
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         fmt.Sprintf("%s/v10/finance/quoteSummary/%s", c.baseURL, url.PathEscape(symbol)),
		QueryParams: map[string][]string{"modules": {profileModules}},
	}, &resp)
	if err != nil {
		return models.StockInfo{}, fmt.Errorf("yahoo profile %s: %w: %w", symbol, models.ErrProviderFailed, err)
	}
	if e := resp.QuoteSummary.Error; e != nil {
		return models.StockInfo{}, fmt.Errorf("yahoo profile %s: %s: %w", symbol, e.Description, models.ErrProviderFailed)
	}
	if len(resp.QuoteSummary.Result) == 0 {
		return models.StockInfo{}, errors.New("yahoo profile: empty result")
	}

	r := resp.QuoteSummary.Result[0]
	info := models.StockInfo{
		Name:        r.Price.LongName,
		Sector:      r.SummaryProfile.Sector,
		Industry:    r.SummaryProfile.Industry,
		MarketCap:   r.Price.MarketCap.Raw,
		PERatio:     r.SummaryDetail.ForwardPE.Raw,
		Description: r.SummaryProfile.LongBusinessSummary,
	}
	if info.Name == "" {
		info.Name = r.Price.ShortName
	}
	if info.MarketCap == nil {
		info.MarketCap = r.SummaryDetail.MarketCap.Raw
	}
	return info, nil
}

func at(s []*float64, i int) *float64 {
	if i < len(s) {
		return s[i]
	}
	return nil
}

func value(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
