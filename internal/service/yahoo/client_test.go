package yahoo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"StockCast/internal/domain/models"
	xhttp "StockCast/pkg/http"
)

const chartBody = `{"chart":{"result":[{"meta":{"symbol":"AAPL","gmtoffset":-14400},
"timestamp":[1704205800,1704292200,1704378600],
"indicators":{"quote":[{"open":[185.1,184.2,182.1],"high":[186,185,183],"low":[183,182,180],
"close":[185.6,null,181.9],"volume":[82488700,null,71983600]}]}}],"error":null}}`

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	hc := xhttp.NewClient(xhttp.WithRetry(1, time.Millisecond, 100*time.Millisecond))
	return New(hc, srv.URL, nil).(*Client)
}

func TestHistory_ParsesChartAndDropsMissingCloses(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v8/finance/chart/AAPL" {
			t.Errorf("path=%s", r.URL.Path)
		}
		if r.URL.Query().Get("interval") != "1d" || r.URL.Query().Get("period1") == "" {
			t.Errorf("query=%s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(chartBody))
	})

	h, err := c.History(context.Background(), "AAPL", time.Now().AddDate(0, -1, 0), time.Now())
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if h.Len() != 2 {
		t.Fatalf("bars=%d want 2", h.Len())
	}
	if h.Provider != ProviderName || h.Bars[1].Close != 181.9 {
		t.Fatalf("history=%+v", h)
	}
	if got := h.Dates()[0]; got != "2024-01-02" {
		t.Fatalf("first date=%s", got)
	}
}

func TestHistory_NotFoundIsNoData(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`))
	})
	_, err := c.History(context.Background(), "ZZZZ", time.Now().AddDate(0, -1, 0), time.Now())
	if !errors.Is(err, models.ErrNoData) {
		t.Fatalf("err=%v want ErrNoData", err)
	}
}

func TestHistory_ServerErrorIsProviderFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	_, err := c.History(context.Background(), "AAPL", time.Now().AddDate(0, -1, 0), time.Now())
	if !errors.Is(err, models.ErrProviderFailed) {
		t.Fatalf("err=%v want ErrProviderFailed", err)
	}
}

func TestProfile(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("modules") != profileModules {
			t.Errorf("modules=%q", r.URL.Query().Get("modules"))
		}
		_, _ = w.Write([]byte(`{"quoteSummary":{"result":[{
			"price":{"shortName":"Apple","marketCap":{"raw":3.0e12}},
			"summaryProfile":{"sector":"Technology","industry":"Consumer Electronics"},
			"summaryDetail":{"forwardPE":{"raw":28.5}}}],"error":null}}`))
	})

	info, err := c.Profile(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if info.Name != "Apple" || info.Sector != "Technology" {
		t.Fatalf("info=%+v", info)
	}
	if info.MarketCap == nil || *info.MarketCap != 3.0e12 || info.PERatio == nil || *info.PERatio != 28.5 {
		t.Fatalf("numbers=%v %v", info.MarketCap, info.PERatio)
	}
	if info.Description != "" {
		t.Fatalf("description=%q", info.Description)
	}
}
