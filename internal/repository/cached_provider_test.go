package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"StockCast/internal/domain/models"
	"StockCast/pkg/cache"
)

type fakeProvider struct {
	historyCalls int
	profileCalls int
	bars         int
	err          error
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) History(_ context.Context, symbol string, from, _ time.Time) (*models.PriceHistory, error) {
	f.historyCalls++
	if f.err != nil {
		return nil, f.err
	}
	h := &models.PriceHistory{Symbol: symbol, Provider: "fake"}
	for i := 0; i < f.bars; i++ {
		h.Bars = append(h.Bars, models.PriceBar{Symbol: symbol, Date: from.AddDate(0, 0, i), Close: 100 + float64(i)})
	}
	return h, nil
}

func (f *fakeProvider) Profile(context.Context, string) (models.StockInfo, error) {
	f.profileCalls++
	pe := 21.5
	return models.StockInfo{Name: "Fake Corp", PERatio: &pe}, nil
}

type countingMetrics struct {
	hits, misses int
}

func (m *countingMetrics) RecordForecast(string, float64) {}
func (m *countingMetrics) RecordError(string) {}
func (m *countingMetrics) RecordLatency(string, float64) {}
func (m *countingMetrics) RecordEvent(string) {}
func (m *countingMetrics) RecordCacheLookup(hit bool) {
	if hit {
		m.hits++
	} else {
		m.misses++
	}
}

func newCached(t *testing.T, p *fakeProvider) (*CachedProvider, *countingMetrics) {
	t.Helper()
	mc := cache.NewMemoryCache()
	t.Cleanup(func() { _ = mc.Close() })
	m := &countingMetrics{}
	return NewCachedProvider(p, mc, time.Minute, m, nil), m
}

func TestCachedProvider_HistoryHitsCacheOnSameDay(t *testing.T) {
	p := &fakeProvider{bars: 30}
	c, m := newCached(t, p)
	ctx := context.Background()

	from := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	to := time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC)
	first, err := c.History(ctx, "AAPL", from, to)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := c.History(ctx, "AAPL", from.Add(3*time.Hour), to.Add(3*time.Hour))
	if err != nil {
		t.Fatalf("second: %v", err)
	}

	if p.historyCalls != 1 {
		t.Fatalf("upstream calls=%d want 1", p.historyCalls)
	}
	if m.hits != 1 || m.misses != 1 {
		t.Fatalf("hits=%d misses=%d", m.hits, m.misses)
	}
	if second.Len() != first.Len() || second.Bars[29].Close != 129 || !second.Bars[0].Date.Equal(first.Bars[0].Date) {
		t.Fatalf("cached history differs: %+v", second.Bars[:1])
	}
}

func TestCachedProvider_EmptyHistoryNotCached(t *testing.T) {
	p := &fakeProvider{}
	c, _ := newCached(t, p)
	ctx := context.Background()
	now := time.Now()

	for i := 0; i < 2; i++ {
		if _, err := c.History(ctx, "ZZZZ", now.AddDate(0, -1, 0), now); err != nil {
			t.Fatalf("history: %v", err)
		}
	}
	if p.historyCalls != 2 {
		t.Fatalf("upstream calls=%d want 2", p.historyCalls)
	}
}

func TestCachedProvider_PropagatesErrors(t *testing.T) {
	p := &fakeProvider{err: models.ErrProviderFailed}
	c, _ := newCached(t, p)
	now := time.Now()
	if _, err := c.History(context.Background(), "AAPL", now.AddDate(0, -1, 0), now); !errors.Is(err, models.ErrProviderFailed) {
		t.Fatalf("err=%v", err)
	}
}

func TestCachedProvider_Profile(t *testing.T) {
	p := &fakeProvider{}
	c, _ := newCached(t, p)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		info, err := c.Profile(ctx, "AAPL")
		if err != nil {
			t.Fatalf("profile: %v", err)
		}
		if info.PERatio == nil || *info.PERatio != 21.5 {
			t.Fatalf("pe=%v", info.PERatio)
		}
	}
	if p.profileCalls != 1 {
		t.Fatalf("upstream calls=%d want 1", p.profileCalls)
	}
}
