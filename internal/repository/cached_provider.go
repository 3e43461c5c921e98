package repository

import (
	"context"
	"errors"
	"time"

	"StockCast/internal/domain/models"
	drepo "StockCast/internal/domain/repository"
	"StockCast/pkg/cache"
	applogger "StockCast/pkg/logger"
)

// CachedProvider serves history and profiles from cache before asking the
// upstream provider. Cache failures never fail a request.
type CachedProvider struct {
	next    drepo.PriceProvider
	cache   cache.Service
	ttl     time.Duration
	metrics drepo.Metrics
	log     *applogger.Logger
}

func NewCachedProvider(next drepo.PriceProvider, c cache.Service, ttl time.Duration, m drepo.Metrics, log *applogger.Logger) *CachedProvider {
	if log == nil {
		log = applogger.NewNop()
	}
	return &CachedProvider{next: next, cache: c, ttl: ttl, metrics: m, log: log.With("history_cache")}
}

func (p *CachedProvider) Name() string { return p.next.Name() }

// History keys on provider, symbol and the calendar days of the range, so
// repeated requests on the same day share an entry.
func (p *CachedProvider) History(ctx context.Context, symbol string, from, to time.Time) (*models.PriceHistory, error) {
	key := cache.GenerateKeyWithParams("history", p.next.Name(), symbol,
		from.UTC().Format(time.DateOnly), to.UTC().Format(time.DateOnly))

	var h models.PriceHistory
	err := p.cache.Get(ctx, key, &h)
	switch {
	case err == nil:
		p.metrics.RecordCacheLookup(true)
		return &h, nil
	case errors.Is(err, cache.ErrCacheMiss):
		p.metrics.RecordCacheLookup(false)
	default:
		p.metrics.RecordCacheLookup(false)
		p.log.Warn("cache get failed", applogger.String("key", key), applogger.Error(err))
	}

	fresh, err := p.next.History(ctx, symbol, from, to)
	if err != nil {
		return nil, err
	}
	if fresh.Len() > 0 {
		if err := p.cache.Set(ctx, key, fresh, p.ttl); err != nil {
			p.log.Warn("cache set failed", applogger.String("key", key), applogger.Error(err))
		}
	}
	return fresh, nil
}

func (p *CachedProvider) Profile(ctx context.Context, symbol string) (models.StockInfo, error) {
	key := cache.GenerateKeyWithParams("profile", p.next.Name(), symbol)

	var info models.StockInfo
	if err := p.cache.Get(ctx, key, &info); err == nil {
		p.metrics.RecordCacheLookup(true)
		return info, nil
	}
	p.metrics.RecordCacheLookup(false)

	info, err := p.next.Profile(ctx, symbol)
	if err != nil {
		return info, err
	}
	if err := p.cache.Set(ctx, key, info, p.ttl); err != nil {
		p.log.Warn("cache set failed", applogger.String("key", key), applogger.Error(err))
	}
	return info, nil
}
