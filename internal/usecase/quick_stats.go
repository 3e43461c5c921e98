package usecase

import (
	"context"
	"fmt"
	"time"

	"StockCast/internal/domain/models"
	domrepo "StockCast/internal/domain/repository"
)

// quickStatsLookback covers weekends and market holidays.
const quickStatsLookback = 7 * 24 * time.Hour

// QuickStatsUseCase reports the latest index close for the dashboard header.
type QuickStatsUseCase struct {
	provider domrepo.PriceProvider
	metrics  domrepo.Metrics
	index    string
	now      func() time.Time
}

func NewQuickStatsUseCase(provider domrepo.PriceProvider, metrics domrepo.Metrics, indexSymbol string) *QuickStatsUseCase {
	if indexSymbol == "" {
		indexSymbol = "^GSPC"
	}
	return &QuickStatsUseCase{provider: provider, metrics: metrics, index: indexSymbol, now: time.Now}
}

func (uc *QuickStatsUseCase) Get(ctx context.Context) (*models.QuickStats, error) {
	now := uc.now()
	hist, err := uc.provider.History(ctx, uc.index, now.Add(-quickStatsLookback), now)
	if err != nil {
		uc.metrics.RecordError("quick_stats")
		return nil, err
	}
	last, ok := hist.Last()
	if !ok {
		return nil, fmt.Errorf("%s: %w", uc.index, models.ErrNoData)
	}
	return &models.QuickStats{SP500Value: last.Close, Timestamp: now}, nil
}
