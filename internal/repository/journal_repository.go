package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"StockCast/internal/domain/models"
	drepo "StockCast/internal/domain/repository"
	pkgch "StockCast/pkg/clickhouse"
	pkgkafka "StockCast/pkg/kafka"
)

const (
	barsTable      = "daily_bars"
	forecastsTable = "forecasts"
)

// JournalSchema is the idempotent DDL for the ClickHouse journal.
var JournalSchema = []string{
	`CREATE TABLE IF NOT EXISTS ` + barsTable + ` (
		date     Date,
		symbol   LowCardinality(String),
		provider LowCardinality(String),
		open     Float64,
		high     Float64,
		low      Float64,
		close    Float64,
		volume   Float64,
		fetched  DateTime DEFAULT now()
	) ENGINE = ReplacingMergeTree(fetched)
	ORDER BY (symbol, provider, date)`,
	`CREATE TABLE IF NOT EXISTS ` + forecastsTable + ` (
		id              String,
		created_at      DateTime64(3),
		symbol          LowCardinality(String),
		provider        LowCardinality(String),
		range_from      Date,
		range_to        Date,
		bars            UInt32,
		current_price   Float64,
		predicted_price Float64,
		holdout_rmse    Float64,
		train_ms        Int64
	) ENGINE = MergeTree
	ORDER BY (symbol, created_at)`,
}

// ClickHouseJournal implements Journal for ClickHouse.
type ClickHouseJournal struct {
	client *pkgch.Client
	db     *sql.DB
}

func NewClickHouseJournal(client *pkgch.Client) *ClickHouseJournal {
	return &ClickHouseJournal{client: client, db: client.DB()}
}

func (j *ClickHouseJournal) Init(ctx context.Context) error {
	return j.client.InitSchema(ctx, JournalSchema)
}

// StoreBars inserts the history with multi-row VALUES, chunked to bound
// statement size. ReplacingMergeTree collapses re-fetched days.
func (j *ClickHouseJournal) StoreBars(ctx context.Context, h *models.PriceHistory) error {
	if h == nil || h.Len() == 0 {
		return nil
	}
	const chunkSize = 2000
	for start := 0; start < len(h.Bars); start += chunkSize {
		end := min(start+chunkSize, len(h.Bars))

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*8)
		for _, b := range h.Bars[start:end] {
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args, b.Date, h.Symbol, h.Provider, b.Open, b.High, b.Low, b.Close, b.Volume)
		}
		q := fmt.Sprintf("INSERT INTO %s (date, symbol, provider, open, high, low, close, volume) VALUES %s",
			barsTable, strings.Join(values, ","))
		if _, err := j.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("store bars: %w", err)
		}
	}
	return nil
}

func (j *ClickHouseJournal) StoreForecast(ctx context.Context, ev *models.ForecastEvent) error {
	q := fmt.Sprintf(`INSERT INTO %s (id, created_at, symbol, provider, range_from, range_to, bars,
		current_price, predicted_price, holdout_rmse, train_ms) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, forecastsTable)
	_, err := j.db.ExecContext(ctx, q,
		ev.ID,
		ev.CreatedAt,
		ev.Symbol,
		ev.Provider,
		ev.From,
		ev.To,
		uint32(ev.Bars),
		ev.CurrentPrice,
		ev.PredictedPrice,
		ev.HoldoutRMSE,
		ev.TrainMillis,
	)
	if err != nil {
		return fmt.Errorf("store forecast: %w", err)
	}
	return nil
}

// RecentForecasts returns the newest forecasts for symbol, newest first.
func (j *ClickHouseJournal) RecentForecasts(ctx context.Context, symbol string, limit int) ([]*models.ForecastEvent, error) {
	q := fmt.Sprintf(`SELECT id, created_at, symbol, provider, range_from, range_to, bars,
		current_price, predicted_price, holdout_rmse, train_ms
		FROM %s WHERE symbol = ? ORDER BY created_at DESC LIMIT ?`, forecastsTable)
	rows, err := j.db.QueryContext(ctx, q, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("query forecasts: %w", err)
	}
	defer rows.Close()

	var out []*models.ForecastEvent
	for rows.Next() {
		var (
			ev   models.ForecastEvent
			bars uint32
		)
		if err := rows.Scan(&ev.ID, &ev.CreatedAt, &ev.Symbol, &ev.Provider, &ev.From, &ev.To, &bars,
			&ev.CurrentPrice, &ev.PredictedPrice, &ev.HoldoutRMSE, &ev.TrainMillis); err != nil {
			return nil, fmt.Errorf("scan forecast: %w", err)
		}
		ev.Bars = int(bars)
		out = append(out, &ev)
	}
	return out, rows.Err()
}

func (j *ClickHouseJournal) Health(ctx context.Context) error {
	return j.client.Health(ctx)
}

func (j *ClickHouseJournal) Close() error {
	return j.client.Close()
}

// KafkaPublisher implements Publisher for Kafka. Events are keyed by symbol
// so one symbol's forecasts stay ordered within a partition.
type KafkaPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaPublisher(producer *pkgkafka.Producer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, ev *models.ForecastEvent) error {
	return p.producer.Publish(ctx, p.topic, []byte(ev.Symbol), ev)
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// NoopJournal is used when ClickHouse is disabled.
type NoopJournal struct{}

func (NoopJournal) Init(context.Context) error { return nil }
func (NoopJournal) StoreBars(context.Context, *models.PriceHistory) error { return nil }
func (NoopJournal) StoreForecast(context.Context, *models.ForecastEvent) error { return nil }
func (NoopJournal) RecentForecasts(context.Context, string, int) ([]*models.ForecastEvent, error) {
	return []*models.ForecastEvent{}, nil
}
func (NoopJournal) Health(context.Context) error { return nil }
func (NoopJournal) Close() error { return nil }

// NoopPublisher is used when Kafka is disabled.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, *models.ForecastEvent) error { return nil }
func (NoopPublisher) Close() error { return nil }

var (
	_ drepo.Journal       = (*ClickHouseJournal)(nil)
	_ drepo.Journal       = NoopJournal{}
	_ drepo.Publisher     = (*KafkaPublisher)(nil)
	_ drepo.Publisher     = NoopPublisher{}
	_ drepo.PriceProvider = (*CachedProvider)(nil)
)
