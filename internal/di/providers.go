package di

import (
	"context"
	"fmt"
	"time"

	"StockCast/internal/domain/repository"
	"StockCast/internal/handler/api"
	"StockCast/internal/handler/pages"
	internalrepo "StockCast/internal/repository"
	"StockCast/internal/service/ratelimit"
	"StockCast/internal/service/twelvedata"
	"StockCast/internal/service/yahoo"
	"StockCast/internal/services/forecast"
	"StockCast/internal/services/forest"
	"StockCast/internal/usecase"
	"StockCast/pkg/cache"
	pkgch "StockCast/pkg/clickhouse"
	"StockCast/pkg/config"
	xhttp "StockCast/pkg/http"
	pkgkafka "StockCast/pkg/kafka"
	applogger "StockCast/pkg/logger"
	"StockCast/pkg/metrics"
	"StockCast/pkg/server"

	"github.com/prometheus/client_golang/prometheus"
)

// ProvideLogger creates the root logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics(cfg *config.Config) repository.Metrics {
	if !cfg.Metrics.Enabled {
		return metrics.Noop{}
	}
	return metrics.New(prometheus.DefaultRegisterer)
}

// ProvideCache creates the history cache selected by cache.type.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	memory := func() *cache.MemoryCache {
		return cache.NewMemoryCache(
			cache.WithMemoryMaxSize(cfg.Cache.MemoryMaxSize),
			cache.WithMemoryDefaultTTL(cfg.Cache.TTL),
		)
	}
	redis := func() (*cache.RedisCache, error) {
		rc, err := cache.NewRedisCache(
			cache.WithRedisHost(cfg.Cache.Redis.Host),
			cache.WithRedisPort(cfg.Cache.Redis.Port),
			cache.WithRedisPassword(cfg.Cache.Redis.Password),
			cache.WithRedisDB(cfg.Cache.Redis.DB),
			cache.WithRedisPool(cfg.Cache.Redis.PoolSize, 2, 4*time.Second),
			cache.WithRedisPrefix(cfg.Cache.Redis.Prefix),
		)
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		return rc, nil
	}

	switch cfg.Cache.Type {
	case "memory":
		return memory(), nil
	case "redis":
		return redis()
	case "layered":
		rc, err := redis()
		if err != nil {
			return nil, err
		}
		return cache.NewLayeredCache(rc,
			cache.WithLayeredMemorySize(cfg.Cache.MemoryMaxSize),
			cache.WithLayeredMemoryTTL(min(cfg.Cache.TTL, 5*time.Minute)),
		), nil
	default:
		return cache.Noop{}, nil
	}
}

// ProvideHTTPClient creates the outbound client used by price providers.
func ProvideHTTPClient(cfg *config.Config) *xhttp.Client {
	return xhttp.NewClient(
		xhttp.WithTimeout(cfg.Provider.Timeout),
		xhttp.WithRateLimit(cfg.Provider.RateLimit, cfg.Provider.Burst),
		xhttp.WithRetry(cfg.Provider.MaxRetries, cfg.Provider.RetryWait, 2*cfg.Provider.Timeout),
		xhttp.WithUserAgent(cfg.Provider.UserAgent),
	)
}

// ProvidePriceProvider creates the configured market data provider, behind
// the history cache unless caching is off.
func ProvidePriceProvider(
	cfg *config.Config,
	hc *xhttp.Client,
	c cache.Service,
	m repository.Metrics,
	log *applogger.Logger,
) repository.PriceProvider {
	var p repository.PriceProvider
	switch cfg.Provider.Type {
	case twelvedata.ProviderName:
		p = twelvedata.New(hc, cfg.Provider.BaseURL, cfg.Provider.APIKey, log)
	default:
		p = yahoo.New(hc, cfg.Provider.BaseURL, log)
	}
	if cfg.Cache.Type == "none" {
		return p
	}
	return internalrepo.NewCachedProvider(p, c, cfg.Cache.TTL, m, log)
}

// ProvidePredictor creates the windowed forest predictor from config.
func ProvidePredictor(cfg *config.Config, log *applogger.Logger) (*forecast.Predictor, error) {
	target, err := forecast.ParseTargetMode(cfg.Forecast.Target)
	if err != nil {
		return nil, err
	}
	scaling, err := forecast.ParseScaleMode(cfg.Forecast.Scaling)
	if err != nil {
		return nil, err
	}
	fc := forest.DefaultConfig()
	fc.Trees = cfg.Forecast.Trees
	fc.MaxDepth = cfg.Forecast.MaxDepth
	fc.MinSamplesLeaf = cfg.Forecast.MinLeaf
	fc.MaxFeatures = cfg.Forecast.MaxFeatures
	fc.Seed = cfg.Forecast.Seed
	fc.Parallel = cfg.Forecast.Parallel

	return forecast.New(
		forecast.WithWindowSize(cfg.Forecast.WindowSize),
		forecast.WithTestFraction(cfg.Forecast.TestFraction),
		forecast.WithTargetMode(target),
		forecast.WithScaleMode(scaling),
		forecast.WithForest(fc),
		forecast.WithLogger(log),
	), nil
}

// ProvideJournal connects the ClickHouse journal and ensures its schema, or
// returns a no-op journal when ClickHouse is disabled.
func ProvideJournal(cfg *config.Config, log *applogger.Logger) (repository.Journal, error) {
	if !cfg.ClickHouse.Enabled {
		return internalrepo.NoopJournal{}, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, false),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	j := internalrepo.NewClickHouseJournal(client)
	if err := j.Init(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	log.Info("clickhouse journal ready",
		applogger.String("host", cfg.ClickHouse.Host),
		applogger.String("database", cfg.ClickHouse.Database),
	)
	return j, nil
}

// ProvidePublisher creates the Kafka forecast publisher, or a no-op one
// when Kafka is disabled.
func ProvidePublisher(cfg *config.Config, log *applogger.Logger) (repository.Publisher, error) {
	if !cfg.Kafka.Enabled {
		return internalrepo.NoopPublisher{}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithBatchTimeout(cfg.Kafka.BatchTimeout),
		pkgkafka.WithWriteTimeout(cfg.Kafka.WriteTimeout),
		pkgkafka.WithAsync(cfg.Kafka.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	log.Info("kafka publisher ready",
		applogger.Strings("brokers", cfg.Kafka.Brokers),
		applogger.String("topic", cfg.Kafka.Topic),
	)
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topic), nil
}

// ProvideLimiter creates the per-client /predict limiter; nil disables it.
func ProvideLimiter(cfg *config.Config) *ratelimit.Limiter {
	if !cfg.RateLimit.Enabled {
		return nil
	}
	return ratelimit.New(cfg.RateLimit.RPS, cfg.RateLimit.Burst, cfg.RateLimit.IdleTTL)
}

// ProvideForecastUseCase creates the report use case.
func ProvideForecastUseCase(
	cfg *config.Config,
	provider repository.PriceProvider,
	predictor *forecast.Predictor,
	journal repository.Journal,
	publisher repository.Publisher,
	m repository.Metrics,
	log *applogger.Logger,
) *usecase.ForecastUseCase {
	return usecase.NewForecastUseCase(provider, predictor, journal, publisher, m, log, usecase.ForecastConfig{
		DefaultMonths: cfg.History.DefaultMonths,
		MaxMonths:     cfg.History.MaxMonths,
		Timeout:       cfg.Forecast.Timeout,
		ProfileWait:   cfg.Provider.ProfileWait,
	})
}

// ProvideQuickStatsUseCase creates the header ticker use case.
func ProvideQuickStatsUseCase(cfg *config.Config, provider repository.PriceProvider, m repository.Metrics) *usecase.QuickStatsUseCase {
	return usecase.NewQuickStatsUseCase(provider, m, cfg.History.IndexSymbol)
}

// ProvideForecastHandler creates the JSON API handler.
func ProvideForecastHandler(
	log *applogger.Logger,
	uc *usecase.ForecastUseCase,
	quick *usecase.QuickStatsUseCase,
	limiter *ratelimit.Limiter,
) *api.ForecastEchoHandler {
	return api.NewForecastEchoHandler(log, uc, quick, limiter)
}

// ProvideHealthHandler creates /healthz over the optional backends.
func ProvideHealthHandler(cfg *config.Config, journal repository.Journal) *api.HealthHandler {
	checks := map[string]api.HealthChecker{}
	if cfg.ClickHouse.Enabled {
		checks["clickhouse"] = journal
	}
	return api.NewHealthHandler(checks)
}

// ProvidePagesHandler creates the HTML page handler.
func ProvidePagesHandler(cfg *config.Config) (*pages.Handler, error) {
	r, err := pages.NewRenderer()
	if err != nil {
		return nil, err
	}
	return pages.NewHandler(r, cfg.History.IndexSymbol), nil
}

// ProvideHTTPServer creates the Echo server with every handler registered.
func ProvideHTTPServer(
	cfg *config.Config,
	log *applogger.Logger,
	fh *api.ForecastEchoHandler,
	hh *api.HealthHandler,
	ph *pages.Handler,
) *xhttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	return xhttp.NewServer(log.With("http"), []xhttp.Handler{fh, hh, ph},
		xhttp.WithHost(cfg.Server.Host),
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithSlowThreshold(cfg.Server.SlowThreshold),
		xhttp.WithCORS(cfg.Server.CORS),
		xhttp.WithMetricsPath(metricsPath),
	)
}

// ProvideApp creates the application.
func ProvideApp(
	cfg *config.Config,
	log *applogger.Logger,
	srv *xhttp.Server,
	c cache.Service,
	journal repository.Journal,
	publisher repository.Publisher,
) *server.App {
	return server.New(log, srv, cfg.Server.ShutdownTimeout,
		server.Closer{Name: "cache", Closer: c},
		server.Closer{Name: "clickhouse", Closer: journal},
		server.Closer{Name: "kafka", Closer: publisher},
	)
}
