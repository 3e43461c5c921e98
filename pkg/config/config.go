package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	xhttp "StockCast/pkg/http"

	"github.com/creasty/defaults"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development" validate:"oneof=development staging production test"`
	Server      struct {
		Host            string        `yaml:"host" default:"0.0.0.0"`
		Port            int           `yaml:"port" default:"8080" validate:"gte=1,lte=65535"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"60s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		SlowThreshold   time.Duration `yaml:"slow_threshold" default:"5s"`
		CORS            bool          `yaml:"cors" default:"true"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
		Format string `yaml:"format" default:"json" validate:"oneof=json console"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"log"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Provider struct {
		Type        string        `yaml:"type" default:"yahoo" validate:"oneof=yahoo twelvedata"`
		BaseURL     string        `yaml:"base_url"`
		APIKey      string        `yaml:"api_key"`
		Timeout     time.Duration `yaml:"timeout" default:"15s"`
		RateLimit   float64       `yaml:"rate_limit" default:"5"`
		Burst       int           `yaml:"burst" default:"5"`
		MaxRetries  uint64        `yaml:"max_retries" default:"3"`
		RetryWait   time.Duration `yaml:"retry_wait" default:"500ms"`
		UserAgent   string        `yaml:"user_agent" default:"Mozilla/5.0 (compatible; StockCast/1.0)"`
		ProfileWait time.Duration `yaml:"profile_wait" default:"5s"`
	} `yaml:"provider"`
	Forecast struct {
		WindowSize   int           `yaml:"window_size" default:"10" validate:"gte=1,lte=250"`
		TestFraction float64       `yaml:"test_fraction" default:"0.2" validate:"gt=0,lt=1"`
		Trees        int           `yaml:"trees" default:"200" validate:"gte=1,lte=2000"`
		MaxDepth     int           `yaml:"max_depth" default:"20" validate:"gte=0"`
		MinLeaf      int           `yaml:"min_samples_leaf" default:"1" validate:"gte=1"`
		MaxFeatures  int           `yaml:"max_features" default:"0" validate:"gte=0"`
		Seed         uint64        `yaml:"seed" default:"42"`
		Target       string        `yaml:"target" default:"delta" validate:"oneof=delta level"`
		Scaling      string        `yaml:"scaling" default:"global" validate:"oneof=global train_only"`
		Parallel     bool          `yaml:"parallel" default:"true"`
		Timeout      time.Duration `yaml:"timeout" default:"30s"`
	} `yaml:"forecast"`
	History struct {
		DefaultMonths int    `yaml:"default_months" default:"6" validate:"gte=1"`
		MaxMonths     int    `yaml:"max_months" default:"60" validate:"gtefield=DefaultMonths"`
		IndexSymbol   string `yaml:"index_symbol" default:"^GSPC"`
	} `yaml:"history"`
	Cache struct {
		Type          string        `yaml:"type" default:"memory" validate:"oneof=none memory redis layered"`
		TTL           time.Duration `yaml:"ttl" default:"15m"`
		MemoryMaxSize int           `yaml:"memory_max_size" default:"512"`
		Redis         struct {
			Host     string `yaml:"host" default:"localhost"`
			Port     int    `yaml:"port" default:"6379"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			PoolSize int    `yaml:"pool_size" default:"10"`
			Prefix   string `yaml:"prefix" default:"stockcast"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	RateLimit struct {
		Enabled bool          `yaml:"enabled" default:"true"`
		RPS     float64       `yaml:"rps" default:"1"`
		Burst   int           `yaml:"burst" default:"5"`
		IdleTTL time.Duration `yaml:"idle_ttl" default:"10m"`
	} `yaml:"ratelimit"`
	ClickHouse struct {
		Enabled      bool          `yaml:"enabled"`
		Host         string        `yaml:"host" default:"localhost"`
		Port         int           `yaml:"port" default:"9000"`
		Database     string        `yaml:"database" default:"default"`
		User         string        `yaml:"user" default:"default"`
		Password     string        `yaml:"password"`
		UseHTTP      bool          `yaml:"use_http"`
		AsyncInsert  bool          `yaml:"async_insert" default:"true"`
		DialTimeout  time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
	} `yaml:"clickhouse"`
	Kafka struct {
		Enabled      bool          `yaml:"enabled"`
		Brokers      []string      `yaml:"brokers"`
		Topic        string        `yaml:"topic" default:"forecasts"`
		RequiredAcks int           `yaml:"required_acks" default:"1"`
		Compression  string        `yaml:"compression" default:"snappy" validate:"oneof=none gzip snappy lz4 zstd"`
		MaxAttempts  int           `yaml:"max_attempts" default:"3"`
		BatchTimeout time.Duration `yaml:"batch_timeout" default:"50ms"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"5s"`
		Async        bool          `yaml:"async"`
	} `yaml:"kafka"`
}

// Load fills defaults, then overlays the YAML file (a missing file keeps
// the defaults) and validates.
func Load(path string) (*Config, error) {
	c, err := load(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func load(path string) (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}

	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads .env (if present) into the process environment, then
// the YAML config, then applies environment overrides and validates.
func LoadWithEnv(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	c, err := load(path)
	if err != nil {
		return nil, err
	}

	c.applyEnv()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("APP_ENV"); v != "" {
		c.Environment = v
	}
	if v, ok := envInt("PORT"); ok {
		c.Server.Port = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("PROVIDER"); v != "" {
		c.Provider.Type = v
	}
	if v := os.Getenv("TWELVEDATA_API_KEY"); v != "" {
		c.Provider.APIKey = v
	}
	if v := os.Getenv("CACHE_TYPE"); v != "" {
		c.Cache.Type = v
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		c.Cache.Redis.Host = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Cache.Redis.Password = v
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
		c.ClickHouse.Enabled = true
	}
	if v := os.Getenv("CLICKHOUSE_PASSWORD"); v != "" {
		c.ClickHouse.Password = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
		c.Kafka.Enabled = true
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
}

func envInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Validate checks struct tags plus rules that span fields.
func (c *Config) Validate() error {
	if err := xhttp.ValidateStruct(context.Background(), c); err != nil {
		return err
	}
	if c.Provider.Type == "twelvedata" && c.Provider.APIKey == "" {
		return fmt.Errorf("provider.api_key is required for twelvedata")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.Forecast.Timeout <= 0 {
		return fmt.Errorf("forecast.timeout must be positive")
	}
	return nil
}

// IsProduction reports whether the service runs in production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
