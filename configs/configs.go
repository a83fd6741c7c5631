// Package configs provides application configuration loaded from the environment,
// an optional .env file and an optional momentum.yaml file.
// Environment variables win over the file; the file wins over defaults.
package configs

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Source names accepted by the updater.
const (
	SourceCoinGecko     = "coingecko"
	SourceCryptoCompare = "cryptocompare"
	SourceUpbit         = "upbit"
	SourceYahooUS       = "yahoo-us"
	SourceYahooKR       = "yahoo-kr"
)

// Sources lists every supported source in display order.
var Sources = []string{SourceCoinGecko, SourceCryptoCompare, SourceUpbit, SourceYahooUS, SourceYahooKR}

// AppConfig holds all application configuration.
// Load it once at startup using AppLoad().
type AppConfig struct {
	// LogLevel is a logrus level name ("debug", "info", ...).
	LogLevel string

	// LogFormat is "text" or "json".
	LogFormat string

	// Sources holds per-source settings keyed by source name.
	Sources map[string]SourceConfig

	// Kafka contains settings for publishing updated series.
	Kafka KafkaConfig

	// Redis contains settings for the latest-candle cache.
	Redis RedisConfig

	// S3 contains settings for mirroring the written documents.
	S3 S3Config

	// Metrics contains the Pushgateway settings.
	Metrics MetricsConfig
}

// SourceConfig holds the settings of one vendor adapter and its catalog.
type SourceConfig struct {
	// Name is the source name (e.g., "upbit").
	Name string

	// CatalogPath is the JSON catalog document of this source.
	CatalogPath string

	// TickersPath is the companion ticker list document.
	TickersPath string

	// TickerFiles are local universe files (arrays of ticker metadata).
	// Sources that list their universe from the vendor ignore them.
	TickerFiles []string

	// BaseURL is the vendor API root.
	BaseURL string

	// Workers bounds concurrent vendor calls.
	Workers int

	// MaxNewPerRun caps how many unknown instruments are backfilled per daily run.
	MaxNewPerRun int

	// RequestsPerSecond feeds the vendor rate limiter.
	RequestsPerSecond float64

	// RequestTimeout bounds a single HTTP call.
	RequestTimeout time.Duration

	// RecentDays is how far back a daily fetch of an existing instrument reaches.
	RecentDays int

	// HistoryDays is the backfill horizon in days. Zero means use HistoryStart.
	HistoryDays int

	// HistoryStart is the fixed backfill start date (YYYY-MM-DD).
	HistoryStart string

	// ListPages is how many pages of the vendor's top list are read.
	ListPages int

	// RetryAttempts is the total number of calls per request.
	RetryAttempts int

	// RetryBaseDelay is the first backoff delay; it doubles per attempt.
	RetryBaseDelay time.Duration

	// BreakerFailures opens the vendor circuit breaker after this many consecutive failures.
	BreakerFailures int
}

// HistoryFrom returns the first day a backfill should cover.
func (s SourceConfig) HistoryFrom(now time.Time) time.Time {
	if s.HistoryDays > 0 {
		return now.AddDate(0, 0, -s.HistoryDays)
	}
	if start, err := time.Parse("2006-01-02", s.HistoryStart); err == nil {
		return start
	}
	return now.AddDate(-1, 0, 0)
}

// KafkaConfig holds Kafka connection settings.
type KafkaConfig struct {
	// Brokers are the Kafka broker addresses. Empty disables publishing.
	Brokers []string

	// Topic receives one message per updated series.
	Topic string
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	// Addr is host:port. Empty disables the cache.
	Addr     string
	Password string
	DB       int

	// TTL is how long a cached latest candle lives.
	TTL time.Duration
}

// S3Config holds the object storage mirror settings.
type S3Config struct {
	// Bucket is the target bucket. Empty disables the mirror.
	Bucket    string
	Prefix    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

// MetricsConfig holds Prometheus Pushgateway settings.
type MetricsConfig struct {
	// PushgatewayURL is the gateway root. Empty disables pushing.
	PushgatewayURL string

	// Job is the Pushgateway job label.
	Job string
}

type sourceDefaults struct {
	dir          string
	file         string
	tickerFiles  []string
	baseURL      string
	workers      int
	rps          float64
	recentDays   int
	historyDays  int
	historyStart string
	listPages    int
}

var defaults = map[string]sourceDefaults{
	SourceCoinGecko: {
		dir: "coingecko", file: "coingecko",
		tickerFiles: []string{"src/data/tickers/crypto/coingecko_with_mcv_id.json"},
		baseURL:     "https://api.coingecko.com/api/v3",
		workers:     5, rps: 0.5, recentDays: 2, historyDays: 365,
	},
	SourceCryptoCompare: {
		dir: "cryptocompare", file: "cryptocompare",
		baseURL: "https://min-api.cryptocompare.com",
		workers: 5, rps: 5, recentDays: 2, historyStart: "2022-01-01", listPages: 10,
	},
	SourceUpbit: {
		dir: "upbit", file: "upbit",
		baseURL: "https://api.upbit.com/v1",
		workers: 3, rps: 8, recentDays: 1, historyDays: 730,
	},
	SourceYahooUS: {
		dir: "us", file: "us",
		tickerFiles: []string{
			"src/data/tickers/us/stocks/stocks_us_nasdaq100_with_mcv_id.json",
			"src/data/tickers/us/stocks/stocks_us_s&p500_with_mcv_id.json",
			"src/data/tickers/us/stocks/stocks_us_russell2000_with_mcv_id.json",
			"src/data/tickers/us/etf/etf_us_largest_with_mcv_id.json",
			"src/data/tickers/us/etf/etf_us_leverage_2x_with_mcv_id.json",
			"src/data/tickers/us/etf/etf_us_leverage_3x_with_mcv_id.json",
			"src/data/tickers/us/etf/etf_us_others_with_mcv_id.json",
			"src/data/tickers/us/etf/etf_us_popular_with_mcv_id.json",
			"src/data/tickers/us/index/index_us_with_mcv_id.json",
			"src/data/tickers/us/commodity/commodity_with_mcv_id.json",
			"src/data/tickers/us/bond/bond_us_with_mcv_id.json",
			"src/data/tickers/us/forex/forex_us_with_mcv_id.json",
		},
		baseURL: "https://query1.finance.yahoo.com",
		workers: 10, rps: 20, recentDays: 1, historyStart: "2022-01-01",
	},
	SourceYahooKR: {
		dir: "kr", file: "kr_stocks",
		tickerFiles: []string{"src/data/tickers/kr/stocks/korea_stocks_with_mcv_id.json"},
		baseURL:     "https://query1.finance.yahoo.com",
		workers:     10, rps: 20, recentDays: 1, historyStart: "2022-01-01",
	},
}

// AppLoad loads all application configuration.
// It attempts to load a .env file first (for local development).
// Call this once at application startup.
func AppLoad() (*AppConfig, error) {
	_ = godotenv.Load() // Ignore error - .env is optional

	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path := os.Getenv("MOMENTUM_CONFIG"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("momentum")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("configs")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	return fromViper(v), nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("data.dir", "src/data/momentum")

	for name, d := range defaults {
		key := "sources." + name + "."
		v.SetDefault(key+"catalog_path", "")
		v.SetDefault(key+"tickers_path", "")
		v.SetDefault(key+"ticker_files", d.tickerFiles)
		v.SetDefault(key+"base_url", d.baseURL)
		v.SetDefault(key+"workers", d.workers)
		v.SetDefault(key+"max_new_per_run", 5)
		v.SetDefault(key+"requests_per_second", d.rps)
		v.SetDefault(key+"request_timeout", 10*time.Second)
		v.SetDefault(key+"recent_days", d.recentDays)
		v.SetDefault(key+"history_days", d.historyDays)
		v.SetDefault(key+"history_start", d.historyStart)
		v.SetDefault(key+"list_pages", d.listPages)
		v.SetDefault(key+"retry_attempts", 4)
		v.SetDefault(key+"retry_base_delay", time.Second)
		v.SetDefault(key+"breaker_failures", 20)
	}

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "momentum_series")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", 48*time.Hour)
	v.SetDefault("s3.bucket", "")
	v.SetDefault("s3.prefix", "momentum")
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.access_key", "")
	v.SetDefault("s3.secret_key", "")
	v.SetDefault("metrics.pushgateway_url", "")
	v.SetDefault("metrics.job", "momentum_updater")
}

func fromViper(v *viper.Viper) *AppConfig {
	cfg := &AppConfig{
		LogLevel:  v.GetString("log.level"),
		LogFormat: v.GetString("log.format"),
		Sources:   make(map[string]SourceConfig, len(defaults)),
		Kafka: KafkaConfig{
			Brokers: splitList(v.GetStringSlice("kafka.brokers")),
			Topic:   v.GetString("kafka.topic"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
			TTL:      v.GetDuration("redis.ttl"),
		},
		S3: S3Config{
			Bucket:    v.GetString("s3.bucket"),
			Prefix:    v.GetString("s3.prefix"),
			Region:    v.GetString("s3.region"),
			Endpoint:  v.GetString("s3.endpoint"),
			AccessKey: v.GetString("s3.access_key"),
			SecretKey: v.GetString("s3.secret_key"),
		},
		Metrics: MetricsConfig{
			PushgatewayURL: v.GetString("metrics.pushgateway_url"),
			Job:            v.GetString("metrics.job"),
		},
	}

	dataDir := v.GetString("data.dir")
	for name, d := range defaults {
		key := "sources." + name + "."
		src := SourceConfig{
			Name:              name,
			CatalogPath:       v.GetString(key + "catalog_path"),
			TickersPath:       v.GetString(key + "tickers_path"),
			TickerFiles:       splitList(v.GetStringSlice(key + "ticker_files")),
			BaseURL:           strings.TrimRight(v.GetString(key+"base_url"), "/"),
			Workers:           v.GetInt(key + "workers"),
			MaxNewPerRun:      v.GetInt(key + "max_new_per_run"),
			RequestsPerSecond: v.GetFloat64(key + "requests_per_second"),
			RequestTimeout:    v.GetDuration(key + "request_timeout"),
			RecentDays:        v.GetInt(key + "recent_days"),
			HistoryDays:       v.GetInt(key + "history_days"),
			HistoryStart:      v.GetString(key + "history_start"),
			ListPages:         v.GetInt(key + "list_pages"),
			RetryAttempts:     v.GetInt(key + "retry_attempts"),
			RetryBaseDelay:    v.GetDuration(key + "retry_base_delay"),
			BreakerFailures:   v.GetInt(key + "breaker_failures"),
		}
		if src.CatalogPath == "" {
			src.CatalogPath = fmt.Sprintf("%s/%s/%s_historical_data.json", dataDir, d.dir, d.file)
		}
		if src.TickersPath == "" {
			src.TickersPath = fmt.Sprintf("%s/%s/%s_tickers.json", dataDir, d.dir, d.file)
		}
		cfg.Sources[name] = src
	}

	return cfg
}

// Source returns the settings of name.
func (c *AppConfig) Source(name string) (SourceConfig, error) {
	src, ok := c.Sources[name]
	if !ok {
		return SourceConfig{}, fmt.Errorf("unknown source %q (want one of %s)", name, strings.Join(Sources, ", "))
	}
	return src, nil
}

// splitList accepts both YAML lists and comma-separated env values.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
