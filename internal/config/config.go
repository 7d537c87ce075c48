package config

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config holds the overall configuration for the application.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Logging     LoggingConfig     `yaml:"logging"`
	CoinGecko   CoinGeckoConfig   `yaml:"coinGecko"`
	Scheduler   SchedulerConfig   `yaml:"scheduler"`
	Fetcher     FetcherConfig     `yaml:"fetcher"`
	Cache       CacheConfig       `yaml:"cache"`
	MarketData  MarketDataConfig  `yaml:"marketData"`
	Directory   DirectoryConfig   `yaml:"directory"`
	Correlation CorrelationConfig `yaml:"correlation"`
}

// ServerConfig holds the HTTP server configuration.
type ServerConfig struct {
	Port         string `yaml:"port"`
	ReadTimeout  int    `yaml:"readTimeout"`
	WriteTimeout int    `yaml:"writeTimeout"`
	IdleTimeout  int    `yaml:"idleTimeout"`
}

// LoggingConfig holds the configuration for logging.
type LoggingConfig struct {
	Level string `yaml:"level"` // e.g., "debug", "info", "warn", "error"
}

// CoinGeckoConfig holds the configuration for the upstream market API client.
type CoinGeckoConfig struct {
	BaseURL              string `yaml:"baseURL"`
	RequestTimeoutMillis int64  `yaml:"requestTimeoutMillis"`
}

// SchedulerConfig holds the outbound request pacing configuration.
type SchedulerConfig struct {
	MinRequestIntervalMillis int64 `yaml:"minRequestIntervalMillis"`
}

// FetcherConfig holds the retry/backoff policy for single upstream calls.
type FetcherConfig struct {
	MaxRetries           int   `yaml:"maxRetries"`
	InitialBackoffMillis int64 `yaml:"initialBackoffMillis"`
	MaxBackoffMillis     int64 `yaml:"maxBackoffMillis"`
}

// CacheConfig holds the response memoization TTL.
type CacheConfig struct {
	TTLSeconds             int `yaml:"ttlSeconds"`
	CleanupIntervalMinutes int `yaml:"cleanupIntervalMinutes"`
}

// MarketDataConfig holds batching limits for multi-coin operations.
type MarketDataConfig struct {
	SnapshotBatchSize int `yaml:"snapshotBatchSize"`
	HistoryBatchSize  int `yaml:"historyBatchSize"`
	SearchResultLimit int `yaml:"searchResultLimit"`
}

// DirectoryConfig holds the token directory refresh loop configuration.
type DirectoryConfig struct {
	BatchSize          int      `yaml:"batchSize"`
	BatchDelayMillis   int64    `yaml:"batchDelayMillis"`
	CycleTTLMinutes    int      `yaml:"cycleTTLMinutes"`
	RestartDelayMillis int64    `yaml:"restartDelayMillis"`
	DefaultCurrency    string   `yaml:"defaultCurrency"`
	SeedTokens         []string `yaml:"seedTokens"`
	LocalSearchMinHits int      `yaml:"localSearchMinHits"`
	SearchResultLimit  int      `yaml:"searchResultLimit"`
}

// CorrelationConfig holds the correlation ranking configuration.
type CorrelationConfig struct {
	CandidatePoolSize int `yaml:"candidatePoolSize"`
}

// defaultSeedTokens keeps the directory usable when the full coin listing
// cannot be fetched at startup.
var defaultSeedTokens = []string{
	"bitcoin", "ethereum", "binancecoin", "ripple", "cardano",
	"solana", "polkadot", "dogecoin", "avalanche-2", "chainlink",
}

// LoadConfig loads configuration from a YAML file and applies defaults for
// unset values.
func LoadConfig(path string) (*Config, error) {
	logrus.Infof("Loading configuration from path: %s", path)
	data, err := os.ReadFile(path)
	if err != nil {
		logrus.Errorf("Failed to read config file %s: %v", path, err)
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		logrus.Errorf("Failed to unmarshal config data from %s: %v", path, err)
		return nil, fmt.Errorf("failed to unmarshal config data from %s: %w", path, err)
	}

	applyDefaults(&cfg)

	logrus.Info("Configuration loaded successfully.")
	return &cfg, nil
}

// Default returns a configuration with every default applied, used when no
// config file is supplied.
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg)
	return &cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = ":8080"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 15
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = 60
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}

	if cfg.CoinGecko.BaseURL == "" {
		cfg.CoinGecko.BaseURL = "https://api.coingecko.com/api/v3"
		logrus.Infof("CoinGecko.BaseURL not set, defaulting to %s", cfg.CoinGecko.BaseURL)
	}
	if cfg.CoinGecko.RequestTimeoutMillis == 0 {
		cfg.CoinGecko.RequestTimeoutMillis = 10000
	}

	if cfg.Scheduler.MinRequestIntervalMillis == 0 {
		cfg.Scheduler.MinRequestIntervalMillis = 1100
	}

	if cfg.Fetcher.MaxRetries == 0 {
		cfg.Fetcher.MaxRetries = 3
	}
	if cfg.Fetcher.InitialBackoffMillis == 0 {
		cfg.Fetcher.InitialBackoffMillis = 1000
	}
	if cfg.Fetcher.MaxBackoffMillis == 0 {
		cfg.Fetcher.MaxBackoffMillis = 10000
	}

	if cfg.Cache.TTLSeconds == 0 {
		cfg.Cache.TTLSeconds = 60
	}
	if cfg.Cache.CleanupIntervalMinutes == 0 {
		cfg.Cache.CleanupIntervalMinutes = 10
	}

	if cfg.MarketData.SnapshotBatchSize == 0 {
		cfg.MarketData.SnapshotBatchSize = 5
	}
	if cfg.MarketData.HistoryBatchSize == 0 {
		cfg.MarketData.HistoryBatchSize = 3
	}
	if cfg.MarketData.SearchResultLimit == 0 {
		cfg.MarketData.SearchResultLimit = 10
	}

	if cfg.Directory.BatchSize == 0 {
		cfg.Directory.BatchSize = 10
	}
	if cfg.Directory.BatchDelayMillis == 0 {
		cfg.Directory.BatchDelayMillis = 1500
	}
	if cfg.Directory.CycleTTLMinutes == 0 {
		cfg.Directory.CycleTTLMinutes = 5
	}
	if cfg.Directory.RestartDelayMillis == 0 {
		cfg.Directory.RestartDelayMillis = 1000
	}
	if cfg.Directory.DefaultCurrency == "" {
		cfg.Directory.DefaultCurrency = "usd"
	}
	if len(cfg.Directory.SeedTokens) == 0 {
		cfg.Directory.SeedTokens = defaultSeedTokens
	}
	if cfg.Directory.LocalSearchMinHits == 0 {
		cfg.Directory.LocalSearchMinHits = 5
	}
	if cfg.Directory.SearchResultLimit == 0 {
		cfg.Directory.SearchResultLimit = 10
	}

	if cfg.Correlation.CandidatePoolSize == 0 {
		cfg.Correlation.CandidatePoolSize = 15
	}
}
