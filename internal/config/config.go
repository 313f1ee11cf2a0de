package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	FMP         FMPConfig         `yaml:"fmp" mapstructure:"fmp"`
	Tavily      TavilyConfig      `yaml:"tavily" mapstructure:"tavily"`
	Store       StoreConfig       `yaml:"store" mapstructure:"store"`
	Imputation  ImputationConfig  `yaml:"imputation" mapstructure:"imputation"`
	Credibility CredibilityConfig `yaml:"credibility" mapstructure:"credibility"`
	Catalog     CatalogConfig     `yaml:"catalog" mapstructure:"catalog"`
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
}

// FMPConfig holds Financial Modeling Prep API settings.
type FMPConfig struct {
	Key           string `yaml:"key" mapstructure:"key"`
	BaseURL       string `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs   int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	AnnualPeriods int    `yaml:"annual_periods" mapstructure:"annual_periods"`
}

// TavilyConfig holds Tavily search API settings.
type TavilyConfig struct {
	Key         string  `yaml:"key" mapstructure:"key"`
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RateLimit   float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	RateBurst   int     `yaml:"rate_burst" mapstructure:"rate_burst"`
}

// StoreConfig configures the analysis cache backend.
type StoreConfig struct {
	Driver         string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL    string `yaml:"database_url" mapstructure:"database_url"`
	BundleTTLHours int    `yaml:"bundle_ttl_hours" mapstructure:"bundle_ttl_hours"`
	ResultTTLHours int    `yaml:"result_ttl_hours" mapstructure:"result_ttl_hours"`
}

// ImputationConfig configures the web imputation pipeline.
type ImputationConfig struct {
	Enabled                bool    `yaml:"enabled" mapstructure:"enabled"`
	DeadlineSecs           int     `yaml:"deadline_secs" mapstructure:"deadline_secs"`
	MaxQueriesPerField     int     `yaml:"max_queries_per_field" mapstructure:"max_queries_per_field"`
	MaxDocsPerQuery        int     `yaml:"max_docs_per_query" mapstructure:"max_docs_per_query"`
	MaxConcurrentFields    int     `yaml:"max_concurrent_fields" mapstructure:"max_concurrent_fields"`
	MaxConcurrentSearches  int     `yaml:"max_concurrent_searches" mapstructure:"max_concurrent_searches"`
	ClusterTolerance       float64 `yaml:"cluster_tolerance" mapstructure:"cluster_tolerance"`
	LowConfidenceThreshold float64 `yaml:"low_confidence_threshold" mapstructure:"low_confidence_threshold"`
}

// CredibilityConfig holds the source scoring weights. The four weights
// must sum to 1.
type CredibilityConfig struct {
	DomainWeight       float64 `yaml:"domain_weight" mapstructure:"domain_weight"`
	ContentWeight      float64 `yaml:"content_weight" mapstructure:"content_weight"`
	RecencyWeight      float64 `yaml:"recency_weight" mapstructure:"recency_weight"`
	PresentationWeight float64 `yaml:"presentation_weight" mapstructure:"presentation_weight"`
}

// CatalogConfig points at an optional strategy-requirements override file.
type CatalogConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("STOCKLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. The empty key/path defaults register those keys with
	// viper so AutomaticEnv values survive Unmarshal.
	v.SetDefault("fmp.key", "")
	v.SetDefault("tavily.key", "")
	v.SetDefault("catalog.path", "")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "stocklens.db")
	v.SetDefault("store.bundle_ttl_hours", 24)
	v.SetDefault("store.result_ttl_hours", 6)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("fmp.base_url", "https://financialmodelingprep.com/api/v3")
	v.SetDefault("fmp.timeout_secs", 15)
	v.SetDefault("fmp.annual_periods", 10)
	v.SetDefault("tavily.base_url", "https://api.tavily.com")
	v.SetDefault("tavily.timeout_secs", 10)
	v.SetDefault("tavily.rate_limit", 4.0)
	v.SetDefault("tavily.rate_burst", 8)
	v.SetDefault("imputation.enabled", true)
	v.SetDefault("imputation.deadline_secs", 20)
	v.SetDefault("imputation.max_queries_per_field", 4)
	v.SetDefault("imputation.max_docs_per_query", 3)
	v.SetDefault("imputation.max_concurrent_fields", 4)
	v.SetDefault("imputation.max_concurrent_searches", 6)
	v.SetDefault("imputation.cluster_tolerance", 0.02)
	v.SetDefault("imputation.low_confidence_threshold", 0.5)
	v.SetDefault("credibility.domain_weight", 0.4)
	v.SetDefault("credibility.content_weight", 0.3)
	v.SetDefault("credibility.recency_weight", 0.15)
	v.SetDefault("credibility.presentation_weight", 0.15)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
