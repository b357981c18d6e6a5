package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Geocode    GeocodeConfig    `yaml:"geocode" mapstructure:"geocode"`
	Auth       AuthConfig       `yaml:"auth" mapstructure:"auth"`
	Functions  FunctionsConfig  `yaml:"functions" mapstructure:"functions"`
	Filter     FilterConfig     `yaml:"filter" mapstructure:"filter"`
	Import     ImportConfig     `yaml:"import" mapstructure:"import"`
	Bounds     BoundsConfig     `yaml:"bounds" mapstructure:"bounds"`
	Monitoring MonitoringConfig `yaml:"monitoring" mapstructure:"monitoring"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	// SnapshotTTLSecs is how long the server reuses a fetched snapshot.
	SnapshotTTLSecs int `yaml:"snapshot_ttl_secs" mapstructure:"snapshot_ttl_secs"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// GeocodeConfig holds Google Geocoding settings.
type GeocodeConfig struct {
	GoogleKey        string  `yaml:"google_key" mapstructure:"google_key"`
	Region           string  `yaml:"region" mapstructure:"region"`
	RateLimit        float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	CacheSize        int     `yaml:"cache_size" mapstructure:"cache_size"`
	CacheTTLMins     int     `yaml:"cache_ttl_mins" mapstructure:"cache_ttl_mins"`
	BreakerThreshold int     `yaml:"breaker_threshold" mapstructure:"breaker_threshold"`
}

// AuthConfig holds ID token verification settings.
type AuthConfig struct {
	SigningSecret string `yaml:"signing_secret" mapstructure:"signing_secret"`
	Issuer        string `yaml:"issuer" mapstructure:"issuer"`
}

// FunctionsConfig points at the deployed callable functions.
type FunctionsConfig struct {
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	Token       string `yaml:"token" mapstructure:"token"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// FilterConfig configures list views.
type FilterConfig struct {
	PageSize int    `yaml:"page_size" mapstructure:"page_size"`
	Timezone string `yaml:"timezone" mapstructure:"timezone"`
}

// ImportConfig configures spreadsheet imports.
type ImportConfig struct {
	Concurrency int     `yaml:"concurrency" mapstructure:"concurrency"`
	DefaultLat  float64 `yaml:"default_lat" mapstructure:"default_lat"`
	DefaultLng  float64 `yaml:"default_lng" mapstructure:"default_lng"`
}

// BoundsConfig is the service area admins may record crimes in.
type BoundsConfig struct {
	NELat float64 `yaml:"ne_lat" mapstructure:"ne_lat"`
	NELng float64 `yaml:"ne_lng" mapstructure:"ne_lng"`
	SWLat float64 `yaml:"sw_lat" mapstructure:"sw_lat"`
	SWLng float64 `yaml:"sw_lng" mapstructure:"sw_lng"`
}

// MonitoringConfig configures the moderation backlog checker.
type MonitoringConfig struct {
	WebhookURL          string `yaml:"webhook_url" mapstructure:"webhook_url"`
	CheckIntervalSecs   int    `yaml:"check_interval_secs" mapstructure:"check_interval_secs"`
	LookbackWindowHours int    `yaml:"lookback_window_hours" mapstructure:"lookback_window_hours"`
	PendingThreshold    int    `yaml:"pending_threshold" mapstructure:"pending_threshold"`
	PendingMaxAgeHours  int    `yaml:"pending_max_age_hours" mapstructure:"pending_max_age_hours"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LISTO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "listo.db")
	v.SetDefault("store.snapshot_ttl_secs", 30)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("geocode.region", "PH")
	v.SetDefault("geocode.rate_limit", 10)
	v.SetDefault("geocode.cache_size", 1024)
	v.SetDefault("geocode.cache_ttl_mins", 60)
	v.SetDefault("geocode.breaker_threshold", 5)
	v.SetDefault("functions.timeout_secs", 30)
	v.SetDefault("filter.page_size", 10)
	v.SetDefault("filter.timezone", "Asia/Manila")
	v.SetDefault("import.concurrency", 4)
	v.SetDefault("import.default_lat", 14.6522)
	v.SetDefault("import.default_lng", 121.0633)
	v.SetDefault("bounds.ne_lat", 14.693963)
	v.SetDefault("bounds.ne_lng", 121.101193)
	v.SetDefault("bounds.sw_lat", 14.649732)
	v.SetDefault("bounds.sw_lng", 121.067052)
	v.SetDefault("monitoring.check_interval_secs", 300)
	v.SetDefault("monitoring.lookback_window_hours", 24)
	v.SetDefault("monitoring.pending_threshold", 25)
	v.SetDefault("monitoring.pending_max_age_hours", 48)

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

// Validate checks values that would otherwise fail deep inside a command.
// mode is "cli" for one-shot commands or "serve" for the HTTP API.
func (c *Config) Validate(mode string) error {
	switch mode {
	case "cli":
	case "serve":
		if c.Server.Port <= 0 {
			return eris.Errorf("config: server.port must be > 0, got %d", c.Server.Port)
		}
		if c.Auth.SigningSecret == "" {
			return eris.New("config: auth.signing_secret is required")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}
	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		return eris.Errorf("config: unknown store driver %q", c.Store.Driver)
	}
	if c.Store.DatabaseURL == "" {
		return eris.New("config: store.database_url is required")
	}
	if c.Filter.PageSize < 1 {
		return eris.Errorf("config: filter.page_size must be positive, got %d", c.Filter.PageSize)
	}
	if _, err := c.Filter.Location(); err != nil {
		return err
	}
	if c.Import.Concurrency < 1 {
		return eris.Errorf("config: import.concurrency must be positive, got %d", c.Import.Concurrency)
	}
	return nil
}

// Location resolves the configured timezone. Asia/Manila falls back to a fixed UTC+8 zone
// on hosts without tzdata.
func (f FilterConfig) Location() (*time.Location, error) {
	if f.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(f.Timezone)
	if err == nil {
		return loc, nil
	}
	if f.Timezone == "Asia/Manila" {
		return time.FixedZone("PHT", 8*60*60), nil
	}
	return nil, eris.Wrapf(err, "config: load timezone %q", f.Timezone)
}

// CacheTTL returns the geocode cache lifetime.
func (g GeocodeConfig) CacheTTL() time.Duration {
	return time.Duration(g.CacheTTLMins) * time.Minute
}

// Timeout returns the functions call timeout.
func (f FunctionsConfig) Timeout() time.Duration {
	return time.Duration(f.TimeoutSecs) * time.Second
}

// SnapshotTTL returns how long a fetched snapshot is reused.
func (s StoreConfig) SnapshotTTL() time.Duration {
	return time.Duration(s.SnapshotTTLSecs) * time.Second
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
