// Package config defines the top-level configuration for the arbitrage
// detector and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by TRADING_* environment
// variables.
type Config struct {
	Postgres   PostgresConfig   `toml:"postgres"`
	Redis      RedisConfig      `toml:"redis"`
	S3         S3Config         `toml:"s3"`
	Venues     VenuesConfig     `toml:"venues"`
	Detector   DetectorConfig   `toml:"detector"`
	Spread     SpreadConfig     `toml:"spread"`
	Triangular TriangularConfig `toml:"triangular"`
	Loader     LoaderConfig     `toml:"loader"`
	Notify     NotifyConfig     `toml:"notify"`
	Mode       string           `toml:"mode"`
	LogLevel   string           `toml:"log_level"`
	// LogFile enables rotating file output alongside stdout when set.
	LogFile string `toml:"log_file"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters. Redis backs the alert
// cooldown and the tick snapshot cache; disabling it means every open
// opportunity alerts every tick.
type RedisConfig struct {
	Enabled    bool   `toml:"enabled"`
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// S3Config holds S3-compatible object storage parameters for tick archives
// and daily exports.
type S3Config struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
	ArchivePrefix  string `toml:"archive_prefix"`
}

// VenuesConfig selects which venues the collector polls and lets each
// venue's base URL be overridden for testing.
type VenuesConfig struct {
	Enabled    []string `toml:"enabled"`
	KrakenURL  string   `toml:"kraken_url"`
	BinanceURL string   `toml:"binance_url"`
	HTXURL     string   `toml:"htx_url"`
	MEXCURL    string   `toml:"mexc_url"`
	// KrakenWS switches the triangular ticker source from REST polling to
	// the Kraken WebSocket feed.
	KrakenWS    bool   `toml:"kraken_ws"`
	KrakenWSURL string `toml:"kraken_ws_url"`
}

// DetectorConfig holds the knobs shared by both detectors.
type DetectorConfig struct {
	// ThresholdBps is the extra edge beyond fees required to fire.
	ThresholdBps float64 `toml:"threshold_bps"`
	// FeeBps is the per-leg venue fee.
	FeeBps float64 `toml:"fee_bps"`
	// PollInterval is the sleep between detection ticks.
	PollInterval duration `toml:"poll_interval"`
	// MaxIterations bounds the loop; 0 means unbounded.
	MaxIterations int `toml:"max_iterations"`
	// MaxDuration bounds the loop by elapsed time; 0 means unbounded.
	MaxDuration duration `toml:"max_duration"`
	// FetchTimeout bounds each venue fetch within a tick.
	FetchTimeout duration `toml:"fetch_timeout"`
	// WorkerPoolSize bounds concurrent venue fetches; 0 means one per venue.
	WorkerPoolSize int `toml:"worker_pool_size"`
	// CooldownTTL is how long a fired opportunity stays silenced.
	CooldownTTL duration `toml:"cooldown_ttl"`
	// SnapshotTTL is how long a published tick snapshot stays readable.
	SnapshotTTL duration `toml:"snapshot_ttl"`
}

// SpreadConfig holds spread-detector specific settings.
type SpreadConfig struct {
	// ExcludedPairs suppresses a pair on one venue only, as
	// "provider:FROM/TO" entries using any registry representation, e.g.
	// "kraken:XBT/USD".
	ExcludedPairs []string `toml:"excluded_pairs"`
}

// TriangularConfig holds triangular-detector specific settings.
type TriangularConfig struct {
	// IgnoredCurrencies keeps the named symbols out of every cycle.
	IgnoredCurrencies []string `toml:"ignored_currencies"`
	// PairTier is the representation tier leg pair symbols are synthesized
	// from: "name", "altname" or "bname".
	PairTier string `toml:"pair_tier"`
}

// LoaderConfig holds market-history loader settings.
type LoaderConfig struct {
	// SampleInterval is the spacing between intraday quote samples.
	SampleInterval duration `toml:"sample_interval"`
	// RollupCron schedules the end-of-day roll-up and export.
	RollupCron string `toml:"rollup_cron"`
	// ExportPrefix is the object-key prefix for daily exports.
	ExportPrefix string `toml:"export_prefix"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
func Defaults() Config {
	return Config{
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "trading",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Enabled:    true,
			Addr:       "localhost:6379",
			PoolSize:   20,
			MaxRetries: 3,
		},
		S3: S3Config{
			Enabled:        false,
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "trading-data",
			ForcePathStyle: true,
			ArchivePrefix:  "ticks",
		},
		Venues: VenuesConfig{
			Enabled:     []string{"kraken", "binance", "htx", "mexc"},
			KrakenWS:    false,
			KrakenWSURL: "wss://ws.kraken.com",
		},
		Detector: DetectorConfig{
			ThresholdBps:   2,
			FeeBps:         0.4,
			PollInterval:   duration{30 * time.Second},
			FetchTimeout:   duration{15 * time.Second},
			WorkerPoolSize: 0,
			CooldownTTL:    duration{10 * time.Minute},
			SnapshotTTL:    duration{5 * time.Minute},
		},
		Triangular: TriangularConfig{
			PairTier: "altname",
		},
		Loader: LoaderConfig{
			SampleInterval: duration{5 * time.Minute},
			RollupCron:     "10 0 * * *",
			ExportPrefix:   "daily",
		},
		Notify: NotifyConfig{
			Events: []string{"spread_opportunity", "triangular_opportunity", "error"},
		},
		Mode:     "full",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"spread":     true,
	"triangular": true,
	"load":       true,
	"full":       true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validPairTiers enumerates the accepted values for Triangular.PairTier.
var validPairTiers = map[string]bool{
	"name":    true,
	"altname": true,
	"bname":   true,
}

// knownVenues enumerates the venue names the collector can construct.
var knownVenues = map[string]bool{
	"kraken":  true,
	"binance": true,
	"htx":     true,
	"mexc":    true,
}

// Validate checks Config for obviously invalid or missing values and returns
// a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: spread, triangular, load, full)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Postgres
	if strings.TrimSpace(c.Postgres.DSN) == "" {
		if c.Postgres.Host == "" {
			errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
		}
		if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
			errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
		}
		if c.Postgres.Database == "" {
			errs = append(errs, "postgres: database must not be empty")
		}
	}
	if c.Postgres.PoolMaxConns < 1 {
		errs = append(errs, "postgres: pool_max_conns must be >= 1")
	}
	if c.Postgres.PoolMinConns < 0 {
		errs = append(errs, "postgres: pool_min_conns must be >= 0")
	}
	if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
		errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
	}

	// Redis
	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty when enabled")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	}

	// S3
	if c.S3.Enabled {
		if c.S3.Endpoint == "" {
			errs = append(errs, "s3: endpoint must not be empty when enabled")
		}
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty when enabled")
		}
	}

	// Venues
	if len(c.Venues.Enabled) == 0 {
		errs = append(errs, "venues: at least one venue must be enabled")
	}
	for _, name := range c.Venues.Enabled {
		if !knownVenues[strings.ToLower(name)] {
			errs = append(errs, fmt.Sprintf("venues: unknown venue %q (valid: kraken, binance, htx, mexc)", name))
		}
	}

	// Detector
	if c.Detector.ThresholdBps < 0 {
		errs = append(errs, "detector: threshold_bps must be >= 0")
	}
	if c.Detector.FeeBps < 0 {
		errs = append(errs, "detector: fee_bps must be >= 0")
	}
	if c.Detector.PollInterval.Duration <= 0 {
		errs = append(errs, "detector: poll_interval must be > 0")
	}
	if c.Detector.FetchTimeout.Duration <= 0 {
		errs = append(errs, "detector: fetch_timeout must be > 0")
	}
	if c.Detector.MaxIterations < 0 {
		errs = append(errs, "detector: max_iterations must be >= 0")
	}

	// Spread exclusions are "provider:FROM/TO".
	for _, raw := range c.Spread.ExcludedPairs {
		if _, _, _, err := SplitExcludedPair(raw); err != nil {
			errs = append(errs, fmt.Sprintf("spread: %v", err))
		}
	}

	// Triangular
	if !validPairTiers[strings.ToLower(c.Triangular.PairTier)] {
		errs = append(errs, fmt.Sprintf("triangular: unknown pair_tier %q (valid: name, altname, bname)", c.Triangular.PairTier))
	}

	// Loader
	if c.Mode == "load" || c.Mode == "full" {
		if c.Loader.SampleInterval.Duration <= 0 {
			errs = append(errs, "loader: sample_interval must be > 0")
		}
		if strings.TrimSpace(c.Loader.RollupCron) == "" {
			errs = append(errs, "loader: rollup_cron must not be empty")
		}
	}

	// Notify — both Telegram fields must be set together.
	tt := c.Notify.TelegramToken != ""
	tc := c.Notify.TelegramChatID != ""
	if tt != tc {
		errs = append(errs, "notify: telegram_token and telegram_chat_id must be set together")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// SplitExcludedPair parses a "provider:FROM/TO" exclusion entry into its
// three symbol parts. Symbol resolution against the registry happens at
// wiring time, not here.
func SplitExcludedPair(raw string) (provider, from, to string, err error) {
	provider, pair, ok := strings.Cut(raw, ":")
	if !ok {
		return "", "", "", fmt.Errorf("excluded pair %q: want provider:FROM/TO", raw)
	}
	from, to, ok = strings.Cut(pair, "/")
	if !ok || strings.TrimSpace(from) == "" || strings.TrimSpace(to) == "" {
		return "", "", "", fmt.Errorf("excluded pair %q: want provider:FROM/TO", raw)
	}
	return strings.TrimSpace(provider), strings.TrimSpace(from), strings.TrimSpace(to), nil
}
