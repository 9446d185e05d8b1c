package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies TRADING_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known TRADING_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "TRADING_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "TRADING_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "TRADING_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "TRADING_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "TRADING_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "TRADING_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "TRADING_POSTGRES_SSL_MODE")
	setInt(&cfg.Postgres.PoolMaxConns, "TRADING_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "TRADING_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "TRADING_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "TRADING_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "TRADING_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "TRADING_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "TRADING_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "TRADING_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "TRADING_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "TRADING_REDIS_TLS_ENABLED")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "TRADING_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "TRADING_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "TRADING_S3_REGION")
	setStr(&cfg.S3.Bucket, "TRADING_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "TRADING_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "TRADING_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "TRADING_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "TRADING_S3_FORCE_PATH_STYLE")
	setStr(&cfg.S3.ArchivePrefix, "TRADING_S3_ARCHIVE_PREFIX")

	// ── Venues ──
	setStringSlice(&cfg.Venues.Enabled, "TRADING_VENUES_ENABLED")
	setStr(&cfg.Venues.KrakenURL, "TRADING_VENUES_KRAKEN_URL")
	setStr(&cfg.Venues.BinanceURL, "TRADING_VENUES_BINANCE_URL")
	setStr(&cfg.Venues.HTXURL, "TRADING_VENUES_HTX_URL")
	setStr(&cfg.Venues.MEXCURL, "TRADING_VENUES_MEXC_URL")
	setBool(&cfg.Venues.KrakenWS, "TRADING_VENUES_KRAKEN_WS")
	setStr(&cfg.Venues.KrakenWSURL, "TRADING_VENUES_KRAKEN_WS_URL")

	// ── Detector ──
	setFloat64(&cfg.Detector.ThresholdBps, "TRADING_DETECTOR_THRESHOLD_BPS")
	setFloat64(&cfg.Detector.FeeBps, "TRADING_DETECTOR_FEE_BPS")
	setDuration(&cfg.Detector.PollInterval, "TRADING_DETECTOR_POLL_INTERVAL")
	setInt(&cfg.Detector.MaxIterations, "TRADING_DETECTOR_MAX_ITERATIONS")
	setDuration(&cfg.Detector.MaxDuration, "TRADING_DETECTOR_MAX_DURATION")
	setDuration(&cfg.Detector.FetchTimeout, "TRADING_DETECTOR_FETCH_TIMEOUT")
	setInt(&cfg.Detector.WorkerPoolSize, "TRADING_DETECTOR_WORKER_POOL_SIZE")
	setDuration(&cfg.Detector.CooldownTTL, "TRADING_DETECTOR_COOLDOWN_TTL")
	setDuration(&cfg.Detector.SnapshotTTL, "TRADING_DETECTOR_SNAPSHOT_TTL")

	// ── Spread / Triangular ──
	setStringSlice(&cfg.Spread.ExcludedPairs, "TRADING_SPREAD_EXCLUDED_PAIRS")
	setStringSlice(&cfg.Triangular.IgnoredCurrencies, "TRADING_TRIANGULAR_IGNORED_CURRENCIES")
	setStr(&cfg.Triangular.PairTier, "TRADING_TRIANGULAR_PAIR_TIER")

	// ── Loader ──
	setDuration(&cfg.Loader.SampleInterval, "TRADING_LOADER_SAMPLE_INTERVAL")
	setStr(&cfg.Loader.RollupCron, "TRADING_LOADER_ROLLUP_CRON")
	setStr(&cfg.Loader.ExportPrefix, "TRADING_LOADER_EXPORT_PREFIX")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "TRADING_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "TRADING_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "TRADING_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "TRADING_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "TRADING_MODE")
	setStr(&cfg.LogLevel, "TRADING_LOG_LEVEL")
	setStr(&cfg.LogFile, "TRADING_LOG_FILE")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
