package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	s3blob "github.com/glynfinck/trading/internal/blob/s3"
	"github.com/glynfinck/trading/internal/cache/redis"
	"github.com/glynfinck/trading/internal/config"
	"github.com/glynfinck/trading/internal/domain"
	"github.com/glynfinck/trading/internal/notify"
	"github.com/glynfinck/trading/internal/registry"
	"github.com/glynfinck/trading/internal/store/postgres"
	"github.com/glynfinck/trading/internal/venue"
	"github.com/glynfinck/trading/internal/venue/binance"
	"github.com/glynfinck/trading/internal/venue/htx"
	"github.com/glynfinck/trading/internal/venue/kraken"
	"github.com/glynfinck/trading/internal/venue/mexc"
)

// Dependencies bundles everything the application modes need. It is
// constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	// Registry is loaded once from the currency store; missing or empty
	// registry data is fatal at wire time, before any polling starts.
	Registry *registry.Registry

	MarketStore domain.MarketStore

	// Cooldown and Snapshots are nil when Redis is disabled.
	Cooldown  domain.AlertCooldown
	Snapshots domain.SnapshotCache

	// BlobWriter is nil when S3 is disabled.
	BlobWriter *s3blob.Writer

	Notifier *notify.Notifier

	// Venues are the collector's fetch targets; Kraken additionally serves
	// the triangular detector's pair listing and live ticker.
	Venues    []venue.Venue
	Kraken    *kraken.Client
	Collector *venue.Collector
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them with a cleanup function to call on
// shutdown.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- PostgreSQL: registry source and market history ---
	pgClient, err := postgres.New(ctx, postgres.ClientConfig{
		DSN:      cfg.Postgres.DSN,
		Host:     cfg.Postgres.Host,
		Port:     cfg.Postgres.Port,
		Database: cfg.Postgres.Database,
		User:     cfg.Postgres.User,
		Password: cfg.Postgres.Password,
		SSLMode:  cfg.Postgres.SSLMode,
		MaxConns: cfg.Postgres.PoolMaxConns,
		MinConns: cfg.Postgres.PoolMinConns,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: postgres: %w", err)
	}
	closers = append(closers, pgClient.Close)

	if cfg.Postgres.RunMigrations {
		if err := pgClient.RunMigrations(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
		}
	}

	pool := pgClient.Pool()
	deps.MarketStore = postgres.NewMarketStore(pool)

	records, err := postgres.NewCurrencyStore(pool).List(ctx)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: load currencies: %w", err)
	}
	deps.Registry, err = registry.New(records)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: build registry: %w", err)
	}
	logger.InfoContext(ctx, "currency registry loaded",
		slog.Int("currencies", deps.Registry.Len()),
	)

	// --- Redis: alert cooldown and tick snapshots ---
	if cfg.Redis.Enabled {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		deps.Cooldown = redis.NewCooldown(redisClient)
		deps.Snapshots = redis.NewSnapshotCache(redisClient)
	}

	// --- S3: tick archives and daily exports ---
	if cfg.S3.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		closers = append(closers, func() { _ = s3Client.Close() })

		deps.BlobWriter = s3blob.NewWriter(s3Client)
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	// --- Venues ---
	for _, name := range cfg.Venues.Enabled {
		switch strings.ToLower(name) {
		case "kraken":
			deps.Kraken = kraken.NewClient(cfg.Venues.KrakenURL)
			deps.Venues = append(deps.Venues, deps.Kraken)
		case "binance":
			deps.Venues = append(deps.Venues, binance.NewClient(cfg.Venues.BinanceURL))
		case "htx":
			deps.Venues = append(deps.Venues, htx.NewClient(cfg.Venues.HTXURL))
		case "mexc":
			deps.Venues = append(deps.Venues, mexc.NewClient(cfg.Venues.MEXCURL))
		default:
			cleanup()
			return nil, nil, fmt.Errorf("wire: unknown venue %q", name)
		}
	}
	// The triangular detector needs Kraken for pair listing and live prices
	// even when it is not a collector target.
	if deps.Kraken == nil {
		deps.Kraken = kraken.NewClient(cfg.Venues.KrakenURL)
	}

	deps.Collector = venue.NewCollector(deps.Venues, deps.Registry, venue.CollectorConfig{
		FetchTimeout: cfg.Detector.FetchTimeout.Duration,
		Workers:      cfg.Detector.WorkerPoolSize,
	}, logger)

	return deps, cleanup, nil
}
