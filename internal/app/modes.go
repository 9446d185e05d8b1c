package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/glynfinck/trading/internal/config"
	"github.com/glynfinck/trading/internal/detector"
	"github.com/glynfinck/trading/internal/domain"
	"github.com/glynfinck/trading/internal/loader"
	"github.com/glynfinck/trading/internal/registry"
	"github.com/glynfinck/trading/internal/venue/kraken"
)

// runSpread runs the cross-venue spread detector until ctx is cancelled or a
// loop bound is hit.
func runSpread(ctx context.Context, cfg *config.Config, deps *Dependencies, logger *slog.Logger) error {
	exclusions, err := resolveExclusions(cfg, deps, logger)
	if err != nil {
		return err
	}

	spread := detector.NewSpread(detector.SpreadConfig{
		FeeBps:       cfg.Detector.FeeBps,
		ThresholdBps: cfg.Detector.ThresholdBps,
		Exclusions:   exclusions,
	}, logger)

	runner := detector.NewSpreadRunner(spread, deps.Collector, deps.Registry,
		runnerDeps(cfg, deps), loopConfig(cfg), logger)
	return runner.Run(ctx)
}

// runTriangular runs the triangular detector. With the Kraken WebSocket feed
// enabled the cycle set is built up front so the feed can subscribe to exactly
// the pairs the cycles need; otherwise the runner polls the REST ticker.
func runTriangular(ctx context.Context, cfg *config.Config, deps *Dependencies, logger *slog.Logger) error {
	pairTier, ok := domain.TierFromName(cfg.Triangular.PairTier)
	if !ok {
		return fmt.Errorf("app: invalid pair tier %q", cfg.Triangular.PairTier)
	}

	tri := detector.NewTriangular(detector.TriangularConfig{
		FeeBps:            cfg.Detector.FeeBps,
		ThresholdBps:      cfg.Detector.ThresholdBps,
		IgnoredCurrencies: cfg.Triangular.IgnoredCurrencies,
		PairTier:          pairTier,
	}, deps.Registry, deps.MarketStore, logger)

	if !cfg.Venues.KrakenWS {
		runner := detector.NewTriangularRunner(tri, deps.Kraken, deps.Kraken,
			runnerDeps(cfg, deps), loopConfig(cfg), logger)
		return runner.Run(ctx)
	}

	cycles, err := tri.BuildCycles(ctx, deps.Kraken)
	if err != nil {
		if errors.Is(err, domain.ErrNoTradeableCycles) {
			logger.WarnContext(ctx, "no tradeable cycles, triangular detection idle")
			return nil
		}
		return err
	}

	wsNames, err := deps.Kraken.WSNames(ctx, detector.CyclePairs(cycles))
	if err != nil {
		return fmt.Errorf("app: resolve websocket pair names: %w", err)
	}
	feed := kraken.NewTickerFeed(cfg.Venues.KrakenWSURL, wsNames, logger)

	runner := detector.NewTriangularRunner(tri, feed, deps.Kraken,
		runnerDeps(cfg, deps), loopConfig(cfg), logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return feed.Run(gctx) })
	g.Go(func() error { return runner.RunWithCycles(gctx, cycles) })
	return g.Wait()
}

// runLoader schedules intraday quote sampling and the end-of-day roll-up and
// export, then blocks until ctx is cancelled.
func runLoader(ctx context.Context, cfg *config.Config, deps *Dependencies, logger *slog.Logger) error {
	var exporter loader.BlobExporter
	if deps.BlobWriter != nil {
		exporter = deps.BlobWriter
	}
	ld := loader.New(loader.Config{
		ExportPrefix: cfg.Loader.ExportPrefix,
	}, deps.MarketStore, deps.Collector, exporter, logger)

	c := cron.New()
	c.Schedule(cron.Every(cfg.Loader.SampleInterval.Duration), cron.FuncJob(func() {
		if err := ld.Sample(ctx); err != nil {
			logger.ErrorContext(ctx, "quote sample failed",
				slog.String("error", err.Error()),
			)
		}
	}))
	if _, err := c.AddFunc(cfg.Loader.RollupCron, func() {
		if err := ld.RunDaily(ctx); err != nil {
			logger.ErrorContext(ctx, "daily roll-up failed",
				slog.String("error", err.Error()),
			)
		}
	}); err != nil {
		return fmt.Errorf("app: rollup schedule: %w", err)
	}

	logger.InfoContext(ctx, "loader schedule started",
		slog.Duration("sample_interval", cfg.Loader.SampleInterval.Duration),
		slog.String("rollup_cron", cfg.Loader.RollupCron),
	)
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return ctx.Err()
}

// runFull runs both detectors and the loader together; any fatal failure
// stops the whole group.
func runFull(ctx context.Context, cfg *config.Config, deps *Dependencies, logger *slog.Logger) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return runSpread(gctx, cfg, deps, logger) })
	g.Go(func() error { return runTriangular(gctx, cfg, deps, logger) })
	g.Go(func() error { return runLoader(gctx, cfg, deps, logger) })
	return g.Wait()
}

// resolveExclusions turns the configured "provider:FROM/TO" denylist entries
// into provider-scoped currency-id exclusions. Symbols that do not resolve to
// exactly one currency are configuration errors.
func resolveExclusions(cfg *config.Config, deps *Dependencies, logger *slog.Logger) ([]detector.PairExclusion, error) {
	hierarchy := domain.DefaultHierarchy()
	out := make([]detector.PairExclusion, 0, len(cfg.Spread.ExcludedPairs))
	for _, raw := range cfg.Spread.ExcludedPairs {
		providerName, fromSym, toSym, err := config.SplitExcludedPair(raw)
		if err != nil {
			return nil, fmt.Errorf("app: excluded pair %q: %w", raw, err)
		}
		provider := domain.ProviderFromName(providerName)
		if provider == 0 {
			return nil, fmt.Errorf("app: excluded pair %q: unknown provider %q", raw, providerName)
		}
		from := deps.Registry.Resolve(fromSym, hierarchy)
		to := deps.Registry.Resolve(toSym, hierarchy)
		if from.Status != registry.StatusMatched || to.Status != registry.StatusMatched {
			return nil, fmt.Errorf("app: excluded pair %q: symbol does not resolve uniquely", raw)
		}
		out = append(out, detector.PairExclusion{
			Provider:     provider,
			FromCurrency: from.CurrencyID,
			ToCurrency:   to.CurrencyID,
		})
	}
	if len(out) > 0 {
		logger.Info("spread pair exclusions active", slog.Int("count", len(out)))
	}
	return out, nil
}

func runnerDeps(cfg *config.Config, deps *Dependencies) detector.RunnerDeps {
	rd := detector.RunnerDeps{
		Notifier:    deps.Notifier,
		Cooldown:    deps.Cooldown,
		CooldownTTL: cfg.Detector.CooldownTTL.Duration,
		Snapshots:   deps.Snapshots,
		SnapshotTTL: cfg.Detector.SnapshotTTL.Duration,
	}
	if deps.BlobWriter != nil {
		rd.Archive = deps.BlobWriter
		rd.ArchivePrefix = cfg.S3.ArchivePrefix
	}
	return rd
}

func loopConfig(cfg *config.Config) detector.LoopConfig {
	return detector.LoopConfig{
		Interval:      cfg.Detector.PollInterval.Duration,
		MaxIterations: cfg.Detector.MaxIterations,
		MaxDuration:   cfg.Detector.MaxDuration.Duration,
	}
}
