package detector

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/glynfinck/trading/internal/domain"
	"github.com/glynfinck/trading/internal/notify"
	"github.com/glynfinck/trading/internal/registry"
)

// Event types attached to outgoing notifications.
const (
	EventSpreadOpportunity     = "spread_opportunity"
	EventTriangularOpportunity = "triangular_opportunity"
)

// Notifier delivers opportunity alerts. The notify package's dispatcher
// satisfies it.
type Notifier interface {
	Notify(ctx context.Context, event, title, message string) error
}

// QuoteSource produces one tick's worth of normalized quotes across venues.
// The venue collector satisfies it. Venue failures never surface here; a
// failed venue simply contributes no quotes.
type QuoteSource interface {
	Collect(ctx context.Context) []domain.Quote
}

// RunnerDeps carries the optional plumbing shared by both runners. Nil fields
// disable the corresponding behavior.
type RunnerDeps struct {
	Notifier    Notifier
	Cooldown    domain.AlertCooldown
	CooldownTTL time.Duration
	Snapshots   domain.SnapshotCache
	SnapshotTTL time.Duration
	Archive     domain.BlobWriter
	// ArchivePrefix is the object-key prefix for archived tick inputs.
	ArchivePrefix string
}

// SpreadRunner drives the spread detector: collect, detect, report, sleep.
type SpreadRunner struct {
	detector *Spread
	source   QuoteSource
	reg      *registry.Registry
	deps     RunnerDeps
	loop     LoopConfig
	logger   *slog.Logger
}

// NewSpreadRunner creates a spread runner.
func NewSpreadRunner(detector *Spread, source QuoteSource, reg *registry.Registry, deps RunnerDeps, loop LoopConfig, logger *slog.Logger) *SpreadRunner {
	return &SpreadRunner{
		detector: detector,
		source:   source,
		reg:      reg,
		deps:     deps,
		loop:     loop,
		logger:   logger.With(slog.String("component", "spread_runner")),
	}
}

// Run polls until ctx is cancelled or a loop bound is reached. A failed tick
// is logged and skipped; the loop itself only stops on cancellation.
func (r *SpreadRunner) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "spread detection started",
		slog.Float64("fire_threshold", r.detector.FireThreshold()),
		slog.Duration("interval", r.loop.Interval),
	)

	return runLoop(ctx, r.loop, func(ctx context.Context, iteration int) error {
		quotes := r.source.Collect(ctx)
		r.archiveTick(ctx, "spread", quotes)

		result := r.detector.Detect(ctx, quotes)
		fired := result.Found && r.detector.Fires(result.Best.ProfitRatio)

		attrs := []any{
			slog.Int("iteration", iteration),
			slog.Int("quotes", len(quotes)),
			slog.Int("groups", result.Groups),
			slog.Bool("fired", fired),
		}
		if result.Found {
			attrs = append(attrs, slog.Float64("best_ratio", result.Best.ProfitRatio))
		}
		r.logger.InfoContext(ctx, "spread tick evaluated", attrs...)

		r.publishSnapshot(ctx, "snapshot:spread", spreadSnapshot{
			Iteration: iteration,
			Quotes:    len(quotes),
			Groups:    result.Groups,
			Fired:     fired,
			Best:      bestOrNil(result.Found, result.Best),
			At:        time.Now().UTC(),
		})

		if fired {
			r.alert(ctx, result.Best)
		}
		return nil
	})
}

func (r *SpreadRunner) alert(ctx context.Context, opp domain.SpreadOpportunity) {
	if r.deps.Notifier == nil {
		return
	}
	key := fmt.Sprintf("cooldown:spread:%d:%d:%d:%d",
		opp.FromCurrency, opp.ToCurrency, opp.BuyProvider, opp.SellProvider)
	if !r.acquire(ctx, key) {
		return
	}

	symbol := func(id int64) string {
		if s := r.reg.Representation(id, domain.TierDisplayName); s != "" {
			return s
		}
		return fmt.Sprintf("#%d", id)
	}
	title, message := notify.FormatSpread(opp, symbol(opp.FromCurrency), symbol(opp.ToCurrency))

	if err := r.deps.Notifier.Notify(ctx, EventSpreadOpportunity, title, message); err != nil {
		r.logger.ErrorContext(ctx, "spread alert delivery failed",
			slog.String("error", err.Error()),
		)
	}
}

func (r *SpreadRunner) acquire(ctx context.Context, key string) bool {
	return acquireCooldown(ctx, r.deps, key, r.logger)
}

func (r *SpreadRunner) archiveTick(ctx context.Context, kind string, payload any) {
	archiveTick(ctx, r.deps, kind, payload, r.logger)
}

func (r *SpreadRunner) publishSnapshot(ctx context.Context, key string, payload any) {
	publishSnapshot(ctx, r.deps, key, payload, r.logger)
}

type spreadSnapshot struct {
	Iteration int                       `json:"iteration"`
	Quotes    int                       `json:"quotes"`
	Groups    int                       `json:"groups"`
	Fired     bool                      `json:"fired"`
	Best      *domain.SpreadOpportunity `json:"best,omitempty"`
	At        time.Time                 `json:"at"`
}

func bestOrNil[T any](found bool, best T) *T {
	if !found {
		return nil
	}
	return &best
}

// TriangularRunner drives the triangular detector: build cycles once, then
// poll and evaluate them against live quotes.
type TriangularRunner struct {
	detector *Triangular
	ticker   TickerSource
	lister   PairLister
	deps     RunnerDeps
	loop     LoopConfig
	logger   *slog.Logger
}

// NewTriangularRunner creates a triangular runner.
func NewTriangularRunner(detector *Triangular, ticker TickerSource, lister PairLister, deps RunnerDeps, loop LoopConfig, logger *slog.Logger) *TriangularRunner {
	return &TriangularRunner{
		detector: detector,
		ticker:   ticker,
		lister:   lister,
		deps:     deps,
		loop:     loop,
		logger:   logger.With(slog.String("component", "triangular_runner")),
	}
}

// Run builds the candidate cycle set and polls it until ctx is cancelled or a
// loop bound is reached. No tradeable cycles is a clean no-op, not an error.
func (r *TriangularRunner) Run(ctx context.Context) error {
	cycles, err := r.detector.BuildCycles(ctx, r.lister)
	if err != nil {
		if errors.Is(err, domain.ErrNoTradeableCycles) {
			r.logger.WarnContext(ctx, "no tradeable cycles, triangular detection idle")
			return nil
		}
		return err
	}
	return r.RunWithCycles(ctx, cycles)
}

// RunWithCycles polls a prebuilt cycle set. Callers that need the cycle pairs
// up front (to subscribe a WebSocket feed) build the cycles themselves and
// hand them in here.
func (r *TriangularRunner) RunWithCycles(ctx context.Context, cycles []Cycle) error {
	r.logger.InfoContext(ctx, "triangular detection started",
		slog.Int("cycles", len(cycles)),
		slog.Int("pairs", len(CyclePairs(cycles))),
		slog.Float64("fire_threshold", r.detector.FireThreshold()),
		slog.Duration("interval", r.loop.Interval),
	)

	return runLoop(ctx, r.loop, func(ctx context.Context, iteration int) error {
		result, err := r.detector.EvaluateTick(ctx, r.ticker, cycles)
		if err != nil {
			r.logger.ErrorContext(ctx, "triangular tick failed, skipping",
				slog.Int("iteration", iteration),
				slog.String("error", err.Error()),
			)
			return nil
		}
		fired := result.Found && r.detector.Fires(result.Best.ProfitRatio)

		attrs := []any{
			slog.Int("iteration", iteration),
			slog.Int("cycles_priced", result.Cycles),
			slog.Bool("fired", fired),
		}
		if result.Found {
			attrs = append(attrs, slog.Float64("best_ratio", result.Best.ProfitRatio))
		}
		r.logger.InfoContext(ctx, "triangular tick evaluated", attrs...)

		publishSnapshot(ctx, r.deps, "snapshot:triangular", triangularSnapshot{
			Iteration: iteration,
			Cycles:    result.Cycles,
			Fired:     fired,
			Best:      bestOrNil(result.Found, result.Best),
			At:        time.Now().UTC(),
		}, r.logger)

		if fired {
			r.alert(ctx, result.Best)
		}
		return nil
	})
}

func (r *TriangularRunner) alert(ctx context.Context, opp domain.TriangularOpportunity) {
	if r.deps.Notifier == nil {
		return
	}
	key := fmt.Sprintf("cooldown:triangular:%d:%d:%d",
		opp.Cycle[0], opp.Cycle[1], opp.Cycle[2])
	if !acquireCooldown(ctx, r.deps, key, r.logger) {
		return
	}

	title, message := notify.FormatTriangular(opp)

	if err := r.deps.Notifier.Notify(ctx, EventTriangularOpportunity, title, message); err != nil {
		r.logger.ErrorContext(ctx, "triangular alert delivery failed",
			slog.String("error", err.Error()),
		)
	}
}

type triangularSnapshot struct {
	Iteration int                           `json:"iteration"`
	Cycles    int                           `json:"cycles_priced"`
	Fired     bool                          `json:"fired"`
	Best      *domain.TriangularOpportunity `json:"best,omitempty"`
	At        time.Time                     `json:"at"`
}

// acquireCooldown reports whether an alert for key should go out now. Missing
// cooldown backend means always alert; a backend error fails open so a flaky
// cache never silences a real opportunity.
func acquireCooldown(ctx context.Context, deps RunnerDeps, key string, logger *slog.Logger) bool {
	if deps.Cooldown == nil {
		return true
	}
	ok, err := deps.Cooldown.Acquire(ctx, key, deps.CooldownTTL)
	if err != nil {
		logger.WarnContext(ctx, "cooldown check failed, alerting anyway",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return true
	}
	if !ok {
		logger.DebugContext(ctx, "alert suppressed by cooldown",
			slog.String("key", key),
		)
	}
	return ok
}

// publishSnapshot writes the latest tick outcome to the snapshot cache.
func publishSnapshot(ctx context.Context, deps RunnerDeps, key string, payload any, logger *slog.Logger) {
	if deps.Snapshots == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		logger.WarnContext(ctx, "snapshot marshal failed",
			slog.String("error", err.Error()),
		)
		return
	}
	if err := deps.Snapshots.Put(ctx, key, data, deps.SnapshotTTL); err != nil {
		logger.WarnContext(ctx, "snapshot publish failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
}

// archiveTick writes one tick's raw inputs to object storage under a
// date-partitioned key.
func archiveTick(ctx context.Context, deps RunnerDeps, kind string, payload any, logger *slog.Logger) {
	if deps.Archive == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		logger.WarnContext(ctx, "archive marshal failed",
			slog.String("error", err.Error()),
		)
		return
	}
	now := time.Now().UTC()
	path := fmt.Sprintf("%s/%s/%s-%d.json",
		deps.ArchivePrefix, now.Format("2006/01/02"), kind, now.UnixNano())
	if err := deps.Archive.Put(ctx, path, bytes.NewReader(data), "application/json"); err != nil {
		logger.WarnContext(ctx, "tick archive failed",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
	}
}
