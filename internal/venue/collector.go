package venue

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/glynfinck/trading/internal/domain"
	"github.com/glynfinck/trading/internal/normalize"
	"github.com/glynfinck/trading/internal/registry"
)

// CollectorConfig configures the per-tick venue fan-out.
type CollectorConfig struct {
	// Hierarchy is the symbol-matching order; empty means the default.
	Hierarchy []domain.Tier
	// FetchTimeout bounds each venue's fetch within a tick.
	FetchTimeout time.Duration
	// Workers bounds concurrent venue fetches; 0 means one worker per venue.
	Workers int
}

// Collector fetches all venues concurrently and produces the unified quote
// set for one detection tick. A venue that errors or times out is logged and
// treated as if it returned no quotes; it never aborts the tick.
type Collector struct {
	venues []Venue
	reg    *registry.Registry
	cfg    CollectorConfig
	logger *slog.Logger
}

// NewCollector creates a Collector over the given venues.
func NewCollector(venues []Venue, reg *registry.Registry, cfg CollectorConfig, logger *slog.Logger) *Collector {
	if len(cfg.Hierarchy) == 0 {
		cfg.Hierarchy = domain.DefaultHierarchy()
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 15 * time.Second
	}
	if cfg.Workers <= 0 {
		cfg.Workers = len(venues)
	}
	return &Collector{
		venues: venues,
		reg:    reg,
		cfg:    cfg,
		logger: logger.With(slog.String("component", "collector")),
	}
}

// Collect runs one tick's fetches. All venue fetches complete (or fail and
// are excluded) before it returns, so the caller never mixes one tick's data
// with another's.
func (c *Collector) Collect(ctx context.Context) []domain.Quote {
	results := make([][]domain.Quote, len(c.venues))

	var g errgroup.Group
	g.SetLimit(c.cfg.Workers)
	for i, v := range c.venues {
		i, v := i, v
		g.Go(func() error {
			vctx, cancel := context.WithTimeout(ctx, c.cfg.FetchTimeout)
			defer cancel()

			quotes, err := c.collectVenue(vctx, v)
			if err != nil {
				c.logger.WarnContext(ctx, "venue fetch failed, excluding from tick",
					slog.String("venue", v.Name()),
					slog.String("error", err.Error()),
				)
				return nil
			}
			results[i] = quotes
			return nil
		})
	}
	_ = g.Wait()

	var all []domain.Quote
	for _, quotes := range results {
		all = append(all, quotes...)
	}
	return all
}

// collectVenue fetches and resolves one venue's trade book and wallet status.
func (c *Collector) collectVenue(ctx context.Context, v Venue) ([]domain.Quote, error) {
	book, err := v.TradeBook(ctx)
	if err != nil {
		return nil, err
	}

	wallet, err := v.WalletStatus(ctx)
	if err != nil && !errors.Is(err, domain.ErrNotSupported) {
		// Quotes without wallet data are still useful to log/archive; the
		// all-false flags keep them out of the spread candidate set.
		c.logger.WarnContext(ctx, "wallet status fetch failed, treating transfers as blocked",
			slog.String("venue", v.Name()),
			slog.String("error", err.Error()),
		)
		wallet = nil
	}

	quotes := c.resolveBook(ctx, v, book)
	status := c.resolveWallet(ctx, v, wallet)
	return normalize.Join(quotes, status), nil
}

// resolveBook maps the venue's raw pair strings to currency id pairs,
// dropping rows the registry cannot place.
func (c *Collector) resolveBook(ctx context.Context, v Venue, book []RawQuote) []domain.VenueQuote {
	raws := make([]string, len(book))
	for i, row := range book {
		raws[i] = row.Pair
	}
	resolved := c.reg.ResolvePairs(raws, c.cfg.Hierarchy, registry.Options{IncludeMetadata: true})

	var ambiguous int
	quotes := make([]domain.VenueQuote, 0, len(book))
	for i, pr := range resolved {
		if pr.Status != registry.StatusMatched {
			continue
		}
		if pr.Ambiguous {
			ambiguous++
		}
		quotes = append(quotes, domain.VenueQuote{
			Provider:     v.Provider(),
			FromCurrency: pr.FromCurrency,
			ToCurrency:   pr.ToCurrency,
			AskPrice:     book[i].AskPrice,
			BidPrice:     book[i].BidPrice,
		})
	}
	if ambiguous > 0 {
		c.logger.WarnContext(ctx, "ambiguous pair splits in trade book",
			slog.String("venue", v.Name()),
			slog.Int("count", ambiguous),
		)
	}
	c.logger.DebugContext(ctx, "trade book resolved",
		slog.String("venue", v.Name()),
		slog.Int("raw", len(book)),
		slog.Int("resolved", len(quotes)),
	)
	return quotes
}

// resolveWallet maps the venue's wallet symbols to currency ids.
func (c *Collector) resolveWallet(ctx context.Context, v Venue, wallet []RawWalletStatus) []domain.WalletStatus {
	if len(wallet) == 0 {
		return nil
	}
	raws := make([]string, len(wallet))
	for i, row := range wallet {
		raws[i] = row.Symbol
	}
	resolved := c.reg.ResolveAll(raws, c.cfg.Hierarchy, registry.Options{IncludeMetadata: true})

	status := make([]domain.WalletStatus, 0, len(wallet))
	for i, res := range resolved {
		if res.Status != registry.StatusMatched {
			continue
		}
		status = append(status, domain.WalletStatus{
			CurrencyID:  res.CurrencyID,
			CanDeposit:  wallet[i].CanDeposit,
			CanWithdraw: wallet[i].CanWithdraw,
		})
	}
	c.logger.DebugContext(ctx, "wallet status resolved",
		slog.String("venue", v.Name()),
		slog.Int("raw", len(wallet)),
		slog.Int("resolved", len(status)),
	)
	return status
}
