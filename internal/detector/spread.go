// Package detector implements the two arbitrage detectors: the multi-exchange
// spread detector and the triangular cycle detector, together with their
// cooperative polling loops.
package detector

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/glynfinck/trading/internal/domain"
)

// PairExclusion suppresses one directed pair on one named provider. The same
// pair stays live on every other provider.
type PairExclusion struct {
	Provider     domain.Provider
	FromCurrency int64
	ToCurrency   int64
}

// SpreadConfig configures the spread detector.
type SpreadConfig struct {
	// FeeBps is the per-leg venue fee in basis points. The spread trade pays
	// it twice: once buying, once selling.
	FeeBps float64
	// ThresholdBps is the extra edge required beyond fees before firing.
	ThresholdBps float64
	// Exclusions is the provider-scoped pair denylist.
	Exclusions []PairExclusion
}

// Spread finds, per currency pair, the cheapest venue to buy on and the
// richest venue to sell on, restricted to venues where funds can actually be
// moved on both sides.
type Spread struct {
	cfg      SpreadConfig
	excluded map[PairExclusion]bool
	logger   *slog.Logger
}

// NewSpread creates a spread detector.
func NewSpread(cfg SpreadConfig, logger *slog.Logger) *Spread {
	excluded := make(map[PairExclusion]bool, len(cfg.Exclusions))
	for _, e := range cfg.Exclusions {
		excluded[e] = true
	}
	return &Spread{
		cfg:      cfg,
		excluded: excluded,
		logger:   logger.With(slog.String("component", "spread_detector")),
	}
}

// SpreadResult summarizes one tick's evaluation.
type SpreadResult struct {
	// Groups is the number of pair groups with at least one transferable
	// candidate quote.
	Groups int
	// Best is the opportunity with the maximum profit ratio; valid only when
	// Found is true.
	Best  domain.SpreadOpportunity
	Found bool
}

// FireThreshold is the strict lower bound a profit ratio must exceed: one
// venue fee per leg, two legs, plus the configured edge.
func (s *Spread) FireThreshold() float64 {
	return 1 + (2*s.cfg.FeeBps+s.cfg.ThresholdBps)/100
}

// Fires reports whether a profit ratio clears the threshold. The comparison
// is strict: a ratio exactly at the threshold does not fire.
func (s *Spread) Fires(ratio float64) bool {
	return ratio > s.FireThreshold()
}

type pairKey struct {
	from int64
	to   int64
}

type pairBest struct {
	minAsk  float64
	buy     domain.Provider
	maxAsk  float64
	sell    domain.Provider
	sellBid float64
}

// Detect groups quotes by directed pair and, over each group's transferable
// candidates, buys on the venue with the lowest ask and sells on the venue
// with the highest ask, at that venue's bid. Returns the pair with the
// maximum sell/buy ratio; pairs where either side is absent yield no
// opportunity rather than a zero price.
func (s *Spread) Detect(ctx context.Context, quotes []domain.Quote) SpreadResult {
	groups := make(map[pairKey]*pairBest)
	for _, q := range quotes {
		if q.FromCurrency == q.ToCurrency {
			continue // self-pairs are meaningless to an arbitrage consumer
		}
		if s.excluded[PairExclusion{q.Provider, q.FromCurrency, q.ToCurrency}] {
			continue
		}
		if !q.Transferable() || !q.HasAsk() {
			continue
		}

		key := pairKey{q.FromCurrency, q.ToCurrency}
		g := groups[key]
		if g == nil {
			g = &pairBest{}
			groups[key] = g
		}
		if g.minAsk == 0 || q.AskPrice < g.minAsk {
			g.minAsk = q.AskPrice
			g.buy = q.Provider
		}
		if q.AskPrice > g.maxAsk {
			g.maxAsk = q.AskPrice
			g.sell = q.Provider
			g.sellBid = q.BidPrice
		}
	}

	// Iterate groups in a fixed order so ties resolve identically run to run.
	keys := make([]pairKey, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].from != keys[j].from {
			return keys[i].from < keys[j].from
		}
		return keys[i].to < keys[j].to
	})

	result := SpreadResult{Groups: len(groups)}
	for _, key := range keys {
		g := groups[key]
		if g.minAsk == 0 || g.sellBid == 0 {
			continue // one side has no transferable liquidity
		}
		ratio := g.sellBid / g.minAsk
		if result.Found && ratio <= result.Best.ProfitRatio {
			continue
		}
		result.Found = true
		result.Best = domain.SpreadOpportunity{
			ID:           uuid.New().String(),
			FromCurrency: key.from,
			ToCurrency:   key.to,
			BuyProvider:  g.buy,
			SellProvider: g.sell,
			BuyPrice:     g.minAsk,
			SellPrice:    g.sellBid,
			ProfitRatio:  ratio,
			DetectedAt:   time.Now().UTC(),
		}
	}

	s.logger.DebugContext(ctx, "spread groups evaluated",
		slog.Int("groups", result.Groups),
		slog.Bool("found", result.Found),
	)
	return result
}
