package detector

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/glynfinck/trading/internal/domain"
	"github.com/glynfinck/trading/internal/registry"
)

// TickerSource provides live best bid/ask for a set of pair symbols. The
// Kraken REST client and the WebSocket ticker feed both satisfy it.
type TickerSource interface {
	BestQuotes(ctx context.Context, pairs []string) (map[string]domain.BestQuote, error)
}

// PairLister reports which pair symbols are currently tradeable on the live
// venue.
type PairLister interface {
	ListedPairs(ctx context.Context) ([]string, error)
}

// TriangularConfig configures the triangular detector.
type TriangularConfig struct {
	// FeeBps is the per-leg venue fee in basis points; a cycle pays it three
	// times.
	FeeBps float64
	// ThresholdBps is the extra edge required beyond fees before firing.
	ThresholdBps float64
	// IgnoredCurrencies lists symbols (any tier) to keep out of cycles.
	IgnoredCurrencies []string
	// PairTier is the representation tier used to synthesize leg pair
	// symbols; zero means the alternate name, which is what the venue's pair
	// altnames concatenate.
	PairTier domain.Tier
}

// Leg is one directed pair within a candidate cycle.
type Leg struct {
	From int64
	To   int64
	Pair string
}

// Cycle is a canonical directed three-leg trading cycle. Profit is evaluated
// as bid(leg1) * bid(leg2) * (1 / ask(leg3)).
type Cycle struct {
	Currencies [3]int64 // left, middle, right
	Legs       [3]Leg   // left->middle, middle->right, left->right
}

// Triangular enumerates candidate currency cycles from market history and
// evaluates their live compounded profit.
type Triangular struct {
	cfg     TriangularConfig
	reg     *registry.Registry
	markets domain.MarketStore
	logger  *slog.Logger
}

// NewTriangular creates a triangular detector.
func NewTriangular(cfg TriangularConfig, reg *registry.Registry, markets domain.MarketStore, logger *slog.Logger) *Triangular {
	if cfg.PairTier == 0 {
		cfg.PairTier = domain.TierAltName
	}
	return &Triangular{
		cfg:     cfg,
		reg:     reg,
		markets: markets,
		logger:  logger.With(slog.String("component", "triangular_detector")),
	}
}

// FireThreshold is the strict lower bound a profit ratio must exceed: one
// venue fee per leg, three legs, plus the configured edge.
func (t *Triangular) FireThreshold() float64 {
	return 1 + (3*t.cfg.FeeBps+t.cfg.ThresholdBps)/100
}

// Fires reports whether a profit ratio clears the threshold (strictly).
func (t *Triangular) Fires(ratio float64) bool {
	return ratio > t.FireThreshold()
}

type edge struct {
	from int64
	to   int64
}

// BuildCycles runs the once-per-deployment candidate construction: observed
// pairs from the latest daily aggregates, every currency triple whose three
// undirected pairs were all observed, one canonical directed cycle per
// triple, and a final filter against the venue's currently listed pairs.
//
// It returns domain.ErrNoTradeableCycles when nothing survives; the caller
// reports that and skips evaluation instead of erroring.
func (t *Triangular) BuildCycles(ctx context.Context, lister PairLister) ([]Cycle, error) {
	rows, err := t.markets.LatestDailyPairs(ctx)
	if err != nil {
		return nil, fmt.Errorf("triangular: load daily pairs: %w", err)
	}

	ignored := make(map[int64]bool)
	for _, sym := range t.cfg.IgnoredCurrencies {
		if res := t.reg.Resolve(sym, domain.DefaultHierarchy()); res.Status == registry.StatusMatched {
			ignored[res.CurrencyID] = true
		}
	}

	// Directed edges observed between eligible currencies. Eligibility
	// requires a representation at the pair tier, since leg symbols are
	// synthesized from it.
	edges := make(map[edge]bool)
	seen := make(map[int64]bool)
	degree := make(map[int64]int)
	for _, row := range rows {
		from, to := row.FromCurrency, row.ToCurrency
		if from == to || ignored[from] || ignored[to] {
			continue
		}
		if t.reg.Representation(from, t.cfg.PairTier) == "" || t.reg.Representation(to, t.cfg.PairTier) == "" {
			continue
		}
		e := edge{from, to}
		if !edges[e] {
			edges[e] = true
		}
		if !seen[from] {
			seen[from] = true
		}
		if !seen[to] {
			seen[to] = true
		}
	}
	undirected := func(a, b int64) bool { return edges[edge{a, b}] || edges[edge{b, a}] }
	for e := range edges {
		if !edges[edge{e.to, e.from}] {
			degree[e.from]++
			degree[e.to]++
		} else if e.from < e.to {
			// count a bidirectional pair once per endpoint
			degree[e.from]++
			degree[e.to]++
		}
	}

	// Only currencies with at least two distinct counterparties can sit in a
	// triangle.
	ids := make([]int64, 0, len(seen))
	for id := range seen {
		if degree[id] >= 2 {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var cycles []Cycle
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			if !undirected(ids[i], ids[j]) {
				continue
			}
			for k := j + 1; k < len(ids); k++ {
				if !undirected(ids[i], ids[k]) || !undirected(ids[j], ids[k]) {
					continue
				}
				cycles = append(cycles, t.orientCycle([3]int64{ids[i], ids[j], ids[k]}, edges))
			}
		}
	}
	t.logger.InfoContext(ctx, "candidate cycles built",
		slog.Int("daily_rows", len(rows)),
		slog.Int("currencies", len(ids)),
		slog.Int("cycles", len(cycles)),
	)

	// Drop cycles with a leg the live venue no longer lists.
	listed, err := lister.ListedPairs(ctx)
	if err != nil {
		return nil, fmt.Errorf("triangular: list live pairs: %w", err)
	}
	listedSet := make(map[string]bool, len(listed))
	for _, p := range listed {
		listedSet[registry.NormalizeSymbol(p)] = true
	}

	var valid []Cycle
	for _, c := range cycles {
		ok := true
		for _, leg := range c.Legs {
			if !listedSet[registry.NormalizeSymbol(leg.Pair)] {
				ok = false
				break
			}
		}
		if ok {
			valid = append(valid, c)
		}
	}
	t.logger.InfoContext(ctx, "cycles validated against live listing",
		slog.Int("valid", len(valid)),
	)

	if len(valid) == 0 {
		return nil, domain.ErrNoTradeableCycles
	}
	return valid, nil
}

// orientCycle derives the single canonical directed cycle for a triple. The
// vertex with the most outgoing observed edges within the triple anchors the
// left position and the one with the most incoming edges (excluding the
// anchor) the right; ties break by representation order so repeated runs
// reproduce the same shape.
func (t *Triangular) orientCycle(triple [3]int64, edges map[edge]bool) Cycle {
	repr := func(id int64) string { return t.reg.Representation(id, t.cfg.PairTier) }

	outDeg := func(v int64) int {
		n := 0
		for _, w := range triple {
			if w != v && edges[edge{v, w}] {
				n++
			}
		}
		return n
	}
	inDeg := func(v int64) int {
		n := 0
		for _, w := range triple {
			if w != v && edges[edge{w, v}] {
				n++
			}
		}
		return n
	}

	left := triple[0]
	for _, v := range triple[1:] {
		if outDeg(v) > outDeg(left) || (outDeg(v) == outDeg(left) && repr(v) < repr(left)) {
			left = v
		}
	}

	var right int64
	for _, v := range triple {
		if v == left {
			continue
		}
		if right == 0 || inDeg(v) > inDeg(right) || (inDeg(v) == inDeg(right) && repr(v) < repr(right)) {
			right = v
		}
	}

	var middle int64
	for _, v := range triple {
		if v != left && v != right {
			middle = v
		}
	}

	pair := func(from, to int64) string { return repr(from) + repr(to) }
	return Cycle{
		Currencies: [3]int64{left, middle, right},
		Legs: [3]Leg{
			{From: left, To: middle, Pair: pair(left, middle)},
			{From: middle, To: right, Pair: pair(middle, right)},
			{From: left, To: right, Pair: pair(left, right)},
		},
	}
}

// CyclePairs returns the distinct pair symbols participating in the given
// cycles, so the live fetch can be bounded to exactly those.
func CyclePairs(cycles []Cycle) []string {
	seen := make(map[string]bool)
	var pairs []string
	for _, c := range cycles {
		for _, leg := range c.Legs {
			if !seen[leg.Pair] {
				seen[leg.Pair] = true
				pairs = append(pairs, leg.Pair)
			}
		}
	}
	sort.Strings(pairs)
	return pairs
}

// TriangularResult summarizes one tick's evaluation.
type TriangularResult struct {
	// Cycles is the number of cycles with full price coverage this tick.
	Cycles int
	Best   domain.TriangularOpportunity
	Found  bool
}

// EvaluateTick prices every cycle from live quotes and returns the one with
// the maximum compounded ratio. Cycles missing any leg price this tick are
// skipped, not treated as zero.
func (t *Triangular) EvaluateTick(ctx context.Context, ticker TickerSource, cycles []Cycle) (TriangularResult, error) {
	quotes, err := ticker.BestQuotes(ctx, CyclePairs(cycles))
	if err != nil {
		return TriangularResult{}, fmt.Errorf("triangular: fetch live quotes: %w", err)
	}

	var result TriangularResult
	for _, c := range cycles {
		q1, ok1 := quotes[c.Legs[0].Pair]
		q2, ok2 := quotes[c.Legs[1].Pair]
		q3, ok3 := quotes[c.Legs[2].Pair]
		if !ok1 || !ok2 || !ok3 || q1.Bid <= 0 || q2.Bid <= 0 || q3.Ask <= 0 {
			continue
		}
		result.Cycles++

		ratio := q1.Bid * q2.Bid * (1 / q3.Ask)
		if result.Found && ratio <= result.Best.ProfitRatio {
			continue
		}
		result.Found = true
		result.Best = domain.TriangularOpportunity{
			ID:    uuid.New().String(),
			Cycle: c.Currencies,
			Legs: [3]domain.CycleLeg{
				{Pair: c.Legs[0].Pair, Side: domain.SideBid, Price: q1.Bid},
				{Pair: c.Legs[1].Pair, Side: domain.SideBid, Price: q2.Bid},
				{Pair: c.Legs[2].Pair, Side: domain.SideAsk, Price: q3.Ask},
			},
			ProfitRatio: ratio,
			DetectedAt:  time.Now().UTC(),
		}
	}
	return result, nil
}
