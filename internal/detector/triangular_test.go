package detector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/glynfinck/trading/internal/domain"
	"github.com/glynfinck/trading/internal/registry"
)

type fakeMarkets struct {
	rows []domain.DailyMarket
	err  error
}

func (f *fakeMarkets) RecordQuotes(context.Context, time.Time, []domain.VenueQuote) error {
	return nil
}

func (f *fakeMarkets) LatestDailyPairs(context.Context) ([]domain.DailyMarket, error) {
	return f.rows, f.err
}

func (f *fakeMarkets) AggregateDaily(context.Context, time.Time) (int64, error) {
	return 0, nil
}

type fakeLister struct {
	pairs []string
}

func (f *fakeLister) ListedPairs(context.Context) ([]string, error) {
	return f.pairs, nil
}

type fakeTicker struct {
	quotes map[string]domain.BestQuote
}

func (f *fakeTicker) BestQuotes(_ context.Context, pairs []string) (map[string]domain.BestQuote, error) {
	out := make(map[string]domain.BestQuote)
	for _, p := range pairs {
		if q, ok := f.quotes[p]; ok {
			out[p] = q
		}
	}
	return out, nil
}

func triangleRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg, err := registry.New([]domain.CurrencyRecord{
		{ID: 1, Name: "XXBT", AltName: "XBT", DisplayName: "BTC"},
		{ID: 2, Name: "ZUSD", AltName: "USD", DisplayName: "USD"},
		{ID: 3, Name: "XETH", AltName: "ETH", DisplayName: "ETH"},
	})
	if err != nil {
		t.Fatalf("registry.New: %v", err)
	}
	return reg
}

func dailyPair(from, to int64) domain.DailyMarket {
	return domain.DailyMarket{
		Date:         time.Date(2026, 8, 27, 0, 0, 0, 0, time.UTC),
		Provider:     domain.ProviderKraken,
		FromCurrency: from,
		ToCurrency:   to,
	}
}

func TestBuildCyclesCanonicalOrientation(t *testing.T) {
	reg := triangleRegistry(t)

	// ETH has two outgoing edges, USD two incoming, so the canonical cycle is
	// anchored ETH -> XBT -> USD regardless of row order.
	rowOrders := [][]domain.DailyMarket{
		{dailyPair(1, 2), dailyPair(3, 1), dailyPair(3, 2)},
		{dailyPair(3, 2), dailyPair(1, 2), dailyPair(3, 1)},
		{dailyPair(3, 1), dailyPair(3, 2), dailyPair(1, 2)},
	}
	for _, rows := range rowOrders {
		tri := NewTriangular(TriangularConfig{}, reg, &fakeMarkets{rows: rows}, testLogger())
		cycles, err := tri.BuildCycles(context.Background(), &fakeLister{
			pairs: []string{"ETHXBT", "XBTUSD", "ETHUSD"},
		})
		if err != nil {
			t.Fatalf("BuildCycles: %v", err)
		}
		if len(cycles) != 1 {
			t.Fatalf("got %d cycles, want 1", len(cycles))
		}
		c := cycles[0]
		if c.Currencies != [3]int64{3, 1, 2} {
			t.Errorf("Currencies = %v, want [3 1 2]", c.Currencies)
		}
		wantPairs := [3]string{"ETHXBT", "XBTUSD", "ETHUSD"}
		for i, leg := range c.Legs {
			if leg.Pair != wantPairs[i] {
				t.Errorf("leg %d pair = %q, want %q", i, leg.Pair, wantPairs[i])
			}
		}
	}
}

func TestBuildCyclesRequiresAllThreePairsObserved(t *testing.T) {
	reg := triangleRegistry(t)
	tri := NewTriangular(TriangularConfig{}, reg, &fakeMarkets{
		rows: []domain.DailyMarket{dailyPair(1, 2), dailyPair(3, 1)}, // no ETH/USD leg
	}, testLogger())

	_, err := tri.BuildCycles(context.Background(), &fakeLister{
		pairs: []string{"ETHXBT", "XBTUSD", "ETHUSD"},
	})
	if !errors.Is(err, domain.ErrNoTradeableCycles) {
		t.Errorf("err = %v, want ErrNoTradeableCycles", err)
	}
}

func TestBuildCyclesDropsDelistedLegs(t *testing.T) {
	reg := triangleRegistry(t)
	tri := NewTriangular(TriangularConfig{}, reg, &fakeMarkets{
		rows: []domain.DailyMarket{dailyPair(1, 2), dailyPair(3, 1), dailyPair(3, 2)},
	}, testLogger())

	// ETHUSD observed historically but no longer listed live.
	_, err := tri.BuildCycles(context.Background(), &fakeLister{
		pairs: []string{"ETHXBT", "XBTUSD"},
	})
	if !errors.Is(err, domain.ErrNoTradeableCycles) {
		t.Errorf("err = %v, want ErrNoTradeableCycles", err)
	}
}

func TestBuildCyclesHonorsIgnoredCurrencies(t *testing.T) {
	reg := triangleRegistry(t)
	tri := NewTriangular(TriangularConfig{
		IgnoredCurrencies: []string{"eth"},
	}, reg, &fakeMarkets{
		rows: []domain.DailyMarket{dailyPair(1, 2), dailyPair(3, 1), dailyPair(3, 2)},
	}, testLogger())

	_, err := tri.BuildCycles(context.Background(), &fakeLister{
		pairs: []string{"ETHXBT", "XBTUSD", "ETHUSD"},
	})
	if !errors.Is(err, domain.ErrNoTradeableCycles) {
		t.Errorf("err = %v, want ErrNoTradeableCycles", err)
	}
}

func TestEvaluateTickCompoundsBidBidAsk(t *testing.T) {
	reg := triangleRegistry(t)
	tri := NewTriangular(TriangularConfig{FeeBps: 0.4, ThresholdBps: 2}, reg, &fakeMarkets{
		rows: []domain.DailyMarket{dailyPair(1, 2), dailyPair(3, 1), dailyPair(3, 2)},
	}, testLogger())

	cycles, err := tri.BuildCycles(context.Background(), &fakeLister{
		pairs: []string{"ETHXBT", "XBTUSD", "ETHUSD"},
	})
	if err != nil {
		t.Fatalf("BuildCycles: %v", err)
	}

	ticker := &fakeTicker{quotes: map[string]domain.BestQuote{
		"ETHXBT": {Pair: "ETHXBT", Ask: 0.95, Bid: 0.90},
		"XBTUSD": {Pair: "XBTUSD", Ask: 0.85, Bid: 0.80},
		"ETHUSD": {Pair: "ETHUSD", Ask: 1.45, Bid: 1.40},
	}}

	result, err := tri.EvaluateTick(context.Background(), ticker, cycles)
	if err != nil {
		t.Fatalf("EvaluateTick: %v", err)
	}
	if result.Cycles != 1 || !result.Found {
		t.Fatalf("cycles=%d found=%v, want 1 priced cycle", result.Cycles, result.Found)
	}
	if want := 0.90 * 0.80 * (1 / 1.45); !almostEqual(result.Best.ProfitRatio, want) {
		t.Errorf("ProfitRatio = %v, want %v", result.Best.ProfitRatio, want)
	}
	if tri.Fires(result.Best.ProfitRatio) {
		t.Error("ratio below 1 must not fire")
	}

	wantSides := [3]domain.Side{domain.SideBid, domain.SideBid, domain.SideAsk}
	for i, leg := range result.Best.Legs {
		if leg.Side != wantSides[i] {
			t.Errorf("leg %d side = %q, want %q", i, leg.Side, wantSides[i])
		}
	}
}

func TestEvaluateTickSkipsCyclesMissingALeg(t *testing.T) {
	reg := triangleRegistry(t)
	tri := NewTriangular(TriangularConfig{}, reg, &fakeMarkets{
		rows: []domain.DailyMarket{dailyPair(1, 2), dailyPair(3, 1), dailyPair(3, 2)},
	}, testLogger())

	cycles, err := tri.BuildCycles(context.Background(), &fakeLister{
		pairs: []string{"ETHXBT", "XBTUSD", "ETHUSD"},
	})
	if err != nil {
		t.Fatalf("BuildCycles: %v", err)
	}

	ticker := &fakeTicker{quotes: map[string]domain.BestQuote{
		"ETHXBT": {Pair: "ETHXBT", Ask: 0.95, Bid: 0.90},
		"XBTUSD": {Pair: "XBTUSD", Ask: 0.85, Bid: 0.80},
		// ETHUSD absent this tick
	}}

	result, err := tri.EvaluateTick(context.Background(), ticker, cycles)
	if err != nil {
		t.Fatalf("EvaluateTick: %v", err)
	}
	if result.Cycles != 0 || result.Found {
		t.Errorf("cycles=%d found=%v, want cycle skipped when a leg is unpriced", result.Cycles, result.Found)
	}
}

func TestTriangularFireThresholdIsStrict(t *testing.T) {
	tri := NewTriangular(TriangularConfig{FeeBps: 0.4, ThresholdBps: 2}, nil, nil, testLogger())

	threshold := tri.FireThreshold()
	if want := 1 + (3*0.4+2)/100; !almostEqual(threshold, want) {
		t.Fatalf("FireThreshold = %v, want %v", threshold, want)
	}
	if tri.Fires(threshold) {
		t.Error("ratio exactly at threshold must not fire")
	}
	if !tri.Fires(threshold + 1e-9) {
		t.Error("ratio above threshold must fire")
	}
}
