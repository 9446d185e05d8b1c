package detector

import (
	"context"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/glynfinck/trading/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openQuote(p domain.Provider, from, to int64, ask, bid float64) domain.Quote {
	return domain.Quote{
		Provider:        p,
		FromCurrency:    from,
		ToCurrency:      to,
		AskPrice:        ask,
		BidPrice:        bid,
		CanDepositFrom:  true,
		CanWithdrawFrom: true,
		CanDepositTo:    true,
		CanWithdrawTo:   true,
	}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestSpreadDetectBuysLowAskSellsHighAskVenue(t *testing.T) {
	s := NewSpread(SpreadConfig{FeeBps: 0.4, ThresholdBps: 2}, testLogger())

	quotes := []domain.Quote{
		openQuote(domain.ProviderKraken, 1, 2, 100, 101),
		openQuote(domain.ProviderBinance, 1, 2, 98, 102),
	}

	result := s.Detect(context.Background(), quotes)
	if !result.Found {
		t.Fatal("expected an opportunity")
	}
	best := result.Best
	if best.BuyProvider != domain.ProviderBinance || !almostEqual(best.BuyPrice, 98) {
		t.Errorf("buy = %s @ %v, want binance @ 98", best.BuyProvider, best.BuyPrice)
	}
	// The sell venue is the one with the highest ask (kraken, 100), sold at
	// that venue's bid, not the globally highest bid.
	if best.SellProvider != domain.ProviderKraken || !almostEqual(best.SellPrice, 101) {
		t.Errorf("sell = %s @ %v, want kraken @ 101", best.SellProvider, best.SellPrice)
	}
	if want := 101.0 / 98.0; !almostEqual(best.ProfitRatio, want) {
		t.Errorf("ProfitRatio = %v, want %v", best.ProfitRatio, want)
	}
	if s.Fires(best.ProfitRatio) {
		t.Error("ratio 1.0306 must not clear a 1.028 threshold plus fees")
	}
}

func TestSpreadDetectExcludesNonTransferableEvenIfBest(t *testing.T) {
	s := NewSpread(SpreadConfig{}, testLogger())

	blocked := openQuote(domain.ProviderBinance, 1, 2, 98, 102)
	blocked.CanWithdrawTo = false

	quotes := []domain.Quote{
		openQuote(domain.ProviderKraken, 1, 2, 100, 101),
		blocked,
	}

	result := s.Detect(context.Background(), quotes)
	if !result.Found {
		t.Fatal("expected an opportunity from the remaining venue")
	}
	if result.Best.BuyProvider != domain.ProviderKraken || result.Best.SellProvider != domain.ProviderKraken {
		t.Errorf("buy/sell = %s/%s, want kraken/kraken: non-transferable venue must be excluded",
			result.Best.BuyProvider, result.Best.SellProvider)
	}
	if want := 101.0 / 100.0; !almostEqual(result.Best.ProfitRatio, want) {
		t.Errorf("ProfitRatio = %v, want %v", result.Best.ProfitRatio, want)
	}
}

func TestSpreadDetectExclusionIsProviderScoped(t *testing.T) {
	s := NewSpread(SpreadConfig{
		Exclusions: []PairExclusion{
			{Provider: domain.ProviderBinance, FromCurrency: 1, ToCurrency: 2},
		},
	}, testLogger())

	quotes := []domain.Quote{
		openQuote(domain.ProviderBinance, 1, 2, 98, 102), // denylisted
		openQuote(domain.ProviderKraken, 1, 2, 100, 101),
		openQuote(domain.ProviderBinance, 1, 3, 10, 11), // same provider, other pair survives
	}

	result := s.Detect(context.Background(), quotes)
	if result.Groups != 2 {
		t.Fatalf("Groups = %d, want 2", result.Groups)
	}
	if !result.Found {
		t.Fatal("expected an opportunity")
	}
	if want := 11.0 / 10.0; !almostEqual(result.Best.ProfitRatio, want) {
		t.Errorf("ProfitRatio = %v, want %v from the non-denylisted pair", result.Best.ProfitRatio, want)
	}
}

func TestSpreadDetectFiltersSelfPairs(t *testing.T) {
	s := NewSpread(SpreadConfig{}, testLogger())

	result := s.Detect(context.Background(), []domain.Quote{
		openQuote(domain.ProviderKraken, 2, 2, 1.0, 1.1),
	})
	if result.Groups != 0 || result.Found {
		t.Errorf("self-pair produced groups=%d found=%v, want none", result.Groups, result.Found)
	}
}

func TestSpreadDetectMissingSideYieldsNoOpportunity(t *testing.T) {
	s := NewSpread(SpreadConfig{}, testLogger())

	// The only transferable venue for the pair has an ask but no bid, so
	// there is nothing to sell into.
	result := s.Detect(context.Background(), []domain.Quote{
		openQuote(domain.ProviderKraken, 1, 2, 100, 0),
	})
	if result.Found {
		t.Error("pair with no bid must yield no opportunity, not a zero price")
	}

	// A quote with no ask never enters a group at all.
	result = s.Detect(context.Background(), []domain.Quote{
		openQuote(domain.ProviderKraken, 1, 2, 0, 101),
	})
	if result.Groups != 0 || result.Found {
		t.Errorf("ask-less quote produced groups=%d found=%v, want none", result.Groups, result.Found)
	}
}

func TestSpreadFireThresholdIsStrict(t *testing.T) {
	s := NewSpread(SpreadConfig{FeeBps: 0.4, ThresholdBps: 2}, testLogger())

	threshold := s.FireThreshold()
	if want := 1 + (2*0.4+2)/100; !almostEqual(threshold, want) {
		t.Fatalf("FireThreshold = %v, want %v", threshold, want)
	}

	tests := []struct {
		name  string
		ratio float64
		want  bool
	}{
		{"below threshold", threshold - 1e-9, false},
		{"exactly at threshold", threshold, false},
		{"just above threshold", threshold + 1e-9, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Fires(tt.ratio); got != tt.want {
				t.Errorf("Fires(%v) = %v, want %v", tt.ratio, got, tt.want)
			}
		})
	}
}

func TestSpreadDetectPicksMaximumRatioAcrossGroups(t *testing.T) {
	s := NewSpread(SpreadConfig{}, testLogger())

	quotes := []domain.Quote{
		openQuote(domain.ProviderKraken, 1, 2, 100, 101),
		openQuote(domain.ProviderBinance, 1, 2, 98, 102),
		openQuote(domain.ProviderKraken, 3, 2, 10, 10.2),
		openQuote(domain.ProviderHTX, 3, 2, 9.0, 10.1),
	}

	result := s.Detect(context.Background(), quotes)
	if result.Groups != 2 {
		t.Fatalf("Groups = %d, want 2", result.Groups)
	}
	if !result.Found {
		t.Fatal("expected an opportunity")
	}
	// Pair (3,2): sell venue kraken (ask 10) at bid 10.2, buy htx at 9.0.
	if result.Best.FromCurrency != 3 || result.Best.ToCurrency != 2 {
		t.Errorf("best pair = (%d,%d), want (3,2)", result.Best.FromCurrency, result.Best.ToCurrency)
	}
	if want := 10.2 / 9.0; !almostEqual(result.Best.ProfitRatio, want) {
		t.Errorf("ProfitRatio = %v, want %v", result.Best.ProfitRatio, want)
	}
}
