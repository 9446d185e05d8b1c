package registry

import (
	"testing"

	"github.com/glynfinck/trading/internal/domain"
)

func TestResolvePairs(t *testing.T) {
	r := testRegistry(t)
	hierarchy := domain.DefaultHierarchy()

	tests := []struct {
		name     string
		raw      string
		want     MatchStatus
		wantFrom int64
		wantTo   int64
		wantTier domain.Tier
	}{
		{"tier1 concatenation", "XXBTZUSD", StatusMatched, 1, 2, domain.TierName},
		{"tier2 concatenation", "XBTUSD", StatusMatched, 1, 2, domain.TierAltName},
		{"tier3 concatenation", "ETHBTC", StatusMatched, 3, 1, domain.TierDisplayName},
		{"reverse direction is distinct", "USDXBT", StatusMatched, 2, 1, domain.TierAltName},
		{"lowercase input", "xbtusd", StatusMatched, 1, 2, domain.TierAltName},
		{"unknown suffix", "XBTZZZ", StatusUnresolved, 0, 0, 0},
		{"no split point", "BTCUSDT", StatusUnresolved, 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.ResolvePairs([]string{tt.raw}, hierarchy, Options{IncludeMetadata: true})
			if len(got) != 1 {
				t.Fatalf("len = %d, want 1", len(got))
			}
			res := got[0]
			if res.Status != tt.want {
				t.Fatalf("status = %v, want %v (%+v)", res.Status, tt.want, res)
			}
			if res.FromCurrency != tt.wantFrom || res.ToCurrency != tt.wantTo {
				t.Errorf("pair = (%d,%d), want (%d,%d)", res.FromCurrency, res.ToCurrency, tt.wantFrom, tt.wantTo)
			}
			if res.Tier != tt.wantTier {
				t.Errorf("tier = %v, want %v", res.Tier, tt.wantTier)
			}
		})
	}
}

func TestResolvePairsSplitConsistency(t *testing.T) {
	// If a pair resolves to (X, Y) at tier T, then the concatenation of X's
	// and Y's representations at T must reproduce the raw string.
	r := testRegistry(t)
	raws := []string{"XXBTZUSD", "XBTUSD", "ETHBTC", "EURUSD"}

	got := r.ResolvePairs(raws, domain.DefaultHierarchy(), Options{OnlyMatches: true, IncludeMetadata: true})
	if len(got) == 0 {
		t.Fatal("no pairs resolved")
	}
	for _, res := range got {
		from := r.Representation(res.FromCurrency, res.Tier)
		to := r.Representation(res.ToCurrency, res.Tier)
		if NormalizeSymbol(from+to) != NormalizeSymbol(res.RawPair) {
			t.Errorf("%q: repr concat %q+%q does not reproduce the pair", res.RawPair, from, to)
		}
	}
}

func TestResolvePairsSelfPairExcluded(t *testing.T) {
	// "USDUSD" splits only into (2, 2); self-pairs are never produced.
	r := testRegistry(t)
	got := r.ResolvePairs([]string{"USDUSD"}, domain.DefaultHierarchy(), Options{IncludeMetadata: true})
	if got[0].Status != StatusUnresolved {
		t.Fatalf("self-pair resolved: %+v", got[0])
	}
}

func TestResolvePairsAmbiguousSplit(t *testing.T) {
	// "AXBC" is reproducible at the same tier as A+XBC and AX+BC. The
	// resolver must pick the lowest id pair deterministically and flag it.
	r, err := New([]domain.CurrencyRecord{
		{ID: 10, AltName: "A"},
		{ID: 11, AltName: "XBC"},
		{ID: 12, AltName: "AX"},
		{ID: 13, AltName: "BC"},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	for i := 0; i < 5; i++ {
		got := r.ResolvePairs([]string{"AXBC"}, []domain.Tier{domain.TierAltName}, Options{IncludeMetadata: true})
		res := got[0]
		if res.Status != StatusMatched {
			t.Fatalf("status = %v, want matched", res.Status)
		}
		if !res.Ambiguous {
			t.Fatal("ambiguous split not flagged")
		}
		if res.FromCurrency != 10 || res.ToCurrency != 11 {
			t.Fatalf("tie-break not deterministic: got (%d,%d), want (10,11)", res.FromCurrency, res.ToCurrency)
		}
	}
}

func TestResolvePairsCumulativeTiers(t *testing.T) {
	// A pair settled at tier 1 must not be re-resolved at a lower tier even
	// if the lower tier would also match.
	r := testRegistry(t)
	got := r.ResolvePairs([]string{"XXBTZUSD"}, domain.DefaultHierarchy(), Options{IncludeMetadata: true})
	if got[0].Tier != domain.TierName {
		t.Fatalf("tier = %v, want tier-1 match to stick", got[0].Tier)
	}
}

func TestResolvePairsOnlyMatches(t *testing.T) {
	r := testRegistry(t)
	got := r.ResolvePairs([]string{"XBTUSD", "JUNKJUNK"}, domain.DefaultHierarchy(), Options{OnlyMatches: true})
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	if got[0].FromCurrency != 1 || got[0].ToCurrency != 2 {
		t.Errorf("pair = (%d,%d), want (1,2)", got[0].FromCurrency, got[0].ToCurrency)
	}
	if got[0].Tier != 0 || got[0].Ambiguous {
		t.Errorf("metadata not stripped: %+v", got[0])
	}
}
