package registry

import (
	"reflect"
	"testing"

	"github.com/glynfinck/trading/internal/domain"
)

func testRecords() []domain.CurrencyRecord {
	return []domain.CurrencyRecord{
		{ID: 1, Name: "XXBT", AltName: "XBT", DisplayName: "BTC"},
		{ID: 2, Name: "ZUSD", AltName: "USD", DisplayName: "USD"},
		{ID: 3, Name: "XETH", AltName: "ETH", DisplayName: "ETH"},
		{ID: 4, Name: "ZEUR", AltName: "EUR", DisplayName: "EUR"},
		// 5 and 6 collide on the alternate name: a registry data error that
		// resolution must surface, not pick from.
		{ID: 5, Name: "DOGECOIN", AltName: "DOGE", DisplayName: "XDG"},
		{ID: 6, Name: "DOGE2", AltName: "DOGE", DisplayName: "DOGE"},
	}
}

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := New(testRecords())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return r
}

func TestNewEmptyRegistry(t *testing.T) {
	if _, err := New(nil); err != domain.ErrEmptyRegistry {
		t.Fatalf("expected ErrEmptyRegistry, got %v", err)
	}
}

func TestNewDuplicateID(t *testing.T) {
	_, err := New([]domain.CurrencyRecord{
		{ID: 1, Name: "XXBT"},
		{ID: 1, Name: "ZUSD"},
	})
	if err == nil {
		t.Fatal("expected error for duplicate currency id")
	}
}

func TestResolveRoundTrip(t *testing.T) {
	r := testRegistry(t)

	// Every declared representation must resolve back to its own record at
	// the declaring tier.
	for _, rec := range testRecords() {
		if rec.ID >= 5 {
			continue // collision fixtures are covered separately
		}
		for _, tier := range domain.DefaultHierarchy() {
			repr := rec.Representation(tier)
			if repr == "" {
				continue
			}
			res := r.Resolve(repr, []domain.Tier{tier})
			if res.Status != StatusMatched || res.CurrencyID != rec.ID {
				t.Errorf("Resolve(%q, %v) = %+v, want id %d", repr, tier, res, rec.ID)
			}
		}
	}
}

func TestResolveHierarchy(t *testing.T) {
	r := testRegistry(t)

	tests := []struct {
		name     string
		raw      string
		want     MatchStatus
		wantID   int64
		wantTier domain.Tier
	}{
		{"tier1 wins", "XXBT", StatusMatched, 1, domain.TierName},
		{"tier2 fallback", "XBT", StatusMatched, 1, domain.TierAltName},
		{"tier3 fallback", "BTC", StatusMatched, 1, domain.TierDisplayName},
		{"case normalized", "xbt", StatusMatched, 1, domain.TierAltName},
		{"whitespace trimmed", " ETH ", StatusMatched, 3, domain.TierAltName},
		{"no match", "SHIB", StatusUnresolved, 0, 0},
		{"same-tier collision is ambiguous", "DOGE", StatusAmbiguous, 0, domain.TierAltName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := r.Resolve(tt.raw, domain.DefaultHierarchy())
			if res.Status != tt.want {
				t.Fatalf("status = %v, want %v", res.Status, tt.want)
			}
			if res.CurrencyID != tt.wantID {
				t.Errorf("currency id = %d, want %d", res.CurrencyID, tt.wantID)
			}
			if res.Tier != tt.wantTier {
				t.Errorf("tier = %v, want %v", res.Tier, tt.wantTier)
			}
		})
	}
}

func TestResolveAmbiguousDistinctFromUnresolved(t *testing.T) {
	r := testRegistry(t)

	amb := r.Resolve("DOGE", domain.DefaultHierarchy())
	none := r.Resolve("NOPE", domain.DefaultHierarchy())
	if amb.Status == none.Status {
		t.Fatalf("ambiguous (%v) and unresolved (%v) must be distinct outcomes", amb.Status, none.Status)
	}
}

func TestResolveAll(t *testing.T) {
	r := testRegistry(t)
	raws := []string{"XBT", "NOPE", "usd", "DOGE"}

	t.Run("keeps everything with metadata", func(t *testing.T) {
		got := r.ResolveAll(raws, domain.DefaultHierarchy(), Options{IncludeMetadata: true})
		if len(got) != 4 {
			t.Fatalf("len = %d, want 4", len(got))
		}
		if got[0].Status != StatusMatched || got[0].CurrencyID != 1 {
			t.Errorf("XBT: %+v", got[0])
		}
		if got[1].Status != StatusUnresolved {
			t.Errorf("NOPE: %+v", got[1])
		}
		if got[2].Status != StatusMatched || got[2].CurrencyID != 2 {
			t.Errorf("usd: %+v", got[2])
		}
		if got[3].Status != StatusAmbiguous {
			t.Errorf("DOGE: %+v", got[3])
		}
	})

	t.Run("only matches drops unresolved and ambiguous", func(t *testing.T) {
		got := r.ResolveAll(raws, domain.DefaultHierarchy(), Options{OnlyMatches: true, IncludeMetadata: true})
		if len(got) != 2 {
			t.Fatalf("len = %d, want 2: %+v", len(got), got)
		}
		for _, res := range got {
			if res.Status != StatusMatched {
				t.Errorf("unexpected status in only-matches output: %+v", res)
			}
		}
	})

	t.Run("metadata stripped for lean joins", func(t *testing.T) {
		got := r.ResolveAll([]string{"XBT"}, domain.DefaultHierarchy(), Options{OnlyMatches: true})
		if len(got) != 1 {
			t.Fatalf("len = %d, want 1", len(got))
		}
		if got[0].CurrencyID != 1 {
			t.Errorf("currency id = %d, want 1", got[0].CurrencyID)
		}
		if got[0].Tier != 0 {
			t.Errorf("tier not stripped: %+v", got[0])
		}
	})

	t.Run("idempotent", func(t *testing.T) {
		opts := Options{IncludeMetadata: true}
		first := r.ResolveAll(raws, domain.DefaultHierarchy(), opts)
		second := r.ResolveAll(raws, domain.DefaultHierarchy(), opts)
		if !reflect.DeepEqual(first, second) {
			t.Errorf("repeated resolution differs:\n%+v\n%+v", first, second)
		}
	})
}
