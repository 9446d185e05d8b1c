package normalize

import (
	"testing"

	"github.com/glynfinck/trading/internal/domain"
)

func TestCoalesce(t *testing.T) {
	t.Run("absent right keeps left", func(t *testing.T) {
		if got := Coalesce(42, nil); got != 42 {
			t.Errorf("got %d, want 42", got)
		}
	})
	t.Run("present right wins", func(t *testing.T) {
		right := 7
		if got := Coalesce(42, &right); got != 7 {
			t.Errorf("got %d, want 7", got)
		}
	})
	t.Run("present zero value still wins", func(t *testing.T) {
		right := 0
		if got := Coalesce(42, &right); got != 0 {
			t.Errorf("got %d, want 0: presence decides, not value", got)
		}
	})
}

func TestMergeWalletStatus(t *testing.T) {
	// Per-network duplicates collapse with OR: open on any network is open.
	merged := MergeWalletStatus([]domain.WalletStatus{
		{CurrencyID: 1, CanDeposit: true, CanWithdraw: false},
		{CurrencyID: 1, CanDeposit: false, CanWithdraw: true},
		{CurrencyID: 2, CanDeposit: false, CanWithdraw: false},
	})
	if ws := merged[1]; ws == nil || !ws.CanDeposit || !ws.CanWithdraw {
		t.Errorf("currency 1: %+v, want both flags true", merged[1])
	}
	if ws := merged[2]; ws == nil || ws.CanDeposit || ws.CanWithdraw {
		t.Errorf("currency 2: %+v, want both flags false", merged[2])
	}
}

func TestJoin(t *testing.T) {
	quotes := []domain.VenueQuote{
		{Provider: domain.ProviderKraken, FromCurrency: 1, ToCurrency: 2, AskPrice: 100, BidPrice: 99},
		{Provider: domain.ProviderKraken, FromCurrency: 3, ToCurrency: 2, AskPrice: 10, BidPrice: 9.8},
	}
	wallet := []domain.WalletStatus{
		{CurrencyID: 1, CanDeposit: true, CanWithdraw: true},
		{CurrencyID: 2, CanDeposit: true, CanWithdraw: true},
	}

	got := Join(quotes, wallet)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}

	t.Run("both sides covered", func(t *testing.T) {
		q := got[0]
		if !q.Transferable() {
			t.Errorf("quote with full wallet coverage not transferable: %+v", q)
		}
	})

	t.Run("missing wallet row defaults to blocked", func(t *testing.T) {
		q := got[1] // currency 3 has no wallet row
		if q.CanDepositFrom || q.CanWithdrawFrom {
			t.Errorf("absent wallet data must mean blocked: %+v", q)
		}
		if q.Transferable() {
			t.Error("quote with uncovered side must not be transferable")
		}
	})
}

func TestJoinScrubsZeroPrices(t *testing.T) {
	got := Join([]domain.VenueQuote{
		{Provider: domain.ProviderBinance, FromCurrency: 1, ToCurrency: 2, AskPrice: 0, BidPrice: -1},
	}, nil)
	q := got[0]
	if q.HasAsk() || q.HasBid() {
		t.Errorf("non-positive prices must be absent, got %+v", q)
	}
}
