package domain

// Provider identifies a trading venue. The numeric values are the provider
// ids used in the market history tables and must stay stable.
type Provider int

const (
	ProviderKraken   Provider = 1
	ProviderBinance  Provider = 2
	ProviderCoinbase Provider = 3
	ProviderOKX      Provider = 4
	ProviderHTX      Provider = 5
	ProviderMEXC     Provider = 6
)

// String returns the lowercase venue name.
func (p Provider) String() string {
	switch p {
	case ProviderKraken:
		return "kraken"
	case ProviderBinance:
		return "binance"
	case ProviderCoinbase:
		return "coinbase"
	case ProviderOKX:
		return "okx"
	case ProviderHTX:
		return "htx"
	case ProviderMEXC:
		return "mexc"
	default:
		return "unknown"
	}
}

// ProviderFromName maps a lowercase venue name back to its Provider id;
// unknown names map to 0.
func ProviderFromName(name string) Provider {
	switch name {
	case "kraken":
		return ProviderKraken
	case "binance":
		return ProviderBinance
	case "coinbase":
		return ProviderCoinbase
	case "okx":
		return ProviderOKX
	case "htx":
		return ProviderHTX
	case "mexc":
		return ProviderMEXC
	default:
		return 0
	}
}

// VenueQuote is a symbol-resolved quote row from one venue, before wallet
// transferability has been joined on.
type VenueQuote struct {
	Provider     Provider
	FromCurrency int64
	ToCurrency   int64
	// AskPrice and BidPrice use 0 as the absent marker: venues report 0 for
	// pairs with no liquidity and a true zero price does not occur on the
	// venues modelled here.
	AskPrice float64
	BidPrice float64
}

// WalletStatus reports whether funds for one currency can currently be moved
// in or out of a venue.
type WalletStatus struct {
	CurrencyID  int64
	CanDeposit  bool
	CanWithdraw bool
}

// Quote is the unified per-venue quote shape consumed by the detectors:
// resolved currency ids, best prices, and the transferability flags of both
// sides of the pair. Quotes are rebuilt from scratch every polling cycle.
type Quote struct {
	Provider        Provider
	FromCurrency    int64
	ToCurrency      int64
	AskPrice        float64 // 0 means absent
	BidPrice        float64 // 0 means absent
	CanDepositFrom  bool
	CanWithdrawFrom bool
	CanDepositTo    bool
	CanWithdrawTo   bool
}

// HasAsk reports whether the quote carries a usable ask price.
func (q Quote) HasAsk() bool { return q.AskPrice > 0 }

// HasBid reports whether the quote carries a usable bid price.
func (q Quote) HasBid() bool { return q.BidPrice > 0 }

// Transferable reports whether funds can be moved on both sides of the pair.
// Missing wallet data defaults to false, so a venue that never reported
// wallet status is excluded rather than assumed open.
func (q Quote) Transferable() bool {
	return q.CanDepositFrom && q.CanWithdrawFrom && q.CanDepositTo && q.CanWithdrawTo
}

// BestQuote is a live best bid/ask for one pair symbol, used by the
// triangular detector's per-tick ticker fetch.
type BestQuote struct {
	Pair string
	Ask  float64
	Bid  float64
}
