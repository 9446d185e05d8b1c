// Package venue defines the trading-venue boundary: each venue adapts its own
// API payloads to the common raw row shapes, and the Collector fans fetches
// out concurrently, resolves symbols against the registry, and merges the
// results into unified quotes.
package venue

import (
	"context"

	"github.com/glynfinck/trading/internal/domain"
)

// RawQuote is one trade-book row as reported by a venue: the venue's own
// concatenated pair string plus best ask/bid.
type RawQuote struct {
	Pair     string
	AskPrice float64
	BidPrice float64
}

// RawWalletStatus is one wallet-status row as reported by a venue: the
// venue's own symbol plus current transfer availability.
type RawWalletStatus struct {
	Symbol      string
	CanDeposit  bool
	CanWithdraw bool
}

// Venue is a single exchange's public market-data surface. Implementations
// translate the venue's payloads into the raw row shapes; symbol resolution
// is not their job.
type Venue interface {
	Name() string
	Provider() domain.Provider

	// TradeBook returns the venue's current best bid/ask per pair.
	TradeBook(ctx context.Context) ([]RawQuote, error)

	// WalletStatus returns per-currency transfer availability. Venues whose
	// wallet endpoint requires authentication return domain.ErrNotSupported;
	// their quotes then carry all-false transferability flags.
	WalletStatus(ctx context.Context) ([]RawWalletStatus, error)
}
