// Package domain defines the core types shared across the trading monitor:
// canonical currencies, venue quotes, market history rows, and detected
// arbitrage opportunities. It also declares the store and cache interfaces
// implemented by the postgres, redis, and s3 packages.
package domain

// Tier identifies one level of the prioritized symbol-matching hierarchy.
// Exchanges name the same currency inconsistently ("XXBT", "XBT", "BTC"), so
// resolution tries the most specific representation first and falls back.
type Tier int

const (
	// TierName is the canonical name, e.g. Kraken's "XXBT".
	TierName Tier = iota + 1
	// TierAltName is the alternate name, e.g. "XBT".
	TierAltName
	// TierDisplayName is the display name most venues quote, e.g. "BTC".
	TierDisplayName
)

// String returns the column-style name of the tier.
func (t Tier) String() string {
	switch t {
	case TierName:
		return "name"
	case TierAltName:
		return "altname"
	case TierDisplayName:
		return "bname"
	default:
		return "unknown"
	}
}

// TierFromName parses a column-style tier name; ok is false for anything
// other than "name", "altname" or "bname".
func TierFromName(name string) (Tier, bool) {
	switch name {
	case "name":
		return TierName, true
	case "altname":
		return TierAltName, true
	case "bname":
		return TierDisplayName, true
	default:
		return 0, false
	}
}

// DefaultHierarchy is the standard matching order: canonical name first,
// then alternate name, then display name.
func DefaultHierarchy() []Tier {
	return []Tier{TierName, TierAltName, TierDisplayName}
}

// CurrencyRecord is one row of the canonical currency registry. The registry
// is loaded once per run and immutable thereafter.
type CurrencyRecord struct {
	// ID is the stable canonical currency identifier.
	ID int64
	// Name is the tier-1 canonical name.
	Name string
	// AltName is the tier-2 alternate name.
	AltName string
	// DisplayName is the tier-3 display name.
	DisplayName string
}

// Representation returns the record's string representation at the given
// tier, or "" when the record carries none.
func (c CurrencyRecord) Representation(t Tier) string {
	switch t {
	case TierName:
		return c.Name
	case TierAltName:
		return c.AltName
	case TierDisplayName:
		return c.DisplayName
	default:
		return ""
	}
}
