package domain

import "time"

// Side is the side of the book a leg is priced from.
type Side string

const (
	SideBid Side = "bid"
	SideAsk Side = "ask"
)

// SpreadOpportunity is the best detected multi-exchange spread: the same pair
// priced low enough on one venue and high enough on another that moving funds
// between them would capture the difference.
type SpreadOpportunity struct {
	ID           string
	FromCurrency int64
	ToCurrency   int64
	BuyProvider  Provider
	SellProvider Provider
	BuyPrice     float64 // lowest ask across transferable venues
	SellPrice    float64 // bid on the venue with the highest ask
	ProfitRatio  float64 // SellPrice / BuyPrice
	DetectedAt   time.Time
}

// CycleLeg is one directed pair inside a triangular cycle, together with the
// book side and live price used to evaluate it.
type CycleLeg struct {
	Pair  string
	Side  Side
	Price float64
}

// TriangularOpportunity is the best detected three-leg cycle whose
// cross-rates compound above 1.0.
type TriangularOpportunity struct {
	ID          string
	Cycle       [3]int64 // currency ids in canonical leg order
	Legs        [3]CycleLeg
	ProfitRatio float64 // Legs[0].bid * Legs[1].bid * (1 / Legs[2].ask)
	DetectedAt  time.Time
}
