package notify

import (
	"fmt"

	"github.com/glynfinck/trading/internal/domain"
)

// FormatSpread renders a spread opportunity as an alert title and plain-text
// body. fromSymbol and toSymbol are the display representations of the pair's
// currencies; callers fall back to the raw id when the registry has none.
func FormatSpread(opp domain.SpreadOpportunity, fromSymbol, toSymbol string) (title, message string) {
	title = fmt.Sprintf("Spread: %s/%s +%.2f%%",
		fromSymbol, toSymbol, (opp.ProfitRatio-1)*100)
	message = fmt.Sprintf("Buy on %s at %.8f, sell on %s at %.8f (ratio %.6f, id %s)",
		opp.BuyProvider, opp.BuyPrice, opp.SellProvider, opp.SellPrice, opp.ProfitRatio, opp.ID)
	return title, message
}

// FormatTriangular renders a triangular opportunity as an alert title and
// plain-text body walking the three legs in execution order.
func FormatTriangular(opp domain.TriangularOpportunity) (title, message string) {
	title = fmt.Sprintf("Triangle: %s > %s > %s +%.2f%%",
		opp.Legs[0].Pair, opp.Legs[1].Pair, opp.Legs[2].Pair, (opp.ProfitRatio-1)*100)
	message = fmt.Sprintf("Sell %s at %.8f, sell %s at %.8f, buy back via %s at %.8f (ratio %.6f, id %s)",
		opp.Legs[0].Pair, opp.Legs[0].Price,
		opp.Legs[1].Pair, opp.Legs[1].Price,
		opp.Legs[2].Pair, opp.Legs[2].Price,
		opp.ProfitRatio, opp.ID)
	return title, message
}
