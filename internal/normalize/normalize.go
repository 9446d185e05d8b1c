package normalize

import (
	"github.com/glynfinck/trading/internal/domain"
)

// MergeWalletStatus collapses duplicate wallet rows for the same currency by
// OR-ing their flags. Venues that report per-network rows (one currency,
// several chains) count a currency as open when any network allows it.
func MergeWalletStatus(rows []domain.WalletStatus) map[int64]*domain.WalletStatus {
	out := make(map[int64]*domain.WalletStatus, len(rows))
	for _, row := range rows {
		cur, ok := out[row.CurrencyID]
		if !ok {
			r := row
			out[row.CurrencyID] = &r
			continue
		}
		cur.CanDeposit = cur.CanDeposit || row.CanDeposit
		cur.CanWithdraw = cur.CanWithdraw || row.CanWithdraw
	}
	return out
}

// Join left-joins per-currency wallet status onto symbol-resolved quote rows,
// producing the unified Quote schema. A currency with no wallet row keeps the
// zero-value flags: absence of transferability data means "blocked", never
// "allowed".
func Join(quotes []domain.VenueQuote, wallet []domain.WalletStatus) []domain.Quote {
	byID := MergeWalletStatus(wallet)

	out := make([]domain.Quote, 0, len(quotes))
	for _, q := range quotes {
		from := Coalesce(domain.WalletStatus{CurrencyID: q.FromCurrency}, byID[q.FromCurrency])
		to := Coalesce(domain.WalletStatus{CurrencyID: q.ToCurrency}, byID[q.ToCurrency])

		out = append(out, domain.Quote{
			Provider:        q.Provider,
			FromCurrency:    q.FromCurrency,
			ToCurrency:      q.ToCurrency,
			AskPrice:        scrubPrice(q.AskPrice),
			BidPrice:        scrubPrice(q.BidPrice),
			CanDepositFrom:  from.CanDeposit,
			CanWithdrawFrom: from.CanWithdraw,
			CanDepositTo:    to.CanDeposit,
			CanWithdrawTo:   to.CanWithdraw,
		})
	}
	return out
}

// scrubPrice maps non-positive prices to the absent marker. Venues report 0
// for pairs without liquidity; a real zero price does not occur on the venues
// modelled here.
func scrubPrice(p float64) float64 {
	if p <= 0 {
		return 0
	}
	return p
}
