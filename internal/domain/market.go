package domain

import "time"

// DailyMarket is one row of the daily-aggregated market history table. The
// triangular detector only uses presence of a (from, to) pair on the latest
// date; the OHLCV columns are kept for the aggregation loader.
type DailyMarket struct {
	Date         time.Time
	Provider     Provider
	FromCurrency int64
	ToCurrency   int64
	Open         float64
	High         float64
	Low          float64
	Close        float64
	Volume       float64
	Trades       int64
}
