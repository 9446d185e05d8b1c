package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/glynfinck/trading/internal/domain"
)

// MarketStore implements domain.MarketStore using PostgreSQL.
type MarketStore struct {
	pool *pgxpool.Pool
}

// NewMarketStore creates a MarketStore backed by the given connection pool.
func NewMarketStore(pool *pgxpool.Pool) *MarketStore {
	return &MarketStore{pool: pool}
}

// RecordQuotes batch-upserts one collection tick's quotes into the intraday
// table. All rows share the tick timestamp so a re-run of the same tick
// overwrites rather than duplicates.
func (s *MarketStore) RecordQuotes(ctx context.Context, ts time.Time, quotes []domain.VenueQuote) error {
	if len(quotes) == 0 {
		return nil
	}

	const query = `
		INSERT INTO provider_currency_market (
			ts, provider, from_currency, to_currency, ask_price, bid_price
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (ts, provider, from_currency, to_currency) DO UPDATE SET
			ask_price = EXCLUDED.ask_price,
			bid_price = EXCLUDED.bid_price`

	batch := &pgx.Batch{}
	for _, q := range quotes {
		batch.Queue(query,
			ts.UTC(), int16(q.Provider), q.FromCurrency, q.ToCurrency,
			q.AskPrice, q.BidPrice,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := range quotes {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("postgres: record quote batch item %d: %w", i, err)
		}
	}
	return nil
}

// LatestDailyPairs returns every row of the daily aggregate table for the
// most recent date present.
func (s *MarketStore) LatestDailyPairs(ctx context.Context) ([]domain.DailyMarket, error) {
	const query = `
		SELECT date, provider, from_currency, to_currency,
		       open, high, low, close, volume, trades
		FROM daily_provider_currency_market
		WHERE date = (SELECT MAX(date) FROM daily_provider_currency_market)`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres: latest daily pairs: %w", err)
	}
	defer rows.Close()

	var out []domain.DailyMarket
	for rows.Next() {
		var m domain.DailyMarket
		var provider int16
		if err := rows.Scan(
			&m.Date, &provider, &m.FromCurrency, &m.ToCurrency,
			&m.Open, &m.High, &m.Low, &m.Close, &m.Volume, &m.Trades,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan daily pair: %w", err)
		}
		m.Provider = domain.Provider(provider)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate daily pairs: %w", err)
	}
	return out, nil
}

// AggregateDaily rolls the intraday samples of the given calendar day up into
// the daily table, one row per (provider, pair), and returns the number of
// rows written. Samples missing either side of the book are left out of the
// OHLC aggregates.
func (s *MarketStore) AggregateDaily(ctx context.Context, day time.Time) (int64, error) {
	const query = `
		INSERT INTO daily_provider_currency_market (
			date, provider, from_currency, to_currency,
			open, high, low, close, volume, trades
		)
		SELECT
			$1::date, provider, from_currency, to_currency,
			(array_agg(mid ORDER BY ts ASC))[1],
			MAX(mid),
			MIN(mid),
			(array_agg(mid ORDER BY ts DESC))[1],
			0,
			COUNT(*)
		FROM (
			SELECT ts, provider, from_currency, to_currency,
			       (ask_price + bid_price) / 2 AS mid
			FROM provider_currency_market
			WHERE ts >= $1::date
			  AND ts < $1::date + INTERVAL '1 day'
			  AND ask_price > 0
			  AND bid_price > 0
		) samples
		GROUP BY provider, from_currency, to_currency
		ON CONFLICT (date, provider, from_currency, to_currency) DO UPDATE SET
			open   = EXCLUDED.open,
			high   = EXCLUDED.high,
			low    = EXCLUDED.low,
			close  = EXCLUDED.close,
			volume = EXCLUDED.volume,
			trades = EXCLUDED.trades`

	tag, err := s.pool.Exec(ctx, query, day.UTC().Format("2006-01-02"))
	if err != nil {
		return 0, fmt.Errorf("postgres: aggregate daily %s: %w", day.Format("2006-01-02"), err)
	}
	return tag.RowsAffected(), nil
}
