package domain

import (
	"context"
	"io"
	"time"
)

// CurrencyStore loads the canonical currency registry rows. The registry is
// the single source of truth for currency identity; it is read once at
// startup and never mutated during a run.
type CurrencyStore interface {
	List(ctx context.Context) ([]CurrencyRecord, error)
}

// MarketStore provides access to the market history tables.
type MarketStore interface {
	// RecordQuotes writes one collection tick's quotes into the intraday
	// table under the tick timestamp.
	RecordQuotes(ctx context.Context, ts time.Time, quotes []VenueQuote) error
	// LatestDailyPairs returns every row of the daily aggregate table for the
	// most recent date present.
	LatestDailyPairs(ctx context.Context) ([]DailyMarket, error)
	// AggregateDaily rolls the intraday table up into the daily aggregate
	// table for the given date and returns the number of rows written.
	AggregateDaily(ctx context.Context, day time.Time) (int64, error)
}

// AlertCooldown suppresses repeat notifications for an opportunity that stays
// open across consecutive ticks. Acquire returns true when the caller holds
// the cooldown and should notify.
type AlertCooldown interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// SnapshotCache publishes the latest tick outcome for external observability.
type SnapshotCache interface {
	Put(ctx context.Context, key string, payload []byte, ttl time.Duration) error
}

// BlobWriter archives raw tick inputs (trade-book snapshots) to object
// storage for offline analysis.
type BlobWriter interface {
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
}
