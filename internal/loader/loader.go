// Package loader maintains the market history tables the triangular detector
// builds its cycles from: it samples live quotes into the intraday table,
// rolls each day up into the daily aggregate table, and exports the daily
// rows to object storage.
package loader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/glynfinck/trading/internal/domain"
)

// QuoteSource produces one sample's worth of quotes across venues.
type QuoteSource interface {
	Collect(ctx context.Context) []domain.Quote
}

// BlobExporter uploads a daily export; large payloads go up in parts.
type BlobExporter interface {
	PutMultipart(ctx context.Context, path string, data io.Reader, partSize int64) error
}

// Config configures the loader.
type Config struct {
	// ExportPrefix is the object-key prefix for daily exports.
	ExportPrefix string
	// ExportPartSize is the multipart chunk size for exports; 0 lets the
	// uploader use its minimum.
	ExportPartSize int64
}

// Loader writes market history: intraday samples and daily roll-ups.
type Loader struct {
	cfg     Config
	markets domain.MarketStore
	source  QuoteSource
	export  BlobExporter
	logger  *slog.Logger
}

// New creates a Loader. export may be nil to disable daily exports.
func New(cfg Config, markets domain.MarketStore, source QuoteSource, export BlobExporter, logger *slog.Logger) *Loader {
	return &Loader{
		cfg:     cfg,
		markets: markets,
		source:  source,
		export:  export,
		logger:  logger.With(slog.String("component", "loader")),
	}
}

// Sample collects one round of live quotes and records them in the intraday
// table. The timestamp is truncated to the minute so re-samples within the
// same minute overwrite instead of piling up rows.
func (l *Loader) Sample(ctx context.Context) error {
	ts := time.Now().UTC().Truncate(time.Minute)
	quotes := l.source.Collect(ctx)

	rows := make([]domain.VenueQuote, 0, len(quotes))
	for _, q := range quotes {
		rows = append(rows, domain.VenueQuote{
			Provider:     q.Provider,
			FromCurrency: q.FromCurrency,
			ToCurrency:   q.ToCurrency,
			AskPrice:     q.AskPrice,
			BidPrice:     q.BidPrice,
		})
	}

	if err := l.markets.RecordQuotes(ctx, ts, rows); err != nil {
		return fmt.Errorf("loader: record sample: %w", err)
	}
	l.logger.InfoContext(ctx, "intraday sample recorded",
		slog.Time("ts", ts),
		slog.Int("rows", len(rows)),
	)
	return nil
}

// RollUp aggregates the intraday samples of day into the daily table.
func (l *Loader) RollUp(ctx context.Context, day time.Time) error {
	rows, err := l.markets.AggregateDaily(ctx, day)
	if err != nil {
		return fmt.Errorf("loader: roll up %s: %w", day.Format("2006-01-02"), err)
	}
	l.logger.InfoContext(ctx, "daily roll-up complete",
		slog.String("date", day.Format("2006-01-02")),
		slog.Int64("rows", rows),
	)
	return nil
}

// Export uploads the latest daily aggregate rows as a JSON object. It is a
// no-op when no exporter is configured.
func (l *Loader) Export(ctx context.Context) error {
	if l.export == nil {
		return nil
	}

	rows, err := l.markets.LatestDailyPairs(ctx)
	if err != nil {
		return fmt.Errorf("loader: load export rows: %w", err)
	}
	if len(rows) == 0 {
		l.logger.InfoContext(ctx, "nothing to export, daily table is empty")
		return nil
	}

	data, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("loader: marshal export: %w", err)
	}

	path := fmt.Sprintf("%s/%s.json", l.cfg.ExportPrefix, rows[0].Date.Format("2006-01-02"))
	if err := l.export.PutMultipart(ctx, path, bytes.NewReader(data), l.cfg.ExportPartSize); err != nil {
		return fmt.Errorf("loader: upload export: %w", err)
	}
	l.logger.InfoContext(ctx, "daily export uploaded",
		slog.String("path", path),
		slog.Int("rows", len(rows)),
	)
	return nil
}

// RunDaily performs the end-of-day sequence for the previous UTC day: roll up
// then export.
func (l *Loader) RunDaily(ctx context.Context) error {
	day := time.Now().UTC().AddDate(0, 0, -1)
	if err := l.RollUp(ctx, day); err != nil {
		return err
	}
	return l.Export(ctx)
}
