// Package registry implements the canonical currency registry and the
// identity resolution on top of it: mapping a venue's ad-hoc symbol strings
// ("XBT", "BTC", "XXBT") and concatenated pair strings ("ETHBTC") onto stable
// canonical currency ids.
//
// A Registry is built once per run from the currency store and is immutable
// afterwards, so it is safe to share across concurrent fetch processing.
package registry

import (
	"fmt"
	"strings"

	"github.com/glynfinck/trading/internal/domain"
)

// Registry is an immutable lookup over the canonical currency records with a
// precomputed per-tier index from case-normalized representation string to
// currency ids. An index entry holding more than one id is a registry data
// collision; resolution surfaces it as an ambiguous match rather than picking
// one.
type Registry struct {
	records []domain.CurrencyRecord
	byID    map[int64]domain.CurrencyRecord
	index   map[domain.Tier]map[string][]int64
}

// New builds a Registry from currency records. It returns
// domain.ErrEmptyRegistry when records is empty: running detection without a
// registry is a configuration error, not a degraded mode.
func New(records []domain.CurrencyRecord) (*Registry, error) {
	if len(records) == 0 {
		return nil, domain.ErrEmptyRegistry
	}

	r := &Registry{
		records: make([]domain.CurrencyRecord, len(records)),
		byID:    make(map[int64]domain.CurrencyRecord, len(records)),
		index:   make(map[domain.Tier]map[string][]int64),
	}
	copy(r.records, records)

	for _, rec := range r.records {
		if _, dup := r.byID[rec.ID]; dup {
			return nil, fmt.Errorf("registry: duplicate currency id %d", rec.ID)
		}
		r.byID[rec.ID] = rec
	}

	for _, tier := range domain.DefaultHierarchy() {
		idx := make(map[string][]int64)
		for _, rec := range r.records {
			repr := NormalizeSymbol(rec.Representation(tier))
			if repr == "" {
				continue
			}
			idx[repr] = append(idx[repr], rec.ID)
		}
		r.index[tier] = idx
	}

	return r, nil
}

// Len returns the number of currency records.
func (r *Registry) Len() int { return len(r.records) }

// Records returns a copy of the registry's currency records.
func (r *Registry) Records() []domain.CurrencyRecord {
	out := make([]domain.CurrencyRecord, len(r.records))
	copy(out, r.records)
	return out
}

// Record returns the currency record for id.
func (r *Registry) Record(id int64) (domain.CurrencyRecord, bool) {
	rec, ok := r.byID[id]
	return rec, ok
}

// Representation returns currency id's representation at the given tier, or
// "" when the currency is unknown or carries none at that tier.
func (r *Registry) Representation(id int64, tier domain.Tier) string {
	rec, ok := r.byID[id]
	if !ok {
		return ""
	}
	return rec.Representation(tier)
}

// NormalizeSymbol case-normalizes a raw venue symbol for matching.
func NormalizeSymbol(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// lookup returns the ids indexed under raw's normalized form at tier.
func (r *Registry) lookup(tier domain.Tier, raw string) []int64 {
	idx := r.index[tier]
	if idx == nil {
		return nil
	}
	return idx[NormalizeSymbol(raw)]
}
