package registry

import (
	"github.com/glynfinck/trading/internal/domain"
	"github.com/glynfinck/trading/internal/normalize"
)

// MatchStatus is the outcome of one resolution attempt. Every call site must
// handle all three outcomes: an ambiguous match is a registry data-quality
// bug and must not be silently folded into "no match".
type MatchStatus int

const (
	// StatusUnresolved means no tier in the hierarchy matched the symbol.
	StatusUnresolved MatchStatus = iota
	// StatusMatched means exactly one registry record matched.
	StatusMatched
	// StatusAmbiguous means two or more registry records collide on the same
	// representation at the matching tier.
	StatusAmbiguous
)

// String returns the status label used in logs.
func (s MatchStatus) String() string {
	switch s {
	case StatusMatched:
		return "MATCH"
	case StatusAmbiguous:
		return "AMBIGUOUS"
	default:
		return "NO_MATCH"
	}
}

// Resolution is the result of resolving a single raw symbol.
type Resolution struct {
	Raw    string
	Status MatchStatus
	// Tier is the hierarchy level that produced the match. Zero when
	// unresolved or when metadata was stripped.
	Tier domain.Tier
	// CurrencyID is set only for StatusMatched.
	CurrencyID int64
}

// Options controls the shape of batch resolution output.
type Options struct {
	// OnlyMatches drops unresolved and ambiguous entries from the output,
	// leaving clean keys for joins.
	OnlyMatches bool
	// IncludeMetadata retains the Status/Tier (and, for pairs, Ambiguous)
	// fields. When false they are zeroed, mirroring consumers that only want
	// the resolved ids.
	IncludeMetadata bool
}

// Resolve maps one raw venue symbol to a canonical currency id by trying each
// hierarchy tier in order, most specific first. The first tier with any match
// decides the outcome; a same-tier collision is reported as StatusAmbiguous
// rather than resolved arbitrarily.
func (r *Registry) Resolve(raw string, hierarchy []domain.Tier) Resolution {
	res := Resolution{Raw: raw, Status: StatusUnresolved}
	for _, tier := range hierarchy {
		ids := r.lookup(tier, raw)
		switch {
		case len(ids) == 1:
			res.Status = StatusMatched
			res.Tier = tier
			res.CurrencyID = ids[0]
			return res
		case len(ids) > 1:
			res.Status = StatusAmbiguous
			res.Tier = tier
			return res
		}
	}
	return res
}

// ResolveAll resolves a batch of raw symbols. Tiers are applied cumulatively:
// a symbol settled at a higher-priority tier is never revisited at a lower
// one. The result order follows the input order (minus entries dropped by
// OnlyMatches).
func (r *Registry) ResolveAll(raws []string, hierarchy []domain.Tier, opts Options) []Resolution {
	results := make([]Resolution, len(raws))
	for i, raw := range raws {
		results[i] = Resolution{Raw: raw, Status: StatusUnresolved}
	}

	for _, tier := range hierarchy {
		for i := range results {
			if results[i].Status != StatusUnresolved {
				continue
			}
			results[i] = normalize.Coalesce(results[i], r.resolveAt(results[i].Raw, tier))
		}
	}

	out := results[:0]
	for _, res := range results {
		if opts.OnlyMatches && res.Status != StatusMatched {
			continue
		}
		if !opts.IncludeMetadata {
			res.Status = StatusUnresolved
			res.Tier = 0
		}
		out = append(out, res)
	}
	return out
}

// resolveAt attempts resolution at a single tier, returning nil when the tier
// has nothing to say about the symbol.
func (r *Registry) resolveAt(raw string, tier domain.Tier) *Resolution {
	ids := r.lookup(tier, raw)
	switch {
	case len(ids) == 1:
		return &Resolution{Raw: raw, Status: StatusMatched, Tier: tier, CurrencyID: ids[0]}
	case len(ids) > 1:
		return &Resolution{Raw: raw, Status: StatusAmbiguous, Tier: tier}
	default:
		return nil
	}
}
