package registry

import (
	"sort"

	"github.com/glynfinck/trading/internal/domain"
)

// PairResolution is the result of resolving a concatenated pair string such
// as "ETHBTC" into an ordered (from, to) currency pair.
type PairResolution struct {
	RawPair string
	Status  MatchStatus
	// Tier is the hierarchy level whose representations reproduce the pair
	// string. Zero when unresolved or when metadata was stripped.
	Tier         domain.Tier
	FromCurrency int64
	ToCurrency   int64
	// Ambiguous marks a pair string reproducible by more than one (from, to)
	// combination at the matching tier. The reported ids are the
	// deterministic pick (lowest id pair); the flag exists so auditing can
	// find the collision instead of it being silently resolved.
	Ambiguous bool
}

// idPair is one candidate ordered split of a pair string.
type idPair struct {
	from int64
	to   int64
}

// ResolvePairs resolves concatenated pair strings against the registry. Pair
// strings carry no delimiter, so per tier every split position whose prefix
// and suffix are both known representations at that tier is a candidate.
// Tiers apply cumulatively: a pair settled at a higher-priority tier never
// falls through to a lower one. Self-pairs (from == to) are never produced.
//
// Cost is O(pairs x symbol length) per tier thanks to the per-tier
// representation index; there is no per-pair scan of the registry.
func (r *Registry) ResolvePairs(rawPairs []string, hierarchy []domain.Tier, opts Options) []PairResolution {
	results := make([]PairResolution, len(rawPairs))
	for i, raw := range rawPairs {
		results[i] = PairResolution{RawPair: raw, Status: StatusUnresolved}
	}

	for _, tier := range hierarchy {
		if len(r.index[tier]) == 0 {
			continue
		}
		for i := range results {
			if results[i].Status == StatusMatched {
				continue
			}
			if pr, ok := r.splitPair(results[i].RawPair, tier); ok {
				results[i] = pr
			}
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
			res.Ambiguous = false
		}
		out = append(out, res)
	}
	return out
}

// splitPair tries every split position of raw at one tier and collects the
// distinct (from, to) candidates. With more than one candidate the lowest
// (from, to) id pair is picked deterministically and the result is flagged
// ambiguous.
func (r *Registry) splitPair(raw string, tier domain.Tier) (PairResolution, bool) {
	norm := NormalizeSymbol(raw)
	idx := r.index[tier]

	var candidates []idPair
	for cut := 1; cut < len(norm); cut++ {
		fromIDs := idx[norm[:cut]]
		if len(fromIDs) == 0 {
			continue
		}
		toIDs := idx[norm[cut:]]
		for _, from := range fromIDs {
			for _, to := range toIDs {
				if from == to {
					continue
				}
				candidates = append(candidates, idPair{from: from, to: to})
			}
		}
	}
	if len(candidates) == 0 {
		return PairResolution{}, false
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].from != candidates[j].from {
			return candidates[i].from < candidates[j].from
		}
		return candidates[i].to < candidates[j].to
	})
	distinct := candidates[:1]
	for _, c := range candidates[1:] {
		last := distinct[len(distinct)-1]
		if c != last {
			distinct = append(distinct, c)
		}
	}

	return PairResolution{
		RawPair:      raw,
		Status:       StatusMatched,
		Tier:         tier,
		FromCurrency: distinct[0].from,
		ToCurrency:   distinct[0].to,
		Ambiguous:    len(distinct) > 1,
	}, true
}
