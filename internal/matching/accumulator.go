package matching

import (
	"sort"

	"github.com/google/uuid"

	"github.com/turtacn/CatalogMatch/internal/domain/catalog"
	"github.com/turtacn/CatalogMatch/internal/domain/suggestion"
)

// accumulator collects the candidates of a single query across tiers.  It is
// owned by one query's pipeline and never shared, which keeps the concurrent
// batch design free of cross-query state.
//
// Dedup invariant: the first tier to claim a catalog ID wins; later tiers
// skip it.
type accumulator struct {
	seen       map[uuid.UUID]struct{}
	candidates []suggestion.CandidateMatch
}

func newAccumulator() *accumulator {
	return &accumulator{seen: make(map[uuid.UUID]struct{})}
}

// add records a candidate unless its catalog ID is already claimed.  It
// reports whether the candidate was accepted.
func (a *accumulator) add(entry *catalog.Entry, score float64, kind suggestion.MatchKind) bool {
	if entry == nil {
		return false
	}
	if _, dup := a.seen[entry.ID]; dup {
		return false
	}
	a.seen[entry.ID] = struct{}{}
	a.candidates = append(a.candidates, suggestion.CandidateMatch{
		Entry: entry,
		Score: suggestion.ClampScore(score),
		Kind:  kind,
	})
	return true
}

// best returns the highest score accumulated so far, or 0 when empty.  The
// semantic cost gate reads this.
func (a *accumulator) best() float64 {
	best := 0.0
	for _, c := range a.candidates {
		if c.Score > best {
			best = c.Score
		}
	}
	return best
}

// ranked returns up to topN candidates sorted by score descending, ties
// broken by tier priority and then by discovery order.  The stable sort
// preserves discovery order for fully-equal keys, so the result is
// deterministic regardless of how the batch was scheduled.
func (a *accumulator) ranked(topN int) []suggestion.CandidateMatch {
	out := make([]suggestion.CandidateMatch, len(a.candidates))
	copy(out, a.candidates)

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Kind.Priority() < out[j].Kind.Priority()
	})

	if len(out) > topN {
		out = out[:topN]
	}
	return out
}
