package matching

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/turtacn/CatalogMatch/internal/domain/suggestion"
)

// runIdentifierTier searches the catalog with the normalized identifier and
// grades each hit by how well its key matches: exact equality, substring
// containment, or a name-only hit the backend surfaced on its own.
//
// Very short identifiers are skipped entirely.  One- and two-character
// fragments match half the catalog by substring and carry no signal.
func (e *Engine) runIdentifierTier(ctx context.Context, tenant string, q suggestion.LineItemQuery, acc *accumulator) {
	normalized := Normalize(q.RawIdentifier)
	if utf8.RuneCountInString(normalized) <= e.params.MinTokenLength {
		return
	}

	storeCtx, cancel := context.WithTimeout(ctx, e.params.StoreTimeout)
	defer cancel()

	entries, err := e.store.SearchKeyOrName(storeCtx, tenant, normalized, e.params.SearchLimit)
	if err != nil {
		e.tierDegraded(ctx, "identifier", tenant, err)
		return
	}

	for _, entry := range entries {
		key := Normalize(entry.Key)
		switch {
		case key == normalized:
			acc.add(entry, e.params.KeyExactScore, suggestion.KindKeyExact)
		case strings.Contains(key, normalized):
			acc.add(entry, e.params.KeyPartialScore, suggestion.KindKeyPartial)
		default:
			// Surfaced because the name matched, not the key.
			acc.add(entry, e.params.KeyNameHitScore, suggestion.KindKeyPartial)
		}
	}
}
