package matching

import (
	"context"
	"strings"

	"github.com/turtacn/CatalogMatch/internal/domain/suggestion"
)

// runOverlapTier searches the catalog with the substantial tokens of the
// description and grades each hit by containment between the entry name and
// the full normalized description: mutual containment in either direction is
// a strong textual match, anything else surfaced by the backend is a fuzzy
// one.
func (e *Engine) runOverlapTier(ctx context.Context, tenant string, q suggestion.LineItemQuery, acc *accumulator) {
	tokens := Tokens(q.RawDescription, e.params.MaxQueryTokens, e.params.MinTokenLength)
	if len(tokens) == 0 {
		return
	}
	needle := strings.Join(tokens, " ")
	description := Normalize(q.RawDescription)

	storeCtx, cancel := context.WithTimeout(ctx, e.params.StoreTimeout)
	defer cancel()

	entries, err := e.store.SearchKeyOrName(storeCtx, tenant, needle, e.params.SearchLimit)
	if err != nil {
		e.tierDegraded(ctx, "overlap", tenant, err)
		return
	}

	for _, entry := range entries {
		name := Normalize(entry.Name)
		if name != "" && (strings.Contains(name, description) || strings.Contains(description, name)) {
			acc.add(entry, e.params.NameContainScore, suggestion.KindNameOverlap)
			continue
		}
		acc.add(entry, e.params.NameFuzzyScore, suggestion.KindNameOverlap)
	}
}
