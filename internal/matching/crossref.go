package matching

import (
	"context"
	"strings"

	"github.com/turtacn/CatalogMatch/internal/domain/suggestion"
	"github.com/turtacn/CatalogMatch/internal/infrastructure/monitoring/logging"
)

// runCrossReferenceTier resolves the raw identifier through the curated
// cross-reference table.  A hit contributes exactly one candidate; the tier
// never produces more.  The mapping is only trusted when the catalog entry it
// points at still exists and still carries the mapped key, so a stale mapping
// degrades to nothing instead of surfacing a wrong entry.
func (e *Engine) runCrossReferenceTier(ctx context.Context, tenant string, q suggestion.LineItemQuery, acc *accumulator) {
	identifier := strings.TrimSpace(q.RawIdentifier)
	if identifier == "" || e.refs == nil {
		return
	}

	storeCtx, cancel := context.WithTimeout(ctx, e.params.StoreTimeout)
	defer cancel()

	internalKey, ok, err := e.refs.FindMapping(storeCtx, tenant, identifier)
	if err != nil {
		e.tierDegraded(ctx, "cross_reference", tenant, err)
		return
	}
	if !ok {
		return
	}

	entry, err := e.store.GetByKey(storeCtx, tenant, internalKey)
	if err != nil {
		e.tierDegraded(ctx, "cross_reference", tenant, err)
		return
	}
	if entry == nil || !strings.EqualFold(entry.Key, internalKey) {
		e.logger.Warn("cross-reference mapping is stale",
			logging.String("tenant", tenant),
			logging.String("foreign_key", identifier),
			logging.String("internal_key", internalKey))
		return
	}

	acc.add(entry, e.params.CrossReferenceScore, suggestion.KindCrossReference)
}
