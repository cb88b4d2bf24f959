package matching

import (
	"context"

	"github.com/turtacn/CatalogMatch/internal/domain/suggestion"
	"github.com/turtacn/CatalogMatch/internal/infrastructure/monitoring/logging"
)

// runSemanticTier embeds the description and searches the vector index for
// nearest neighbors.  The caller only invokes it when the deterministic tiers
// fell short of the cost gate; embedding is the slowest and most
// failure-prone call in the pipeline, so every failure here is logged,
// counted, and then swallowed.
func (e *Engine) runSemanticTier(ctx context.Context, tenant string, q suggestion.LineItemQuery, acc *accumulator) {
	description := Normalize(q.RawDescription)
	if description == "" || e.embedder == nil || e.index == nil {
		return
	}

	if e.metrics != nil {
		e.metrics.SemanticInvoked.WithLabelValues(tenant).Inc()
	}

	embedCtx, cancelEmbed := context.WithTimeout(ctx, e.params.EmbedTimeout)
	vector, err := e.embedder.Embed(embedCtx, description)
	cancelEmbed()
	if err != nil {
		e.metrics.embeddingFailure(tenant)
		e.logger.Warn("embedding provider failed, semantic tier skipped",
			logging.String("tenant", tenant),
			logging.Err(err))
		return
	}
	if len(vector) == 0 {
		e.metrics.embeddingFailure(tenant)
		e.logger.Warn("embedding provider returned an empty vector",
			logging.String("tenant", tenant))
		return
	}

	vectorCtx, cancelVector := context.WithTimeout(ctx, e.params.VectorTimeout)
	defer cancelVector()

	neighbors, err := e.index.Nearest(vectorCtx, tenant, vector, e.params.NeighborK, e.params.MinSimilarity)
	if err != nil {
		e.tierDegraded(ctx, "semantic", tenant, err)
		return
	}

	for _, n := range neighbors {
		// The index contract filters too; weak neighbors from a lax
		// implementation must not reach results.
		if n.Similarity < e.params.MinSimilarity {
			continue
		}
		acc.add(n.Entry, n.Similarity, suggestion.KindSemantic)
	}
}
