package matching

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/turtacn/CatalogMatch/internal/domain/catalog"
	"github.com/turtacn/CatalogMatch/internal/domain/suggestion"
	"github.com/turtacn/CatalogMatch/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/CatalogMatch/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/CatalogMatch/pkg/errors"
)

// Engine runs the suggestion pipeline.  It is stateless between calls and
// safe for concurrent use; all per-query state lives in the accumulator.
type Engine struct {
	store    catalog.Store
	refs     catalog.CrossReferenceStore
	embedder EmbeddingProvider
	index    VectorIndex
	params   Params
	logger   logging.Logger
	metrics  *Metrics
}

// Option configures optional collaborators of the engine.
type Option func(*Engine)

// WithCrossReferences wires the curated cross-reference store.  Without it
// the cross-reference tier is skipped.
func WithCrossReferences(refs catalog.CrossReferenceStore) Option {
	return func(e *Engine) { e.refs = refs }
}

// WithSemanticSearch wires the embedding provider and vector index.  Without
// both, the semantic fallback tier is skipped.
func WithSemanticSearch(embedder EmbeddingProvider, index VectorIndex) Option {
	return func(e *Engine) {
		e.embedder = embedder
		e.index = index
	}
}

// WithMetrics wires instrumentation onto the given collector.
func WithMetrics(collector prometheus.MetricsCollector) Option {
	return func(e *Engine) { e.metrics = NewMetrics(collector) }
}

// NewEngine validates params and builds an engine around the catalog store.
// An invalid Params is a deployment mistake and is rejected here, once,
// instead of surfacing per query.
func NewEngine(store catalog.Store, params Params, logger logging.Logger, opts ...Option) (*Engine, error) {
	if store == nil {
		return nil, errors.New(errors.ErrCodeInternal, "catalog store is required")
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	e := &Engine{
		store:  store,
		params: params,
		logger: logger.Named("matching"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Suggest resolves a batch of line-item queries to per-query ranked
// candidates.  Queries are processed concurrently up to the configured bound,
// but the result is positional: index i of the returned batch always holds
// the candidates of queries[i].  An individual query never fails the batch;
// only context cancellation does.
func (e *Engine) Suggest(ctx context.Context, tenant string, queries []suggestion.LineItemQuery) (suggestion.BatchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	results := make(suggestion.BatchResult, len(queries))
	if len(queries) == 0 {
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.params.Concurrency)

	for i, q := range queries {
		i, q := i, q
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = e.suggestOne(gctx, tenant, q)
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// suggestOne runs the tiers for a single query in fixed order, sharing one
// accumulator, then ranks and truncates.  Tier order is part of the ranking
// contract: it fixes which tier claims an entry under dedup and it feeds the
// tie-break priority.
func (e *Engine) suggestOne(ctx context.Context, tenant string, q suggestion.LineItemQuery) []suggestion.CandidateMatch {
	started := time.Now()
	if e.metrics != nil {
		e.metrics.SuggestTotal.WithLabelValues(tenant).Inc()
		defer func() {
			e.metrics.SuggestDuration.WithLabelValues(tenant).Observe(time.Since(started).Seconds())
		}()
	}

	acc := newAccumulator()
	if q.IsBlank() {
		return acc.ranked(e.params.TopN)
	}

	e.runCrossReferenceTier(ctx, tenant, q, acc)
	if ctx.Err() != nil {
		return acc.ranked(e.params.TopN)
	}

	e.runIdentifierTier(ctx, tenant, q, acc)
	if ctx.Err() != nil {
		return acc.ranked(e.params.TopN)
	}

	e.runOverlapTier(ctx, tenant, q, acc)
	if ctx.Err() != nil {
		return acc.ranked(e.params.TopN)
	}

	// Cost gate: the semantic tier only runs when the deterministic tiers
	// left the query unresolved.
	if acc.best() < e.params.SemanticGate {
		e.runSemanticTier(ctx, tenant, q, acc)
	}

	ranked := acc.ranked(e.params.TopN)
	if e.metrics != nil {
		e.metrics.CandidatesReturned.WithLabelValues(tenant).Observe(float64(len(ranked)))
	}
	return ranked
}

// tierDegraded records a collaborator failure.  Tiers degrade to zero
// candidates on failure; the query keeps whatever the other tiers found.
func (e *Engine) tierDegraded(ctx context.Context, tier, tenant string, err error) {
	if ctx.Err() != nil {
		// Cancellation is the caller's doing, not a tier failure.
		return
	}
	if e.metrics != nil {
		e.metrics.tierFailure(tier)
	}
	e.logger.Warn("matching tier degraded",
		logging.String("tier", tier),
		logging.String("tenant", tenant),
		logging.Err(err))
}
