// Package bootstrap assembles the application from configuration: the
// database pool, the optional cache, search and vector backends, the matching
// engine, and the health checks over all of them.  Both binaries and the CLI
// share this wiring.
package bootstrap

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turtacn/CatalogMatch/internal/config"
	"github.com/turtacn/CatalogMatch/internal/domain/catalog"
	"github.com/turtacn/CatalogMatch/internal/infrastructure/database/postgres"
	"github.com/turtacn/CatalogMatch/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/CatalogMatch/internal/infrastructure/database/redis"
	"github.com/turtacn/CatalogMatch/internal/infrastructure/embedding"
	"github.com/turtacn/CatalogMatch/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/CatalogMatch/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/CatalogMatch/internal/infrastructure/search/milvus"
	"github.com/turtacn/CatalogMatch/internal/infrastructure/search/opensearch"
	"github.com/turtacn/CatalogMatch/internal/matching"
)

// App holds the assembled application.  Optional backends are nil when their
// config section is disabled.
type App struct {
	Config *config.Config
	Logger logging.Logger

	Pool      *pgxpool.Pool
	Engine    *matching.Engine
	Collector prometheus.MetricsCollector

	// Importer feeds the catalog; Searcher and VectorIndex mirror it.
	Importer catalog.Importer
	Searcher *opensearch.Searcher
	Vectors  *milvus.Index
	Embedder *embedding.Client

	// HealthChecks maps each wired dependency to its readiness ping.
	HealthChecks map[string]func(ctx context.Context) error

	closers []func() error
}

// importerPair joins the two repositories behind the catalog.Importer
// contract.
type importerPair struct {
	entries *repositories.CatalogRepository
	refs    *repositories.CrossReferenceRepository
}

func (p importerPair) UpsertEntries(ctx context.Context, entries []*catalog.Entry) error {
	return p.entries.UpsertEntries(ctx, entries)
}

func (p importerPair) UpsertCrossReferences(ctx context.Context, refs []*catalog.CrossReference) error {
	return p.refs.UpsertCrossReferences(ctx, refs)
}

// NewApp wires the application.  On error, everything opened so far is
// closed.
func NewApp(ctx context.Context, cfg *config.Config, log logging.Logger) (*App, error) {
	app := &App{
		Config:       cfg,
		Logger:       log,
		HealthChecks: make(map[string]func(ctx context.Context) error),
	}

	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
		Namespace:            "catmatch",
		EnableProcessMetrics: true,
		EnableGoMetrics:      true,
	}, log)
	if err != nil {
		return nil, err
	}
	app.Collector = collector

	pool, err := postgres.NewPool(ctx, cfg.Database, log)
	if err != nil {
		return nil, err
	}
	app.Pool = pool
	app.closers = append(app.closers, func() error { pool.Close(); return nil })
	app.HealthChecks["postgres"] = func(ctx context.Context) error {
		return postgres.HealthCheck(ctx, pool)
	}

	catalogRepo := repositories.NewCatalogRepository(pool, log)
	crossRefRepo := repositories.NewCrossReferenceRepository(pool, log)
	app.Importer = importerPair{entries: catalogRepo, refs: crossRefRepo}

	var store catalog.Store = catalogRepo
	var refs catalog.CrossReferenceStore = crossRefRepo

	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(cfg.Redis, log)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.closers = append(app.closers, redisClient.Close)
		app.HealthChecks["redis"] = redisClient.Ping

		cache := redis.NewCache(redisClient, log, redis.WithDefaultTTL(cfg.Redis.DefaultTTL))
		store = redis.NewCachedCatalogStore(store, cache, cfg.Redis.DefaultTTL, log)
		refs = redis.NewCachedCrossReferenceStore(refs, cache, cfg.Redis.DefaultTTL, log)
	}

	if cfg.OpenSearch.Enabled {
		osClient, err := opensearch.NewClient(cfg.OpenSearch, log)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.HealthChecks["opensearch"] = osClient.Ping

		searcher := opensearch.NewSearcher(osClient, cfg.OpenSearch.IndexPrefix, log)
		if err := searcher.EnsureIndex(ctx); err != nil {
			app.Close()
			return nil, err
		}
		app.Searcher = searcher
		store = catalog.NewCompositeStore(store, searcher)
	}

	engineOpts := []matching.Option{
		matching.WithCrossReferences(refs),
		matching.WithMetrics(collector),
	}

	if cfg.Milvus.Enabled {
		milvusClient, err := milvus.NewClient(ctx, cfg.Milvus, log)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.closers = append(app.closers, milvusClient.Close)
		app.HealthChecks["milvus"] = milvusClient.CheckHealth

		index := milvus.NewIndex(milvusClient, store, cfg.Milvus.CollectionPrefix, cfg.Embedding.Dimension, log)
		if err := index.EnsureCollection(ctx); err != nil {
			app.Close()
			return nil, err
		}
		app.Vectors = index

		embedder, err := embedding.NewClient(cfg.Embedding, log)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.Embedder = embedder
		engineOpts = append(engineOpts, matching.WithSemanticSearch(embedder, index))
	}

	engine, err := matching.NewEngine(store, cfg.Matching.ToParams(), log, engineOpts...)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Engine = engine

	return app, nil
}

// Close releases every opened resource, most recently opened first.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.Logger.Warn("close failed during shutdown", logging.Err(err))
		}
	}
	a.closers = nil
}
