package redis

import (
	"context"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/turtacn/CatalogMatch/internal/domain/catalog"
	"github.com/turtacn/CatalogMatch/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/CatalogMatch/pkg/errors"
)

// CachedCatalogStore is a read-through decorator around a catalog.Store.
// Only positive GetByKey hits are cached; misses and searches always go to
// the backing store, so cached and uncached runs return the same candidates
// (bounded only by the TTL after a re-import).  Cache failures degrade to the
// backing store.
type CachedCatalogStore struct {
	inner  catalog.Store
	cache  Cache
	ttl    time.Duration
	logger logging.Logger
	sf     singleflight.Group
}

func NewCachedCatalogStore(inner catalog.Store, cache Cache, ttl time.Duration, log logging.Logger) *CachedCatalogStore {
	return &CachedCatalogStore{
		inner:  inner,
		cache:  cache,
		ttl:    ttl,
		logger: log.Named("cached_catalog"),
	}
}

func entryCacheKey(tenant, key string) string {
	return "entry:" + tenant + ":" + strings.ToLower(key)
}

func (s *CachedCatalogStore) GetByKey(ctx context.Context, tenant, key string) (*catalog.Entry, error) {
	cacheKey := entryCacheKey(tenant, key)

	var cached catalog.Entry
	err := s.cache.Get(ctx, cacheKey, &cached)
	if err == nil {
		return &cached, nil
	}
	if !errors.IsNotFound(err) {
		s.logger.Debug("cache read failed, falling through",
			logging.String("key", cacheKey), logging.Err(err))
	}

	// Collapse concurrent lookups of the same key within the batch.
	v, err, _ := s.sf.Do(cacheKey, func() (interface{}, error) {
		entry, err := s.inner.GetByKey(ctx, tenant, key)
		if err != nil {
			return nil, err
		}
		if entry != nil {
			if err := s.cache.Set(ctx, cacheKey, entry, s.ttl); err != nil {
				s.logger.Debug("cache write failed",
					logging.String("key", cacheKey), logging.Err(err))
			}
		}
		return entry, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*catalog.Entry), nil
}

// SearchKeyOrName is never cached: result sets are large, vary with every
// query string, and their discovery order feeds ranking.
func (s *CachedCatalogStore) SearchKeyOrName(ctx context.Context, tenant, text string, limit int) ([]*catalog.Entry, error) {
	return s.inner.SearchKeyOrName(ctx, tenant, text, limit)
}

// CachedCrossReferenceStore is a read-through decorator around a
// catalog.CrossReferenceStore.  Only found mappings are cached.
type CachedCrossReferenceStore struct {
	inner  catalog.CrossReferenceStore
	cache  Cache
	ttl    time.Duration
	logger logging.Logger
	sf     singleflight.Group
}

func NewCachedCrossReferenceStore(inner catalog.CrossReferenceStore, cache Cache, ttl time.Duration, log logging.Logger) *CachedCrossReferenceStore {
	return &CachedCrossReferenceStore{
		inner:  inner,
		cache:  cache,
		ttl:    ttl,
		logger: log.Named("cached_crossref"),
	}
}

func mappingCacheKey(tenant, foreignKey string) string {
	// Foreign keys are case-sensitive; no folding here.
	return "xref:" + tenant + ":" + foreignKey
}

func (s *CachedCrossReferenceStore) FindMapping(ctx context.Context, tenant, foreignKey string) (string, bool, error) {
	cacheKey := mappingCacheKey(tenant, foreignKey)

	var cached string
	err := s.cache.Get(ctx, cacheKey, &cached)
	if err == nil {
		return cached, true, nil
	}
	if !errors.IsNotFound(err) {
		s.logger.Debug("cache read failed, falling through",
			logging.String("key", cacheKey), logging.Err(err))
	}

	type mapping struct {
		internalKey string
		ok          bool
	}
	v, err, _ := s.sf.Do(cacheKey, func() (interface{}, error) {
		internalKey, ok, err := s.inner.FindMapping(ctx, tenant, foreignKey)
		if err != nil {
			return nil, err
		}
		if ok {
			if err := s.cache.Set(ctx, cacheKey, internalKey, s.ttl); err != nil {
				s.logger.Debug("cache write failed",
					logging.String("key", cacheKey), logging.Err(err))
			}
		}
		return mapping{internalKey: internalKey, ok: ok}, nil
	})
	if err != nil {
		return "", false, err
	}
	m := v.(mapping)
	return m.internalKey, m.ok, nil
}
