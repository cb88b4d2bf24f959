package catalog

import "context"

// Store is the read-only query contract the matching engine has against the
// catalog.  "Not found" is an expected, frequent outcome at every tier, so
// GetByKey reports absence as (nil, nil) rather than an error; errors are
// reserved for the store itself being unavailable.
type Store interface {
	// GetByKey returns the entry whose Key equals key within the tenant
	// scope (case-insensitive), or (nil, nil) when no such entry exists.
	GetByKey(ctx context.Context, tenant, key string) (*Entry, error)

	// SearchKeyOrName returns up to limit entries whose Key or Name
	// contains text as a case-insensitive substring.  Relevance-capable
	// backends may rank by their own scoring; the engine re-scores every
	// result, so ordering here only influences discovery order.
	SearchKeyOrName(ctx context.Context, tenant, text string, limit int) ([]*Entry, error)
}

// CrossReferenceStore resolves foreign part identifiers to internal catalog
// keys.  A missing mapping is reported as ("", false, nil).
type CrossReferenceStore interface {
	FindMapping(ctx context.Context, tenant, foreignKey string) (internalKey string, ok bool, err error)
}

// Importer is the write contract used by catalog-import flows.  Both methods
// are last-write-wins upserts: re-importing a key or mapping replaces the
// previous row.
type Importer interface {
	UpsertEntries(ctx context.Context, entries []*Entry) error
	UpsertCrossReferences(ctx context.Context, refs []*CrossReference) error
}

// compositeStore splits the Store contract across two backends: keyed lookups
// against one (PostgreSQL) and substring/relevance search against another
// (OpenSearch).  Deployments without a search cluster use the keyed backend
// for both halves.
type compositeStore struct {
	keyed    Store
	searcher Searcher
}

// Searcher is the search half of Store, implemented by text-search backends
// that cannot serve keyed lookups.
type Searcher interface {
	SearchKeyOrName(ctx context.Context, tenant, text string, limit int) ([]*Entry, error)
}

// NewCompositeStore returns a Store that delegates GetByKey to keyed and
// SearchKeyOrName to searcher.
func NewCompositeStore(keyed Store, searcher Searcher) Store {
	return &compositeStore{keyed: keyed, searcher: searcher}
}

func (s *compositeStore) GetByKey(ctx context.Context, tenant, key string) (*Entry, error) {
	return s.keyed.GetByKey(ctx, tenant, key)
}

func (s *compositeStore) SearchKeyOrName(ctx context.Context, tenant, text string, limit int) ([]*Entry, error) {
	return s.searcher.SearchKeyOrName(ctx, tenant, text, limit)
}
