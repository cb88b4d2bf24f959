package milvus

import (
	"context"
	"fmt"
	"strings"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	"github.com/turtacn/CatalogMatch/internal/domain/catalog"
	"github.com/turtacn/CatalogMatch/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/CatalogMatch/internal/matching"
	"github.com/turtacn/CatalogMatch/pkg/errors"
)

const (
	fieldID        = "id"
	fieldTenant    = "tenant_id"
	fieldSKU       = "sku"
	fieldEmbedding = "embedding"
)

// Index implements matching.VectorIndex on a Milvus collection.  The
// collection stores (id, tenant, sku, embedding) rows; full entries are
// hydrated from the catalog store after the similarity search, so the vector
// side never duplicates catalog attributes.
type Index struct {
	client     *Client
	store      catalog.Store
	collection string
	dim        int
	logger     logging.Logger
}

// NewIndex builds the vector index over the named collection prefix.
func NewIndex(c *Client, store catalog.Store, collectionPrefix string, dim int, log logging.Logger) *Index {
	return &Index{
		client:     c,
		store:      store,
		collection: collectionPrefix + "_catalog_vectors",
		dim:        dim,
		logger:     log.Named("vector_index"),
	}
}

// EnsureCollection creates the collection and its HNSW index when missing,
// then loads it.  Idempotent; called at startup.
func (x *Index) EnsureCollection(ctx context.Context) error {
	mc := x.client.Raw()

	has, err := mc.HasCollection(ctx, x.collection)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeVectorSearchFailed, "failed to check collection")
	}
	if !has {
		schema := entity.NewSchema().
			WithName(x.collection).
			WithField(entity.NewField().WithName(fieldID).
				WithDataType(entity.FieldTypeVarChar).WithMaxLength(64).
				WithIsPrimaryKey(true)).
			WithField(entity.NewField().WithName(fieldTenant).
				WithDataType(entity.FieldTypeVarChar).WithMaxLength(128)).
			WithField(entity.NewField().WithName(fieldSKU).
				WithDataType(entity.FieldTypeVarChar).WithMaxLength(256)).
			WithField(entity.NewField().WithName(fieldEmbedding).
				WithDataType(entity.FieldTypeFloatVector).WithDim(int64(x.dim)))

		if err := mc.CreateCollection(ctx, schema, 1); err != nil {
			return errors.Wrap(err, errors.ErrCodeVectorSearchFailed, "failed to create collection")
		}

		idx, err := entity.NewIndexHNSW(entity.COSINE, 8, 200)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeVectorSearchFailed, "failed to build index definition")
		}
		if err := mc.CreateIndex(ctx, x.collection, fieldEmbedding, idx, false); err != nil {
			return errors.Wrap(err, errors.ErrCodeVectorSearchFailed, "failed to create index")
		}

		x.logger.Info("created vector collection", logging.String("collection", x.collection))
	}

	if err := mc.LoadCollection(ctx, x.collection, false); err != nil {
		return errors.Wrap(err, errors.ErrCodeVectorSearchFailed, "failed to load collection")
	}
	return nil
}

// UpsertEmbeddings writes the embeddings of the given entries into the
// collection.  Entries without an embedding are skipped; entries whose
// embedding has the wrong dimensionality fail the batch.
func (x *Index) UpsertEmbeddings(ctx context.Context, entries []*catalog.Entry) error {
	var (
		ids     []string
		tenants []string
		skus    []string
		vectors [][]float32
	)
	for _, e := range entries {
		if len(e.Embedding) == 0 {
			continue
		}
		if err := e.Validate(x.dim); err != nil {
			return err
		}
		ids = append(ids, e.ID.String())
		tenants = append(tenants, e.TenantID)
		skus = append(skus, e.Key)
		vectors = append(vectors, e.Embedding)
	}
	if len(ids) == 0 {
		return nil
	}

	_, err := x.client.Raw().Upsert(ctx, x.collection, "",
		entity.NewColumnVarChar(fieldID, ids),
		entity.NewColumnVarChar(fieldTenant, tenants),
		entity.NewColumnVarChar(fieldSKU, skus),
		entity.NewColumnFloatVector(fieldEmbedding, x.dim, vectors),
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeVectorSearchFailed, "failed to upsert embeddings")
	}
	return nil
}

// Nearest returns the k nearest catalog entries to vector within the tenant,
// filtered to similarity of at least minSimilarity.  Results whose SKU no
// longer resolves in the catalog are dropped; a stale vector must not surface
// a phantom entry.
func (x *Index) Nearest(ctx context.Context, tenant string, vector []float32, k int, minSimilarity float64) ([]matching.Neighbor, error) {
	if len(vector) != x.dim {
		return nil, errors.Newf(errors.ErrCodeDimensionMismatch,
			"query vector has %d dimensions, want %d", len(vector), x.dim)
	}

	sp, err := entity.NewIndexHNSWSearchParam(64)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeVectorSearchFailed, "failed to build search param")
	}

	results, err := x.client.Raw().Search(ctx, x.collection, nil,
		tenantFilter(tenant),
		[]string{fieldSKU},
		[]entity.Vector{entity.FloatVector(vector)},
		fieldEmbedding, entity.COSINE, k, sp,
		client.WithSearchQueryConsistencyLevel(entity.ClBounded),
	)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeVectorSearchFailed, "vector search failed")
	}

	var neighbors []matching.Neighbor
	for _, res := range results {
		skuCol := res.Fields.GetColumn(fieldSKU)
		if skuCol == nil {
			return nil, errors.New(errors.ErrCodeVectorSearchFailed, "search result is missing the sku field")
		}
		for i := 0; i < res.ResultCount; i++ {
			similarity := float64(res.Scores[i])
			if similarity < minSimilarity {
				continue
			}
			sku, err := skuCol.GetAsString(i)
			if err != nil {
				return nil, errors.Wrap(err, errors.ErrCodeVectorSearchFailed, "failed to read sku column")
			}
			entry, err := x.store.GetByKey(ctx, tenant, sku)
			if err != nil {
				return nil, err
			}
			if entry == nil {
				x.logger.Warn("vector hit references a missing catalog entry",
					logging.String("tenant", tenant), logging.String("sku", sku))
				continue
			}
			neighbors = append(neighbors, matching.Neighbor{Entry: entry, Similarity: similarity})
		}
	}
	return neighbors, nil
}

// tenantFilter builds the boolean expression scoping a search to one tenant.
// The tenant value is escaped so a hostile header cannot alter the filter.
func tenantFilter(tenant string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(tenant)
	return fmt.Sprintf(`%s == "%s"`, fieldTenant, escaped)
}
