package matching

import (
	"context"

	"github.com/turtacn/CatalogMatch/internal/domain/catalog"
)

// EmbeddingProvider produces a fixed-dimensionality vector for a piece of
// text.  It is the rate-limited, failure-prone collaborator of the pipeline:
// callers must treat every error as transient and degrade rather than fail.
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Neighbor is one vector-search hit: a catalog entry with its cosine
// similarity to the query vector.
type Neighbor struct {
	Entry      *catalog.Entry
	Similarity float64
}

// VectorIndex performs nearest-neighbor search over the tenant's catalog
// embeddings.  Implementations return at most k neighbors with similarity of
// at least minSimilarity, best first.
type VectorIndex interface {
	Nearest(ctx context.Context, tenant string, vector []float32, k int, minSimilarity float64) ([]Neighbor, error)
}
