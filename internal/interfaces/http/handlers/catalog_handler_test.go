package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/CatalogMatch/internal/config"
	"github.com/turtacn/CatalogMatch/internal/domain/catalog"
	"github.com/turtacn/CatalogMatch/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/CatalogMatch/internal/interfaces/http/middleware"
	"github.com/turtacn/CatalogMatch/pkg/errors"
)

type stubImporter struct {
	entries []*catalog.Entry
	refs    []*catalog.CrossReference
	err     error
}

func (s *stubImporter) UpsertEntries(_ context.Context, entries []*catalog.Entry) error {
	if s.err != nil {
		return s.err
	}
	s.entries = entries
	return nil
}

func (s *stubImporter) UpsertCrossReferences(_ context.Context, refs []*catalog.CrossReference) error {
	if s.err != nil {
		return s.err
	}
	s.refs = refs
	return nil
}

type stubSearchIndexer struct {
	indexed []*catalog.Entry
	err     error
}

func (s *stubSearchIndexer) IndexEntries(_ context.Context, entries []*catalog.Entry) error {
	if s.err != nil {
		return s.err
	}
	s.indexed = entries
	return nil
}

type stubVectorIndexer struct {
	upserted []*catalog.Entry
}

func (s *stubVectorIndexer) UpsertEmbeddings(_ context.Context, entries []*catalog.Entry) error {
	s.upserted = entries
	return nil
}

type stubBatchEmbedder struct {
	dim int
	err error
}

func (s *stubBatchEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = make([]float32, s.dim)
	}
	return out, nil
}

func newCatalogRouter(h *CatalogHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("/api/v1")
	api.Use(middleware.Tenant(config.MultitenancyConfig{TenantHeader: "X-Tenant-ID"}))
	api.POST("/catalog/entries", h.ImportEntries)
	api.POST("/catalog/cross-references", h.ImportCrossReferences)
	return r
}

func TestImportEntries(t *testing.T) {
	importer := &stubImporter{}
	h := NewCatalogHandler(importer, logging.NewNopLogger())
	r := newCatalogRouter(h)

	w := postJSON(t, r, "/api/v1/catalog/entries", "acme", gin.H{
		"entries": []gin.H{
			{"key": "WID-001", "name": "Industrial Widget", "unit_price": 12.5},
			{"key": "WID-002", "name": "Compact Widget"},
		},
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"imported":2`)
	require.Len(t, importer.entries, 2)
	assert.Equal(t, "acme", importer.entries[0].TenantID)
	assert.Equal(t, "WID-001", importer.entries[0].Key)
	assert.NotZero(t, importer.entries[0].ID)
}

func TestImportEntriesMirrorsSearchAndVectors(t *testing.T) {
	importer := &stubImporter{}
	search := &stubSearchIndexer{}
	vectors := &stubVectorIndexer{}
	h := NewCatalogHandler(importer, logging.NewNopLogger(),
		WithSearchIndexer(search),
		WithVectorIndexer(vectors, &stubBatchEmbedder{dim: 4}))
	r := newCatalogRouter(h)

	w := postJSON(t, r, "/api/v1/catalog/entries", "acme", gin.H{
		"entries": []gin.H{{"key": "WID-001", "name": "Industrial Widget"}},
	})

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, search.indexed, 1)
	require.Len(t, vectors.upserted, 1)
	assert.Len(t, vectors.upserted[0].Embedding, 4)
}

func TestImportEntriesSucceedsWhenMirrorsFail(t *testing.T) {
	importer := &stubImporter{}
	search := &stubSearchIndexer{err: errors.New(errors.ErrCodeExternalService, "cluster down")}
	vectors := &stubVectorIndexer{}
	h := NewCatalogHandler(importer, logging.NewNopLogger(),
		WithSearchIndexer(search),
		WithVectorIndexer(vectors, &stubBatchEmbedder{err: errors.New(errors.ErrCodeEmbeddingFailed, "provider down")}))
	r := newCatalogRouter(h)

	w := postJSON(t, r, "/api/v1/catalog/entries", "acme", gin.H{
		"entries": []gin.H{{"key": "WID-001", "name": "Industrial Widget"}},
	})

	// The catalog write is the source of truth; mirrors are best-effort.
	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, importer.entries, 1)
	assert.Empty(t, vectors.upserted)
}

func TestImportEntriesRejectsBlankKey(t *testing.T) {
	h := NewCatalogHandler(&stubImporter{}, logging.NewNopLogger())
	r := newCatalogRouter(h)

	w := postJSON(t, r, "/api/v1/catalog/entries", "acme", gin.H{
		"entries": []gin.H{{"key": "  ", "name": "nameless"}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestImportEntriesSurfacesStoreError(t *testing.T) {
	importer := &stubImporter{err: errors.New(errors.ErrCodeDatabaseError, "insert failed")}
	h := NewCatalogHandler(importer, logging.NewNopLogger())
	r := newCatalogRouter(h)

	w := postJSON(t, r, "/api/v1/catalog/entries", "acme", gin.H{
		"entries": []gin.H{{"key": "WID-001", "name": "Widget"}},
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestImportCrossReferences(t *testing.T) {
	importer := &stubImporter{}
	h := NewCatalogHandler(importer, logging.NewNopLogger())
	r := newCatalogRouter(h)

	w := postJSON(t, r, "/api/v1/catalog/cross-references", "acme", gin.H{
		"cross_references": []gin.H{
			{"foreign_key": "COMP-99", "internal_key": "WID-001", "foreign_name": "Competitor Widget"},
		},
	})

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, importer.refs, 1)
	assert.Equal(t, "acme", importer.refs[0].TenantID)
	assert.Equal(t, "COMP-99", importer.refs[0].ForeignKey)
	assert.Equal(t, "WID-001", importer.refs[0].InternalKey)
}

func TestImportCrossReferencesRejectsDanglingMapping(t *testing.T) {
	h := NewCatalogHandler(&stubImporter{}, logging.NewNopLogger())
	r := newCatalogRouter(h)

	w := postJSON(t, r, "/api/v1/catalog/cross-references", "acme", gin.H{
		"cross_references": []gin.H{{"foreign_key": "COMP-99"}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
