package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/turtacn/CatalogMatch/internal/domain/catalog"
	"github.com/turtacn/CatalogMatch/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/CatalogMatch/internal/interfaces/http/middleware"
	"github.com/turtacn/CatalogMatch/pkg/errors"
)

// SearchIndexer mirrors imported entries into the text-search backend.
type SearchIndexer interface {
	IndexEntries(ctx context.Context, entries []*catalog.Entry) error
}

// VectorIndexer mirrors imported entries into the vector index.
type VectorIndexer interface {
	UpsertEmbeddings(ctx context.Context, entries []*catalog.Entry) error
}

// BatchEmbedder computes embeddings for imported entries, one vector per
// text, in input order.
type BatchEmbedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// CatalogHandler serves the catalog import API.  Imports write to PostgreSQL
// first; the search and vector mirrors are best-effort and logged when they
// lag, since both rebuild from the catalog on the next import.
type CatalogHandler struct {
	importer catalog.Importer
	search   SearchIndexer
	vectors  VectorIndexer
	embedder BatchEmbedder
	logger   logging.Logger
}

// CatalogHandlerOption configures optional mirrors on the handler.
type CatalogHandlerOption func(*CatalogHandler)

// WithSearchIndexer mirrors imports into a text-search backend.
func WithSearchIndexer(s SearchIndexer) CatalogHandlerOption {
	return func(h *CatalogHandler) { h.search = s }
}

// WithVectorIndexer mirrors imports into a vector index, embedding entries
// with the given embedder.
func WithVectorIndexer(v VectorIndexer, e BatchEmbedder) CatalogHandlerOption {
	return func(h *CatalogHandler) {
		h.vectors = v
		h.embedder = e
	}
}

// NewCatalogHandler builds the handler.
func NewCatalogHandler(importer catalog.Importer, log logging.Logger, opts ...CatalogHandlerOption) *CatalogHandler {
	h := &CatalogHandler{
		importer: importer,
		logger:   log.Named("catalog_handler"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type entryPayload struct {
	ID        string   `json:"id,omitempty"`
	Key       string   `json:"key"`
	Name      string   `json:"name"`
	UnitPrice *float64 `json:"unit_price,omitempty"`
	Category  string   `json:"category,omitempty"`
	Supplier  string   `json:"supplier,omitempty"`
}

type importEntriesRequest struct {
	Entries []entryPayload `json:"entries"`
}

// ImportEntries handles POST /api/v1/catalog/entries.  Entries without an ID
// are assigned one; re-importing a key replaces the previous row.
func (h *CatalogHandler) ImportEntries(c *gin.Context) {
	var req importEntriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.Wrap(err, errors.ErrCodeBadRequest, "malformed request body"))
		return
	}
	if len(req.Entries) == 0 {
		respondError(c, errors.New(errors.ErrCodeValidation, "entries is empty"))
		return
	}

	tenant := middleware.TenantFromContext(c)
	entries := make([]*catalog.Entry, 0, len(req.Entries))
	for i, p := range req.Entries {
		id := uuid.New()
		if p.ID != "" {
			parsed, err := uuid.Parse(p.ID)
			if err != nil {
				respondError(c, errors.Newf(errors.ErrCodeValidation, "entry %d has a malformed id", i))
				return
			}
			id = parsed
		}
		entry := &catalog.Entry{
			ID:        id,
			TenantID:  tenant,
			Key:       strings.TrimSpace(p.Key),
			Name:      strings.TrimSpace(p.Name),
			UnitPrice: p.UnitPrice,
			Category:  p.Category,
			Supplier:  p.Supplier,
		}
		if err := entry.Validate(0); err != nil {
			respondError(c, err)
			return
		}
		entries = append(entries, entry)
	}

	ctx := c.Request.Context()
	if err := h.importer.UpsertEntries(ctx, entries); err != nil {
		respondError(c, err)
		return
	}

	h.mirror(ctx, tenant, entries)
	c.JSON(http.StatusOK, gin.H{"imported": len(entries)})
}

// mirror pushes imported entries into the search and vector backends.
func (h *CatalogHandler) mirror(ctx context.Context, tenant string, entries []*catalog.Entry) {
	if h.search != nil {
		if err := h.search.IndexEntries(ctx, entries); err != nil {
			h.logger.Warn("search mirror lagging behind import",
				logging.String("tenant", tenant),
				logging.Err(err))
		}
	}
	if h.vectors == nil || h.embedder == nil {
		return
	}

	texts := make([]string, 0, len(entries))
	embeddable := make([]*catalog.Entry, 0, len(entries))
	for _, e := range entries {
		if e.Name == "" {
			continue
		}
		texts = append(texts, e.Name)
		embeddable = append(embeddable, e)
	}
	if len(embeddable) == 0 {
		return
	}

	vectors, err := h.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		h.logger.Warn("embedding skipped for import",
			logging.String("tenant", tenant),
			logging.Err(err))
		return
	}
	for i, e := range embeddable {
		e.Embedding = vectors[i]
	}
	if err := h.vectors.UpsertEmbeddings(ctx, embeddable); err != nil {
		h.logger.Warn("vector mirror lagging behind import",
			logging.String("tenant", tenant),
			logging.Err(err))
	}
}

type crossRefPayload struct {
	ForeignKey  string `json:"foreign_key"`
	InternalKey string `json:"internal_key"`
	ForeignName string `json:"foreign_name,omitempty"`
}

type importCrossRefsRequest struct {
	CrossReferences []crossRefPayload `json:"cross_references"`
}

// ImportCrossReferences handles POST /api/v1/catalog/cross-references.
func (h *CatalogHandler) ImportCrossReferences(c *gin.Context) {
	var req importCrossRefsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.Wrap(err, errors.ErrCodeBadRequest, "malformed request body"))
		return
	}
	if len(req.CrossReferences) == 0 {
		respondError(c, errors.New(errors.ErrCodeValidation, "cross_references is empty"))
		return
	}

	tenant := middleware.TenantFromContext(c)
	refs := make([]*catalog.CrossReference, 0, len(req.CrossReferences))
	for _, p := range req.CrossReferences {
		ref := &catalog.CrossReference{
			TenantID:    tenant,
			ForeignKey:  strings.TrimSpace(p.ForeignKey),
			InternalKey: strings.TrimSpace(p.InternalKey),
			ForeignName: p.ForeignName,
		}
		if err := ref.Validate(); err != nil {
			respondError(c, err)
			return
		}
		refs = append(refs, ref)
	}

	if err := h.importer.UpsertCrossReferences(c.Request.Context(), refs); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"imported": len(refs)})
}
