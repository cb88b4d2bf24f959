package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/CatalogMatch/internal/domain/suggestion"
	"github.com/turtacn/CatalogMatch/internal/interfaces/http/middleware"
	"github.com/turtacn/CatalogMatch/pkg/errors"
)

// Suggester is the matching entry point the handler drives.  Implemented by
// matching.Engine.
type Suggester interface {
	Suggest(ctx context.Context, tenant string, queries []suggestion.LineItemQuery) (suggestion.BatchResult, error)
}

// SuggestionHandler serves the suggestion API.
type SuggestionHandler struct {
	suggester Suggester
	maxItems  int
}

// NewSuggestionHandler builds the handler.  maxItems bounds the batch size;
// zero disables the bound.
func NewSuggestionHandler(suggester Suggester, maxItems int) *SuggestionHandler {
	return &SuggestionHandler{suggester: suggester, maxItems: maxItems}
}

type suggestRequest struct {
	Items []suggestion.LineItemQuery `json:"items"`
}

type candidateResponse struct {
	CatalogID string   `json:"catalog_id"`
	Key       string   `json:"key"`
	Name      string   `json:"name"`
	UnitPrice *float64 `json:"unit_price,omitempty"`
	Score     float64  `json:"score"`
	MatchKind string   `json:"match_kind"`
}

type suggestResponse struct {
	Suggestions map[string][]candidateResponse `json:"suggestions"`
}

// Suggest handles POST /api/v1/suggestions.  The response maps each batch
// index, as a string key, to the ranked candidates for that item; an item
// with no candidates maps to an empty array.  Only a malformed body or an
// oversized batch is a client error: tier-level collaborator failures are
// already degraded inside the engine and never surface here.
func (h *SuggestionHandler) Suggest(c *gin.Context) {
	var req suggestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.Wrap(err, errors.ErrCodeBadRequest, "malformed request body"))
		return
	}
	if len(req.Items) == 0 {
		respondError(c, errors.New(errors.ErrCodeBadBatch, "items is empty"))
		return
	}
	if h.maxItems > 0 && len(req.Items) > h.maxItems {
		respondError(c, errors.Newf(errors.ErrCodeBadBatch,
			"batch has %d items, limit is %d", len(req.Items), h.maxItems))
		return
	}

	tenant := middleware.TenantFromContext(c)
	batch, err := h.suggester.Suggest(c.Request.Context(), tenant, req.Items)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := suggestResponse{Suggestions: make(map[string][]candidateResponse, len(batch))}
	for i, candidates := range batch {
		out := make([]candidateResponse, 0, len(candidates))
		for _, cand := range candidates {
			out = append(out, candidateResponse{
				CatalogID: cand.Entry.ID.String(),
				Key:       cand.Entry.Key,
				Name:      cand.Entry.Name,
				UnitPrice: cand.Entry.UnitPrice,
				Score:     cand.Score,
				MatchKind: cand.Kind.String(),
			})
		}
		resp.Suggestions[strconv.Itoa(i)] = out
	}
	c.JSON(http.StatusOK, resp)
}
