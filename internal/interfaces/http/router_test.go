package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/turtacn/CatalogMatch/internal/config"
	"github.com/turtacn/CatalogMatch/internal/domain/suggestion"
	"github.com/turtacn/CatalogMatch/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/CatalogMatch/internal/interfaces/http/handlers"
)

type emptySuggester struct{}

func (emptySuggester) Suggest(_ context.Context, _ string, queries []suggestion.LineItemQuery) (suggestion.BatchResult, error) {
	out := make(suggestion.BatchResult, len(queries))
	for i := range out {
		out[i] = []suggestion.CandidateMatch{}
	}
	return out, nil
}

func testRouter(t *testing.T, maxBody int64) http.Handler {
	t.Helper()
	return NewRouter(RouterConfig{
		SuggestionHandler: handlers.NewSuggestionHandler(emptySuggester{}, 0),
		HealthHandler:     handlers.NewHealthHandler(nil, logging.NewNopLogger()),
		Multitenancy:      config.MultitenancyConfig{TenantHeader: "X-Tenant-ID"},
		Mode:              "test",
		MaxBodySize:       maxBody,
		Logger:            logging.NewNopLogger(),
	})
}

func TestRouterHealthIsPublic(t *testing.T) {
	w := httptest.NewRecorder()
	testRouter(t, 0).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouterAPIRequiresTenant(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/suggestions",
		strings.NewReader(`{"items":[{"identifier":"X"}]}`))
	w := httptest.NewRecorder()
	testRouter(t, 0).ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouterServesSuggestions(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/suggestions",
		strings.NewReader(`{"items":[{"identifier":"X"}]}`))
	req.Header.Set("X-Tenant-ID", "acme")
	w := httptest.NewRecorder()
	testRouter(t, 0).ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"suggestions"`)
}

func TestRouterLimitsBodySize(t *testing.T) {
	big := `{"items":[{"description":"` + strings.Repeat("x", 2048) + `"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/suggestions", strings.NewReader(big))
	req.Header.Set("X-Tenant-ID", "acme")
	w := httptest.NewRecorder()
	testRouter(t, 128).ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouterUnregisteredRoutes(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/catalog/entries",
		strings.NewReader(`{}`))
	req.Header.Set("X-Tenant-ID", "acme")
	w := httptest.NewRecorder()
	testRouter(t, 0).ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
