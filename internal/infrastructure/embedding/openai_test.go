package embedding

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/CatalogMatch/internal/config"
	"github.com/turtacn/CatalogMatch/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/CatalogMatch/pkg/errors"
)

func newTestClient(t *testing.T, serverURL string, dim int) *Client {
	t.Helper()
	c, err := NewClient(config.EmbeddingConfig{
		BaseURL:   serverURL,
		APIKey:    "test-key",
		Model:     "text-embedding-3-small",
		Dimension: dim,
		Timeout:   2 * time.Second,
	}, logging.NewNopLogger())
	require.NoError(t, err)
	return c
}

func embeddingHandler(t *testing.T, dim int) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req struct {
			Model string   `json:"model"`
			Input []string `json:"input"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "text-embedding-3-small", req.Model)

		data := make([]map[string]interface{}, len(req.Input))
		for i := range req.Input {
			vec := make([]float32, dim)
			vec[0] = float32(i + 1)
			// Reversed order exercises the index handling.
			data[len(req.Input)-1-i] = map[string]interface{}{"index": i, "embedding": vec}
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"data": data})
	}
}

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient(config.EmbeddingConfig{Dimension: 8}, logging.NewNopLogger())
	assert.Error(t, err)

	_, err = NewClient(config.EmbeddingConfig{BaseURL: "http://localhost"}, logging.NewNopLogger())
	assert.Error(t, err)
}

func TestEmbed(t *testing.T) {
	srv := httptest.NewServer(embeddingHandler(t, 4))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 4)
	vec, err := c.Embed(context.Background(), "deep groove ball bearing")
	require.NoError(t, err)
	require.Len(t, vec, 4)
	assert.Equal(t, float32(1), vec[0])
}

func TestEmbedBatchRestoresInputOrder(t *testing.T) {
	srv := httptest.NewServer(embeddingHandler(t, 4))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 4)
	vectors, err := c.EmbedBatch(context.Background(), []string{"first", "second", "third"})
	require.NoError(t, err)
	require.Len(t, vectors, 3)
	for i, v := range vectors {
		assert.Equal(t, float32(i+1), v[0])
	}
}

func TestEmbedBatchRejectsBlankInput(t *testing.T) {
	c := newTestClient(t, "http://unused", 4)
	_, err := c.EmbedBatch(context.Background(), []string{"ok", "  "})
	assert.Error(t, err)
}

func TestEmbedBatchEmptyInput(t *testing.T) {
	c := newTestClient(t, "http://unused", 4)
	vectors, err := c.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vectors)
}

func TestEmbedSurfacesServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]string{"message": "rate limit exceeded", "type": "rate_limit"},
		})
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 4)
	_, err := c.Embed(context.Background(), "anything")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeEmbeddingFailed))
	assert.Contains(t, err.Error(), "rate limit exceeded")
}

func TestEmbedRejectsWrongDimension(t *testing.T) {
	srv := httptest.NewServer(embeddingHandler(t, 4))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 8)
	_, err := c.Embed(context.Background(), "anything")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeDimensionMismatch))
}

func TestEmbedRejectsShortResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"data": []interface{}{}})
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 4)
	_, err := c.Embed(context.Background(), "anything")
	assert.Error(t, err)
}

func TestEmbedHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Drain the body so the server notices the client disconnect and
		// cancels the request context; otherwise Close deadlocks.
		io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	c := newTestClient(t, srv.URL, 4)
	_, err := c.Embed(ctx, "anything")
	assert.Error(t, err)
}
