package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"

	"github.com/turtacn/CatalogMatch/internal/domain/catalog"
	"github.com/turtacn/CatalogMatch/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/CatalogMatch/pkg/errors"
)

// entryDocument is the indexed shape of a catalog entry.
type entryDocument struct {
	CatalogID string   `json:"catalog_id"`
	TenantID  string   `json:"tenant_id"`
	SKU       string   `json:"sku"`
	Name      string   `json:"name"`
	UnitPrice *float64 `json:"unit_price,omitempty"`
	Category  string   `json:"category,omitempty"`
	Supplier  string   `json:"supplier,omitempty"`
}

// Searcher implements catalog.Searcher on one OpenSearch index shared by all
// tenants; every query carries a tenant filter.
type Searcher struct {
	client *Client
	index  string
	logger logging.Logger
}

// NewSearcher builds a Searcher over the "<prefix>-catalog" index.
func NewSearcher(c *Client, indexPrefix string, log logging.Logger) *Searcher {
	return &Searcher{
		client: c,
		index:  indexPrefix + "-catalog",
		logger: log.Named("opensearch_searcher"),
	}
}

// EnsureIndex creates the catalog index when missing.  Idempotent.
func (s *Searcher) EnsureIndex(ctx context.Context) error {
	existsResp, err := opensearchapi.IndicesExistsRequest{
		Index: []string{s.index},
	}.Do(ctx, s.client.Raw())
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeExternalService, "failed to check catalog index")
	}
	defer existsResp.Body.Close()
	if existsResp.StatusCode == 200 {
		return nil
	}

	mapping := `{
		"mappings": {
			"properties": {
				"catalog_id": {"type": "keyword"},
				"tenant_id":  {"type": "keyword"},
				"sku":        {"type": "keyword"},
				"name":       {"type": "text"},
				"unit_price": {"type": "double"},
				"category":   {"type": "keyword"},
				"supplier":   {"type": "keyword"}
			}
		}
	}`
	resp, err := opensearchapi.IndicesCreateRequest{
		Index: s.index,
		Body:  strings.NewReader(mapping),
	}.Do(ctx, s.client.Raw())
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeExternalService, "failed to create catalog index")
	}
	defer resp.Body.Close()
	if resp.IsError() {
		return errors.Newf(errors.ErrCodeExternalService, "catalog index creation returned %s", resp.Status())
	}

	s.logger.Info("created catalog index", logging.String("index", s.index))
	return nil
}

// IndexEntries writes entries into the catalog index through the bulk API.
// Existing documents for the same entry ID are replaced.
func (s *Searcher) IndexEntries(ctx context.Context, entries []*catalog.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	var buf bytes.Buffer
	for _, e := range entries {
		if err := e.Validate(0); err != nil {
			return err
		}
		meta, _ := json.Marshal(map[string]interface{}{
			"index": map[string]interface{}{"_index": s.index, "_id": e.ID.String()},
		})
		doc, err := json.Marshal(entryDocument{
			CatalogID: e.ID.String(),
			TenantID:  e.TenantID,
			SKU:       e.Key,
			Name:      e.Name,
			UnitPrice: e.UnitPrice,
			Category:  e.Category,
			Supplier:  e.Supplier,
		})
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal catalog document")
		}
		buf.Write(meta)
		buf.WriteByte('\n')
		buf.Write(doc)
		buf.WriteByte('\n')
	}

	resp, err := opensearchapi.BulkRequest{Body: &buf, Refresh: "true"}.Do(ctx, s.client.Raw())
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeExternalService, "bulk index failed")
	}
	defer resp.Body.Close()
	if resp.IsError() {
		return errors.Newf(errors.ErrCodeExternalService, "bulk index returned %s", resp.Status())
	}

	s.logger.Debug("indexed catalog entries", logging.Int("count", len(entries)))
	return nil
}

// SearchKeyOrName returns up to limit entries whose SKU contains text as a
// case-insensitive substring or whose name matches it, best relevance first.
func (s *Searcher) SearchKeyOrName(ctx context.Context, tenant, text string, limit int) ([]*catalog.Entry, error) {
	body, err := buildKeyOrNameQuery(tenant, text, limit)
	if err != nil {
		return nil, err
	}

	resp, err := opensearchapi.SearchRequest{
		Index: []string{s.index},
		Body:  bytes.NewReader(body),
	}.Do(ctx, s.client.Raw())
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeExternalService, "catalog search failed")
	}
	defer resp.Body.Close()
	if resp.IsError() {
		return nil, errors.Newf(errors.ErrCodeExternalService, "catalog search returned %s", resp.Status())
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeExternalService, "failed to read search response")
	}
	return parseSearchResponse(raw)
}

// buildKeyOrNameQuery renders the search DSL: a tenant filter plus a should
// pair of SKU substring and name match clauses.
func buildKeyOrNameQuery(tenant, text string, limit int) ([]byte, error) {
	query := map[string]interface{}{
		"size": limit,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"filter": []interface{}{
					map[string]interface{}{"term": map[string]interface{}{"tenant_id": tenant}},
				},
				"should": []interface{}{
					map[string]interface{}{"wildcard": map[string]interface{}{
						"sku": map[string]interface{}{
							"value":            "*" + escapeWildcard(text) + "*",
							"case_insensitive": true,
						},
					}},
					map[string]interface{}{"match": map[string]interface{}{
						"name": map[string]interface{}{"query": text},
					}},
				},
				"minimum_should_match": 1,
			},
		},
	}
	body, err := json.Marshal(query)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal search query")
	}
	return body, nil
}

// escapeWildcard escapes the wildcard metacharacters in a user-supplied term
// so it always matches literally.
func escapeWildcard(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`)
	return r.Replace(s)
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source entryDocument `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// parseSearchResponse maps a search response body to catalog entries,
// preserving the backend's relevance order.
func parseSearchResponse(raw []byte) ([]*catalog.Entry, error) {
	var resp searchResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode search response")
	}

	out := make([]*catalog.Entry, 0, len(resp.Hits.Hits))
	for _, hit := range resp.Hits.Hits {
		id, err := uuid.Parse(hit.Source.CatalogID)
		if err != nil {
			return nil, errors.Newf(errors.ErrCodeSerialization,
				"search hit has a malformed catalog_id %q", hit.Source.CatalogID)
		}
		out = append(out, &catalog.Entry{
			ID:        id,
			TenantID:  hit.Source.TenantID,
			Key:       hit.Source.SKU,
			Name:      hit.Source.Name,
			UnitPrice: hit.Source.UnitPrice,
			Category:  hit.Source.Category,
			Supplier:  hit.Source.Supplier,
		})
	}
	return out, nil
}
