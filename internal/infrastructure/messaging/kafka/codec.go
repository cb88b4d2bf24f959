// Package kafka carries suggestion work over Kafka: callers enqueue batches of
// line items on a request topic and a worker pool answers on a result topic.
// The wire format is JSON, one request or result per message, keyed by request
// ID so retries and results for one request land on the same partition.
package kafka

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/turtacn/CatalogMatch/internal/domain/suggestion"
	"github.com/turtacn/CatalogMatch/pkg/errors"
)

// SuggestionRequest is one batch of line items submitted for matching.
type SuggestionRequest struct {
	RequestID   string                     `json:"request_id"`
	TenantID    string                     `json:"tenant_id"`
	Items       []suggestion.LineItemQuery `json:"items"`
	SubmittedAt time.Time                  `json:"submitted_at"`
}

// Validate checks the request against the worker's batch limit.
func (r *SuggestionRequest) Validate(maxItems int) error {
	if strings.TrimSpace(r.RequestID) == "" {
		return errors.New(errors.ErrCodeValidation, "request_id is required")
	}
	if strings.TrimSpace(r.TenantID) == "" {
		return errors.New(errors.ErrCodeValidation, "tenant_id is required")
	}
	if len(r.Items) == 0 {
		return errors.New(errors.ErrCodeBadBatch, "items is empty")
	}
	if maxItems > 0 && len(r.Items) > maxItems {
		return errors.Newf(errors.ErrCodeBadBatch, "batch has %d items, limit is %d", len(r.Items), maxItems)
	}
	return nil
}

// CandidatePayload is the wire shape of one candidate match.  It carries the
// fields a purchasing client needs to render a pick list; the full entry stays
// behind the catalog API.
type CandidatePayload struct {
	CatalogID string   `json:"catalog_id"`
	SKU       string   `json:"sku"`
	Name      string   `json:"name"`
	UnitPrice *float64 `json:"unit_price,omitempty"`
	Score     float64  `json:"score"`
	Kind      string   `json:"kind"`
}

// SuggestionResult answers one request.  Suggestions is positional: index i
// holds the candidates for request item i.  Error is set instead of
// Suggestions when the request could not be processed at all.
type SuggestionResult struct {
	RequestID   string               `json:"request_id"`
	TenantID    string               `json:"tenant_id"`
	Suggestions [][]CandidatePayload `json:"suggestions,omitempty"`
	Error       string               `json:"error,omitempty"`
	CompletedAt time.Time            `json:"completed_at"`
}

// NewResult converts an engine batch result into the wire shape.
func NewResult(req *SuggestionRequest, batch suggestion.BatchResult) *SuggestionResult {
	suggestions := make([][]CandidatePayload, len(batch))
	for i, candidates := range batch {
		payloads := make([]CandidatePayload, 0, len(candidates))
		for _, c := range candidates {
			payloads = append(payloads, CandidatePayload{
				CatalogID: c.Entry.ID.String(),
				SKU:       c.Entry.Key,
				Name:      c.Entry.Name,
				UnitPrice: c.Entry.UnitPrice,
				Score:     c.Score,
				Kind:      c.Kind.String(),
			})
		}
		suggestions[i] = payloads
	}
	return &SuggestionResult{
		RequestID:   req.RequestID,
		TenantID:    req.TenantID,
		Suggestions: suggestions,
		CompletedAt: time.Now().UTC(),
	}
}

// NewErrorResult answers a request that could not be processed.
func NewErrorResult(req *SuggestionRequest, err error) *SuggestionResult {
	return &SuggestionResult{
		RequestID:   req.RequestID,
		TenantID:    req.TenantID,
		Error:       err.Error(),
		CompletedAt: time.Now().UTC(),
	}
}

// EncodeRequest serializes a request for the request topic.
func EncodeRequest(req *SuggestionRequest) ([]byte, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode suggestion request")
	}
	return data, nil
}

// DecodeRequest parses a request-topic message.
func DecodeRequest(data []byte) (*SuggestionRequest, error) {
	var req SuggestionRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode suggestion request")
	}
	return &req, nil
}

// EncodeResult serializes a result for the result topic.
func EncodeResult(res *SuggestionResult) ([]byte, error) {
	data, err := json.Marshal(res)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode suggestion result")
	}
	return data, nil
}

// DecodeResult parses a result-topic message.
func DecodeResult(data []byte) (*SuggestionResult, error) {
	var res SuggestionResult
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode suggestion result")
	}
	return &res, nil
}
