package kafka

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/CatalogMatch/internal/domain/catalog"
	"github.com/turtacn/CatalogMatch/internal/domain/suggestion"
	"github.com/turtacn/CatalogMatch/pkg/errors"
)

func validRequest() *SuggestionRequest {
	return &SuggestionRequest{
		RequestID:   "req-1",
		TenantID:    "acme",
		Items:       []suggestion.LineItemQuery{{RawIdentifier: "BRG-6204"}},
		SubmittedAt: time.Now().UTC(),
	}
}

func TestRequestValidate(t *testing.T) {
	assert.NoError(t, validRequest().Validate(10))

	r := validRequest()
	r.RequestID = " "
	assert.Error(t, r.Validate(10))

	r = validRequest()
	r.TenantID = ""
	assert.Error(t, r.Validate(10))

	r = validRequest()
	r.Items = nil
	err := r.Validate(10)
	assert.True(t, errors.IsCode(err, errors.ErrCodeBadBatch))

	r = validRequest()
	r.Items = make([]suggestion.LineItemQuery, 11)
	err = r.Validate(10)
	assert.True(t, errors.IsCode(err, errors.ErrCodeBadBatch))

	// Zero disables the limit.
	assert.NoError(t, r.Validate(0))
}

func TestRequestRoundTrip(t *testing.T) {
	req := validRequest()
	data, err := EncodeRequest(req)
	require.NoError(t, err)

	got, err := DecodeRequest(data)
	require.NoError(t, err)
	assert.Equal(t, req.RequestID, got.RequestID)
	assert.Equal(t, req.TenantID, got.TenantID)
	assert.Equal(t, req.Items, got.Items)
}

func TestDecodeRequestRejectsGarbage(t *testing.T) {
	_, err := DecodeRequest([]byte("{"))
	assert.True(t, errors.IsCode(err, errors.ErrCodeSerialization))
}

func TestNewResultMapsCandidates(t *testing.T) {
	price := 3.75
	entry := &catalog.Entry{
		ID:        uuid.New(),
		TenantID:  "acme",
		Key:       "BRG-6204",
		Name:      "Ball bearing 6204",
		UnitPrice: &price,
	}
	batch := suggestion.BatchResult{
		{{Entry: entry, Score: 0.95, Kind: suggestion.KindCrossReference}},
		{},
	}

	res := NewResult(validRequest(), batch)
	assert.Equal(t, "req-1", res.RequestID)
	assert.Equal(t, "acme", res.TenantID)
	assert.Empty(t, res.Error)
	require.Len(t, res.Suggestions, 2)

	c := res.Suggestions[0][0]
	assert.Equal(t, entry.ID.String(), c.CatalogID)
	assert.Equal(t, "BRG-6204", c.SKU)
	assert.Equal(t, 0.95, c.Score)
	assert.Equal(t, "cross_reference", c.Kind)
	require.NotNil(t, c.UnitPrice)
	assert.Equal(t, 3.75, *c.UnitPrice)

	// A query with no candidates maps to an empty, not nil, slice.
	assert.NotNil(t, res.Suggestions[1])
	assert.Empty(t, res.Suggestions[1])
}

func TestNewErrorResult(t *testing.T) {
	res := NewErrorResult(validRequest(), errors.New(errors.ErrCodeCatalogUnavailable, "store down"))
	assert.Equal(t, "req-1", res.RequestID)
	assert.Contains(t, res.Error, "store down")
	assert.Nil(t, res.Suggestions)
	assert.False(t, res.CompletedAt.IsZero())
}

func TestResultRoundTrip(t *testing.T) {
	res := NewErrorResult(validRequest(), errors.New(errors.ErrCodeInternal, "boom"))
	data, err := EncodeResult(res)
	require.NoError(t, err)

	got, err := DecodeResult(data)
	require.NoError(t, err)
	assert.Equal(t, res.RequestID, got.RequestID)
	assert.Equal(t, res.Error, got.Error)
}
