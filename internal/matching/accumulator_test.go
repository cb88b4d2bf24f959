package matching

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/CatalogMatch/internal/domain/catalog"
	"github.com/turtacn/CatalogMatch/internal/domain/suggestion"
)

func entryWithID(id uuid.UUID, key string) *catalog.Entry {
	return &catalog.Entry{ID: id, TenantID: "t1", Key: key, Name: key}
}

func TestAccumulatorDedupFirstWins(t *testing.T) {
	acc := newAccumulator()
	id := uuid.New()

	require.True(t, acc.add(entryWithID(id, "sku-1"), 1.0, suggestion.KindKeyExact))
	require.False(t, acc.add(entryWithID(id, "sku-1"), 0.4, suggestion.KindNameOverlap))

	ranked := acc.ranked(5)
	require.Len(t, ranked, 1)
	assert.Equal(t, suggestion.KindKeyExact, ranked[0].Kind)
	assert.Equal(t, 1.0, ranked[0].Score)
}

func TestAccumulatorIgnoresNilEntry(t *testing.T) {
	acc := newAccumulator()
	assert.False(t, acc.add(nil, 0.9, suggestion.KindSemantic))
	assert.Empty(t, acc.ranked(5))
}

func TestAccumulatorBest(t *testing.T) {
	acc := newAccumulator()
	assert.Equal(t, 0.0, acc.best())

	acc.add(entryWithID(uuid.New(), "a"), 0.4, suggestion.KindNameOverlap)
	acc.add(entryWithID(uuid.New(), "b"), 0.8, suggestion.KindKeyPartial)
	acc.add(entryWithID(uuid.New(), "c"), 0.6, suggestion.KindNameOverlap)
	assert.Equal(t, 0.8, acc.best())
}

func TestAccumulatorRankedOrdering(t *testing.T) {
	acc := newAccumulator()

	// Same score, different tiers: higher-priority tier wins the tie.
	semantic := entryWithID(uuid.New(), "sem")
	overlap := entryWithID(uuid.New(), "ovl")
	exact := entryWithID(uuid.New(), "exa")

	acc.add(semantic, 0.6, suggestion.KindSemantic)
	acc.add(overlap, 0.6, suggestion.KindNameOverlap)
	acc.add(exact, 1.0, suggestion.KindKeyExact)

	ranked := acc.ranked(5)
	require.Len(t, ranked, 3)
	assert.Equal(t, exact.ID, ranked[0].Entry.ID)
	assert.Equal(t, overlap.ID, ranked[1].Entry.ID)
	assert.Equal(t, semantic.ID, ranked[2].Entry.ID)
}

func TestAccumulatorRankedPreservesDiscoveryOrderOnFullTie(t *testing.T) {
	acc := newAccumulator()
	first := entryWithID(uuid.New(), "first")
	second := entryWithID(uuid.New(), "second")

	acc.add(first, 0.4, suggestion.KindNameOverlap)
	acc.add(second, 0.4, suggestion.KindNameOverlap)

	ranked := acc.ranked(5)
	require.Len(t, ranked, 2)
	assert.Equal(t, first.ID, ranked[0].Entry.ID)
	assert.Equal(t, second.ID, ranked[1].Entry.ID)
}

func TestAccumulatorRankedTruncates(t *testing.T) {
	acc := newAccumulator()
	for i := 0; i < 8; i++ {
		acc.add(entryWithID(uuid.New(), "k"), 0.5, suggestion.KindNameOverlap)
	}
	assert.Len(t, acc.ranked(5), 5)
	assert.Len(t, acc.ranked(1), 1)
}

func TestAccumulatorClampsScores(t *testing.T) {
	acc := newAccumulator()
	acc.add(entryWithID(uuid.New(), "hot"), 1.2, suggestion.KindSemantic)
	acc.add(entryWithID(uuid.New(), "cold"), -0.3, suggestion.KindSemantic)

	ranked := acc.ranked(5)
	require.Len(t, ranked, 2)
	assert.Equal(t, 1.0, ranked[0].Score)
	assert.Equal(t, 0.0, ranked[1].Score)
}
