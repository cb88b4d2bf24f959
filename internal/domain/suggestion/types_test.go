package suggestion

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchKind_Priority_Ordering(t *testing.T) {
	// Tie-break order: cross_reference > key_exact > key_partial >
	// name_overlap > semantic.
	kinds := []MatchKind{KindCrossReference, KindKeyExact, KindKeyPartial, KindNameOverlap, KindSemantic}
	for i := 1; i < len(kinds); i++ {
		assert.Less(t, kinds[i-1].Priority(), kinds[i].Priority(),
			"%s must outrank %s", kinds[i-1], kinds[i])
	}
	assert.Greater(t, MatchKind("bogus").Priority(), KindSemantic.Priority())
}

func TestMatchKind_IsValid(t *testing.T) {
	assert.True(t, KindCrossReference.IsValid())
	assert.True(t, KindSemantic.IsValid())
	assert.False(t, MatchKind("").IsValid())
	assert.False(t, MatchKind("fuzzy").IsValid())
}

func TestLineItemQuery_IsBlank(t *testing.T) {
	assert.True(t, LineItemQuery{}.IsBlank())
	assert.True(t, LineItemQuery{RawIdentifier: "   ", RawDescription: "\t"}.IsBlank())
	assert.False(t, LineItemQuery{RawIdentifier: "WID-001"}.IsBlank())
	assert.False(t, LineItemQuery{RawDescription: "gloves"}.IsBlank())
}

func TestBatchResult_ForIndex(t *testing.T) {
	r := BatchResult{
		{{Score: 1.0, Kind: KindKeyExact}},
		{},
	}
	assert.Len(t, r.ForIndex(0), 1)
	assert.Empty(t, r.ForIndex(1))
	assert.Nil(t, r.ForIndex(2))
	assert.Nil(t, r.ForIndex(-1))
}

func TestClampScore(t *testing.T) {
	assert.Equal(t, 0.0, ClampScore(-0.3))
	assert.Equal(t, 1.0, ClampScore(1.2))
	assert.Equal(t, 0.75, ClampScore(0.75))
}
