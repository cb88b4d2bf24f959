// Package suggestion defines the query and result model of the matching
// engine: the line-item queries submitted by callers and the ranked candidate
// matches returned to them.  Results are constructed fresh per request and
// never persisted by the engine.
package suggestion

import (
	"strings"

	"github.com/turtacn/CatalogMatch/internal/domain/catalog"
)

// MatchKind labels the tier that produced a candidate.
type MatchKind string

const (
	KindCrossReference MatchKind = "cross_reference"
	KindKeyExact       MatchKind = "key_exact"
	KindKeyPartial     MatchKind = "key_partial"
	KindNameOverlap    MatchKind = "name_overlap"
	KindSemantic       MatchKind = "semantic"
)

// Priority returns the tie-break rank of the kind: lower wins when two
// candidates carry an equal score.  The ordering mirrors tier invocation
// order, cross-reference first.
func (k MatchKind) Priority() int {
	switch k {
	case KindCrossReference:
		return 0
	case KindKeyExact:
		return 1
	case KindKeyPartial:
		return 2
	case KindNameOverlap:
		return 3
	case KindSemantic:
		return 4
	default:
		return 5
	}
}

// IsValid reports whether k is one of the defined kinds.
func (k MatchKind) IsValid() bool {
	switch k {
	case KindCrossReference, KindKeyExact, KindKeyPartial, KindNameOverlap, KindSemantic:
		return true
	}
	return false
}

func (k MatchKind) String() string {
	return string(k)
}

// LineItemQuery is the unit of work submitted to the engine.  At least one
// field should be non-empty for a match to be attempted; an all-blank query
// yields zero candidates without error and without any collaborator calls.
type LineItemQuery struct {
	// RawIdentifier is an externally-sourced part identifier, if the line
	// item carried one.
	RawIdentifier string `json:"identifier,omitempty"`

	// RawDescription is the free-text item description, if any.
	RawDescription string `json:"description,omitempty"`
}

// IsBlank reports whether both fields are empty or whitespace-only.
func (q LineItemQuery) IsBlank() bool {
	return strings.TrimSpace(q.RawIdentifier) == "" && strings.TrimSpace(q.RawDescription) == ""
}

// CandidateMatch is one suggestion returned to the caller.
type CandidateMatch struct {
	// Entry is the matched catalog entry.
	Entry *catalog.Entry

	// Score is in [0.0, 1.0].  Sorting candidates by descending Score
	// reproduces the engine's own ranking.
	Score float64

	// Kind records the tier that discovered the candidate.
	Kind MatchKind
}

// BatchResult maps each submitted query, by its index in the batch, to its
// ranked candidates.  Index i of the outer slice corresponds to batch item i;
// a query with no candidates holds an empty (non-nil) inner slice.
type BatchResult [][]CandidateMatch

// ForIndex returns the candidates for batch index i, or nil when i is out of
// range.
func (r BatchResult) ForIndex(i int) []CandidateMatch {
	if i < 0 || i >= len(r) {
		return nil
	}
	return r[i]
}

// ClampScore bounds s to [0, 1].  Vector backends can report similarities
// marginally outside the range due to floating-point error, and cosine
// similarity is formally in [-1, 1].
func ClampScore(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}
