// Package matching implements the catalog matching and suggestion engine: a
// fixed pipeline of candidate-generation tiers (cross-reference, identifier,
// text overlap, semantic fallback) feeding a deduplicating aggregator that
// ranks and truncates candidates per query.
package matching

import (
	"time"

	"github.com/turtacn/CatalogMatch/pkg/errors"
)

// Params carries every tunable of the engine.  The per-tier scores are
// heuristic constants; their exact values may be tuned, but the relative
// ordering between tiers is load-bearing for tie-break semantics and is
// enforced by Validate at engine construction.
type Params struct {
	// CrossReferenceScore is the fixed score of a curated cross-reference
	// hit.  Not computed: a curated mapping is treated as near-certain.
	CrossReferenceScore float64

	// KeyExactScore applies when the normalized identifier equals the
	// entry key exactly.
	KeyExactScore float64

	// KeyPartialScore applies when the identifier is a substring of the
	// entry key.
	KeyPartialScore float64

	// KeyNameHitScore applies when the entry surfaced from the identifier
	// search only because its name matched; scored conservatively.
	KeyNameHitScore float64

	// NameContainScore applies when the entry name and the query
	// description contain one another.
	NameContainScore float64

	// NameFuzzyScore applies when the entry surfaced only via the search
	// backend's own relevance, without a strict containment relationship.
	NameFuzzyScore float64

	// SemanticGate is the best-deterministic-score threshold below which
	// the semantic fallback runs.  Embedding and vector search are the
	// most expensive calls in the pipeline; they are reserved for queries
	// the deterministic tiers could not confidently resolve.
	SemanticGate float64

	// MinSimilarity is the acceptance floor for vector neighbors.
	MinSimilarity float64

	// TopN caps the candidates returned per query.
	TopN int

	// SearchLimit caps the entries fetched per store search.
	SearchLimit int

	// MaxQueryTokens caps the tokens extracted from a description.
	MaxQueryTokens int

	// MinTokenLength: tokens (and identifiers) must be strictly longer
	// than this to participate; shorter ones are too ambiguous.
	MinTokenLength int

	// NeighborK is the number of nearest neighbors requested from the
	// vector index.
	NeighborK int

	// Concurrency bounds in-flight queries within one batch.
	Concurrency int

	// StoreTimeout applies to each catalog / cross-reference store call,
	// EmbedTimeout to embedding generation, VectorTimeout to vector
	// search.  A timed-out tier contributes zero candidates.
	StoreTimeout  time.Duration
	EmbedTimeout  time.Duration
	VectorTimeout time.Duration
}

// DefaultParams returns the production defaults.
func DefaultParams() Params {
	return Params{
		CrossReferenceScore: 0.95,
		KeyExactScore:       1.0,
		KeyPartialScore:     0.8,
		KeyNameHitScore:     0.5,
		NameContainScore:    0.6,
		NameFuzzyScore:      0.4,
		SemanticGate:        0.8,
		MinSimilarity:       0.7,
		TopN:                5,
		SearchLimit:         20,
		MaxQueryTokens:      3,
		MinTokenLength:      2,
		NeighborK:           10,
		Concurrency:         8,
		StoreTimeout:        5 * time.Second,
		EmbedTimeout:        10 * time.Second,
		VectorTimeout:       5 * time.Second,
	}
}

// Validate checks the contract the rest of the engine depends on.  It is
// called once at engine construction; a violation is a configuration error
// and fails fast rather than per query.
func (p Params) Validate() error {
	for _, s := range []struct {
		name  string
		value float64
	}{
		{"cross_reference_score", p.CrossReferenceScore},
		{"key_exact_score", p.KeyExactScore},
		{"key_partial_score", p.KeyPartialScore},
		{"key_name_hit_score", p.KeyNameHitScore},
		{"name_contain_score", p.NameContainScore},
		{"name_fuzzy_score", p.NameFuzzyScore},
		{"min_similarity", p.MinSimilarity},
	} {
		if s.value < 0 || s.value > 1 {
			return errors.Newf(errors.ErrCodeInvalidScoringParams,
				"%s %.3f is outside [0, 1]", s.name, s.value)
		}
	}
	if p.SemanticGate <= 0 || p.SemanticGate > 1 {
		return errors.Newf(errors.ErrCodeInvalidScoringParams,
			"semantic_gate %.3f is outside (0, 1]", p.SemanticGate)
	}
	// Relative ordering between tiers is part of the ranking contract.
	if !(p.KeyExactScore > p.KeyPartialScore && p.KeyPartialScore > p.KeyNameHitScore) {
		return errors.New(errors.ErrCodeInvalidScoringParams,
			"identifier scores must satisfy exact > partial > name-hit")
	}
	if p.NameContainScore <= p.NameFuzzyScore {
		return errors.New(errors.ErrCodeInvalidScoringParams,
			"name overlap scores must satisfy contain > fuzzy")
	}
	if p.TopN < 1 {
		return errors.Newf(errors.ErrCodeInvalidScoringParams, "top_n must be >= 1, got %d", p.TopN)
	}
	if p.SearchLimit < 1 {
		return errors.Newf(errors.ErrCodeInvalidScoringParams, "search_limit must be >= 1, got %d", p.SearchLimit)
	}
	if p.MaxQueryTokens < 1 {
		return errors.Newf(errors.ErrCodeInvalidScoringParams, "max_query_tokens must be >= 1, got %d", p.MaxQueryTokens)
	}
	if p.NeighborK < 5 {
		return errors.Newf(errors.ErrCodeInvalidScoringParams, "neighbor_k must be >= 5, got %d", p.NeighborK)
	}
	if p.Concurrency < 1 {
		return errors.Newf(errors.ErrCodeInvalidScoringParams, "concurrency must be >= 1, got %d", p.Concurrency)
	}
	if p.StoreTimeout <= 0 || p.EmbedTimeout <= 0 || p.VectorTimeout <= 0 {
		return errors.New(errors.ErrCodeInvalidScoringParams, "tier timeouts must be positive")
	}
	return nil
}
