package matching

import (
	"github.com/turtacn/CatalogMatch/internal/infrastructure/monitoring/prometheus"
)

// Metrics holds the engine's instrumentation.  The embedding-failure counter
// is the one metric the design insists on: repeated provider failures degrade
// suggestion quality silently, so they must be observable.
type Metrics struct {
	SuggestTotal       prometheus.CounterVec   // labels: tenant
	SuggestDuration    prometheus.HistogramVec // labels: tenant
	TierFailuresTotal  prometheus.CounterVec   // labels: tier
	EmbeddingFailures  prometheus.CounterVec   // labels: tenant
	CandidatesReturned prometheus.HistogramVec // labels: tenant
	SemanticInvoked    prometheus.CounterVec   // labels: tenant
}

// NewMetrics registers the engine metrics on the given collector.
func NewMetrics(collector prometheus.MetricsCollector) *Metrics {
	return &Metrics{
		SuggestTotal: collector.RegisterCounter(
			"suggest_queries_total", "Line-item queries processed", "tenant"),
		SuggestDuration: collector.RegisterHistogram(
			"suggest_query_duration_seconds", "Per-query pipeline latency", nil, "tenant"),
		TierFailuresTotal: collector.RegisterCounter(
			"tier_failures_total", "Collaborator failures per tier", "tier"),
		EmbeddingFailures: collector.RegisterCounter(
			"embedding_failures_total", "Embedding provider failures", "tenant"),
		CandidatesReturned: collector.RegisterHistogram(
			"suggest_candidates_returned", "Candidates returned per query",
			[]float64{0, 1, 2, 3, 5, 10}, "tenant"),
		SemanticInvoked: collector.RegisterCounter(
			"semantic_tier_invocations_total", "Semantic fallback invocations", "tenant"),
	}
}

func (m *Metrics) tierFailure(tier string) {
	if m == nil {
		return
	}
	m.TierFailuresTotal.WithLabelValues(tier).Inc()
}

func (m *Metrics) embeddingFailure(tenant string) {
	if m == nil {
		return
	}
	m.EmbeddingFailures.WithLabelValues(tenant).Inc()
}
