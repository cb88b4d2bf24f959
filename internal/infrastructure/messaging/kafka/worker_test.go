package kafka

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/CatalogMatch/internal/config"
	"github.com/turtacn/CatalogMatch/internal/domain/catalog"
	"github.com/turtacn/CatalogMatch/internal/domain/suggestion"
	"github.com/turtacn/CatalogMatch/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/CatalogMatch/pkg/errors"
)

type fakeReader struct {
	msgs      chan kafka.Message
	committed []kafka.Message
	mu        sync.Mutex
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	case m := <-r.msgs:
		return m, nil
	}
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.committed = append(r.committed, msgs...)
	return nil
}

func (r *fakeReader) Close() error { return nil }

func (r *fakeReader) committedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.committed)
}

type fakePublisher struct {
	mu      sync.Mutex
	results []*SuggestionResult
}

func (p *fakePublisher) PublishResult(_ context.Context, res *SuggestionResult) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.results = append(p.results, res)
	return nil
}

func (p *fakePublisher) snapshot() []*SuggestionResult {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*SuggestionResult, len(p.results))
	copy(out, p.results)
	return out
}

type fakeSuggester struct {
	mu       sync.Mutex
	calls    int
	failTill int
	batch    suggestion.BatchResult
	err      error
}

func (s *fakeSuggester) Suggest(_ context.Context, _ string, queries []suggestion.LineItemQuery) (suggestion.BatchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil && s.calls <= s.failTill {
		return nil, s.err
	}
	if s.batch != nil {
		return s.batch, nil
	}
	out := make(suggestion.BatchResult, len(queries))
	for i := range out {
		out[i] = []suggestion.CandidateMatch{}
	}
	return out, nil
}

func (s *fakeSuggester) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func newTestWorker(t *testing.T, reader *fakeReader, publisher *fakePublisher, suggester *fakeSuggester, wcfg config.WorkerConfig) *Worker {
	t.Helper()
	if wcfg.RetryBackoff == 0 {
		wcfg.RetryBackoff = time.Millisecond
	}
	return &Worker{
		reader:    reader,
		publisher: publisher,
		suggester: suggester,
		cfg:       wcfg,
		logger:    logging.NewNopLogger(),
		metrics:   &WorkerMetrics{},
	}
}

func runWorker(t *testing.T, w *Worker) func() {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, w.Start(ctx))
	return func() {
		cancel()
		w.Close()
	}
}

func requestMessage(t *testing.T, req *SuggestionRequest) kafka.Message {
	t.Helper()
	data, err := EncodeRequest(req)
	require.NoError(t, err)
	return kafka.Message{Key: []byte(req.RequestID), Value: data}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestWorkerProcessesRequest(t *testing.T) {
	reader := &fakeReader{msgs: make(chan kafka.Message, 1)}
	publisher := &fakePublisher{}
	entry := &catalog.Entry{ID: uuid.New(), TenantID: "acme", Key: "BRG-6204", Name: "Ball bearing 6204"}
	suggester := &fakeSuggester{batch: suggestion.BatchResult{
		{{Entry: entry, Score: 1.0, Kind: suggestion.KindKeyExact}},
	}}
	w := newTestWorker(t, reader, publisher, suggester, config.WorkerConfig{Concurrency: 1, HandlerTimeout: time.Second})
	stop := runWorker(t, w)
	defer stop()

	reader.msgs <- requestMessage(t, &SuggestionRequest{
		RequestID: "req-1",
		TenantID:  "acme",
		Items:     []suggestion.LineItemQuery{{RawIdentifier: "BRG-6204"}},
	})

	waitFor(t, func() bool { return len(publisher.snapshot()) == 1 })
	res := publisher.snapshot()[0]
	assert.Equal(t, "req-1", res.RequestID)
	assert.Equal(t, "acme", res.TenantID)
	assert.Empty(t, res.Error)
	require.Len(t, res.Suggestions, 1)
	require.Len(t, res.Suggestions[0], 1)
	assert.Equal(t, "BRG-6204", res.Suggestions[0][0].SKU)
	assert.Equal(t, 1.0, res.Suggestions[0][0].Score)
	assert.Equal(t, "key_exact", res.Suggestions[0][0].Kind)

	waitFor(t, func() bool { return reader.committedCount() == 1 })
	assert.Equal(t, int64(1), w.metrics.Processed.Load())
}

func TestWorkerRetriesTransientFailures(t *testing.T) {
	reader := &fakeReader{msgs: make(chan kafka.Message, 1)}
	publisher := &fakePublisher{}
	suggester := &fakeSuggester{
		err:      errors.New(errors.ErrCodeCatalogUnavailable, "store down"),
		failTill: 2,
	}
	w := newTestWorker(t, reader, publisher, suggester, config.WorkerConfig{Concurrency: 1, MaxRetries: 3})
	stop := runWorker(t, w)
	defer stop()

	reader.msgs <- requestMessage(t, &SuggestionRequest{
		RequestID: "req-2",
		TenantID:  "acme",
		Items:     []suggestion.LineItemQuery{{RawDescription: "bearing"}},
	})

	waitFor(t, func() bool { return len(publisher.snapshot()) == 1 })
	res := publisher.snapshot()[0]
	assert.Empty(t, res.Error)
	assert.Equal(t, 3, suggester.callCount())
	assert.Equal(t, int64(2), w.metrics.Retried.Load())
}

func TestWorkerAnswersWithErrorAfterExhaustedRetries(t *testing.T) {
	reader := &fakeReader{msgs: make(chan kafka.Message, 1)}
	publisher := &fakePublisher{}
	suggester := &fakeSuggester{
		err:      errors.New(errors.ErrCodeCatalogUnavailable, "store down"),
		failTill: 100,
	}
	w := newTestWorker(t, reader, publisher, suggester, config.WorkerConfig{Concurrency: 1, MaxRetries: 1})
	stop := runWorker(t, w)
	defer stop()

	reader.msgs <- requestMessage(t, &SuggestionRequest{
		RequestID: "req-3",
		TenantID:  "acme",
		Items:     []suggestion.LineItemQuery{{RawDescription: "bearing"}},
	})

	waitFor(t, func() bool { return len(publisher.snapshot()) == 1 })
	res := publisher.snapshot()[0]
	assert.Contains(t, res.Error, "store down")
	assert.Nil(t, res.Suggestions)
	waitFor(t, func() bool { return reader.committedCount() == 1 })
	assert.Equal(t, int64(1), w.metrics.Failed.Load())
}

func TestWorkerSkipsUndecodableMessage(t *testing.T) {
	reader := &fakeReader{msgs: make(chan kafka.Message, 2)}
	publisher := &fakePublisher{}
	suggester := &fakeSuggester{}
	w := newTestWorker(t, reader, publisher, suggester, config.WorkerConfig{Concurrency: 1})
	stop := runWorker(t, w)
	defer stop()

	reader.msgs <- kafka.Message{Value: []byte("{not json")}
	reader.msgs <- requestMessage(t, &SuggestionRequest{
		RequestID: "req-4",
		TenantID:  "acme",
		Items:     []suggestion.LineItemQuery{{RawIdentifier: "X"}},
	})

	// The poison message is committed and only the valid one is answered.
	waitFor(t, func() bool { return reader.committedCount() == 2 })
	results := publisher.snapshot()
	require.Len(t, results, 1)
	assert.Equal(t, "req-4", results[0].RequestID)
}

func TestWorkerRejectsOversizedBatch(t *testing.T) {
	reader := &fakeReader{msgs: make(chan kafka.Message, 1)}
	publisher := &fakePublisher{}
	suggester := &fakeSuggester{}
	w := newTestWorker(t, reader, publisher, suggester, config.WorkerConfig{Concurrency: 1, MaxBatchItems: 2})
	stop := runWorker(t, w)
	defer stop()

	reader.msgs <- requestMessage(t, &SuggestionRequest{
		RequestID: "req-5",
		TenantID:  "acme",
		Items: []suggestion.LineItemQuery{
			{RawIdentifier: "A"}, {RawIdentifier: "B"}, {RawIdentifier: "C"},
		},
	})

	waitFor(t, func() bool { return len(publisher.snapshot()) == 1 })
	res := publisher.snapshot()[0]
	assert.Contains(t, res.Error, "limit is 2")
	assert.Equal(t, 0, suggester.callCount())
}

func TestWorkerStartIsExclusive(t *testing.T) {
	reader := &fakeReader{msgs: make(chan kafka.Message)}
	w := newTestWorker(t, reader, &fakePublisher{}, &fakeSuggester{}, config.WorkerConfig{Concurrency: 1})
	stop := runWorker(t, w)
	defer stop()

	err := w.Start(context.Background())
	assert.ErrorIs(t, err, ErrWorkerRunning)
}
