package kafka

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/turtacn/CatalogMatch/internal/config"
	"github.com/turtacn/CatalogMatch/internal/domain/suggestion"
	"github.com/turtacn/CatalogMatch/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/CatalogMatch/pkg/errors"
)

// ErrWorkerRunning is returned by Start when the worker is already running.
var ErrWorkerRunning = errors.New(errors.ErrCodeConflict, "worker already running")

// Suggester is the matching entry point the worker drives.  Implemented by
// matching.Engine.
type Suggester interface {
	Suggest(ctx context.Context, tenant string, queries []suggestion.LineItemQuery) (suggestion.BatchResult, error)
}

// ResultPublisher writes answers to the result topic.  Implemented by
// Producer.
type ResultPublisher interface {
	PublishResult(ctx context.Context, res *SuggestionResult) error
}

// readerAPI abstracts kafka.Reader for tests.
type readerAPI interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// WorkerMetrics counts the worker's message outcomes.
type WorkerMetrics struct {
	Consumed  atomic.Int64
	Processed atomic.Int64
	Failed    atomic.Int64
	Retried   atomic.Int64
}

// Worker consumes suggestion requests, runs them through the engine, and
// publishes results.  Requests that fail to decode or validate are answered
// (when possible) with an error result and always committed, so one poison
// message never stalls the partition.
type Worker struct {
	reader    readerAPI
	publisher ResultPublisher
	suggester Suggester
	cfg       config.WorkerConfig
	logger    logging.Logger
	metrics   *WorkerMetrics

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewWorker builds a Worker reading the request topic as part of the
// configured consumer group.
func NewWorker(kcfg config.KafkaConfig, wcfg config.WorkerConfig, suggester Suggester, publisher ResultPublisher, log logging.Logger) (*Worker, error) {
	if len(kcfg.Brokers) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "kafka brokers are required")
	}
	if kcfg.GroupID == "" {
		return nil, errors.New(errors.ErrCodeValidation, "kafka group_id is required")
	}
	if suggester == nil {
		return nil, errors.New(errors.ErrCodeInternal, "worker needs a suggester")
	}
	if publisher == nil {
		return nil, errors.New(errors.ErrCodeInternal, "worker needs a result publisher")
	}

	startOffset := kafka.FirstOffset
	if kcfg.StartOffset == "latest" {
		startOffset = kafka.LastOffset
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        kcfg.Brokers,
		GroupID:        kcfg.GroupID,
		Topic:          kcfg.RequestTopic,
		CommitInterval: kcfg.CommitInterval,
		StartOffset:    startOffset,
		MinBytes:       1,
		MaxBytes:       10 << 20,
		Dialer:         &kafka.Dialer{Timeout: 10 * time.Second, DualStack: true},
	})

	return &Worker{
		reader:    reader,
		publisher: publisher,
		suggester: suggester,
		cfg:       wcfg,
		logger:    log.Named("worker"),
		metrics:   &WorkerMetrics{},
	}, nil
}

// Start launches the consume loops and returns.  Use Close to stop.
func (w *Worker) Start(ctx context.Context) error {
	if w.running.Swap(true) {
		return ErrWorkerRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	concurrency := w.cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	for i := 0; i < concurrency; i++ {
		w.wg.Add(1)
		go w.consumeLoop(ctx)
	}

	w.logger.Info("worker started", logging.Int("concurrency", concurrency))
	return nil
}

func (w *Worker) consumeLoop(ctx context.Context) {
	defer w.wg.Done()

	for {
		msg, err := w.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.logger.Error("fetch failed", logging.Err(err))
			time.Sleep(time.Second)
			continue
		}

		w.metrics.Consumed.Add(1)
		w.handleMessage(ctx, msg)

		if err := w.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			w.logger.Error("commit failed", logging.Err(err))
		}
	}
}

func (w *Worker) handleMessage(ctx context.Context, msg kafka.Message) {
	req, err := DecodeRequest(msg.Value)
	if err != nil {
		w.metrics.Failed.Add(1)
		w.logger.Warn("dropping undecodable request",
			logging.Int64("offset", msg.Offset),
			logging.Err(err))
		return
	}
	if err := req.Validate(w.cfg.MaxBatchItems); err != nil {
		w.metrics.Failed.Add(1)
		w.logger.Warn("rejecting invalid request",
			logging.String("request_id", req.RequestID),
			logging.Err(err))
		w.publishResult(ctx, NewErrorResult(req, err))
		return
	}

	res, err := w.process(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		w.metrics.Failed.Add(1)
		w.logger.Error("request failed after retries",
			logging.String("request_id", req.RequestID),
			logging.Err(err))
		w.publishResult(ctx, NewErrorResult(req, err))
		return
	}

	w.metrics.Processed.Add(1)
	w.publishResult(ctx, res)
}

// process runs the batch through the engine with per-attempt timeouts and
// exponential backoff between attempts.
func (w *Worker) process(ctx context.Context, req *SuggestionRequest) (*SuggestionResult, error) {
	backoff := w.cfg.RetryBackoff
	if backoff <= 0 {
		backoff = time.Second
	}

	var lastErr error
	for attempt := 0; attempt <= w.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			w.metrics.Retried.Add(1)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		batch, err := w.suggestOnce(ctx, req)
		if err == nil {
			return NewResult(req, batch), nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
	}
	return nil, lastErr
}

func (w *Worker) suggestOnce(ctx context.Context, req *SuggestionRequest) (suggestion.BatchResult, error) {
	if w.cfg.HandlerTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.cfg.HandlerTimeout)
		defer cancel()
	}
	return w.suggester.Suggest(ctx, req.TenantID, req.Items)
}

func (w *Worker) publishResult(ctx context.Context, res *SuggestionResult) {
	if err := w.publisher.PublishResult(ctx, res); err != nil && ctx.Err() == nil {
		w.logger.Error("result publish failed",
			logging.String("request_id", res.RequestID),
			logging.Err(err))
	}
}

// Metrics returns the worker's live counters.
func (w *Worker) Metrics() *WorkerMetrics {
	return w.metrics
}

// Close stops the consume loops and closes the reader.  Idempotent.
func (w *Worker) Close() error {
	if !w.running.CompareAndSwap(true, false) {
		return nil
	}
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
	err := w.reader.Close()
	w.logger.Info("worker closed",
		logging.Int64("consumed", w.metrics.Consumed.Load()),
		logging.Int64("processed", w.metrics.Processed.Load()))
	return err
}
