package kafka

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/turtacn/CatalogMatch/internal/config"
	"github.com/turtacn/CatalogMatch/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/CatalogMatch/pkg/errors"
)

// ErrProducerClosed is returned by publishes after Close.
var ErrProducerClosed = errors.New(errors.ErrCodeInternal, "kafka producer closed")

// writerAPI abstracts kafka.Writer for tests.
type writerAPI interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer writes suggestion requests and results.  One Producer serves both
// topics; the topic is chosen per message.
type Producer struct {
	writer       writerAPI
	requestTopic string
	resultTopic  string
	logger       logging.Logger
	closed       atomic.Bool
	sent         atomic.Int64
}

// NewProducer builds a Producer from the Kafka section of the configuration.
func NewProducer(cfg config.KafkaConfig, log logging.Logger) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "kafka brokers are required")
	}

	batchTimeout := cfg.BatchTimeout
	if batchTimeout <= 0 {
		batchTimeout = time.Second
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.Hash{},
		MaxAttempts:  cfg.ProducerRetries + 1,
		BatchTimeout: batchTimeout,
		RequiredAcks: kafka.RequireAll,
		Transport:    &kafka.Transport{DialTimeout: 10 * time.Second},
	}

	return &Producer{
		writer:       writer,
		requestTopic: cfg.RequestTopic,
		resultTopic:  cfg.ResultTopic,
		logger:       log.Named("kafka_producer"),
	}, nil
}

// PublishRequest enqueues a suggestion request.
func (p *Producer) PublishRequest(ctx context.Context, req *SuggestionRequest) error {
	if err := req.Validate(0); err != nil {
		return err
	}
	data, err := EncodeRequest(req)
	if err != nil {
		return err
	}
	return p.publish(ctx, p.requestTopic, req.RequestID, data)
}

// PublishResult answers a request on the result topic.
func (p *Producer) PublishResult(ctx context.Context, res *SuggestionResult) error {
	data, err := EncodeResult(res)
	if err != nil {
		return err
	}
	return p.publish(ctx, p.resultTopic, res.RequestID, data)
}

func (p *Producer) publish(ctx context.Context, topic, key string, value []byte) error {
	if p.closed.Load() {
		return ErrProducerClosed
	}
	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
		Time:  time.Now(),
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return errors.Wrap(err, errors.ErrCodeExternalService, "kafka publish failed")
	}
	p.sent.Add(1)
	p.logger.Debug("message published",
		logging.String("topic", topic),
		logging.String("key", key))
	return nil
}

// Close flushes and closes the underlying writer.  Idempotent.
func (p *Producer) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	err := p.writer.Close()
	p.logger.Info("kafka producer closed", logging.Int64("sent", p.sent.Load()))
	return err
}
