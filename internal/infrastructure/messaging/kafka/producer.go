package kafka

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/turtacn/LegisGraph/internal/config"
	"github.com/turtacn/LegisGraph/internal/domain/legislation"
	"github.com/turtacn/LegisGraph/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/LegisGraph/pkg/errors"
)

var (
	ErrProducerClosed = errors.New(errors.ErrCodeMessagePublish, "producer closed")
)

// ProducerConfig holds configuration for the Producer.
type ProducerConfig struct {
	Brokers          []string
	Acks             string
	MaxRetries       int
	RetryBackoff     time.Duration
	BatchSize        int
	BatchTimeout     time.Duration
	MaxMessageBytes  int
	CompressionCodec string
	WriteTimeout     time.Duration
	ReadTimeout      time.Duration
	FailedTopic      string
	ResultsTopic     string
}

// ProducerConfigFromKafka maps the application Kafka settings onto a
// ProducerConfig.
func ProducerConfigFromKafka(cfg config.KafkaConfig) ProducerConfig {
	return ProducerConfig{
		Brokers:      cfg.Brokers,
		Acks:         "all",
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
		BatchSize:    cfg.BatchSize,
		BatchTimeout: cfg.BatchTimeout,
		FailedTopic:  cfg.FailedTopic,
		ResultsTopic: cfg.ResultsTopic,
	}
}

// ProducerMetrics holds producer metrics.
type ProducerMetrics struct {
	MessagesSent   atomic.Int64
	MessagesFailed atomic.Int64
	BytesSent      atomic.Int64
	LastSentAt     atomic.Value // time.Time
	AvgLatencyMs   atomic.Int64
}

// BatchItemError records the failure of one message in a batch.  Index is
// -1 when the whole batch failed.
type BatchItemError struct {
	Index int
	Topic string
	Error error
}

// BatchPublishResult summarizes a batch publish.
type BatchPublishResult struct {
	Succeeded int
	Failed    int
	Errors    []BatchItemError
}

// WriterInterface abstracts kafka.Writer for testing.
type WriterInterface interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
	Stats() kafka.WriterStats
}

// Producer publishes pipeline events.  It implements
// legislation.FailedParseQueue and legislation.ResultPublisher.
type Producer struct {
	writer  WriterInterface
	config  ProducerConfig
	logger  logging.Logger
	closed  atomic.Bool
	metrics *ProducerMetrics
}

var (
	_ legislation.FailedParseQueue = (*Producer)(nil)
	_ legislation.ResultPublisher  = (*Producer)(nil)
)

// NewProducer creates a new Producer.
func NewProducer(cfg ProducerConfig, logger logging.Logger) (*Producer, error) {
	if err := ValidateProducerConfig(cfg); err != nil {
		return nil, err
	}
	cfg = applyProducerDefaults(cfg)

	var requiredAcks kafka.RequiredAcks
	switch cfg.Acks {
	case "none":
		requiredAcks = kafka.RequireNone
	case "all":
		requiredAcks = kafka.RequireAll
	default:
		requiredAcks = kafka.RequireOne
	}

	var compression kafka.Compression
	switch cfg.CompressionCodec {
	case "gzip":
		compression = kafka.Gzip
	case "snappy":
		compression = kafka.Snappy
	case "lz4":
		compression = kafka.Lz4
	case "zstd":
		compression = kafka.Zstd
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.Hash{},
		MaxAttempts:  cfg.MaxRetries + 1,
		BatchSize:    cfg.BatchSize,
		BatchTimeout: cfg.BatchTimeout,
		BatchBytes:   int64(cfg.MaxMessageBytes),
		WriteTimeout: cfg.WriteTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		RequiredAcks: requiredAcks,
		Compression:  compression,
		Transport:    &kafka.Transport{DialTimeout: 10 * time.Second},
	}

	return NewProducerWithWriter(writer, cfg, logger), nil
}

// NewProducerWithWriter builds a Producer over an existing writer.
func NewProducerWithWriter(w WriterInterface, cfg ProducerConfig, logger logging.Logger) *Producer {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Producer{
		writer:  w,
		config:  applyProducerDefaults(cfg),
		logger:  logger.Named("kafka-producer"),
		metrics: &ProducerMetrics{},
	}
}

func applyProducerDefaults(cfg ProducerConfig) ProducerConfig {
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryBackoff == 0 {
		cfg.RetryBackoff = 100 * time.Millisecond
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 100
	}
	if cfg.BatchTimeout == 0 {
		cfg.BatchTimeout = time.Second
	}
	// Bill texts run to several megabytes.
	if cfg.MaxMessageBytes == 0 {
		cfg.MaxMessageBytes = 16 * 1024 * 1024
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 10 * time.Second
	}
	if cfg.FailedTopic == "" {
		cfg.FailedTopic = TopicDocumentsFailed
	}
	if cfg.ResultsTopic == "" {
		cfg.ResultsTopic = TopicResultsReady
	}
	return cfg
}

// Publish publishes a single message.
func (p *Producer) Publish(ctx context.Context, msg *ProducerMessage) error {
	if p.closed.Load() {
		return ErrProducerClosed
	}
	if msg.Topic == "" {
		return errors.New(errors.ErrCodeValidation, "topic required")
	}
	if len(msg.Value) == 0 {
		return errors.New(errors.ErrCodeValidation, "value required")
	}
	if len(msg.Value) > p.config.MaxMessageBytes {
		return errors.New(errors.ErrCodeValidation, "message too large").
			WithDetail(msg.Topic)
	}

	start := time.Now()
	if err := p.writer.WriteMessages(ctx, toKafkaMessage(msg)); err != nil {
		p.metrics.MessagesFailed.Add(1)
		return errors.Wrapf(err, errors.ErrCodeMessagePublish, "publish to %s failed", msg.Topic)
	}

	p.metrics.MessagesSent.Add(1)
	p.metrics.BytesSent.Add(int64(len(msg.Value)))
	p.metrics.LastSentAt.Store(time.Now())

	latency := time.Since(start).Milliseconds()
	p.metrics.AvgLatencyMs.Store(latency)

	p.logger.Debug("Message published",
		logging.String("topic", msg.Topic),
		logging.Int64("latency_ms", latency))
	return nil
}

// PublishBatch publishes msgs in one write.  Per-message failures are
// reported in the result rather than as an error.
func (p *Producer) PublishBatch(ctx context.Context, msgs []*ProducerMessage) (*BatchPublishResult, error) {
	if p.closed.Load() {
		return nil, ErrProducerClosed
	}
	if len(msgs) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "messages empty")
	}

	kMsgs := make([]kafka.Message, len(msgs))
	for i, msg := range msgs {
		kMsgs[i] = toKafkaMessage(msg)
	}

	result := &BatchPublishResult{}
	err := p.writer.WriteMessages(ctx, kMsgs...)
	switch {
	case err == nil:
		result.Succeeded = len(msgs)
	default:
		var writeErrs kafka.WriteErrors
		if errors.As(err, &writeErrs) {
			for i, we := range writeErrs {
				if we != nil {
					result.Failed++
					result.Errors = append(result.Errors, BatchItemError{Index: i, Topic: msgs[i].Topic, Error: we})
				} else {
					result.Succeeded++
				}
			}
		} else {
			result.Failed = len(msgs)
			result.Errors = append(result.Errors, BatchItemError{Index: -1, Error: err})
		}
	}

	p.metrics.MessagesSent.Add(int64(result.Succeeded))
	p.metrics.MessagesFailed.Add(int64(result.Failed))

	p.logger.Info("Batch published",
		logging.Int("succeeded", result.Succeeded),
		logging.Int("failed", result.Failed))
	return result, nil
}

// PublishFailed sends a document whose top-level header never matched to
// the failed topic.  The value is the document JSON as received on the
// ingest topic so it can be replayed after repair.
func (p *Producer) PublishFailed(ctx context.Context, doc *legislation.Document, reason error) error {
	if doc == nil {
		return errors.InvalidParam("document is required")
	}
	value, err := json.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode document").WithDetail(doc.ID)
	}
	headers := map[string]string{
		HeaderEventType:     EventDocumentDeadLetter,
		HeaderSource:        sourceService,
		HeaderDocumentID:    doc.ID,
		HeaderOriginalTopic: TopicDocumentsIngest,
	}
	if reason != nil {
		headers[HeaderFailureReason] = reason.Error()
	}
	err = p.Publish(ctx, &ProducerMessage{
		Topic:   p.config.FailedTopic,
		Key:     []byte(doc.ID),
		Value:   value,
		Headers: headers,
	})
	if err != nil {
		return err
	}
	p.logger.Warn("Document sent to failed topic",
		logging.DocID(doc.ID),
		logging.String("topic", p.config.FailedTopic))
	return nil
}

// PublishResult announces a stored result on the results topic, keyed by
// document id.
func (p *Producer) PublishResult(ctx context.Context, res *legislation.Result) error {
	if res == nil {
		return errors.InvalidParam("result is required")
	}
	env, err := NewEventEnvelope(EventResultReady, sourceService, ResultReadyPayload{
		ResultID:      res.ID,
		DocumentID:    res.DocumentID,
		Title:         res.Title,
		Date:          res.Date,
		Variant:       string(res.Variant),
		Status:        string(res.Status),
		TotalNodes:    res.TotalNodes,
		TotalEdges:    res.TotalEdges,
		Density:       res.Density,
		Clustering:    res.Clustering,
		AverageDegree: res.AverageDegree,
		ComputedAt:    res.ComputedAt,
	})
	if err != nil {
		return err
	}
	msg, err := env.ToMessage(p.config.ResultsTopic)
	if err != nil {
		return err
	}
	msg.Key = []byte(res.DocumentID)
	msg.Headers[HeaderDocumentID] = res.DocumentID
	return p.Publish(ctx, msg)
}

// GetMetrics returns metrics snapshot.
func (p *Producer) GetMetrics() ProducerMetrics {
	m := ProducerMetrics{}
	m.MessagesSent.Store(p.metrics.MessagesSent.Load())
	m.MessagesFailed.Store(p.metrics.MessagesFailed.Load())
	m.BytesSent.Store(p.metrics.BytesSent.Load())
	m.AvgLatencyMs.Store(p.metrics.AvgLatencyMs.Load())
	if ts := p.metrics.LastSentAt.Load(); ts != nil {
		m.LastSentAt.Store(ts)
	}
	return m
}

// Close closes the producer.  Later calls are no-ops.
func (p *Producer) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	err := p.writer.Close()
	p.logger.Info("Kafka producer closed", logging.Int64("sent", p.metrics.MessagesSent.Load()))
	return err
}

func toKafkaMessage(msg *ProducerMessage) kafka.Message {
	headers := make([]kafka.Header, 0, len(msg.Headers))
	for k, v := range msg.Headers {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
	}

	ts := msg.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	return kafka.Message{
		Topic:     msg.Topic,
		Key:       msg.Key,
		Value:     msg.Value,
		Headers:   headers,
		Time:      ts,
		Partition: msg.Partition,
	}
}

func ValidateProducerConfig(cfg ProducerConfig) error {
	if len(cfg.Brokers) == 0 {
		return errors.New(errors.ErrCodeValidation, "brokers required")
	}
	if cfg.MaxRetries < 0 {
		return errors.New(errors.ErrCodeValidation, "MaxRetries must be >= 0")
	}
	return nil
}

//Personal.AI order the ending
