package kafka

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/LegisGraph/internal/config"
	"github.com/turtacn/LegisGraph/internal/domain/legislation"
	"github.com/turtacn/LegisGraph/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/LegisGraph/pkg/errors"
)

// mockKafkaWriter
type mockKafkaWriter struct {
	writeFunc func(ctx context.Context, msgs ...kafka.Message) error
	closeFunc func() error
	written   []kafka.Message
}

func (m *mockKafkaWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	m.written = append(m.written, msgs...)
	if m.writeFunc != nil {
		return m.writeFunc(ctx, msgs...)
	}
	return nil
}

func (m *mockKafkaWriter) Close() error {
	if m.closeFunc != nil {
		return m.closeFunc()
	}
	return nil
}

func (m *mockKafkaWriter) Stats() kafka.WriterStats {
	return kafka.WriterStats{}
}

func newTestProducer(w WriterInterface) *Producer {
	return NewProducerWithWriter(w, ProducerConfig{Brokers: []string{"localhost:9092"}}, logging.NewNopLogger())
}

func headerMap(m kafka.Message) map[string]string {
	out := make(map[string]string, len(m.Headers))
	for _, h := range m.Headers {
		out[h.Key] = string(h.Value)
	}
	return out
}

func TestValidateProducerConfig(t *testing.T) {
	assert.NoError(t, ValidateProducerConfig(ProducerConfig{Brokers: []string{"b:9092"}}))
	assert.Error(t, ValidateProducerConfig(ProducerConfig{}))
	assert.Error(t, ValidateProducerConfig(ProducerConfig{Brokers: []string{"b:9092"}, MaxRetries: -1}))
}

func TestProducerConfigFromKafka(t *testing.T) {
	cfg := ProducerConfigFromKafka(config.KafkaConfig{
		Brokers:      []string{"k1:9092", "k2:9092"},
		FailedTopic:  "failed",
		ResultsTopic: "results",
		MaxRetries:   5,
	})
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Brokers)
	assert.Equal(t, "failed", cfg.FailedTopic)
	assert.Equal(t, "results", cfg.ResultsTopic)
	assert.Equal(t, 5, cfg.MaxRetries)
	assert.Equal(t, "all", cfg.Acks)
}

func TestNewProducerWithWriter_DefaultTopics(t *testing.T) {
	p := newTestProducer(&mockKafkaWriter{})
	assert.Equal(t, TopicDocumentsFailed, p.config.FailedTopic)
	assert.Equal(t, TopicResultsReady, p.config.ResultsTopic)
	assert.Equal(t, 16*1024*1024, p.config.MaxMessageBytes)
}

func TestPublish_Success(t *testing.T) {
	w := &mockKafkaWriter{}
	p := newTestProducer(w)

	err := p.Publish(context.Background(), &ProducerMessage{Topic: "test", Key: []byte("k"), Value: []byte("v")})
	require.NoError(t, err)
	require.Len(t, w.written, 1)
	assert.Equal(t, "test", w.written[0].Topic)
	assert.Equal(t, "k", string(w.written[0].Key))
	assert.Equal(t, "v", string(w.written[0].Value))
	assert.False(t, w.written[0].Time.IsZero())
	metrics := p.GetMetrics()
	assert.Equal(t, int64(1), metrics.MessagesSent.Load())
}

func TestPublish_Validation(t *testing.T) {
	p := newTestProducer(&mockKafkaWriter{})
	p.config.MaxMessageBytes = 4

	assert.True(t, errors.IsValidation(p.Publish(context.Background(), &ProducerMessage{Value: []byte("v")})))
	assert.True(t, errors.IsValidation(p.Publish(context.Background(), &ProducerMessage{Topic: "t"})))
	assert.True(t, errors.IsValidation(p.Publish(context.Background(), &ProducerMessage{Topic: "t", Value: []byte("too long")})))
}

func TestPublish_Failure(t *testing.T) {
	w := &mockKafkaWriter{writeFunc: func(ctx context.Context, msgs ...kafka.Message) error {
		return stderrors.New("write failed")
	}}
	p := newTestProducer(w)

	err := p.Publish(context.Background(), &ProducerMessage{Topic: "test", Value: []byte("v")})
	assert.True(t, errors.IsCode(err, errors.ErrCodeMessagePublish))
	assert.Equal(t, int64(1), p.metrics.MessagesFailed.Load())
}

func TestPublish_Closed(t *testing.T) {
	p := newTestProducer(&mockKafkaWriter{})
	require.NoError(t, p.Close())

	err := p.Publish(context.Background(), &ProducerMessage{Topic: "t", Value: []byte("v")})
	assert.ErrorIs(t, err, ErrProducerClosed)
}

func TestPublishBatch_PartialFailure(t *testing.T) {
	w := &mockKafkaWriter{writeFunc: func(ctx context.Context, msgs ...kafka.Message) error {
		errs := make(kafka.WriteErrors, len(msgs))
		errs[1] = stderrors.New("fail")
		return errs
	}}
	p := newTestProducer(w)

	res, err := p.PublishBatch(context.Background(), []*ProducerMessage{
		{Topic: "test", Value: []byte("1")},
		{Topic: "test", Value: []byte("2")},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Succeeded)
	assert.Equal(t, 1, res.Failed)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, 1, res.Errors[0].Index)
}

func TestPublishBatch_TotalFailure(t *testing.T) {
	w := &mockKafkaWriter{writeFunc: func(ctx context.Context, msgs ...kafka.Message) error {
		return stderrors.New("broker down")
	}}
	p := newTestProducer(w)

	res, err := p.PublishBatch(context.Background(), []*ProducerMessage{{Topic: "t", Value: []byte("1")}})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, -1, res.Errors[0].Index)
}

func TestPublishFailed(t *testing.T) {
	w := &mockKafkaWriter{}
	p := newTestProducer(w)
	doc := &legislation.Document{ID: "111th-congress_house-bill_3", Title: "A bill", HTML: "<p>no header</p>"}

	err := p.PublishFailed(context.Background(), doc, stderrors.New("no SEC. 1 header"))
	require.NoError(t, err)
	require.Len(t, w.written, 1)

	m := w.written[0]
	assert.Equal(t, TopicDocumentsFailed, m.Topic)
	assert.Equal(t, doc.ID, string(m.Key))
	h := headerMap(m)
	assert.Equal(t, "no SEC. 1 header", h[HeaderFailureReason])
	assert.Equal(t, doc.ID, h[HeaderDocumentID])
	assert.Equal(t, TopicDocumentsIngest, h[HeaderOriginalTopic])

	var decoded legislation.Document
	require.NoError(t, json.Unmarshal(m.Value, &decoded))
	assert.Equal(t, doc.ID, decoded.ID)
	assert.Equal(t, doc.HTML, decoded.HTML)
}

func TestPublishFailed_NilDocument(t *testing.T) {
	p := newTestProducer(&mockKafkaWriter{})
	assert.True(t, errors.IsValidation(p.PublishFailed(context.Background(), nil, nil)))
}

func TestPublishResult(t *testing.T) {
	w := &mockKafkaWriter{}
	p := newTestProducer(w)
	nodes := 4
	res := &legislation.Result{
		ID: "r-1", DocumentID: "d-1", Title: "An Act", Variant: legislation.VariantClassification,
		Status: legislation.StatusAnalyzed, TotalNodes: &nodes,
		Edges: []legislation.Edge{{Source: "a", Target: "b", Weight: 2}},
	}

	require.NoError(t, p.PublishResult(context.Background(), res))
	require.Len(t, w.written, 1)
	m := w.written[0]
	assert.Equal(t, TopicResultsReady, m.Topic)
	assert.Equal(t, "d-1", string(m.Key))
	assert.Equal(t, EventResultReady, headerMap(m)[HeaderEventType])

	env, err := MessageToEventEnvelope(&Message{Value: m.Value})
	require.NoError(t, err)
	var payload ResultReadyPayload
	require.NoError(t, env.DecodePayload(&payload))
	assert.Equal(t, "d-1", payload.DocumentID)
	assert.Equal(t, "classification", payload.Variant)
	require.NotNil(t, payload.TotalNodes)
	assert.Equal(t, 4, *payload.TotalNodes)
	assert.NotContains(t, string(env.Payload), "edges")
}

func TestClose_Once(t *testing.T) {
	calls := 0
	p := newTestProducer(&mockKafkaWriter{closeFunc: func() error {
		calls++
		return nil
	}})
	assert.NoError(t, p.Close())
	assert.NoError(t, p.Close())
	assert.Equal(t, 1, calls)
}

//Personal.AI order the ending
