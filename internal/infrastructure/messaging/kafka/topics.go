package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/turtacn/LegisGraph/internal/config"
	"github.com/turtacn/LegisGraph/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/LegisGraph/pkg/errors"
)

// Topic Constants
const (
	TopicDocumentsIngest = "legis.documents.ingest"
	TopicDocumentsFailed = "legis.documents.failed"
	TopicResultsReady    = "legis.results.ready"
)

// Event types carried in EventEnvelope.EventType.
const (
	EventResultReady        = "result.ready"
	EventDocumentDeadLetter = "document.dead_letter"
)

// Header keys set on produced messages.
const (
	HeaderEventType     = "event_type"
	HeaderSource        = "source_service"
	HeaderSchemaVersion = "schema_version"
	HeaderTraceID       = "trace_id"
	HeaderDocumentID    = "document_id"
	HeaderFailureReason = "failure_reason"
	HeaderOriginalTopic = "original_topic"
	HeaderRetryCount    = "retry_count"
)

const sourceService = "legisgraph"

// Message is one consumed record.
type Message struct {
	Topic     string
	Partition int
	Offset    int64
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Timestamp time.Time
}

// MessageHandler processes a consumed message.  A non-nil error triggers a
// retry.
type MessageHandler func(ctx context.Context, msg *Message) error

// ProducerMessage is one record to publish.
type ProducerMessage struct {
	Topic     string
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Timestamp time.Time
	Partition int
}

// TopicConfig describes a topic to create.
type TopicConfig struct {
	Name              string
	NumPartitions     int
	ReplicationFactor int
	RetentionMs       int64
	CleanupPolicy     string
	MaxMessageBytes   int
	Configs           map[string]string
}

// EventEnvelope standardizes event messages.
type EventEnvelope struct {
	EventID       string            `json:"event_id"`
	EventType     string            `json:"event_type"`
	Source        string            `json:"source"`
	Timestamp     time.Time         `json:"timestamp"`
	SchemaVersion string            `json:"schema_version"`
	TraceID       string            `json:"trace_id,omitempty"`
	Payload       json.RawMessage   `json:"payload"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// ResultReadyPayload announces a stored result.  The edge list is left out;
// consumers fetch it from the API.
type ResultReadyPayload struct {
	ResultID      string    `json:"result_id"`
	DocumentID    string    `json:"document_id"`
	Title         string    `json:"title"`
	Date          string    `json:"date"`
	Variant       string    `json:"variant"`
	Status        string    `json:"status"`
	TotalNodes    *int      `json:"total_nodes"`
	TotalEdges    *int      `json:"total_edges"`
	Density       *float64  `json:"density,omitempty"`
	Clustering    *float64  `json:"clustering,omitempty"`
	AverageDegree *float64  `json:"average_degree,omitempty"`
	ComputedAt    time.Time `json:"computed_at"`
}

func NewEventEnvelope(eventType string, source string, payload interface{}) (*EventEnvelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal payload")
	}
	return &EventEnvelope{
		EventID:       uuid.New().String(),
		EventType:     eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		SchemaVersion: "v1",
		Payload:       data,
	}, nil
}

// DecodePayload unmarshals the payload into target.  An absent payload
// leaves target untouched.
func (e *EventEnvelope) DecodePayload(target interface{}) error {
	if len(e.Payload) == 0 || string(e.Payload) == "null" {
		return nil
	}
	if err := json.Unmarshal(e.Payload, target); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to unmarshal payload")
	}
	return nil
}

func (e *EventEnvelope) ToMessage(topic string) (*ProducerMessage, error) {
	val, err := json.Marshal(e)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal envelope")
	}
	headers := map[string]string{
		HeaderEventType:     e.EventType,
		HeaderSource:        e.Source,
		HeaderSchemaVersion: e.SchemaVersion,
	}
	if e.TraceID != "" {
		headers[HeaderTraceID] = e.TraceID
	}
	return &ProducerMessage{
		Topic:     topic,
		Value:     val,
		Headers:   headers,
		Timestamp: e.Timestamp,
	}, nil
}

func MessageToEventEnvelope(msg *Message) (*EventEnvelope, error) {
	if len(msg.Value) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "empty message value")
	}
	var env EventEnvelope
	if err := json.Unmarshal(msg.Value, &env); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to unmarshal envelope")
	}
	return &env, nil
}

// ---------------------------------------------------------------------------
// Topic administration
// ---------------------------------------------------------------------------

// ConnInterface abstracts kafka.Conn for testing.
type ConnInterface interface {
	CreateTopics(topics ...kafka.TopicConfig) error
	DeleteTopics(topics ...string) error
	ReadPartitions(topics ...string) ([]kafka.Partition, error)
	Close() error
}

// TopicManager manages Kafka topics.
type TopicManager struct {
	conn   ConnInterface
	logger logging.Logger
}

func NewTopicManager(brokers []string, logger logging.Logger) (*TopicManager, error) {
	if len(brokers) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "brokers required")
	}
	conn, err := kafka.Dial("tcp", brokers[0])
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeServiceUnavailable, "failed to dial kafka")
	}
	return NewTopicManagerWithConn(conn, logger), nil
}

// NewTopicManagerWithConn wraps an existing connection.
func NewTopicManagerWithConn(conn ConnInterface, logger logging.Logger) *TopicManager {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &TopicManager{conn: conn, logger: logger}
}

// CreateTopic creates a topic.  A topic that already exists is not an error.
func (m *TopicManager) CreateTopic(ctx context.Context, cfg TopicConfig) error {
	if cfg.Name == "" {
		return errors.New(errors.ErrCodeValidation, "topic name required")
	}
	if cfg.NumPartitions <= 0 {
		return errors.New(errors.ErrCodeValidation, "NumPartitions must be > 0")
	}
	if cfg.ReplicationFactor <= 0 {
		return errors.New(errors.ErrCodeValidation, "ReplicationFactor must be > 0")
	}

	kCfg := kafka.TopicConfig{
		Topic:             cfg.Name,
		NumPartitions:     cfg.NumPartitions,
		ReplicationFactor: cfg.ReplicationFactor,
		ConfigEntries:     make([]kafka.ConfigEntry, 0),
	}
	if cfg.RetentionMs > 0 {
		kCfg.ConfigEntries = append(kCfg.ConfigEntries, kafka.ConfigEntry{ConfigName: "retention.ms", ConfigValue: fmt.Sprintf("%d", cfg.RetentionMs)})
	}
	if cfg.CleanupPolicy != "" {
		kCfg.ConfigEntries = append(kCfg.ConfigEntries, kafka.ConfigEntry{ConfigName: "cleanup.policy", ConfigValue: cfg.CleanupPolicy})
	}
	if cfg.MaxMessageBytes > 0 {
		kCfg.ConfigEntries = append(kCfg.ConfigEntries, kafka.ConfigEntry{ConfigName: "max.message.bytes", ConfigValue: fmt.Sprintf("%d", cfg.MaxMessageBytes)})
	}
	for k, v := range cfg.Configs {
		kCfg.ConfigEntries = append(kCfg.ConfigEntries, kafka.ConfigEntry{ConfigName: k, ConfigValue: v})
	}

	if err := m.conn.CreateTopics(kCfg); err != nil {
		if errors.Is(err, kafka.TopicAlreadyExists) {
			return nil
		}
		if exists, _ := m.TopicExists(ctx, cfg.Name); exists {
			return nil
		}
		return errors.Wrapf(err, errors.ErrCodeMessagePublish, "failed to create topic %s", cfg.Name)
	}
	m.logger.Info("Topic created", logging.String("topic", cfg.Name))
	return nil
}

func (m *TopicManager) DeleteTopic(ctx context.Context, name string) error {
	if err := m.conn.DeleteTopics(name); err != nil {
		return errors.Wrapf(err, errors.ErrCodeMessagePublish, "failed to delete topic %s", name)
	}
	m.logger.Warn("Topic deleted", logging.String("topic", name))
	return nil
}

// TopicExists reports whether name has at least one partition.  Lookup
// failures read as absent.
func (m *TopicManager) TopicExists(ctx context.Context, name string) (bool, error) {
	partitions, err := m.conn.ReadPartitions(name)
	if err != nil {
		return false, nil
	}
	return len(partitions) > 0, nil
}

func (m *TopicManager) ListTopics(ctx context.Context) ([]string, error) {
	partitions, err := m.conn.ReadPartitions()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeMessageConsume, "failed to read partitions")
	}

	seen := make(map[string]bool)
	var topics []string
	for _, p := range partitions {
		if !seen[p.Topic] {
			seen[p.Topic] = true
			topics = append(topics, p.Topic)
		}
	}
	return topics, nil
}

func (m *TopicManager) EnsureTopics(ctx context.Context, topics []TopicConfig) error {
	for _, topic := range topics {
		if err := m.CreateTopic(ctx, topic); err != nil {
			return err
		}
	}
	return nil
}

func (m *TopicManager) EnsureDefaultTopics(ctx context.Context) error {
	return m.EnsureTopics(ctx, DefaultTopics())
}

func (m *TopicManager) Close() error {
	return m.conn.Close()
}

const (
	day             = 24 * 3600 * 1000
	maxDocumentSize = 16 * 1024 * 1024
)

// DefaultTopics lists the pipeline topics under their default names.
func DefaultTopics() []TopicConfig {
	return pipelineTopics(TopicDocumentsIngest, TopicDocumentsFailed, TopicResultsReady, 3)
}

// TopicsFromKafka lists the pipeline topics under the configured names.
func TopicsFromKafka(cfg config.KafkaConfig) []TopicConfig {
	return pipelineTopics(cfg.IngestTopic, cfg.FailedTopic, cfg.ResultsTopic, cfg.TopicReplication)
}

// Failed documents are kept long enough for manual replay.
func pipelineTopics(ingest, failed, results string, replication int) []TopicConfig {
	return []TopicConfig{
		{Name: ingest, NumPartitions: 6, ReplicationFactor: replication, RetentionMs: 7 * day, MaxMessageBytes: maxDocumentSize},
		{Name: failed, NumPartitions: 3, ReplicationFactor: replication, RetentionMs: 30 * day, MaxMessageBytes: maxDocumentSize},
		{Name: results, NumPartitions: 6, ReplicationFactor: replication, RetentionMs: 7 * day},
	}
}

// SetupTopics dials the first broker and creates the configured pipeline
// topics that do not exist yet.
func SetupTopics(ctx context.Context, cfg config.KafkaConfig, logger logging.Logger) error {
	m, err := NewTopicManager(cfg.Brokers, logger)
	if err != nil {
		return err
	}
	defer m.Close()
	return m.EnsureTopics(ctx, TopicsFromKafka(cfg))
}

//Personal.AI order the ending
