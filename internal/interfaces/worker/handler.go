// Package worker turns ingest-topic messages into pipeline runs.
package worker

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/turtacn/LegisGraph/internal/domain/legislation"
	redisclient "github.com/turtacn/LegisGraph/internal/infrastructure/database/redis"
	"github.com/turtacn/LegisGraph/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/LegisGraph/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/LegisGraph/pkg/errors"
)

const (
	DefaultHandlerTimeout = 5 * time.Minute
	defaultLockTTL        = 30 * time.Second
)

// Processor analyzes one document.  *pipeline.AnnualService satisfies it.
type Processor interface {
	Process(ctx context.Context, doc *legislation.Document) (*legislation.Result, error)
}

// Locker hands out per-document mutexes.  *redis.LockFactory satisfies it.
type Locker interface {
	NewMutex(name string, opts ...redisclient.LockOption) redisclient.DistributedLock
}

// Recorder counts handled messages by outcome.
type Recorder interface {
	RecordMessage(topic string, err error)
}

// DocumentHandler decodes a document from a message and processes it while
// holding the document's lock, so redelivered copies never run twice at once.
type DocumentHandler struct {
	processor Processor
	locks     Locker
	recorder  Recorder
	logger    logging.Logger
	timeout   time.Duration
	lockTTL   time.Duration
}

type Option func(*DocumentHandler)

// WithLocks enables per-document locking.
func WithLocks(l Locker) Option {
	return func(h *DocumentHandler) { h.locks = l }
}

func WithRecorder(r Recorder) Option {
	return func(h *DocumentHandler) { h.recorder = r }
}

func WithTimeout(d time.Duration) Option {
	return func(h *DocumentHandler) {
		if d > 0 {
			h.timeout = d
		}
	}
}

func WithLogger(l logging.Logger) Option {
	return func(h *DocumentHandler) {
		if l != nil {
			h.logger = l
		}
	}
}

func NewDocumentHandler(processor Processor, opts ...Option) *DocumentHandler {
	h := &DocumentHandler{
		processor: processor,
		logger:    logging.NewNopLogger(),
		timeout:   DefaultHandlerTimeout,
		lockTTL:   defaultLockTTL,
	}
	for _, o := range opts {
		o(h)
	}
	h.logger = h.logger.Named("worker")
	return h
}

// LockName is the mutex name guarding one document.
func LockName(docID string) string {
	return "doc:" + docID
}

// Handle is a kafka.MessageHandler.  A returned error makes the consumer
// retry and finally dead-letter the message.
func (h *DocumentHandler) Handle(ctx context.Context, msg *kafka.Message) error {
	err := h.handle(ctx, msg)
	if h.recorder != nil {
		h.recorder.RecordMessage(msg.Topic, err)
	}
	return err
}

func (h *DocumentHandler) handle(ctx context.Context, msg *kafka.Message) error {
	doc, err := decodeDocument(msg)
	if err != nil {
		h.logger.WithError(err).Warn("undecodable message",
			logging.String("topic", msg.Topic),
			logging.Int64("offset", msg.Offset))
		return err
	}
	log := h.logger.With(logging.DocID(doc.ID), logging.Int64("offset", msg.Offset))

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	if h.locks != nil {
		lock := h.locks.NewMutex(LockName(doc.ID), redisclient.WithLockTTL(h.lockTTL), redisclient.WithWatchdog(true))
		acquired, err := lock.TryLock(ctx)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeServiceUnavailable, "acquire document lock")
		}
		if !acquired {
			log.Info("document locked by another worker")
			return errors.New(errors.ErrCodeConflict, "document is being processed elsewhere").
				WithDetail(doc.ID)
		}
		defer func() {
			// The processing context may already be done.
			uctx, ucancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer ucancel()
			if err := lock.Unlock(uctx); err != nil {
				log.WithError(err).Warn("document unlock failed")
			}
		}()
	}

	start := time.Now()
	res, err := h.processor.Process(ctx, doc)
	if err != nil {
		log.WithError(err).Error("document processing failed")
		return err
	}
	log.Info("message handled",
		logging.String("status", string(res.Status)),
		logging.Duration("duration", time.Since(start)))
	return nil
}

// decodeDocument reads a Document from the message value.  A missing ID
// falls back to the message key.
func decodeDocument(msg *kafka.Message) (*legislation.Document, error) {
	if len(msg.Value) == 0 {
		return nil, errors.New(errors.ErrCodeSerialization, "empty message value")
	}
	var doc legislation.Document
	if err := json.Unmarshal(msg.Value, &doc); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "decode document")
	}
	if doc.ID == "" {
		doc.ID = strings.TrimSpace(string(msg.Key))
	}
	if doc.ID == "" {
		return nil, errors.New(errors.ErrCodeValidation, "document id is required")
	}
	return &doc, nil
}

//Personal.AI order the ending
