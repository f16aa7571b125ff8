package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/turtacn/LegisGraph/internal/application/auxiliary"
	"github.com/turtacn/LegisGraph/internal/domain/legislation"
	"github.com/turtacn/LegisGraph/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/LegisGraph/internal/intelligence/cograph"
	"github.com/turtacn/LegisGraph/internal/intelligence/hierarchy"
	"github.com/turtacn/LegisGraph/pkg/errors"
)

// FailedParsePolicy decides what happens to a document whose mandatory
// top-level header never matched.
type FailedParsePolicy string

const (
	// PolicyEmpty records a result without statistics.
	PolicyEmpty FailedParsePolicy = "empty"
	// PolicyRetry additionally publishes the document to the failed-parse
	// queue.
	PolicyRetry FailedParsePolicy = "retry"
)

// ParseFailedParsePolicy validates a configured policy.
func ParseFailedParsePolicy(s string) (FailedParsePolicy, error) {
	switch p := FailedParsePolicy(s); p {
	case PolicyEmpty, PolicyRetry:
		return p, nil
	case "":
		return PolicyEmpty, nil
	}
	return "", errors.New(errors.ErrCodeConfigInvalid, "unknown failed-parse policy").WithDetail(s)
}

// Backends are the optional sinks of the pipeline.  Nil members are
// skipped.
type Backends struct {
	Documents legislation.DocumentRepository
	Results   legislation.ResultRepository
	Graphs    legislation.GraphStore
	Archive   legislation.GraphArchive
	Index     legislation.SectionIndexer
	Cache     legislation.ResultCache
	Failed    legislation.FailedParseQueue
	Publisher legislation.ResultPublisher
}

// AnnualOptions configure an AnnualService.
type AnnualOptions struct {
	Variant           legislation.Variant
	Workers           int
	FailedParsePolicy FailedParsePolicy
	// Aux is joined onto documents that carry no auxiliary fields yet.
	Aux *auxiliary.Table
}

// AnnualService processes annual session laws.
type AnnualService struct {
	analyzer *Analyzer
	backends Backends
	opts     AnnualOptions
	logger   logging.Logger
	metrics  Metrics
	now      func() time.Time
}

// NewAnnualService wires an AnnualService.
func NewAnnualService(analyzer *Analyzer, backends Backends, opts AnnualOptions, logger logging.Logger, metrics Metrics) *AnnualService {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if metrics == nil {
		metrics = NopMetrics()
	}
	if opts.Variant == "" {
		opts.Variant = legislation.VariantClassification
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.FailedParsePolicy == "" {
		opts.FailedParsePolicy = PolicyEmpty
	}
	return &AnnualService{
		analyzer: analyzer,
		backends: backends,
		opts:     opts,
		logger:   logger.Named("annual"),
		metrics:  metrics,
		now:      time.Now,
	}
}

// Process analyzes one document and stores and announces its result.
func (s *AnnualService) Process(ctx context.Context, doc *legislation.Document) (*legislation.Result, error) {
	if doc == nil || doc.ID == "" {
		return nil, errors.New(errors.ErrCodeValidation, "document id is required")
	}
	log := s.logger.With(logging.DocID(doc.ID))

	cacheKey := ""
	if s.backends.Cache != nil {
		cacheKey = ContentHash(doc, s.opts.Variant, string(s.analyzer.Jurisdiction().Kind()))
		cached, err := s.backends.Cache.GetResult(ctx, cacheKey)
		switch {
		case err == nil && cached != nil:
			log.Debug("result cache hit")
			s.metrics.DocumentProcessed(cached.Status)
			return cached, nil
		case err != nil && !errors.IsCode(err, errors.ErrCodeCacheMiss):
			log.WithError(err).Warn("result cache lookup failed")
		}
	}

	if s.opts.Aux != nil && doc.Aux == nil {
		start := time.Now()
		kind := s.opts.Aux.Apply(doc)
		s.metrics.ObserveStage(StageAuxJoin, time.Since(start))
		log.Debug("auxiliary join", logging.String("match", string(kind)))
	}

	analysis, err := s.analyzer.Analyze(ctx, doc)
	if err != nil {
		if errors.Is(err, hierarchy.ErrFailedParse) {
			return s.failedParse(ctx, doc, err)
		}
		return nil, err
	}

	status := legislation.StatusAnalyzed
	if len(analysis.Rows) == 0 {
		status = legislation.StatusEmpty
	}
	result := NewResult(doc, analysis, s.opts.Variant, status, s.now())

	if err := s.persist(ctx, doc, analysis, result); err != nil {
		return nil, err
	}
	if cacheKey != "" {
		if err := s.backends.Cache.SetResult(ctx, cacheKey, result); err != nil {
			log.WithError(err).Warn("result cache store failed")
		}
	}
	if err := s.publish(ctx, result); err != nil {
		return nil, err
	}
	s.metrics.DocumentProcessed(status)
	log.Info("document analyzed",
		logging.String("status", string(status)),
		logging.Int("entities", analysis.Extraction.Count()),
		logging.Int("edges", len(result.Edges)))
	return result, nil
}

func (s *AnnualService) failedParse(ctx context.Context, doc *legislation.Document, cause error) (*legislation.Result, error) {
	s.metrics.ParseFailed()
	result := NewResult(doc, nil, s.opts.Variant, legislation.StatusFailedParse, s.now())

	if s.opts.FailedParsePolicy == PolicyRetry && s.backends.Failed != nil {
		if err := s.backends.Failed.PublishFailed(ctx, doc, cause); err != nil {
			return nil, err
		}
	}
	if s.backends.Results != nil {
		if err := s.backends.Results.SaveResult(ctx, result); err != nil {
			return nil, err
		}
	}
	s.metrics.DocumentProcessed(legislation.StatusFailedParse)
	s.logger.Warn("document failed to parse",
		logging.DocID(doc.ID),
		logging.String("policy", string(s.opts.FailedParsePolicy)),
		logging.Err(cause))
	return result, nil
}

// persist writes the document, its rows and its result, then fans out to
// the graph store, the archive and the search index.
func (s *AnnualService) persist(ctx context.Context, doc *legislation.Document, a *Analysis, result *legislation.Result) (err error) {
	start := time.Now()
	defer func() {
		s.metrics.ObserveStage(StagePersist, time.Since(start))
		logging.LogStage(s.logger, StagePersist, doc.ID, start, err)
	}()

	b := s.backends
	if b.Documents != nil {
		if err = b.Documents.SaveDocument(ctx, doc); err != nil {
			return err
		}
		if err = b.Documents.SaveRows(ctx, doc.ID, a.Rows); err != nil {
			return err
		}
	}
	if b.Results != nil {
		if err = b.Results.SaveResult(ctx, result); err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	if b.Graphs != nil {
		g.Go(func() error { return b.Graphs.ReplaceGraph(gctx, doc.ID, result.Edges) })
	}
	if b.Archive != nil {
		g.Go(func() error {
			data, err := cograph.MarshalAdjacency(a.Classification.Graph)
			if err != nil {
				return err
			}
			return b.Archive.PutAdjacency(gctx, AnnualArchiveKey(doc.ID), data)
		})
	}
	if b.Index != nil && len(a.Rows) > 0 {
		g.Go(func() error { return b.Index.IndexRows(gctx, doc.ID, a.Rows) })
	}
	return g.Wait()
}

func (s *AnnualService) publish(ctx context.Context, result *legislation.Result) error {
	if s.backends.Publisher == nil {
		return nil
	}
	start := time.Now()
	err := s.backends.Publisher.PublishResult(ctx, result)
	s.metrics.ObserveStage(StagePublish, time.Since(start))
	return err
}

// AnnualArchiveKey is the archive object key of an annual document.
func AnnualArchiveKey(docID string) string {
	return "annual/" + docID + ".json"
}

// ============================================================================
// Batches
// ============================================================================

// DocumentError records one document's failure inside a batch.
type DocumentError struct {
	DocumentID string `json:"document_id"`
	Error      string `json:"error"`
	Code       string `json:"code"`
}

// BatchReport summarizes one batch run.  Results are in input order with
// skipped and failed documents omitted.
type BatchReport struct {
	RunID       string                `json:"run_id"`
	StartedAt   time.Time             `json:"started_at"`
	FinishedAt  time.Time             `json:"finished_at"`
	Total       int                   `json:"total"`
	Analyzed    int                   `json:"analyzed"`
	Empty       int                   `json:"empty"`
	FailedParse int                   `json:"failed_parse"`
	Skipped     int                   `json:"skipped"`
	Failed      int                   `json:"failed"`
	Results     []*legislation.Result `json:"results"`
	Errors      []DocumentError       `json:"errors,omitempty"`
}

func (r *BatchReport) count(status legislation.Status) {
	switch status {
	case legislation.StatusAnalyzed:
		r.Analyzed++
	case legislation.StatusEmpty:
		r.Empty++
	case legislation.StatusFailedParse:
		r.FailedParse++
	case legislation.StatusSkipped:
		r.Skipped++
	}
}

// RunBatch processes docs concurrently, at most Workers at a time.
// Resolutions are skipped.  A failing document is recorded in the report
// and does not stop the batch; only cancellation of ctx does.
func (s *AnnualService) RunBatch(ctx context.Context, docs []*legislation.Document) (*BatchReport, error) {
	report := &BatchReport{RunID: uuid.NewString(), StartedAt: s.now().UTC(), Total: len(docs)}
	log := s.logger.With(logging.String(logging.FieldRunID, report.RunID))
	log.Info("batch started", logging.Int("documents", len(docs)), logging.Int("workers", s.opts.Workers))

	results := make([]*legislation.Result, len(docs))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)
	for i, doc := range docs {
		i, doc := i, doc
		if doc.IsResolution() {
			mu.Lock()
			report.count(legislation.StatusSkipped)
			mu.Unlock()
			s.metrics.DocumentProcessed(legislation.StatusSkipped)
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := s.Process(gctx, doc)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				report.Failed++
				report.Errors = append(report.Errors, DocumentError{
					DocumentID: doc.ID,
					Error:      err.Error(),
					Code:       errors.GetCode(err).String(),
				})
				log.WithError(err).Error("document failed", logging.DocID(doc.ID))
				return nil
			}
			results[i] = res
			report.count(res.Status)
			return nil
		})
	}
	err := g.Wait()

	for _, r := range results {
		if r != nil {
			report.Results = append(report.Results, r)
		}
	}
	report.FinishedAt = s.now().UTC()
	log.Info("batch finished",
		logging.Int("analyzed", report.Analyzed),
		logging.Int("empty", report.Empty),
		logging.Int("failed_parse", report.FailedParse),
		logging.Int("skipped", report.Skipped),
		logging.Int("failed", report.Failed),
		logging.Duration(logging.FieldDuration, report.FinishedAt.Sub(report.StartedAt)))
	return report, err
}

//Personal.AI order the ending
