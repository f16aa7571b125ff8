// Package pipeline runs documents through parsing, entity extraction and
// graph construction, joins auxiliary attributes and hands the results to
// the optional persistence, search, cache and messaging backends.
package pipeline

import (
	"context"
	"time"

	"github.com/turtacn/LegisGraph/internal/domain/legislation"
	"github.com/turtacn/LegisGraph/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/LegisGraph/internal/intelligence/cograph"
	"github.com/turtacn/LegisGraph/internal/intelligence/entity"
	"github.com/turtacn/LegisGraph/internal/intelligence/jurisdiction"
)

// Stage names used in logs and metrics.
const (
	StageParse    = "parse"
	StageExtract  = "extract"
	StageGraph    = "graph"
	StagePersist  = "persist"
	StageAuxJoin  = "aux_join"
	StagePublish  = "publish"
	StageAnalysis = "analysis"
)

// Metrics receives pipeline telemetry.
type Metrics interface {
	ObserveStage(stage string, d time.Duration)
	DocumentProcessed(status legislation.Status)
	ParseFailed()
	EntitiesExtracted(n int)
	GraphDensity(v float64)
}

type nopMetrics struct{}

func (nopMetrics) ObserveStage(string, time.Duration)    {}
func (nopMetrics) DocumentProcessed(legislation.Status) {}
func (nopMetrics) ParseFailed()                         {}
func (nopMetrics) EntitiesExtracted(int)                {}
func (nopMetrics) GraphDensity(float64)                 {}

// NopMetrics discards all telemetry.
func NopMetrics() Metrics { return nopMetrics{} }

// Analysis is everything computed for one document.
type Analysis struct {
	Rows           []legislation.Row
	Chunks         []string
	Extraction     *entity.Extraction
	Classification cograph.Classification
	Density        cograph.DensityStats
}

// Analyzer parses a document, extracts its entities and computes both
// statistic variants.
type Analyzer struct {
	jur       jurisdiction.Jurisdiction
	extractor *entity.Extractor
	logger    logging.Logger
	metrics   Metrics
}

// NewAnalyzer wires an Analyzer from a jurisdiction and a recognizer.
func NewAnalyzer(jur jurisdiction.Jurisdiction, recognizer entity.Recognizer, logger logging.Logger, metrics Metrics) *Analyzer {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if metrics == nil {
		metrics = NopMetrics()
	}
	return &Analyzer{
		jur:       jur,
		extractor: entity.NewExtractor(recognizer, jur.Lexicon(), logger.Named("entity")),
		logger:    logger,
		metrics:   metrics,
	}
}

// Jurisdiction returns the analyzer's jurisdiction.
func (a *Analyzer) Jurisdiction() jurisdiction.Jurisdiction { return a.jur }

// Parse returns the document's rows, parsing the HTML unless rows are
// already attached.  The rows are stored on doc.
func (a *Analyzer) Parse(doc *legislation.Document) (rows []legislation.Row, err error) {
	start := time.Now()
	defer func() {
		a.metrics.ObserveStage(StageParse, time.Since(start))
		logging.LogStage(a.logger, StageParse, doc.ID, start, err)
	}()

	if len(doc.Parsed) > 0 {
		return doc.Parsed, nil
	}
	rows, err = a.jur.Parse(doc)
	if err != nil {
		return nil, err
	}
	doc.Parsed = rows
	return rows, nil
}

// Analyze runs the full per-document computation.
func (a *Analyzer) Analyze(ctx context.Context, doc *legislation.Document) (*Analysis, error) {
	rows, err := a.Parse(doc)
	if err != nil {
		return nil, err
	}
	chunks := a.jur.Chunks(doc)

	start := time.Now()
	ext, err := a.extractor.Extract(ctx, chunks)
	a.metrics.ObserveStage(StageExtract, time.Since(start))
	logging.LogStage(a.logger, StageExtract, doc.ID, start, err)
	if err != nil {
		return nil, err
	}
	a.metrics.EntitiesExtracted(ext.Count())

	start = time.Now()
	out := &Analysis{
		Rows:           rows,
		Chunks:         chunks,
		Extraction:     ext,
		Classification: cograph.Classify(ext.Chunks),
		Density:        cograph.Density(ext.Chunks),
	}
	a.metrics.ObserveStage(StageGraph, time.Since(start))
	if out.Density.Density != nil {
		a.metrics.GraphDensity(*out.Density.Density)
	}
	return out, nil
}

//Personal.AI order the ending
