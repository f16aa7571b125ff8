package pipeline

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/LegisGraph/internal/domain/legislation"
	"github.com/turtacn/LegisGraph/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/LegisGraph/internal/intelligence/cograph"
	"github.com/turtacn/LegisGraph/pkg/errors"
)

// ChapterVersion is one year's text of a code chapter.
type ChapterVersion struct {
	Title   string
	Chapter string
	Year    int
	Doc     *legislation.Document
}

// ID is the chapter-year identifier, e.g. "chapter5_2010".
func (v ChapterVersion) ID() string {
	return fmt.Sprintf("%s_%d", v.Chapter, v.Year)
}

var reChapterFile = regexp.MustCompile(`^(.*?)_([0-9]{4})`)

// ParseChapterFile splits a chapter file name such as "chapter5_2010.json"
// into chapter and year.
func ParseChapterFile(name string) (chapter string, year int, ok bool) {
	m := reChapterFile.FindStringSubmatch(name)
	if m == nil {
		return "", 0, false
	}
	year, err := strconv.Atoi(m[2])
	if err != nil {
		return "", 0, false
	}
	return m[1], year, true
}

// ConsolidatedArchiveKey is the archive object key of a chapter-year graph.
func ConsolidatedArchiveKey(title, chapterYear string) string {
	return "consolidated/" + title + "/" + chapterYear + ".json"
}

// ConsolidatedService processes chapter-year versions of a consolidated
// code.
type ConsolidatedService struct {
	analyzer *Analyzer
	backends Backends
	logger   logging.Logger
	metrics  Metrics
	now      func() time.Time
}

// NewConsolidatedService wires a ConsolidatedService.  Only the Results and
// Archive backends are used.
func NewConsolidatedService(analyzer *Analyzer, backends Backends, logger logging.Logger, metrics Metrics) *ConsolidatedService {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if metrics == nil {
		metrics = NopMetrics()
	}
	return &ConsolidatedService{
		analyzer: analyzer,
		backends: backends,
		logger:   logger.Named("consolidated"),
		metrics:  metrics,
		now:      time.Now,
	}
}

// computed is a chapter-year whose statistics may be reused by a later year
// with identical sections.
type computed struct {
	year      int
	sections  []legislation.CodeSection
	stats     cograph.Classification
	adjacency []byte
}

// Run analyzes versions in (title, chapter, year) order.  A version whose
// sections equal those of an earlier year of the same chapter reuses the
// latest such year's statistics and graph.  Versions without sections are
// skipped.  A failing version is recorded and the run continues.
func (s *ConsolidatedService) Run(ctx context.Context, versions []ChapterVersion) (*BatchReport, error) {
	sorted := append([]ChapterVersion(nil), versions...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Title != b.Title {
			return a.Title < b.Title
		}
		if a.Chapter != b.Chapter {
			return a.Chapter < b.Chapter
		}
		return a.Year < b.Year
	})

	report := &BatchReport{RunID: uuid.NewString(), StartedAt: s.now().UTC(), Total: len(sorted)}
	log := s.logger.With(logging.String(logging.FieldRunID, report.RunID))
	history := make(map[string][]computed)

	for _, v := range sorted {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if v.Doc == nil || len(v.Doc.Sections) == 0 {
			report.count(legislation.StatusSkipped)
			continue
		}
		key := v.Title + "/" + v.Chapter
		res, entry, err := s.runVersion(ctx, v, history[key])
		if err != nil {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			report.Failed++
			report.Errors = append(report.Errors, DocumentError{DocumentID: v.ID(), Error: err.Error(), Code: errors.GetCode(err).String()})
			log.WithError(err).Error("chapter version failed", logging.DocID(v.ID()))
			continue
		}
		history[key] = append(history[key], entry)
		report.count(res.Status)
		report.Results = append(report.Results, res)
	}

	report.FinishedAt = s.now().UTC()
	log.Info("consolidated run finished",
		logging.Int("analyzed", report.Analyzed),
		logging.Int("skipped", report.Skipped),
		logging.Int("failed", report.Failed))
	return report, nil
}

func (s *ConsolidatedService) runVersion(ctx context.Context, v ChapterVersion, earlier []computed) (*legislation.Result, computed, error) {
	entry := computed{year: v.Year, sections: v.Doc.Sections}
	reused := false
	for i := len(earlier) - 1; i >= 0; i-- {
		if legislation.SectionsEqual(earlier[i].sections, v.Doc.Sections) {
			entry.stats = earlier[i].stats
			entry.adjacency = earlier[i].adjacency
			reused = true
			s.logger.Debug("chapter unchanged, statistics reused",
				logging.DocID(v.ID()), logging.Int("from_year", earlier[i].year))
			break
		}
	}

	if !reused {
		a, err := s.analyzer.Analyze(ctx, v.Doc)
		if err != nil {
			return nil, entry, err
		}
		entry.stats = a.Classification
		if entry.adjacency, err = cograph.MarshalAdjacency(a.Classification.Graph); err != nil {
			return nil, entry, err
		}
	}

	res := NewResult(v.Doc, &Analysis{Classification: entry.stats}, legislation.VariantClassification, legislation.StatusAnalyzed, s.now())
	res.DocumentID = v.ID()

	if s.backends.Archive != nil {
		if err := s.backends.Archive.PutAdjacency(ctx, ConsolidatedArchiveKey(v.Title, v.ID()), entry.adjacency); err != nil {
			return nil, entry, err
		}
	}
	if s.backends.Results != nil {
		if err := s.backends.Results.SaveResult(ctx, res); err != nil {
			return nil, entry, err
		}
	}
	s.metrics.DocumentProcessed(res.Status)
	return res, entry, nil
}

//Personal.AI order the ending
