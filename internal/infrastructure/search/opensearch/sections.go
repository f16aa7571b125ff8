package opensearch

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/turtacn/LegisGraph/internal/domain/legislation"
	"github.com/turtacn/LegisGraph/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/LegisGraph/pkg/errors"
)

// DefaultSectionIndex is the index name used when none is configured.
const DefaultSectionIndex = "legisgraph-sections"

const (
	defaultSearchLimit = 10
	maxSearchLimit     = 100
)

// sectionDocument is the indexed form of one parsed row.
type sectionDocument struct {
	DocumentID    string    `json:"document_id"`
	Position      int       `json:"position"`
	Level         int       `json:"level"`
	Label         string    `json:"header_label"`
	SectionNumber string    `json:"section_number"`
	FieldType     string    `json:"field_type"`
	Text          string    `json:"body_text"`
	IndexedAt     time.Time `json:"indexed_at"`
}

// SectionIndex implements legislation.SectionIndexer over one index.
type SectionIndex struct {
	indexer  *Indexer
	searcher *Searcher
	index    string
	logger   logging.Logger
	now      func() time.Time
}

var _ legislation.SectionIndexer = (*SectionIndex)(nil)

// NewSectionIndex binds the indexer and searcher to index.
func NewSectionIndex(indexer *Indexer, searcher *Searcher, index string, logger logging.Logger) *SectionIndex {
	if index == "" {
		index = DefaultSectionIndex
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &SectionIndex{
		indexer:  indexer,
		searcher: searcher,
		index:    index,
		logger:   logger,
		now:      time.Now,
	}
}

// EnsureIndex creates the section index with its mapping if absent.
func (s *SectionIndex) EnsureIndex(ctx context.Context) error {
	return s.indexer.EnsureIndex(ctx, s.index, SectionIndexMapping())
}

// IndexRows replaces the indexed rows of a document.  Rows with empty text
// are skipped.
func (s *SectionIndex) IndexRows(ctx context.Context, documentID string, rows []legislation.Row) error {
	if documentID == "" {
		return errors.InvalidParam("document id is required")
	}
	if _, err := s.indexer.DeleteByTerm(ctx, s.index, "document_id", documentID); err != nil {
		return err
	}

	now := s.now().UTC()
	docs := make([]BulkDocument, 0, len(rows))
	for i, row := range rows {
		if strings.TrimSpace(row.Text) == "" {
			continue
		}
		docs = append(docs, BulkDocument{
			ID: sectionDocID(documentID, i),
			Source: sectionDocument{
				DocumentID:    documentID,
				Position:      i,
				Level:         row.Level,
				Label:         row.Label,
				SectionNumber: row.SectionNumber,
				FieldType:     string(row.FieldType),
				Text:          row.Text,
				IndexedAt:     now,
			},
		})
	}
	if len(docs) == 0 {
		return nil
	}

	res, err := s.indexer.BulkIndex(ctx, s.index, docs)
	if err != nil {
		return err
	}
	if res.Failed > 0 {
		first := res.Errors[0]
		return ErrDocumentIndexFailed.WithDetail(fmt.Sprintf("%s: %d of %d rows failed, first %s: %s",
			documentID, res.Failed, len(docs), first.ErrorType, first.Reason))
	}
	s.logger.Debug("Sections indexed", logging.DocID(documentID), logging.Int("rows", res.Succeeded))
	return nil
}

// Search matches query against body text and header labels.
func (s *SectionIndex) Search(ctx context.Context, query string, limit int) ([]legislation.SectionHit, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errors.InvalidParam("query is required")
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	res, err := s.searcher.Search(ctx, SearchRequest{
		IndexName: s.index,
		Query:     query,
		Fields:    []string{"body_text", "header_label^2"},
		Size:      limit,
	})
	if err != nil {
		return nil, err
	}

	hits := make([]legislation.SectionHit, 0, len(res.Hits))
	for _, h := range res.Hits {
		var doc sectionDocument
		if err := json.Unmarshal(h.Source, &doc); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode section hit").WithDetail(h.ID)
		}
		hits = append(hits, legislation.SectionHit{
			DocumentID:    doc.DocumentID,
			SectionNumber: doc.SectionNumber,
			Label:         doc.Label,
			Text:          doc.Text,
			Score:         h.Score,
		})
	}
	return hits, nil
}

func sectionDocID(documentID string, position int) string {
	return fmt.Sprintf("%s#%d", documentID, position)
}

//Personal.AI order the ending
