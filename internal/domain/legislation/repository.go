package legislation

import (
	"context"
)

// DocumentRepository persists documents and their parsed rows.
type DocumentRepository interface {
	SaveDocument(ctx context.Context, doc *Document) error
	SaveRows(ctx context.Context, documentID string, rows []Row) error
	GetDocument(ctx context.Context, id string) (*Document, error)
	GetRows(ctx context.Context, documentID string) ([]Row, error)
}

// ResultRepository persists per-document graph results.
type ResultRepository interface {
	SaveResult(ctx context.Context, result *Result) error
	GetResult(ctx context.Context, documentID string) (*Result, error)
	ListResults(ctx context.Context, filter ResultFilter) ([]*Result, int64, error)
}

// GraphStore keeps the co-occurrence edges of every document in a graph
// database.
type GraphStore interface {
	ReplaceGraph(ctx context.Context, documentID string, edges []Edge) error
	Neighbors(ctx context.Context, entity string, limit int) ([]EntityNeighbor, error)
}

// GraphArchive stores the serialized adjacency graph of one analyzed unit.
type GraphArchive interface {
	PutAdjacency(ctx context.Context, key string, data []byte) error
	GetAdjacency(ctx context.Context, key string) ([]byte, error)
}

// SectionIndexer indexes parsed rows for full-text search.
type SectionIndexer interface {
	IndexRows(ctx context.Context, documentID string, rows []Row) error
	Search(ctx context.Context, query string, limit int) ([]SectionHit, error)
}

// ResultCache caches results keyed by a content hash of the source document.
type ResultCache interface {
	GetResult(ctx context.Context, key string) (*Result, error)
	SetResult(ctx context.Context, key string, result *Result) error
}

// FailedParseQueue receives documents whose mandatory top-level header never
// matched, for manual intervention or retry.
type FailedParseQueue interface {
	PublishFailed(ctx context.Context, doc *Document, reason error) error
}

// ResultPublisher announces finished results to downstream consumers.
type ResultPublisher interface {
	PublishResult(ctx context.Context, result *Result) error
}

//Personal.AI order the ending
