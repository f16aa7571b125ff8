package entity

import (
	"context"
	"time"

	"github.com/turtacn/LegisGraph/internal/infrastructure/monitoring/logging"
)

// Extraction is the result of folding a document's chunks.
type Extraction struct {
	// Chunks holds the accepted entities of each chunk in order; a chunk
	// without entities has an empty list.
	Chunks [][]string `json:"chunks"`
	// All is every accepted entity of the document in processing order.
	All []string `json:"all"`
}

// Count returns the number of accepted entity occurrences.
func (e *Extraction) Count() int {
	if e == nil {
		return 0
	}
	return len(e.All)
}

// Accumulator is the state threaded through the fold.  Stub resolution
// consults All, so entities must be added strictly in processing order.
type Accumulator struct {
	chunks [][]string
	all    []string
}

// NewAccumulator returns an empty Accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

// StartChunk opens a new, empty chunk.
func (a *Accumulator) StartChunk() {
	a.chunks = append(a.chunks, []string{})
}

// Add appends entity to the open chunk and to the global list.
func (a *Accumulator) Add(entity string) {
	if len(a.chunks) == 0 {
		a.StartChunk()
	}
	last := len(a.chunks) - 1
	a.chunks[last] = append(a.chunks[last], entity)
	a.all = append(a.all, entity)
}

// Global returns the entities accumulated so far.
func (a *Accumulator) Global() []string {
	return a.all
}

// Result snapshots the accumulator.
func (a *Accumulator) Result() *Extraction {
	chunks := make([][]string, len(a.chunks))
	for i, c := range a.chunks {
		chunks[i] = append([]string{}, c...)
	}
	return &Extraction{Chunks: chunks, All: append([]string{}, a.all...)}
}

// ============================================================================
// Extractor
// ============================================================================

// Extractor turns chunk texts into entity lists: sentences are split and
// tokenized, spans are found by the Recognizer, and each span goes through
// the Lexicon filter, stub resolution and repeat splitting before it is
// added to the accumulator.
type Extractor struct {
	recognizer Recognizer
	lexicon    *Lexicon
	logger     logging.Logger
}

// NewExtractor wires an Extractor.  A nil logger discards output.
func NewExtractor(recognizer Recognizer, lexicon *Lexicon, logger logging.Logger) *Extractor {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Extractor{recognizer: recognizer, lexicon: lexicon, logger: logger}
}

// Extract folds chunks in order.  A recognizer error aborts the document.
func (x *Extractor) Extract(ctx context.Context, chunks []string) (*Extraction, error) {
	start := time.Now()
	acc := NewAccumulator()
	for _, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		acc.StartChunk()
		for _, sentence := range SplitSentences(chunk) {
			spans, err := x.recognizer.Recognize(ctx, Tokenize(sentence))
			if err != nil {
				return nil, err
			}
			for _, span := range spans {
				x.Fold(acc, span)
			}
		}
	}
	out := acc.Result()
	x.logger.Debug("entities extracted",
		logging.Int("chunks", len(out.Chunks)),
		logging.Int("entities", out.Count()),
		logging.Duration(logging.FieldDuration, time.Since(start)))
	return out, nil
}

// Fold applies the filter chain to one candidate span and adds what
// survives to acc.
func (x *Extractor) Fold(acc *Accumulator, span []string) {
	entity, ok := x.lexicon.Process(span)
	if !ok {
		return
	}
	entity = x.lexicon.ResolveStub(entity, acc.Global())
	for _, part := range x.lexicon.SplitRepeated(entity) {
		acc.Add(part)
	}
}

//Personal.AI order the ending
