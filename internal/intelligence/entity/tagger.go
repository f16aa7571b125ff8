package entity

import (
	"context"
	"strings"

	"github.com/turtacn/LegisGraph/pkg/errors"
)

// ============================================================================
// Sentinel Errors
// ============================================================================

var (
	ErrTaggerUnavailable = errors.Sentinel(errors.ErrCodeTaggerUnavailable, "entity tagger unavailable")
	ErrTagLengthMismatch = errors.Sentinel(errors.ErrCodeTagLengthMismatch, "tagger returned a different number of tags than tokens")
	ErrTaggerFailed      = errors.Sentinel(errors.ErrCodeTaggerFailed, "entity tagger failed")
)

// BIO tag prefixes.  Any label may follow the prefix ("B-MISC", "I-ORG").
const (
	TagBegin   = "B-"
	TagInside  = "I-"
	TagOutside = "O"
)

// ============================================================================
// Sequence tagger (NER oracle)
// ============================================================================

// Tagger maps a tokenized sentence to one BIO tag per token.  Implementations
// must be stateless with respect to the caller: the same tokens yield the same
// tags.
type Tagger interface {
	Predict(ctx context.Context, tokens []string) ([]string, error)
}

// TaggerFunc adapts a function to the Tagger interface.
type TaggerFunc func(ctx context.Context, tokens []string) ([]string, error)

// Predict calls f.
func (f TaggerFunc) Predict(ctx context.Context, tokens []string) ([]string, error) {
	return f(ctx, tokens)
}

// MergeBIO groups tagged tokens into candidate entities.  A begin tag opens a
// new entity; an inside tag extends the most recent entity even across
// outside tags, and is dropped only when no entity has been opened yet.
func MergeBIO(tokens, tags []string) [][]string {
	var entities [][]string
	for i, tag := range tags {
		if i >= len(tokens) {
			break
		}
		switch {
		case strings.HasPrefix(tag, TagBegin):
			entities = append(entities, []string{tokens[i]})
		case strings.HasPrefix(tag, TagInside) && len(entities) > 0:
			last := len(entities) - 1
			entities[last] = append(entities[last], tokens[i])
		}
	}
	return entities
}

// ============================================================================
// Part-of-speech tagging
// ============================================================================

// TaggedToken is a word with its Penn Treebank part-of-speech tag.
type TaggedToken struct {
	Word string
	Tag  string
}

// POSTagger assigns part-of-speech tags to a tokenized sentence.
type POSTagger interface {
	Tag(tokens []string) []TaggedToken
}

//Personal.AI order the ending
