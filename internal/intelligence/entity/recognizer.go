package entity

import (
	"context"

	"github.com/turtacn/LegisGraph/pkg/errors"
)

// Recognizer finds candidate entity spans in one tokenized sentence.
type Recognizer interface {
	Recognize(ctx context.Context, tokens []string) ([][]string, error)
}

// RecognizerKind selects a Recognizer implementation.
type RecognizerKind string

const (
	RecognizerNER     RecognizerKind = "ner"
	RecognizerGrammar RecognizerKind = "grammar"
)

// ParseRecognizerKind validates a configured recognizer name.
func ParseRecognizerKind(s string) (RecognizerKind, error) {
	switch k := RecognizerKind(s); k {
	case RecognizerNER, RecognizerGrammar:
		return k, nil
	}
	return "", errors.New(errors.ErrCodeConfigInvalid, "unknown recognizer").WithDetail(s)
}

// ----------------------------------------------------------------------------
// Sequence-tagger recognizer
// ----------------------------------------------------------------------------

// NERRecognizer merges the BIO tags of a sequence tagger into spans.
type NERRecognizer struct {
	tagger Tagger
}

// NewNERRecognizer wraps tagger.
func NewNERRecognizer(tagger Tagger) *NERRecognizer {
	return &NERRecognizer{tagger: tagger}
}

// Recognize implements Recognizer.
func (r *NERRecognizer) Recognize(ctx context.Context, tokens []string) ([][]string, error) {
	if r.tagger == nil {
		return nil, ErrTaggerUnavailable
	}
	if len(tokens) == 0 {
		return nil, nil
	}
	tags, err := r.tagger.Predict(ctx, tokens)
	if err != nil {
		if errors.IsCode(err, errors.ErrCodeTaggerUnavailable) {
			return nil, err
		}
		return nil, errors.Wrap(err, errors.ErrCodeTaggerFailed, "predict tags")
	}
	if len(tags) != len(tokens) {
		return nil, ErrTagLengthMismatch.WithDetailf("tokens=%d tags=%d", len(tokens), len(tags))
	}
	return MergeBIO(tokens, tags), nil
}

// ----------------------------------------------------------------------------
// Chunk-grammar recognizer
// ----------------------------------------------------------------------------

// GrammarRecognizer tags parts of speech and extracts institution chunks.
// Problem terms are replaced before tagging.
type GrammarRecognizer struct {
	pos     POSTagger
	grammar *ChunkGrammar
	label   string
}

// NewGrammarRecognizer builds a GrammarRecognizer.  Nil arguments select
// the perceptron tagger and DefaultInstitutionGrammar.
func NewGrammarRecognizer(pos POSTagger, grammar *ChunkGrammar) *GrammarRecognizer {
	if pos == nil {
		pos = NewProsePOSTagger()
	}
	if grammar == nil {
		grammar = MustParseChunkGrammar(DefaultInstitutionGrammar)
	}
	return &GrammarRecognizer{pos: pos, grammar: grammar, label: InstitutionLabel}
}

// Recognize implements Recognizer.
func (r *GrammarRecognizer) Recognize(_ context.Context, tokens []string) ([][]string, error) {
	if len(tokens) == 0 {
		return nil, nil
	}
	tagged := r.pos.Tag(ReplaceProblemTerms(tokens))
	return r.grammar.Spans(tagged, r.label), nil
}

//Personal.AI order the ending
