// Package entity recognizes institution names in legislative text and folds
// them, chunk by chunk, into the entity lists the co-occurrence graph is
// built from.
package entity

import (
	"strings"
	"sync"

	"github.com/jdkato/prose/v2"
)

// ============================================================================
// Sentence splitting and tokenization
// ============================================================================

// SplitSentences segments text with the punkt sentence model.  Blank input
// yields no sentences.
func SplitSentences(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	doc, err := prose.NewDocument(text,
		prose.WithTokenization(false),
		prose.WithTagging(false),
		prose.WithExtraction(false))
	if err != nil {
		return []string{strings.TrimSpace(text)}
	}
	var out []string
	for _, s := range doc.Sentences() {
		if t := strings.TrimSpace(s.Text); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// Tokenize splits one sentence into Penn Treebank style tokens.
func Tokenize(sentence string) []string {
	if strings.TrimSpace(sentence) == "" {
		return nil
	}
	doc, err := prose.NewDocument(sentence,
		prose.WithSegmentation(false),
		prose.WithTagging(false),
		prose.WithExtraction(false))
	if err != nil {
		return strings.Fields(sentence)
	}
	toks := doc.Tokens()
	out := make([]string, 0, len(toks))
	for _, t := range toks {
		out = append(out, t.Text)
	}
	return out
}

// problemTerms confuse the proper-noun grammar when tagged as prepositions
// or determiners inside institution names.
var problemTerms = map[string]bool{"or": true, "by": true, "under": true, "an": true}

// ReplaceProblemTerms returns a copy of tokens with every problem term
// replaced by "(", which breaks proper-noun runs at that point.
func ReplaceProblemTerms(tokens []string) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		if problemTerms[t] {
			out[i] = "("
		} else {
			out[i] = t
		}
	}
	return out
}

// ============================================================================
// Perceptron part-of-speech tagger
// ============================================================================

// ProsePOSTagger tags with the averaged-perceptron Penn Treebank model
// bundled with prose.  The model is loaded once, on first use.
type ProsePOSTagger struct {
	once  sync.Once
	model *prose.Model
}

// NewProsePOSTagger returns a tagger backed by the bundled English model.
func NewProsePOSTagger() *ProsePOSTagger {
	return &ProsePOSTagger{}
}

func (p *ProsePOSTagger) loadModel() {
	doc, err := prose.NewDocument("model",
		prose.WithSegmentation(false),
		prose.WithExtraction(false))
	if err == nil {
		p.model = doc.Model
	}
}

// Tag implements POSTagger.  Tokens are re-joined and tagged as one
// sentence; when the model's tokenizer splits a token further, the token
// takes the tag of its first piece.
func (p *ProsePOSTagger) Tag(tokens []string) []TaggedToken {
	if len(tokens) == 0 {
		return nil
	}
	p.once.Do(p.loadModel)

	opts := []prose.DocOpt{prose.WithSegmentation(false), prose.WithExtraction(false)}
	if p.model != nil {
		opts = append(opts, prose.UsingModel(p.model))
	}
	doc, err := prose.NewDocument(strings.Join(tokens, " "), opts...)
	if err != nil {
		return alignTags(tokens, nil)
	}
	return alignTags(tokens, doc.Tokens())
}

// untaggedTag is assigned to tokens the model output could not be aligned
// with.
const untaggedTag = "NN"

// alignTags maps model tokens back onto tokens by consuming model pieces
// until their text covers each token.
func alignTags(tokens []string, tagged []prose.Token) []TaggedToken {
	out := make([]TaggedToken, len(tokens))
	j := 0
	for i, tok := range tokens {
		out[i] = TaggedToken{Word: tok, Tag: untaggedTag}
		covered := 0
		for j < len(tagged) && covered < len(tok) {
			if covered == 0 {
				out[i].Tag = tagged[j].Tag
			}
			covered += len(tagged[j].Text)
			j++
		}
	}
	return out
}

//Personal.AI order the ending
