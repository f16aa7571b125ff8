package entity

import (
	"strings"
	"testing"
	"unicode"

	"github.com/stretchr/testify/assert"
)

// heuristicPOSTagger tags tokens from closed-class word lists and
// capitalization so grammar tests do not depend on the perceptron model.
type heuristicPOSTagger struct{}

func (heuristicPOSTagger) Tag(tokens []string) []TaggedToken {
	out := make([]TaggedToken, len(tokens))
	for i, tok := range tokens {
		out[i] = TaggedToken{Word: tok, Tag: tagWord(tok)}
	}
	return out
}

var (
	determiners  = setOf("the", "a", "an", "this", "that", "these", "those", "each", "every", "any", "all", "some", "no", "such")
	conjunctions = setOf("and", "or", "but", "nor", "&")
	prepositions = setOf("of", "in", "on", "for", "with", "by", "under", "from", "at", "as", "into", "within", "between", "upon")
	modals       = setOf("shall", "may", "must", "will", "should", "can")
)

func tagWord(tok string) string {
	lower := strings.ToLower(tok)
	switch {
	case tok == "'s" || tok == "'":
		return "POS"
	case tok == "," || tok == "." || tok == ":" || tok == "(" || tok == ")" || tok == "--":
		return tok
	case lower == "to":
		return "TO"
	case determiners[lower]:
		return "DT"
	case conjunctions[lower]:
		return "CC"
	case prepositions[lower]:
		return "IN"
	case modals[lower]:
		return "MD"
	}
	first := []rune(tok)[0]
	switch {
	case unicode.IsDigit(first):
		return "CD"
	case unicode.IsUpper(first) && len(tok) > 3 && strings.HasSuffix(tok, "s") && strings.ToUpper(tok) != tok:
		return "NNPS"
	case unicode.IsUpper(first):
		return "NNP"
	case strings.HasSuffix(lower, "s") && !strings.HasSuffix(lower, "ss"):
		return "NNS"
	}
	return "NN"
}

func TestHeuristicPOSTagger(t *testing.T) {
	tokens := []string{"The", "Department", "of", "Defense", "and", "the", "Army", "'s", "3", "funds", ",", "Services", "to", "Congress"}
	want := []string{"DT", "NNP", "IN", "NNP", "CC", "DT", "NNP", "POS", "CD", "NNS", ",", "NNPS", "TO", "NNP"}

	tagged := heuristicPOSTagger{}.Tag(tokens)
	got := make([]string, len(tagged))
	for i, tt := range tagged {
		assert.Equal(t, tokens[i], tt.Word)
		got[i] = tt.Tag
	}
	assert.Equal(t, want, got)
}

//Personal.AI order the ending
