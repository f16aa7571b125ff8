package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/LegisGraph/pkg/errors"
)

func tag(pairs ...string) []TaggedToken {
	out := make([]TaggedToken, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, TaggedToken{Word: pairs[i], Tag: pairs[i+1]})
	}
	return out
}

func TestParseChunkGrammar_Errors(t *testing.T) {
	cases := map[string]string{
		"empty":             "",
		"rule before label": "{<NN>}",
		"not braced":        "NP:\n <NN>",
		"bad regex":         "NP:\n {<NN}",
		"empty match":       "NP:\n {<DT>*}",
		"stage no rules":    "NP:\n# nothing",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			g, err := ParseChunkGrammar(src)
			require.Error(t, err)
			assert.Nil(t, g)
			assert.True(t, errors.IsCode(err, errors.ErrCodeChunkGrammarInvalid), "got %v", err)
			assert.True(t, errors.IsConfigurationError(err))
		})
	}
}

func TestChunkGrammar_InlineLabel(t *testing.T) {
	g, err := ParseChunkGrammar("NP: {<DT>?<NN>}")
	require.NoError(t, err)

	chunks := g.Parse(tag("the", "DT", "board", "NN", "met", "VB", "a", "DT", "quorum", "NN"))
	require.Len(t, chunks, 2)
	assert.Equal(t, "NP", chunks[0].Label)
	assert.Equal(t, []string{"the", "board"}, chunks[0].Words())
	assert.Equal(t, []string{"a", "quorum"}, chunks[1].Words())
}

func TestChunkGrammar_InstitutionChinkSplits(t *testing.T) {
	g := MustParseChunkGrammar(DefaultInstitutionGrammar)
	tagged := tag(
		"The", "DT", "Department", "NNP", "of", "IN", "Defense", "NNP",
		"and", "CC", "the", "DT", "Army", "NNP", "shall", "MD",
	)

	spans := g.Spans(tagged, InstitutionLabel)
	assert.Equal(t, [][]string{{"Department", "of", "Defense"}, {"Army"}}, spans)
}

func TestChunkGrammar_DotMatchesAnyTagCharacter(t *testing.T) {
	g := MustParseChunkGrammar("N:\n {<NN.*>+}")
	spans := g.Spans(tag("a", "DT", "Board", "NNP", "Members", "NNPS", "x", "VB"), "N")
	assert.Equal(t, [][]string{{"Board", "Members"}}, spans)
}

func TestChunkGrammar_StagesDoNotRechunk(t *testing.T) {
	g := MustParseChunkGrammar("A:\n {<NNP>}\nB:\n {<NNP><NN>}\n {<NN>}")
	chunks := g.Parse(tag("Board", "NNP", "meeting", "NN"))
	require.Len(t, chunks, 2)
	assert.Equal(t, "A", chunks[0].Label)
	assert.Equal(t, "B", chunks[1].Label)
	assert.Equal(t, []string{"meeting"}, chunks[1].Words())
}

func TestMustParseChunkGrammar_Panics(t *testing.T) {
	assert.Panics(t, func() { MustParseChunkGrammar("") })
}

//Personal.AI order the ending
