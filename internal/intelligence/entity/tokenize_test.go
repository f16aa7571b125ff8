package entity

import (
	"testing"

	"github.com/jdkato/prose/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitSentences(t *testing.T) {
	got := SplitSentences("The Secretary shall act. The Board may review it.")
	assert.Equal(t, []string{"The Secretary shall act.", "The Board may review it."}, got)

	assert.Nil(t, SplitSentences("  "))
}

func TestTokenize(t *testing.T) {
	assert.Equal(t,
		[]string{"The", "Secretary", "of", "Defense", "shall", "report", "."},
		Tokenize("The Secretary of Defense shall report."))

	assert.Nil(t, Tokenize(" "))
}

func TestAlignTags(t *testing.T) {
	cases := []struct {
		name   string
		tokens []string
		tagged []prose.Token
		want   []string
	}{
		{
			name:   "one to one",
			tokens: []string{"the", "Board"},
			tagged: []prose.Token{{Text: "the", Tag: "DT"}, {Text: "Board", Tag: "NNP"}},
			want:   []string{"DT", "NNP"},
		},
		{
			name:   "token split by the model takes its first tag",
			tokens: []string{"Department's", "budget"},
			tagged: []prose.Token{{Text: "Department", Tag: "NNP"}, {Text: "'s", Tag: "POS"}, {Text: "budget", Tag: "NN"}},
			want:   []string{"NNP", "NN"},
		},
		{
			name:   "missing model output",
			tokens: []string{"Board", "of", "Review"},
			tagged: []prose.Token{{Text: "Board", Tag: "NNP"}},
			want:   []string{"NNP", untaggedTag, untaggedTag},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := alignTags(tc.tokens, tc.tagged)
			require.Len(t, out, len(tc.tokens))
			for i, tt := range out {
				assert.Equal(t, tc.tokens[i], tt.Word)
				assert.Equal(t, tc.want[i], tt.Tag, tt.Word)
			}
		})
	}
}

func TestProsePOSTagger_Tag(t *testing.T) {
	tagger := NewProsePOSTagger()
	assert.Nil(t, tagger.Tag(nil))

	tokens := []string{"The", "Secretary", "of", "Defense", "shall", "report", "."}
	out := tagger.Tag(tokens)
	require.Len(t, out, len(tokens))
	for i, tt := range out {
		assert.Equal(t, tokens[i], tt.Word)
	}
	assert.Equal(t, "IN", out[2].Tag)
	assert.Equal(t, "MD", out[4].Tag)

	// second call reuses the cached model
	assert.Len(t, tagger.Tag([]string{"Board"}), 1)
}

func TestReplaceProblemTerms(t *testing.T) {
	in := []string{"Office", "of", "Management", "or", "Board", "under", "Or"}
	out := ReplaceProblemTerms(in)

	assert.Equal(t, []string{"Office", "of", "Management", "(", "Board", "(", "Or"}, out)
	assert.Equal(t, "or", in[3], "input is not modified")
}

//Personal.AI order the ending
