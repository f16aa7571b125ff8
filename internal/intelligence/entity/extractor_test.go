package entity

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/LegisGraph/internal/testutil"
	"github.com/turtacn/LegisGraph/pkg/errors"
)

func TestExtractor_GrammarPathResolvesStubs(t *testing.T) {
	x := NewExtractor(NewGrammarRecognizer(heuristicPOSTagger{}, nil), USLexicon(), testutil.NewMockLogger())
	chunks := []string{
		"The Department of Defense shall consult the Secretary of State.",
		"",
		"The Department shall report to the Congress.",
	}

	got, err := x.Extract(context.Background(), chunks)
	require.NoError(t, err)

	assert.Equal(t, [][]string{
		{"department defense", "secretary state"},
		{},
		{"department defense", "congress"},
	}, got.Chunks)
	assert.Equal(t, []string{"department defense", "secretary state", "department defense", "congress"}, got.All)
	assert.Equal(t, 4, got.Count())
}

func TestExtractor_NERPath(t *testing.T) {
	tagger := TaggerFunc(func(_ context.Context, tokens []string) ([]string, error) {
		tags := make([]string, len(tokens))
		for i, tok := range tokens {
			switch tok {
			case "Board":
				tags[i] = "B-MISC"
			case "of", "Directors":
				tags[i] = "I-MISC"
			default:
				tags[i] = TagOutside
			}
		}
		return tags, nil
	})
	x := NewExtractor(NewNERRecognizer(tagger), USLexicon(), nil)

	got, err := x.Extract(context.Background(), []string{"The Board of Directors met. The Board adjourned."})
	require.NoError(t, err)
	// The bare "board" resolves to the longer name seen earlier.
	assert.Equal(t, [][]string{{"board directors", "board directors"}}, got.Chunks)
}

func TestExtractor_SplitsRepeatedTerms(t *testing.T) {
	rec := recognizerFunc(func(context.Context, []string) ([][]string, error) {
		return [][]string{{"Department", "of", "Defense", "Department", "of", "Energy"}}, nil
	})
	x := NewExtractor(rec, USLexicon(), nil)

	got, err := x.Extract(context.Background(), []string{"x"})
	require.NoError(t, err)
	assert.Equal(t, []string{"department defense", "department energy"}, got.All)
}

func TestExtractor_StubIgnoresSplitSingleWord(t *testing.T) {
	x := NewExtractor(nil, USLexicon(), nil)
	acc := NewAccumulator()

	acc.StartChunk()
	x.Fold(acc, []string{"Department", "of", "Defense", "Department"})
	acc.StartChunk()
	x.Fold(acc, []string{"Department"})

	got := acc.Result()
	assert.Equal(t, [][]string{{"department defense", "department"}, {"department defense"}}, got.Chunks)
}

func TestNERRecognizer_Errors(t *testing.T) {
	ctx := context.Background()
	tokens := []string{"a", "b"}

	_, err := NewNERRecognizer(nil).Recognize(ctx, tokens)
	assert.ErrorIs(t, err, ErrTaggerUnavailable)

	short := TaggerFunc(func(context.Context, []string) ([]string, error) { return []string{"O"}, nil })
	_, err = NewNERRecognizer(short).Recognize(ctx, tokens)
	assert.ErrorIs(t, err, ErrTagLengthMismatch)
	assert.True(t, errors.IsDataError(err))

	failing := TaggerFunc(func(context.Context, []string) ([]string, error) { return nil, stderrors.New("boom") })
	_, err = NewNERRecognizer(failing).Recognize(ctx, tokens)
	assert.True(t, errors.IsCode(err, errors.ErrCodeTaggerFailed))

	spans, err := NewNERRecognizer(short).Recognize(ctx, nil)
	assert.NoError(t, err)
	assert.Nil(t, spans)
}

func TestExtractor_StopsOnRecognizerErrorAndCancel(t *testing.T) {
	rec := recognizerFunc(func(context.Context, []string) ([][]string, error) {
		return nil, ErrTaggerUnavailable
	})
	x := NewExtractor(rec, USLexicon(), nil)

	_, err := x.Extract(context.Background(), []string{"Some text."})
	assert.ErrorIs(t, err, ErrTaggerUnavailable)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = x.Extract(ctx, []string{"Some text."})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseRecognizerKind(t *testing.T) {
	k, err := ParseRecognizerKind("grammar")
	require.NoError(t, err)
	assert.Equal(t, RecognizerGrammar, k)

	_, err = ParseRecognizerKind("lstm")
	assert.True(t, errors.IsConfigurationError(err))
}

type recognizerFunc func(ctx context.Context, tokens []string) ([][]string, error)

func (f recognizerFunc) Recognize(ctx context.Context, tokens []string) ([][]string, error) {
	return f(ctx, tokens)
}

//Personal.AI order the ending
