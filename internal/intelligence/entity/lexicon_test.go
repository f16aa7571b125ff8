package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnglishStopwords(t *testing.T) {
	words := EnglishStopwords()
	assert.Len(t, words, 179)
	assert.Contains(t, words, "of")
	assert.Contains(t, words, "wouldn't")
}

func TestLexicon_Process(t *testing.T) {
	lex := USLexicon()
	cases := []struct {
		name   string
		tokens []string
		want   string
		ok     bool
	}{
		{"whitelisted token", []string{"Department", "of", "Defense"}, "department defense", true},
		{"whole name whitelisted", []string{"United", "Nations"}, "united nations", true},
		{"edge punctuation stripped", []string{"``", "Office", "''", "Management,"}, "office management", true},
		{"blacklisted token", []string{"Department", "of", "Defense", "Act"}, "", false},
		{"no whitelisted token", []string{"Smith", "Industries"}, "", false},
		{"only stopwords", []string{"the", "of"}, "", false},
		{"only punctuation", []string{",", "--"}, "", false},
		{"unicode folded", []string{"ＯＦＦＩＣＥ"}, "office", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := lex.Process(tc.tokens)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestLexicon_ProcessRequiresLetter(t *testing.T) {
	lex := NewLexicon([]string{"42"}, nil, nil)
	_, ok := lex.Process([]string{"42"})
	assert.False(t, ok)
}

func TestLexicon_ResolveStub(t *testing.T) {
	lex := USLexicon()

	assert.Equal(t, "Department of Defense",
		lex.ResolveStub("Department", []string{"Department of Defense"}))

	global := []string{"department energy", "office management", "department defense"}
	assert.Equal(t, "department defense", lex.ResolveStub("department", global), "last match wins")

	assert.Equal(t, "state", lex.ResolveStub("state", []string{"state department"}), "exempt term")
	assert.Equal(t, "department", lex.ResolveStub("department", nil), "empty global list")
	assert.Equal(t, "army", lex.ResolveStub("army", []string{"army corps"}), "not whitelisted")
	assert.Equal(t, "council", lex.ResolveStub("council", global), "no longer name")
	assert.Equal(t, "department defense", lex.ResolveStub("department defense", global), "multi-word")

	cases := []struct {
		name   string
		global []string
		want   string
	}{
		{"bare stub after longer entity", []string{"department defense", "department"}, "department defense"},
		{"bare stub before longer entity", []string{"department", "department defense"}, "department defense"},
		{"only the bare stub", []string{"department"}, "department"},
		{"only single words", []string{"department", "office"}, "department"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, lex.ResolveStub("department", tc.global))
		})
	}
}

func TestLexicon_SplitRepeated(t *testing.T) {
	lex := USLexicon()

	assert.Equal(t, []string{"department defense", "department energy"},
		lex.SplitRepeated("department defense department energy"))
	assert.Equal(t, []string{"office management budget"},
		lex.SplitRepeated("office management budget"))
	assert.Equal(t, []string{"defense defense department"},
		lex.SplitRepeated("defense defense department"), "repeat is not whitelisted")
	assert.Equal(t, []string{"national", "office", "department", "office", "department"},
		lex.SplitRepeated("national office department office department"), "every repeated term cuts")
}

//Personal.AI order the ending
