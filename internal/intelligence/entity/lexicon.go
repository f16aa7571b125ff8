package entity

import (
	_ "embed"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

//go:embed data/stopwords_en.txt
var englishStopwords string

// asciiPunctuation is the set of characters stripped from token edges.
const asciiPunctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// EnglishStopwords returns the English stopword list.
func EnglishStopwords() []string {
	return strings.Fields(englishStopwords)
}

// Lexicon holds the word lists that decide which candidate spans are
// institutions.
type Lexicon struct {
	// Whitelist terms mark a candidate as an institution.  Entries may be
	// single words or full normalized names ("united nations").
	Whitelist map[string]bool
	// Blacklist terms disqualify a candidate outright.
	Blacklist map[string]bool
	// Exempt whitelist terms are always kept literally and never resolved
	// to a longer, previously seen name.
	Exempt map[string]bool
	// Stopwords are removed from the normalized form.
	Stopwords map[string]bool
}

// NewLexicon builds a Lexicon with the English stopword list.
func NewLexicon(whitelist, blacklist, exempt []string) *Lexicon {
	return &Lexicon{
		Whitelist: setOf(whitelist...),
		Blacklist: setOf(blacklist...),
		Exempt:    setOf(exempt...),
		Stopwords: setOf(EnglishStopwords()...),
	}
}

func setOf(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

// US federal institution vocabulary.
var (
	USWhitelist = []string{
		"secretary", "committee", "congress", "service", "council", "board", "senator",
		"representative", "united nations", "institute", "director", "office", "chairman",
		"president", "fund", "officer", "association", "department", "state", "foundation",
		"center", "centers", "senate", "house", "commission", "agency", "court", "tribunal",
		"survey", "institutes", "comptroller", "forces", "superintendent", "inspector",
		"government",
	}
	USBlacklist = []string{
		"act", "code", "amendments", "document", "amendment", "statute", "law", "building",
		"circular",
	}
	USExempt = []string{"state", "president", "congress"}
)

// USLexicon returns the lexicon used for United States federal legislation.
func USLexicon() *Lexicon {
	return NewLexicon(USWhitelist, USBlacklist, USExempt)
}

// lower folds s to NFKC lowercase.  A Caser holds state, so each call gets
// its own.
func lower(s string) string {
	return cases.Lower(language.Und).String(norm.NFKC.String(s))
}

// Process normalizes a candidate span and applies the acceptance filter.
// Tokens lose edge punctuation, empty tokens are dropped, and the rest are
// lowercased with stopwords removed.  The candidate is accepted when a
// normalized token, or the whole normalized string, is whitelisted, no
// normalized token is blacklisted, and the stripped original contains a
// letter.  The normalized string is returned with ok reporting acceptance.
func (l *Lexicon) Process(tokens []string) (string, bool) {
	stripped := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if s := strings.Trim(t, asciiPunctuation); s != "" {
			stripped = append(stripped, s)
		}
	}

	normalized := make([]string, 0, len(stripped))
	for _, s := range stripped {
		w := lower(s)
		if !l.Stopwords[w] {
			normalized = append(normalized, w)
		}
	}
	if len(normalized) == 0 {
		return "", false
	}
	joined := strings.Join(normalized, " ")

	whitelisted := l.Whitelist[joined]
	for _, w := range normalized {
		if l.Blacklist[w] {
			return "", false
		}
		if l.Whitelist[w] {
			whitelisted = true
		}
	}
	if !whitelisted {
		return "", false
	}
	if strings.IndexFunc(strings.Join(stripped, " "), unicode.IsLetter) < 0 {
		return "", false
	}
	return joined, true
}

// ResolveStub replaces a bare whitelisted candidate with the most recently
// seen multi-word global entity that contains it as a whole word.  Single
// word entries never resolve a stub.  Exempt terms, names
// that are not whitelisted, and an empty global list leave the candidate
// unchanged.
func (l *Lexicon) ResolveStub(candidate string, global []string) string {
	key := lower(candidate)
	if !l.Whitelist[key] || l.Exempt[key] || len(global) == 0 {
		return candidate
	}
	resolved := candidate
	for _, g := range global {
		words := strings.Fields(g)
		if len(words) < 2 {
			continue
		}
		for _, w := range words {
			if strings.EqualFold(w, candidate) {
				resolved = g
				break
			}
		}
	}
	return resolved
}

// SplitRepeated splits an entity that repeats a whitelisted word into the
// segments opened by each occurrence of every repeated word.  An entity
// without repeats is returned as its only element.
//
// "department defense department energy" yields ["department defense",
// "department energy"].
func (l *Lexicon) SplitRepeated(entity string) []string {
	words := strings.Fields(entity)
	counts := make(map[string]int, len(words))
	for _, w := range words {
		counts[w]++
	}

	cut := make([]bool, len(words))
	repeated := false
	for i, w := range words {
		if counts[w] > 1 && l.Whitelist[w] {
			cut[i] = true
			repeated = true
		}
	}
	if !repeated {
		return []string{entity}
	}

	var out []string
	start := 0
	for i := 1; i <= len(words); i++ {
		if i == len(words) || cut[i] {
			if seg := strings.Join(words[start:i], " "); seg != "" {
				out = append(out, seg)
			}
			start = i
		}
	}
	return out
}

//Personal.AI order the ending
