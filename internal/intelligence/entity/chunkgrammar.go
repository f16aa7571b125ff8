package entity

import (
	"regexp"
	"strings"

	"github.com/turtacn/LegisGraph/pkg/errors"
)

// InstitutionLabel is the chunk label of institution-name candidates.
const InstitutionLabel = "INST"

// DefaultInstitutionGrammar marks runs of proper nouns, optionally joined by
// prepositions, conjunctions, commas and determiners, and then splits chunks
// at a conjunction followed by a determiner ("... and the ...").
const DefaultInstitutionGrammar = `
INST:
    {<NNP|NNPS|POS>+(<NNP|NNPS|IN|CC|POS|,|DT>*<NNP|NNPS|POS>+)?}
    }<CC><DT>{
`

type ruleKind int

const (
	chunkRule ruleKind = iota
	chinkRule
)

type tagRule struct {
	kind    ruleKind
	pattern string
	re      *regexp.Regexp
}

type chunkStage struct {
	label string
	rules []tagRule
}

// ChunkGrammar is a compiled cascade of tag-pattern rules.  A chunk rule
// `{pattern}` groups unchunked tokens whose tag sequence matches pattern; a
// chink rule `}pattern{` removes matching tokens from existing chunks,
// splitting them.  Tag patterns are regular expressions over tags, each tag
// written as <TAG>; a dot inside angle brackets matches any tag character.
type ChunkGrammar struct {
	stages []chunkStage
}

// Chunk is one labeled span of tagged tokens.
type Chunk struct {
	Label  string
	Tokens []TaggedToken
}

// Words returns the chunk's words in order.
func (c Chunk) Words() []string {
	out := make([]string, len(c.Tokens))
	for i, t := range c.Tokens {
		out[i] = t.Word
	}
	return out
}

// ParseChunkGrammar compiles grammar source.  Each stage opens with a
// "LABEL:" line and lists one rule per line; "#" starts a comment.
func ParseChunkGrammar(src string) (*ChunkGrammar, error) {
	g := &ChunkGrammar{}
	for n, raw := range strings.Split(src, "\n") {
		line := raw
		if idx := strings.Index(line, "#"); idx >= 0 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if label, rest, ok := splitStageLabel(line); ok {
			g.stages = append(g.stages, chunkStage{label: label})
			line = rest
			if line == "" {
				continue
			}
		}
		if len(g.stages) == 0 {
			return nil, errors.New(errors.ErrCodeChunkGrammarInvalid, "chunk rule before any stage label").
				WithDetailf("line %d: %q", n+1, raw)
		}
		rule, err := compileTagRule(line)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeChunkGrammarInvalid, "invalid chunk rule").
				WithDetailf("line %d: %q", n+1, raw)
		}
		stage := &g.stages[len(g.stages)-1]
		stage.rules = append(stage.rules, rule)
	}
	if len(g.stages) == 0 {
		return nil, errors.New(errors.ErrCodeChunkGrammarInvalid, "chunk grammar has no stages")
	}
	for _, s := range g.stages {
		if len(s.rules) == 0 {
			return nil, errors.New(errors.ErrCodeChunkGrammarInvalid, "chunk grammar stage has no rules").
				WithDetail(s.label)
		}
	}
	return g, nil
}

// MustParseChunkGrammar is ParseChunkGrammar that panics on error.
func MustParseChunkGrammar(src string) *ChunkGrammar {
	g, err := ParseChunkGrammar(src)
	if err != nil {
		panic(err)
	}
	return g
}

func splitStageLabel(line string) (string, string, bool) {
	idx := strings.Index(line, ":")
	if idx <= 0 {
		return "", "", false
	}
	label := line[:idx]
	for _, r := range label {
		if !(r == '_' || r == '-' || (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')) {
			return "", "", false
		}
	}
	return label, strings.TrimSpace(line[idx+1:]), true
}

func compileTagRule(line string) (tagRule, error) {
	var rule tagRule
	switch {
	case len(line) > 2 && line[0] == '{' && line[len(line)-1] == '}':
		rule.kind = chunkRule
	case len(line) > 2 && line[0] == '}' && line[len(line)-1] == '{':
		rule.kind = chinkRule
	default:
		return rule, errors.New(errors.ErrCodeChunkGrammarInvalid, "rule must be {pattern} or }pattern{")
	}
	rule.pattern = line[1 : len(line)-1]
	re, err := regexp.Compile(tagPatternToRegexp(rule.pattern))
	if err != nil {
		return rule, err
	}
	if re.MatchString("") {
		return rule, errors.New(errors.ErrCodeChunkGrammarInvalid, "tag pattern matches empty sequence")
	}
	rule.re = re
	return rule, nil
}

// tagPatternToRegexp rewrites <A|B> groups into regexp groups over the
// "<TAG><TAG>" encoding of a tag sequence.
func tagPatternToRegexp(p string) string {
	var b strings.Builder
	depth := 0
	for _, r := range p {
		switch {
		case r == ' ' || r == '\t':
		case r == '<':
			depth++
			b.WriteString("(?:<(?:")
		case r == '>':
			depth--
			b.WriteString(")>)")
		case r == '.' && depth > 0:
			b.WriteString(`[^{}<>]`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ============================================================================
// Parsing
// ============================================================================

// Parse chunks tagged and returns the chunks in sentence order.  Stages run
// in order; a later stage only sees tokens no earlier stage chunked.
func (g *ChunkGrammar) Parse(tagged []TaggedToken) []Chunk {
	owner := make([]int, len(tagged))
	for i := range owner {
		owner[i] = -1
	}
	var labels []string

	for _, stage := range g.stages {
		stageIDs := map[int]bool{}
		newID := func() int {
			labels = append(labels, stage.label)
			id := len(labels) - 1
			stageIDs[id] = true
			return id
		}
		for _, rule := range stage.rules {
			switch rule.kind {
			case chunkRule:
				applyChunk(rule.re, tagged, owner, newID)
			case chinkRule:
				applyChink(rule.re, tagged, owner, stageIDs, newID)
			}
		}
	}

	var out []Chunk
	for i := 0; i < len(tagged); {
		if owner[i] < 0 {
			i++
			continue
		}
		j := i
		for j < len(tagged) && owner[j] == owner[i] {
			j++
		}
		out = append(out, Chunk{Label: labels[owner[i]], Tokens: tagged[i:j]})
		i = j
	}
	return out
}

// Spans returns the words of every chunk labeled label.
func (g *ChunkGrammar) Spans(tagged []TaggedToken, label string) [][]string {
	var out [][]string
	for _, c := range g.Parse(tagged) {
		if c.Label == label {
			out = append(out, c.Words())
		}
	}
	return out
}

// encodeTags renders tagged[from:to] as "<T1><T2>..." and records the byte
// offset at which each token starts.
func encodeTags(tagged []TaggedToken, idx []int) (string, map[int]int) {
	var b strings.Builder
	offsets := make(map[int]int, len(idx)+1)
	for k, i := range idx {
		offsets[b.Len()] = k
		b.WriteByte('<')
		b.WriteString(tagged[i].Tag)
		b.WriteByte('>')
	}
	offsets[b.Len()] = len(idx)
	return b.String(), offsets
}

// matchedRanges maps regexp matches onto token positions within idx,
// ignoring matches that do not align with token boundaries.
func matchedRanges(re *regexp.Regexp, tagged []TaggedToken, idx []int) [][2]int {
	s, offsets := encodeTags(tagged, idx)
	var out [][2]int
	for _, m := range re.FindAllStringIndex(s, -1) {
		from, ok1 := offsets[m[0]]
		to, ok2 := offsets[m[1]]
		if ok1 && ok2 && to > from {
			out = append(out, [2]int{from, to})
		}
	}
	return out
}

func applyChunk(re *regexp.Regexp, tagged []TaggedToken, owner []int, newID func() int) {
	for i := 0; i < len(owner); {
		if owner[i] >= 0 {
			i++
			continue
		}
		var run []int
		for i < len(owner) && owner[i] < 0 {
			run = append(run, i)
			i++
		}
		for _, r := range matchedRanges(re, tagged, run) {
			id := newID()
			for k := r[0]; k < r[1]; k++ {
				owner[run[k]] = id
			}
		}
	}
}

func applyChink(re *regexp.Regexp, tagged []TaggedToken, owner []int, stageIDs map[int]bool, newID func() int) {
	for i := 0; i < len(owner); {
		id := owner[i]
		if id < 0 || !stageIDs[id] {
			i++
			continue
		}
		var span []int
		for i < len(owner) && owner[i] == id {
			span = append(span, i)
			i++
		}
		ranges := matchedRanges(re, tagged, span)
		if len(ranges) == 0 {
			continue
		}
		removed := make([]bool, len(span))
		for _, r := range ranges {
			for k := r[0]; k < r[1]; k++ {
				removed[k] = true
			}
		}
		// Tokens after a chinked gap start a new chunk.
		current, split := id, false
		for k, pos := range span {
			if removed[k] {
				owner[pos] = -1
				split = true
				continue
			}
			if split {
				current, split = newID(), false
			}
			owner[pos] = current
		}
	}
}

//Personal.AI order the ending
