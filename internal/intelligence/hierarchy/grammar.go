// Package hierarchy splits legislative text into a tree of numbered sections
// using an ordered header grammar, and flattens that tree into rows.
package hierarchy

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/turtacn/LegisGraph/pkg/errors"
)

// ============================================================================
// Sentinel Errors
// ============================================================================

var (
	// ErrEmptyGrammar is returned by Compile for a grammar with no rules.
	ErrEmptyGrammar = errors.Sentinel(errors.ErrCodeConfigInvalid, "header grammar has no rules")
	// ErrInvalidPattern is returned by Compile for a malformed rule.
	ErrInvalidPattern = errors.Sentinel(errors.ErrCodeGrammarInvalidPattern, "invalid header pattern")
	// ErrAmbiguousGrammar is returned when two rules of the same level match
	// at the same scan position with different spans.
	ErrAmbiguousGrammar = errors.Sentinel(errors.ErrCodeGrammarAmbiguous, "ambiguous header grammar")
	// ErrFailedParse is returned when the mandatory top-level header never
	// matches.
	ErrFailedParse = errors.Sentinel(errors.ErrCodeParseFailed, "failed parse: no top-level header matched")
	// ErrEmptyDocument is returned for blank input text.
	ErrEmptyDocument = errors.Sentinel(errors.ErrCodeEmptyDocument, "document text is empty")
)

// DefaultTitleMarker separates a node's caption from its body text.
const DefaultTitleMarker = "<title>"

// ============================================================================
// Grammar
// ============================================================================

// HeaderRule binds a regular expression to a hierarchy level.  Level 0 is the
// coarsest division.
type HeaderRule struct {
	Level   int    `json:"level" yaml:"level"`
	Pattern string `json:"pattern" yaml:"pattern"`
}

// Grammar is an ordered set of header rules plus matching options.
type Grammar struct {
	Rules []HeaderRule `json:"rules" yaml:"rules"`
	// LineAnchored requires every header to start a line.
	LineAnchored bool `json:"line_anchored" yaml:"line_anchored"`
	// CaseInsensitive compiles every rule with the (?i) flag.
	CaseInsensitive bool `json:"case_insensitive" yaml:"case_insensitive"`
	// TitleMarker splits a node's text into caption and body.  Empty means
	// every node has body text only.
	TitleMarker string `json:"title_marker" yaml:"title_marker"`
}

// Levels builds a grammar with one rule per level, in the given order.
func Levels(patterns ...string) Grammar {
	g := Grammar{TitleMarker: DefaultTitleMarker}
	for i, p := range patterns {
		g.Rules = append(g.Rules, HeaderRule{Level: i, Pattern: p})
	}
	return g
}

type compiledRule struct {
	level int
	order int
	re    *regexp.Regexp
}

// CompiledGrammar is a validated, ready-to-scan grammar.  It is immutable and
// safe for concurrent use.
type CompiledGrammar struct {
	rules       []compiledRule
	depth       int
	titleMarker string
}

// Compile validates g and compiles its patterns.  All failures are
// configuration errors.
func Compile(g Grammar) (*CompiledGrammar, error) {
	if len(g.Rules) == 0 {
		return nil, ErrEmptyGrammar
	}

	seen := make(map[int]bool)
	maxLevel := 0
	rules := make([]compiledRule, 0, len(g.Rules))
	for i, r := range g.Rules {
		if r.Level < 0 {
			return nil, ErrInvalidPattern.WithDetailf("rule %d: negative level %d", i, r.Level)
		}
		expr := r.Pattern
		if g.LineAnchored {
			expr = `(?m)^(?:` + expr + `)`
		}
		if g.CaseInsensitive {
			expr = `(?i)` + expr
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, ErrInvalidPattern.WithDetailf("rule %d %q", i, r.Pattern).WithCause(err)
		}
		if re.MatchString("") {
			return nil, ErrInvalidPattern.WithDetailf("rule %d %q matches the empty string", i, r.Pattern)
		}
		seen[r.Level] = true
		if r.Level > maxLevel {
			maxLevel = r.Level
		}
		rules = append(rules, compiledRule{level: r.Level, order: i, re: re})
	}
	for l := 0; l <= maxLevel; l++ {
		if !seen[l] {
			return nil, errors.New(errors.ErrCodeConfigInvalid, "header grammar has a level gap").
				WithDetail(fmt.Sprintf("no rule for level %d (max level %d)", l, maxLevel))
		}
	}

	sort.SliceStable(rules, func(i, j int) bool { return rules[i].level < rules[j].level })
	return &CompiledGrammar{rules: rules, depth: maxLevel + 1, titleMarker: g.TitleMarker}, nil
}

// MustCompile is Compile that panics on error.  Intended for package-level
// grammars built from constants.
func MustCompile(g Grammar) *CompiledGrammar {
	c, err := Compile(g)
	if err != nil {
		panic(err)
	}
	return c
}

// Depth returns the number of hierarchy levels.
func (c *CompiledGrammar) Depth() int { return c.depth }

// TitleMarker returns the caption separator, possibly empty.
func (c *CompiledGrammar) TitleMarker() string { return c.titleMarker }

// HasTopLevel reports whether any level-0 rule matches somewhere in text.
func (c *CompiledGrammar) HasTopLevel(text string) bool {
	for _, r := range c.rules {
		if r.level != 0 {
			break
		}
		if loc := r.re.FindStringIndex(text); loc != nil && loc[1] > loc[0] {
			return true
		}
	}
	return false
}

// ============================================================================
// Scanning
// ============================================================================

// headerMatch is one selected header occurrence.
type headerMatch struct {
	start, end int
	level      int
}

type candidate struct {
	headerMatch
	order int
}

// scan finds the header occurrences in text, left to right.  At a given start
// position the lowest level wins; candidates overlapping an already selected
// header are skipped.
func (c *CompiledGrammar) scan(text string) ([]headerMatch, error) {
	var cands []candidate
	for _, r := range c.rules {
		for _, loc := range r.re.FindAllStringIndex(text, -1) {
			if loc[1] == loc[0] {
				continue
			}
			cands = append(cands, candidate{
				headerMatch: headerMatch{start: loc[0], end: loc[1], level: r.level},
				order:       r.order,
			})
		}
	}
	sort.Slice(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		if a.start != b.start {
			return a.start < b.start
		}
		if a.level != b.level {
			return a.level < b.level
		}
		return a.order < b.order
	})

	var out []headerMatch
	cursor := 0
	for i, cand := range cands {
		if cand.start < cursor {
			continue
		}
		for j := i + 1; j < len(cands) && cands[j].start == cand.start && cands[j].level == cand.level; j++ {
			if other := cands[j]; other.end != cand.end {
				return nil, ErrAmbiguousGrammar.WithDetailf(
					"level %d rules %d and %d match at offset %d with different spans %q / %q",
					cand.level, cand.order, other.order, cand.start,
					text[cand.start:cand.end], text[other.start:other.end])
			}
		}
		out = append(out, cand.headerMatch)
		cursor = cand.end
	}
	return out, nil
}

//Personal.AI order the ending
