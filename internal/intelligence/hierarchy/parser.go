package hierarchy

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/turtacn/LegisGraph/internal/domain/legislation"
)

// Node is one section of the parsed hierarchy.  The root node has level -1,
// no label, and holds any text preceding the first header.
type Node struct {
	Header   string
	Label    string
	Level    int
	Number   string
	Title    string
	Lines    []string
	Children []*Node
}

// Body joins the node's body lines with single spaces.
func (n *Node) Body() string {
	return strings.Join(n.Lines, " ")
}

// Walk visits n and its descendants depth-first, parents before children.
func (n *Node) Walk(fn func(*Node)) {
	fn(n)
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

var (
	// noteAnnotation matches inline code-citation notes in their raw, escaped
	// and double-escaped forms.
	noteAnnotation = regexp.MustCompile(`(?:&amp;lt;&amp;lt;|&lt;&lt;|<<)NOTE:.*?(?:&amp;gt;&amp;gt;|&gt;&gt;|>>)`)
	whitespaceRun  = regexp.MustCompile(`\s+`)
)

// Label normalizes matched header text: annotations removed, whitespace
// collapsed, trailing period trimmed.  "SEC. 1. " becomes "SEC. 1".
func Label(header string) string {
	s := noteAnnotation.ReplaceAllString(header, " ")
	s = whitespaceRun.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	s = strings.TrimRight(s, ". ")
	// "SEC. . 1" after annotation removal.
	s = strings.ReplaceAll(s, ". . ", ". ")
	return s
}

// Parse builds the section tree of text.  Each header match opens a node and
// closes every open node at the same or a deeper level.  Text between two
// headers belongs to the node opened by the first.
//
// Parse returns ErrEmptyDocument for blank text, ErrFailedParse when no
// level-0 header matches, and ErrAmbiguousGrammar for conflicting rules.
func Parse(text string, g *CompiledGrammar) (*Node, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyDocument
	}
	matches, err := g.scan(text)
	if err != nil {
		return nil, err
	}
	hasTop := false
	for _, m := range matches {
		if m.level == 0 {
			hasTop = true
			break
		}
	}
	if !hasTop {
		return nil, ErrFailedParse
	}

	root := &Node{Level: -1}
	if len(matches) > 0 {
		root.Lines = splitLines(text[:matches[0].start])
	}
	stack := []*Node{root}

	for i, m := range matches {
		for len(stack) > 1 && stack[len(stack)-1].Level >= m.level {
			stack = stack[:len(stack)-1]
		}
		parent := stack[len(stack)-1]

		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1].start
		}
		header := text[m.start:m.end]
		node := &Node{
			Header: header,
			Label:  Label(header),
			Level:  m.level,
			Number: childNumber(parent, len(parent.Children)+1),
		}
		node.Title, node.Lines = splitTitle(text[m.end:end], g.titleMarker)

		parent.Children = append(parent.Children, node)
		stack = append(stack, node)
	}
	return root, nil
}

func childNumber(parent *Node, ordinal int) string {
	if parent.Level < 0 {
		return strconv.Itoa(ordinal)
	}
	return parent.Number + "." + strconv.Itoa(ordinal)
}

// splitTitle separates the caption preceding marker from the body.  Without
// a marker occurrence the whole segment is body.
func splitTitle(segment, marker string) (string, []string) {
	if marker != "" {
		if idx := strings.Index(segment, marker); idx >= 0 {
			title := whitespaceRun.ReplaceAllString(strings.TrimSpace(segment[:idx]), " ")
			return title, splitLines(segment[idx+len(marker):])
		}
	}
	return "", splitLines(segment)
}

func splitLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		line = whitespaceRun.ReplaceAllString(strings.TrimSpace(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

// Flatten emits the rows of root's descendants in depth-first order.  A node
// with a caption yields a title row; a node yields a body row when it has
// body text or no caption, so that every header is represented.
func Flatten(root *Node) []legislation.Row {
	var rows []legislation.Row
	for _, child := range root.Children {
		child.Walk(func(n *Node) {
			hasTitle := n.Title != ""
			if hasTitle {
				rows = append(rows, legislation.Row{
					Level:         n.Level,
					Label:         n.Label,
					SectionNumber: n.Number,
					FieldType:     legislation.FieldTitle,
					Text:          n.Title,
				})
			}
			if body := n.Body(); body != "" || !hasTitle {
				rows = append(rows, legislation.Row{
					Level:         n.Level,
					Label:         n.Label,
					SectionNumber: n.Number,
					FieldType:     legislation.FieldBody,
					Text:          body,
				})
			}
		})
	}
	return rows
}

// ParseRows is Parse followed by Flatten.
func ParseRows(text string, g *CompiledGrammar) ([]legislation.Row, error) {
	root, err := Parse(text, g)
	if err != nil {
		return nil, err
	}
	return Flatten(root), nil
}

// DropFrontMatter keeps rows starting at the first top-level row whose label
// is in canonical.  Without such a row the input is returned unchanged.
func DropFrontMatter(rows []legislation.Row, canonical []string) []legislation.Row {
	want := make(map[string]bool, len(canonical))
	for _, c := range canonical {
		want[c] = true
	}
	for i, r := range rows {
		if r.Level == 0 && want[r.Label] {
			return rows[i:]
		}
	}
	return rows
}

//Personal.AI order the ending
