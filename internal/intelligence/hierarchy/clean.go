package hierarchy

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/turtacn/LegisGraph/pkg/errors"
)

var (
	inlineSpace = regexp.MustCompile(`[ \t\f\v\x{00a0}]+`)
	blankLines  = regexp.MustCompile(`\n{3,}`)
)

// blockElements end a line when they close.
var blockElements = map[string]bool{
	"p": true, "div": true, "br": true, "tr": true, "li": true, "pre": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"table": true, "blockquote": true,
}

// CleanHTML reduces an HTML fragment to text: markup is dropped, entities are
// unescaped, script and style content is discarded, block elements end a
// line and whitespace is normalized per line.
func CleanHTML(src string) (string, error) {
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeMalformedHTML, "parse html")
	}

	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			buf.WriteString(n.Data)
			return
		case html.ElementNode:
			switch n.Data {
			case "script", "style", "head":
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && blockElements[n.Data] {
			buf.WriteByte('\n')
		}
	}
	walk(doc)

	return NormalizeWhitespace(buf.String()), nil
}

// NormalizeWhitespace collapses horizontal whitespace runs to one space,
// trims each line, and limits consecutive blank lines to one.
func NormalizeWhitespace(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(inlineSpace.ReplaceAllString(line, " "))
	}
	s = strings.Join(lines, "\n")
	s = blankLines.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

//Personal.AI order the ending
