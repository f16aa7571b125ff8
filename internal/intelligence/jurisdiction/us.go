package jurisdiction

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/turtacn/LegisGraph/internal/domain/legislation"
	"github.com/turtacn/LegisGraph/internal/intelligence/entity"
	"github.com/turtacn/LegisGraph/internal/intelligence/hierarchy"
)

// ----------------------------------------------------------------------------
// United States, annual session laws
// ----------------------------------------------------------------------------

// noteGroup matches an optional inline code-citation note between the
// section keyword and its number, in raw or entity-escaped form.
const noteGroup = `(?:(?:&amp;lt;&amp;lt;|&lt;&lt;|<<)NOTE:[^>&]*?(?:&amp;gt;&amp;gt;|&gt;&gt;|>>))?`

// USHeaderPatterns are the header patterns of US session laws by level:
// sections, lowercase subsections, numbered paragraphs, uppercase
// subparagraphs.
var USHeaderPatterns = []string{
	`(?:SECTION|SEC\.)\s*\.?\s*` + noteGroup + `\s*[0-9]+\.\s*`,
	`\([a-z]\) `,
	`\([0-9]+\) `,
	`\([A-Z]\)`,
}

// USCanonicalFirstSection are the labels of the first substantive section.
var USCanonicalFirstSection = []string{"SECTION 1", "SEC. 1", "SEC 1"}

var (
	reHasSection   = regexp.MustCompile(`(SECTION|SEC\. [0-9]+)`)
	reTitleDash    = regexp.MustCompile(`\.--`)
	reQuotedHeader = regexp.MustCompile("``(SECTION|SEC)")
	rePreamble     = regexp.MustCompile(`(?s)(Be it enacted.*?)(SECTION|SEC\.)`)
	reHistory      = regexp.MustCompile(`LEGISLATIVE HISTORY|Speaker of the House|` +
		`Approved (January|February|March|April|May|June|July|August|September|October|November|December)`)
)

// USAnnual parses enrolled bills and public laws.
type USAnnual struct {
	grammar *hierarchy.CompiledGrammar
	lexicon *entity.Lexicon
}

// NewUSAnnual compiles the US session-law grammar.
func NewUSAnnual() *USAnnual {
	return &USAnnual{
		grammar: hierarchy.MustCompile(hierarchy.Levels(USHeaderPatterns...)),
		lexicon: entity.USLexicon(),
	}
}

func (*USAnnual) Kind() Kind { return KindUSAnnual }
func (u *USAnnual) HeaderGrammar() *hierarchy.CompiledGrammar { return u.grammar }
func (u *USAnnual) Lexicon() *entity.Lexicon { return u.lexicon }

func (u *USAnnual) ProcessEntity(tokens []string) (string, bool) {
	return u.lexicon.Process(tokens)
}

// Preprocess reduces the document HTML to parser input: markup removed,
// ".--" caption separators turned into title markers, backticks quoting a
// section header dropped, and the enactment preamble and trailing
// legislative history cut.
func (u *USAnnual) Preprocess(html string) (string, error) {
	text, err := hierarchy.CleanHTML(html)
	if err != nil {
		return "", err
	}
	text = reTitleDash.ReplaceAllString(text, hierarchy.DefaultTitleMarker+"\n")
	text = reQuotedHeader.ReplaceAllString(text, "$1")
	text = hierarchy.NormalizeWhitespace(text)

	if m := rePreamble.FindStringSubmatchIndex(text); m != nil {
		text = text[m[3]:]
	}
	if loc := reHistory.FindStringIndex(text); loc != nil {
		text = text[:loc[0]]
	}
	return text, nil
}

// Parse implements Jurisdiction.  Resolutions and documents without any
// section header are empty; a document whose cleaned text has no section
// header fails with hierarchy.ErrFailedParse.  Rows before the first
// canonical "Section 1" header are dropped.
func (u *USAnnual) Parse(doc *legislation.Document) ([]legislation.Row, error) {
	if doc.IsResolution() || !reHasSection.MatchString(doc.HTML) {
		return nil, nil
	}
	text, err := u.Preprocess(doc.HTML)
	if err != nil {
		return nil, err
	}
	if !u.grammar.HasTopLevel(text) {
		return nil, hierarchy.ErrFailedParse.WithDetail(doc.ID)
	}
	rows, err := hierarchy.ParseRows(text, u.grammar)
	if err != nil {
		return nil, err
	}
	return hierarchy.DropFrontMatter(rows, USCanonicalFirstSection), nil
}

// Chunks implements Jurisdiction.  A top-level row labeled SECTION or SEC
// with a new section number opens a chunk; rows before the first such
// header form their own chunk.  Title rows contribute no text.
func (u *USAnnual) Chunks(doc *legislation.Document) []string {
	var (
		chunks  []string
		current strings.Builder
		open    bool
		section string
	)
	flush := func() {
		if open {
			chunks = append(chunks, strings.TrimSpace(current.String()))
			current.Reset()
		}
	}
	for _, r := range doc.Parsed {
		if r.Level == 0 && isSectionLabel(r.Label) && (!open || r.SectionNumber != section) {
			flush()
			section = r.SectionNumber
		}
		open = true
		if r.IsTitle() {
			continue
		}
		current.WriteByte(' ')
		current.WriteString(r.Text)
	}
	flush()
	return chunks
}

func isSectionLabel(label string) bool {
	return strings.Contains(label, "SECTION") || strings.Contains(label, "SEC")
}

// ----------------------------------------------------------------------------
// United States Code, consolidated chapters
// ----------------------------------------------------------------------------

// USConsolidated handles chapter-year versions of the US Code whose
// sections arrive already split.
type USConsolidated struct {
	lexicon *entity.Lexicon
}

// NewUSConsolidated returns the consolidated-code jurisdiction.
func NewUSConsolidated() *USConsolidated {
	return &USConsolidated{lexicon: entity.USLexicon()}
}

func (*USConsolidated) Kind() Kind { return KindUSConsolidated }
func (*USConsolidated) HeaderGrammar() *hierarchy.CompiledGrammar { return nil }
func (c *USConsolidated) Lexicon() *entity.Lexicon { return c.lexicon }

func (c *USConsolidated) ProcessEntity(tokens []string) (string, bool) {
	return c.lexicon.Process(tokens)
}

// Parse implements Jurisdiction: one top-level body row per section.
func (c *USConsolidated) Parse(doc *legislation.Document) ([]legislation.Row, error) {
	if len(doc.Sections) == 0 {
		return nil, nil
	}
	rows := make([]legislation.Row, 0, len(doc.Sections))
	for i, s := range doc.Sections {
		rows = append(rows, legislation.Row{
			Level:         0,
			Label:         s.ID,
			SectionNumber: strconv.Itoa(i + 1),
			FieldType:     legislation.FieldBody,
			Text:          s.Text(),
		})
	}
	return rows, nil
}

// Chunks implements Jurisdiction: one chunk per section.
func (c *USConsolidated) Chunks(doc *legislation.Document) []string {
	chunks := make([]string, 0, len(doc.Sections))
	for _, s := range doc.Sections {
		chunks = append(chunks, s.Text())
	}
	return chunks
}

//Personal.AI order the ending
