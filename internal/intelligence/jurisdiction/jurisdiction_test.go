package jurisdiction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/LegisGraph/internal/domain/legislation"
	"github.com/turtacn/LegisGraph/internal/intelligence/hierarchy"
	"github.com/turtacn/LegisGraph/pkg/errors"
)

const enrolledBill = `<html><body><pre>
An Act To test things.

Be it enacted by the Senate and House of Representatives of the United States of America in Congress assembled,

SECTION 1. SHORT TITLE.

This Act may be cited as the ` + "``" + `Test Act''.

SEC. 2. DEFINITIONS.--In this Act:
(1) Secretary.--The term the Secretary means the Secretary of Defense.
(2) Board.--The Board of Directors.

SEC. &lt;&lt;NOTE: 10 USC 101 note.&gt;&gt; 3. AUTHORITY.

(a) In General.--The Department of Defense shall consult the Secretary of State.
(b) Report.--The Department shall report.

Approved March 3, 2010.

LEGISLATIVE HISTORY--H.R. 1:
</pre></body></html>`

func TestParseKind(t *testing.T) {
	k, err := ParseKind("us_consolidated")
	require.NoError(t, err)
	assert.Equal(t, KindUSConsolidated, k)

	_, err = ParseKind("uk_annual")
	assert.ErrorIs(t, err, ErrUnknownJurisdiction)
	assert.True(t, errors.IsConfigurationError(err))

	_, err = New(Kind("nowhere"))
	assert.True(t, errors.IsCode(err, errors.ErrCodeUnknownJurisdiction))

	for _, kind := range Kinds() {
		j, err := New(kind)
		require.NoError(t, err)
		assert.Equal(t, kind, j.Kind())
		assert.NotNil(t, j.Lexicon())
	}

	j, err := FromName("us_annual")
	require.NoError(t, err)
	assert.NotNil(t, j.HeaderGrammar())
}

func TestUSAnnual_Parse(t *testing.T) {
	us := NewUSAnnual()
	rows, err := us.Parse(&legislation.Document{ID: "111th-congress_house-bill_1", Subtype: "law", HTML: enrolledBill})
	require.NoError(t, err)
	require.NotEmpty(t, rows)

	assert.Equal(t, legislation.Row{
		Level: 0, Label: "SECTION 1", SectionNumber: "1", FieldType: legislation.FieldBody,
		Text: "SHORT TITLE. This Act may be cited as the ``Test Act''.",
	}, rows[0])
	assert.Equal(t, legislation.Row{
		Level: 0, Label: "SEC. 2", SectionNumber: "2", FieldType: legislation.FieldTitle, Text: "DEFINITIONS",
	}, rows[1])
	assert.Equal(t, legislation.Row{
		Level: 2, Label: "(1)", SectionNumber: "2.1", FieldType: legislation.FieldTitle, Text: "Secretary",
	}, rows[3])

	var labels []string
	for _, r := range rows {
		labels = append(labels, r.Label)
		assert.NotContains(t, r.Text, "Approved")
		assert.NotContains(t, r.Text, "LEGISLATIVE HISTORY")
		assert.NotContains(t, r.Text, "Be it enacted")
	}
	assert.Contains(t, labels, "SEC. 3")

	last := rows[len(rows)-1]
	assert.Equal(t, "(b)", last.Label)
	assert.Equal(t, "3.2", last.SectionNumber)
	assert.Equal(t, "The Department shall report.", last.Text)
}

func TestUSAnnual_ParseEmptyAndFailed(t *testing.T) {
	us := NewUSAnnual()

	rows, err := us.Parse(&legislation.Document{Subtype: legislation.SubtypeResolution, HTML: enrolledBill})
	assert.NoError(t, err)
	assert.Nil(t, rows)

	rows, err = us.Parse(&legislation.Document{Subtype: "law", HTML: "<p>No headers at all.</p>"})
	assert.NoError(t, err)
	assert.Nil(t, rows)

	_, err = us.Parse(&legislation.Document{ID: "x", Subtype: "law", HTML: "<p>See SEC. 5 of the other Act</p>"})
	assert.ErrorIs(t, err, hierarchy.ErrFailedParse)
	assert.True(t, errors.IsDataError(err))
}

func TestUSAnnual_FrontMatterDropped(t *testing.T) {
	html := "<pre>SEC. 2. TABLE.--Contents.\nSEC. 1. SHORT TITLE.--Text one.\nSEC. 2. RULES.--Text two.</pre>"
	rows, err := NewUSAnnual().Parse(&legislation.Document{Subtype: "law", HTML: html})
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	assert.Equal(t, "SEC. 1", rows[0].Label)
	assert.Equal(t, "SHORT TITLE", rows[0].Text)
}

func TestUSAnnual_Chunks(t *testing.T) {
	us := NewUSAnnual()
	doc := &legislation.Document{Subtype: "law", HTML: enrolledBill}
	rows, err := us.Parse(doc)
	require.NoError(t, err)
	doc.Parsed = rows

	chunks := us.Chunks(doc)
	require.Len(t, chunks, 3)
	assert.Equal(t, "SHORT TITLE. This Act may be cited as the ``Test Act''.", chunks[0])
	assert.Equal(t, "In this Act: The term the Secretary means the Secretary of Defense. The Board of Directors.", chunks[1])
	assert.NotContains(t, chunks[1], "DEFINITIONS", "title rows are excluded")
	assert.Equal(t, "AUTHORITY. The Department of Defense shall consult the Secretary of State. The Department shall report.", chunks[2])
}

func TestUSAnnual_ChunksLeadingRows(t *testing.T) {
	doc := &legislation.Document{Parsed: []legislation.Row{
		{Level: 1, Label: "(a)", SectionNumber: "1", FieldType: legislation.FieldBody, Text: "orphan"},
		{Level: 0, Label: "SEC. 4", SectionNumber: "2", FieldType: legislation.FieldBody, Text: "four"},
	}}
	assert.Equal(t, []string{"orphan", "four"}, NewUSAnnual().Chunks(doc))
	assert.Nil(t, NewUSAnnual().Chunks(&legislation.Document{}))
}

func TestUSConsolidated(t *testing.T) {
	c := NewUSConsolidated()
	doc := &legislation.Document{Sections: []legislation.CodeSection{
		{ID: "101", Paragraphs: []string{"The Secretary of Defense", "shall act."}},
		{ID: "102", Paragraphs: []string{"The Board."}},
	}}

	rows, err := c.Parse(doc)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "101", rows[0].Label)
	assert.Equal(t, "2", rows[1].SectionNumber)

	assert.Equal(t, []string{"The Secretary of Defense shall act.", "The Board."}, c.Chunks(doc))
	assert.Nil(t, c.HeaderGrammar())

	rows, err = c.Parse(&legislation.Document{})
	assert.NoError(t, err)
	assert.Nil(t, rows)

	got, ok := c.ProcessEntity([]string{"Board", "of", "Directors"})
	assert.True(t, ok)
	assert.Equal(t, "board directors", got)
}

//Personal.AI order the ending
