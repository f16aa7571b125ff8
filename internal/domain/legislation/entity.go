// Package legislation holds the domain types shared by the parser, the
// entity extractor, the graph builder and the persistence adapters.
package legislation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// FieldType distinguishes a node's caption line from its body text.
type FieldType string

const (
	FieldTitle FieldType = "title"
	FieldBody  FieldType = "body"
)

// Document types and subtypes as recorded by the acquisition layer.
const (
	TypeAnnual       = "annual"
	TypeConsolidated = "consolidated"

	SubtypeLaw        = "law"
	SubtypeResolution = "resolution"
)

// Row is one record of the flattened section hierarchy.  Rows appear in
// depth-first document order.
type Row struct {
	Level         int       `json:"level"`
	Label         string    `json:"header_label"`
	SectionNumber string    `json:"section_number"`
	FieldType     FieldType `json:"field_type"`
	Text          string    `json:"body_text"`
}

// IsTitle reports whether the row carries a node caption.
func (r Row) IsTitle() bool { return r.FieldType == FieldTitle }

// CodeSection is one section of a consolidated code chapter.
type CodeSection struct {
	ID         string   `json:"id"`
	Paragraphs []string `json:"paragraphs"`
}

// Text joins the section's paragraphs with single spaces.
func (s CodeSection) Text() string {
	return strings.Join(s.Paragraphs, " ")
}

// SectionsEqual reports whether two chapter versions have identical sections
// in identical order.
func SectionsEqual(a, b []CodeSection) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID || len(a[i].Paragraphs) != len(b[i].Paragraphs) {
			return false
		}
		for j := range a[i].Paragraphs {
			if a[i].Paragraphs[j] != b[i].Paragraphs[j] {
				return false
			}
		}
	}
	return true
}

// AuxFields are the roll-call and legislator attributes joined onto an
// annual document.  Every field is nil when the join found no unique match.
type AuxFields struct {
	Date            *string `json:"date"`
	Topic           *string `json:"topic"`
	DW              *string `json:"dw"`
	SponsorParty    *string `json:"sponsor_party"`
	SponsorMajority *string `json:"sponsor_majority"`
	Control         *string `json:"control"`
	PresidentParty  *string `json:"president_party"`
	Commemorative   *string `json:"commemorative"`
}

// Document is one legislative document: an annual bill or a chapter-year of
// the consolidated code.
type Document struct {
	ID           string        `json:"id"`
	Country      string        `json:"country"`
	Title        string        `json:"title"`
	Date         string        `json:"date"`
	Type         string        `json:"type"`
	Subtype      string        `json:"subtype"`
	Amendment    bool          `json:"amendment"`
	Sponsor      *string       `json:"sponsor"`
	SponsorParty *string       `json:"sponsor_party"`
	Cosponsors   []string      `json:"cosponsors"`
	Referred     []string      `json:"referred"`
	Hearings     []string      `json:"hearings"`
	PolicyArea   *string       `json:"policy_area"`
	HTML         string        `json:"html"`
	Parsed       []Row         `json:"parsed"`
	Sections     []CodeSection `json:"sections,omitempty"`
	Aux          *AuxFields    `json:"aux,omitempty"`
}

// IsResolution reports whether the document is a non-substantive resolution.
func (d *Document) IsResolution() bool {
	return d.Subtype == SubtypeResolution
}

// UnmarshalJSON accepts both annual documents, whose "parsed" field is a row
// list, and consolidated chapter files, whose "parsed" field is an object of
// section id to paragraph list.  Section order follows the object's key
// order in the source.
func (d *Document) UnmarshalJSON(data []byte) error {
	type plain Document
	aux := struct {
		*plain
		Parsed json.RawMessage `json:"parsed"`
	}{plain: (*plain)(d)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	raw := bytes.TrimSpace(aux.Parsed)
	switch {
	case len(raw) == 0 || bytes.Equal(raw, []byte("null")):
		d.Parsed = nil
	case raw[0] == '[':
		var rows []Row
		if err := json.Unmarshal(raw, &rows); err != nil {
			return fmt.Errorf("legislation: decode parsed rows: %w", err)
		}
		d.Parsed = rows
	case raw[0] == '{':
		sections, err := decodeOrderedSections(raw)
		if err != nil {
			return err
		}
		d.Parsed = nil
		d.Sections = sections
	default:
		return fmt.Errorf("legislation: unexpected parsed value %q", string(raw[:1]))
	}
	return nil
}

func decodeOrderedSections(raw []byte) ([]CodeSection, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("legislation: decode sections: %w", err)
	}
	var out []CodeSection
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("legislation: decode sections: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("legislation: section key is %T", tok)
		}
		var paragraphs []string
		if err := dec.Decode(&paragraphs); err != nil {
			return nil, fmt.Errorf("legislation: decode section %q: %w", key, err)
		}
		out = append(out, CodeSection{ID: key, Paragraphs: paragraphs})
	}
	return out, nil
}

//Personal.AI order the ending
