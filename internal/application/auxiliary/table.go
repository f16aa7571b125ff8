// Package auxiliary joins roll-call and legislator attributes onto annual
// documents.  Rows come from a bills TSV and per-chamber member CSVs and are
// keyed by the normalized document ID used by the acquisition layer, for
// example "111th-congress_house-bill_1".
package auxiliary

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/turtacn/LegisGraph/internal/domain/legislation"
)

// MatchKind reports how Join resolved a document ID.
type MatchKind string

const (
	MatchExact    MatchKind = "exact"
	MatchFallback MatchKind = "fallback"
	MatchNone     MatchKind = "none"
)

var (
	reLeadingDigits  = regexp.MustCompile(`^[0-9]+`)
	reTrailingDigits = regexp.MustCompile(`[0-9]+$`)
	reChamber        = regexp.MustCompile(`house|senate`)
)

// Table maps normalized document IDs to auxiliary fields.
type Table struct {
	rows map[string]legislation.AuxFields
	keys []string
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{rows: make(map[string]legislation.AuxFields)}
}

// Put stores fields under id, replacing any earlier row.
func (t *Table) Put(id string, fields legislation.AuxFields) {
	if _, ok := t.rows[id]; !ok {
		t.keys = append(t.keys, id)
	}
	t.rows[id] = fields
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Join looks id up exactly, then falls back to the unique row with the same
// congress, chamber and bill number.  Zero or several fallback candidates
// yield all-nil fields.
func (t *Table) Join(id string) (*legislation.AuxFields, MatchKind) {
	if f, ok := t.rows[id]; ok {
		return &f, MatchExact
	}

	congress := reLeadingDigits.FindString(id)
	chamber := reChamber.FindString(id)
	number := reTrailingDigits.FindString(id)
	if congress == "" || chamber == "" || number == "" {
		return &legislation.AuxFields{}, MatchNone
	}

	var matches []string
	for _, k := range t.keys {
		if reLeadingDigits.FindString(k) == congress &&
			strings.Contains(k, chamber) &&
			reTrailingDigits.FindString(k) == number {
			matches = append(matches, k)
		}
	}
	if len(matches) == 1 {
		f := t.rows[matches[0]]
		return &f, MatchFallback
	}
	return &legislation.AuxFields{}, MatchNone
}

// Apply joins doc and stores the fields on it.
func (t *Table) Apply(doc *legislation.Document) MatchKind {
	fields, kind := t.Join(doc.ID)
	doc.Aux = fields
	return kind
}

// ----------------------------------------------------------------------------
// IDs
// ----------------------------------------------------------------------------

var reBaseID = regexp.MustCompile(`[0-9]+-[A-Z]+-[0-9]+`)

// Ordinal returns n with its English ordinal suffix.
func Ordinal(n int) string {
	suffix := "th"
	switch n % 100 {
	case 11, 12, 13:
	default:
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return strconv.Itoa(n) + suffix
}

// DocumentID converts a roll-call bill identifier such as "111-HR-1" to the
// normalized document ID "111th-congress_house-bill_1".
func DocumentID(base string) (string, error) {
	if !reBaseID.MatchString(base) {
		return "", ErrMalformedAuxRow.WithDetailf("bill id %q", base)
	}
	congress, err := strconv.Atoi(reLeadingDigits.FindString(base))
	if err != nil {
		return "", ErrMalformedAuxRow.WithDetailf("bill id %q", base).WithCause(err)
	}

	chamber, billType := "senate", "bill"
	if strings.Contains(base, "H") {
		chamber = "house"
		if strings.Contains(base, "RES") {
			billType = "joint-resolution"
		}
	} else if strings.Contains(base, "R") {
		billType = "joint-resolution"
	}
	return fmt.Sprintf("%s-congress_%s-%s_%s", Ordinal(congress), chamber, billType, reTrailingDigits.FindString(base)), nil
}

//Personal.AI order the ending
