// Package reporting exports pipeline results as flat tables.  Statistics
// that are null because a document had no entities become empty cells.
package reporting

import (
	"github.com/turtacn/LegisGraph/internal/domain/legislation"
	"github.com/turtacn/LegisGraph/pkg/errors"
)

// Layout selects the column set of an export.
type Layout string

const (
	// LayoutAnnual carries bill metadata and the joined auxiliary fields.
	LayoutAnnual Layout = "annual"
	// LayoutConsolidated carries only identification and statistics.
	LayoutConsolidated Layout = "consolidated"
)

// ParseLayout validates a layout name.
func ParseLayout(s string) (Layout, error) {
	switch l := Layout(s); l {
	case LayoutAnnual, LayoutConsolidated:
		return l, nil
	}
	return "", errors.New(errors.ErrCodeValidation, "unknown report layout").WithDetail(s)
}

// Column is one exported column.  Value returns nil for an empty cell.
type Column struct {
	Name  string
	Value func(r *legislation.Result) any
}

// Table is an export ready to be written.
type Table struct {
	Headers []string
	Rows    [][]any
}

// Columns returns the columns of layout for results of the given variant.
func Columns(layout Layout, variant legislation.Variant) []Column {
	cols := []Column{
		{"id", func(r *legislation.Result) any { return r.DocumentID }},
		{"date", func(r *legislation.Result) any { return r.Date }},
		{"title", func(r *legislation.Result) any { return r.Title }},
	}
	if variant == legislation.VariantDensity {
		cols = append(cols,
			Column{"density", func(r *legislation.Result) any { return float(r.Density) }},
			Column{"total_nodes", func(r *legislation.Result) any { return integer(r.TotalNodes) }},
			Column{"total_edges", func(r *legislation.Result) any { return integer(r.TotalEdges) }},
			Column{"observed_edges", func(r *legislation.Result) any { return integer(r.ObservedEdges) }},
		)
	} else {
		cols = append(cols,
			Column{"clustering", func(r *legislation.Result) any { return float(r.Clustering) }},
			Column{"total_nodes", func(r *legislation.Result) any { return integer(r.TotalNodes) }},
			Column{"total_edges", func(r *legislation.Result) any { return integer(r.TotalEdges) }},
			Column{"average_degree", func(r *legislation.Result) any { return float(r.AverageDegree) }},
		)
	}
	if layout != LayoutAnnual {
		return cols
	}
	return append(cols,
		Column{"topic", aux(func(a *legislation.AuxFields) *string { return a.Topic })},
		Column{"sponsor", func(r *legislation.Result) any { return str(r.Sponsor) }},
		Column{"dw", aux(func(a *legislation.AuxFields) *string { return a.DW })},
		Column{"sponsor_party", aux(func(a *legislation.AuxFields) *string { return a.SponsorParty })},
		Column{"sponsor_majority", aux(func(a *legislation.AuxFields) *string { return a.SponsorMajority })},
		Column{"cosponsors", func(r *legislation.Result) any { return r.Cosponsors }},
		Column{"hearings", func(r *legislation.Result) any { return r.Hearings }},
		Column{"referred", func(r *legislation.Result) any { return r.Referred }},
		Column{"control", aux(func(a *legislation.AuxFields) *string { return a.Control })},
		Column{"president_party", aux(func(a *legislation.AuxFields) *string { return a.PresidentParty })},
		Column{"commemorative", aux(func(a *legislation.AuxFields) *string { return a.Commemorative })},
	)
}

// Analyzed keeps the results whose document produced a hierarchy.  Empty
// and unparseable documents are counted in the batch report but have no
// row in the annual export.
func Analyzed(results []*legislation.Result) []*legislation.Result {
	out := make([]*legislation.Result, 0, len(results))
	for _, r := range results {
		if r != nil && r.Status == legislation.StatusAnalyzed {
			out = append(out, r)
		}
	}
	return out
}

// BuildTable lays results out in the columns of layout.  The statistic
// columns follow the variant of the first result.
func BuildTable(layout Layout, results []*legislation.Result) *Table {
	variant := legislation.VariantClassification
	if len(results) > 0 && results[0].Variant != "" {
		variant = results[0].Variant
	}
	cols := Columns(layout, variant)

	t := &Table{Headers: make([]string, len(cols)), Rows: make([][]any, 0, len(results))}
	for i, c := range cols {
		t.Headers[i] = c.Name
	}
	for _, r := range results {
		row := make([]any, len(cols))
		for i, c := range cols {
			row[i] = c.Value(r)
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func aux(get func(*legislation.AuxFields) *string) func(*legislation.Result) any {
	return func(r *legislation.Result) any {
		if r.Aux == nil {
			return nil
		}
		return str(get(r.Aux))
	}
}

func str(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func integer(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func float(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

//Personal.AI order the ending
