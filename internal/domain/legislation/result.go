package legislation

import (
	"time"
)

// Variant selects which statistics a Result carries.
type Variant string

const (
	// VariantDensity carries observed and total edge weight and their ratio.
	VariantDensity Variant = "density"
	// VariantClassification carries node count, summed edge weight, mean
	// weighted degree and weighted clustering.
	VariantClassification Variant = "classification"
)

// Status records how a document left the pipeline.
type Status string

const (
	StatusAnalyzed    Status = "analyzed"
	StatusEmpty       Status = "empty"
	StatusFailedParse Status = "failed_parse"
	StatusSkipped     Status = "skipped"
)

// Edge is an undirected co-occurrence edge.  Source and Target keep the
// orientation in which the pair was first seen.
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Weight int    `json:"weight"`
}

// Result is the per-document record produced by the graph builder.  Nil
// statistics mean "no entities found", which is distinct from zero.
type Result struct {
	ID            string     `json:"id"`
	DocumentID    string     `json:"document_id"`
	Title         string     `json:"title"`
	Date          string     `json:"date"`
	Variant       Variant    `json:"variant"`
	Status        Status     `json:"status"`
	Edges         []Edge     `json:"edges"`
	TotalNodes    *int       `json:"total_nodes"`
	TotalEdges    *int       `json:"total_edges"`
	ObservedEdges *int       `json:"observed_edges,omitempty"`
	Density       *float64   `json:"density,omitempty"`
	Clustering    *float64   `json:"clustering"`
	AverageDegree *float64   `json:"average_degree"`
	Aux           *AuxFields `json:"aux,omitempty"`
	// Counts of the document's list-valued metadata.
	Cosponsors int       `json:"cosponsors"`
	Hearings   int       `json:"hearings"`
	Referred   int       `json:"referred"`
	Sponsor    *string   `json:"sponsor,omitempty"`
	ComputedAt time.Time `json:"computed_at"`
}

// HasEntities reports whether any entity survived extraction.
func (r *Result) HasEntities() bool {
	return r.TotalNodes != nil && *r.TotalNodes > 0
}

// ResultFilter narrows a result listing.
type ResultFilter struct {
	Variant Variant
	Status  Status
	Limit   int
	Offset  int
}

// SectionHit is one full-text search match over indexed rows.
type SectionHit struct {
	DocumentID    string  `json:"document_id"`
	SectionNumber string  `json:"section_number"`
	Label         string  `json:"header_label"`
	Text          string  `json:"body_text"`
	Score         float64 `json:"score"`
}

// EntityNeighbor is one weighted neighbor of an entity in the stored graph.
type EntityNeighbor struct {
	Entity     string `json:"entity"`
	Weight     int    `json:"weight"`
	DocumentID string `json:"document_id"`
}

//Personal.AI order the ending
