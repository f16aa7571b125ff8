package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/LegisGraph/internal/domain/legislation"
	"github.com/turtacn/LegisGraph/pkg/errors"
)

// ParseVariant validates a configured statistics variant.
func ParseVariant(s string) (legislation.Variant, error) {
	switch v := legislation.Variant(s); v {
	case legislation.VariantClassification, legislation.VariantDensity:
		return v, nil
	case "":
		return legislation.VariantClassification, nil
	}
	return "", errors.New(errors.ErrCodeConfigInvalid, "unknown statistics variant").WithDetail(s)
}

// NewResult builds the result record of doc from its analysis.  A nil
// analysis yields a result without statistics.
func NewResult(doc *legislation.Document, a *Analysis, variant legislation.Variant, status legislation.Status, now time.Time) *legislation.Result {
	r := &legislation.Result{
		ID:         uuid.NewString(),
		DocumentID: doc.ID,
		Title:      doc.Title,
		Date:       ReportingDate(doc),
		Variant:    variant,
		Status:     status,
		Aux:        doc.Aux,
		Cosponsors: len(doc.Cosponsors),
		Hearings:   len(doc.Hearings),
		Referred:   len(doc.Referred),
		Sponsor:    doc.Sponsor,
		ComputedAt: now.UTC(),
	}
	if a == nil {
		return r
	}
	switch variant {
	case legislation.VariantDensity:
		d := a.Density
		r.Edges = d.Edges
		r.TotalNodes = d.TotalNodes
		r.TotalEdges = d.TotalEdges
		r.ObservedEdges = d.ObservedEdges
		r.Density = d.Density
	default:
		c := a.Classification
		r.Edges = c.Edges
		r.TotalNodes = c.TotalNodes
		r.TotalEdges = c.TotalEdges
		r.Clustering = c.Clustering
		r.AverageDegree = c.AverageDegree
	}
	return r
}

// ReportingDate prefers the joined auxiliary date over the document date.
func ReportingDate(doc *legislation.Document) string {
	if doc.Aux != nil && doc.Aux.Date != nil {
		return *doc.Aux.Date
	}
	return doc.Date
}

// ContentHash keys the result cache: it changes whenever the document's
// source content or the requested variant changes.
func ContentHash(doc *legislation.Document, variant legislation.Variant, jurisdiction string) string {
	h := sha256.New()
	h.Write([]byte(jurisdiction))
	h.Write([]byte{0})
	h.Write([]byte(variant))
	h.Write([]byte{0})
	h.Write([]byte(doc.ID))
	h.Write([]byte{0})
	h.Write([]byte(doc.HTML))
	h.Write([]byte{0})
	if len(doc.Sections) > 0 {
		b, _ := json.Marshal(doc.Sections)
		h.Write(b)
	} else if len(doc.Parsed) > 0 {
		b, _ := json.Marshal(doc.Parsed)
		h.Write(b)
	}
	return hex.EncodeToString(h.Sum(nil))
}

//Personal.AI order the ending
