// Package jurisdiction binds a header grammar, a parse policy, a chunking
// rule and an entity lexicon for one legislative corpus.
package jurisdiction

import (
	"github.com/turtacn/LegisGraph/internal/domain/legislation"
	"github.com/turtacn/LegisGraph/internal/intelligence/entity"
	"github.com/turtacn/LegisGraph/internal/intelligence/hierarchy"
	"github.com/turtacn/LegisGraph/pkg/errors"
)

// Kind enumerates the supported jurisdictions.
type Kind string

const (
	KindUSAnnual       Kind = "us_annual"
	KindUSConsolidated Kind = "us_consolidated"
)

// Kinds lists every supported Kind.
func Kinds() []Kind {
	return []Kind{KindUSAnnual, KindUSConsolidated}
}

// ErrUnknownJurisdiction is returned for an unsupported Kind.
var ErrUnknownJurisdiction = errors.Sentinel(errors.ErrCodeUnknownJurisdiction, "unknown jurisdiction")

// ParseKind validates a configured jurisdiction name.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds() {
		if string(k) == s {
			return k, nil
		}
	}
	return "", ErrUnknownJurisdiction.WithDetail(s)
}

// Jurisdiction is the per-corpus policy consumed by the pipeline.
type Jurisdiction interface {
	// Kind identifies the jurisdiction.
	Kind() Kind
	// HeaderGrammar returns the compiled header grammar, or nil when the
	// corpus arrives already split into sections.
	HeaderGrammar() *hierarchy.CompiledGrammar
	// Parse produces the flattened rows of doc.  A nil slice with a nil
	// error is a legitimately empty document.
	Parse(doc *legislation.Document) ([]legislation.Row, error)
	// Chunks groups doc into the text units over which co-occurrence is
	// measured.
	Chunks(doc *legislation.Document) []string
	// ProcessEntity normalizes and filters one candidate span.
	ProcessEntity(tokens []string) (string, bool)
	// Lexicon returns the entity word lists.
	Lexicon() *entity.Lexicon
}

// New returns the Jurisdiction for kind.
func New(kind Kind) (Jurisdiction, error) {
	switch kind {
	case KindUSAnnual:
		return NewUSAnnual(), nil
	case KindUSConsolidated:
		return NewUSConsolidated(), nil
	}
	return nil, ErrUnknownJurisdiction.WithDetail(string(kind))
}

// FromName is ParseKind followed by New.
func FromName(name string) (Jurisdiction, error) {
	kind, err := ParseKind(name)
	if err != nil {
		return nil, err
	}
	return New(kind)
}

//Personal.AI order the ending
