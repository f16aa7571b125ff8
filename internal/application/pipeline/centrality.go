package pipeline

import (
	"context"

	"github.com/turtacn/LegisGraph/internal/domain/legislation"
	"github.com/turtacn/LegisGraph/internal/intelligence/cograph"
)

// CentralityReport ranks the entities of one document.
type CentralityReport struct {
	DocumentID string               `json:"document_id"`
	Ranking    []cograph.Centrality `json:"ranking"`
	Clustering float64              `json:"clustering"`
	Edges      []legislation.Edge   `json:"edges"`
}

// CentralityReport analyzes doc and ranks its entities by weighted
// eigenvector centrality.  A document without entities fails with
// cograph.ErrNullGraph.
func (a *Analyzer) CentralityReport(ctx context.Context, doc *legislation.Document) (*CentralityReport, error) {
	an, err := a.Analyze(ctx, doc)
	if err != nil {
		return nil, err
	}
	g := an.Classification.Graph
	if g == nil {
		g = cograph.NewGraph()
	}
	ranking, err := cograph.EigenvectorCentrality(g)
	if err != nil {
		return nil, err
	}
	return &CentralityReport{
		DocumentID: doc.ID,
		Ranking:    ranking,
		Clustering: cograph.AverageClustering(g),
		Edges:      an.Classification.Edges,
	}, nil
}

//Personal.AI order the ending
