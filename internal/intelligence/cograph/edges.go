package cograph

import (
	"github.com/turtacn/LegisGraph/internal/domain/legislation"
)

type pairKey struct{ a, b string }

// BuildEdges accumulates co-occurrence weights.  Every chunk with at least
// two distinct entities adds min(count in chunk) to each pair of its
// distinct entities.  An unordered pair keeps the orientation in which it
// was first seen, and edges are returned in first-seen order.
func BuildEdges(chunks [][]string) []legislation.Edge {
	index := make(map[pairKey]int)
	var edges []legislation.Edge

	for _, chunk := range chunks {
		freq := CountFrequencies(chunk)
		if freq.Len() < 2 {
			continue
		}
		keys := freq.Keys()
		for i := 0; i < len(keys); i++ {
			for j := i + 1; j < len(keys); j++ {
				e1, e2 := keys[i], keys[j]
				w := min(freq.Count(e1), freq.Count(e2))
				if k, ok := index[pairKey{e1, e2}]; ok {
					edges[k].Weight += w
				} else if k, ok := index[pairKey{e2, e1}]; ok {
					edges[k].Weight += w
				} else {
					index[pairKey{e1, e2}] = len(edges)
					edges = append(edges, legislation.Edge{Source: e1, Target: e2, Weight: w})
				}
			}
		}
	}
	return edges
}

// SumWeights returns the total weight of edges.
func SumWeights(edges []legislation.Edge) int {
	n := 0
	for _, e := range edges {
		n += e.Weight
	}
	return n
}

// DensityStats is the density variant of a document's statistics.  All
// fields are nil when the document has no entities.
type DensityStats struct {
	Edges         []legislation.Edge
	TotalNodes    *int
	TotalEdges    *int
	ObservedEdges *int
	Density       *float64
}

// Density computes observed over total co-occurrence weight.  With entities
// but zero capacity the density is exactly 1.
func Density(chunks [][]string) DensityStats {
	global := CountChunks(chunks)
	if global.Empty() {
		return DensityStats{}
	}
	chunks = Retain(chunks, global)

	total := TotalEdgeCount(global)
	observed := ObservedEdgeCount(chunks)
	density := 1.0
	if total > 0 {
		density = float64(observed) / float64(total)
	}
	nodes := global.Len()
	return DensityStats{
		Edges:         BuildEdges(chunks),
		TotalNodes:    &nodes,
		TotalEdges:    &total,
		ObservedEdges: &observed,
		Density:       &density,
	}
}

// Classification is the graph-statistics variant.  All fields are nil when
// the document has no entities.
type Classification struct {
	Edges         []legislation.Edge
	Graph         *Graph
	TotalNodes    *int
	TotalEdges    *int
	AverageDegree *float64
	Clustering    *float64
}

// Classify builds the weighted graph of chunks and its statistics: distinct
// entity count, summed edge weight, mean weighted degree and average
// weighted clustering with zero-clustering nodes included.
func Classify(chunks [][]string) Classification {
	global := CountChunks(chunks)
	if global.Empty() {
		return Classification{}
	}
	chunks = Retain(chunks, global)

	edges := BuildEdges(chunks)
	g := FromEdges(edges)

	nodes := global.Len()
	totalEdges := SumWeights(edges)
	degree := AverageDegree(g)
	clustering := AverageClustering(g)
	return Classification{
		Edges:         edges,
		Graph:         g,
		TotalNodes:    &nodes,
		TotalEdges:    &totalEdges,
		AverageDegree: &degree,
		Clustering:    &clustering,
	}
}

//Personal.AI order the ending
