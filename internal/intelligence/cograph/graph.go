package cograph

import (
	"encoding/json"
	"math"
	"sort"

	"github.com/turtacn/LegisGraph/internal/domain/legislation"
	"github.com/turtacn/LegisGraph/pkg/errors"
)

var (
	ErrNullGraph            = errors.Sentinel(errors.ErrCodeNullGraph, "graph has no nodes")
	ErrCentralityNoConverge = errors.Sentinel(errors.ErrCodeCentralityNoConverge, "eigenvector centrality did not converge")
)

// Graph is a weighted undirected simple graph with nodes in insertion
// order.
type Graph struct {
	nodes []string
	index map[string]int
	adj   []map[int]float64
	// neighbor insertion order per node
	order [][]int
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{index: make(map[string]int)}
}

// FromEdges builds a graph from an edge list.
func FromEdges(edges []legislation.Edge) *Graph {
	g := NewGraph()
	for _, e := range edges {
		g.AddEdge(e.Source, e.Target, float64(e.Weight))
	}
	return g
}

// AddNode adds n if it is absent and returns its index.
func (g *Graph) AddNode(n string) int {
	if i, ok := g.index[n]; ok {
		return i
	}
	i := len(g.nodes)
	g.index[n] = i
	g.nodes = append(g.nodes, n)
	g.adj = append(g.adj, make(map[int]float64))
	g.order = append(g.order, nil)
	return i
}

// AddEdge adds or replaces the edge u-v.
func (g *Graph) AddEdge(u, v string, weight float64) {
	i, j := g.AddNode(u), g.AddNode(v)
	if _, ok := g.adj[i][j]; !ok {
		g.order[i] = append(g.order[i], j)
		if i != j {
			g.order[j] = append(g.order[j], i)
		}
	}
	g.adj[i][j] = weight
	g.adj[j][i] = weight
}

// Nodes returns the node names in insertion order.
func (g *Graph) Nodes() []string { return append([]string(nil), g.nodes...) }

// NumNodes returns the number of nodes.
func (g *Graph) NumNodes() int { return len(g.nodes) }

// NumEdges returns the number of distinct edges.
func (g *Graph) NumEdges() int {
	n := 0
	for i, nbrs := range g.adj {
		for j := range nbrs {
			if j >= i {
				n++
			}
		}
	}
	return n
}

// Weight returns the weight of u-v and whether the edge exists.
func (g *Graph) Weight(u, v string) (float64, bool) {
	i, ok1 := g.index[u]
	j, ok2 := g.index[v]
	if !ok1 || !ok2 {
		return 0, false
	}
	w, ok := g.adj[i][j]
	return w, ok
}

// Degree returns the weighted degree of n.  A self-loop counts twice.
func (g *Graph) Degree(n string) float64 {
	i, ok := g.index[n]
	if !ok {
		return 0
	}
	return g.degree(i)
}

func (g *Graph) degree(i int) float64 {
	d := 0.0
	for j, w := range g.adj[i] {
		if j == i {
			d += 2 * w
		} else {
			d += w
		}
	}
	return d
}

func (g *Graph) maxWeight() float64 {
	m := 0.0
	for _, nbrs := range g.adj {
		for _, w := range nbrs {
			m = math.Max(m, w)
		}
	}
	if m == 0 {
		return 1
	}
	return m
}

// ============================================================================
// Statistics
// ============================================================================

// AverageDegree is the mean weighted degree, 0 for an empty graph.
func AverageDegree(g *Graph) float64 {
	if g == nil || g.NumNodes() == 0 {
		return 0
	}
	sum := 0.0
	for i := range g.nodes {
		sum += g.degree(i)
	}
	return sum / float64(g.NumNodes())
}

// Clustering returns the weighted clustering coefficient of every node.
// Edge weights are normalized by the maximum weight and each triangle
// contributes the geometric mean of its three normalized weights.
func Clustering(g *Graph) map[string]float64 {
	out := make(map[string]float64, g.NumNodes())
	maxW := g.maxWeight()
	for i, name := range g.nodes {
		var nbrs []int
		for j := range g.adj[i] {
			if j != i {
				nbrs = append(nbrs, j)
			}
		}
		sort.Ints(nbrs)
		d := len(nbrs)
		if d < 2 {
			out[name] = 0
			continue
		}
		triangles := 0.0
		for a := 0; a < d; a++ {
			j := nbrs[a]
			wij := g.adj[i][j] / maxW
			for b := a + 1; b < d; b++ {
				k := nbrs[b]
				wjk, ok := g.adj[j][k]
				if !ok {
					continue
				}
				triangles += math.Cbrt(wij * (wjk / maxW) * (g.adj[k][i] / maxW))
			}
		}
		out[name] = 2 * triangles / float64(d*(d-1))
	}
	return out
}

// AverageClustering averages Clustering over all nodes, zeros included.
// An empty graph yields 0.
func AverageClustering(g *Graph) float64 {
	if g == nil || g.NumNodes() == 0 {
		return 0
	}
	sum := 0.0
	for _, c := range Clustering(g) {
		sum += c
	}
	return sum / float64(g.NumNodes())
}

// ============================================================================
// Centrality
// ============================================================================

const (
	centralityMaxIter = 100
	centralityTol     = 1e-6
)

// Centrality is one node's eigenvector centrality.
type Centrality struct {
	Entity string  `json:"entity"`
	Score  float64 `json:"score"`
}

// EigenvectorCentrality runs weighted power iteration on A+I from a uniform
// start.  It converges when the L1 change falls below n*1e-6 and gives up
// after 100 iterations.  Results are sorted by descending score, ties by
// name.
func EigenvectorCentrality(g *Graph) ([]Centrality, error) {
	n := 0
	if g != nil {
		n = g.NumNodes()
	}
	if n == 0 {
		return nil, ErrNullGraph
	}

	x := make([]float64, n)
	for i := range x {
		x[i] = 1 / float64(n)
	}
	for iter := 0; iter < centralityMaxIter; iter++ {
		last := x
		x = append([]float64(nil), last...)
		for i := range g.nodes {
			for _, j := range g.order[i] {
				x[j] += last[i] * g.adj[i][j]
			}
		}
		norm := 0.0
		for _, v := range x {
			norm += v * v
		}
		norm = math.Sqrt(norm)
		if norm == 0 {
			norm = 1
		}
		diff := 0.0
		for i := range x {
			x[i] /= norm
			diff += math.Abs(x[i] - last[i])
		}
		if diff < float64(n)*centralityTol {
			return rankCentrality(g.nodes, x), nil
		}
	}
	return nil, ErrCentralityNoConverge.WithDetailf("after %d iterations", centralityMaxIter)
}

func rankCentrality(nodes []string, x []float64) []Centrality {
	out := make([]Centrality, len(nodes))
	for i, name := range nodes {
		out[i] = Centrality{Entity: name, Score: x[i]}
	}
	sort.SliceStable(out, func(a, b int) bool {
		if out[a].Score != out[b].Score {
			return out[a].Score > out[b].Score
		}
		return out[a].Entity < out[b].Entity
	})
	return out
}

// ============================================================================
// Serialization
// ============================================================================

// AdjacencyNode is a node entry of the adjacency document.
type AdjacencyNode struct {
	ID string `json:"id"`
}

// AdjacencyLink is a neighbor entry of the adjacency document.
type AdjacencyLink struct {
	Weight float64 `json:"weight"`
	ID     string  `json:"id"`
}

// Adjacency is the node-link adjacency document used for graph archives.
// Adjacency[i] lists the neighbors of Nodes[i].
type Adjacency struct {
	Directed   bool              `json:"directed"`
	Multigraph bool              `json:"multigraph"`
	Graph      map[string]any    `json:"graph"`
	Nodes      []AdjacencyNode   `json:"nodes"`
	Adjacency  [][]AdjacencyLink `json:"adjacency"`
}

// AdjacencyData converts g to its adjacency document.
func AdjacencyData(g *Graph) Adjacency {
	out := Adjacency{Graph: map[string]any{}, Nodes: []AdjacencyNode{}, Adjacency: [][]AdjacencyLink{}}
	if g == nil {
		return out
	}
	for i, name := range g.nodes {
		out.Nodes = append(out.Nodes, AdjacencyNode{ID: name})
		links := make([]AdjacencyLink, 0, len(g.order[i]))
		for _, j := range g.order[i] {
			links = append(links, AdjacencyLink{Weight: g.adj[i][j], ID: g.nodes[j]})
		}
		out.Adjacency = append(out.Adjacency, links)
	}
	return out
}

// MarshalAdjacency encodes g as adjacency JSON.  A nil or empty graph
// encodes to an empty payload.
func MarshalAdjacency(g *Graph) ([]byte, error) {
	if g == nil || g.NumNodes() == 0 {
		return []byte{}, nil
	}
	b, err := json.Marshal(AdjacencyData(g))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "marshal adjacency")
	}
	return b, nil
}

// UnmarshalAdjacency rebuilds a graph from adjacency JSON.  An empty payload
// yields an empty graph.
func UnmarshalAdjacency(data []byte) (*Graph, error) {
	g := NewGraph()
	if len(data) == 0 {
		return g, nil
	}
	var doc Adjacency
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "unmarshal adjacency")
	}
	if len(doc.Adjacency) != len(doc.Nodes) {
		return nil, errors.New(errors.ErrCodeSerialization, "adjacency length does not match nodes")
	}
	for _, n := range doc.Nodes {
		g.AddNode(n.ID)
	}
	for i, links := range doc.Adjacency {
		for _, l := range links {
			g.AddEdge(doc.Nodes[i].ID, l.ID, l.Weight)
		}
	}
	return g, nil
}

//Personal.AI order the ending
