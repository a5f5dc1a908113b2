package graph

import (
	"errors"
	"math"
	"slices"
)

var (
	// ErrUnknownNode is returned by [Graph.AddEdge] when either endpoint
	// does not exist in the graph.
	ErrUnknownNode = errors.New("unknown node")

	// ErrDuplicateLabel is returned by [Graph.AddLabeledNode] when a node with
	// the same label already exists. Labels identify nodes in edge lists and
	// must be unique.
	ErrDuplicateLabel = errors.New("duplicate node label")

	// ErrInvalidWeight is returned by [Graph.AddEdge] when a weight is present
	// but is not a positive finite number.
	ErrInvalidWeight = errors.New("edge weight must be positive and finite")

	// ErrInconsistentAdjacency is returned by [Graph.Validate] when the
	// adjacency index disagrees with the edge set.
	ErrInconsistentAdjacency = errors.New("adjacency index inconsistent with edge set")

	// ErrDanglingEdge is returned by [Graph.Validate] when an edge references
	// a node that no longer exists.
	ErrDanglingEdge = errors.New("edge references missing node")
)

// NodeID is an opaque, stable node handle. Handles are never reused within
// a graph, so a handle held across a deletion simply stops resolving.
type NodeID uint64

// EdgeID is an opaque, stable edge handle.
type EdgeID uint64

// Node is a graph vertex.
type Node struct {
	ID    NodeID
	Label int  // Numeric label assigned at creation (edge-list id)
	Pos   Vec2 // Current position, mutated by the layout engine
}

// Edge is an undirected connection between two nodes with an optional weight.
type Edge struct {
	ID       EdgeID
	From     NodeID
	To       NodeID
	Weight   float64 // Only meaningful when Weighted is true
	Weighted bool
}

// Cost returns the edge length used for shortest paths: the stored weight,
// or 1 for unweighted edges.
func (e Edge) Cost() float64 {
	if e.Weighted {
		return e.Weight
	}
	return 1
}

// Factor returns weight^k, the multiplier applied to the attraction along
// this edge. Unweighted edges return the neutral multiplier 1.
func (e Edge) Factor(k float64) float64 {
	if e.Weighted {
		return math.Pow(e.Weight, k)
	}
	return 1
}

// Other returns the endpoint of e opposite to id.
func (e Edge) Other(id NodeID) NodeID {
	if e.From == id {
		return e.To
	}
	return e.From
}

// Graph is an undirected multigraph with insertion-ordered nodes and edges.
//
// Every edge insertion or removal updates both the edge set and the
// adjacency index in both directions, so that each edge (u, v) contributes
// exactly one v to adj[u] and one u to adj[v]. Self-loops contribute two
// entries to adj[u].
//
// The zero value is not usable - use New to create a Graph.
// Graph is not safe for concurrent use without external synchronization.
type Graph struct {
	nodes     map[NodeID]*Node
	nodeOrder []NodeID
	labels    map[int]NodeID
	edges     map[EdgeID]*Edge
	edgeOrder []EdgeID
	adj       map[NodeID][]NodeID

	nextNode  NodeID
	nextEdge  EdgeID
	lastLabel int
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodes:  make(map[NodeID]*Node),
		labels: make(map[int]NodeID),
		edges:  make(map[EdgeID]*Edge),
		adj:    make(map[NodeID][]NodeID),
	}
}

// AddNode inserts a node at pos with the next free label (one more than the
// largest label seen so far) and returns its handle.
func (g *Graph) AddNode(pos Vec2) NodeID {
	id, _ := g.AddLabeledNode(g.lastLabel+1, pos)
	return id
}

// AddLabeledNode inserts a node with an explicit label. It returns
// ErrDuplicateLabel if the label is taken; use [Graph.NodeByLabel] to map
// repeated ids onto the existing node.
func (g *Graph) AddLabeledNode(label int, pos Vec2) (NodeID, error) {
	if _, exists := g.labels[label]; exists {
		return 0, ErrDuplicateLabel
	}
	g.nextNode++
	id := g.nextNode
	g.nodes[id] = &Node{ID: id, Label: label, Pos: pos}
	g.nodeOrder = append(g.nodeOrder, id)
	g.labels[label] = id
	g.adj[id] = nil
	g.lastLabel = max(g.lastLabel, label)
	return id, nil
}

// AddEdge connects from and to. A nil weight creates an unweighted edge.
// Parallel edges and self-loops are allowed.
func (g *Graph) AddEdge(from, to NodeID, weight *float64) (EdgeID, error) {
	if !g.Has(from) || !g.Has(to) {
		return 0, ErrUnknownNode
	}
	e := &Edge{From: from, To: to}
	if weight != nil {
		w := *weight
		if !(w > 0) || math.IsInf(w, 0) {
			return 0, ErrInvalidWeight
		}
		e.Weight, e.Weighted = w, true
	}
	g.nextEdge++
	e.ID = g.nextEdge
	g.edges[e.ID] = e
	g.edgeOrder = append(g.edgeOrder, e.ID)
	g.adj[from] = append(g.adj[from], to)
	g.adj[to] = append(g.adj[to], from)
	return e.ID, nil
}

// RemoveEdge deletes the edge and one matching entry from each endpoint's
// adjacency list. It reports whether the edge existed.
func (g *Graph) RemoveEdge(id EdgeID) bool {
	e, ok := g.edges[id]
	if !ok {
		return false
	}
	delete(g.edges, id)
	g.edgeOrder = slices.DeleteFunc(g.edgeOrder, func(x EdgeID) bool { return x == id })
	g.adj[e.From] = removeOne(g.adj[e.From], e.To)
	g.adj[e.To] = removeOne(g.adj[e.To], e.From)
	return true
}

// RemoveNode deletes the node together with every incident edge and every
// adjacency entry that references it. It reports whether the node existed.
func (g *Graph) RemoveNode(id NodeID) bool {
	n, ok := g.nodes[id]
	if !ok {
		return false
	}
	for _, eid := range slices.Clone(g.edgeOrder) {
		if e := g.edges[eid]; e.From == id || e.To == id {
			g.RemoveEdge(eid)
		}
	}
	delete(g.adj, id)
	delete(g.nodes, id)
	delete(g.labels, n.Label)
	g.nodeOrder = slices.DeleteFunc(g.nodeOrder, func(x NodeID) bool { return x == id })
	return true
}

func removeOne(s []NodeID, v NodeID) []NodeID {
	if i := slices.Index(s, v); i >= 0 {
		return slices.Delete(s, i, i+1)
	}
	return s
}

// Has reports whether id refers to a live node.
func (g *Graph) Has(id NodeID) bool {
	_, ok := g.nodes[id]
	return ok
}

// Node returns the node with the given handle. The returned pointer refers to
// the node stored in the graph.
func (g *Graph) Node(id NodeID) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// NodeByLabel returns the handle of the node carrying label.
func (g *Graph) NodeByLabel(label int) (NodeID, bool) {
	id, ok := g.labels[label]
	return id, ok
}

// Nodes returns all nodes in insertion order.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, len(g.nodeOrder))
	for i, id := range g.nodeOrder {
		out[i] = g.nodes[id]
	}
	return out
}

// NodeIDs returns all node handles in insertion order.
func (g *Graph) NodeIDs() []NodeID { return slices.Clone(g.nodeOrder) }

// Edges returns a copy of all edges in insertion order.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, len(g.edgeOrder))
	for i, id := range g.edgeOrder {
		out[i] = *g.edges[id]
	}
	return out
}

// Edge returns a copy of the edge with the given handle.
func (g *Graph) Edge(id EdgeID) (Edge, bool) {
	e, ok := g.edges[id]
	if !ok {
		return Edge{}, false
	}
	return *e, true
}

// Neighbors returns the adjacency entry for id. The slice is a read-only
// view and must not be modified.
func (g *Graph) Neighbors(id NodeID) []NodeID { return g.adj[id] }

// Degree returns the number of edge endpoints at id (self-loops count twice).
func (g *Graph) Degree(id NodeID) int { return len(g.adj[id]) }

// NodeCount returns the number of live nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of live edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// SetPos moves a node. Unknown handles are ignored.
func (g *Graph) SetPos(id NodeID, p Vec2) {
	if n, ok := g.nodes[id]; ok {
		n.Pos = p
	}
}

// Validate checks that the adjacency index matches the edge set: every edge
// endpoint exists and each adjacency multiset is exactly the multiset of
// opposite endpoints of its incident edges.
func (g *Graph) Validate() error {
	want := make(map[NodeID]map[NodeID]int, len(g.nodes))
	for id := range g.nodes {
		want[id] = make(map[NodeID]int)
	}
	for _, e := range g.edges {
		if !g.Has(e.From) || !g.Has(e.To) {
			return ErrDanglingEdge
		}
		want[e.From][e.To]++
		want[e.To][e.From]++
	}
	if len(g.adj) != len(g.nodes) {
		return ErrInconsistentAdjacency
	}
	for id, nbrs := range g.adj {
		counts, ok := want[id]
		if !ok {
			return ErrInconsistentAdjacency
		}
		got := make(map[NodeID]int, len(nbrs))
		for _, n := range nbrs {
			got[n]++
		}
		if len(got) != len(counts) {
			return ErrInconsistentAdjacency
		}
		for n, c := range counts {
			if got[n] != c {
				return ErrInconsistentAdjacency
			}
		}
	}
	return nil
}
