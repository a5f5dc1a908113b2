package graph

import "slices"

// Snapshot is an immutable copy of the graph topology. It is handed to
// scripts at load time so that script-side reads never observe host-side
// edits and need no locking.
type Snapshot struct {
	ids    []NodeID
	labels map[NodeID]int
	adj    map[NodeID][]NodeID
}

// Snapshot copies the current node set and adjacency index.
func (g *Graph) Snapshot() *Snapshot {
	s := &Snapshot{
		ids:    slices.Clone(g.nodeOrder),
		labels: make(map[NodeID]int, len(g.nodes)),
		adj:    make(map[NodeID][]NodeID, len(g.adj)),
	}
	for id, n := range g.nodes {
		s.labels[id] = n.Label
	}
	for id, nbrs := range g.adj {
		s.adj[id] = slices.Clone(nbrs)
	}
	return s
}

// Len returns the number of nodes in the snapshot.
func (s *Snapshot) Len() int { return len(s.ids) }

// NodeIDs returns the node handles in insertion order.
func (s *Snapshot) NodeIDs() []NodeID { return slices.Clone(s.ids) }

// Neighbors returns the neighbors of id, and false if id was not a node when
// the snapshot was taken.
func (s *Snapshot) Neighbors(id NodeID) ([]NodeID, bool) {
	nbrs, ok := s.adj[id]
	if !ok {
		return nil, false
	}
	return slices.Clone(nbrs), true
}

// Label returns the label of id at snapshot time.
func (s *Snapshot) Label(id NodeID) (int, bool) {
	l, ok := s.labels[id]
	return l, ok
}
