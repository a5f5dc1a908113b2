package sim

import (
	"github.com/matzehuels/grephite/pkg/graph"
)

// HasNode reports whether id refers to a live node.
func (w *World) HasNode(id graph.NodeID) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.g.Has(id)
}

// AddNode inserts a node at pos.
func (w *World) AddNode(pos graph.Vec2) graph.NodeID {
	w.mu.Lock()
	defer w.mu.Unlock()
	id := w.g.AddNode(pos)
	w.invalidatePathLocked()
	return id
}

// AddEdge connects two nodes. A nil weight creates an unweighted edge.
func (w *World) AddEdge(from, to graph.NodeID, weight *float64) (graph.EdgeID, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	id, err := w.g.AddEdge(from, to, weight)
	if err != nil {
		return 0, err
	}
	w.invalidatePathLocked()
	return id, nil
}

// DeleteNode removes a node with its edges, layout state and color.
func (w *World) DeleteNode(id graph.NodeID) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.g.RemoveNode(id) {
		return false
	}
	w.engine.Forget(id)
	w.colors.Delete(id)
	if w.pathPending && w.pendingSource == id {
		w.pathPending = false
	}
	if w.dist != nil && id == w.source {
		w.dist = nil
		return true
	}
	w.invalidatePathLocked()
	return true
}

// DeleteEdge removes a single edge.
func (w *World) DeleteEdge(id graph.EdgeID) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.g.RemoveEdge(id) {
		return false
	}
	w.invalidatePathLocked()
	return true
}

// invalidatePathLocked schedules a new search from the current source so the
// shown distances follow structural edits. A request still waiting for its
// tick keeps its own source.
func (w *World) invalidatePathLocked() {
	if w.dist != nil && !w.pathPending {
		w.pendingSource = w.source
		w.pathPending = true
	}
}
