package colormap

import (
	"maps"

	"github.com/matzehuels/grephite/pkg/graph"
)

// Map stores the current display color of each node. Nodes without an
// entry are shown in the map's default color.
//
// Map has a single writer (command application) and is not safe for
// concurrent use without external synchronization.
type Map struct {
	colors map[graph.NodeID]Color
	def    Color
}

// New creates an empty map whose default color is def.
func New(def Color) *Map {
	return &Map{colors: make(map[graph.NodeID]Color), def: def}
}

// Default returns the neutral color.
func (m *Map) Default() Color { return m.def }

// Get returns the color of id, or the default if none was set.
func (m *Map) Get(id graph.NodeID) Color {
	if c, ok := m.colors[id]; ok {
		return c
	}
	return m.def
}

// Set assigns c to id.
func (m *Map) Set(id graph.NodeID, c Color) { m.colors[id] = c }

// Reset writes the default color for id. Resetting twice is the same as
// resetting once.
func (m *Map) Reset(id graph.NodeID) { m.colors[id] = m.def }

// Delete drops the entry of a removed node.
func (m *Map) Delete(id graph.NodeID) { delete(m.colors, id) }

// Len returns the number of explicit entries.
func (m *Map) Len() int { return len(m.colors) }

// All returns a copy of the explicit entries.
func (m *Map) All() map[graph.NodeID]Color { return maps.Clone(m.colors) }
