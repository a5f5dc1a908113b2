package sim

import (
	"math"

	"github.com/matzehuels/grephite/pkg/colormap"
	"github.com/matzehuels/grephite/pkg/graph"
	"github.com/matzehuels/grephite/pkg/pathfind"
	"github.com/matzehuels/grephite/pkg/script"
)

// NodeView is the render-facing state of one node.
type NodeView struct {
	ID    graph.NodeID   `json:"id"`
	Label int            `json:"label"`
	Pos   graph.Vec2     `json:"pos"`
	Color colormap.Color `json:"color"`
	// Distance from the path source. Nil when there is no path result or
	// the node is unreachable; see Reachable.
	Distance  *float64 `json:"distance,omitempty"`
	Reachable bool     `json:"reachable"`
}

// EdgeView is the render-facing state of one edge.
type EdgeView struct {
	ID       graph.EdgeID `json:"id"`
	From     graph.NodeID `json:"from"`
	To       graph.NodeID `json:"to"`
	Weight   float64      `json:"weight,omitempty"`
	Weighted bool         `json:"weighted"`
}

// Frame is a read-only copy of everything a renderer needs.
type Frame struct {
	Tick    uint64       `json:"tick"`
	Nodes   []NodeView   `json:"nodes"`
	Edges   []EdgeView   `json:"edges"`
	HasPath bool         `json:"has_path"`
	Source  graph.NodeID `json:"source,omitempty"`
	// MaxDistance is the largest finite distance of the path result.
	MaxDistance float64 `json:"max_distance,omitempty"`

	Script       script.State       `json:"-"`
	ScriptName   string             `json:"script,omitempty"`
	ScriptStatus string             `json:"script_state"`
	Running      bool               `json:"running"`
	Speed        float64            `json:"speed"`
	Physics      bool               `json:"physics"`
	Distances    pathfind.Distances `json:"-"`
}

// View copies the current positions, colors and distances.
func (w *World) View() Frame {
	w.mu.Lock()
	defer w.mu.Unlock()

	f := Frame{
		Tick:    w.ticks,
		HasPath: w.dist != nil,
		Physics: w.engine.Params().Enabled,
	}
	if f.HasPath {
		f.Source = w.source
		f.MaxDistance = w.dist.MaxFinite()
		f.Distances = make(pathfind.Distances, len(w.dist))
	}

	nodes := w.g.Nodes()
	f.Nodes = make([]NodeView, 0, len(nodes))
	for _, n := range nodes {
		v := NodeView{ID: n.ID, Label: n.Label, Pos: n.Pos, Color: w.colors.Get(n.ID)}
		if f.HasPath {
			d, ok := w.dist[n.ID]
			if !ok {
				d = math.Inf(1) // added after the search
			}
			f.Distances[n.ID] = d
			if !math.IsInf(d, 1) {
				v.Distance = &d
				v.Reachable = true
			}
		}
		f.Nodes = append(f.Nodes, v)
	}
	for _, e := range w.g.Edges() {
		f.Edges = append(f.Edges, EdgeView{ID: e.ID, From: e.From, To: e.To, Weight: e.Weight, Weighted: e.Weighted})
	}

	f.Script = w.host.State()
	f.ScriptStatus = f.Script.String()
	if s, ok := w.host.Session(); ok {
		f.ScriptName = s.Name
	}
	f.Running = w.host.Running()
	f.Speed = w.host.Speed()
	return f
}
