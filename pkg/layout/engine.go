package layout

import (
	"math"

	"github.com/matzehuels/grephite/pkg/graph"
)

// Stats summarizes one tick.
type Stats struct {
	Nodes       int     // Nodes moved this tick
	GlobalSpeed float64 // Smoothed global speed after the tick
	Timestep    float64 // Warm-up timestep used for integration
	Swinging    float64 // Degree-weighted global swinging
	Traction    float64 // Degree-weighted global traction
	Skipped     bool    // True when the tick did no work
}

// Engine is a force-directed layout engine. It carries the adaptive speed
// state between ticks, so one Engine should be used per graph.
//
// Engine is not safe for concurrent use.
type Engine struct {
	params Params

	velocity  map[graph.NodeID]graph.Vec2
	prevForce map[graph.NodeID]graph.Vec2
	prevSpeed float64
	timestep  float64 // 0 until the first working tick
}

// New returns an engine with the given parameters.
func New(p Params) *Engine {
	return &Engine{
		params:    p,
		velocity:  make(map[graph.NodeID]graph.Vec2),
		prevForce: make(map[graph.NodeID]graph.Vec2),
	}
}

// Params returns the current parameters.
func (e *Engine) Params() Params { return e.params }

// SetParams replaces the parameters. Adaptive state is kept, so changing
// repulsion or gravity mid-run continues smoothly from the current motion.
func (e *Engine) SetParams(p Params) { e.params = p }

// Velocity returns the stored velocity of a node (zero if none).
func (e *Engine) Velocity(id graph.NodeID) graph.Vec2 { return e.velocity[id] }

// Timestep returns the current warm-up timestep, or 0 before the first tick.
func (e *Engine) Timestep() float64 { return e.timestep }

// Forget drops the per-node state of id.
func (e *Engine) Forget(id graph.NodeID) {
	delete(e.velocity, id)
	delete(e.prevForce, id)
}

// Prune drops per-node state for nodes no longer present in g and returns
// how many entries were removed.
func (e *Engine) Prune(g *graph.Graph) int {
	n := 0
	for id := range e.velocity {
		if !g.Has(id) {
			e.Forget(id)
			n++
		}
	}
	for id := range e.prevForce {
		if !g.Has(id) {
			delete(e.prevForce, id)
		}
	}
	return n
}

// Tick runs one layout iteration over g and moves its nodes.
func (e *Engine) Tick(g *graph.Graph) Stats {
	nodes := g.Nodes()
	if !e.params.Enabled || len(nodes) < 2 {
		return Stats{Nodes: 0, GlobalSpeed: e.prevSpeed, Timestep: e.timestep, Skipped: true}
	}

	if e.timestep == 0 {
		e.timestep = InitialTimestep
	}
	if e.timestep > 1 {
		e.timestep *= TimestepDecay
	}

	index := make(map[graph.NodeID]int, len(nodes))
	pos := make([]graph.Vec2, len(nodes))
	deg := make([]float64, len(nodes))
	for i, n := range nodes {
		index[n.ID] = i
		pos[i] = n.Pos
		deg[i] = float64(g.Degree(n.ID) + 1)
	}

	attraction := e.attraction(g, index, pos)
	force := e.repulsion(pos, deg)
	e.gravity(force, pos, deg)
	for i := range force {
		force[i] = force[i].Sub(attraction[i])
	}

	stats := Stats{Nodes: len(nodes)}
	for i, n := range nodes {
		prev := e.prevForce[n.ID]
		stats.Swinging += deg[i] * force[i].Sub(prev).Len()
		stats.Traction += deg[i] * force[i].Add(prev).Scale(0.5).Len()
	}
	speed := 0.05 + e.prevSpeed*0.5
	if stats.Swinging > minSwinging {
		speed = tractionRatio*(stats.Traction/stats.Swinging)*0.5 + e.prevSpeed*0.5
	}
	speed = min(max(speed, minGlobalSpeed), maxGlobalSpeed)
	e.prevSpeed = speed

	for i, n := range nodes {
		f := force[i]
		swing := e.prevForce[n.ID].Sub(f).Len()
		step := LocalSpeed * speed / (1 + speed*math.Sqrt(swing))
		if l := f.Len(); l > 0 && step*l > MaxDisplacement {
			step = MaxDisplacement / l
		}
		d := f.Scale(step)
		if !d.IsFinite() {
			d = graph.Vec2{}
		}
		e.prevForce[n.ID] = d
		e.velocity[n.ID] = e.velocity[n.ID].Add(d)
	}

	for i, n := range nodes {
		v := e.velocity[n.ID].Scale(Damping)
		e.velocity[n.ID] = v
		g.SetPos(n.ID, pos[i].Add(v.Scale(e.timestep)))
	}

	stats.GlobalSpeed = speed
	stats.Timestep = e.timestep
	return stats
}

// attraction returns the spring accumulator: -delta for the source endpoint
// and +delta for the target endpoint of every edge.
func (e *Engine) attraction(g *graph.Graph, index map[graph.NodeID]int, pos []graph.Vec2) []graph.Vec2 {
	acc := make([]graph.Vec2, len(pos))
	for _, edge := range g.Edges() {
		u, okU := index[edge.From]
		v, okV := index[edge.To]
		if !okU || !okV {
			continue
		}
		delta := pos[v].Sub(pos[u]).Scale(edge.Factor(e.params.WeightExponent))
		acc[u] = acc[u].Sub(delta)
		acc[v] = acc[v].Add(delta)
	}
	return acc
}

func (e *Engine) repulsion(pos []graph.Vec2, deg []float64) []graph.Vec2 {
	acc := make([]graph.Vec2, len(pos))
	if e.params.Bucketed && e.params.IdealEdgeLength > 0 {
		e.repelBucketed(acc, pos, deg)
		return acc
	}
	for a := range pos {
		for b := a + 1; b < len(pos); b++ {
			e.repelPair(acc, pos, deg, a, b)
		}
	}
	return acc
}

// repelPair applies the repulsion between a and b to both accumulators.
func (e *Engine) repelPair(acc, pos []graph.Vec2, deg []float64, a, b int) {
	delta := pos[a].Sub(pos[b])
	dist := max(delta.Len(), minDistance)
	f := delta.Normalize().Scale(e.params.Repulsion * deg[a] * deg[b] / dist)
	acc[a] = acc[a].Add(f)
	acc[b] = acc[b].Sub(f)
}

type cell struct{ x, y int64 }

func (e *Engine) repelBucketed(acc, pos []graph.Vec2, deg []float64) {
	size := 2 * e.params.IdealEdgeLength
	cellOf := func(p graph.Vec2) cell {
		return cell{int64(math.Floor(p.X / size)), int64(math.Floor(p.Y / size))}
	}
	grid := make(map[cell][]int)
	cells := make([]cell, len(pos))
	for i, p := range pos {
		if !p.IsFinite() {
			continue
		}
		c := cellOf(p)
		cells[i] = c
		grid[c] = append(grid[c], i)
	}
	for a, p := range pos {
		if !p.IsFinite() {
			continue
		}
		c := cells[a]
		for dx := int64(-1); dx <= 1; dx++ {
			for dy := int64(-1); dy <= 1; dy++ {
				for _, b := range grid[cell{c.x + dx, c.y + dy}] {
					if b > a {
						e.repelPair(acc, pos, deg, a, b)
					}
				}
			}
		}
	}
}

// gravity pulls each node toward the origin with k_g·(deg+1)·|pos|.
func (e *Engine) gravity(acc, pos []graph.Vec2, deg []float64) {
	if e.params.Gravity == 0 {
		return
	}
	for i, p := range pos {
		pull := p.Normalize().Scale(e.params.Gravity * deg[i] * p.Len())
		acc[i] = acc[i].Sub(pull)
	}
}
