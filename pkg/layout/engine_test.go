package layout

import (
	"math"
	"testing"

	"github.com/matzehuels/grephite/pkg/graph"
)

func pair(t *testing.T) (*graph.Graph, graph.NodeID, graph.NodeID) {
	t.Helper()
	g := graph.New()
	a := g.AddNode(graph.Vec2{X: -5})
	b := g.AddNode(graph.Vec2{X: 5})
	if _, err := g.AddEdge(a, b, nil); err != nil {
		t.Fatalf("AddEdge: %v", err)
	}
	return g, a, b
}

func dist(g *graph.Graph, a, b graph.NodeID) float64 {
	na, _ := g.Node(a)
	nb, _ := g.Node(b)
	return na.Pos.Sub(nb.Pos).Len()
}

func TestTwoNodesConverge(t *testing.T) {
	tests := []struct {
		name      string
		repulsion float64
		gravity   float64
		want      float64
	}{
		{"no gravity", 50, 0, math.Sqrt(4 * 50)},
		{"defaults", 5000, 0.2, math.Sqrt(4 * 5000 / 1.2)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, a, b := pair(t)
			p := DefaultParams()
			p.Repulsion, p.Gravity = tt.repulsion, tt.gravity
			e := New(p)

			var prev float64
			for range 1500 {
				e.Tick(g)
				prev = dist(g, a, b)
			}
			e.Tick(g)
			d := dist(g, a, b)

			if math.Abs(d-tt.want) > 1e-2 {
				t.Errorf("distance = %v, want %v", d, tt.want)
			}
			if math.Abs(d-prev) > 1e-4 {
				t.Errorf("distance still moving: %v -> %v", prev, d)
			}
		})
	}
}

func TestSymmetricPairStaysCentered(t *testing.T) {
	g, a, b := pair(t)
	e := New(DefaultParams())
	for range 200 {
		e.Tick(g)
	}
	na, _ := g.Node(a)
	nb, _ := g.Node(b)
	mid := na.Pos.Add(nb.Pos)
	if mid.Len() > 1e-9 {
		t.Errorf("midpoint drifted to %v", mid)
	}
	if na.Pos.Y != 0 || nb.Pos.Y != 0 {
		t.Errorf("nodes left the x axis: %v %v", na.Pos, nb.Pos)
	}
}

func TestTimestepWarmup(t *testing.T) {
	g, _, _ := pair(t)
	e := New(DefaultParams())

	if got := e.Timestep(); got != 0 {
		t.Errorf("Timestep before first tick = %v, want 0", got)
	}
	s := e.Tick(g)
	if s.Timestep != 16 {
		t.Errorf("first Timestep = %v, want 16", s.Timestep)
	}
	for range 100 {
		s = e.Tick(g)
	}
	if s.Timestep > 1 || s.Timestep < 0.8 {
		t.Errorf("steady Timestep = %v, want in [0.8, 1]", s.Timestep)
	}
	if math.Abs(s.Timestep-0.8796093022208006) > 1e-12 {
		t.Errorf("steady Timestep = %v, want 0.8796093022208006", s.Timestep)
	}
}

func TestGlobalSpeedClamped(t *testing.T) {
	g, _, _ := pair(t)
	e := New(DefaultParams())
	for i := range 300 {
		s := e.Tick(g)
		if s.GlobalSpeed < minGlobalSpeed || s.GlobalSpeed > maxGlobalSpeed {
			t.Fatalf("tick %d: GlobalSpeed = %v out of range", i, s.GlobalSpeed)
		}
	}
}

func TestCoincidentNodesStayFinite(t *testing.T) {
	g := graph.New()
	a := g.AddNode(graph.Vec2{})
	b := g.AddNode(graph.Vec2{})
	c := g.AddNode(graph.Vec2{})
	if _, err := g.AddEdge(a, b, nil); err != nil {
		t.Fatal(err)
	}
	e := New(DefaultParams())
	for range 50 {
		e.Tick(g)
	}
	for _, id := range []graph.NodeID{a, b, c} {
		n, _ := g.Node(id)
		if !n.Pos.IsFinite() {
			t.Errorf("node %d position = %v, want finite", id, n.Pos)
		}
		if v := e.Velocity(id); !v.IsFinite() {
			t.Errorf("node %d velocity = %v, want finite", id, v)
		}
	}
}

func TestTickNoWork(t *testing.T) {
	t.Run("single node", func(t *testing.T) {
		g := graph.New()
		a := g.AddNode(graph.Vec2{X: 3, Y: 4})
		e := New(DefaultParams())
		s := e.Tick(g)
		if !s.Skipped {
			t.Error("Skipped = false, want true")
		}
		if n, _ := g.Node(a); n.Pos != (graph.Vec2{X: 3, Y: 4}) {
			t.Errorf("Pos = %v, want unchanged", n.Pos)
		}
		if e.Timestep() != 0 {
			t.Errorf("Timestep = %v, want 0", e.Timestep())
		}
	})

	t.Run("disabled", func(t *testing.T) {
		g, a, _ := pair(t)
		p := DefaultParams()
		p.Enabled = false
		e := New(p)
		if s := e.Tick(g); !s.Skipped {
			t.Error("Skipped = false, want true")
		}
		if n, _ := g.Node(a); n.Pos != (graph.Vec2{X: -5}) {
			t.Errorf("Pos = %v, want unchanged", n.Pos)
		}
	})

	t.Run("empty", func(t *testing.T) {
		if s := New(DefaultParams()).Tick(graph.New()); !s.Skipped {
			t.Error("Skipped = false, want true")
		}
	})
}

func TestWeightedEdgePullsHarder(t *testing.T) {
	run := func(w *float64) float64 {
		g := graph.New()
		a := g.AddNode(graph.Vec2{X: -5})
		b := g.AddNode(graph.Vec2{X: 5})
		if _, err := g.AddEdge(a, b, w); err != nil {
			t.Fatal(err)
		}
		p := DefaultParams()
		p.Gravity = 0
		p.WeightExponent = 1
		e := New(p)
		for range 1500 {
			e.Tick(g)
		}
		return dist(g, a, b)
	}
	heavy := 4.0
	plain := run(nil)
	weighted := run(&heavy)
	if weighted >= plain {
		t.Errorf("weighted distance %v, want < unweighted %v", weighted, plain)
	}
}

func TestPruneStaleState(t *testing.T) {
	g := graph.New()
	a := g.AddNode(graph.Vec2{X: -5})
	b := g.AddNode(graph.Vec2{X: 5})
	c := g.AddNode(graph.Vec2{Y: 5})
	e := New(DefaultParams())
	e.Tick(g)

	g.RemoveNode(c)
	e.Tick(g) // stale entry for c must be tolerated
	if got := e.Prune(g); got != 1 {
		t.Errorf("Prune = %d, want 1", got)
	}
	if v := e.Velocity(c); v != (graph.Vec2{}) {
		t.Errorf("Velocity(c) = %v, want zero", v)
	}
	if e.Velocity(a) == (graph.Vec2{}) && e.Velocity(b) == (graph.Vec2{}) {
		t.Error("live nodes lost their velocity")
	}
}

func TestBucketedMatchesExactForClosePair(t *testing.T) {
	exact, a1, b1 := pair(t)
	bucketed, a2, b2 := pair(t)

	p := DefaultParams()
	e1 := New(p)
	p.Bucketed = true
	p.IdealEdgeLength = 1000
	e2 := New(p)
	for range 100 {
		e1.Tick(exact)
		e2.Tick(bucketed)
	}
	d1, d2 := dist(exact, a1, b1), dist(bucketed, a2, b2)
	if math.Abs(d1-d2) > 1e-9 {
		t.Errorf("bucketed distance = %v, want %v", d2, d1)
	}
}

func TestBucketedIgnoresDistantPairs(t *testing.T) {
	g := graph.New()
	a := g.AddNode(graph.Vec2{X: -1000})
	b := g.AddNode(graph.Vec2{X: 1000})
	p := DefaultParams()
	p.Gravity = 0
	p.Bucketed = true
	p.IdealEdgeLength = 10
	e := New(p)
	e.Tick(g)
	if d := dist(g, a, b); d != 2000 {
		t.Errorf("distance = %v, want 2000 (no interaction)", d)
	}
}

func TestSetParamsKeepsState(t *testing.T) {
	g, a, _ := pair(t)
	e := New(DefaultParams())
	e.Tick(g)
	v := e.Velocity(a)

	p := e.Params()
	p.Repulsion = 10
	e.SetParams(p)
	if e.Params().Repulsion != 10 {
		t.Errorf("Repulsion = %v, want 10", e.Params().Repulsion)
	}
	if e.Velocity(a) != v {
		t.Errorf("Velocity changed by SetParams: %v -> %v", v, e.Velocity(a))
	}
}
