package render

import (
	"math"
	"strings"
	"testing"

	"github.com/matzehuels/grephite/pkg/colormap"
	"github.com/matzehuels/grephite/pkg/graph"
	"github.com/matzehuels/grephite/pkg/pathfind"
	"github.com/matzehuels/grephite/pkg/sim"
)

func frame(withPath bool) sim.Frame {
	red := colormap.MustParseHex("#ff0000")
	f := sim.Frame{
		Nodes: []sim.NodeView{
			{ID: 1, Label: 10, Pos: graph.Vec2{X: 1.5, Y: 2}, Color: red},
			{ID: 2, Label: 20, Pos: graph.Vec2{X: -3, Y: 0}, Color: colormap.Base},
			{ID: 3, Label: 30, Pos: graph.Vec2{}, Color: colormap.Base},
		},
		Edges: []sim.EdgeView{
			{ID: 1, From: 1, To: 2, Weight: 2.5, Weighted: true},
			{ID: 2, From: 2, To: 2},
		},
	}
	if withPath {
		f.HasPath = true
		f.Source = 1
		f.MaxDistance = 2.5
		f.Distances = pathfind.Distances{1: 0, 2: 2.5, 3: math.Inf(1)}
	}
	return f
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(frame(false), Options{Labels: true, Weights: true})

	for _, want := range []string{
		"graph G {",
		"layout=neato;",
		`n1 [pos="1.5,-2!", fillcolor="#ff0000", label="10"];`,
		`n2 [pos="-3,0!", fillcolor="#000000", label="20"];`,
		`n1 -- n2 [label="2.5"];`,
		"n2 -- n2;",
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q\n%s", want, dot)
		}
	}
	if strings.Contains(dot, "->") {
		t.Error("DOT should be undirected")
	}
}

func TestToDOTScaleAndNoLabels(t *testing.T) {
	dot := ToDOT(frame(false), Options{Scale: 2})
	if !strings.Contains(dot, `n1 [pos="3,-4!", fillcolor="#ff0000"];`) {
		t.Errorf("unexpected node line\n%s", dot)
	}
	if strings.Contains(dot, `label="2.5"`) {
		t.Error("weights printed without Weights option")
	}
}

func TestToDOTDistanceColors(t *testing.T) {
	f := frame(true)
	dot := ToDOT(f, Options{Labels: true})
	for _, want := range []string{
		`fillcolor="` + Near.Hex() + `", label="10", penwidth=3`,
		`fillcolor="` + Far.Hex() + `", label="20"`,
		`fillcolor="` + Unreachable.Hex() + `", label="30"`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q\n%s", want, dot)
		}
	}

	mapped := ToDOT(f, Options{Mode: ColorMap})
	if !strings.Contains(mapped, `fillcolor="#ff0000"`) {
		t.Errorf("ColorMap mode ignored the color map\n%s", mapped)
	}
}

func TestFillColor(t *testing.T) {
	tests := []struct {
		name string
		path bool
		mode ColorMode
		want colormap.Color
	}{
		{"auto without path", false, ColorAuto, colormap.MustParseHex("#ff0000")},
		{"auto with path", true, ColorAuto, Near},
		{"map with path", true, ColorMap, colormap.MustParseHex("#ff0000")},
		{"distance without path", false, ColorDistance, colormap.MustParseHex("#ff0000")},
		{"distance with path", true, ColorDistance, Near},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FillColor(frame(tt.path), 0, tt.mode); got != tt.want {
				t.Errorf("FillColor = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDistanceGradient(t *testing.T) {
	tests := []struct {
		name    string
		d, maxD float64
		want    colormap.Color
	}{
		{"source", 0, 10, Near},
		{"farthest", 10, 10, Far},
		{"beyond max clamps", 20, 10, Far},
		{"infinite", math.Inf(1), 10, Unreachable},
		{"nan", math.NaN(), 10, Unreachable},
		{"zero max", 0, 0, Near},
		{"midpoint", 5, 10, Near.Lerp(Far, 0.5)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DistanceGradient(tt.d, tt.maxD); got != tt.want {
				t.Errorf("DistanceGradient(%v, %v) = %v, want %v", tt.d, tt.maxD, got, tt.want)
			}
		})
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="100pt" height="50pt" viewBox="0.00 0.00 100.00 50.00" xmlns="x"><g/></svg>`)
	out := string(normalizeViewBox(in))
	if !strings.Contains(out, `viewBox="0 0 100.00 50.00" width="100" height="50"`) {
		t.Errorf("normalizeViewBox = %s", out)
	}
	if got := normalizeViewBox([]byte("<svg>")); string(got) != "<svg>" {
		t.Errorf("no viewBox should pass through, got %s", got)
	}
}
