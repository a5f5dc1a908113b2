package render

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/matzehuels/grephite/pkg/colormap"
	"github.com/matzehuels/grephite/pkg/sim"
)

// ColorMode selects where node fill colors come from.
type ColorMode int

const (
	ColorAuto     ColorMode = iota // distance gradient when a path result exists
	ColorMap                       // always the script color map
	ColorDistance                  // always the distance gradient
)

// DefaultScale converts layout units to Graphviz points.
const DefaultScale = 1.0

// Options configures DOT generation.
type Options struct {
	// Labels draws node labels; otherwise nodes are plain dots.
	Labels bool
	// Weights prints edge weights as edge labels.
	Weights bool
	// Mode selects the fill color source.
	Mode ColorMode
	// Scale multiplies positions. Zero means DefaultScale.
	Scale float64
}

// ToDOT converts a frame to Graphviz DOT with every node pinned at its
// position.
func ToDOT(f sim.Frame, opts Options) string {
	scale := opts.Scale
	if scale == 0 {
		scale = DefaultScale
	}

	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  inputscale=72;\n")
	buf.WriteString("  splines=line;\n")
	buf.WriteString("  overlap=true;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	if opts.Labels {
		buf.WriteString("  node [shape=circle, style=filled, fontsize=10, width=0.3, fixedsize=true, fontcolor=white];\n")
	} else {
		buf.WriteString("  node [shape=circle, style=filled, label=\"\", width=0.15, fixedsize=true];\n")
	}
	buf.WriteString("  edge [color=\"#888888\"];\n")
	buf.WriteString("\n")

	for i, n := range f.Nodes {
		fill := FillColor(f, i, opts.Mode)
		attrs := []string{
			fmt.Sprintf("pos=\"%s,%s!\"", fmtFloat(n.Pos.X*scale), fmtFloat(flipY(n.Pos.Y*scale))),
			fmt.Sprintf("fillcolor=%q", fill.Hex()),
		}
		if opts.Labels {
			attrs = append(attrs, fmt.Sprintf("label=%q", strconv.Itoa(n.Label)))
			if n.ID == f.Source && f.HasPath {
				attrs = append(attrs, "penwidth=3")
			}
		}
		fmt.Fprintf(&buf, "  n%d [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range f.Edges {
		if opts.Weights && e.Weighted {
			fmt.Fprintf(&buf, "  n%d -- n%d [label=%q];\n", e.From, e.To, fmtFloat(e.Weight))
			continue
		}
		fmt.Fprintf(&buf, "  n%d -- n%d;\n", e.From, e.To)
	}

	buf.WriteString("}\n")
	return buf.String()
}

// flipY converts layout coordinates (y down) to Graphviz (y up) without
// producing negative zero.
func flipY(y float64) float64 {
	if y == 0 {
		return 0
	}
	return -y
}

func fmtFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FillColor returns the color of node i of f. ColorDistance falls back to
// the color map when f has no path result.
func FillColor(f sim.Frame, i int, mode ColorMode) colormap.Color {
	n := f.Nodes[i]
	if f.HasPath && mode != ColorMap {
		return DistanceGradient(f.Distances[n.ID], f.MaxDistance)
	}
	return n.Color
}
