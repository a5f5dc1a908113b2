package cli

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/grephite/pkg/graph"
	"github.com/matzehuels/grephite/pkg/render"
	"github.com/matzehuels/grephite/pkg/sim"
)

const (
	glyphNode     = '●'
	glyphHidden   = '○'
	glyphSelected = '◉'
	glyphEdge     = '·'
	canvasMargin  = 1
)

// cell is one character of the canvas. A zero cell is blank.
type cell struct {
	r     rune
	color string
}

// canvas rasterizes a frame into a character grid. Layout coordinates are
// fitted to the grid, keeping the aspect ratio with terminal cells assumed
// twice as tall as they are wide.
type canvas struct {
	w, h  int
	cells []cell
}

func newCanvas(w, h int) *canvas {
	return &canvas{w: w, h: h, cells: make([]cell, w*h)}
}

func (c *canvas) set(x, y int, r rune, color string) {
	if x < 0 || y < 0 || x >= c.w || y >= c.h {
		return
	}
	c.cells[y*c.w+x] = cell{r: r, color: color}
}

func (c *canvas) at(x, y int) cell {
	if x < 0 || y < 0 || x >= c.w || y >= c.h {
		return cell{}
	}
	return c.cells[y*c.w+x]
}

// line draws a segment with Bresenham's algorithm, leaving endpoints alone.
func (c *canvas) line(x0, y0, x1, y1 int, r rune, color string) {
	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := sign(x1-x0), sign(y1-y0)
	err := dx + dy
	x, y := x0, y0
	for {
		if (x != x0 || y != y0) && (x != x1 || y != y1) && c.at(x, y).r == 0 {
			c.set(x, y, r, color)
		}
		if x == x1 && y == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x += sx
		}
		if e2 <= dx {
			err += dx
			y += sy
		}
	}
}

func (c *canvas) String() string {
	var b strings.Builder
	styles := map[string]lipgloss.Style{}
	for y := range c.h {
		if y > 0 {
			b.WriteByte('\n')
		}
		for x := range c.w {
			cl := c.at(x, y)
			if cl.r == 0 {
				b.WriteByte(' ')
				continue
			}
			st, ok := styles[cl.color]
			if !ok {
				st = lipgloss.NewStyle().Foreground(lipgloss.Color(cl.color))
				styles[cl.color] = st
			}
			b.WriteString(st.Render(string(cl.r)))
		}
	}
	return b.String()
}

// projection maps layout coordinates onto canvas cells.
type projection struct {
	minX, minY float64
	scale      float64
	offX, offY float64
}

func fit(nodes []sim.NodeView, w, h int) projection {
	if len(nodes) == 0 {
		return projection{scale: 1}
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, n := range nodes {
		minX, maxX = min(minX, n.Pos.X), max(maxX, n.Pos.X)
		minY, maxY = min(minY, n.Pos.Y), max(maxY, n.Pos.Y)
	}
	innerW := float64(max(w-1-2*canvasMargin, 0))
	innerH := float64(max(h-1-2*canvasMargin, 0))
	spanX, spanY := maxX-minX, (maxY-minY)/2
	scale := 1.0
	switch {
	case spanX > 0 && spanY > 0:
		scale = min(innerW/spanX, innerH/spanY)
	case spanX > 0:
		scale = innerW / spanX
	case spanY > 0:
		scale = innerH / spanY
	}
	p := projection{minX: minX, minY: minY, scale: scale}
	p.offX = canvasMargin + (innerW-spanX*scale)/2
	p.offY = canvasMargin + (innerH-spanY*scale)/2
	return p
}

// cell returns the canvas cell of pos. Layout y grows upward.
func (p projection) cell(pos graph.Vec2, h int) (int, int) {
	x := p.offX + (pos.X-p.minX)*p.scale
	y := p.offY + (pos.Y-p.minY)/2*p.scale
	return int(math.Round(x)), h - 1 - int(math.Round(y))
}

// drawFrame renders f at the given size. Node colors follow mode; the
// selected node is drawn with a distinct glyph and fully transparent nodes
// as an outline.
func drawFrame(f sim.Frame, w, h int, selected graph.NodeID, mode render.ColorMode) string {
	if w <= 0 || h <= 0 {
		return ""
	}
	c := newCanvas(w, h)
	p := fit(f.Nodes, w, h)

	type point struct{ x, y int }
	pts := make(map[graph.NodeID]point, len(f.Nodes))
	for _, n := range f.Nodes {
		x, y := p.cell(n.Pos, h)
		pts[n.ID] = point{x, y}
	}
	for _, e := range f.Edges {
		a, b := pts[e.From], pts[e.To]
		c.line(a.x, a.y, b.x, b.y, glyphEdge, string(colorDim))
	}
	for i, n := range f.Nodes {
		fill := render.FillColor(f, i, mode)
		glyph := glyphNode
		switch {
		case n.ID == selected:
			glyph = glyphSelected
		case fill.Alpha() == 0:
			glyph = glyphHidden
		}
		pt := pts[n.ID]
		c.set(pt.x, pt.y, glyph, fill.Hex()[:7])
	}
	return c.String()
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
