// Package render turns a [sim.Frame] into images.
//
// # Overview
//
// Rendering is a two-step pipeline. [ToDOT] writes the frame as an undirected
// Graphviz graph whose nodes are pinned at their layout positions, colored
// either from the color map or from the distance gradient of the current
// path result. [RenderSVG] and [RenderPNG] then run Graphviz in-process with
// the neato engine, which keeps pinned positions and only routes the edges.
//
//	dot := render.ToDOT(world.View(), render.Options{Labels: true})
//	svg, err := render.RenderSVG(ctx, dot)
//
// # Colors
//
// In [ColorAuto] mode (the default) nodes use the distance gradient when the
// frame carries a path result and the color map otherwise. Unreachable nodes
// are drawn in [Unreachable] grey so that +Inf stays visually distinct from
// every finite distance.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process rendering;
// no Graphviz installation is required.
package render
