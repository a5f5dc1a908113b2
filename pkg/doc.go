// Package pkg provides the core libraries of grephite, a graph playground.
//
// # Overview
//
// Grephite loads an undirected graph from an edge list, lays it out with a
// force-directed simulation, computes single-source shortest paths, and runs
// user Lua scripts that walk the graph one coroutine step at a time and
// color its nodes. The pkg directory is organized into three areas:
//
//  1. Model - [graph] and [colormap]
//  2. Algorithms - [layout], [pathfind] and the [script] host
//  3. Composition - [sim], which ticks all of the above, and [render]
//
// # Architecture
//
// A typical session:
//
//	edge list file
//	      ↓
//	 [graph] package (nodes, weighted edges, snapshots)
//	      ↓
//	 [sim] package (tick: layout step, path search, script step, commands)
//	      ↓
//	 [render] package (Graphviz DOT with pinned positions)
//	      ↓
//	 SVG/PNG/DOT output
//
// # Quick Start
//
//	g, _ := graph.Load("edges.txt", 1)
//	w := sim.New(g, sim.DefaultOptions())
//
//	// Lay out, then search from the node labeled 1.
//	for range 500 {
//	    w.Tick(ctx, time.Second/60)
//	}
//	src, _ := g.NodeByLabel(1)
//	w.RequestPath(src)
//	w.Tick(ctx, 0)
//
//	// Render with the distance gradient.
//	dot := render.ToDOT(w.View(), render.Options{Labels: true})
//	svg, _ := render.RenderSVG(ctx, dot)
//
// # Main Packages
//
// [graph] - Undirected graph with stable node ids, optional edge weights and
// read-only snapshots for scripts. Reads whitespace-separated edge lists.
//
// [layout] - ForceAtlas2-style engine: degree-scaled repulsion, weighted
// attraction, gravity and adaptive speed. Optional Barnes-Hut style grid
// bucketing for large graphs.
//
// [pathfind] - Dijkstra over non-negative weights. Unweighted edges cost 1.
//
// [script] - Lua host built on gopher-lua. Each script runs as a coroutine
// that yields between steps; commands it emits are buffered and flushed to
// the world. A [script.Library] lists and watches a scripts directory.
//
// [colormap] - RGBA colors parsed from hex strings and the per-node color map.
//
// [sim] - The World: owns the graph, layout engine, color map and script
// host, and advances them once per tick. Safe for concurrent use.
//
// [render] - DOT generation, distance gradients and Graphviz rendering.
//
// ## Infrastructure
//
// [config] - TOML settings with validation.
//
// [errors] - Coded errors shared by the CLI and the HTTP server.
//
// [cache] - Content-addressed store for rendered artifacts.
//
// [observability] - Hooks for layout, path and script metrics, with a
// Prometheus implementation in observability/prom.
//
// [buildinfo] - Version information injected at build time.
//
// # Testing
//
//	go test ./...                 # All tests
//	go test ./pkg/layout/...      # Specific package
//
// [graph]: https://pkg.go.dev/github.com/matzehuels/grephite/pkg/graph
// [layout]: https://pkg.go.dev/github.com/matzehuels/grephite/pkg/layout
// [pathfind]: https://pkg.go.dev/github.com/matzehuels/grephite/pkg/pathfind
// [script]: https://pkg.go.dev/github.com/matzehuels/grephite/pkg/script
// [script.Library]: https://pkg.go.dev/github.com/matzehuels/grephite/pkg/script#Library
// [colormap]: https://pkg.go.dev/github.com/matzehuels/grephite/pkg/colormap
// [sim]: https://pkg.go.dev/github.com/matzehuels/grephite/pkg/sim
// [render]: https://pkg.go.dev/github.com/matzehuels/grephite/pkg/render
// [config]: https://pkg.go.dev/github.com/matzehuels/grephite/pkg/config
// [errors]: https://pkg.go.dev/github.com/matzehuels/grephite/pkg/errors
// [cache]: https://pkg.go.dev/github.com/matzehuels/grephite/pkg/cache
// [observability]: https://pkg.go.dev/github.com/matzehuels/grephite/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/grephite/pkg/buildinfo
package pkg
