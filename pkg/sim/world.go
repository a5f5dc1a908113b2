// Package sim drives one interactive graph session tick by tick.
//
// A [World] owns the graph, the layout engine, the color map, the script
// host and the most recent shortest path result. Each call to [World.Tick]
// runs the phases in a fixed order:
//
//  1. layout iteration (when enabled)
//  2. pending path request
//  3. at most one script step, either due by auto-run or requested manually
//  4. flush of the script buffer onto the command channel
//  5. application of queued commands to the color map
//
// Commands emitted during a step are therefore always flushed and applied
// within the same tick. All World methods are safe for concurrent use, so a
// UI loop and an HTTP server may drive the same World.
package sim

import (
	"context"
	"io"
	"maps"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/grephite/pkg/colormap"
	"github.com/matzehuels/grephite/pkg/graph"
	"github.com/matzehuels/grephite/pkg/layout"
	"github.com/matzehuels/grephite/pkg/observability"
	"github.com/matzehuels/grephite/pkg/pathfind"
	"github.com/matzehuels/grephite/pkg/script"
)

// Options configures a World.
type Options struct {
	Layout       layout.Params
	Script       script.Options
	DefaultColor colormap.Color
	Logger       *log.Logger
	// AutoRun starts every successfully loaded script in run mode.
	AutoRun bool
}

// DefaultOptions returns the layout defaults with an opaque black node color.
func DefaultOptions() Options {
	return Options{
		Layout:       layout.DefaultParams(),
		DefaultColor: colormap.Base,
	}
}

// TickReport describes what happened during one tick.
type TickReport struct {
	Tick         uint64
	Layout       layout.Stats
	PathComputed bool
	Stepped      bool
	ScriptState  script.State
	ScriptErr    error
	Flushed      int
	Applied      int
}

// World is the simulation state of one graph.
type World struct {
	mu     sync.Mutex
	logger *log.Logger

	g      *graph.Graph
	engine *layout.Engine
	colors *colormap.Map
	host   *script.Host
	auto   bool

	dist          pathfind.Distances
	source        graph.NodeID
	pendingSource graph.NodeID
	pathPending   bool

	stepRequested bool
	commands      []script.Command
	ticks         uint64
}

// New creates a World around g. The World takes ownership of g; callers must
// edit it through the World afterwards.
func New(g *graph.Graph, opts Options) *World {
	if opts.Logger == nil {
		opts.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if opts.Script.Logger == nil {
		opts.Script.Logger = opts.Logger
	}
	return &World{
		logger: opts.Logger,
		g:      g,
		engine: layout.New(opts.Layout),
		colors: colormap.New(opts.DefaultColor),
		host:   script.NewHost(opts.Script),
		auto:   opts.AutoRun,
	}
}

// Tick advances the world by dt of wall-clock time.
func (w *World) Tick(ctx context.Context, dt time.Duration) TickReport {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.ticks++
	rep := TickReport{Tick: w.ticks}

	start := time.Now()
	rep.Layout = w.engine.Tick(w.g)
	if !rep.Layout.Skipped {
		observability.Layout().OnTick(ctx, rep.Layout.Nodes, rep.Layout.GlobalSpeed, time.Since(start))
	}

	if w.pathPending {
		w.pathPending = false
		rep.PathComputed = w.searchLocked(ctx)
	}

	due := w.host.Advance(dt)
	if due || w.stepRequested {
		w.stepRequested = false
		rep.Stepped = true
		_, rep.ScriptErr = w.host.Step(ctx)
	}
	rep.ScriptState = w.host.State()

	rep.Flushed = w.host.Flush(ctx, script.PublisherFunc(func(c script.Command) {
		w.commands = append(w.commands, c)
	}))

	if len(w.commands) > 0 {
		cmds := w.commands
		w.commands = nil
		rep.Applied = script.Apply(ctx, w.logger, w.colors, w.g, cmds...)
	}
	return rep
}

// searchLocked runs the pending search. A failed search leaves the previous
// source and result untouched.
func (w *World) searchLocked(ctx context.Context) bool {
	start := time.Now()
	d, err := pathfind.ShortestPaths(w.g, w.pendingSource)
	if err != nil {
		observability.Path().OnSearch(ctx, w.g.NodeCount(), 0, time.Since(start), err)
		w.logger.Warn("path request ignored", "source", w.pendingSource, "err", err)
		return false
	}
	observability.Path().OnSearch(ctx, w.g.NodeCount(), d.ReachableCount(), time.Since(start), nil)
	w.source = w.pendingSource
	w.dist = d
	return true
}

// RequestPath schedules a shortest path search from source on the next tick.
// A source that no longer exists when the tick runs is ignored.
func (w *World) RequestPath(source graph.NodeID) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pendingSource = source
	w.pathPending = true
}

// Distances returns a copy of the latest path result and its source.
func (w *World) Distances() (pathfind.Distances, graph.NodeID, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.dist == nil {
		return nil, 0, false
	}
	return maps.Clone(w.dist), w.source, true
}

// ClearPath drops the current path result and any pending request.
func (w *World) ClearPath() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.dist = nil
	w.pathPending = false
}

// LoadScript replaces the active script session with src, run against a
// snapshot of the current graph.
func (w *World) LoadScript(ctx context.Context, name, src string) error {
	w.mu.Lock()
	snap := w.g.Snapshot()
	w.stepRequested = false
	w.mu.Unlock()
	if err := w.host.Load(ctx, name, src, snap); err != nil {
		return err
	}
	if w.auto {
		w.host.SetRunning(true)
	}
	return nil
}

// RequestStep asks for one manual script step on the next tick. Requests do
// not accumulate: several before a tick produce a single step.
func (w *World) RequestStep() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stepRequested = true
}

// Scripts returns the script host for run, pause and speed controls.
func (w *World) Scripts() *script.Host { return w.host }

// Publish queues a command on the general command channel. It is applied
// on the next tick after any flushed script commands already queued.
func (w *World) Publish(c script.Command) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.commands = append(w.commands, c)
}

// LayoutParams returns the current layout parameters.
func (w *World) LayoutParams() layout.Params {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.engine.Params()
}

// SetLayoutParams replaces the layout parameters.
func (w *World) SetLayoutParams(p layout.Params) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.engine.SetParams(p)
}

// SetPhysics enables or disables the layout engine.
func (w *World) SetPhysics(on bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	p := w.engine.Params()
	p.Enabled = on
	w.engine.SetParams(p)
}

// Ticks returns the number of ticks run so far.
func (w *World) Ticks() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.ticks
}
