// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about layout ticks, path searches and script execution.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// The core packages (layout, pathfind) stay free of any metrics dependency;
// the orchestration layer and the script host emit events through the
// registered hooks. A Prometheus implementation lives in the prom
// subpackage.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    m := prom.New(prometheus.NewRegistry())
//	    observability.SetLayoutHooks(m)
//	    observability.SetScriptHooks(m)
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	start := time.Now()
//	stats := engine.Tick(g)
//	observability.Layout().OnTick(ctx, stats.Nodes, stats.GlobalSpeed, time.Since(start))
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Layout Hooks
// =============================================================================

// LayoutHooks receives events from the layout engine.
type LayoutHooks interface {
	// OnTick records one layout iteration that did work.
	OnTick(ctx context.Context, nodeCount int, globalSpeed float64, duration time.Duration)
}

// =============================================================================
// Path Hooks
// =============================================================================

// PathHooks receives events from shortest path searches.
type PathHooks interface {
	// OnSearch records a completed search. err is non-nil for unknown sources.
	OnSearch(ctx context.Context, nodeCount, reachable int, duration time.Duration, err error)
}

// =============================================================================
// Script Hooks
// =============================================================================

// ScriptHooks receives events from the script host.
type ScriptHooks interface {
	// OnLoad records a script load attempt.
	OnLoad(ctx context.Context, sessionID string, err error)

	// OnStep records one coroutine resume.
	OnStep(ctx context.Context, sessionID string, duration time.Duration, err error)

	// OnFlush records commands moved from a session buffer to the channel.
	OnFlush(ctx context.Context, sessionID string, commands int)

	// OnCommand records a command applied to (or skipped by) the color map.
	OnCommand(ctx context.Context, kind string, applied bool)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopLayoutHooks is a no-op implementation of LayoutHooks.
type NoopLayoutHooks struct{}

func (NoopLayoutHooks) OnTick(context.Context, int, float64, time.Duration) {}

// NoopPathHooks is a no-op implementation of PathHooks.
type NoopPathHooks struct{}

func (NoopPathHooks) OnSearch(context.Context, int, int, time.Duration, error) {}

// NoopScriptHooks is a no-op implementation of ScriptHooks.
type NoopScriptHooks struct{}

func (NoopScriptHooks) OnLoad(context.Context, string, error)                {}
func (NoopScriptHooks) OnStep(context.Context, string, time.Duration, error) {}
func (NoopScriptHooks) OnFlush(context.Context, string, int)                 {}
func (NoopScriptHooks) OnCommand(context.Context, string, bool)              {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	layoutHooks LayoutHooks = NoopLayoutHooks{}
	pathHooks   PathHooks   = NoopPathHooks{}
	scriptHooks ScriptHooks = NoopScriptHooks{}
	hooksMu     sync.RWMutex
)

// SetLayoutHooks registers custom layout hooks.
// This should be called once at application startup before any ticks run.
func SetLayoutHooks(h LayoutHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		layoutHooks = h
	}
}

// SetPathHooks registers custom path search hooks.
func SetPathHooks(h PathHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		pathHooks = h
	}
}

// SetScriptHooks registers custom script hooks.
func SetScriptHooks(h ScriptHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		scriptHooks = h
	}
}

// Layout returns the registered layout hooks.
func Layout() LayoutHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return layoutHooks
}

// Path returns the registered path search hooks.
func Path() PathHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return pathHooks
}

// Script returns the registered script hooks.
func Script() ScriptHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return scriptHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	layoutHooks = NoopLayoutHooks{}
	pathHooks = NoopPathHooks{}
	scriptHooks = NoopScriptHooks{}
}
