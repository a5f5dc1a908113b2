// Package script hosts user Lua scripts as resumable, sandboxed sessions.
//
// A script body is compiled into a coroutine that runs until it calls
// coroutine.yield, so a script can walk a graph one visible step at a time:
//
//	for _, id in ipairs(graph:nodes()) do
//	    set_color(id, "#ff0000")
//	    coroutine.yield()
//	end
//
// Scripts see three host capabilities:
//
//   - set_color(node, spec) queues a [KindSetColor] command
//   - reset_color(node) queues a [KindResetColor] command
//   - graph, a read-only handle over a [graph.Snapshot] taken at load time,
//     with graph:len(), graph:nodes(), graph:neighbors(id) and graph:label(id)
//     (get_nodes and get_neighbours are kept as aliases)
//
// Only the base, table, string, math and coroutine libraries are opened;
// dofile and loadfile are removed and print writes to the host logger.
//
// # Session lifecycle
//
// A [Host] owns at most one session. [Host.Load] discards the previous
// session together with any commands it buffered but never flushed, then
// compiles the new source. [Host.Step] resumes the coroutine once. When the
// coroutine returns, the session reports [Finished] until the next Step
// clears it. A runtime fault drops the session and its buffer immediately,
// so a script that fails on its first resume leaves no effect behind.
//
// Commands are not applied by the host itself. [Host.Flush] drains the
// session buffer in emission order onto a [Publisher], and [Apply] writes
// published commands into a [colormap.Map].
package script
