// Package layout implements a ForceAtlas2-style force-directed layout.
//
// Each call to [Engine.Tick] moves every node of a [graph.Graph] once:
//
//  1. The warm-up timestep starts at 20 and decays by 0.8 per tick while it
//     is above 1, damping the initial burst when a layout begins settling.
//  2. Edges attract their endpoints with a spring proportional to their
//     length, scaled by weight^k_w for weighted edges.
//  3. Every pair of nodes repels with k_r·(deg(a)+1)·(deg(b)+1)/dist.
//  4. Gravity pulls each node toward the origin with k_g·(deg+1)·|pos|.
//  5. Net force = repulsion + gravity - attraction accumulator.
//  6. A global speed is derived from the degree-weighted swinging and
//     traction of all nodes and smoothed with the previous tick's value.
//  7. A local step size shrinks for nodes whose force oscillates and is
//     capped so no node moves more than 10 units of force per tick.
//  8. Velocities are damped by 0.95 and integrated with the timestep.
//
// All adaptive state (velocities, previous forces, previous global speed and
// the timestep) lives in the [Engine], never in package globals. Per-node
// state is created lazily and may be pruned with [Engine.Prune]; stale
// entries for deleted nodes are ignored.
//
// Repulsion is exact and O(n²) by default. Setting [Params.Bucketed] limits
// repulsion to nodes in the same or neighboring grid cells of size
// 2·IdealEdgeLength, trading exactness for locality on large graphs.
package layout
