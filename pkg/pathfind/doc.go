// Package pathfind computes single-source shortest path distances.
//
// [ShortestPaths] runs Dijkstra's algorithm over the undirected edges of a
// [graph.Graph]. Edge costs are the stored weights, or 1 for unweighted edges;
// weights are validated positive when edges are created, so the search never
// sees a negative cost. Every node of the graph appears in the result, with
// math.Inf(1) for nodes the source cannot reach.
//
// The search is synchronous and allocates its own state, so concurrent calls
// over graphs that are not being mutated are safe.
package pathfind
