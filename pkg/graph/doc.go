// Package graph provides the weighted, undirected multigraph shared by the
// layout engine, the pathfinding engine and the script host.
//
// # Model
//
// Nodes are addressed by opaque [NodeID] handles that are never reused, and
// carry a numeric label (the id used in edge-list files) and a 2D position.
// Edges connect two nodes and may carry a positive weight; unweighted edges
// count as length 1 for shortest paths and as a neutral multiplier for
// layout attraction.
//
// The adjacency index maps every node to the ordered sequence of its
// neighbors. It is kept consistent with the edge set on every insertion and
// removal: removing a node cascades to its incident edges and to the reverse
// adjacency entries of its neighbors. [Graph.Validate] checks the invariant.
//
// # Loading
//
// Edge lists are plain text, one edge per line:
//
//	# from to [weight]
//	1 2
//	2 3 2.5
//
// [ReadEdgeList] parses them and [Build] turns the triples into a graph,
// mapping repeated ids onto the same node:
//
//	triples, err := graph.ImportEdgeList("graph.edges")
//	if err != nil {
//	    return err
//	}
//	g, err := graph.Build(triples, graph.RandomPlacement(42))
//
// # Snapshots
//
// [Graph.Snapshot] returns an immutable copy of the topology. Scripts read
// the snapshot taken when they were loaded, so they never race with edits.
package graph
