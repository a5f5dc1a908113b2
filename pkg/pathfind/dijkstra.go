package pathfind

import (
	"container/heap"
	"math"

	"github.com/matzehuels/grephite/pkg/errors"
	"github.com/matzehuels/grephite/pkg/graph"
)

// Distances maps every node to its shortest distance from the source.
// Unreachable nodes map to +Inf.
type Distances map[graph.NodeID]float64

// Reachable reports whether id has a finite distance.
func (d Distances) Reachable(id graph.NodeID) bool {
	v, ok := d[id]
	return ok && !math.IsInf(v, 1)
}

// MaxFinite returns the largest finite distance, or 0 if none.
func (d Distances) MaxFinite() float64 {
	var m float64
	for _, v := range d {
		if !math.IsInf(v, 1) && v > m {
			m = v
		}
	}
	return m
}

// ReachableCount returns the number of nodes with a finite distance.
func (d Distances) ReachableCount() int {
	n := 0
	for _, v := range d {
		if !math.IsInf(v, 1) {
			n++
		}
	}
	return n
}

// ShortestPaths returns the distance from source to every node of g.
// An unknown source yields an ErrCodeNodeNotFound error and no map.
func ShortestPaths(g *graph.Graph, source graph.NodeID) (Distances, error) {
	if !g.Has(source) {
		return nil, errors.New(errors.ErrCodeNodeNotFound, "source node %d not in graph", source)
	}

	dist := make(Distances, g.NodeCount())
	for _, id := range g.NodeIDs() {
		dist[id] = math.Inf(1)
	}
	dist[source] = 0

	out := incidence(g)
	pq := &queue{{id: source, dist: 0}}
	for pq.Len() > 0 {
		cur := heap.Pop(pq).(item)
		if cur.dist > dist[cur.id] {
			continue // stale entry
		}
		for _, arc := range out[cur.id] {
			next := cur.dist + arc.cost
			if next < dist[arc.to] {
				dist[arc.to] = next
				heap.Push(pq, item{id: arc.to, dist: next})
			}
		}
	}
	return dist, nil
}

type arc struct {
	to   graph.NodeID
	cost float64
}

// incidence builds per-node outgoing arcs in both directions of every edge.
// The graph adjacency index carries no weights, so parallel edges keep their
// own costs here.
func incidence(g *graph.Graph) map[graph.NodeID][]arc {
	out := make(map[graph.NodeID][]arc, g.NodeCount())
	for _, e := range g.Edges() {
		c := e.Cost()
		out[e.From] = append(out[e.From], arc{to: e.Other(e.From), cost: c})
		if e.From != e.To {
			out[e.To] = append(out[e.To], arc{to: e.Other(e.To), cost: c})
		}
	}
	return out
}

type item struct {
	id   graph.NodeID
	dist float64
}

// queue is a min-heap of items ordered by tentative distance.
type queue []item

func (q queue) Len() int           { return len(q) }
func (q queue) Less(i, j int) bool { return q[i].dist < q[j].dist }
func (q queue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }
func (q *queue) Push(x any)        { *q = append(*q, x.(item)) }
func (q *queue) Pop() any {
	old := *q
	n := len(old)
	it := old[n-1]
	*q = old[:n-1]
	return it
}
