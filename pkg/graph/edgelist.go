package graph

import (
	"bufio"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"strconv"
	"strings"
)

// Triple is one line of an edge list: two node labels and an optional weight.
type Triple struct {
	From   int
	To     int
	Weight *float64
}

// Placement chooses the initial position of a node created while building a
// graph from an edge list.
type Placement func(label int) Vec2

// RandomPlacement scatters nodes uniformly in [-50, 50)² using a generator
// seeded with seed, so repeated loads of the same file are reproducible.
func RandomPlacement(seed uint64) Placement {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	return func(int) Vec2 {
		return Vec2{X: rng.Float64()*100 - 50, Y: rng.Float64()*100 - 50}
	}
}

// ReadEdgeList parses an edge list from r.
//
// Each line holds "from to [weight]" separated by whitespace. Blank lines,
// lines starting with '#', and lines with fewer than two fields are skipped.
// Node ids must be integers; weights must parse as floats. Parse errors carry
// the 1-based line number.
func ReadEdgeList(r io.Reader) ([]Triple, error) {
	var out []Triple
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) < 2 {
			continue
		}
		from, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: from id %q: %w", line, fields[0], err)
		}
		to, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, fmt.Errorf("line %d: to id %q: %w", line, fields[1], err)
		}
		t := Triple{From: from, To: to}
		if len(fields) > 2 {
			w, err := strconv.ParseFloat(fields[2], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: weight %q: %w", line, fields[2], err)
			}
			t.Weight = &w
		}
		out = append(out, t)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	return out, nil
}

// ImportEdgeList reads the edge list file at path.
func ImportEdgeList(path string) ([]Triple, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadEdgeList(f)
}

// Build creates a graph from triples. Repeated labels map to the same node;
// new nodes are positioned by place. A nil place puts every node at the
// origin.
func Build(triples []Triple, place Placement) (*Graph, error) {
	g := New()
	node := func(label int) NodeID {
		if id, ok := g.NodeByLabel(label); ok {
			return id
		}
		var pos Vec2
		if place != nil {
			pos = place(label)
		}
		id, _ := g.AddLabeledNode(label, pos)
		return id
	}
	for i, t := range triples {
		from, to := node(t.From), node(t.To)
		if _, err := g.AddEdge(from, to, t.Weight); err != nil {
			return nil, fmt.Errorf("edge %d (%d-%d): %w", i+1, t.From, t.To, err)
		}
	}
	return g, nil
}

// Load reads the edge list at path and builds a graph with random placement.
func Load(path string, seed uint64) (*Graph, error) {
	triples, err := ImportEdgeList(path)
	if err != nil {
		return nil, err
	}
	return Build(triples, RandomPlacement(seed))
}
