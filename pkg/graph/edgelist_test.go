package graph

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestReadEdgeList(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr string
	}{
		{name: "Empty", input: "", want: 0},
		{name: "Simple", input: "1 2\n2 3\n", want: 2},
		{name: "Weighted", input: "1 2 0.5\n", want: 1},
		{name: "CommentsAndBlanks", input: "# header\n\n1 2\n   \n", want: 1},
		{name: "ShortLineSkipped", input: "7\n1 2\n", want: 1},
		{name: "TabsAndExtraFields", input: "1\t2\t3 ignored\n", want: 1},
		{name: "BadFrom", input: "x 2\n", wantErr: "line 1: from id"},
		{name: "BadTo", input: "1 2\n1 y\n", wantErr: "line 2: to id"},
		{name: "BadWeight", input: "1 2 heavy\n", wantErr: "line 1: weight"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadEdgeList(strings.NewReader(tt.input))
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("err = %v, want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ReadEdgeList: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("len = %d, want %d", len(got), tt.want)
			}
		})
	}
}

func TestBuildMapsDuplicateIDs(t *testing.T) {
	triples, err := ReadEdgeList(strings.NewReader("1 2\n2 3 4\n3 1\n1 2\n"))
	if err != nil {
		t.Fatal(err)
	}
	g, err := Build(triples, RandomPlacement(1))
	if err != nil {
		t.Fatal(err)
	}
	if g.NodeCount() != 3 {
		t.Errorf("NodeCount = %d, want 3", g.NodeCount())
	}
	if g.EdgeCount() != 4 {
		t.Errorf("EdgeCount = %d, want 4", g.EdgeCount())
	}
	one, _ := g.NodeByLabel(1)
	if g.Degree(one) != 3 {
		t.Errorf("Degree(1) = %d, want 3", g.Degree(one))
	}
	if err := g.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}

	next := g.AddNode(Vec2{})
	if n, _ := g.Node(next); n.Label != 4 {
		t.Errorf("next label = %d, want 4", n.Label)
	}
}

func TestBuildRejectsBadWeight(t *testing.T) {
	w := -2.0
	if _, err := Build([]Triple{{From: 1, To: 2, Weight: &w}}, nil); err == nil {
		t.Fatal("expected error for negative weight")
	}
}

func TestRandomPlacementDeterministic(t *testing.T) {
	a, b := RandomPlacement(7), RandomPlacement(7)
	for i := range 10 {
		pa, pb := a(i), b(i)
		if pa != pb {
			t.Fatalf("placement %d differs: %v vs %v", i, pa, pb)
		}
		if pa.X < -50 || pa.X >= 50 || pa.Y < -50 || pa.Y >= 50 {
			t.Errorf("placement %v out of range", pa)
		}
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.edges")
	if err := os.WriteFile(path, []byte("1 2\n2 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	g, err := Load(path, 3)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if g.NodeCount() != 3 || g.EdgeCount() != 2 {
		t.Errorf("got %d nodes %d edges", g.NodeCount(), g.EdgeCount())
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing"), 0); err == nil {
		t.Error("expected error for missing file")
	}
}
