package allpaths

import (
	"testing"

	"github.com/orneryd/loomgraph/pkg/querygraph"
	"github.com/orneryd/loomgraph/pkg/storage"
)

// fakeAdjacency is a tiny in-memory adjacency index for tests. It starts
// empty; each test adds the edges it needs to exercise hop bounds,
// relation-type filtering, and node-uniqueness.
type fakeAdjacency struct {
	out map[storage.NodeID][]*storage.Edge
	in  map[storage.NodeID][]*storage.Edge
}

func newFakeAdjacency() *fakeAdjacency {
	return &fakeAdjacency{out: map[storage.NodeID][]*storage.Edge{}, in: map[storage.NodeID][]*storage.Edge{}}
}

func (f *fakeAdjacency) addEdge(id string, from, to storage.NodeID, typ string) {
	e := &storage.Edge{ID: storage.EdgeID(id), StartNode: from, EndNode: to, Type: typ, Properties: map[string]any{}}
	f.out[from] = append(f.out[from], e)
	f.in[to] = append(f.in[to], e)
}

func (f *fakeAdjacency) GetOutgoingEdges(id storage.NodeID) ([]*storage.Edge, error) { return f.out[id], nil }
func (f *fakeAdjacency) GetIncomingEdges(id storage.NodeID) ([]*storage.Edge, error) { return f.in[id], nil }

func TestNextPathRespectsHopBounds(t *testing.T) {
	adj := newFakeAdjacency()
	adj.addEdge("e1", "a", "b", "R")
	adj.addEdge("e2", "b", "c", "R")

	ctx := New(adj, "a", "", false, nil, querygraph.Outgoing, 1, 1, nil)

	var got []storage.NodeID
	for {
		p, ok, err := ctx.NextPath()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !ok {
			break
		}
		got = append(got, p.Head())
	}

	if len(got) != 1 || got[0] != "b" {
		t.Fatalf("expected exactly one 1-hop path ending at b, got %v", got)
	}
}

func TestNextPathEnumeratesAllHopsInRange(t *testing.T) {
	adj := newFakeAdjacency()
	adj.addEdge("e1", "a", "b", "R")
	adj.addEdge("e2", "b", "c", "R")

	ctx := New(adj, "a", "", false, nil, querygraph.Outgoing, 1, 2, nil)

	var heads []storage.NodeID
	for {
		p, ok, _ := ctx.NextPath()
		if !ok {
			break
		}
		heads = append(heads, p.Head())
	}

	if len(heads) != 2 {
		t.Fatalf("expected 2 paths (1-hop and 2-hop), got %d: %v", len(heads), heads)
	}
}

func TestNextPathEnforcesNodeUniqueness(t *testing.T) {
	adj := newFakeAdjacency()
	adj.addEdge("e1", "a", "b", "R")
	adj.addEdge("e2", "b", "a", "R") // would cycle back to start

	ctx := New(adj, "a", "", false, nil, querygraph.Outgoing, 1, 5, nil)

	count := 0
	for {
		_, ok, _ := ctx.NextPath()
		if !ok {
			break
		}
		count++
	}

	if count != 1 {
		t.Fatalf("expected the cycle back to 'a' to be rejected, got %d paths", count)
	}
}

func TestNextPathFiltersByRelationType(t *testing.T) {
	adj := newFakeAdjacency()
	adj.addEdge("e1", "a", "b", "FOLLOWS")
	adj.addEdge("e2", "a", "c", "BLOCKS")

	ctx := New(adj, "a", "", false, []string{"FOLLOWS"}, querygraph.Outgoing, 1, 1, nil)

	var heads []storage.NodeID
	for {
		p, ok, _ := ctx.NextPath()
		if !ok {
			break
		}
		heads = append(heads, p.Head())
	}

	if len(heads) != 1 || heads[0] != "b" {
		t.Fatalf("expected only the FOLLOWS edge to match, got %v", heads)
	}
}

func TestNextPathExpandIntoOnlyYieldsFixedDestination(t *testing.T) {
	adj := newFakeAdjacency()
	adj.addEdge("e1", "a", "b", "R")
	adj.addEdge("e2", "a", "c", "R")

	ctx := New(adj, "a", "c", true, nil, querygraph.Outgoing, 1, 1, nil)

	var heads []storage.NodeID
	for {
		p, ok, _ := ctx.NextPath()
		if !ok {
			break
		}
		heads = append(heads, p.Head())
	}

	if len(heads) != 1 || heads[0] != "c" {
		t.Fatalf("expected only the path to fixed destination 'c', got %v", heads)
	}
}

func TestNextPathClosesCycleBackToStart(t *testing.T) {
	// MATCH (a)-[*1..2]->(a): a self-loop pattern whose fixed destination is
	// its own start node. Node-uniqueness must admit exactly one return to
	// the start as the path's terminal node, without allowing it to extend
	// further (which would revisit the start as an interior node).
	adj := newFakeAdjacency()
	adj.addEdge("e1", "a", "a", "R") // direct 1-hop cycle
	adj.addEdge("e2", "a", "b", "R") // 2-hop cycle via b
	adj.addEdge("e3", "b", "a", "R")
	adj.addEdge("e4", "a", "c", "R") // doesn't lead back, shouldn't be yielded

	ctx := New(adj, "a", "a", true, nil, querygraph.Outgoing, 1, 2, nil)

	var lengths []int
	for {
		p, ok, err := ctx.NextPath()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !ok {
			break
		}
		if p.Head() != "a" {
			t.Fatalf("expected every emitted path to terminate at the start node, got %v", p.Head())
		}
		lengths = append(lengths, p.HopCount())
	}

	if len(lengths) != 2 {
		t.Fatalf("expected exactly one 1-hop and one 2-hop cycle through 'a', got %d: %v", len(lengths), lengths)
	}
}

func TestNextPathExhaustionReturnsFalseForever(t *testing.T) {
	adj := newFakeAdjacency()
	ctx := New(adj, "a", "", false, nil, querygraph.Outgoing, 1, 1, nil)

	if _, ok, _ := ctx.NextPath(); ok {
		t.Fatal("expected no 1-hop paths from an isolated node")
	}
	if _, ok, _ := ctx.NextPath(); ok {
		t.Fatal("expected exhausted context to keep returning false")
	}
}
