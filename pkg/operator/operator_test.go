package operator

import (
	"errors"
	"testing"

	"github.com/orneryd/loomgraph/pkg/allpaths"
	"github.com/orneryd/loomgraph/pkg/filter"
	"github.com/orneryd/loomgraph/pkg/querygraph"
	"github.com/orneryd/loomgraph/pkg/record"
	"github.com/orneryd/loomgraph/pkg/storage"
)

type fakeAdjacency struct {
	out map[storage.NodeID][]*storage.Edge
}

func (f *fakeAdjacency) GetOutgoingEdges(id storage.NodeID) ([]*storage.Edge, error) {
	return f.out[id], nil
}
func (f *fakeAdjacency) GetIncomingEdges(id storage.NodeID) ([]*storage.Edge, error) { return nil, nil }

type fakeSchema struct{ ids map[string]int }

func (s *fakeSchema) RelationTypeID(name string) (int, bool) { id, ok := s.ids[name]; return id, ok }

// singleRecordChild yields exactly one record with a node bound at slot 0,
// then nil forever.
type singleRecordChild struct {
	r    *record.Record
	done bool
}

func (c *singleRecordChild) Consume() *record.Record {
	if c.done {
		return nil
	}
	c.done = true
	return c.r
}

func sourceRecord(id storage.NodeID) *record.Record {
	r := record.New(2)
	r.SetNode(0, &storage.Node{ID: id})
	return r
}

// boundPlan returns a PlanContext with the edge's source alias pre-bound at
// slot 0, as an upstream scan operator would have left it.
func boundPlan(srcAlias string) *PlanContext {
	p := NewPlanContext()
	p.Bind(srcAlias, 0)
	return p
}

func mustCreate(t *testing.T, plan *PlanContext, adj allpaths.AdjacencyAccess, schema SchemaLookup, edge *querygraph.Edge, referencesEdge, transposed bool) *CondVarLenTraverse {
	t.Helper()
	op, err := Create(plan, adj, schema, edge, referencesEdge, transposed)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return op
}

func TestConsumeBindsDestinationNode(t *testing.T) {
	adj := &fakeAdjacency{out: map[storage.NodeID][]*storage.Edge{
		"a": {{ID: "e1", StartNode: "a", EndNode: "b", Type: "R", Properties: map[string]any{}}},
	}}
	edge := querygraph.NewEdge("e", "src", "dst", 1, 1)
	op := mustCreate(t, boundPlan("src"), adj, &fakeSchema{}, edge, false, false)
	op.SetChild(&singleRecordChild{r: sourceRecord("a")})

	out, err := op.Consume()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out == nil {
		t.Fatal("expected a result record")
	}
	if got := out.Node(1); got == nil || got.ID != "b" {
		t.Fatalf("expected destination slot bound to node b, got %+v", got)
	}

	if out2, err := op.Consume(); err != nil || out2 != nil {
		t.Fatalf("expected exhaustion after the single path, got %+v err=%v", out2, err)
	}
}

func TestConsumeWritesPathWhenEdgeSlotReferenced(t *testing.T) {
	adj := &fakeAdjacency{out: map[storage.NodeID][]*storage.Edge{
		"a": {{ID: "e1", StartNode: "a", EndNode: "b", Type: "R", Properties: map[string]any{}}},
	}}
	edge := querygraph.NewEdge("e", "src", "dst", 1, 1)
	op := mustCreate(t, boundPlan("src"), adj, &fakeSchema{}, edge, true, false)

	r := record.New(3)
	r.SetNode(0, &storage.Node{ID: "a"})
	op.SetChild(&singleRecordChild{r: r})

	out, err := op.Consume()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Path(op.edgeSlot) == nil {
		t.Fatal("expected the traversed path bound at the edge slot")
	}
}

func TestSetFilterRejectsSecondAttachment(t *testing.T) {
	edge := querygraph.NewEdge("e", "src", "dst", 1, 1)
	op := mustCreate(t, boundPlan("src"), &fakeAdjacency{}, &fakeSchema{}, edge, false, false)

	if err := op.SetFilter(&filter.And{}); err != nil {
		t.Fatalf("first SetFilter should succeed: %v", err)
	}
	if err := op.SetFilter(&filter.And{}); err != ErrFilterAlreadySet {
		t.Fatalf("expected ErrFilterAlreadySet, got %v", err)
	}
}

func TestExpandIntoOnlyYieldsFixedDestination(t *testing.T) {
	adj := &fakeAdjacency{out: map[storage.NodeID][]*storage.Edge{
		"a": {
			{ID: "e1", StartNode: "a", EndNode: "b", Type: "R", Properties: map[string]any{}},
			{ID: "e2", StartNode: "a", EndNode: "c", Type: "R", Properties: map[string]any{}},
		},
	}}
	edge := querygraph.NewEdge("e", "src", "dst", 1, 1)
	plan := boundPlan("src")
	plan.Bind("dst", 1)
	op := mustCreate(t, plan, adj, &fakeSchema{}, edge, false, false)
	op.ExpandInto()

	r := record.New(2)
	r.SetNode(0, &storage.Node{ID: "a"})
	r.SetNode(1, &storage.Node{ID: "c"})
	op.SetChild(&singleRecordChild{r: r})

	out, err := op.Consume()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out == nil {
		t.Fatal("expected exactly one path reaching the fixed destination c")
	}
	if out2, _ := op.Consume(); out2 != nil {
		t.Fatal("expected no further paths after the one reaching c")
	}
}

func TestUnresolvedRelationTypeWithNonzeroMinHopsEndsStream(t *testing.T) {
	edge := querygraph.NewEdge("e", "src", "dst", 1, 1, "MISSING")
	op := mustCreate(t, boundPlan("src"), &fakeAdjacency{out: map[storage.NodeID][]*storage.Edge{}}, &fakeSchema{ids: map[string]int{}}, edge, false, false)

	r := record.New(2)
	r.SetNode(0, &storage.Node{ID: "a"})
	op.SetChild(&singleRecordChild{r: r})

	out, err := op.Consume()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != nil {
		t.Fatal("expected no results when the only relation type never resolved")
	}
}

func TestResetClearsInFlightState(t *testing.T) {
	adj := &fakeAdjacency{out: map[storage.NodeID][]*storage.Edge{
		"a": {{ID: "e1", StartNode: "a", EndNode: "b", Type: "R", Properties: map[string]any{}}},
	}}
	edge := querygraph.NewEdge("e", "src", "dst", 1, 1)
	op := mustCreate(t, boundPlan("src"), adj, &fakeSchema{}, edge, false, false)
	op.SetChild(&singleRecordChild{r: sourceRecord("a")})

	if _, err := op.Consume(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	op.Reset()
	if op.ctx != nil || op.current != nil || op.relResolved {
		t.Fatal("expected Reset to clear in-flight enumeration state")
	}
}

func TestCreateDirectionReflectsTransposition(t *testing.T) {
	outgoing := querygraph.NewEdge("e", "src", "dst", 1, 1)
	if op := mustCreate(t, boundPlan("src"), &fakeAdjacency{}, &fakeSchema{}, outgoing, false, false); op.dir != querygraph.Outgoing {
		t.Fatalf("expected OUTGOING for a non-transposed non-bidirectional edge, got %v", op.dir)
	}
	if op := mustCreate(t, boundPlan("src"), &fakeAdjacency{}, &fakeSchema{}, outgoing, false, true); op.dir != querygraph.Incoming {
		t.Fatalf("expected INCOMING when the algebraic expression was transposed, got %v", op.dir)
	}

	bidi := querygraph.NewEdge("e", "src", "dst", 1, 1)
	bidi.Bidirectional = true
	if op := mustCreate(t, boundPlan("src"), &fakeAdjacency{}, &fakeSchema{}, bidi, false, true); op.dir != querygraph.Both {
		t.Fatalf("expected BOTH for a bidirectional edge regardless of transposition, got %v", op.dir)
	}
}

func TestCreateUnresolvedSourceFails(t *testing.T) {
	edge := querygraph.NewEdge("e", "src", "dst", 1, 1)
	if _, err := Create(NewPlanContext(), &fakeAdjacency{}, &fakeSchema{}, edge, false, false); !errors.Is(err, ErrUnresolvedSource) {
		t.Fatalf("expected ErrUnresolvedSource, got %v", err)
	}
}

func TestCloneSharesConfigNotState(t *testing.T) {
	edge := querygraph.NewEdge("e", "src", "dst", 1, 1)
	op := mustCreate(t, boundPlan("src"), &fakeAdjacency{}, &fakeSchema{}, edge, false, false)
	op.SetChild(&singleRecordChild{r: sourceRecord("a")})
	_, _ = op.Consume()

	clone, ok := op.Clone().(*CondVarLenTraverse)
	if !ok {
		t.Fatal("expected Clone to return a *CondVarLenTraverse")
	}
	if clone.current != nil || clone.ctx != nil || clone.child != nil {
		t.Fatal("expected a clone to start with no attached child or in-flight state")
	}
	if clone.srcSlot != op.srcSlot || clone.dstSlot != op.dstSlot {
		t.Fatal("expected a clone to retain the original slot configuration")
	}
}
