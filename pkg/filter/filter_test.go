package filter

import (
	"testing"

	"github.com/orneryd/loomgraph/pkg/storage"
)

func edge(weight float64) *storage.Edge {
	return &storage.Edge{
		ID:         "e1",
		Properties: map[string]any{"weight": weight},
	}
}

func TestPropertyEq(t *testing.T) {
	f := &Property{Alias: "r", Name: "weight", Op: Eq, Value: 1.0}
	if !f.Evaluate(edge(1.0)) {
		t.Fatal("expected eq match")
	}
	if f.Evaluate(edge(2.0)) {
		t.Fatal("expected eq mismatch")
	}
}

func TestPropertyGte(t *testing.T) {
	f := &Property{Alias: "r", Name: "weight", Op: Gte, Value: 5.0}
	if !f.Evaluate(edge(5.0)) {
		t.Fatal("expected gte boundary match")
	}
	if f.Evaluate(edge(4.999)) {
		t.Fatal("expected gte mismatch below boundary")
	}
}

func TestMissingPropertyFails(t *testing.T) {
	f := &Property{Alias: "r", Name: "missing", Op: Eq, Value: 1.0}
	if f.Evaluate(edge(1.0)) {
		t.Fatal("expected false for missing property")
	}
}

func TestAndOrNot(t *testing.T) {
	high := &Property{Alias: "r", Name: "weight", Op: Gte, Value: 10.0}
	low := &Property{Alias: "r", Name: "weight", Op: Lt, Value: 1.0}

	and := &And{Children: []Tree{high, low}}
	if and.Evaluate(edge(5.0)) {
		t.Fatal("and should reject a middling weight")
	}

	or := &Or{Children: []Tree{high, low}}
	if !or.Evaluate(edge(0.5)) {
		t.Fatal("or should accept the low branch")
	}

	not := &Not{Child: high}
	if !not.Evaluate(edge(0.5)) {
		t.Fatal("not should invert the child result")
	}
}

func TestReferencedAliases(t *testing.T) {
	f := &And{Children: []Tree{
		&Property{Alias: "a", Name: "weight", Op: Eq, Value: 1},
		&Property{Alias: "r", Name: "active", Op: Eq, Value: true},
	}}
	aliases := f.ReferencedAliases()
	if len(aliases) != 2 || aliases[0] != "a" || aliases[1] != "r" {
		t.Fatalf("expected the query-graph variable aliases [a r], got %v", aliases)
	}
}
