package optimizer

import (
	"testing"

	"github.com/orneryd/loomgraph/pkg/algebra"
	"github.com/orneryd/loomgraph/pkg/filter"
	"github.com/orneryd/loomgraph/pkg/querygraph"
)

func labeledGraph(labels map[string]string) *querygraph.Graph {
	g := querygraph.NewGraph()
	for alias, label := range labels {
		g.AddNode(querygraph.Node{Alias: alias, Label: label})
	}
	return g
}

// (a:A)-[:R]->(b)-[:R]->(c:C): the labeled endpoint closest to the head
// should end up as the entry point so evaluation starts from a narrow scan.
func TestOrderExpressionsPrefersLabeledEntryPoint(t *testing.T) {
	qg := labeledGraph(map[string]string{"a": "A", "b": "", "c": "C"})
	ab := algebra.New("b", "a", "R", 1) // deliberately reversed from intended scan direction
	bc := algebra.New("b", "c", "R", 1)
	exps := []*algebra.Expression{ab, bc}

	OrderExpressions(qg, exps, nil, nil, Config{})

	if exps[0].Source() != "a" && exps[0].Destination() != "a" {
		t.Fatalf("expected labeled node 'a' to anchor the head, got src=%s dst=%s", exps[0].Source(), exps[0].Destination())
	}
}

// Every arrangement OrderExpressions produces must be valid: each non-head
// expression's source or destination resolved by an earlier expression.
func TestOrderExpressionsProducesValidArrangement(t *testing.T) {
	qg := labeledGraph(map[string]string{"a": "", "b": "", "c": "", "d": ""})
	exps := []*algebra.Expression{
		algebra.New("c", "d", "R", 1),
		algebra.New("a", "b", "R", 1),
		algebra.New("b", "c", "R", 1),
	}

	OrderExpressions(qg, exps, nil, nil, Config{})

	if !validArrangement(exps, qg) {
		t.Fatalf("OrderExpressions produced an invalid arrangement: %+v", exps)
	}
}

// Determinism: running the optimizer twice on equivalent input yields the
// same arrangement.
func TestOrderExpressionsIsDeterministic(t *testing.T) {
	qg := labeledGraph(map[string]string{"a": "A", "b": "", "c": ""})
	build := func() []*algebra.Expression {
		return []*algebra.Expression{
			algebra.New("a", "b", "R", 1),
			algebra.New("b", "c", "R", 1),
		}
	}

	first := build()
	OrderExpressions(qg, first, nil, nil, Config{})
	second := build()
	OrderExpressions(qg, second, nil, nil, Config{})

	for i := range first {
		if first[i].Source() != second[i].Source() || first[i].Destination() != second[i].Destination() {
			t.Fatalf("non-deterministic ordering at index %d: %+v vs %+v", i, first, second)
		}
	}
}

// Bound-variable dominance: a bound variable at the tail should win entry
// point selection over an unbound labeled node at the head.
func TestOrderExpressionsBoundVariableDominatesLabel(t *testing.T) {
	qg := labeledGraph(map[string]string{"a": "A", "b": ""})
	exps := []*algebra.Expression{algebra.New("a", "b", "R", 1)}
	bound := map[string]struct{}{"b": {}}

	OrderExpressions(qg, exps, nil, bound, Config{})

	if exps[0].Source() != "b" {
		t.Fatalf("expected bound variable 'b' to become the source, got %s", exps[0].Source())
	}
}

// MAINTAIN_TRANSPOSE suppresses the transpose penalty entirely; scoring falls
// back to reward alone.
func TestPenaltySuppressedWhenMaintainTransposeSet(t *testing.T) {
	exps := []*algebra.Expression{algebra.New("a", "b", "R", 1)}
	exps[0].Transpose()
	exps[0].Transpose()
	exps[0].Transpose()

	if penaltyArrangement(exps, Config{MaintainTranspose: true}) != 0 {
		t.Fatal("expected zero penalty under MaintainTranspose")
	}
	if penaltyArrangement(exps, Config{MaintainTranspose: false}) == 0 {
		t.Fatal("expected nonzero penalty without MaintainTranspose")
	}
}

// Head-scan restriction: a single-operand, labeled, edge-bearing expression
// may not lead an arrangement of more than one expression.
func TestValidArrangementRejectsLabeledSingleOperandHead(t *testing.T) {
	qg := labeledGraph(map[string]string{"a": "A", "b": "", "c": ""})
	arrangement := []*algebra.Expression{
		algebra.New("a", "b", "R", 1),
		algebra.New("b", "c", "R", 1),
	}
	if validArrangement(arrangement, qg) {
		t.Fatal("expected labeled single-operand head to be rejected")
	}
}

// Filter reward: a filtered alias should be preferred as entry point over an
// unfiltered, unlabeled one.
func TestOrderExpressionsFilterRewardPicksFilteredEntry(t *testing.T) {
	qg := labeledGraph(map[string]string{"a": "", "b": ""})
	exps := []*algebra.Expression{algebra.New("a", "b", "R", 1)}

	// A real predicate on "b", e.g. `WHERE b.weight > 5`: ReferencedAliases
	// reports the query-graph variable alias "b", not the property key
	// "weight", which is what the optimizer's filter reward consults.
	aliasFilter := &filter.Property{Alias: "b", Name: "weight", Op: filter.Gt, Value: 5.0}

	OrderExpressions(qg, exps, aliasFilter, nil, Config{})

	if exps[0].Source() != "b" {
		t.Fatalf("expected filtered alias 'b' to become source, got %s", exps[0].Source())
	}
}
