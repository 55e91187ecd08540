package optimizer

import (
	"testing"
	"time"

	"github.com/orneryd/loomgraph/pkg/algebra"
)

func TestOrderExpressionsCachedReplaysSameDecision(t *testing.T) {
	qg := labeledGraph(map[string]string{"a": "A", "b": "", "c": ""})
	pc := NewPlanCache(16, time.Minute)

	build := func() []*algebra.Expression {
		return []*algebra.Expression{
			algebra.New("b", "a", "R", 1),
			algebra.New("b", "c", "R", 1),
		}
	}

	first := build()
	OrderExpressionsCached(qg, first, nil, nil, Config{}, pc)

	second := build()
	OrderExpressionsCached(qg, second, nil, nil, Config{}, pc)

	for i := range first {
		if first[i].Source() != second[i].Source() || first[i].Destination() != second[i].Destination() {
			t.Fatalf("cached replay diverged at index %d: %+v vs %+v", i, first, second)
		}
	}
}

func TestOrderExpressionsCachedDistinguishesShapes(t *testing.T) {
	qgA := labeledGraph(map[string]string{"a": "A", "b": ""})
	qgB := labeledGraph(map[string]string{"a": "", "b": "B"})
	pc := NewPlanCache(16, time.Minute)

	expsA := []*algebra.Expression{algebra.New("a", "b", "R", 1)}
	OrderExpressionsCached(qgA, expsA, nil, nil, Config{}, pc)
	if expsA[0].Source() != "a" {
		t.Fatalf("expected labeled 'a' to anchor entry, got %s", expsA[0].Source())
	}

	expsB := []*algebra.Expression{algebra.New("a", "b", "R", 1)}
	OrderExpressionsCached(qgB, expsB, nil, nil, Config{}, pc)
	if expsB[0].Source() != "b" {
		t.Fatalf("expected labeled 'b' to anchor entry under the differently-labeled shape, got %s", expsB[0].Source())
	}
}
