// Package filter implements the per-edge predicate tree the variable-length
// traversal operator evaluates against a candidate edge during path
// enumeration. It is intentionally small: comparisons and boolean
// connectives over properties read off the candidate edge, not a general
// expression evaluator (that full evaluator is the out-of-scope
// "filter-tree evaluator" collaborator; this package grounds just enough of
// it to exercise the operator's filter-correctness contract end to end).
package filter

import "github.com/orneryd/loomgraph/pkg/storage"

// Op is a comparison operator.
type Op int

const (
	Eq Op = iota
	Neq
	Lt
	Lte
	Gt
	Gte
)

// Tree is a boolean predicate evaluated against a candidate edge.
//
// Attached once to an operator, owned by it, and freed with it — reattaching
// a filter to an operator that already has one is a precondition violation
// the operator package reports as ErrFilterAlreadySet.
type Tree interface {
	// Evaluate reports whether e satisfies the predicate.
	Evaluate(e *storage.Edge) bool
	// ReferencedAliases returns the set of query-graph variable aliases this
	// filter reads (e.g. "a", "r" — never property keys), consulted by the
	// optimizer for the filter reward (+F) and mirroring the original's
	// FilterTree_CollectModified.
	ReferencedAliases() []string
}

// Property is a leaf predicate comparing an edge property against a
// constant value. Alias names the pattern variable the property is read
// from (e.g. "r" in `r.weight > 5`); Name is the property key itself.
type Property struct {
	Alias string
	Name  string
	Op    Op
	Value any
}

// Evaluate implements Tree.
func (p *Property) Evaluate(e *storage.Edge) bool {
	if e == nil {
		return false
	}
	actual, ok := e.Properties[p.Name]
	if !ok {
		return false
	}
	return compare(actual, p.Value, p.Op)
}

// ReferencedAliases implements Tree.
func (p *Property) ReferencedAliases() []string { return []string{p.Alias} }

func compare(a, b any, op Op) bool {
	switch op {
	case Eq:
		return a == b
	case Neq:
		return a != b
	}
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if !aok || !bok {
		return false
	}
	switch op {
	case Lt:
		return af < bf
	case Lte:
		return af <= bf
	case Gt:
		return af > bf
	case Gte:
		return af >= bf
	default:
		return false
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// And is a conjunction of sub-filters; all must be satisfied.
type And struct {
	Children []Tree
}

// Evaluate implements Tree.
func (a *And) Evaluate(e *storage.Edge) bool {
	for _, c := range a.Children {
		if !c.Evaluate(e) {
			return false
		}
	}
	return true
}

// ReferencedAliases implements Tree.
func (a *And) ReferencedAliases() []string {
	var out []string
	for _, c := range a.Children {
		out = append(out, c.ReferencedAliases()...)
	}
	return out
}

// Or is a disjunction of sub-filters; at least one must be satisfied. An Or
// with no children is satisfied.
type Or struct {
	Children []Tree
}

// Evaluate implements Tree.
func (o *Or) Evaluate(e *storage.Edge) bool {
	for _, c := range o.Children {
		if c.Evaluate(e) {
			return true
		}
	}
	return len(o.Children) == 0
}

// ReferencedAliases implements Tree.
func (o *Or) ReferencedAliases() []string {
	var out []string
	for _, c := range o.Children {
		out = append(out, c.ReferencedAliases()...)
	}
	return out
}

// Not negates a sub-filter.
type Not struct {
	Child Tree
}

// Evaluate implements Tree.
func (n *Not) Evaluate(e *storage.Edge) bool { return !n.Child.Evaluate(e) }

// ReferencedAliases implements Tree.
func (n *Not) ReferencedAliases() []string { return n.Child.ReferencedAliases() }
