// Package operator implements the conditional variable-length traversal
// operator: a pull-based pipeline stage that, for each upstream record
// binding a source node, enumerates every simple path within a hop-count
// range and binds the destination node (and optionally the path itself) into
// a cloned output record.
//
// It comes in two modes sharing one implementation, distinguished by Kind.
// CondVarLenTraverse discovers the destination node as it enumerates.
// CondVarLenTraverseExpandInto is given a destination already bound by an
// upstream operator and only yields paths that actually reach it — used when
// a pattern binds both traversal endpoints.
package operator

import (
	"errors"
	"fmt"

	"github.com/orneryd/loomgraph/pkg/allpaths"
	"github.com/orneryd/loomgraph/pkg/filter"
	"github.com/orneryd/loomgraph/pkg/querygraph"
	"github.com/orneryd/loomgraph/pkg/record"
	"github.com/orneryd/loomgraph/pkg/storage"
)

// Common errors returned by operator mutation methods.
var (
	// ErrFilterAlreadySet is returned by SetFilter when a filter tree is
	// already attached. A filter is owned exclusively by the operator it was
	// attached to; re-attachment is a caller bug, not a runtime condition to
	// silently overwrite.
	ErrFilterAlreadySet = errors.New("operator: filter already set")

	// ErrUnresolvedSource is returned by Create when the edge's source alias
	// has not been bound by any earlier operator in the plan. The traversal
	// operator can only extend an existing binding, never originate one.
	ErrUnresolvedSource = errors.New("operator: source alias not yet bound")
)

// Kind tags which externally visible variant an Operator implements.
type Kind int

const (
	// KindCondVarLenTraverse resolves and binds a new destination alias.
	KindCondVarLenTraverse Kind = iota
	// KindCondVarLenTraverseExpandInto filters against an already-bound
	// destination alias instead of binding a new one.
	KindCondVarLenTraverseExpandInto
)

// String returns the operator kind's planner-facing name.
func (k Kind) String() string {
	switch k {
	case KindCondVarLenTraverse:
		return "CondVarLenTraverse"
	case KindCondVarLenTraverseExpandInto:
		return "CondVarLenTraverseExpandInto"
	default:
		return "Unknown"
	}
}

// Child is the upstream pipeline stage this operator pulls records from.
type Child interface {
	// Consume returns the next upstream record, or nil once exhausted.
	Consume() *record.Record
}

// SchemaLookup resolves a relation-type name to its storage schema id.
// Implemented by *storage.Schema in production; stubbed in tests.
type SchemaLookup interface {
	RelationTypeID(name string) (int, bool)
}

// Operator is the uniform pull interface every execution-plan stage in this
// package implements: consume/reset/clone/free plus a Kind tag and a
// planner-facing String representation, standing in for the teacher's
// function-pointer operator polymorphism.
type Operator interface {
	// Kind reports which externally visible variant this operator is.
	Kind() Kind
	// String returns a short planner-facing description of this operator's
	// configuration, for plan printing and debugging.
	String() string
	// Consume returns the next output record, or nil once upstream is
	// exhausted.
	Consume() (*record.Record, error)
	// Reset discards in-flight enumeration state so the next Consume call
	// starts from a clean slate.
	Reset()
	// Clone returns a new, independent operator with the same configuration
	// but no attached child, filter, or in-flight state.
	Clone() Operator
	// Free releases any retained resources.
	Free()
}

// CondVarLenTraverse is the conditional variable-length traversal operator.
//
// Lifecycle: Create, optionally SetFilter and ExpandInto once each, then
// repeated Consume/Reset cycles, ending with Free. Clone produces a fresh,
// independent operator sharing no mutable state with the original, suitable
// for a second execution-plan branch.
type CondVarLenTraverse struct {
	adj      allpaths.AdjacencyAccess
	schema   SchemaLookup
	child    Child
	edge     *querygraph.Edge
	srcSlot  int
	dstSlot  int
	edgeSlot int // -1 if the path itself isn't referenced downstream

	expandInto bool
	filter     filter.Tree
	transposed bool

	dir         querygraph.Direction
	relResolved bool
	relTypes    []string // declared names found in the schema; nil when the edge declares none (no restriction)

	current *record.Record // the upstream record currently being expanded
	ctx     *allpaths.Ctx
}

var _ Operator = (*CondVarLenTraverse)(nil)

// Create constructs a CondVarLenTraverse operator bound to adj (the
// adjacency source) and schema (for lazy relation-type resolution),
// evaluating edge against plan's alias bindings.
//
// The source slot is resolved by looking up edge.Src among plan's
// already-bound aliases; it is an error for it not to exist. The destination
// slot is resolved the same way if edge.Dst is already bound (an ExpandInto
// pattern — call ExpandInto on the result to select that behavior at
// Consume time), otherwise a fresh slot is allocated for it. An edge-list
// slot is allocated iff referencesEdge is true (the query references the
// edge alias downstream); otherwise edgeSlot is the sentinel -1.
//
// transposed reports whether the planner's algebraic expression for this
// edge was transposed by the optimizer: the initial direction is BOTH if the
// edge is bidirectional, else INCOMING when transposed, else OUTGOING.
func Create(plan *PlanContext, adj allpaths.AdjacencyAccess, schema SchemaLookup, edge *querygraph.Edge, referencesEdge bool, transposed bool) (*CondVarLenTraverse, error) {
	srcSlot, ok := plan.Resolve(edge.Src)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnresolvedSource, edge.Src)
	}
	dstSlot := plan.Allocate(edge.Dst)
	edgeSlot := -1
	if referencesEdge {
		edgeSlot = plan.Allocate(edge.Alias)
	}

	dir := querygraph.Outgoing
	switch {
	case edge.Bidirectional:
		dir = querygraph.Both
	case transposed:
		dir = querygraph.Incoming
	}
	return &CondVarLenTraverse{
		adj:        adj,
		schema:     schema,
		edge:       edge,
		srcSlot:    srcSlot,
		dstSlot:    dstSlot,
		edgeSlot:   edgeSlot,
		dir:        dir,
		transposed: transposed,
	}, nil
}

// Kind reports CondVarLenTraverseExpandInto once ExpandInto has been called,
// CondVarLenTraverse otherwise.
func (t *CondVarLenTraverse) Kind() Kind {
	if t.expandInto {
		return KindCondVarLenTraverseExpandInto
	}
	return KindCondVarLenTraverse
}

// String returns a short planner-facing description of this operator.
func (t *CondVarLenTraverse) String() string {
	return fmt.Sprintf("%s(%s, src=%d, dst=%d, edge=%d, dir=%s, hops=[%d,%d])",
		t.Kind(), t.edge.Alias, t.srcSlot, t.dstSlot, t.edgeSlot, t.dir, t.edge.MinHops, t.edge.MaxHops)
}

// SetChild attaches the upstream pipeline stage this operator pulls from.
func (t *CondVarLenTraverse) SetChild(c Child) { t.child = c }

// SetFilter attaches a per-edge filter tree, evaluated against every
// candidate edge during enumeration. May be called at most once.
func (t *CondVarLenTraverse) SetFilter(f filter.Tree) error {
	if t.filter != nil {
		return ErrFilterAlreadySet
	}
	t.filter = f
	return nil
}

// ExpandInto switches the operator into fixed-destination mode: only paths
// reaching the node already bound at dstSlot are yielded, and Consume does
// not write a new destination binding. Kind reports
// KindCondVarLenTraverseExpandInto from this point on.
func (t *CondVarLenTraverse) ExpandInto() {
	t.expandInto = true
}

// Consume returns the next output record, or nil once the child is
// exhausted. Each output record is a clone of the upstream record that
// produced it, with the destination node (unless ExpandInto) and, if
// edgeSlot >= 0, the traversed path bound in.
func (t *CondVarLenTraverse) Consume() (*record.Record, error) {
	for {
		if t.ctx == nil {
			if !t.pullNext() {
				return nil, nil
			}
			if t.ctx == nil {
				// pullNext found an unusable upstream record (e.g. missing
				// source node from a failed OPTIONAL MATCH); try again.
				continue
			}
		}

		p, ok, err := t.ctx.NextPath()
		if err != nil {
			return nil, err
		}
		if !ok {
			t.ctx = nil
			continue
		}

		out := t.current.Clone()
		if !t.expandInto {
			out.SetNode(t.dstSlot, &storage.Node{ID: p.Head()})
		}
		if t.edgeSlot >= 0 {
			out.SetPath(t.edgeSlot, p)
		}
		return out, nil
	}
}

// pullNext pulls the next upstream record, resolves relation types on first
// use, and starts a fresh enumeration context from its source node binding.
// It reports false once the child is exhausted.
func (t *CondVarLenTraverse) pullNext() bool {
	childRecord := t.child.Consume()
	if childRecord == nil {
		return false
	}

	if t.current != nil {
		record.Release(t.current)
	}
	t.current = childRecord

	src := t.current.Node(t.srcSlot)
	if src == nil {
		// e.g. a failed OPTIONAL MATCH left the source slot absent.
		record.Release(t.current)
		t.current = nil
		return true
	}

	if !t.relResolved {
		t.resolveRelationTypes()
		t.relResolved = true
	}

	maxHops := t.edge.MaxHops
	if len(t.edge.RelTypes) > 0 && len(t.relTypes) == 0 {
		// None of the declared relation types exists in the schema, so no
		// edge can match: only a zero-length path can still be yielded.
		if t.edge.MinHops > 0 {
			return false
		}
		maxHops = 0
	}

	var dest storage.NodeID
	hasDest := false
	if t.expandInto {
		if d := t.current.Node(t.dstSlot); d != nil {
			dest, hasDest = d.ID, true
		}
	}

	t.ctx = allpaths.New(t.adj, src.ID, dest, hasDest, t.relTypes, t.dir, t.edge.MinHops, maxHops, t.filter)
	return true
}

// resolveRelationTypes resolves each declared relation-type name against the
// schema, dropping names the schema has never seen. An edge declaring no
// relation types at all imposes no restriction.
func (t *CondVarLenTraverse) resolveRelationTypes() {
	if len(t.edge.RelTypes) == 0 {
		t.relTypes = nil
		return
	}
	resolved := make([]string, 0, len(t.edge.RelTypes))
	for _, name := range t.edge.RelTypes {
		if _, ok := t.schema.RelationTypeID(name); ok {
			resolved = append(resolved, name)
		}
	}
	t.relTypes = resolved
}

// Reset discards in-flight enumeration state so the next Consume call starts
// from a clean slate, as after a parent operator rewinds the pipeline.
func (t *CondVarLenTraverse) Reset() {
	if t.current != nil {
		record.Release(t.current)
		t.current = nil
	}
	t.ctx = nil
	t.relResolved = false
	t.relTypes = nil
}

// Clone returns a new CondVarLenTraverse with the same configuration but no
// attached child, filter, or in-flight state — the caller must SetChild and
// (if needed) SetFilter/ExpandInto on the clone before use. Kind is preserved:
// cloning an ExpandInto operator yields another ExpandInto operator.
func (t *CondVarLenTraverse) Clone() Operator {
	c := &CondVarLenTraverse{
		adj:        t.adj,
		schema:     t.schema,
		edge:       t.edge,
		srcSlot:    t.srcSlot,
		dstSlot:    t.dstSlot,
		edgeSlot:   t.edgeSlot,
		dir:        t.dir,
		transposed: t.transposed,
		expandInto: t.expandInto,
	}
	return c
}

// Free releases any retained record, returning it to the pool.
func (t *CondVarLenTraverse) Free() {
	if t.current != nil {
		record.Release(t.current)
		t.current = nil
	}
	t.ctx = nil
}
