// Package record provides the positional-slot row type operators read from
// and write to. A Record is the external row type this module's operators
// assume — upstream operators bind node/edge/path/scalar values into
// numbered slots, and the variable-length traversal operator both reads a
// source-node slot and writes a destination-node (and optionally path) slot.
package record

import (
	"github.com/orneryd/loomgraph/pkg/objpool"
	"github.com/orneryd/loomgraph/pkg/path"
	"github.com/orneryd/loomgraph/pkg/storage"
)

// Kind tags what a Value currently holds.
type Kind int

const (
	// Absent marks an empty slot (never written, or cleared).
	Absent Kind = iota
	NodeKind
	EdgeKind
	PathKind
	ScalarKind
)

// Value is a tagged union occupying one Record slot.
type Value struct {
	Kind   Kind
	Node   *storage.Node
	Edge   *storage.Edge
	Path   *path.Path
	Scalar any
}

// Record is a fixed-width row of slots addressed by integer index, matching
// the positional-slot model the source's Record type uses.
type Record struct {
	slots []Value
}

var recordPool = objpool.NewPool(func() *Record {
	return &Record{slots: make([]Value, 0, 8)}
})

// New allocates a Record with width slots, all Absent.
func New(width int) *Record {
	r := recordPool.Get()
	if cap(r.slots) < width {
		r.slots = make([]Value, width)
	} else {
		r.slots = r.slots[:width]
		for i := range r.slots {
			r.slots[i] = Value{}
		}
	}
	return r
}

// Release returns a Record to the pool. Callers must not use r afterward.
func Release(r *Record) {
	if r == nil {
		return
	}
	recordPool.Put(r)
}

// Width returns the number of slots.
func (r *Record) Width() int { return len(r.slots) }

// Node returns the node bound at slot, or nil if the slot is absent or does
// not hold a node.
func (r *Record) Node(slot int) *storage.Node {
	if slot < 0 || slot >= len(r.slots) {
		return nil
	}
	v := r.slots[slot]
	if v.Kind != NodeKind {
		return nil
	}
	return v.Node
}

// SetNode binds a node at slot.
func (r *Record) SetNode(slot int, n *storage.Node) {
	r.ensure(slot)
	r.slots[slot] = Value{Kind: NodeKind, Node: n}
}

// Edge returns the edge bound at slot, or nil if absent or not an edge.
func (r *Record) Edge(slot int) *storage.Edge {
	if slot < 0 || slot >= len(r.slots) {
		return nil
	}
	v := r.slots[slot]
	if v.Kind != EdgeKind {
		return nil
	}
	return v.Edge
}

// SetEdge binds an edge at slot.
func (r *Record) SetEdge(slot int, e *storage.Edge) {
	r.ensure(slot)
	r.slots[slot] = Value{Kind: EdgeKind, Edge: e}
}

// Path returns the path bound at slot, or nil if absent or not a path.
func (r *Record) Path(slot int) *path.Path {
	if slot < 0 || slot >= len(r.slots) {
		return nil
	}
	v := r.slots[slot]
	if v.Kind != PathKind {
		return nil
	}
	return v.Path
}

// SetPath binds a path at slot. Slot < 0 is a documented no-op: callers pass
// the "edge slot unused" sentinel (-1) straight through rather than branching
// at every call site.
func (r *Record) SetPath(slot int, p *path.Path) {
	if slot < 0 {
		return
	}
	r.ensure(slot)
	r.slots[slot] = Value{Kind: PathKind, Path: p}
}

// Scalar returns the scalar value bound at slot, or nil.
func (r *Record) Scalar(slot int) any {
	if slot < 0 || slot >= len(r.slots) {
		return nil
	}
	return r.slots[slot].Scalar
}

// SetScalar binds an arbitrary scalar at slot.
func (r *Record) SetScalar(slot int, v any) {
	r.ensure(slot)
	r.slots[slot] = Value{Kind: ScalarKind, Scalar: v}
}

// IsAbsent reports whether slot holds no value.
func (r *Record) IsAbsent(slot int) bool {
	if slot < 0 || slot >= len(r.slots) {
		return true
	}
	return r.slots[slot].Kind == Absent
}

// Clone returns a new record with r's slot values copied in, pooled the same
// as New. The copy is shallow: node, edge and path pointers are shared with r.
func (r *Record) Clone() *Record {
	c := New(len(r.slots))
	copy(c.slots, r.slots)
	return c
}

func (r *Record) ensure(slot int) {
	if slot < len(r.slots) {
		return
	}
	grown := make([]Value, slot+1)
	copy(grown, r.slots)
	r.slots = grown
}
