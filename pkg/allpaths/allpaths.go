// Package allpaths enumerates simple paths between a resolved source node and
// an optional fixed destination, within a hop-count range and an edge
// relation-type and filter restriction. It is the engine the variable-length
// traversal operator pulls one path at a time from.
//
// Enumeration is depth-first and stack-resumable: each call to NextPath picks
// up exactly where the previous call left off, so a caller can interleave
// NextPath calls with other work (pulling new child records, say) without the
// enumerator losing its place.
package allpaths

import (
	"github.com/orneryd/loomgraph/pkg/filter"
	"github.com/orneryd/loomgraph/pkg/path"
	"github.com/orneryd/loomgraph/pkg/querygraph"
	"github.com/orneryd/loomgraph/pkg/storage"
)

// AdjacencyAccess is the minimal neighbor-lookup surface the enumerator
// needs. storage.Engine satisfies it structurally; it is declared separately
// here so this package doesn't depend on the full storage engine contract
// (adjacency access itself is an external collaborator this package only
// consumes, never reimplements).
type AdjacencyAccess interface {
	GetOutgoingEdges(id storage.NodeID) ([]*storage.Edge, error)
	GetIncomingEdges(id storage.NodeID) ([]*storage.Edge, error)
}

// frame is one level of the explicit DFS stack: the node reached, the
// candidate edges out of (or into) it, and how far traversal has gotten
// through that candidate list.
type frame struct {
	node    storage.NodeID
	via     storage.EdgeID // edge that led here; zero value at the root frame
	edges   []*storage.Edge
	fetched bool // whether edges has been populated (distinguishes "no candidates" from "not looked up yet")
	idx     int
	yielded bool // whether this frame's own prefix path has already been produced
}

// Ctx is one enumeration session, bound to a single source node. Once
// exhausted (NextPath returns ok=false), it must be discarded — create a new
// Ctx for the next source node, matching the source contract's
// allocate-per-record-source lifecycle.
type Ctx struct {
	adj      AdjacencyAccess
	dest     storage.NodeID // empty unless a fixed destination was given (ExpandInto)
	hasDest  bool
	relTypes []string // empty means "no relation-type restriction"
	dir      querygraph.Direction
	minHops  int
	maxHops  int
	filter   filter.Tree

	stack []frame
	done  bool

	// closesAtStart is true when the fixed destination is the start node
	// itself (a cycle pattern, e.g. MATCH (a)-[*1..2]->(a)). Node-uniqueness
	// then admits exactly one return to the start node, as the path's final
	// node, rather than forbidding it outright.
	closesAtStart bool
}

// New starts enumerating simple paths from src. dest, if hasDest is true, fixes
// the destination (ExpandInto mode): only paths that terminate at dest are
// yielded. An empty relTypes matches every edge regardless of type.
func New(adj AdjacencyAccess, src storage.NodeID, dest storage.NodeID, hasDest bool, relTypes []string, dir querygraph.Direction, minHops, maxHops int, ft filter.Tree) *Ctx {
	return &Ctx{
		adj:           adj,
		dest:          dest,
		hasDest:       hasDest,
		relTypes:      relTypes,
		dir:           dir,
		minHops:       minHops,
		maxHops:       maxHops,
		filter:        ft,
		stack:         []frame{{node: src}},
		closesAtStart: hasDest && dest == src,
	}
}

// NextPath returns the next simple path in DFS order, or ok=false once the
// enumeration is exhausted.
func (c *Ctx) NextPath() (*path.Path, bool, error) {
	if c.done {
		return nil, false, nil
	}

	for len(c.stack) > 0 {
		top := &c.stack[len(c.stack)-1]
		depth := len(c.stack) - 1

		if !top.yielded {
			top.yielded = true
			if p, ok := c.maybeYield(depth); ok {
				return p, true, nil
			}
		}

		if !top.fetched && depth < c.maxHops {
			edges, err := c.candidates(top.node)
			if err != nil {
				return nil, false, err
			}
			top.edges = edges
			top.fetched = true
		}

		advanced, err := c.descend(depth)
		if err != nil {
			return nil, false, err
		}
		if advanced {
			continue
		}

		c.stack = c.stack[:len(c.stack)-1]
	}

	c.done = true
	return nil, false, nil
}

// maybeYield builds an output path for the current stack top if its hop
// count falls within [minHops, maxHops] and, in ExpandInto mode, it has
// reached the fixed destination.
func (c *Ctx) maybeYield(depth int) (*path.Path, bool) {
	if depth < c.minHops || depth > c.maxHops {
		return nil, false
	}
	if c.hasDest && c.stack[depth].node != c.dest {
		return nil, false
	}
	return c.buildPath(), true
}

// descend tries to push the next unexplored, filter-passing, not-yet-visited
// neighbor of the frame at depth onto the stack. It reports whether it did.
func (c *Ctx) descend(depth int) (bool, error) {
	top := &c.stack[depth]
	for top.idx < len(top.edges) {
		edge := top.edges[top.idx]
		top.idx++

		next := otherEndpoint(edge, top.node)
		closingCycle := c.closesAtStart && next == c.stack[0].node
		if c.visits(next) && !closingCycle {
			continue
		}
		if c.filter != nil && !c.filter.Evaluate(edge) {
			continue
		}

		// A frame that closes the cycle back to the start node is a dead
		// end: it can only be yielded, never extended, or the path would
		// revisit the start node as an interior node and stop being simple.
		nextFrame := frame{node: next, via: edge.ID}
		if closingCycle {
			nextFrame.fetched = true
		}
		c.stack = append(c.stack, nextFrame)
		return true, nil
	}
	return false, nil
}

// candidates returns the edges eligible to extend the path from node,
// respecting direction and relation-type restriction.
func (c *Ctx) candidates(node storage.NodeID) ([]*storage.Edge, error) {
	var out []*storage.Edge

	if c.dir == querygraph.Outgoing || c.dir == querygraph.Both {
		edges, err := c.adj.GetOutgoingEdges(node)
		if err != nil {
			return nil, err
		}
		out = append(out, filterByRelType(edges, c.relTypes)...)
	}
	if c.dir == querygraph.Incoming || c.dir == querygraph.Both {
		edges, err := c.adj.GetIncomingEdges(node)
		if err != nil {
			return nil, err
		}
		out = append(out, filterByRelType(edges, c.relTypes)...)
	}

	return out, nil
}

func filterByRelType(edges []*storage.Edge, relTypes []string) []*storage.Edge {
	if len(relTypes) == 0 {
		return edges
	}
	var out []*storage.Edge
	for _, e := range edges {
		for _, rt := range relTypes {
			if e.Type == rt {
				out = append(out, e)
				break
			}
		}
	}
	return out
}

// visits reports whether node already appears in the in-progress path,
// enforcing node-uniqueness (simple paths only; cycle elimination beyond
// this is out of scope).
func (c *Ctx) visits(node storage.NodeID) bool {
	for _, f := range c.stack {
		if f.node == node {
			return true
		}
	}
	return false
}

func (c *Ctx) buildPath() *path.Path {
	p := path.New(c.stack[0].node)
	for i := 1; i < len(c.stack); i++ {
		p.AppendEdge(c.stack[i].via, c.stack[i].node)
	}
	return p
}

func otherEndpoint(e *storage.Edge, from storage.NodeID) storage.NodeID {
	if e.StartNode == from {
		return e.EndNode
	}
	return e.StartNode
}
