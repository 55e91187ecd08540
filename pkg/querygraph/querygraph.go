// Package querygraph describes the shape of a pattern match: the nodes and
// edges a planner has parsed out of a query, addressed by alias rather than
// by storage id. The optimizer and the variable-length traversal operator
// both consult a QueryGraph to learn about an alias's label, relation types,
// hop bounds, and directionality — everything needed to plan and execute a
// traversal without knowing anything about query syntax.
package querygraph

// Direction is the traversal direction a variable-length edge is evaluated
// in, from the perspective of its resolved source node.
type Direction int

const (
	// Outgoing follows edges from source to destination.
	Outgoing Direction = iota
	// Incoming follows edges from destination to source (a transposed scan).
	Incoming
	// Both follows edges in either direction.
	Both
)

func (d Direction) String() string {
	switch d {
	case Outgoing:
		return "OUTGOING"
	case Incoming:
		return "INCOMING"
	case Both:
		return "BOTH"
	default:
		return "UNKNOWN"
	}
}

// Node describes a pattern-matched graph node by alias.
type Node struct {
	Alias string
	Label string // empty means unlabeled
}

// HasLabel reports whether this node carries a label constraint.
func (n Node) HasLabel() bool {
	return n.Label != ""
}

// Edge describes a pattern-matched graph edge by alias, including the
// variable-length hop bounds and relation-type constraints the traversal
// operator resolves against the storage schema.
//
// Invariant: len(RelTypeIDs) == len(RelTypes) — every positional relation
// type name has a parallel (possibly unresolved) id slot.
type Edge struct {
	Alias         string
	Src           string // alias of the source QGNode
	Dst           string // alias of the destination QGNode
	MinHops       int
	MaxHops       int
	Bidirectional bool

	// RelTypes holds the textual relation-type names declared in the
	// pattern, e.g. ["FOLLOWS", "BLOCKS"]. Empty means "no relation-type
	// restriction" (all relations match).
	RelTypes []string

	// RelTypeIDs is a parallel slice to RelTypes. An entry is -1 until the
	// corresponding name has been resolved against a storage schema; callers
	// must not assume resolution has happened before consulting it.
	RelTypeIDs []int
}

// NewEdge constructs an Edge with parallel, unresolved RelTypeIDs for the
// given relation-type names.
func NewEdge(alias, src, dst string, minHops, maxHops int, relTypes ...string) *Edge {
	ids := make([]int, len(relTypes))
	for i := range ids {
		ids[i] = -1
	}
	return &Edge{
		Alias:      alias,
		Src:        src,
		Dst:        dst,
		MinHops:    minHops,
		MaxHops:    maxHops,
		RelTypes:   relTypes,
		RelTypeIDs: ids,
	}
}

// QueryGraph resolves pattern aliases to their node/edge metadata. It is an
// external collaborator: this package ships the minimal concrete
// implementation (Graph) the optimizer and operator tests exercise, standing
// in for whatever richer query-graph type a surrounding planner maintains.
type QueryGraph interface {
	// Node looks up a node by alias. ok is false if the alias is unknown.
	Node(alias string) (Node, bool)
	// Edge looks up an edge by alias. ok is false if the alias is unknown.
	Edge(alias string) (*Edge, bool)
}

// Graph is a minimal, map-backed QueryGraph implementation.
type Graph struct {
	nodes map[string]Node
	edges map[string]*Edge
}

// NewGraph creates an empty query graph.
func NewGraph() *Graph {
	return &Graph{
		nodes: make(map[string]Node),
		edges: make(map[string]*Edge),
	}
}

// AddNode registers a node under its alias, overwriting any prior entry.
func (g *Graph) AddNode(n Node) {
	g.nodes[n.Alias] = n
}

// AddEdge registers an edge under its alias, overwriting any prior entry.
func (g *Graph) AddEdge(e *Edge) {
	g.edges[e.Alias] = e
}

// Node implements QueryGraph.
func (g *Graph) Node(alias string) (Node, bool) {
	n, ok := g.nodes[alias]
	return n, ok
}

// Edge implements QueryGraph.
func (g *Graph) Edge(alias string) (*Edge, bool) {
	e, ok := g.edges[alias]
	return e, ok
}
