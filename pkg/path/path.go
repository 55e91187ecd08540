// Package path defines the enumerator output value type: an ordered list of
// alternating nodes and edges describing one simple path discovered by the
// all-paths enumerator.
package path

import "github.com/orneryd/loomgraph/pkg/storage"

// Path is an alternating sequence of node and edge ids: node, edge, node,
// edge, ..., node. A path of zero hops holds exactly one node and no edges.
type Path struct {
	nodes []storage.NodeID
	edges []storage.EdgeID
}

// New starts a new Path at a single node with no edges yet.
func New(start storage.NodeID) *Path {
	return &Path{nodes: []storage.NodeID{start}}
}

// AppendEdge extends the path by one hop: an edge and the node it leads to.
func (p *Path) AppendEdge(e storage.EdgeID, to storage.NodeID) {
	p.edges = append(p.edges, e)
	p.nodes = append(p.nodes, to)
}

// HopCount returns the number of edges in the path (its length).
func (p *Path) HopCount() int { return len(p.edges) }

// Head returns the terminal node of the path — the operator's destination
// binding when not in ExpandInto mode.
func (p *Path) Head() storage.NodeID {
	return p.nodes[len(p.nodes)-1]
}

// Start returns the first node of the path.
func (p *Path) Start() storage.NodeID {
	return p.nodes[0]
}

// Nodes returns the path's nodes in order. Callers must not mutate the
// returned slice.
func (p *Path) Nodes() []storage.NodeID { return p.nodes }

// Edges returns the path's edges in order. Callers must not mutate the
// returned slice.
func (p *Path) Edges() []storage.EdgeID { return p.edges }

// ContainsNode reports whether id appears anywhere in the path. The all-paths
// enumerator does not call it; it checks node-uniqueness against its own
// search stack.
func (p *Path) ContainsNode(id storage.NodeID) bool {
	for _, n := range p.nodes {
		if n == id {
			return true
		}
	}
	return false
}

// Clone returns an independent copy of the path.
func (p *Path) Clone() *Path {
	c := &Path{
		nodes: make([]storage.NodeID, len(p.nodes)),
		edges: make([]storage.EdgeID, len(p.edges)),
	}
	copy(c.nodes, p.nodes)
	copy(c.edges, p.edges)
	return c
}
