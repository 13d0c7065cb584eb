package model

// Graph is the scene root: the set of top-level nodes drawn every frame.
// It is owned by the UI goroutine and is not safe for concurrent use.
type Graph struct {
	roots []*Node
}

// NewGraph returns an empty scene graph.
func NewGraph() *Graph {
	return &Graph{}
}

// Add inserts n as a top-level node. Adding a node twice is a no-op.
func (g *Graph) Add(n *Node) {
	if g.Contains(n) {
		return
	}
	g.roots = append(g.roots, n)
}

// Remove detaches n from the graph. It reports whether n was present.
func (g *Graph) Remove(n *Node) bool {
	for i, r := range g.roots {
		if r == n {
			g.roots = append(g.roots[:i], g.roots[i+1:]...)
			return true
		}
	}
	return false
}

// Contains reports whether n is a top-level node of the graph.
func (g *Graph) Contains(n *Node) bool {
	for _, r := range g.roots {
		if r == n {
			return true
		}
	}
	return false
}

// Roots returns the top-level nodes in insertion order.
func (g *Graph) Roots() []*Node {
	return g.roots
}

// Len returns the number of top-level nodes.
func (g *Graph) Len() int {
	return len(g.roots)
}
