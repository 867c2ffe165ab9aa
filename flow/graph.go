package flow

import "github.com/viant/dflow/xerrors"

// Graph is the flow DAG's arena representation: every node lives in a
// flat slice addressed by index, and its dependencies are a parallel
// slice of child indices rather than pointers — the same shape the
// reconciler and the writer both walk without reaching back into each
// Node's own internals.
type Graph struct {
	nodes  []Node
	labels []string
	edges  [][]int
}

// NewGraph returns an empty graph.
func NewGraph() *Graph { return &Graph{} }

// Add appends n to the arena with the given diagnostic label and
// dependency list (in argument order), returning n's index.
func (g *Graph) Add(n Node, label string, children []int) int {
	idx := len(g.nodes)
	g.nodes = append(g.nodes, n)
	g.labels = append(g.labels, label)
	g.edges = append(g.edges, append([]int(nil), children...))
	return idx
}

// Set replaces the node stored at idx, used by the reconciler to
// splice a convert/transpose/flip node in front of an existing
// dependency without renumbering the graph.
func (g *Graph) Set(idx int, n Node) { g.nodes[idx] = n }

// Node returns the node at idx.
func (g *Graph) Node(idx int) Node { return g.nodes[idx] }

// Label returns idx's diagnostic label.
func (g *Graph) Label(idx int) string { return g.labels[idx] }

// Children returns idx's dependency indices, in argument order.
func (g *Graph) Children(idx int) []int { return g.edges[idx] }

// SetChildren replaces idx's dependency list, used by the reconciler
// when it splices a new node between idx and one of its existing
// children.
func (g *Graph) SetChildren(idx int, children []int) { g.edges[idx] = append([]int(nil), children...) }

// Len returns the number of nodes in the arena.
func (g *Graph) Len() int { return len(g.nodes) }

type visitState uint8

const (
	white visitState = iota
	gray
	black
)

// PostOrder returns every node reachable from root in dependency order
// (a node always appears after every node it depends on), or a
// *xerrors.CycleError if root's dependencies are cyclic.
func (g *Graph) PostOrder(root int) ([]int, error) {
	state := make([]visitState, g.Len())
	var order []int
	var path []string

	var visit func(idx int) error
	visit = func(idx int) error {
		switch state[idx] {
		case black:
			return nil
		case gray:
			return &xerrors.CycleError{Path: append(append([]string(nil), path...), g.labels[idx])}
		}
		state[idx] = gray
		path = append(path, g.labels[idx])
		for _, c := range g.edges[idx] {
			if err := visit(c); err != nil {
				return err
			}
		}
		path = path[:len(path)-1]
		state[idx] = black
		order = append(order, idx)
		return nil
	}
	if err := visit(root); err != nil {
		return nil, err
	}
	return order, nil
}
