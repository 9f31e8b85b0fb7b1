package graph

import "slices"

// Edge is a directed parent to child pointer with an optional relation label.
type Edge struct {
	Parent string
	Child  string
	Label  string
}

type edgeKey struct {
	parent string
	child  string
}

// ConceptGraph is a directed graph of concept nodes that keeps insertion
// order for nodes and edges, so every traversal is deterministic.
//
// A ConceptGraph is owned by the build that created it. It is not safe for
// concurrent mutation; the read methods may be shared once the build returns.
type ConceptGraph struct {
	root string

	order []string
	nodes map[string]Node
	seq   map[string]int
	next  int

	edges []Edge
	index map[edgeKey]int
	succ  map[string][]string
	pred  map[string][]string
}

func newConceptGraph() *ConceptGraph {
	return &ConceptGraph{
		nodes: make(map[string]Node),
		seq:   make(map[string]int),
		index: make(map[edgeKey]int),
		succ:  make(map[string][]string),
		pred:  make(map[string][]string),
	}
}

// Root returns the root id, or "" for an empty graph.
func (g *ConceptGraph) Root() string {
	return g.root
}

// Len returns the number of nodes.
func (g *ConceptGraph) Len() int {
	return len(g.order)
}

// Empty reports whether the graph has no nodes.
func (g *ConceptGraph) Empty() bool {
	return len(g.order) == 0
}

// Nodes returns all nodes in insertion order.
func (g *ConceptGraph) Nodes() []Node {
	out := make([]Node, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.nodes[id])
	}
	return out
}

// Edges returns all edges in insertion order.
func (g *ConceptGraph) Edges() []Edge {
	return slices.Clone(g.edges)
}

func (g *ConceptGraph) Node(id string) (Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

func (g *ConceptGraph) HasNode(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

func (g *ConceptGraph) HasEdge(parent, child string) bool {
	_, ok := g.index[edgeKey{parent, child}]
	return ok
}

// Predecessors returns the parents of id in edge insertion order.
func (g *ConceptGraph) Predecessors(id string) []string {
	return slices.Clone(g.pred[id])
}

// Successors returns the children of id in edge insertion order.
func (g *ConceptGraph) Successors(id string) []string {
	return slices.Clone(g.succ[id])
}

func (g *ConceptGraph) InDegree(id string) int {
	return len(g.pred[id])
}

func (g *ConceptGraph) OutDegree(id string) int {
	return len(g.succ[id])
}

// sequence is the position at which id was first added.
func (g *ConceptGraph) sequence(id string) int {
	return g.seq[id]
}

// addNode inserts n unless a node with the same id exists. It reports
// whether the node was added.
func (g *ConceptGraph) addNode(n Node) bool {
	if _, ok := g.nodes[n.ID]; ok {
		return false
	}
	g.nodes[n.ID] = n
	g.order = append(g.order, n.ID)
	g.seq[n.ID] = g.next
	g.next++
	return true
}

// addEdge links parent to child. Self loops and edges touching unknown
// nodes are rejected. Re-adding an existing edge keeps its position and only
// fills in a missing label.
func (g *ConceptGraph) addEdge(parent, child, label string) bool {
	if parent == child || !g.HasNode(parent) || !g.HasNode(child) {
		return false
	}
	key := edgeKey{parent, child}
	if i, ok := g.index[key]; ok {
		if g.edges[i].Label == "" && label != "" {
			g.edges[i].Label = label
		}
		return false
	}

	g.index[key] = len(g.edges)
	g.edges = append(g.edges, Edge{Parent: parent, Child: child, Label: label})
	g.succ[parent] = append(g.succ[parent], child)
	g.pred[child] = append(g.pred[child], parent)
	return true
}

func (g *ConceptGraph) removeEdge(parent, child string) bool {
	key := edgeKey{parent, child}
	i, ok := g.index[key]
	if !ok {
		return false
	}

	g.edges = slices.Delete(g.edges, i, i+1)
	delete(g.index, key)
	for j := i; j < len(g.edges); j++ {
		g.index[edgeKey{g.edges[j].Parent, g.edges[j].Child}] = j
	}
	g.succ[parent] = removeString(g.succ[parent], child)
	g.pred[child] = removeString(g.pred[child], parent)
	return true
}

// removeNode deletes id together with every edge touching it.
func (g *ConceptGraph) removeNode(id string) bool {
	if !g.HasNode(id) {
		return false
	}
	for _, child := range g.Successors(id) {
		g.removeEdge(id, child)
	}
	for _, parent := range g.Predecessors(id) {
		g.removeEdge(parent, id)
	}

	delete(g.nodes, id)
	delete(g.succ, id)
	delete(g.pred, id)
	g.order = removeString(g.order, id)
	if g.root == id {
		g.root = ""
	}
	return true
}

func removeString(list []string, v string) []string {
	if i := slices.Index(list, v); i >= 0 {
		return slices.Delete(list, i, i+1)
	}
	return list
}
