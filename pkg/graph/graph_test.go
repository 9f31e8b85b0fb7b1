package graph

import (
	"reflect"
	"testing"
)

func newTestGraph(ids ...string) *ConceptGraph {
	g := newConceptGraph()
	for _, id := range ids {
		g.addNode(Style(id, GroupSupporting, false))
	}
	return g
}

func TestConceptGraph_AddEdgeRules(t *testing.T) {
	g := newTestGraph("a", "b")

	if g.addEdge("a", "a", "self") {
		t.Fatal("self loops must be rejected")
	}
	if g.addEdge("a", "missing", "") {
		t.Fatal("edges to unknown nodes must be rejected")
	}
	if !g.addEdge("a", "b", "") {
		t.Fatal("expected edge to be added")
	}
	if g.addEdge("a", "b", "causes") {
		t.Fatal("duplicate edge must not be added twice")
	}

	edges := g.Edges()
	if len(edges) != 1 || edges[0].Label != "causes" {
		t.Fatalf("expected single edge with upgraded label, got %+v", edges)
	}

	g.addEdge("a", "b", "other")
	if g.Edges()[0].Label != "causes" {
		t.Fatal("existing label must not be overwritten")
	}
}

func TestConceptGraph_RemoveNodeDropsEdges(t *testing.T) {
	g := newTestGraph("a", "b", "c")
	g.addEdge("a", "b", "")
	g.addEdge("b", "c", "")
	g.addEdge("a", "c", "")

	g.removeNode("b")

	if g.HasNode("b") {
		t.Fatal("node b should be gone")
	}
	want := []Edge{{Parent: "a", Child: "c"}}
	if !reflect.DeepEqual(g.Edges(), want) {
		t.Fatalf("edges = %+v, want %+v", g.Edges(), want)
	}
	if g.OutDegree("a") != 1 || g.InDegree("c") != 1 {
		t.Fatalf("unexpected degrees: out(a)=%d in(c)=%d", g.OutDegree("a"), g.InDegree("c"))
	}
	if !g.HasEdge("a", "c") || g.HasEdge("a", "b") {
		t.Fatal("edge index out of sync after removal")
	}
}

func TestConceptGraph_OrderIsInsertionOrder(t *testing.T) {
	g := newTestGraph("z", "a", "m")
	g.addEdge("m", "a", "")
	g.addEdge("z", "a", "")

	var ids []string
	for _, n := range g.Nodes() {
		ids = append(ids, n.ID)
	}
	if !reflect.DeepEqual(ids, []string{"z", "a", "m"}) {
		t.Fatalf("unexpected node order %v", ids)
	}
	if !reflect.DeepEqual(g.Predecessors("a"), []string{"m", "z"}) {
		t.Fatalf("unexpected predecessor order %v", g.Predecessors("a"))
	}
	if g.sequence("z") >= g.sequence("m") {
		t.Fatal("sequence must follow insertion order")
	}
}

func TestConceptGraph_AddNodeKeepsFirst(t *testing.T) {
	g := newConceptGraph()
	g.addNode(Style("x", GroupCore, false))
	if g.addNode(Style("x", GroupExample, false)) {
		t.Fatal("duplicate id must not be added")
	}
	n, _ := g.Node("x")
	if n.Group != GroupCore {
		t.Fatalf("first node must win, got group %q", n.Group)
	}
	if g.Len() != 1 || g.Empty() {
		t.Fatalf("unexpected size %d", g.Len())
	}
}
