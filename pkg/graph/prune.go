package graph

import (
	"cmp"
	"slices"
	"unicode/utf8"
)

// PruneStats reports what a pruning pass removed.
type PruneStats struct {
	EdgesRemoved int
	NodesDeleted int
}

// Prune limits every node to maxChildren children in a single pass. Child
// lists are snapshotted before the pass, so each parent is judged on the
// tree it had when pruning started.
//
// Children are ranked by group rank (higher first), then label length
// (shorter first), then insertion order. Edges to children past the ceiling
// are removed. A removed child left without a parent is deleted unless it is
// a core phrase, and the same rule then applies to its own children, so a
// whole parentless non-core subtree goes rather than only the removed child.
// Core phrases inside it stay, detached. The root is never deleted.
func Prune(g *ConceptGraph, maxChildren int) PruneStats {
	var stats PruneStats
	maxChildren = max(maxChildren, 0)

	parents := slices.Clone(g.order)
	snapshot := make(map[string][]string, len(parents))
	for _, id := range parents {
		snapshot[id] = g.Successors(id)
	}

	for _, parent := range parents {
		children := snapshot[parent]
		if !g.HasNode(parent) || len(children) <= maxChildren {
			continue
		}

		ranked := slices.Clone(children)
		slices.SortStableFunc(ranked, func(a, b string) int {
			return compareChildren(g, a, b)
		})

		for _, child := range ranked[maxChildren:] {
			if !g.removeEdge(parent, child) {
				continue
			}
			stats.EdgesRemoved++
			stats.NodesDeleted += deleteOrphan(g, child)
		}
	}
	return stats
}

func compareChildren(g *ConceptGraph, a, b string) int {
	na, _ := g.Node(a)
	nb, _ := g.Node(b)
	if c := cmp.Compare(nb.Group.Rank(), na.Group.Rank()); c != 0 {
		return c
	}
	if c := cmp.Compare(utf8.RuneCountInString(a), utf8.RuneCountInString(b)); c != 0 {
		return c
	}
	return cmp.Compare(g.sequence(a), g.sequence(b))
}

// deleteOrphan removes id when it has no parent, is not core and is not the
// root, then repeats for the children it leaves behind. It returns how many
// nodes were deleted.
func deleteOrphan(g *ConceptGraph, id string) int {
	n, ok := g.Node(id)
	if !ok || id == g.Root() || n.Group == GroupCore || g.InDegree(id) > 0 {
		return 0
	}

	children := g.Successors(id)
	g.removeNode(id)
	deleted := 1
	for _, child := range children {
		deleted += deleteOrphan(g, child)
	}
	return deleted
}
