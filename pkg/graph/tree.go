package graph

// EnforceTree turns the candidate graph into an out-tree rooted at the root:
// edges into the root are dropped, every other node keeps only its best
// parent, and any cycle left among nodes unreachable from the root is cut.
// It returns the number of edges removed.
//
// The best parent has the highest group rank. A synthetic placeholder root
// counts as core; any other node ranks by its own group. Ties go to the
// parent that was added to the graph first.
func EnforceTree(g *ConceptGraph) int {
	root := g.Root()
	if root == "" {
		return 0
	}

	removed := 0
	for _, p := range g.Predecessors(root) {
		if g.removeEdge(p, root) {
			removed++
		}
	}

	for _, n := range g.Nodes() {
		if n.ID == root {
			continue
		}
		parents := g.Predecessors(n.ID)
		if len(parents) <= 1 {
			continue
		}

		best := parents[0]
		for _, p := range parents[1:] {
			if betterParent(g, p, best) {
				best = p
			}
		}
		for _, p := range parents {
			if p != best && g.removeEdge(p, n.ID) {
				removed++
			}
		}
	}

	return removed + breakCycles(g)
}

func parentRank(g *ConceptGraph, id string) int {
	n, _ := g.Node(id)
	if id == g.Root() && n.Group == GroupNone {
		return GroupCore.Rank()
	}
	return n.Group.Rank()
}

func betterParent(g *ConceptGraph, candidate, current string) bool {
	rc, rb := parentRank(g, candidate), parentRank(g, current)
	if rc != rb {
		return rc > rb
	}
	return g.sequence(candidate) < g.sequence(current)
}

// breakCycles expects every node to have at most one parent. Such a graph
// can only contain cycles that the root cannot reach. Each one is cut at the
// member whose incoming edge was added last, leaving that member as the head
// of a detached fragment.
func breakCycles(g *ConceptGraph) int {
	visited := make(map[string]bool, g.Len())
	queue := []string{g.Root()}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if visited[id] {
			continue
		}
		visited[id] = true
		queue = append(queue, g.succ[id]...)
	}

	removed := 0
	for _, start := range g.order {
		if visited[start] {
			continue
		}

		var path []string
		onPath := make(map[string]int)
		cur := start
		cycleAt := -1
		for !visited[cur] {
			if i, ok := onPath[cur]; ok {
				cycleAt = i
				break
			}
			onPath[cur] = len(path)
			path = append(path, cur)
			parents := g.pred[cur]
			if len(parents) == 0 {
				break
			}
			cur = parents[0]
		}

		if cycleAt >= 0 {
			cut, latest := "", -1
			for _, member := range path[cycleAt:] {
				parent := g.pred[member][0]
				if idx := g.index[edgeKey{parent, member}]; idx > latest {
					cut, latest = member, idx
				}
			}
			if g.removeEdge(g.pred[cut][0], cut) {
				removed++
			}
		}
		for _, id := range path {
			visited[id] = true
		}
	}
	return removed
}
