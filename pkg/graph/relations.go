package graph

import (
	"strings"

	"github.com/OFFIS-RIT/studymap/internal/util"
	"github.com/OFFIS-RIT/studymap/pkg/common"
)

// PlaceholderRoot labels the synthetic root used when no core phrase survives.
const PlaceholderRoot = "Study Map"

// Relationship is a directed hint that Source should be the parent of Target.
type Relationship struct {
	Source string
	Label  string
	Target string
}

// RelationshipsFromTriples normalises upstream triples the same way phrases
// are normalised, so endpoints compare equal to node ids.
func RelationshipsFromTriples(triples []common.Triple) []Relationship {
	out := make([]Relationship, 0, len(triples))
	for _, t := range triples {
		out = append(out, Relationship{
			Source: util.NormalizePhrase(t.Source),
			Label:  strings.TrimSpace(t.Relation),
			Target: util.NormalizePhrase(t.Target),
		})
	}
	return out
}

// SelectRoot returns the first core phrase. Without one it returns a kept
// phrase that already carries the placeholder label, or else a synthetic
// ungrouped placeholder.
func SelectRoot(kept []ConceptPhrase) ConceptPhrase {
	for _, p := range kept {
		if p.Group == GroupCore {
			return p
		}
	}
	for _, p := range kept {
		if p.Text == PlaceholderRoot {
			return p
		}
	}
	return ConceptPhrase{Text: PlaceholderRoot, Group: GroupNone}
}

// FilterRelationships keeps relationships whose endpoints both survived
// deduplication and differ from each other. With remap set, endpoints that
// were absorbed are first replaced by the phrase that absorbed them.
func FilterRelationships(rels []Relationship, kept []ConceptPhrase, merges map[string]string, remap bool) []Relationship {
	valid := make(map[string]struct{}, len(kept))
	for _, p := range kept {
		valid[p.Text] = struct{}{}
	}

	resolve := func(text string) string {
		if !remap {
			return text
		}
		if canonical, ok := merges[text]; ok {
			return canonical
		}
		return text
	}

	out := make([]Relationship, 0, len(rels))
	for _, r := range rels {
		src, dst := resolve(r.Source), resolve(r.Target)
		if src == "" || dst == "" || src == dst {
			continue
		}
		if _, ok := valid[src]; !ok {
			continue
		}
		if _, ok := valid[dst]; !ok {
			continue
		}
		out = append(out, Relationship{Source: src, Label: r.Label, Target: dst})
	}
	return out
}

// assemble creates the candidate graph: the root, every kept phrase, an
// implicit root edge for each other core phrase, then one edge per
// relationship.
func assemble(root ConceptPhrase, kept []ConceptPhrase, rels []Relationship) *ConceptGraph {
	g := newConceptGraph()
	g.addNode(Style(root.Text, root.Group, true))
	g.root = root.Text

	for _, p := range kept {
		g.addNode(Style(p.Text, p.Group, false))
	}

	for _, p := range kept {
		if p.Group == GroupCore && p.Text != root.Text {
			g.addEdge(root.Text, p.Text, "")
		}
	}
	for _, r := range rels {
		g.addEdge(r.Source, r.Target, r.Label)
	}

	return g
}

// attachOrphans hangs every parentless node under the root, in insertion
// order. Run on a tree it keeps the tree shape, since the root has no
// parent. It returns the number of edges added.
func attachOrphans(g *ConceptGraph) int {
	root := g.Root()
	if root == "" {
		return 0
	}
	added := 0
	for _, id := range g.order {
		if id != root && g.InDegree(id) == 0 && g.addEdge(root, id, "") {
			added++
		}
	}
	return added
}
