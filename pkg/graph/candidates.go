package graph

import (
	"github.com/OFFIS-RIT/studymap/internal/util"
	"github.com/OFFIS-RIT/studymap/pkg/common"
)

// ConceptPhrase is a normalised candidate node.
type ConceptPhrase struct {
	Text     string
	Group    Group
	Priority int
}

func newPhrase(text string, group Group) ConceptPhrase {
	return ConceptPhrase{Text: text, Group: group, Priority: group.Rank()}
}

// BuildCandidates flattens grouped concepts into candidates ordered core,
// supporting, example, keeping the order within each group. Blank phrases
// are skipped; duplicates are left for the deduplicator.
func BuildCandidates(concepts common.Concepts) []ConceptPhrase {
	groups := []struct {
		group Group
		items []common.ConceptItem
	}{
		{GroupCore, concepts.CoreIdeas},
		{GroupSupporting, concepts.SupportingIdeas},
		{GroupExample, concepts.Examples},
	}

	out := make([]ConceptPhrase, 0, concepts.Total())
	for _, g := range groups {
		for _, item := range g.items {
			text := util.NormalizePhrase(item.Text)
			if text == "" {
				continue
			}
			out = append(out, newPhrase(text, g.group))
		}
	}
	return out
}
