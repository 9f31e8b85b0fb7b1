package graph

import "strings"

// Group is the priority tier a concept phrase was classified into.
type Group string

const (
	GroupCore       Group = "core"
	GroupSupporting Group = "supporting"
	GroupExample    Group = "example"
	// GroupNone marks the synthetic placeholder root.
	GroupNone Group = ""
)

// Rank orders groups for canonical label choice, parent selection and
// pruning: core 3, supporting 2, example 1, anything else 0.
func (g Group) Rank() int {
	switch g {
	case GroupCore:
		return 3
	case GroupSupporting:
		return 2
	case GroupExample:
		return 1
	default:
		return 0
	}
}

// Node is a concept in the graph. ID is the canonical phrase and is unique
// within a graph; the display fields are derived from the group only.
type Node struct {
	ID    string
	Group Group
	Title string
	Size  int
	Color string
	Shape string
}

// Display defaults handed to renderers.
const (
	RootTitle = "Main Idea"
	RootColor = "#FF6B6B"
	RootShape = "ellipse"
	RootSize  = 40
)

// Style returns a node for id with display metadata for group.
func Style(id string, group Group, isRoot bool) Node {
	n := Node{ID: id, Group: group, Shape: "box"}
	if isRoot {
		n.Title = RootTitle
		n.Size = RootSize
		n.Color = RootColor
		n.Shape = RootShape
		return n
	}

	switch group {
	case GroupCore:
		n.Size, n.Color = 40, "#FCD5CE"
	case GroupSupporting:
		n.Size, n.Color = 28, "#A2D2FF"
	default:
		n.Size, n.Color = 20, "#D4E5A9"
	}
	if group != GroupNone {
		n.Title = strings.ToUpper(string(group[:1])) + string(group[1:])
	}
	return n
}
