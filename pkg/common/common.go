// Package common holds the wire types shared between the mind map engine,
// its upstream concept extractor and downstream renderers.
package common

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// ConceptItem is one phrase produced by the concept extractor. Priority is
// carried through for callers but does not influence ranking.
type ConceptItem struct {
	Text     string `json:"text" jsonschema:"minLength=1"`
	Priority string `json:"priority,omitempty" jsonschema:"enum=High,enum=Medium,enum=Low"`
}

// UnmarshalJSON accepts either {"text": ..., "priority": ...} or a bare string.
func (c *ConceptItem) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		*c = ConceptItem{Text: text}
		return nil
	}

	type plain ConceptItem
	var item plain
	if err := json.Unmarshal(data, &item); err != nil {
		return fmt.Errorf("concept item: %w", err)
	}
	*c = ConceptItem(item)
	return nil
}

// Concepts is the grouped output of concept extraction.
type Concepts struct {
	CoreIdeas       []ConceptItem `json:"core_ideas"`
	SupportingIdeas []ConceptItem `json:"supporting_ideas"`
	Examples        []ConceptItem `json:"examples"`
}

// Total returns the number of items across all groups.
func (c Concepts) Total() int {
	return len(c.CoreIdeas) + len(c.SupportingIdeas) + len(c.Examples)
}

// Triple is a directed, labelled relationship between two concept phrases.
type Triple struct {
	Source   string `json:"source" jsonschema:"minLength=1"`
	Relation string `json:"relation"`
	Target   string `json:"target" jsonschema:"minLength=1"`
}

// UnmarshalJSON accepts the object form as well as [source, relation, target]
// and [source, target].
func (t *Triple) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var parts []string
		if err := json.Unmarshal(data, &parts); err != nil {
			return fmt.Errorf("relationship tuple: %w", err)
		}
		switch len(parts) {
		case 2:
			*t = Triple{Source: parts[0], Target: parts[1]}
		case 3:
			*t = Triple{Source: parts[0], Relation: parts[1], Target: parts[2]}
		default:
			return fmt.Errorf("relationship tuple: expected 2 or 3 elements, got %d", len(parts))
		}
		return nil
	}

	type plain Triple
	var obj plain
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("relationship: %w", err)
	}
	*t = Triple(obj)
	return nil
}

// MindMapRequest is the input of a single mind map build.
type MindMapRequest struct {
	Concepts      Concepts `json:"concepts"`
	Relationships []Triple `json:"relationships"`
	// Complexity is one of Low, Medium, High (case-insensitive). Empty means Medium.
	Complexity string `json:"complexity,omitempty" jsonschema:"enum=Low,enum=Medium,enum=High,enum=low,enum=medium,enum=high"`
}

// Validate rejects requests without a single non-blank concept. Malformed
// relationships are not an error here; the engine drops them.
func (r MindMapRequest) Validate() error {
	for _, group := range [][]ConceptItem{r.Concepts.CoreIdeas, r.Concepts.SupportingIdeas, r.Concepts.Examples} {
		for _, item := range group {
			if strings.TrimSpace(item.Text) != "" {
				return nil
			}
		}
	}
	return fmt.Errorf("no concepts provided")
}

// MindMapNode is a node as consumed by a renderer.
type MindMapNode struct {
	ID    string `json:"id"`
	Group string `json:"group"`
	Title string `json:"title"`
	Size  int    `json:"size"`
	Color string `json:"color"`
	Shape string `json:"shape"`
}

// MindMapEdge is a parent to child edge as consumed by a renderer.
type MindMapEdge struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Label string `json:"label"`
}

// MindMap is the renderer-facing form of a concept graph.
type MindMap struct {
	Root  string        `json:"root"`
	Nodes []MindMapNode `json:"nodes"`
	Edges []MindMapEdge `json:"edges"`
}

// BuildReport summarises what each stage of a build did.
type BuildReport struct {
	Complexity      string            `json:"complexity"`
	Candidates      int               `json:"candidates"`
	Kept            int               `json:"kept"`
	Merges          map[string]string `json:"merges,omitempty"`
	Degraded        bool              `json:"degraded"`
	DroppedRelation int               `json:"dropped_relationships"`
	TreeEdgesCut    int               `json:"tree_edges_removed"`
	PrunedEdges     int               `json:"pruned_edges"`
	DeletedNodes    int               `json:"deleted_nodes"`
	DurationMs      int64             `json:"duration_ms"`
}

// MindMapResponse is returned by the synchronous build endpoint and stored
// for queued jobs.
type MindMapResponse struct {
	MindMap MindMap     `json:"mind_map"`
	Report  BuildReport `json:"report"`
}

// MindMapJobMsg is the queue payload for an asynchronous build.
type MindMapJobMsg struct {
	JobID   string         `json:"job_id"`
	Request MindMapRequest `json:"request"`
}

// Job states stored with a MindMapJobResult.
const (
	JobPending   = "pending"
	JobCompleted = "completed"
	JobFailed    = "failed"
)

// MindMapJobResult is the stored state of a queued build. MindMap and Report
// are only set once Status is JobCompleted; Error only when JobFailed.
type MindMapJobResult struct {
	JobID   string       `json:"job_id"`
	Status  string       `json:"status"`
	Error   string       `json:"error,omitempty"`
	MindMap *MindMap     `json:"mind_map,omitempty"`
	Report  *BuildReport `json:"report,omitempty"`
}
