package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/OFFIS-RIT/studymap/pkg/ai"
	"github.com/OFFIS-RIT/studymap/pkg/common"
	"github.com/OFFIS-RIT/studymap/pkg/logger"
)

const defaultEmbedTimeout = 30 * time.Second

// GraphBuilder turns classified concepts and relationships into a bounded
// concept tree. It holds configuration only, so one builder can serve any
// number of concurrent builds; every build owns the graph it returns.
//
// A GraphBuilder should be created using NewGraphBuilder.
type GraphBuilder struct {
	embedder      ai.Embedder
	embedTimeout  time.Duration
	remapMerged   bool
	attachOrphans bool
	thresholds    map[Complexity]float64
	ceilings      map[Complexity]int
}

// NewGraphBuilderParams configures NewGraphBuilder.
//
// Embedder is optional; without it deduplication only collapses identical
// phrases. EmbedTimeout bounds the embedding call (default 30s).
// RemapMergedRelationships rewrites relationship endpoints that were merged
// away to their canonical phrase instead of dropping the relationship.
// KeepOrphansDetached leaves phrases that have no parent once the tree is
// enforced unattached instead of hanging them under the root. MergeThresholds and
// ChildCeilings override the per-complexity defaults.
type NewGraphBuilderParams struct {
	Embedder                 ai.Embedder
	EmbedTimeout             time.Duration
	RemapMergedRelationships bool
	KeepOrphansDetached      bool
	MergeThresholds          map[Complexity]float64
	ChildCeilings            map[Complexity]int
}

// NewGraphBuilder creates a GraphBuilder.
//
// Example:
//
//	builder := graph.NewGraphBuilder(graph.NewGraphBuilderParams{
//		Embedder:     embedder,
//		EmbedTimeout: 20 * time.Second,
//	})
//	g, report, err := builder.Build(ctx, graph.BuildInput{
//		Concepts:   concepts,
//		Complexity: "Low",
//	})
func NewGraphBuilder(params NewGraphBuilderParams) *GraphBuilder {
	timeout := params.EmbedTimeout
	if timeout <= 0 {
		timeout = defaultEmbedTimeout
	}

	thresholds := make(map[Complexity]float64, 3)
	ceilings := make(map[Complexity]int, 3)
	for _, c := range []Complexity{Low, Medium, High} {
		thresholds[c] = c.MergeThreshold()
		ceilings[c] = c.MaxChildren()
		if v, ok := params.MergeThresholds[c]; ok {
			thresholds[c] = v
		}
		if v, ok := params.ChildCeilings[c]; ok {
			ceilings[c] = v
		}
	}

	return &GraphBuilder{
		embedder:      params.Embedder,
		embedTimeout:  timeout,
		remapMerged:   params.RemapMergedRelationships,
		attachOrphans: !params.KeepOrphansDetached,
		thresholds:    thresholds,
		ceilings:      ceilings,
	}
}

// BuildInput is the upstream data for one build. Complexity is parsed with
// ParseComplexity.
type BuildInput struct {
	Concepts      common.Concepts
	Relationships []common.Triple
	Complexity    string
}

// Build runs candidate building, deduplication, root selection, tree
// enforcement and pruning. The only error is an unknown complexity;
// embedding failures degrade deduplication instead. Input without any
// phrase yields an empty graph without a root.
func (b *GraphBuilder) Build(ctx context.Context, in BuildInput) (*ConceptGraph, *common.BuildReport, error) {
	complexity, err := ParseComplexity(in.Complexity)
	if err != nil {
		return nil, nil, err
	}

	start := time.Now()
	report := &common.BuildReport{Complexity: complexity.String()}

	candidates := BuildCandidates(in.Concepts)
	report.Candidates = len(candidates)
	if len(candidates) == 0 {
		logger.Debug("[Graph] No concepts, returning empty graph")
		report.DurationMs = time.Since(start).Milliseconds()
		return newConceptGraph(), report, nil
	}

	embedCtx, cancel := context.WithTimeout(ctx, b.embedTimeout)
	deduped := NewDeduplicator(b.embedder, b.thresholds[complexity]).Dedupe(embedCtx, candidates)
	cancel()
	report.Kept = len(deduped.Kept)
	report.Degraded = deduped.Degraded
	if len(deduped.Merges) > 0 {
		report.Merges = deduped.Merges
	}

	rels := RelationshipsFromTriples(in.Relationships)
	filtered := FilterRelationships(rels, deduped.Kept, deduped.Merges, b.remapMerged)
	report.DroppedRelation = len(rels) - len(filtered)

	root := SelectRoot(deduped.Kept)
	g := assemble(root, deduped.Kept, filtered)
	logger.Debug("[Graph] Assembled candidate graph", "root", root.Text, "nodes", g.Len(), "edges", len(g.edges))

	report.TreeEdgesCut = EnforceTree(g)
	if b.attachOrphans {
		attached := attachOrphans(g)
		logger.Debug("[Graph] Attached parentless nodes to root", "count", attached)
	}

	stats := Prune(g, b.ceilings[complexity])
	report.PrunedEdges = stats.EdgesRemoved
	report.DeletedNodes = stats.NodesDeleted
	report.DurationMs = time.Since(start).Milliseconds()

	logger.Debug("[Graph] Built concept tree",
		"complexity", complexity,
		"nodes", g.Len(),
		"edges", len(g.edges),
		"pruned", stats.EdgesRemoved,
		"deleted", stats.NodesDeleted,
	)
	return g, report, nil
}

// BuildMindMap builds a graph for req and converts it for renderers.
func (b *GraphBuilder) BuildMindMap(ctx context.Context, req common.MindMapRequest) (*common.MindMapResponse, error) {
	g, report, err := b.Build(ctx, BuildInput{
		Concepts:      req.Concepts,
		Relationships: req.Relationships,
		Complexity:    req.Complexity,
	})
	if err != nil {
		return nil, fmt.Errorf("build mind map: %w", err)
	}
	return &common.MindMapResponse{MindMap: ToMindMap(g), Report: *report}, nil
}

// ToMindMap converts g into the renderer wire form, keeping node and edge order.
func ToMindMap(g *ConceptGraph) common.MindMap {
	out := common.MindMap{
		Root:  g.Root(),
		Nodes: make([]common.MindMapNode, 0, g.Len()),
		Edges: make([]common.MindMapEdge, 0, len(g.edges)),
	}
	for _, n := range g.Nodes() {
		out.Nodes = append(out.Nodes, common.MindMapNode{
			ID:    n.ID,
			Group: string(n.Group),
			Title: n.Title,
			Size:  n.Size,
			Color: n.Color,
			Shape: n.Shape,
		})
	}
	for _, e := range g.edges {
		out.Edges = append(out.Edges, common.MindMapEdge{From: e.Parent, To: e.Child, Label: e.Label})
	}
	return out
}
