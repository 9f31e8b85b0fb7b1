package graph

import (
	"context"
	"fmt"
	"slices"

	"github.com/OFFIS-RIT/studymap/pkg/ai"
	"github.com/OFFIS-RIT/studymap/pkg/logger"
)

// VectorArena holds one embedding per candidate in a single contiguous
// buffer, addressed by candidate position.
type VectorArena struct {
	dim  int
	data []float32
}

// NewVectorArena copies vectors into an arena. All vectors must share one
// non-zero length.
func NewVectorArena(vectors [][]float32) (*VectorArena, error) {
	if len(vectors) == 0 {
		return &VectorArena{}, nil
	}
	dim := len(vectors[0])
	if dim == 0 {
		return nil, fmt.Errorf("empty embedding vector")
	}

	data := make([]float32, 0, dim*len(vectors))
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("embedding %d has %d dimensions, want %d", i, len(v), dim)
		}
		data = append(data, v...)
	}
	return &VectorArena{dim: dim, data: data}, nil
}

// Len returns the number of vectors in the arena.
func (a *VectorArena) Len() int {
	if a.dim == 0 {
		return 0
	}
	return len(a.data) / a.dim
}

// At returns the vector at position i. The slice aliases the arena.
func (a *VectorArena) At(i int) []float32 {
	return a.data[i*a.dim : (i+1)*a.dim]
}

// Similarity returns the cosine similarity of the vectors at i and j.
func (a *VectorArena) Similarity(i, j int) float64 {
	return ai.CosineSimilarity(a.At(i), a.At(j))
}

// DedupeResult is the outcome of one deduplication pass.
type DedupeResult struct {
	// Kept are the surviving phrases in priority order.
	Kept []ConceptPhrase
	// Merges maps each absorbed phrase to the phrase that absorbed it.
	Merges map[string]string
	// Degraded is set when no similarity data was available and only
	// exact duplicates were collapsed.
	Degraded bool
}

// Deduplicator merges near-duplicate phrases by greedy clustering over
// embedding similarity.
type Deduplicator struct {
	embedder  ai.Embedder
	threshold float64
}

// NewDeduplicator creates a Deduplicator. A nil embedder puts every call in
// degraded mode.
func NewDeduplicator(embedder ai.Embedder, threshold float64) *Deduplicator {
	return &Deduplicator{embedder: embedder, threshold: threshold}
}

// Dedupe sorts candidates by priority (stable) and keeps each one unless its
// best similarity to an already kept phrase strictly exceeds the threshold.
// All candidates are embedded in one call. A missing embedder, a provider
// error or an unusable result switch to degraded mode, which keeps every
// distinct phrase.
func (d *Deduplicator) Dedupe(ctx context.Context, candidates []ConceptPhrase) DedupeResult {
	res := DedupeResult{Merges: make(map[string]string)}
	if len(candidates) == 0 {
		return res
	}

	sorted := slices.Clone(candidates)
	slices.SortStableFunc(sorted, func(a, b ConceptPhrase) int {
		return b.Priority - a.Priority
	})

	// identical text is the same node, with or without embeddings
	unique := make([]ConceptPhrase, 0, len(sorted))
	seen := make(map[string]struct{}, len(sorted))
	for _, c := range sorted {
		if _, ok := seen[c.Text]; ok {
			continue
		}
		seen[c.Text] = struct{}{}
		unique = append(unique, c)
	}

	arena, err := d.embed(ctx, unique)
	if err != nil {
		logger.Warn("[Graph] Semantic dedupe unavailable, keeping all phrases", "phrases", len(unique), "err", err)
		res.Kept = unique
		res.Degraded = true
		return res
	}

	kept := make([]int, 0, len(unique))
	for i, c := range unique {
		best, bestScore := -1, 0.0
		for _, k := range kept {
			score := arena.Similarity(i, k)
			if best < 0 || score > bestScore {
				best, bestScore = k, score
			}
		}

		if best >= 0 && bestScore > d.threshold {
			canonical := unique[best].Text
			res.Merges[c.Text] = canonical
			logger.Debug("[Graph] Merging phrase", "phrase", c.Text, "into", canonical, "score", fmt.Sprintf("%.2f", bestScore))
			continue
		}
		kept = append(kept, i)
	}

	res.Kept = make([]ConceptPhrase, 0, len(kept))
	for _, k := range kept {
		res.Kept = append(res.Kept, unique[k])
	}
	logger.Debug("[Graph] Deduplicated phrases", "candidates", len(candidates), "kept", len(res.Kept), "threshold", d.threshold)
	return res
}

func (d *Deduplicator) embed(ctx context.Context, phrases []ConceptPhrase) (*VectorArena, error) {
	if d.embedder == nil {
		return nil, fmt.Errorf("no embedding provider configured")
	}
	if len(phrases) < 2 {
		return &VectorArena{}, nil
	}

	inputs := make([][]byte, len(phrases))
	for i, p := range phrases {
		inputs[i] = []byte(p.Text)
	}
	vectors, err := ai.GenerateEmbeddings(ctx, d.embedder, inputs)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(phrases) {
		return nil, fmt.Errorf("embedding result size mismatch: got %d want %d", len(vectors), len(phrases))
	}
	return NewVectorArena(vectors)
}
