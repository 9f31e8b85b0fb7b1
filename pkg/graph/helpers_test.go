package graph

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/OFFIS-RIT/studymap/pkg/common"
)

// fakeEmbedder serves fixed vectors and counts batch calls. Texts without a
// configured vector get a fresh one-hot vector, so unrelated phrases never
// look similar.
type fakeEmbedder struct {
	mu      sync.Mutex
	vectors map[string][]float32
	dim     int
	next    int
	batches int
	err     error
}

func newFakeEmbedder(vectors map[string][]float32) *fakeEmbedder {
	if vectors == nil {
		vectors = make(map[string][]float32)
	}
	return &fakeEmbedder{vectors: vectors, dim: 256, next: 16}
}

func (f *fakeEmbedder) GenerateEmbedding(ctx context.Context, input []byte) ([]float32, error) {
	out, err := f.GenerateEmbeddings(ctx, [][]byte{input})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

func (f *fakeEmbedder) GenerateEmbeddings(_ context.Context, inputs [][]byte) ([][]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.batches++
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(inputs))
	for i, in := range inputs {
		out[i] = f.vectorFor(string(in))
	}
	return out, nil
}

func (f *fakeEmbedder) vectorFor(text string) []float32 {
	vec := make([]float32, f.dim)
	if v, ok := f.vectors[text]; ok {
		copy(vec, v)
		return vec
	}
	if f.next >= f.dim {
		panic(fmt.Sprintf("fake embedder out of dimensions at %q", text))
	}
	vec[f.next] = 1
	f.vectors[text] = vec
	f.next++
	return vec
}

// pairWithSimilarity returns two unit vectors whose cosine similarity is sim.
func pairWithSimilarity(sim float64) ([]float32, []float32) {
	return []float32{1, 0}, []float32{float32(sim), float32(math.Sqrt(1 - sim*sim))}
}

var errProviderDown = errors.New("provider down")

func items(texts ...string) []common.ConceptItem {
	out := make([]common.ConceptItem, 0, len(texts))
	for _, t := range texts {
		out = append(out, common.ConceptItem{Text: t})
	}
	return out
}
