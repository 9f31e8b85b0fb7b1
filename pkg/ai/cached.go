package ai

import (
	"context"
	"fmt"

	"github.com/OFFIS-RIT/studymap/pkg/logger"
	"github.com/OFFIS-RIT/studymap/pkg/store"
)

// CachedEmbedder serves vectors from an EmbeddingCache and only sends misses
// to the wrapped provider, in a single batch. Cache failures are logged and
// treated as misses.
type CachedEmbedder struct {
	inner Embedder
	cache store.EmbeddingCache
	model string
}

// NewCachedEmbedder wraps inner. model scopes cache entries so vectors from
// different models never mix.
func NewCachedEmbedder(inner Embedder, cache store.EmbeddingCache, model string) *CachedEmbedder {
	return &CachedEmbedder{inner: inner, cache: cache, model: model}
}

func (c *CachedEmbedder) GenerateEmbedding(ctx context.Context, input []byte) ([]float32, error) {
	out, err := c.GenerateEmbeddings(ctx, [][]byte{input})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

func (c *CachedEmbedder) GenerateEmbeddings(ctx context.Context, inputs [][]byte) ([][]float32, error) {
	if len(inputs) == 0 {
		return nil, nil
	}

	texts := make([]string, len(inputs))
	for i, in := range inputs {
		texts[i] = string(in)
	}

	hits, err := c.cache.Get(ctx, c.model, texts)
	if err != nil {
		logger.Warn("[Embed] Cache lookup failed, embedding all inputs", "model", c.model, "err", err)
		hits = nil
	}

	var missIdx []int
	seen := make(map[string]int)
	var missInputs [][]byte
	for i, text := range texts {
		if _, ok := hits[text]; ok {
			continue
		}
		if _, ok := seen[text]; !ok {
			seen[text] = len(missInputs)
			missInputs = append(missInputs, inputs[i])
		}
		missIdx = append(missIdx, i)
	}

	fresh := make(map[string][]float32, len(missInputs))
	if len(missInputs) > 0 {
		vectors, err := GenerateEmbeddings(ctx, c.inner, missInputs)
		if err != nil {
			return nil, err
		}
		for _, in := range missInputs {
			fresh[string(in)] = vectors[seen[string(in)]]
		}
		if err := c.cache.Put(ctx, c.model, fresh); err != nil {
			logger.Warn("[Embed] Cache write failed", "model", c.model, "err", err)
		}
	}

	out := make([][]float32, len(inputs))
	for i, text := range texts {
		if vec, ok := hits[text]; ok {
			out[i] = vec
			continue
		}
		out[i] = fresh[text]
	}
	for _, i := range missIdx {
		if out[i] == nil {
			return nil, fmt.Errorf("missing embedding for input %d", i)
		}
	}

	logger.Debug("[Embed] Embedded phrases", "model", c.model, "inputs", len(inputs), "cached", len(inputs)-len(missIdx), "requested", len(missInputs))
	return out, nil
}
