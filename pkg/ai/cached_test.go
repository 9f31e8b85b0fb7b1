package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/OFFIS-RIT/studymap/pkg/store"
)

type countingBatcher struct {
	requested [][]string
}

func (c *countingBatcher) GenerateEmbedding(ctx context.Context, input []byte) ([]float32, error) {
	out, err := c.GenerateEmbeddings(ctx, [][]byte{input})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

func (c *countingBatcher) GenerateEmbeddings(_ context.Context, inputs [][]byte) ([][]float32, error) {
	batch := make([]string, len(inputs))
	out := make([][]float32, len(inputs))
	for i, in := range inputs {
		batch[i] = string(in)
		out[i] = []float32{float32(len(in))}
	}
	c.requested = append(c.requested, batch)
	return out, nil
}

type brokenCache struct{}

func (brokenCache) Get(context.Context, string, []string) (map[string][]float32, error) {
	return nil, errors.New("db down")
}

func (brokenCache) Put(context.Context, string, map[string][]float32) error {
	return errors.New("db down")
}

func TestCachedEmbedder_OnlyMissesReachProvider(t *testing.T) {
	ctx := context.Background()
	inner := &countingBatcher{}
	cache := store.NewMemoryCache(0)
	_ = cache.Put(ctx, "m", map[string][]float32{"cached": {9}})

	e := NewCachedEmbedder(inner, cache, "m")
	out, err := e.GenerateEmbeddings(ctx, [][]byte{[]byte("cached"), []byte("new"), []byte("new")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(inner.requested) != 1 || len(inner.requested[0]) != 1 || inner.requested[0][0] != "new" {
		t.Fatalf("expected one batch with only the miss, got %v", inner.requested)
	}
	if out[0][0] != 9 || out[1][0] != 3 || out[2][0] != 3 {
		t.Fatalf("unexpected vectors: %v", out)
	}

	// second call is served entirely from cache
	if _, err := e.GenerateEmbeddings(ctx, [][]byte{[]byte("new")}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(inner.requested) != 1 {
		t.Fatalf("expected no further provider calls, got %v", inner.requested)
	}
}

func TestCachedEmbedder_CacheFailureFallsThrough(t *testing.T) {
	inner := &countingBatcher{}
	e := NewCachedEmbedder(inner, brokenCache{}, "m")

	vec, err := e.GenerateEmbedding(context.Background(), []byte("abcd"))
	if err != nil {
		t.Fatalf("cache errors must not fail the call: %v", err)
	}
	if len(vec) != 1 || vec[0] != 4 {
		t.Fatalf("unexpected vector: %v", vec)
	}
}
