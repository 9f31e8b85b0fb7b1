package store

import "context"

// EmbeddingCache persists phrase embeddings per model so repeated builds over
// the same vocabulary do not hit the provider again.
//
// Get returns the vectors it has for texts; missing texts are simply absent
// from the map. Callers treat any error as a full miss.
type EmbeddingCache interface {
	Get(ctx context.Context, model string, texts []string) (map[string][]float32, error)
	Put(ctx context.Context, model string, vectors map[string][]float32) error
}
