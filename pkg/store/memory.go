package store

import (
	"context"
	"slices"
	"sync"
)

type cacheKey struct {
	model string
	text  string
}

// MemoryCache is an in-process EmbeddingCache with first-in first-out
// eviction once maxEntries is reached.
type MemoryCache struct {
	mu         sync.Mutex
	maxEntries int
	entries    map[cacheKey][]float32
	order      []cacheKey
}

// NewMemoryCache creates a cache holding at most maxEntries vectors.
// A non-positive maxEntries means unbounded.
func NewMemoryCache(maxEntries int) *MemoryCache {
	return &MemoryCache{
		maxEntries: maxEntries,
		entries:    make(map[cacheKey][]float32),
	}
}

func (m *MemoryCache) Get(_ context.Context, model string, texts []string) (map[string][]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string][]float32, len(texts))
	for _, text := range texts {
		if vec, ok := m.entries[cacheKey{model: model, text: text}]; ok {
			out[text] = slices.Clone(vec)
		}
	}
	return out, nil
}

func (m *MemoryCache) Put(_ context.Context, model string, vectors map[string][]float32) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for text, vec := range vectors {
		key := cacheKey{model: model, text: text}
		if _, ok := m.entries[key]; !ok {
			m.order = append(m.order, key)
		}
		m.entries[key] = slices.Clone(vec)
	}

	if m.maxEntries > 0 {
		for len(m.order) > m.maxEntries {
			delete(m.entries, m.order[0])
			m.order = m.order[1:]
		}
	}
	return nil
}

// Len returns the number of cached vectors.
func (m *MemoryCache) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
