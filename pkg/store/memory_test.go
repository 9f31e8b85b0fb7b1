package store

import (
	"context"
	"testing"
)

func TestMemoryCache_GetPut(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(0)

	if err := c.Put(ctx, "m1", map[string][]float32{"photosynthesis": {1, 2}}); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := c.Get(ctx, "m1", []string{"photosynthesis", "respiration"})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected one hit, got %d", len(got))
	}
	if v := got["photosynthesis"]; len(v) != 2 || v[1] != 2 {
		t.Fatalf("unexpected vector: %v", v)
	}

	other, _ := c.Get(ctx, "m2", []string{"photosynthesis"})
	if len(other) != 0 {
		t.Fatalf("vectors must be scoped per model, got %v", other)
	}
}

func TestMemoryCache_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(0)
	_ = c.Put(ctx, "m", map[string][]float32{"a": {1}})

	got, _ := c.Get(ctx, "m", []string{"a"})
	got["a"][0] = 42

	again, _ := c.Get(ctx, "m", []string{"a"})
	if again["a"][0] != 1 {
		t.Fatalf("cache entry was mutated through returned slice")
	}
}

func TestMemoryCache_EvictsOldest(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(2)
	_ = c.Put(ctx, "m", map[string][]float32{"a": {1}})
	_ = c.Put(ctx, "m", map[string][]float32{"b": {2}})
	_ = c.Put(ctx, "m", map[string][]float32{"c": {3}})

	if c.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", c.Len())
	}
	got, _ := c.Get(ctx, "m", []string{"a", "b", "c"})
	if _, ok := got["a"]; ok {
		t.Fatal("expected oldest entry to be evicted")
	}
	if _, ok := got["c"]; !ok {
		t.Fatal("expected newest entry to be present")
	}
}

func TestChunkRange(t *testing.T) {
	var windows [][2]int
	err := ChunkRange(5, 2, func(start, end int) error {
		windows = append(windows, [2]int{start, end})
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := [][2]int{{0, 2}, {2, 4}, {4, 5}}
	if len(windows) != len(want) {
		t.Fatalf("got %v, want %v", windows, want)
	}
	for i := range want {
		if windows[i] != want[i] {
			t.Fatalf("got %v, want %v", windows, want)
		}
	}
}

func TestDedupeStrings(t *testing.T) {
	got := DedupeStrings([]string{"b", "", "a", "b"})
	if len(got) != 2 || got[0] != "b" || got[1] != "a" {
		t.Fatalf("unexpected result: %v", got)
	}
}
