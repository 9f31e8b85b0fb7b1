package ai

import (
	"context"
	"fmt"
	"math"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Embedder turns a single phrase into a vector. Implementations must be safe
// for concurrent use.
type Embedder interface {
	GenerateEmbedding(ctx context.Context, input []byte) ([]float32, error)
}

// EmbeddingBatcher is implemented by embedders that can embed many inputs in
// one request. The result has one vector per input, in input order.
type EmbeddingBatcher interface {
	GenerateEmbeddings(ctx context.Context, inputs [][]byte) ([][]float32, error)
}

// MetricsReporter is implemented by providers that track token usage.
// Totals accumulate for the lifetime of the provider.
type MetricsReporter interface {
	GetMetrics() ModelMetrics
}

// ModelMetrics contains performance metrics from AI model operations.
type ModelMetrics struct {
	InputTokens    int     `json:"input_tokens"`
	OutputTokens   int     `json:"output_tokens"`
	TotalTokens    int     `json:"total_tokens"`
	Requests       int     `json:"requests"`
	DurationMs     int64   `json:"duration_ms"`
	TokenPerSecond float32 `json:"tokens_per_second"`
}

// MetricsRecorder accumulates ModelMetrics across concurrent requests.
// The zero value is ready to use.
type MetricsRecorder struct {
	mu      sync.Mutex
	metrics ModelMetrics
}

// Add folds one request's metrics into the running totals.
func (r *MetricsRecorder) Add(m ModelMetrics) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.metrics.InputTokens += m.InputTokens
	r.metrics.OutputTokens += m.OutputTokens
	r.metrics.TotalTokens += m.TotalTokens
	r.metrics.DurationMs += m.DurationMs
	r.metrics.Requests++

	if r.metrics.DurationMs > 0 {
		tokensPerSecond := (float64(r.metrics.TotalTokens) * 1000.0) / float64(r.metrics.DurationMs)
		r.metrics.TokenPerSecond = float32(math.Round(tokensPerSecond*100) / 100)
	}
}

// Snapshot returns a copy of the accumulated metrics.
func (r *MetricsRecorder) Snapshot() ModelMetrics {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.metrics
}

// DefaultFanOut bounds concurrent single-input calls when an embedder has no
// batch endpoint.
const DefaultFanOut = 8

// GenerateEmbeddings embeds all inputs, using one batch request when the
// embedder supports it and a bounded fan-out of single requests otherwise.
// Any failure fails the whole call.
func GenerateEmbeddings(ctx context.Context, embedder Embedder, inputs [][]byte) ([][]float32, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedder is nil")
	}
	if len(inputs) == 0 {
		return nil, nil
	}

	if batcher, ok := embedder.(EmbeddingBatcher); ok {
		out, err := batcher.GenerateEmbeddings(ctx, inputs)
		if err != nil {
			return nil, err
		}
		if len(out) != len(inputs) {
			return nil, fmt.Errorf("embedding result size mismatch: got %d want %d", len(out), len(inputs))
		}
		return out, nil
	}

	out := make([][]float32, len(inputs))
	eg, ectx := errgroup.WithContext(ctx)
	eg.SetLimit(DefaultFanOut)
	for i := range inputs {
		eg.Go(func() error {
			vec, err := embedder.GenerateEmbedding(ectx, inputs[i])
			if err != nil {
				return fmt.Errorf("embedding input %d: %w", i, err)
			}
			out[i] = vec
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// CosineSimilarity returns the cosine of the angle between a and b. Vectors
// of different length are compared over their common prefix. A zero vector
// is similar to nothing.
func CosineSimilarity(a, b []float32) float64 {
	n := min(len(a), len(b))
	if n == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range n {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// FitDimensions truncates or zero-pads vec to dim entries. A non-positive
// dim returns vec unchanged.
func FitDimensions[T float32 | float64](vec []T, dim int) []float32 {
	if dim <= 0 {
		dim = len(vec)
	}
	out := make([]float32, dim)
	for i := 0; i < dim && i < len(vec); i++ {
		out[i] = float32(vec[i])
	}
	return out
}
