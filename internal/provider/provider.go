package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/OFFIS-RIT/studymap/internal/util"
	"github.com/OFFIS-RIT/studymap/pkg/ai"
	oai "github.com/OFFIS-RIT/studymap/pkg/ai/ollama"
	gai "github.com/OFFIS-RIT/studymap/pkg/ai/openai"
	"github.com/OFFIS-RIT/studymap/pkg/graph"
	"github.com/OFFIS-RIT/studymap/pkg/logger"
	"github.com/OFFIS-RIT/studymap/pkg/store"
	pgstore "github.com/OFFIS-RIT/studymap/pkg/store/pgx"

	"github.com/jackc/pgx/v5/pgxpool"
)

const defaultMemoryCacheEntries = 50000

// Embedder bundles the configured embedding provider with the resources
// it holds. Embedder is nil when AI_ADAPTER is "none".
type Embedder struct {
	Embedder ai.Embedder
	Metrics  ai.MetricsReporter
	Model    string

	pool *pgxpool.Pool
}

// Close releases the cache database pool if one was opened.
func (e *Embedder) Close() {
	if e.pool != nil {
		e.pool.Close()
	}
}

// NewEmbedderFromEnv creates the embedding provider selected by AI_ADAPTER
// (openai, ollama or none) and wraps it with the cache selected by
// EMBED_CACHE (none, memory or postgres).
func NewEmbedderFromEnv(ctx context.Context) (*Embedder, error) {
	adapter := strings.ToLower(util.GetEnvString("AI_ADAPTER", "openai"))
	model := util.GetEnv("AI_EMBED_MODEL")

	var (
		embedder ai.Embedder
		metrics  ai.MetricsReporter
	)

	switch adapter {
	case "none":
		logger.Info("[Provider] No embedding provider configured, deduplication collapses exact duplicates only")
		return &Embedder{}, nil
	case "ollama":
		client, err := oai.NewEmbeddingClient(oai.NewEmbeddingClientParams{
			Model:                 model,
			BaseURL:               util.GetEnv("AI_EMBED_URL"),
			ApiKey:                util.GetEnv("AI_EMBED_KEY"),
			Dimensions:            int(util.GetEnvNumeric("AI_EMBED_DIM", 0)),
			MaxConcurrentRequests: int64(util.GetEnvNumeric("AI_PARALLEL_REQ", 4)),
			TimeoutMin:            int(util.GetEnvNumeric("AI_TIMEOUT_MIN", 0)),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create ollama client: %w", err)
		}
		embedder, metrics = client, client
	case "openai":
		client := gai.NewEmbeddingClient(gai.NewEmbeddingClientParams{
			Model:                 model,
			BaseURL:               util.GetEnv("AI_EMBED_URL"),
			APIKey:                util.GetEnv("AI_EMBED_KEY"),
			Dimensions:            int(util.GetEnvNumeric("AI_EMBED_DIM", 0)),
			MaxInputTokens:        int(util.GetEnvNumeric("AI_EMBED_MAX_TOKENS", 0)),
			MaxConcurrentRequests: int64(util.GetEnvNumeric("AI_PARALLEL_REQ", 4)),
			TimeoutMin:            int(util.GetEnvNumeric("AI_TIMEOUT_MIN", 0)),
		})
		embedder, metrics = client, client
	default:
		return nil, fmt.Errorf("unknown AI_ADAPTER %q", adapter)
	}

	out := &Embedder{Embedder: embedder, Metrics: metrics, Model: model}

	switch cacheKind := strings.ToLower(util.GetEnvString("EMBED_CACHE", "none")); cacheKind {
	case "none":
	case "memory":
		size := int(util.GetEnvNumeric("EMBED_CACHE_SIZE", defaultMemoryCacheEntries))
		out.Embedder = ai.NewCachedEmbedder(embedder, store.NewMemoryCache(size), model)
	case "postgres":
		databaseURL := util.GetEnv("DATABASE_URL")
		if databaseURL == "" {
			return nil, fmt.Errorf("EMBED_CACHE=postgres requires DATABASE_URL")
		}
		if err := pgstore.Migrate(databaseURL); err != nil {
			return nil, err
		}
		pool, err := util.RetryWithContext(ctx, 3, func(ctx context.Context) (*pgxpool.Pool, error) {
			return pgstore.NewPool(ctx, databaseURL)
		})
		if err != nil {
			return nil, err
		}
		out.pool = pool
		out.Embedder = ai.NewCachedEmbedder(embedder, pgstore.NewEmbeddingCache(pool), model)
	default:
		return nil, fmt.Errorf("unknown EMBED_CACHE %q", cacheKind)
	}

	logger.Info("[Provider] Embedding provider ready", "adapter", adapter, "model", model)
	return out, nil
}

// NewGraphBuilderFromEnv creates a GraphBuilder around embedder using
// EMBED_TIMEOUT_SEC, GRAPH_REMAP_MERGED and GRAPH_DETACH_ORPHANS.
func NewGraphBuilderFromEnv(embedder ai.Embedder) *graph.GraphBuilder {
	return graph.NewGraphBuilder(graph.NewGraphBuilderParams{
		Embedder:                 embedder,
		EmbedTimeout:             util.GetEnvSeconds("EMBED_TIMEOUT_SEC", 0),
		RemapMergedRelationships: util.GetEnvBool("GRAPH_REMAP_MERGED", false),
		KeepOrphansDetached:      util.GetEnvBool("GRAPH_DETACH_ORPHANS", false),
	})
}
