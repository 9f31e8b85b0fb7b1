package pgx

import (
	"context"
	"fmt"

	"github.com/OFFIS-RIT/studymap/internal/util"
	"github.com/OFFIS-RIT/studymap/pkg/logger"
	"github.com/OFFIS-RIT/studymap/pkg/store"

	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	pgxvec "github.com/pgvector/pgvector-go/pgx"
)

const putChunkSize = 500

type pgxIConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, optionsAndArgs ...any) (pgxv5.Rows, error)
	SendBatch(ctx context.Context, b *pgxv5.Batch) pgxv5.BatchResults
}

// EmbeddingCache implements store.EmbeddingCache on the phrase_embeddings
// table using pgvector for storage.
type EmbeddingCache struct {
	conn pgxIConn
}

var _ store.EmbeddingCache = (*EmbeddingCache)(nil)

// NewPool opens a connection pool with the pgvector types registered on
// every connection.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.AfterConnect = func(ctx context.Context, conn *pgxv5.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// NewEmbeddingCache creates a cache on an existing connection. The schema is
// expected to be migrated already (see Migrate).
func NewEmbeddingCache(conn pgxIConn) *EmbeddingCache {
	return &EmbeddingCache{conn: conn}
}

// Get returns cached vectors for texts under model.
func (c *EmbeddingCache) Get(ctx context.Context, model string, texts []string) (map[string][]float32, error) {
	keys, originals := sanitizeKeys(texts)
	out := make(map[string][]float32, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	rows, err := c.conn.Query(ctx, `
		SELECT phrase, embedding
		FROM phrase_embeddings
		WHERE model = $1 AND phrase = ANY($2)
	`, model, keys)
	if err != nil {
		return nil, fmt.Errorf("query phrase embeddings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var phrase string
		var vec pgvector.Vector
		if err := rows.Scan(&phrase, &vec); err != nil {
			return nil, fmt.Errorf("scan phrase embedding: %w", err)
		}
		for _, original := range originals[phrase] {
			out[original] = vec.Slice()
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read phrase embeddings: %w", err)
	}

	logger.Debug("[Cache] Loaded phrase embeddings", "model", model, "requested", len(texts), "hits", len(out))
	return out, nil
}

// Put upserts vectors under model.
func (c *EmbeddingCache) Put(ctx context.Context, model string, vectors map[string][]float32) error {
	type row struct {
		phrase string
		vec    []float32
	}
	rows := make([]row, 0, len(vectors))
	for text, vec := range vectors {
		phrase := util.SanitizePostgresText(text)
		if phrase == "" || len(vec) == 0 {
			continue
		}
		rows = append(rows, row{phrase: phrase, vec: vec})
	}

	return store.ChunkRange(len(rows), putChunkSize, func(start, end int) error {
		batch := &pgxv5.Batch{}
		for _, r := range rows[start:end] {
			batch.Queue(`
				INSERT INTO phrase_embeddings (model, phrase, embedding)
				VALUES ($1, $2, $3)
				ON CONFLICT (model, phrase)
				DO UPDATE SET embedding = EXCLUDED.embedding, created_at = now()
			`, model, r.phrase, pgvector.NewVector(r.vec))
		}

		results := c.conn.SendBatch(ctx, batch)
		for range end - start {
			if _, err := results.Exec(); err != nil {
				_ = results.Close()
				return fmt.Errorf("upsert phrase embedding: %w", err)
			}
		}
		return results.Close()
	})
}

// Prune deletes cached vectors for model older than the given number of days.
func (c *EmbeddingCache) Prune(ctx context.Context, model string, olderThanDays int) (int64, error) {
	tag, err := c.conn.Exec(ctx, `
		DELETE FROM phrase_embeddings
		WHERE model = $1 AND created_at < now() - make_interval(days => $2)
	`, model, olderThanDays)
	if err != nil {
		return 0, fmt.Errorf("prune phrase embeddings: %w", err)
	}
	return tag.RowsAffected(), nil
}

// sanitizeKeys maps texts to the form stored in Postgres. Several inputs can
// share one stored key, so each key remembers all of its originals.
func sanitizeKeys(texts []string) ([]string, map[string][]string) {
	originals := make(map[string][]string, len(texts))
	keys := make([]string, 0, len(texts))
	for _, text := range store.DedupeStrings(texts) {
		key := util.SanitizePostgresText(text)
		if key == "" {
			continue
		}
		if _, ok := originals[key]; !ok {
			keys = append(keys, key)
		}
		originals[key] = append(originals[key], text)
	}
	return keys, originals
}
