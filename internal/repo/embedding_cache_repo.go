package repo

import (
	"context"
	"database/sql"

	"github.com/pgvector/pgvector-go"
)

// EmbeddingCacheRepo is the durable second tier behind the in-process LRU.
// Keys already encode model, task type and content hash.
type EmbeddingCacheRepo struct {
	db *sql.DB
}

func NewEmbeddingCacheRepo(db *sql.DB) *EmbeddingCacheRepo {
	return &EmbeddingCacheRepo{db: db}
}

func (r *EmbeddingCacheRepo) Get(ctx context.Context, cacheKey string) ([]float32, bool, error) {
	const query = `SELECT embedding FROM embedding_cache WHERE cache_key = $1`
	row := r.db.QueryRowContext(ctx, query, cacheKey)
	var embedding pgvector.Vector
	if err := row.Scan(&embedding); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, err
	}
	return embedding.Slice(), true, nil
}

func (r *EmbeddingCacheRepo) Save(ctx context.Context, cacheKey, modelName string, embedding []float32, ctime int64) error {
	const query = `
		INSERT INTO embedding_cache (cache_key, model, embedding, ctime)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (cache_key) DO UPDATE SET
			embedding = EXCLUDED.embedding,
			ctime = EXCLUDED.ctime
	`
	_, err := r.db.ExecContext(ctx, query, cacheKey, modelName, pgvector.NewVector(embedding), ctime)
	return err
}

func (r *EmbeddingCacheRepo) DeleteBefore(ctx context.Context, cutoff int64) (int64, error) {
	const query = `DELETE FROM embedding_cache WHERE ctime < $1`
	res, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
