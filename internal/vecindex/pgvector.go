package vecindex

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
)

// PGVectorIndex stores vectors in the chunk_vectors table with a jsonb
// metadata column. Similarity is cosine: score = 1 - (embedding <=> query).
type PGVectorIndex struct {
	db *sql.DB
}

func NewPGVectorIndex(db *sql.DB) *PGVectorIndex {
	return &PGVectorIndex{db: db}
}

func (p *PGVectorIndex) Upsert(ctx context.Context, records []Record) error {
	const query = `
		INSERT INTO chunk_vectors (vector_id, embedding, metadata)
		VALUES ($1, $2, $3)
		ON CONFLICT (vector_id) DO UPDATE SET
			embedding = EXCLUDED.embedding,
			metadata = EXCLUDED.metadata
	`
	for _, rec := range records {
		metadata, err := json.Marshal(rec.Metadata)
		if err != nil {
			return err
		}
		if _, err := p.db.ExecContext(ctx, query, rec.ID, pgvector.NewVector(rec.Values), metadata); err != nil {
			return fmt.Errorf("upsert vector %s: %w", rec.ID, err)
		}
	}
	return nil
}

func (p *PGVectorIndex) Query(ctx context.Context, vector []float32, topK int, filter map[string]string) ([]Match, error) {
	if topK <= 0 {
		return nil, nil
	}
	query := `
		SELECT vector_id, 1 - (embedding <=> $1) AS score, metadata
		FROM chunk_vectors
	`
	args := []interface{}{pgvector.NewVector(vector)}
	if len(filter) > 0 {
		filterJSON, err := json.Marshal(filter)
		if err != nil {
			return nil, err
		}
		query += ` WHERE metadata @> $2::jsonb`
		args = append(args, filterJSON)
	}
	query += fmt.Sprintf(` ORDER BY embedding <=> $1 LIMIT %d`, topK)

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var matches []Match
	for rows.Next() {
		var match Match
		var metadata []byte
		if err := rows.Scan(&match.ID, &match.Score, &metadata); err != nil {
			return nil, err
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &match.Metadata); err != nil {
				return nil, err
			}
		}
		matches = append(matches, match)
	}
	return matches, rows.Err()
}

func (p *PGVectorIndex) ListIDs(ctx context.Context, afterID string, limit int) ([]string, error) {
	const query = `SELECT vector_id FROM chunk_vectors WHERE vector_id > $1 ORDER BY vector_id LIMIT $2`
	rows, err := p.db.QueryContext(ctx, query, afterID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (p *PGVectorIndex) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	const query = `DELETE FROM chunk_vectors WHERE vector_id = ANY($1)`
	_, err := p.db.ExecContext(ctx, query, pq.Array(ids))
	return err
}
