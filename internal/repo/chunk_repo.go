package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"
	"github.com/lib/pq"

	"github.com/whalekb/whalekb/internal/model"
	"github.com/whalekb/whalekb/internal/pkg/dbutil"
)

var chunkFields = []string{
	"id", "document_id", "chunk_index", "content", "start_offset", "end_offset", "vector_id",
}

type ChunkRepo struct {
	db *sql.DB
}

func NewChunkRepo(db *sql.DB) *ChunkRepo {
	return &ChunkRepo{db: db}
}

// BatchCreate inserts the full chunk set of a document in one statement and
// fills in the generated ids.
func (r *ChunkRepo) BatchCreate(ctx context.Context, chunks []*model.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	data := make([]map[string]interface{}, 0, len(chunks))
	for _, chunk := range chunks {
		data = append(data, map[string]interface{}{
			"document_id":  chunk.DocumentID,
			"chunk_index":  chunk.ChunkIndex,
			"content":      chunk.Content,
			"start_offset": chunk.StartOffset,
			"end_offset":   chunk.EndOffset,
			"vector_id":    chunk.VectorID,
		})
	}
	sqlStr, args, err := builder.BuildInsert("chunks", data)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	sqlStr += " RETURNING id"
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for i := 0; rows.Next(); i++ {
		if err := rows.Scan(&chunks[i].ID); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (r *ChunkRepo) ListByDocument(ctx context.Context, docID int64) ([]model.Chunk, error) {
	where := map[string]interface{}{
		"document_id": docID,
		"_orderby":    "chunk_index asc",
	}
	sqlStr, args, err := builder.BuildSelect("chunks", where, chunkFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	return r.queryChunks(ctx, sqlStr, args...)
}

// FindByVectorIDs returns the chunks that still exist for the given vector
// ids. Callers compare the result against the input to detect stale index
// entries.
func (r *ChunkRepo) FindByVectorIDs(ctx context.Context, vectorIDs []string) ([]model.Chunk, error) {
	if len(vectorIDs) == 0 {
		return []model.Chunk{}, nil
	}
	const query = `
		SELECT id, document_id, chunk_index, content, start_offset, end_offset, vector_id
		FROM chunks
		WHERE vector_id = ANY($1)
	`
	return r.queryChunks(ctx, query, pq.Array(vectorIDs))
}

func (r *ChunkRepo) ListVectorIDsByDocument(ctx context.Context, docID int64) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT vector_id FROM chunks WHERE document_id = $1 ORDER BY chunk_index", docID)
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

// AllVectorIDs pages through every chunk vector id, for index reconciliation.
func (r *ChunkRepo) AllVectorIDs(ctx context.Context, limit uint, afterID int64) ([]string, int64, error) {
	const query = `
		SELECT id, vector_id FROM chunks WHERE id > $1 ORDER BY id LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, afterID, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var ids []string
	lastID := afterID
	for rows.Next() {
		var vectorID string
		if err := rows.Scan(&lastID, &vectorID); err != nil {
			return nil, 0, err
		}
		ids = append(ids, vectorID)
	}
	return ids, lastID, rows.Err()
}

func (r *ChunkRepo) DeleteByDocument(ctx context.Context, docID int64) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM chunks WHERE document_id = $1", docID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *ChunkRepo) Count(ctx context.Context) (int, error) {
	row := r.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM chunks")
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ChunkRepo) queryChunks(ctx context.Context, query string, args ...interface{}) ([]model.Chunk, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	chunks := make([]model.Chunk, 0)
	for rows.Next() {
		var chunk model.Chunk
		if err := rows.Scan(
			&chunk.ID, &chunk.DocumentID, &chunk.ChunkIndex, &chunk.Content,
			&chunk.StartOffset, &chunk.EndOffset, &chunk.VectorID,
		); err != nil {
			return nil, err
		}
		chunks = append(chunks, chunk)
	}
	return chunks, rows.Err()
}
