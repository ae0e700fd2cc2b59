package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/whalekb/whalekb/internal/model"
	"github.com/whalekb/whalekb/internal/pkg/dbutil"
	appErr "github.com/whalekb/whalekb/internal/pkg/errors"
)

var documentFields = []string{
	"id", "title", "source_type", "status", "industry", "author",
	"content_hash", "raw_path", "error_message", "chunk_count", "ctime",
}

type DocumentRepo struct {
	db *sql.DB
}

func NewDocumentRepo(db *sql.DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

func (r *DocumentRepo) Create(ctx context.Context, doc *model.Document) error {
	const query = `
		INSERT INTO documents (title, source_type, status, industry, author, content_hash, raw_path, error_message, chunk_count, ctime)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`
	return r.db.QueryRowContext(ctx, query,
		doc.Title,
		doc.SourceType,
		doc.Status,
		doc.Industry,
		doc.Author,
		doc.ContentHash,
		doc.RawPath,
		doc.ErrorMessage,
		doc.ChunkCount,
		doc.Ctime,
	).Scan(&doc.ID)
}

func (r *DocumentRepo) GetByID(ctx context.Context, docID int64) (*model.Document, error) {
	where := map[string]interface{}{
		"id": docID,
	}
	sqlStr, args, err := builder.BuildSelect("documents", where, documentFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	if !rows.Next() {
		return nil, appErr.ErrNotFound
	}
	return scanDocument(rows)
}

func (r *DocumentRepo) GetByContentHash(ctx context.Context, hash string) (*model.Document, error) {
	where := map[string]interface{}{
		"content_hash": hash,
		"_orderby":     "ctime desc",
		"_limit":       []uint{0, 1},
	}
	sqlStr, args, err := builder.BuildSelect("documents", where, documentFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	if !rows.Next() {
		return nil, appErr.ErrNotFound
	}
	return scanDocument(rows)
}

func (r *DocumentRepo) List(ctx context.Context, status string, limit, offset uint) ([]model.Document, error) {
	where := map[string]interface{}{
		"_orderby": "ctime desc",
	}
	if status != "" {
		where["status"] = status
	}
	if limit > 0 {
		where["_limit"] = []uint{offset, limit}
	}
	sqlStr, args, err := builder.BuildSelect("documents", where, documentFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	docs := make([]model.Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	return docs, rows.Err()
}

func (r *DocumentRepo) Count(ctx context.Context) (int, error) {
	row := r.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM documents")
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *DocumentRepo) CountByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT status, COUNT(1) FROM documents GROUP BY status")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

func (r *DocumentRepo) UpdateStatus(ctx context.Context, docID int64, status, errorMessage string, chunkCount int) error {
	where := map[string]interface{}{
		"id": docID,
	}
	update := map[string]interface{}{
		"status":        status,
		"error_message": errorMessage,
		"chunk_count":   chunkCount,
	}
	sqlStr, args, err := builder.BuildUpdate("documents", where, update)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

func (r *DocumentRepo) Delete(ctx context.Context, docID int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM documents WHERE id = $1", docID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

func scanDocument(rows *sql.Rows) (*model.Document, error) {
	var doc model.Document
	if err := rows.Scan(
		&doc.ID, &doc.Title, &doc.SourceType, &doc.Status, &doc.Industry, &doc.Author,
		&doc.ContentHash, &doc.RawPath, &doc.ErrorMessage, &doc.ChunkCount, &doc.Ctime,
	); err != nil {
		return nil, err
	}
	return &doc, nil
}
