package repo

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/whalekb/whalekb/internal/model"
)

type EvaluationRepo struct {
	db *sql.DB
}

func NewEvaluationRepo(db *sql.DB) *EvaluationRepo {
	return &EvaluationRepo{db: db}
}

func (r *EvaluationRepo) Create(ctx context.Context, eval *model.Evaluation) error {
	expected, err := json.Marshal(idsOrEmpty(eval.ExpectedDocIDs))
	if err != nil {
		return err
	}
	retrieved, err := json.Marshal(idsOrEmpty(eval.RetrievedDocIDs))
	if err != nil {
		return err
	}
	const query = `
		INSERT INTO evaluations (query, expected_doc_ids, retrieved_doc_ids, precision, recall, avg_semantic_score, ctime)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	return r.db.QueryRowContext(ctx, query,
		eval.Query,
		expected,
		retrieved,
		eval.Precision,
		eval.Recall,
		eval.AvgSemanticScore,
		eval.Ctime,
	).Scan(&eval.ID)
}

func (r *EvaluationRepo) ListSince(ctx context.Context, since int64) ([]model.Evaluation, error) {
	const query = `
		SELECT id, query, expected_doc_ids, retrieved_doc_ids, precision, recall, avg_semantic_score, ctime
		FROM evaluations
		WHERE ctime >= $1
		ORDER BY ctime DESC
	`
	return r.queryEvaluations(ctx, query, since)
}

func (r *EvaluationRepo) ListRecent(ctx context.Context, limit int) ([]model.Evaluation, error) {
	const query = `
		SELECT id, query, expected_doc_ids, retrieved_doc_ids, precision, recall, avg_semantic_score, ctime
		FROM evaluations
		ORDER BY ctime DESC, id DESC
		LIMIT $1
	`
	return r.queryEvaluations(ctx, query, limit)
}

func (r *EvaluationRepo) queryEvaluations(ctx context.Context, query string, args ...interface{}) ([]model.Evaluation, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	evals := make([]model.Evaluation, 0)
	for rows.Next() {
		var eval model.Evaluation
		var expected, retrieved []byte
		if err := rows.Scan(
			&eval.ID, &eval.Query, &expected, &retrieved,
			&eval.Precision, &eval.Recall, &eval.AvgSemanticScore, &eval.Ctime,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(expected, &eval.ExpectedDocIDs); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(retrieved, &eval.RetrievedDocIDs); err != nil {
			return nil, err
		}
		evals = append(evals, eval)
	}
	return evals, rows.Err()
}

func (r *EvaluationRepo) Count(ctx context.Context) (int, error) {
	row := r.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM evaluations")
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func idsOrEmpty(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}
