package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/whalekb/whalekb/internal/model"
	"github.com/whalekb/whalekb/internal/pkg/dbutil"
)

type FeedbackRepo struct {
	db *sql.DB
}

func NewFeedbackRepo(db *sql.DB) *FeedbackRepo {
	return &FeedbackRepo{db: db}
}

func (r *FeedbackRepo) Create(ctx context.Context, fb *model.Feedback) error {
	data := map[string]interface{}{
		"query":       fb.Query,
		"document_id": fb.DocumentID,
		"feedback":    fb.Feedback,
		"ctime":       fb.Ctime,
	}
	sqlStr, args, err := builder.BuildInsert("feedback", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	sqlStr += " RETURNING id"
	return r.db.QueryRowContext(ctx, sqlStr, args...).Scan(&fb.ID)
}

func (r *FeedbackRepo) ListSince(ctx context.Context, since int64) ([]model.Feedback, error) {
	where := map[string]interface{}{
		"ctime >=": since,
		"_orderby": "ctime desc",
	}
	sqlStr, args, err := builder.BuildSelect("feedback", where, []string{"id", "query", "document_id", "feedback", "ctime"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]model.Feedback, 0)
	for rows.Next() {
		var fb model.Feedback
		if err := rows.Scan(&fb.ID, &fb.Query, &fb.DocumentID, &fb.Feedback, &fb.Ctime); err != nil {
			return nil, err
		}
		items = append(items, fb)
	}
	return items, rows.Err()
}
