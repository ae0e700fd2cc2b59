package service

import (
	"context"

	"github.com/whalekb/whalekb/internal/model"
)

// Storage contracts consumed by the services. The repo package provides the
// Postgres implementations; tests substitute in-memory ones.

type DocumentStore interface {
	Create(ctx context.Context, doc *model.Document) error
	GetByID(ctx context.Context, docID int64) (*model.Document, error)
	GetByContentHash(ctx context.Context, hash string) (*model.Document, error)
	List(ctx context.Context, status string, limit, offset uint) ([]model.Document, error)
	Count(ctx context.Context) (int, error)
	CountByStatus(ctx context.Context) (map[string]int, error)
	UpdateStatus(ctx context.Context, docID int64, status, errorMessage string, chunkCount int) error
	Delete(ctx context.Context, docID int64) error
}

type ChunkStore interface {
	BatchCreate(ctx context.Context, chunks []*model.Chunk) error
	ListByDocument(ctx context.Context, docID int64) ([]model.Chunk, error)
	FindByVectorIDs(ctx context.Context, vectorIDs []string) ([]model.Chunk, error)
	ListVectorIDsByDocument(ctx context.Context, docID int64) ([]string, error)
	DeleteByDocument(ctx context.Context, docID int64) (int64, error)
	Count(ctx context.Context) (int, error)
}

type EvaluationStore interface {
	Create(ctx context.Context, eval *model.Evaluation) error
	ListSince(ctx context.Context, since int64) ([]model.Evaluation, error)
	ListRecent(ctx context.Context, limit int) ([]model.Evaluation, error)
	Count(ctx context.Context) (int, error)
}

type FeedbackStore interface {
	Create(ctx context.Context, fb *model.Feedback) error
	ListSince(ctx context.Context, since int64) ([]model.Feedback, error)
}
