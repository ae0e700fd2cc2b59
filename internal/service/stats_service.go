package service

import (
	"context"

	"github.com/whalekb/whalekb/internal/chunker"
	"github.com/whalekb/whalekb/internal/embed"
)

type StatsService struct {
	docs    DocumentStore
	chunks  ChunkStore
	evals   EvaluationStore
	encoder embed.Encoder
	opts    chunker.Options
}

func NewStatsService(docs DocumentStore, chunks ChunkStore, evals EvaluationStore, encoder embed.Encoder, opts chunker.Options) *StatsService {
	return &StatsService{docs: docs, chunks: chunks, evals: evals, encoder: encoder, opts: opts}
}

type Stats struct {
	TotalDocuments    int            `json:"total_documents"`
	DocumentsByStatus map[string]int `json:"documents_by_status"`
	TotalChunks       int            `json:"total_chunks"`
	TotalEvaluations  int            `json:"total_evaluations"`
	EmbeddingModel    string         `json:"embedding_model"`
	VectorDimension   int            `json:"vector_dimension"`
	ChunkStrategy     string         `json:"chunk_strategy"`
	ChunkSize         int            `json:"chunk_size"`
	ChunkOverlap      int            `json:"chunk_overlap"`
}

func (s *StatsService) Stats(ctx context.Context) (*Stats, error) {
	totalDocs, err := s.docs.Count(ctx)
	if err != nil {
		return nil, err
	}
	byStatus, err := s.docs.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	totalChunks, err := s.chunks.Count(ctx)
	if err != nil {
		return nil, err
	}
	totalEvals, err := s.evals.Count(ctx)
	if err != nil {
		return nil, err
	}
	return &Stats{
		TotalDocuments:    totalDocs,
		DocumentsByStatus: byStatus,
		TotalChunks:       totalChunks,
		TotalEvaluations:  totalEvals,
		EmbeddingModel:    s.encoder.Model(),
		VectorDimension:   s.encoder.Dimension(),
		ChunkStrategy:     string(s.opts.Strategy),
		ChunkSize:         s.opts.Size,
		ChunkOverlap:      s.opts.Overlap,
	}, nil
}
