package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/whalekb/whalekb/internal/embed"
	"github.com/whalekb/whalekb/internal/model"
	appErr "github.com/whalekb/whalekb/internal/pkg/errors"
	"github.com/whalekb/whalekb/internal/vecindex"
)

const (
	DefaultTopK = 5
	MaxTopK     = 50
)

type RetrievalService struct {
	encoder embed.Encoder
	index   vecindex.Index
	chunks  ChunkStore
}

func NewRetrievalService(encoder embed.Encoder, index vecindex.Index, chunks ChunkStore) *RetrievalService {
	return &RetrievalService{encoder: encoder, index: index, chunks: chunks}
}

type QueryInput struct {
	Query      string
	TopK       int
	MinScore   *float64
	DocumentID int64
	Filters    map[string]string
}

// Metadata keys a query may filter on. Everything else is rejected rather
// than silently matching nothing.
var allowedFilterKeys = map[string]struct{}{
	"document_id": {},
	"source_type": {},
	"industry":    {},
	"author":      {},
}

// Query embeds the query text, searches the vector index, hydrates matches
// from chunk storage and applies the score floor. Index entries whose chunk
// no longer exists are dropped, not treated as an error.
func (s *RetrievalService) Query(ctx context.Context, input QueryInput) (*model.QueryResponse, error) {
	if input.Query == "" {
		return nil, appErr.ErrInvalidInput
	}
	filter, err := buildFilter(input)
	if err != nil {
		return nil, err
	}
	topK := input.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}
	if topK > MaxTopK {
		topK = MaxTopK
	}
	logger := logutil.GetLogger(ctx)
	start := time.Now()

	vectors, err := s.encoder.Encode(ctx, []string{input.Query}, embed.TaskTypeQuery)
	if err != nil {
		return nil, &appErr.QueryError{Stage: "embed", Err: err}
	}

	matches, err := s.index.Query(ctx, vectors[0], topK, filter)
	if err != nil {
		return nil, &appErr.QueryError{Stage: "search", Err: err}
	}

	results, err := s.hydrate(ctx, matches)
	if err != nil {
		return nil, &appErr.QueryError{Stage: "hydrate", Err: err}
	}
	if input.MinScore != nil {
		kept := results[:0]
		for _, r := range results {
			if r.Score >= *input.MinScore {
				kept = append(kept, r)
			}
		}
		results = kept
	}

	elapsed := time.Since(start)
	logger.Info("query served",
		zap.Int("matches", len(matches)),
		zap.Int("results", len(results)),
		zap.Duration("cost", elapsed),
	)
	return &model.QueryResponse{
		Query:        input.Query,
		Results:      results,
		TotalResults: len(results),
		QueryTimeMS:  float64(elapsed.Microseconds()) / 1000.0,
	}, nil
}

func buildFilter(input QueryInput) (map[string]string, error) {
	filter := make(map[string]string, len(input.Filters)+1)
	for key, value := range input.Filters {
		if _, ok := allowedFilterKeys[key]; !ok {
			return nil, fmt.Errorf("%w: unknown filter key %q", appErr.ErrInvalidInput, key)
		}
		filter[key] = value
	}
	if input.DocumentID > 0 {
		filter["document_id"] = strconv.FormatInt(input.DocumentID, 10)
	}
	if len(filter) == 0 {
		return nil, nil
	}
	return filter, nil
}

func (s *RetrievalService) hydrate(ctx context.Context, matches []vecindex.Match) ([]model.QueryResult, error) {
	if len(matches) == 0 {
		return []model.QueryResult{}, nil
	}
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, m.ID)
	}
	chunks, err := s.chunks.FindByVectorIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byVectorID := make(map[string]model.Chunk, len(chunks))
	for _, chunk := range chunks {
		byVectorID[chunk.VectorID] = chunk
	}

	logger := logutil.GetLogger(ctx)
	results := make([]model.QueryResult, 0, len(matches))
	for _, m := range matches {
		chunk, ok := byVectorID[m.ID]
		if !ok {
			logger.Warn("dropping stale index entry", zap.String("vector_id", m.ID))
			continue
		}
		results = append(results, model.QueryResult{
			ChunkID:    chunk.ID,
			DocumentID: chunk.DocumentID,
			Score:      m.Score,
			Content:    chunk.Content,
			Metadata:   m.Metadata,
		})
	}
	return results, nil
}
