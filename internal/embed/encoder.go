package embed

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	apperr "github.com/whalekb/whalekb/internal/pkg/errors"
)

// maxParallelBatches bounds in-flight backend calls per Encode so one large
// ingestion cannot fan out past backend rate limits.
const maxParallelBatches = 4

// Encoder converts texts into fixed-dimension vectors. The call is
// all-or-nothing: either every text gets a vector or an error is returned and
// no partial output escapes, so a document can never end up half-indexed.
type Encoder interface {
	Encode(ctx context.Context, texts []string, taskType string) ([][]float32, error)
	Model() string
	Dimension() int
}

type batchEncoder struct {
	provider  Provider
	model     string
	dimension int
	batchSize int
}

func NewEncoder(provider Provider, model string, dimension, batchSize int) Encoder {
	if batchSize <= 0 {
		batchSize = 32
	}
	return &batchEncoder{
		provider:  provider,
		model:     model,
		dimension: dimension,
		batchSize: batchSize,
	}
}

func (e *batchEncoder) Model() string {
	return e.model
}

func (e *batchEncoder) Dimension() int {
	return e.dimension
}

func (e *batchEncoder) Encode(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	out := make([][]float32, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelBatches)
	for b := 0; b*e.batchSize < len(texts); b++ {
		batch := b
		start := batch * e.batchSize
		end := start + e.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		g.Go(func() error {
			vectors, err := e.provider.EmbedBatch(gctx, e.model, texts[start:end], taskType)
			if err != nil {
				return &apperr.BackendError{Batch: batch, Err: err}
			}
			if len(vectors) != end-start {
				return &apperr.BackendError{
					Batch: batch,
					Err:   fmt.Errorf("backend returned %d vectors for %d texts", len(vectors), end-start),
				}
			}
			for i, vec := range vectors {
				if len(vec) != e.dimension {
					return fmt.Errorf("%w: got %d-dim vector, want %d", apperr.ErrDimensionMismatch, len(vec), e.dimension)
				}
				out[start+i] = vec
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
