package embed

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// CacheStore is a durable embedding cache keyed by the same model/task/hash
// key as the in-process LRU. Lookups that fail are treated as misses; a
// failed save only loses the cache entry, never the embedding.
type CacheStore interface {
	Get(ctx context.Context, cacheKey string) ([]float32, bool, error)
	Save(ctx context.Context, cacheKey, modelName string, embedding []float32, ctime int64) error
}

func WithDBCache(next Encoder, store CacheStore) Encoder {
	if store == nil {
		return next
	}
	return &dbCachedEncoder{next: next, store: store}
}

type dbCachedEncoder struct {
	next  Encoder
	store CacheStore
}

func (d *dbCachedEncoder) Model() string {
	return d.next.Model()
}

func (d *dbCachedEncoder) Dimension() int {
	return d.next.Dimension()
}

func (d *dbCachedEncoder) Encode(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	logger := logutil.GetLogger(ctx)
	out := make([][]float32, len(texts))
	var missTexts []string
	var missIdx []int
	for i, text := range texts {
		key := cacheKey(d.next.Model(), taskType, text)
		values, ok, err := d.store.Get(ctx, key)
		if err != nil {
			logger.Warn("embedding cache lookup failed", zap.Error(err))
		}
		if ok {
			out[i] = values
			continue
		}
		missTexts = append(missTexts, text)
		missIdx = append(missIdx, i)
	}
	if len(missTexts) == 0 {
		return out, nil
	}
	vectors, err := d.next.Encode(ctx, missTexts, taskType)
	if err != nil {
		return nil, err
	}
	now := time.Now().Unix()
	for i, vec := range vectors {
		out[missIdx[i]] = vec
		key := cacheKey(d.next.Model(), taskType, missTexts[i])
		if err := d.store.Save(ctx, key, d.next.Model(), vec, now); err != nil {
			logger.Warn("failed to cache embedding", zap.Error(err))
		}
	}
	return out, nil
}
