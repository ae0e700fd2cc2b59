package embed

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// WithCache memoizes encoded vectors in a bounded LRU keyed by
// sha256(model|task|text). Partial hits re-encode only the misses; output
// order always matches input order.
func WithCache(next Encoder, size int, ttl time.Duration) Encoder {
	if next == nil || size <= 0 || ttl <= 0 {
		return next
	}
	return &cachedEncoder{
		next:  next,
		cache: expirable.NewLRU[string, []float32](size, nil, ttl),
	}
}

type cachedEncoder struct {
	next  Encoder
	cache *expirable.LRU[string, []float32]
}

func (c *cachedEncoder) Model() string {
	return c.next.Model()
}

func (c *cachedEncoder) Dimension() int {
	return c.next.Dimension()
}

func (c *cachedEncoder) Encode(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	out := make([][]float32, len(texts))
	var missTexts []string
	var missIdx []int
	for i, text := range texts {
		key := cacheKey(c.next.Model(), taskType, text)
		if cached, ok := c.cache.Get(key); ok {
			out[i] = cloneVector(cached)
			continue
		}
		missTexts = append(missTexts, text)
		missIdx = append(missIdx, i)
	}
	if len(missTexts) == 0 {
		logutil.GetLogger(ctx).Debug("embedding cache hit", zap.Int("texts", len(texts)))
		return out, nil
	}
	encoded, err := c.next.Encode(ctx, missTexts, taskType)
	if err != nil {
		return nil, err
	}
	for i, vec := range encoded {
		out[missIdx[i]] = vec
		c.cache.Add(cacheKey(c.next.Model(), taskType, missTexts[i]), cloneVector(vec))
	}
	return out, nil
}

func cacheKey(model, taskType, text string) string {
	hash := sha256.Sum256([]byte(text))
	return model + ":" + taskType + ":" + hex.EncodeToString(hash[:])
}

func cloneVector(values []float32) []float32 {
	if len(values) == 0 {
		return nil
	}
	clone := make([]float32, len(values))
	copy(clone, values)
	return clone
}
