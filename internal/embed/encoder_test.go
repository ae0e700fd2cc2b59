package embed

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	apperr "github.com/whalekb/whalekb/internal/pkg/errors"
)

// fakeProvider derives a deterministic vector from each text so ordering is
// checkable, and can be told to fail on a specific text.
type fakeProvider struct {
	mu        sync.Mutex
	dimension int
	failOn    string
	calls     int
	batches   [][]string
}

func (p *fakeProvider) Name() string {
	return "fake"
}

func (p *fakeProvider) EmbedBatch(ctx context.Context, model string, texts []string, taskType string) ([][]float32, error) {
	p.mu.Lock()
	p.calls++
	p.batches = append(p.batches, append([]string(nil), texts...))
	p.mu.Unlock()
	out := make([][]float32, 0, len(texts))
	for _, text := range texts {
		if text == p.failOn {
			return nil, errors.New("backend exploded")
		}
		vec := make([]float32, p.dimension)
		for i := range vec {
			vec[i] = float32(len(text) + i)
		}
		out = append(out, vec)
	}
	return out, nil
}

func (p *fakeProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func TestEncodeKeepsOrderAcrossBatches(t *testing.T) {
	provider := &fakeProvider{dimension: 4}
	enc := NewEncoder(provider, "fake-model", 4, 2)

	texts := []string{"a", "bb", "ccc", "dddd", "eeeee"}
	vectors, err := enc.Encode(context.Background(), texts, TaskTypeDocument)
	require.NoError(t, err)
	require.Len(t, vectors, len(texts))
	for i, text := range texts {
		require.Equal(t, float32(len(text)), vectors[i][0], "vector %d out of order", i)
	}
	require.Equal(t, 3, provider.callCount())
}

func TestEncodeMatchesSingleCalls(t *testing.T) {
	provider := &fakeProvider{dimension: 3}
	batched := NewEncoder(provider, "fake-model", 3, 2)
	single := NewEncoder(&fakeProvider{dimension: 3}, "fake-model", 3, 100)

	texts := []string{"one", "two", "three", "four"}
	a, err := batched.Encode(context.Background(), texts, TaskTypeQuery)
	require.NoError(t, err)
	b, err := single.Encode(context.Background(), texts, TaskTypeQuery)
	require.NoError(t, err)
	require.Equal(t, b, a)
}

func TestEncodeDeterministic(t *testing.T) {
	enc := NewEncoder(&fakeProvider{dimension: 8}, "fake-model", 8, 32)
	a, err := enc.Encode(context.Background(), []string{"same text"}, TaskTypeQuery)
	require.NoError(t, err)
	b, err := enc.Encode(context.Background(), []string{"same text"}, TaskTypeQuery)
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestEncodeWholeBatchFailure(t *testing.T) {
	provider := &fakeProvider{dimension: 4, failOn: "ccc"}
	enc := NewEncoder(provider, "fake-model", 4, 1)

	vectors, err := enc.Encode(context.Background(), []string{"a", "bb", "ccc", "dddd"}, TaskTypeDocument)
	require.Error(t, err)
	require.Nil(t, vectors)

	var backendErr *apperr.BackendError
	require.ErrorAs(t, err, &backendErr)
	require.Equal(t, 2, backendErr.Batch)
}

func TestEncodeDimensionMismatch(t *testing.T) {
	enc := NewEncoder(&fakeProvider{dimension: 4}, "fake-model", 8, 32)
	_, err := enc.Encode(context.Background(), []string{"text"}, TaskTypeDocument)
	require.ErrorIs(t, err, apperr.ErrDimensionMismatch)
}

func TestEncodeEmptyInput(t *testing.T) {
	enc := NewEncoder(&fakeProvider{dimension: 4}, "fake-model", 4, 32)
	vectors, err := enc.Encode(context.Background(), nil, TaskTypeDocument)
	require.NoError(t, err)
	require.Empty(t, vectors)
}

func TestCachedEncoderHitsSkipBackend(t *testing.T) {
	provider := &fakeProvider{dimension: 4}
	enc := WithCache(NewEncoder(provider, "fake-model", 4, 32), 16, time.Minute)

	first, err := enc.Encode(context.Background(), []string{"hello", "world"}, TaskTypeQuery)
	require.NoError(t, err)
	require.Equal(t, 1, provider.callCount())

	second, err := enc.Encode(context.Background(), []string{"hello", "world"}, TaskTypeQuery)
	require.NoError(t, err)
	require.Equal(t, 1, provider.callCount())
	require.Equal(t, first, second)
}

func TestCachedEncoderPartialMiss(t *testing.T) {
	provider := &fakeProvider{dimension: 4}
	enc := WithCache(NewEncoder(provider, "fake-model", 4, 32), 16, time.Minute)

	_, err := enc.Encode(context.Background(), []string{"alpha"}, TaskTypeQuery)
	require.NoError(t, err)

	vectors, err := enc.Encode(context.Background(), []string{"beta", "alpha", "gamma"}, TaskTypeQuery)
	require.NoError(t, err)
	require.Len(t, vectors, 3)
	require.Equal(t, float32(len("beta")), vectors[0][0])
	require.Equal(t, float32(len("alpha")), vectors[1][0])
	require.Equal(t, float32(len("gamma")), vectors[2][0])

	// second call only re-encoded the two misses
	require.Equal(t, 2, provider.callCount())
	last := provider.batches[len(provider.batches)-1]
	require.Equal(t, []string{"beta", "gamma"}, last)
}

func TestCachedEncoderSeparatesTaskTypes(t *testing.T) {
	provider := &fakeProvider{dimension: 4}
	enc := WithCache(NewEncoder(provider, "fake-model", 4, 32), 16, time.Minute)

	_, err := enc.Encode(context.Background(), []string{"text"}, TaskTypeDocument)
	require.NoError(t, err)
	_, err = enc.Encode(context.Background(), []string{"text"}, TaskTypeQuery)
	require.NoError(t, err)
	require.Equal(t, 2, provider.callCount())
}

func TestNewProviderUnknown(t *testing.T) {
	_, err := NewProvider("does-not-exist", map[string]interface{}{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported embedding provider")
}

func TestProviderRegistryDecode(t *testing.T) {
	p, err := NewProvider("openai", map[string]interface{}{"api_key": "k", "base_url": "http://localhost:9"})
	require.NoError(t, err)
	require.Equal(t, "openai", p.Name())
}
