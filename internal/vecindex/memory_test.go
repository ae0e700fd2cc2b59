package vecindex

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryIndexOrdering(t *testing.T) {
	idx := NewMemoryIndex()
	ctx := context.Background()
	err := idx.Upsert(ctx, []Record{
		{ID: "far", Values: []float32{0, 1, 0}},
		{ID: "near", Values: []float32{1, 0.1, 0}},
		{ID: "exact", Values: []float32{1, 0, 0}},
	})
	require.NoError(t, err)

	matches, err := idx.Query(ctx, []float32{1, 0, 0}, 10, nil)
	require.NoError(t, err)
	require.Len(t, matches, 3)
	require.Equal(t, "exact", matches[0].ID)
	require.Equal(t, "near", matches[1].ID)
	require.Equal(t, "far", matches[2].ID)
	require.InDelta(t, 1.0, matches[0].Score, 1e-9)
	require.Greater(t, matches[0].Score, matches[1].Score)
	require.Greater(t, matches[1].Score, matches[2].Score)
}

func TestMemoryIndexTopKCap(t *testing.T) {
	idx := NewMemoryIndex()
	ctx := context.Background()
	for i := 0; i < 8; i++ {
		require.NoError(t, idx.Upsert(ctx, []Record{
			{ID: string(rune('a' + i)), Values: []float32{1, float32(i)}},
		}))
	}
	matches, err := idx.Query(ctx, []float32{1, 0}, 3, nil)
	require.NoError(t, err)
	require.Len(t, matches, 3)
}

func TestMemoryIndexFilter(t *testing.T) {
	idx := NewMemoryIndex()
	ctx := context.Background()
	err := idx.Upsert(ctx, []Record{
		{ID: "a", Values: []float32{1, 0}, Metadata: map[string]string{"document_id": "1"}},
		{ID: "b", Values: []float32{1, 0}, Metadata: map[string]string{"document_id": "2"}},
	})
	require.NoError(t, err)

	matches, err := idx.Query(ctx, []float32{1, 0}, 10, map[string]string{"document_id": "2"})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	require.Equal(t, "b", matches[0].ID)
}

func TestMemoryIndexUpsertOverwrites(t *testing.T) {
	idx := NewMemoryIndex()
	ctx := context.Background()
	require.NoError(t, idx.Upsert(ctx, []Record{{ID: "a", Values: []float32{0, 1}}}))
	require.NoError(t, idx.Upsert(ctx, []Record{{ID: "a", Values: []float32{1, 0}}}))
	require.Equal(t, 1, idx.Len())

	matches, err := idx.Query(ctx, []float32{1, 0}, 1, nil)
	require.NoError(t, err)
	require.InDelta(t, 1.0, matches[0].Score, 1e-9)
}

func TestMemoryIndexDelete(t *testing.T) {
	idx := NewMemoryIndex()
	ctx := context.Background()
	require.NoError(t, idx.Upsert(ctx, []Record{
		{ID: "a", Values: []float32{1, 0}},
		{ID: "b", Values: []float32{0, 1}},
	}))
	require.NoError(t, idx.Delete(ctx, []string{"a", "missing"}))
	require.Equal(t, 1, idx.Len())

	matches, err := idx.Query(ctx, []float32{1, 0}, 10, nil)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	require.Equal(t, "b", matches[0].ID)
}

func TestCosineSimilarityEdges(t *testing.T) {
	require.Equal(t, float64(0), cosineSimilarity([]float32{1, 0}, []float32{0, 0}))
	require.Equal(t, float64(0), cosineSimilarity([]float32{1, 0}, []float32{1}))
	require.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
}
