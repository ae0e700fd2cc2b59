package vecindex

import (
	"context"
	"sort"
	"sync"
)

// MemoryIndex is a process-local cosine index for tests and single-node dev
// runs. It honors the same ordering and filter contract as the real backends.
type MemoryIndex struct {
	mu      sync.RWMutex
	records map[string]Record
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{records: make(map[string]Record)}
}

func (m *MemoryIndex) Upsert(ctx context.Context, records []Record) error {
	_ = ctx
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range records {
		values := make([]float32, len(rec.Values))
		copy(values, rec.Values)
		metadata := make(map[string]string, len(rec.Metadata))
		for k, v := range rec.Metadata {
			metadata[k] = v
		}
		m.records[rec.ID] = Record{ID: rec.ID, Values: values, Metadata: metadata}
	}
	return nil
}

func (m *MemoryIndex) Query(ctx context.Context, vector []float32, topK int, filter map[string]string) ([]Match, error) {
	_ = ctx
	if topK <= 0 {
		return nil, nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	matches := make([]Match, 0, len(m.records))
	for _, rec := range m.records {
		if !matchesFilter(rec.Metadata, filter) {
			continue
		}
		matches = append(matches, Match{
			ID:       rec.ID,
			Score:    cosineSimilarity(vector, rec.Values),
			Metadata: rec.Metadata,
		})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].ID < matches[j].ID
	})
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

func (m *MemoryIndex) Delete(ctx context.Context, ids []string) error {
	_ = ctx
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		delete(m.records, id)
	}
	return nil
}

func (m *MemoryIndex) ListIDs(ctx context.Context, afterID string, limit int) ([]string, error) {
	_ = ctx
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.records))
	for id := range m.records {
		if id > afterID {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func (m *MemoryIndex) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

func matchesFilter(metadata, filter map[string]string) bool {
	for k, v := range filter {
		if metadata[k] != v {
			return false
		}
	}
	return true
}
