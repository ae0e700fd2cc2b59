package service

import (
	"context"
	"sort"
	"sync"

	"github.com/whalekb/whalekb/internal/model"
	appErr "github.com/whalekb/whalekb/internal/pkg/errors"
)

type memDocumentStore struct {
	mu     sync.Mutex
	nextID int64
	docs   map[int64]*model.Document
}

func newMemDocumentStore() *memDocumentStore {
	return &memDocumentStore{docs: make(map[int64]*model.Document)}
}

func (m *memDocumentStore) Create(ctx context.Context, doc *model.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	doc.ID = m.nextID
	clone := *doc
	m.docs[doc.ID] = &clone
	return nil
}

func (m *memDocumentStore) GetByID(ctx context.Context, docID int64) (*model.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[docID]
	if !ok {
		return nil, appErr.ErrNotFound
	}
	clone := *doc
	return &clone, nil
}

func (m *memDocumentStore) GetByContentHash(ctx context.Context, hash string) (*model.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, doc := range m.docs {
		if doc.ContentHash == hash {
			clone := *doc
			return &clone, nil
		}
	}
	return nil, appErr.ErrNotFound
}

func (m *memDocumentStore) List(ctx context.Context, status string, limit, offset uint) ([]model.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Document, 0, len(m.docs))
	for _, doc := range m.docs {
		if status != "" && doc.Status != status {
			continue
		}
		out = append(out, *doc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memDocumentStore) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.docs), nil
}

func (m *memDocumentStore) CountByStatus(ctx context.Context) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[string]int)
	for _, doc := range m.docs {
		counts[doc.Status]++
	}
	return counts, nil
}

func (m *memDocumentStore) UpdateStatus(ctx context.Context, docID int64, status, errorMessage string, chunkCount int) error {
	// database/sql refuses to execute on a done context; the fake does too
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[docID]
	if !ok {
		return appErr.ErrNotFound
	}
	doc.Status = status
	doc.ErrorMessage = errorMessage
	doc.ChunkCount = chunkCount
	return nil
}

func (m *memDocumentStore) Delete(ctx context.Context, docID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[docID]; !ok {
		return appErr.ErrNotFound
	}
	delete(m.docs, docID)
	return nil
}

type memChunkStore struct {
	mu     sync.Mutex
	nextID int64
	chunks map[int64]*model.Chunk
}

func newMemChunkStore() *memChunkStore {
	return &memChunkStore{chunks: make(map[int64]*model.Chunk)}
}

func (m *memChunkStore) BatchCreate(ctx context.Context, chunks []*model.Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, chunk := range chunks {
		m.nextID++
		chunk.ID = m.nextID
		clone := *chunk
		m.chunks[chunk.ID] = &clone
	}
	return nil
}

func (m *memChunkStore) ListByDocument(ctx context.Context, docID int64) ([]model.Chunk, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Chunk, 0)
	for _, chunk := range m.chunks {
		if chunk.DocumentID == docID {
			out = append(out, *chunk)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChunkIndex < out[j].ChunkIndex })
	return out, nil
}

func (m *memChunkStore) FindByVectorIDs(ctx context.Context, vectorIDs []string) ([]model.Chunk, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	want := make(map[string]struct{}, len(vectorIDs))
	for _, id := range vectorIDs {
		want[id] = struct{}{}
	}
	out := make([]model.Chunk, 0)
	for _, chunk := range m.chunks {
		if _, ok := want[chunk.VectorID]; ok {
			out = append(out, *chunk)
		}
	}
	return out, nil
}

func (m *memChunkStore) ListVectorIDsByDocument(ctx context.Context, docID int64) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for _, chunk := range m.chunks {
		if chunk.DocumentID == docID {
			ids = append(ids, chunk.VectorID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *memChunkStore) DeleteByDocument(ctx context.Context, docID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var removed int64
	for id, chunk := range m.chunks {
		if chunk.DocumentID == docID {
			delete(m.chunks, id)
			removed++
		}
	}
	return removed, nil
}

func (m *memChunkStore) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.chunks), nil
}

func (m *memChunkStore) removeByVectorID(vectorID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, chunk := range m.chunks {
		if chunk.VectorID == vectorID {
			delete(m.chunks, id)
		}
	}
}

type memEvaluationStore struct {
	mu     sync.Mutex
	nextID int64
	evals  []model.Evaluation
}

func newMemEvaluationStore() *memEvaluationStore {
	return &memEvaluationStore{}
}

func (m *memEvaluationStore) Create(ctx context.Context, eval *model.Evaluation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	eval.ID = m.nextID
	m.evals = append(m.evals, *eval)
	return nil
}

func (m *memEvaluationStore) ListSince(ctx context.Context, since int64) ([]model.Evaluation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Evaluation, 0)
	for _, eval := range m.evals {
		if eval.Ctime >= since {
			out = append(out, eval)
		}
	}
	return out, nil
}

func (m *memEvaluationStore) ListRecent(ctx context.Context, limit int) ([]model.Evaluation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Evaluation, 0, limit)
	for i := len(m.evals) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.evals[i])
	}
	return out, nil
}

func (m *memEvaluationStore) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.evals), nil
}

type memFeedbackStore struct {
	mu        sync.Mutex
	nextID    int64
	feedbacks []model.Feedback
}

func newMemFeedbackStore() *memFeedbackStore {
	return &memFeedbackStore{}
}

func (m *memFeedbackStore) Create(ctx context.Context, fb *model.Feedback) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	fb.ID = m.nextID
	m.feedbacks = append(m.feedbacks, *fb)
	return nil
}

func (m *memFeedbackStore) ListSince(ctx context.Context, since int64) ([]model.Feedback, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Feedback, 0)
	for _, fb := range m.feedbacks {
		if fb.Ctime >= since {
			out = append(out, fb)
		}
	}
	return out, nil
}

// stubEncoder maps each known text to a fixed vector; unknown texts get a
// constant fallback so similarity to everything is well defined.
type stubEncoder struct {
	vectors  map[string][]float32
	fallback []float32
	failOn   string
	onEncode func()
}

func (e *stubEncoder) Model() string {
	return "stub-model"
}

func (e *stubEncoder) Dimension() int {
	return len(e.fallback)
}

func (e *stubEncoder) Encode(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	if e.onEncode != nil {
		e.onEncode()
	}
	out := make([][]float32, 0, len(texts))
	for i, text := range texts {
		if e.failOn != "" && text == e.failOn {
			return nil, &appErr.BackendError{Batch: i, Err: appErr.ErrInternal}
		}
		if vec, ok := e.vectors[text]; ok {
			out = append(out, vec)
			continue
		}
		out = append(out, e.fallback)
	}
	return out, nil
}
