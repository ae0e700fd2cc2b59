package service

import (
	"context"
	"fmt"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/whalekb/whalekb/internal/chunker"
	"github.com/whalekb/whalekb/internal/embed"
	"github.com/whalekb/whalekb/internal/model"
	"github.com/whalekb/whalekb/internal/vecindex"
)

// IngestService turns extracted document text into chunks and vectors.
// Ingestion is idempotent: existing chunks and index entries are removed
// before the new set is written, so a re-run always converges.
type IngestService struct {
	docs    DocumentStore
	chunks  ChunkStore
	index   vecindex.Index
	encoder embed.Encoder
	opts    chunker.Options
}

func NewIngestService(docs DocumentStore, chunks ChunkStore, index vecindex.Index, encoder embed.Encoder, opts chunker.Options) *IngestService {
	return &IngestService{docs: docs, chunks: chunks, index: index, encoder: encoder, opts: opts}
}

func (s *IngestService) Ingest(ctx context.Context, docID int64, text string) error {
	logger := logutil.GetLogger(ctx).With(zap.Int64("document_id", docID))
	start := time.Now()

	doc, err := s.docs.GetByID(ctx, docID)
	if err != nil {
		return s.fail(ctx, docID, fmt.Errorf("load document: %w", err))
	}

	if err := s.removeExisting(ctx, docID); err != nil {
		return s.fail(ctx, docID, fmt.Errorf("remove existing chunks: %w", err))
	}

	spans, err := chunker.Split(text, s.opts)
	if err != nil {
		return s.fail(ctx, docID, err)
	}
	if len(spans) == 0 {
		logger.Info("document produced no chunks")
		return s.docs.UpdateStatus(ctx, docID, model.DocumentStatusCompleted, "", 0)
	}

	chunks := make([]*model.Chunk, 0, len(spans))
	texts := make([]string, 0, len(spans))
	for _, span := range spans {
		chunks = append(chunks, &model.Chunk{
			DocumentID:  docID,
			ChunkIndex:  span.Index,
			Content:     span.Content,
			StartOffset: span.Start,
			EndOffset:   span.End,
			VectorID:    fmt.Sprintf("doc_%d_chunk_%d", docID, span.Index),
		})
		texts = append(texts, span.Content)
	}

	vectors, err := s.encoder.Encode(ctx, texts, embed.TaskTypeDocument)
	if err != nil {
		return s.fail(ctx, docID, err)
	}
	if err := ctx.Err(); err != nil {
		return s.fail(ctx, docID, err)
	}

	if err := s.chunks.BatchCreate(ctx, chunks); err != nil {
		return s.fail(ctx, docID, fmt.Errorf("persist chunks: %w", err))
	}

	records := make([]vecindex.Record, 0, len(chunks))
	for i, chunk := range chunks {
		metadata := map[string]string{
			"document_id": fmt.Sprintf("%d", docID),
			"chunk_index": fmt.Sprintf("%d", chunk.ChunkIndex),
		}
		if doc.SourceType != "" {
			metadata["source_type"] = doc.SourceType
		}
		if doc.Industry != "" {
			metadata["industry"] = doc.Industry
		}
		if doc.Author != "" {
			metadata["author"] = doc.Author
		}
		records = append(records, vecindex.Record{
			ID:       chunk.VectorID,
			Values:   vectors[i],
			Metadata: metadata,
		})
	}
	if err := s.index.Upsert(ctx, records); err != nil {
		return s.fail(ctx, docID, fmt.Errorf("upsert vectors: %w", err))
	}

	if err := s.docs.UpdateStatus(ctx, docID, model.DocumentStatusCompleted, "", len(chunks)); err != nil {
		return err
	}
	logger.Info("document ingested",
		zap.Int("chunks", len(chunks)),
		zap.Duration("cost", time.Since(start)),
	)
	return nil
}

// RemoveDocument drops the chunks and index entries of a document without
// touching the document row. Used by both re-ingestion and deletion.
func (s *IngestService) RemoveDocument(ctx context.Context, docID int64) error {
	return s.removeExisting(ctx, docID)
}

func (s *IngestService) removeExisting(ctx context.Context, docID int64) error {
	vectorIDs, err := s.chunks.ListVectorIDsByDocument(ctx, docID)
	if err != nil {
		return err
	}
	if len(vectorIDs) > 0 {
		if err := s.index.Delete(ctx, vectorIDs); err != nil {
			return err
		}
	}
	_, err = s.chunks.DeleteByDocument(ctx, docID)
	return err
}

func (s *IngestService) fail(ctx context.Context, docID int64, cause error) error {
	// the caller's context may already be cancelled; the failure mark must
	// still reach the store or the document stays in processing forever
	ctx = context.WithoutCancel(ctx)
	logger := logutil.GetLogger(ctx)
	logger.Error("ingestion failed", zap.Int64("document_id", docID), zap.Error(cause))
	if err := s.docs.UpdateStatus(ctx, docID, model.DocumentStatusFailed, cause.Error(), 0); err != nil {
		logger.Error("failed to mark document failed", zap.Int64("document_id", docID), zap.Error(err))
	}
	return cause
}
