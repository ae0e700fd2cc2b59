package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/whalekb/whalekb/internal/extract"
	"github.com/whalekb/whalekb/internal/filestore"
	"github.com/whalekb/whalekb/internal/model"
	appErr "github.com/whalekb/whalekb/internal/pkg/errors"
)

// maxFetchBytes bounds how much of a url document gets downloaded.
const maxFetchBytes = 16 << 20

type DocumentService struct {
	docs   DocumentStore
	chunks ChunkStore
	ingest *IngestService
	store  filestore.Store
	client *http.Client
}

func NewDocumentService(docs DocumentStore, chunks ChunkStore, ingest *IngestService, store filestore.Store) *DocumentService {
	return &DocumentService{
		docs:   docs,
		chunks: chunks,
		ingest: ingest,
		store:  store,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

type DocumentCreateInput struct {
	Title      string
	SourceType string
	Industry   string
	Author     string
	Content    []byte
	URL        string
}

// Create registers a document, stores the raw payload and ingests it
// synchronously. Uploading the same payload twice returns the existing
// document instead of duplicating it.
func (s *DocumentService) Create(ctx context.Context, input DocumentCreateInput) (*model.Document, error) {
	logger := logutil.GetLogger(ctx)
	if input.Title == "" {
		return nil, appErr.ErrInvalidInput
	}
	switch input.SourceType {
	case model.SourceTypePDF, model.SourceTypeText, model.SourceTypeMarkdown:
		if len(input.Content) == 0 {
			return nil, appErr.ErrInvalidInput
		}
	case model.SourceTypeURL:
		if input.URL == "" {
			return nil, appErr.ErrInvalidInput
		}
		content, err := s.fetch(ctx, input.URL)
		if err != nil {
			return nil, fmt.Errorf("fetch url document: %w", err)
		}
		input.Content = content
	default:
		return nil, appErr.ErrInvalidInput
	}

	hash := sha256.Sum256(input.Content)
	contentHash := hex.EncodeToString(hash[:])
	if existing, err := s.docs.GetByContentHash(ctx, contentHash); err == nil {
		logger.Info("duplicate upload, returning existing document",
			zap.Int64("document_id", existing.ID),
			zap.String("content_hash", contentHash),
		)
		return existing, nil
	} else if err != appErr.ErrNotFound {
		return nil, err
	}

	rawKey := "raw_" + contentHash
	if err := s.store.Save(ctx, rawKey, nopSeekCloser(input.Content), int64(len(input.Content))); err != nil {
		return nil, fmt.Errorf("store raw payload: %w", err)
	}

	doc := &model.Document{
		Title:       input.Title,
		SourceType:  input.SourceType,
		Status:      model.DocumentStatusProcessing,
		Industry:    input.Industry,
		Author:      input.Author,
		ContentHash: contentHash,
		RawPath:     rawKey,
		Ctime:       time.Now().Unix(),
	}
	if err := s.docs.Create(ctx, doc); err != nil {
		return nil, err
	}

	text, err := s.extractText(input.SourceType, input.Content)
	if err != nil {
		if markErr := s.docs.UpdateStatus(ctx, doc.ID, model.DocumentStatusFailed, err.Error(), 0); markErr != nil {
			logger.Error("failed to mark document failed", zap.Int64("document_id", doc.ID), zap.Error(markErr))
		}
		doc.Status = model.DocumentStatusFailed
		doc.ErrorMessage = err.Error()
		return doc, nil
	}
	if err := s.ingest.Ingest(ctx, doc.ID, text); err != nil {
		doc.Status = model.DocumentStatusFailed
		doc.ErrorMessage = err.Error()
		return doc, nil
	}
	return s.docs.GetByID(ctx, doc.ID)
}

func (s *DocumentService) Get(ctx context.Context, docID int64) (*model.Document, error) {
	return s.docs.GetByID(ctx, docID)
}

func (s *DocumentService) List(ctx context.Context, status string, limit, offset uint) ([]model.Document, error) {
	if status != "" &&
		status != model.DocumentStatusProcessing &&
		status != model.DocumentStatusCompleted &&
		status != model.DocumentStatusFailed {
		return nil, appErr.ErrInvalidInput
	}
	return s.docs.List(ctx, status, limit, offset)
}

func (s *DocumentService) ListChunks(ctx context.Context, docID int64) ([]model.Chunk, error) {
	if _, err := s.docs.GetByID(ctx, docID); err != nil {
		return nil, err
	}
	return s.chunks.ListByDocument(ctx, docID)
}

// Delete removes the document together with its chunks, vectors and raw
// payload. A failure to delete the raw file is logged but not fatal.
func (s *DocumentService) Delete(ctx context.Context, docID int64) error {
	doc, err := s.docs.GetByID(ctx, docID)
	if err != nil {
		return err
	}
	if err := s.ingest.RemoveDocument(ctx, docID); err != nil {
		return err
	}
	if err := s.docs.Delete(ctx, docID); err != nil {
		return err
	}
	if doc.RawPath != "" {
		if err := s.store.Delete(ctx, doc.RawPath); err != nil {
			logutil.GetLogger(ctx).Warn("failed to delete raw payload",
				zap.Int64("document_id", docID),
				zap.String("raw_path", doc.RawPath),
				zap.Error(err),
			)
		}
	}
	return nil
}

// Reingest re-reads the stored raw payload and rebuilds chunks and vectors,
// picking up the current chunking and embedding configuration.
func (s *DocumentService) Reingest(ctx context.Context, docID int64) (*model.Document, error) {
	doc, err := s.docs.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}
	if doc.RawPath == "" {
		return nil, fmt.Errorf("document %d has no stored payload: %w", docID, appErr.ErrInvalidInput)
	}
	reader, err := s.store.Open(ctx, doc.RawPath)
	if err != nil {
		return nil, fmt.Errorf("open raw payload: %w", err)
	}
	defer reader.Close()
	content, err := io.ReadAll(io.LimitReader(reader, maxFetchBytes))
	if err != nil {
		return nil, err
	}
	if err := s.docs.UpdateStatus(ctx, docID, model.DocumentStatusProcessing, "", doc.ChunkCount); err != nil {
		return nil, err
	}
	text, err := s.extractText(doc.SourceType, content)
	if err != nil {
		if markErr := s.docs.UpdateStatus(ctx, docID, model.DocumentStatusFailed, err.Error(), 0); markErr != nil {
			logutil.GetLogger(ctx).Error("failed to mark document failed", zap.Int64("document_id", docID), zap.Error(markErr))
		}
		return nil, err
	}
	if err := s.ingest.Ingest(ctx, docID, text); err != nil {
		return nil, err
	}
	return s.docs.GetByID(ctx, docID)
}

func (s *DocumentService) extractText(sourceType string, content []byte) (string, error) {
	extractor, err := extract.ForSourceType(sourceType)
	if err != nil {
		return "", err
	}
	return extractor.Extract(content)
}

func (s *DocumentService) fetch(ctx context.Context, url string) ([]byte, error) {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return nil, appErr.ErrInvalidInput
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes))
}

type bytesSeekCloser struct {
	*bytes.Reader
}

func (b bytesSeekCloser) Close() error {
	return nil
}

func nopSeekCloser(data []byte) filestore.ReadSeekCloser {
	return bytesSeekCloser{bytes.NewReader(data)}
}
