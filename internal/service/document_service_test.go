package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/whalekb/whalekb/internal/config"
	"github.com/whalekb/whalekb/internal/filestore"
	"github.com/whalekb/whalekb/internal/model"
	appErr "github.com/whalekb/whalekb/internal/pkg/errors"
)

func newDocumentService(t *testing.T, ts *testStack) *DocumentService {
	t.Helper()
	store, err := filestore.New(config.FileStoreConfig{
		Type: "local",
		Data: map[string]interface{}{"dir": t.TempDir()},
	})
	require.NoError(t, err)
	return NewDocumentService(ts.docs, ts.chunks, ts.ingest, store)
}

func TestCreateTextDocument(t *testing.T) {
	ts := newTestStack()
	svc := newDocumentService(t, ts)

	doc, err := svc.Create(context.Background(), DocumentCreateInput{
		Title:      "whale migration notes",
		SourceType: model.SourceTypeText,
		Industry:   "marine",
		Content:    []byte("Humpback whales migrate seasonally between feeding and breeding grounds."),
	})
	require.NoError(t, err)
	require.NotZero(t, doc.ID)
	require.Equal(t, model.DocumentStatusCompleted, doc.Status)
	require.Equal(t, 1, doc.ChunkCount)
	require.NotEmpty(t, doc.ContentHash)
}

func TestCreateDuplicateReturnsExisting(t *testing.T) {
	ts := newTestStack()
	svc := newDocumentService(t, ts)
	input := DocumentCreateInput{
		Title:      "original",
		SourceType: model.SourceTypeText,
		Content:    []byte("identical payload"),
	}

	first, err := svc.Create(context.Background(), input)
	require.NoError(t, err)

	input.Title = "duplicate"
	second, err := svc.Create(context.Background(), input)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)

	count, err := ts.docs.Count(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestCreateValidation(t *testing.T) {
	ts := newTestStack()
	svc := newDocumentService(t, ts)

	_, err := svc.Create(context.Background(), DocumentCreateInput{SourceType: model.SourceTypeText, Content: []byte("x")})
	require.ErrorIs(t, err, appErr.ErrInvalidInput)

	_, err = svc.Create(context.Background(), DocumentCreateInput{Title: "t", SourceType: model.SourceTypeText})
	require.ErrorIs(t, err, appErr.ErrInvalidInput)

	_, err = svc.Create(context.Background(), DocumentCreateInput{Title: "t", SourceType: "unknown", Content: []byte("x")})
	require.ErrorIs(t, err, appErr.ErrInvalidInput)

	_, err = svc.Create(context.Background(), DocumentCreateInput{Title: "t", SourceType: model.SourceTypeURL})
	require.ErrorIs(t, err, appErr.ErrInvalidInput)
}

func TestDeleteDocument(t *testing.T) {
	ts := newTestStack()
	svc := newDocumentService(t, ts)

	doc, err := svc.Create(context.Background(), DocumentCreateInput{
		Title:      "short lived",
		SourceType: model.SourceTypeText,
		Content:    []byte("soon to be deleted"),
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), doc.ID))
	_, err = svc.Get(context.Background(), doc.ID)
	require.ErrorIs(t, err, appErr.ErrNotFound)
	require.Equal(t, 0, ts.index.Len())

	require.ErrorIs(t, svc.Delete(context.Background(), doc.ID), appErr.ErrNotFound)
}

func TestReingestRebuildsChunks(t *testing.T) {
	ts := newTestStack()
	svc := newDocumentService(t, ts)

	doc, err := svc.Create(context.Background(), DocumentCreateInput{
		Title:      "stable doc",
		SourceType: model.SourceTypeText,
		Content:    []byte("the payload stays the same across re-ingestion"),
	})
	require.NoError(t, err)
	require.Equal(t, model.DocumentStatusCompleted, doc.Status)

	again, err := svc.Reingest(context.Background(), doc.ID)
	require.NoError(t, err)
	require.Equal(t, model.DocumentStatusCompleted, again.Status)
	require.Equal(t, doc.ChunkCount, again.ChunkCount)
	require.Equal(t, doc.ChunkCount, ts.index.Len())
}

func TestListChunksRequiresDocument(t *testing.T) {
	ts := newTestStack()
	svc := newDocumentService(t, ts)

	_, err := svc.ListChunks(context.Background(), 42)
	require.ErrorIs(t, err, appErr.ErrNotFound)
}
