package handler

import (
	"encoding/base64"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/whalekb/whalekb/internal/model"
	"github.com/whalekb/whalekb/internal/pkg/errcode"
	"github.com/whalekb/whalekb/internal/pkg/response"
	"github.com/whalekb/whalekb/internal/service"
)

type DocumentHandler struct {
	documents *service.DocumentService
}

func NewDocumentHandler(documents *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{documents: documents}
}

type documentCreateRequest struct {
	Title         string `json:"title"`
	SourceType    string `json:"source_type"`
	Content       string `json:"content"`
	ContentBase64 string `json:"content_base64"`
	URL           string `json:"url"`
	Industry      string `json:"industry"`
	Author        string `json:"author"`
}

func (h *DocumentHandler) Create(c *gin.Context) {
	var req documentCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	if req.Title == "" {
		response.Error(c, errcode.ErrInvalid, "title required")
		return
	}
	content := []byte(req.Content)
	if req.ContentBase64 != "" {
		decoded, err := base64.StdEncoding.DecodeString(req.ContentBase64)
		if err != nil {
			response.Error(c, errcode.ErrInvalid, "invalid content_base64")
			return
		}
		content = decoded
	}
	doc, err := h.documents.Create(c.Request.Context(), service.DocumentCreateInput{
		Title:      req.Title,
		SourceType: req.SourceType,
		Industry:   req.Industry,
		Author:     req.Author,
		Content:    content,
		URL:        req.URL,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, doc)
}

// Upload accepts a multipart form with a "file" part and title/source_type
// metadata fields. The file bytes go through the same ingest path as Create.
func (h *DocumentHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, errcode.ErrInvalid, "file part required")
		return
	}
	title := c.PostForm("title")
	if title == "" {
		title = fileHeader.Filename
	}
	sourceType := c.PostForm("source_type")
	if sourceType == "" {
		sourceType = sourceTypeFromFilename(fileHeader.Filename)
	}
	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, errcode.ErrInvalid, "unreadable file part")
		return
	}
	defer file.Close()
	content, err := io.ReadAll(file)
	if err != nil {
		response.Error(c, errcode.ErrInvalid, "unreadable file part")
		return
	}
	doc, err := h.documents.Create(c.Request.Context(), service.DocumentCreateInput{
		Title:      title,
		SourceType: sourceType,
		Industry:   c.PostForm("industry"),
		Author:     c.PostForm("author"),
		Content:    content,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, doc)
}

func sourceTypeFromFilename(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return model.SourceTypePDF
	case ".md", ".markdown":
		return model.SourceTypeMarkdown
	default:
		return model.SourceTypeText
	}
}

func (h *DocumentHandler) Get(c *gin.Context) {
	docID, ok := parseID(c, "id")
	if !ok {
		return
	}
	doc, err := h.documents.Get(c.Request.Context(), docID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, doc)
}

func (h *DocumentHandler) List(c *gin.Context) {
	status := c.Query("status")
	limit := uint(50)
	if value := c.Query("limit"); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			limit = uint(parsed)
		}
	}
	offset := uint(0)
	if value := c.Query("offset"); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			offset = uint(parsed)
		}
	}
	docs, err := h.documents.List(c.Request.Context(), status, limit, offset)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"documents": docs, "total": len(docs)})
}

func (h *DocumentHandler) Chunks(c *gin.Context) {
	docID, ok := parseID(c, "id")
	if !ok {
		return
	}
	chunks, err := h.documents.ListChunks(c.Request.Context(), docID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"chunks": chunks, "total": len(chunks)})
}

func (h *DocumentHandler) Delete(c *gin.Context) {
	docID, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.documents.Delete(c.Request.Context(), docID); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": true})
}

func (h *DocumentHandler) Reingest(c *gin.Context) {
	docID, ok := parseID(c, "id")
	if !ok {
		return
	}
	doc, err := h.documents.Reingest(c.Request.Context(), docID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, doc)
}
