package model

const (
	SourceTypePDF      = "pdf"
	SourceTypeURL      = "url"
	SourceTypeText     = "text"
	SourceTypeMarkdown = "markdown"
)

const (
	DocumentStatusProcessing = "processing"
	DocumentStatusCompleted  = "completed"
	DocumentStatusFailed     = "failed"
)

type Document struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	SourceType   string `json:"source_type"`
	Status       string `json:"status"`
	Industry     string `json:"industry,omitempty"`
	Author       string `json:"author,omitempty"`
	ContentHash  string `json:"content_hash,omitempty"`
	RawPath      string `json:"-"`
	ErrorMessage string `json:"error_message,omitempty"`
	ChunkCount   int    `json:"chunk_count"`
	Ctime        int64  `json:"ctime"`
}
