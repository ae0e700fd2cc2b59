package model

// Chunk is the atomic unit of retrieval: a contiguous rune span of its parent
// document. Rows are created in a batch during ingestion and never mutated;
// re-chunking deletes and recreates the whole set.
type Chunk struct {
	ID          int64  `json:"id"`
	DocumentID  int64  `json:"document_id"`
	ChunkIndex  int    `json:"chunk_index"`
	Content     string `json:"content"`
	StartOffset int    `json:"start_offset"`
	EndOffset   int    `json:"end_offset"`
	VectorID    string `json:"vector_id"`
}
