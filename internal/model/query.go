package model

// QueryResult is ephemeral; it is assembled per request and only persisted
// indirectly when the caller submits it for evaluation.
type QueryResult struct {
	ChunkID    int64             `json:"chunk_id"`
	DocumentID int64             `json:"document_id"`
	Score      float64           `json:"score"`
	Content    string            `json:"content"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

type QueryResponse struct {
	Query        string        `json:"query"`
	Results      []QueryResult `json:"results"`
	TotalResults int           `json:"total_results"`
	QueryTimeMS  float64       `json:"query_time_ms"`
}
