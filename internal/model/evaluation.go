package model

const (
	FeedbackPositive = "positive"
	FeedbackNegative = "negative"
)

type Evaluation struct {
	ID               int64   `json:"id"`
	Query            string  `json:"query"`
	ExpectedDocIDs   []int64 `json:"expected_doc_ids"`
	RetrievedDocIDs  []int64 `json:"retrieved_doc_ids"`
	Precision        float64 `json:"precision"`
	Recall           float64 `json:"recall"`
	AvgSemanticScore float64 `json:"avg_semantic_score"`
	Ctime            int64   `json:"ctime"`
}

type Feedback struct {
	ID         int64  `json:"id"`
	Query      string `json:"query"`
	DocumentID int64  `json:"document_id"`
	Feedback   string `json:"feedback"`
	Ctime      int64  `json:"ctime"`
}

// AggregatedMetrics summarizes retrieval quality over a trailing window.
// Feedback rates and evaluation averages come from two independent streams
// correlated only by query text.
type AggregatedMetrics struct {
	TotalQueries         int     `json:"total_queries"`
	AvgPrecision         float64 `json:"avg_precision"`
	AvgRecall            float64 `json:"avg_recall"`
	AvgSemanticScore     float64 `json:"avg_semantic_score"`
	PositiveFeedbackRate float64 `json:"positive_feedback_rate"`
	NegativeFeedbackRate float64 `json:"negative_feedback_rate"`
	NoFeedbackRate       float64 `json:"no_feedback_rate"`
}
