package service

import (
	"context"
	"time"

	"github.com/whalekb/whalekb/internal/model"
	appErr "github.com/whalekb/whalekb/internal/pkg/errors"
)

type EvaluationService struct {
	evals     EvaluationStore
	feedbacks FeedbackStore
	retrieval *RetrievalService
}

func NewEvaluationService(evals EvaluationStore, feedbacks FeedbackStore, retrieval *RetrievalService) *EvaluationService {
	return &EvaluationService{evals: evals, feedbacks: feedbacks, retrieval: retrieval}
}

type EvaluateInput struct {
	Query           string
	ExpectedDocIDs  []int64
	RetrievedDocIDs []int64
	SemanticScores  []float64
	TopK            int
}

// Evaluate scores a retrieval outcome against the expected document set and
// records it. The caller normally submits the retrieved ids and scores it
// observed; when both are absent the query is run through retrieval instead.
// Empty sets yield zero, never a division error.
func (s *EvaluationService) Evaluate(ctx context.Context, input EvaluateInput) (*model.Evaluation, error) {
	if input.Query == "" {
		return nil, appErr.ErrInvalidInput
	}
	retrieved := input.RetrievedDocIDs
	scores := input.SemanticScores
	if len(scores) > 0 && len(scores) != len(retrieved) {
		return nil, appErr.ErrInvalidInput
	}
	if retrieved == nil && scores == nil {
		var err error
		retrieved, scores, err = s.runRetrieval(ctx, input.Query, input.TopK)
		if err != nil {
			return nil, err
		}
	}

	distinct := distinctDocIDs(retrieved)
	precision, recall := precisionRecall(input.ExpectedDocIDs, distinct)
	avgScore := 0.0
	if len(scores) > 0 {
		var sum float64
		for _, score := range scores {
			sum += score
		}
		avgScore = sum / float64(len(scores))
	}

	eval := &model.Evaluation{
		Query:            input.Query,
		ExpectedDocIDs:   input.ExpectedDocIDs,
		RetrievedDocIDs:  distinct,
		Precision:        precision,
		Recall:           recall,
		AvgSemanticScore: avgScore,
		Ctime:            time.Now().Unix(),
	}
	if err := s.evals.Create(ctx, eval); err != nil {
		return nil, err
	}
	return eval, nil
}

func (s *EvaluationService) runRetrieval(ctx context.Context, query string, topK int) ([]int64, []float64, error) {
	resp, err := s.retrieval.Query(ctx, QueryInput{Query: query, TopK: topK})
	if err != nil {
		return nil, nil, err
	}
	retrieved := make([]int64, 0, len(resp.Results))
	scores := make([]float64, 0, len(resp.Results))
	for _, r := range resp.Results {
		retrieved = append(retrieved, r.DocumentID)
		scores = append(scores, r.Score)
	}
	return retrieved, scores, nil
}

func distinctDocIDs(ids []int64) []int64 {
	out := make([]int64, 0, len(ids))
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func (s *EvaluationService) RecordFeedback(ctx context.Context, query string, docID int64, feedback string) (*model.Feedback, error) {
	if query == "" {
		return nil, appErr.ErrInvalidInput
	}
	if feedback != model.FeedbackPositive && feedback != model.FeedbackNegative {
		return nil, appErr.ErrInvalidInput
	}
	fb := &model.Feedback{
		Query:      query,
		DocumentID: docID,
		Feedback:   feedback,
		Ctime:      time.Now().Unix(),
	}
	if err := s.feedbacks.Create(ctx, fb); err != nil {
		return nil, err
	}
	return fb, nil
}

// History returns the most recent evaluation runs, newest first.
func (s *EvaluationService) History(ctx context.Context, limit int) ([]model.Evaluation, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 200 {
		limit = 200
	}
	return s.evals.ListRecent(ctx, limit)
}

// Metrics aggregates evaluations and feedback over a trailing window of days.
// The feedback rates are computed over distinct query texts seen in either
// stream: a query counts as positive if it ever got positive feedback,
// negative if it only got negative feedback, and unrated otherwise.
func (s *EvaluationService) Metrics(ctx context.Context, windowDays int) (*model.AggregatedMetrics, error) {
	if windowDays <= 0 {
		windowDays = 30
	}
	since := time.Now().AddDate(0, 0, -windowDays).Unix()

	evals, err := s.evals.ListSince(ctx, since)
	if err != nil {
		return nil, err
	}
	feedbacks, err := s.feedbacks.ListSince(ctx, since)
	if err != nil {
		return nil, err
	}

	metrics := &model.AggregatedMetrics{}
	if len(evals) > 0 {
		var precisionSum, recallSum, scoreSum float64
		for _, e := range evals {
			precisionSum += e.Precision
			recallSum += e.Recall
			scoreSum += e.AvgSemanticScore
		}
		n := float64(len(evals))
		metrics.AvgPrecision = precisionSum / n
		metrics.AvgRecall = recallSum / n
		metrics.AvgSemanticScore = scoreSum / n
	}

	queries := make(map[string]struct{})
	for _, e := range evals {
		queries[e.Query] = struct{}{}
	}
	positive := make(map[string]struct{})
	negative := make(map[string]struct{})
	for _, fb := range feedbacks {
		queries[fb.Query] = struct{}{}
		switch fb.Feedback {
		case model.FeedbackPositive:
			positive[fb.Query] = struct{}{}
		case model.FeedbackNegative:
			negative[fb.Query] = struct{}{}
		}
	}
	metrics.TotalQueries = len(queries)
	if metrics.TotalQueries == 0 {
		return metrics, nil
	}

	var positiveCount, negativeCount int
	for query := range queries {
		if _, ok := positive[query]; ok {
			positiveCount++
			continue
		}
		if _, ok := negative[query]; ok {
			negativeCount++
		}
	}
	total := float64(metrics.TotalQueries)
	metrics.PositiveFeedbackRate = float64(positiveCount) / total
	metrics.NegativeFeedbackRate = float64(negativeCount) / total
	metrics.NoFeedbackRate = float64(metrics.TotalQueries-positiveCount-negativeCount) / total
	return metrics, nil
}

func precisionRecall(expected, retrieved []int64) (float64, float64) {
	if len(expected) == 0 || len(retrieved) == 0 {
		return 0, 0
	}
	expectedSet := make(map[int64]struct{}, len(expected))
	for _, id := range expected {
		expectedSet[id] = struct{}{}
	}
	var hits int
	for _, id := range retrieved {
		if _, ok := expectedSet[id]; ok {
			hits++
		}
	}
	precision := float64(hits) / float64(len(retrieved))
	recall := float64(hits) / float64(len(expectedSet))
	return precision, recall
}
