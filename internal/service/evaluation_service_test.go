package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/whalekb/whalekb/internal/model"
	appErr "github.com/whalekb/whalekb/internal/pkg/errors"
)

func newEvaluation(ts *testStack) (*EvaluationService, *memEvaluationStore, *memFeedbackStore) {
	evals := newMemEvaluationStore()
	feedbacks := newMemFeedbackStore()
	svc := NewEvaluationService(evals, feedbacks, newRetrieval(ts))
	return svc, evals, feedbacks
}

func TestEvaluatePrecisionRecall(t *testing.T) {
	ts := newTestStack()
	ids := seedScoredDocs(t, ts, []float64{0.95, 0.9, 0.85})
	svc, evals, _ := newEvaluation(ts)

	// expected: two of the three retrieved docs plus one never retrieved
	expected := []int64{ids[0], ids[1], ids[2] + 100}
	eval, err := svc.Evaluate(context.Background(), EvaluateInput{Query: "the query", ExpectedDocIDs: expected, TopK: 3})
	require.NoError(t, err)

	require.InDelta(t, 2.0/3.0, eval.Precision, 1e-9)
	require.InDelta(t, 2.0/3.0, eval.Recall, 1e-9)
	require.Len(t, eval.RetrievedDocIDs, 3)
	require.Greater(t, eval.AvgSemanticScore, 0.0)

	count, err := evals.Count(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestEvaluateEmptyRetrieval(t *testing.T) {
	ts := newTestStack()
	ts.encoder.vectors["the query"] = []float32{1, 0}
	svc, _, _ := newEvaluation(ts)

	eval, err := svc.Evaluate(context.Background(), EvaluateInput{Query: "the query", ExpectedDocIDs: []int64{1, 2}, TopK: 5})
	require.NoError(t, err)
	require.Zero(t, eval.Precision)
	require.Zero(t, eval.Recall)
	require.Zero(t, eval.AvgSemanticScore)
	require.Empty(t, eval.RetrievedDocIDs)
}

func TestEvaluateEmptyExpected(t *testing.T) {
	ts := newTestStack()
	seedScoredDocs(t, ts, []float64{0.95})
	svc, _, _ := newEvaluation(ts)

	eval, err := svc.Evaluate(context.Background(), EvaluateInput{Query: "the query", TopK: 5})
	require.NoError(t, err)
	require.Zero(t, eval.Precision)
	require.Zero(t, eval.Recall)
}

func TestEvaluateEmptyQuery(t *testing.T) {
	ts := newTestStack()
	svc, _, _ := newEvaluation(ts)
	_, err := svc.Evaluate(context.Background(), EvaluateInput{ExpectedDocIDs: []int64{1}, TopK: 5})
	require.ErrorIs(t, err, appErr.ErrInvalidInput)
}

func TestEvaluateCallerSuppliedRetrievedSet(t *testing.T) {
	ts := newTestStack()
	svc, _, _ := newEvaluation(ts)

	// the submitted set is scored as given, no retrieval run happens
	ts.encoder.failOn = "the query"
	eval, err := svc.Evaluate(context.Background(), EvaluateInput{
		Query:           "the query",
		ExpectedDocIDs:  []int64{1, 2, 3},
		RetrievedDocIDs: []int64{1, 2, 4},
		SemanticScores:  []float64{0.9, 0.8, 0.5},
	})
	require.NoError(t, err)
	require.InDelta(t, 2.0/3.0, eval.Precision, 1e-9)
	require.InDelta(t, 2.0/3.0, eval.Recall, 1e-9)
	require.InDelta(t, (0.9+0.8+0.5)/3.0, eval.AvgSemanticScore, 1e-9)
	require.Equal(t, []int64{1, 2, 4}, eval.RetrievedDocIDs)
}

func TestEvaluateCallerSuppliedEmptySet(t *testing.T) {
	ts := newTestStack()
	svc, _, _ := newEvaluation(ts)
	ts.encoder.failOn = "the query"

	eval, err := svc.Evaluate(context.Background(), EvaluateInput{
		Query:           "the query",
		ExpectedDocIDs:  []int64{1, 2},
		RetrievedDocIDs: []int64{},
	})
	require.NoError(t, err)
	require.Zero(t, eval.Precision)
	require.Zero(t, eval.Recall)
	require.Zero(t, eval.AvgSemanticScore)
}

func TestEvaluateScoresLengthMismatch(t *testing.T) {
	ts := newTestStack()
	svc, _, _ := newEvaluation(ts)

	_, err := svc.Evaluate(context.Background(), EvaluateInput{
		Query:           "the query",
		RetrievedDocIDs: []int64{1, 2},
		SemanticScores:  []float64{0.9},
	})
	require.ErrorIs(t, err, appErr.ErrInvalidInput)
}

func TestRecordFeedbackValidation(t *testing.T) {
	ts := newTestStack()
	svc, _, _ := newEvaluation(ts)

	_, err := svc.RecordFeedback(context.Background(), "q", 1, "meh")
	require.ErrorIs(t, err, appErr.ErrInvalidInput)

	_, err = svc.RecordFeedback(context.Background(), "", 1, model.FeedbackPositive)
	require.ErrorIs(t, err, appErr.ErrInvalidInput)

	fb, err := svc.RecordFeedback(context.Background(), "q", 1, model.FeedbackNegative)
	require.NoError(t, err)
	require.NotZero(t, fb.ID)
}

func TestMetricsFeedbackRates(t *testing.T) {
	ts := newTestStack()
	svc, evals, feedbacks := newEvaluation(ts)
	now := time.Now().Unix()

	// 20 distinct queries: 10 positive, 5 negative, 5 evaluated but unrated
	for i := 0; i < 10; i++ {
		require.NoError(t, feedbacks.Create(context.Background(), &model.Feedback{
			Query: fmt.Sprintf("pos %d", i), Feedback: model.FeedbackPositive, Ctime: now,
		}))
	}
	for i := 0; i < 5; i++ {
		require.NoError(t, feedbacks.Create(context.Background(), &model.Feedback{
			Query: fmt.Sprintf("neg %d", i), Feedback: model.FeedbackNegative, Ctime: now,
		}))
	}
	for i := 0; i < 5; i++ {
		require.NoError(t, evals.Create(context.Background(), &model.Evaluation{
			Query: fmt.Sprintf("silent %d", i), Precision: 0.5, Recall: 1, Ctime: now,
		}))
	}

	metrics, err := svc.Metrics(context.Background(), 30)
	require.NoError(t, err)
	require.Equal(t, 20, metrics.TotalQueries)
	require.InDelta(t, 0.5, metrics.PositiveFeedbackRate, 1e-9)
	require.InDelta(t, 0.25, metrics.NegativeFeedbackRate, 1e-9)
	require.InDelta(t, 0.25, metrics.NoFeedbackRate, 1e-9)
	require.InDelta(t, 0.5, metrics.AvgPrecision, 1e-9)
	require.InDelta(t, 1.0, metrics.AvgRecall, 1e-9)
}

func TestMetricsWindowExcludesOldEntries(t *testing.T) {
	ts := newTestStack()
	svc, evals, feedbacks := newEvaluation(ts)
	old := time.Now().AddDate(0, 0, -60).Unix()

	require.NoError(t, evals.Create(context.Background(), &model.Evaluation{Query: "old", Precision: 1, Ctime: old}))
	require.NoError(t, feedbacks.Create(context.Background(), &model.Feedback{Query: "old", Feedback: model.FeedbackPositive, Ctime: old}))

	metrics, err := svc.Metrics(context.Background(), 30)
	require.NoError(t, err)
	require.Equal(t, 0, metrics.TotalQueries)
	require.Zero(t, metrics.AvgPrecision)
}

func TestHistoryNewestFirstWithLimit(t *testing.T) {
	ts := newTestStack()
	svc, evals, _ := newEvaluation(ts)
	for i := 0; i < 5; i++ {
		require.NoError(t, evals.Create(context.Background(), &model.Evaluation{
			Query: fmt.Sprintf("query %d", i),
			Ctime: int64(1000 + i),
		}))
	}

	got, err := svc.History(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, "query 4", got[0].Query)
	require.Equal(t, "query 2", got[2].Query)
}

func TestMetricsEmpty(t *testing.T) {
	ts := newTestStack()
	svc, _, _ := newEvaluation(ts)

	metrics, err := svc.Metrics(context.Background(), 30)
	require.NoError(t, err)
	require.Equal(t, 0, metrics.TotalQueries)
	require.Zero(t, metrics.AvgPrecision)
	require.Zero(t, metrics.AvgRecall)
	require.Zero(t, metrics.PositiveFeedbackRate)
	require.Zero(t, metrics.NoFeedbackRate)
}

func TestMetricsPositiveWinsOverNegative(t *testing.T) {
	ts := newTestStack()
	svc, _, feedbacks := newEvaluation(ts)
	now := time.Now().Unix()

	require.NoError(t, feedbacks.Create(context.Background(), &model.Feedback{Query: "mixed", Feedback: model.FeedbackNegative, Ctime: now}))
	require.NoError(t, feedbacks.Create(context.Background(), &model.Feedback{Query: "mixed", Feedback: model.FeedbackPositive, Ctime: now}))

	metrics, err := svc.Metrics(context.Background(), 30)
	require.NoError(t, err)
	require.Equal(t, 1, metrics.TotalQueries)
	require.InDelta(t, 1.0, metrics.PositiveFeedbackRate, 1e-9)
	require.Zero(t, metrics.NegativeFeedbackRate)
}
