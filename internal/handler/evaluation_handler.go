package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/whalekb/whalekb/internal/pkg/errcode"
	"github.com/whalekb/whalekb/internal/pkg/response"
	"github.com/whalekb/whalekb/internal/service"
)

type EvaluationHandler struct {
	evaluation *service.EvaluationService
}

func NewEvaluationHandler(evaluation *service.EvaluationService) *EvaluationHandler {
	return &EvaluationHandler{evaluation: evaluation}
}

type evaluateRequest struct {
	Query           string    `json:"query"`
	ExpectedDocIDs  []int64   `json:"expected_doc_ids"`
	RetrievedDocIDs []int64   `json:"retrieved_doc_ids"`
	SemanticScores  []float64 `json:"semantic_scores"`
	TopK            int       `json:"top_k"`
}

func (h *EvaluationHandler) Evaluate(c *gin.Context) {
	var req evaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	if req.Query == "" {
		response.Error(c, errcode.ErrInvalid, "query required")
		return
	}
	eval, err := h.evaluation.Evaluate(c.Request.Context(), service.EvaluateInput{
		Query:           req.Query,
		ExpectedDocIDs:  req.ExpectedDocIDs,
		RetrievedDocIDs: req.RetrievedDocIDs,
		SemanticScores:  req.SemanticScores,
		TopK:            req.TopK,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, eval)
}

type feedbackRequest struct {
	Query      string `json:"query"`
	DocumentID int64  `json:"document_id"`
	Feedback   string `json:"feedback"`
}

func (h *EvaluationHandler) Feedback(c *gin.Context) {
	var req feedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	fb, err := h.evaluation.RecordFeedback(c.Request.Context(), req.Query, req.DocumentID, req.Feedback)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, fb)
}

func (h *EvaluationHandler) History(c *gin.Context) {
	limit := 0
	if value := c.Query("limit"); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil || parsed <= 0 {
			response.Error(c, errcode.ErrInvalid, "invalid limit")
			return
		}
		limit = parsed
	}
	evals, err := h.evaluation.History(c.Request.Context(), limit)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"evaluations": evals, "total": len(evals)})
}

func (h *EvaluationHandler) Metrics(c *gin.Context) {
	windowDays := 30
	if value := c.Query("window_days"); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil || parsed <= 0 {
			response.Error(c, errcode.ErrInvalid, "invalid window_days")
			return
		}
		windowDays = parsed
	}
	metrics, err := h.evaluation.Metrics(c.Request.Context(), windowDays)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, metrics)
}
