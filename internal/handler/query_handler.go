package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/whalekb/whalekb/internal/pkg/errcode"
	"github.com/whalekb/whalekb/internal/pkg/response"
	"github.com/whalekb/whalekb/internal/service"
)

type QueryHandler struct {
	retrieval *service.RetrievalService
}

func NewQueryHandler(retrieval *service.RetrievalService) *QueryHandler {
	return &QueryHandler{retrieval: retrieval}
}

type queryRequest struct {
	Query      string            `json:"query"`
	TopK       int               `json:"top_k"`
	MinScore   *float64          `json:"min_score"`
	DocumentID int64             `json:"document_id"`
	Filters    map[string]string `json:"filters"`
}

func (h *QueryHandler) Query(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	if req.Query == "" {
		response.Error(c, errcode.ErrInvalid, "query required")
		return
	}
	if req.MinScore != nil && (*req.MinScore < 0 || *req.MinScore > 1) {
		response.Error(c, errcode.ErrInvalid, "min_score must be within [0, 1]")
		return
	}
	resp, err := h.retrieval.Query(c.Request.Context(), service.QueryInput{
		Query:      req.Query,
		TopK:       req.TopK,
		MinScore:   req.MinScore,
		DocumentID: req.DocumentID,
		Filters:    req.Filters,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, resp)
}
