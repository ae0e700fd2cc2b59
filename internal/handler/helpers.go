package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/whalekb/whalekb/internal/pkg/errcode"
	appErr "github.com/whalekb/whalekb/internal/pkg/errors"
	"github.com/whalekb/whalekb/internal/pkg/response"
)

func parseID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, errcode.ErrInvalid, "invalid "+name)
		return 0, false
	}
	return id, true
}

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	logutil.GetLogger(c.Request.Context()).Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	var backendErr *appErr.BackendError
	var queryErr *appErr.QueryError
	switch {
	case errors.Is(err, appErr.ErrUnauthorized):
		response.Error(c, errcode.ErrUnauthorized, "unauthorized")
	case errors.Is(err, appErr.ErrNotFound):
		response.Error(c, errcode.ErrNotFound, "not found")
	case errors.Is(err, appErr.ErrInvalidInput):
		response.Error(c, errcode.ErrInvalid, "invalid request")
	case errors.Is(err, appErr.ErrConflict):
		response.Error(c, errcode.ErrConflict, "conflict")
	case errors.Is(err, appErr.ErrInvalidConfiguration):
		response.Error(c, errcode.ErrInvalidConfiguration, err.Error())
	case errors.Is(err, appErr.ErrDimensionMismatch):
		response.Error(c, errcode.ErrDimensionMismatch, err.Error())
	case errors.As(err, &backendErr):
		response.Error(c, errcode.ErrEmbeddingBackend, backendErr.Error())
	case errors.As(err, &queryErr):
		response.Error(c, errcode.ErrRetrieval, queryErr.Error())
	default:
		response.Error(c, errcode.ErrInternal, "internal error")
	}
}
