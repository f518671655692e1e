package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-essay/internal/model"
	"github.com/stemsi/exstem-essay/internal/response"
	"github.com/stemsi/exstem-essay/internal/service"
	"github.com/stemsi/exstem-essay/internal/validator"
)

type timeExtensionService interface {
	Set(ctx context.Context, taskID, writerID, extraSeconds int64) (*model.TimeExtension, error)
	Delete(ctx context.Context, taskID, writerID int64) error
	ListByTask(ctx context.Context, taskID int64) ([]model.TimeExtension, error)
}

// TimeExtensionHandler grants and revokes extra writing time.
type TimeExtensionHandler struct {
	extensionService timeExtensionService
	log              zerolog.Logger
}

// NewTimeExtensionHandler creates a new TimeExtensionHandler.
func NewTimeExtensionHandler(extensionService timeExtensionService, log zerolog.Logger) *TimeExtensionHandler {
	return &TimeExtensionHandler{
		extensionService: extensionService,
		log:              log.With().Str("component", "time_extension_handler").Logger(),
	}
}

// List godoc
// GET /api/v1/admin/tasks/:task_id/time-extensions
func (h *TimeExtensionHandler) List(c *gin.Context) {
	taskID, ok := int64Param(c, "task_id")
	if !ok {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	exts, err := h.extensionService.ListByTask(c.Request.Context(), taskID)
	if err != nil {
		h.fail(c, err)
		return
	}
	if exts == nil {
		exts = []model.TimeExtension{}
	}
	response.Success(c, http.StatusOK, gin.H{"time_extensions": exts})
}

// Put godoc
// PUT /api/v1/admin/tasks/:task_id/time-extensions/:writer_id
func (h *TimeExtensionHandler) Put(c *gin.Context) {
	taskID, ok := int64Param(c, "task_id")
	if !ok {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}
	writerID, ok := int64Param(c, "writer_id")
	if !ok {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.TimeExtensionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	ext, err := h.extensionService.Set(c.Request.Context(), taskID, writerID, *req.ExtraSeconds)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"time_extension": ext})
}

// Delete godoc
// DELETE /api/v1/admin/tasks/:task_id/time-extensions/:writer_id
func (h *TimeExtensionHandler) Delete(c *gin.Context) {
	taskID, ok := int64Param(c, "task_id")
	if !ok {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}
	writerID, ok := int64Param(c, "writer_id")
	if !ok {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.extensionService.Delete(c.Request.Context(), taskID, writerID); err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "time extension removed successfully"})
}

func (h *TimeExtensionHandler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidExtension):
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{"extra_seconds": err.Error()})
	case errors.Is(err, service.ErrWriterNotFound), errors.Is(err, service.ErrExtensionNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	default:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("time extension request failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
