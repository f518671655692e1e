package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-essay/internal/lifecycle"
	"github.com/stemsi/exstem-essay/internal/middleware"
	"github.com/stemsi/exstem-essay/internal/model"
	"github.com/stemsi/exstem-essay/internal/response"
	"github.com/stemsi/exstem-essay/internal/service"
	"github.com/stemsi/exstem-essay/internal/validator"
)

type taskService interface {
	GetSettings(ctx context.Context, taskID int64) (*model.TaskSettings, []model.Conflict, error)
	UpdateSettings(ctx context.Context, taskID int64, req model.UpdateTaskSettingsRequest) (*model.TaskSettings, []model.Conflict, error)
	GetWriterPhase(ctx context.Context, taskID, userID int64, now time.Time) (*lifecycle.PhaseState, error)
}

// TaskHandler serves task settings to admins and phase states to writers.
type TaskHandler struct {
	taskService taskService
	now         func() time.Time
	log         zerolog.Logger
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(taskService taskService, log zerolog.Logger) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		now:         time.Now,
		log:         log.With().Str("component", "task_handler").Logger(),
	}
}

// GetSettings godoc
// GET /api/v1/admin/tasks/:task_id/settings
func (h *TaskHandler) GetSettings(c *gin.Context) {
	taskID, ok := int64Param(c, "task_id")
	if !ok {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	settings, conflicts, err := h.taskService.GetSettings(c.Request.Context(), taskID)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.SuccessWithWarnings(c, http.StatusOK, gin.H{"settings": settings}, conflicts)
}

// UpdateSettings godoc
// PUT /api/v1/admin/tasks/:task_id/settings
// Inconsistent windows are saved and reported as warnings.
func (h *TaskHandler) UpdateSettings(c *gin.Context) {
	taskID, ok := int64Param(c, "task_id")
	if !ok {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.UpdateTaskSettingsRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	settings, conflicts, err := h.taskService.UpdateSettings(c.Request.Context(), taskID, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.SuccessWithWarnings(c, http.StatusOK, gin.H{"settings": settings}, conflicts)
}

// GetWriterPhase godoc
// GET /api/v1/writer/tasks/:task_id/phase
func (h *TaskHandler) GetWriterPhase(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	taskID, ok := int64Param(c, "task_id")
	if !ok {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	state, err := h.taskService.GetWriterPhase(c.Request.Context(), taskID, claims.UserID, h.now())
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, state)
}

func (h *TaskHandler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrTaskNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrNotEnrolled):
		response.Fail(c, http.StatusForbidden, response.ErrNotEnrolled)
	default:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("task request failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
