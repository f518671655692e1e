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

type gradeLevelService interface {
	List(ctx context.Context, taskID int64) ([]model.GradeLevel, []model.Conflict, error)
	Validate(ctx context.Context, taskID int64) ([]model.Conflict, error)
	Create(ctx context.Context, taskID int64, req model.GradeLevelRequest) (*model.GradeLevel, []model.Conflict, error)
	Update(ctx context.Context, taskID, id int64, req model.GradeLevelRequest) (*model.GradeLevel, []model.Conflict, error)
	Delete(ctx context.Context, taskID, id int64) ([]model.Conflict, error)
}

// GradeLevelHandler manages the grade level ladder of a task.
type GradeLevelHandler struct {
	gradeLevelService gradeLevelService
	log               zerolog.Logger
}

// NewGradeLevelHandler creates a new GradeLevelHandler.
func NewGradeLevelHandler(gradeLevelService gradeLevelService, log zerolog.Logger) *GradeLevelHandler {
	return &GradeLevelHandler{
		gradeLevelService: gradeLevelService,
		log:               log.With().Str("component", "grade_level_handler").Logger(),
	}
}

// List godoc
// GET /api/v1/admin/tasks/:task_id/grade-levels
func (h *GradeLevelHandler) List(c *gin.Context) {
	taskID, ok := int64Param(c, "task_id")
	if !ok {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	levels, conflicts, err := h.gradeLevelService.List(c.Request.Context(), taskID)
	if err != nil {
		h.fail(c, err)
		return
	}
	if levels == nil {
		levels = []model.GradeLevel{}
	}
	response.SuccessWithWarnings(c, http.StatusOK, gin.H{"grade_levels": levels}, conflicts)
}

// Conflicts godoc
// GET /api/v1/admin/tasks/:task_id/grade-levels/conflicts
func (h *GradeLevelHandler) Conflicts(c *gin.Context) {
	taskID, ok := int64Param(c, "task_id")
	if !ok {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	conflicts, err := h.gradeLevelService.Validate(c.Request.Context(), taskID)
	if err != nil {
		h.fail(c, err)
		return
	}
	if conflicts == nil {
		conflicts = []model.Conflict{}
	}
	response.Success(c, http.StatusOK, gin.H{"conflicts": conflicts})
}

// Create godoc
// POST /api/v1/admin/tasks/:task_id/grade-levels
func (h *GradeLevelHandler) Create(c *gin.Context) {
	taskID, ok := int64Param(c, "task_id")
	if !ok {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.GradeLevelRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	lvl, conflicts, err := h.gradeLevelService.Create(c.Request.Context(), taskID, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.SuccessWithWarnings(c, http.StatusCreated, gin.H{"grade_level": lvl}, conflicts)
}

// Update godoc
// PUT /api/v1/admin/tasks/:task_id/grade-levels/:id
func (h *GradeLevelHandler) Update(c *gin.Context) {
	taskID, ok := int64Param(c, "task_id")
	if !ok {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}
	id, ok := int64Param(c, "id")
	if !ok {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.GradeLevelRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	lvl, conflicts, err := h.gradeLevelService.Update(c.Request.Context(), taskID, id, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.SuccessWithWarnings(c, http.StatusOK, gin.H{"grade_level": lvl}, conflicts)
}

// Delete godoc
// DELETE /api/v1/admin/tasks/:task_id/grade-levels/:id
func (h *GradeLevelHandler) Delete(c *gin.Context) {
	taskID, ok := int64Param(c, "task_id")
	if !ok {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}
	id, ok := int64Param(c, "id")
	if !ok {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	conflicts, err := h.gradeLevelService.Delete(c.Request.Context(), taskID, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.SuccessWithWarnings(c, http.StatusOK, gin.H{"message": "grade level deleted successfully"}, conflicts)
}

func (h *GradeLevelHandler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidPoints):
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{"min_points": err.Error()})
	case errors.Is(err, service.ErrGradeLevelNotFound), errors.Is(err, service.ErrTaskNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrGradeLevelsLocked):
		response.Fail(c, http.StatusConflict, response.ErrGradeLevelsLocked)
	case errors.Is(err, service.ErrDuplicateThreshold):
		response.Fail(c, http.StatusConflict, response.ErrDuplicateThreshold)
	case errors.Is(err, service.ErrGradeLevelDeleteClosed):
		response.Fail(c, http.StatusConflict, response.ErrGradeLevelDeleteClosed)
	default:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("grade level request failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
