package handler

import (
	"bytes"
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-essay/internal/response"
	"github.com/stemsi/exstem-essay/internal/service"
	"github.com/stemsi/exstem-essay/internal/validator"
)

const (
	contentTypeCSV  = "text/csv; charset=utf-8"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	defaultMinFinalized = 1
)

type statisticsService interface {
	TaskReport(ctx context.Context, filter service.StatisticsFilter) (*service.StatisticsReport, error)
}

type exportService interface {
	WriterStatisticsCSV(report *service.StatisticsReport) (*bytes.Buffer, string, error)
	WriterStatisticsXLSX(report *service.StatisticsReport) (*bytes.Buffer, string, error)
}

type statisticsQuery struct {
	TaskIDs      []int64 `form:"task_id" binding:"omitempty,dive,gt=0"`
	MinFinalized *int    `form:"min_finalized" binding:"omitempty,gte=0"`
	Format       string  `form:"format" binding:"omitempty,oneof=csv xlsx"`
}

func (q statisticsQuery) filter() service.StatisticsFilter {
	f := service.StatisticsFilter{TaskIDs: q.TaskIDs, MinFinalized: defaultMinFinalized}
	if q.MinFinalized != nil {
		f.MinFinalized = *q.MinFinalized
	}
	return f
}

// StatisticsHandler serves correction statistics and their file exports.
type StatisticsHandler struct {
	statisticsService statisticsService
	exportService     exportService
	log               zerolog.Logger
}

// NewStatisticsHandler creates a new StatisticsHandler.
func NewStatisticsHandler(statisticsService statisticsService, exportService exportService, log zerolog.Logger) *StatisticsHandler {
	return &StatisticsHandler{
		statisticsService: statisticsService,
		exportService:     exportService,
		log:               log.With().Str("component", "statistics_handler").Logger(),
	}
}

// Report godoc
// GET /api/v1/admin/statistics?task_id=1&task_id=2&min_finalized=1
// Without task_id every task is included.
func (h *StatisticsHandler) Report(c *gin.Context) {
	var q statisticsQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	report, err := h.statisticsService.TaskReport(c.Request.Context(), q.filter())
	if err != nil {
		h.fail(c, err)
		return
	}
	response.SuccessWithWarnings(c, http.StatusOK, report, report.Warnings)
}

// Export godoc
// GET /api/v1/admin/statistics/export?format=csv|xlsx
func (h *StatisticsHandler) Export(c *gin.Context) {
	var q statisticsQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	report, err := h.statisticsService.TaskReport(c.Request.Context(), q.filter())
	if err != nil {
		h.fail(c, err)
		return
	}

	var (
		buf         *bytes.Buffer
		filename    string
		contentType string
	)
	switch q.Format {
	case "", "csv":
		buf, filename, err = h.exportService.WriterStatisticsCSV(report)
		contentType = contentTypeCSV
	case "xlsx":
		buf, filename, err = h.exportService.WriterStatisticsXLSX(report)
		contentType = contentTypeXLSX
	default:
		response.Fail(c, http.StatusBadRequest, response.ErrUnsupportedFormat)
		return
	}
	if err != nil {
		h.fail(c, err)
		return
	}

	h.log.Info().
		Str("format", q.Format).
		Int("rows", len(report.Rows)).
		Msg("statistics exported")
	response.Attachment(c, contentType, filename, buf)
}

func (h *StatisticsHandler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNoTasks):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	default:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("statistics request failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
