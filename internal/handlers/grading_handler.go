package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/scoring-service/internal/services"
	"github.com/SAP-F-2025/scoring-service/internal/utils"
)

type GradingHandler struct {
	BaseHandler
	gradingService services.GradingService
	exportService  services.ResultExportService
}

func NewGradingHandler(
	gradingService services.GradingService,
	exportService services.ResultExportService,
	logger utils.Logger,
) *GradingHandler {
	return &GradingHandler{
		BaseHandler:    NewBaseHandler(logger),
		gradingService: gradingService,
		exportService:  exportService,
	}
}

// GradeAttempt grades a submitted attempt synchronously
// @Summary Grade attempt
// @Description Runs the scoring engine against a submitted attempt; also used to re-grade after a key correction
// @Tags grading
// @Produce json
// @Param attempt_id path uint true "Attempt ID"
// @Success 200 {object} SuccessResponse{data=models.AttemptSummary}
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /grading/attempts/{attempt_id} [post]
func (h *GradingHandler) GradeAttempt(c *gin.Context) {
	attemptID, ok := parseIDParam(c, "attempt_id")
	if !ok {
		return
	}

	h.LogRequest(c, "Grading attempt", "attempt_id", attemptID)

	summary, err := h.gradingService.GradeAttempt(c.Request.Context(), attemptID)
	if err != nil {
		h.RespondWithServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "Attempt graded", summary)
}

// GetResult returns the aggregated result of a graded attempt
// @Summary Get attempt result
// @Tags grading
// @Produce json
// @Param id path uint true "Attempt ID"
// @Success 200 {object} SuccessResponse{data=services.AttemptResultResponse}
// @Failure 202 {object} ErrorResponse "grading still in progress"
// @Failure 404 {object} ErrorResponse
// @Router /attempts/{id}/result [get]
func (h *GradingHandler) GetResult(c *gin.Context) {
	attemptID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	result, err := h.gradingService.GetResult(c.Request.Context(), attemptID, studentIDFrom(c))
	if err != nil {
		h.RespondWithServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "Result retrieved", result)
}

// ExportExamResults streams an xlsx workbook of every graded attempt
// @Summary Export exam results
// @Tags grading
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path uint true "Exam ID"
// @Success 200 {file} binary
// @Failure 404 {object} ErrorResponse
// @Router /exams/{id}/results/export [get]
func (h *GradingHandler) ExportExamResults(c *gin.Context) {
	examID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	h.LogRequest(c, "Exporting exam results", "exam_id", examID)

	data, filename, err := h.exportService.ExportExamResults(c.Request.Context(), examID)
	if err != nil {
		h.RespondWithServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
