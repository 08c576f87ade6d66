package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/scoring-service/internal/services"
	"github.com/SAP-F-2025/scoring-service/internal/utils"
)

type AttemptHandler struct {
	BaseHandler
	attemptService services.AttemptService
}

func NewAttemptHandler(
	attemptService services.AttemptService,
	logger utils.Logger,
) *AttemptHandler {
	return &AttemptHandler{
		BaseHandler:    NewBaseHandler(logger),
		attemptService: attemptService,
	}
}

// Start begins a new exam attempt
// @Summary Start attempt
// @Description Assembles a question paper and starts a new attempt
// @Tags attempts
// @Accept json
// @Produce json
// @Param attempt body services.StartAttemptRequest true "Attempt data"
// @Success 201 {object} SuccessResponse{data=services.AttemptResponse}
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /attempts [post]
func (h *AttemptHandler) Start(c *gin.Context) {
	var req services.StartAttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}
	if req.StudentID == "" {
		req.StudentID = studentIDFrom(c)
	}

	h.LogRequest(c, "Starting attempt", "exam_id", req.ExamID, "student_id", req.StudentID)

	attempt, err := h.attemptService.Start(c.Request.Context(), &req)
	if err != nil {
		h.RespondWithServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusCreated, "Attempt started", attempt)
}

// Get returns the attempt and its question paper
// @Summary Get attempt
// @Tags attempts
// @Produce json
// @Param id path uint true "Attempt ID"
// @Success 200 {object} SuccessResponse{data=services.AttemptResponse}
// @Failure 404 {object} ErrorResponse
// @Router /attempts/{id} [get]
func (h *AttemptHandler) Get(c *gin.Context) {
	attemptID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	attempt, err := h.attemptService.GetByID(c.Request.Context(), attemptID, studentIDFrom(c))
	if err != nil {
		h.RespondWithServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "Attempt retrieved", attempt)
}

// SaveAnswer stores or replaces the answer to one question
// @Summary Save answer
// @Tags attempts
// @Accept json
// @Produce json
// @Param id path uint true "Attempt ID"
// @Param answer body services.SaveAnswerRequest true "Answer payload"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /attempts/{id}/answers [put]
func (h *AttemptHandler) SaveAnswer(c *gin.Context) {
	attemptID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.SaveAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	if err := h.attemptService.SaveAnswer(c.Request.Context(), attemptID, studentIDFrom(c), &req); err != nil {
		h.RespondWithServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "Answer saved", nil)
}

// Submit closes the attempt and queues it for grading
// @Summary Submit attempt
// @Tags attempts
// @Produce json
// @Param id path uint true "Attempt ID"
// @Success 200 {object} SuccessResponse{data=services.SubmitResponse}
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /attempts/{id}/submit [post]
func (h *AttemptHandler) Submit(c *gin.Context) {
	attemptID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	h.LogRequest(c, "Submitting attempt", "attempt_id", attemptID)

	result, err := h.attemptService.Submit(c.Request.Context(), attemptID, studentIDFrom(c))
	if err != nil {
		h.RespondWithServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "Attempt submitted", result)
}
