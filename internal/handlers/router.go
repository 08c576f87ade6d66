package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/scoring-service/internal/services"
	"github.com/SAP-F-2025/scoring-service/internal/utils"
)

type HandlerManager struct {
	attemptHandler *AttemptHandler
	gradingHandler *GradingHandler
}

func NewHandlerManager(
	attemptService services.AttemptService,
	gradingService services.GradingService,
	exportService services.ResultExportService,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		attemptHandler: NewAttemptHandler(attemptService, logger),
		gradingHandler: NewGradingHandler(gradingService, exportService, logger),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "scoring-service",
		})
	})

	v1 := router.Group("/api/v1")
	{
		attempts := v1.Group("/attempts")
		{
			attempts.POST("", hm.attemptHandler.Start)
			attempts.GET("/:id", hm.attemptHandler.Get)
			attempts.PUT("/:id/answers", hm.attemptHandler.SaveAnswer)
			attempts.POST("/:id/submit", hm.attemptHandler.Submit)
			attempts.GET("/:id/result", hm.gradingHandler.GetResult)
		}

		grading := v1.Group("/grading")
		{
			grading.POST("/attempts/:attempt_id", hm.gradingHandler.GradeAttempt)
		}

		exams := v1.Group("/exams")
		{
			exams.GET("/:id/results/export", hm.gradingHandler.ExportExamResults)
		}
	}
}
