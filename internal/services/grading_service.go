package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/scoring-service/internal/cache"
	"github.com/SAP-F-2025/scoring-service/internal/events"
	"github.com/SAP-F-2025/scoring-service/internal/models"
	"github.com/SAP-F-2025/scoring-service/internal/repositories"
	"github.com/SAP-F-2025/scoring-service/internal/scoring"
)

const resultCacheTTL = 15 * time.Minute

// GradingService grades submitted attempts and serves their results.
// Grading an attempt twice with the same responses yields the same
// marks; a re-grade replaces the previous result atomically.
type GradingService interface {
	GradeAttempt(ctx context.Context, attemptID uint) (*models.AttemptSummary, error)
	GetResult(ctx context.Context, attemptID uint, studentID string) (*AttemptResultResponse, error)
}

// ===== RESPONSE TYPES =====

type QuestionResultView struct {
	QuestionID   uint                      `json:"question_id"`
	QuestionType models.QuestionType       `json:"question_type"`
	Difficulty   models.DifficultyLevel    `json:"difficulty"`
	Answered     bool                      `json:"answered"`
	IsCorrect    bool                      `json:"is_correct"`
	Marks        float64                   `json:"marks"`
	MaxMarks     float64                   `json:"max_marks"`
	Feedback     string                    `json:"feedback,omitempty"`
	Subscores    *models.FreeTextSubscores `json:"subscores,omitempty"`
}

type AttemptResultResponse struct {
	AttemptID      uint                                               `json:"attempt_id"`
	ExamID         uint                                               `json:"exam_id"`
	StudentID      string                                             `json:"student_id"`
	TotalQuestions int                                                `json:"total_questions"`
	Correct        int                                                `json:"correct"`
	Wrong          int                                                `json:"wrong"`
	Unanswered     int                                                `json:"unanswered"`
	MarksObtained  float64                                            `json:"marks_obtained"`
	MaxMarks       float64                                            `json:"max_marks"`
	Percentage     float64                                            `json:"percentage"`
	Passed         bool                                               `json:"passed"`
	Grade          string                                             `json:"grade"`
	ByDifficulty   map[models.DifficultyLevel]models.DifficultyBucket `json:"by_difficulty"`
	Timing         models.TimingStats                                 `json:"timing"`
	GradedAt       time.Time                                          `json:"graded_at"`
	Questions      []QuestionResultView                               `json:"questions"`
}

// ===== IMPLEMENTATION =====

type gradingService struct {
	repo       repositories.Repository
	engine     *scoring.Engine
	aggregator *scoring.Aggregator
	cache      cache.CacheService
	publisher  events.EventPublisher
	logger     *slog.Logger
}

func NewGradingService(
	repo repositories.Repository,
	engine *scoring.Engine,
	cache cache.CacheService,
	publisher events.EventPublisher,
	logger *slog.Logger,
) GradingService {
	return &gradingService{
		repo:       repo,
		engine:     engine,
		aggregator: scoring.NewAggregator(engine.Config()),
		cache:      cache,
		publisher:  publisher,
		logger:     logger,
	}
}

func (s *gradingService) GradeAttempt(ctx context.Context, attemptID uint) (*models.AttemptSummary, error) {
	s.logger.Info("Grading attempt", "attempt_id", attemptID)

	attempt, err := s.repo.Attempt().GetByIDWithResponses(ctx, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}

	switch attempt.Status {
	case models.AttemptSubmitted, models.AttemptCompleted, models.AttemptExpired:
		// Completed attempts may be re-graded after a key correction.
	case models.AttemptGrading:
		return nil, ErrGradingInProgress
	default:
		return nil, ErrAttemptNotSubmitted
	}

	if err := s.repo.Attempt().UpdateStatus(ctx, attemptID, models.AttemptGrading); err != nil {
		return nil, fmt.Errorf("failed to mark attempt grading: %w", err)
	}
	// Whatever happens below, never leave the attempt stuck in GRADING.
	defer func() {
		if err != nil {
			if revertErr := s.repo.Attempt().UpdateStatus(context.WithoutCancel(ctx), attemptID, models.AttemptSubmitted); revertErr != nil {
				s.logger.Error("Failed to revert attempt status",
					"attempt_id", attemptID, "error", revertErr)
			}
		}
	}()

	paper, err := s.repo.Question().GetByIDsWithOptions(ctx, attempt.QuestionIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load attempt questions: %w", err)
	}
	if len(paper) != len(attempt.QuestionIDs) {
		err = NewBusinessRuleError("missing_questions",
			"attempt references questions that no longer exist",
			map[string]interface{}{"attempt_id": attemptID})
		return nil, err
	}

	scores, err := s.engine.ScoreAttempt(ctx, attemptID, paper, attempt.Responses)
	if err != nil {
		return nil, fmt.Errorf("failed to score attempt: %w", err)
	}

	exam := attempt.Exam
	passPercentage := 0.0
	durationMinutes := 0
	if exam != nil {
		passPercentage = exam.PassPercentage
		durationMinutes = exam.DurationMinutes
	}

	gradedAt := time.Now()
	summary, err := s.aggregator.Aggregate(attemptID, attempt.ExamID, scores, passPercentage, durationMinutes, gradedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate result: %w", err)
	}

	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if err := tx.Result().ReplaceScores(ctx, attemptID, scores); err != nil {
			return fmt.Errorf("failed to store scores: %w", err)
		}
		if err := tx.Result().SaveSummary(ctx, &summary); err != nil {
			return fmt.Errorf("failed to store summary: %w", err)
		}
		attempt.Status = models.AttemptCompleted
		attempt.GradedAt = &gradedAt
		if err := tx.Attempt().Update(ctx, attempt); err != nil {
			return fmt.Errorf("failed to complete attempt: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if cacheErr := s.cache.Set(ctx, cache.ResultKey(attemptID), summary, resultCacheTTL); cacheErr != nil {
		s.logger.Warn("Failed to cache result", "attempt_id", attemptID, "error", cacheErr)
	}
	// The paper is no longer served once the attempt is graded.
	if cacheErr := s.cache.Delete(ctx, cache.PaperKey(attemptID)); cacheErr != nil {
		s.logger.Warn("Failed to drop cached paper", "attempt_id", attemptID, "error", cacheErr)
	}

	s.publishGraded(ctx, attempt, &summary)

	s.logger.Info("Attempt graded",
		"attempt_id", attemptID,
		"percentage", summary.Percentage,
		"grade", summary.Grade,
		"passed", summary.Passed)

	return &summary, nil
}

func (s *gradingService) GetResult(ctx context.Context, attemptID uint, studentID string) (*AttemptResultResponse, error) {
	attempt, err := s.repo.Attempt().GetByID(ctx, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}
	if studentID != "" && attempt.StudentID != studentID {
		return nil, ErrAttemptNotFound
	}
	switch attempt.Status {
	case models.AttemptCompleted, models.AttemptExpired:
	case models.AttemptSubmitted, models.AttemptGrading:
		return nil, ErrResultNotReady
	default:
		return nil, ErrResultNotFound
	}

	var summary models.AttemptSummary
	if err := s.cache.Get(ctx, cache.ResultKey(attemptID), &summary); err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("Result cache read failed", "attempt_id", attemptID, "error", err)
		}
		stored, err := s.repo.Result().GetSummaryByAttempt(ctx, attemptID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return nil, ErrResultNotFound
			}
			return nil, fmt.Errorf("failed to get summary: %w", err)
		}
		summary = *stored
	}

	scores, err := s.repo.Result().GetScoresByAttempt(ctx, attemptID)
	if err != nil {
		return nil, fmt.Errorf("failed to get scores: %w", err)
	}

	return buildResultResponse(attempt, &summary, scores), nil
}

func (s *gradingService) publishGraded(ctx context.Context, attempt *models.ExamAttempt, summary *models.AttemptSummary) {
	graded := events.NewScoringEvent(events.EventAttemptGraded, events.AttemptGradedEvent{
		AttemptID:     attempt.ID,
		ExamID:        attempt.ExamID,
		StudentID:     attempt.StudentID,
		GradedAt:      summary.GradedAt,
		MarksObtained: summary.MarksObtained,
		MaxMarks:      summary.MaxMarks,
		Percentage:    summary.Percentage,
		Passed:        summary.Passed,
		Grade:         summary.Grade,
	})
	if err := s.publisher.PublishScoringEvent(ctx, graded); err != nil {
		s.logger.Error("Failed to publish attempt.graded", "attempt_id", attempt.ID, "error", err)
	}

	recorded := events.NewScoringEvent(events.EventResultRecorded, events.ResultRecordedEvent{
		AttemptID:      attempt.ID,
		ExamID:         attempt.ExamID,
		StudentID:      attempt.StudentID,
		TotalQuestions: summary.TotalQuestions,
		Correct:        summary.Correct,
		Wrong:          summary.Wrong,
		Unanswered:     summary.Unanswered,
		Percentage:     summary.Percentage,
		Grade:          summary.Grade,
		ByDifficulty:   summary.ByDifficulty.Data(),
	})
	if err := s.publisher.PublishScoringEvent(ctx, recorded); err != nil {
		s.logger.Error("Failed to publish attempt.result_recorded", "attempt_id", attempt.ID, "error", err)
	}

	if summary.Passed {
		eligible := events.NewScoringEvent(events.EventCertificateEligible, events.CertificateEligibleEvent{
			AttemptID:  attempt.ID,
			ExamID:     attempt.ExamID,
			StudentID:  attempt.StudentID,
			Percentage: summary.Percentage,
			Grade:      summary.Grade,
		})
		if err := s.publisher.PublishScoringEvent(ctx, eligible); err != nil {
			s.logger.Error("Failed to publish certificate.eligible", "attempt_id", attempt.ID, "error", err)
		}
	}
}

func buildResultResponse(attempt *models.ExamAttempt, summary *models.AttemptSummary, scores []models.ResponseScore) *AttemptResultResponse {
	resp := &AttemptResultResponse{
		AttemptID:      summary.AttemptID,
		ExamID:         summary.ExamID,
		StudentID:      attempt.StudentID,
		TotalQuestions: summary.TotalQuestions,
		Correct:        summary.Correct,
		Wrong:          summary.Wrong,
		Unanswered:     summary.Unanswered,
		MarksObtained:  summary.MarksObtained,
		MaxMarks:       summary.MaxMarks,
		Percentage:     summary.Percentage,
		Passed:         summary.Passed,
		Grade:          summary.Grade,
		ByDifficulty:   summary.ByDifficulty.Data(),
		Timing:         summary.Timing.Data(),
		GradedAt:       summary.GradedAt,
	}
	for _, sc := range scores {
		view := QuestionResultView{
			QuestionID:   sc.QuestionID,
			QuestionType: sc.QuestionType,
			Difficulty:   sc.Difficulty,
			Answered:     sc.Answered,
			IsCorrect:    sc.IsCorrect,
			Marks:        sc.Marks,
			MaxMarks:     sc.MaxMarks,
			Feedback:     sc.Feedback,
		}
		if sc.Subscores != nil {
			sub := sc.Subscores.Data()
			view.Subscores = &sub
		}
		resp.Questions = append(resp.Questions, view)
	}
	return resp
}
