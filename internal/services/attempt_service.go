package services

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"gorm.io/datatypes"

	"github.com/SAP-F-2025/scoring-service/internal/cache"
	"github.com/SAP-F-2025/scoring-service/internal/events"
	"github.com/SAP-F-2025/scoring-service/internal/models"
	"github.com/SAP-F-2025/scoring-service/internal/repositories"
	"github.com/SAP-F-2025/scoring-service/internal/scoring"
	"github.com/SAP-F-2025/scoring-service/internal/utils"
)

// AttemptService owns the attempt lifecycle: assembling a paper, storing
// answers while the attempt is open, and submitting it for grading.
type AttemptService interface {
	Start(ctx context.Context, req *StartAttemptRequest) (*AttemptResponse, error)
	GetByID(ctx context.Context, attemptID uint, studentID string) (*AttemptResponse, error)
	SaveAnswer(ctx context.Context, attemptID uint, studentID string, req *SaveAnswerRequest) error
	Submit(ctx context.Context, attemptID uint, studentID string) (*SubmitResponse, error)
}

// ===== REQUEST / RESPONSE TYPES =====

type StartAttemptRequest struct {
	ExamID    uint   `json:"exam_id" validate:"required"`
	StudentID string `json:"student_id" validate:"required"`
}

type SaveAnswerRequest struct {
	QuestionID uint           `json:"question_id" validate:"required"`
	AnswerData datatypes.JSON `json:"answer_data" validate:"required"`
	TimeSpent  int            `json:"time_spent" validate:"gte=0"`
}

type AttemptQuestionView struct {
	ID         uint                   `json:"id"`
	Type       models.QuestionType    `json:"type"`
	Text       string                 `json:"text"`
	Marks      float64                `json:"marks"`
	Options    []AttemptOptionView    `json:"options"`
	Difficulty models.DifficultyLevel `json:"difficulty"`
}

// AttemptOptionView is deliberately blind to the answer key.
type AttemptOptionView struct {
	ID   uint   `json:"id"`
	Text string `json:"text"`
}

type AttemptResponse struct {
	ID        uint                  `json:"id"`
	ExamID    uint                  `json:"exam_id"`
	StudentID string                `json:"student_id"`
	Status    models.AttemptStatus  `json:"status"`
	StartedAt time.Time             `json:"started_at"`
	Questions []AttemptQuestionView `json:"questions"`
}

type SubmitResponse struct {
	AttemptID   uint                 `json:"attempt_id"`
	Status      models.AttemptStatus `json:"status"`
	SubmittedAt time.Time            `json:"submitted_at"`
	Answered    int                  `json:"answered"`
}

// ===== IMPLEMENTATION =====

// paperCacheTTL outlives any reasonable exam duration; entries also fall
// out naturally once the attempt is graded and stops being read.
const paperCacheTTL = 6 * time.Hour

type attemptService struct {
	repo            repositories.Repository
	grading         GradingService
	cache           cache.CacheService
	publisher       events.EventPublisher
	logger          *slog.Logger
	validator       *utils.Validator
	answerValidator *utils.AnswerValidator
	rng             *rand.Rand
}

func NewAttemptService(
	repo repositories.Repository,
	grading GradingService,
	cacheService cache.CacheService,
	publisher events.EventPublisher,
	logger *slog.Logger,
	validator *utils.Validator,
	rng *rand.Rand,
) AttemptService {
	return &attemptService{
		repo:            repo,
		grading:         grading,
		cache:           cacheService,
		publisher:       publisher,
		logger:          logger,
		validator:       validator,
		answerValidator: utils.NewAnswerValidator(),
		rng:             rng,
	}
}

// ===== CORE ATTEMPT OPERATIONS =====

func (s *attemptService) Start(ctx context.Context, req *StartAttemptRequest) (*AttemptResponse, error) {
	s.logger.Info("Starting exam attempt",
		"exam_id", req.ExamID,
		"student_id", req.StudentID)

	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	exam, err := s.repo.Exam().GetByID(ctx, req.ExamID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("failed to get exam: %w", err)
	}
	if exam.Status != models.ExamPublished {
		return nil, ErrExamNotPublished
	}

	if exam.MaxAttempts > 0 {
		used, err := s.repo.Attempt().CountByStudentAndExam(ctx, req.StudentID, exam.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to count attempts: %w", err)
		}
		if used >= exam.MaxAttempts {
			return nil, ErrAttemptLimitExceeded
		}
	}

	active, err := s.repo.Attempt().HasActiveAttempt(ctx, req.StudentID, exam.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check active attempt: %w", err)
	}
	if active {
		return nil, ErrAttemptAlreadyActive
	}

	paper, err := s.assemblePaper(ctx, exam)
	if err != nil {
		return nil, err
	}

	attempt := &models.ExamAttempt{
		ExamID:      exam.ID,
		StudentID:   req.StudentID,
		Status:      models.AttemptInProgress,
		StartedAt:   time.Now(),
		QuestionIDs: questionIDs(paper),
	}
	if err := s.repo.Attempt().Create(ctx, attempt); err != nil {
		return nil, fmt.Errorf("failed to create attempt: %w", err)
	}

	views := questionViews(paper)
	s.cachePaper(ctx, attempt.ID, views)
	s.publishStarted(ctx, attempt, exam, len(paper))

	s.logger.Info("Exam attempt started",
		"attempt_id", attempt.ID,
		"exam_id", exam.ID,
		"question_count", len(paper))

	return buildAttemptResponse(attempt, views), nil
}

func (s *attemptService) GetByID(ctx context.Context, attemptID uint, studentID string) (*AttemptResponse, error) {
	attempt, err := s.getOwnedAttempt(ctx, attemptID, studentID)
	if err != nil {
		return nil, err
	}

	var views []AttemptQuestionView
	if err := s.cache.Get(ctx, cache.PaperKey(attemptID), &views); err == nil {
		return buildAttemptResponse(attempt, views), nil
	}

	paper, err := s.repo.Question().GetByIDsWithOptions(ctx, attempt.QuestionIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load attempt questions: %w", err)
	}
	views = questionViews(orderPaper(attempt.QuestionIDs, paper))
	s.cachePaper(ctx, attemptID, views)
	return buildAttemptResponse(attempt, views), nil
}

func (s *attemptService) SaveAnswer(ctx context.Context, attemptID uint, studentID string, req *SaveAnswerRequest) error {
	if err := s.validator.Validate(req); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	attempt, err := s.getOwnedAttempt(ctx, attemptID, studentID)
	if err != nil {
		return err
	}
	if !attempt.CanSubmit() {
		return ErrAttemptNotActive
	}
	if !containsID(attempt.QuestionIDs, req.QuestionID) {
		return ErrQuestionNotFound
	}

	question, err := s.repo.Question().GetByID(ctx, req.QuestionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrQuestionNotFound
		}
		return fmt.Errorf("failed to get question: %w", err)
	}
	if err := s.answerValidator.ValidatePayload(question.Type, req.AnswerData); err != nil {
		return fmt.Errorf("%w: %s", ErrValidationFailed, err)
	}

	response := &models.StudentResponse{
		AttemptID:  attemptID,
		QuestionID: req.QuestionID,
		AnswerData: req.AnswerData,
		TimeSpent:  req.TimeSpent,
	}
	if err := s.repo.Response().Upsert(ctx, response); err != nil {
		return fmt.Errorf("failed to save answer: %w", err)
	}
	return nil
}

func (s *attemptService) Submit(ctx context.Context, attemptID uint, studentID string) (*SubmitResponse, error) {
	attempt, err := s.getOwnedAttempt(ctx, attemptID, studentID)
	if err != nil {
		return nil, err
	}
	switch attempt.Status {
	case models.AttemptInProgress:
	case models.AttemptSubmitted, models.AttemptGrading, models.AttemptCompleted:
		return nil, ErrAttemptAlreadySubmitted
	default:
		return nil, ErrAttemptNotActive
	}

	responses, err := s.repo.Response().GetByAttempt(ctx, attemptID)
	if err != nil {
		return nil, fmt.Errorf("failed to load responses: %w", err)
	}

	now := time.Now()
	attempt.Status = models.AttemptSubmitted
	attempt.SubmittedAt = &now
	attempt.TimeSpent = int(now.Sub(attempt.StartedAt).Seconds())
	if err := s.repo.Attempt().Update(ctx, attempt); err != nil {
		return nil, fmt.Errorf("failed to submit attempt: %w", err)
	}

	answered := 0
	for i := range responses {
		if responses[i].IsAnswered() {
			answered++
		}
	}

	s.publishSubmitted(ctx, attempt, answered)

	// Grade asynchronously; the result endpoint reports readiness.
	go func() {
		gradeCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if _, err := s.grading.GradeAttempt(gradeCtx, attempt.ID); err != nil {
			s.logger.Error("Background grading failed",
				"attempt_id", attempt.ID,
				"error", err)
		}
	}()

	return &SubmitResponse{
		AttemptID:   attempt.ID,
		Status:      attempt.Status,
		SubmittedAt: now,
		Answered:    answered,
	}, nil
}

// ===== HELPERS =====

func (s *attemptService) assemblePaper(ctx context.Context, exam *models.Exam) ([]models.Question, error) {
	counts := exam.QuestionCounts.Data()
	if counts.Total() == 0 {
		return nil, ErrExamMisconfigured
	}
	bank, err := s.repo.Question().GetActiveBank(ctx, exam.CategoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to load question bank: %w", err)
	}
	paper, err := scoring.NewSelector(s.rng).Select(bank, counts)
	if err != nil {
		if scoring.IsInsufficientQuestions(err) {
			return nil, NewBusinessRuleError("insufficient_questions", err.Error(),
				map[string]interface{}{"exam_id": exam.ID})
		}
		return nil, fmt.Errorf("failed to select questions: %w", err)
	}
	return paper, nil
}

func (s *attemptService) getOwnedAttempt(ctx context.Context, attemptID uint, studentID string) (*models.ExamAttempt, error) {
	attempt, err := s.repo.Attempt().GetByID(ctx, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}
	if attempt.StudentID != studentID {
		return nil, ErrAttemptNotFound
	}
	return attempt, nil
}

func (s *attemptService) publishStarted(ctx context.Context, attempt *models.ExamAttempt, exam *models.Exam, questionCount int) {
	event := events.NewScoringEvent(events.EventAttemptStarted, events.AttemptStartedEvent{
		AttemptID:     attempt.ID,
		ExamID:        exam.ID,
		ExamTitle:     exam.Title,
		StudentID:     attempt.StudentID,
		StartedAt:     attempt.StartedAt,
		QuestionCount: questionCount,
	})
	if err := s.publisher.PublishScoringEvent(ctx, event); err != nil {
		s.logger.Error("Failed to publish attempt.started", "attempt_id", attempt.ID, "error", err)
	}
}

func (s *attemptService) publishSubmitted(ctx context.Context, attempt *models.ExamAttempt, answered int) {
	event := events.NewScoringEvent(events.EventAttemptSubmitted, events.AttemptSubmittedEvent{
		AttemptID:   attempt.ID,
		ExamID:      attempt.ExamID,
		StudentID:   attempt.StudentID,
		SubmittedAt: *attempt.SubmittedAt,
		Answered:    answered,
	})
	if err := s.publisher.PublishScoringEvent(ctx, event); err != nil {
		s.logger.Error("Failed to publish attempt.submitted", "attempt_id", attempt.ID, "error", err)
	}
}

func (s *attemptService) cachePaper(ctx context.Context, attemptID uint, views []AttemptQuestionView) {
	if err := s.cache.Set(ctx, cache.PaperKey(attemptID), views, paperCacheTTL); err != nil {
		s.logger.Warn("Failed to cache attempt paper", "attempt_id", attemptID, "error", err)
	}
}

func questionViews(paper []models.Question) []AttemptQuestionView {
	views := make([]AttemptQuestionView, 0, len(paper))
	for _, q := range paper {
		view := AttemptQuestionView{
			ID:         q.ID,
			Type:       q.Type,
			Text:       q.Text,
			Marks:      q.Marks,
			Difficulty: q.Difficulty,
		}
		// Free-text questions expose no options; the key stays hidden.
		if !q.Type.IsFreeText() {
			for _, o := range q.Options {
				view.Options = append(view.Options, AttemptOptionView{ID: o.ID, Text: o.Text})
			}
		}
		views = append(views, view)
	}
	return views
}

func buildAttemptResponse(attempt *models.ExamAttempt, views []AttemptQuestionView) *AttemptResponse {
	return &AttemptResponse{
		ID:        attempt.ID,
		ExamID:    attempt.ExamID,
		StudentID: attempt.StudentID,
		Status:    attempt.Status,
		StartedAt: attempt.StartedAt,
		Questions: views,
	}
}

func questionIDs(paper []models.Question) []uint {
	ids := make([]uint, len(paper))
	for i, q := range paper {
		ids[i] = q.ID
	}
	return ids
}

func orderPaper(ids []uint, questions []models.Question) []models.Question {
	byID := make(map[uint]models.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}
	ordered := make([]models.Question, 0, len(ids))
	for _, id := range ids {
		if q, ok := byID[id]; ok {
			ordered = append(ordered, q)
		}
	}
	return ordered
}

func containsID(ids []uint, id uint) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
