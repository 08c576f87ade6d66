package services

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/SAP-F-2025/scoring-service/internal/events"
	"github.com/SAP-F-2025/scoring-service/internal/models"
	"github.com/SAP-F-2025/scoring-service/internal/utils"
)

// MockGradingService records grading calls so the submit flow can be
// asserted without a real engine run.
type MockGradingService struct {
	mock.Mock
	graded chan uint
}

func newMockGradingService() *MockGradingService {
	return &MockGradingService{graded: make(chan uint, 1)}
}

func (m *MockGradingService) GradeAttempt(ctx context.Context, attemptID uint) (*models.AttemptSummary, error) {
	args := m.Called(ctx, attemptID)
	m.graded <- attemptID
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AttemptSummary), args.Error(1)
}

func (m *MockGradingService) GetResult(ctx context.Context, attemptID uint, studentID string) (*AttemptResultResponse, error) {
	args := m.Called(ctx, attemptID, studentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*AttemptResultResponse), args.Error(1)
}

// ===== FIXTURES =====

func publishedExam() *models.Exam {
	return &models.Exam{
		ID:     7,
		Title:  "Accounting Basics",
		Status: models.ExamPublished,
		QuestionCounts: datatypes.NewJSONType(models.QuestionCounts{
			models.SingleChoice: 2,
			models.Essay:        1,
		}),
		PassPercentage:  50,
		DurationMinutes: 60,
		MaxAttempts:     2,
	}
}

func questionBank() []models.Question {
	return []models.Question{
		{ID: 1, Type: models.SingleChoice, Marks: 2, IsActive: true,
			Options: []models.AnswerOption{{ID: 10, IsCorrect: true, Text: "Debit"}, {ID: 11, Text: "Credit"}}},
		{ID: 2, Type: models.SingleChoice, Marks: 2, IsActive: true,
			Options: []models.AnswerOption{{ID: 20, IsCorrect: true, Text: "Asset"}, {ID: 21, Text: "Liability"}}},
		{ID: 3, Type: models.SingleChoice, Marks: 2, IsActive: true,
			Options: []models.AnswerOption{{ID: 30, IsCorrect: true, Text: "Ledger"}, {ID: 31, Text: "Journal"}}},
		{ID: 4, Type: models.Essay, Marks: 5, IsActive: true,
			Options: []models.AnswerOption{{ID: 40, IsCorrect: true, Text: "Assets equal liabilities plus equity."}}},
	}
}

func newAttemptService(repo *MockRepository, grading GradingService, publisher events.EventPublisher) AttemptService {
	return NewAttemptService(
		repo,
		grading,
		noopCache{},
		publisher,
		gradingTestLogger(),
		utils.NewValidator(),
		rand.New(rand.NewSource(1)),
	)
}

// ===== TESTS =====

func TestAttemptService_Start(t *testing.T) {
	repo := newMockRepository()
	publisher := events.NewMockEventPublisher(gradingTestLogger())
	svc := newAttemptService(repo, newMockGradingService(), publisher)

	repo.examRepo.On("GetByID", mock.Anything, uint(7)).Return(publishedExam(), nil)
	repo.attemptRepo.On("CountByStudentAndExam", mock.Anything, "student-1", uint(7)).Return(0, nil)
	repo.attemptRepo.On("HasActiveAttempt", mock.Anything, "student-1", uint(7)).Return(false, nil)
	repo.questionRepo.On("GetActiveBank", mock.Anything, (*uint)(nil)).Return(questionBank(), nil)
	repo.attemptRepo.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		args.Get(1).(*models.ExamAttempt).ID = 42
	}).Return(nil)

	resp, err := svc.Start(context.Background(), &StartAttemptRequest{ExamID: 7, StudentID: "student-1"})
	require.NoError(t, err)

	assert.Equal(t, uint(42), resp.ID)
	assert.Equal(t, models.AttemptInProgress, resp.Status)
	require.Len(t, resp.Questions, 3)

	for _, q := range resp.Questions {
		if q.Type.IsFreeText() {
			assert.Empty(t, q.Options, "free-text questions never expose options")
		} else {
			assert.NotEmpty(t, q.Options)
		}
	}

	require.Len(t, publisher.PublishedEvents(), 1)
	assert.Equal(t, events.EventAttemptStarted, publisher.PublishedEvents()[0].Type)
	repo.attemptRepo.AssertExpectations(t)
}

func TestAttemptService_Start_DrawsFromExamCategory(t *testing.T) {
	repo := newMockRepository()
	svc := newAttemptService(repo, newMockGradingService(), events.NewMockEventPublisher(gradingTestLogger()))

	category := uint(3)
	exam := publishedExam()
	exam.CategoryID = &category
	repo.examRepo.On("GetByID", mock.Anything, uint(7)).Return(exam, nil)
	repo.attemptRepo.On("CountByStudentAndExam", mock.Anything, "student-1", uint(7)).Return(0, nil)
	repo.attemptRepo.On("HasActiveAttempt", mock.Anything, "student-1", uint(7)).Return(false, nil)
	repo.questionRepo.On("GetActiveBank", mock.Anything, &category).Return(questionBank(), nil)
	repo.attemptRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	_, err := svc.Start(context.Background(), &StartAttemptRequest{ExamID: 7, StudentID: "student-1"})
	require.NoError(t, err)
	repo.questionRepo.AssertCalled(t, "GetActiveBank", mock.Anything, &category)
}

func TestAttemptService_Start_InvalidRequestReportsFields(t *testing.T) {
	repo := newMockRepository()
	svc := newAttemptService(repo, newMockGradingService(), events.NewMockEventPublisher(gradingTestLogger()))

	_, err := svc.Start(context.Background(), &StartAttemptRequest{ExamID: 7})
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	var fieldErrs ValidationErrors
	require.ErrorAs(t, err, &fieldErrs)
	require.Len(t, fieldErrs, 1)
	assert.Equal(t, "student_id", fieldErrs[0].Field)
	assert.Equal(t, "is required", fieldErrs[0].Message)
}

func TestAttemptService_Start_ExamNotPublished(t *testing.T) {
	repo := newMockRepository()
	svc := newAttemptService(repo, newMockGradingService(), events.NewMockEventPublisher(gradingTestLogger()))

	exam := publishedExam()
	exam.Status = models.ExamDraft
	repo.examRepo.On("GetByID", mock.Anything, uint(7)).Return(exam, nil)

	_, err := svc.Start(context.Background(), &StartAttemptRequest{ExamID: 7, StudentID: "student-1"})
	assert.ErrorIs(t, err, ErrExamNotPublished)
}

func TestAttemptService_Start_AttemptLimitExceeded(t *testing.T) {
	repo := newMockRepository()
	svc := newAttemptService(repo, newMockGradingService(), events.NewMockEventPublisher(gradingTestLogger()))

	repo.examRepo.On("GetByID", mock.Anything, uint(7)).Return(publishedExam(), nil)
	repo.attemptRepo.On("CountByStudentAndExam", mock.Anything, "student-1", uint(7)).Return(2, nil)

	_, err := svc.Start(context.Background(), &StartAttemptRequest{ExamID: 7, StudentID: "student-1"})
	assert.ErrorIs(t, err, ErrAttemptLimitExceeded)
}

func TestAttemptService_Start_InsufficientQuestions(t *testing.T) {
	repo := newMockRepository()
	svc := newAttemptService(repo, newMockGradingService(), events.NewMockEventPublisher(gradingTestLogger()))

	repo.examRepo.On("GetByID", mock.Anything, uint(7)).Return(publishedExam(), nil)
	repo.attemptRepo.On("CountByStudentAndExam", mock.Anything, "student-1", uint(7)).Return(0, nil)
	repo.attemptRepo.On("HasActiveAttempt", mock.Anything, "student-1", uint(7)).Return(false, nil)
	// Bank holds no essays, but the exam asks for one.
	repo.questionRepo.On("GetActiveBank", mock.Anything, (*uint)(nil)).Return(questionBank()[:3], nil)

	_, err := svc.Start(context.Background(), &StartAttemptRequest{ExamID: 7, StudentID: "student-1"})
	require.Error(t, err)
	assert.True(t, IsBusinessRule(err))
	repo.attemptRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAttemptService_SaveAnswer(t *testing.T) {
	repo := newMockRepository()
	svc := newAttemptService(repo, newMockGradingService(), events.NewMockEventPublisher(gradingTestLogger()))

	attempt := &models.ExamAttempt{
		ID: 42, ExamID: 7, StudentID: "student-1",
		Status:      models.AttemptInProgress,
		QuestionIDs: datatypes.JSONSlice[uint]{1, 2, 4},
	}
	repo.attemptRepo.On("GetByID", mock.Anything, uint(42)).Return(attempt, nil)
	repo.questionRepo.On("GetByID", mock.Anything, uint(1)).Return(&questionBank()[0], nil)
	repo.responseRepo.On("Upsert", mock.Anything, mock.MatchedBy(func(r *models.StudentResponse) bool {
		return r.AttemptID == 42 && r.QuestionID == 1
	})).Return(nil)

	err := svc.SaveAnswer(context.Background(), 42, "student-1", &SaveAnswerRequest{
		QuestionID: 1,
		AnswerData: datatypes.JSON(`{"selected_option_ids":[10]}`),
		TimeSpent:  15,
	})
	require.NoError(t, err)
	repo.responseRepo.AssertExpectations(t)
}

func TestAttemptService_SaveAnswer_QuestionOutsidePaper(t *testing.T) {
	repo := newMockRepository()
	svc := newAttemptService(repo, newMockGradingService(), events.NewMockEventPublisher(gradingTestLogger()))

	attempt := &models.ExamAttempt{
		ID: 42, ExamID: 7, StudentID: "student-1",
		Status:      models.AttemptInProgress,
		QuestionIDs: datatypes.JSONSlice[uint]{1, 2},
	}
	repo.attemptRepo.On("GetByID", mock.Anything, uint(42)).Return(attempt, nil)

	err := svc.SaveAnswer(context.Background(), 42, "student-1", &SaveAnswerRequest{
		QuestionID: 99,
		AnswerData: datatypes.JSON(`{"selected_option_ids":[10]}`),
	})
	assert.ErrorIs(t, err, ErrQuestionNotFound)
}

func TestAttemptService_SaveAnswer_MalformedPayload(t *testing.T) {
	repo := newMockRepository()
	svc := newAttemptService(repo, newMockGradingService(), events.NewMockEventPublisher(gradingTestLogger()))

	attempt := &models.ExamAttempt{
		ID: 42, ExamID: 7, StudentID: "student-1",
		Status:      models.AttemptInProgress,
		QuestionIDs: datatypes.JSONSlice[uint]{1},
	}
	repo.attemptRepo.On("GetByID", mock.Anything, uint(42)).Return(attempt, nil)
	repo.questionRepo.On("GetByID", mock.Anything, uint(1)).Return(&questionBank()[0], nil)

	// Two selections on a single-choice question.
	err := svc.SaveAnswer(context.Background(), 42, "student-1", &SaveAnswerRequest{
		QuestionID: 1,
		AnswerData: datatypes.JSON(`{"selected_option_ids":[10,11]}`),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidationFailed)
	repo.responseRepo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestAttemptService_Submit(t *testing.T) {
	repo := newMockRepository()
	publisher := events.NewMockEventPublisher(gradingTestLogger())
	grading := newMockGradingService()
	svc := newAttemptService(repo, grading, publisher)

	attempt := &models.ExamAttempt{
		ID: 42, ExamID: 7, StudentID: "student-1",
		Status:      models.AttemptInProgress,
		StartedAt:   time.Now().Add(-10 * time.Minute),
		QuestionIDs: datatypes.JSONSlice[uint]{1, 2, 4},
	}
	repo.attemptRepo.On("GetByID", mock.Anything, uint(42)).Return(attempt, nil)
	repo.responseRepo.On("GetByAttempt", mock.Anything, uint(42)).Return([]models.StudentResponse{
		{AttemptID: 42, QuestionID: 1, AnswerData: datatypes.JSON(`{"selected_option_ids":[10]}`)},
		{AttemptID: 42, QuestionID: 2, AnswerData: datatypes.JSON(`null`)}, // saved but empty
	}, nil)
	repo.attemptRepo.On("Update", mock.Anything, mock.Anything).Return(nil)
	grading.On("GradeAttempt", mock.Anything, uint(42)).Return(&models.AttemptSummary{AttemptID: 42}, nil)

	resp, err := svc.Submit(context.Background(), 42, "student-1")
	require.NoError(t, err)
	assert.Equal(t, models.AttemptSubmitted, resp.Status)
	assert.Equal(t, 1, resp.Answered)

	select {
	case graded := <-grading.graded:
		assert.Equal(t, uint(42), graded)
	case <-time.After(2 * time.Second):
		t.Fatal("background grading never ran")
	}

	types := map[events.EventType]bool{}
	for _, e := range publisher.PublishedEvents() {
		types[e.Type] = true
	}
	assert.True(t, types[events.EventAttemptSubmitted])
}

func TestAttemptService_Submit_AlreadySubmitted(t *testing.T) {
	repo := newMockRepository()
	svc := newAttemptService(repo, newMockGradingService(), events.NewMockEventPublisher(gradingTestLogger()))

	attempt := &models.ExamAttempt{
		ID: 42, StudentID: "student-1", Status: models.AttemptSubmitted,
	}
	repo.attemptRepo.On("GetByID", mock.Anything, uint(42)).Return(attempt, nil)

	_, err := svc.Submit(context.Background(), 42, "student-1")
	assert.ErrorIs(t, err, ErrAttemptAlreadySubmitted)
}

func TestAttemptService_WrongStudentSeesNotFound(t *testing.T) {
	repo := newMockRepository()
	svc := newAttemptService(repo, newMockGradingService(), events.NewMockEventPublisher(gradingTestLogger()))

	attempt := &models.ExamAttempt{ID: 42, StudentID: "student-1", Status: models.AttemptInProgress}
	repo.attemptRepo.On("GetByID", mock.Anything, uint(42)).Return(attempt, nil)

	_, err := svc.GetByID(context.Background(), 42, "someone-else")
	assert.ErrorIs(t, err, ErrAttemptNotFound)
}
