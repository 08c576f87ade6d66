package repositories

import (
	"context"
	"time"

	"github.com/SAP-F-2025/scoring-service/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type QuestionFilters struct {
	Type       *models.QuestionType    `json:"type"`
	Difficulty *models.DifficultyLevel `json:"difficulty"`
	CategoryID *uint                   `json:"category_id"`
	IsActive   *bool                   `json:"is_active"`
	Limit      int                     `json:"limit"`
	Offset     int                     `json:"offset"`
	SortBy     string                  `json:"sort_by"`    // "created_at", "type", "difficulty"
	SortOrder  string                  `json:"sort_order"` // "asc", "desc"
}

type AttemptFilters struct {
	Status    *models.AttemptStatus `json:"status"`
	StudentID *string               `json:"student_id"`
	ExamID    *uint                 `json:"exam_id"`
	DateFrom  *time.Time            `json:"date_from"`
	DateTo    *time.Time            `json:"date_to"`
	Limit     int                   `json:"limit"`
	Offset    int                   `json:"offset"`
	SortBy    string                `json:"sort_by"`
	SortOrder string                `json:"sort_order"`
}

// ===== ENTITY REPOSITORIES =====

type QuestionRepository interface {
	Create(ctx context.Context, question *models.Question) error
	GetByID(ctx context.Context, id uint) (*models.Question, error)
	GetByIDsWithOptions(ctx context.Context, ids []uint) ([]models.Question, error)
	Update(ctx context.Context, question *models.Question) error
	Delete(ctx context.Context, id uint) error

	List(ctx context.Context, filters QuestionFilters) ([]*models.Question, int64, error)

	// GetActiveBank loads active questions with their options; the
	// selector draws attempt papers from it. A non-nil categoryID
	// restricts the bank to that category.
	GetActiveBank(ctx context.Context, categoryID *uint) ([]models.Question, error)
	CountActiveByType(ctx context.Context) (map[models.QuestionType]int, error)
}

type ExamRepository interface {
	Create(ctx context.Context, exam *models.Exam) error
	GetByID(ctx context.Context, id uint) (*models.Exam, error)
	Update(ctx context.Context, exam *models.Exam) error
	Delete(ctx context.Context, id uint) error

	List(ctx context.Context, limit, offset int) ([]*models.Exam, int64, error)
	UpdateStatus(ctx context.Context, id uint, status models.ExamStatus) error
}

type AttemptRepository interface {
	Create(ctx context.Context, attempt *models.ExamAttempt) error
	GetByID(ctx context.Context, id uint) (*models.ExamAttempt, error)
	GetByIDWithResponses(ctx context.Context, id uint) (*models.ExamAttempt, error)
	Update(ctx context.Context, attempt *models.ExamAttempt) error

	List(ctx context.Context, filters AttemptFilters) ([]*models.ExamAttempt, int64, error)
	CountByStudentAndExam(ctx context.Context, studentID string, examID uint) (int, error)
	HasActiveAttempt(ctx context.Context, studentID string, examID uint) (bool, error)

	UpdateStatus(ctx context.Context, id uint, status models.AttemptStatus) error
}

type ResponseRepository interface {
	Upsert(ctx context.Context, response *models.StudentResponse) error
	GetByAttempt(ctx context.Context, attemptID uint) ([]models.StudentResponse, error)
	GetByAttemptAndQuestion(ctx context.Context, attemptID, questionID uint) (*models.StudentResponse, error)
}

type ResultRepository interface {
	// ReplaceScores swaps the full per-question score set of an attempt
	// in one transaction, so a re-grade never leaves a partial mix of
	// old and new rows.
	ReplaceScores(ctx context.Context, attemptID uint, scores []models.ResponseScore) error
	GetScoresByAttempt(ctx context.Context, attemptID uint) ([]models.ResponseScore, error)

	SaveSummary(ctx context.Context, summary *models.AttemptSummary) error
	GetSummaryByAttempt(ctx context.Context, attemptID uint) (*models.AttemptSummary, error)
	GetSummariesByExam(ctx context.Context, examID uint) ([]models.AttemptSummary, error)
}

// ===== AGGREGATE =====

// Repository bundles the entity repositories behind one dependency for
// the service layer.
type Repository interface {
	Question() QuestionRepository
	Exam() ExamRepository
	Attempt() AttemptRepository
	Response() ResponseRepository
	Result() ResultRepository

	WithTransaction(ctx context.Context, fn func(Repository) error) error
	Ping(ctx context.Context) error
	Close() error
}
