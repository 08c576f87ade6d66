package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/scoring-service/internal/models"
	"github.com/SAP-F-2025/scoring-service/internal/repositories"
)

type Repository struct {
	db       *gorm.DB
	question *QuestionPostgreSQL
	exam     *ExamPostgreSQL
	attempt  *AttemptPostgreSQL
	response *ResponsePostgreSQL
	result   *ResultPostgreSQL
}

func NewRepository(db *gorm.DB) repositories.Repository {
	return newRepository(db)
}

func newRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:       db,
		question: NewQuestionPostgreSQL(db),
		exam:     NewExamPostgreSQL(db),
		attempt:  NewAttemptPostgreSQL(db),
		response: NewResponsePostgreSQL(db),
		result:   NewResultPostgreSQL(db),
	}
}

func (r *Repository) Question() repositories.QuestionRepository { return r.question }
func (r *Repository) Exam() repositories.ExamRepository         { return r.exam }
func (r *Repository) Attempt() repositories.AttemptRepository   { return r.attempt }
func (r *Repository) Response() repositories.ResponseRepository { return r.response }
func (r *Repository) Result() repositories.ResultRepository     { return r.result }

// WithTransaction runs fn against a repository bound to one transaction.
// Returning an error rolls everything back.
func (r *Repository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(newRepository(tx))
	})
}

func (r *Repository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (r *Repository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// AutoMigrate creates or updates the schema for every scoring table.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Question{},
		&models.AnswerOption{},
		&models.Exam{},
		&models.ExamAttempt{},
		&models.StudentResponse{},
		&models.ResponseScore{},
		&models.AttemptSummary{},
	)
}
