package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/scoring-service/internal/models"
	"github.com/SAP-F-2025/scoring-service/internal/repositories"
)

type AttemptPostgreSQL struct {
	db *gorm.DB
}

func NewAttemptPostgreSQL(db *gorm.DB) *AttemptPostgreSQL {
	return &AttemptPostgreSQL{db: db}
}

func (a *AttemptPostgreSQL) Create(ctx context.Context, attempt *models.ExamAttempt) error {
	return a.db.WithContext(ctx).Create(attempt).Error
}

func (a *AttemptPostgreSQL) GetByID(ctx context.Context, id uint) (*models.ExamAttempt, error) {
	var attempt models.ExamAttempt
	if err := a.db.WithContext(ctx).
		Preload("Exam").
		First(&attempt, id).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (a *AttemptPostgreSQL) GetByIDWithResponses(ctx context.Context, id uint) (*models.ExamAttempt, error) {
	var attempt models.ExamAttempt
	if err := a.db.WithContext(ctx).
		Preload("Exam").
		Preload("Responses").
		First(&attempt, id).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (a *AttemptPostgreSQL) Update(ctx context.Context, attempt *models.ExamAttempt) error {
	return a.db.WithContext(ctx).Save(attempt).Error
}

func (a *AttemptPostgreSQL) List(ctx context.Context, filters repositories.AttemptFilters) ([]*models.ExamAttempt, int64, error) {
	var attempts []*models.ExamAttempt
	var total int64

	query := a.db.WithContext(ctx).Model(&models.ExamAttempt{})
	query = a.applyFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPaginationAndSort(query, filters.Limit, filters.Offset, filters.SortBy, filters.SortOrder)
	if err := query.Preload("Exam").Find(&attempts).Error; err != nil {
		return nil, 0, err
	}
	return attempts, total, nil
}

func (a *AttemptPostgreSQL) CountByStudentAndExam(ctx context.Context, studentID string, examID uint) (int, error) {
	var count int64
	err := a.db.WithContext(ctx).
		Model(&models.ExamAttempt{}).
		Where("student_id = ? AND exam_id = ?", studentID, examID).
		Count(&count).Error
	return int(count), err
}

func (a *AttemptPostgreSQL) HasActiveAttempt(ctx context.Context, studentID string, examID uint) (bool, error) {
	var count int64
	err := a.db.WithContext(ctx).
		Model(&models.ExamAttempt{}).
		Where("student_id = ? AND exam_id = ? AND status = ?", studentID, examID, models.AttemptInProgress).
		Count(&count).Error
	return count > 0, err
}

func (a *AttemptPostgreSQL) UpdateStatus(ctx context.Context, id uint, status models.AttemptStatus) error {
	return a.db.WithContext(ctx).
		Model(&models.ExamAttempt{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (a *AttemptPostgreSQL) applyFilters(query *gorm.DB, filters repositories.AttemptFilters) *gorm.DB {
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.StudentID != nil {
		query = query.Where("student_id = ?", *filters.StudentID)
	}
	if filters.ExamID != nil {
		query = query.Where("exam_id = ?", *filters.ExamID)
	}
	if filters.DateFrom != nil {
		query = query.Where("created_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("created_at <= ?", *filters.DateTo)
	}
	return query
}
