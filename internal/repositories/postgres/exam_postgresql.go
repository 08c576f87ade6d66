package postgres

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/scoring-service/internal/models"
)

type ExamPostgreSQL struct {
	db *gorm.DB
}

func NewExamPostgreSQL(db *gorm.DB) *ExamPostgreSQL {
	return &ExamPostgreSQL{db: db}
}

func (e *ExamPostgreSQL) Create(ctx context.Context, exam *models.Exam) error {
	return e.db.WithContext(ctx).Create(exam).Error
}

func (e *ExamPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Exam, error) {
	var exam models.Exam
	if err := e.db.WithContext(ctx).First(&exam, id).Error; err != nil {
		return nil, err
	}
	return &exam, nil
}

func (e *ExamPostgreSQL) Update(ctx context.Context, exam *models.Exam) error {
	return e.db.WithContext(ctx).Save(exam).Error
}

func (e *ExamPostgreSQL) Delete(ctx context.Context, id uint) error {
	return e.db.WithContext(ctx).Delete(&models.Exam{}, id).Error
}

func (e *ExamPostgreSQL) List(ctx context.Context, limit, offset int) ([]*models.Exam, int64, error) {
	var exams []*models.Exam
	var total int64

	query := e.db.WithContext(ctx).Model(&models.Exam{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := applyPaginationAndSort(query, limit, offset, "created_at", "desc").
		Find(&exams).Error; err != nil {
		return nil, 0, err
	}
	return exams, total, nil
}

func (e *ExamPostgreSQL) UpdateStatus(ctx context.Context, id uint, status models.ExamStatus) error {
	return e.db.WithContext(ctx).
		Model(&models.Exam{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// applyPaginationAndSort is shared by the list queries. Sort columns are
// whitelisted; anything else falls back to created_at.
func applyPaginationAndSort(query *gorm.DB, limit, offset int, sortBy, sortOrder string) *gorm.DB {
	switch sortBy {
	case "created_at", "updated_at", "type", "difficulty", "status", "title":
	default:
		sortBy = "created_at"
	}
	if !strings.EqualFold(sortOrder, "asc") {
		sortOrder = "desc"
	}
	query = query.Order(sortBy + " " + sortOrder)

	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return query.Limit(limit).Offset(offset)
}
