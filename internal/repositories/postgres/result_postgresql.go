package postgres

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SAP-F-2025/scoring-service/internal/models"
)

type ResponsePostgreSQL struct {
	db *gorm.DB
}

func NewResponsePostgreSQL(db *gorm.DB) *ResponsePostgreSQL {
	return &ResponsePostgreSQL{db: db}
}

// Upsert stores the latest answer for an (attempt, question) pair. A
// student changing their answer overwrites the previous payload.
func (r *ResponsePostgreSQL) Upsert(ctx context.Context, response *models.StudentResponse) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "attempt_id"}, {Name: "question_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"answer_data", "time_spent", "updated_at",
			}),
		}).
		Create(response).Error
}

func (r *ResponsePostgreSQL) GetByAttempt(ctx context.Context, attemptID uint) ([]models.StudentResponse, error) {
	var responses []models.StudentResponse
	if err := r.db.WithContext(ctx).
		Where("attempt_id = ?", attemptID).
		Find(&responses).Error; err != nil {
		return nil, err
	}
	return responses, nil
}

func (r *ResponsePostgreSQL) GetByAttemptAndQuestion(ctx context.Context, attemptID, questionID uint) (*models.StudentResponse, error) {
	var response models.StudentResponse
	if err := r.db.WithContext(ctx).
		Where("attempt_id = ? AND question_id = ?", attemptID, questionID).
		First(&response).Error; err != nil {
		return nil, err
	}
	return &response, nil
}

type ResultPostgreSQL struct {
	db *gorm.DB
}

func NewResultPostgreSQL(db *gorm.DB) *ResultPostgreSQL {
	return &ResultPostgreSQL{db: db}
}

// ReplaceScores deletes any previous score rows for the attempt and
// inserts the new set in one transaction. A failed re-grade leaves the
// old scores untouched.
func (r *ResultPostgreSQL) ReplaceScores(ctx context.Context, attemptID uint, scores []models.ResponseScore) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("attempt_id = ?", attemptID).
			Delete(&models.ResponseScore{}).Error; err != nil {
			return err
		}
		if len(scores) == 0 {
			return nil
		}
		return tx.Create(&scores).Error
	})
}

func (r *ResultPostgreSQL) GetScoresByAttempt(ctx context.Context, attemptID uint) ([]models.ResponseScore, error) {
	var scores []models.ResponseScore
	if err := r.db.WithContext(ctx).
		Where("attempt_id = ?", attemptID).
		Order("question_id").
		Find(&scores).Error; err != nil {
		return nil, err
	}
	return scores, nil
}

func (r *ResultPostgreSQL) SaveSummary(ctx context.Context, summary *models.AttemptSummary) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "attempt_id"}},
			UpdateAll: true,
		}).
		Create(summary).Error
}

func (r *ResultPostgreSQL) GetSummaryByAttempt(ctx context.Context, attemptID uint) (*models.AttemptSummary, error) {
	var summary models.AttemptSummary
	if err := r.db.WithContext(ctx).
		Where("attempt_id = ?", attemptID).
		First(&summary).Error; err != nil {
		return nil, err
	}
	return &summary, nil
}

func (r *ResultPostgreSQL) GetSummariesByExam(ctx context.Context, examID uint) ([]models.AttemptSummary, error) {
	var summaries []models.AttemptSummary
	if err := r.db.WithContext(ctx).
		Where("exam_id = ?", examID).
		Order("attempt_id").
		Find(&summaries).Error; err != nil {
		return nil, err
	}
	return summaries, nil
}
