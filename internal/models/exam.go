package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ExamStatus string

const (
	ExamDraft     ExamStatus = "DRAFT"
	ExamPublished ExamStatus = "PUBLISHED"
	ExamArchived  ExamStatus = "ARCHIVED"
)

// QuestionCounts maps question type to the number of questions of that
// type drawn from the bank when an attempt is assembled. Stored as jsonb.
type QuestionCounts map[QuestionType]int

// Total returns the full paper size implied by the per-type counts.
func (c QuestionCounts) Total() int {
	n := 0
	for _, v := range c {
		n += v
	}
	return n
}

type Exam struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	Title       string     `json:"title" gorm:"size:255;not null" validate:"required,min=3,max=255"`
	Description *string    `json:"description" gorm:"type:text"`
	Status      ExamStatus `json:"status" gorm:"default:DRAFT;index" validate:"omitempty,exam_status"`

	// QuestionCounts drives selection: how many questions of each type
	// an attempt receives.
	QuestionCounts datatypes.JSONType[QuestionCounts] `json:"question_counts" gorm:"type:jsonb"`

	// CategoryID scopes the question bank: attempts draw only from
	// questions of this category. Nil means the whole bank.
	CategoryID *uint `json:"category_id" gorm:"index"`

	// PassPercentage is compared against the attempt's exact percentage.
	PassPercentage float64 `json:"pass_percentage" gorm:"default:50" validate:"gte=0,lte=100"`

	// DurationMinutes bounds TimeSpent reporting; informational for scoring.
	DurationMinutes int `json:"duration_minutes" gorm:"default:60" validate:"gt=0"`

	MaxAttempts    int  `json:"max_attempts" gorm:"default:1" validate:"gte=0"`
	ShuffleAnswers bool `json:"shuffle_answers" gorm:"default:false"`

	CreatedBy string         `json:"created_by" gorm:"size:255;index"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Exam) TableName() string {
	return "exams"
}
