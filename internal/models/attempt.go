package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "IN_PROGRESS"
	AttemptSubmitted  AttemptStatus = "SUBMITTED"
	AttemptGrading    AttemptStatus = "GRADING"
	AttemptCompleted  AttemptStatus = "COMPLETED"
	AttemptExpired    AttemptStatus = "EXPIRED"
)

type ExamAttempt struct {
	ID        uint          `json:"id" gorm:"primaryKey"`
	ExamID    uint          `json:"exam_id" gorm:"not null;index" validate:"required"`
	StudentID string        `json:"student_id" gorm:"size:255;not null;index" validate:"required"`
	Status    AttemptStatus `json:"status" gorm:"default:IN_PROGRESS;index"`

	// QuestionIDs is the paper assembled for this attempt, in display order.
	QuestionIDs datatypes.JSONSlice[uint] `json:"question_ids" gorm:"type:jsonb"`

	StartedAt   time.Time  `json:"started_at"`
	SubmittedAt *time.Time `json:"submitted_at"`
	GradedAt    *time.Time `json:"graded_at"`

	TimeSpent int `json:"time_spent" gorm:"default:0"` // seconds

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Exam      *Exam             `json:"exam,omitempty" gorm:"foreignKey:ExamID"`
	Responses []StudentResponse `json:"responses,omitempty" gorm:"foreignKey:AttemptID"`
}

// StudentResponse records the answer a student gave to one question of an
// attempt. AnswerData is a typed jsonb payload whose shape follows the
// question type; a nil payload means the question was left unanswered.
type StudentResponse struct {
	ID         uint `json:"id" gorm:"primaryKey"`
	AttemptID  uint `json:"attempt_id" gorm:"not null;index;uniqueIndex:idx_attempt_question"`
	QuestionID uint `json:"question_id" gorm:"not null;index;uniqueIndex:idx_attempt_question"`

	AnswerData datatypes.JSON `json:"answer_data" gorm:"type:jsonb"`
	TimeSpent  int            `json:"time_spent" gorm:"default:0"` // seconds

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Question *Question `json:"question,omitempty" gorm:"foreignKey:QuestionID"`
}

func (ExamAttempt) TableName() string {
	return "exam_attempts"
}

func (StudentResponse) TableName() string {
	return "student_responses"
}

// IsAnswered reports whether the response carries any payload at all.
// Payloads that decode to nothing usable are sorted out per question
// type by IsEmptyAnswerPayload.
func (r *StudentResponse) IsAnswered() bool {
	return len(r.AnswerData) > 0 && string(r.AnswerData) != "null"
}

// CanSubmit reports whether the attempt is in a state the student may
// still submit from.
func (a *ExamAttempt) CanSubmit() bool {
	return a.Status == AttemptInProgress
}

// IsFinal reports whether grading has concluded for the attempt.
func (a *ExamAttempt) IsFinal() bool {
	return a.Status == AttemptCompleted || a.Status == AttemptExpired
}
