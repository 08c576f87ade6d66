package models

import (
	"time"

	"gorm.io/datatypes"
)

// ResponseScore is the write-once per-question grading record. One row
// exists per (attempt, question) after grading; re-grading replaces the
// whole set atomically rather than mutating rows in place.
type ResponseScore struct {
	ID         uint `json:"id" gorm:"primaryKey"`
	AttemptID  uint `json:"attempt_id" gorm:"not null;index;uniqueIndex:idx_score_attempt_question"`
	QuestionID uint `json:"question_id" gorm:"not null;uniqueIndex:idx_score_attempt_question"`

	QuestionType QuestionType    `json:"question_type" gorm:"not null"`
	Difficulty   DifficultyLevel `json:"difficulty" gorm:"not null"`

	Answered  bool    `json:"answered" gorm:"not null"`
	IsCorrect bool    `json:"is_correct" gorm:"not null"`
	Fraction  float64 `json:"fraction" gorm:"not null"` // credit in [0,1]
	MaxMarks  float64 `json:"max_marks" gorm:"not null"`
	Marks     float64 `json:"marks" gorm:"not null"` // Fraction*MaxMarks, one decimal

	Feedback string `json:"feedback,omitempty" gorm:"type:text"`

	// Subscores is populated for free-text questions only.
	Subscores *datatypes.JSONType[FreeTextSubscores] `json:"subscores,omitempty" gorm:"type:jsonb"`

	TimeSpent int       `json:"time_spent" gorm:"default:0"` // seconds
	CreatedAt time.Time `json:"created_at"`
}

// FreeTextSubscores breaks a free-text score into its weighted components.
// Each component is in [0,1]; Composite is the weighted blend after
// guardrails were applied.
type FreeTextSubscores struct {
	Keyword   float64 `json:"keyword"`
	Semantic  float64 `json:"semantic"`
	Structure float64 `json:"structure"`
	Language  float64 `json:"language"`
	Coherence float64 `json:"coherence"`
	Composite float64 `json:"composite"`
}

// DifficultyBucket aggregates correctness within one difficulty level.
type DifficultyBucket struct {
	Total      int     `json:"total"`
	Correct    int     `json:"correct"`
	Marks      float64 `json:"marks"`
	MaxMarks   float64 `json:"max_marks"`
	Percentage float64 `json:"percentage"`
}

// TimingStats is informational only; it never affects marks or pass/fail.
// TimeEfficiency is the share of the allotted exam time spent answering,
// as a percentage; SpeedScore is the remaining-time share on a 0-100
// scale. Both are zero when the exam has no duration.
type TimingStats struct {
	TotalSeconds   int     `json:"total_seconds"`
	AverageSeconds float64 `json:"average_seconds"`
	FastestSeconds int     `json:"fastest_seconds"`
	SlowestSeconds int     `json:"slowest_seconds"`
	TimeEfficiency float64 `json:"time_efficiency"`
	SpeedScore     float64 `json:"speed_score"`
}

// AttemptSummary is the aggregated, persisted outcome of one graded attempt.
type AttemptSummary struct {
	ID        uint `json:"id" gorm:"primaryKey"`
	AttemptID uint `json:"attempt_id" gorm:"not null;uniqueIndex"`
	ExamID    uint `json:"exam_id" gorm:"not null;index"`

	TotalQuestions int `json:"total_questions" gorm:"not null"`
	Correct        int `json:"correct" gorm:"not null"`
	Wrong          int `json:"wrong" gorm:"not null"`
	Unanswered     int `json:"unanswered" gorm:"not null"`

	MarksObtained float64 `json:"marks_obtained" gorm:"not null"`
	MaxMarks      float64 `json:"max_marks" gorm:"not null"`
	Percentage    float64 `json:"percentage" gorm:"not null"`
	Passed        bool    `json:"passed" gorm:"not null"`
	Grade         string  `json:"grade" gorm:"size:4;not null"`

	ByDifficulty datatypes.JSONType[map[DifficultyLevel]DifficultyBucket] `json:"by_difficulty" gorm:"type:jsonb"`
	Timing       datatypes.JSONType[TimingStats]                          `json:"timing" gorm:"type:jsonb"`

	GradedAt  time.Time `json:"graded_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ResponseScore) TableName() string {
	return "response_scores"
}

func (AttemptSummary) TableName() string {
	return "attempt_summaries"
}
