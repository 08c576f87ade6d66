package models

import (
	"time"

	"gorm.io/gorm"
)

type QuestionType string

const (
	SingleChoice    QuestionType = "SINGLE_CHOICE"
	MultipleChoice  QuestionType = "MULTIPLE_CHOICE"
	TrueFalse       QuestionType = "TRUE_FALSE"
	FillInBlank     QuestionType = "FILL_IN_THE_BLANK"
	Matching        QuestionType = "MATCHING"
	Ordering        QuestionType = "ORDERING"
	ShortAnswer     QuestionType = "SHORT_ANSWER"
	Essay           QuestionType = "ESSAY"
	AccountingTable QuestionType = "ACCOUNTING_TABLE"
)

type DifficultyLevel string

const (
	DifficultyEasy   DifficultyLevel = "EASY"
	DifficultyMedium DifficultyLevel = "MEDIUM"
	DifficultyHard   DifficultyLevel = "HARD"
)

// IsFreeText reports whether responses to this type are graded with the
// free-text scorer instead of an option-based comparator.
func (t QuestionType) IsFreeText() bool {
	return t == Essay || t == ShortAnswer
}

// IsChoice reports whether responses carry selected option ids.
func (t QuestionType) IsChoice() bool {
	return t == SingleChoice || t == MultipleChoice || t == TrueFalse
}

type Question struct {
	ID         uint            `json:"id" gorm:"primaryKey"`
	Type       QuestionType    `json:"type" gorm:"not null;index" validate:"required,question_type"`
	Text       string          `json:"text" gorm:"type:text;not null" validate:"required,min=1"`
	Difficulty DifficultyLevel `json:"difficulty" gorm:"default:MEDIUM;index" validate:"omitempty,difficulty_level"`
	Marks      float64         `json:"marks" gorm:"not null" validate:"required,gt=0"`
	CategoryID *uint           `json:"category_id" gorm:"index"`
	IsActive   bool            `json:"is_active" gorm:"default:true;index"`

	// Explanation shown to students after grading, if any.
	Explanation *string `json:"explanation" gorm:"type:text"`

	CreatedBy string         `json:"created_by" gorm:"size:255;index"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Options []AnswerOption `json:"options" gorm:"foreignKey:QuestionID"`
}

// AnswerOption carries the answer key for every question type:
//   - choice types: options flagged IsCorrect form the key
//   - fill-in-the-blank / accounting tables: options grouped by BlankIndex,
//     each option text is one accepted literal for that blank
//   - matching: MatchText holds the correct counterpart for the option
//   - ordering: SortOrder defines the correct sequence
//   - essay / short answer: the option flagged IsCorrect holds the model answer
//
// Options are immutable once an attempt has been scored against them.
type AnswerOption struct {
	ID         uint    `json:"id" gorm:"primaryKey"`
	QuestionID uint    `json:"question_id" gorm:"not null;index"`
	Text       string  `json:"text" gorm:"type:text;not null"`
	IsCorrect  bool    `json:"is_correct" gorm:"default:false"`
	SortOrder  int     `json:"sort_order" gorm:"default:0"`
	BlankIndex int     `json:"blank_index" gorm:"default:0"`
	MatchText  *string `json:"match_text" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Question) TableName() string {
	return "questions"
}

func (AnswerOption) TableName() string {
	return "answer_options"
}

// CorrectOptions returns the options flagged as part of the answer key.
func (q *Question) CorrectOptions() []AnswerOption {
	var out []AnswerOption
	for _, o := range q.Options {
		if o.IsCorrect {
			out = append(out, o)
		}
	}
	return out
}

// ModelAnswer returns the canonical answer text for free-text questions:
// the first option flagged correct, falling back to the first option.
func (q *Question) ModelAnswer() (string, bool) {
	for _, o := range q.Options {
		if o.IsCorrect {
			return o.Text, true
		}
	}
	if len(q.Options) > 0 {
		return q.Options[0].Text, true
	}
	return "", false
}
