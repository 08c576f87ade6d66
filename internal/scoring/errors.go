package scoring

import (
	"errors"
	"fmt"

	"github.com/SAP-F-2025/scoring-service/internal/models"
)

var (
	ErrNoQuestions   = errors.New("attempt has no questions to score")
	ErrNilResponse   = errors.New("nil response")
	ErrEmptyBank     = errors.New("question bank is empty")
	ErrNoGradeConfig = errors.New("grading configuration missing")
)

// InsufficientQuestionsError reports that the bank cannot satisfy the
// requested per-type question count. Selection fails fast: no partial
// paper is ever assembled.
type InsufficientQuestionsError struct {
	Type      models.QuestionType
	Requested int
	Available int
}

func (e *InsufficientQuestionsError) Error() string {
	return fmt.Sprintf("insufficient questions of type %s: requested %d, available %d",
		e.Type, e.Requested, e.Available)
}

// MisconfiguredQuestionError reports a question whose answer key cannot be
// graded against (no correct option, no blanks, empty model answer).
type MisconfiguredQuestionError struct {
	QuestionID uint
	Type       models.QuestionType
	Reason     string
}

func (e *MisconfiguredQuestionError) Error() string {
	return fmt.Sprintf("question %d (%s) is misconfigured: %s", e.QuestionID, e.Type, e.Reason)
}

// IsInsufficientQuestions reports whether err is a selection shortfall.
func IsInsufficientQuestions(err error) bool {
	var target *InsufficientQuestionsError
	return errors.As(err, &target)
}

// IsMisconfiguredQuestion reports whether err stems from a broken answer key.
func IsMisconfiguredQuestion(err error) bool {
	var target *MisconfiguredQuestionError
	return errors.As(err, &target)
}
