package utils

import (
	"fmt"

	"github.com/SAP-F-2025/scoring-service/internal/models"
)

// AnswerValidator checks that a submitted answer payload has the shape the
// question type expects, before it is stored. Grading is more forgiving:
// a malformed payload that slips through still scores zero instead of
// failing the attempt.
type AnswerValidator struct{}

func NewAnswerValidator() *AnswerValidator {
	return &AnswerValidator{}
}

// ValidatePayload decodes raw as the payload type for questionType and
// reports shape problems.
func (v *AnswerValidator) ValidatePayload(questionType models.QuestionType, raw []byte) error {
	if len(raw) == 0 {
		return fmt.Errorf("answer payload is empty")
	}

	switch questionType {
	case models.SingleChoice, models.TrueFalse:
		ans, err := models.DecodeChoiceAnswer(raw)
		if err != nil {
			return err
		}
		if len(ans.SelectedOptionIDs) != 1 {
			return fmt.Errorf("%s expects exactly one selected option, got %d",
				questionType, len(ans.SelectedOptionIDs))
		}
	case models.MultipleChoice:
		ans, err := models.DecodeChoiceAnswer(raw)
		if err != nil {
			return err
		}
		if len(ans.SelectedOptionIDs) == 0 {
			return fmt.Errorf("multiple choice answer has no selections")
		}
	case models.FillInBlank, models.AccountingTable:
		ans, err := models.DecodeFillBlankAnswer(raw)
		if err != nil {
			return err
		}
		if len(ans.Blanks) == 0 {
			return fmt.Errorf("fill-in answer has no blanks")
		}
	case models.Matching:
		ans, err := models.DecodeMatchingAnswer(raw)
		if err != nil {
			return err
		}
		if len(ans.Pairs) == 0 {
			return fmt.Errorf("matching answer has no pairs")
		}
	case models.Ordering:
		ans, err := models.DecodeOrderingAnswer(raw)
		if err != nil {
			return err
		}
		if len(ans.OrderedOptionIDs) < 2 {
			return fmt.Errorf("ordering answer needs at least 2 items")
		}
	case models.ShortAnswer, models.Essay:
		if _, err := models.DecodeTextAnswer(raw); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown question type %s", questionType)
	}
	return nil
}
