package utils

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/SAP-F-2025/scoring-service/internal/errors"
	"github.com/SAP-F-2025/scoring-service/internal/models"
)

// Validator wraps struct-tag validation with the domain's custom rules.
type Validator struct {
	structValidator *validator.Validate
}

// NewValidator creates the shared validator instance.
func NewValidator() *Validator {
	v := validator.New()
	RegisterCustomValidators(v)
	return &Validator{structValidator: v}
}

// Validate checks struct tags, including the custom domain tags. Tag
// failures are returned as field-level ValidationErrors so callers can
// surface which fields were rejected and why.
func (v *Validator) Validate(s interface{}) error {
	err := v.structValidator.Struct(s)
	if err == nil {
		return nil
	}
	if fieldErrs := apperrors.ToValidationErrors(err); len(fieldErrs) > 0 {
		return fieldErrs
	}
	return err
}

// Custom validation functions

func ValidateQuestionType(fl validator.FieldLevel) bool {
	validTypes := []models.QuestionType{
		models.SingleChoice,
		models.MultipleChoice,
		models.TrueFalse,
		models.FillInBlank,
		models.Matching,
		models.Ordering,
		models.ShortAnswer,
		models.Essay,
		models.AccountingTable,
	}

	value := fl.Field().String()
	for _, validType := range validTypes {
		if string(validType) == value {
			return true
		}
	}
	return false
}

func ValidateDifficultyLevel(fl validator.FieldLevel) bool {
	validLevels := []models.DifficultyLevel{
		models.DifficultyEasy,
		models.DifficultyMedium,
		models.DifficultyHard,
	}

	value := fl.Field().String()
	for _, validLevel := range validLevels {
		if string(validLevel) == value {
			return true
		}
	}
	return false
}

func ValidateExamStatus(fl validator.FieldLevel) bool {
	validStatuses := []models.ExamStatus{
		models.ExamDraft,
		models.ExamPublished,
		models.ExamArchived,
	}

	value := fl.Field().String()
	for _, validStatus := range validStatuses {
		if string(validStatus) == value {
			return true
		}
	}
	return false
}

// RegisterCustomValidators registers all custom validators
func RegisterCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("question_type", ValidateQuestionType)
	validate.RegisterValidation("difficulty_level", ValidateDifficultyLevel)
	validate.RegisterValidation("exam_status", ValidateExamStatus)

	// Register custom tag name function for better error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}
