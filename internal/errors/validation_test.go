package errors

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationError_Message(t *testing.T) {
	err := NewValidationError("pass_percentage", "must be at most 100", 120)

	assert.Equal(t, "pass_percentage", err.Field)
	assert.Equal(t, 120, err.Value)
	assert.Equal(t, "validation error on field 'pass_percentage': must be at most 100", err.Error())
}

func TestValidationErrors_Message(t *testing.T) {
	var errs ValidationErrors
	assert.Equal(t, "validation failed", errs.Error())

	errs = append(errs, *NewValidationError("exam_id", "is required", nil))
	assert.Equal(t, "validation failed: exam_id is required", errs.Error())

	errs = append(errs, *NewValidationErrorWithRule("student_id", "is required", "required", nil))
	assert.Equal(t, "validation failed: 2 field errors", errs.Error())
	assert.Equal(t, "required", errs[1].Rule)
}

func TestToValidationErrors(t *testing.T) {
	type startRequest struct {
		ExamID    uint   `validate:"required"`
		StudentID string `validate:"required"`
	}

	err := validator.New().Struct(startRequest{})
	require.Error(t, err)

	fieldErrs := ToValidationErrors(err)
	require.Len(t, fieldErrs, 2)
	assert.Equal(t, "ExamID", fieldErrs[0].Field)
	assert.Equal(t, "is required", fieldErrs[0].Message)
	assert.Equal(t, "required", fieldErrs[0].Rule)

	assert.Nil(t, ToValidationErrors(assert.AnError))
}
