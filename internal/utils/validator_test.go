package utils

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/SAP-F-2025/scoring-service/internal/errors"
)

func TestValidator_ReturnsFieldLevelErrors(t *testing.T) {
	type createQuestion struct {
		Type  string  `json:"type" validate:"required,question_type"`
		Marks float64 `json:"marks" validate:"required,gt=0"`
	}

	v := NewValidator()
	err := v.Validate(createQuestion{Type: "GUESSING", Marks: -1})
	require.Error(t, err)

	var fieldErrs apperrors.ValidationErrors
	require.True(t, errors.As(err, &fieldErrs))
	require.Len(t, fieldErrs, 2)

	byField := map[string]apperrors.ValidationError{}
	for _, fe := range fieldErrs {
		byField[fe.Field] = fe
	}
	// Fields are reported under their json names.
	assert.Equal(t, "question_type", byField["type"].Rule)
	assert.Contains(t, byField["type"].Message, "SINGLE_CHOICE")
	assert.Equal(t, "gt", byField["marks"].Rule)
}

func TestValidator_AcceptsValidStruct(t *testing.T) {
	type createQuestion struct {
		Type  string  `json:"type" validate:"required,question_type"`
		Marks float64 `json:"marks" validate:"required,gt=0"`
	}

	v := NewValidator()
	assert.NoError(t, v.Validate(createQuestion{Type: "SINGLE_CHOICE", Marks: 2}))
}
