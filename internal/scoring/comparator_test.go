package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/scoring-service/internal/models"
)

func strPtr(s string) *string { return &s }

func choiceQuestion(t models.QuestionType, correct ...uint) *models.Question {
	q := &models.Question{ID: 100, Type: t, Marks: 1}
	correctSet := map[uint]bool{}
	for _, id := range correct {
		correctSet[id] = true
	}
	for id := uint(1); id <= 4; id++ {
		q.Options = append(q.Options, models.AnswerOption{
			ID: id, QuestionID: q.ID, IsCorrect: correctSet[id],
		})
	}
	return q
}

func TestComparator_SingleChoice(t *testing.T) {
	c := NewComparator()
	q := choiceQuestion(models.SingleChoice, 2)

	tests := []struct {
		name     string
		payload  string
		fraction float64
		correct  bool
	}{
		{"correct option", `{"selected_option_ids":[2]}`, 1, true},
		{"wrong option", `{"selected_option_ids":[3]}`, 0, false},
		{"multiple selections rejected", `{"selected_option_ids":[2,3]}`, 0, false},
		{"empty selection", `{"selected_option_ids":[]}`, 0, false},
		{"malformed payload", `{"selected_option_ids":"two"}`, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmp, err := c.Compare(q, []byte(tt.payload))
			require.NoError(t, err)
			assert.Equal(t, tt.fraction, cmp.Fraction)
			assert.Equal(t, tt.correct, cmp.Correct)
		})
	}
}

func TestComparator_SingleChoice_Misconfigured(t *testing.T) {
	c := NewComparator()
	q := choiceQuestion(models.SingleChoice) // no correct option

	_, err := c.Compare(q, []byte(`{"selected_option_ids":[1]}`))
	require.Error(t, err)
	assert.True(t, IsMisconfiguredQuestion(err))
}

func TestComparator_MultipleChoice_Jaccard(t *testing.T) {
	c := NewComparator()
	q := choiceQuestion(models.MultipleChoice, 1, 2, 3)

	tests := []struct {
		name     string
		payload  string
		fraction float64
		correct  bool
	}{
		{"exact match", `{"selected_option_ids":[1,2,3]}`, 1, true},
		{"subset earns partial credit", `{"selected_option_ids":[1,2]}`, 0.5, false},
		{"over-selection dilutes", `{"selected_option_ids":[1,2,3,4]}`, 0.75, false},
		{"single correct pick", `{"selected_option_ids":[1]}`, 1.0 / 3.0, false},
		{"all wrong", `{"selected_option_ids":[4]}`, 0, false},
		{"duplicate ids collapse", `{"selected_option_ids":[1,1,2,3]}`, 1, true},
		{"unknown option id is malformed", `{"selected_option_ids":[99]}`, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmp, err := c.Compare(q, []byte(tt.payload))
			require.NoError(t, err)
			assert.InDelta(t, tt.fraction, cmp.Fraction, 1e-9)
			assert.Equal(t, tt.correct, cmp.Correct)
		})
	}
}

func TestComparator_TrueFalse(t *testing.T) {
	c := NewComparator()
	q := &models.Question{ID: 7, Type: models.TrueFalse, Marks: 1, Options: []models.AnswerOption{
		{ID: 1, Text: "True", IsCorrect: true},
		{ID: 2, Text: "False"},
	}}

	cmp, err := c.Compare(q, []byte(`{"selected_option_ids":[1]}`))
	require.NoError(t, err)
	assert.True(t, cmp.Correct)

	cmp, err = c.Compare(q, []byte(`{"selected_option_ids":[2]}`))
	require.NoError(t, err)
	assert.False(t, cmp.Correct)
	assert.Zero(t, cmp.Fraction)
}

func fillBlankQuestion(typ models.QuestionType) *models.Question {
	return &models.Question{ID: 9, Type: typ, Marks: 2, Options: []models.AnswerOption{
		{ID: 1, BlankIndex: 0, Text: "mitochondria"},
		{ID: 2, BlankIndex: 0, Text: "mitochondrion"},
		{ID: 3, BlankIndex: 1, Text: "ATP"},
	}}
}

func TestComparator_FillInBlank(t *testing.T) {
	c := NewComparator()
	q := fillBlankQuestion(models.FillInBlank)

	tests := []struct {
		name     string
		payload  string
		fraction float64
	}{
		{"all blanks correct", `{"blanks":["mitochondria","ATP"]}`, 1},
		{"alternative literal accepted", `{"blanks":["mitochondrion","ATP"]}`, 1},
		{"case and whitespace ignored", `{"blanks":["  Mitochondria ","atp"]}`, 1},
		{"one of two blanks", `{"blanks":["mitochondria","ADP"]}`, 0.5},
		{"missing second blank", `{"blanks":["mitochondria"]}`, 0.5},
		{"all wrong", `{"blanks":["nucleus","ADP"]}`, 0},
		{"malformed payload", `{"blanks":5}`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmp, err := c.Compare(q, []byte(tt.payload))
			require.NoError(t, err)
			assert.InDelta(t, tt.fraction, cmp.Fraction, 1e-9)
		})
	}
}

func TestComparator_AccountingTable_UsesBlankGrading(t *testing.T) {
	c := NewComparator()
	q := fillBlankQuestion(models.AccountingTable)

	cmp, err := c.Compare(q, []byte(`{"blanks":["mitochondria","atp"]}`))
	require.NoError(t, err)
	assert.True(t, cmp.Correct)
}

func TestComparator_Matching(t *testing.T) {
	c := NewComparator()
	q := &models.Question{ID: 11, Type: models.Matching, Marks: 3, Options: []models.AnswerOption{
		{ID: 1, Text: "Assets", MatchText: strPtr("Debit")},
		{ID: 2, Text: "Revenue", MatchText: strPtr("Credit")},
		{ID: 3, Text: "Liabilities", MatchText: strPtr("Credit")},
	}}

	tests := []struct {
		name     string
		payload  string
		fraction float64
	}{
		{"all pairs correct", `{"pairs":[{"option_id":1,"matched":"Debit"},{"option_id":2,"matched":"Credit"},{"option_id":3,"matched":"Credit"}]}`, 1},
		{"two of three", `{"pairs":[{"option_id":1,"matched":"Debit"},{"option_id":2,"matched":"Credit"},{"option_id":3,"matched":"Debit"}]}`, 2.0 / 3.0},
		{"duplicate pair counted once", `{"pairs":[{"option_id":1,"matched":"Debit"},{"option_id":1,"matched":"Debit"}]}`, 1.0 / 3.0},
		{"no pairs", `{"pairs":[]}`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmp, err := c.Compare(q, []byte(tt.payload))
			require.NoError(t, err)
			assert.InDelta(t, tt.fraction, cmp.Fraction, 1e-9)
		})
	}
}

func TestComparator_Ordering(t *testing.T) {
	c := NewComparator()
	q := &models.Question{ID: 13, Type: models.Ordering, Marks: 2, Options: []models.AnswerOption{
		{ID: 3, SortOrder: 2},
		{ID: 1, SortOrder: 0},
		{ID: 2, SortOrder: 1},
	}}

	tests := []struct {
		name     string
		payload  string
		fraction float64
	}{
		{"correct order", `{"ordered_option_ids":[1,2,3]}`, 1},
		{"one position right", `{"ordered_option_ids":[1,3,2]}`, 1.0 / 3.0},
		{"fully reversed", `{"ordered_option_ids":[3,2,1]}`, 1.0 / 3.0},
		{"wrong length is malformed", `{"ordered_option_ids":[1,2]}`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmp, err := c.Compare(q, []byte(tt.payload))
			require.NoError(t, err)
			assert.InDelta(t, tt.fraction, cmp.Fraction, 1e-9)
		})
	}
}
