package scoring

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/SAP-F-2025/scoring-service/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()
	e, err := NewEngine(cfg, testLogger())
	require.NoError(t, err)
	return e
}

func response(questionID uint, payload string, timeSpent int) models.StudentResponse {
	return models.StudentResponse{
		QuestionID: questionID,
		AnswerData: datatypes.JSON(payload),
		TimeSpent:  timeSpent,
	}
}

func attemptPaper() []models.Question {
	return []models.Question{
		{
			ID: 1, Type: models.SingleChoice, Marks: 2, Difficulty: models.DifficultyEasy,
			Options: []models.AnswerOption{
				{ID: 10, IsCorrect: true}, {ID: 11}, {ID: 12},
			},
		},
		{
			ID: 2, Type: models.MultipleChoice, Marks: 3, Difficulty: models.DifficultyMedium,
			Options: []models.AnswerOption{
				{ID: 20, IsCorrect: true}, {ID: 21, IsCorrect: true}, {ID: 22},
			},
		},
		{
			ID: 3, Type: models.ShortAnswer, Marks: 5, Difficulty: models.DifficultyHard,
			Options: []models.AnswerOption{
				{ID: 30, IsCorrect: true, Text: photosynthesisModel},
			},
		},
		{
			ID: 4, Type: models.TrueFalse, Marks: 1, Difficulty: models.DifficultyEasy,
			Options: []models.AnswerOption{
				{ID: 40, IsCorrect: true}, {ID: 41},
			},
		},
	}
}

func TestEngine_ScoreAttempt(t *testing.T) {
	e := newEngine(t, DefaultConfig())
	responses := []models.StudentResponse{
		response(1, `{"selected_option_ids":[10]}`, 30),
		response(2, `{"selected_option_ids":[20]}`, 45),
		response(3, `{"text":"`+photosynthesisModel+`"}`, 120),
		// question 4 left unanswered
	}

	scores, err := e.ScoreAttempt(context.Background(), 77, attemptPaper(), responses)
	require.NoError(t, err)
	require.Len(t, scores, 4, "every question scored, answered or not")

	byQuestion := map[uint]models.ResponseScore{}
	for _, s := range scores {
		assert.Equal(t, uint(77), s.AttemptID)
		byQuestion[s.QuestionID] = s
	}

	q1 := byQuestion[1]
	assert.True(t, q1.Answered)
	assert.True(t, q1.IsCorrect)
	assert.Equal(t, 2.0, q1.Marks)
	assert.Equal(t, 30, q1.TimeSpent)

	assert.Equal(t, "Correct.", q1.Feedback)

	// Jaccard 1/2 of 3 marks = 1.5
	q2 := byQuestion[2]
	assert.True(t, q2.Answered)
	assert.False(t, q2.IsCorrect)
	assert.Equal(t, 1.5, q2.Marks)
	assert.Equal(t, "Partially correct.", q2.Feedback)

	q3 := byQuestion[3]
	assert.True(t, q3.Answered)
	assert.True(t, q3.IsCorrect)
	assert.NotEmpty(t, q3.Feedback)
	require.NotNil(t, q3.Subscores)
	assert.GreaterOrEqual(t, q3.Subscores.Data().Composite, 0.80)
	assert.GreaterOrEqual(t, q3.Marks, 4.0)

	q4 := byQuestion[4]
	assert.False(t, q4.Answered)
	assert.False(t, q4.IsCorrect)
	assert.Zero(t, q4.Marks)
	assert.Equal(t, 1.0, q4.MaxMarks)
}

func TestEngine_EmptyPayloadsCountAsUnanswered(t *testing.T) {
	e := newEngine(t, DefaultConfig())
	questions := []models.Question{
		{ID: 1, Type: models.Essay, Marks: 5,
			Options: []models.AnswerOption{{ID: 10, IsCorrect: true, Text: photosynthesisModel}}},
		{ID: 2, Type: models.SingleChoice, Marks: 2,
			Options: []models.AnswerOption{{ID: 20, IsCorrect: true}, {ID: 21}}},
		{ID: 3, Type: models.FillInBlank, Marks: 2,
			Options: []models.AnswerOption{{ID: 30, IsCorrect: true, Text: "debit", BlankIndex: 0}}},
		{ID: 4, Type: models.Matching, Marks: 2,
			Options: []models.AnswerOption{{ID: 40, MatchText: strPtr("left")}}},
		{ID: 5, Type: models.Ordering, Marks: 2,
			Options: []models.AnswerOption{{ID: 50, SortOrder: 1}, {ID: 51, SortOrder: 2}}},
	}
	responses := []models.StudentResponse{
		response(1, `{"text":"   "}`, 20),
		response(2, `{"selected_option_ids":[]}`, 10),
		response(3, `{"blanks":["", "  "]}`, 10),
		response(4, `{"pairs":[]}`, 10),
		response(5, `{"ordered_option_ids":[]}`, 10),
	}

	scores, err := e.ScoreAttempt(context.Background(), 9, questions, responses)
	require.NoError(t, err)
	require.Len(t, scores, 5)
	for _, s := range scores {
		assert.False(t, s.Answered, "question %d: empty payload must stay unanswered", s.QuestionID)
		assert.Zero(t, s.Marks)
	}

	summary, err := NewAggregator(DefaultConfig()).Aggregate(9, 1, scores, 50, 0, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 5, summary.Unanswered)
	assert.Zero(t, summary.Wrong)
}

func TestEngine_MarksRoundedToOneDecimal(t *testing.T) {
	e := newEngine(t, DefaultConfig())
	questions := []models.Question{
		{
			ID: 1, Type: models.MultipleChoice, Marks: 2.5,
			Options: []models.AnswerOption{
				{ID: 1, IsCorrect: true}, {ID: 2, IsCorrect: true}, {ID: 3, IsCorrect: true},
			},
		},
	}
	// Jaccard 1/3 of 2.5 marks = 0.8333…
	scores, err := e.ScoreAttempt(context.Background(), 1, questions,
		[]models.StudentResponse{response(1, `{"selected_option_ids":[1]}`, 0)})
	require.NoError(t, err)
	assert.Equal(t, 0.8, scores[0].Marks)
}

func TestEngine_Deterministic(t *testing.T) {
	e := newEngine(t, DefaultConfig())
	responses := []models.StudentResponse{
		response(1, `{"selected_option_ids":[10]}`, 30),
		response(3, `{"text":"Plants turn light into glucose."}`, 90),
	}

	first, err := e.ScoreAttempt(context.Background(), 5, attemptPaper(), responses)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := e.ScoreAttempt(context.Background(), 5, attemptPaper(), responses)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestEngine_MisconfiguredQuestionSkippedByDefault(t *testing.T) {
	e := newEngine(t, DefaultConfig())
	questions := []models.Question{
		{ID: 1, Type: models.SingleChoice, Marks: 2,
			Options: []models.AnswerOption{{ID: 1}, {ID: 2}}}, // no correct option
		{ID: 2, Type: models.TrueFalse, Marks: 1,
			Options: []models.AnswerOption{{ID: 3, IsCorrect: true}, {ID: 4}}},
	}
	responses := []models.StudentResponse{
		response(1, `{"selected_option_ids":[1]}`, 10),
		response(2, `{"selected_option_ids":[3]}`, 10),
	}

	scores, err := e.ScoreAttempt(context.Background(), 1, questions, responses)
	require.NoError(t, err)
	require.Len(t, scores, 2)
	assert.Zero(t, scores[0].Marks, "misconfigured question earns no credit")
	assert.True(t, scores[1].IsCorrect, "rest of the attempt still graded")
}

func TestEngine_MisconfiguredQuestionFailPolicy(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Misconfigured = PolicyFail
	e := newEngine(t, cfg)
	questions := []models.Question{
		{ID: 1, Type: models.SingleChoice, Marks: 2,
			Options: []models.AnswerOption{{ID: 1}, {ID: 2}}},
	}

	_, err := e.ScoreAttempt(context.Background(), 1, questions,
		[]models.StudentResponse{response(1, `{"selected_option_ids":[1]}`, 0)})
	require.Error(t, err)
	assert.True(t, IsMisconfiguredQuestion(err))
}

func TestEngine_CancelledContextDiscardsScores(t *testing.T) {
	e := newEngine(t, DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	scores, err := e.ScoreAttempt(ctx, 1, attemptPaper(), nil)
	assert.Nil(t, scores)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEngine_EmptyPaper(t *testing.T) {
	e := newEngine(t, DefaultConfig())
	_, err := e.ScoreAttempt(context.Background(), 1, nil, nil)
	assert.ErrorIs(t, err, ErrNoQuestions)
}

func TestEngine_RejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FreeText.Weights.Keyword = 0.9 // weights no longer sum to 1
	_, err := NewEngine(cfg, testLogger())
	assert.Error(t, err)
}
