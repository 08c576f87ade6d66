package scoring

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"gorm.io/datatypes"

	"github.com/SAP-F-2025/scoring-service/internal/models"
)

// Engine grades submitted attempts. Scoring is a pure function of the
// paper, the responses and the configuration: no clock, no randomness,
// no I/O. Questions are graded concurrently and joined at a barrier, so
// the returned slice is always complete or the call fails as a whole.
type Engine struct {
	cfg        Config
	comparator *Comparator
	freeText   *FreeTextScorer
	logger     *slog.Logger
}

func NewEngine(cfg Config, logger *slog.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("scoring config: %w", err)
	}
	return &Engine{
		cfg:        cfg,
		comparator: NewComparator(),
		freeText:   NewFreeTextScorer(cfg.FreeText),
		logger:     logger,
	}, nil
}

func (e *Engine) Config() Config {
	return e.cfg
}

// ScoreAttempt grades every question of the paper. Questions without a
// response are recorded as unanswered with zero credit, never omitted.
// Marks per question are rounded to one decimal. On context cancellation
// all partial work is discarded and the context error is returned.
func (e *Engine) ScoreAttempt(ctx context.Context, attemptID uint, questions []models.Question, responses []models.StudentResponse) ([]models.ResponseScore, error) {
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}

	paper := make(map[uint]struct{}, len(questions))
	for i := range questions {
		paper[questions[i].ID] = struct{}{}
	}
	byQuestion := make(map[uint]*models.StudentResponse, len(responses))
	for i := range responses {
		if _, ok := paper[responses[i].QuestionID]; !ok {
			e.logger.Warn("dropping response for question outside the paper",
				"attempt_id", attemptID,
				"question_id", responses[i].QuestionID)
			continue
		}
		byQuestion[responses[i].QuestionID] = &responses[i]
	}

	scores := make([]models.ResponseScore, len(questions))
	errs := make([]error, len(questions))
	var wg sync.WaitGroup
	for i := range questions {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			scores[i], errs[i] = e.scoreQuestion(attemptID, &questions[i], byQuestion[questions[i].ID])
		}(i)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return scores, nil
}

func (e *Engine) scoreQuestion(attemptID uint, q *models.Question, resp *models.StudentResponse) (models.ResponseScore, error) {
	score := models.ResponseScore{
		AttemptID:    attemptID,
		QuestionID:   q.ID,
		QuestionType: q.Type,
		Difficulty:   q.Difficulty,
		MaxMarks:     q.Marks,
	}
	if resp != nil {
		score.TimeSpent = resp.TimeSpent
	}
	if resp == nil || !resp.IsAnswered() {
		return score, nil
	}
	if models.IsEmptyAnswerPayload(q.Type, resp.AnswerData) {
		// A payload with no content, like whitespace-only text or an
		// empty selection list, counts as unanswered.
		return score, nil
	}
	score.Answered = true

	if q.Type.IsFreeText() {
		return e.scoreFreeText(score, q, resp)
	}

	cmp, err := e.comparator.Compare(q, resp.AnswerData)
	if err != nil {
		if IsMisconfiguredQuestion(err) && e.cfg.Misconfigured == PolicySkipWithWarning {
			e.logger.Warn("skipping misconfigured question",
				"attempt_id", attemptID,
				"question_id", q.ID,
				"error", err)
			return score, nil
		}
		return models.ResponseScore{}, err
	}
	score.Fraction = cmp.Fraction
	score.IsCorrect = cmp.Correct
	score.Marks = Round1(cmp.Fraction * q.Marks)
	score.Feedback = objectiveFeedback(cmp)
	return score, nil
}

func objectiveFeedback(cmp Comparison) string {
	switch {
	case cmp.Correct:
		return "Correct."
	case cmp.Fraction > 0:
		return "Partially correct."
	default:
		return "Incorrect."
	}
}

func (e *Engine) scoreFreeText(score models.ResponseScore, q *models.Question, resp *models.StudentResponse) (models.ResponseScore, error) {
	modelAnswer, ok := q.ModelAnswer()
	if !ok || modelAnswer == "" {
		err := &MisconfiguredQuestionError{QuestionID: q.ID, Type: q.Type, Reason: "no model answer"}
		if e.cfg.Misconfigured == PolicySkipWithWarning {
			e.logger.Warn("skipping misconfigured question",
				"attempt_id", score.AttemptID,
				"question_id", q.ID,
				"error", err)
			return score, nil
		}
		return models.ResponseScore{}, err
	}

	ans, decodeErr := models.DecodeTextAnswer(resp.AnswerData)
	if decodeErr != nil {
		// Malformed payload scores zero, same as the objective path.
		return score, nil
	}

	sub := e.freeText.Score(modelAnswer, ans.Text)
	score.Fraction = sub.Composite
	score.IsCorrect = e.freeText.IsCorrect(sub.Composite)
	score.Marks = Round1(sub.Composite * q.Marks)
	score.Feedback = e.freeText.Feedback(sub)
	js := datatypes.NewJSONType(sub)
	score.Subscores = &js
	return score, nil
}
