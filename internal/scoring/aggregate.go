package scoring

import (
	"time"

	"gorm.io/datatypes"

	"github.com/SAP-F-2025/scoring-service/internal/models"
)

// Aggregator folds per-question scores into an attempt summary: totals,
// percentage, pass/fail, named grade, per-difficulty breakdown and timing
// statistics. Timing is informational only and never affects the outcome.
type Aggregator struct {
	cfg Config
}

func NewAggregator(cfg Config) *Aggregator {
	return &Aggregator{cfg: cfg}
}

// Aggregate builds the summary for one graded attempt. Every question is
// counted exactly once: correct, wrong or unanswered. A partially credited
// response counts as wrong but its marks still accrue. passPercentage <= 0
// falls back to the configured default. durationMinutes is the exam's
// allotted time; <= 0 disables the time-based ratios.
func (a *Aggregator) Aggregate(attemptID, examID uint, scores []models.ResponseScore, passPercentage float64, durationMinutes int, gradedAt time.Time) (models.AttemptSummary, error) {
	if len(scores) == 0 {
		return models.AttemptSummary{}, ErrNoQuestions
	}
	if passPercentage <= 0 {
		passPercentage = a.cfg.DefaultPassPercentage
	}

	summary := models.AttemptSummary{
		AttemptID:      attemptID,
		ExamID:         examID,
		TotalQuestions: len(scores),
		GradedAt:       gradedAt,
	}

	byDifficulty := make(map[models.DifficultyLevel]models.DifficultyBucket)
	timing := models.TimingStats{FastestSeconds: -1}

	for _, s := range scores {
		summary.MarksObtained += s.Marks
		summary.MaxMarks += s.MaxMarks

		switch {
		case !s.Answered:
			summary.Unanswered++
		case s.IsCorrect:
			summary.Correct++
		default:
			summary.Wrong++
		}

		bucket := byDifficulty[s.Difficulty]
		bucket.Total++
		if s.Answered && s.IsCorrect {
			bucket.Correct++
		}
		bucket.Marks += s.Marks
		bucket.MaxMarks += s.MaxMarks
		byDifficulty[s.Difficulty] = bucket

		timing.TotalSeconds += s.TimeSpent
		if timing.FastestSeconds < 0 || s.TimeSpent < timing.FastestSeconds {
			timing.FastestSeconds = s.TimeSpent
		}
		if s.TimeSpent > timing.SlowestSeconds {
			timing.SlowestSeconds = s.TimeSpent
		}
	}

	for d, bucket := range byDifficulty {
		if bucket.MaxMarks > 0 {
			bucket.Percentage = Round1(bucket.Marks / bucket.MaxMarks * 100)
		}
		bucket.Marks = Round1(bucket.Marks)
		bucket.MaxMarks = Round1(bucket.MaxMarks)
		byDifficulty[d] = bucket
	}

	timing.AverageSeconds = Round1(float64(timing.TotalSeconds) / float64(len(scores)))
	if durationMinutes > 0 {
		allotted := float64(durationMinutes * 60)
		used := float64(timing.TotalSeconds)
		timing.TimeEfficiency = Round1(used / allotted * 100)
		remaining := 1 - used/allotted
		if remaining < 0 {
			remaining = 0
		}
		timing.SpeedScore = Round1(remaining * 100)
	}

	// Pass/fail and grade come from the exact ratio; rounding is only
	// for the displayed figures.
	var exact float64
	if summary.MaxMarks > 0 {
		exact = summary.MarksObtained / summary.MaxMarks * 100
	}
	summary.MarksObtained = Round1(summary.MarksObtained)
	summary.MaxMarks = Round1(summary.MaxMarks)
	summary.Percentage = Round1(exact)
	summary.Passed = exact >= passPercentage
	summary.Grade = a.cfg.GradeFor(exact)
	summary.ByDifficulty = datatypes.NewJSONType(byDifficulty)
	summary.Timing = datatypes.NewJSONType(timing)
	return summary, nil
}
