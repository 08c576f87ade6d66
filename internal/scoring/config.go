package scoring

import (
	"fmt"
	"math"
)

// MisconfiguredPolicy controls what happens when a question's answer key is
// unusable (no correct option, no blanks, empty model answer).
type MisconfiguredPolicy string

const (
	// PolicySkipWithWarning awards zero credit for the question, logs a
	// warning and keeps grading the rest of the attempt.
	PolicySkipWithWarning MisconfiguredPolicy = "skip_with_warning"
	// PolicyFail aborts grading of the whole attempt.
	PolicyFail MisconfiguredPolicy = "fail"
)

// FreeTextWeights blends the five free-text subscores into a composite.
// Weights must sum to 1.
type FreeTextWeights struct {
	Keyword   float64 `json:"keyword"`
	Semantic  float64 `json:"semantic"`
	Structure float64 `json:"structure"`
	Language  float64 `json:"language"`
	Coherence float64 `json:"coherence"`
}

func (w FreeTextWeights) sum() float64 {
	return w.Keyword + w.Semantic + w.Structure + w.Language + w.Coherence
}

// FreeTextConfig parameterises the essay / short-answer scorer.
type FreeTextConfig struct {
	Weights FreeTextWeights `json:"weights"`

	// CorrectnessThreshold marks a free-text response correct when its
	// composite reaches it.
	CorrectnessThreshold float64 `json:"correctness_threshold"`

	// CloseMatchFloor is the minimum composite awarded to a response that
	// closely matches the model answer.
	CloseMatchFloor float64 `json:"close_match_floor"`

	// GibberishCeiling caps the composite of a response with no keyword
	// and no semantic overlap with the model answer.
	GibberishCeiling float64 `json:"gibberish_ceiling"`

	// MinKeywordStem is the shortest shared prefix that counts as a
	// keyword match between differently inflected forms.
	MinKeywordStem int `json:"min_keyword_stem"`
}

// GradeBand maps a minimum percentage to a named grade. Bands are checked
// in order; the first band whose floor is met wins.
type GradeBand struct {
	Floor float64 `json:"floor"`
	Grade string  `json:"grade"`
}

// Config carries every tunable of the grading engine. The zero value is
// not usable; start from DefaultConfig.
type Config struct {
	FreeText FreeTextConfig `json:"free_text"`

	// GradeBands in descending floor order, with a final catch-all at 0.
	GradeBands []GradeBand `json:"grade_bands"`

	// DefaultPassPercentage applies when an exam does not set one.
	DefaultPassPercentage float64 `json:"default_pass_percentage"`

	Misconfigured MisconfiguredPolicy `json:"misconfigured_policy"`
}

// DefaultConfig returns the production configuration.
func DefaultConfig() Config {
	return Config{
		FreeText: FreeTextConfig{
			Weights: FreeTextWeights{
				Keyword:   0.30,
				Semantic:  0.30,
				Structure: 0.20,
				Language:  0.10,
				Coherence: 0.10,
			},
			CorrectnessThreshold: 0.60,
			CloseMatchFloor:      0.80,
			GibberishCeiling:     0.10,
			MinKeywordStem:       4,
		},
		GradeBands: []GradeBand{
			{Floor: 90, Grade: "A"},
			{Floor: 80, Grade: "B+"},
			{Floor: 70, Grade: "B"},
			{Floor: 60, Grade: "C"},
			{Floor: 50, Grade: "D"},
			{Floor: 0, Grade: "F"},
		},
		DefaultPassPercentage: 50,
		Misconfigured:         PolicySkipWithWarning,
	}
}

// Validate checks the configuration for internal consistency.
func (c Config) Validate() error {
	if math.Abs(c.FreeText.Weights.sum()-1.0) > 1e-9 {
		return fmt.Errorf("free-text weights sum to %.4f, want 1.0", c.FreeText.Weights.sum())
	}
	if c.FreeText.CorrectnessThreshold < 0 || c.FreeText.CorrectnessThreshold > 1 {
		return fmt.Errorf("correctness threshold %.2f out of [0,1]", c.FreeText.CorrectnessThreshold)
	}
	if c.FreeText.CloseMatchFloor < 0 || c.FreeText.CloseMatchFloor > 1 {
		return fmt.Errorf("close-match floor %.2f out of [0,1]", c.FreeText.CloseMatchFloor)
	}
	if c.FreeText.GibberishCeiling < 0 || c.FreeText.GibberishCeiling > 1 {
		return fmt.Errorf("gibberish ceiling %.2f out of [0,1]", c.FreeText.GibberishCeiling)
	}
	if len(c.GradeBands) == 0 {
		return fmt.Errorf("no grade bands configured")
	}
	prev := math.Inf(1)
	for _, b := range c.GradeBands {
		if b.Floor >= prev {
			return fmt.Errorf("grade bands must be in strictly descending floor order")
		}
		if b.Grade == "" {
			return fmt.Errorf("grade band at floor %.0f has no name", b.Floor)
		}
		prev = b.Floor
	}
	if last := c.GradeBands[len(c.GradeBands)-1]; last.Floor != 0 {
		return fmt.Errorf("last grade band must have floor 0, got %.0f", last.Floor)
	}
	switch c.Misconfigured {
	case PolicySkipWithWarning, PolicyFail:
	default:
		return fmt.Errorf("unknown misconfigured-question policy %q", c.Misconfigured)
	}
	return nil
}

// GradeFor resolves the named grade for a percentage.
func (c Config) GradeFor(percentage float64) string {
	for _, b := range c.GradeBands {
		if percentage >= b.Floor {
			return b.Grade
		}
	}
	return c.GradeBands[len(c.GradeBands)-1].Grade
}

// Round1 rounds to one decimal place, half away from zero. All persisted
// marks and percentages go through it.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
