package scoring

import (
	"math/rand"
	"sort"

	"github.com/SAP-F-2025/scoring-service/internal/models"
)

// Selector draws an attempt's question set from a bank according to an
// exam's per-type counts. Sampling within a type is uniform; callers own
// the *rand.Rand so selection can be seeded deterministically in tests.
type Selector struct {
	rng *rand.Rand
}

func NewSelector(rng *rand.Rand) *Selector {
	return &Selector{rng: rng}
}

// Select returns exactly counts.Total() questions, or fails fast with an
// *InsufficientQuestionsError naming the first type the bank cannot cover.
// No partial paper is ever returned. Inactive questions are never drawn.
func (s *Selector) Select(bank []models.Question, counts models.QuestionCounts) ([]models.Question, error) {
	if len(bank) == 0 {
		return nil, ErrEmptyBank
	}

	byType := make(map[models.QuestionType][]models.Question)
	for _, q := range bank {
		if !q.IsActive {
			continue
		}
		byType[q.Type] = append(byType[q.Type], q)
	}

	// Deterministic type order keeps error reporting and paper layout
	// stable for a given seed.
	types := make([]models.QuestionType, 0, len(counts))
	for t := range counts {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	// Verify every type before drawing anything.
	for _, t := range types {
		need := counts[t]
		if need <= 0 {
			continue
		}
		if have := len(byType[t]); have < need {
			return nil, &InsufficientQuestionsError{Type: t, Requested: need, Available: have}
		}
	}

	var paper []models.Question
	for _, t := range types {
		need := counts[t]
		if need <= 0 {
			continue
		}
		pool := byType[t]
		for _, i := range s.rng.Perm(len(pool))[:need] {
			paper = append(paper, pool[i])
		}
	}

	// Shuffle the whole paper so questions of one type are not clumped.
	s.rng.Shuffle(len(paper), func(i, j int) {
		paper[i], paper[j] = paper[j], paper[i]
	})
	return paper, nil
}
