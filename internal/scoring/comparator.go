package scoring

import (
	"fmt"
	"strings"

	"github.com/SAP-F-2025/scoring-service/internal/models"
)

// Comparison is the outcome of grading one objective response against its
// answer key. Fraction is the credit earned in [0,1]; Correct means full
// credit.
type Comparison struct {
	Fraction float64
	Correct  bool
}

func fullCredit() Comparison { return Comparison{Fraction: 1, Correct: true} }
func noCredit() Comparison   { return Comparison{} }
func partial(f float64) Comparison {
	if f >= 1 {
		return fullCredit()
	}
	if f <= 0 {
		return noCredit()
	}
	return Comparison{Fraction: f}
}

// Comparator grades objective (option-keyed) question types. It is
// stateless and safe for concurrent use.
type Comparator struct{}

func NewComparator() *Comparator {
	return &Comparator{}
}

// Compare grades one response payload against the question's answer key.
// A payload that does not decode, or whose shape does not fit the question
// type, earns zero credit rather than failing the attempt. A broken answer
// key returns a *MisconfiguredQuestionError for the engine's policy to
// resolve.
func (c *Comparator) Compare(q *models.Question, raw []byte) (Comparison, error) {
	switch q.Type {
	case models.SingleChoice, models.TrueFalse:
		return c.compareSingle(q, raw)
	case models.MultipleChoice:
		return c.compareMultiple(q, raw)
	case models.FillInBlank, models.AccountingTable:
		return c.compareFillBlank(q, raw)
	case models.Matching:
		return c.compareMatching(q, raw)
	case models.Ordering:
		return c.compareOrdering(q, raw)
	default:
		return noCredit(), fmt.Errorf("comparator cannot grade question type %s", q.Type)
	}
}

func (c *Comparator) compareSingle(q *models.Question, raw []byte) (Comparison, error) {
	key := correctOptionSet(q)
	if len(key) != 1 {
		return noCredit(), &MisconfiguredQuestionError{
			QuestionID: q.ID, Type: q.Type,
			Reason: fmt.Sprintf("expected exactly 1 correct option, found %d", len(key)),
		}
	}
	ans, err := models.DecodeChoiceAnswer(raw)
	if err != nil || len(ans.SelectedOptionIDs) != 1 {
		return noCredit(), nil
	}
	if _, ok := key[ans.SelectedOptionIDs[0]]; ok {
		return fullCredit(), nil
	}
	return noCredit(), nil
}

// compareMultiple awards Jaccard partial credit: |key ∩ selected| over
// |key ∪ selected|. Over-selection dilutes the score instead of zeroing it.
func (c *Comparator) compareMultiple(q *models.Question, raw []byte) (Comparison, error) {
	key := correctOptionSet(q)
	if len(key) == 0 {
		return noCredit(), &MisconfiguredQuestionError{
			QuestionID: q.ID, Type: q.Type, Reason: "no correct options",
		}
	}
	ans, err := models.DecodeChoiceAnswer(raw)
	if err != nil || len(ans.SelectedOptionIDs) == 0 {
		return noCredit(), nil
	}
	selected := make(map[uint]struct{}, len(ans.SelectedOptionIDs))
	valid := optionIDSet(q)
	for _, id := range ans.SelectedOptionIDs {
		if _, ok := valid[id]; !ok {
			// Unknown option id: the payload does not belong to this
			// question, treat as malformed.
			return noCredit(), nil
		}
		selected[id] = struct{}{}
	}
	intersection := 0
	for id := range selected {
		if _, ok := key[id]; ok {
			intersection++
		}
	}
	union := len(key) + len(selected) - intersection
	return partial(float64(intersection) / float64(union)), nil
}

// compareFillBlank grades each blank against its set of accepted literals,
// positionally. Credit is the fraction of blanks answered correctly.
// Accounting tables reuse this path with each cell as one blank.
func (c *Comparator) compareFillBlank(q *models.Question, raw []byte) (Comparison, error) {
	accepted := acceptedByBlank(q)
	if len(accepted) == 0 {
		return noCredit(), &MisconfiguredQuestionError{
			QuestionID: q.ID, Type: q.Type, Reason: "no accepted answers configured",
		}
	}
	ans, err := models.DecodeFillBlankAnswer(raw)
	if err != nil {
		return noCredit(), nil
	}
	correct := 0
	for idx, literals := range accepted {
		if idx >= len(ans.Blanks) {
			continue
		}
		given := normalizeText(ans.Blanks[idx])
		if given == "" {
			continue
		}
		for _, want := range literals {
			if given == want {
				correct++
				break
			}
		}
	}
	return partial(float64(correct) / float64(len(accepted))), nil
}

func (c *Comparator) compareMatching(q *models.Question, raw []byte) (Comparison, error) {
	key := make(map[uint]string)
	for _, o := range q.Options {
		if o.MatchText != nil {
			key[o.ID] = normalizeText(*o.MatchText)
		}
	}
	if len(key) == 0 {
		return noCredit(), &MisconfiguredQuestionError{
			QuestionID: q.ID, Type: q.Type, Reason: "no match pairs configured",
		}
	}
	ans, err := models.DecodeMatchingAnswer(raw)
	if err != nil {
		return noCredit(), nil
	}
	matched := make(map[uint]struct{}, len(key))
	correct := 0
	for _, pair := range ans.Pairs {
		if _, dup := matched[pair.OptionID]; dup {
			continue
		}
		matched[pair.OptionID] = struct{}{}
		if want, ok := key[pair.OptionID]; ok && normalizeText(pair.Matched) == want {
			correct++
		}
	}
	return partial(float64(correct) / float64(len(key))), nil
}

// compareOrdering awards credit per position that holds the right option.
func (c *Comparator) compareOrdering(q *models.Question, raw []byte) (Comparison, error) {
	ordered := orderedOptionIDs(q)
	if len(ordered) < 2 {
		return noCredit(), &MisconfiguredQuestionError{
			QuestionID: q.ID, Type: q.Type, Reason: "fewer than 2 orderable options",
		}
	}
	ans, err := models.DecodeOrderingAnswer(raw)
	if err != nil || len(ans.OrderedOptionIDs) != len(ordered) {
		return noCredit(), nil
	}
	correct := 0
	for i, id := range ans.OrderedOptionIDs {
		if ordered[i] == id {
			correct++
		}
	}
	return partial(float64(correct) / float64(len(ordered))), nil
}

// ===== ANSWER KEY HELPERS =====

func correctOptionSet(q *models.Question) map[uint]struct{} {
	set := make(map[uint]struct{})
	for _, o := range q.Options {
		if o.IsCorrect {
			set[o.ID] = struct{}{}
		}
	}
	return set
}

func optionIDSet(q *models.Question) map[uint]struct{} {
	set := make(map[uint]struct{}, len(q.Options))
	for _, o := range q.Options {
		set[o.ID] = struct{}{}
	}
	return set
}

// acceptedByBlank groups normalized accepted literals per blank index.
// Blank indexes must be dense from 0; gaps collapse to the observed set.
func acceptedByBlank(q *models.Question) map[int][]string {
	out := make(map[int][]string)
	for _, o := range q.Options {
		norm := normalizeText(o.Text)
		if norm == "" {
			continue
		}
		out[o.BlankIndex] = append(out[o.BlankIndex], norm)
	}
	return out
}

func orderedOptionIDs(q *models.Question) []uint {
	opts := make([]models.AnswerOption, len(q.Options))
	copy(opts, q.Options)
	for i := 1; i < len(opts); i++ {
		for j := i; j > 0 && opts[j].SortOrder < opts[j-1].SortOrder; j-- {
			opts[j], opts[j-1] = opts[j-1], opts[j]
		}
	}
	ids := make([]uint, len(opts))
	for i, o := range opts {
		ids[i] = o.ID
	}
	return ids
}

// normalizeText lowercases, trims and collapses internal whitespace so
// literal comparisons ignore formatting noise.
func normalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
