package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Answer payloads stored in student_responses.answer_data. Each question
// type decodes into exactly one payload shape; a payload that does not
// decode or does not match the question type is treated as malformed and
// scores zero rather than failing the attempt.

type ChoiceAnswer struct {
	SelectedOptionIDs []uint `json:"selected_option_ids"`
}

type FillBlankAnswer struct {
	// Blanks holds the student's entry per blank, positionally.
	Blanks []string `json:"blanks"`
}

type MatchingAnswer struct {
	Pairs []MatchingPair `json:"pairs"`
}

type MatchingPair struct {
	OptionID uint   `json:"option_id"`
	Matched  string `json:"matched"`
}

type OrderingAnswer struct {
	OrderedOptionIDs []uint `json:"ordered_option_ids"`
}

type TextAnswer struct {
	Text string `json:"text"`
}

func DecodeChoiceAnswer(raw []byte) (ChoiceAnswer, error) {
	var a ChoiceAnswer
	if err := json.Unmarshal(raw, &a); err != nil {
		return ChoiceAnswer{}, fmt.Errorf("decode choice answer: %w", err)
	}
	return a, nil
}

func DecodeFillBlankAnswer(raw []byte) (FillBlankAnswer, error) {
	var a FillBlankAnswer
	if err := json.Unmarshal(raw, &a); err != nil {
		return FillBlankAnswer{}, fmt.Errorf("decode fill-blank answer: %w", err)
	}
	return a, nil
}

func DecodeMatchingAnswer(raw []byte) (MatchingAnswer, error) {
	var a MatchingAnswer
	if err := json.Unmarshal(raw, &a); err != nil {
		return MatchingAnswer{}, fmt.Errorf("decode matching answer: %w", err)
	}
	return a, nil
}

func DecodeOrderingAnswer(raw []byte) (OrderingAnswer, error) {
	var a OrderingAnswer
	if err := json.Unmarshal(raw, &a); err != nil {
		return OrderingAnswer{}, fmt.Errorf("decode ordering answer: %w", err)
	}
	return a, nil
}

func DecodeTextAnswer(raw []byte) (TextAnswer, error) {
	var a TextAnswer
	if err := json.Unmarshal(raw, &a); err != nil {
		return TextAnswer{}, fmt.Errorf("decode text answer: %w", err)
	}
	return a, nil
}

// IsEmptyAnswerPayload reports whether a stored payload carries no usable
// answer for the given question type: whitespace-only text, no selected
// options, all blanks empty, no pairs, no ordered ids. Such responses count
// as unanswered rather than wrong. A payload that does not decode is not
// empty; it stays answered and scores zero as malformed.
func IsEmptyAnswerPayload(t QuestionType, raw []byte) bool {
	switch {
	case t.IsChoice():
		a, err := DecodeChoiceAnswer(raw)
		return err == nil && len(a.SelectedOptionIDs) == 0
	case t == FillInBlank || t == AccountingTable:
		a, err := DecodeFillBlankAnswer(raw)
		if err != nil {
			return false
		}
		for _, b := range a.Blanks {
			if strings.TrimSpace(b) != "" {
				return false
			}
		}
		return true
	case t == Matching:
		a, err := DecodeMatchingAnswer(raw)
		return err == nil && len(a.Pairs) == 0
	case t == Ordering:
		a, err := DecodeOrderingAnswer(raw)
		return err == nil && len(a.OrderedOptionIDs) == 0
	case t.IsFreeText():
		a, err := DecodeTextAnswer(raw)
		return err == nil && strings.TrimSpace(a.Text) == ""
	default:
		return false
	}
}
