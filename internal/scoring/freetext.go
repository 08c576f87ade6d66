package scoring

import (
	"math"
	"strings"
	"unicode"

	"github.com/SAP-F-2025/scoring-service/internal/models"
)

// FreeTextScorer grades essay and short-answer responses against a model
// answer using lexical heuristics. It is deterministic: the same inputs
// always produce the same subscores. Safe for concurrent use.
type FreeTextScorer struct {
	cfg FreeTextConfig
}

func NewFreeTextScorer(cfg FreeTextConfig) *FreeTextScorer {
	return &FreeTextScorer{cfg: cfg}
}

// Score computes the five subscores and their weighted composite.
//
// Guardrails, applied in order:
//  1. an empty or whitespace-only response scores exactly 0
//  2. a response with zero keyword and zero semantic overlap is capped at
//     the gibberish ceiling
//  3. a response closely matching the model answer is floored at the
//     close-match minimum
func (s *FreeTextScorer) Score(modelAnswer, student string) models.FreeTextSubscores {
	if strings.TrimSpace(student) == "" {
		return models.FreeTextSubscores{}
	}

	modelTokens := tokenize(modelAnswer)
	studentTokens := tokenize(student)

	sub := models.FreeTextSubscores{
		Keyword:   s.keywordScore(modelAnswer, modelTokens, student, studentTokens),
		Semantic:  semanticScore(modelTokens, studentTokens),
		Structure: structureScore(modelTokens, studentTokens),
		Language:  languageScore(studentTokens),
		Coherence: coherenceScore(student, studentTokens),
	}

	w := s.cfg.Weights
	composite := w.Keyword*sub.Keyword +
		w.Semantic*sub.Semantic +
		w.Structure*sub.Structure +
		w.Language*sub.Language +
		w.Coherence*sub.Coherence

	if sub.Keyword == 0 && sub.Semantic == 0 {
		composite = math.Min(composite, s.cfg.GibberishCeiling)
	}
	if s.isCloseMatch(modelAnswer, student, sub) {
		composite = math.Max(composite, s.cfg.CloseMatchFloor)
	}

	sub.Composite = clamp01(composite)
	return sub
}

// IsCorrect applies the correctness threshold to a composite.
func (s *FreeTextScorer) IsCorrect(composite float64) bool {
	return composite >= s.cfg.CorrectnessThreshold
}

// Feedback summarizes the weak dimensions of a scored response for the
// student. A blank subscore set means the response was empty.
func (s *FreeTextScorer) Feedback(sub models.FreeTextSubscores) string {
	if sub == (models.FreeTextSubscores{}) {
		return "No answer was provided."
	}
	if s.IsCorrect(sub.Composite) {
		return "The answer covers the expected content well."
	}

	var weak []string
	if sub.Keyword < 0.5 {
		weak = append(weak, "key terms from the expected answer are missing")
	}
	if sub.Semantic < 0.5 {
		weak = append(weak, "the content overlaps little with the expected answer")
	}
	if sub.Structure < 0.5 {
		weak = append(weak, "the answer is much shorter or longer than expected")
	}
	if sub.Language < 0.5 {
		weak = append(weak, "much of the text does not read as real words")
	}
	if sub.Coherence < 0.5 {
		weak = append(weak, "ideas are not connected across sentences")
	}

	if len(weak) == 0 {
		return "The answer is on topic but does not cover the expected content fully."
	}
	return "To improve: " + strings.Join(weak, "; ") + "."
}

func (s *FreeTextScorer) isCloseMatch(modelAnswer, student string, sub models.FreeTextSubscores) bool {
	if normalizeText(modelAnswer) == normalizeText(student) {
		return true
	}
	return sub.Keyword >= 1 && sub.Semantic >= 0.9
}

// keywordScore is the fraction of the model answer's content words found
// in the response. A match is an equal token or a shared stem: one token
// a prefix of the other with at least MinKeywordStem characters in common.
func (s *FreeTextScorer) keywordScore(modelAnswer string, modelTokens []string, student string, studentTokens []string) float64 {
	keywords := uniqueContentTokens(modelTokens)
	if len(keywords) == 0 {
		// A model answer of only function words degenerates to a
		// literal comparison.
		if normalizeText(modelAnswer) == normalizeText(student) {
			return 1
		}
		return 0
	}
	studentContent := uniqueContentTokens(studentTokens)
	matched := 0
	for _, kw := range keywords {
		for _, st := range studentContent {
			if tokensMatch(kw, st, s.cfg.MinKeywordStem) {
				matched++
				break
			}
		}
	}
	return float64(matched) / float64(len(keywords))
}

func tokensMatch(a, b string, minStem int) bool {
	if a == b {
		return true
	}
	short, long := a, b
	if len(short) > len(long) {
		short, long = long, short
	}
	return len(short) >= minStem && strings.HasPrefix(long, short)
}

// semanticScore is the cosine similarity of term-frequency vectors over
// content words.
func semanticScore(modelTokens, studentTokens []string) float64 {
	mv := termFreq(modelTokens)
	sv := termFreq(studentTokens)
	if len(mv) == 0 || len(sv) == 0 {
		return 0
	}
	var dot, mNorm, sNorm float64
	for tok, mf := range mv {
		mNorm += float64(mf * mf)
		if sf, ok := sv[tok]; ok {
			dot += float64(mf * sf)
		}
	}
	for _, sf := range sv {
		sNorm += float64(sf * sf)
	}
	if dot == 0 {
		return 0
	}
	return dot / (math.Sqrt(mNorm) * math.Sqrt(sNorm))
}

// structureScore rewards responses whose length is in proportion to the
// model answer. Anything from half to double the model's word count earns
// full credit; shorter or longer degrades linearly.
func structureScore(modelTokens, studentTokens []string) float64 {
	mw, sw := len(modelTokens), len(studentTokens)
	if sw == 0 || mw == 0 {
		return 0
	}
	ratio := float64(sw) / float64(mw)
	if ratio > 1 {
		ratio = 1 / ratio
	}
	if ratio >= 0.5 {
		return 1
	}
	return ratio * 2
}

// languageScore is the fraction of tokens that look like real words:
// they contain a vowel and are not implausibly long.
func languageScore(studentTokens []string) float64 {
	if len(studentTokens) == 0 {
		return 0
	}
	ok := 0
	for _, tok := range studentTokens {
		if len(tok) <= 15 && hasVowel(tok) {
			ok++
		}
	}
	return float64(ok) / float64(len(studentTokens))
}

// coherenceScore rewards multi-sentence answers and discourse connectives.
func coherenceScore(student string, studentTokens []string) float64 {
	sentences := countSentences(student)
	if sentences == 0 {
		return 0
	}
	score := 0.25
	if sentences >= 2 {
		score = 0.5
	}
	seen := map[string]struct{}{}
	for _, tok := range studentTokens {
		if _, isConn := connectives[tok]; isConn {
			if _, dup := seen[tok]; !dup {
				seen[tok] = struct{}{}
				score += 0.25
			}
		}
	}
	return math.Min(score, 1)
}

// ===== TEXT UTILITIES =====

// tokenize lowercases and splits on anything that is not a letter or digit.
func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func uniqueContentTokens(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	var out []string
	for _, tok := range tokens {
		if _, stop := stopwords[tok]; stop {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	return out
}

func termFreq(tokens []string) map[string]int {
	tf := make(map[string]int)
	for _, tok := range tokens {
		if _, stop := stopwords[tok]; stop {
			continue
		}
		tf[tok]++
	}
	return tf
}

func countSentences(s string) int {
	n := 0
	for _, seg := range strings.FieldsFunc(s, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	}) {
		if len(tokenize(seg)) > 0 {
			n++
		}
	}
	return n
}

func hasVowel(tok string) bool {
	return strings.ContainsAny(tok, "aeiouy")
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

var stopwords = toSet(
	"a", "an", "the", "is", "are", "was", "were", "be", "been", "being",
	"of", "in", "on", "at", "to", "for", "with", "by", "from", "as",
	"that", "this", "these", "those", "it", "its", "and", "or", "but",
	"not", "no", "if", "than", "which", "who", "whom", "what", "when",
	"where", "how", "why", "can", "could", "should", "would", "may",
	"might", "will", "shall", "do", "does", "did", "have", "has", "had",
	"i", "you", "he", "she", "we", "they", "them", "his", "her", "their",
	"our", "your", "my", "me", "us", "there", "here", "into", "about",
	"over", "under", "between", "through", "during", "each", "both",
	"such", "own", "same", "very",
)

var connectives = toSet(
	"because", "therefore", "however", "thus", "so", "then", "also",
	"moreover", "furthermore", "consequently", "although", "since",
	"while", "first", "second", "finally", "additionally", "hence",
)

func toSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
