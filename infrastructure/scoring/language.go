package scoring

import (
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"github.com/kidtalk/tutorbench/internal/domain"
)

// Fixed sub-scores for signals this pipeline cannot measure. Pronunciation
// needs an audio pipeline; a single text response carries no signal.
const pronunciationPlaceholder = 7.0

// scoreLanguageAbility computes the language-ability sub-metrics:
// pronunciation (fixed placeholder), grammar, vocabulary fit, and
// naturalness of expression.
func (e *Evaluator) scoreLanguageAbility(content, folded string, testCase domain.TestCase) domain.SubScores {
	return domain.SubScores{
		"pronunciation_accuracy":     pronunciationPlaceholder,
		"grammar_correctness":        scoreGrammar(content),
		"vocabulary_appropriateness": e.scoreVocabulary(folded, testCase),
		"expression_naturalness":     scoreNaturalness(content),
	}
}

// scoreGrammar applies the punctuation-presence heuristic: near-empty
// content scores 3.0, content without terminal punctuation 7.0 (spoken
// replies may legitimately omit it), anything else 8.0.
func scoreGrammar(content string) float64 {
	if utf8.RuneCountInString(strings.TrimSpace(content)) < 3 {
		return 3.0
	}
	if !strings.ContainsAny(content, ".!?。！？") {
		return 7.0
	}
	return 8.0
}

// scoreVocabulary rewards presence of the case's expected keywords
// proportionally (8.0 + matchedFraction*2.0) and, when none match,
// penalizes complex vocabulary from the lexicon.
func (e *Evaluator) scoreVocabulary(folded string, testCase domain.TestCase) float64 {
	if len(testCase.ExpectedKeywords) > 0 {
		matched := 0
		for _, kw := range testCase.ExpectedKeywords {
			if e.keywordMatches(folded, kw) {
				matched++
			}
		}
		if matched > 0 {
			return 8.0 + float64(matched)/float64(len(testCase.ExpectedKeywords))*2.0
		}
	}

	if containsAnyFold(folded, e.lexicon.ComplexWords) {
		return 6.0
	}
	return 8.0
}

// keywordMatches reports whether a single expected keyword is present in
// the folded content. With FuzzyKeywords enabled, a whitespace-delimited
// word within MaxFuzzyDistance edits of the keyword also counts.
func (e *Evaluator) keywordMatches(folded, keyword string) bool {
	foldedKeyword := foldString(keyword)
	if strings.Contains(folded, foldedKeyword) {
		return true
	}

	if !e.config.FuzzyKeywords {
		return false
	}
	for _, word := range strings.Fields(folded) {
		word = strings.Trim(word, ".,!?;:\"'。！？，")
		if word == "" {
			continue
		}
		if levenshtein.ComputeDistance(word, foldedKeyword) <= e.config.MaxFuzzyDistance {
			return true
		}
	}
	return false
}

// scoreNaturalness penalizes empty content, repeated terminal punctuation,
// and extreme lengths. Lengths count runes, not bytes.
func scoreNaturalness(content string) float64 {
	if content == "" {
		return 0.0
	}

	if strings.Contains(content, "!!!") || strings.Contains(content, "???") {
		return 7.0
	}

	switch n := utf8.RuneCountInString(content); {
	case n < 10:
		return 6.0
	case n > 500:
		return 7.0
	default:
		return 8.5
	}
}
