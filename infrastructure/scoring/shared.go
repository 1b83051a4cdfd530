// Package scoring implements the rule-based evaluator that turns one model
// response plus its timing and token metadata into a weighted
// multi-dimensional evaluation record.
package scoring

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"
)

// ErrEmptyLexicon is returned when a loaded lexicon is missing a word list.
var ErrEmptyLexicon = errors.New("lexicon word list cannot be empty")

// Package-level validator instance for configuration validation.
// Uses go-playground/validator v10 for struct tag-based validation.
var validate = validator.New()

// foldString normalizes a string with Unicode-aware case folding so that
// keyword containment checks behave consistently across scripts. This
// handles complex Unicode characters correctly, unlike strings.ToLower.
func foldString(s string) string {
	return cases.Fold().String(s)
}

// containsAnyFold reports whether the case-folded content contains any of
// the given words. The content must already be folded; words are folded
// per call.
func containsAnyFold(foldedContent string, words []string) bool {
	for _, w := range words {
		if strings.Contains(foldedContent, foldString(w)) {
			return true
		}
	}
	return false
}
