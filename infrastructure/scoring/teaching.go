package scoring

import (
	"strings"

	"github.com/kidtalk/tutorbench/internal/domain"
)

// Personalization needs conversation memory across turns, which a
// single-shot benchmark does not exercise.
const personalizationPlaceholder = 7.0

// sentenceTerminators are the characters a response is split on when
// estimating sentence length, covering ASCII and full-width punctuation.
const sentenceTerminators = ".!?。！？"

// scoreTeachingAdaptability computes the teaching sub-metrics:
// child-friendly phrasing, interaction quality, personalization
// (fixed placeholder), and engagement.
func (e *Evaluator) scoreTeachingAdaptability(content, folded string) domain.SubScores {
	return domain.SubScores{
		"child_friendly_language": e.scoreChildFriendly(content, folded),
		"interaction_quality":     e.scoreInteraction(content, folded),
		"personalization":         personalizationPlaceholder,
		"engagement":              e.scoreEngagement(folded),
	}
}

// scoreChildFriendly starts at 7.0 and rewards encouragement words and
// short sentences (mean words per sentence below 10), capped at 10.0.
func (e *Evaluator) scoreChildFriendly(content, folded string) float64 {
	score := 7.0

	if containsAnyFold(folded, e.lexicon.Encouragement) {
		score += 1.0
	}
	if meanWordsPerSentence(content) < 10 {
		score += 1.0
	}

	return min(score, 10.0)
}

// scoreInteraction starts at 7.0 and rewards a question (ASCII or
// full-width question mark) and guiding language, capped at 10.0.
func (e *Evaluator) scoreInteraction(content, folded string) float64 {
	score := 7.0

	if strings.ContainsAny(content, "?？") {
		score += 1.0
	}
	if containsAnyFold(folded, e.lexicon.Guiding) {
		score += 1.0
	}

	return min(score, 10.0)
}

// scoreEngagement starts at 7.0 and rewards story and game elements,
// capped at 10.0.
func (e *Evaluator) scoreEngagement(folded string) float64 {
	score := 7.0

	if containsAnyFold(folded, e.lexicon.Story) {
		score += 1.0
	}
	if containsAnyFold(folded, e.lexicon.Game) {
		score += 1.0
	}

	return min(score, 10.0)
}

// meanWordsPerSentence splits on sentence terminators and averages the
// whitespace-delimited word count of the non-blank fragments over the
// total fragment count. The trailing fragment after the last terminator
// counts toward the denominator even when blank, so "Hi there." averages
// one word per sentence, not two.
func meanWordsPerSentence(content string) float64 {
	fragments := splitSentences(content)

	words := 0
	for _, fragment := range fragments {
		if strings.TrimSpace(fragment) == "" {
			continue
		}
		words += len(strings.Fields(fragment))
	}

	return float64(words) / float64(max(len(fragments), 1))
}

// splitSentences splits content on sentence terminators, preserving blank
// fragments so the fragment count mirrors terminator positions.
func splitSentences(content string) []string {
	var fragments []string
	var current strings.Builder

	for _, r := range content {
		if strings.ContainsRune(sentenceTerminators, r) {
			fragments = append(fragments, current.String())
			current.Reset()
			continue
		}
		current.WriteRune(r)
	}
	fragments = append(fragments, current.String())

	return fragments
}
