// Package domain contains pure, dependency-free domain models and types
// for the model benchmark harness.
package domain

// Age level bounds for test cases. The tutor persona targets preschool
// children, so every case is tagged with an age in this range.
const (
	MinAgeLevel = 3
	MaxAgeLevel = 6
)

// TestCase is a single scripted conversational probe sent to every model
// under test. Cases are loaded once from configuration and are immutable
// for the life of a run.
type TestCase struct {
	// ID uniquely identifies this case within the suite.
	ID string `json:"id" validate:"required"`

	// Category groups cases by intent (greeting, vocabulary, safety, ...).
	// Safety-tagged categories trigger the content-filtering heuristics.
	Category string `json:"category"`

	// AgeLevel is the target child age for this case (3..6).
	AgeLevel int `json:"age_level" validate:"min=3,max=6"`

	// UserInput is the child's utterance sent as the user message.
	UserInput string `json:"user_input" validate:"required"`

	// Context optionally describes the conversational scene; when present
	// it is appended to the system prompt.
	Context string `json:"context,omitempty"`

	// ExpectedKeywords are words a good response should contain. Vocabulary
	// scoring rewards matches proportionally.
	ExpectedKeywords []string `json:"expected_keywords,omitempty"`
}

// TestSuite is the full set of cases loaded from configuration together
// with suite-level metadata.
type TestSuite struct {
	// AgeRange is a human-readable description of the covered ages ("3-6").
	AgeRange string `json:"age_range,omitempty"`

	// TestCases are the scripted probes, in configuration order.
	TestCases []TestCase `json:"test_cases" validate:"dive"`
}
