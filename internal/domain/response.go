package domain

// TokenUsage reports token consumption for one chat completion as returned
// by the provider. A zero value means the provider did not report usage.
type TokenUsage struct {
	// PromptTokens counts tokens in the request messages.
	PromptTokens int `json:"prompt_tokens,omitempty"`

	// CompletionTokens counts tokens in the generated response.
	CompletionTokens int `json:"completion_tokens,omitempty"`

	// TotalTokens is the provider-reported total. Token-efficiency scoring
	// reads only this field; zero means unknown.
	TotalTokens int `json:"total_tokens,omitempty"`
}

// IsZero reports whether the provider supplied no usage information.
func (u TokenUsage) IsZero() bool {
	return u.PromptTokens == 0 && u.CompletionTokens == 0 && u.TotalTokens == 0
}

// ModelResponse is the outcome of one chat invocation against one model:
// either a successful completion with timing and usage metadata, or a
// failure carrying the error string. The Err field discriminates the two
// arms; a response round-trips through the persisted results document, so
// the union is encoded as one struct rather than an interface.
type ModelResponse struct {
	// Content is the generated response text. Empty on failure.
	Content string `json:"content,omitempty"`

	// Latency is the total wall-clock request duration in seconds.
	Latency float64 `json:"latency,omitempty"`

	// TTFB is the time to first content token in seconds. For non-streaming
	// requests it equals Latency. Conceptually TTFB <= Latency, but the
	// contract does not enforce it.
	TTFB float64 `json:"ttfb,omitempty"`

	// Tokens is the provider-reported usage, if any.
	Tokens TokenUsage `json:"tokens,omitzero"`

	// Err carries the failure description. Non-empty Err marks the failure
	// arm of the union; all other fields except Latency are then meaningless.
	Err string `json:"error,omitempty"`
}

// SuccessResponse builds the success arm of the response union.
func SuccessResponse(content string, latency, ttfb float64, tokens TokenUsage) ModelResponse {
	return ModelResponse{
		Content: content,
		Latency: latency,
		TTFB:    ttfb,
		Tokens:  tokens,
	}
}

// FailureResponse builds the failure arm of the response union. The latency
// records how long the failed attempt took, when known.
func FailureResponse(errMsg string, latency float64) ModelResponse {
	return ModelResponse{Err: errMsg, Latency: latency}
}

// IsError reports whether this response is the failure arm of the union.
func (r ModelResponse) IsError() bool { return r.Err != "" }

// ChatRequest is the provider-independent shape of one chat invocation.
// The runner builds one per (test case, model) pair.
type ChatRequest struct {
	// System is the tutor persona prompt, including any case context.
	System string

	// UserInput is the child's utterance.
	UserInput string

	// Temperature controls sampling randomness; nil uses the provider default.
	Temperature *float64

	// MaxTokens caps the completion length; zero uses the provider default.
	MaxTokens int

	// Stream requests a streaming completion so time to first token can be
	// measured. Non-streaming responses report TTFB equal to total latency.
	Stream bool
}
