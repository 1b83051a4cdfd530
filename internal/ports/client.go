// Package ports defines the boundary interfaces between the benchmark core
// and its collaborators: model clients, metrics sinks, and record exporters.
package ports

import (
	"context"

	"github.com/kidtalk/tutorbench/internal/domain"
)

// ModelClient is the contract every vendor backend satisfies. The core
// never sees provider SDKs; it consumes only the ModelResponse union.
//
// Chat never returns a Go error: network and API failures are folded into
// the failure arm of ModelResponse so one bad model cannot abort a run.
// Implementations own their timeouts and retries; the passed context only
// carries run-level cancellation.
type ModelClient interface {
	// Name returns the display name of the model, used as the grouping key
	// in evaluation records and reports.
	Name() string

	// CheckConfig verifies the client is usable (credentials present, URL
	// well formed). A client failing the check is skipped by the runner.
	CheckConfig() error

	// Chat sends one chat request and reports the outcome, including
	// timing metadata (total latency and, for streaming requests, TTFB).
	Chat(ctx context.Context, req domain.ChatRequest) domain.ModelResponse
}
