package ports

import (
	"context"

	"github.com/kidtalk/tutorbench/internal/domain"
)

// Evaluator scores one model response against a test case. Implementations
// must be pure with respect to their inputs: the same case, response, and
// model name always yield the same record, and failure responses must
// produce zero-scored records rather than errors.
type Evaluator interface {
	EvaluateResponse(ctx context.Context, testCase domain.TestCase, response domain.ModelResponse, modelName string) domain.EvaluationRecord
}
