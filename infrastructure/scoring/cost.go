package scoring

import (
	"github.com/kidtalk/tutorbench/internal/domain"
)

// Per-vendor pricing is not modeled; token count is the only cost signal.
const apiCostPlaceholder = 7.0

// scoreCostEfficiency scores inversely with total token count. A zero
// count means the provider reported no usage and scores as unknown.
func (e *Evaluator) scoreCostEfficiency(tokens domain.TokenUsage) domain.SubScores {
	return domain.SubScores{
		"api_cost":         apiCostPlaceholder,
		"token_efficiency": tokenEfficiency(tokens.TotalTokens),
	}
}

func tokenEfficiency(totalTokens int) float64 {
	switch {
	case totalTokens == 0:
		return 5.0
	case totalTokens < 100:
		return 9.0
	case totalTokens < 200:
		return 8.0
	case totalTokens < 500:
		return 7.0
	default:
		return 6.0
	}
}
