package scoring

import (
	"github.com/kidtalk/tutorbench/internal/domain"
)

// A single-sample measurement cannot estimate variance.
const stabilityPlaceholder = 7.0

// TTFB dominates perceived responsiveness in a live conversation, so the
// combined latency score weights it above total latency.
const (
	ttfbWeight    = 0.7
	latencyWeight = 0.3
)

// Bucket edges in seconds for the six-bucket threshold ladder. Intervals
// are half-open: a value exactly on an edge falls into the slower bucket.
var (
	ttfbEdges    = [5]float64{0.3, 0.5, 1.0, 2.0, 3.0}
	latencyEdges = [5]float64{0.5, 1.0, 2.0, 3.0, 5.0}

	ladderScores = [6]float64{10, 9, 8, 6, 4, 2}
)

// scoreResponsePerformance scores TTFB and total latency independently on
// the threshold ladders, combines them TTFB-heavy, and adds the fixed
// stability placeholder. A non-positive TTFB is treated as unmeasured and
// falls back to the total latency, matching non-streaming responses.
func (e *Evaluator) scoreResponsePerformance(latency, ttfb float64) domain.SubScores {
	if ttfb <= 0 {
		ttfb = latency
	}

	ttfbScore := ladderScore(ttfb, ttfbEdges)
	latencyScore := ladderScore(latency, latencyEdges)

	return domain.SubScores{
		"ttfb":             ttfbScore,
		"latency":          latencyScore,
		"latency_combined": ttfbScore*ttfbWeight + latencyScore*latencyWeight,
		"stability":        stabilityPlaceholder,
	}
}

// ladderScore maps a duration in seconds onto the six-bucket score ladder.
func ladderScore(seconds float64, edges [5]float64) float64 {
	for i, edge := range edges {
		if seconds < edge {
			return ladderScores[i]
		}
	}
	return ladderScores[5]
}
