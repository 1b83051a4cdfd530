package domain

// Dimension names one of the five scoring dimensions of the rubric.
type Dimension string

// The five recognized evaluation dimensions. Scores for a dimension are a
// set of named sub-metrics, each a float in [0,10].
const (
	// DimensionLanguageAbility covers pronunciation, grammar, vocabulary
	// fit for the target age, and naturalness of expression.
	DimensionLanguageAbility Dimension = "language_ability"

	// DimensionTeachingAdaptability covers child-friendly phrasing,
	// interaction quality, personalization, and engagement.
	DimensionTeachingAdaptability Dimension = "teaching_adaptability"

	// DimensionResponsePerformance covers time to first token, total
	// latency, their combination, and stability.
	DimensionResponsePerformance Dimension = "response_performance"

	// DimensionSafetyCompliance covers content filtering and
	// age-appropriate response length.
	DimensionSafetyCompliance Dimension = "safety_compliance"

	// DimensionCostEfficiency covers API cost and token efficiency.
	DimensionCostEfficiency Dimension = "cost_efficiency"
)

// Dimensions returns the five rubric dimensions in canonical report order.
func Dimensions() []Dimension {
	return []Dimension{
		DimensionLanguageAbility,
		DimensionTeachingAdaptability,
		DimensionResponsePerformance,
		DimensionSafetyCompliance,
		DimensionCostEfficiency,
	}
}

// DimensionWeight configures the contribution of one dimension to the
// weighted total score.
type DimensionWeight struct {
	// Weight is the relative weight of the dimension. Weights need not sum
	// to one; the total score normalizes by the sum of participating weights.
	Weight float64 `json:"weight" validate:"min=0"`
}

// EvaluationCriteria is the rubric configuration: which dimensions
// participate in the total score and with what weight. A dimension that is
// scored but absent from Dimensions is silently excluded from the weighted
// total (the record's UsedDimensions field makes the exclusion visible).
type EvaluationCriteria struct {
	// Dimensions maps dimension name to its weight configuration.
	Dimensions map[Dimension]DimensionWeight `json:"evaluation_dimensions"`

	// ScoringMethod names the combination strategy. Only "weighted_average"
	// is implemented; the field is retained for configuration compatibility.
	ScoringMethod string `json:"scoring_method,omitempty"`
}
