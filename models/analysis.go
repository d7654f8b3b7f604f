package models

// AnalysisResult is the structured CRO evaluation produced by the model.
// Only Score, Breakdown and Critique are shape-checked; the remaining fields
// are accepted as the model returns them.
type AnalysisResult struct {
	Score                float64   `json:"score"`
	Breakdown            Breakdown `json:"breakdown"`
	Critique             []string  `json:"critique"`
	HeadlineAlternatives []string  `json:"headline_alternatives"`
	CTAVariants          []string  `json:"cta_variants"`
	ABTestIdeas          []string  `json:"ab_test_ideas"`
	Summary              string    `json:"summary"`
}

// Breakdown scores each CRO dimension on a 1-10 scale.
type Breakdown struct {
	Clarity           float64 `json:"clarity"`
	Differentiation   float64 `json:"differentiation"`
	Friction          float64 `json:"friction"`
	CTAStrength       float64 `json:"cta_strength"`
	ValueProof        float64 `json:"value_proof"`
	OfferArchitecture float64 `json:"offer_architecture"`
}

// MissionContext optionally personalizes the critique. Empty fields render
// as "Not specified" in the prompt.
type MissionContext struct {
	TargetAudience string `json:"targetAudience,omitempty"`
	ProductType    string `json:"productType,omitempty"`
}

// IsZero reports whether neither field is set.
func (m MissionContext) IsZero() bool {
	return m.TargetAudience == "" && m.ProductType == ""
}
