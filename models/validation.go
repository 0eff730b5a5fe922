package models

// Confidence levels for accepted candidates.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// LaughTestScore is the structured result of the external holistic
// plausibility check. Overall is 0-100; sub-scores use the same scale.
type LaughTestScore struct {
	Overall            float64 `json:"overall"`
	CausalDirectness   float64 `json:"causal_directness"`
	UserExpectation    float64 `json:"user_expectation"`
	ProfessionalCredit float64 `json:"professional_credibility"`
	CommonSense        float64 `json:"common_sense"`
	Passes             bool    `json:"passes"`
	Reasoning          string  `json:"reasoning,omitempty"`
}

// ValidationResult is the ephemeral outcome of running one candidate
// through the plausibility gate. It is logged and folded into the run
// summary but never persisted as a row.
type ValidationResult struct {
	Credible          bool
	Confidence        string
	SemanticRelevance float64
	DomainExpertise   float64
	LaughTest         *LaughTestScore
	RejectedAtStage   string
	RejectionReason   string
	ServiceError      bool // Stage D transport failure, passed fail-open
	ProjectedEffect   float64
}

// Rejected reports whether any stage turned the candidate away.
func (v *ValidationResult) Rejected() bool {
	return !v.Credible
}
