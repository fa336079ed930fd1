package model

// DecisionSource identifies the pipeline stage that produced a result.
type DecisionSource string

const (
	// DecisionRule means a fixed rule table matched.
	DecisionRule DecisionSource = "rule"
	// DecisionCache means a persistent cache lookup hit.
	DecisionCache DecisionSource = "cache"
	// DecisionLLM means the external model produced the result.
	DecisionLLM DecisionSource = "llm"
	// DecisionFallback means every other stage failed and a degraded default was used.
	DecisionFallback DecisionSource = "fallback"
	// DecisionInvalidInput means the input was empty or whitespace-only.
	DecisionInvalidInput DecisionSource = "invalid_input"
)

// Decision is a classification agent's answer for one transaction.
type Decision struct {
	Tags           []string
	Source         DecisionSource
	CategoryID     int64
	IsSubscription bool
}

// DecisionSources records which stage answered each half of the pipeline.
type DecisionSources struct {
	Ingest   DecisionSource `json:"ingest"`
	Classify DecisionSource `json:"classify"`
}

// ProcessResult is the envelope returned for one processed transaction.
type ProcessResult struct {
	Error              string          `json:"error,omitempty"`
	NormalizedMerchant string          `json:"normalized_merchant,omitempty"`
	DecisionSources    DecisionSources `json:"decision_sources"`
	TimeMs             float64         `json:"time_ms"`
	CategoryID         int64           `json:"category_id,omitempty"`
	Success            bool            `json:"success"`
	LLMUsed            bool            `json:"llm_used"`
}
