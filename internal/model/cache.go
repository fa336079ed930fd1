package model

import "time"

// CategorizationSource indicates how a categorization cache row was produced.
type CategorizationSource string

const (
	// SourceUserFeedback indicates the user explicitly corrected the category.
	SourceUserFeedback CategorizationSource = "user_feedback"
	// SourceAgentLearning indicates the row was inferred automatically.
	SourceAgentLearning CategorizationSource = "agent_learning"
)

// MerchantNormalization is a cached raw-merchant → canonical-name mapping.
// Rows are global, keyed by the uppercase trimmed raw merchant string.
type MerchantNormalization struct {
	CachedAt           time.Time
	RawMerchant        string
	NormalizedMerchant string
}

// Categorization is a cached category decision for one (user, merchant) pair.
//
// A row with source user_feedback is sticky: it is never overwritten by an
// agent_learning write, only by another user_feedback write or a full cache
// invalidation for the user.
type Categorization struct {
	CachedAt       time.Time
	MerchantKey    string
	Tags           []string
	Source         CategorizationSource
	UserID         int64
	CategoryID     int64
	IsSubscription bool
}
