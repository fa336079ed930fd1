// Package llm provides the external-model client used as the final tier of
// the normalization and categorization decision pipelines.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Client defines the interface for the external categorization model.
// Calls are idempotent from the caller's perspective: a retry simply resends
// the same prompt.
type Client interface {
	NormalizeMerchant(ctx context.Context, rawMerchant string) (NormalizationResponse, error)
	Classify(ctx context.Context, req ClassifyRequest) (ClassificationResponse, error)
}

// NormalizationResponse is the model's answer for a merchant normalization.
type NormalizationResponse struct {
	NormalizedMerchant string
}

// ClassifyRequest summarizes one transaction for the classification prompt.
type ClassifyRequest struct {
	Merchant   string
	Amount     string
	Date       string
	Categories []string
}

// ClassificationResponse is the model's answer for a transaction classification.
type ClassificationResponse struct {
	CategoryName   string
	Tags           []string
	IsSubscription bool
}

// Config holds configuration for the LLM client.
type Config struct {
	Provider    string
	APIKey      string
	Model       string
	Timeout     time.Duration
	Temperature float64
	MaxTokens   int
}

// NewClient creates a model client for the configured provider.
func NewClient(cfg Config) (Client, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "openai":
		return newOpenAIClient(cfg)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
