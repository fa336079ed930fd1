// Package engine implements the two-stage agent pipeline that turns a raw
// transaction description into a normalized merchant and a category decision.
package engine

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/dhalloway/pennywise/internal/common"
	"github.com/dhalloway/pennywise/internal/llm"
	"github.com/dhalloway/pennywise/internal/model"
	"github.com/dhalloway/pennywise/internal/rules"
	"github.com/dhalloway/pennywise/internal/service"
)

// modelRetryOpts is the retry budget shared by both agents' model calls.
var modelRetryOpts = service.RetryOptions{
	MaxAttempts:  3,
	InitialDelay: 2 * time.Second,
	MaxDelay:     10 * time.Second,
	Multiplier:   2.0,
}

// IngestionAgent resolves raw merchant strings to canonical names using the
// tiered strategy rule -> cache -> model, falling back to a deterministic
// cleanup when every tier fails.
type IngestionAgent struct {
	cache     service.NormalizationCache
	client    llm.Client
	retryOpts service.RetryOptions
}

// NewIngestionAgent creates an ingestion agent.
func NewIngestionAgent(cache service.NormalizationCache, client llm.Client) *IngestionAgent {
	return &IngestionAgent{
		cache:     cache,
		client:    client,
		retryOpts: modelRetryOpts,
	}
}

// NormalizeMerchant returns the canonical merchant name for a raw description
// together with the decision source that produced it. It never returns an
// error: model and cache failures degrade to the fallback cleanup, and
// fallback results are deliberately never cached so a transient failure can
// be retried cleanly on the next run.
func (a *IngestionAgent) NormalizeMerchant(ctx context.Context, rawMerchant string) (string, model.DecisionSource) {
	if strings.TrimSpace(rawMerchant) == "" {
		return rules.UnknownMerchant, model.DecisionInvalidInput
	}

	clean := strings.TrimSpace(rawMerchant)

	if name, ok := rules.NormalizeMerchant(clean); ok {
		a.cacheNormalization(ctx, clean, name)
		return name, model.DecisionRule
	}

	cached, err := a.cache.GetCachedNormalization(ctx, clean)
	if err != nil {
		slog.Warn("normalization cache lookup failed", "merchant", clean, "error", err)
	} else if cached != nil {
		return cached.NormalizedMerchant, model.DecisionCache
	}

	var resp llm.NormalizationResponse
	err = common.WithRetry(ctx, func() error {
		var callErr error
		resp, callErr = a.client.NormalizeMerchant(ctx, clean)
		if callErr != nil {
			return &common.RetryableError{Err: callErr, Retryable: true}
		}
		return nil
	}, a.retryOpts)

	if err != nil {
		slog.Error("LLM normalization failed", "merchant", clean, "error", err)
		return rules.CleanMerchantFallback(clean), model.DecisionFallback
	}

	a.cacheNormalization(ctx, clean, resp.NormalizedMerchant)
	return resp.NormalizedMerchant, model.DecisionLLM
}

// cacheNormalization writes through to the merchant cache. A failed write is
// logged and abandoned; skipping the cache is acceptable, losing the
// normalization result is not.
func (a *IngestionAgent) cacheNormalization(ctx context.Context, rawMerchant, normalized string) {
	if err := a.cache.SetCachedNormalization(ctx, rawMerchant, normalized); err != nil {
		slog.Warn("failed to cache normalization",
			"merchant", rawMerchant,
			"normalized", normalized,
			"error", err)
	}
}
