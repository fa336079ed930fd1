package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dhalloway/pennywise/internal/common"
	"github.com/dhalloway/pennywise/internal/llm"
	"github.com/dhalloway/pennywise/internal/model"
	"github.com/dhalloway/pennywise/internal/pattern"
	"github.com/dhalloway/pennywise/internal/rules"
	"github.com/dhalloway/pennywise/internal/service"
	"github.com/shopspring/decimal"
)

// historyLimit bounds the transaction history consulted by the subscription
// pattern pre-check.
const historyLimit = 5

// ClassificationAgent resolves (user, merchant, amount, date) to a category
// decision using the tiered strategy rule -> cache -> pattern + model.
//
// The agent snapshots the category directory once at construction, so one
// instance should be short-lived: built per request or per batch, then
// discarded. The staleness window of the snapshot is exactly the agent's
// lifetime.
type ClassificationAgent struct {
	transactions  service.TransactionStore
	cache         service.CategorizationCache
	client        llm.Client
	categoryIDs   map[string]int64
	categoryNames []string
	retryOpts     service.RetryOptions
	otherID       int64
}

// NewClassificationAgent creates a classification agent, loading the live
// category map. A category directory without an "Other" category is a fatal
// configuration error, reported immediately rather than discovered mid-pipeline.
func NewClassificationAgent(ctx context.Context, directory service.CategoryDirectory, transactions service.TransactionStore, cache service.CategorizationCache, client llm.Client) (*ClassificationAgent, error) {
	categories, err := directory.GetCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}

	categoryIDs := make(map[string]int64, len(categories))
	categoryNames := make([]string, 0, len(categories))
	for _, cat := range categories {
		categoryIDs[cat.Name] = cat.ID
		categoryNames = append(categoryNames, cat.Name)
	}

	otherID, ok := categoryIDs[model.FallbackCategoryName]
	if !ok {
		return nil, common.ErrNoFallbackCategory
	}

	return &ClassificationAgent{
		transactions:  transactions,
		cache:         cache,
		client:        client,
		categoryIDs:   categoryIDs,
		categoryNames: categoryNames,
		retryOpts:     modelRetryOpts,
		otherID:       otherID,
	}, nil
}

// Categorize returns the category decision for one transaction. It never
// returns an error: recoverable failures (cache I/O, pattern history, model
// calls) degrade to the documented fallback decision, and the one fatal
// condition (missing "Other" category) is ruled out at construction.
func (a *ClassificationAgent) Categorize(ctx context.Context, userID int64, merchant string, amount decimal.Decimal, date time.Time) model.Decision {
	// Rules run before the cache by design; see DESIGN.md for the
	// user-feedback interaction this implies for ruled merchants.
	if catName, isSub, tags, ok := rules.CategorizeMerchant(merchant, amount); ok {
		catID, found := a.categoryIDs[catName]
		if !found {
			catID = a.otherID
		}
		a.cacheCategorization(ctx, userID, merchant, catID, isSub, tags, model.SourceAgentLearning)
		return model.Decision{CategoryID: catID, IsSubscription: isSub, Tags: tags, Source: model.DecisionRule}
	}

	cached, err := a.cache.GetCachedCategorization(ctx, userID, merchant)
	if err != nil {
		slog.Warn("categorization cache lookup failed", "user_id", userID, "merchant", merchant, "error", err)
	} else if cached != nil {
		return model.Decision{
			CategoryID:     cached.CategoryID,
			IsSubscription: cached.IsSubscription,
			Tags:           cached.Tags,
			Source:         model.DecisionCache,
		}
	}

	isPatternSub := a.detectPattern(ctx, userID, merchant)

	var resp llm.ClassificationResponse
	err = common.WithRetry(ctx, func() error {
		var callErr error
		resp, callErr = a.client.Classify(ctx, llm.ClassifyRequest{
			Merchant:   merchant,
			Amount:     amount.StringFixed(2),
			Date:       date.Format("2006-01-02"),
			Categories: a.categoryNames,
		})
		if callErr != nil {
			return &common.RetryableError{Err: callErr, Retryable: true}
		}
		return nil
	}, a.retryOpts)

	if err != nil {
		slog.Error("LLM categorization failed", "merchant", merchant, "error", err)
		return model.Decision{CategoryID: a.otherID, Source: model.DecisionFallback}
	}

	validName, err := rules.ValidateCategoryName(resp.CategoryName, a.categoryNames)
	if err != nil {
		// Unreachable given the constructor check, but never invent a category.
		slog.Error("category validation failed", "category", resp.CategoryName, "error", err)
		return model.Decision{CategoryID: a.otherID, Source: model.DecisionFallback}
	}

	catID := a.categoryIDs[validName]
	// The pattern detector can only push the flag to true, never back to false.
	isSub := isPatternSub || resp.IsSubscription

	a.cacheCategorization(ctx, userID, merchant, catID, isSub, resp.Tags, model.SourceAgentLearning)
	return model.Decision{CategoryID: catID, IsSubscription: isSub, Tags: resp.Tags, Source: model.DecisionLLM}
}

// detectPattern runs the subscription heuristic over recent history for the
// (user, merchant) pair. It is advisory only: any failure is logged and
// treated as no signal.
func (a *ClassificationAgent) detectPattern(ctx context.Context, userID int64, merchant string) bool {
	recent, err := a.transactions.GetRecentMerchantActivity(ctx, userID, merchant, historyLimit)
	if err != nil {
		slog.Debug("pattern detection skipped", "merchant", merchant, "error", err)
		return false
	}
	if len(recent) < 2 {
		return false
	}

	amounts := make([]float64, len(recent))
	dates := make([]string, len(recent))
	for i, activity := range recent {
		amounts[i] = activity.Amount.InexactFloat64()
		dates[i] = activity.Date.Format("2006-01-02")
	}

	return pattern.DetectSubscription(amounts, dates)
}

// cacheCategorization writes through to the user categorization cache. Failed
// writes are logged and abandoned without affecting the returned decision.
func (a *ClassificationAgent) cacheCategorization(ctx context.Context, userID int64, merchant string, categoryID int64, isSub bool, tags []string, source model.CategorizationSource) {
	if err := a.cache.SetCachedCategorization(ctx, userID, merchant, categoryID, isSub, tags, source); err != nil {
		slog.Warn("failed to cache categorization",
			"user_id", userID,
			"merchant", merchant,
			"error", err)
	}
}
