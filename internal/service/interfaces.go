// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/dhalloway/pennywise/internal/model"
	"github.com/shopspring/decimal"
)

// MerchantActivity is one historical transaction for a (user, merchant) pair,
// used by the subscription pattern detector.
type MerchantActivity struct {
	Date   time.Time
	Amount decimal.Decimal
}

// CategoryDirectory provides the set of valid spending categories.
type CategoryDirectory interface {
	GetCategories(ctx context.Context) ([]model.Category, error)
	GetCategoryByName(ctx context.Context, name string) (*model.Category, error)
	CreateCategory(ctx context.Context, name string) (*model.Category, error)
}

// TransactionStore loads transactions and persists classification results.
type TransactionStore interface {
	GetTransactionByID(ctx context.Context, id string) (*model.Transaction, error)
	SaveTransaction(ctx context.Context, txn *model.Transaction) error
	// SaveClassification writes the agent's results back in a single update.
	SaveClassification(ctx context.Context, id, normalizedMerchant string, categoryID int64, isSubscription bool, tags []string) error
	// GetRecentMerchantActivity returns up to limit recent transactions for a
	// (user, normalized merchant) pair, most recent first.
	GetRecentMerchantActivity(ctx context.Context, userID int64, merchant string, limit int) ([]MerchantActivity, error)
}

// NormalizationCache is the global raw-merchant → canonical-name cache.
type NormalizationCache interface {
	GetCachedNormalization(ctx context.Context, rawMerchant string) (*model.MerchantNormalization, error)
	SetCachedNormalization(ctx context.Context, rawMerchant, normalizedMerchant string) error
}

// CategorizationCache is the per-user category decision cache. SetCachedCategorization
// must enforce the user_feedback precedence rule atomically with respect to
// concurrent writers.
type CategorizationCache interface {
	GetCachedCategorization(ctx context.Context, userID int64, merchant string) (*model.Categorization, error)
	SetCachedCategorization(ctx context.Context, userID int64, merchant string, categoryID int64, isSubscription bool, tags []string, source model.CategorizationSource) error
	InvalidateUserCache(ctx context.Context, userID int64) (int64, error)
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	CategoryDirectory
	TransactionStore
	NormalizationCache
	CategorizationCache

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
