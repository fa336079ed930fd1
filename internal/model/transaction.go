package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction represents a single bank transaction owned by a user.
// Negative amounts are outflows (expenses), positive amounts are inflows.
type Transaction struct {
	Date               time.Time
	CreatedAt          time.Time
	ID                 string
	Description        string // Raw bank description
	NormalizedMerchant string // Set by the ingestion agent
	Tags               []string
	Amount             decimal.Decimal
	UserID             int64
	CategoryID         int64
	IsSubscription     bool
}

// IsExpense reports whether the transaction is an outflow.
func (t *Transaction) IsExpense() bool {
	return t.Amount.IsNegative()
}
