package rules

import (
	"github.com/dhalloway/pennywise/internal/common"
	"github.com/dhalloway/pennywise/internal/model"
	"github.com/shopspring/decimal"
)

// categoryRule is a fixed (category, subscription) decision for a canonical
// merchant name.
type categoryRule struct {
	category       string
	isSubscription bool
}

// categoryRules is keyed by canonical merchant name (the rule table's output,
// not the raw description), so it only fires after normalization.
var categoryRules = map[string]categoryRule{
	"Starbucks":   {"Dining", false},
	"Netflix":     {"Subscriptions", true},
	"Spotify":     {"Subscriptions", true},
	"Uber":        {"Transportation", false},
	"Whole Foods": {"Groceries", false},
	"Amazon":      {"Shopping", false},
}

// CategorizeMerchant resolves a canonical merchant name against the fixed
// category table. Tags are synthesized, not looked up: "recurring" when the
// rule marks a subscription, then exactly one of "expense"/"income" from the
// sign of the amount, capped at 3 tags. No match returns ok=false.
func CategorizeMerchant(merchant string, amount decimal.Decimal) (category string, isSubscription bool, tags []string, ok bool) {
	rule, ok := categoryRules[merchant]
	if !ok {
		return "", false, nil, false
	}

	if rule.isSubscription {
		tags = append(tags, "recurring")
	}
	if amount.IsNegative() {
		tags = append(tags, "expense")
	} else {
		tags = append(tags, "income")
	}
	if len(tags) > 3 {
		tags = tags[:3]
	}

	return rule.category, rule.isSubscription, tags, true
}

// ValidateCategoryName checks a category name against the live category set.
// Unknown names degrade to "Other"; a category set without "Other" is a fatal
// configuration error, never silently invented around.
func ValidateCategoryName(name string, validCategories []string) (string, error) {
	hasFallback := false
	for _, valid := range validCategories {
		if valid == name {
			return name, nil
		}
		if valid == model.FallbackCategoryName {
			hasFallback = true
		}
	}
	if hasFallback {
		return model.FallbackCategoryName, nil
	}
	return "", common.ErrNoFallbackCategory
}
