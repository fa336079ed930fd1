package rules

import "strings"

// merchantRule maps a known description fragment to a canonical merchant name.
type merchantRule struct {
	fragment   string
	normalized string
}

// merchantRules is scanned in order and the first matching fragment wins, so
// overlapping fragments resolve by position. Fragments are uppercase; matching
// is case-insensitive substring containment.
var merchantRules = []merchantRule{
	{"STARBUCKS", "Starbucks"},
	{"AMZN", "Amazon"},
	{"AMAZON", "Amazon"},
	{"NETFLIX", "Netflix"},
	{"UBER", "Uber"},
	{"WHOLEFDS", "Whole Foods"},
	{"WALMART", "Walmart"},
	{"TARGET", "Target"},
	{"SPOTIFY", "Spotify"},
}

// processorPrefixes are payment-processor markers stripped by the fallback
// cleanup when they anchor the start of a description.
var processorPrefixes = []string{"TST*", "SQ*", "SP*", "PP*"}

// UnknownMerchant is the terminal merchant name when nothing usable remains.
const UnknownMerchant = "Unknown Merchant"

// NormalizeMerchant resolves a raw description against the fixed merchant
// table. It returns the canonical name and true on the first fragment match,
// or "" and false when the input is empty or nothing matches.
func NormalizeMerchant(rawMerchant string) (string, bool) {
	if rawMerchant == "" {
		return "", false
	}
	upper := strings.ToUpper(rawMerchant)
	for _, rule := range merchantRules {
		if strings.Contains(upper, rule.fragment) {
			return rule.normalized, true
		}
	}
	return "", false
}

// CleanMerchantFallback is the last-resort cleanup when neither a rule nor
// the model produced a name: strip a leading processor prefix, title-case the
// remainder, and floor to UnknownMerchant if nothing is left.
func CleanMerchantFallback(rawMerchant string) string {
	if rawMerchant == "" {
		return UnknownMerchant
	}

	cleaned := rawMerchant
	for _, prefix := range processorPrefixes {
		if strings.HasPrefix(strings.ToUpper(cleaned), prefix) {
			cleaned = strings.TrimSpace(cleaned[len(prefix):])
		}
	}

	cleaned = titleCase(cleaned)
	if strings.TrimSpace(cleaned) == "" {
		return UnknownMerchant
	}
	return cleaned
}

// titleCase uppercases the first letter of every letter-run and lowercases
// the rest, without the deprecated strings.Title.
func titleCase(s string) string {
	runes := []rune(strings.ToLower(s))
	for i := range runes {
		if isLetter(runes[i]) && (i == 0 || !isLetter(runes[i-1])) {
			runes[i] = toUpper(runes[i])
		}
	}
	return string(runes)
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func toUpper(r rune) rune {
	if r >= 'a' && r <= 'z' {
		return r - ('a' - 'A')
	}
	return r
}
