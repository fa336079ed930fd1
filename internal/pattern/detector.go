// Package pattern provides the statistical subscription heuristic used as an
// advisory signal by the classification agent.
package pattern

import (
	"math"
	"sort"
	"time"
)

const (
	// maxAmountSpread is the tolerated relative spread between the smallest
	// and largest absolute amount.
	maxAmountSpread = 0.05
	// minIntervalDays and maxIntervalDays bound the average gap between
	// charges for "approximately monthly" behavior.
	minIntervalDays = 25.0
	maxIntervalDays = 35.0
)

// DetectSubscription reports whether a short transaction history for one
// (user, merchant) pair looks like a recurring subscription: near-constant
// absolute amounts charged on a roughly monthly cadence.
//
// The lists are parallel; order does not matter because dates are re-sorted.
// Fewer than two entries, mismatched lengths, or any unparseable date all
// yield false rather than an error. When the minimum absolute amount is
// exactly zero the spread check is skipped entirely (free or trial charges
// are treated as trivially consistent).
func DetectSubscription(amounts []float64, dates []string) bool {
	if len(amounts) < 2 || len(dates) < 2 || len(amounts) != len(dates) {
		return false
	}

	minAmount := math.Abs(amounts[0])
	maxAmount := minAmount
	for _, a := range amounts[1:] {
		abs := math.Abs(a)
		if abs < minAmount {
			minAmount = abs
		}
		if abs > maxAmount {
			maxAmount = abs
		}
	}
	if minAmount > 0 && (maxAmount-minAmount)/minAmount > maxAmountSpread {
		return false
	}

	parsed := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		t, err := parseDate(d)
		if err != nil {
			return false
		}
		parsed = append(parsed, t)
	}
	sort.Slice(parsed, func(i, j int) bool { return parsed[i].Before(parsed[j]) })

	var totalDays float64
	for i := 1; i < len(parsed); i++ {
		totalDays += math.Floor(parsed[i].Sub(parsed[i-1]).Hours() / 24)
	}
	avgInterval := totalDays / float64(len(parsed)-1)

	return avgInterval >= minIntervalDays && avgInterval <= maxIntervalDays
}

// parseDate accepts the date-only and full timestamp forms produced by the
// transaction store.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
