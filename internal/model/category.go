// Package model defines the core domain models used throughout the application.
package model

import "time"

// FallbackCategoryName is the category every classification degrades to when
// nothing better can be determined. Its absence is a configuration error.
const FallbackCategoryName = "Other"

// Category represents a spending category a transaction can be classified into.
type Category struct {
	CreatedAt time.Time
	Name      string
	ID        int64
}
