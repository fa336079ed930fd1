package rules

import (
	"strings"
	"testing"
)

func TestNormalizeCacheKey(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple", "starbucks", "STARBUCKS"},
		{"trims whitespace", "  Starbucks #123  ", "STARBUCKS #123"},
		{"already canonical", "NETFLIX", "NETFLIX"},
		{"empty", "", ""},
		{"whitespace only", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeCacheKey(tt.input); got != tt.expected {
				t.Errorf("NormalizeCacheKey(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestValidateTags(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{"nil input", nil, nil},
		{"empty input", []string{}, nil},
		{"simple", []string{"coffee", "daily"}, []string{"coffee", "daily"}},
		{"trims whitespace", []string{" coffee ", "daily"}, []string{"coffee", "daily"}},
		{"drops empties", []string{"coffee", "", "   "}, []string{"coffee"}},
		{"dedupes after trim", []string{"coffee", " coffee", "coffee "}, []string{"coffee"}},
		{"preserves first occurrence order", []string{"b", "a", "b", "c"}, []string{"b", "a", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidateTags(tt.input)
			if len(got) != len(tt.expected) {
				t.Fatalf("ValidateTags(%v) = %v, want %v", tt.input, got, tt.expected)
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Errorf("ValidateTags(%v)[%d] = %q, want %q", tt.input, i, got[i], tt.expected[i])
				}
			}
		})
	}
}

func TestValidateTagsBounds(t *testing.T) {
	// 30 distinct tags in, at most 20 out
	many := make([]string, 30)
	for i := range many {
		many[i] = strings.Repeat("x", i+1)
	}
	got := ValidateTags(many)
	if len(got) != 20 {
		t.Errorf("expected 20 tags, got %d", len(got))
	}

	// Oversized tags are truncated to 50 characters
	long := ValidateTags([]string{strings.Repeat("a", 80)})
	if len(long) != 1 || len(long[0]) != 50 {
		t.Errorf("expected single 50-char tag, got %v", long)
	}

	// Truncation happens per-tag, never an error path
	for _, tag := range got {
		if len(tag) > 50 {
			t.Errorf("tag %q exceeds 50 characters", tag)
		}
	}
}
