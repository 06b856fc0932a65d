package domain

import (
	"context"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// DefaultCategories seeds an empty category store.
var DefaultCategories = []string{
	"Food Videos",
	"Sports Videos",
	"General Humor",
	"Travel Videos",
	"Perspective on Life",
}

// CategoryStore persists the flat list of category names.
// Implementations keep insertion order and never store duplicates.
type CategoryStore interface {
	List(ctx context.Context) ([]string, error)
	Add(ctx context.Context, name string) ([]string, error)
}

// NormalizeCategory trims and NFC-normalises a category name.
// Comparison stays case-sensitive.
func NormalizeCategory(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

// ValidateSegment checks that s can be used as a single path segment,
// which is how categories and new file names end up on disk.
func ValidateSegment(field, s string) error {
	switch {
	case s == "":
		return Validation("%s is required", field)
	case s == "." || s == "..":
		return Validation("%s %q is not a valid name", field, s)
	case strings.ContainsAny(s, `/\`):
		return Validation("%s %q must not contain path separators", field, s)
	case strings.ContainsRune(s, 0):
		return Validation("%s must not contain NUL bytes", field)
	}
	return nil
}

// ContainsCategory reports whether name is already in list.
func ContainsCategory(list []string, name string) bool {
	for _, c := range list {
		if c == name {
			return true
		}
	}
	return false
}
