package model

import "strings"

// SortMode selects the order of activity cards.
type SortMode string

const (
	SortByName  SortMode = "name"
	SortBySpots SortMode = "spots"
)

// CategoryAll is the category filter value that keeps every activity.
const CategoryAll = "all"

// Filter is the visitor's search/sort/category selection.
// It is ephemeral: never persisted, reset on page reload.
type Filter struct {
	Search   string
	Sort     SortMode
	Category string
}

// DefaultFilter is the state a fresh page starts in.
func DefaultFilter() Filter {
	return Filter{Sort: SortByName, Category: CategoryAll}
}

// Query returns the search text normalised for matching: trimmed and lower-cased.
// An empty result means "no search filtering".
func (f Filter) Query() string {
	return strings.ToLower(strings.TrimSpace(f.Search))
}

// AllCategories reports whether the category filter keeps every activity.
func (f Filter) AllCategories() bool {
	return f.Category == "" || f.Category == CategoryAll
}
