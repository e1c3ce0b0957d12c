// Package search holds the opaque search collaborators that finding
// providers query. The default implementation serves canned results from
// an embedded catalog so the task force runs fully offline.
package search

import "context"

// Item is one search hit.
type Item struct {
	Title   string `yaml:"title" json:"title"`
	Link    string `yaml:"link" json:"link"`
	Snippet string `yaml:"snippet,omitempty" json:"snippet,omitempty"`

	// Relevance is the share of query tokens the item matched. It is zero
	// when the source fell back to unfiltered results.
	Relevance float64 `yaml:"-" json:"relevance,omitempty"`
}

// Source answers a free-text query with at most limit items.
type Source interface {
	Name() string
	Search(ctx context.Context, query string, limit int) ([]Item, error)
}
