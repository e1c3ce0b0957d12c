package search

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Collection names in the default catalog.
const (
	CollectionWeb        = "web"
	CollectionHackerNews = "hackernews"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Catalog is a named set of canned result collections.
type Catalog struct {
	collections map[string]*Collection
}

type catalogFile struct {
	Collections map[string][]Item `yaml:"collections"`
}

// LoadCatalog parses a YAML catalog document.
func LoadCatalog(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(f.Collections) == 0 {
		return nil, fmt.Errorf("parse catalog: no collections defined")
	}
	c := &Catalog{collections: make(map[string]*Collection, len(f.Collections))}
	for name, items := range f.Collections {
		c.collections[name] = &Collection{name: name, items: items}
	}
	return c, nil
}

// LoadCatalogFile reads a YAML catalog from disk.
func LoadCatalogFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return LoadCatalog(data)
}

// DefaultCatalog returns the embedded offline catalog.
func DefaultCatalog() (*Catalog, error) {
	return LoadCatalog(defaultCatalog)
}

// Collection returns the named collection.
func (c *Catalog) Collection(name string) (*Collection, error) {
	col, ok := c.collections[name]
	if !ok {
		return nil, fmt.Errorf("catalog has no collection %q", name)
	}
	return col, nil
}

// Names lists the collections in the catalog, sorted.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.collections))
	for n := range c.collections {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Collection is an offline Source backed by a fixed item list.
type Collection struct {
	name  string
	items []Item
}

func (c *Collection) Name() string { return c.name }

// Search keeps items whose title or snippet contains any query token and
// falls back to the whole collection when nothing matches.
func (c *Collection) Search(ctx context.Context, query string, limit int) ([]Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return []Item{}, nil
	}

	tokens := strings.Fields(strings.ToLower(query))
	var matched []Item
	for _, it := range c.items {
		hay := strings.ToLower(it.Title + " " + it.Snippet)
		hits := 0
		for _, tok := range tokens {
			if strings.Contains(hay, tok) {
				hits++
			}
		}
		if hits > 0 {
			it.Relevance = float64(hits) / float64(len(tokens))
			matched = append(matched, it)
		}
	}

	out := matched
	if len(out) == 0 {
		out = make([]Item, len(c.items))
		copy(out, c.items)
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
