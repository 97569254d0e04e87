// Package menu loads the restaurant catalog and resolves spoken item
// mentions against it. The catalog is read once at startup and immutable
// afterwards; resolution is deterministic for a fixed catalog.
package menu

import (
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
)

// Item is one orderable menu entry. ID is a slug derived from the name,
// unique across the whole menu.
type Item struct {
	ID          string   `yaml:"-" json:"id"`
	Name        string   `yaml:"name" json:"name"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
	Price       Cents    `yaml:"price" json:"price"`
	Popular     bool     `yaml:"popular,omitempty" json:"popular,omitempty"`
	Dietary     []string `yaml:"dietary,omitempty" json:"dietary,omitempty"`
	Category    string   `yaml:"-" json:"category"`
}

// Category groups items under a menu heading.
type Category struct {
	Name  string  `yaml:"name" json:"name"`
	Items []*Item `yaml:"items" json:"items"`
}

// Config tunes mention resolution. Zero values fall back to the defaults.
type Config struct {
	// MatchThreshold is the minimum score for an item to be considered a
	// candidate, in [0,1]. Default 0.6.
	MatchThreshold float64

	// AmbiguityMargin is the minimum lead the best candidate needs over
	// the runner-up to resolve uniquely, in [0,1]. Default 0.15.
	AmbiguityMargin float64
}

// Defaults for Config.
const (
	DefaultMatchThreshold  = 0.6
	DefaultAmbiguityMargin = 0.15
)

// Catalog is the loaded menu: items in declaration order plus the derived
// lookup structures.
type Catalog struct {
	categories []Category
	items      []*Item
	byID       map[string]*Item

	threshold float64
	margin    float64
}

// Load reads and validates a menu YAML file. Pass nil cfg for defaults.
func Load(path string, cfg *Config) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("menu: read %s: %w", path, err)
	}
	c, err := Parse(data, cfg)
	if err != nil {
		return nil, fmt.Errorf("menu: %s: %w", path, err)
	}
	return c, nil
}

// Parse builds a Catalog from menu YAML.
func Parse(data []byte, cfg *Config) (*Catalog, error) {
	var file struct {
		Categories []Category `yaml:"categories"`
	}
	if err := yaml.UnmarshalWithOptions(data, &file, yaml.DisallowUnknownField()); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	c := &Catalog{
		categories: file.Categories,
		byID:       make(map[string]*Item),
		threshold:  DefaultMatchThreshold,
		margin:     DefaultAmbiguityMargin,
	}
	if cfg != nil {
		if cfg.MatchThreshold != 0 {
			c.threshold = cfg.MatchThreshold
		}
		if cfg.AmbiguityMargin != 0 {
			c.margin = cfg.AmbiguityMargin
		}
	}

	if len(c.categories) == 0 {
		return nil, fmt.Errorf("no categories defined")
	}
	for ci := range c.categories {
		cat := &c.categories[ci]
		if strings.TrimSpace(cat.Name) == "" {
			return nil, fmt.Errorf("category %d: name required", ci)
		}
		if len(cat.Items) == 0 {
			return nil, fmt.Errorf("category %q has no items", cat.Name)
		}
		for _, item := range cat.Items {
			if strings.TrimSpace(item.Name) == "" {
				return nil, fmt.Errorf("category %q: item name required", cat.Name)
			}
			if item.Price <= 0 {
				return nil, fmt.Errorf("item %q: price must be positive", item.Name)
			}
			item.ID = Slug(item.Name)
			item.Category = cat.Name
			if prev, dup := c.byID[item.ID]; dup {
				return nil, fmt.Errorf("item %q conflicts with %q", item.Name, prev.Name)
			}
			c.byID[item.ID] = item
			c.items = append(c.items, item)
		}
	}
	return c, nil
}

// Slug derives the canonical item ID from a name: lower case, with runs of
// non-alphanumeric characters collapsed to single hyphens.
func Slug(name string) string {
	var b strings.Builder
	prevHyphen := true // trims leading separators
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prevHyphen = false
		default:
			if !prevHyphen {
				b.WriteByte('-')
				prevHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// Items returns all items in menu declaration order.
func (c *Catalog) Items() []*Item {
	return c.items
}

// Categories returns the menu sections in declaration order.
func (c *Catalog) Categories() []Category {
	return c.categories
}

// Lookup finds an item by its ID.
func (c *Catalog) Lookup(id string) (*Item, bool) {
	item, ok := c.byID[id]
	return item, ok
}

// PopularItems returns up to n items flagged popular, in declaration order.
func (c *Catalog) PopularItems(n int) []*Item {
	var out []*Item
	for _, item := range c.items {
		if !item.Popular {
			continue
		}
		out = append(out, item)
		if len(out) == n {
			break
		}
	}
	return out
}
