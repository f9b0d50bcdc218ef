package domain

import "sort"

// Catalog maps each category (department) to the subtypes it offers.
type Catalog map[string][]string

// DefaultCatalog returns the built-in departments.
func DefaultCatalog() Catalog {
	return Catalog{
		"technical": {"security", "performance", "architecture", "database", "devops", "testing"},
		"product":   {"ux", "research", "analytics", "strategy"},
		"business":  {"finance", "legal", "marketing", "operations"},
		"creative":  {"writing", "design", "branding"},
	}
}

// HasCategory reports whether the category exists.
func (c Catalog) HasCategory(category string) bool {
	_, ok := c[category]
	return ok
}

// HasSubtype reports whether subtype belongs to category.
func (c Catalog) HasSubtype(category, subtype string) bool {
	for _, s := range c[category] {
		if s == subtype {
			return true
		}
	}
	return false
}

// Categories returns the category names in sorted order.
func (c Catalog) Categories() []string {
	out := make([]string, 0, len(c))
	for k := range c {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Subtypes returns a sorted copy of the category's subtypes.
func (c Catalog) Subtypes(category string) []string {
	out := append([]string(nil), c[category]...)
	sort.Strings(out)
	return out
}
