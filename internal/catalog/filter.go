package catalog

import (
	"sort"
	"strings"

	"github.com/angelmondragon/homeplast-storefront/pkg/enums"
	"github.com/shopspring/decimal"
)

// Range is an inclusive numeric interval. A nil bound is open.
type Range struct {
	Min *decimal.Decimal
	Max *decimal.Decimal
}

// IsSet reports whether either bound is present.
func (r Range) IsSet() bool {
	return r.Min != nil || r.Max != nil
}

// Contains reports whether v lies within the range, bounds included.
func (r Range) Contains(v decimal.Decimal) bool {
	if r.Min != nil && v.LessThan(*r.Min) {
		return false
	}
	if r.Max != nil && v.GreaterThan(*r.Max) {
		return false
	}
	return true
}

// Filter is the shopper's facet selection. Values within a facet are ORed and
// facets are ANDed; an empty facet matches everything.
type Filter struct {
	Categories []string
	Sizes      []string
	Colors     []string
	Capacity   Range
	Price      Range
}

// Apply returns the active products matching f, preserving their relative order.
func Apply(products []Product, f Filter) []Product {
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if p.IsActive() && f.Matches(p) {
			out = append(out, p)
		}
	}
	return out
}

// Matches reports whether p satisfies every facet of f.
func (f Filter) Matches(p Product) bool {
	if len(f.Categories) > 0 && !containsFold(f.Categories, p.Category) {
		return false
	}
	if len(f.Sizes) > 0 && !intersectsFold(f.Sizes, p.Sizes) {
		return false
	}
	if len(f.Colors) > 0 && !intersectsFold(f.Colors, p.Colors) {
		return false
	}
	if f.Capacity.IsSet() && (p.Capacity == nil || !f.Capacity.Contains(*p.Capacity)) {
		return false
	}
	if f.Price.IsSet() && !f.Price.Contains(p.Price) {
		return false
	}
	return true
}

// Sort returns a stably sorted copy of products. Relevance keeps the input order.
func Sort(products []Product, by enums.ProductSort) []Product {
	out := make([]Product, len(products))
	copy(out, products)

	var less func(a, b Product) bool
	switch by {
	case enums.ProductSortPriceLow:
		less = func(a, b Product) bool { return a.Price.LessThan(b.Price) }
	case enums.ProductSortPriceHigh:
		less = func(a, b Product) bool { return a.Price.GreaterThan(b.Price) }
	case enums.ProductSortPopularity:
		less = func(a, b Product) bool { return a.ReviewCount > b.ReviewCount }
	case enums.ProductSortNewest:
		less = func(a, b Product) bool { return a.IsNew && !b.IsNew }
	default:
		return out
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func containsFold(set []string, value string) bool {
	for _, candidate := range set {
		if strings.EqualFold(strings.TrimSpace(candidate), value) {
			return true
		}
	}
	return false
}

func intersectsFold(set, values []string) bool {
	for _, v := range values {
		if containsFold(set, v) {
			return true
		}
	}
	return false
}
