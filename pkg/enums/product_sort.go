package enums

import "fmt"

// ProductSort selects the ordering applied to a filtered product list.
type ProductSort string

const (
	ProductSortRelevance  ProductSort = "relevance"
	ProductSortPriceLow   ProductSort = "price-low"
	ProductSortPriceHigh  ProductSort = "price-high"
	ProductSortPopularity ProductSort = "popularity"
	ProductSortNewest     ProductSort = "newest"
)

var validProductSorts = []ProductSort{
	ProductSortRelevance,
	ProductSortPriceLow,
	ProductSortPriceHigh,
	ProductSortPopularity,
	ProductSortNewest,
}

// String implements fmt.Stringer.
func (p ProductSort) String() string {
	return string(p)
}

// IsValid reports whether the value is a known ProductSort.
func (p ProductSort) IsValid() bool {
	for _, candidate := range validProductSorts {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseProductSort converts raw input into a ProductSort.
func ParseProductSort(value string) (ProductSort, error) {
	for _, candidate := range validProductSorts {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product sort %q", value)
}
