package catalog

import (
	"testing"

	"github.com/angelmondragon/homeplast-storefront/pkg/enums"
	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func product(id, category, price string) Product {
	return Product{
		ID:       id,
		Name:     "product " + id,
		Slug:     "product-" + id,
		Price:    dec(price),
		Category: category,
		Status:   enums.ProductStatusActive,
	}
}

func ids(products []Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.ID
	}
	return out
}

func equalIDs(t *testing.T, got []Product, want ...string) {
	t.Helper()
	gotIDs := ids(got)
	if len(gotIDs) != len(want) {
		t.Fatalf("expected %v, got %v", want, gotIDs)
	}
	for i := range want {
		if gotIDs[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, gotIDs)
		}
	}
}

func TestApplyCategoryPreservesOrder(t *testing.T) {
	products := []Product{
		product("1", "A", "30"),
		product("2", "B", "10"),
		product("3", "A", "20"),
		product("4", "B", "5"),
		product("5", "A", "25"),
	}

	filtered := Apply(products, Filter{Categories: []string{"A"}})
	equalIDs(t, filtered, "1", "3", "5")

	sorted := Sort(filtered, enums.ProductSortPriceLow)
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Price.LessThan(sorted[i-1].Price) {
			t.Fatalf("prices not non-decreasing: %v", ids(sorted))
		}
	}
	equalIDs(t, filtered, "1", "3", "5")
}

func TestApplyEmptyFilterMatchesAllActive(t *testing.T) {
	inactive := product("2", "A", "10")
	inactive.Status = enums.ProductStatusInactive
	products := []Product{product("1", "A", "10"), inactive, product("3", "B", "10")}

	equalIDs(t, Apply(products, Filter{}), "1", "3")
	if got := Apply(nil, Filter{Categories: []string{"A"}}); len(got) != 0 {
		t.Fatalf("expected empty result for empty list, got %v", got)
	}
}

func TestApplyOrWithinFacetAndAcrossFacets(t *testing.T) {
	red := product("1", "A", "10")
	red.Colors = []string{"Red"}
	red.Sizes = []string{"L"}
	blue := product("2", "A", "10")
	blue.Colors = []string{"blue"}
	blue.Sizes = []string{"S"}
	green := product("3", "A", "10")
	green.Colors = []string{"green"}
	green.Sizes = []string{"L"}

	products := []Product{red, blue, green}

	equalIDs(t, Apply(products, Filter{Colors: []string{"red", "blue"}}), "1", "2")
	equalIDs(t, Apply(products, Filter{Colors: []string{"red", "blue"}, Sizes: []string{"L"}}), "1")
	equalIDs(t, Apply(products, Filter{Colors: []string{"red"}, Categories: []string{"B"}}))
}

func TestApplyRangesAreInclusive(t *testing.T) {
	small := product("1", "A", "100")
	small.Capacity = decPtr("5")
	large := product("2", "A", "200")
	large.Capacity = decPtr("20")
	unknown := product("3", "A", "150")

	products := []Product{small, large, unknown}

	equalIDs(t, Apply(products, Filter{Price: Range{Min: decPtr("100"), Max: decPtr("150")}}), "1", "3")
	equalIDs(t, Apply(products, Filter{Price: Range{Min: decPtr("150")}}), "2", "3")
	equalIDs(t, Apply(products, Filter{Capacity: Range{Min: decPtr("5"), Max: decPtr("20")}}), "1", "2")
	equalIDs(t, Apply(products, Filter{Capacity: Range{Max: decPtr("10")}}), "1")
}

func TestSortOptions(t *testing.T) {
	a := product("a", "A", "30")
	a.ReviewCount = 5
	b := product("b", "A", "10")
	b.ReviewCount = 50
	b.IsNew = true
	c := product("c", "A", "30")
	c.ReviewCount = 5
	d := product("d", "A", "20")
	d.IsNew = true

	products := []Product{a, b, c, d}

	equalIDs(t, Sort(products, enums.ProductSortRelevance), "a", "b", "c", "d")
	equalIDs(t, Sort(products, enums.ProductSortPriceLow), "b", "d", "a", "c")
	equalIDs(t, Sort(products, enums.ProductSortPriceHigh), "a", "c", "d", "b")
	equalIDs(t, Sort(products, enums.ProductSortPopularity), "b", "a", "c", "d")
	equalIDs(t, Sort(products, enums.ProductSortNewest), "b", "d", "a", "c")

	// input untouched
	equalIDs(t, products, "a", "b", "c", "d")
}
