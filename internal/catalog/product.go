package catalog

import (
	"github.com/angelmondragon/homeplast-storefront/pkg/enums"
	"github.com/shopspring/decimal"
)

// Product is a sellable item as listed by the shop back end.
type Product struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Slug        string              `json:"slug"`
	Price       decimal.Decimal     `json:"price"`
	Images      []string            `json:"images"`
	Category    string              `json:"category"`
	Brand       string              `json:"brand,omitempty"`
	Status      enums.ProductStatus `json:"status"`
	Sizes       []string            `json:"sizes,omitempty"`
	Colors      []string            `json:"colors,omitempty"`
	Capacity    *decimal.Decimal    `json:"capacity,omitempty"`
	ReviewCount int                 `json:"review_count"`
	IsNew       bool                `json:"is_new"`
}

// IsActive reports whether the product may be listed and sold.
func (p Product) IsActive() bool {
	return p.Status == enums.ProductStatusActive
}

// Category groups products for browsing.
type Category struct {
	ID     string              `json:"id"`
	Name   string              `json:"name"`
	Slug   string              `json:"slug"`
	Status enums.ProductStatus `json:"status"`
}

// Brand is a product manufacturer.
type Brand struct {
	ID     string              `json:"id"`
	Name   string              `json:"name"`
	Slug   string              `json:"slug"`
	Status enums.ProductStatus `json:"status"`
}
