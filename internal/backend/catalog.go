package backend

import (
	"context"
	"net/http"

	"github.com/angelmondragon/homeplast-storefront/internal/catalog"
)

func (c *Client) ListProducts(ctx context.Context) ([]catalog.Product, error) {
	var items []productDTO
	if err := c.do(ctx, call{endpoint: "list_products", method: http.MethodGet, path: "/products"}, &items); err != nil {
		return nil, err
	}
	return convertAll("list_products", items, productDTO.toDomain)
}

func (c *Client) ListCategories(ctx context.Context) ([]catalog.Category, error) {
	var items []taxonomyDTO
	if err := c.do(ctx, call{endpoint: "list_categories", method: http.MethodGet, path: "/categories"}, &items); err != nil {
		return nil, err
	}
	return convertAll("list_categories", items, taxonomyDTO.toCategory)
}

func (c *Client) ListBrands(ctx context.Context) ([]catalog.Brand, error) {
	var items []taxonomyDTO
	if err := c.do(ctx, call{endpoint: "list_brands", method: http.MethodGet, path: "/brands"}, &items); err != nil {
		return nil, err
	}
	return convertAll("list_brands", items, taxonomyDTO.toBrand)
}
