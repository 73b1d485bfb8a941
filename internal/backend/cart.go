package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/angelmondragon/homeplast-storefront/internal/cart"
)

type addCartItemRequest struct {
	ProductID string        `json:"product_id"`
	Quantity  int           `json:"quantity"`
	Variant   *cart.Variant `json:"variant,omitempty"`
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

// FetchCart returns the server-side copy of the caller's cart.
func (c *Client) FetchCart(ctx context.Context) ([]cart.Line, error) {
	var items []cartItemDTO
	if err := c.do(ctx, call{endpoint: "get_cart", method: http.MethodGet, path: "/cart"}, &items); err != nil {
		return nil, err
	}
	return convertAll("get_cart", items, cartItemDTO.toDomain)
}

func (c *Client) AddCartItem(ctx context.Context, line cart.Line) error {
	return c.do(ctx, call{
		endpoint: "add_cart_item",
		method:   http.MethodPost,
		path:     "/cart",
		body:     addCartItemRequest{ProductID: line.ProductID, Quantity: line.Quantity, Variant: line.Variant},
	}, nil)
}

// UpdateCartItem sets the quantity of the line keyed by productID.
func (c *Client) UpdateCartItem(ctx context.Context, productID string, quantity int) error {
	return c.do(ctx, call{
		endpoint: "update_cart_item",
		method:   http.MethodPut,
		path:     "/cart/" + url.PathEscape(productID),
		body:     updateCartItemRequest{Quantity: quantity},
	}, nil)
}

func (c *Client) RemoveCartItem(ctx context.Context, productID string) error {
	return c.do(ctx, call{
		endpoint: "remove_cart_item",
		method:   http.MethodDelete,
		path:     "/cart/" + url.PathEscape(productID),
	}, nil)
}

func (c *Client) ClearCart(ctx context.Context) error {
	return c.do(ctx, call{endpoint: "clear_cart", method: http.MethodDelete, path: "/cart"}, nil)
}
