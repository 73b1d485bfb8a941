package backend

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/angelmondragon/homeplast-storefront/internal/cart"
	"github.com/angelmondragon/homeplast-storefront/internal/orders"
)

type orderLineRequest struct {
	ProductID string        `json:"product_id"`
	Name      string        `json:"name"`
	UnitPrice json.Number   `json:"unit_price"`
	Quantity  int           `json:"quantity"`
	Variant   *cart.Variant `json:"variant,omitempty"`
}

type orderSummaryRequest struct {
	Subtotal       json.Number `json:"subtotal"`
	Discount       json.Number `json:"discount"`
	DeliveryCharge json.Number `json:"delivery_charge"`
	TaxRate        json.Number `json:"tax_rate"`
	TaxAmount      json.Number `json:"tax_amount"`
	Total          json.Number `json:"total"`
}

type submitOrderRequest struct {
	Items          []orderLineRequest  `json:"items"`
	Summary        orderSummaryRequest `json:"summary"`
	CouponCode     string              `json:"coupon_code,omitempty"`
	CouponDiscount json.Number         `json:"coupon_discount"`
	Payable        json.Number         `json:"payable"`
}

func newSubmitOrderRequest(s orders.Submission) submitOrderRequest {
	items := make([]orderLineRequest, 0, len(s.Items))
	for _, line := range s.Items {
		items = append(items, orderLineRequest{
			ProductID: line.ProductID,
			Name:      line.Name,
			UnitPrice: number(line.UnitPrice),
			Quantity:  line.Quantity,
			Variant:   line.Variant,
		})
	}
	return submitOrderRequest{
		Items: items,
		Summary: orderSummaryRequest{
			Subtotal:       number(s.Summary.Subtotal),
			Discount:       number(s.Summary.Discount),
			DeliveryCharge: number(s.Summary.DeliveryCharge),
			TaxRate:        number(s.Summary.TaxRate),
			TaxAmount:      number(s.Summary.TaxAmount),
			Total:          number(s.Summary.Total),
		},
		CouponCode:     s.CouponCode,
		CouponDiscount: number(s.CouponDiscount),
		Payable:        number(s.Payable),
	}
}

func (c *Client) SubmitOrder(ctx context.Context, submission orders.Submission) (orders.Order, error) {
	var dto orderDTO
	err := c.do(ctx, call{
		endpoint: "submit_order",
		method:   http.MethodPost,
		path:     "/orders",
		body:     newSubmitOrderRequest(submission),
	}, &dto)
	if err != nil {
		return orders.Order{}, err
	}
	order, err := dto.toDomain()
	if err != nil {
		return orders.Order{}, malformed("submit_order", err)
	}
	return order, nil
}

func (c *Client) ListOrders(ctx context.Context) ([]orders.Order, error) {
	var items []orderDTO
	if err := c.do(ctx, call{endpoint: "list_orders", method: http.MethodGet, path: "/orders"}, &items); err != nil {
		return nil, err
	}
	return convertAll("list_orders", items, orderDTO.toDomain)
}
