package orders

import (
	"context"
	"time"

	"github.com/angelmondragon/homeplast-storefront/internal/cart"
	"github.com/angelmondragon/homeplast-storefront/internal/pricing"
	"github.com/angelmondragon/homeplast-storefront/pkg/enums"
	"github.com/shopspring/decimal"
)

// Order is an order record as returned by the shop back end.
type Order struct {
	ID        string            `json:"id"`
	Status    enums.OrderStatus `json:"status"`
	Total     decimal.Decimal   `json:"total"`
	CreatedAt time.Time         `json:"created_at"`
	Items     []cart.Line       `json:"items"`
}

// Submission is the payload handed to the back end when placing an order.
type Submission struct {
	Items          []cart.Line     `json:"items"`
	Summary        pricing.Summary `json:"summary"`
	CouponCode     string          `json:"coupon_code,omitempty"`
	CouponDiscount decimal.Decimal `json:"coupon_discount"`
	Payable        decimal.Decimal `json:"payable"`
}

// Gateway submits and lists orders on the shop back end.
type Gateway interface {
	SubmitOrder(ctx context.Context, submission Submission) (Order, error)
	ListOrders(ctx context.Context) ([]Order, error)
}
