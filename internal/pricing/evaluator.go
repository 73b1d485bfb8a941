package pricing

import (
	"github.com/angelmondragon/homeplast-storefront/pkg/config"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Subtotaler is anything that can report a cart subtotal.
type Subtotaler interface {
	Subtotal() decimal.Decimal
}

// Summary is the derived price breakdown of an order.
type Summary struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	Discount       decimal.Decimal `json:"discount"`
	DeliveryCharge decimal.Decimal `json:"delivery_charge"`
	TaxRate        decimal.Decimal `json:"tax_rate"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	Total          decimal.Decimal `json:"total"`
}

// Evaluator derives order summaries from a cart and the configured business constants.
type Evaluator struct {
	cfg config.PricingConfig
}

// NewEvaluator builds an evaluator over the provided pricing constants.
func NewEvaluator(cfg config.PricingConfig) *Evaluator {
	return &Evaluator{cfg: cfg}
}

// DefaultConfig mirrors the storefront's published pricing rules.
func DefaultConfig() config.PricingConfig {
	return config.PricingConfig{
		VolumeDiscountThreshold: decimal.NewFromInt(2000),
		VolumeDiscountRate:      decimal.RequireFromString("0.10"),
		FreeDeliveryThreshold:   decimal.NewFromInt(1000),
		FlatDeliveryFee:         decimal.NewFromInt(50),
		TaxRate:                 decimal.NewFromInt(18),
	}
}

// Summarize prices the cart. It is total over every cart state, including empty.
func (e *Evaluator) Summarize(c Subtotaler) Summary {
	subtotal := c.Subtotal()
	return e.summarize(subtotal, e.deliveryCharge(subtotal))
}

// SummarizeWaivingDelivery prices the cart with the delivery charge forced to zero,
// for orders carrying a free shipping coupon.
func (e *Evaluator) SummarizeWaivingDelivery(c Subtotaler) Summary {
	return e.summarize(c.Subtotal(), decimal.Zero)
}

func (e *Evaluator) summarize(subtotal, delivery decimal.Decimal) Summary {
	discount := decimal.Zero
	if subtotal.GreaterThan(e.cfg.VolumeDiscountThreshold) {
		discount = subtotal.Mul(e.cfg.VolumeDiscountRate).Floor()
	}

	taxableBase := subtotal.Sub(discount).Add(delivery)
	tax := taxableBase.Mul(e.cfg.TaxRate).Div(hundred).Floor()

	return Summary{
		Subtotal:       subtotal,
		Discount:       discount,
		DeliveryCharge: delivery,
		TaxRate:        e.cfg.TaxRate,
		TaxAmount:      tax,
		Total:          taxableBase.Add(tax),
	}
}

func (e *Evaluator) deliveryCharge(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThan(e.cfg.FreeDeliveryThreshold) {
		return decimal.Zero
	}
	return e.cfg.FlatDeliveryFee
}
