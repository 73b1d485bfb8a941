package coupon

import (
	"fmt"
	"time"

	"github.com/angelmondragon/homeplast-storefront/pkg/enums"
	"github.com/shopspring/decimal"
)

// Reason identifies why a coupon failed validation.
type Reason string

const (
	ReasonNotActive      Reason = "not_active"
	ReasonNotYetValid    Reason = "not_yet_valid"
	ReasonExpired        Reason = "expired"
	ReasonUsageLimit     Reason = "usage_limit_reached"
	ReasonPerUserLimit   Reason = "per_user_limit_reached"
	ReasonMinimumNotMet  Reason = "minimum_not_met"
	ReasonNotApplicable  Reason = "not_applicable"
	ReasonUnknownCoupon  Reason = "unknown_coupon"
	ReasonServerRejected Reason = "server_rejected"
)

const discountDecimalPlaces = 2

var hundred = decimal.NewFromInt(100)

// Coupon is a promotional rule declared by the shop back end. It is read-only here.
type Coupon struct {
	Code            string                    `json:"code"`
	Type            enums.CouponType          `json:"type"`
	Value           decimal.Decimal           `json:"value"`
	MinimumAmount   decimal.Decimal           `json:"minimum_amount"`
	MaximumDiscount *decimal.Decimal          `json:"maximum_discount,omitempty"`
	UsageLimit      *int                      `json:"usage_limit,omitempty"`
	UsedCount       int                       `json:"used_count"`
	PerUserLimit    *int                      `json:"per_user_limit,omitempty"`
	Applicability   enums.CouponApplicability `json:"applicability"`
	ApplicableIDs   []string                  `json:"applicable_ids,omitempty"`
	StartDate       time.Time                 `json:"start_date"`
	EndDate         time.Time                 `json:"end_date"`
	Status          enums.CouponStatus        `json:"status"`
}

// Result is the outcome of validating a coupon against a cart total.
type Result struct {
	IsValid  bool            `json:"is_valid"`
	Discount decimal.Decimal `json:"discount"`
	Message  string          `json:"message"`
	Reason   Reason          `json:"reason,omitempty"`
	Coupon   *Coupon         `json:"coupon,omitempty"`
}

// Validate decides whether c may be applied to a cart worth cartTotal. Checks run in
// a fixed order and the first failure wins. userID may be empty for guests, in which
// case per-user limits are not checked. Case is not normalized here.
func Validate(c Coupon, cartTotal decimal.Decimal, userID string, userUsageCount int, now time.Time) Result {
	switch {
	case c.Status != enums.CouponStatusActive:
		return reject(ReasonNotActive, "coupon is not active")
	case !c.StartDate.IsZero() && now.Before(c.StartDate):
		return reject(ReasonNotYetValid, "coupon is not yet valid")
	case !c.EndDate.IsZero() && now.After(c.EndDate):
		return reject(ReasonExpired, "coupon has expired")
	case c.UsageLimit != nil && c.UsedCount >= *c.UsageLimit:
		return reject(ReasonUsageLimit, "coupon usage limit reached")
	case userID != "" && c.PerUserLimit != nil && userUsageCount >= *c.PerUserLimit:
		return reject(ReasonPerUserLimit, "you have reached the per-user limit for this coupon")
	case cartTotal.LessThan(c.MinimumAmount):
		return reject(ReasonMinimumNotMet, fmt.Sprintf("minimum order amount of %s not met", c.MinimumAmount.String()))
	}

	applied := c
	return Result{
		IsValid:  true,
		Discount: CalculateDiscount(c, cartTotal),
		Message:  "coupon applied",
		Coupon:   &applied,
	}
}

// CalculateDiscount computes the discount c grants on cartTotal, rounded to two
// decimal places with halves rounded away from zero.
func CalculateDiscount(c Coupon, cartTotal decimal.Decimal) decimal.Decimal {
	var discount decimal.Decimal
	switch c.Type {
	case enums.CouponTypePercentage:
		discount = cartTotal.Mul(c.Value).Div(hundred)
		if c.MaximumDiscount != nil && discount.GreaterThan(*c.MaximumDiscount) {
			discount = *c.MaximumDiscount
		}
	case enums.CouponTypeFixed:
		discount = decimal.Min(c.Value, cartTotal)
	case enums.CouponTypeFreeShipping:
		// the caller waives the delivery charge; value is the advertised shipping cost
		discount = c.Value
	case enums.CouponTypeBuyXGetY:
		// flat placeholder until bundle rules are defined
		discount = c.Value
	default:
		discount = decimal.Zero
	}
	return discount.Round(discountDecimalPlaces)
}

// Scope lists what the cart contains, for applicability checks.
type Scope struct {
	ProductIDs  []string
	CategoryIDs []string
	BrandIDs    []string
}

// Applies reports whether the coupon covers at least one item in scope.
func Applies(c Coupon, scope Scope) bool {
	var candidates []string
	switch c.Applicability {
	case enums.CouponApplicabilityAll, "":
		return true
	case enums.CouponApplicabilityProducts:
		candidates = scope.ProductIDs
	case enums.CouponApplicabilityCategories:
		candidates = scope.CategoryIDs
	case enums.CouponApplicabilityBrands:
		candidates = scope.BrandIDs
	default:
		return false
	}
	allowed := make(map[string]struct{}, len(c.ApplicableIDs))
	for _, id := range c.ApplicableIDs {
		allowed[id] = struct{}{}
	}
	for _, id := range candidates {
		if _, ok := allowed[id]; ok {
			return true
		}
	}
	return false
}

func reject(reason Reason, message string) Result {
	return Result{
		IsValid:  false,
		Discount: decimal.Zero,
		Message:  message,
		Reason:   reason,
	}
}
