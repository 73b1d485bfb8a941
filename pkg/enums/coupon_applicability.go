package enums

import "fmt"

// CouponApplicability scopes a coupon to the whole catalog or a set of ids.
type CouponApplicability string

const (
	CouponApplicabilityAll        CouponApplicability = "all"
	CouponApplicabilityCategories CouponApplicability = "categories"
	CouponApplicabilityProducts   CouponApplicability = "products"
	CouponApplicabilityBrands     CouponApplicability = "brands"
)

var validCouponApplicabilities = []CouponApplicability{
	CouponApplicabilityAll,
	CouponApplicabilityCategories,
	CouponApplicabilityProducts,
	CouponApplicabilityBrands,
}

// String implements fmt.Stringer.
func (c CouponApplicability) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CouponApplicability.
func (c CouponApplicability) IsValid() bool {
	for _, candidate := range validCouponApplicabilities {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCouponApplicability converts raw input into a CouponApplicability.
func ParseCouponApplicability(value string) (CouponApplicability, error) {
	for _, candidate := range validCouponApplicabilities {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid coupon applicability %q", value)
}
