package enums

import "fmt"

// CouponType enumerates the discount mechanics a coupon can carry.
type CouponType string

const (
	CouponTypePercentage   CouponType = "percentage"
	CouponTypeFixed        CouponType = "fixed"
	CouponTypeFreeShipping CouponType = "free_shipping"
	CouponTypeBuyXGetY     CouponType = "buy_x_get_y"
)

var validCouponTypes = []CouponType{
	CouponTypePercentage,
	CouponTypeFixed,
	CouponTypeFreeShipping,
	CouponTypeBuyXGetY,
}

// String implements fmt.Stringer.
func (c CouponType) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CouponType.
func (c CouponType) IsValid() bool {
	for _, candidate := range validCouponTypes {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCouponType converts raw input into a CouponType.
func ParseCouponType(value string) (CouponType, error) {
	for _, candidate := range validCouponTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid coupon type %q", value)
}
