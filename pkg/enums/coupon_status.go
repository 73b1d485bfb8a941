package enums

import "fmt"

// CouponStatus tracks whether a coupon may currently be redeemed.
type CouponStatus string

const (
	CouponStatusActive   CouponStatus = "active"
	CouponStatusInactive CouponStatus = "inactive"
	CouponStatusExpired  CouponStatus = "expired"
)

var validCouponStatuses = []CouponStatus{
	CouponStatusActive,
	CouponStatusInactive,
	CouponStatusExpired,
}

// String implements fmt.Stringer.
func (c CouponStatus) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CouponStatus.
func (c CouponStatus) IsValid() bool {
	for _, candidate := range validCouponStatuses {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCouponStatus converts raw input into a CouponStatus.
func ParseCouponStatus(value string) (CouponStatus, error) {
	for _, candidate := range validCouponStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid coupon status %q", value)
}
