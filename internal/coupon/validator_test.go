package coupon

import (
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/homeplast-storefront/pkg/enums"
	"github.com/shopspring/decimal"
)

var testNow = time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func intPtr(v int) *int {
	return &v
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func activeCoupon() Coupon {
	return Coupon{
		Code:          "SAVE10",
		Type:          enums.CouponTypePercentage,
		Value:         dec("10"),
		MinimumAmount: dec("0"),
		Applicability: enums.CouponApplicabilityAll,
		StartDate:     testNow.Add(-24 * time.Hour),
		EndDate:       testNow.Add(24 * time.Hour),
		Status:        enums.CouponStatusActive,
	}
}

func TestValidatePrecedence(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Coupon)
		userID string
		usage  int
		total  string
		reason Reason
	}{
		{
			name: "inactive beats every other failure",
			mutate: func(c *Coupon) {
				c.Status = enums.CouponStatusInactive
				c.EndDate = testNow.Add(-time.Hour)
				c.MinimumAmount = dec("9999")
			},
			total:  "10",
			reason: ReasonNotActive,
		},
		{
			name:   "expired status",
			mutate: func(c *Coupon) { c.Status = enums.CouponStatusExpired },
			total:  "10",
			reason: ReasonNotActive,
		},
		{
			name: "not yet valid",
			mutate: func(c *Coupon) {
				c.StartDate = testNow.Add(time.Hour)
				c.UsageLimit = intPtr(1)
				c.UsedCount = 1
			},
			total:  "10",
			reason: ReasonNotYetValid,
		},
		{
			name: "past end date",
			mutate: func(c *Coupon) {
				c.EndDate = testNow.Add(-time.Minute)
				c.MinimumAmount = dec("100")
			},
			total:  "10",
			reason: ReasonExpired,
		},
		{
			name: "global usage limit",
			mutate: func(c *Coupon) {
				c.UsageLimit = intPtr(5)
				c.UsedCount = 5
				c.PerUserLimit = intPtr(1)
			},
			userID: "u1",
			usage:  3,
			total:  "10",
			reason: ReasonUsageLimit,
		},
		{
			name:   "per user limit",
			mutate: func(c *Coupon) { c.PerUserLimit = intPtr(2) },
			userID: "u1",
			usage:  2,
			total:  "10",
			reason: ReasonPerUserLimit,
		},
		{
			name:   "minimum amount",
			mutate: func(c *Coupon) { c.MinimumAmount = dec("500") },
			total:  "499",
			reason: ReasonMinimumNotMet,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := activeCoupon()
			tc.mutate(&c)
			result := Validate(c, dec(tc.total), tc.userID, tc.usage, testNow)
			if result.IsValid {
				t.Fatalf("expected rejection, got %+v", result)
			}
			if result.Reason != tc.reason {
				t.Fatalf("expected reason %s, got %s (%s)", tc.reason, result.Reason, result.Message)
			}
			if !result.Discount.IsZero() {
				t.Fatalf("rejected coupon must carry zero discount, got %s", result.Discount)
			}
			if result.Coupon != nil {
				t.Fatal("rejected coupon must not be echoed")
			}
		})
	}
}

func TestValidateSkipsPerUserLimitForGuests(t *testing.T) {
	c := activeCoupon()
	c.PerUserLimit = intPtr(1)
	result := Validate(c, dec("100"), "", 4, testNow)
	if !result.IsValid {
		t.Fatalf("expected guest to pass per-user check, got %s", result.Message)
	}
}

func TestValidateMinimumMessageEmbedsAmount(t *testing.T) {
	c := activeCoupon()
	c.MinimumAmount = dec("500")
	result := Validate(c, dec("499"), "", 0, testNow)
	if result.IsValid {
		t.Fatal("expected minimum amount rejection")
	}
	if !strings.Contains(result.Message, "500") {
		t.Fatalf("expected message to mention 500, got %q", result.Message)
	}

	if accepted := Validate(c, dec("500"), "", 0, testNow); !accepted.IsValid {
		t.Fatalf("cart equal to the minimum should pass, got %q", accepted.Message)
	}
}

func TestValidateAcceptsAndEchoesCoupon(t *testing.T) {
	result := Validate(activeCoupon(), dec("250"), "u1", 0, testNow)
	if !result.IsValid {
		t.Fatalf("expected valid coupon, got %q", result.Message)
	}
	if result.Coupon == nil || result.Coupon.Code != "SAVE10" {
		t.Fatalf("expected coupon echoed, got %+v", result.Coupon)
	}
	if !result.Discount.Equal(dec("25")) {
		t.Fatalf("expected discount 25, got %s", result.Discount)
	}
}

func TestValidateDoesNotNormalizeCase(t *testing.T) {
	c := activeCoupon()
	c.Code = "save10"
	result := Validate(c, dec("100"), "", 0, testNow)
	if result.Coupon == nil || result.Coupon.Code != "save10" {
		t.Fatalf("expected code untouched, got %+v", result.Coupon)
	}
}

func TestCalculateDiscount(t *testing.T) {
	cases := []struct {
		name   string
		coupon Coupon
		total  string
		want   string
	}{
		{
			name:   "percentage capped by maximum",
			coupon: Coupon{Type: enums.CouponTypePercentage, Value: dec("50"), MaximumDiscount: decPtr("100")},
			total:  "1000",
			want:   "100",
		},
		{
			name:   "percentage below cap",
			coupon: Coupon{Type: enums.CouponTypePercentage, Value: dec("5"), MaximumDiscount: decPtr("100")},
			total:  "1000",
			want:   "50",
		},
		{
			name:   "percentage rounds half away from zero",
			coupon: Coupon{Type: enums.CouponTypePercentage, Value: dec("12.5")},
			total:  "99.99",
			want:   "12.5",
		},
		{
			name:   "percentage rounds midpoint up",
			coupon: Coupon{Type: enums.CouponTypePercentage, Value: dec("50")},
			total:  "0.05",
			want:   "0.03",
		},
		{
			name:   "fixed never exceeds order value",
			coupon: Coupon{Type: enums.CouponTypeFixed, Value: dec("300")},
			total:  "120",
			want:   "120",
		},
		{
			name:   "fixed below order value",
			coupon: Coupon{Type: enums.CouponTypeFixed, Value: dec("75")},
			total:  "120",
			want:   "75",
		},
		{
			name:   "free shipping reports the waived value",
			coupon: Coupon{Type: enums.CouponTypeFreeShipping, Value: dec("50")},
			total:  "10",
			want:   "50",
		},
		{
			name:   "buy x get y is a flat value",
			coupon: Coupon{Type: enums.CouponTypeBuyXGetY, Value: dec("99.999")},
			total:  "1000",
			want:   "100",
		},
		{
			name:   "unknown type grants nothing",
			coupon: Coupon{Type: enums.CouponType("mystery"), Value: dec("10")},
			total:  "1000",
			want:   "0",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := CalculateDiscount(tc.coupon, dec(tc.total))
			if !got.Equal(dec(tc.want)) {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestApplies(t *testing.T) {
	scope := Scope{ProductIDs: []string{"p1"}, CategoryIDs: []string{"kitchen"}, BrandIDs: []string{"acme"}}

	cases := []struct {
		applicability enums.CouponApplicability
		ids           []string
		want          bool
	}{
		{enums.CouponApplicabilityAll, nil, true},
		{enums.CouponApplicabilityProducts, []string{"p2", "p1"}, true},
		{enums.CouponApplicabilityProducts, []string{"p2"}, false},
		{enums.CouponApplicabilityCategories, []string{"kitchen"}, true},
		{enums.CouponApplicabilityBrands, []string{"other"}, false},
	}
	for _, tc := range cases {
		c := Coupon{Applicability: tc.applicability, ApplicableIDs: tc.ids}
		if got := Applies(c, scope); got != tc.want {
			t.Fatalf("%s %v: expected %v got %v", tc.applicability, tc.ids, tc.want, got)
		}
	}
}
