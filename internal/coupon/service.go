package coupon

import (
	"context"
	"strings"
	"time"

	"github.com/angelmondragon/homeplast-storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/homeplast-storefront/pkg/errors"
	"github.com/angelmondragon/homeplast-storefront/pkg/logger"
	"github.com/shopspring/decimal"
)

// Gateway is the coupon source. The back end is the authority on acceptance.
type Gateway interface {
	GetCoupon(ctx context.Context, code string) (Coupon, error)
	ValidateCoupon(ctx context.Context, req ValidationRequest) (Validation, error)
}

// ValidationRequest is sent to the authoritative validation endpoint.
type ValidationRequest struct {
	Code      string          `json:"code"`
	CartTotal decimal.Decimal `json:"cart_total"`
	UserID    string          `json:"user_id,omitempty"`
}

// Validation is the back end's acceptance of a coupon.
type Validation struct {
	Code           string
	DiscountAmount decimal.Decimal
	Type           enums.CouponType
	Message        string
}

// Request describes a coupon application attempt.
type Request struct {
	Code      string
	CartTotal decimal.Decimal
	UserID    string
	Scope     Scope
}

// Applied is an accepted coupon with the discount the back end granted.
type Applied struct {
	Code     string           `json:"code"`
	Type     enums.CouponType `json:"type,omitempty"`
	Discount decimal.Decimal  `json:"discount"`
	Message  string           `json:"message,omitempty"`
}

// Service validates coupon codes for a cart.
type Service interface {
	Validate(ctx context.Context, req Request) (Applied, error)
}

// ServiceParams groups dependencies for the coupon service.
type ServiceParams struct {
	Gateway  Gateway
	Logger   *logger.Logger
	Precheck bool
	Now      func() time.Time
}

type service struct {
	gateway  Gateway
	logg     *logger.Logger
	precheck bool
	now      func() time.Time
}

// NewService builds a coupon service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Gateway == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon gateway is required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		gateway:  params.Gateway,
		logg:     logg,
		precheck: params.Precheck,
		now:      now,
	}, nil
}

// NormalizeCode upper-cases a shopper supplied code for lookup.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Validate pre-checks the coupon locally when enabled, then asks the back end.
func (s *service) Validate(ctx context.Context, req Request) (Applied, error) {
	code := NormalizeCode(req.Code)
	if code == "" {
		return Applied{}, pkgerrors.New(pkgerrors.CodeValidation, "coupon code is required")
	}
	if req.CartTotal.IsNegative() {
		return Applied{}, pkgerrors.New(pkgerrors.CodeValidation, "cart total must be non-negative")
	}
	ctx = s.logg.WithField(ctx, "coupon_code", code)

	var couponType enums.CouponType
	if s.precheck {
		definition, err := s.gateway.GetCoupon(ctx, code)
		if err != nil {
			if pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
				return Applied{}, Rejected(ReasonUnknownCoupon, "coupon code not found", code)
			}
			return Applied{}, err
		}
		result := Validate(definition, req.CartTotal, req.UserID, 0, s.now())
		if !result.IsValid {
			s.logg.Info(ctx, "coupon rejected by precheck")
			return Applied{}, Rejected(result.Reason, result.Message, code)
		}
		if !Applies(definition, req.Scope) {
			return Applied{}, Rejected(ReasonNotApplicable, "coupon does not apply to the items in your cart", code)
		}
		couponType = definition.Type
	}

	validation, err := s.gateway.ValidateCoupon(ctx, ValidationRequest{
		Code:      code,
		CartTotal: req.CartTotal,
		UserID:    req.UserID,
	})
	if err != nil {
		return Applied{}, err
	}
	if validation.Type.IsValid() {
		couponType = validation.Type
	}

	s.logg.Info(ctx, "coupon accepted")
	applied := Applied{
		Code:     code,
		Type:     couponType,
		Discount: validation.DiscountAmount.Round(discountDecimalPlaces),
		Message:  validation.Message,
	}
	if validation.Code != "" {
		applied.Code = NormalizeCode(validation.Code)
	}
	return applied, nil
}

// Rejected builds the error returned for a coupon that may not be applied.
func Rejected(reason Reason, message, code string) error {
	return pkgerrors.New(pkgerrors.CodeCouponRejected, message).
		WithDetails(map[string]any{"reason": string(reason), "code": code})
}
