package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/angelmondragon/homeplast-storefront/internal/coupon"
	pkgerrors "github.com/angelmondragon/homeplast-storefront/pkg/errors"
)

type validateCouponRequest struct {
	Code      string      `json:"code"`
	CartTotal json.Number `json:"cart_total"`
	UserID    string      `json:"user_id,omitempty"`
}

// GetCoupon fetches a coupon definition for local pre-checks.
func (c *Client) GetCoupon(ctx context.Context, code string) (coupon.Coupon, error) {
	var dto couponDTO
	err := c.do(ctx, call{
		endpoint: "get_coupon",
		method:   http.MethodGet,
		path:     "/coupons/" + url.PathEscape(code),
	}, &dto)
	if err != nil {
		return coupon.Coupon{}, err
	}
	out, err := dto.toDomain()
	if err != nil {
		return coupon.Coupon{}, malformed("get_coupon", err)
	}
	return out, nil
}

// ValidateCoupon asks the back end, which has the final say, to accept a coupon.
func (c *Client) ValidateCoupon(ctx context.Context, req coupon.ValidationRequest) (coupon.Validation, error) {
	var dto couponValidationDTO
	err := c.do(ctx, call{
		endpoint:   "validate_coupon",
		method:     http.MethodPost,
		path:       "/coupon/validate",
		body:       validateCouponRequest{Code: req.Code, CartTotal: number(req.CartTotal), UserID: req.UserID},
		rejectCode: pkgerrors.CodeCouponRejected,
	}, &dto)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeCouponRejected {
			return coupon.Validation{}, coupon.Rejected(coupon.ReasonServerRejected, typed.Message(), req.Code)
		}
		return coupon.Validation{}, err
	}
	out, err := dto.toDomain()
	if err != nil {
		return coupon.Validation{}, malformed("validate_coupon", err)
	}
	return out, nil
}
