package checkout

import (
	"context"

	"github.com/angelmondragon/homeplast-storefront/internal/appstate"
	"github.com/angelmondragon/homeplast-storefront/internal/cart"
	"github.com/angelmondragon/homeplast-storefront/internal/catalog"
	"github.com/angelmondragon/homeplast-storefront/internal/coupon"
	"github.com/angelmondragon/homeplast-storefront/internal/pricing"
	"github.com/angelmondragon/homeplast-storefront/pkg/auth"
	"github.com/angelmondragon/homeplast-storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/homeplast-storefront/pkg/errors"
	"github.com/angelmondragon/homeplast-storefront/pkg/logger"
	"github.com/shopspring/decimal"
)

// ProductLookup resolves the catalog entries behind cart lines.
type ProductLookup interface {
	GetProduct(ctx context.Context, idOrSlug string) (catalog.Product, error)
}

// Quote is the priced cart with any coupon applied. Payable is what the shopper
// will be charged.
type Quote struct {
	Lines          []cart.Line     `json:"lines"`
	ItemCount      int             `json:"item_count"`
	Summary        pricing.Summary `json:"summary"`
	Coupon         *coupon.Applied `json:"coupon,omitempty"`
	CouponDiscount decimal.Decimal `json:"coupon_discount"`
	Payable        decimal.Decimal `json:"payable"`
	CouponMessage  string          `json:"coupon_message,omitempty"`
}

// Service prices carts for checkout and manages the session's coupon.
type Service interface {
	Quote(ctx context.Context, sessionID, couponCode string) (Quote, error)
	QuoteState(ctx context.Context, state *appstate.State, couponCode string) (Quote, error)
	ApplyCoupon(ctx context.Context, sessionID, couponCode string) (Quote, error)
	RemoveCoupon(ctx context.Context, sessionID string) (Quote, error)
}

// ServiceParams groups dependencies for the checkout service.
type ServiceParams struct {
	States   *appstate.Manager
	Pricing  *pricing.Evaluator
	Coupons  coupon.Service
	Products ProductLookup
	Logger   *logger.Logger
}

type service struct {
	states   *appstate.Manager
	pricing  *pricing.Evaluator
	coupons  coupon.Service
	products ProductLookup
	logg     *logger.Logger
}

// NewService builds a checkout service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.States == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "state manager is required")
	}
	if params.Pricing == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pricing evaluator is required")
	}
	if params.Coupons == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon service is required")
	}
	if params.Products == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product lookup is required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		states:   params.States,
		pricing:  params.Pricing,
		coupons:  params.Coupons,
		products: params.Products,
		logg:     logg,
	}, nil
}

// Quote prices the session's cart. An explicit couponCode that is rejected fails the
// quote; a rejected stored coupon is left out and explained in CouponMessage.
func (s *service) Quote(ctx context.Context, sessionID, couponCode string) (Quote, error) {
	state, err := s.states.Load(ctx, sessionID)
	if err != nil {
		return Quote{}, err
	}
	return s.QuoteState(ctx, state, couponCode)
}

// QuoteState prices an already loaded state. It does not lock or save the state.
func (s *service) QuoteState(ctx context.Context, state *appstate.State, couponCode string) (Quote, error) {
	summary := s.pricing.Summarize(state.Cart)
	quote := Quote{
		Lines:          state.Cart.Lines(),
		ItemCount:      state.Cart.ItemCount(),
		Summary:        summary,
		CouponDiscount: decimal.Zero,
		Payable:        summary.Total,
	}

	explicit := coupon.NormalizeCode(couponCode) != ""
	code := couponCode
	if !explicit {
		code = state.CouponCode
	}
	if coupon.NormalizeCode(code) == "" {
		return quote, nil
	}
	if state.Cart.IsEmpty() {
		if explicit {
			return Quote{}, pkgerrors.New(pkgerrors.CodeValidation, "add items to your cart before applying a coupon")
		}
		return quote, nil
	}

	// minimums and percentages apply to the goods, not delivery or tax
	applied, err := s.coupons.Validate(ctx, coupon.Request{
		Code:      code,
		CartTotal: summary.Subtotal,
		UserID:    shopperID(ctx, state),
		Scope:     s.scope(ctx, state.Cart),
	})
	if err != nil {
		if !explicit && pkgerrors.HasCode(err, pkgerrors.CodeCouponRejected) {
			quote.CouponMessage = pkgerrors.As(err).Message()
			s.logg.Info(s.logg.WithField(ctx, "coupon_code", code), "stored coupon no longer applies")
			return quote, nil
		}
		return Quote{}, err
	}

	s.applyDiscount(&quote, state.Cart, applied)
	return quote, nil
}

// applyDiscount deducts the coupon from the taxed total. Free shipping re-prices the
// cart with delivery waived and reports the difference as the discount.
func (s *service) applyDiscount(quote *Quote, c *cart.Cart, applied coupon.Applied) {
	discount := applied.Discount
	if applied.Type == enums.CouponTypeFreeShipping {
		waived := s.pricing.SummarizeWaivingDelivery(c)
		discount = quote.Summary.Total.Sub(waived.Total)
	}
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	if discount.GreaterThan(quote.Summary.Total) {
		discount = quote.Summary.Total
	}
	applied.Discount = discount
	quote.Coupon = &applied
	quote.CouponDiscount = discount
	quote.Payable = quote.Summary.Total.Sub(discount)
	quote.CouponMessage = applied.Message
}

// ApplyCoupon validates the code against the current cart and stores it on the session.
func (s *service) ApplyCoupon(ctx context.Context, sessionID, couponCode string) (Quote, error) {
	if coupon.NormalizeCode(couponCode) == "" {
		return Quote{}, pkgerrors.New(pkgerrors.CodeValidation, "coupon code is required")
	}
	var quote Quote
	_, err := s.states.Update(ctx, sessionID, func(state *appstate.State) (bool, error) {
		q, err := s.QuoteState(ctx, state, couponCode)
		if err != nil {
			return false, err
		}
		quote = q
		if state.CouponCode == q.Coupon.Code {
			return false, nil
		}
		state.CouponCode = q.Coupon.Code
		return true, nil
	})
	if err != nil {
		return Quote{}, err
	}
	return quote, nil
}

func (s *service) RemoveCoupon(ctx context.Context, sessionID string) (Quote, error) {
	state, err := s.states.Update(ctx, sessionID, func(state *appstate.State) (bool, error) {
		if state.CouponCode == "" {
			return false, nil
		}
		state.CouponCode = ""
		return true, nil
	})
	if err != nil {
		return Quote{}, err
	}
	return s.QuoteState(ctx, state, "")
}

// scope collects the product, category and brand keys of the cart for coupon
// applicability. Products missing from the catalog contribute only their id.
func (s *service) scope(ctx context.Context, c *cart.Cart) coupon.Scope {
	scope := coupon.Scope{ProductIDs: c.ProductIDs()}
	seenCategory := map[string]struct{}{}
	seenBrand := map[string]struct{}{}
	for _, id := range scope.ProductIDs {
		product, err := s.products.GetProduct(ctx, id)
		if err != nil {
			s.logg.Debug(s.logg.WithField(ctx, "product_id", id), "coupon scope lookup failed")
			continue
		}
		if _, ok := seenCategory[product.Category]; product.Category != "" && !ok {
			seenCategory[product.Category] = struct{}{}
			scope.CategoryIDs = append(scope.CategoryIDs, product.Category)
		}
		if _, ok := seenBrand[product.Brand]; product.Brand != "" && !ok {
			seenBrand[product.Brand] = struct{}{}
			scope.BrandIDs = append(scope.BrandIDs, product.Brand)
		}
	}
	return scope
}

func shopperID(ctx context.Context, state *appstate.State) string {
	if userID := auth.UserIDFromContext(ctx); userID != "" {
		return userID
	}
	return state.UserID
}
