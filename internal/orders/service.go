package orders

import (
	"context"

	"github.com/angelmondragon/homeplast-storefront/internal/appstate"
	"github.com/angelmondragon/homeplast-storefront/internal/cartsync"
	"github.com/angelmondragon/homeplast-storefront/internal/checkout"
	"github.com/angelmondragon/homeplast-storefront/pkg/auth"
	pkgerrors "github.com/angelmondragon/homeplast-storefront/pkg/errors"
	"github.com/angelmondragon/homeplast-storefront/pkg/logger"
)

// Quoter prices a loaded session state.
type Quoter interface {
	QuoteState(ctx context.Context, state *appstate.State, couponCode string) (checkout.Quote, error)
}

// Service places and lists orders for the signed-in shopper.
type Service interface {
	Submit(ctx context.Context, sessionID string) (Order, error)
	List(ctx context.Context) ([]Order, error)
}

// ServiceParams groups dependencies for the orders service.
type ServiceParams struct {
	States  *appstate.Manager
	Quoter  Quoter
	Gateway Gateway
	Sync    cartsync.Enqueuer
	Logger  *logger.Logger
}

type service struct {
	states  *appstate.Manager
	quoter  Quoter
	gateway Gateway
	sync    cartsync.Enqueuer
	logg    *logger.Logger
}

// NewService builds an orders service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.States == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "state manager is required")
	}
	if params.Quoter == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quoter is required")
	}
	if params.Gateway == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "orders gateway is required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		states:  params.States,
		quoter:  params.Quoter,
		gateway: params.Gateway,
		sync:    params.Sync,
		logg:    logg,
	}, nil
}

// Submit prices the session's cart, places the order and empties the cart. The
// session stays locked for the whole call so a concurrent cart edit cannot slip
// in between pricing and clearing.
func (s *service) Submit(ctx context.Context, sessionID string) (Order, error) {
	userID := auth.UserIDFromContext(ctx)
	if userID == "" {
		return Order{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to place an order")
	}

	var order Order
	state, err := s.states.Update(ctx, sessionID, func(state *appstate.State) (bool, error) {
		if state.Cart.IsEmpty() {
			return false, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}
		quote, err := s.quoter.QuoteState(ctx, state, "")
		if err != nil {
			return false, err
		}
		if state.CouponCode != "" && quote.Coupon == nil {
			return false, pkgerrors.New(pkgerrors.CodeCouponRejected, quote.CouponMessage).
				WithDetails(map[string]any{"code": state.CouponCode})
		}

		submission := Submission{
			Items:          quote.Lines,
			Summary:        quote.Summary,
			CouponDiscount: quote.CouponDiscount,
			Payable:        quote.Payable,
		}
		if quote.Coupon != nil {
			submission.CouponCode = quote.Coupon.Code
		}
		order, err = s.gateway.SubmitOrder(ctx, submission)
		if err != nil {
			return false, err
		}

		state.UserID = userID
		state.Cart.Clear()
		state.CouponCode = ""
		return true, nil
	})
	if err != nil {
		return Order{}, err
	}

	s.logg.Info(s.logg.WithField(ctx, "order_id", order.ID), "order submitted")
	if s.sync != nil {
		if token := auth.TokenFromContext(ctx); token != "" {
			s.sync.Enqueue(cartsync.Job{Op: cartsync.OpClear, SessionID: state.SessionID, Token: token})
		}
	}
	return order, nil
}

// List returns the shopper's order history for the dashboard.
func (s *service) List(ctx context.Context) ([]Order, error) {
	if auth.UserIDFromContext(ctx) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to view your orders")
	}
	return s.gateway.ListOrders(ctx)
}
