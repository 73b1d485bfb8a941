package shopping

import (
	"context"
	"strings"

	"github.com/angelmondragon/homeplast-storefront/internal/appstate"
	"github.com/angelmondragon/homeplast-storefront/internal/cart"
	"github.com/angelmondragon/homeplast-storefront/internal/cartsync"
	"github.com/angelmondragon/homeplast-storefront/internal/catalog"
	"github.com/angelmondragon/homeplast-storefront/internal/pricing"
	"github.com/angelmondragon/homeplast-storefront/pkg/auth"
	pkgerrors "github.com/angelmondragon/homeplast-storefront/pkg/errors"
	"github.com/angelmondragon/homeplast-storefront/pkg/logger"
	"github.com/shopspring/decimal"
)

// ProductLookup resolves catalog products for cart and wishlist entries.
type ProductLookup interface {
	GetProduct(ctx context.Context, idOrSlug string) (catalog.Product, error)
}

// CartSource returns the server-side copy of the shopper's cart.
type CartSource interface {
	FetchCart(ctx context.Context) ([]cart.Line, error)
}

// CartView is the cart as rendered to the shopper, with derived totals.
type CartView struct {
	Lines      []cart.Line     `json:"lines"`
	ItemCount  int             `json:"item_count"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	Summary    pricing.Summary `json:"summary"`
	CouponCode string          `json:"coupon_code,omitempty"`
}

// AddItemInput is a request to put a product in the cart.
type AddItemInput struct {
	ProductID string
	Quantity  int
	Variant   *cart.Variant
}

// CartService exposes the shopper's cart operations.
type CartService interface {
	Get(ctx context.Context, sessionID string) (CartView, error)
	AddItem(ctx context.Context, sessionID string, input AddItemInput) (CartView, error)
	UpdateQuantity(ctx context.Context, sessionID, productID string, quantity int) (CartView, error)
	RemoveItem(ctx context.Context, sessionID, productID string) (CartView, error)
	Clear(ctx context.Context, sessionID string) (CartView, error)
	MoveToWishlist(ctx context.Context, sessionID, productID string) (CartView, error)
	Pull(ctx context.Context, sessionID string) (CartView, error)
}

// CartServiceParams groups dependencies for the cart service.
type CartServiceParams struct {
	States   *appstate.Manager
	Products ProductLookup
	Pricing  *pricing.Evaluator
	Sync     cartsync.Enqueuer
	Source   CartSource
	Logger   *logger.Logger
}

type cartService struct {
	states   *appstate.Manager
	products ProductLookup
	pricing  *pricing.Evaluator
	sync     cartsync.Enqueuer
	source   CartSource
	logg     *logger.Logger
}

// NewCartService builds a cart service with the required dependencies.
func NewCartService(params CartServiceParams) (CartService, error) {
	if params.States == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "state manager is required")
	}
	if params.Products == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product lookup is required")
	}
	if params.Pricing == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pricing evaluator is required")
	}
	if params.Source == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart source is required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &cartService{
		states:   params.States,
		products: params.Products,
		pricing:  params.Pricing,
		sync:     params.Sync,
		source:   params.Source,
		logg:     logg,
	}, nil
}

func (s *cartService) Get(ctx context.Context, sessionID string) (CartView, error) {
	state, err := s.states.Load(ctx, sessionID)
	if err != nil {
		return CartView{}, err
	}
	return s.view(state), nil
}

// AddItem prices the line from the catalog so shoppers cannot set their own price.
func (s *cartService) AddItem(ctx context.Context, sessionID string, input AddItemInput) (CartView, error) {
	if input.Quantity < 1 {
		return CartView{}, invalidQuantity(input.ProductID, input.Quantity)
	}
	product, err := s.products.GetProduct(ctx, input.ProductID)
	if err != nil {
		return CartView{}, err
	}

	var added cart.Line
	state, err := s.states.Update(ctx, sessionID, func(state *appstate.State) (bool, error) {
		claimUser(ctx, state)
		if err := state.Cart.AddLine(product.ID, product.Name, product.Price, input.Quantity, input.Variant); err != nil {
			return false, err
		}
		added = cart.Line{ProductID: product.ID, Name: product.Name, UnitPrice: product.Price, Quantity: input.Quantity, Variant: input.Variant}
		return true, nil
	})
	if err != nil {
		return CartView{}, err
	}
	s.mirror(ctx, cartsync.Job{Op: cartsync.OpAdd, SessionID: state.SessionID, Line: added})
	return s.view(state), nil
}

func (s *cartService) UpdateQuantity(ctx context.Context, sessionID, productID string, quantity int) (CartView, error) {
	productID = strings.TrimSpace(productID)
	if quantity < 1 {
		return CartView{}, invalidQuantity(productID, quantity)
	}
	changed := false
	state, err := s.states.Update(ctx, sessionID, func(state *appstate.State) (bool, error) {
		if line, ok := state.Cart.Line(productID); ok && line.Quantity == quantity {
			return false, nil
		}
		if err := state.Cart.SetQuantity(productID, quantity); err != nil {
			return false, err
		}
		claimUser(ctx, state)
		changed = true
		return true, nil
	})
	if err != nil {
		return CartView{}, err
	}
	if changed {
		s.mirror(ctx, cartsync.Job{Op: cartsync.OpUpdate, SessionID: state.SessionID, ProductID: productID, Quantity: quantity})
	}
	return s.view(state), nil
}

// RemoveItem is a no-op for products that are not in the cart.
func (s *cartService) RemoveItem(ctx context.Context, sessionID, productID string) (CartView, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return CartView{}, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	removed := false
	state, err := s.states.Update(ctx, sessionID, func(state *appstate.State) (bool, error) {
		removed = state.Cart.RemoveLine(productID)
		return removed, nil
	})
	if err != nil {
		return CartView{}, err
	}
	if removed {
		s.mirror(ctx, cartsync.Job{Op: cartsync.OpRemove, SessionID: state.SessionID, ProductID: productID})
	}
	return s.view(state), nil
}

func (s *cartService) Clear(ctx context.Context, sessionID string) (CartView, error) {
	state, err := s.states.Update(ctx, sessionID, func(state *appstate.State) (bool, error) {
		if state.Cart.IsEmpty() && state.CouponCode == "" {
			return false, nil
		}
		state.Cart.Clear()
		state.CouponCode = ""
		return true, nil
	})
	if err != nil {
		return CartView{}, err
	}
	s.mirror(ctx, cartsync.Job{Op: cartsync.OpClear, SessionID: state.SessionID})
	return s.view(state), nil
}

func (s *cartService) MoveToWishlist(ctx context.Context, sessionID, productID string) (CartView, error) {
	productID = strings.TrimSpace(productID)
	state, err := s.states.Update(ctx, sessionID, func(state *appstate.State) (bool, error) {
		if !state.Cart.RemoveLine(productID) {
			return false, pkgerrors.New(pkgerrors.CodeNotFound, "product not in cart").
				WithDetails(map[string]any{"product_id": productID})
		}
		claimUser(ctx, state)
		state.Wishlist.Add(productID)
		return true, nil
	})
	if err != nil {
		return CartView{}, err
	}
	s.mirror(ctx, cartsync.Job{Op: cartsync.OpRemove, SessionID: state.SessionID, ProductID: productID})
	return s.view(state), nil
}

// Pull replaces the local cart with the back end's copy. Sync is one-directional
// here: nothing is pushed back.
func (s *cartService) Pull(ctx context.Context, sessionID string) (CartView, error) {
	if auth.UserIDFromContext(ctx) == "" {
		return CartView{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to load your saved cart")
	}
	lines, err := s.source.FetchCart(ctx)
	if err != nil {
		return CartView{}, err
	}
	state, err := s.states.Update(ctx, sessionID, func(state *appstate.State) (bool, error) {
		claimUser(ctx, state)
		state.Cart = cart.FromLines(lines)
		return true, nil
	})
	if err != nil {
		return CartView{}, err
	}
	s.logg.Info(s.logg.WithField(ctx, "line_count", len(lines)), "cart pulled from back end")
	return s.view(state), nil
}

func (s *cartService) view(state *appstate.State) CartView {
	return CartView{
		Lines:      state.Cart.Lines(),
		ItemCount:  state.Cart.ItemCount(),
		Subtotal:   state.Cart.Subtotal(),
		Summary:    s.pricing.Summarize(state.Cart),
		CouponCode: state.CouponCode,
	}
}

// mirror hands the mutation to the sync dispatcher. Only signed-in shoppers have a
// back-end cart.
func (s *cartService) mirror(ctx context.Context, job cartsync.Job) {
	if s.sync == nil {
		return
	}
	token := auth.TokenFromContext(ctx)
	if token == "" {
		return
	}
	job.Token = token
	s.sync.Enqueue(job)
}

// claimUser ties the session to the signed-in shopper.
func claimUser(ctx context.Context, state *appstate.State) {
	if userID := auth.UserIDFromContext(ctx); userID != "" {
		state.UserID = userID
	}
}

func invalidQuantity(productID string, quantity int) error {
	return pkgerrors.New(pkgerrors.CodeInvalidQuantity, "quantity must be at least 1").
		WithDetails(map[string]any{"product_id": productID, "quantity": quantity})
}
