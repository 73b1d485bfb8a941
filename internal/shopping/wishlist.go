package shopping

import (
	"context"
	"strings"

	"github.com/angelmondragon/homeplast-storefront/internal/appstate"
	"github.com/angelmondragon/homeplast-storefront/internal/catalog"
	pkgerrors "github.com/angelmondragon/homeplast-storefront/pkg/errors"
	"github.com/angelmondragon/homeplast-storefront/pkg/logger"
)

// WishlistView lists saved product ids with the products still in the catalog.
type WishlistView struct {
	ProductIDs []string          `json:"product_ids"`
	Products   []catalog.Product `json:"products"`
}

// WishlistService exposes the shopper's wishlist operations.
type WishlistService interface {
	List(ctx context.Context, sessionID string) (WishlistView, error)
	Add(ctx context.Context, sessionID, productID string) (WishlistView, error)
	Remove(ctx context.Context, sessionID, productID string) (WishlistView, error)
}

type WishlistServiceParams struct {
	States   *appstate.Manager
	Products ProductLookup
	Logger   *logger.Logger
}

type wishlistService struct {
	states   *appstate.Manager
	products ProductLookup
	logg     *logger.Logger
}

func NewWishlistService(params WishlistServiceParams) (WishlistService, error) {
	if params.States == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "state manager is required")
	}
	if params.Products == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product lookup is required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &wishlistService{states: params.States, products: params.Products, logg: logg}, nil
}

func (s *wishlistService) List(ctx context.Context, sessionID string) (WishlistView, error) {
	state, err := s.states.Load(ctx, sessionID)
	if err != nil {
		return WishlistView{}, err
	}
	return s.view(ctx, state)
}

// Add ensures the product exists and saves it. Adding twice is a no-op.
func (s *wishlistService) Add(ctx context.Context, sessionID, productID string) (WishlistView, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return WishlistView{}, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	product, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return WishlistView{}, err
	}
	state, err := s.states.Update(ctx, sessionID, func(state *appstate.State) (bool, error) {
		if !state.Wishlist.Add(product.ID) {
			return false, nil
		}
		claimUser(ctx, state)
		return true, nil
	})
	if err != nil {
		return WishlistView{}, err
	}
	return s.view(ctx, state)
}

// Remove drops the entry regardless of prior state.
func (s *wishlistService) Remove(ctx context.Context, sessionID, productID string) (WishlistView, error) {
	productID = strings.TrimSpace(productID)
	state, err := s.states.Update(ctx, sessionID, func(state *appstate.State) (bool, error) {
		return state.Wishlist.Remove(productID), nil
	})
	if err != nil {
		return WishlistView{}, err
	}
	return s.view(ctx, state)
}

// view resolves saved ids against the catalog, skipping products no longer listed.
func (s *wishlistService) view(ctx context.Context, state *appstate.State) (WishlistView, error) {
	ids := state.Wishlist.List()
	view := WishlistView{ProductIDs: ids, Products: make([]catalog.Product, 0, len(ids))}
	for _, id := range ids {
		product, err := s.products.GetProduct(ctx, id)
		if err != nil {
			if pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
				s.logg.Debug(s.logg.WithField(ctx, "product_id", id), "wishlisted product no longer listed")
				continue
			}
			return WishlistView{}, err
		}
		view.Products = append(view.Products, product)
	}
	return view, nil
}
