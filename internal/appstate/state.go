package appstate

import (
	"context"
	"errors"
	"time"

	"github.com/angelmondragon/homeplast-storefront/internal/cart"
	"github.com/angelmondragon/homeplast-storefront/internal/wishlist"
)

// ErrNotFound is returned by a Store when no state exists for the session.
var ErrNotFound = errors.New("app state not found")

// State is everything the storefront remembers about one shopper session.
type State struct {
	SessionID  string             `json:"session_id"`
	UserID     string             `json:"user_id,omitempty"`
	Cart       *cart.Cart         `json:"cart"`
	Wishlist   *wishlist.Wishlist `json:"wishlist"`
	CouponCode string             `json:"coupon_code,omitempty"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

// New returns an empty state for sessionID.
func New(sessionID string) *State {
	return &State{
		SessionID: sessionID,
		Cart:      cart.New(),
		Wishlist:  wishlist.New(),
	}
}

// ensureCollections fills in collections missing from older snapshots.
func (s *State) ensureCollections() {
	if s.Cart == nil {
		s.Cart = cart.New()
	}
	if s.Wishlist == nil {
		s.Wishlist = wishlist.New()
	}
}

// IsBlank reports whether the state holds nothing worth keeping.
func (s *State) IsBlank() bool {
	return s.Cart.IsEmpty() && s.Wishlist.Len() == 0 && s.CouponCode == "" && s.UserID == ""
}

// Store persists session state snapshots.
type Store interface {
	Load(ctx context.Context, sessionID string) (*State, error)
	Save(ctx context.Context, state *State) error
	Delete(ctx context.Context, sessionID string) error
}
