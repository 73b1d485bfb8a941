package shopping

import (
	"context"
	"errors"
	"testing"

	"github.com/angelmondragon/homeplast-storefront/internal/cart"
	"github.com/angelmondragon/homeplast-storefront/internal/cartsync"
	"github.com/angelmondragon/homeplast-storefront/internal/pricing"
	pkgerrors "github.com/angelmondragon/homeplast-storefront/pkg/errors"
	"github.com/shopspring/decimal"
)

func newCartService(t *testing.T, sync cartsync.Enqueuer, source CartSource) (CartService, WishlistService) {
	t.Helper()
	states := newStates(t)
	products := testProducts()
	if source == nil {
		source = stubCartSource{}
	}
	carts, err := NewCartService(CartServiceParams{
		States:   states,
		Products: products,
		Pricing:  pricing.NewEvaluator(pricing.DefaultConfig()),
		Sync:     sync,
		Source:   source,
	})
	if err != nil {
		t.Fatalf("new cart service: %v", err)
	}
	wishlists, err := NewWishlistService(WishlistServiceParams{States: states, Products: products})
	if err != nil {
		t.Fatalf("new wishlist service: %v", err)
	}
	return carts, wishlists
}

func TestNewCartServiceRequiresDependencies(t *testing.T) {
	if _, err := NewCartService(CartServiceParams{}); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAddItemUsesCatalogPriceAndMerges(t *testing.T) {
	svc, _ := newCartService(t, nil, nil)
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, "s1", AddItemInput{ProductID: "p1", Quantity: 2}); err != nil {
		t.Fatalf("add: %v", err)
	}
	view, err := svc.AddItem(ctx, "s1", AddItemInput{ProductID: "p1", Quantity: 1})
	if err != nil {
		t.Fatalf("add again: %v", err)
	}
	if len(view.Lines) != 1 || view.Lines[0].Quantity != 3 {
		t.Fatalf("expected merged line of 3, got %+v", view.Lines)
	}
	if !view.Subtotal.Equal(decimal.NewFromInt(897)) || view.ItemCount != 3 {
		t.Fatalf("unexpected totals subtotal=%s count=%d", view.Subtotal, view.ItemCount)
	}
	// 897 + 50 delivery, 18% tax floored
	if !view.Summary.Total.Equal(decimal.NewFromInt(1117)) {
		t.Fatalf("unexpected summary total %s", view.Summary.Total)
	}

	reloaded, err := svc.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if reloaded.ItemCount != 3 {
		t.Fatalf("expected state to persist, got %+v", reloaded)
	}
}

func TestAddItemRejectsBadInput(t *testing.T) {
	svc, _ := newCartService(t, nil, nil)
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, "s1", AddItemInput{ProductID: "p1", Quantity: 0}); !pkgerrors.HasCode(err, pkgerrors.CodeInvalidQuantity) {
		t.Fatalf("expected invalid quantity, got %v", err)
	}
	if _, err := svc.AddItem(ctx, "s1", AddItemInput{ProductID: "missing", Quantity: 1}); !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdateQuantity(t *testing.T) {
	svc, _ := newCartService(t, nil, nil)
	ctx := context.Background()
	if _, err := svc.AddItem(ctx, "s1", AddItemInput{ProductID: "p1", Quantity: 1}); err != nil {
		t.Fatalf("add: %v", err)
	}

	view, err := svc.UpdateQuantity(ctx, "s1", "p1", 5)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if view.Lines[0].Quantity != 5 {
		t.Fatalf("expected quantity 5, got %d", view.Lines[0].Quantity)
	}
	if _, err := svc.UpdateQuantity(ctx, "s1", "p1", 0); !pkgerrors.HasCode(err, pkgerrors.CodeInvalidQuantity) {
		t.Fatalf("expected invalid quantity, got %v", err)
	}
	if _, err := svc.UpdateQuantity(ctx, "s1", "p2", 2); !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found for line outside the cart, got %v", err)
	}
}

func TestRemoveAndClear(t *testing.T) {
	svc, _ := newCartService(t, nil, nil)
	ctx := context.Background()
	for _, id := range []string{"p1", "p2"} {
		if _, err := svc.AddItem(ctx, "s1", AddItemInput{ProductID: id, Quantity: 1}); err != nil {
			t.Fatalf("add %s: %v", id, err)
		}
	}

	view, err := svc.RemoveItem(ctx, "s1", "p1")
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(view.Lines) != 1 || view.Lines[0].ProductID != "p2" {
		t.Fatalf("unexpected lines after remove %+v", view.Lines)
	}
	if _, err := svc.RemoveItem(ctx, "s1", "p1"); err != nil {
		t.Fatalf("removing an absent line should be a no-op, got %v", err)
	}

	view, err = svc.Clear(ctx, "s1")
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if len(view.Lines) != 0 || !view.Subtotal.IsZero() {
		t.Fatalf("expected empty cart, got %+v", view)
	}
}

func TestMoveToWishlist(t *testing.T) {
	svc, wishlists := newCartService(t, nil, nil)
	ctx := context.Background()
	if _, err := svc.AddItem(ctx, "s1", AddItemInput{ProductID: "p2", Quantity: 2}); err != nil {
		t.Fatalf("add: %v", err)
	}

	view, err := svc.MoveToWishlist(ctx, "s1", "p2")
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if len(view.Lines) != 0 {
		t.Fatalf("expected line removed from cart, got %+v", view.Lines)
	}
	saved, err := wishlists.List(ctx, "s1")
	if err != nil {
		t.Fatalf("list wishlist: %v", err)
	}
	if len(saved.ProductIDs) != 1 || saved.ProductIDs[0] != "p2" {
		t.Fatalf("expected p2 wishlisted, got %+v", saved.ProductIDs)
	}
	if _, err := svc.MoveToWishlist(ctx, "s1", "p2"); !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found when moving an absent line, got %v", err)
	}
}

func TestMutationsAreMirroredForSignedInShoppers(t *testing.T) {
	sync := &recordingEnqueuer{}
	svc, _ := newCartService(t, sync, nil)

	anon := context.Background()
	if _, err := svc.AddItem(anon, "anon", AddItemInput{ProductID: "p1", Quantity: 1}); err != nil {
		t.Fatalf("anonymous add: %v", err)
	}
	if got := sync.ops(); len(got) != 0 {
		t.Fatalf("expected no sync for anonymous shoppers, got %v", got)
	}

	ctx := signedIn("u1")
	if _, err := svc.AddItem(ctx, "s1", AddItemInput{ProductID: "p1", Quantity: 1}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := svc.UpdateQuantity(ctx, "s1", "p1", 3); err != nil {
		t.Fatalf("update: %v", err)
	}
	if _, err := svc.UpdateQuantity(ctx, "s1", "p1", 3); err != nil {
		t.Fatalf("repeat update: %v", err)
	}
	if _, err := svc.RemoveItem(ctx, "s1", "p1"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := svc.Clear(ctx, "s1"); err != nil {
		t.Fatalf("clear: %v", err)
	}

	want := []cartsync.Op{cartsync.OpAdd, cartsync.OpUpdate, cartsync.OpRemove, cartsync.OpClear}
	got := sync.ops()
	if len(got) != len(want) {
		t.Fatalf("expected ops %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected ops %v, got %v", want, got)
		}
	}
	if sync.jobs[0].Token != "token-u1" || sync.jobs[0].SessionID != "s1" || !sync.jobs[0].Line.UnitPrice.Equal(decimal.NewFromInt(299)) {
		t.Fatalf("unexpected add job %+v", sync.jobs[0])
	}
}

func TestPullReplacesLocalCart(t *testing.T) {
	source := stubCartSource{lines: []cart.Line{
		{ProductID: "p9", Name: "Bucket", UnitPrice: decimal.NewFromInt(120), Quantity: 2},
		{ProductID: "p9", Name: "Bucket", UnitPrice: decimal.NewFromInt(120), Quantity: 1},
	}}
	svc, _ := newCartService(t, nil, source)

	if _, err := svc.Pull(context.Background(), "s1"); !pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected anonymous pull to be unauthorized, got %v", err)
	}

	ctx := signedIn("u1")
	if _, err := svc.AddItem(ctx, "s1", AddItemInput{ProductID: "p1", Quantity: 1}); err != nil {
		t.Fatalf("add: %v", err)
	}
	view, err := svc.Pull(ctx, "s1")
	if err != nil {
		t.Fatalf("pull: %v", err)
	}
	if len(view.Lines) != 1 || view.Lines[0].ProductID != "p9" || view.Lines[0].Quantity != 3 {
		t.Fatalf("expected server cart to replace local lines, got %+v", view.Lines)
	}
}

func TestPullPropagatesBackendFailure(t *testing.T) {
	failure := pkgerrors.Wrap(pkgerrors.CodeNetworkFailure, errors.New("dial"), "shop back end unavailable")
	svc, _ := newCartService(t, nil, stubCartSource{err: failure})

	if _, err := svc.Pull(signedIn("u1"), "s1"); !pkgerrors.HasCode(err, pkgerrors.CodeNetworkFailure) {
		t.Fatalf("expected network failure, got %v", err)
	}
}
