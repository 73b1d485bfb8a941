package shopping

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/angelmondragon/homeplast-storefront/internal/appstate"
	"github.com/angelmondragon/homeplast-storefront/internal/cart"
	"github.com/angelmondragon/homeplast-storefront/internal/cartsync"
	"github.com/angelmondragon/homeplast-storefront/internal/catalog"
	"github.com/angelmondragon/homeplast-storefront/pkg/auth"
	"github.com/angelmondragon/homeplast-storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/homeplast-storefront/pkg/errors"
	pkgredis "github.com/angelmondragon/homeplast-storefront/pkg/redis"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

func newStates(t *testing.T) *appstate.Manager {
	t.Helper()
	mr := miniredis.RunT(t)
	raw := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = raw.Close() })

	store, err := appstate.NewRedisStore(pkgredis.Wrap(raw), time.Hour)
	if err != nil {
		t.Fatalf("new redis store: %v", err)
	}
	manager, err := appstate.NewManager(store, nil)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return manager
}

type stubProducts map[string]catalog.Product

func (s stubProducts) GetProduct(_ context.Context, idOrSlug string) (catalog.Product, error) {
	p, ok := s[idOrSlug]
	if !ok {
		return catalog.Product{}, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return p, nil
}

func testProducts() stubProducts {
	return stubProducts{
		"p1": {ID: "p1", Name: "Storage Box", Price: decimal.NewFromInt(299), Status: enums.ProductStatusActive},
		"p2": {ID: "p2", Name: "Laundry Basket", Price: decimal.NewFromInt(449), Status: enums.ProductStatusActive},
	}
}

type recordingEnqueuer struct {
	mu   sync.Mutex
	jobs []cartsync.Job
}

func (r *recordingEnqueuer) Enqueue(job cartsync.Job) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs = append(r.jobs, job)
}

func (r *recordingEnqueuer) ops() []cartsync.Op {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]cartsync.Op, 0, len(r.jobs))
	for _, j := range r.jobs {
		out = append(out, j.Op)
	}
	return out
}

type stubCartSource struct {
	lines []cart.Line
	err   error
}

func (s stubCartSource) FetchCart(context.Context) ([]cart.Line, error) {
	return s.lines, s.err
}

func signedIn(userID string) context.Context {
	ctx := auth.WithUserID(context.Background(), userID)
	return auth.WithToken(ctx, "token-"+userID)
}
