package catalog

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/angelmondragon/homeplast-storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/homeplast-storefront/pkg/errors"
	"github.com/angelmondragon/homeplast-storefront/pkg/logger"
	"github.com/angelmondragon/homeplast-storefront/pkg/pagination"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Source is the read-only product catalog served by the shop back end.
type Source interface {
	ListProducts(ctx context.Context) ([]Product, error)
	ListCategories(ctx context.Context) ([]Category, error)
	ListBrands(ctx context.Context) ([]Brand, error)
}

// Query selects a page of the filtered and sorted catalog.
type Query struct {
	Filter Filter
	Sort   enums.ProductSort
	Page   pagination.Params
}

// ProductPage is one page of listing results.
type ProductPage struct {
	Items []Product       `json:"items"`
	Meta  pagination.Meta `json:"meta"`
}

// Service exposes catalog browsing over a cached snapshot.
type Service interface {
	ListProducts(ctx context.Context, q Query) (ProductPage, error)
	GetProduct(ctx context.Context, idOrSlug string) (Product, error)
	ListCategories(ctx context.Context) ([]Category, error)
	ListBrands(ctx context.Context) ([]Brand, error)
}

const defaultLoadTimeout = 15 * time.Second

// ServiceParams groups dependencies for the catalog service. LoadTimeout bounds
// one reload of the snapshot.
type ServiceParams struct {
	Source      Source
	Logger      *logger.Logger
	TTL         time.Duration
	LoadTimeout time.Duration
	Now         func() time.Time
}

type snapshot struct {
	products   []Product
	categories []Category
	brands     []Brand
	loadedAt   time.Time
}

type service struct {
	source      Source
	logg        *logger.Logger
	ttl         time.Duration
	loadTimeout time.Duration
	now         func() time.Time

	mu      sync.RWMutex
	current *snapshot
	loads   singleflight.Group
}

// NewService builds a catalog service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Source == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "catalog source is required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	loadTimeout := params.LoadTimeout
	if loadTimeout <= 0 {
		loadTimeout = defaultLoadTimeout
	}
	return &service{
		source:      params.Source,
		logg:        logg,
		ttl:         params.TTL,
		loadTimeout: loadTimeout,
		now:         now,
	}, nil
}

// ListProducts filters, sorts and paginates the active catalog. Every call recomputes
// from the full product list.
func (s *service) ListProducts(ctx context.Context, q Query) (ProductPage, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return ProductPage{}, err
	}
	sortBy := q.Sort
	if sortBy == "" {
		sortBy = enums.ProductSortRelevance
	}
	if !sortBy.IsValid() {
		return ProductPage{}, pkgerrors.New(pkgerrors.CodeValidation, "unknown sort option").
			WithDetails(map[string]any{"sort": string(sortBy)})
	}

	matched := Sort(Apply(snap.products, q.Filter), sortBy)
	return ProductPage{
		Items: pagination.Slice(matched, q.Page),
		Meta:  q.Page.MetaFor(len(matched)),
	}, nil
}

// GetProduct finds an active product by id or slug.
func (s *service) GetProduct(ctx context.Context, idOrSlug string) (Product, error) {
	key := strings.TrimSpace(idOrSlug)
	if key == "" {
		return Product{}, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	snap, err := s.snapshot(ctx)
	if err != nil {
		return Product{}, err
	}
	for _, p := range snap.products {
		if (p.ID == key || strings.EqualFold(p.Slug, key)) && p.IsActive() {
			return p, nil
		}
	}
	return Product{}, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
		WithDetails(map[string]any{"product": key})
}

func (s *service) ListCategories(ctx context.Context) ([]Category, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Category, 0, len(snap.categories))
	for _, c := range snap.categories {
		if c.Status == "" || c.Status == enums.ProductStatusActive {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *service) ListBrands(ctx context.Context) ([]Brand, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Brand, 0, len(snap.brands))
	for _, b := range snap.brands {
		if b.Status == "" || b.Status == enums.ProductStatusActive {
			out = append(out, b)
		}
	}
	return out, nil
}

// snapshot returns the cached catalog, reloading it once the TTL elapsed. A failed
// reload keeps serving the previous snapshot.
func (s *service) snapshot(ctx context.Context) (*snapshot, error) {
	s.mu.RLock()
	current := s.current
	s.mu.RUnlock()

	if current != nil && s.ttl > 0 && s.now().Sub(current.loadedAt) < s.ttl {
		return current, nil
	}

	// the shared load outlives any single caller and stores its own result
	results := s.loads.DoChan("catalog", func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.loadTimeout)
		defer cancel()
		snap, err := s.load(loadCtx)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.current = snap
		s.mu.Unlock()
		return snap, nil
	})
	var res singleflight.Result
	select {
	case res = <-results:
	case <-ctx.Done():
		if current != nil {
			return current, nil
		}
		return nil, ctx.Err()
	}
	if res.Err != nil {
		if current != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", res.Err.Error()), "catalog refresh failed, serving stale snapshot")
			return current, nil
		}
		return nil, res.Err
	}

	return res.Val.(*snapshot), nil
}

func (s *service) load(ctx context.Context) (*snapshot, error) {
	snap := &snapshot{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		products, err := s.source.ListProducts(gctx)
		snap.products = products
		return err
	})
	g.Go(func() error {
		categories, err := s.source.ListCategories(gctx)
		snap.categories = categories
		return err
	})
	g.Go(func() error {
		brands, err := s.source.ListBrands(gctx)
		snap.brands = brands
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	snap.loadedAt = s.now()
	s.logg.Debug(s.logg.WithField(ctx, "products", len(snap.products)), "catalog snapshot loaded")
	return snap, nil
}
