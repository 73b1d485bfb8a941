package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/homeplast-storefront/api/controllers"
	"github.com/angelmondragon/homeplast-storefront/api/middleware"
	"github.com/angelmondragon/homeplast-storefront/internal/catalog"
	"github.com/angelmondragon/homeplast-storefront/internal/checkout"
	"github.com/angelmondragon/homeplast-storefront/internal/orders"
	"github.com/angelmondragon/homeplast-storefront/internal/shopping"
	"github.com/angelmondragon/homeplast-storefront/pkg/config"
	"github.com/angelmondragon/homeplast-storefront/pkg/logger"
	"github.com/angelmondragon/homeplast-storefront/pkg/metrics"
	"github.com/angelmondragon/homeplast-storefront/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	gatherer prometheus.Gatherer,
	httpMetrics *metrics.HTTPMetrics,
	readiness map[string]controllers.Pinger,
	redisClient *redis.Client,
	catalogService catalog.Service,
	cartService shopping.CartService,
	wishlistService shopping.WishlistService,
	checkoutService checkout.Service,
	ordersService orders.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.CORS(cfg.App.CORSOrigins),
		middleware.Logging(logg, httpMetrics),
	)

	couponPolicy := middleware.NewRateLimitPolicy(
		"coupon",
		cfg.Coupon.RateLimitWindow,
		cfg.Coupon.RateLimitPerUser,
	)
	couponLimit := middleware.RateLimit(couponPolicy, redisClient, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})
	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/products", controllers.ProductList(catalogService, logg))
		r.Get("/products/{idOrSlug}", controllers.ProductDetail(catalogService, logg))
		r.Get("/categories", controllers.CategoryList(catalogService, logg))
		r.Get("/brands", controllers.BrandList(catalogService, logg))
		r.Get("/breadcrumbs", controllers.Breadcrumbs())

		r.Group(func(r chi.Router) {
			r.Use(middleware.Session(logg))
			r.Use(middleware.Auth(cfg.JWT, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartFetch(cartService, logg))
				r.Delete("/", controllers.CartClear(cartService, logg))
				r.Post("/items", controllers.CartAddItem(cartService, logg))
				r.Put("/items/{productId}", controllers.CartUpdateItem(cartService, logg))
				r.Delete("/items/{productId}", controllers.CartRemoveItem(cartService, logg))
				r.Post("/items/{productId}/move-to-wishlist", controllers.CartMoveToWishlist(cartService, logg))
				r.Post("/pull", controllers.CartPull(cartService, logg))
				r.With(couponLimit).Post("/coupon", controllers.CouponApply(checkoutService, logg))
				r.Delete("/coupon", controllers.CouponRemove(checkoutService, logg))
			})

			r.Route("/wishlist", func(r chi.Router) {
				r.Get("/", controllers.WishlistFetch(wishlistService, logg))
				r.Post("/", controllers.WishlistAdd(wishlistService, logg))
				r.Delete("/{productId}", controllers.WishlistRemove(wishlistService, logg))
			})

			r.Get("/checkout/summary", controllers.CheckoutSummary(checkoutService, logg))
			r.With(couponLimit).Post("/coupons/validate", controllers.CouponValidate(checkoutService, logg))

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.OrderList(ordersService, logg))
				r.With(middleware.Idempotent(redisClient, cfg.Orders.IdempotencyTTL, logg)).
					Post("/", controllers.OrderSubmit(ordersService, logg))
			})
		})
	})

	return r
}
