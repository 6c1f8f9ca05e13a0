package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mercato-dev/mercato-backend/api/controllers"
	cartcontrollers "github.com/mercato-dev/mercato-backend/api/controllers/cart"
	ordercontrollers "github.com/mercato-dev/mercato-backend/api/controllers/orders"
	"github.com/mercato-dev/mercato-backend/api/middleware"
	"github.com/mercato-dev/mercato-backend/internal/auth"
	"github.com/mercato-dev/mercato-backend/internal/cart"
	"github.com/mercato-dev/mercato-backend/internal/catalog"
	"github.com/mercato-dev/mercato-backend/internal/checkout"
	"github.com/mercato-dev/mercato-backend/internal/orders"
	product "github.com/mercato-dev/mercato-backend/internal/products"
	"github.com/mercato-dev/mercato-backend/internal/reviews"
	"github.com/mercato-dev/mercato-backend/internal/sellers"
	"github.com/mercato-dev/mercato-backend/internal/users"
	"github.com/mercato-dev/mercato-backend/pkg/config"
	"github.com/mercato-dev/mercato-backend/pkg/enums"
	"github.com/mercato-dev/mercato-backend/pkg/logger"
	"github.com/mercato-dev/mercato-backend/pkg/metrics"
)

// Deps carries everything the router hands to controllers. DB is required
// for readiness; Redis and RateLimiter may be nil.
type Deps struct {
	Config      *config.Config
	Logger      *logger.Logger
	DB          controllers.Pinger
	Redis       controllers.Pinger
	RateLimiter middleware.RateLimiter
	Metrics     *metrics.HTTPMetrics
	Gatherer    prometheus.Gatherer

	Auth     auth.Service
	Register auth.RegisterService
	Users    users.Service
	Products product.Service
	Reviews  reviews.Service
	Catalog  catalog.Service
	Sellers  sellers.Service
	Cart     cart.Service
	Checkout checkout.Service
	Orders   orders.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		chimw.RealIP,
		middleware.CORS(cfg.CORS.AllowedOrigins),
		deps.Metrics.Middleware,
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"database": deps.DB,
			"redis":    deps.Redis,
		}))
	})

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/public", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(middleware.RegisterPolicy(cfg.AuthRateLimit), deps.RateLimiter, logg)).
			Post("/register", controllers.AuthRegister(deps.Register, logg))
		r.With(middleware.AuthRateLimit(middleware.LoginPolicy(cfg.AuthRateLimit), deps.RateLimiter, logg)).
			Post("/login", controllers.AuthLogin(deps.Auth, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		// anonymous catalog reads
		r.Get("/products", controllers.ProductSearch(deps.Products, logg))
		r.Get("/products/{productId}", controllers.ProductDetail(deps.Products, logg))
		r.Get("/products/{productId}/reviews", controllers.ProductReviews(deps.Reviews, logg))
		r.Get("/brands", controllers.CatalogList(deps.Catalog, enums.CatalogKindBrand, logg))
		r.Get("/categories", controllers.CatalogList(deps.Catalog, enums.CatalogKindCategory, logg))
		r.Get("/sellers/{sellerId}", controllers.SellerProfile(deps.Sellers, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))

			r.Get("/me", controllers.Me(deps.Users, logg))

			r.Post("/products/{productId}/reviews", controllers.ReviewCreate(deps.Reviews, logg))
			r.Patch("/reviews/{reviewId}", controllers.ReviewUpdate(deps.Reviews, logg))
			r.Delete("/reviews/{reviewId}", controllers.ReviewDelete(deps.Reviews, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, enums.UserRoleBuyer))

				r.Get("/cart", cartcontrollers.CartFetch(deps.Cart, logg))
				r.Post("/cart/items", cartcontrollers.CartAddItem(deps.Cart, logg))
				r.Patch("/cart/items/{itemId}", cartcontrollers.CartUpdateItem(deps.Cart, logg))
				r.Delete("/cart/items/{itemId}", cartcontrollers.CartRemoveItem(deps.Cart, logg))

				r.Post("/checkout", controllers.Checkout(deps.Checkout, logg))
				r.Get("/orders", ordercontrollers.BuyerList(deps.Orders, logg))
			})

			r.Get("/orders/{orderId}", ordercontrollers.Detail(deps.Orders, logg))

			r.Route("/seller", func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, enums.UserRoleSeller))

				r.Post("/products", controllers.SellerCreateProduct(deps.Products, logg))
				r.Patch("/products/{productId}", controllers.SellerUpdateProduct(deps.Products, logg))
				r.Delete("/products/{productId}", controllers.SellerDeleteProduct(deps.Products, logg))

				r.Get("/orders", ordercontrollers.SellerList(deps.Orders, logg))
				r.Post("/orders/{orderId}/confirm", ordercontrollers.Confirm(deps.Orders, logg))
			})
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(logg, enums.UserRoleAdmin))

		r.Post("/orders/refresh-statuses", ordercontrollers.AdminRefreshStatuses(deps.Orders, logg))
	})

	return r
}
