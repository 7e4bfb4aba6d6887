package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/neumaticos/tirestore/api/controllers"
	"github.com/neumaticos/tirestore/api/middleware"
	"github.com/neumaticos/tirestore/internal/adminstats"
	"github.com/neumaticos/tirestore/internal/auth"
	"github.com/neumaticos/tirestore/internal/cart"
	"github.com/neumaticos/tirestore/internal/catalog"
	"github.com/neumaticos/tirestore/internal/checkout"
	"github.com/neumaticos/tirestore/internal/orders"
	"github.com/neumaticos/tirestore/internal/users"
	"github.com/neumaticos/tirestore/pkg/auth/session"
	"github.com/neumaticos/tirestore/pkg/config"
	"github.com/neumaticos/tirestore/pkg/enums"
	"github.com/neumaticos/tirestore/pkg/logger"
	"github.com/neumaticos/tirestore/pkg/metrics"
	pkgredis "github.com/neumaticos/tirestore/pkg/redis"
)

// RateLimitStore counts auth attempts per window.
type RateLimitStore interface {
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	RateLimitKey(scope string) string
}

// Services are the domain services the HTTP surface exposes.
type Services struct {
	Auth       auth.Service
	Users      users.Service
	Catalog    catalog.Service
	Cart       cart.Service
	Checkout   checkout.Service
	Orders     orders.Service
	AdminStats adminstats.Service
}

// Infra carries the shared infrastructure the middleware stack needs. Nil
// stores disable the middleware that depends on them.
type Infra struct {
	Sessions    session.AccessSessionChecker
	Idempotency pkgredis.IdempotencyStore
	RateLimits  RateLimitStore
	Pingers     map[string]controllers.Pinger
	Gatherer    prometheus.Gatherer
	HTTPMetrics *metrics.HTTPMetrics
}

func NewRouter(cfg *config.Config, logg *logger.Logger, infra Infra, svc Services) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, infra.HTTPMetrics),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	loginLimit := middleware.AuthRateLimit(middleware.LoginRateLimitPolicy(cfg.AuthRateLimit), infra.RateLimits, logg)
	registerLimit := middleware.AuthRateLimit(middleware.RegisterRateLimitPolicy(cfg.AuthRateLimit), infra.RateLimits, logg)
	idempotency := middleware.Idempotency(infra.Idempotency, logg)

	r.Get("/health/live", controllers.HealthLive(cfg))
	r.Get("/health/ready", controllers.HealthReady(cfg, logg, infra.Pingers))

	if cfg.Metrics.Enabled && infra.Gatherer != nil {
		r.Method(http.MethodGet, cfg.Metrics.Path, promhttp.HandlerFor(infra.Gatherer, promhttp.HandlerOpts{}))
	}

	// public surface
	r.Group(func(r chi.Router) {
		r.With(registerLimit, idempotency).Post("/api/v1/auth/register", controllers.AuthRegister(svc.Auth, logg))
		r.With(loginLimit).Post("/api/v1/auth/login", controllers.AuthLogin(svc.Auth, logg))
		r.Post("/api/v1/auth/refresh", controllers.AuthRefresh(svc.Auth, logg))

		r.Get("/api/v1/products", controllers.ProductsList(svc.Catalog, logg))
		r.Get("/api/v1/products/{productId}", controllers.ProductGet(svc.Catalog, logg))
	})

	// signed-in shoppers
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, infra.Sessions, logg))
		r.Use(idempotency)

		r.Post("/api/v1/auth/logout", controllers.AuthLogout(svc.Auth, logg))

		r.Get("/api/v1/me", controllers.ProfileGet(svc.Users, logg))
		r.Patch("/api/v1/me", controllers.ProfileUpdate(svc.Users, logg))

		r.Get("/api/v1/cart", controllers.CartGet(svc.Cart, logg))
		r.Delete("/api/v1/cart", controllers.CartClear(svc.Cart, logg))
		r.Post("/api/v1/cart/items", controllers.CartAddItem(svc.Cart, logg))
		r.Patch("/api/v1/cart/items/{productId}", controllers.CartUpdateItem(svc.Cart, logg))
		r.Delete("/api/v1/cart/items/{productId}", controllers.CartRemoveItem(svc.Cart, logg))

		r.Post("/api/v1/checkout", controllers.Checkout(svc.Checkout, svc.Users, logg))

		r.Get("/api/v1/orders", controllers.OrdersList(svc.Orders, logg))
		r.Get("/api/v1/orders/{orderId}", controllers.OrderGet(svc.Orders, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(enums.UserRoleAdmin, logg))

			r.Post("/api/v1/admin/products", controllers.AdminProductCreate(svc.Catalog, logg))
			r.Patch("/api/v1/admin/products/{productId}", controllers.AdminProductUpdate(svc.Catalog, logg))
			r.Delete("/api/v1/admin/products/{productId}", controllers.AdminProductDelete(svc.Catalog, logg))

			r.Get("/api/v1/admin/orders", controllers.AdminOrdersList(svc.Orders, logg))
			r.Patch("/api/v1/admin/orders/{orderId}/status", controllers.AdminOrderUpdateStatus(svc.Orders, logg))

			r.Get("/api/v1/admin/stats", controllers.AdminStats(svc.AdminStats, logg))
		})
	})

	return r
}
