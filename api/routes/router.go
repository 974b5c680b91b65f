package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/shopeasy-backend/api/controllers"
	"github.com/angelmondragon/shopeasy-backend/api/middleware"
	"github.com/angelmondragon/shopeasy-backend/internal/auth"
	"github.com/angelmondragon/shopeasy-backend/internal/cart"
	"github.com/angelmondragon/shopeasy-backend/internal/categories"
	"github.com/angelmondragon/shopeasy-backend/internal/checkout"
	"github.com/angelmondragon/shopeasy-backend/internal/orders"
	"github.com/angelmondragon/shopeasy-backend/internal/products"
	"github.com/angelmondragon/shopeasy-backend/internal/users"
	"github.com/angelmondragon/shopeasy-backend/pkg/auth/session"
	"github.com/angelmondragon/shopeasy-backend/pkg/config"
	"github.com/angelmondragon/shopeasy-backend/pkg/db"
	"github.com/angelmondragon/shopeasy-backend/pkg/logger"
	"github.com/angelmondragon/shopeasy-backend/pkg/redis"
)

// Services bundles the domain services mounted by the router.
type Services struct {
	Auth       auth.Service
	Profile    users.ProfileService
	Categories categories.Service
	Products   products.Service
	Cart       cart.Service
	Checkout   checkout.Service
	Orders     orders.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	sessions session.AccessSessionChecker,
	gatherer prometheus.Gatherer,
	svc Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.AllowedOrigins),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginUsernameLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterUsernameLimit,
	)

	// A nil *redis.Client must not reach the middleware as a non-nil interface.
	deps := map[string]controllers.Pinger{}
	if dbP != nil {
		deps["db"] = dbP
	}
	rateLimit := func(middleware.AuthRateLimitPolicy) func(http.Handler) http.Handler { return passthrough }
	idempotency := passthrough
	if redisClient != nil {
		deps["redis"] = redisClient
		rateLimit = func(policy middleware.AuthRateLimitPolicy) func(http.Handler) http.Handler {
			return middleware.AuthRateLimit(policy, redisClient, logg)
		}
		idempotency = middleware.Idempotency(redisClient, cfg.Idempotency.OrderTTL, logg)
	}

	presenter := products.NewPresenter(cfg.Media.URLPrefix)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps))
	})

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(rateLimit(registerPolicy)).Post("/register", controllers.AuthRegister(svc.Auth, logg))
		r.With(rateLimit(loginPolicy)).Post("/login", controllers.AuthLogin(svc.Auth, logg))
		r.Post("/refresh", controllers.AuthRefresh(svc.Auth, logg))
		r.Post("/logout", controllers.AuthLogout(svc.Auth, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/categories", controllers.CategoryList(svc.Categories, logg))
		r.Get("/products", controllers.ProductList(svc.Products, presenter, logg))
		r.Get("/products/{productId}", controllers.ProductGet(svc.Products, presenter, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, sessions, logg))
			r.Use(idempotency)

			r.Get("/me", controllers.MeGet(svc.Profile, logg))
			r.Patch("/me", controllers.MeUpdate(svc.Profile, logg))
			r.Post("/me/password", controllers.MeChangePassword(svc.Auth, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartGet(svc.Cart, logg))
				r.Post("/", controllers.CartCreate(svc.Cart, logg))
				r.Put("/", controllers.CartReplace(svc.Cart, logg))
				r.Post("/items", controllers.CartAddItem(svc.Cart, logg))
				r.Delete("/items", controllers.CartRemoveItem(svc.Cart, logg))
				r.Post("/recompute", controllers.CartRecompute(svc.Cart, logg))
			})

			r.Post("/orders", controllers.OrderCreate(svc.Checkout, logg))
			r.Get("/orders", controllers.OrderList(svc.Orders, logg))
			r.Get("/orders/{orderId}", controllers.OrderGet(svc.Orders, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireStaff(logg))
				r.Post("/categories", controllers.CategoryCreate(svc.Categories, logg))
				r.Delete("/categories/{categoryId}", controllers.CategoryDelete(svc.Categories, logg))
				r.Post("/products", controllers.ProductCreate(svc.Products, presenter, logg))
				r.Patch("/products/{productId}", controllers.ProductUpdate(svc.Products, presenter, logg))
				r.Delete("/products/{productId}", controllers.ProductDelete(svc.Products, logg))
				r.Post("/product-images", controllers.ProductImageCreate(svc.Products, presenter, logg))
				r.Patch("/orders/{orderId}/status", controllers.OrderUpdateStatus(svc.Orders, logg))
			})
		})
	})

	return r
}

func passthrough(next http.Handler) http.Handler { return next }
