package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nmorales-dev/storefront-backend/api/controllers"
	"github.com/nmorales-dev/storefront-backend/api/middleware"
	authsvc "github.com/nmorales-dev/storefront-backend/internal/auth"
	cartsvc "github.com/nmorales-dev/storefront-backend/internal/cart"
	"github.com/nmorales-dev/storefront-backend/internal/catalog"
	"github.com/nmorales-dev/storefront-backend/pkg/config"
	"github.com/nmorales-dev/storefront-backend/pkg/db"
	"github.com/nmorales-dev/storefront-backend/pkg/logger"
	"github.com/nmorales-dev/storefront-backend/pkg/metrics"
	"github.com/nmorales-dev/storefront-backend/pkg/redis"
)

// RouterParams carries everything the HTTP surface depends on.
type RouterParams struct {
	Config          *config.Config
	Logger          *logger.Logger
	DB              db.Pinger
	Redis           *redis.Client
	Metrics         *metrics.HTTPMetrics
	MetricsGatherer prometheus.Gatherer
	AuthService     authsvc.Service
	RegisterService authsvc.RegisterService
	CatalogService  catalog.Service
	CartService     cartsvc.Service
}

func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(p.Metrics),
		middleware.CORS(cfg.CORS),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.DB, p.Redis))
	})

	if p.MetricsGatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(p.MetricsGatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(authLimiter(loginPolicy, p.Redis, logg)).
				Post("/login", controllers.AuthLogin(p.AuthService, logg))
			r.With(authLimiter(registerPolicy, p.Redis, logg)).
				Post("/register", controllers.AuthRegister(p.RegisterService, logg))
			r.With(middleware.Auth(cfg.JWT, logg)).
				Get("/me", controllers.AuthMe(p.AuthService, logg))
		})

		r.Route("/items", func(r chi.Router) {
			r.Get("/", controllers.ItemsList(p.CatalogService, logg))
			r.Get("/{itemId}", controllers.ItemsGet(p.CatalogService, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.Auth(cfg.JWT, logg))
				r.Post("/", controllers.ItemsCreate(p.CatalogService, logg))
				r.Patch("/{itemId}", controllers.ItemsUpdate(p.CatalogService, logg))
				r.Delete("/{itemId}", controllers.ItemsDelete(p.CatalogService, logg))
			})
		})

		r.Route("/cart", func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Get("/", controllers.CartFetch(p.CartService, logg))
			r.Post("/add", controllers.CartAdd(p.CartService, logg))
			r.Post("/remove", controllers.CartRemove(p.CartService, logg))
			r.Put("/update", controllers.CartUpdate(p.CartService, logg))
			r.Delete("/clear", controllers.CartClear(p.CartService, logg))
		})
	})

	return r
}

func authLimiter(policy middleware.AuthRateLimitPolicy, client *redis.Client, logg *logger.Logger) func(http.Handler) http.Handler {
	if client == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return middleware.AuthRateLimit(policy, client, logg)
}
