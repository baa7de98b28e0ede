package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JohnnyHuang0515/ecommerce-backend/api/controllers"
	"github.com/JohnnyHuang0515/ecommerce-backend/api/middleware"
	"github.com/JohnnyHuang0515/ecommerce-backend/internal/auth"
	"github.com/JohnnyHuang0515/ecommerce-backend/internal/cart"
	"github.com/JohnnyHuang0515/ecommerce-backend/internal/orders"
	"github.com/JohnnyHuang0515/ecommerce-backend/internal/products"
	"github.com/JohnnyHuang0515/ecommerce-backend/pkg/config"
	"github.com/JohnnyHuang0515/ecommerce-backend/pkg/db"
	"github.com/JohnnyHuang0515/ecommerce-backend/pkg/enums"
	"github.com/JohnnyHuang0515/ecommerce-backend/pkg/logger"
	"github.com/JohnnyHuang0515/ecommerce-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	authService auth.Service,
	ordersService orders.Service,
	productsService products.Service,
	cartService cart.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, dbP, redisClient, logg))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", controllers.Register(authService, logg))
			r.Post("/login", controllers.Login(authService, logg))
		})

		// Catalog reads are public.
		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ListProducts(productsService, logg))
			r.Get("/{productID}", controllers.GetProduct(productsService, logg))

			// Stock and lifecycle management is operator territory.
			r.Group(func(r chi.Router) {
				r.Use(
					middleware.Auth(cfg.JWT, logg),
					middleware.RequireRole(string(enums.RoleAdmin), logg),
					middleware.Idempotency(redisClient, logg),
				)
				r.Get("/low-stock", controllers.ListLowStock(productsService, logg))
				r.Post("/{productID}/stock/adjust", controllers.AdjustStock(productsService, logg))
				r.Delete("/{productID}", controllers.RetireProduct(productsService, logg))
				r.Post("/restore", controllers.RestoreProduct(productsService, logg))
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(
				middleware.Auth(cfg.JWT, logg),
				middleware.Idempotency(redisClient, logg),
			)

			r.Route("/orders", func(r chi.Router) {
				r.Post("/", controllers.CreateOrder(ordersService, cartService, logg))
				r.Get("/", controllers.ListOrders(ordersService, logg))
				r.Get("/{orderID}", controllers.GetOrder(ordersService, logg))
				r.Post("/{orderID}/cancel", controllers.CancelOrder(ordersService, logg))
				r.With(middleware.RequireRole(string(enums.RoleAdmin), logg)).
					Put("/{orderID}/status", controllers.UpdateOrderStatus(ordersService, logg))
			})

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.GetCart(cartService, logg))
				r.Put("/", controllers.SyncCart(cartService, logg))
			})
		})
	})

	return r
}
