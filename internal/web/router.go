package web

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/freshcart/freshcart/internal/config"
	"github.com/freshcart/freshcart/internal/logging"
)

// NewRouter creates and configures the HTTP router
func NewRouter(cfg *config.Config, handler *Handler, gate *Gate, logger *logging.Logger) *chi.Mux {
	r := chi.NewRouter()

	// CORS - must be first
	if len(cfg.Server.TrustedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.Server.TrustedOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300, // 5 minutes
		}))
	}

	// Global middleware
	r.Use(SecurityHeaders)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(logger))
	r.Use(middleware.Compress(5))

	// Public routes
	r.Get("/", handler.Index)

	r.Route("/user", func(r chi.Router) {
		r.Get("/register", handler.RegisterForm)
		r.Post("/register", handler.Register)
		r.Get("/active/{token}", handler.Activate)
		r.Get("/login", handler.LoginForm)
		r.Post("/login", handler.Login)

		// Account center, session required
		r.Group(func(r chi.Router) {
			r.Use(gate.RequireSession)
			r.Get("/logout", handler.Logout)
			r.Get("/", handler.AccountInfo)
			r.Get("/order", handler.AccountOrders)
			r.Get("/address", handler.AccountAddresses)
		})
	})

	return r
}
