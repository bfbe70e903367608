package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/lumeno/auth-service/internal/auth"
	"github.com/lumeno/auth-service/internal/config"
	"github.com/lumeno/auth-service/internal/httputil"
	"github.com/lumeno/auth-service/internal/logging"
)

// NewRouter creates and configures the HTTP router.
func NewRouter(cfg *config.Config, authHandler *auth.Handler, authMiddleware *auth.Middleware, logger *logging.Logger) *chi.Mux {
	r := chi.NewRouter()

	// CORS - must be first. Credentials are required for the session cookie.
	if len(cfg.Server.TrustedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.Server.TrustedOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type"},
			ExposedHeaders:   []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Use(SecurityHeaders)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(logger))
	r.Use(middleware.Compress(5))

	r.Get("/health", handleHealth)

	r.Route("/api/auth", func(r chi.Router) {
		// Public routes
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)
		r.Post("/send-reset-otp", authHandler.SendResetOtp)

		// Routes requiring a session. Note /reset-password identifies the
		// account by the email in the body and ignores the session identity;
		// it sits here anyway to preserve the original route wiring.
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.RequireSession)
			r.Post("/send-verify-otp", authHandler.SendVerifyOtp)
			r.Post("/verify-account", authHandler.VerifyAccount)
			r.Get("/is-auth", authHandler.IsAuthenticated)
			r.Post("/reset-password", authHandler.ResetPassword)
		})
	})

	return r
}

// handleHealth is a simple health check endpoint.
func handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.RespondSuccess(w, "API is running")
}
