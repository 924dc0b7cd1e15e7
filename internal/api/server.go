package api

import (
	"net/http"
	"time"

	conversationapi "github.com/futig/template-chat/internal/api/conversation"
	"github.com/futig/template-chat/internal/api/docs"
	"github.com/futig/template-chat/internal/api/middleware"
	"github.com/futig/template-chat/internal/pkg/response"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// SetupRouter creates and configures the HTTP router. A nil limiter
// disables rate limiting.
func SetupRouter(
	conversationHandler *conversationapi.Handler,
	limiter *middleware.RateLimiter,
	logger *zap.Logger,
	requestTimeout time.Duration,
) http.Handler {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(chimiddleware.Recoverer)               // Recover from panics
	r.Use(chimiddleware.RequestID)               // Add request ID
	r.Use(middleware.Logger(logger))             // Log requests
	r.Use(middleware.CORS)                       // Handle CORS
	r.Use(middleware.Auth)                       // Mark bearer-token requests
	r.Use(chimiddleware.Timeout(requestTimeout)) // Bound a whole turn, retries included

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		response.Success(w, map[string]string{"status": "healthy"})
	})

	// Swagger documentation endpoints
	docs.RegisterRoutes(r)

	// Register routes
	var limit func(http.Handler) http.Handler
	if limiter != nil {
		limit = limiter.Handler
	}
	conversationapi.RegisterRoutes(r, conversationHandler, limit)

	return r
}
