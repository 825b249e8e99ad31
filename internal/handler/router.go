package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/forgo/accord/internal/middleware"
	"github.com/forgo/accord/internal/model"
)

// RouterConfig holds everything the HTTP surface is assembled from
type RouterConfig struct {
	Logger         *zap.Logger
	Validator      middleware.TokenValidator
	AllowedOrigins []string
	DevTools       bool
	SignalLimiter  *middleware.RateLimiter // Optional, nil disables signal rate limiting

	Health        *HealthHandler
	Survey        *SurveyHandler
	Compatibility *CompatibilityHandler
	Handshake     *HandshakeHandler
}

// NewRouter wires handlers and middleware into a chi router
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.Logger(logger),
		middleware.Recovery(logger),
		middleware.Compress,
		cors.Handler(cors.Options{
			AllowedOrigins:   cfg.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
			AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"},
			AllowCredentials: true,
			MaxAge:           86400,
		}),
	)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		WriteError(w, model.NewNotFoundError("route"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		WriteError(w, &model.ProblemDetails{
			Type:   "about:blank",
			Title:  "Method Not Allowed",
			Status: http.StatusMethodNotAllowed,
			Code:   model.ErrCodeInvalidInput,
		})
	})

	if cfg.Health != nil {
		r.Get("/health", cfg.Health.Check)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.Validator))

		// Partnership-scoped routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequirePartnership)

			r.Get("/survey", cfg.Survey.GetAnswers)
			r.Put("/survey", cfg.Survey.SaveAnswers)

			r.Get("/compatibility/{partnershipId}", cfg.Compatibility.Get)
			r.Post("/compatibility/preview", cfg.Compatibility.Preview)
			r.Get("/matches", cfg.Compatibility.ListMatches)

			if cfg.SignalLimiter != nil {
				r.With(middleware.RateLimit(cfg.SignalLimiter)).Post("/signals", cfg.Handshake.SendSignal)
			} else {
				r.Post("/signals", cfg.Handshake.SendSignal)
			}

			r.Post("/handshakes", cfg.Handshake.Request)
			r.Get("/handshakes/{handshakeId}", cfg.Handshake.Get)
			r.Post("/handshakes/{handshakeId}/respond", cfg.Handshake.Respond)
		})

		// Admin routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.AdminOnly)

			r.Post("/admin/matches/recompute", cfg.Compatibility.Recompute)
			if cfg.DevTools {
				r.Post("/dev/handshakes/force", cfg.Handshake.Force)
			}
		})
	})

	return r
}
