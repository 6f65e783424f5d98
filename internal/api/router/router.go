package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	httpmiddleware "github.com/dioinnovo/voicelead/internal/http/middleware"
	"github.com/dioinnovo/voicelead/internal/session"
	"github.com/dioinnovo/voicelead/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger              *logging.Logger
	ConversationHandler *session.Handler
	MetricsHandler      http.Handler
	CORSAllowedOrigins  []string
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", cfg.ConversationHandler.HealthCheck)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Route("/api/v1/conversations", func(r chi.Router) {
		r.Post("/", cfg.ConversationHandler.StartConversation)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", cfg.ConversationHandler.GetConversation)
			r.Delete("/", cfg.ConversationHandler.EndConversation)
			r.Post("/turns", cfg.ConversationHandler.PostTurn)
			r.Get("/lead", cfg.ConversationHandler.GetLead)
		})
	})

	return r
}
