package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/espacodiva/bellabot/internal/conversation"
	httpmiddleware "github.com/espacodiva/bellabot/internal/http/middleware"
	"github.com/espacodiva/bellabot/internal/webchat"
	"github.com/espacodiva/bellabot/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger              *logging.Logger
	ConversationHandler *conversation.Handler
	WebchatHandler      *webchat.Handler
	MetricsHandler      http.Handler
	CORSAllowedOrigins  []string
}

// New creates a Chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

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

	r.Get("/health", healthCheck)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	if cfg.ConversationHandler != nil {
		r.Route("/conversations", func(r chi.Router) {
			r.Post("/start", cfg.ConversationHandler.Start)
			r.Post("/message", cfg.ConversationHandler.Message)
			r.Get("/{sessionID}/history", cfg.ConversationHandler.History)
		})
	}

	if cfg.WebchatHandler != nil {
		r.Route("/webchat", func(r chi.Router) {
			r.Get("/ws", cfg.WebchatHandler.HandleWebSocket)
			r.Post("/message", cfg.WebchatHandler.HandleMessage)
			r.Get("/history", cfg.WebchatHandler.HandleHistory)
		})
	}

	return r
}

func healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
