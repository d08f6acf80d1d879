package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/yakuphankucukkesim/resonora-ai/internal/api/handlers"
	"github.com/yakuphankucukkesim/resonora-ai/internal/config"
)

type Server struct {
	router     *chi.Mux
	cfg        *config.Config
	logger     *zap.Logger
	httpServer *http.Server
}

func NewServer(
	uploadsHandler *handlers.UploadsHandler,
	eventsHandler *handlers.EventsHandler,
	billingHandler *handlers.BillingHandler,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	s := &Server{
		cfg:    cfg,
		logger: logger,
	}

	s.router = chi.NewRouter()
	s.setupMiddleware()
	s.setupRoutes(uploadsHandler, eventsHandler, billingHandler)

	return s
}

func (s *Server) setupMiddleware() {
	// Recover from panics
	s.router.Use(middleware.Recoverer)

	// Request ID
	s.router.Use(middleware.RequestID)

	// Real IP
	s.router.Use(middleware.RealIP)

	// Request logger (using built-in logger)
	s.router.Use(middleware.Logger)

	// CORS
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Stripe-Signature"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
}

func (s *Server) setupRoutes(
	uploadsHandler *handlers.UploadsHandler,
	eventsHandler *handlers.EventsHandler,
	billingHandler *handlers.BillingHandler,
) {
	// Health check with short timeout
	s.router.With(middleware.Timeout(10*time.Second)).Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))

		// Upload registration returns a signed PUT URL; media bytes go
		// straight to the object store.
		r.Post("/uploads", uploadsHandler.Create)
		r.Get("/uploads/{id}", uploadsHandler.Get)

		// "file uploaded" trigger; enqueues one pipeline run per file.
		r.Post("/events/uploaded", eventsHandler.HandleUploaded)

		r.Post("/billing/checkout", billingHandler.Checkout)
		r.Post("/webhooks/stripe", billingHandler.Webhook)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "healthy",
		"service": "resonora",
		"version": "1.0.0",
	})
}

func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
		MaxHeaderBytes:    1 << 20,          // 1 MB max header size
		ReadHeaderTimeout: 30 * time.Second, // Prevent slowloris attacks
	}

	s.logger.Info("Starting HTTP server", zap.String("addr", addr))
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
