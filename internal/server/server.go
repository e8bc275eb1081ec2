// internal/server/server.go
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/crypto/acme/autocert"

	"github.com/markb/bazarbot/internal/bot"
	"github.com/markb/bazarbot/internal/db"
	"github.com/markb/bazarbot/internal/log"
	"github.com/markb/bazarbot/internal/storage"
	"github.com/markb/bazarbot/internal/store"
	"github.com/markb/bazarbot/internal/telegram"
)

// Config holds server configuration.
type Config struct {
	JWTSecret     string
	WebhookSecret string
	WebhookURL    string
	MiniAppURL    string
}

type Server struct {
	db     *db.DB
	store  *store.Store
	router *chi.Mux
	tg     *telegram.Client
	bot    *bot.Handler
	photos *storage.Service
	cfg    Config

	httpServer *http.Server

	// HTTPS fields
	httpsServer  *http.Server
	httpRedirect *http.Server
	autocertMgr  *autocert.Manager
}

func New(database *db.DB, tg *telegram.Client, botHandler *bot.Handler, photos *storage.Service, cfg Config) *Server {
	s := &Server{
		db:     database,
		store:  store.New(database.DB),
		router: chi.NewRouter(),
		tg:     tg,
		bot:    botHandler,
		photos: photos,
		cfg:    cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	// CORS for the Mini App frontend
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS", "HEAD"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	s.router.Use(log.RequestLogger)
	s.router.Use(middleware.Recoverer)

	s.router.Get("/health", s.handleHealth)

	// Telegram delivers updates here
	s.router.Post("/webhook", s.handleWebhook)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/validate", s.handleAuthValidate)

		r.Get("/categories", s.handleCategories)
		r.Get("/brands", s.handleBrands)
		r.Get("/advertisements", s.handleAdvertisements)
		r.Get("/advertisements/{id}", s.handleAdvertisement)
		r.Get("/photos/{key}", s.handlePhoto)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)
			r.Post("/advertisements", s.handleCreateAdvertisement)
			r.Post("/advertisements/{id}/sold", s.handleMarkSold)
			r.Get("/my/advertisements", s.handleMyAdvertisements)
			r.Post("/photos", s.handleUploadPhoto)
		})
	})
}

func (s *Server) Router() *chi.Mux {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, status int, code, message string) {
	s.writeJSON(w, status, map[string]string{"error": code, "message": message})
}

// RegisterWebhook points Telegram at this server's /webhook endpoint.
func (s *Server) RegisterWebhook(ctx context.Context) error {
	if s.cfg.WebhookURL == "" {
		return fmt.Errorf("webhook URL not configured")
	}
	return s.tg.SetWebhook(ctx, s.cfg.WebhookURL+"/webhook", s.cfg.WebhookSecret)
}

func (s *Server) ListenAndServe(addr string) error {
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.router,
	}
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server(s).
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error

	if s.httpsServer != nil {
		if err := s.httpsServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("HTTPS server: %w", err))
		}
	}
	if s.httpRedirect != nil {
		if err := s.httpRedirect.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("HTTP redirect server: %w", err))
		}
	}
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("HTTP server: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}
	return nil
}
