package server

import (
	"context"
	"net/http"
	"time"

	"github.com/jwenlim/accounts-be/internal/auth"
	"github.com/jwenlim/accounts-be/internal/config"
	"github.com/jwenlim/accounts-be/internal/http/handlers"
	"github.com/jwenlim/accounts-be/internal/mail"
	"github.com/jwenlim/accounts-be/internal/middleware"
	"github.com/jwenlim/accounts-be/internal/storage"
)

// Server wraps an http.Server with configured routes.
type Server struct {
	inner *http.Server
}

// New wires up middleware, routes, and returns a ready server.
func New(cfg config.Config, store storage.UserStore, mailer mail.Sender) *Server {
	mux := http.NewServeMux()
	health := handlers.NewHealthHandler(time.Now())
	health.Register(mux)
	tokenManager := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.SessionTTL)
	authHandler := handlers.NewAuthHandler(store, tokenManager, mailer, &cfg)
	authHandler.Register(mux)

	handler := middleware.CORS(cfg.CORSOrigins, middleware.Logging(mux))

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return &Server{inner: httpServer}
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
