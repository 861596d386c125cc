// Package server is the composition root: it builds storage, the catalog
// client, services and handlers, mounts the routes and runs the HTTP server.
//
// ROUTES:
//
//	GET  /                              home (public)
//	GET  /login, /register              forms (public)
//	POST /login, /register, /logout     (public)
//	GET  /auth/github/login|callback    optional GitHub sign-in (public)
//	GET  /search  POST /search          catalog search        ┐
//	GET  /library                       the user's library    │ behind
//	GET  /review/{apiGameId}            new review form       │ auth.RequireSession
//	POST /review                        create or edit        │
//	GET  /edit-review/{reviewId}        edit form             │
//	POST /delete-review                 delete                ┘
//	GET  /api/user/{userId}/library     JSON, CORS enabled (public)
//	GET  /healthz                       storage ping
//	GET  /static/*                      files from StaticDir, when it exists
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sakif/gamelog/internal/auth"
	"github.com/sakif/gamelog/internal/catalog/rawg"
	"github.com/sakif/gamelog/internal/config"
	"github.com/sakif/gamelog/internal/handler"
	"github.com/sakif/gamelog/internal/middleware"
	"github.com/sakif/gamelog/internal/repository/sqlstore"
	"github.com/sakif/gamelog/internal/service"
	"github.com/sakif/gamelog/internal/view"
)

// Server owns the database pool and closes it after the HTTP server has
// drained.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	db     *sqlstore.DB
}

// New opens storage and wires every dependency. Nothing is listening yet.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqlstore.New(sqlstore.Config{
		DSN:             cfg.DB.DSN,
		MaxOpenConns:    cfg.DB.MaxOpenConns,
		MaxIdleConns:    cfg.DB.MaxIdleConns,
		ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
		BusyTimeout:     cfg.DB.BusyTimeout,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}
	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() error {
	sessions, err := auth.NewSessionManager(s.config.Session.Secret, s.config.Session.TTL, s.config.Session.CookieSecure)
	if err != nil {
		return err
	}
	views, err := view.New()
	if err != nil {
		return err
	}

	if s.config.Catalog.APIKey == "" {
		s.logger.Warn("RAWG_API_KEY not set; catalog requests will be rejected by the provider")
	}
	catalogClient := rawg.New(rawg.Config{
		BaseURL:   s.config.Catalog.BaseURL,
		APIKey:    s.config.Catalog.APIKey,
		Timeout:   s.config.Catalog.Timeout,
		UserAgent: rawg.DefaultConfig().UserAgent,
	}, s.logger)

	// Left as a nil interface when unconfigured; the handler answers 404.
	var github handler.GitHubLogin
	if s.config.GitHub.Enabled() {
		github = auth.NewGitHubProvider(s.config.GitHub.ClientID, s.config.GitHub.ClientSecret, s.config.GitHub.CallbackURL)
	}

	// s.db implements every repository interface.
	authService := service.NewAuthService(s.db, auth.NewPasswordService(), s.logger)
	libraryService := service.NewLibraryService(catalogClient, s.db, s.db, s.logger)

	authHandler := handler.NewAuthHandler(authService, sessions, github, views, s.logger)
	gameHandler := handler.NewGameHandler(libraryService, views, s.logger)
	apiHandler := handler.NewAPIHandler(libraryService, s.logger)

	// Order matters: RequestID must run before Logger reads it.
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	if info, err := os.Stat(s.config.StaticDir); err == nil && info.IsDir() {
		fileServer := http.FileServer(http.Dir(s.config.StaticDir))
		s.router.Handle("/static/*", http.StripPrefix("/static/", fileServer))
	} else {
		s.logger.Info("static directory not found, /static is disabled", slog.String("dir", s.config.StaticDir))
	}

	s.router.Get("/healthz", handler.HandleHealth(s.db, s.logger))

	s.router.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.config.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
		r.Get("/user/{userId}/library", apiHandler.HandleUserLibrary)
	})

	s.router.Group(func(r chi.Router) {
		r.Use(auth.LoadSession(sessions))

		r.Get("/", gameHandler.HandleHome)
		r.Get("/login", authHandler.HandleLoginForm)
		r.Post("/login", authHandler.HandleLogin)
		r.Get("/register", authHandler.HandleRegisterForm)
		r.Post("/register", authHandler.HandleRegister)
		r.Post("/logout", authHandler.HandleLogout)
		r.Get("/auth/github/login", authHandler.HandleGitHubLogin)
		r.Get("/auth/github/callback", authHandler.HandleGitHubCallback)
	})

	s.router.Group(func(r chi.Router) {
		r.Use(auth.RequireSession(sessions))

		r.Get("/search", gameHandler.HandleSearchForm)
		r.Post("/search", gameHandler.HandleSearch)
		r.Get("/library", gameHandler.HandleLibrary)
		r.Get("/review/{apiGameId}", gameHandler.HandleNewReview)
		r.Post("/review", gameHandler.HandleSaveReview)
		r.Get("/edit-review/{reviewId}", gameHandler.HandleEditReview)
		r.Post("/delete-review", gameHandler.HandleDeleteReview)
	})

	return nil
}

// Start serves until SIGINT or SIGTERM, then stops accepting connections,
// gives in-flight requests 30 seconds to finish and closes the pool last.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("dialect", string(s.db.Dialect())),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}

// Close releases the database pool of a server that was never started.
func (s *Server) Close() error {
	return s.db.Close()
}
