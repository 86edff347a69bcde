// Package server wires the portal together and runs the HTTP server.
//
// New is the composition root:
//
//	sqlite.DB ─┐
//	Sealer ────┼→ session.Store ─┐
//	backend ───┼→ directory.Cache ┼→ PortalService → handlers → chi router
//	           └──────────────────┤
//	notify.Board ─────────────────┘
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/activities-portal/internal/auth"
	"github.com/sakif/activities-portal/internal/backend"
	"github.com/sakif/activities-portal/internal/config"
	"github.com/sakif/activities-portal/internal/directory"
	"github.com/sakif/activities-portal/internal/handler"
	"github.com/sakif/activities-portal/internal/middleware"
	"github.com/sakif/activities-portal/internal/notify"
	sqliteRepo "github.com/sakif/activities-portal/internal/repository/sqlite"
	"github.com/sakif/activities-portal/internal/service"
	"github.com/sakif/activities-portal/internal/session"
)

// shutdownTimeout is how long in-flight requests get after a signal.
const shutdownTimeout = 30 * time.Second

// Server owns the router and the database connection.
type Server struct {
	router *chi.Mux
	config config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New opens the database and builds every dependency. On error nothing is
// left open.
func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
	if dir := filepath.Dir(cfg.DBPath); cfg.DBPath != ":memory:" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}
	db, err := sqliteRepo.New(cfg.DBPath)
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

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// setupRoutes:
//
//	GET  /                  page
//	GET  /activities/list   list fragment
//	POST /signup            signup form
//	POST /unregister        participant delete
//	POST /login             login dialog
//	POST /logout            logout
//	GET  /healthz           liveness
//	GET  /static/*          assets
func (s *Server) setupRoutes() error {
	cfg := s.config

	visitors, err := auth.NewVisitorTokens(cfg.SessionSecret)
	if err != nil {
		return err
	}
	sealer, err := auth.NewSealer(cfg.SessionSecret)
	if err != nil {
		return err
	}
	client, err := backend.New(cfg.BackendURL, s.logger, backend.WithTimeout(cfg.BackendTimeout))
	if err != nil {
		return err
	}

	sessions := session.NewStore(s.db, sealer, client, s.logger)
	cache := directory.New(client, s.logger)
	portalService := service.NewPortalService(sessions, cache, client, notify.NewBoard(), s.logger)

	pageHandler, err := handler.NewPageHandler(portalService, cfg.TemplateDir, s.logger)
	if err != nil {
		return fmt.Errorf("creating page handler: %w", err)
	}
	actionHandler := handler.NewActionHandler(pageHandler, s.logger)
	authHandler := handler.NewAuthHandler(pageHandler, s.logger)

	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.SecurityHeaders)

	s.router.Get("/healthz", handler.HandleHealth)

	fileServer := http.FileServer(http.Dir(cfg.StaticDir))
	s.router.Handle("/static/*", http.StripPrefix("/static/", fileServer))

	s.router.Group(func(r chi.Router) {
		r.Use(auth.Visitor(visitors, cfg.SecureCookies, s.logger))
		r.Use(middleware.CSRF(cfg.CSRFAuthKey(), cfg.SecureCookies, s.logger))

		r.Get("/", pageHandler.HandleIndex)
		r.Get("/activities/list", pageHandler.HandleList)
		r.Post("/signup", actionHandler.HandleSignup)
		r.Post("/unregister", actionHandler.HandleUnregister)
		r.Post("/login", authHandler.HandleLogin)
		r.Post("/logout", authHandler.HandleLogout)
	})

	return nil
}

// Start serves until SIGINT/SIGTERM, then drains in-flight requests, stops
// the storage purger and closes the database.
func (s *Server) Start() error {
	defer s.db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sqliteRepo.StartPurger(ctx, s.db, s.config.PurgeInterval, s.config.Retention, s.logger)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: s.config.BackendTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("backend", s.config.BackendURL),
			slog.String("database", s.config.DBPath),
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

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancelShutdown()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}
	return nil
}

// Close releases the database without serving. Start does this itself.
func (s *Server) Close() error {
	return s.db.Close()
}
