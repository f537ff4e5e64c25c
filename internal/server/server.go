// Package server is the composition root: it picks a store backend, builds
// services and handlers on top of it, and mounts them on one chi router.
//
// ROUTES:
//
//	GET    /api/home                 anyone
//	GET    /api/videos[/{id}]        anyone, gated per viewer
//	GET    /api/posts[/{id}]         anyone, gated per viewer
//	GET    /api/testimonials         anyone
//	POST   /api/testimonials         signed in
//	PUT    /api/testimonials/{id}    signed in; author edits text, admin hides
//	GET    /api/me                   signed in
//	*      /api/videos, /api/posts   admin for writes
//	*      /api/users, /api/admin    admin
//	GET    /auth/github/*            when GitHub is configured
//	POST   /auth/logout
//	GET    /metrics
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

	"github.com/sakif/lesson-portal/internal/auth"
	"github.com/sakif/lesson-portal/internal/config"
	"github.com/sakif/lesson-portal/internal/handler"
	"github.com/sakif/lesson-portal/internal/metrics"
	"github.com/sakif/lesson-portal/internal/middleware"
	"github.com/sakif/lesson-portal/internal/model"
	"github.com/sakif/lesson-portal/internal/repository"
	"github.com/sakif/lesson-portal/internal/repository/memory"
	sqliteRepo "github.com/sakif/lesson-portal/internal/repository/sqlite"
	"github.com/sakif/lesson-portal/internal/seed"
	"github.com/sakif/lesson-portal/internal/service"
)

// Server owns the router and, for the sqlite driver, the database handle.
type Server struct {
	router  *chi.Mux
	config  *config.Config
	logger  *slog.Logger
	metrics *metrics.Recorder
	tokens  *auth.TokenService
	closeDB func() error
}

// New builds the whole dependency graph from cfg.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	s := &Server{
		router:  chi.NewRouter(),
		config:  cfg,
		logger:  logger,
		metrics: metrics.New(),
		closeDB: func() error { return nil },
	}

	repos, err := s.openStore(context.Background())
	if err != nil {
		return nil, err
	}

	if cfg.Auth.Enabled() {
		s.tokens, err = auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.JWTTTL)
		if err != nil {
			s.closeDB()
			return nil, fmt.Errorf("creating token service: %w", err)
		}
	} else {
		logger.Warn("JWT_SECRET not set: every request is served as the anonymous viewer")
	}

	s.setupRoutes(repos)
	return s, nil
}

// openStore selects the backend named by STORE_DRIVER and seeds it.
func (s *Server) openStore(ctx context.Context) (repository.Repositories, error) {
	var data seed.Dataset
	if s.config.Seed {
		var err error
		if data, err = seed.Load(); err != nil {
			return repository.Repositories{}, fmt.Errorf("loading seed data: %w", err)
		}
	}

	switch s.config.Store.Driver {
	case config.DriverSQLite:
		if dir := filepath.Dir(s.config.Store.DBPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return repository.Repositories{}, fmt.Errorf("creating database directory: %w", err)
			}
		}
		db, err := sqliteRepo.New(s.config.Store.DBPath, s.logger)
		if err != nil {
			return repository.Repositories{}, fmt.Errorf("opening database: %w", err)
		}
		if err := db.Seed(ctx, data); err != nil {
			db.Close()
			return repository.Repositories{}, fmt.Errorf("seeding database: %w", err)
		}
		s.closeDB = db.Close
		return db.Repositories(), nil

	default:
		return memory.NewRepositories(data, memory.Options{
			Latency: s.config.Store.Latency,
			Logger:  s.logger,
		}), nil
	}
}

func (s *Server) setupRoutes(repos repository.Repositories) {
	validate := service.NewValidator()
	users := service.NewUserService(repos.Users, validate, s.logger, s.metrics)
	videos := service.NewVideoService(repos.Videos, validate, s.logger, s.metrics)
	posts := service.NewPostService(repos.Posts, validate, s.logger, s.metrics)
	testimonials := service.NewTestimonialService(repos.Testimonials, validate, s.logger, s.metrics)
	dashboard := service.NewDashboardService(users, videos, posts, testimonials)

	// Every token is checked against the user store; the stored role wins.
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(middleware.Metrics(s.metrics))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(auth.OptionalAuth(s.tokens, users))

	videoHandler := handler.NewVideoHandler(videos, s.metrics, s.logger)
	postHandler := handler.NewPostHandler(posts, s.metrics, s.logger)
	testimonialHandler := handler.NewTestimonialHandler(testimonials, s.logger)
	userHandler := handler.NewUserHandler(users, s.logger)
	dashboardHandler := handler.NewDashboardHandler(dashboard, s.metrics, s.logger)

	var provider handler.IdentityProvider
	if s.config.Auth.GitHubEnabled() {
		provider = auth.NewGitHubProvider(
			s.config.Auth.GitHubClientID,
			s.config.Auth.GitHubClientSecret,
			s.config.Auth.GitHubCallbackURL,
		)
	}
	authHandler := handler.NewAuthHandler(
		provider,
		service.NewAuthService(users, s.tokens, s.logger),
		users,
		s.tokens,
		s.logger,
	)

	s.router.Handle("/metrics", s.metrics.Handler())

	s.router.Route("/auth", func(r chi.Router) {
		if provider != nil {
			r.Get("/github/login", authHandler.HandleGitHubLogin)
			r.Get("/github/callback", authHandler.HandleGitHubCallback)
		}
		r.Post("/logout", authHandler.HandleLogout)
	})

	admin := auth.RequireRole()
	signedIn := auth.RequireAuth(s.tokens, users)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/home", dashboardHandler.HandleHome)

		r.Route("/videos", func(r chi.Router) {
			r.Get("/", videoHandler.HandleList)
			r.Get("/{id}", videoHandler.HandleGet)
			r.With(admin).Post("/", videoHandler.HandleCreate)
			r.With(admin).Put("/{id}", videoHandler.HandleUpdate)
			r.With(admin).Delete("/{id}", videoHandler.HandleDelete)
		})

		r.Route("/posts", func(r chi.Router) {
			r.Get("/", postHandler.HandleList)
			r.Get("/{id}", postHandler.HandleGet)
			r.With(admin).Post("/", postHandler.HandleCreate)
			r.With(admin).Put("/{id}", postHandler.HandleUpdate)
			r.With(admin).Delete("/{id}", postHandler.HandleDelete)
		})

		r.Route("/testimonials", func(r chi.Router) {
			r.Get("/", testimonialHandler.HandleList)
			r.With(signedIn).Post("/", testimonialHandler.HandleCreate)
			r.With(signedIn).Put("/{id}", testimonialHandler.HandleUpdate)
			r.With(admin).Delete("/{id}", testimonialHandler.HandleDelete)
		})

		r.With(signedIn).Get("/me", authHandler.HandleMe)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(model.RoleAdmin))

			r.Get("/admin/stats", dashboardHandler.HandleStats)
			r.Route("/users", func(r chi.Router) {
				r.Get("/", userHandler.HandleList)
				r.Post("/", userHandler.HandleCreate)
				r.Get("/{id}", userHandler.HandleGet)
				r.Put("/{id}", userHandler.HandleUpdate)
				r.Delete("/{id}", userHandler.HandleDelete)
			})
		})
	})
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the database, if any.
func (s *Server) Close() error {
	return s.closeDB()
}

// Start serves until SIGINT or SIGTERM, then drains in-flight requests for
// up to 30 seconds and closes the store.
func (s *Server) Start() error {
	defer s.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("store", s.config.Store.Driver),
			slog.Bool("auth", s.tokens != nil),
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
