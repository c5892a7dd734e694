// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the "wiring" layer: it connects stores, handlers,
// middleware, and routes. Think of it as the control centre that decides:
// - Which URL patterns map to which handler functions
// - What middleware runs on which routes
// - How the server starts and stops gracefully
//
// DEPENDENCY INJECTION FLOW:
//
//	config.Config → Server.New() creates:
//	  sqlite.DB (KeyValueStore)
//	    → SessionService, SettingsService
//	    → TechnologyService (reads the session for createdBy)
//	    → NotificationService → notify.Hub (toasts)
//	    → StorageService (reloads session + notifications after a wipe)
//	  → handlers → routes
//
// This is the "composition root" pattern: every store is created exactly
// once, here, and injected. Nothing is a package-level singleton.
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
	"github.com/rs/cors"

	"github.com/sakif/learning-tracker/internal/auth"
	"github.com/sakif/learning-tracker/internal/config"
	"github.com/sakif/learning-tracker/internal/handler"
	"github.com/sakif/learning-tracker/internal/middleware"
	"github.com/sakif/learning-tracker/internal/model"
	"github.com/sakif/learning-tracker/internal/notify"
	sqliteRepo "github.com/sakif/learning-tracker/internal/repository/sqlite"
	"github.com/sakif/learning-tracker/internal/service"
)

// Server represents the HTTP server and all its dependencies.
//
// RESOURCE MANAGEMENT:
// The Server owns the database connection and the toast hub. Close releases
// both; Start calls it during graceful shutdown.
type Server struct {
	router *chi.Mux
	config config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
	hub    *notify.Hub

	Technologies  *service.TechnologyService
	Notifications *service.NotificationService
	Session       *service.SessionService
	Settings      *service.SettingsService
	Storage       *service.StorageService
}

// New opens the database, builds every store and registers the routes.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Server, error) {
	// === CREATE DATABASE ===
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// === CREATE STORES ===
	hub := notify.NewHub(logger)
	session := service.NewSessionService(ctx, db, auth.NewMarkerService(), auth.NewPasswordService(), logger, nil)
	notes := service.NewNotificationService(ctx, db, hub, logger, nil)
	techs := service.NewTechnologyService(db, session, logger, service.TechnologyOptions{
		Latency: cfg.SimulatedLatency,
	})

	s := &Server{
		router:        chi.NewRouter(),
		config:        cfg,
		logger:        logger,
		db:            db,
		hub:           hub,
		Technologies:  techs,
		Notifications: notes,
		Session:       session,
		Settings:      service.NewSettingsService(db, logger),
		Storage:       service.NewStorageService(db, logger, notes, session),
	}

	if cfg.SeedDemoData {
		if _, err := techs.SeedDemoData(ctx); err != nil {
			s.Close()
			return nil, fmt.Errorf("seeding demo data: %w", err)
		}
	}

	s.setupRoutes()
	return s, nil
}

// Handler exposes the router, e.g. for httptest.NewServer.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures all middleware and route handlers.
//
// MIDDLEWARE ORDER MATTERS:
// 1. RequestID: assigns unique ID to each request (for tracing)
// 2. RealIP: extracts real client IP from proxy headers
// 3. Logger: logs each request with timing info and the request id
// 4. Recoverer: catches panics and returns 500 instead of crashing
// 5. CORS: answers preflight requests from the frontend dev server
//
// PERMISSIONS:
// Reads are open. Every mutation of learning data or notifications needs a
// logged-in session ("any" role); replacing the whole collection needs admin.
// Session, settings and theme stay open: they are used before login.
func (s *Server) setupRoutes() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(s.cors().Handler)

	techHandler := handler.NewTechnologyHandler(s.Technologies, s.Notifications, s.logger)
	transferHandler := handler.NewTransferHandler(s.Technologies, s.Notifications, s.logger)
	noteHandler := handler.NewNotificationHandler(s.Notifications, s.logger)
	sessionHandler := handler.NewSessionHandler(s.Session, s.Notifications, s.logger)
	settingsHandler := handler.NewSettingsHandler(s.Settings, s.logger)
	storageHandler := handler.NewStorageHandler(s.Storage, s.Notifications, s.logger)
	streamHandler := handler.NewStreamHandler(s.Technologies, s.hub, s.config.SearchDebounce, s.checkOrigin(), s.logger)

	anyone := middleware.RequireRole(s.Session, model.RoleAny)
	admin := middleware.RequireRole(s.Session, model.RoleAdmin)

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/technologies", func(r chi.Router) {
			r.Get("/", techHandler.HandleList)
			r.Get("/stats", techHandler.HandleStats)
			r.With(anyone).Post("/", techHandler.HandleCreate)
			r.With(admin).Put("/", techHandler.HandleReplaceAll)
			r.With(anyone).Post("/bulk-status", techHandler.HandleBulkStatus)

			r.Get("/{id}", techHandler.HandleGet)
			r.With(anyone).Patch("/{id}", techHandler.HandleUpdate)
			r.With(anyone).Delete("/{id}", techHandler.HandleDelete)
			r.With(anyone).Post("/{id}/resources", techHandler.HandleAddResource)
			r.With(anyone).Delete("/{id}/resources", techHandler.HandleRemoveResource)
		})

		r.Get("/export", transferHandler.HandleExport)
		r.With(anyone).Post("/import", transferHandler.HandleImport)

		r.Route("/notifications", func(r chi.Router) {
			r.Use(anyone)
			r.Get("/", noteHandler.HandleList)
			r.Post("/", noteHandler.HandleRecord)
			r.Post("/read-all", noteHandler.HandleMarkAllRead)
			r.Delete("/{id}", noteHandler.HandleRemove)
			r.Delete("/", noteHandler.HandleClear)
		})

		r.Route("/session", func(r chi.Router) {
			r.Get("/", sessionHandler.HandleCurrent)
			r.Post("/login", sessionHandler.HandleLogin)
			r.Post("/register", sessionHandler.HandleRegister)
			r.Post("/logout", sessionHandler.HandleLogout)
		})

		r.Route("/settings", func(r chi.Router) {
			r.Get("/", settingsHandler.HandleAll)
			r.Put("/{key}", settingsHandler.HandleSet)
			r.Post("/reset", settingsHandler.HandleReset)
		})

		r.Get("/theme", settingsHandler.HandleTheme)
		r.Put("/theme", settingsHandler.HandleSetTheme)
		r.Post("/theme/toggle", settingsHandler.HandleToggleTheme)

		r.Route("/storage", func(r chi.Router) {
			r.Get("/", storageHandler.HandleUsage)
			r.With(anyone).Delete("/learning", storageHandler.HandleClearLearning)
			r.With(anyone).Delete("/", storageHandler.HandleClearAll)
		})

		r.Get("/ws", streamHandler.HandleStream)
	})
}

func (s *Server) cors() *cors.Cors {
	return cors.New(cors.Options{
		AllowedOrigins: s.config.CORSOrigins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders: []string{"Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	})
}

// checkOrigin applies the CORS origin list to websocket upgrades.
// nil means "allow all" to the stream handler.
func (s *Server) checkOrigin() func(*http.Request) bool {
	if s.config.AllowsAnyOrigin() {
		return nil
	}
	allowed := make(map[string]bool, len(s.config.CORSOrigins))
	for _, o := range s.config.CORSOrigins {
		allowed[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		// non-browser clients send no Origin
		return origin == "" || allowed[origin]
	}
}

// Close releases the hub and the database. Safe to call once per Server.
func (s *Server) Close() error {
	s.hub.Shutdown()
	return s.db.Close()
}

// Start starts the HTTP server and handles graceful shutdown.
//
// GRACEFUL SHUTDOWN:
// 1. Stop accepting new HTTP connections
// 2. Wait for in-flight requests to finish (30s timeout)
// 3. Close live websocket streams (hub shutdown) and the database
func (s *Server) Start() error {
	defer s.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	// Hijacked websocket connections are not tracked by Shutdown; closing
	// the hub tells every stream to say goodbye.
	srv.RegisterOnShutdown(s.hub.Shutdown)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
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

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
