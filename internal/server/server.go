// Package server provides the HTTP server and routing for Amplify.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/eacar/amplify/internal/database"
	"github.com/eacar/amplify/internal/logbus"
	"github.com/eacar/amplify/internal/modules/accounts"
	accounthandlers "github.com/eacar/amplify/internal/modules/accounts/handlers"
	"github.com/eacar/amplify/internal/modules/activity"
	activityhandlers "github.com/eacar/amplify/internal/modules/activity/handlers"
	"github.com/eacar/amplify/internal/modules/settings"
	settingshandlers "github.com/eacar/amplify/internal/modules/settings/handlers"
	"github.com/eacar/amplify/internal/runner"
)

// Config holds server configuration.
type Config struct {
	Log             zerolog.Logger
	DB              *database.DB
	Port            int
	DevMode         bool
	Controller      *runner.Controller
	Bus             *logbus.Bus
	AccountRepo     *accounts.Repository
	Validator       *accounts.Validator
	ActivityRepo    *activity.Repository
	SettingsService *settings.Service
}

// Server is the HTTP server.
type Server struct {
	router          *chi.Mux
	server          *http.Server
	log             zerolog.Logger
	db              *database.DB
	controller      *runner.Controller
	bus             *logbus.Bus
	accountHandler  *accounthandlers.Handler
	activityHandler *activityhandlers.Handler
	settingsHandler *settingshandlers.Handler
	botHandlers     *BotHandlers
	logHandlers     *LogHandlers
	systemHandlers  *SystemHandlers
}

// New creates a new HTTP server.
func New(cfg Config) *Server {
	s := &Server{
		router:          chi.NewRouter(),
		log:             cfg.Log.With().Str("component", "server").Logger(),
		db:              cfg.DB,
		controller:      cfg.Controller,
		bus:             cfg.Bus,
		accountHandler:  accounthandlers.NewHandler(cfg.AccountRepo, cfg.Validator, cfg.Log),
		activityHandler: activityhandlers.NewHandler(cfg.ActivityRepo, cfg.Log),
		settingsHandler: settingshandlers.NewHandler(cfg.SettingsService, cfg.Log),
		botHandlers:     NewBotHandlers(cfg.Controller, cfg.Log),
		logHandlers:     NewLogHandlers(cfg.Bus, cfg.Log),
		systemHandlers:  NewSystemHandlers(cfg.Controller, cfg.DB, cfg.Log),
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware.
func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes.
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/bot", func(r chi.Router) {
			r.Post("/start", s.botHandlers.HandleStart)
			r.Post("/stop", s.botHandlers.HandleStop)
			r.Get("/status", s.botHandlers.HandleStatus)
			r.Get("/stats", s.activityHandler.HandleStats)
			r.Delete("/stats", s.activityHandler.HandleReset)
		})

		r.Route("/logs", func(r chi.Router) {
			// The SSE stream must be registered before the generic GET.
			r.Get("/stream", s.logHandlers.HandleStream)
			r.Get("/", s.logHandlers.HandleSnapshot)
			r.Delete("/", s.logHandlers.HandleClear)
		})

		r.Route("/accounts", func(r chi.Router) {
			r.Get("/", s.accountHandler.HandleList)
			r.Post("/", s.accountHandler.HandleCreate)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.accountHandler.HandleGet)
				r.Put("/", s.accountHandler.HandleUpdate)
				r.Delete("/", s.accountHandler.HandleDelete)
				r.Post("/toggle", s.accountHandler.HandleToggle)
				r.Post("/validate", s.accountHandler.HandleValidate)
			})
		})

		r.Route("/settings", func(r chi.Router) {
			r.Get("/", s.settingsHandler.HandleGetAll)
			r.Get("/auto-distribution", s.settingsHandler.HandleGetAutoDistribution)
			r.Put("/auto-distribution", s.settingsHandler.HandleSetAutoDistribution)
			r.Put("/{key}", s.settingsHandler.HandleUpdate)
		})

		r.Route("/system", func(r chi.Router) {
			r.Get("/status", s.systemHandlers.HandleStatus)
			r.Get("/database/stats", s.systemHandlers.HandleDatabaseStats)
		})
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// Router exposes the router, used by tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.db.HealthCheck(ctx); err != nil {
		s.log.Error().Err(err).Msg("Health check failed")
		http.Error(w, "unhealthy", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, `{"status":"ok"}`)
}

// loggingMiddleware logs HTTP requests.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
