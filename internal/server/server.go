// Package server exposes the engine over HTTP. Routes keep the wire contract
// the questionnaire frontend already speaks: records, offline simulation,
// tasks, and utterance generation, plus monitor session control. Handlers
// stay thin; every semantic decision lives in the engine.
package server

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"made/internal/engine"
)

// Config assembles a Server. Engine is required; everything else has a
// usable zero value.
type Config struct {
	Engine *engine.Engine

	// Addr is the listen address as host:port.
	Addr string

	// AllowedOrigins is the CORS allow-list for browser clients.
	AllowedOrigins []string

	// Database is the store database name reported by the health check.
	Database string

	Logger *zap.Logger
}

// Server is the HTTP façade over the engine.
type Server struct {
	engine   *engine.Engine
	database string
	logger   *zap.Logger
	validate *validator.Validate

	router chi.Router
	http   *http.Server
}

// New builds the route tree and the underlying http.Server. Start makes it
// listen; Handler serves it in-process for tests.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	validate := validator.New()
	// Validation errors report json field names, not Go ones.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	s := &Server{
		engine:   cfg.Engine,
		database: cfg.Database,
		logger:   logger,
		validate: validate,
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/save-ocean-scores", s.handleSaveScores)
		r.Get("/simulate-memory", s.handleSimulate)
		r.Get("/get-ocean-scores/{reportID}", s.handleGetScores)
		r.Get("/all-ocean-scores", s.handleAllScores)
		r.Delete("/delete-ocean-scores/{reportID}", s.handleDeleteScores)

		r.Post("/save-task", s.handleSaveTask)
		r.Get("/get-tasks/{reportID}", s.handleGetTasks)

		r.Post("/generate-npc-response/{reportID}", s.handleGenerate)

		r.Post("/start-monitor/{reportID}", s.handleStartMonitor)
		r.Post("/stop-monitor/{reportID}", s.handleStopMonitor)
		r.Get("/monitor-status/{reportID}", s.handleMonitorStatus)
		r.Get("/snapshot-history/{reportID}", s.handleSnapshotHistory)
	})

	s.router = r
	s.http = &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the route tree for in-process serving.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens until Shutdown or a listener error. A clean shutdown returns
// nil.
func (s *Server) Start() error {
	s.logger.Info("http server listening", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops listening and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// logRequests writes one line per request at debug level.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("elapsed", time.Since(start)))
	})
}
