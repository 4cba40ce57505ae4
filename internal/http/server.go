package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/Clark-Hu/game-ratings/internal/aggregator"
	"github.com/Clark-Hu/game-ratings/internal/config"
	"github.com/Clark-Hu/game-ratings/internal/logging"
	"github.com/Clark-Hu/game-ratings/internal/store"
)

// Database is the part of the store the HTTP layer observes: reachability
// for /healthz and pool statistics for /metrics.
type Database interface {
	HealthCheck(ctx context.Context) error
	Stats() store.PoolStats
}

// Server wires HTTP routing, middleware, and handlers.
type Server struct {
	cfg        config.Config
	db         Database
	aggregator *aggregator.Aggregator
	logger     *zap.SugaredLogger
	metrics    *metrics
	spa        http.Handler
	router     chi.Router
	httpSrv    *http.Server
}

// New constructs the HTTP server with base middleware and routes.
func New(cfg config.Config, db Database, agg *aggregator.Aggregator, logger *zap.SugaredLogger) *Server {
	if logger == nil {
		logger = logging.Nop()
	}

	s := &Server{
		cfg:        cfg,
		db:         db,
		aggregator: agg,
		logger:     logger,
		metrics:    newMetrics(prometheus.NewRegistry(), db),
		spa:        newSPAHandler(cfg.StaticDir, logger),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(s.metrics.instrument)
	r.Use(middleware.Recoverer)
	// "/api/games/1/averageRating/" routes like its unslashed form.
	r.Use(middleware.StripSlashes)
	r.Use(middleware.GetHead)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	s.router = r

	s.registerRoutes()
	return s
}

// registerRoutes builds the route table. API routes come first and the SPA
// catch-all last; chi matches the more specific pattern regardless, but the
// table reads in priority order. Everything sits on the root router: a
// mounted /api subrouter would answer its own 404s instead of the SPA.
func (s *Server) registerRoutes() {
	s.router.Get("/healthz", s.handleHealthz)
	s.router.Method(http.MethodGet, "/metrics", s.metrics.handler())
	s.router.Get("/api/games/{gameId}/averageRating", s.handleGetAverageRating)
	s.router.Get("/*", s.spa.ServeHTTP)
}

// Handler exposes the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start boots the HTTP server and blocks until ctx is cancelled or the
// listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.httpSrv = &http.Server{
		Addr:         ":" + s.cfg.Port,
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.cfg.ReadTimeoutSecs) * time.Second,
		WriteTimeout: time.Duration(s.cfg.WriteTimeoutSecs) * time.Second,
		IdleTimeout:  time.Duration(s.cfg.IdleTimeoutSecs) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Infof("server listening on port %s", s.cfg.Port)
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.httpSrv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if s.db == nil {
		s.respondError(w, http.StatusServiceUnavailable, http.StatusText(http.StatusServiceUnavailable))
		return
	}
	if err := s.db.HealthCheck(ctx); err != nil {
		s.logger.Warnw("health check failed", "error", err)
		s.respondError(w, http.StatusServiceUnavailable, http.StatusText(http.StatusServiceUnavailable))
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			s.logger.Infow("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"requestId", middleware.GetReqID(r.Context()),
			)
		}()
		next.ServeHTTP(ww, r)
	})
}
