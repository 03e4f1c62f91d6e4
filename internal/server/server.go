// Package server assembles the HTTP router and runs it as a supervised
// service.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/sngm3741/ethical-choice/api/internal/config"
	adminhttp "github.com/sngm3741/ethical-choice/api/internal/interfaces/http/admin"
	"github.com/sngm3741/ethical-choice/api/internal/interfaces/http/common"
	publichttp "github.com/sngm3741/ethical-choice/api/internal/interfaces/http/public"
)

// DatabasePinger is satisfied by *mongo.Client.
type DatabasePinger interface {
	Ping(ctx context.Context, rp *readpref.ReadPref) error
}

// CachePinger is satisfied by *cache.Client.
type CachePinger interface {
	Ping(ctx context.Context) error
}

// Dependencies are the collaborators the router needs.
type Dependencies struct {
	Database DatabasePinger
	Cache    CachePinger
	Auth     common.Authenticator
	Public   *publichttp.Handler
	Admin    *adminhttp.Handler
}

// Server owns the router and the http.Server lifecycle.
type Server struct {
	cfg     config.Config
	deps    Dependencies
	logger  zerolog.Logger
	started time.Time
	handler http.Handler
}

// New builds the router. Call Serve to listen.
func New(cfg config.Config, deps Dependencies, logger zerolog.Logger) *Server {
	s := &Server{
		cfg:     cfg,
		deps:    deps,
		logger:  logger.With().Str("component", "http").Logger(),
		started: time.Now(),
	}
	s.handler = s.routes()
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() http.Handler {
	hideInternal := s.cfg.IsProduction()
	authMiddleware := common.RequireAuth(s.deps.Auth, s.logger, hideInternal)

	router := chi.NewRouter()
	router.Use(requestContext(s.logger))
	router.Use(middleware.RealIP)
	router.Use(accessLog(s.logger))
	router.Use(instrument)
	router.Use(middleware.Recoverer)
	router.Use(corsHandler(s.cfg.CORS))

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		common.WriteStatus(s.logger, w, http.StatusNotFound, "Route not found")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		common.WriteStatus(s.logger, w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	router.Get("/health", s.healthHandler())
	router.Handle("/metrics", promhttp.Handler())

	prefix := "/" + strings.Trim(s.cfg.Server.APIPrefix, "/")
	router.Route(prefix, func(api chi.Router) {
		api.Use(rateLimit(s.cfg.RateLimit, s.logger))
		api.Get("/health", s.healthHandler())
		if s.deps.Public != nil {
			s.deps.Public.Register(api, authMiddleware)
		}
		if s.deps.Admin != nil {
			s.deps.Admin.Register(api, authMiddleware)
		}
	})
	return router
}

type healthReport struct {
	Status   string    `json:"status"`
	Database string    `json:"database"`
	Cache    string    `json:"cache"`
	Uptime   string    `json:"uptime"`
	Time     time.Time `json:"time"`
}

// healthHandler reports process, database and cache status. Any failing
// dependency turns the answer into a 503.
func (s *Server) healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		report := healthReport{
			Status:   "ok",
			Database: "ok",
			Cache:    "ok",
			Uptime:   time.Since(s.started).Round(time.Second).String(),
			Time:     time.Now().UTC(),
		}
		if s.deps.Database == nil {
			report.Database = "unconfigured"
		} else if err := s.deps.Database.Ping(ctx, readpref.Primary()); err != nil {
			s.logger.Warn().Err(err).Msg("health: database ping failed")
			report.Database = "unavailable"
			report.Status = "degraded"
		}
		if s.deps.Cache == nil {
			report.Cache = "unconfigured"
		} else if err := s.deps.Cache.Ping(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("health: cache ping failed")
			report.Cache = "unavailable"
			report.Status = "degraded"
		}

		if report.Status != "ok" {
			common.WriteJSON(s.logger, w, http.StatusServiceUnavailable, common.Envelope{
				Success:    false,
				Error:      "Service degraded",
				StatusCode: http.StatusServiceUnavailable,
				Data:       report,
			})
			return
		}
		common.WriteSuccess(s.logger, w, http.StatusOK, "Service healthy", report)
	}
}

// Serve implements suture.Service: it listens until ctx is cancelled and
// then shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.cfg.Server.Addr).Msg("http server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		timeout := s.cfg.Server.ShutdownTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		s.logger.Info().Msg("http server shutting down")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown failed: %w", err)
		}
		<-errCh
		return ctx.Err()
	}
}

func (s *Server) String() string {
	return "http-server"
}
