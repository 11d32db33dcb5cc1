// Package server exposes the sync status and trigger operations over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/carlosatFroom/learning-system/internal/config"
	"github.com/carlosatFroom/learning-system/internal/logger"
	"github.com/carlosatFroom/learning-system/internal/mirror"
)

// Syncer is the part of mirror.Syncer the HTTP surface needs.
type Syncer interface {
	Run(ctx context.Context, opts mirror.RunOptions) mirror.Report
	Status(ctx context.Context) mirror.StatusReport
}

// Server serves the sync API.
type Server struct {
	cfg    config.ServerConfig
	syncer Syncer
	log    *logger.Logger
	router chi.Router
}

// New builds the router. A nil log uses the global logger.
func New(cfg config.ServerConfig, syncer Syncer, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Global()
	}
	s := &Server{cfg: cfg, syncer: syncer, log: log.Component("http")}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLog)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api/sync", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Post("/trigger", s.handleTrigger)
	})

	s.router = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: s.cfg.ReadTimeout,
		ReadTimeout:       s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("listening on %s", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.log.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

// requestLog writes one structured line per request.
func (s *Server) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		reqID := middleware.GetReqID(r.Context())
		reqLog := s.log.With().Str("request_id", reqID).Logger()

		next.ServeHTTP(ww, r.WithContext(reqLog.WithContext(r.Context())))

		reqLog.HTTPEvent().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}
