// Package admin serves the plugin registry over HTTP.
package admin

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danmuck/plugctl/internal/auth"
	"github.com/danmuck/plugctl/internal/logging"
	"github.com/danmuck/plugctl/internal/observability"
	"github.com/danmuck/plugctl/internal/plugins"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	Addr    string
	Started time.Time

	reg       *plugins.Registry
	router    *gin.Engine
	validator auth.Validator
	logger    zerolog.Logger
}

type Option func(*Server)

// WithValidator requires a bearer token accepted by v on every route that
// changes registry or plugin state.
func WithValidator(v auth.Validator) Option {
	return func(s *Server) {
		s.validator = v
	}
}

func New(addr string, reg *plugins.Registry, corsOrigins []string, opts ...Option) *Server {
	observability.RegisterMetrics()
	logger := logging.Component("admin")

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(logger))
	r.Use(observability.RequestMetrics())
	r.Use(cors.New(cors.Config{
		AllowOrigins: normalizeOrigins(corsOrigins),
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
		MaxAge:       12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	s := &Server{
		Addr:    addr,
		Started: time.Now(),
		reg:     reg,
		router:  r,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.RegisterRoutes()
	return s
}

func (s *Server) Router() *gin.Engine {
	return s.router
}

// Serve listens on Addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.Addr).Msg("admin listening")
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info().Msg("admin stopped")
	return nil
}

func normalizeOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"http://localhost:3000"}
	}
	return origins
}
