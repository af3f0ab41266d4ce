// Package server exposes the controller over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danmuck/rfctl/internal/auth"
	"github.com/danmuck/rfctl/internal/controller"
	"github.com/danmuck/rfctl/internal/observability"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const Version = "0.1.0"

type Server struct {
	Addr     string
	Appeared time.Time

	ctrl   *controller.Controller
	router *gin.Engine
	auth   auth.Validator
	log    zerolog.Logger
}

// New builds the router with logging, metrics and CORS middleware. Routes
// are added by RegisterRoutes.
func New(ctrl *controller.Controller, addr string, corsOrigins []string, logger zerolog.Logger) *Server {
	observability.RegisterMetrics()
	r := gin.New()
	r.Use(gin.Recovery())
	trName := ctrl.Transport().Name()
	r.Use(observability.RequestLogger(logger, trName))
	r.Use(observability.RequestMetrics(trName))
	r.Use(cors.New(cors.Config{
		AllowOrigins: normalizeOrigins(corsOrigins),
		AllowMethods: []string{"GET", "POST"},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
		MaxAge:       12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	return &Server{
		Addr:     addr,
		Appeared: time.Now(),
		ctrl:     ctrl,
		router:   r,
		log:      logger,
	}
}

// RequireToken guards POST /send with a bearer token. Call it before
// RegisterRoutes.
func (s *Server) RequireToken(v auth.Validator) {
	s.auth = v
}

func (s *Server) HTTPRouter() *gin.Engine {
	return s.router
}

// Serve registers the routes and blocks until ctx is done or the listener
// fails.
func (s *Server) Serve(ctx context.Context) error {
	s.RegisterRoutes()
	srv := &http.Server{
		Addr:              s.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.Addr).Msg("http api listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}

func normalizeOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"http://localhost:3000"}
	}
	return origins
}
