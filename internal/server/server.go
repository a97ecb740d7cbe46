// =============================================================================
// Registro de Servicios - HTTP Server Module
// =============================================================================
//
// This module assembles the echo server: middleware, route registration,
// and lifecycle. Route paths keep their historical trailing slashes because
// the deployed front end calls them exactly that way.
//
// =============================================================================

package server

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/avelasquezm/registro-servicios/internal/config"
	"github.com/avelasquezm/registro-servicios/internal/ledger"
)

// Server is the HTTP front of the ledger service.
type Server struct {
	e   *echo.Echo
	cfg *config.Config
	log zerolog.Logger
}

// New builds the server and registers every route.
func New(cfg *config.Config, log zerolog.Logger, store *ledger.Store, cats ledger.Catalogs) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
	}))
	e.Use(requestLogger(log))

	h := NewHandler(cfg, log, store, cats)
	h.RegisterRoutes(e)

	return &Server{e: e, cfg: cfg, log: log}
}

// Start runs the server until it fails or is shut down. It returns
// http.ErrServerClosed on a clean shutdown.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.cfg.ListenAddr).Msg("HTTP server listening")
	return s.e.Start(s.cfg.ListenAddr)
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}

// requestLogger logs one line per request.
func requestLogger(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()

			err := next(c)

			evt := logger.Info()
			if err != nil {
				evt = logger.Error().Err(err)
			}

			evt.
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", c.Response().Status).
				Dur("latency", time.Since(start)).
				Str("remote_ip", c.RealIP()).
				Msg("request")

			return err
		}
	}
}
