package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/pscheid92/snakepipe/internal/broadcast"
	"github.com/pscheid92/snakepipe/internal/domain"
	"github.com/pscheid92/snakepipe/internal/platform/config"
)

type Server struct {
	echo   *echo.Echo
	config *config.Config

	hub         *broadcast.Hub
	initOptions domain.Config
	limiter     *GlobalConnectionLimiter
	writerOpts  broadcast.WriterOptions
	upgrader    websocket.Upgrader

	clock     clockwork.Clock
	startTime time.Time
}

// NewServer wires the routes. initOptions is served verbatim on
// /init-options; subscribers are registered with hub.
func NewServer(cfg *config.Config, hub *broadcast.Hub, initOptions domain.Config, clock clockwork.Clock) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	srv := &Server{
		echo:        e,
		config:      cfg,
		hub:         hub,
		initOptions: initOptions,
		limiter:     NewGlobalConnectionLimiter(int64(cfg.MaxSubscribers)),
		writerOpts: broadcast.WriterOptions{
			Clock:        clock,
			PingInterval: cfg.PingInterval,
			WriteTimeout: cfg.WriteTimeout,
		},
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     NewCheckOrigin(cfg.AllowedOrigins),
		},
		clock:     clock,
		startTime: clock.Now(),
	}

	srv.registerRoutes()

	return srv
}

func (s *Server) Start() error {
	slog.Info("Starting server", "addr", s.config.Addr())
	if err := s.echo.Start(s.config.Addr()); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests.
// Streaming requests only finish once their subscription ends, so the hub
// should be shut down first.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}
