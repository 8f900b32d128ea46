package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pscheid92/snakepipe/internal/broadcast"
	"github.com/pscheid92/snakepipe/internal/domain"
	apperrors "github.com/pscheid92/snakepipe/internal/errors"
	"github.com/pscheid92/snakepipe/internal/metrics"
	"github.com/pscheid92/snakepipe/internal/platform/logging"
)

func (s *Server) handleInitOptions(c echo.Context) error {
	if err := c.JSON(http.StatusOK, s.initOptions); err != nil {
		return fmt.Errorf("failed to write init options: %w", err)
	}
	return nil
}

// subscribe takes a connection slot and registers with the hub. On success
// the caller owns both and must call release.
func (s *Server) subscribe(transport string) (sub *broadcast.Subscription, release func(), err error) {
	if !s.limiter.Acquire() {
		metrics.ConnectionsRejected.WithLabelValues("global_limit").Inc()
		metrics.ConnectionsTotal.WithLabelValues(transport, "rejected").Inc()
		return nil, nil, apperrors.UnavailableError("too many subscribers", nil).
			WithContext("transport", transport)
	}

	sub, err = s.hub.Register()
	if errors.Is(err, domain.ErrHubClosed) {
		s.limiter.Release()
		metrics.ConnectionsRejected.WithLabelValues("shutdown").Inc()
		metrics.ConnectionsTotal.WithLabelValues(transport, "rejected").Inc()
		return nil, nil, apperrors.UnavailableError("server shutting down", err).
			WithContext("transport", transport)
	}
	if err != nil {
		s.limiter.Release()
		metrics.ConnectionsTotal.WithLabelValues(transport, "error").Inc()
		return nil, nil, apperrors.InternalError("failed to register subscriber", err)
	}

	return sub, s.limiter.Release, nil
}

func (s *Server) handleEvents(c echo.Context) error {
	sub, release, err := s.subscribe("sse")
	if sub == nil {
		return err
	}
	defer release()

	metrics.ConnectionsTotal.WithLabelValues("sse", "success").Inc()
	ctx := logging.WithSubscriber(c.Request().Context(), sub.ID().String())
	slog.InfoContext(ctx, "Subscriber connected", "transport", "sse", "remote", c.RealIP())

	if err := broadcast.ServeSSE(ctx, c.Response(), sub, s.writerOpts); err != nil {
		slog.DebugContext(ctx, "Subscriber stream ended with error", "error", err)
	}
	slog.InfoContext(ctx, "Subscriber disconnected", "transport", "sse")
	return nil
}

func (s *Server) handleWebSocket(c echo.Context) error {
	sub, release, err := s.subscribe("websocket")
	if sub == nil {
		return err
	}
	defer release()

	conn, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		sub.Close()
		metrics.ConnectionsTotal.WithLabelValues("websocket", "error").Inc()
		// Upgrade already wrote the handshake error response.
		slog.Debug("WebSocket upgrade failed", "error", err)
		return nil
	}
	defer func() { _ = conn.Close() }()

	metrics.ConnectionsTotal.WithLabelValues("websocket", "success").Inc()
	ctx := logging.WithSubscriber(c.Request().Context(), sub.ID().String())
	slog.InfoContext(ctx, "Subscriber connected", "transport", "websocket", "remote", c.RealIP())

	if err := broadcast.ServeWebSocket(ctx, conn, sub, s.writerOpts); err != nil {
		slog.DebugContext(ctx, "Subscriber stream ended with error", "error", err)
	}
	slog.InfoContext(ctx, "Subscriber disconnected", "transport", "websocket")
	return nil
}
