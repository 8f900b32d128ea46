package broadcast

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/snakepipe/internal/metrics"
)

const (
	defaultWriteTimeout = 5 * time.Second
	defaultPingInterval = 30 * time.Second
	shutdownReason      = "Server shutting down"
)

// WriterOptions tune the per-connection writers.
type WriterOptions struct {
	Clock        clockwork.Clock
	PingInterval time.Duration
	WriteTimeout time.Duration
}

func (o WriterOptions) withDefaults() WriterOptions {
	if o.Clock == nil {
		o.Clock = clockwork.NewRealClock()
	}
	if o.PingInterval <= 0 {
		o.PingInterval = defaultPingInterval
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = defaultWriteTimeout
	}
	return o
}

// pongDeadline is how long a websocket client may stay silent.
func (o WriterOptions) pongDeadline() time.Duration {
	return 2 * o.PingInterval
}

type wsWriter struct {
	connection *websocket.Conn
	sub        *Subscription
	opts       WriterOptions
}

// ServeWebSocket pumps sub into connection until the subscription ends, the
// client goes away or ctx is done. The subscription is always closed on
// return. When the hub closes the subscription a normal-closure frame is
// sent so the client sees a clean end of stream.
func ServeWebSocket(ctx context.Context, connection *websocket.Conn, sub *Subscription, opts WriterOptions) error {
	w := &wsWriter{connection: connection, sub: sub, opts: opts.withDefaults()}
	defer sub.Close()

	w.configurePongHandler()

	// Read pump: gorilla needs an active reader to process control frames.
	// Any read error means the client is gone.
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		for {
			if _, _, err := connection.ReadMessage(); err != nil {
				return
			}
		}
	}()

	start := w.opts.Clock.Now()
	defer func() {
		metrics.ConnectionDuration.WithLabelValues("websocket").Observe(w.opts.Clock.Since(start).Seconds())
	}()

	ticker := w.opts.Clock.NewTicker(w.opts.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-sub.Messages():
			if !ok {
				w.writeClose(shutdownReason)
				return nil
			}
			sendStart := w.opts.Clock.Now()
			w.updateWriteDeadline()
			if err := connection.WriteMessage(websocket.TextMessage, msg); err != nil {
				return fmt.Errorf("failed to write message: %w", err)
			}
			metrics.MessageSendDuration.WithLabelValues("websocket").Observe(w.opts.Clock.Since(sendStart).Seconds())
		case <-ticker.Chan():
			w.updateWriteDeadline()
			if err := connection.WriteMessage(websocket.PingMessage, nil); err != nil {
				metrics.WebSocketPingFailures.Inc()
				return fmt.Errorf("failed to ping: %w", err)
			}
		case <-readDone:
			return nil
		case <-ctx.Done():
			w.writeClose(shutdownReason)
			return nil
		}
	}
}

func (w *wsWriter) writeClose(reason string) {
	closeMsg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason)
	w.updateWriteDeadline()
	if err := w.connection.WriteMessage(websocket.CloseMessage, closeMsg); err != nil {
		slog.Debug("Failed to send close frame", "subscriber_id", w.sub.ID().String(), "error", err)
	}
}

func (w *wsWriter) configurePongHandler() {
	w.updateReadDeadline()
	w.connection.SetPongHandler(func(string) error {
		w.updateReadDeadline()
		return nil
	})
}

// Network deadlines are wall-clock; the injected clock only drives timers.
func (w *wsWriter) updateWriteDeadline() {
	_ = w.connection.SetWriteDeadline(time.Now().Add(w.opts.WriteTimeout))
}

func (w *wsWriter) updateReadDeadline() {
	_ = w.connection.SetReadDeadline(time.Now().Add(w.opts.pongDeadline()))
}

// ServeSSE pumps sub into a text/event-stream response. Each message is one
// "data:" event; idle periods carry comment keepalives. Returns nil when the
// subscription ends or ctx is done, and the write error if the client
// connection fails. The subscription is always closed on return.
func ServeSSE(ctx context.Context, rw http.ResponseWriter, sub *Subscription, opts WriterOptions) error {
	opts = opts.withDefaults()
	defer sub.Close()

	rc := http.NewResponseController(rw)

	header := rw.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	rw.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		return fmt.Errorf("failed to flush headers: %w", err)
	}

	start := opts.Clock.Now()
	defer func() {
		metrics.ConnectionDuration.WithLabelValues("sse").Observe(opts.Clock.Since(start).Seconds())
	}()

	ticker := opts.Clock.NewTicker(opts.PingInterval)
	defer ticker.Stop()

	write := func(payload string) error {
		_ = rc.SetWriteDeadline(time.Now().Add(opts.WriteTimeout))
		if _, err := fmt.Fprint(rw, payload); err != nil {
			return fmt.Errorf("failed to write event: %w", err)
		}
		if err := rc.Flush(); err != nil {
			return fmt.Errorf("failed to flush event: %w", err)
		}
		return nil
	}

	for {
		select {
		case msg, ok := <-sub.Messages():
			if !ok {
				return nil
			}
			sendStart := opts.Clock.Now()
			if err := write("data: " + string(msg) + "\n\n"); err != nil {
				return err
			}
			metrics.MessageSendDuration.WithLabelValues("sse").Observe(opts.Clock.Since(sendStart).Seconds())
		case <-ticker.Chan():
			if err := write(": ping\n\n"); err != nil {
				return err
			}
		case <-ctx.Done():
			return nil
		}
	}
}
