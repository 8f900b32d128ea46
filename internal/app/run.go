package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

const defaultShutdownTimeout = 10 * time.Second

// Listener is the subscriber-facing server. Start blocks until the server
// stops; after Shutdown it returns an error wrapping http.ErrServerClosed.
type Listener interface {
	Start() error
	Shutdown(ctx context.Context) error
}

type Pipeline struct {
	Producer        *Producer
	Hub             Broadcaster
	Listener        Listener
	ShutdownTimeout time.Duration
}

// Run starts the producer, the listener and the shutdown coordinator and
// waits for all three. Cancelling ctx (the termination signal) triggers
// shutdown: the producer stops before its next frame, the hub closes every
// subscriber, then the listener drains. The input ending does not stop the
// server; connected subscribers stay until shutdown.
func (p *Pipeline) Run(ctx context.Context) error {
	timeout := p.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}

	g, gctx := errgroup.WithContext(ctx)
	producerCtx, stopProducer := context.WithCancel(gctx)
	defer stopProducer()

	g.Go(func() error {
		if err := p.Listener.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listener: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		if err := p.Producer.Run(producerCtx); err != nil {
			return fmt.Errorf("producer: %w", err)
		}
		if gctx.Err() == nil {
			slog.Info("Input stream ended, serving until shutdown")
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutdown signal received, cleaning up...")

		stopProducer()
		p.Hub.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := p.Listener.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	slog.Info("Pipeline stopped")
	return nil
}
