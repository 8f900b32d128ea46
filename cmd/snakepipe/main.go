package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/snakepipe/internal/app"
	"github.com/pscheid92/snakepipe/internal/broadcast"
	"github.com/pscheid92/snakepipe/internal/platform/config"
	"github.com/pscheid92/snakepipe/internal/platform/logging"
	"github.com/pscheid92/snakepipe/internal/platform/version"
	"github.com/pscheid92/snakepipe/internal/render"
	"github.com/pscheid92/snakepipe/internal/server"
	"github.com/pscheid92/snakepipe/internal/stream"
)

const usage = `usage: snakepipe <command>

Reads a game stream from stdin.

commands:
  render   draw every frame in this terminal
  serve    broadcast frames to subscribers over SSE (/events) and WebSocket (/ws)
  version  print build information
`

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupStream() *stream.Stream {
	s, err := stream.Decode(os.Stdin)
	if err != nil {
		slog.Error("Failed to read stream config", "error", err)
		os.Exit(1)
	}
	slog.Info("Stream config received",
		"frame_duration_ms", s.Config().FrameDuration,
		"width", s.Config().Size.Width,
		"height", s.Config().Size.Height,
	)
	return s
}

func runRender(ctx context.Context) {
	s := setupStream()

	if err := render.Run(ctx, s, render.NewRenderer(os.Stdout)); err != nil {
		slog.Error("Render loop stopped", "error", err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context, cfg *config.Config) {
	clock := clockwork.NewRealClock()
	s := setupStream()

	hub := broadcast.NewHub(
		broadcast.WithBufferSize(cfg.SubscriberBuffer),
		broadcast.WithClock(clock),
	)
	srv := server.NewServer(cfg, hub, s.Config(), clock)

	pipeline := &app.Pipeline{
		Producer:        app.NewProducer(s, hub),
		Hub:             hub,
		Listener:        srv,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}

	if err := pipeline.Run(ctx); err != nil {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg := setupConfig()

	// stdout is the render surface; logs always go to stderr.
	logging.InitLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch os.Args[1] {
	case "render":
		slog.Info("Application starting", "mode", "render", "version", version.Get().String())
		runRender(ctx)
	case "serve":
		slog.Info("Application starting", "mode", "serve", "version", version.Get().String(), "addr", cfg.Addr())
		runServe(ctx, cfg)
	case "version":
		fmt.Println(version.Get().String())
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
}
