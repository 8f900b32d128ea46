package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/pscheid92/snakepipe/internal/domain"
	"github.com/pscheid92/snakepipe/internal/metrics"
)

// FrameSource is the decoded frame sequence. Next blocks until a frame is
// available or the input ends.
type FrameSource interface {
	Next() (domain.Frame, bool)
	Err() error
}

type Broadcaster interface {
	Broadcast(msg []byte) int
	Shutdown()
}

// Producer moves frames from a FrameSource into a Broadcaster, one at a time
// and in input order.
type Producer struct {
	frames  FrameSource
	hub     Broadcaster
	marshal func(any) ([]byte, error)
}

func NewProducer(frames FrameSource, hub Broadcaster) *Producer {
	return &Producer{
		frames:  frames,
		hub:     hub,
		marshal: json.Marshal,
	}
}

// Run broadcasts frames until the source ends or ctx is cancelled. ctx is
// checked before each pull and nothing is read ahead, so once cancellation
// is observed no further frame is taken from the source. A frame whose pull
// completed is always fanned out, even if ctx was cancelled meanwhile. A
// frame that cannot be serialized is skipped. Returns the source's read
// error, if any.
func (p *Producer) Run(ctx context.Context) error {
	pulls := make(chan struct{})
	defer close(pulls)
	results := p.feed(pulls)

	for {
		if ctx.Err() != nil {
			return nil
		}

		pulls <- struct{}{}

		var r pulled
		select {
		case r = <-results:
		case <-ctx.Done():
			// A pull still blocked on the source is abandoned; one that
			// already finished is delivered.
			select {
			case r = <-results:
			default:
				return nil
			}
		}

		if !r.ok {
			if err := p.frames.Err(); err != nil {
				return fmt.Errorf("input stream failed: %w", err)
			}
			return nil
		}

		p.broadcast(r.frame)
	}
}

func (p *Producer) broadcast(frame domain.Frame) {
	data, err := p.marshal(frame)
	if err != nil {
		metrics.BroadcasterMarshalErrorsTotal.Inc()
		slog.Warn("Skipping frame that failed to serialize", "error", err)
		return
	}

	delivered := p.hub.Broadcast(data)
	slog.Debug("Frame broadcast", "score", frame.Score, "delivered", delivered)
}

type pulled struct {
	frame domain.Frame
	ok    bool
}

// feed performs one pull per request on its own goroutine so a blocked read
// never delays shutdown. The result channel is buffered, so an abandoned
// pull finishes without a receiver; the goroutine exits when pulls is closed
// or the source ends.
func (p *Producer) feed(pulls <-chan struct{}) <-chan pulled {
	results := make(chan pulled, 1)
	go func() {
		for range pulls {
			frame, ok := p.frames.Next()
			results <- pulled{frame: frame, ok: ok}
			if !ok {
				return
			}
		}
	}()
	return results
}
