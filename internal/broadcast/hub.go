package broadcast

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/snakepipe/internal/domain"
	"github.com/pscheid92/snakepipe/internal/metrics"
)

const defaultBufferSize = 16

// State is the lifecycle of a subscriber: Connected -> Draining -> Removed.
type State int

const (
	StateConnected State = iota
	StateDraining
	StateRemoved
)

func (s State) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateDraining:
		return "draining"
	case StateRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// Subscription is the consuming side of one registered subscriber.
type Subscription struct {
	id           uuid.UUID
	hub          *Hub
	messages     chan []byte
	state        State // guarded by hub.mu
	registeredAt time.Time
}

func (s *Subscription) ID() uuid.UUID { return s.id }

// Messages yields broadcast messages in order. The channel is closed when
// the subscriber is evicted, closes itself, or the hub shuts down.
func (s *Subscription) Messages() <-chan []byte { return s.messages }

func (s *Subscription) State() State {
	s.hub.mu.Lock()
	defer s.hub.mu.Unlock()
	return s.state
}

// Close removes the subscriber from its hub. Safe to call more than once.
func (s *Subscription) Close() {
	s.hub.remove(s, "closed")
}

// Hub holds the subscriber set. Register, Broadcast, Close and Shutdown may
// be called from any goroutine.
type Hub struct {
	mu          sync.Mutex
	subscribers map[uuid.UUID]*Subscription
	closed      bool
	bufferSize  int
	clock       clockwork.Clock
}

type Option func(*Hub)

// WithBufferSize sets how many undelivered messages a subscriber may queue
// before it is evicted.
func WithBufferSize(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.bufferSize = n
		}
	}
}

func WithClock(clock clockwork.Clock) Option {
	return func(h *Hub) { h.clock = clock }
}

func NewHub(opts ...Option) *Hub {
	h := &Hub{
		subscribers: make(map[uuid.UUID]*Subscription),
		bufferSize:  defaultBufferSize,
		clock:       clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register adds a Connected subscriber. It sees every message broadcast
// after Register returns and nothing from before.
func (h *Hub) Register() (*Subscription, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, domain.ErrHubClosed
	}

	sub := &Subscription{
		id:           uuid.New(),
		hub:          h,
		messages:     make(chan []byte, h.bufferSize),
		state:        StateConnected,
		registeredAt: h.clock.Now(),
	}
	h.subscribers[sub.id] = sub

	metrics.BroadcasterConnectedClients.Inc()
	slog.Debug("Subscriber registered", "subscriber_id", sub.id.String(), "total_clients", len(h.subscribers))
	return sub, nil
}

// Broadcast queues msg for every Connected subscriber and returns how many
// received it. A subscriber with a full buffer is evicted; the others are
// unaffected. Broadcast never blocks on a consumer.
func (h *Hub) Broadcast(msg []byte) int {
	start := h.clock.Now()

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return 0
	}

	delivered := 0
	var slow []*Subscription
	for _, sub := range h.subscribers {
		select {
		case sub.messages <- msg:
			delivered++
		default:
			slow = append(slow, sub)
		}
	}

	for _, sub := range slow {
		slog.Warn("Disconnecting slow subscriber",
			"subscriber_id", sub.id.String(),
			"connected_for", h.clock.Since(sub.registeredAt),
		)
		metrics.BroadcasterSlowClientsEvicted.Inc()
		h.removeLocked(sub)
	}

	metrics.BroadcasterMessagesTotal.Inc()
	metrics.BroadcasterDeliveriesTotal.Add(float64(delivered))
	metrics.BroadcasterBroadcastDuration.Observe(h.clock.Since(start).Seconds())
	return delivered
}

// Shutdown drains and removes every subscriber, closing their channels.
// Later Broadcasts deliver nothing and later Registers fail.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true

	// Draining is only observable under the lock; every subscriber passes
	// through it before its channel is closed.
	total := len(h.subscribers)
	for _, sub := range h.subscribers {
		sub.state = StateDraining
	}
	for _, sub := range h.subscribers {
		h.removeLocked(sub)
	}

	slog.Info("Broadcaster shutdown complete", "disconnected_clients", total)
}

// Closed reports whether Shutdown has been called.
func (h *Hub) Closed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

// Len returns the number of Connected subscribers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

func (h *Hub) remove(sub *Subscription, reason string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if sub.state == StateRemoved {
		return
	}
	h.removeLocked(sub)
	slog.Debug("Subscriber removed", "subscriber_id", sub.id.String(), "reason", reason, "remaining_clients", len(h.subscribers))
}

func (h *Hub) removeLocked(sub *Subscription) {
	if sub.state == StateRemoved {
		return
	}
	sub.state = StateRemoved
	delete(h.subscribers, sub.id)
	close(sub.messages)
	metrics.BroadcasterConnectedClients.Dec()
}
