package broadcast

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/pscheid92/snakepipe/internal/domain"
	"github.com/pscheid92/snakepipe/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHub(t *testing.T, opts ...Option) *Hub {
	t.Helper()
	hub := NewHub(append([]Option{WithClock(clockwork.NewFakeClock())}, opts...)...)
	t.Cleanup(hub.Shutdown)
	return hub
}

// drain reads everything currently queued without blocking.
func drain(sub *Subscription) (msgs []string, closed bool) {
	for {
		select {
		case msg, ok := <-sub.Messages():
			if !ok {
				return msgs, true
			}
			msgs = append(msgs, string(msg))
		default:
			return msgs, false
		}
	}
}

func TestHub_RegisterAndBroadcast(t *testing.T) {
	hub := newTestHub(t)

	sub1, err := hub.Register()
	require.NoError(t, err)
	sub2, err := hub.Register()
	require.NoError(t, err)
	assert.NotEqual(t, sub1.ID(), sub2.ID())
	assert.Equal(t, 2, hub.Len())

	assert.Equal(t, 2, hub.Broadcast([]byte("one")))
	assert.Equal(t, 2, hub.Broadcast([]byte("two")))

	for _, sub := range []*Subscription{sub1, sub2} {
		msgs, closed := drain(sub)
		assert.Equal(t, []string{"one", "two"}, msgs)
		assert.False(t, closed)
		assert.Equal(t, StateConnected, sub.State())
	}
}

func TestHub_NoBacklogForLateSubscriber(t *testing.T) {
	hub := newTestHub(t)

	early, err := hub.Register()
	require.NoError(t, err)
	hub.Broadcast([]byte("k"))

	late, err := hub.Register()
	require.NoError(t, err)
	hub.Broadcast([]byte("k+1"))

	earlyMsgs, _ := drain(early)
	lateMsgs, _ := drain(late)
	assert.Equal(t, []string{"k", "k+1"}, earlyMsgs)
	assert.Equal(t, []string{"k+1"}, lateMsgs)
}

func TestHub_CloseStopsDelivery(t *testing.T) {
	hub := newTestHub(t)

	leaver, err := hub.Register()
	require.NoError(t, err)
	stayer, err := hub.Register()
	require.NoError(t, err)

	hub.Broadcast([]byte("k"))
	leaver.Close()
	leaver.Close() // idempotent
	assert.Equal(t, 1, hub.Broadcast([]byte("k+1")))

	msgs, closed := drain(leaver)
	assert.Equal(t, []string{"k"}, msgs)
	assert.True(t, closed)
	assert.Equal(t, StateRemoved, leaver.State())

	msgs, _ = drain(stayer)
	assert.Equal(t, []string{"k", "k+1"}, msgs)
	assert.Equal(t, 1, hub.Len())
}

func TestHub_EvictsSlowSubscriber(t *testing.T) {
	hub := newTestHub(t, WithBufferSize(2))
	evictedBefore := testutil.ToFloat64(metrics.BroadcasterSlowClientsEvicted)

	slow, err := hub.Register()
	require.NoError(t, err)
	fast, err := hub.Register()
	require.NoError(t, err)

	var fastMsgs []string
	for i := range 4 {
		hub.Broadcast([]byte(fmt.Sprintf("m%d", i)))
		msgs, _ := drain(fast)
		fastMsgs = append(fastMsgs, msgs...)
	}

	// The slow subscriber keeps what fit in its buffer, then sees end of stream.
	msgs, closed := drain(slow)
	assert.Equal(t, []string{"m0", "m1"}, msgs)
	assert.True(t, closed)
	assert.Equal(t, StateRemoved, slow.State())

	assert.Equal(t, []string{"m0", "m1", "m2", "m3"}, fastMsgs)
	assert.Equal(t, 1, hub.Len())
	assert.Equal(t, evictedBefore+1, testutil.ToFloat64(metrics.BroadcasterSlowClientsEvicted))
}

func TestHub_EvictionLogsConnectionAge(t *testing.T) {
	var logs bytes.Buffer
	previous := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&logs, &slog.HandlerOptions{Level: slog.LevelWarn})))
	t.Cleanup(func() { slog.SetDefault(previous) })

	clock := clockwork.NewFakeClock()
	hub := newTestHub(t, WithClock(clock), WithBufferSize(1))
	_, err := hub.Register()
	require.NoError(t, err)

	clock.Advance(90 * time.Second)
	hub.Broadcast([]byte("m0"))
	hub.Broadcast([]byte("m1"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(logs.Bytes(), &entry))
	assert.Equal(t, "Disconnecting slow subscriber", entry["msg"])
	assert.Equal(t, float64(90*time.Second), entry["connected_for"])
}

func TestHub_BroadcastDoesNotBlockOnDeadConsumer(t *testing.T) {
	hub := newTestHub(t, WithBufferSize(1))
	_, err := hub.Register()
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for range 100 {
			hub.Broadcast([]byte("x"))
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Broadcast blocked on a consumer that never reads")
	}
}

func TestHub_Shutdown(t *testing.T) {
	hub := NewHub()

	subs := make([]*Subscription, 3)
	for i := range subs {
		sub, err := hub.Register()
		require.NoError(t, err)
		subs[i] = sub
	}
	hub.Broadcast([]byte("before"))

	hub.Shutdown()
	hub.Shutdown() // idempotent

	assert.Equal(t, 0, hub.Broadcast([]byte("after")))
	assert.Equal(t, 0, hub.Len())

	for _, sub := range subs {
		msgs, closed := drain(sub)
		assert.Equal(t, []string{"before"}, msgs)
		assert.True(t, closed)
		assert.Equal(t, StateRemoved, sub.State())
		sub.Close() // no panic after shutdown
	}

	_, err := hub.Register()
	assert.ErrorIs(t, err, domain.ErrHubClosed)
}

func TestHub_ConcurrentRegisterAndBroadcast(t *testing.T) {
	hub := newTestHub(t, WithBufferSize(1024))

	const (
		producers   = 1
		subscribers = 50
		messages    = 200
	)

	var wg sync.WaitGroup
	subCh := make(chan *Subscription, subscribers)
	for range subscribers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sub, err := hub.Register()
			if err == nil {
				subCh <- sub
			}
		}()
	}

	wg.Add(producers)
	go func() {
		defer wg.Done()
		for i := range messages {
			hub.Broadcast([]byte(fmt.Sprintf("%03d", i)))
		}
	}()

	wg.Wait()
	close(subCh)

	// Every subscriber sees a contiguous, ordered suffix of the messages.
	for sub := range subCh {
		msgs, _ := drain(sub)
		for i := 1; i < len(msgs); i++ {
			assert.Less(t, msgs[i-1], msgs[i])
		}
		if len(msgs) > 0 {
			assert.Equal(t, fmt.Sprintf("%03d", messages-1), msgs[len(msgs)-1])
		}
	}
}

func TestHub_ConnectedGauge(t *testing.T) {
	hub := newTestHub(t)
	before := testutil.ToFloat64(metrics.BroadcasterConnectedClients)

	sub, err := hub.Register()
	require.NoError(t, err)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.BroadcasterConnectedClients))

	sub.Close()
	assert.Equal(t, before, testutil.ToFloat64(metrics.BroadcasterConnectedClients))
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "connected", StateConnected.String())
	assert.Equal(t, "draining", StateDraining.String())
	assert.Equal(t, "removed", StateRemoved.String())
}
