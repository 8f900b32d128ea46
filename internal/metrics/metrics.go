package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Stream Decoding Metrics
var (
	// FramesDecodedTotal tracks frames successfully decoded from the input stream
	FramesDecodedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stream_frames_decoded_total",
			Help: "Total frames decoded from the input stream",
		},
	)

	// FramesDroppedTotal tracks input lines that failed to decode and were skipped
	FramesDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stream_frames_dropped_total",
			Help: "Total malformed input lines skipped by the decoder",
		},
	)
)

// Broadcaster Metrics
var (
	// BroadcasterConnectedClients tracks current number of registered subscribers
	BroadcasterConnectedClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "broadcaster_connected_clients",
			Help: "Current number of registered subscribers",
		},
	)

	// BroadcasterMessagesTotal tracks broadcast calls
	BroadcasterMessagesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "broadcaster_messages_total",
			Help: "Total messages fanned out by the hub",
		},
	)

	// BroadcasterDeliveriesTotal tracks per-subscriber deliveries
	BroadcasterDeliveriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "broadcaster_deliveries_total",
			Help: "Total messages queued to individual subscribers",
		},
	)

	// BroadcasterSlowClientsEvicted tracks number of slow clients evicted
	BroadcasterSlowClientsEvicted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "broadcaster_slow_clients_evicted_total",
			Help: "Total number of subscribers evicted due to buffer full",
		},
	)

	// BroadcasterBroadcastDuration tracks fan-out latency
	BroadcasterBroadcastDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "broadcaster_broadcast_duration_seconds",
			Help:    "Time spent fanning out one message to all subscribers",
			Buckets: []float64{.00001, .0001, .0005, .001, .005, .01, .05},
		},
	)

	// BroadcasterMarshalErrorsTotal tracks frames skipped because they could not be serialized
	BroadcasterMarshalErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "broadcaster_marshal_errors_total",
			Help: "Frames skipped because serialization failed",
		},
	)
)

// Connection Metrics
var (
	// ConnectionsTotal tracks subscription attempts by transport and result
	ConnectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "subscriber_connections_total",
			Help: "Total subscription attempts by transport (sse/websocket) and result (success/error/rejected)",
		},
		[]string{"transport", "result"},
	)

	// ConnectionDuration tracks how long subscribers stay connected
	ConnectionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "subscriber_connection_duration_seconds",
			Help:    "Subscriber connection duration in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 300, 600, 1800, 3600},
		},
		[]string{"transport"},
	)

	// MessageSendDuration tracks a single message write to a subscriber
	MessageSendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "subscriber_message_send_duration_seconds",
			Help:    "Subscriber message write duration in seconds",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .025, .05, .1, .25},
		},
		[]string{"transport"},
	)

	// WebSocketPingFailures tracks WebSocket ping failures
	WebSocketPingFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_ping_failures_total",
			Help: "Total WebSocket ping failures (client not responding)",
		},
	)

	// ConnectionsRejected tracks rejected subscription attempts by reason
	ConnectionsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "subscriber_connections_rejected_total",
			Help: "Total subscriptions rejected by reason (rate_limit/global_limit/shutdown)",
		},
		[]string{"reason"},
	)

	// HTTPErrorsTotal tracks error responses by error type
	HTTPErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_errors_total",
			Help: "Total HTTP errors by error type",
		},
		[]string{"type"},
	)
)

// Render Metrics
var (
	// FramesRenderedTotal tracks frames drawn to the terminal
	FramesRenderedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "render_frames_total",
			Help: "Total frames drawn to the terminal",
		},
	)
)
