// Package broadcast fans frames out from one producer to many subscribers.
//
// The Hub owns the subscriber set behind a single mutex. Delivery is a
// non-blocking send into each subscriber's buffered channel; a subscriber
// whose buffer is full is evicted instead of stalling the producer.
// Per-connection writers (ServeWebSocket, ServeSSE) drain a Subscription
// into a network connection, so slow clients only ever slow themselves.
package broadcast
