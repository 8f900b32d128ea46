// Package server implements the broadcast listener using the Echo framework.
//
// Routes: subscriptions (/events as SSE, /ws as WebSocket), the stream's
// Config (/init-options), health, version and Prometheus metrics.
// Subscription endpoints are rate limited per IP and capped globally.
package server
