// Package server exposes the session façade over HTTP and WebSocket using
// echo: the streams API, the per-stream event feed, and the observability
// endpoints.
package server
