// Package broadcast fans live-stream events out to WebSocket clients using
// the actor pattern: a single goroutine owns the client registry and a
// command channel replaces mutexes. Per-connection write goroutines absorb
// slow clients; a client whose buffer fills is evicted.
package broadcast
