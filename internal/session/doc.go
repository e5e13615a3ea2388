// Package session implements the live-stream session façade: create, start,
// mutate and end live streams against the store, with locally synthesized
// fallback streams when the store is unreachable, and event fan-out through
// the relay.
package session
