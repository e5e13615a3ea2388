// Package relay implements the event relay: a typed publish/subscribe channel
// with per-listener panic isolation, plus the realtime bridge that translates
// remote row-change notifications into uniform LiveStreamEvents.
package relay
