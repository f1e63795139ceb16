// Package router dispatches decoded hub messages to the right consumer.
//
// Bodies are classified by content sniffing: configuration snapshots feed
// the device registry, devices-data payloads go through extraction and out
// to the per-family adapters, hub info and HTML error pages are logged.
// Routing is strictly sequential (one message at a time, in arrival order)
// and contains every per-message error: a bad message is logged and
// dropped, never allowed to stall or kill the stream.
package router
