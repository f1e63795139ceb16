// Package discovery locates Tydom hubs on the local network via mDNS.
//
// Hubs advertise an HTTP service with a "tydom-{mac-suffix}.local"
// hostname. Scanning is informational: it helps an operator find the hub
// IP for local mode, but the bridge never discovers its hub automatically,
// since the configured host decides remote versus local behaviour.
package discovery
