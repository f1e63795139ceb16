// Package bridge wires one session generation together: handshake,
// initial data requests, the sequential read loop and the periodic
// refresh.
//
// A generation ends on the first transport fault. The bridge returns the
// fault to its caller instead of retrying internally; the outer restart
// loop decides on backoff and reconnection. Each generation starts with an
// empty device registry and requests a fresh configuration snapshot before
// device data can be fully resolved, so there is never partially stale
// state across reconnects.
package bridge
