// Package auth implements the HTTP Digest authentication used by Tydom hubs.
//
// The hub answers the initial mediation request with a WWW-Authenticate
// challenge; the websocket upgrade must then carry an RFC 2617 Digest
// Authorization header computed from the hub MAC address (username) and the
// hub password. The hub always accepts qop=auth with a fixed nonce count of
// 00000001; it has never been observed to require an incrementing counter,
// so we do not send one.
//
// Everything in this package is a pure function of its inputs, which keeps
// the digest computation directly testable against reference vectors.
package auth
