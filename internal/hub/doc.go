// Package hub manages the authenticated websocket connection to a Tydom
// hub and exposes its command surface.
//
// Connecting is a two step dance: an HTTPS probe of the mediation endpoint
// yields a digest challenge, then the websocket upgrade to the same path is
// retried with the computed Authorization header. The hub presents a
// self-signed certificate in both remote and local mode, so certificate
// verification is disabled on purpose for this one connection.
//
// A Session owns the open connection. Reads happen from a single loop;
// writes are serialized with a mutex because commands can be issued from
// several goroutines at once. There is no request/response correlation on
// the wire, so commands never wait for their answer: responses arrive on
// the inbound stream like any other message.
package hub
