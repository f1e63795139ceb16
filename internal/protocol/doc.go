// Package protocol implements the Tydom hub wire format.
//
// The hub speaks HTTP/1.1-shaped request/response text carried inside TLS
// websocket binary frames. When the hub is reached through the vendor's
// cloud relay ("remote" mode), every frame is additionally prefixed with a
// single 0x02 control byte; on the LAN ("local" mode) there is no prefix.
//
// # Outbound frames
//
// Requests look like ordinary HTTP/1.1 requests with a fixed header set:
//
//	[0x02?]PUT /devices/12/endpoints/34/data HTTP/1.1\r\n
//	Content-Length: 31\r\n
//	Content-Type: application/json; charset=UTF-8\r\n
//	Transac-Id: 0\r\n
//	\r\n
//	[{"name":"position","value":"42"}]\r\n\r\n
//
// Transac-Id is always the literal 0: the hub never correlates a response
// to its originating request, so responses must be consumed as an
// independent event stream.
//
// # Inbound frames
//
// Three shapes have been observed:
//
//   - Standard HTTP responses (GET results: info, config, devices data...).
//     Parsed with net/http and reduced to their body.
//   - Malformed PUT/POST acknowledgements, which interleave chunk-size-like
//     fields with body fragments. RecoverPutBody reassembles the JSON body
//     from every other CRLF-separated field.
//   - A bare "Uri-Origin: /refresh/all" line acknowledging a refresh; a
//     no-op keepalive.
//
// Anything else is classified Unknown, logged by the caller and dropped:
// unknown frames are expected during protocol drift and must never kill
// the session.
//
// Decoded bodies are further classified by content sniffing (Classify)
// into config snapshots, device data, hub info and HTML error pages.
package protocol
