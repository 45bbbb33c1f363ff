// Package rpc implements the internal binary protocol between the
// coordinator and the workers, and between workers for border exchange.
//
// # Wire format
//
// A message is one frame on a TCP stream:
//
//	┌────────────────┬──────────────────────────┐
//	│ uvarint length │ gob-encoded envelope     │
//	└────────────────┴──────────────────────────┘
//
// The envelope carries one of the request or response types of this
// package. Every response is a value, never a thrown error: failures the
// receiver can diagnose come back as status codes (or an ErrorResponse for
// undecodable requests), while timeouts and connection failures surface to
// the caller as ordinary Go errors.
//
// # Connections
//
// Client calls apply a fixed timeout (default 1.5s). Idle connections are
// kept in a small LRU pool and reused as an optimization; a failed call
// drops the pooled connection and the caller decides whether to retry,
// skip, or mark the peer unavailable. Correctness never depends on
// connection reuse.
package rpc
