// Package storage provides the key-value persistence used by both colony
// processes: the coordinator stores its lifecycle state and stat captures,
// workers store periodic shard snapshots.
//
// # Overview
//
// Two implementations satisfy the Store interface:
//
//	┌─────────────────────────────────────┐
//	│     Coordinator / Worker code       │
//	└─────────────────────────────────────┘
//	                 │
//	                 ▼
//	┌─────────────────────────────────────┐
//	│          Store interface            │
//	└─────────────────────────────────────┘
//	         │               │
//	         ▼               ▼
//	   ┌──────────┐    ┌──────────┐
//	   │  Memory  │    │   File   │
//	   │  Store   │    │  Store   │
//	   └──────────┘    └──────────┘
//
// MemoryStore keeps everything in a map and exists for tests and for
// running without a data directory. FileStore writes one file per key and
// appends a CRC32 checksum so a torn write is detected on load instead of
// resurrecting a corrupt shard snapshot.
//
// Values are opaque bytes; callers encode with gob. All implementations
// are safe for concurrent use.
package storage
