// Package worker hosts the shards assigned to one process: it answers the
// coordinator's RPC commands, runs the tick loop, exchanges borders with
// neighbor workers, and serves the image and layer query surface over HTTP.
//
// # Lifecycle
//
// A worker starts empty. The first init-shard call carries the colony's
// topology and life rules; the worker validates that its own address is in
// the topology's worker list and caches both for the life of the process.
// Further init-shard calls add hosted shards. Ticking starts only on the
// coordinator's explicit start-ticking command and never stops.
//
// # Tick round
//
// Each round the loop:
//
//  1. drains the pending event queue and applies every event to every
//     hosted shard
//  2. ticks all hosted shards in parallel
//  3. exports each shard's border strips and delivers them, merging into
//     local neighbors directly and sending one RPC per remote neighbor host
//  4. snapshots each shard to the store every 250th tick
//
// Events arrive between rounds and are enqueued, deduplicated by event id;
// applying them only at the start of a round keeps a generation internally
// consistent.
package worker
