// Package coordinator implements the control plane of a colony: the
// lifecycle state machine, worker discovery and topology assignment, global
// topography generation, event generation and broadcast, and the monitors
// and stat captures that observe a running colony.
//
// # Overview
//
// Exactly one coordinator runs per colony. It owns the decisions workers
// never make for themselves: which worker hosts which shard, when the
// simulation starts, and which world-level events occur.
//
//	┌─────────────────────────────────────┐
//	│           COORDINATOR               │
//	├─────────────────────────────────────┤
//	│  ┌──────────────────────────────┐   │
//	│  │  Lifecycle state machine     │   │
//	│  │  not-initialized →           │   │
//	│  │  initializing →              │   │
//	│  │  topography-initialized      │   │
//	│  └──────────────────────────────┘   │
//	│  ┌──────────────────────────────┐   │
//	│  │  Colony start                │   │
//	│  │  - discover + ping workers   │   │
//	│  │  - assign shards round-robin │   │
//	│  │  - push topography           │   │
//	│  │  - start ticking             │   │
//	│  └──────────────────────────────┘   │
//	│  ┌──────────────────────────────┐   │
//	│  │  Event generator             │   │
//	│  │  Worker monitor              │   │
//	│  │  Stat capture                │   │
//	│  └──────────────────────────────┘   │
//	└─────────────────────────────────────┘
//
// # Colony start
//
// POST /colony-start drives the state machine. The outcome is decided
// synchronously under the state lock, then the heavy initialization runs in
// the background:
//
//	state                    same key            different key
//	not-initialized          202 (starts)        202 (starts)
//	initializing             200 in progress     200 in progress
//	topography-initialized   200 idempotent      409 conflict
//
// A missing idempotency key is always 400. If background initialization
// fails the status reverts to not-initialized so a later request can retry;
// the idempotency key is only persisted once initialization succeeds.
//
// # State persistence
//
// Status, idempotency key, instance id, grid dimensions, and the assigned
// topology survive restarts through the checksummed file store. A
// coordinator that restarts mid-initialization comes back as
// not-initialized.
package coordinator
