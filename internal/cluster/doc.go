// Package cluster provides the network identity types and the shard
// topology for one colony instance, forming the contract between the
// coordinator, the workers, and external clients of the topology query
// surface.
//
// # Overview
//
// The package models a coordinator-based cluster: one coordinator process
// orchestrates a set of worker processes, each hosting a subset of the
// world's shards. Workers are addressed by a NodeAddress carrying two
// ports, one for the internal binary RPC protocol and one for the HTTP
// control/query surface, and, in cloud deployments, distinct private
// (intra-cluster) and public (external client) hosts.
//
// # Topology
//
// A Topology is built exactly once per colony instance, during
// colony-start:
//
//	discovered workers + grid spec
//	        │
//	        ▼
//	  NewTopology ── round-robin ──► shard → worker mapping
//	        │
//	        ├── shared by handle with coordinator request handlers
//	        └── embedded in the first shard-init RPC to each worker
//
// Once built, a Topology is immutable and safe for concurrent reads
// without locking. There is no package-level topology accessor: every
// component receives its handle at construction.
package cluster
