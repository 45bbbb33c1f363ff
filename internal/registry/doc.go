// Package registry implements cluster service discovery: nodes register
// their network addresses under a role, and peers discover them by role.
//
// # Overview
//
// Two interchangeable backends exist, selected once at process start by the
// factory and never mixed within a deployment:
//
//   - FileRegistry, a local file tree, for single-machine deployments.
//   - RedisRegistry, a durable remote key-value store, for cloud
//     deployments.
//
// Both use the same key shape: one coordinator entry plus one entry per
// worker instance id.
//
// # Failure model
//
// Registration is idempotent (re-registering a role overwrites the prior
// entry) and registration failures are non-fatal: the caller logs them and
// the node continues running unregistered, merely undiscoverable. Discovery
// failures and empty registries return an empty result rather than an
// error, so callers can retry with backoff.
package registry
