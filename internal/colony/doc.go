// Package colony defines the data model shared by the coordinator and the
// workers: cells, creature traits, colony life rules, shards and colony
// events.
//
// Everything in this package is a plain value type. Cells are mutated only
// by the tick engine of the worker hosting their shard; shards are immutable
// once created; rules change only through a ChangeColonyRules event. The
// types carry both JSON tags (HTTP surface, file registry) and travel as-is
// through the gob-encoded RPC envelope.
package colony
