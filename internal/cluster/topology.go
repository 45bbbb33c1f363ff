package cluster

import (
	"errors"
	"fmt"

	"github.com/dreamware/colony/internal/colony"
)

// ErrNoWorkers is returned when a topology is requested before any worker
// has been discovered.
var ErrNoWorkers = errors.New("no workers discovered")

// GridSpec fixes the shard grid of a colony: how many shards wide and tall
// the world is, and the cell dimensions of each shard.
type GridSpec struct {
	WidthInShards  int32 `json:"width_in_shards"`
	HeightInShards int32 `json:"height_in_shards"`
	ShardWidth     int32 `json:"shard_width"`
	ShardHeight    int32 `json:"shard_height"`
}

// ColonyWidth is the world width in cells.
func (g GridSpec) ColonyWidth() int32 { return g.WidthInShards * g.ShardWidth }

// ColonyHeight is the world height in cells.
func (g GridSpec) ColonyHeight() int32 { return g.HeightInShards * g.ShardHeight }

// Validate rejects degenerate grids before they reach topology assignment.
func (g GridSpec) Validate() error {
	if g.WidthInShards <= 0 || g.HeightInShards <= 0 || g.ShardWidth <= 0 || g.ShardHeight <= 0 {
		return fmt.Errorf("invalid grid spec %+v: all dimensions must be positive", g)
	}
	return nil
}

// Topology is the immutable mapping from shards to hosting workers for one
// colony instance, plus the host set itself.
//
// Fields are exported so the topology can travel through the gob RPC
// envelope and the JSON query surface, but no field may be written after
// NewTopology returns. All lookups are lock-free reads.
type Topology struct {
	Coordinator HostInfo       `json:"coordinator"`
	Workers     []HostInfo     `json:"workers"`
	Grid        GridSpec       `json:"grid"`
	Shards      []colony.Shard `json:"shards"`

	// ShardHosts maps canonical shard ids to the hosting worker.
	ShardHosts map[string]HostInfo `json:"shard_hosts"`
}

// NewTopology performs the one-time round-robin assignment of the grid's
// shards across the discovered workers. Shards are generated row-major;
// shard i is assigned to workers[i % len(workers)]. Returns ErrNoWorkers if
// the worker list is empty.
func NewTopology(coordinator HostInfo, workers []HostInfo, grid GridSpec) (*Topology, error) {
	if len(workers) == 0 {
		return nil, ErrNoWorkers
	}
	if err := grid.Validate(); err != nil {
		return nil, err
	}

	t := &Topology{
		Coordinator: coordinator,
		Workers:     append([]HostInfo(nil), workers...),
		Grid:        grid,
		Shards:      make([]colony.Shard, 0, grid.WidthInShards*grid.HeightInShards),
		ShardHosts:  make(map[string]HostInfo, grid.WidthInShards*grid.HeightInShards),
	}

	i := 0
	for y := int32(0); y < grid.HeightInShards; y++ {
		for x := int32(0); x < grid.WidthInShards; x++ {
			shard := colony.Shard{
				X:      x * grid.ShardWidth,
				Y:      y * grid.ShardHeight,
				Width:  grid.ShardWidth,
				Height: grid.ShardHeight,
			}
			t.Shards = append(t.Shards, shard)
			t.ShardHosts[shard.ID()] = workers[i%len(workers)]
			i++
		}
	}

	return t, nil
}

// HostForShard looks up the worker hosting a shard.
func (t *Topology) HostForShard(s colony.Shard) (HostInfo, bool) {
	h, ok := t.ShardHosts[s.ID()]
	return h, ok
}

// HasShard reports whether the shard belongs to this topology.
func (t *Topology) HasShard(s colony.Shard) bool {
	_, ok := t.ShardHosts[s.ID()]
	return ok
}

// AllShards returns the shards in row-major generation order. The returned
// slice is a copy.
func (t *Topology) AllShards() []colony.Shard {
	return append([]colony.Shard(nil), t.Shards...)
}

// ShardsForHost returns the shards assigned to one worker, in row-major
// order.
func (t *Topology) ShardsForHost(h HostInfo) []colony.Shard {
	var shards []colony.Shard
	for _, s := range t.Shards {
		if t.ShardHosts[s.ID()] == h {
			shards = append(shards, s)
		}
	}
	return shards
}

// AdjacentShards returns the up-to-eight shards sharing an edge or corner
// with s.
func (t *Topology) AdjacentShards(s colony.Shard) []colony.Shard {
	var adjacent []colony.Shard
	for _, other := range t.Shards {
		if s.Adjacent(other) {
			adjacent = append(adjacent, other)
		}
	}
	return adjacent
}

// HostsForShards returns the distinct workers hosting any of the given
// shards.
func (t *Topology) HostsForShards(shards []colony.Shard) []HostInfo {
	seen := make(map[HostInfo]struct{})
	var hosts []HostInfo
	for _, s := range shards {
		h, ok := t.ShardHosts[s.ID()]
		if !ok {
			continue
		}
		if _, dup := seen[h]; dup {
			continue
		}
		seen[h] = struct{}{}
		hosts = append(hosts, h)
	}
	return hosts
}

// ContainsWorker reports whether a worker address appears in the topology's
// worker list. Workers validate their own address on the first shard-init
// call; absence is fatal for that worker.
func (t *Topology) ContainsWorker(h HostInfo) bool {
	for _, w := range t.Workers {
		if w == h {
			return true
		}
	}
	return false
}

// ShardCount is the total number of shards in the world grid.
func (t *Topology) ShardCount() int { return len(t.Shards) }

// WorkerCount is the number of workers shards are spread across.
func (t *Topology) WorkerCount() int { return len(t.Workers) }
