package cluster

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dreamware/colony/internal/colony"
)

func TestNewTopologyNoWorkers(t *testing.T) {
	_, err := NewTopology(NewHostInfo("127.0.0.1", 8083), nil, GridSpec{WidthInShards: 2, HeightInShards: 2, ShardWidth: 250, ShardHeight: 250})
	require.ErrorIs(t, err, ErrNoWorkers)
}

func TestNewTopologyTotalMapping(t *testing.T) {
	tests := []struct {
		name    string
		width   int32
		height  int32
		workers int
	}{
		{"2x2 across 2 workers", 2, 2, 2},
		{"5x3 across 4 workers", 5, 3, 4},
		{"1x1 single worker", 1, 1, 1},
		{"3x3 more workers than shards", 3, 3, 16},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			workers := make([]HostInfo, tt.workers)
			for i := range workers {
				workers[i] = NewHostInfo("10.0.0.1", uint16(9000+i))
			}
			spec := GridSpec{WidthInShards: tt.width, HeightInShards: tt.height, ShardWidth: 250, ShardHeight: 250}

			topo, err := NewTopology(NewHostInfo("10.0.0.1", 8083), workers, spec)
			require.NoError(t, err)

			// The mapping is total: exactly width*height shards, each
			// assigned to exactly one of the given workers.
			require.Equal(t, int(tt.width*tt.height), topo.ShardCount())
			require.Len(t, topo.ShardHosts, int(tt.width*tt.height))
			for _, s := range topo.AllShards() {
				host, ok := topo.HostForShard(s)
				require.True(t, ok, "shard %s unassigned", s.ID())
				require.Contains(t, workers, host)
			}
		})
	}
}

func TestNewTopologyRoundRobin(t *testing.T) {
	workers := []HostInfo{
		NewHostInfo("127.0.0.1", 9000),
		NewHostInfo("127.0.0.1", 9001),
	}
	spec := GridSpec{WidthInShards: 2, HeightInShards: 2, ShardWidth: 100, ShardHeight: 100}

	topo, err := NewTopology(NewHostInfo("127.0.0.1", 8083), workers, spec)
	require.NoError(t, err)

	shards := topo.AllShards()
	require.Len(t, shards, 4)
	for i, s := range shards {
		host, _ := topo.HostForShard(s)
		require.Equal(t, workers[i%2], host, "shard %d", i)
	}

	// Even distribution: each worker hosts exactly two shards.
	for _, w := range workers {
		require.Len(t, topo.ShardsForHost(w), 2)
	}
}

func TestTopologyAdjacency(t *testing.T) {
	workers := []HostInfo{NewHostInfo("127.0.0.1", 9000)}
	spec := GridSpec{WidthInShards: 3, HeightInShards: 3, ShardWidth: 50, ShardHeight: 50}
	topo, err := NewTopology(NewHostInfo("127.0.0.1", 8083), workers, spec)
	require.NoError(t, err)

	center := colony.Shard{X: 50, Y: 50, Width: 50, Height: 50}
	corner := colony.Shard{X: 0, Y: 0, Width: 50, Height: 50}

	require.Len(t, topo.AdjacentShards(center), 8)
	require.Len(t, topo.AdjacentShards(corner), 3)

	hosts := topo.HostsForShards(topo.AdjacentShards(center))
	require.Len(t, hosts, 1)
}

func TestTopologyContainsWorker(t *testing.T) {
	workers := []HostInfo{NewHostInfo("10.0.0.5", 9000), NewHostInfo("10.0.0.6", 9000)}
	spec := GridSpec{WidthInShards: 2, HeightInShards: 1, ShardWidth: 50, ShardHeight: 50}
	topo, err := NewTopology(NewHostInfo("10.0.0.1", 8083), workers, spec)
	require.NoError(t, err)

	require.True(t, topo.ContainsWorker(NewHostInfo("10.0.0.5", 9000)))
	require.False(t, topo.ContainsWorker(NewHostInfo("10.0.0.7", 9000)))
}
