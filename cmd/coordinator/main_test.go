package main

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/dreamware/colony/internal/cluster"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := loadConfig(zaptest.NewLogger(t))
	require.Equal(t, "localhost", cfg.mode)
	require.Equal(t, uint16(8080), cfg.httpPort)
	require.Equal(t, cfg.privateHost, cfg.publicHost)
	require.NoError(t, cfg.grid.Validate())
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("COLONY_HTTP_PORT", "9999")
	t.Setenv("COLONY_PRIVATE_HOST", "10.0.0.5")
	t.Setenv("COLONY_WIDTH_IN_SHARDS", "4")
	t.Setenv("COLONY_SHARD_WIDTH", "100")

	cfg := loadConfig(zaptest.NewLogger(t))
	require.Equal(t, uint16(9999), cfg.httpPort)
	require.Equal(t, "10.0.0.5", cfg.privateHost)
	require.Equal(t, "10.0.0.5", cfg.publicHost)
	require.Equal(t, int32(4), cfg.grid.WidthInShards)
	require.Equal(t, int32(400), cfg.grid.ColonyWidth())
}

// failingRegistry rejects every registration, as an unreachable backend
// would.
type failingRegistry struct{}

func (failingRegistry) RegisterCoordinator(context.Context, cluster.NodeAddress) error {
	return errors.New("backend unreachable")
}

func (failingRegistry) RegisterWorker(context.Context, string, cluster.NodeAddress) error {
	return errors.New("backend unreachable")
}

func (failingRegistry) DiscoverCoordinator(context.Context) (cluster.NodeAddress, bool) {
	return cluster.NodeAddress{}, false
}

func (failingRegistry) DiscoverWorkers(context.Context) []cluster.NodeAddress { return nil }

func (failingRegistry) UnregisterCoordinator(context.Context) error { return nil }

func (failingRegistry) UnregisterWorker(context.Context, string) error { return nil }

func TestRegistrationFailureIsNotFatal(t *testing.T) {
	addr := cluster.NewNodeAddress("127.0.0.1", "127.0.0.1", 8080, 8080)
	register(context.Background(), failingRegistry{}, addr, zaptest.NewLogger(t))
}
