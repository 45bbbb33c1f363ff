package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dreamware/colony/internal/cluster"
)

func newTestFileRegistry(t *testing.T) *FileRegistry {
	t.Helper()
	r, err := NewFileRegistry(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	return r
}

func TestFileRegistryCoordinatorRoundTrip(t *testing.T) {
	r := newTestFileRegistry(t)
	ctx := context.Background()

	_, ok := r.DiscoverCoordinator(ctx)
	require.False(t, ok, "empty registry should discover nothing")

	addr := cluster.NewNodeAddress("10.0.0.1", "54.1.2.3", 8082, 8084)
	require.NoError(t, r.RegisterCoordinator(ctx, addr))

	got, ok := r.DiscoverCoordinator(ctx)
	require.True(t, ok)
	require.Equal(t, addr, got)

	require.NoError(t, r.UnregisterCoordinator(ctx))
	_, ok = r.DiscoverCoordinator(ctx)
	require.False(t, ok)

	// Unregistering again is not an error.
	require.NoError(t, r.UnregisterCoordinator(ctx))
}

func TestFileRegistryWorkers(t *testing.T) {
	r := newTestFileRegistry(t)
	ctx := context.Background()

	require.Empty(t, r.DiscoverWorkers(ctx))

	a := cluster.NewNodeAddress("127.0.0.1", "127.0.0.1", 9000, 9100)
	b := cluster.NewNodeAddress("127.0.0.1", "127.0.0.1", 9001, 9101)
	require.NoError(t, r.RegisterWorker(ctx, "worker_9000", a))
	require.NoError(t, r.RegisterWorker(ctx, "worker_9001", b))

	workers := r.DiscoverWorkers(ctx)
	require.Len(t, workers, 2)
	require.ElementsMatch(t, []cluster.NodeAddress{a, b}, workers)

	// Re-registering the same instance id overwrites, not duplicates.
	a2 := cluster.NewNodeAddress("127.0.0.1", "127.0.0.1", 9000, 9200)
	require.NoError(t, r.RegisterWorker(ctx, "worker_9000", a2))
	workers = r.DiscoverWorkers(ctx)
	require.Len(t, workers, 2)
	require.Contains(t, workers, a2)
	require.NotContains(t, workers, a)

	require.NoError(t, r.UnregisterWorker(ctx, "worker_9000"))
	require.Len(t, r.DiscoverWorkers(ctx), 1)
}

func TestRegistryFactory(t *testing.T) {
	log := zap.NewNop()

	r, err := New(Config{Mode: "localhost", Dir: t.TempDir()}, log)
	require.NoError(t, err)
	require.IsType(t, &FileRegistry{}, r)

	r, err = New(Config{Mode: "cloud", RedisAddr: "127.0.0.1:6379"}, log)
	require.NoError(t, err)
	require.IsType(t, &RedisRegistry{}, r)

	_, err = New(Config{Mode: "hybrid"}, log)
	require.Error(t, err)
}
