package registry

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/dreamware/colony/internal/cluster"
)

// Registry is the pluggable service-discovery abstraction. Implementations
// must be safe for concurrent use.
type Registry interface {
	// RegisterCoordinator records the coordinator's address, overwriting
	// any prior entry.
	RegisterCoordinator(ctx context.Context, addr cluster.NodeAddress) error

	// RegisterWorker records one worker's address under its instance id,
	// overwriting any prior entry for that id.
	RegisterWorker(ctx context.Context, instanceID string, addr cluster.NodeAddress) error

	// DiscoverCoordinator returns the coordinator's address, or ok=false
	// if none is registered or the backend is unreachable.
	DiscoverCoordinator(ctx context.Context) (addr cluster.NodeAddress, ok bool)

	// DiscoverWorkers returns all registered worker addresses. An
	// unreachable backend or an empty registry yields an empty slice.
	DiscoverWorkers(ctx context.Context) []cluster.NodeAddress

	// UnregisterCoordinator removes the coordinator entry. Removing an
	// absent entry is not an error.
	UnregisterCoordinator(ctx context.Context) error

	// UnregisterWorker removes one worker entry. Removing an absent entry
	// is not an error.
	UnregisterWorker(ctx context.Context, instanceID string) error
}

// Config selects and parameterizes a backend.
type Config struct {
	// Mode is the deployment mode: "localhost" selects the file backend,
	// "cloud" the durable key-value backend.
	Mode string

	// Dir is the file backend's base directory.
	Dir string

	// RedisAddr is the key-value backend's server address.
	RedisAddr string
}

// New builds the registry for the configured deployment mode. The choice is
// made exactly once here; callers hold the interface and never branch on
// mode again.
func New(cfg Config, log *zap.Logger) (Registry, error) {
	switch cfg.Mode {
	case "localhost":
		return NewFileRegistry(cfg.Dir, log)
	case "cloud":
		return NewRedisRegistry(cfg.RedisAddr, log), nil
	default:
		return nil, fmt.Errorf("invalid deployment mode %q: must be localhost or cloud", cfg.Mode)
	}
}
