package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/dreamware/colony/internal/cluster"
)

// FileRegistry stores registrations as JSON files under a base directory:
// <dir>/coordinator.json plus <dir>/workers/<instance>.json. Intended for
// single-machine deployments where every process shares a filesystem.
type FileRegistry struct {
	dir string
	log *zap.Logger
}

// NewFileRegistry creates the directory tree if missing.
func NewFileRegistry(dir string, log *zap.Logger) (*FileRegistry, error) {
	if dir == "" {
		dir = filepath.Join("output", "registry")
	}
	if err := os.MkdirAll(filepath.Join(dir, "workers"), 0o755); err != nil {
		return nil, fmt.Errorf("create registry dir: %w", err)
	}
	return &FileRegistry{dir: dir, log: log}, nil
}

func (r *FileRegistry) coordinatorPath() string {
	return filepath.Join(r.dir, "coordinator.json")
}

func (r *FileRegistry) workerPath(instanceID string) string {
	return filepath.Join(r.dir, "workers", instanceID+".json")
}

func (r *FileRegistry) write(path string, addr cluster.NodeAddress) error {
	data, err := json.MarshalIndent(addr, "", "  ")
	if err != nil {
		return fmt.Errorf("serialize address: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write registry entry: %w", err)
	}
	return nil
}

// RegisterCoordinator records the coordinator entry, overwriting any prior
// registration.
func (r *FileRegistry) RegisterCoordinator(_ context.Context, addr cluster.NodeAddress) error {
	if err := r.write(r.coordinatorPath(), addr); err != nil {
		return err
	}
	r.log.Info("registered coordinator",
		zap.String("internal", addr.InternalAddr()),
		zap.String("http", addr.HTTPAddr()))
	return nil
}

// RegisterWorker records one worker entry keyed by instance id.
func (r *FileRegistry) RegisterWorker(_ context.Context, instanceID string, addr cluster.NodeAddress) error {
	if err := r.write(r.workerPath(instanceID), addr); err != nil {
		return err
	}
	r.log.Info("registered worker",
		zap.String("instance_id", instanceID),
		zap.String("internal", addr.InternalAddr()),
		zap.String("http", addr.HTTPAddr()))
	return nil
}

// DiscoverCoordinator reads the coordinator entry if present.
func (r *FileRegistry) DiscoverCoordinator(_ context.Context) (cluster.NodeAddress, bool) {
	data, err := os.ReadFile(r.coordinatorPath())
	if err != nil {
		if !os.IsNotExist(err) {
			r.log.Error("read coordinator entry", zap.Error(err))
		}
		return cluster.NodeAddress{}, false
	}
	var addr cluster.NodeAddress
	if err := json.Unmarshal(data, &addr); err != nil {
		r.log.Error("parse coordinator entry", zap.Error(err))
		return cluster.NodeAddress{}, false
	}
	return addr, true
}

// DiscoverWorkers reads every worker entry. Unparseable entries are skipped
// with a log line; a missing directory yields an empty result.
func (r *FileRegistry) DiscoverWorkers(_ context.Context) []cluster.NodeAddress {
	entries, err := os.ReadDir(filepath.Join(r.dir, "workers"))
	if err != nil {
		if !os.IsNotExist(err) {
			r.log.Error("read workers dir", zap.Error(err))
		}
		return nil
	}

	var workers []cluster.NodeAddress
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		path := filepath.Join(r.dir, "workers", e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			r.log.Error("read worker entry", zap.String("path", path), zap.Error(err))
			continue
		}
		var addr cluster.NodeAddress
		if err := json.Unmarshal(data, &addr); err != nil {
			r.log.Error("parse worker entry", zap.String("path", path), zap.Error(err))
			continue
		}
		workers = append(workers, addr)
	}
	r.log.Debug("discovered workers", zap.Int("count", len(workers)))
	return workers
}

// UnregisterCoordinator removes the coordinator entry; absence is fine.
func (r *FileRegistry) UnregisterCoordinator(_ context.Context) error {
	if err := os.Remove(r.coordinatorPath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove coordinator entry: %w", err)
	}
	return nil
}

// UnregisterWorker removes one worker entry; absence is fine.
func (r *FileRegistry) UnregisterWorker(_ context.Context, instanceID string) error {
	if err := os.Remove(r.workerPath(instanceID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove worker entry: %w", err)
	}
	return nil
}
