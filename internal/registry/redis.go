package registry

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/dreamware/colony/internal/cluster"
)

const (
	coordinatorKey  = "colony:coordinator"
	workerKeyPrefix = "colony:workers:"
)

// RedisRegistry stores registrations in a durable remote key-value store,
// for cloud deployments where nodes share no filesystem. Keys mirror the
// file backend's layout: one coordinator entry plus one entry per worker
// instance id.
type RedisRegistry struct {
	client *redis.Client
	log    *zap.Logger
}

// NewRedisRegistry connects lazily; an unreachable store surfaces on the
// first call, where the usual non-fatal registration / empty discovery
// semantics apply.
func NewRedisRegistry(addr string, log *zap.Logger) *RedisRegistry {
	return &RedisRegistry{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		log:    log,
	}
}

func (r *RedisRegistry) set(ctx context.Context, key string, addr cluster.NodeAddress) error {
	data, err := json.Marshal(addr)
	if err != nil {
		return fmt.Errorf("serialize address: %w", err)
	}
	if err := r.client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("write registry entry %s: %w", key, err)
	}
	return nil
}

// RegisterCoordinator records the coordinator entry, overwriting any prior
// registration.
func (r *RedisRegistry) RegisterCoordinator(ctx context.Context, addr cluster.NodeAddress) error {
	if err := r.set(ctx, coordinatorKey, addr); err != nil {
		return err
	}
	r.log.Info("registered coordinator",
		zap.String("internal", addr.InternalAddr()),
		zap.String("http", addr.HTTPAddr()))
	return nil
}

// RegisterWorker records one worker entry keyed by instance id.
func (r *RedisRegistry) RegisterWorker(ctx context.Context, instanceID string, addr cluster.NodeAddress) error {
	if err := r.set(ctx, workerKeyPrefix+instanceID, addr); err != nil {
		return err
	}
	r.log.Info("registered worker",
		zap.String("instance_id", instanceID),
		zap.String("internal", addr.InternalAddr()))
	return nil
}

// DiscoverCoordinator returns the coordinator entry if present.
func (r *RedisRegistry) DiscoverCoordinator(ctx context.Context) (cluster.NodeAddress, bool) {
	data, err := r.client.Get(ctx, coordinatorKey).Bytes()
	if err != nil {
		if err != redis.Nil {
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

// DiscoverWorkers scans every worker entry. Backend failures yield an empty
// result so callers retry with backoff.
func (r *RedisRegistry) DiscoverWorkers(ctx context.Context) []cluster.NodeAddress {
	var workers []cluster.NodeAddress

	iter := r.client.Scan(ctx, 0, workerKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		data, err := r.client.Get(ctx, iter.Val()).Bytes()
		if err != nil {
			if err != redis.Nil {
				r.log.Error("read worker entry", zap.String("key", iter.Val()), zap.Error(err))
			}
			continue
		}
		var addr cluster.NodeAddress
		if err := json.Unmarshal(data, &addr); err != nil {
			r.log.Error("parse worker entry", zap.String("key", iter.Val()), zap.Error(err))
			continue
		}
		workers = append(workers, addr)
	}
	if err := iter.Err(); err != nil {
		r.log.Error("scan worker entries", zap.Error(err))
	}

	r.log.Debug("discovered workers", zap.Int("count", len(workers)))
	return workers
}

// UnregisterCoordinator removes the coordinator entry; absence is fine.
func (r *RedisRegistry) UnregisterCoordinator(ctx context.Context) error {
	if err := r.client.Del(ctx, coordinatorKey).Err(); err != nil {
		return fmt.Errorf("remove coordinator entry: %w", err)
	}
	return nil
}

// UnregisterWorker removes one worker entry; absence is fine.
func (r *RedisRegistry) UnregisterWorker(ctx context.Context, instanceID string) error {
	if err := r.client.Del(ctx, workerKeyPrefix+instanceID).Err(); err != nil {
		return fmt.Errorf("remove worker entry %s: %w", instanceID, err)
	}
	return nil
}
