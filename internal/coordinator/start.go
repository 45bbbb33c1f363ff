package coordinator

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dreamware/colony/internal/cluster"
	"github.com/dreamware/colony/internal/colony"
	"github.com/dreamware/colony/internal/rpc"
)

// StartOutcome is the synchronous decision of a colony-start request.
type StartOutcome uint8

const (
	// StartMissingKey rejects a request without an idempotency key.
	StartMissingKey StartOutcome = iota
	// StartAccepted accepted the request; initialization runs in the
	// background.
	StartAccepted
	// StartInProgress found an initialization still running; the key is
	// not consulted in this state.
	StartInProgress
	// StartIdempotent matched the key of a completed initialization.
	StartIdempotent
	// StartConflict carried a different key than the accepted one.
	StartConflict
)

// ColonyStart drives the lifecycle state machine for one request. The
// outcome is decided under the lock; on StartAccepted the initialization
// itself runs in a background goroutine bounded by ctx.
func (c *Context) ColonyStart(ctx context.Context, idempotencyKey string) StartOutcome {
	if idempotencyKey == "" {
		return StartMissingKey
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.status {
	case StatusNotInitialized:
		c.status = StatusInitializing
		c.idempotencyKey = idempotencyKey
		c.instanceID = uuid.NewString()
		c.log.Info("colony start accepted",
			zap.String("instance_id", c.instanceID))
		go c.runStart(ctx)
		return StartAccepted

	case StatusInitializing:
		// Any keyed request during setup gets the same in-progress answer;
		// conflicts are only decided once initialization has completed.
		return StartInProgress

	default: // StatusTopographyInitialized
		if idempotencyKey == c.idempotencyKey {
			return StartIdempotent
		}
		return StartConflict
	}
}

// runStart performs the background initialization: worker discovery, shard
// assignment, topography, and the ticking command. Any failure reverts the
// status so a later request can retry; the state is only persisted on
// success.
func (c *Context) runStart(ctx context.Context) {
	topo, err := c.initializeColony(ctx)

	c.mu.Lock()
	if err != nil {
		c.log.Error("colony initialization failed", zap.Error(err))
		c.status = StatusNotInitialized
		c.idempotencyKey = ""
		c.instanceID = ""
		c.mu.Unlock()
		return
	}
	c.status = StatusTopographyInitialized
	c.topology = topo
	c.persistLocked()
	c.mu.Unlock()

	c.log.Info("colony initialized",
		zap.Int("shards", topo.ShardCount()),
		zap.Int("workers", topo.WorkerCount()))
	c.writeColonyCreatedEvent()

	c.startTicking(topo)
}

func (c *Context) initializeColony(ctx context.Context) (*cluster.Topology, error) {
	workers := c.discoverWorkers(ctx)
	if len(workers) == 0 {
		return nil, cluster.ErrNoWorkers
	}
	c.log.Info("workers discovered", zap.Int("count", len(workers)))

	topo, err := cluster.NewTopology(c.cfg.Self, workers, c.cfg.Grid)
	if err != nil {
		return nil, err
	}

	if err := c.pushShardAssignments(topo); err != nil {
		return nil, err
	}
	if err := c.pushTopography(topo); err != nil {
		return nil, err
	}
	return topo, nil
}

// discoverWorkers resolves registered workers and keeps the ones answering
// a ping.
func (c *Context) discoverWorkers(ctx context.Context) []cluster.HostInfo {
	var workers []cluster.HostInfo
	for _, addr := range c.reg.DiscoverWorkers(ctx) {
		host := addr.InternalHost()
		if _, err := c.client.Call(host.Addr(), &rpc.PingRequest{}); err != nil {
			c.log.Warn("worker unreachable, excluded from topology",
				zap.String("worker", host.Addr()),
				zap.Error(err))
			continue
		}
		workers = append(workers, host)
	}
	return workers
}

// pushShardAssignments sends one init-shard per shard to its hosting
// worker. The first message to each worker carries the topology and rules.
func (c *Context) pushShardAssignments(topo *cluster.Topology) error {
	sentTopology := make(map[cluster.HostInfo]bool)

	for _, shard := range topo.AllShards() {
		host, ok := topo.HostForShard(shard)
		if !ok {
			return fmt.Errorf("no host assigned for shard %s", shard.ID())
		}
		req := &rpc.InitShardRequest{Shard: shard, Rules: c.Rules()}
		if !sentTopology[host] {
			req.Topology = topo
		}
		resp, err := c.client.Call(host.Addr(), req)
		if err != nil {
			return fmt.Errorf("init shard %s on %s: %w", shard.ID(), host.Addr(), err)
		}
		ir, ok := resp.(*rpc.InitShardResponse)
		if !ok {
			return fmt.Errorf("init shard %s: unexpected response %T", shard.ID(), resp)
		}
		// A shard surviving a previous attempt on this worker is fine.
		if ir.Status != rpc.StatusOK && ir.Status != rpc.StatusShardAlreadyInitialized {
			return fmt.Errorf("init shard %s on %s: %s", shard.ID(), host.Addr(), ir.Status)
		}
		sentTopology[host] = true

		c.log.Info("shard assigned",
			zap.String("shard", shard.ID()),
			zap.String("worker", host.Addr()))
	}
	return nil
}

// startTicking broadcasts the ticking command to every worker. Idempotent
// on the worker side, so a retry after partial delivery is safe.
func (c *Context) startTicking(topo *cluster.Topology) {
	for _, worker := range topo.Workers {
		resp, err := c.client.Call(worker.Addr(), &rpc.StartTickingRequest{})
		if err != nil {
			c.log.Error("start ticking not delivered",
				zap.String("worker", worker.Addr()),
				zap.Error(err))
			continue
		}
		if sr, ok := resp.(*rpc.StartTickingResponse); ok && sr.Status != rpc.StatusOK {
			c.log.Error("worker refused to start ticking",
				zap.String("worker", worker.Addr()),
				zap.Stringer("status", sr.Status))
		}
	}
}

// currentTick queries the tick counter of the topology's first shard, which
// stands in for colony time in schedules and logs.
func (c *Context) currentTick(topo *cluster.Topology) (uint64, error) {
	shard := topo.AllShards()[0]
	host, ok := topo.HostForShard(shard)
	if !ok {
		return 0, fmt.Errorf("no host for shard %s", shard.ID())
	}
	resp, err := c.client.Call(host.Addr(), &rpc.GetShardTickRequest{Shard: shard})
	if err != nil {
		return 0, err
	}
	tr, ok := resp.(*rpc.GetShardTickResponse)
	if !ok {
		return 0, fmt.Errorf("unexpected response %T", resp)
	}
	if tr.Status != rpc.StatusOK {
		return 0, fmt.Errorf("get shard tick: %s", tr.Status)
	}
	return tr.Tick, nil
}

// BroadcastEvent sends one event to every worker, best effort. A worker
// missed here stays consistent through event id deduplication if the event
// is re-sent, and through border exchange convergence if it is not.
func (c *Context) BroadcastEvent(topo *cluster.Topology, event colony.Event) {
	for _, worker := range topo.Workers {
		resp, err := c.client.Call(worker.Addr(), &rpc.ApplyEventRequest{Event: event})
		if err != nil {
			c.countBroadcastFailure(worker, err)
			continue
		}
		if ar, ok := resp.(*rpc.ApplyEventResponse); ok && ar.Status != rpc.StatusOK {
			c.log.Warn("worker rejected event",
				zap.String("worker", worker.Addr()),
				zap.Stringer("status", ar.Status))
		}
	}
}
