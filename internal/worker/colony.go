package worker

import (
	"math/rand/v2"
	"sync"

	"github.com/benbjohnson/clock"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/dreamware/colony/internal/cluster"
	"github.com/dreamware/colony/internal/colony"
	"github.com/dreamware/colony/internal/engine"
	"github.com/dreamware/colony/internal/rpc"
	"github.com/dreamware/colony/internal/storage"
)

// seenEventCap bounds the remembered event ids used for deduplication. The
// coordinator emits events at most every few ticks, so this covers hours.
const seenEventCap = 4096

// hostedShard pairs one shard's simulation state with the lock that
// serializes tick, merge, event, and query access to it.
type hostedShard struct {
	mu sync.Mutex
	cs *engine.ColonyShard
}

// Colony is the full state of one worker process.
type Colony struct {
	log    *zap.Logger
	self   cluster.HostInfo
	client *rpc.Client
	clk    clock.Clock
	store  storage.Store

	mu       sync.RWMutex
	topology *cluster.Topology
	rules    colony.LifeRules
	shards   map[string]*hostedShard

	eventsMu sync.Mutex
	pending  []colony.Event
	seen     *lru.Cache[string, struct{}]

	startTicking sync.Once
}

// NewColony returns an empty worker colony. self must be the internal
// address this worker registered with; the first init-shard call validates
// it against the topology.
func NewColony(self cluster.HostInfo, store storage.Store, clk clock.Clock, log *zap.Logger) *Colony {
	seen, _ := lru.New[string, struct{}](seenEventCap)
	return &Colony{
		log:    log,
		self:   self,
		client: rpc.NewClient(log),
		clk:    clk,
		store:  store,
		shards: make(map[string]*hostedShard),
		seen:   seen,
	}
}

// InitShard handles the coordinator's shard assignment.
func (c *Colony) InitShard(req *rpc.InitShardRequest) rpc.Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.topology == nil {
		if req.Topology == nil {
			return rpc.StatusTopologyNotInitialized
		}
		if !req.Topology.ContainsWorker(c.self) {
			// A worker that is not in the topology it was handed is
			// misconfigured beyond recovery.
			c.log.Fatal("own address missing from topology worker list",
				zap.String("self", c.self.Addr()),
				zap.Int("workers", req.Topology.WorkerCount()))
		}
		c.topology = req.Topology
		c.rules = req.Rules
		c.log.Info("topology received",
			zap.Int("shards", req.Topology.ShardCount()),
			zap.Int("workers", req.Topology.WorkerCount()))
	}

	if !c.topology.HasShard(req.Shard) {
		return rpc.StatusInvalidShard
	}
	id := req.Shard.ID()
	if _, exists := c.shards[id]; exists {
		return rpc.StatusShardAlreadyInitialized
	}

	cs := engine.NewColonyShard(req.Shard, c.rules, rand.Uint64())
	cs.RandomizeAtStart()
	c.shards[id] = &hostedShard{cs: cs}
	c.log.Info("shard initialized", zap.String("shard", id))
	return rpc.StatusOK
}

// InitShardTopography applies the coordinator's generated terrain to one
// hosted shard.
func (c *Colony) InitShardTopography(shard colony.Shard, topo *colony.ShardTopography) rpc.Status {
	h, status := c.hosted(shard)
	if status != rpc.StatusOK {
		return status
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cs.ApplyTopography(topo)
	return rpc.StatusOK
}

// EnqueueEvent adds an event to the pending queue unless its id has been
// seen before. Events apply at the start of the next tick round.
func (c *Colony) EnqueueEvent(event colony.Event) rpc.Status {
	if !c.Initialized() {
		return rpc.StatusColonyNotInitialized
	}

	c.eventsMu.Lock()
	defer c.eventsMu.Unlock()
	if _, dup := c.seen.Get(event.ID); dup {
		return rpc.StatusOK
	}
	c.seen.Add(event.ID, struct{}{})
	c.pending = append(c.pending, event)
	c.log.Info("event enqueued", zap.String("event", event.Describe()))
	return rpc.StatusOK
}

// drainEvents empties the pending queue.
func (c *Colony) drainEvents() []colony.Event {
	c.eventsMu.Lock()
	defer c.eventsMu.Unlock()
	events := c.pending
	c.pending = nil
	return events
}

// Stats returns one hosted shard's statistics.
func (c *Colony) Stats(shard colony.Shard) (colony.ShardStats, rpc.Status) {
	h, status := c.hosted(shard)
	if status != rpc.StatusOK {
		return colony.ShardStats{}, status
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cs.Stats(), rpc.StatusOK
}

// Tick returns one hosted shard's tick counter.
func (c *Colony) Tick(shard colony.Shard) (uint64, rpc.Status) {
	h, status := c.hosted(shard)
	if status != rpc.StatusOK {
		return 0, status
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cs.CurrentTick, rpc.StatusOK
}

// MergeBorderUpdate merges a neighbor's border strips into every hosted
// shard adjacent to the source. Updates for unrelated shards are ignored.
func (c *Colony) MergeBorderUpdate(update *colony.BorderUpdate) rpc.Status {
	if !c.Initialized() {
		return rpc.StatusColonyNotInitialized
	}

	for _, h := range c.hostedShards() {
		h.mu.Lock()
		if h.cs.Shard.Adjacent(update.Source) {
			h.cs.MergeBorder(update)
		}
		h.mu.Unlock()
	}
	return rpc.StatusOK
}

// Initialized reports whether the topology has arrived.
func (c *Colony) Initialized() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.topology != nil
}

// Topology returns the cached topology, nil before initialization.
func (c *Colony) Topology() *cluster.Topology {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.topology
}

// Rules returns the life rules received with the topology.
func (c *Colony) Rules() colony.LifeRules {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rules
}

// hosted looks up one hosted shard by identity.
func (c *Colony) hosted(shard colony.Shard) (*hostedShard, rpc.Status) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.topology == nil {
		return nil, rpc.StatusColonyNotInitialized
	}
	h, ok := c.shards[shard.ID()]
	if !ok {
		return nil, rpc.StatusShardNotAvailable
	}
	return h, rpc.StatusOK
}

// hostedShards snapshots the hosted shard set.
func (c *Colony) hostedShards() []*hostedShard {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*hostedShard, 0, len(c.shards))
	for _, h := range c.shards {
		out = append(out, h)
	}
	return out
}

// HostedShardIDs lists the ids of the shards this worker hosts.
func (c *Colony) HostedShardIDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]string, 0, len(c.shards))
	for id := range c.shards {
		ids = append(ids, id)
	}
	return ids
}
