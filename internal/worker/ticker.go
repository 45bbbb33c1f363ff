package worker

import (
	"bytes"
	"context"
	"encoding/gob"
	"math/rand/v2"
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dreamware/colony/internal/colony"
	"github.com/dreamware/colony/internal/metrics"
	"github.com/dreamware/colony/internal/rpc"
)

const (
	tickInterval       = 25 * time.Millisecond
	snapshotEveryTicks = 250
)

// StartTicking launches the tick loop. Idempotent: repeated calls return OK
// without starting a second loop. The loop runs until ctx is canceled.
func (c *Colony) StartTicking(ctx context.Context) rpc.Status {
	if !c.Initialized() {
		return rpc.StatusColonyNotInitialized
	}
	c.startTicking.Do(func() {
		c.log.Info("ticking started")
		go c.run(ctx)
	})
	return rpc.StatusOK
}

func (c *Colony) run(ctx context.Context) {
	ticker := c.clk.Ticker(tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.tickRound(ctx)
		}
	}
}

// tickRound advances every hosted shard one generation and distributes the
// resulting border strips.
func (c *Colony) tickRound(ctx context.Context) {
	c.applyPendingEvents()

	shards := c.hostedShards()
	if len(shards) == 0 {
		return
	}

	exports := make([]colony.BorderUpdate, len(shards))
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, h := range shards {
		g.Go(func() error {
			h.mu.Lock()
			defer h.mu.Unlock()
			start := c.clk.Now()
			h.cs.Tick()
			exports[i] = h.cs.ExportBorder()
			metrics.TickLatency.Observe(c.clk.Since(start).Seconds())

			if h.cs.CurrentTick%snapshotEveryTicks == 0 {
				c.snapshotShard(h)
			}
			return nil
		})
	}
	g.Wait()

	c.deliverBorders(ctx, exports)
}

// applyPendingEvents drains the queue and applies each event to every
// hosted shard. Extinction hits each shard with 50% probability; rule
// changes also replace the worker's cached rules so later-initialized
// shards inherit them.
func (c *Colony) applyPendingEvents() {
	events := c.drainEvents()
	if len(events) == 0 {
		return
	}

	shards := c.hostedShards()
	for i := range events {
		event := &events[i]
		if event.Type == colony.EventChangeColonyRules && event.Rules != nil {
			c.mu.Lock()
			c.rules = event.Rules.NewRules
			c.mu.Unlock()
		}

		for _, h := range shards {
			h.mu.Lock()
			switch {
			case event.Type == colony.EventCreateCreature &&
				event.Region != nil && !event.Region.OverlapsShard(h.cs.Shard):
				// Region misses this shard entirely.
			case event.Type == colony.EventExtinction && rand.IntN(2) == 0:
				// This shard is spared.
			default:
				if err := h.cs.ApplyEvent(event); err != nil {
					c.log.Warn("event not applied",
						zap.String("shard", h.cs.Shard.ID()),
						zap.String("event", event.Describe()),
						zap.Error(err))
				} else if event.Type == colony.EventChangeColonyRules {
					c.snapshotShard(h)
				}
			}
			h.mu.Unlock()
		}
	}
}

// deliverBorders merges each export into adjacent local shards and sends
// one RPC per adjacent remote host. Remote delivery is best-effort; a
// missed update is superseded by the next tick's.
func (c *Colony) deliverBorders(ctx context.Context, exports []colony.BorderUpdate) {
	topo := c.Topology()
	if topo == nil {
		return
	}
	shards := c.hostedShards()

	var g errgroup.Group
	g.SetLimit(8)
	for i := range exports {
		update := &exports[i]

		for _, h := range shards {
			h.mu.Lock()
			if h.cs.Shard.Adjacent(update.Source) {
				h.cs.MergeBorder(update)
			}
			h.mu.Unlock()
		}

		adjacent := topo.AdjacentShards(update.Source)
		for _, host := range topo.HostsForShards(adjacent) {
			if host == c.self {
				continue
			}
			g.Go(func() error {
				if ctx.Err() != nil {
					return nil
				}
				_, err := c.client.Call(host.Addr(), &rpc.UpdatedShardContentsRequest{Update: *update})
				if err != nil {
					c.log.Warn("border update not delivered",
						zap.String("peer", host.Addr()),
						zap.String("shard", update.Source.ID()),
						zap.Error(err))
				}
				return nil
			})
		}
	}
	g.Wait()
}

// shardSnapshot is the gob payload persisted every 250th tick.
type shardSnapshot struct {
	Shard       colony.Shard
	Rules       colony.LifeRules
	CurrentTick uint64
	Grid        []colony.Cell
}

// snapshotShard persists the shard's full grid. Caller holds the shard
// lock.
func (c *Colony) snapshotShard(h *hostedShard) {
	if c.store == nil {
		return
	}
	snap := shardSnapshot{
		Shard:       h.cs.Shard,
		Rules:       h.cs.Rules,
		CurrentTick: h.cs.CurrentTick,
		Grid:        h.cs.Grid,
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(snap); err != nil {
		c.log.Error("snapshot encode failed", zap.String("shard", h.cs.Shard.ID()), zap.Error(err))
		return
	}
	key := "shard_" + h.cs.Shard.ID()
	if err := c.store.Put(key, buf.Bytes()); err != nil {
		c.log.Error("snapshot write failed", zap.String("shard", h.cs.Shard.ID()), zap.Error(err))
		return
	}
	c.log.Info("shard snapshot stored",
		zap.String("shard", h.cs.Shard.ID()),
		zap.Uint64("tick", h.cs.CurrentTick))
}
