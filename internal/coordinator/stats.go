package coordinator

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/dreamware/colony/internal/cluster"
	"github.com/dreamware/colony/internal/colony"
	"github.com/dreamware/colony/internal/rpc"
)

const statCaptureInterval = 30 * time.Second

// creatureStatistics is the JSON document of one stat capture, aggregated
// across every shard of the colony.
type creatureStatistics struct {
	ColonyInstanceID string           `json:"colony_instance_id"`
	Tick             uint64           `json:"tick"`
	Histograms       statHistograms   `json:"histograms"`
	Rules            colony.LifeRules `json:"rules"`
	Meta             statMetadata     `json:"meta"`
}

type statHistograms struct {
	CreatureSize map[string]uint64 `json:"creature_size"`
	CanKill      map[string]uint64 `json:"can_kill"`
	CanMove      map[string]uint64 `json:"can_move"`
}

type statMetadata struct {
	CreatedAtUTC string `json:"created_at_utc"`
	ColonyWidth  int32  `json:"colony_width"`
	ColonyHeight int32  `json:"colony_height"`
}

// RunStatCapture aggregates shard statistics periodically and writes one
// JSON document per capture under <output>/<instance>/stats_shots/. Idles
// until the colony is initialized; disabled without an output directory.
func (c *Context) RunStatCapture(ctx context.Context) {
	if c.cfg.OutputDir == "" {
		return
	}
	ticker := c.clk.Ticker(statCaptureInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		topo := c.Topology()
		if topo == nil {
			continue
		}
		stats, err := c.collectStatistics(topo)
		if err != nil {
			c.log.Warn("stat capture failed", zap.Error(err))
			continue
		}
		c.writeStatCapture(stats)
	}
}

// collectStatistics queries every shard and merges the histograms.
func (c *Context) collectStatistics(topo *cluster.Topology) (*creatureStatistics, error) {
	stats := &creatureStatistics{
		ColonyInstanceID: c.InstanceID(),
		Rules:            c.Rules(),
		Histograms: statHistograms{
			CreatureSize: make(map[string]uint64),
			CanKill:      make(map[string]uint64),
			CanMove:      make(map[string]uint64),
		},
		Meta: statMetadata{
			CreatedAtUTC: c.clk.Now().UTC().Format(time.RFC3339),
			ColonyWidth:  topo.Grid.ColonyWidth(),
			ColonyHeight: topo.Grid.ColonyHeight(),
		},
	}

	for _, shard := range topo.AllShards() {
		host, ok := topo.HostForShard(shard)
		if !ok {
			continue
		}
		resp, err := c.client.Call(host.Addr(), &rpc.GetShardStatsRequest{Shard: shard})
		if err != nil {
			return nil, fmt.Errorf("stats for shard %s: %w", shard.ID(), err)
		}
		sr, ok := resp.(*rpc.GetShardStatsResponse)
		if !ok || sr.Status != rpc.StatusOK {
			return nil, fmt.Errorf("stats for shard %s unavailable", shard.ID())
		}

		if sr.Stats.Tick > stats.Tick {
			stats.Tick = sr.Stats.Tick
		}
		for size, count := range sr.Stats.SizeHistogram {
			stats.Histograms.CreatureSize[fmt.Sprintf("%d", size)] += count
		}
		stats.Histograms.CanKill["true"] += sr.Stats.CanKillCount
		stats.Histograms.CanKill["false"] += sr.Stats.CreatureCount - sr.Stats.CanKillCount
		stats.Histograms.CanMove["true"] += sr.Stats.CanMoveCount
		stats.Histograms.CanMove["false"] += sr.Stats.CreatureCount - sr.Stats.CanMoveCount
	}
	return stats, nil
}

func (c *Context) writeStatCapture(stats *creatureStatistics) {
	if stats.ColonyInstanceID == "" {
		return
	}
	dir := filepath.Join(c.cfg.OutputDir, stats.ColonyInstanceID, "stats_shots")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		c.log.Warn("stats directory not created", zap.Error(err))
		return
	}
	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		c.log.Warn("stats not encoded", zap.Error(err))
		return
	}
	name := c.clk.Now().UTC().Format("20060102T150405Z") + ".json"
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		c.log.Warn("stats not written", zap.String("path", path), zap.Error(err))
		return
	}
	c.log.Info("stat capture written", zap.String("path", path), zap.Uint64("tick", stats.Tick))
}
