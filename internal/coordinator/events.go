package coordinator

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dreamware/colony/internal/cluster"
	"github.com/dreamware/colony/internal/colony"
	"github.com/dreamware/colony/internal/metrics"
)

// EventFrequency is one of the generator's three cadence bands.
type EventFrequency uint8

const (
	FrequencyNormal EventFrequency = iota
	FrequencyRare
	FrequencyExtinction
)

// nextEventDelay picks how many ticks until the band fires again.
func nextEventDelay(freq EventFrequency, rng *rand.Rand) uint64 {
	switch freq {
	case FrequencyNormal:
		return uint64(5 + rng.IntN(15))
	case FrequencyRare:
		return uint64(1000 + rng.IntN(4000))
	default:
		return uint64(10000 + rng.IntN(40000))
	}
}

// randomizeEvent builds the event a band emits when it fires.
func randomizeEvent(freq EventFrequency, grid cluster.GridSpec, rng *rand.Rand) colony.Event {
	switch freq {
	case FrequencyNormal:
		return colony.Event{
			ID:     uuid.NewString(),
			Type:   colony.EventCreateCreature,
			Region: randomRegion(grid, rng),
			Creature: &colony.CreateCreatureParams{
				Color: colony.Color{
					Red:   uint8(rng.IntN(200)),
					Green: uint8(rng.IntN(200)),
					Blue:  uint8(rng.IntN(200)),
				},
				Traits: colony.Traits{
					Size:    uint8(1 + rng.IntN(29)),
					CanKill: rng.IntN(2) == 0,
					CanMove: rng.IntN(2) == 0,
				},
				StartingHealth: 250,
			},
		}
	case FrequencyRare:
		if rng.IntN(5) == 0 {
			return colony.Event{ID: uuid.NewString(), Type: colony.EventNewTopography}
		}
		delta := int8(1 + rng.IntN(4))
		if rng.IntN(2) == 0 {
			delta = -delta
		}
		return colony.Event{
			ID:        uuid.NewString(),
			Type:      colony.EventChangeExtraFoodPerTick,
			FoodDelta: delta,
		}
	default:
		return colony.Event{ID: uuid.NewString(), Type: colony.EventExtinction}
	}
}

// randomRegion centers an ellipse anywhere in the world, allowed to hang
// 100 cells past each edge so creatures appear at the rim too.
func randomRegion(grid cluster.GridSpec, rng *rand.Rand) *colony.Ellipse {
	return &colony.Ellipse{
		X:       int32(rng.IntN(int(grid.ColonyWidth())+200)) - 100,
		Y:       int32(rng.IntN(int(grid.ColonyHeight())+200)) - 100,
		RadiusX: int32(15 + rng.IntN(25)),
		RadiusY: int32(15 + rng.IntN(25)),
	}
}

const eventPollInterval = 500 * time.Millisecond

// RunEventGenerator emits world events on the three cadence bands until ctx
// is canceled. It polls colony time from the first shard and fires each
// band whose scheduled tick has passed. Safe to start before the colony is
// initialized; it idles until a topology exists.
func (c *Context) RunEventGenerator(ctx context.Context) {
	rng := rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	bands := []EventFrequency{FrequencyNormal, FrequencyRare, FrequencyExtinction}
	nextAt := make(map[EventFrequency]uint64)
	scheduled := false

	ticker := c.clk.Ticker(eventPollInterval)
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
		tick, err := c.currentTick(topo)
		if err != nil {
			c.log.Warn("colony time unavailable", zap.Error(err))
			continue
		}
		if !scheduled {
			for _, band := range bands {
				nextAt[band] = tick + nextEventDelay(band, rng)
			}
			scheduled = true
			continue
		}

		for _, band := range bands {
			if tick < nextAt[band] {
				continue
			}
			nextAt[band] = tick + nextEventDelay(band, rng)
			c.emitEvent(topo, randomizeEvent(band, topo.Grid, rng), tick)
		}
	}
}

// emitEvent logs, records, and broadcasts one generated event. The
// new-topography event is handled locally by regenerating and re-pushing
// terrain instead of being sent to workers.
func (c *Context) emitEvent(topo *cluster.Topology, event colony.Event, tick uint64) {
	c.log.Info("event generated",
		zap.Uint64("tick", tick),
		zap.String("event", event.Describe()))
	c.writeEventLog(event, tick)

	if event.Type == colony.EventNewTopography {
		if err := c.pushTopography(topo); err != nil {
			c.log.Error("topography regeneration failed", zap.Error(err))
		}
		return
	}
	c.BroadcastEvent(topo, event)
}

// BroadcastRuleChange replaces the colony's life rules everywhere: the
// coordinator's own copy and, through an event, every worker's.
func (c *Context) BroadcastRuleChange(change colony.RuleChange) bool {
	topo := c.Topology()
	if topo == nil {
		return false
	}
	c.setRules(change.NewRules)
	event := colony.Event{
		ID:    uuid.NewString(),
		Type:  colony.EventChangeColonyRules,
		Rules: &change,
	}
	if tick, err := c.currentTick(topo); err == nil {
		c.writeEventLog(event, tick)
	}
	c.BroadcastEvent(topo, event)
	return true
}

func (c *Context) countBroadcastFailure(worker cluster.HostInfo, err error) {
	metrics.EventBroadcastFailures.Inc()
	c.log.Warn("event not delivered",
		zap.String("worker", worker.Addr()),
		zap.Error(err))
}
