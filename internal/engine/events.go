package engine

import (
	"fmt"

	"github.com/dreamware/colony/internal/colony"
)

// ApplyEvent mutates the shard per one colony event. NewTopography never
// reaches this layer; the coordinator handles it by regenerating and
// pushing shard topographies.
func (s *ColonyShard) ApplyEvent(event *colony.Event) error {
	switch event.Type {
	case colony.EventCreateCreature:
		if event.Region == nil || event.Creature == nil {
			return fmt.Errorf("create-creature event %s missing region or creature", event.ID)
		}
		s.applyCreateCreature(event.Region, event.Creature)
	case colony.EventChangeExtraFoodPerTick:
		s.applyFoodDelta(event.FoodDelta)
	case colony.EventExtinction:
		// The 50% per-shard coin flip happens in the worker, which owns
		// the randomness of whether this shard is hit at all.
		s.applyExtinction()
	case colony.EventChangeColonyRules:
		if event.Rules == nil {
			return fmt.Errorf("rule-change event %s missing rules", event.ID)
		}
		s.Rules = event.Rules.NewRules
	case colony.EventNewTopography:
		return fmt.Errorf("new-topography event %s cannot be applied to a shard", event.ID)
	default:
		return fmt.Errorf("unknown event type %d", event.Type)
	}
	return nil
}

// applyCreateCreature stamps the creature onto every halo-grid cell inside
// the region, margin included so the next merge does not erase the edge of
// a creature spanning a border.
func (s *ColonyShard) applyCreateCreature(region *colony.Ellipse, params *colony.CreateCreatureParams) {
	width := s.gridWidth()
	height := s.gridHeight()
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			gx := s.Shard.X + int32(x) - 1
			gy := s.Shard.Y + int32(y) - 1
			if !region.Contains(gx, gy) {
				continue
			}
			c := &s.Grid[s.idx(x, y)]
			c.Color = params.Color
			c.Traits = params.Traits
			c.Health = params.StartingHealth
			c.Age = 1
		}
	}
}

// applyFoodDelta shifts every cell's extra food per tick, saturating at the
// type bounds.
func (s *ColonyShard) applyFoodDelta(delta int8) {
	for i := range s.Grid {
		c := &s.Grid[i]
		if delta >= 0 {
			c.ExtraFoodPerTick = satAddU8(c.ExtraFoodPerTick, uint8(delta))
		} else {
			c.ExtraFoodPerTick = satSubU8(c.ExtraFoodPerTick, uint8(-delta))
		}
	}
}

// applyExtinction wipes every creature, leaving terrain intact.
func (s *ColonyShard) applyExtinction() {
	for i := range s.Grid {
		c := &s.Grid[i]
		c.Color = colony.White
		c.Health = 0
		c.Age = 0
	}
}
