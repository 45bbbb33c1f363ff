package colony

import "fmt"

// Layer names one scalar view over a shard's cells, served row-major by the
// worker HTTP surface.
type Layer string

const (
	LayerCreatureSize Layer = "creature-size"
	LayerExtraFood    Layer = "extra-food"
	LayerCanKill      Layer = "can-kill"
	LayerCanMove      Layer = "can-move"
	LayerCostPerTurn  Layer = "cost-per-turn"
	LayerFood         Layer = "food"
	LayerHealth       Layer = "health"
	LayerAge          Layer = "age"
)

// ParseLayer validates a layer name from the HTTP path.
func ParseLayer(name string) (Layer, error) {
	switch l := Layer(name); l {
	case LayerCreatureSize, LayerExtraFood, LayerCanKill, LayerCanMove,
		LayerCostPerTurn, LayerFood, LayerHealth, LayerAge:
		return l, nil
	default:
		return "", fmt.Errorf("invalid layer name: %s", name)
	}
}

// Value extracts the layer's scalar for one cell. CostPerTurn is derived
// from the rules the same way the tick engine debits health.
func (l Layer) Value(c *Cell, rules LifeRules) int32 {
	switch l {
	case LayerCreatureSize:
		return int32(c.Traits.Size)
	case LayerExtraFood:
		return int32(c.ExtraFoodPerTick)
	case LayerCanKill:
		if c.Traits.CanKill {
			return 1
		}
		return 0
	case LayerCanMove:
		if c.Traits.CanMove {
			return 1
		}
		return 0
	case LayerCostPerTurn:
		cost := uint32(c.Traits.Size) * rules.HealthCostPerSizeUnit
		if c.Traits.CanKill {
			cost += rules.HealthCostIfCanKill
		}
		if c.Traits.CanMove {
			cost += rules.HealthCostIfCanMove
		}
		return int32(cost)
	case LayerFood:
		return int32(c.Food)
	case LayerHealth:
		return int32(c.Health)
	case LayerAge:
		return int32(c.Age)
	default:
		return 0
	}
}
