package colony

import "fmt"

// EventType tags the variant carried by an Event.
type EventType uint8

const (
	EventCreateCreature EventType = iota
	EventChangeExtraFoodPerTick
	EventExtinction
	EventNewTopography
	EventChangeColonyRules
)

// String returns the event type name used in logs.
func (t EventType) String() string {
	switch t {
	case EventCreateCreature:
		return "CreateCreature"
	case EventChangeExtraFoodPerTick:
		return "ChangeExtraFoodPerTick"
	case EventExtinction:
		return "Extinction"
	case EventNewTopography:
		return "NewTopography"
	case EventChangeColonyRules:
		return "ChangeColonyRules"
	default:
		return fmt.Sprintf("EventType(%d)", uint8(t))
	}
}

// Ellipse is the region shape events are scoped to, in world coordinates.
type Ellipse struct {
	X       int32 `json:"x"`
	Y       int32 `json:"y"`
	RadiusX int32 `json:"radius_x"`
	RadiusY int32 `json:"radius_y"`
}

// Contains reports whether a world coordinate lies inside the ellipse.
// Products are computed in int64 so large radii cannot overflow.
func (e Ellipse) Contains(x, y int32) bool {
	dx := int64(x - e.X)
	dy := int64(y - e.Y)
	rx := int64(e.RadiusX)
	ry := int64(e.RadiusY)
	return dx*dx*ry*ry+dy*dy*rx*rx <= rx*rx*ry*ry
}

// OverlapsShard reports whether any interior cell of the shard can fall
// inside the ellipse. Uses the closest point of the shard rectangle to the
// ellipse center, like the region checks on the worker side.
func (e Ellipse) OverlapsShard(s Shard) bool {
	cx := clampI32(e.X, s.X, s.X+s.Width)
	cy := clampI32(e.Y, s.Y, s.Y+s.Height)
	return e.Contains(cx, cy)
}

func clampI32(v, lo, hi int32) int32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// CreateCreatureParams describes the creatures injected by a CreateCreature
// event.
type CreateCreatureParams struct {
	Color          Color  `json:"color"`
	Traits         Traits `json:"traits"`
	StartingHealth uint16 `json:"starting_health"`
}

// RuleChange carries the replacement rules of a ChangeColonyRules event.
type RuleChange struct {
	NewRules    LifeRules `json:"new_rules"`
	Description string    `json:"description"`
}

// Event is a tagged variant produced only by the coordinator and consumed
// idempotently by workers (deduplicated by ID). Only the payload fields
// matching Type are populated.
type Event struct {
	ID   string    `json:"id"`
	Type EventType `json:"type"`

	Region    *Ellipse              `json:"region,omitempty"`
	Creature  *CreateCreatureParams `json:"creature,omitempty"`
	FoodDelta int8                  `json:"food_delta,omitempty"`
	Rules     *RuleChange           `json:"rules,omitempty"`
}

// Describe renders the event for the coordinator's event log.
func (e Event) Describe() string {
	switch e.Type {
	case EventCreateCreature:
		if e.Region != nil && e.Creature != nil {
			return fmt.Sprintf("%s color=%v traits=%+v health=%d at (%d,%d) radius (%d,%d)",
				e.Type, e.Creature.Color, e.Creature.Traits, e.Creature.StartingHealth,
				e.Region.X, e.Region.Y, e.Region.RadiusX, e.Region.RadiusY)
		}
	case EventChangeExtraFoodPerTick:
		return fmt.Sprintf("%s by %d", e.Type, e.FoodDelta)
	case EventChangeColonyRules:
		if e.Rules != nil {
			return fmt.Sprintf("%s: %s", e.Type, e.Rules.Description)
		}
	}
	return e.Type.String()
}
