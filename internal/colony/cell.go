package colony

// Color is a creature's display color. White is reserved for blank cells.
type Color struct {
	Red   uint8 `json:"red"`
	Green uint8 `json:"green"`
	Blue  uint8 `json:"blue"`
}

// White marks a cell with no creature on it.
var White = Color{Red: 255, Green: 255, Blue: 255}

// Traits are the heritable properties of a creature.
type Traits struct {
	Size    uint8 `json:"size"`
	CanKill bool  `json:"can_kill"`
	CanMove bool  `json:"can_move"`
}

// Cell is one grid position inside a shard. The cell itself holds food; a
// creature occupying the cell is represented by a non-zero health plus its
// color and traits.
//
// TickBit is the double-buffer marker: within one tick pass, cells whose bit
// already equals the next generation's bit have been written this tick and
// are skipped. The bit flips exactly once per completed tick and never
// mid-tick.
type Cell struct {
	TickBit bool `json:"tick_bit"`

	// Terrain
	Food             uint16 `json:"food"`
	ExtraFoodPerTick uint8  `json:"extra_food_per_tick"`

	// Creature
	Color  Color  `json:"color"`
	Health uint16 `json:"health"`
	Age    uint16 `json:"age"`
	Traits Traits `json:"traits"`
}

// Blank reports whether no creature occupies the cell.
func (c *Cell) Blank() bool {
	return c.Health == 0
}

// SetBlank removes any creature from the cell, leaving terrain untouched.
func (c *Cell) SetBlank() {
	c.Color = White
	c.Health = 0
	c.Age = 0
	c.Traits = Traits{}
}

// LifeRules are the behavioral parameters of a colony. They are read-only
// configuration shared by reference across all shards of a worker and are
// replaced wholesale by a ChangeColonyRules event.
type LifeRules struct {
	HealthCostPerSizeUnit  uint32 `json:"health_cost_per_size_unit"`
	EatCapacityPerSizeUnit uint32 `json:"eat_capacity_per_size_unit"`
	HealthCostIfCanKill    uint32 `json:"health_cost_if_can_kill"`
	HealthCostIfCanMove    uint32 `json:"health_cost_if_can_move"`

	// MutationChance is the 1-in-N chance that a bred cell mutates.
	MutationChance uint32 `json:"mutation_chance"`
}

// DefaultLifeRules returns the rules a colony starts with.
func DefaultLifeRules() LifeRules {
	return LifeRules{
		HealthCostPerSizeUnit:  2,
		EatCapacityPerSizeUnit: 5,
		HealthCostIfCanKill:    10,
		HealthCostIfCanMove:    5,
		MutationChance:         100,
	}
}
