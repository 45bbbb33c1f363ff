package engine

import (
	"math/rand/v2"

	"github.com/dreamware/colony/internal/colony"
)

const (
	startingCreatureTemplates = 3
	startingCreatureDensity   = 0.1
	startingCreatureHealth    = 20
	startingCreatureSize      = 18
)

// ColonyShard is one hosted shard's full simulation state.
type ColonyShard struct {
	Shard colony.Shard
	Rules colony.LifeRules

	// Grid is the (Width+2) x (Height+2) halo grid, row-major.
	Grid []colony.Cell

	CurrentTick uint64

	// lastBorderTick records, per source shard id, the newest generation
	// already merged into the halo. Older updates are discarded.
	lastBorderTick map[string]uint64

	rng *rand.Rand
}

// NewColonyShard allocates a blank shard grid. The seed drives all
// randomness of this shard's simulation.
func NewColonyShard(shard colony.Shard, rules colony.LifeRules, seed uint64) *ColonyShard {
	w := int(shard.Width) + 2
	h := int(shard.Height) + 2
	grid := make([]colony.Cell, w*h)
	for i := range grid {
		grid[i].Color = colony.White
	}
	return &ColonyShard{
		Shard:          shard,
		Rules:          rules,
		Grid:           grid,
		lastBorderTick: make(map[string]uint64),
		rng:            rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// gridWidth returns the halo grid width.
func (s *ColonyShard) gridWidth() int { return int(s.Shard.Width) + 2 }

// gridHeight returns the halo grid height.
func (s *ColonyShard) gridHeight() int { return int(s.Shard.Height) + 2 }

// idx maps halo-grid coordinates to a grid index.
func (s *ColonyShard) idx(x, y int) int { return y*s.gridWidth() + x }

// interior reports whether halo-grid coordinates address an owned cell.
func (s *ColonyShard) interior(x, y int) bool {
	return x >= 1 && x <= int(s.Shard.Width) && y >= 1 && y <= int(s.Shard.Height)
}

// globalToHalo maps a world coordinate into halo-grid coordinates. ok is
// false when the coordinate falls outside the halo grid entirely.
func (s *ColonyShard) globalToHalo(gx, gy int32) (x, y int, ok bool) {
	x = int(gx-s.Shard.X) + 1
	y = int(gy-s.Shard.Y) + 1
	ok = x >= 0 && x < s.gridWidth() && y >= 0 && y < s.gridHeight()
	return
}

// RandomizeAtStart seeds the interior with creatures from a few random
// color templates, at roughly 10% density.
func (s *ColonyShard) RandomizeAtStart() {
	type template struct {
		color colony.Color
		size  uint8
	}
	templates := make([]template, startingCreatureTemplates)
	for i := range templates {
		templates[i] = template{color: randomColor(s.rng), size: startingCreatureSize}
	}

	for y := 1; y <= int(s.Shard.Height); y++ {
		for x := 1; x <= int(s.Shard.Width); x++ {
			if s.rng.Float64() >= startingCreatureDensity {
				continue
			}
			t := templates[s.rng.IntN(len(templates))]
			c := &s.Grid[s.idx(x, y)]
			c.Color = t.color
			c.Health = startingCreatureHealth
			c.Traits.Size = t.size
		}
	}
}

// randomChance reports a 1-in-outOf outcome.
func randomChance(rng *rand.Rand, outOf uint32) bool {
	if outOf == 0 {
		return false
	}
	return rng.Uint32N(outOf) == 0
}

// randomColor picks a color kept visually distinct from the blank-cell
// white by forcing one channel low when all run bright.
func randomColor(rng *rand.Rand) colony.Color {
	c := colony.Color{
		Red:   uint8(rng.IntN(256)),
		Green: uint8(rng.IntN(256)),
		Blue:  uint8(rng.IntN(256)),
	}
	if maxChannel(c) > 240 {
		switch rng.IntN(3) {
		case 0:
			c.Red = uint8(rng.IntN(180))
		case 1:
			c.Green = uint8(rng.IntN(180))
		default:
			c.Blue = uint8(rng.IntN(180))
		}
	}
	return c
}

func maxChannel(c colony.Color) uint8 {
	m := c.Red
	if c.Green > m {
		m = c.Green
	}
	if c.Blue > m {
		m = c.Blue
	}
	return m
}
