package engine

import (
	"math/rand/v2"
	"sync"

	"github.com/dreamware/colony/internal/colony"
)

const (
	// 1-in-N chances used by the tick pass.
	hesitationChance  = 5
	randomDeathChance = 5000
	killResistChance  = 10
	keepCanKillChance = 100

	neighborPermutationCount = 100
)

var neighborOffsets = [8][2]int{
	{-1, -1}, {0, -1}, {1, -1},
	{-1, 0}, {1, 0},
	{-1, 1}, {0, 1}, {1, 1},
}

var (
	neighborPermsOnce sync.Once
	neighborPerms     [][8][2]int
)

// neighborPermutations returns a fixed pool of pre-shuffled neighbor visit
// orders. Picking a random permutation per cell is much cheaper than
// shuffling per cell and removes the directional bias of a fixed order.
func neighborPermutations() [][8][2]int {
	neighborPermsOnce.Do(func() {
		rng := rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
		neighborPerms = make([][8][2]int, neighborPermutationCount)
		for i := range neighborPerms {
			perm := neighborOffsets
			rng.Shuffle(len(perm), func(a, b int) {
				perm[a], perm[b] = perm[b], perm[a]
			})
			neighborPerms[i] = perm
		}
	})
	return neighborPerms
}

// tickStats counts the actions of one tick pass, for debug logging.
type tickStats struct {
	deaths int
	moves  int
	breeds int
	kills  int
}

// Tick advances the shard one generation in place.
func (s *ColonyShard) Tick() {
	if len(s.Grid) == 0 {
		return
	}
	width := s.gridWidth()
	height := s.gridHeight()
	tickBit := s.Grid[s.idx(1, 1)].TickBit
	nextBit := !tickBit
	perms := neighborPermutations()
	var neighbors [8]int
	var stats tickStats

	s.setShadowMarginTickBits(tickBit)

	for y := 0; y < height; y++ {
		rowBase := y * width
		for x := 0; x < width; x++ {
			myCell := rowBase + x

			cell := &s.Grid[myCell]
			cell.Food = satAddU16(cell.Food, uint16(cell.ExtraFoodPerTick))

			if cell.TickBit == nextBit {
				continue
			}
			cell.TickBit = nextBit

			if cell.Blank() {
				continue
			}

			offsets := &perms[s.rng.IntN(len(perms))]
			neighborCount := collectNeighbors(x, y, width, height, offsets, myCell, &neighbors)

			s.eatFood(myCell)
			if s.Grid[myCell].Health == 0 || randomChance(s.rng, randomDeathChance) {
				s.Grid[myCell].SetBlank()
				stats.deaths++
				continue
			}

			if s.killNeighbor(myCell, neighbors[:neighborCount], nextBit) {
				stats.kills++
			} else if s.breed(myCell, neighbors[:neighborCount], nextBit) {
				stats.breeds++
			} else if s.moveToHigherFoodNeighbor(myCell, neighbors[:neighborCount], nextBit) {
				stats.moves++
			}
		}
	}

	s.CurrentTick++
}

// setShadowMarginTickBits re-arms the halo ring for this pass. Merged
// border cells carry the source shard's bit, which may already equal the
// next generation's.
func (s *ColonyShard) setShadowMarginTickBits(tickBit bool) {
	width := s.gridWidth()
	height := s.gridHeight()
	for x := 0; x < width; x++ {
		s.Grid[s.idx(x, 0)].TickBit = tickBit
		s.Grid[s.idx(x, height-1)].TickBit = tickBit
	}
	for y := 1; y < height-1; y++ {
		s.Grid[s.idx(0, y)].TickBit = tickBit
		s.Grid[s.idx(width-1, y)].TickBit = tickBit
	}
}

func collectNeighbors(x, y, width, height int, offsets *[8][2]int, myCell int, out *[8]int) int {
	count := 0
	for _, off := range offsets {
		nx := x + off[0]
		ny := y + off[1]
		if nx < 0 || nx >= width || ny < 0 || ny >= height {
			continue
		}
		n := ny*width + nx
		if n != myCell {
			out[count] = n
			count++
		}
	}
	return count
}

// eatFood converts cell food into health, bounded by the creature's eating
// capacity, then debits the per-tick living cost.
func (s *ColonyShard) eatFood(myCell int) {
	cell := &s.Grid[myCell]
	capacity := satMulU16(uint16(cell.Traits.Size), uint16(min32(s.Rules.EatCapacityPerSizeUnit, 0xffff)))
	eaten := cell.Food
	if capacity < eaten {
		eaten = capacity
	}
	cost := satMulU16(uint16(cell.Traits.Size), uint16(min32(s.Rules.HealthCostPerSizeUnit, 0xffff)))
	if cell.Traits.CanKill {
		cost = satAddU16(cost, uint16(min32(s.Rules.HealthCostIfCanKill, 0xffff)))
	}
	cell.Health = satSubU16(satAddU16(cell.Health, eaten), cost)
	cell.Food = satSubU16(cell.Food, eaten)
}

// killNeighbor lets a killer take over a strictly smaller occupied
// neighbor, absorbing its health. Killers resist being killed 9 times in
// 10.
func (s *ColonyShard) killNeighbor(myCell int, neighbors []int, nextBit bool) bool {
	me := s.Grid[myCell]
	if !me.Traits.CanKill {
		return false
	}
	for _, n := range neighbors {
		target := &s.Grid[n]
		if me.Traits.Size <= target.Traits.Size || target.Health == 0 {
			continue
		}
		if target.Traits.CanKill && !randomChance(s.rng, killResistChance) {
			continue
		}
		target.Health = satAddU16(me.Health, target.Health)
		target.Color = me.Color
		target.Traits = me.Traits
		target.TickBit = nextBit
		s.Grid[myCell].SetBlank()
		return true
	}
	return false
}

// breed splits the creature's health with a copy placed on a blank
// neighbor, possibly mutated.
func (s *ColonyShard) breed(myCell int, neighbors []int, nextBit bool) bool {
	costPerTick := satMulU16(uint16(min32(s.Rules.HealthCostPerSizeUnit, 0xffff)), uint16(s.Grid[myCell].Traits.Size))
	if s.Grid[myCell].Health <= costPerTick {
		return false
	}

	for _, n := range neighbors {
		if !s.Grid[n].Blank() {
			continue
		}
		if randomChance(s.rng, hesitationChance) {
			return false
		}
		halfHealth := s.Grid[myCell].Health / 2

		child := &s.Grid[n]
		child.Color = s.Grid[myCell].Color
		child.Health = halfHealth
		child.Traits = s.Grid[myCell].Traits
		child.TickBit = nextBit
		if randomChance(s.rng, s.Rules.MutationChance) {
			s.mutateCell(child)
		}
		s.Grid[myCell].Health = satSubU16(s.Grid[myCell].Health, halfHealth)
		return true
	}
	return false
}

// mutateCell nudges a newborn's size, can-kill trait, and color.
func (s *ColonyShard) mutateCell(cell *colony.Cell) {
	if s.rng.IntN(2) == 0 {
		cell.Traits.Size = satAddU8(cell.Traits.Size, 1)
	} else {
		cell.Traits.Size = satSubU8(cell.Traits.Size, 1)
	}
	if !randomChance(s.rng, keepCanKillChance) {
		cell.Traits.CanKill = !cell.Traits.CanKill
	}

	const colorMutationRange = 3
	cell.Color.Red = nudgeChannel(s.rng, cell.Color.Red, colorMutationRange)
	cell.Color.Green = nudgeChannel(s.rng, cell.Color.Green, colorMutationRange)
	cell.Color.Blue = nudgeChannel(s.rng, cell.Color.Blue, colorMutationRange)
}

func nudgeChannel(rng *rand.Rand, v uint8, r int) uint8 {
	n := int(v) + rng.IntN(2*r+1) - r
	if n < 0 {
		n = 0
	}
	if n > 255 {
		n = 255
	}
	return uint8(n)
}

// moveToHigherFoodNeighbor relocates the creature onto the first blank
// neighbor with richer ground than its current cell.
func (s *ColonyShard) moveToHigherFoodNeighbor(myCell int, neighbors []int, nextBit bool) bool {
	myFood := satAddU16(s.Grid[myCell].Food, uint16(s.Grid[myCell].ExtraFoodPerTick))

	for _, n := range neighbors {
		target := &s.Grid[n]
		nFood := satAddU16(target.Food, uint16(target.ExtraFoodPerTick))
		if target.Health != 0 || nFood <= myFood {
			continue
		}
		if randomChance(s.rng, hesitationChance) {
			return false
		}
		target.Color = s.Grid[myCell].Color
		target.Health = s.Grid[myCell].Health
		target.Traits = s.Grid[myCell].Traits
		target.TickBit = nextBit
		s.Grid[myCell].SetBlank()
		return true
	}
	return false
}

func satAddU16(a, b uint16) uint16 {
	if sum := a + b; sum >= a {
		return sum
	}
	return 0xffff
}

func satSubU16(a, b uint16) uint16 {
	if a < b {
		return 0
	}
	return a - b
}

func satMulU16(a, b uint16) uint16 {
	p := uint32(a) * uint32(b)
	if p > 0xffff {
		return 0xffff
	}
	return uint16(p)
}

func satAddU8(a, b uint8) uint8 {
	if sum := a + b; sum >= a {
		return sum
	}
	return 0xff
}

func satSubU8(a, b uint8) uint8 {
	if a < b {
		return 0
	}
	return a - b
}

func min32(a uint32, b uint32) uint32 {
	if a < b {
		return a
	}
	return b
}
