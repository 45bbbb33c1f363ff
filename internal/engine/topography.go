package engine

import (
	"math"

	"github.com/dreamware/colony/internal/colony"
)

// ApplyTopography initializes the terrain of every cell from the
// coordinator's generated elevation data. Border strips land on the
// interior edges, seeded points overlay the interior, and the remaining
// interior is filled by distance-weighted interpolation of the four
// borders. Creatures are untouched.
func (s *ColonyShard) ApplyTopography(topo *colony.ShardTopography) {
	for i := range s.Grid {
		s.Grid[i].Food = uint16(topo.DefaultValue)
		s.Grid[i].ExtraFoodPerTick = topo.DefaultValue
	}

	s.applyTopographyBorders(topo)
	s.applyTopographyPoints(topo)
	s.applyTopographyGradient(topo)
}

func (s *ColonyShard) setTerrain(x, y int, v uint8) {
	c := &s.Grid[s.idx(x, y)]
	c.Food = uint16(v)
	c.ExtraFoodPerTick = v
}

func (s *ColonyShard) applyTopographyBorders(topo *colony.ShardTopography) {
	w := int(s.Shard.Width)
	h := int(s.Shard.Height)
	for x := 1; x <= w; x++ {
		if x-1 < len(topo.TopBorder) {
			s.setTerrain(x, 1, topo.TopBorder[x-1])
		}
		if x-1 < len(topo.BottomBorder) {
			s.setTerrain(x, h, topo.BottomBorder[x-1])
		}
	}
	for y := 1; y <= h; y++ {
		if y-1 < len(topo.LeftBorder) {
			s.setTerrain(1, y, topo.LeftBorder[y-1])
		}
		if y-1 < len(topo.RightBorder) {
			s.setTerrain(w, y, topo.RightBorder[y-1])
		}
	}
}

func (s *ColonyShard) applyTopographyPoints(topo *colony.ShardTopography) {
	width := s.gridWidth()
	height := s.gridHeight()
	for _, p := range topo.Points {
		x := int(p.X) + 1
		y := int(p.Y) + 1
		if x < width-1 && y < height-1 {
			s.setTerrain(x, y, p.Value)
		}
	}
}

// applyTopographyGradient fills the interior between the border strips by
// weighting each border's value with the distance to the opposite edge.
func (s *ColonyShard) applyTopographyGradient(topo *colony.ShardTopography) {
	width := s.gridWidth()
	height := s.gridHeight()

	borderVal := func(b []uint8, i int) uint8 {
		if i < len(b) {
			return b[i]
		}
		return topo.DefaultValue
	}

	for y := 2; y < height-2; y++ {
		for x := 2; x < width-2; x++ {
			distTop := y - 1
			distBottom := height - 2 - y
			distLeft := x - 1
			distRight := width - 2 - x

			topVal := borderVal(topo.TopBorder, x-1)
			bottomVal := borderVal(topo.BottomBorder, x-1)
			leftVal := borderVal(topo.LeftBorder, y-1)
			rightVal := borderVal(topo.RightBorder, y-1)

			totalDist := distTop + distBottom + distLeft + distRight
			if totalDist <= 0 {
				s.setTerrain(x, y, topo.DefaultValue)
				continue
			}
			weightedSum := float64(topVal)*float64(distBottom) +
				float64(bottomVal)*float64(distTop) +
				float64(leftVal)*float64(distRight) +
				float64(rightVal)*float64(distLeft)
			s.setTerrain(x, y, uint8(math.Round(weightedSum/float64(totalDist))))
		}
	}
}
