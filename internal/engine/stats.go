package engine

import (
	"github.com/dreamware/colony/internal/colony"
)

// Stats summarizes the shard's interior cells.
func (s *ColonyShard) Stats() colony.ShardStats {
	stats := colony.ShardStats{
		Tick:          s.CurrentTick,
		SizeHistogram: make(map[uint8]uint64),
	}
	for y := 1; y <= int(s.Shard.Height); y++ {
		for x := 1; x <= int(s.Shard.Width); x++ {
			c := &s.Grid[s.idx(x, y)]
			stats.TotalFood += uint64(c.Food)
			if c.Blank() {
				continue
			}
			stats.CreatureCount++
			stats.TotalHealth += uint64(c.Health)
			stats.SizeHistogram[c.Traits.Size]++
			if c.Traits.CanKill {
				stats.CanKillCount++
			}
			if c.Traits.CanMove {
				stats.CanMoveCount++
			}
		}
	}
	return stats
}

// Image renders the interior as packed RGB bytes, row-major, 3 bytes per
// cell. Blank cells show white.
func (s *ColonyShard) Image() []byte {
	w := int(s.Shard.Width)
	h := int(s.Shard.Height)
	out := make([]byte, 0, w*h*3)
	for y := 1; y <= h; y++ {
		for x := 1; x <= w; x++ {
			c := &s.Grid[s.idx(x, y)]
			out = append(out, c.Color.Red, c.Color.Green, c.Color.Blue)
		}
	}
	return out
}

// LayerValues extracts one scalar layer over the interior, row-major.
func (s *ColonyShard) LayerValues(layer colony.Layer) []int32 {
	w := int(s.Shard.Width)
	h := int(s.Shard.Height)
	out := make([]int32, 0, w*h)
	for y := 1; y <= h; y++ {
		for x := 1; x <= w; x++ {
			out = append(out, layer.Value(&s.Grid[s.idx(x, y)], s.Rules))
		}
	}
	return out
}
