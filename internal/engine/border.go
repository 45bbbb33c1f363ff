package engine

import (
	"github.com/dreamware/colony/internal/colony"
	"github.com/dreamware/colony/internal/metrics"
)

// ExportBorder snapshots the four interior edge strips of the current
// generation for broadcast to adjacent shards.
func (s *ColonyShard) ExportBorder() colony.BorderUpdate {
	w := int(s.Shard.Width)
	h := int(s.Shard.Height)
	update := colony.BorderUpdate{
		Source: s.Shard,
		Tick:   s.CurrentTick,
		Top:    make([]colony.Cell, w),
		Bottom: make([]colony.Cell, w),
		Left:   make([]colony.Cell, h),
		Right:  make([]colony.Cell, h),
	}
	for i := 0; i < w; i++ {
		update.Top[i] = s.Grid[s.idx(1+i, 1)]
		update.Bottom[i] = s.Grid[s.idx(1+i, h)]
	}
	for j := 0; j < h; j++ {
		update.Left[j] = s.Grid[s.idx(1, 1+j)]
		update.Right[j] = s.Grid[s.idx(w, 1+j)]
	}
	metrics.BorderExchangesSent.Inc()
	return update
}

// MergeBorder overwrites halo cells with the strips of an adjacent shard's
// border update. Strip cells carry implicit world coordinates derived from
// the source shard; only cells landing on this shard's halo ring are
// written, so a merge never touches owned interior cells.
//
// Merging is idempotent: re-applying an update for the generation already
// merged rewrites the same cells with the same values. An update older than
// one already merged from the same source is discarded.
func (s *ColonyShard) MergeBorder(update *colony.BorderUpdate) bool {
	id := update.Source.ID()
	if last, ok := s.lastBorderTick[id]; ok && update.Tick < last {
		metrics.BorderStaleDropped.Inc()
		return false
	}
	s.lastBorderTick[id] = update.Tick

	src := update.Source
	for i, cell := range update.Top {
		s.mergeCell(src.X+int32(i), src.Y, cell)
	}
	for i, cell := range update.Bottom {
		s.mergeCell(src.X+int32(i), src.Y+src.Height-1, cell)
	}
	for j, cell := range update.Left {
		s.mergeCell(src.X, src.Y+int32(j), cell)
	}
	for j, cell := range update.Right {
		s.mergeCell(src.X+src.Width-1, src.Y+int32(j), cell)
	}
	metrics.BorderMerges.Inc()
	return true
}

func (s *ColonyShard) mergeCell(gx, gy int32, cell colony.Cell) {
	x, y, ok := s.globalToHalo(gx, gy)
	if !ok || s.interior(x, y) {
		return
	}
	s.Grid[s.idx(x, y)] = cell
}
