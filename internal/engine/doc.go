// Package engine implements the per-shard simulation: the halo grid, the
// double-buffered tick pass, border exchange merging, topography
// initialization, event application, and the derived stats and layer views.
//
// # Grid layout
//
// Each shard of width W and height H is stored as a (W+2) x (H+2) row-major
// grid. The outer 1-cell ring is the shadow margin: a read-only copy of the
// adjacent shards' edge cells, refreshed by border updates between ticks.
// Only interior cells are owned by the shard, but the tick pass walks the
// full halo grid: margin creatures act like any other, so a neighbor's edge
// creature can eat, breed, or move into this shard seamlessly. Margin tick
// bits are re-armed at the start of each pass because merged cells arrive
// stamped with the source's generation.
//
//	+---------------------+
//	| shadow margin       |
//	|  +---------------+  |
//	|  | interior      |  |
//	|  | (W x H cells) |  |
//	|  +---------------+  |
//	+---------------------+
//
// # Double buffering
//
// There is no second grid. Each cell carries a tick bit; a tick pass reads
// the current bit from the first interior cell, then processes exactly the
// cells still carrying it, flipping each to the next generation's bit as it
// is written. A creature moved or bred into a cell ahead of the scan is
// stamped with the next bit and therefore not processed twice.
//
// All methods mutate the shard in place and are not safe for concurrent
// use; the worker serializes access with a per-shard lock.
package engine
