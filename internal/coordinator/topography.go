package coordinator

import (
	"fmt"
	"math/rand/v2"

	"go.uber.org/zap"

	"github.com/dreamware/colony/internal/cluster"
	"github.com/dreamware/colony/internal/colony"
	"github.com/dreamware/colony/internal/rpc"
)

const (
	topographyDefaultValue  = 5
	topographyPointsPer     = 10
	topographyPointMinValue = 20
	topographyPointMaxValue = 120
)

// generateGlobalTopography produces one ShardTopography per shard such that
// terrain is continuous across the whole world: every border line between
// two adjacent shards is generated once and handed to both sides.
func generateGlobalTopography(grid cluster.GridSpec, rng *rand.Rand) map[string]colony.ShardTopography {
	cols := int(grid.WidthInShards)
	rows := int(grid.HeightInShards)
	w := int(grid.ShardWidth)
	h := int(grid.ShardHeight)

	// Horizontal border lines: rows+1 of them, one per shard-row boundary,
	// each spanning every shard column. Vertical lines likewise.
	hLines := make([][][]uint8, rows+1)
	for b := range hLines {
		hLines[b] = make([][]uint8, cols)
		for x := range hLines[b] {
			hLines[b][x] = generateBorder(w, topographyDefaultValue, rng)
		}
	}
	vLines := make([][][]uint8, cols+1)
	for b := range vLines {
		vLines[b] = make([][]uint8, rows)
		for y := range vLines[b] {
			vLines[b][y] = generateBorder(h, topographyDefaultValue, rng)
		}
	}

	out := make(map[string]colony.ShardTopography, cols*rows)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			shard := colony.Shard{
				X:      int32(x) * grid.ShardWidth,
				Y:      int32(y) * grid.ShardHeight,
				Width:  grid.ShardWidth,
				Height: grid.ShardHeight,
			}
			out[shard.ID()] = colony.ShardTopography{
				DefaultValue: topographyDefaultValue,
				TopBorder:    hLines[y][x],
				BottomBorder: hLines[y+1][x],
				LeftBorder:   vLines[x][y],
				RightBorder:  vLines[x+1][y],
				Points:       generatePoints(w, h, rng),
			}
		}
	}
	return out
}

// generateBorder walks a random elevation line: each cell steps -1, 0, or
// +1 from its predecessor.
func generateBorder(length int, defaultValue uint8, rng *rand.Rand) []uint8 {
	border := make([]uint8, length)
	if length == 0 {
		return border
	}
	border[0] = defaultValue
	for i := 1; i < length; i++ {
		v := int(border[i-1]) + rng.IntN(3) - 1
		if v < 0 {
			v = 0
		}
		if v > 255 {
			v = 255
		}
		border[i] = uint8(v)
	}
	return border
}

// generatePoints seeds a few rich spots in the shard interior, off the
// border rows.
func generatePoints(w, h int, rng *rand.Rand) []colony.TopographyPoint {
	if w <= 2 || h <= 2 {
		return nil
	}
	points := make([]colony.TopographyPoint, 0, topographyPointsPer)
	for i := 0; i < topographyPointsPer; i++ {
		points = append(points, colony.TopographyPoint{
			X:     uint16(1 + rng.IntN(w-2)),
			Y:     uint16(1 + rng.IntN(h-2)),
			Value: uint8(topographyPointMinValue + rng.IntN(topographyPointMaxValue-topographyPointMinValue+1)),
		})
	}
	return points
}

// pushTopography generates the global terrain and delivers each shard's
// piece to its hosting worker.
func (c *Context) pushTopography(topo *cluster.Topology) error {
	rng := rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	pieces := generateGlobalTopography(topo.Grid, rng)

	for _, shard := range topo.AllShards() {
		piece, ok := pieces[shard.ID()]
		if !ok {
			return fmt.Errorf("no topography generated for shard %s", shard.ID())
		}
		host, _ := topo.HostForShard(shard)
		resp, err := c.client.Call(host.Addr(), &rpc.InitShardTopographyRequest{
			Shard:      shard,
			Topography: piece,
		})
		if err != nil {
			return fmt.Errorf("push topography for %s: %w", shard.ID(), err)
		}
		tr, ok := resp.(*rpc.InitShardTopographyResponse)
		if !ok {
			return fmt.Errorf("push topography for %s: unexpected response %T", shard.ID(), resp)
		}
		if tr.Status != rpc.StatusOK {
			return fmt.Errorf("push topography for %s: %s", shard.ID(), tr.Status)
		}
	}
	c.log.Info("global topography pushed", zap.Int("shards", len(pieces)))
	return nil
}
