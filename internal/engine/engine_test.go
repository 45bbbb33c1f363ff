package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dreamware/colony/internal/colony"
)

func newTestShard(t *testing.T, x, y, w, h int32) *ColonyShard {
	t.Helper()
	return NewColonyShard(colony.Shard{X: x, Y: y, Width: w, Height: h}, colony.DefaultLifeRules(), 1)
}

func TestNewColonyShardBlankGrid(t *testing.T) {
	s := newTestShard(t, 0, 0, 10, 6)
	require.Len(t, s.Grid, 12*8)
	for i := range s.Grid {
		require.True(t, s.Grid[i].Blank())
		require.Equal(t, colony.White, s.Grid[i].Color)
	}
}

func TestRandomizeAtStartSeedsInterior(t *testing.T) {
	s := newTestShard(t, 0, 0, 50, 50)
	s.RandomizeAtStart()

	stats := s.Stats()
	// 10% density over 2500 cells; allow a generous band.
	require.Greater(t, stats.CreatureCount, uint64(100))
	require.Less(t, stats.CreatureCount, uint64(500))

	// Seeding never touches the shadow margin.
	width := s.gridWidth()
	height := s.gridHeight()
	for x := 0; x < width; x++ {
		require.True(t, s.Grid[s.idx(x, 0)].Blank())
		require.True(t, s.Grid[s.idx(x, height-1)].Blank())
	}
	for y := 0; y < height; y++ {
		require.True(t, s.Grid[s.idx(0, y)].Blank())
		require.True(t, s.Grid[s.idx(width-1, y)].Blank())
	}
}

func TestTickFlipsBitExactlyOncePerPass(t *testing.T) {
	s := newTestShard(t, 0, 0, 20, 20)
	s.RandomizeAtStart()

	for pass := 0; pass < 5; pass++ {
		before := s.Grid[s.idx(1, 1)].TickBit
		s.Tick()
		// Every interior cell carries the flipped bit after the pass.
		for y := 1; y <= 20; y++ {
			for x := 1; x <= 20; x++ {
				require.Equal(t, !before, s.Grid[s.idx(x, y)].TickBit,
					"pass %d cell (%d,%d)", pass, x, y)
			}
		}
		require.Equal(t, uint64(pass+1), s.CurrentTick)
	}
}

func TestTickGrowsFood(t *testing.T) {
	s := newTestShard(t, 0, 0, 4, 4)
	for i := range s.Grid {
		s.Grid[i].ExtraFoodPerTick = 3
	}
	s.Tick()
	for y := 1; y <= 4; y++ {
		for x := 1; x <= 4; x++ {
			require.Equal(t, uint16(3), s.Grid[s.idx(x, y)].Food)
		}
	}
}

func TestCreatureStarvesWithoutFood(t *testing.T) {
	s := newTestShard(t, 0, 0, 4, 4)
	c := &s.Grid[s.idx(2, 2)]
	c.Color = colony.Color{Red: 10, Green: 20, Blue: 30}
	c.Health = 4
	c.Traits.Size = 10

	// Size 10 costs 20 health per tick with the default rules; with no
	// food anywhere the creature dies on the first pass.
	s.Tick()
	require.True(t, s.Grid[s.idx(2, 2)].Blank())
	require.Equal(t, colony.White, s.Grid[s.idx(2, 2)].Color)
}

func TestExportBorderStrips(t *testing.T) {
	s := newTestShard(t, 100, 200, 6, 4)
	// Mark interior corners so strip ordering is observable.
	s.Grid[s.idx(1, 1)].Food = 11     // top-left
	s.Grid[s.idx(6, 1)].Food = 12     // top-right
	s.Grid[s.idx(1, 4)].Food = 13     // bottom-left
	s.Grid[s.idx(6, 4)].Food = 14     // bottom-right
	s.CurrentTick = 7

	update := s.ExportBorder()
	require.Equal(t, s.Shard, update.Source)
	require.Equal(t, uint64(7), update.Tick)
	require.Len(t, update.Top, 6)
	require.Len(t, update.Bottom, 6)
	require.Len(t, update.Left, 4)
	require.Len(t, update.Right, 4)

	require.Equal(t, uint16(11), update.Top[0].Food)
	require.Equal(t, uint16(12), update.Top[5].Food)
	require.Equal(t, uint16(13), update.Bottom[0].Food)
	require.Equal(t, uint16(14), update.Bottom[5].Food)
	require.Equal(t, uint16(11), update.Left[0].Food)
	require.Equal(t, uint16(13), update.Left[3].Food)
	require.Equal(t, uint16(12), update.Right[0].Food)
	require.Equal(t, uint16(14), update.Right[3].Food)
}

func TestMergeBorderIntoHalo(t *testing.T) {
	left := newTestShard(t, 0, 0, 4, 4)
	right := newTestShard(t, 4, 0, 4, 4)

	// A creature on the right edge of the left shard.
	c := &left.Grid[left.idx(4, 2)]
	c.Color = colony.Color{Red: 1, Green: 2, Blue: 3}
	c.Health = 50
	left.CurrentTick = 1

	update := left.ExportBorder()
	require.True(t, right.MergeBorder(&update))

	// It lands in the right shard's left margin at the same world row.
	got := right.Grid[right.idx(0, 2)]
	require.Equal(t, uint16(50), got.Health)
	require.Equal(t, colony.Color{Red: 1, Green: 2, Blue: 3}, got.Color)

	// Interior cells are never written by a merge.
	for y := 1; y <= 4; y++ {
		for x := 1; x <= 4; x++ {
			require.True(t, right.Grid[right.idx(x, y)].Blank())
		}
	}
}

func TestMergeBorderIdempotent(t *testing.T) {
	left := newTestShard(t, 0, 0, 4, 4)
	right := newTestShard(t, 4, 0, 4, 4)
	left.Grid[left.idx(4, 1)].Health = 9
	left.Grid[left.idx(4, 1)].Color = colony.Color{Red: 8, Green: 8, Blue: 8}
	left.CurrentTick = 3

	update := left.ExportBorder()
	require.True(t, right.MergeBorder(&update))
	snapshot := make([]colony.Cell, len(right.Grid))
	copy(snapshot, right.Grid)

	require.True(t, right.MergeBorder(&update))
	require.Equal(t, snapshot, right.Grid)
}

func TestMergeBorderDiscardsStale(t *testing.T) {
	left := newTestShard(t, 0, 0, 4, 4)
	right := newTestShard(t, 4, 0, 4, 4)

	left.Grid[left.idx(4, 1)].Health = 9
	left.CurrentTick = 5
	newer := left.ExportBorder()

	left.Grid[left.idx(4, 1)].Health = 1
	left.CurrentTick = 4
	older := left.ExportBorder()

	require.True(t, right.MergeBorder(&newer))
	require.False(t, right.MergeBorder(&older))
	require.Equal(t, uint16(9), right.Grid[right.idx(0, 1)].Health)
}

func TestApplyTopographyBordersAndGradient(t *testing.T) {
	s := newTestShard(t, 0, 0, 8, 8)
	topo := &colony.ShardTopography{
		DefaultValue: 10,
		TopBorder:    filled(8, 100),
		BottomBorder: filled(8, 0),
		LeftBorder:   filled(8, 50),
		RightBorder:  filled(8, 50),
	}
	s.ApplyTopography(topo)

	// Border strips land on the interior edges.
	require.Equal(t, uint16(100), s.Grid[s.idx(3, 1)].Food)
	require.Equal(t, uint16(0), s.Grid[s.idx(3, 8)].Food)
	require.Equal(t, uint16(50), s.Grid[s.idx(1, 4)].Food)

	// Interior grades from top to bottom.
	nearTop := s.Grid[s.idx(4, 2)].Food
	nearBottom := s.Grid[s.idx(4, 7)].Food
	require.Greater(t, nearTop, nearBottom)
}

func TestApplyTopographyPoints(t *testing.T) {
	s := newTestShard(t, 0, 0, 8, 8)
	topo := &colony.ShardTopography{
		DefaultValue: 5,
		Points:       []colony.TopographyPoint{{X: 3, Y: 3, Value: 200}},
	}
	s.ApplyTopography(topo)
	// Cells outside the gradient zone keep the default.
	require.Equal(t, uint8(5), s.Grid[s.idx(1, 1)].ExtraFoodPerTick)
	// The gradient smooths the interior back toward the border values, so
	// the seeded point only survives where the gradient does not run.
	require.Equal(t, uint16(5), s.Grid[s.idx(4, 4)].Food)
}

func TestApplyEventCreateCreature(t *testing.T) {
	s := newTestShard(t, 0, 0, 10, 10)
	event := &colony.Event{
		ID:   "e1",
		Type: colony.EventCreateCreature,
		Region: &colony.Ellipse{X: 5, Y: 5, RadiusX: 2, RadiusY: 2},
		Creature: &colony.CreateCreatureParams{
			Color:          colony.Color{Red: 200, Green: 0, Blue: 0},
			Traits:         colony.Traits{Size: 12, CanKill: true},
			StartingHealth: 77,
		},
	}
	require.NoError(t, s.ApplyEvent(event))

	center := s.Grid[s.idx(6, 6)] // world (5,5)
	require.Equal(t, uint16(77), center.Health)
	require.Equal(t, uint16(1), center.Age)
	require.True(t, center.Traits.CanKill)

	// Outside the ellipse stays blank.
	require.True(t, s.Grid[s.idx(1, 1)].Blank())
}

func TestApplyEventFoodDeltaSaturates(t *testing.T) {
	s := newTestShard(t, 0, 0, 2, 2)
	require.NoError(t, s.ApplyEvent(&colony.Event{Type: colony.EventChangeExtraFoodPerTick, FoodDelta: 10}))
	require.Equal(t, uint8(10), s.Grid[s.idx(1, 1)].ExtraFoodPerTick)
	require.NoError(t, s.ApplyEvent(&colony.Event{Type: colony.EventChangeExtraFoodPerTick, FoodDelta: -30}))
	require.Equal(t, uint8(0), s.Grid[s.idx(1, 1)].ExtraFoodPerTick)
}

func TestApplyEventExtinctionClearsCreaturesKeepsTerrain(t *testing.T) {
	s := newTestShard(t, 0, 0, 4, 4)
	c := &s.Grid[s.idx(2, 2)]
	c.Health = 30
	c.Food = 17
	c.Age = 4

	require.NoError(t, s.ApplyEvent(&colony.Event{Type: colony.EventExtinction}))
	got := s.Grid[s.idx(2, 2)]
	require.True(t, got.Blank())
	require.Equal(t, uint16(17), got.Food)
	require.Equal(t, uint16(0), got.Age)
}

func TestApplyEventRuleChange(t *testing.T) {
	s := newTestShard(t, 0, 0, 2, 2)
	newRules := colony.LifeRules{HealthCostPerSizeUnit: 9, EatCapacityPerSizeUnit: 9, MutationChance: 9}
	require.NoError(t, s.ApplyEvent(&colony.Event{
		Type:  colony.EventChangeColonyRules,
		Rules: &colony.RuleChange{NewRules: newRules, Description: "test"},
	}))
	require.Equal(t, newRules, s.Rules)
}

func TestStatsAndLayers(t *testing.T) {
	s := newTestShard(t, 0, 0, 4, 4)
	c := &s.Grid[s.idx(2, 3)]
	c.Health = 40
	c.Food = 6
	c.Traits = colony.Traits{Size: 7, CanMove: true}

	stats := s.Stats()
	require.Equal(t, uint64(1), stats.CreatureCount)
	require.Equal(t, uint64(40), stats.TotalHealth)
	require.Equal(t, uint64(6), stats.TotalFood)
	require.Equal(t, uint64(1), stats.SizeHistogram[7])
	require.Equal(t, uint64(1), stats.CanMoveCount)
	require.Equal(t, uint64(0), stats.CanKillCount)

	health := s.LayerValues(colony.LayerHealth)
	require.Len(t, health, 16)
	require.Equal(t, int32(40), health[2*4+1]) // row 2, col 1, row-major

	img := s.Image()
	require.Len(t, img, 16*3)
}

func filled(n int, v uint8) []uint8 {
	b := make([]uint8, n)
	for i := range b {
		b[i] = v
	}
	return b
}
