package worker

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"net"
	"net/http/httptest"
	"testing"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/dreamware/colony/internal/cluster"
	"github.com/dreamware/colony/internal/colony"
	"github.com/dreamware/colony/internal/rpc"
	"github.com/dreamware/colony/internal/storage"
)

var testSelf = cluster.HostInfo{Hostname: "127.0.0.1", Port: 9000}

func newTestColony(t *testing.T) *Colony {
	t.Helper()
	return NewColony(testSelf, storage.NewMemoryStore(), clock.NewMock(), zaptest.NewLogger(t))
}

func testTopology(t *testing.T) *cluster.Topology {
	t.Helper()
	topo, err := cluster.NewTopology(
		cluster.HostInfo{Hostname: "127.0.0.1", Port: 8000},
		[]cluster.HostInfo{testSelf},
		cluster.GridSpec{WidthInShards: 2, HeightInShards: 2, ShardWidth: 8, ShardHeight: 8},
	)
	require.NoError(t, err)
	return topo
}

func initAllShards(t *testing.T, c *Colony, topo *cluster.Topology) {
	t.Helper()
	rules := colony.DefaultLifeRules()
	for i, shard := range topo.AllShards() {
		req := &rpc.InitShardRequest{Shard: shard, Rules: rules}
		if i == 0 {
			req.Topology = topo
		}
		require.Equal(t, rpc.StatusOK, c.InitShard(req))
	}
}

func TestInitShardRequiresTopologyFirst(t *testing.T) {
	c := newTestColony(t)
	status := c.InitShard(&rpc.InitShardRequest{
		Shard: colony.Shard{Width: 8, Height: 8},
		Rules: colony.DefaultLifeRules(),
	})
	require.Equal(t, rpc.StatusTopologyNotInitialized, status)
}

func TestInitShardAssignsOnce(t *testing.T) {
	c := newTestColony(t)
	topo := testTopology(t)
	shard := topo.AllShards()[0]

	req := &rpc.InitShardRequest{Shard: shard, Rules: colony.DefaultLifeRules(), Topology: topo}
	require.Equal(t, rpc.StatusOK, c.InitShard(req))
	require.Equal(t, rpc.StatusShardAlreadyInitialized, c.InitShard(req))

	// A shard outside the topology is rejected.
	status := c.InitShard(&rpc.InitShardRequest{
		Shard: colony.Shard{X: 999, Y: 999, Width: 8, Height: 8},
		Rules: colony.DefaultLifeRules(),
	})
	require.Equal(t, rpc.StatusInvalidShard, status)
}

func TestEnqueueEventDeduplicates(t *testing.T) {
	c := newTestColony(t)
	initAllShards(t, c, testTopology(t))

	event := colony.Event{ID: "evt-1", Type: colony.EventChangeExtraFoodPerTick, FoodDelta: 1}
	require.Equal(t, rpc.StatusOK, c.EnqueueEvent(event))
	require.Equal(t, rpc.StatusOK, c.EnqueueEvent(event))
	require.Len(t, c.drainEvents(), 1)

	// Draining does not forget the id.
	require.Equal(t, rpc.StatusOK, c.EnqueueEvent(event))
	require.Empty(t, c.drainEvents())
}

func TestTickRoundAdvancesAllShards(t *testing.T) {
	c := newTestColony(t)
	topo := testTopology(t)
	initAllShards(t, c, topo)

	c.tickRound(context.Background())
	c.tickRound(context.Background())

	for _, shard := range topo.AllShards() {
		tick, status := c.Tick(shard)
		require.Equal(t, rpc.StatusOK, status)
		require.Equal(t, uint64(2), tick)
	}
}

func TestTickRoundAppliesQueuedEvents(t *testing.T) {
	c := newTestColony(t)
	topo := testTopology(t)
	initAllShards(t, c, topo)

	newRules := colony.LifeRules{HealthCostPerSizeUnit: 1, EatCapacityPerSizeUnit: 1, MutationChance: 1000}
	require.Equal(t, rpc.StatusOK, c.EnqueueEvent(colony.Event{
		ID:    "evt-rules",
		Type:  colony.EventChangeColonyRules,
		Rules: &colony.RuleChange{NewRules: newRules, Description: "slower burn"},
	}))

	c.tickRound(context.Background())

	require.Equal(t, newRules, c.Rules())
	for _, h := range c.hostedShards() {
		require.Equal(t, newRules, h.cs.Rules)
	}
}

// freePort reserves an ephemeral port and releases it for the test server
// to bind.
func freePort(t *testing.T) uint16 {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())
	return uint16(port)
}

func TestBorderExchangeBetweenWorkers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	log := zaptest.NewLogger(t)

	left := cluster.HostInfo{Hostname: "127.0.0.1", Port: freePort(t)}
	right := cluster.HostInfo{Hostname: "127.0.0.1", Port: freePort(t)}

	c1 := NewColony(left, storage.NewMemoryStore(), clock.NewMock(), log)
	c2 := NewColony(right, storage.NewMemoryStore(), clock.NewMock(), log)

	srv := rpc.NewServer(NewHandler(c2), log)
	_, err := srv.Listen(fmt.Sprintf("127.0.0.1:%d", right.Port))
	require.NoError(t, err)
	go srv.Serve(ctx)

	// Two shards side by side, one per worker.
	topo, err := cluster.NewTopology(
		cluster.HostInfo{Hostname: "127.0.0.1", Port: 8000},
		[]cluster.HostInfo{left, right},
		cluster.GridSpec{WidthInShards: 2, HeightInShards: 1, ShardWidth: 8, ShardHeight: 8},
	)
	require.NoError(t, err)
	leftShard := colony.Shard{X: 0, Y: 0, Width: 8, Height: 8}
	rightShard := colony.Shard{X: 8, Y: 0, Width: 8, Height: 8}

	rules := colony.DefaultLifeRules()
	require.Equal(t, rpc.StatusOK, c1.InitShard(&rpc.InitShardRequest{Shard: leftShard, Rules: rules, Topology: topo}))
	require.Equal(t, rpc.StatusOK, c2.InitShard(&rpc.InitShardRequest{Shard: rightShard, Rules: rules, Topology: topo}))

	h1, status := c1.hosted(leftShard)
	require.Equal(t, rpc.StatusOK, status)
	for i := range h1.cs.Grid {
		h1.cs.Grid[i] = colony.Cell{Color: colony.White}
	}
	// Occupy the rightmost interior column; after one round these cells
	// must show up in the neighbor's halo.
	markerColor := colony.Color{Red: 9, Green: 200, Blue: 33}
	for j := 0; j < 8; j++ {
		h1.cs.Grid[(1+j)*10+8] = colony.Cell{
			Color:  markerColor,
			Health: 60000,
			Traits: colony.Traits{Size: 1},
		}
	}

	c1.tickRound(ctx)

	// The left shard's interior edge column maps onto the right shard's
	// halo column at x=0, delivered over the wire before tickRound
	// returned.
	h2, status := c2.hosted(rightShard)
	require.Equal(t, rpc.StatusOK, status)
	survivors := 0
	for j := 0; j < 8; j++ {
		got := h2.cs.Grid[(1+j)*10+0]
		require.Equal(t, h1.cs.Grid[(1+j)*10+8], got)
		if got.Color == markerColor && got.Health > 0 {
			survivors++
		}
	}
	require.NotZero(t, survivors)
}

func TestMergeBorderUpdateTargetsAdjacentShards(t *testing.T) {
	c := newTestColony(t)
	topo := testTopology(t)
	initAllShards(t, c, topo)

	// An update from a fictitious shard left of the grid touches only the
	// first column of shards.
	source := colony.Shard{X: -8, Y: 0, Width: 8, Height: 8}
	update := colony.BorderUpdate{
		Source: source,
		Tick:   1,
		Top:    make([]colony.Cell, 8),
		Bottom: make([]colony.Cell, 8),
		Left:   make([]colony.Cell, 8),
		Right:  make([]colony.Cell, 8),
	}
	for i := range update.Right {
		update.Right[i].Health = 5
	}
	require.Equal(t, rpc.StatusOK, c.MergeBorderUpdate(&update))

	left, status := c.hosted(colony.Shard{X: 0, Y: 0, Width: 8, Height: 8})
	require.Equal(t, rpc.StatusOK, status)
	// Halo grid is 10 wide; (x=0, y=1) is the left margin at world (-1, 0).
	require.Equal(t, uint16(5), left.cs.Grid[1*10+0].Health)

	right, status := c.hosted(colony.Shard{X: 8, Y: 0, Width: 8, Height: 8})
	require.Equal(t, rpc.StatusOK, status)
	for i := range right.cs.Grid {
		require.Zero(t, right.cs.Grid[i].Health)
	}
}

func TestStartTickingIdempotent(t *testing.T) {
	c := newTestColony(t)
	require.Equal(t, rpc.StatusColonyNotInitialized, c.StartTicking(context.Background()))

	initAllShards(t, c, testTopology(t))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.Equal(t, rpc.StatusOK, c.StartTicking(ctx))
	require.Equal(t, rpc.StatusOK, c.StartTicking(ctx))
}

func TestHandlerDispatch(t *testing.T) {
	c := newTestColony(t)
	topo := testTopology(t)
	h := NewHandler(c)
	ctx := context.Background()

	resp := h.Handle(ctx, &rpc.PingRequest{})
	require.IsType(t, &rpc.PingResponse{}, resp)

	resp = h.Handle(ctx, &rpc.GetShardStatsRequest{Shard: topo.AllShards()[0]})
	require.Equal(t, rpc.StatusColonyNotInitialized, resp.(*rpc.GetShardStatsResponse).Status)

	resp = h.Handle(ctx, &rpc.InitShardRequest{
		Shard:    topo.AllShards()[0],
		Rules:    colony.DefaultLifeRules(),
		Topology: topo,
	})
	require.Equal(t, rpc.StatusOK, resp.(*rpc.InitShardResponse).Status)

	resp = h.Handle(ctx, &rpc.GetShardStatsRequest{Shard: topo.AllShards()[1]})
	require.Equal(t, rpc.StatusShardNotAvailable, resp.(*rpc.GetShardStatsResponse).Status)
}

func TestHTTPColonyInfo(t *testing.T) {
	c := newTestColony(t)
	handler := c.NewHTTPHandler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/colony-info", nil))
	require.Equal(t, 200, rec.Code)

	var info colonyInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	require.False(t, info.Initialized)
	require.Len(t, info.Layers, 8)

	initAllShards(t, c, testTopology(t))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/colony-info", nil))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	require.True(t, info.Initialized)
	require.Equal(t, int32(16), info.ColonyWidth)
	require.Len(t, info.Shards, 4)
}

func TestHTTPShardImage(t *testing.T) {
	c := newTestColony(t)
	initAllShards(t, c, testTopology(t))
	handler := c.NewHTTPHandler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/shard/0_0_8_8/image", nil))
	require.Equal(t, 200, rec.Code)
	require.Len(t, rec.Body.Bytes(), 8*8*3)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/shard/64_64_8_8/image", nil))
	require.Equal(t, 404, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/shard/bogus/image", nil))
	require.Equal(t, 400, rec.Code)
}

func TestHTTPShardLayer(t *testing.T) {
	c := newTestColony(t)
	initAllShards(t, c, testTopology(t))
	handler := c.NewHTTPHandler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/shard/0_0_8_8/layer/health", nil))
	require.Equal(t, 200, rec.Code)

	body := rec.Body.Bytes()
	require.Len(t, body, 4+8*8*4)
	require.Equal(t, uint32(64), binary.LittleEndian.Uint32(body))

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/shard/0_0_8_8/layer/nope", nil))
	require.Equal(t, 400, rec.Code)
}
