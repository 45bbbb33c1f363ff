package worker

import (
	"encoding/binary"
	"encoding/json"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dreamware/colony/internal/colony"
	"github.com/dreamware/colony/internal/metrics"
	"github.com/dreamware/colony/internal/rpc"
)

// colonyInfo is the GET /api/colony-info body.
type colonyInfo struct {
	Initialized  bool             `json:"initialized"`
	Ticking      bool             `json:"ticking"`
	ColonyWidth  int32            `json:"colony_width"`
	ColonyHeight int32            `json:"colony_height"`
	Shards       []shardInfo      `json:"shards"`
	Layers       []colony.Layer   `json:"layers"`
	Rules        colony.LifeRules `json:"rules"`
}

type shardInfo struct {
	ID   string `json:"id"`
	Tick uint64 `json:"tick"`
}

type errorBody struct {
	Error string `json:"error"`
}

// NewHTTPHandler builds the worker's query surface.
func (c *Colony) NewHTTPHandler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /api/colony-info", instrument("colony-info", c.handleColonyInfo))
	mux.Handle("GET /api/shard/{id}/image", instrument("shard-image", c.handleShardImage))
	mux.Handle("GET /api/shard/{id}/layer/{name}", instrument("shard-layer", c.handleShardLayer))
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

func instrument(endpoint string, h http.HandlerFunc) http.Handler {
	observer := metrics.HTTPLatency.WithLabelValues(endpoint)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		timer := prometheus.NewTimer(observer)
		defer timer.ObserveDuration()
		h(w, r)
	})
}

func (c *Colony) handleColonyInfo(w http.ResponseWriter, r *http.Request) {
	info := colonyInfo{
		Initialized: c.Initialized(),
		Rules:       c.Rules(),
		Layers: []colony.Layer{
			colony.LayerCreatureSize, colony.LayerExtraFood, colony.LayerCanKill,
			colony.LayerCanMove, colony.LayerCostPerTurn, colony.LayerFood,
			colony.LayerHealth, colony.LayerAge,
		},
	}
	if topo := c.Topology(); topo != nil {
		info.ColonyWidth = topo.Grid.ColonyWidth()
		info.ColonyHeight = topo.Grid.ColonyHeight()
	}
	for _, id := range c.HostedShardIDs() {
		shard, err := colony.ParseShardID(id)
		if err != nil {
			continue
		}
		tick, status := c.Tick(shard)
		if status == rpc.StatusOK {
			info.Ticking = info.Ticking || tick > 0
			info.Shards = append(info.Shards, shardInfo{ID: id, Tick: tick})
		}
	}
	writeJSON(w, http.StatusOK, info)
}

func (c *Colony) handleShardImage(w http.ResponseWriter, r *http.Request) {
	h, ok := c.hostedFromRequest(w, r)
	if !ok {
		return
	}
	h.mu.Lock()
	img := h.cs.Image()
	h.mu.Unlock()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	w.Write(img)
}

// handleShardLayer serves one scalar layer as binary: a little-endian
// uint32 value count followed by that many little-endian int32 values,
// row-major over the shard interior.
func (c *Colony) handleShardLayer(w http.ResponseWriter, r *http.Request) {
	layer, err := colony.ParseLayer(r.PathValue("name"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	h, ok := c.hostedFromRequest(w, r)
	if !ok {
		return
	}
	h.mu.Lock()
	values := h.cs.LayerValues(layer)
	h.mu.Unlock()

	buf := make([]byte, 4+4*len(values))
	binary.LittleEndian.PutUint32(buf, uint32(len(values)))
	for i, v := range values {
		binary.LittleEndian.PutUint32(buf[4+4*i:], uint32(v))
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	w.Write(buf)
}

func (c *Colony) hostedFromRequest(w http.ResponseWriter, r *http.Request) (*hostedShard, bool) {
	shard, err := colony.ParseShardID(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return nil, false
	}
	h, status := c.hosted(shard)
	switch status {
	case rpc.StatusOK:
		return h, true
	case rpc.StatusColonyNotInitialized:
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "colony not initialized"})
	default:
		writeJSON(w, http.StatusNotFound, errorBody{Error: "shard not hosted by this worker"})
	}
	return nil, false
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
