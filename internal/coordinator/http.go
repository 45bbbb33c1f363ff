package coordinator

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dreamware/colony/internal/cluster"
	"github.com/dreamware/colony/internal/colony"
	"github.com/dreamware/colony/internal/metrics"
)

type statusBody struct {
	Status string `json:"status"`
}

type errorBody struct {
	Error string `json:"error"`
}

// topologyBody is the GET /topology response once the colony is running.
type topologyBody struct {
	Status   string            `json:"status"`
	Topology *cluster.Topology `json:"topology"`
}

// NewHTTPHandler builds the coordinator's control surface.
func (c *Context) NewHTTPHandler(ctx context.Context) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("POST /colony-start", instrument("colony-start", c.handleColonyStart(ctx)))
	mux.Handle("GET /topology", instrument("topology", c.handleTopology))
	mux.Handle("POST /colony-rules", instrument("colony-rules", c.handleColonyRules))
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

// handleColonyStart maps the state machine's outcome onto HTTP statuses.
func (c *Context) handleColonyStart(ctx context.Context) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := r.URL.Query().Get("idempotency_key")
		switch c.ColonyStart(ctx, key) {
		case StartMissingKey:
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "idempotency_key parameter required"})
		case StartAccepted:
			writeJSON(w, http.StatusAccepted, statusBody{Status: "accepted"})
		case StartInProgress:
			writeJSON(w, http.StatusOK, statusBody{Status: "in progress"})
		case StartIdempotent:
			writeJSON(w, http.StatusOK, statusBody{Status: "already started"})
		case StartConflict:
			writeJSON(w, http.StatusConflict, errorBody{Error: "colony already started with a different key"})
		}
	}
}

// handleTopology serves the full shard-to-worker mapping once it exists.
func (c *Context) handleTopology(w http.ResponseWriter, r *http.Request) {
	status := c.Status()
	switch status {
	case StatusNotInitialized:
		writeJSON(w, http.StatusNotFound, errorBody{Error: "colony not initialized"})
	case StatusInitializing:
		writeJSON(w, http.StatusOK, statusBody{Status: "in-progress"})
	default:
		writeJSON(w, http.StatusOK, topologyBody{
			Status:   status.String(),
			Topology: c.Topology(),
		})
	}
}

// handleColonyRules broadcasts a rule change to every worker.
func (c *Context) handleColonyRules(w http.ResponseWriter, r *http.Request) {
	var change colony.RuleChange
	if err := json.NewDecoder(r.Body).Decode(&change); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid rule change body"})
		return
	}
	if !c.BroadcastRuleChange(change) {
		writeJSON(w, http.StatusConflict, errorBody{Error: "colony not initialized"})
		return
	}
	writeJSON(w, http.StatusOK, statusBody{Status: "rules updated"})
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
