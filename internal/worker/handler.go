package worker

import (
	"context"
	"fmt"

	"github.com/dreamware/colony/internal/rpc"
)

// Handler adapts a Colony to the RPC server's dispatch interface.
type Handler struct {
	colony *Colony
}

// NewHandler wraps a colony for RPC dispatch.
func NewHandler(c *Colony) *Handler {
	return &Handler{colony: c}
}

// Handle processes one request. Ticking started here inherits the server
// context, so shutdown stops the tick loop.
func (h *Handler) Handle(ctx context.Context, req rpc.Request) rpc.Response {
	switch r := req.(type) {
	case *rpc.PingRequest:
		return &rpc.PingResponse{}

	case *rpc.InitShardRequest:
		return &rpc.InitShardResponse{Status: h.colony.InitShard(r)}

	case *rpc.InitShardTopographyRequest:
		return &rpc.InitShardTopographyResponse{
			Status: h.colony.InitShardTopography(r.Shard, &r.Topography),
		}

	case *rpc.ApplyEventRequest:
		return &rpc.ApplyEventResponse{Status: h.colony.EnqueueEvent(r.Event)}

	case *rpc.GetShardStatsRequest:
		stats, status := h.colony.Stats(r.Shard)
		return &rpc.GetShardStatsResponse{Status: status, Stats: stats}

	case *rpc.GetShardTickRequest:
		tick, status := h.colony.Tick(r.Shard)
		return &rpc.GetShardTickResponse{Status: status, Tick: tick}

	case *rpc.StartTickingRequest:
		return &rpc.StartTickingResponse{Status: h.colony.StartTicking(ctx)}

	case *rpc.UpdatedShardContentsRequest:
		return &rpc.UpdatedShardContentsResponse{Status: h.colony.MergeBorderUpdate(&r.Update)}

	default:
		return &rpc.ErrorResponse{Message: fmt.Sprintf("unhandled request type %T", req)}
	}
}
