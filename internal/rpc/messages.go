package rpc

import (
	"encoding/gob"

	"github.com/dreamware/colony/internal/cluster"
	"github.com/dreamware/colony/internal/colony"
)

// Status is the shared result code carried by responses.
type Status uint8

const (
	StatusOK Status = iota
	StatusColonyNotInitialized
	StatusTopologyNotInitialized
	StatusShardNotAvailable
	StatusShardAlreadyInitialized
	StatusInvalidShard
	StatusInvalidTopography
)

// String returns the status name used in logs.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "Ok"
	case StatusColonyNotInitialized:
		return "ColonyNotInitialized"
	case StatusTopologyNotInitialized:
		return "TopologyNotInitialized"
	case StatusShardNotAvailable:
		return "ShardNotAvailable"
	case StatusShardAlreadyInitialized:
		return "ShardAlreadyInitialized"
	case StatusInvalidShard:
		return "InvalidShard"
	case StatusInvalidTopography:
		return "InvalidTopography"
	default:
		return "Unknown"
	}
}

// Request is one of the protocol's request variants.
type Request interface{ isRequest() }

// Response is one of the protocol's response variants.
type Response interface{ isResponse() }

// PingRequest checks liveness of a peer.
type PingRequest struct{}

// PingResponse acknowledges a ping.
type PingResponse struct{}

// InitShardRequest assigns one shard to the receiving worker. The first
// call a worker receives carries the colony's topology and life rules; the
// worker caches both for the life of the process, so later calls may omit
// the topology.
type InitShardRequest struct {
	Shard    colony.Shard
	Rules    colony.LifeRules
	Topology *cluster.Topology
}

// InitShardResponse reports the assignment outcome.
type InitShardResponse struct {
	Status Status
}

// InitShardTopographyRequest pushes generated elevation data for one
// hosted shard.
type InitShardTopographyRequest struct {
	Shard      colony.Shard
	Topography colony.ShardTopography
}

// InitShardTopographyResponse reports the topography outcome.
type InitShardTopographyResponse struct {
	Status Status
}

// ApplyEventRequest delivers one colony event for the worker to enqueue.
type ApplyEventRequest struct {
	Event colony.Event
}

// ApplyEventResponse acknowledges event receipt.
type ApplyEventResponse struct {
	Status Status
}

// GetShardStatsRequest asks for one hosted shard's statistics.
type GetShardStatsRequest struct {
	Shard colony.Shard
}

// GetShardStatsResponse carries the statistics when Status is OK.
type GetShardStatsResponse struct {
	Status Status
	Stats  colony.ShardStats
}

// GetShardTickRequest asks for one hosted shard's tick counter.
type GetShardTickRequest struct {
	Shard colony.Shard
}

// GetShardTickResponse carries the counter when Status is OK.
type GetShardTickResponse struct {
	Status Status
	Tick   uint64
}

// StartTickingRequest tells a worker to begin ticking its hosted shards.
// Ticking never starts implicitly; only this command, issued by the
// coordinator after successful colony initialization, starts it. The
// operation is idempotent.
type StartTickingRequest struct{}

// StartTickingResponse reports whether ticking is (now) running.
type StartTickingResponse struct {
	Status Status
}

// UpdatedShardContentsRequest carries a border exchange update.
type UpdatedShardContentsRequest struct {
	Update colony.BorderUpdate
}

// UpdatedShardContentsResponse acknowledges a border update. Merging is
// best-effort; a receiver that dropped the update as stale still responds
// OK.
type UpdatedShardContentsResponse struct {
	Status Status
}

// ErrorResponse is the transport-level error variant, used when a request
// cannot be decoded or matched to a handler.
type ErrorResponse struct {
	Message string
}

func (*PingRequest) isRequest()                 {}
func (*InitShardRequest) isRequest()            {}
func (*InitShardTopographyRequest) isRequest()  {}
func (*ApplyEventRequest) isRequest()           {}
func (*GetShardStatsRequest) isRequest()        {}
func (*GetShardTickRequest) isRequest()         {}
func (*StartTickingRequest) isRequest()         {}
func (*UpdatedShardContentsRequest) isRequest() {}

func (*PingResponse) isResponse()                 {}
func (*InitShardResponse) isResponse()            {}
func (*InitShardTopographyResponse) isResponse()  {}
func (*ApplyEventResponse) isResponse()           {}
func (*GetShardStatsResponse) isResponse()        {}
func (*GetShardTickResponse) isResponse()         {}
func (*StartTickingResponse) isResponse()         {}
func (*UpdatedShardContentsResponse) isResponse() {}
func (*ErrorResponse) isResponse()                {}

func init() {
	gob.Register(&PingRequest{})
	gob.Register(&InitShardRequest{})
	gob.Register(&InitShardTopographyRequest{})
	gob.Register(&ApplyEventRequest{})
	gob.Register(&GetShardStatsRequest{})
	gob.Register(&GetShardTickRequest{})
	gob.Register(&StartTickingRequest{})
	gob.Register(&UpdatedShardContentsRequest{})

	gob.Register(&PingResponse{})
	gob.Register(&InitShardResponse{})
	gob.Register(&InitShardTopographyResponse{})
	gob.Register(&ApplyEventResponse{})
	gob.Register(&GetShardStatsResponse{})
	gob.Register(&GetShardTickResponse{})
	gob.Register(&StartTickingResponse{})
	gob.Register(&UpdatedShardContentsResponse{})
	gob.Register(&ErrorResponse{})
}
